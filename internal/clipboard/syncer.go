package clipboard

import (
	"context"
	"time"

	"github.com/macwinctl/macwinctl/internal/logging"
)

var log = logging.L("clipboard")

// Syncer polls the local clipboard and invokes onChange whenever its text
// content differs from the last observed value, matching the 500ms polling
// cadence the original watch_clipboard implementation used.
type Syncer struct {
	provider Provider
	interval time.Duration
	onChange func(text string)

	last string
}

func NewSyncer(provider Provider, interval time.Duration, onChange func(text string)) *Syncer {
	return &Syncer{provider: provider, interval: interval, onChange: onChange}
}

// Run polls until ctx is cancelled. Read failures are logged and skipped —
// a transient clipboard-access failure should not stop the sync loop.
func (s *Syncer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			text, err := s.provider.GetText()
			if err != nil {
				log.Debug("clipboard read failed", "error", err)
				continue
			}
			if text == s.last || text == "" {
				continue
			}
			s.last = text
			s.onChange(text)
		}
	}
}

// SetRemoteText is called when a clipboard message arrives from the peer.
// It writes the local clipboard and records the value so the next poll
// tick does not loop the same content back out as a local change.
func (s *Syncer) SetRemoteText(text string) error {
	s.last = text
	return s.provider.SetText(text)
}
