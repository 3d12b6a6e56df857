//go:build !windows && !darwin && !linux

package platform

import "github.com/macwinctl/macwinctl/internal/model"

// otherInput is the fallback stub for unsupported OSes: it answers display
// enumeration with the single-default fallback and rejects synthesis.
type otherInput struct {
	visibilityCounter
	x, y int
}

func New() Input {
	return &otherInput{}
}

func (o *otherInput) EnumerateDisplays() ([]model.Display, error) {
	return fallbackDisplay(), nil
}

func (o *otherInput) GetCursor() (int, int, error) {
	return o.x, o.y, nil
}

func (o *otherInput) MoveCursor(x, y int) error {
	o.x, o.y = x, y
	return nil
}

func (o *otherInput) Click(Button, Action) error    { return ErrUnsupported("click") }
func (o *otherInput) Key(int, Action) error          { return ErrUnsupported("key") }
func (o *otherInput) Scroll(dx, dy int) error        { return ErrUnsupported("scroll") }

func (o *otherInput) HideCursor() error {
	o.visibilityCounter.hide()
	return nil
}

func (o *otherInput) ShowCursor() error {
	o.visibilityCounter.show()
	return nil
}
