//go:build darwin && !cgo

package clipboard

import (
	"bytes"
	"os/exec"
)

// SystemClipboard falls back to pbcopy/pbpaste when built without CGO.
type SystemClipboard struct{}

func NewSystemClipboard() *SystemClipboard {
	return &SystemClipboard{}
}

func (s *SystemClipboard) GetText() (string, error) {
	out, err := exec.Command("pbpaste").Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (s *SystemClipboard) SetText(text string) error {
	cmd := exec.Command("pbcopy")
	cmd.Stdin = bytes.NewReader([]byte(text))
	return cmd.Run()
}
