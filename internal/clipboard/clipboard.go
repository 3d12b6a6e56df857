// Package clipboard implements the daemon's clipboard get/set/sync surface
// named by the session layer's clipboard message and the GUI's
// get_clipboard_text/set_clipboard_text operations. The wire and RPC
// surfaces are text-only, so unlike the richer image/RTF clipboard the
// teacher supported, this Provider interface is narrowed to strings.
package clipboard

// Provider is the OS clipboard accessor.
type Provider interface {
	GetText() (string, error)
	SetText(text string) error
}
