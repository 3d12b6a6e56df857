//go:build !windows

package rpc

import "fmt"

// ListenPipe is unavailable outside Windows; the loopback websocket
// transport in ListenAndServe is the only RPC transport on these
// platforms.
func (s *Server) ListenPipe(pipeName string, stop <-chan struct{}) error {
	return fmt.Errorf("named-pipe RPC transport is only available on windows")
}
