//go:build windows

package rpc

import (
	"bufio"
	"encoding/json"
	"net"

	"github.com/Microsoft/go-winio"
)

const pipeReadBufferSize = 4 * 1024

// ListenPipe serves the same request/response RPC surface as ListenAndServe
// over a Windows named pipe, for GUI collaborators that prefer a local
// pipe transport over loopback websockets. Framing is line-delimited JSON,
// mirroring internal/session's wire framing discipline.
func (s *Server) ListenPipe(pipeName string, stop <-chan struct{}) error {
	ln, err := winio.ListenPipe(pipeName, nil)
	if err != nil {
		return err
	}
	defer ln.Close()

	go func() {
		<-stop
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-stop:
				return nil
			default:
				log.Warn("rpc pipe accept error", "error", err)
				continue
			}
		}
		go s.servePipeConn(conn)
	}
}

func (s *Server) servePipeConn(conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReaderSize(conn, pipeReadBufferSize)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}

		var req Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			log.Debug("malformed pipe rpc request", "error", err)
			continue
		}

		resp := s.dispatch(req)
		data, err := json.Marshal(resp)
		if err != nil {
			log.Warn("failed to marshal pipe rpc response", "error", err)
			continue
		}
		data = append(data, '\n')
		if _, err := conn.Write(data); err != nil {
			return
		}
	}
}
