package rpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/brinefs/nfs2d/internal/logger"
)

// Handler processes one decoded call's procedure arguments and returns
// the XDR-encoded result body to wrap in a reply, and ok. ok is false when
// the procedure is not recognized or the handler could not decode its
// arguments or encode its result; every false maps to PROC_UNAVAIL.
type Handler func(procedure uint32, body []byte, cred Cred) (result []byte, ok bool)

// Server is a single-program ONC RPC/UDP listener (spec.md §6 names the
// transport layer an external collaborator; this is nfs2d's concrete
// one). MOUNT, NFS and NLM each run their own Server on their own port,
// mirroring classic portmap-registered NFSv2 services.
type Server struct {
	Name      string
	Program   uint32
	Version   uint32
	Port      int
	Handle    Handler

	conn *net.UDPConn
	wg   sync.WaitGroup
}

// ListenAndServe binds the server's UDP port and serves until ctx is
// done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf(":%d", s.Port))
	if err != nil {
		return fmt.Errorf("%s: resolve udp :%d: %w", s.Name, s.Port, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("%s: listen udp :%d: %w", s.Name, s.Port, err)
	}
	s.conn = conn

	logger.Info("rpc server listening", "service", s.Name, "program", s.Program, "version", s.Version, "port", s.Port)

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = s.conn.Close()
		case <-done:
		}
	}()

	s.serve()
	close(done)
	return nil
}

func (s *Server) serve() {
	buf := make([]byte, 65535)
	for {
		if err := s.conn.SetReadDeadline(time.Now().Add(time.Second)); err != nil {
			return
		}
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return
		}

		msg := make([]byte, n)
		copy(msg, buf[:n])

		s.wg.Add(1)
		go func(msg []byte, addr *net.UDPAddr) {
			defer s.wg.Done()
			s.handleMessage(msg, addr)
		}(msg, addr)
	}
}

func (s *Server) handleMessage(msg []byte, addr *net.UDPAddr) {
	call, body, err := ReadCall(msg)
	if err != nil {
		logger.Debug("rpc: malformed call", "service", s.Name, "client", addr.String(), "error", err)
		return
	}

	if call.Program != s.Program {
		logger.Debug("rpc: wrong program", "service", s.Name, "program", call.Program, "client", addr.String())
		s.reply(addr, ErrorReply(call.XID, ProgUnavail))
		return
	}
	if call.Version != s.Version {
		s.reply(addr, ProgMismatchReply(call.XID, s.Version, s.Version))
		return
	}

	result, ok := s.Handle(call.Procedure, body, call.Cred)
	if !ok {
		logger.Debug("rpc: procedure unavailable", "service", s.Name, "procedure", call.Procedure, "client", addr.String())
		s.reply(addr, ErrorReply(call.XID, ProcUnavail))
		return
	}
	s.reply(addr, SuccessReply(call.XID, result))
}

func (s *Server) reply(addr *net.UDPAddr, body []byte) {
	if _, err := s.conn.WriteToUDP(body, addr); err != nil {
		logger.Debug("rpc: write reply error", "service", s.Name, "client", addr.String(), "error", err)
	}
}

// Close stops the listener and waits for in-flight handlers to finish.
func (s *Server) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.wg.Wait()
	return err
}
