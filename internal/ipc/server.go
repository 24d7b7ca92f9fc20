package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"path/filepath"

	"github.com/waypanel/waypanel/pkg/protocol"
)

// CommandHandler answers one local IPC server command.
type CommandHandler func(args json.RawMessage) (any, error)

// Server is the local IPC server for external tooling (§6): a Unix
// socket in XDG_RUNTIME_DIR, line-delimited JSON, one goroutine per
// connection, seeded with get_config_data/get_plugins_data/
// get_status_data/list_commands plus anything registered via
// RegisterCommand.
type Server struct {
	logger   *slog.Logger
	sockPath string

	handlers map[string]CommandHandler
}

// RuntimeSocketPath resolves the local IPC server's socket path under
// XDG_RUNTIME_DIR (falling back to os.TempDir when unset, so tests and
// degraded environments still get a usable path).
func RuntimeSocketPath() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "waypanel.sock")
}

// NewServer creates a Server bound to sockPath with the built-in
// commands pre-registered. getConfigData/getPluginsData/getStatusData
// are supplied by the Host Application, which owns those data sources.
func NewServer(logger *slog.Logger, sockPath string, getConfigData, getPluginsData, getStatusData func() any) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		logger:   logger.With("component", "local-ipc-server"),
		sockPath: sockPath,
		handlers: make(map[string]CommandHandler),
	}
	s.handlers["get_config_data"] = func(json.RawMessage) (any, error) { return getConfigData(), nil }
	s.handlers["get_plugins_data"] = func(json.RawMessage) (any, error) { return getPluginsData(), nil }
	s.handlers["get_status_data"] = func(json.RawMessage) (any, error) { return getStatusData(), nil }
	s.handlers["list_commands"] = func(json.RawMessage) (any, error) { return s.commandNames(), nil }
	return s
}

// RegisterCommand adds (or replaces) a module-contributed command.
func (s *Server) RegisterCommand(name string, handler CommandHandler) {
	s.handlers[name] = handler
}

func (s *Server) commandNames() []string {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	return names
}

// Run removes any stale socket file, listens, and serves connections
// until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	_ = os.Remove(s.sockPath)
	ln, err := net.Listen("unix", s.sockPath)
	if err != nil {
		return err
	}
	defer ln.Close()
	defer os.Remove(s.sockPath)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Warn("accept failed", "error", err)
			continue
		}
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	enc := json.NewEncoder(conn)
	for scanner.Scan() {
		var req protocol.Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			_ = enc.Encode(protocol.Err("", "malformed request: "+err.Error()))
			continue
		}

		handler, ok := s.handlers[req.Command]
		if !ok {
			_ = enc.Encode(protocol.Err(req.Command, "unknown command"))
			continue
		}

		data, err := handler(req.Args)
		if err != nil {
			_ = enc.Encode(protocol.Err(req.Command, err.Error()))
			continue
		}
		_ = enc.Encode(protocol.OK(req.Command, data))
	}
}
