package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/waypanel/waypanel/pkg/protocol"
)

func startTestServer(t *testing.T) (sockPath string, srv *Server) {
	t.Helper()
	sockPath = filepath.Join(t.TempDir(), "waypanel.sock")
	srv = NewServer(nil, sockPath,
		func() any { return map[string]any{"ok": true} },
		func() any { return []string{"plugin.a"} },
		func() any { return map[string]any{"uptime": 1} },
	)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = srv.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if conn, err := net.Dial("unix", sockPath); err == nil {
			conn.Close()
			return sockPath, srv
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("local IPC server never became reachable")
	return "", nil
}

func sendCommand(t *testing.T, sockPath, command string, args any) protocol.Response {
	t.Helper()
	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	var raw json.RawMessage
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			t.Fatal(err)
		}
		raw = b
	}
	req := protocol.Request{Command: command, Args: raw}
	reqBytes, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := conn.Write(append(reqBytes, '\n')); err != nil {
		t.Fatal(err)
	}

	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		t.Fatalf("no response from server: %v", scanner.Err())
	}
	var resp protocol.Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestServerAnswersBuiltinCommands(t *testing.T) {
	sockPath, _ := startTestServer(t)

	resp := sendCommand(t, sockPath, "get_config_data", nil)
	if resp.Status != protocol.StatusOK {
		t.Fatalf("expected ok status for get_config_data, got %+v", resp)
	}

	resp = sendCommand(t, sockPath, "list_commands", nil)
	if resp.Status != protocol.StatusOK {
		t.Fatalf("expected ok status for list_commands, got %+v", resp)
	}
}

func TestServerAnswersUnknownCommandWithError(t *testing.T) {
	sockPath, _ := startTestServer(t)

	resp := sendCommand(t, sockPath, "not_a_real_command", nil)
	if resp.Status != protocol.StatusError {
		t.Fatalf("expected error status for unknown command, got %+v", resp)
	}
	if resp.Command != "not_a_real_command" {
		t.Fatalf("expected command echoed back in error response, got %+v", resp)
	}
}

func TestServerRegisterCommandIsReachable(t *testing.T) {
	sockPath, srv := startTestServer(t)
	srv.RegisterCommand("ping", func(json.RawMessage) (any, error) {
		return "pong", nil
	})

	resp := sendCommand(t, sockPath, "ping", nil)
	if resp.Status != protocol.StatusOK {
		t.Fatalf("expected ok status for registered command, got %+v", resp)
	}
	if resp.Data != "pong" {
		t.Fatalf("expected data %q, got %v", "pong", resp.Data)
	}
}

func TestServerMalformedRequestReturnsError(t *testing.T) {
	sockPath, _ := startTestServer(t)

	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("not json\n")); err != nil {
		t.Fatal(err)
	}

	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		t.Fatalf("no response from server: %v", scanner.Err())
	}
	var resp protocol.Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != protocol.StatusError {
		t.Fatalf("expected error status for malformed request, got %+v", resp)
	}
}
