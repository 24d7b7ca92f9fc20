package ipc

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

// withSocketEnv sets WAYFIRE_SOCKET to path for the duration of the test
// and clears every other socketEnvVars entry, restoring the prior
// environment afterward.
func withSocketEnv(t *testing.T, path string) {
	t.Helper()
	saved := make(map[string]string)
	for _, name := range socketEnvVars {
		saved[name] = os.Getenv(name)
		os.Unsetenv(name)
	}
	os.Setenv("WAYFIRE_SOCKET", path)
	t.Cleanup(func() {
		for name, v := range saved {
			if v == "" {
				os.Unsetenv(name)
			} else {
				os.Setenv(name, v)
			}
		}
	})
}

func TestNewClientFailsWithoutSocketEnvVar(t *testing.T) {
	withSocketEnv(t, "")

	if _, err := NewClient(nil); !errors.Is(err, ErrNoSocket) {
		t.Fatalf("expected ErrNoSocket, got %v", err)
	}
}

func TestClientCallsFailFastWhenDisconnected(t *testing.T) {
	withSocketEnv(t, filepath.Join(t.TempDir(), "never-listens.sock"))

	client, err := NewClient(nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := client.ListViews(context.Background()); !errors.Is(err, ErrDisconnected) {
		t.Fatalf("expected ErrDisconnected before any connection is established, got %v", err)
	}
}

func TestClientCallTimesOutWhenCompositorNeverResponds(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "silent-compositor.sock")
	withSocketEnv(t, sockPath)

	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		// Accept the request but never write a response, exercising the
		// default request timeout rather than a caller-supplied deadline.
		buf := make([]byte, 1024)
		for {
			if _, err := conn.Read(buf); err != nil {
				return
			}
		}
	}()

	client, err := NewClient(nil)
	if err != nil {
		t.Fatal(err)
	}
	client.SetRequestTimeout(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go client.Run(ctx)

	deadline := time.Now().Add(900 * time.Millisecond)
	for time.Now().Before(deadline) {
		if _, err := client.ListViews(context.Background()); err != nil {
			if !errors.Is(err, ErrTimeout) && !errors.Is(err, ErrDisconnected) {
				t.Fatalf("expected ErrTimeout (or ErrDisconnected before connect), got %v", err)
			}
			if errors.Is(err, ErrTimeout) {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected a call to time out via the default request timeout, none did")
}

func TestClientReconnectsAfterDisconnect(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "compositor.sock")
	withSocketEnv(t, sockPath)

	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	const dropFirstN = 2
	go func() {
		for i := 0; ; i++ {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			if i < dropFirstN {
				conn.Close()
				continue
			}
			// Hold this connection open for the rest of the test.
			go func(c net.Conn) {
				buf := make([]byte, 1024)
				for {
					if _, err := c.Read(buf); err != nil {
						return
					}
				}
			}(conn)
		}
	}()

	client, err := NewClient(nil)
	if err != nil {
		t.Fatal(err)
	}

	var connects, disconnects int32
	client.OnConnect(func() { atomic.AddInt32(&connects, 1) })
	client.OnDisconnect(func() { atomic.AddInt32(&disconnects, 1) })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan struct{})
	go func() {
		client.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(4 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(&connects) > dropFirstN && atomic.LoadInt32(&disconnects) >= dropFirstN {
			cancel()
			<-done
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done
	t.Fatalf("expected client to reconnect past %d dropped connections; got connects=%d disconnects=%d",
		dropFirstN, atomic.LoadInt32(&connects), atomic.LoadInt32(&disconnects))
}
