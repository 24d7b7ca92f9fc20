package ipc

import "errors"

// Sentinel errors implementing the IPC half of the taxonomy in spec §7.
var (
	ErrDisconnected  = errors.New("ipc: disconnected")
	ErrTimeout       = errors.New("ipc: request timed out")
	ErrProtocol      = errors.New("ipc: protocol error")
	ErrNoSocket      = errors.New("ipc: no compositor socket environment variable set")
	ErrUnknownMethod = errors.New("ipc: unknown method")
)
