package runtime

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
)

// Cmd implements core.CommandRunner: it runs an external command
// detached from the UI thread, per §4.H ("Blocking must happen off the
// UI thread"). Output is captured to the logger rather than discarded,
// grounded on the teacher's internal/security.SandboxExecutor posture of
// wrapping exec.Command rather than calling it bare, minus the
// sandboxing itself (out of scope for a panel host).
type Cmd struct {
	logger *slog.Logger
}

// NewCmd creates a Cmd that logs via logger.
func NewCmd(logger *slog.Logger) *Cmd {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cmd{logger: logger.With("component", "cmd-runner")}
}

// Run starts argv detached and returns immediately; stdout/stderr are
// streamed to the logger from a background goroutine so the caller
// never blocks on the child's lifetime.
func (c *Cmd) Run(argv []string) error {
	if len(argv) == 0 {
		return errors.New("cmd: empty argv")
	}

	command := exec.Command(argv[0], argv[1:]...)
	stdout, err := command.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := command.StderrPipe()
	if err != nil {
		return err
	}

	if err := command.Start(); err != nil {
		return err
	}

	go c.drain(stdout, slog.LevelInfo, argv[0])
	go c.drain(stderr, slog.LevelWarn, argv[0])
	go func() {
		if err := command.Wait(); err != nil {
			c.logger.Warn("command exited with error", "argv0", argv[0], "error", err)
		}
	}()
	return nil
}

func (c *Cmd) drain(r io.ReadCloser, level slog.Level, argv0 string) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		c.logger.Log(context.Background(), level, scanner.Text(), "argv0", argv0)
	}
}
