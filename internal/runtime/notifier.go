package runtime

import (
	"log/slog"
)

// Notifier implements core.Notifier. Waypanel has no direct desktop
// notification protocol of its own; it shells out to the desktop
// notification helper every freedesktop-compliant session provides,
// using the same detached-command posture as Cmd (fire-and-forget, log
// on failure, never block the UI thread), per §4.H.
type Notifier struct {
	cmd    *Cmd
	logger *slog.Logger
}

// NewNotifier creates a Notifier that shells out via cmd.
func NewNotifier(cmd *Cmd, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{cmd: cmd, logger: logger.With("component", "notifier")}
}

// NotifySend fires a desktop notification via notify-send. hints are
// accepted for interface compatibility but not forwarded: notify-send's
// hint flag syntax is notification-server-specific and out of scope
// here.
func (n *Notifier) NotifySend(title, message, icon string, hints map[string]any) {
	argv := []string{"notify-send"}
	if icon != "" {
		argv = append(argv, "--icon", icon)
	}
	argv = append(argv, title, message)

	if err := n.cmd.Run(argv); err != nil {
		n.logger.Warn("notification failed", "title", title, "error", err)
	}
}
