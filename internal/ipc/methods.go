package ipc

import (
	"context"

	"github.com/waypanel/waypanel/internal/compositor"
)

// The method surface enumerated in SPEC_FULL §4.B. Each wraps call with
// the method name and argument/result shapes; this file implements
// core.IPCAccessor.

type listViewsArgs struct{}

func (c *Client) ListViews(ctx context.Context) ([]compositor.View, error) {
	raw, err := c.call(ctx, "list_views", listViewsArgs{})
	return decodeInto[[]compositor.View](raw, err)
}

type viewIDArgs struct {
	ID int `json:"id"`
}

func (c *Client) GetView(ctx context.Context, id int) (compositor.View, error) {
	raw, err := c.call(ctx, "get_view", viewIDArgs{ID: id})
	return decodeInto[compositor.View](raw, err)
}

func (c *Client) GetFocusedView(ctx context.Context) (compositor.View, error) {
	raw, err := c.call(ctx, "get_focused_view", struct{}{})
	return decodeInto[compositor.View](raw, err)
}

func (c *Client) CloseView(ctx context.Context, id int) error {
	_, err := c.call(ctx, "close_view", viewIDArgs{ID: id})
	return err
}

func (c *Client) SetFocus(ctx context.Context, id int) error {
	_, err := c.call(ctx, "set_focus", viewIDArgs{ID: id})
	return err
}

type configureViewArgs struct {
	ID       int  `json:"id"`
	X        int  `json:"x"`
	Y        int  `json:"y"`
	Width    int  `json:"width"`
	Height   int  `json:"height"`
	OutputID *int `json:"output_id,omitempty"`
}

func (c *Client) ConfigureView(ctx context.Context, id, x, y, w, h int, outputID *int) error {
	_, err := c.call(ctx, "configure_view", configureViewArgs{ID: id, X: x, Y: y, Width: w, Height: h, OutputID: outputID})
	return err
}

type viewFullscreenArgs struct {
	ID         int  `json:"id"`
	Fullscreen bool `json:"fullscreen"`
}

func (c *Client) SetViewFullscreen(ctx context.Context, id int, fullscreen bool) error {
	_, err := c.call(ctx, "set_view_fullscreen", viewFullscreenArgs{ID: id, Fullscreen: fullscreen})
	return err
}

type viewAlphaArgs struct {
	ID    int     `json:"id"`
	Alpha float64 `json:"alpha"`
}

func (c *Client) SetViewAlpha(ctx context.Context, id int, alpha float64) error {
	_, err := c.call(ctx, "set_view_alpha", viewAlphaArgs{ID: id, Alpha: alpha})
	return err
}

func (c *Client) ListOutputs(ctx context.Context) ([]compositor.Output, error) {
	raw, err := c.call(ctx, "list_outputs", struct{}{})
	return decodeInto[[]compositor.Output](raw, err)
}

func (c *Client) GetFocusedOutput(ctx context.Context) (compositor.Output, error) {
	raw, err := c.call(ctx, "get_focused_output", struct{}{})
	return decodeInto[compositor.Output](raw, err)
}

func (c *Client) GetOutputGeometry(ctx context.Context, id int) (compositor.Geometry, error) {
	raw, err := c.call(ctx, "get_output_geometry", viewIDArgs{ID: id})
	return decodeInto[compositor.Geometry](raw, err)
}

type setWorkspaceArgs struct {
	X      int  `json:"x"`
	Y      int  `json:"y"`
	ViewID *int `json:"view_id,omitempty"`
}

func (c *Client) SetWorkspace(ctx context.Context, x, y int, viewID *int) error {
	_, err := c.call(ctx, "set_workspace", setWorkspaceArgs{X: x, Y: y, ViewID: viewID})
	return err
}

func (c *Client) ScaleToggle(ctx context.Context) error {
	_, err := c.call(ctx, "scale_toggle", struct{}{})
	return err
}

func (c *Client) ToggleExpo(ctx context.Context) error {
	_, err := c.call(ctx, "toggle_expo", struct{}{})
	return err
}

func (c *Client) RegisterBinding(ctx context.Context, b compositor.Binding) error {
	_, err := c.call(ctx, "register_binding", b)
	return err
}

type optionKeyArgs struct {
	Key string `json:"key"`
}

func (c *Client) GetOptionValue(ctx context.Context, key string) (any, error) {
	raw, err := c.call(ctx, "get_option_value", optionKeyArgs{Key: key})
	return decodeInto[any](raw, err)
}

func (c *Client) SetOptionValues(ctx context.Context, values map[string]any) error {
	_, err := c.call(ctx, "set_option_values", values)
	return err
}

// RegisterCommand implements core.IPCAccessor's local command
// registration: it does not talk to the compositor at all, it records
// handler in this Client's own command table, which Commands returns.
// The local IPC Server keeps a separate dispatch table that is not filled
// from this one, so commands registered here are neither served nor
// listed by the Server.
func (c *Client) RegisterCommand(name string, handler compositor.CommandHandler) error {
	c.commandsMu.Lock()
	defer c.commandsMu.Unlock()
	if _, exists := c.commands[name]; exists {
		return ErrUnknownMethod
	}
	c.commands[name] = handler
	return nil
}

// Commands returns every registered local command name, for
// list_commands.
func (c *Client) Commands() map[string]compositor.CommandHandler {
	c.commandsMu.RLock()
	defer c.commandsMu.RUnlock()
	out := make(map[string]compositor.CommandHandler, len(c.commands))
	for k, v := range c.commands {
		out[k] = v
	}
	return out
}
