package host

// pluginStatus is one entry of the get_plugins_data / get_status_data
// tooling surface described in §4.H and §6: a module's identity and
// its current lifecycle state, independent of whether it has UI.
type pluginStatus struct {
	ID     string `json:"id"`
	State  string `json:"state"`
	Reason string `json:"reason,omitempty"`
}

// ConfigData answers the local IPC server's get_config_data command
// with a snapshot of the live configuration tree.
func (a *Application) ConfigData() any {
	return a.cfg.Snapshot()
}

// PluginsData answers get_plugins_data: every discovered module's
// current lifecycle state, including Failed entries that carry no UI,
// per §7 ("a failed module ... its entry remains in tooling listings
// marked Failed").
func (a *Application) PluginsData() any {
	return a.pluginStatuses()
}

func (a *Application) pluginStatuses() []pluginStatus {
	metas := a.registry.All()
	out := make([]pluginStatus, 0, len(metas))
	for _, m := range metas {
		state := "unloaded"
		reason := ""
		if inst, ok := a.loader.Instance(m.ID); ok {
			s, r, _ := inst.State()
			state = string(s)
			reason = string(r)
		}
		out = append(out, pluginStatus{ID: string(m.ID), State: state, Reason: reason})
	}
	return out
}

// StatusData answers get_status_data: plugin states, the running
// handler-exception counter (§8), and the output panel surfaces are
// currently anchored to. It also feeds the Prometheus gauges exposed
// on the optional /metrics endpoint.
func (a *Application) StatusData() any {
	plugins := a.pluginStatuses()
	if a.metrics != nil {
		a.metrics.Observe(plugins)
	}
	return map[string]any{
		"plugins":            plugins,
		"handler_exceptions": a.bus.HandlerExceptions(),
		"target_output":      a.CurrentOutput(),
	}
}
