package config

import "errors"

// Sentinel errors implementing the taxonomy in spec §7: ConfigReadError
// and ConfigWriteError are recoverable and surfaced to the user as
// notifications rather than aborting the host, except at cold start
// where an unreadable config with no compiled defaults is fatal (§6 exit
// code 1).
var (
	ErrConfigRead  = errors.New("config: read error")
	ErrConfigWrite = errors.New("config: write error")
	ErrConfigParse = errors.New("config: parse error")
)
