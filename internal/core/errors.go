package core

import "errors"

// Error taxonomy for the module host, per spec §7. These are sentinel
// errors so callers can match with errors.Is even through the %w wrapping
// the loader and registry apply when naming the offending module.
var (
	ErrModuleMetadata    = errors.New("module metadata error")
	ErrMissingDependency = errors.New("missing dependency")
	ErrDependencyCycle   = errors.New("dependency cycle")
	ErrModuleStartup     = errors.New("module startup error")
	ErrRegionAttach      = errors.New("region attach error")
	ErrUnknownModule     = errors.New("unknown module")
	ErrDuplicateModule   = errors.New("module already registered")
)
