// Package ops implements the operation surface (§4.5): get, put, update,
// delete, query, scan, batch_get, batch_write, and transact_write against
// a single in-memory table state, validated against the manifest.
package ops

import "fmt"

// Config controls how a Service is constructed (§6's "recognized
// configuration options"): in-memory is only legal when EnvironmentTag
// is "test", matching a host that reserves the in-memory engine for
// tests and always talks to a networked backend otherwise.
type Config struct {
	EnvironmentTag string
	InMemory       bool
}

func (c Config) validate() error {
	if !c.InMemory {
		return fmt.Errorf("ops: only InMemory configuration is supported")
	}
	if c.EnvironmentTag != "test" {
		return fmt.Errorf("ops: in-memory engine is only legal when EnvironmentTag is %q, got %q", "test", c.EnvironmentTag)
	}
	return nil
}
