package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// applyEnv overlays ACTORFLOW_* environment variables onto the decoded
// file values. Unset variables leave the current value untouched.
func (c *Config) applyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
