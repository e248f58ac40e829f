package config

import (
	"fmt"
	"strings"
)

// Validate reports the required environment variables that are missing.
func Validate(cfg Config) error {
	var missing []string
	if cfg.GetClientID() == "" {
		missing = append(missing, clientIDVar)
	}
	if cfg.GetClientSecret() == "" {
		missing = append(missing, clientSecretVar)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}
