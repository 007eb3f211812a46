package app

import (
	"fmt"
	"strings"

	"github.com/steviecodesit/ourhome/pkg/crypto"
)

// EnsureAuthSecret fills in a random JWT signing secret when the configuration
// does not provide one. It reports whether a secret was generated; generated
// secrets do not survive restarts, so issued tokens are invalidated on
// redeploy. Production deployments should configure a stable secret.
func EnsureAuthSecret(cfg *Config) (bool, error) {
	if cfg == nil {
		return false, fmt.Errorf("config: nil config")
	}
	if strings.TrimSpace(cfg.Auth.JWT.Secret) != "" {
		return false, nil
	}

	secret, err := crypto.GenerateToken(32)
	if err != nil {
		return false, fmt.Errorf("config: generate jwt secret: %w", err)
	}
	cfg.Auth.JWT.Secret = secret
	return true, nil
}
