package app

import (
	"strings"

	iauth "github.com/steviecodesit/ourhome/internal/auth"
)

// JWTServiceConfig converts the configuration into the JWT service settings.
func (c AuthConfig) JWTServiceConfig() iauth.JWTConfig {
	return iauth.JWTConfig{
		Secret:         strings.TrimSpace(c.JWT.Secret),
		Issuer:         strings.TrimSpace(c.JWT.Issuer),
		AccessTokenTTL: c.JWT.TTL,
	}
}
