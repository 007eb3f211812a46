package auth

import "context"

// IdentityResolver turns an opaque bearer credential into a stable user id.
// Resolution is idempotent and has no side effects; failures surface as
// errors.ErrInvalidCredential at the transport layer.
type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (string, error)
}
