package auth

import (
	"context"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
)

// ResourceAccessSource supplies the resource_access claim for a user.
type ResourceAccessSource interface {
	ResourceAccess(ctx context.Context, u entity.AuthUserDto) (token.ResourceAccess, error)
}

// StaticResourceAccess grants every user the same fixed permissions.
// TODO: replace with a source backed by the authorization tables once they exist.
type StaticResourceAccess struct {
	Grants token.ResourceAccess
}

// DefaultResourceAccess is the grant set used until per-user permissions are stored.
func DefaultResourceAccess(client string) StaticResourceAccess {
	return StaticResourceAccess{Grants: token.ResourceAccess{
		client: {
			"channel/test":  {"read", "write"},
			"channel/test2": {"read", "write"},
		},
	}}
}

// ResourceAccess returns a copy so callers can't mutate the shared grants.
func (s StaticResourceAccess) ResourceAccess(context.Context, entity.AuthUserDto) (token.ResourceAccess, error) {
	out := make(token.ResourceAccess, len(s.Grants))
	for client, resources := range s.Grants {
		rs := make(map[string][]string, len(resources))
		for res, actions := range resources {
			rs[res] = append([]string(nil), actions...)
		}
		out[client] = rs
	}
	return out, nil
}
