package middleware

import (
	"context"

	"github.com/angelmondragon/posengine-backend/pkg/auth"
)

type contextKey string

const ctxCapability contextKey = "capability"

// WithCapability injects the verified caller capability.
func WithCapability(ctx context.Context, capability auth.Capability) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	noteCapability(ctx, capability)
	return context.WithValue(ctx, ctxCapability, capability)
}

// CapabilityFromContext returns the zero capability when the request was not authenticated.
func CapabilityFromContext(ctx context.Context) (auth.Capability, bool) {
	if ctx == nil {
		return auth.Capability{}, false
	}
	capability, ok := ctx.Value(ctxCapability).(auth.Capability)
	return capability, ok
}

func UserIDFromContext(ctx context.Context) string {
	capability, ok := CapabilityFromContext(ctx)
	if !ok {
		return ""
	}
	return capability.UserID.String()
}

func BranchIDFromContext(ctx context.Context) string {
	capability, ok := CapabilityFromContext(ctx)
	if !ok {
		return ""
	}
	return capability.BranchID.String()
}
