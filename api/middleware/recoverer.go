package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/posengine-backend/api/responses"
	"github.com/angelmondragon/posengine-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/posengine-backend/pkg/errors"
	"github.com/angelmondragon/posengine-backend/pkg/logger"
)

const ctxPanicScope contextKey = "panic_scope"

// panicScope collects what inner middleware learned about the request so the
// outermost Recoverer can log it. Inner contexts are gone once the stack unwinds.
type panicScope struct {
	mu         sync.Mutex
	requestID  string
	capability *auth.Capability
}

func scopeFrom(ctx context.Context) *panicScope {
	if ctx == nil {
		return nil
	}
	scope, _ := ctx.Value(ctxPanicScope).(*panicScope)
	return scope
}

func noteRequestID(ctx context.Context, requestID string) {
	if scope := scopeFrom(ctx); scope != nil {
		scope.mu.Lock()
		scope.requestID = requestID
		scope.mu.Unlock()
	}
}

func noteCapability(ctx context.Context, capability auth.Capability) {
	if scope := scopeFrom(ctx); scope != nil {
		scope.mu.Lock()
		scope.capability = &capability
		scope.mu.Unlock()
	}
}

func (s *panicScope) fields(r *http.Request, rec any) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	fields := map[string]any{
		"panic":  fmt.Sprint(rec),
		"method": r.Method,
		"path":   r.URL.Path,
	}
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		fields["route"] = rctx.RoutePattern()
	}
	if s.requestID != "" {
		fields["request_id"] = s.requestID
	}
	if s.capability != nil {
		fields["user_id"] = s.capability.UserID.String()
		fields["branch_id"] = s.capability.BranchID.String()
		fields["role"] = string(s.capability.Role)
	}
	return fields
}

// Recoverer turns a handler panic into a 500 and logs it with the request id
// and the caller's user and branch when auth already ran.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := &panicScope{}
			r = r.WithContext(context.WithValue(r.Context(), ctxPanicScope, scope))
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err := fmt.Errorf("panic: %v", rec)
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithFields(ctx, scope.fields(r, rec))
					logg.Error(ctx, "panic.recovered", err)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
