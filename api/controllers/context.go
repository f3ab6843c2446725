package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/posengine-backend/api/middleware"
	"github.com/angelmondragon/posengine-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/posengine-backend/pkg/errors"
)

func capabilityFrom(r *http.Request) (auth.Capability, error) {
	capability, ok := middleware.CapabilityFromContext(r.Context())
	if !ok {
		return auth.Capability{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "capability missing")
	}
	return capability, nil
}

func serviceUnavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id").WithDetails(map[string]any{"field": field})
	}
	return id, nil
}
