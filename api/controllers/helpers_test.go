package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/posengine-backend/api/middleware"
	"github.com/angelmondragon/posengine-backend/pkg/auth"
	"github.com/angelmondragon/posengine-backend/pkg/enums"
	"github.com/angelmondragon/posengine-backend/pkg/logger"
)

var testBranch = uuid.MustParse("0b7f1c9e-2d4a-4e8b-9c61-5a3e2f1d0c11")

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func cashier() auth.Capability {
	return auth.Capability{
		UserID:    uuid.New(),
		BranchID:  testBranch,
		Role:      enums.MemberRoleCashier,
		SessionID: "register-1",
	}
}

type requestOpt func(*http.Request) *http.Request

func withCapability(capability auth.Capability) requestOpt {
	return func(r *http.Request) *http.Request {
		return r.WithContext(middleware.WithCapability(r.Context(), capability))
	}
}

func withParam(key, value string) requestOpt {
	return func(r *http.Request) *http.Request {
		rctx := chi.RouteContext(r.Context())
		if rctx == nil {
			rctx = chi.NewRouteContext()
			r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
		}
		rctx.URLParams.Add(key, value)
		return r
	}
}

func serve(t *testing.T, h http.HandlerFunc, method, target, body string, opts ...requestOpt) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for _, opt := range opts {
		req = opt(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return env
}
