package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zhouzirui/medassist/backend/internal/service/consult"
	"github.com/zhouzirui/medassist/backend/internal/service/geocode"
	"github.com/zhouzirui/medassist/backend/internal/service/location"

	chatService "github.com/zhouzirui/medassist/backend/internal/service/chat"
)

type nopGeocoder struct{}

func (nopGeocoder) Reverse(context.Context, float64, float64) (geocode.Place, error) {
	return geocode.Place{}, nil
}

func (nopGeocoder) Forward(context.Context, string) ([]geocode.Candidate, error) {
	return nil, nil
}

func newTestRouter(origin string) http.Handler {
	chatSvc := chatService.NewService()
	consultSvc := consult.NewService(chatSvc, location.NewResolver(nopGeocoder{}, nopGeocoder{}), consult.Config{})
	return NewRouter(chatSvc, consultSvc, origin)
}

func TestRouterHealthz(t *testing.T) {
	r := newTestRouter("*")
	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("expected CORS header")
	}
}

func TestRouterMountsAPI(t *testing.T) {
	r := newTestRouter("*")
	paths := map[string]int{
		"/api/specializations":          http.StatusOK,
		"/api/session/unknown":          http.StatusNotFound,
		"/api/session/unknown/messages": http.StatusNotFound,
		"/api/nope":                     http.StatusNotFound,
	}
	for path, want := range paths {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != want {
			t.Fatalf("%s: expected %d, got %d", path, want, resp.Code)
		}
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker("https://app.example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/ws/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	if check(req) {
		t.Fatal("expected foreign origin to be rejected")
	}
	req.Header.Set("Origin", "https://app.example.com")
	if !check(req) {
		t.Fatal("expected configured origin to be accepted")
	}
	if !originChecker("*")(req) {
		t.Fatal("wildcard should accept any origin")
	}
}
