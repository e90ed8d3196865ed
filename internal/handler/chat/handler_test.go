package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/medassist/backend/internal/analysis/triage"
	"github.com/zhouzirui/medassist/backend/internal/model/chat"
	"github.com/zhouzirui/medassist/backend/internal/service/consult"
	"github.com/zhouzirui/medassist/backend/internal/service/geocode"
	"github.com/zhouzirui/medassist/backend/internal/service/location"

	chatservice "github.com/zhouzirui/medassist/backend/internal/service/chat"
)

type stubGeocoder struct {
	candidates []geocode.Candidate
	err        error
}

func (s stubGeocoder) Reverse(_ context.Context, _, _ float64) (geocode.Place, error) {
	return geocode.Place{City: "Denver", PrincipalSubdivision: "Colorado", CountryName: "United States"}, s.err
}

func (s stubGeocoder) Forward(_ context.Context, _ string) ([]geocode.Candidate, error) {
	return s.candidates, s.err
}

func setupRouter(geo stubGeocoder) *chi.Mux {
	chatSvc := chatservice.NewService()
	resolver := location.NewResolver(geo, geo)
	consultSvc := consult.NewService(chatSvc, resolver, consult.Config{}, consult.WithWaiter(func(ctx context.Context, _ time.Duration) error {
		return nil
	}))
	handler := New(chatSvc, consultSvc)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func createSession(t *testing.T, r http.Handler) string {
	t.Helper()
	resp := doJSON(t, r, http.MethodPost, "/session", nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	var out sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if out.Session.ID == "" || len(out.Messages) != 1 {
		t.Fatalf("unexpected create response: %+v", out)
	}
	return out.Session.ID
}

func TestCreateAndGetSession(t *testing.T) {
	r := setupRouter(stubGeocoder{})
	id := createSession(t, r)

	resp := doJSON(t, r, http.MethodGet, "/session/"+id, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var session chat.Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if session.State != chat.StateAwaitingLocation {
		t.Fatalf("unexpected state: %s", session.State)
	}

	if resp := doJSON(t, r, http.MethodGet, "/session/missing", nil); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestSubmitRequiresLocation(t *testing.T) {
	r := setupRouter(stubGeocoder{})
	id := createSession(t, r)

	resp := doJSON(t, r, http.MethodPost, "/session/"+id+"/messages", map[string]string{"text": "fever"})
	if resp.Code != http.StatusPreconditionFailed {
		t.Fatalf("expected 412, got %d", resp.Code)
	}

	resp = doJSON(t, r, http.MethodPost, "/session/"+id+"/messages", map[string]string{"text": ""})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty text, got %d", resp.Code)
	}
}

func TestManualLocationThenSevereSubmit(t *testing.T) {
	r := setupRouter(stubGeocoder{})
	id := createSession(t, r)

	resp := doJSON(t, r, http.MethodPost, "/session/"+id+"/location/manual", map[string]string{"city": "Atlantis"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var update sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&update); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if update.Session.Location == nil || update.Session.Location.City != "Atlantis" || !update.Session.Location.Approximate {
		t.Fatalf("expected approximate placeholder, got %+v", update.Session.Location)
	}

	resp = doJSON(t, r, http.MethodPost, "/session/"+id+"/messages", map[string]string{"text": "I have chest pain and can't breathe"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var reply consult.Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reply.Result.Tier != triage.TierSevere || reply.Result.Specialization != triage.Cardiology {
		t.Fatalf("unexpected result: %+v", reply.Result)
	}
	if !strings.Contains(reply.Messages[3].Content, "Cardiology+hospital+near+Atlantis") {
		t.Fatalf("expected map link, got %s", reply.Messages[3].Content)
	}

	transcript := doJSON(t, r, http.MethodGet, "/session/"+id+"/messages", nil)
	var messages []chat.Message
	if err := json.NewDecoder(transcript.Body).Decode(&messages); err != nil {
		t.Fatalf("decode transcript: %v", err)
	}
	// welcome, 2 location, user, 4 responses
	if len(messages) != 8 {
		t.Fatalf("expected 8 messages, got %d", len(messages))
	}
	if messages[3].Role != chat.RoleUser {
		t.Fatalf("expected user message before responses, got %s", messages[3].Role)
	}
}

func TestDetectLocationRequests(t *testing.T) {
	r := setupRouter(stubGeocoder{})
	id := createSession(t, r)

	resp := doJSON(t, r, http.MethodPost, "/session/"+id+"/location/detect", map[string]any{})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without coordinates, got %d", resp.Code)
	}

	resp = doJSON(t, r, http.MethodPost, "/session/"+id+"/location/detect", map[string]string{"error": "timeout"})
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for device error, got %d", resp.Code)
	}
	var failure failureResponse
	if err := json.NewDecoder(resp.Body).Decode(&failure); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(failure.Messages) != 1 || failure.Messages[0].Content != location.DeviceMessage(location.DeviceTimeout) {
		t.Fatalf("unexpected failure messages: %+v", failure.Messages)
	}

	resp = doJSON(t, r, http.MethodPost, "/session/"+id+"/location/detect", map[string]float64{"latitude": 39.74, "longitude": -104.99})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(t, r, http.MethodPost, "/session/"+id+"/location/manual", map[string]string{"city": "Boston"})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 when location already set, got %d", resp.Code)
	}
}

func TestLookupFailureReturnsBadGateway(t *testing.T) {
	r := setupRouter(stubGeocoder{err: geocode.ErrRequestFailed})
	id := createSession(t, r)

	resp := doJSON(t, r, http.MethodPost, "/session/"+id+"/location/manual", map[string]string{"city": "Boston"})
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
}

func TestResetLocationBlocksInput(t *testing.T) {
	r := setupRouter(stubGeocoder{})
	id := createSession(t, r)

	doJSON(t, r, http.MethodPost, "/session/"+id+"/location/manual", map[string]string{"city": "Atlantis"})

	resp := doJSON(t, r, http.MethodDelete, "/session/"+id+"/location", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	resp = doJSON(t, r, http.MethodPost, "/session/"+id+"/messages", map[string]string{"text": "fever"})
	if resp.Code != http.StatusPreconditionFailed {
		t.Fatalf("expected 412 after reset, got %d", resp.Code)
	}
}

func TestDetectRequestReportValidation(t *testing.T) {
	lat, lon := 100.0, 0.0
	if _, ok := (DetectRequest{Latitude: &lat, Longitude: &lon}).Report(); ok {
		t.Fatal("expected out of range latitude to be rejected")
	}
	report, ok := DetectRequest{Error: "1"}.Report()
	if !ok || report.Error != location.DevicePermissionDenied {
		t.Fatalf("unexpected report: %+v", report)
	}
}
