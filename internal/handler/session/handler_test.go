package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	sessionmodel "github.com/d1ced/insurance-bot/internal/model/session"
)

func setupRouter(store sessionmodel.Store) *chi.Mux {
	r := chi.NewRouter()
	New(store).RegisterRoutes(r)
	return r
}

func TestGetSessionKnownChat(t *testing.T) {
	store := sessionmodel.NewMemoryStore()
	sess := store.GetOrCreate(42)
	sess.State = sessionmodel.StateConfirmingPassport
	sess.GivenNames = "ANA"
	store.Put(sess)

	r := setupRouter(store)
	req := httptest.NewRequest(http.MethodGet, "/sessions/42", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["state"] != "confirming_passport" {
		t.Fatalf("unexpected state %v", body["state"])
	}
	if body["givenNames"] != "ANA" {
		t.Fatalf("unexpected givenNames %v", body["givenNames"])
	}
}

func TestGetSessionUnknownChat(t *testing.T) {
	r := setupRouter(sessionmodel.NewMemoryStore())
	req := httptest.NewRequest(http.MethodGet, "/sessions/7", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestGetSessionInvalidChatID(t *testing.T) {
	r := setupRouter(sessionmodel.NewMemoryStore())
	req := httptest.NewRequest(http.MethodGet, "/sessions/not-a-number", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
