package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lucasvieira/agendou/libs/auth"
	"github.com/lucasvieira/agendou/services/portal-service/internal/clients"
)

type fakeStore struct {
	issuedOrg   string
	issuedPhone string
	issuedCode  string
	verifyOK    bool
	verifiedOrg string
}

func (f *fakeStore) Issue(_ context.Context, orgID, phone, code string) error {
	f.issuedOrg, f.issuedPhone, f.issuedCode = orgID, phone, code
	return nil
}

func (f *fakeStore) Verify(_ context.Context, orgID, _, _ string) (bool, error) {
	f.verifiedOrg = orgID
	return f.verifyOK, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCatalogStub() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/public/organization", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("slug") != "bela-vista" {
			http.Error(w, "organization not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"organization_id": "org-1",
			"name":            "Bela Vista",
			"slug":            "bela-vista",
		})
	})
	mux.HandleFunc("/api/v1/customers/by-phone", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Org-Id") != "org-1" {
			http.Error(w, "customer not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"customer_id": "cust-1",
			"name":        "Ana",
			"phone":       "+5511999990000",
		})
	})
	return httptest.NewServer(mux)
}

func TestRequestOTPResolvesSlug(t *testing.T) {
	catalog := newCatalogStub()
	defer catalog.Close()
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer relay.Close()

	store := &fakeStore{}
	h := New(store, clients.NewCatalog(catalog.URL), nil, clients.NewRelay(relay.URL), discardLogger(), Config{JWTSecret: "secret"})

	body := `{"slug": "bela-vista", "phone": "+5511999990000"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/portal/otp/request", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.RequestOTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.issuedOrg != "org-1" {
		t.Fatalf("code issued for org %q, want org-1", store.issuedOrg)
	}
	if store.issuedPhone != "+5511999990000" {
		t.Fatalf("code issued for phone %q", store.issuedPhone)
	}
	if len(store.issuedCode) != 6 {
		t.Fatalf("issued code %q, want 6 digits", store.issuedCode)
	}
}

func TestRequestOTPUnknownSlug(t *testing.T) {
	catalog := newCatalogStub()
	defer catalog.Close()

	store := &fakeStore{}
	h := New(store, clients.NewCatalog(catalog.URL), nil, nil, discardLogger(), Config{JWTSecret: "secret"})

	body := `{"slug": "no-such-salon", "phone": "+5511999990000"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/portal/otp/request", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.RequestOTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown slug, got %d", rec.Code)
	}
	if store.issuedCode != "" {
		t.Fatal("no code should be issued for an unknown tenant")
	}
}

func TestVerifyOTPIssuesPortalToken(t *testing.T) {
	catalog := newCatalogStub()
	defer catalog.Close()

	store := &fakeStore{verifyOK: true}
	h := New(store, clients.NewCatalog(catalog.URL), nil, nil, discardLogger(), Config{JWTSecret: "secret"})

	body := `{"slug": "bela-vista", "phone": "+5511999990000", "code": "123456"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/portal/otp/verify", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.VerifyOTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.verifiedOrg != "org-1" {
		t.Fatalf("verify ran against org %q, want org-1", store.verifiedOrg)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	claims, err := auth.ParseAndVerifyHS256(out.Token, "secret")
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.OrgID != "org-1" || claims.CustomerID != "cust-1" || claims.Role != "customer" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyOTPRejectsWrongCode(t *testing.T) {
	catalog := newCatalogStub()
	defer catalog.Close()

	h := New(&fakeStore{verifyOK: false}, clients.NewCatalog(catalog.URL), nil, nil, discardLogger(), Config{JWTSecret: "secret"})

	body := `{"slug": "bela-vista", "phone": "+5511999990000", "code": "000000"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/portal/otp/verify", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.VerifyOTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
