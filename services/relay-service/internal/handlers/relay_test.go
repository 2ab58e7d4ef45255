package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeSender struct {
	phone string
	code  string
	err   error
}

func (f *fakeSender) SendCode(_ context.Context, phone string, code string) error {
	f.phone = phone
	f.code = code
	return f.err
}

func (f *fakeSender) ProviderID() string { return "fake" }

func TestSendOTPSuccess(t *testing.T) {
	sender := &fakeSender{}
	h := NewRelayHandler(sender, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/send-otp",
		strings.NewReader(`{"phone": "+5511999990000", "code": "123456"}`))
	rec := httptest.NewRecorder()
	h.SendOTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if sender.phone != "+5511999990000" || sender.code != "123456" {
		t.Fatalf("sender got %q %q", sender.phone, sender.code)
	}
	var resp sendOTPResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Success || resp.Provider != "fake" {
		t.Fatalf("response = %+v", resp)
	}
}

func TestSendOTPProviderFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("gateway down")}
	h := NewRelayHandler(sender, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/send-otp",
		strings.NewReader(`{"phone": "+5511999990000", "code": "123456"}`))
	rec := httptest.NewRecorder()
	h.SendOTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	var resp sendOTPResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Success {
		t.Fatal("success should be false")
	}
}

func TestSendOTPValidation(t *testing.T) {
	h := NewRelayHandler(&fakeSender{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/send-otp", strings.NewReader(`{"phone": ""}`))
	rec := httptest.NewRecorder()
	h.SendOTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/send-otp", nil)
	rec = httptest.NewRecorder()
	h.SendOTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
