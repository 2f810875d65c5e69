package otp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tattva-health/portal-service/internal/auth"
	"go.uber.org/zap"
)

type mockService struct {
	RequestCodeFunc        func(ctx context.Context, phone string) error
	VerifyCodeFunc         func(ctx context.Context, phone, code string) error
	CheckPatientExistsFunc func(ctx context.Context, phone string) (bool, error)
}

func (m *mockService) RequestCode(ctx context.Context, phone string) error {
	return m.RequestCodeFunc(ctx, phone)
}

func (m *mockService) VerifyCode(ctx context.Context, phone, code string) error {
	return m.VerifyCodeFunc(ctx, phone, code)
}

func (m *mockService) CheckPatientExists(ctx context.Context, phone string) (bool, error) {
	return m.CheckPatientExistsFunc(ctx, phone)
}

type mockSessions struct {
	created []*auth.Principal
	err     error
}

func (m *mockSessions) Create(w http.ResponseWriter, r *http.Request, pr *auth.Principal) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, pr)
	return nil
}

func post(h http.HandlerFunc, body string) (*httptest.ResponseRecorder, StatusResponse) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h(rr, req)
	var resp StatusResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	return rr, resp
}

func TestHandler_RequestCode(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantState  string
		wantMsg    string
	}{
		{"success", `{"phone":"9876543210"}`, nil, http.StatusOK, "success", "OTP sent successfully"},
		{"invalid json", `{phone`, nil, http.StatusBadRequest, "error", "Invalid JSON format"},
		{"invalid phone", `{"phone":"123"}`, ErrInvalidPhone, http.StatusBadRequest, "error", "Invalid phone number"},
		{"unknown patient", `{"phone":"9000000000"}`, ErrPatientNotFound, http.StatusForbidden, "error", "Patient not found. Registration required."},
		{"internal", `{"phone":"9876543210"}`, errors.New("db down"), http.StatusInternalServerError, "error", "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{RequestCodeFunc: func(ctx context.Context, phone string) error { return tt.serviceErr }}
			h := NewHandler(svc, &mockSessions{}, zap.NewNop().Sugar())

			rr, resp := post(h.RequestCode, tt.body)
			if rr.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if resp.Status != tt.wantState || resp.Message != tt.wantMsg {
				t.Errorf("Expected %s/%q, got %s/%q", tt.wantState, tt.wantMsg, resp.Status, resp.Message)
			}
		})
	}
}

func TestHandler_VerifyCode_Success(t *testing.T) {
	var gotPhone, gotCode string
	svc := &mockService{VerifyCodeFunc: func(ctx context.Context, phone, code string) error {
		gotPhone, gotCode = phone, code
		return nil
	}}
	sessions := &mockSessions{}
	h := NewHandler(svc, sessions, zap.NewNop().Sugar())

	rr, resp := post(h.VerifyCode, `{"phone":" 9876543210","otp":"123456"}`)

	if rr.Code != http.StatusOK || resp.Status != "success" {
		t.Fatalf("Expected 200 success, got %d %+v", rr.Code, resp)
	}
	if gotCode != "123456" {
		t.Errorf("Expected legacy otp field to be accepted, got %q", gotCode)
	}
	if gotPhone != " 9876543210" {
		t.Errorf("Expected raw phone passed to service, got %q", gotPhone)
	}
	if len(sessions.created) != 1 {
		t.Fatalf("Expected 1 session, got %d", len(sessions.created))
	}
	pr := sessions.created[0]
	if pr.Kind != auth.KindPatient || pr.Phone != "9876543210" {
		t.Errorf("Unexpected principal: %+v", pr)
	}
}

func TestHandler_VerifyCode_Failures(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		serviceErr  error
		sessionErr  error
		wantStatus  int
		wantMessage string
	}{
		{"invalid json", `nope`, nil, nil, http.StatusBadRequest, "Invalid JSON format"},
		{"bad code", `{"phone":"9876543210","code":"000000"}`, ErrInvalidOrExpiredCode, nil, http.StatusUnauthorized, "Invalid or expired OTP"},
		{"store error", `{"phone":"9876543210","code":"000000"}`, errors.New("redis down"), nil, http.StatusInternalServerError, "Internal server error"},
		{"session error", `{"phone":"9876543210","code":"123456"}`, nil, errors.New("redis down"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{VerifyCodeFunc: func(ctx context.Context, phone, code string) error { return tt.serviceErr }}
			sessions := &mockSessions{err: tt.sessionErr}
			h := NewHandler(svc, sessions, zap.NewNop().Sugar())

			rr, resp := post(h.VerifyCode, tt.body)
			if rr.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if resp.Status != "error" || resp.Message != tt.wantMessage {
				t.Errorf("Expected error/%q, got %+v", tt.wantMessage, resp)
			}
			if len(sessions.created) != 0 {
				t.Error("Expected no session to be created")
			}
		})
	}
}

func TestHandler_CheckPatientExists(t *testing.T) {
	svc := &mockService{CheckPatientExistsFunc: func(ctx context.Context, phone string) (bool, error) {
		if phone == "bad" {
			return false, ErrInvalidPhone
		}
		return phone == "9876543210", nil
	}}
	h := NewHandler(svc, &mockSessions{}, zap.NewNop().Sugar())

	tests := []struct {
		body       string
		wantStatus int
		wantExists bool
	}{
		{`{"phone":"9876543210"}`, http.StatusOK, true},
		{`{"phone":"9000000000"}`, http.StatusOK, false},
		{`{"phone":"bad"}`, http.StatusBadRequest, false},
		{`{`, http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/check_patient_exists/", strings.NewReader(tt.body))
		rr := httptest.NewRecorder()
		h.CheckPatientExists(rr, req)

		if rr.Code != tt.wantStatus {
			t.Errorf("%s: expected status %d, got %d", tt.body, tt.wantStatus, rr.Code)
		}
		var resp ExistsResponse
		json.NewDecoder(rr.Body).Decode(&resp)
		if resp.Exists != tt.wantExists {
			t.Errorf("%s: expected exists=%v, got %v", tt.body, tt.wantExists, resp.Exists)
		}
	}
}
