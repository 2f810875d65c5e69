package doctor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/tattva-health/portal-service/internal/auth"
	"go.uber.org/zap"
)

type mockSessions struct {
	created []*auth.Principal
}

func (m *mockSessions) Create(w http.ResponseWriter, r *http.Request, pr *auth.Principal) error {
	m.created = append(m.created, pr)
	return nil
}

func newTestHandler(t *testing.T) (*Handler, *mockSessions) {
	svc, _, _, _ := newTestService(t, StrategyDoctorSession)
	sessions := &mockSessions{}
	return NewHandler(svc, sessions, zap.NewNop().Sugar()), sessions
}

func TestHandler_Login(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantState  string
	}{
		{"numeric credentials", `{"doc_id": 1, "pin": 1111}`, http.StatusOK, "success"},
		{"string credentials", `{"doc_id": "1", "pin": "1111"}`, http.StatusOK, "success"},
		{"wrong pin", `{"doc_id": 1, "pin": 9999}`, http.StatusUnauthorized, "error"},
		{"missing pin", `{"doc_id": 1}`, http.StatusUnauthorized, "error"},
		{"non numeric id", `{"doc_id": "abc", "pin": "1111"}`, http.StatusUnauthorized, "error"},
		{"malformed json", `{"doc_id": `, http.StatusBadRequest, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, sessions := newTestHandler(t)
			rr := httptest.NewRecorder()
			h.Login(rr, httptest.NewRequest(http.MethodPost, "/doctor_login/", strings.NewReader(tt.body)))

			if rr.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			var resp LoginResponse
			json.NewDecoder(rr.Body).Decode(&resp)
			if resp.Status != tt.wantState {
				t.Errorf("Expected status %q, got %q", tt.wantState, resp.Status)
			}

			if tt.wantStatus == http.StatusOK {
				if resp.DoctorName != "Dr. Rao" || resp.RedirectURL != DashboardPath {
					t.Errorf("Unexpected success body: %+v", resp)
				}
				if len(sessions.created) != 1 || sessions.created[0].DoctorID != 1 {
					t.Errorf("Expected doctor session, got %+v", sessions.created)
				}
			} else if len(sessions.created) != 0 {
				t.Error("Expected no session on failure")
			}
			if tt.wantStatus == http.StatusUnauthorized && resp.Message != "Invalid ID or PIN" {
				t.Errorf("Expected uniform failure message, got %q", resp.Message)
			}
		})
	}
}

func TestHandler_UpdateAvailability(t *testing.T) {
	doctor := &auth.Principal{Kind: auth.KindDoctor, DoctorID: 1}

	tests := []struct {
		name       string
		principal  *auth.Principal
		body       string
		wantStatus int
	}{
		{"no session", nil, `{"is_available": false}`, http.StatusUnauthorized},
		{"no session bad body", nil, `garbage`, http.StatusUnauthorized},
		{"bad json", doctor, `garbage`, http.StatusBadRequest},
		{"missing flag", doctor, `{}`, http.StatusBadRequest},
		{"doctor gone", &auth.Principal{Kind: auth.KindDoctor, DoctorID: 77}, `{"is_available": false}`, http.StatusNotFound},
		{"patient session", &auth.Principal{Kind: auth.KindPatient, Phone: "9876543210"}, `{"is_available": false}`, http.StatusUnauthorized},
		{"success", doctor, `{"is_available": false}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t)
			req := httptest.NewRequest(http.MethodPost, "/doctor/update-availability/", strings.NewReader(tt.body))
			if tt.principal != nil {
				req = req.WithContext(auth.ContextWithPrincipal(req.Context(), tt.principal))
			}
			rr := httptest.NewRecorder()
			h.UpdateAvailability(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if tt.wantStatus == http.StatusOK {
				var resp AvailabilityResponse
				json.NewDecoder(rr.Body).Decode(&resp)
				if resp.Status != "success" || resp.IsAvailable {
					t.Errorf("Unexpected body: %+v", resp)
				}
			}
		})
	}
}

type failingService struct {
	ServiceInterface
}

func (failingService) UpdateAvailability(ctx context.Context, pr *auth.Principal, available bool) (bool, error) {
	return false, errors.New("db down")
}

func TestHandler_UpdateAvailabilityInternalError(t *testing.T) {
	h := NewHandler(failingService{}, &mockSessions{}, zap.NewNop().Sugar())
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"is_available": true}`))
	req = req.WithContext(auth.ContextWithPrincipal(req.Context(), &auth.Principal{Kind: auth.KindDoctor, DoctorID: 1}))
	rr := httptest.NewRecorder()
	h.UpdateAvailability(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "db down") {
		t.Error("Expected internal error detail to stay out of the response")
	}
}

func TestHandler_Me(t *testing.T) {
	h, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, DashboardPath, nil)
	req = req.WithContext(auth.ContextWithPrincipal(req.Context(), &auth.Principal{Kind: auth.KindDoctor, DoctorID: 1}))
	rr := httptest.NewRecorder()
	h.Me(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var resp ProfileResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.DoctorID != 1 || resp.DoctorName != "Dr. Rao" || !resp.Available {
		t.Errorf("Unexpected profile: %+v", resp)
	}
}

func TestHandler_Hospital(t *testing.T) {
	h, _ := newTestHandler(t)
	router := mux.NewRouter()
	router.HandleFunc("/doctorsdashboard/{hospital_id}/", h.Hospital)

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/doctorsdashboard/7/", http.StatusOK},
		{"/doctorsdashboard/8/", http.StatusNotFound},
		{"/doctorsdashboard/abc/", http.StatusBadRequest},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rr.Code != tt.wantStatus {
			t.Errorf("%s: expected status %d, got %d", tt.path, tt.wantStatus, rr.Code)
		}
	}
}
