package owner

import (
	"encoding/json"
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

func newTestHandler() (*Handler, *mockSessions) {
	store := newOwnerFixture()
	sessions := &mockSessions{}
	svc := NewService(store, nil, nil, zap.NewNop().Sugar())
	return NewHandler(svc, sessions, auth.NewAuthorizer(store, nil), zap.NewNop().Sugar()), sessions
}

func TestHandler_Login(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantMessage string
		wantURL     string
	}{
		{"nin field", `{"nin":"alice","password":"secret"}`, http.StatusOK, "Facility Access Granted: City Care", "/accounts/dashboard/admin/7/"},
		{"username field", `{"username":"alice","password":"secret"}`, http.StatusOK, "Facility Access Granted: City Care", "/accounts/dashboard/admin/7/"},
		{"wrong password", `{"nin":"alice","password":"x"}`, http.StatusUnauthorized, "Invalid ID or Password.", ""},
		{"missing account", `{"nin":"bob","password":"hunter2"}`, http.StatusInternalServerError, "Owner account found, but session user is missing.", ""},
		{"malformed", `{"nin":`, http.StatusBadRequest, "Invalid JSON format", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, sessions := newTestHandler()
			rr := httptest.NewRecorder()
			h.Login(rr, httptest.NewRequest(http.MethodPost, "/api/login/", strings.NewReader(tt.body)))

			if rr.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			var resp LoginResponse
			json.NewDecoder(rr.Body).Decode(&resp)
			if resp.Message != tt.wantMessage || resp.RedirectURL != tt.wantURL {
				t.Errorf("Unexpected body: %+v", resp)
			}
			wantSessions := 0
			if tt.wantStatus == http.StatusOK {
				wantSessions = 1
			}
			if len(sessions.created) != wantSessions {
				t.Errorf("Expected %d sessions, got %d", wantSessions, len(sessions.created))
			}
		})
	}
}

func TestHandler_Dashboard(t *testing.T) {
	alice := &auth.Principal{Kind: auth.KindHospitalOwner, Username: "alice", HospitalID: 7, AccountID: 3}

	tests := []struct {
		name       string
		principal  *auth.Principal
		path       string
		wantStatus int
	}{
		{"owner", alice, "/accounts/dashboard/admin/7/", http.StatusOK},
		{"other hospital", alice, "/accounts/dashboard/admin/8/", http.StatusForbidden},
		{"unknown hospital", alice, "/accounts/dashboard/admin/99/", http.StatusNotFound},
		{"anonymous", nil, "/accounts/dashboard/admin/7/", http.StatusUnauthorized},
		{"doctor", &auth.Principal{Kind: auth.KindDoctor, DoctorID: 1}, "/accounts/dashboard/admin/7/", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler()
			router := mux.NewRouter()
			router.HandleFunc("/accounts/dashboard/admin/{hospital_id}/", h.Dashboard)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.principal != nil {
				req = req.WithContext(auth.ContextWithPrincipal(req.Context(), tt.principal))
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if tt.wantStatus == http.StatusOK {
				var resp DashboardResponse
				json.NewDecoder(rr.Body).Decode(&resp)
				if resp.HospitalName != "City Care" || resp.OwnerUsername != "alice" {
					t.Errorf("Unexpected body: %+v", resp)
				}
			}
		})
	}
}
