package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tattva-health/portal-service/internal/auth"
	"github.com/tattva-health/portal-service/internal/dashboard"
	"github.com/tattva-health/portal-service/internal/directory"
	"github.com/tattva-health/portal-service/internal/doctor"
	"github.com/tattva-health/portal-service/internal/otp"
	"github.com/tattva-health/portal-service/internal/owner"
	"github.com/tattva-health/portal-service/internal/patient"
	"github.com/tattva-health/portal-service/internal/session"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Metrics is everything the router records.
type Metrics interface {
	RequestMetrics
	auth.MetricsRecorder
	auth.PermissionMetricsRecorder
}

// Dependencies are the wired handlers and cross-cutting pieces the router
// mounts. Metrics, both rate limiters and Health are optional.
type Dependencies struct {
	ServiceName string
	Origins     []string

	Sessions    auth.PrincipalResolver
	Permissions auth.Permissions
	Metrics     Metrics
	Health      Pinger

	// RateLimiter guards /send_otp/ and VerifyRateLimiter bounds code
	// guesses on /verify_otp/. Each keeps its own buckets.
	RateLimiter       *IPRateLimiter
	VerifyRateLimiter *IPRateLimiter

	OTP       *otp.Handler
	Patient   *patient.Handler
	Doctor    *doctor.Handler
	Owner     *owner.Handler
	Dashboard *dashboard.Handler
	Directory *directory.Handler
	Session   *session.Handler
}

// NewRouter mounts every route and wraps the result in CORS handling.
func NewRouter(deps Dependencies) http.Handler {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware(deps.ServiceName))

	var authMetrics auth.MetricsRecorder
	var permMetrics auth.PermissionMetricsRecorder
	if deps.Metrics != nil {
		r.Use(MetricsMiddleware(deps.Metrics))
		authMetrics = deps.Metrics
		permMetrics = deps.Metrics
	}

	required := auth.Middleware(deps.Sessions, authMetrics)
	optional := auth.OptionalMiddleware(deps.Sessions, authMetrics)
	protected := func(permission string, h http.HandlerFunc) http.Handler {
		return required(auth.RequirePermission(permission, deps.Permissions, permMetrics)(h))
	}

	r.HandleFunc("/health", health(deps.ServiceName, deps.Health)).Methods("GET")

	// Patient login
	sendOTP := http.Handler(http.HandlerFunc(deps.OTP.RequestCode))
	if deps.RateLimiter != nil {
		sendOTP = deps.RateLimiter.Middleware("/send_otp/")(sendOTP)
	}
	r.HandleFunc("/check_patient_exists/", deps.OTP.CheckPatientExists).Methods("POST")
	r.Handle("/send_otp/", sendOTP).Methods("POST")
	verifyOTP := http.Handler(http.HandlerFunc(deps.OTP.VerifyCode))
	if deps.VerifyRateLimiter != nil {
		verifyOTP = deps.VerifyRateLimiter.Middleware("/verify_otp/")(verifyOTP)
	}
	r.Handle("/verify_otp/", verifyOTP).Methods("POST")
	r.Handle("/dashboard/", protected("patient:profile:view", deps.Patient.Me)).Methods("GET")

	// Doctors. Availability takes any session and lets the configured
	// strategy decide whether it qualifies.
	r.HandleFunc("/doctor_login/", deps.Doctor.Login).Methods("POST")
	r.Handle("/doctor/dashboard/", protected("doctor:profile:view", deps.Doctor.Me)).Methods("GET")
	r.Handle("/doctorsdashboard/{hospital_id:[0-9]+}/", protected("hospital:view", deps.Doctor.Hospital)).Methods("GET")
	for _, path := range []string{"/api/doctor/availability/", "/doctor/update-availability/"} {
		r.Handle(path, optional(http.HandlerFunc(deps.Doctor.UpdateAvailability))).Methods("POST")
	}

	// Hospital owners
	r.HandleFunc("/api/login/", deps.Owner.Login).Methods("POST")
	r.Handle("/accounts/dashboard/admin/{hospital_id:[0-9]+}/", protected("dashboard:view", deps.Owner.Dashboard)).Methods("GET")
	r.Handle("/api/hospitaldashboard/{hospital_id:[0-9]+}/", protected("dashboard:view", deps.Dashboard.GetDashboardData)).Methods("GET")

	// Public directory
	r.HandleFunc("/api/hospitals", deps.Directory.ListHospitals).Methods("GET")
	r.HandleFunc("/api/hospitals/{id:[0-9]+}/doctors", deps.Directory.HospitalDoctors).Methods("GET")

	r.Handle("/logout/", optional(http.HandlerFunc(deps.Session.Logout))).Methods("POST")

	return CORSMiddleware(deps.Origins)(r)
}

func health(service string, db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, code := "ok", http.StatusOK
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				status, code = "degraded", http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{"status": status, "service": service})
	}
}
