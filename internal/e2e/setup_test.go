package e2e

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/tattva-health/portal-service/internal/auth"
	"github.com/tattva-health/portal-service/internal/dashboard"
	"github.com/tattva-health/portal-service/internal/directory"
	"github.com/tattva-health/portal-service/internal/doctor"
	httpserver "github.com/tattva-health/portal-service/internal/http"
	"github.com/tattva-health/portal-service/internal/identity"
	"github.com/tattva-health/portal-service/internal/otp"
	"github.com/tattva-health/portal-service/internal/owner"
	"github.com/tattva-health/portal-service/internal/patient"
	"github.com/tattva-health/portal-service/internal/session"
	"github.com/tattva-health/portal-service/internal/testutil"
	"go.uber.org/zap"
)

const fixedCode = "123456"

type sentCode struct {
	Phone string
	Code  string
}

// recordingDispatcher stands in for the WhatsApp gateway.
type recordingDispatcher struct {
	mu   sync.Mutex
	sent []sentCode
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, phone, code string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, sentCode{Phone: phone, Code: code})
	return nil
}

func (d *recordingDispatcher) Sent() []sentCode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]sentCode(nil), d.sent...)
}

// emptyBookings serves a dashboard with no bookings.
type emptyBookings struct{}

func (emptyBookings) CountBookings(ctx context.Context, hospitalID int64) (int64, error) {
	return 0, nil
}

func (emptyBookings) ListDoctors(ctx context.Context, hospitalID int64, after time.Time, limit int) ([]dashboard.DoctorRow, error) {
	return []dashboard.DoctorRow{}, nil
}

func (emptyBookings) ListUpcoming(ctx context.Context, hospitalID int64, after time.Time, limit int) ([]dashboard.BookingRow, error) {
	return []dashboard.BookingRow{}, nil
}

// TestServer is the whole service over in-memory stores.
type TestServer struct {
	Server        *httptest.Server
	Identity      *testutil.IdentityStore
	Dispatcher    *recordingDispatcher
	MockPublisher *testutil.MockPublisher
	OTP           *otp.Service
}

type options struct {
	availabilityAuth string
	requestsPerMin   int
	burst            int
	verifiesPerMin   int
	verifyBurst      int
}

type Option func(*options)

func WithAvailabilityAuth(strategy string) Option {
	return func(o *options) { o.availabilityAuth = strategy }
}

func WithRequestCodeLimit(perMinute, burst int) Option {
	return func(o *options) { o.requestsPerMin, o.burst = perMinute, burst }
}

func WithVerifyCodeLimit(perMinute, burst int) Option {
	return func(o *options) { o.verifiesPerMin, o.verifyBurst = perMinute, burst }
}

// SetupE2ETest seeds:
//   - patient Asha, phone 9876543210
//   - doctor 1 (Dr. Rao, PIN 1111) and doctor 2 (Dr. Iyer, PIN 2222, linked to account 40 "iyer")
//   - hospital 7 City Care owned by alice/secret (account 3), with both doctors
//   - hospital 8 Apollo owned by bob/hunter2
func SetupE2ETest(t *testing.T, opts ...Option) *TestServer {
	t.Helper()

	o := options{
		availabilityAuth: doctor.StrategyDoctorSession,
		requestsPerMin:   600,
		burst:            100,
		verifiesPerMin:   600,
		verifyBurst:      100,
	}
	for _, opt := range opts {
		opt(&o)
	}

	logger := zap.NewNop().Sugar()
	store := testutil.NewIdentityStore()
	seed(t, store)

	perms, err := auth.LoadPermissions("../../permissions.yml")
	if err != nil {
		t.Fatalf("Failed to load permissions: %v", err)
	}

	publisher := testutil.NewMockPublisher()
	dispatcher := &recordingDispatcher{}

	sessions := session.NewManager(session.NewMemoryStore(), session.Config{
		Secret: "e2e-secret-with-enough-entropy-000",
		TTL:    time.Hour,
	})

	otpService := otp.NewService(store, otp.NewMemoryStore(5*time.Minute), dispatcher, logger,
		otp.WithGenerator(otp.FixedGenerator(fixedCode)),
		otp.WithPublisher(publisher),
	)

	updater, err := doctor.NewAvailabilityUpdater(o.availabilityAuth, store)
	if err != nil {
		t.Fatalf("Failed to build availability updater: %v", err)
	}
	doctorService := doctor.NewService(store, updater, publisher, nil, logger)

	authorizer := auth.NewAuthorizer(store, nil)
	ownerService := owner.NewService(store, publisher, nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	limiter := httpserver.NewIPRateLimiter(ctx, o.requestsPerMin, o.burst, nil, logger)
	verifyLimiter := httpserver.NewIPRateLimiter(ctx, o.verifiesPerMin, o.verifyBurst, nil, logger)

	router := httpserver.NewRouter(httpserver.Dependencies{
		ServiceName: "portal-service",
		Origins:     []string{"http://localhost:3000"},
		Sessions:    sessions,
		Permissions: perms,

		RateLimiter:       limiter,
		VerifyRateLimiter: verifyLimiter,

		OTP:       otp.NewHandler(otpService, sessions, logger),
		Patient:   patient.NewHandler(patient.NewService(store), logger),
		Doctor:    doctor.NewHandler(doctorService, sessions, logger),
		Owner:     owner.NewHandler(ownerService, sessions, authorizer, logger),
		Dashboard: dashboard.NewHandler(dashboard.NewService(emptyBookings{}), authorizer, logger),
		Directory: directory.NewHandler(directory.NewService(store), logger),
		Session:   session.NewHandler(sessions, publisher, logger),
	})

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		cancel()
		otpService.Wait()
	})

	return &TestServer{
		Server:        server,
		Identity:      store,
		Dispatcher:    dispatcher,
		MockPublisher: publisher,
		OTP:           otpService,
	}
}

func seed(t *testing.T, store *testutil.IdentityStore) {
	t.Helper()

	if err := store.CreatePatient(context.Background(), &identity.Patient{
		AbhaID: 91001, Name: "Asha", BloodGroup: "B+", Age: 34, Phone: "9876543210",
	}); err != nil {
		t.Fatalf("Failed to seed patient: %v", err)
	}

	iyerAccount := int64(40)
	store.AddDoctor(identity.Doctor{ID: 1, Name: "Dr. Rao", Specification: "Cardiology", Available: true}, 1111)
	store.AddDoctor(identity.Doctor{ID: 2, Name: "Dr. Iyer", Specification: "Neurology", Available: true, AccountID: &iyerAccount}, 2222)

	store.AddAccount(identity.Account{ID: 3, Username: "alice"})
	store.AddAccount(identity.Account{ID: 40, Username: "iyer"})
	store.AddAccount(identity.Account{ID: 5, Username: "bob"})

	store.AddHospital(identity.Hospital{ID: 7, Name: "City Care", Revenue: 125000, Availability: "Open"},
		&identity.HospitalOwner{Username: "alice", Password: "secret"}, 1, 2)
	store.AddHospital(identity.Hospital{ID: 8, Name: "Apollo", Availability: "Open"},
		&identity.HospitalOwner{Username: "bob", Password: "hunter2"})
}

// NewClient returns a cookie-keeping client for this server.
func (ts *TestServer) NewClient(t *testing.T) *testutil.HTTPTestClient {
	return testutil.NewHTTPTestClient(t, ts.Server.URL)
}

// DoctorAvailable reads the stored flag straight from the identity store.
func (ts *TestServer) DoctorAvailable(t *testing.T, id int64) bool {
	t.Helper()
	d, err := ts.Identity.GetDoctor(context.Background(), id)
	if err != nil {
		t.Fatalf("Failed to load doctor %d: %v", id, err)
	}
	return d.Available
}
