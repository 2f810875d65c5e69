package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/tattva-health/portal-service/internal/identity"
)

// IdentityStore is an in-memory identity.RepositoryInterface for handler
// and end-to-end tests.
type IdentityStore struct {
	mu              sync.RWMutex
	patients        []identity.Patient
	doctors         map[int64]identity.Doctor
	pins            map[int64]int64
	hospitals       map[int64]identity.Hospital
	hospitalDoctors map[int64][]int64
	owners          map[int64]identity.HospitalOwner
	accounts        map[string]identity.Account
}

var _ identity.RepositoryInterface = (*IdentityStore)(nil)

func NewIdentityStore() *IdentityStore {
	return &IdentityStore{
		doctors:         make(map[int64]identity.Doctor),
		pins:            make(map[int64]int64),
		hospitals:       make(map[int64]identity.Hospital),
		hospitalDoctors: make(map[int64][]int64),
		owners:          make(map[int64]identity.HospitalOwner),
		accounts:        make(map[string]identity.Account),
	}
}

func (s *IdentityStore) AddDoctor(d identity.Doctor, pin int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doctors[d.ID] = d
	s.pins[d.ID] = pin
}

// AddHospital stores h, links doctorIDs and, when owner is non-nil, sets its owner.
func (s *IdentityStore) AddHospital(h identity.Hospital, owner *identity.HospitalOwner, doctorIDs ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hospitals[h.ID] = h
	s.hospitalDoctors[h.ID] = append(s.hospitalDoctors[h.ID], doctorIDs...)
	if owner != nil {
		o := *owner
		o.HospitalID = h.ID
		s.owners[h.ID] = o
	}
}

func (s *IdentityStore) AddAccount(a identity.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.Username] = a
}

func (s *IdentityStore) CreatePatient(ctx context.Context, p *identity.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.patients {
		if p.Phone != "" && existing.Phone == p.Phone {
			return identity.ErrDuplicatePhone
		}
	}
	p.ID = int64(len(s.patients) + 1)
	s.patients = append(s.patients, *p)
	return nil
}

func (s *IdentityStore) PatientExistsByPhone(ctx context.Context, phone string) (bool, error) {
	_, err := s.GetPatientByPhone(ctx, phone)
	if err == identity.ErrPatientNotFound {
		return false, nil
	}
	return err == nil, err
}

func (s *IdentityStore) GetPatientByPhone(ctx context.Context, phone string) (*identity.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.patients {
		if p.Phone == phone {
			found := p
			return &found, nil
		}
	}
	return nil, identity.ErrPatientNotFound
}

func (s *IdentityStore) GetDoctor(ctx context.Context, id int64) (*identity.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.doctors[id]
	if !ok {
		return nil, identity.ErrDoctorNotFound
	}
	return &d, nil
}

func (s *IdentityStore) GetDoctorByCredentials(ctx context.Context, id, pin int64) (*identity.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.doctors[id]
	if !ok || s.pins[id] != pin {
		return nil, identity.ErrDoctorNotFound
	}
	return &d, nil
}

func (s *IdentityStore) GetDoctorByAccountID(ctx context.Context, accountID int64) (*identity.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.doctors {
		if d.AccountID != nil && *d.AccountID == accountID {
			found := d
			return &found, nil
		}
	}
	return nil, identity.ErrDoctorNotFound
}

func (s *IdentityStore) SetDoctorAvailability(ctx context.Context, id int64, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.doctors[id]
	if !ok {
		return identity.ErrDoctorNotFound
	}
	d.Available = available
	s.doctors[id] = d
	return nil
}

func (s *IdentityStore) ListHospitalDoctors(ctx context.Context, hospitalID int64) ([]identity.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doctors := []identity.Doctor{}
	for _, id := range s.hospitalDoctors[hospitalID] {
		if d, ok := s.doctors[id]; ok {
			doctors = append(doctors, d)
		}
	}
	sort.Slice(doctors, func(i, j int) bool { return doctors[i].ID < doctors[j].ID })
	return doctors, nil
}

func (s *IdentityStore) GetHospital(ctx context.Context, id int64) (*identity.Hospital, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hospitals[id]
	if !ok {
		return nil, identity.ErrHospitalNotFound
	}
	return &h, nil
}

func (s *IdentityStore) ListHospitals(ctx context.Context, limit, offset int) ([]identity.Hospital, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]identity.Hospital, 0, len(s.hospitals))
	for _, h := range s.hospitals {
		all = append(all, h)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	total := len(all)
	if offset >= total {
		return []identity.Hospital{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (s *IdentityStore) GetOwnerByUsername(ctx context.Context, username string) (*identity.HospitalOwner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.owners {
		if o.Username == username {
			found := o
			return &found, nil
		}
	}
	return nil, identity.ErrOwnerNotFound
}

func (s *IdentityStore) GetOwnerByHospitalID(ctx context.Context, hospitalID int64) (*identity.HospitalOwner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.owners[hospitalID]
	if !ok {
		return nil, identity.ErrOwnerNotFound
	}
	return &o, nil
}

func (s *IdentityStore) GetAccountByUsername(ctx context.Context, username string) (*identity.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[username]
	if !ok {
		return nil, identity.ErrAccountNotFound
	}
	return &a, nil
}
