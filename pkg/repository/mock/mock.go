package mock

import (
	"context"
	"sync"

	"github.com/physai/textbook-backend/internal/models"
)

// Test helpers and mocks
type Mocks struct {
	Accounts *AccountRepo
	Profiles *ProfileRepo
	Sessions *SessionRepo
	Records  *QueryRecordRepo
}

func NewMocks() *Mocks {
	return &Mocks{
		Accounts: &AccountRepo{},
		Profiles: &ProfileRepo{},
		Sessions: NewSessionRepo(),
		Records:  &QueryRecordRepo{},
	}
}

type AccountRepo struct {
	Stored    *models.Account
	CreateErr error
	LookupErr error
}

func (m *AccountRepo) CreateAccountWithProfile(ctx context.Context, a *models.Account, p *models.Profile) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	m.Stored = &models.Account{ID: 1, Email: a.Email, PasswordHash: a.PasswordHash, Active: a.Active}
	return 1, nil
}

func (m *AccountRepo) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	if m.Stored != nil && m.Stored.ID == id {
		return m.Stored, nil
	}
	return nil, nil
}

func (m *AccountRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	if m.Stored != nil && m.Stored.Email == email {
		return m.Stored, nil
	}
	return nil, nil
}

func (m *AccountRepo) TouchLastLogin(ctx context.Context, id int64) error { return nil }

func (m *AccountRepo) SetActive(ctx context.Context, id int64, active bool) error {
	if m.Stored != nil && m.Stored.ID == id {
		m.Stored.Active = active
	}
	return nil
}

type ProfileRepo struct {
	Stored    *models.Profile
	LookupErr error
	UpdateErr error
}

func (m *ProfileRepo) GetByAccountID(ctx context.Context, accountID int64) (*models.Profile, error) {
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	if m.Stored != nil && m.Stored.AccountID == accountID {
		return m.Stored, nil
	}
	return nil, nil
}

func (m *ProfileRepo) UpdateProfile(ctx context.Context, p *models.Profile) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.Stored = p
	return nil
}

// SessionRepo keeps sessions in a map keyed by token hash. The mutex makes it
// safe for the concurrent rotation tests.
type SessionRepo struct {
	mu     sync.Mutex
	byHash map[string]*models.Session
	nextID int64
}

func NewSessionRepo() *SessionRepo {
	return &SessionRepo{byHash: make(map[string]*models.Session)}
}

func (m *SessionRepo) CreateSession(ctx context.Context, s *models.Session) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	stored := *s
	stored.ID = m.nextID
	m.byHash[s.TokenHash] = &stored
	return stored.ID, nil
}

func (m *SessionRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.byHash[tokenHash]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, nil
}

func (m *SessionRepo) ReplaceSession(ctx context.Context, oldHash string, next *models.Session) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byHash[oldHash]; !ok {
		return false, nil
	}
	delete(m.byHash, oldHash)
	m.nextID++
	stored := *next
	stored.ID = m.nextID
	m.byHash[next.TokenHash] = &stored
	return true, nil
}

func (m *SessionRepo) DeleteByTokenHash(ctx context.Context, accountID int64, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.byHash[tokenHash]; ok && s.AccountID == accountID {
		delete(m.byHash, tokenHash)
	}
	return nil
}

func (m *SessionRepo) DeleteByAccountID(ctx context.Context, accountID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for hash, s := range m.byHash {
		if s.AccountID == accountID {
			delete(m.byHash, hash)
		}
	}
	return nil
}

func (m *SessionRepo) CountByAccountID(ctx context.Context, accountID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.byHash {
		if s.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

func (m *SessionRepo) DeleteExpired(ctx context.Context, now int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for hash, s := range m.byHash {
		if s.ExpiresAt <= now {
			delete(m.byHash, hash)
			n++
		}
	}
	return n, nil
}

func (m *SessionRepo) DeleteOldestByAccountID(ctx context.Context, accountID int64, keep int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		var n int64
		var oldest *models.Session
		for _, s := range m.byHash {
			if s.AccountID != accountID {
				continue
			}
			n++
			if oldest == nil || s.ID < oldest.ID {
				oldest = s
			}
		}
		if n <= keep || oldest == nil {
			return nil
		}
		delete(m.byHash, oldest.TokenHash)
	}
}

type QueryRecordRepo struct {
	Stored    []models.QueryRecord
	CreateErr error
}

func (m *QueryRecordRepo) CreateQueryRecord(ctx context.Context, qr *models.QueryRecord) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	stored := *qr
	stored.ID = int64(len(m.Stored) + 1)
	m.Stored = append(m.Stored, stored)
	return stored.ID, nil
}

func (m *QueryRecordRepo) ListByAccount(ctx context.Context, accountID int64, limit, offset int) ([]models.QueryRecord, error) {
	var out []models.QueryRecord
	for _, qr := range m.Stored {
		if qr.AccountID != nil && *qr.AccountID == accountID {
			out = append(out, qr)
		}
	}
	return out, nil
}
