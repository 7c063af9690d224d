package repository

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/vibast-solutions/ms-go-accounts/app/entity"
)

// MemoryAccountRepository keeps accounts in process memory. It enforces the
// same unique-email and compare-and-swap semantics as the MySQL repository.
type MemoryAccountRepository struct {
	mu      sync.RWMutex
	nextID  uint64
	byID    map[uint64]*entity.Account
	byEmail map[string]uint64
}

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		byID:    make(map[uint64]*entity.Account),
		byEmail: make(map[string]uint64),
	}
}

func (r *MemoryAccountRepository) Create(_ context.Context, account *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[account.Email]; exists {
		return ErrDuplicateKey
	}

	r.nextID++
	account.ID = r.nextID
	stored := *account
	r.byID[stored.ID] = &stored
	r.byEmail[stored.Email] = stored.ID
	return nil
}

func (r *MemoryAccountRepository) FindByEmail(_ context.Context, email string) (*entity.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lookup(email, nil), nil
}

func (r *MemoryAccountRepository) FindByEmailAndVerificationToken(_ context.Context, email, token string) (*entity.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lookup(email, func(a *entity.Account) bool {
		return tokenMatches(a.VerificationToken, token)
	}), nil
}

func (r *MemoryAccountRepository) FindByEmailAndResetToken(_ context.Context, email, token string) (*entity.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lookup(email, func(a *entity.Account) bool {
		return tokenMatches(a.ResetToken, token)
	}), nil
}

func (r *MemoryAccountRepository) SetResetToken(_ context.Context, id uint64, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if account, ok := r.byID[id]; ok {
		account.ResetToken = sql.NullString{String: token, Valid: true}
		account.UpdatedAt = time.Now()
	}
	return nil
}

func (r *MemoryAccountRepository) ConsumeVerificationToken(_ context.Context, id uint64, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok || !tokenMatches(account.VerificationToken, token) {
		return false, nil
	}
	account.IsVerified = true
	account.VerificationToken = sql.NullString{}
	account.UpdatedAt = time.Now()
	return true, nil
}

func (r *MemoryAccountRepository) ConsumeResetToken(_ context.Context, id uint64, token, passwordHash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok || !tokenMatches(account.ResetToken, token) {
		return false, nil
	}
	account.PasswordHash = passwordHash
	account.ResetToken = sql.NullString{}
	account.UpdatedAt = time.Now()
	return true, nil
}

// lookup must be called with r.mu held. It returns a copy.
func (r *MemoryAccountRepository) lookup(email string, match func(*entity.Account) bool) *entity.Account {
	id, ok := r.byEmail[email]
	if !ok {
		return nil
	}
	account := r.byID[id]
	if match != nil && !match(account) {
		return nil
	}
	found := *account
	return &found
}

func tokenMatches(stored sql.NullString, token string) bool {
	return stored.Valid && stored.String == token
}
