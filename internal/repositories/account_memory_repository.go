package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"insightpro/internal/models"
)

// MemoryAccountRepository is an in-memory implementation of AccountRepository.
// Emails are unique, as with the unique index of the SQL schema.
type MemoryAccountRepository struct {
	byEmail map[string]models.Account
	nextID  uint
	mu      sync.RWMutex
}

// NewMemoryAccountRepository creates a new instance of MemoryAccountRepository.
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		byEmail: make(map[string]models.Account),
	}
}

// Create adds a new account.
func (r *MemoryAccountRepository) Create(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[account.Email]; ok {
		return fmt.Errorf("account with email %s: %w", account.Email, ErrDuplicateKey)
	}
	r.nextID++
	account.ID = r.nextID
	account.CreatedAt = time.Now()
	r.byEmail[account.Email] = *account
	return nil
}

// GetByEmail returns an account by its email.
func (r *MemoryAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("account with email %s: %w", email, ErrRecordNotFound)
	}
	return &account, nil
}

// ExistsByEmail reports whether email is already registered.
func (r *MemoryAccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byEmail[email]
	return ok, nil
}
