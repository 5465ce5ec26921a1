package repositories

import (
	"context"
	"errors"
	"fmt"

	"insightpro/internal/models"

	"gorm.io/gorm"
)

// GORMAccountRepository is a GORM implementation of AccountRepository.
type GORMAccountRepository struct {
	db *gorm.DB
}

// NewGORMAccountRepository creates a new instance of GORMAccountRepository.
// db should be opened with TranslateError so unique violations surface as
// gorm.ErrDuplicatedKey.
func NewGORMAccountRepository(db *gorm.DB) *GORMAccountRepository {
	return &GORMAccountRepository{
		db: db,
	}
}

// Create inserts a new account.
func (r *GORMAccountRepository) Create(ctx context.Context, account *models.Account) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("account with email %s: %w", account.Email, ErrDuplicateKey)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByEmail retrieves an account by its email.
func (r *GORMAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("account with email %s: %w", email, ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get account by email %s: %w", email, err)
	}
	return &account, nil
}

// ExistsByEmail reports whether an account with email is already registered.
func (r *GORMAccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Account{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up email %s: %w", email, err)
	}
	return count > 0, nil
}
