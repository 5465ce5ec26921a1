package services

import (
	"context"
	"errors"
	"strings"

	"insightpro/internal/apperror"
	"insightpro/internal/auth"
	"insightpro/internal/logging"
	"insightpro/internal/metrics"
	"insightpro/internal/models"
	"insightpro/internal/repositories"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/go-playground/validator/v10"
)

// RegisterRequest is the body of a registration.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Company  string `json:"company" validate:"required"`
}

// LoginRequest is the body of a login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	Token   string `json:"token"`
	Company string `json:"company"`
}

// AccountService handles registration and login.
type AccountService struct {
	repo       repositories.AccountRepository
	tokens     *auth.TokenManager
	bcryptCost int
	validate   *validator.Validate
	metrics    *metrics.Metrics
	logger     log.Logger
}

// NewAccountService creates a new AccountService. logger and m may be nil.
func NewAccountService(repo repositories.AccountRepository, tokens *auth.TokenManager, bcryptCost int, logger log.Logger, m *metrics.Metrics) *AccountService {
	return &AccountService{
		repo:       repo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		validate:   newValidator(),
		metrics:    m,
		logger:     logging.OrNop(logger),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account with a hashed password. It does not log the
// account in.
func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*models.Account, error) {
	req.Email = normalizeEmail(req.Email)
	req.Company = strings.TrimSpace(req.Company)
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.NewDatabaseError("Could not register account", err)
	}
	if exists {
		return nil, apperror.NewConflictError("E-mail already registered", nil)
	}

	hashed, err := auth.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, apperror.NewInternalError("Could not register account", err)
	}

	account := &models.Account{
		Email:    req.Email,
		Password: hashed,
		Company:  req.Company,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		// Another registration for the same email won the race after our pre-check.
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, apperror.NewConflictError("E-mail already registered", err)
		}
		return nil, apperror.NewDatabaseError("Could not register account", err)
	}

	s.metrics.AccountRegistered()
	level.Info(s.logger).Log("msg", "account registered", "account_id", account.ID, "company", account.Company)
	return account, nil
}

// Login checks the credentials and issues a session token.
func (s *AccountService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	account, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			s.metrics.Login("not_found")
			return nil, apperror.NewNotFoundError("Account not found", err)
		}
		return nil, apperror.NewDatabaseError("Could not log in", err)
	}

	ok, err := auth.VerifyPassword(req.Password, account.Password)
	if err != nil {
		return nil, apperror.NewInternalError("Could not log in", err)
	}
	if !ok {
		s.metrics.Login("bad_password")
		level.Info(s.logger).Log("msg", "login rejected", "account_id", account.ID)
		return nil, apperror.NewAuthError("Invalid credentials", nil)
	}

	token, err := s.tokens.Issue(auth.Claims{
		AccountID: account.ID,
		Email:     account.Email,
		Company:   account.Company,
	})
	if err != nil {
		return nil, apperror.NewInternalError("Could not log in", err)
	}

	s.metrics.Login("success")
	s.metrics.TokenIssued()
	return &LoginResponse{Token: token, Company: account.Company}, nil
}
