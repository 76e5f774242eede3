package auth

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"log/slog"

	"github.com/physai/textbook-backend/internal/models"
	"github.com/physai/textbook-backend/pkg/repository"
)

// Gateway orchestrates signup, signin, signout and refresh over the account
// store and the session ledger.
type Gateway struct {
	accounts repository.AccountRepo
	ledger   *SessionLedger
	logger   *slog.Logger
}

func NewGateway(accounts repository.AccountRepo, ledger *SessionLedger, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{accounts: accounts, ledger: ledger, logger: logger}
}

type SignupInput struct {
	Email              string
	Password           string
	SoftwareExperience models.SoftwareExperience
	HardwareExperience models.HardwareExperience
	Interests          []string
}

// AccountSummary is the caller-facing view of an account.
type AccountSummary struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// NormalizeEmail lowercases and trims an address. Uniqueness checks and
// storage always use the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail reports whether the address parses as an RFC 5322 mailbox.
func ValidateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}

	return nil
}

func validateInterests(interests []string) error {
	if len(interests) > models.MaxInterests {
		return fmt.Errorf("too many interests: %d (max %d)", len(interests), models.MaxInterests)
	}
	for _, tag := range interests {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("empty interest tag")
		}
	}

	return nil
}

// Signup creates an account with its profile atomically and opens the first
// session. Validation never touches storage.
func (g *Gateway) Signup(ctx context.Context, in SignupInput, meta ClientMeta) (*AccountSummary, *TokenPair, error) {
	email := NormalizeEmail(in.Email)
	if err := ValidateEmail(email); err != nil {
		return nil, nil, err
	}
	if err := CheckPasswordPolicy(in.Password); err != nil {
		return nil, nil, err
	}
	if err := validateInterests(in.Interests); err != nil {
		return nil, nil, err
	}

	existing, err := g.accounts.GetByEmail(ctx, email)
	if err != nil {
		g.logger.Error("signup lookup failed", slog.Any("err", err))
		return nil, nil, ErrStorageUnavailable
	}
	if existing != nil {
		return nil, nil, ErrDuplicateEmail
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	interests := in.Interests
	if interests == nil {
		interests = []string{}
	}

	account := &models.Account{Email: email, PasswordHash: hash, Active: true}
	profile := &models.Profile{
		SoftwareExperience: in.SoftwareExperience,
		HardwareExperience: in.HardwareExperience,
		Interests:          interests,
	}
	accountID, err := g.accounts.CreateAccountWithProfile(ctx, account, profile)
	if err != nil {
		// the unique index is the last line of defense against a racing signup
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return nil, nil, ErrDuplicateEmail
		}
		g.logger.Error("signup insert failed", slog.Any("err", err))
		return nil, nil, ErrStorageUnavailable
	}

	pair, err := g.ledger.Create(ctx, accountID, meta)
	if err != nil {
		g.logger.Error("signup session create failed", slog.Int64("account_id", accountID), slog.Any("err", err))
		return nil, nil, ErrStorageUnavailable
	}

	return &AccountSummary{ID: accountID, Email: email}, pair, nil
}

// Signin authenticates the credentials and opens a new session. Unknown
// email, wrong password and a disabled account all return the same error.
func (g *Gateway) Signin(ctx context.Context, email, password string, meta ClientMeta) (*AccountSummary, *TokenPair, error) {
	account, err := g.accounts.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		g.logger.Error("signin lookup failed", slog.Any("err", err))
		return nil, nil, ErrStorageUnavailable
	}
	if account == nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !VerifyPassword(password, account.PasswordHash) {
		g.logger.Info("signin rejected: wrong password", slog.Int64("account_id", account.ID))
		return nil, nil, ErrInvalidCredentials
	}
	if !account.Active {
		g.logger.Info("signin rejected: account disabled", slog.Int64("account_id", account.ID))
		return nil, nil, ErrInvalidCredentials
	}

	if err := g.accounts.TouchLastLogin(ctx, account.ID); err != nil {
		g.logger.Error("touch last login failed", slog.Int64("account_id", account.ID), slog.Any("err", err))
	}

	pair, err := g.ledger.Create(ctx, account.ID, meta)
	if err != nil {
		g.logger.Error("signin session create failed", slog.Int64("account_id", account.ID), slog.Any("err", err))
		return nil, nil, ErrStorageUnavailable
	}

	return &AccountSummary{ID: account.ID, Email: account.Email}, pair, nil
}

// Signout revokes the presented credential (or, when empty, every session of
// the account). Idempotent by construction.
func (g *Gateway) Signout(ctx context.Context, accountID int64, credential string) error {
	if err := g.ledger.Revoke(ctx, accountID, credential); err != nil {
		g.logger.Error("signout revoke failed", slog.Int64("account_id", accountID), slog.Any("err", err))
		return ErrStorageUnavailable
	}

	return nil
}

// Refresh rotates the presented credential into a fresh token pair. The
// account must still be active.
func (g *Gateway) Refresh(ctx context.Context, credential string, meta ClientMeta) (*TokenPair, error) {
	accountID, pair, err := g.ledger.Rotate(ctx, credential, meta)
	if err != nil {
		return nil, err
	}

	account, err := g.accounts.GetByID(ctx, accountID)
	if err != nil {
		g.logger.Error("refresh account lookup failed", slog.Int64("account_id", accountID), slog.Any("err", err))
		return nil, ErrStorageUnavailable
	}
	if account == nil || !account.Active {
		// the credential was consumed above; a disabled account cannot refresh
		return nil, ErrInvalidOrExpiredSession
	}

	if err := g.accounts.TouchLastLogin(ctx, accountID); err != nil {
		g.logger.Error("touch last login failed", slog.Int64("account_id", accountID), slog.Any("err", err))
	}

	return pair, nil
}
