package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/physai/textbook-backend/internal/models"
	"github.com/physai/textbook-backend/pkg/repository"
)

// ClientMeta carries optional request metadata stored with a session.
type ClientMeta struct {
	UserAgent string
	IPAddress string
}

// TokenPair is what a successful create or rotate hands back: a short-lived
// access token plus the plaintext rotating credential.
type TokenPair struct {
	AccessToken        string
	RotatingCredential string
	ExpiresIn          int64
}

// SessionLedger persists rotating credentials and mints access tokens for
// them. Rotation always deletes the old row and inserts a new one; a rotated
// credential is never usable again.
type SessionLedger struct {
	sessions repository.SessionRepo
	tokens   *TokenService
	ttl      time.Duration
	// maxSessions caps live sessions per account; 0 disables the cap.
	maxSessions int64
	logger      *slog.Logger
}

func NewSessionLedger(sessions repository.SessionRepo, tokens *TokenService, ttl time.Duration, maxSessions int64, logger *slog.Logger) *SessionLedger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionLedger{sessions: sessions, tokens: tokens, ttl: ttl, maxSessions: maxSessions, logger: logger}
}

func hashCredential(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])
}

func (l *SessionLedger) newSession(accountID int64, meta ClientMeta) (string, *models.Session) {
	credential := uuid.NewString()
	s := &models.Session{
		AccountID: accountID,
		TokenHash: hashCredential(credential),
		ExpiresAt: time.Now().UTC().Add(l.ttl).UnixMilli(),
	}
	if meta.UserAgent != "" {
		s.UserAgent = &meta.UserAgent
	}
	if meta.IPAddress != "" {
		s.IPAddress = &meta.IPAddress
	}

	return credential, s
}

// Create opens a new session for the account and returns its token pair.
func (l *SessionLedger) Create(ctx context.Context, accountID int64, meta ClientMeta) (*TokenPair, error) {
	credential, session := l.newSession(accountID, meta)
	if _, err := l.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if l.maxSessions > 0 {
		if err := l.sessions.DeleteOldestByAccountID(ctx, accountID, l.maxSessions); err != nil {
			l.logger.Error("session cap pruning failed", slog.Int64("account_id", accountID), slog.Any("err", err))
		}
	}

	accessToken, err := l.tokens.Issue(accountID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	return &TokenPair{
		AccessToken:        accessToken,
		RotatingCredential: credential,
		ExpiresIn:          int64(l.tokens.TTL().Seconds()),
	}, nil
}

// Rotate consumes the presented credential and issues a replacement session.
// The old row is deleted and a new one inserted in a single transaction, so
// concurrent rotations of the same credential produce at most one winner.
func (l *SessionLedger) Rotate(ctx context.Context, credential string, meta ClientMeta) (int64, *TokenPair, error) {
	oldHash := hashCredential(credential)

	current, err := l.sessions.GetByTokenHash(ctx, oldHash)
	if err != nil {
		return 0, nil, fmt.Errorf("lookup session: %w", err)
	}
	if current == nil {
		return 0, nil, ErrInvalidOrExpiredSession
	}

	if current.ExpiresAt < time.Now().UTC().UnixMilli() {
		// expired rows are dead weight; remove eagerly
		if err := l.sessions.DeleteByTokenHash(ctx, current.AccountID, oldHash); err != nil {
			l.logger.Error("delete expired session failed", slog.Any("err", err))
		}
		return 0, nil, ErrInvalidOrExpiredSession
	}

	nextCredential, next := l.newSession(current.AccountID, meta)
	consumed, err := l.sessions.ReplaceSession(ctx, oldHash, next)
	if err != nil {
		return 0, nil, fmt.Errorf("replace session: %w", err)
	}
	if !consumed {
		// a concurrent rotation won the race
		return 0, nil, ErrInvalidOrExpiredSession
	}

	accessToken, err := l.tokens.Issue(current.AccountID)
	if err != nil {
		return 0, nil, fmt.Errorf("issue access token: %w", err)
	}

	return current.AccountID, &TokenPair{
		AccessToken:        accessToken,
		RotatingCredential: nextCredential,
		ExpiresIn:          int64(l.tokens.TTL().Seconds()),
	}, nil
}

// Revoke deletes the session scoped to the account. Revoking a credential
// that is already gone is not an error.
func (l *SessionLedger) Revoke(ctx context.Context, accountID int64, credential string) error {
	if credential == "" {
		return l.sessions.DeleteByAccountID(ctx, accountID)
	}

	return l.sessions.DeleteByTokenHash(ctx, accountID, hashCredential(credential))
}
