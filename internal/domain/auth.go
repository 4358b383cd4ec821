package domain

import (
	"context"
	"time"
)

// LoginCode is a short-lived one-time code issued for a phone number. Only
// the bcrypt hash of the code is stored.
type LoginCode struct {
	ID        string
	Phone     string
	CodeHash  string
	ExpiresAt time.Time
}

// LoginCodeRepository defines storage operations for login codes.
type LoginCodeRepository interface {
	Create(ctx context.Context, phone, codeHash string, expiresAt time.Time) error
	// Latest returns the most recent unexpired code for the phone, or
	// ErrNotFound when none exists.
	Latest(ctx context.Context, phone string) (*LoginCode, error)
	Delete(ctx context.Context, id string) error
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID, phone string, expiry time.Duration) (string, error)
}

// TokenVerifier validates an access token and returns the user ID it was
// issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// CodeHasher hashes one-time login codes for storage and compares submitted
// codes against stored hashes.
type CodeHasher interface {
	Hash(code string) (string, error)
	Compare(hash, code string) error
}

// SMSSender delivers one-time login codes. The concrete gateway is an
// external collaborator; implementations must not block on retries.
type SMSSender interface {
	SendCode(ctx context.Context, phone, code string) error
}

// AuthService implements phone-based one-time-code authentication.
type AuthService interface {
	// RequestCode generates a login code for the phone and delivers it via
	// the SMS sender.
	RequestCode(ctx context.Context, phone string) error
	// VerifyCode consumes the code, creating the user on first login, and
	// returns a signed access token.
	VerifyCode(ctx context.Context, phone, code string) (string, *User, error)
}
