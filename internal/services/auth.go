package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"tripsync/internal/domain"
)

const loginCodeDigits = 6

// phoneRegexp matches E.164 phone numbers after normalization.
var phoneRegexp = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

type authService struct {
	userRepo    domain.UserRepository
	codeRepo    domain.LoginCodeRepository
	hasher      domain.CodeHasher
	sms         domain.SMSSender
	issuer      domain.TokenIssuer
	codeExpiry  time.Duration
	tokenExpiry time.Duration
}

// NewAuthService creates an AuthService implementing phone one-time-code login.
func NewAuthService(
	userRepo domain.UserRepository,
	codeRepo domain.LoginCodeRepository,
	hasher domain.CodeHasher,
	sms domain.SMSSender,
	issuer domain.TokenIssuer,
	codeExpiry, tokenExpiry time.Duration,
) domain.AuthService {
	return &authService{
		userRepo:    userRepo,
		codeRepo:    codeRepo,
		hasher:      hasher,
		sms:         sms,
		issuer:      issuer,
		codeExpiry:  codeExpiry,
		tokenExpiry: tokenExpiry,
	}
}

func (s *authService) RequestCode(ctx context.Context, phone string) error {
	phone, err := normalizePhone(phone)
	if err != nil {
		return err
	}

	code, err := generateLoginCode()
	if err != nil {
		return fmt.Errorf("generate login code: %w", err)
	}
	hash, err := s.hasher.Hash(code)
	if err != nil {
		return fmt.Errorf("hash login code: %w", err)
	}
	if err := s.codeRepo.Create(ctx, phone, hash, time.Now().Add(s.codeExpiry)); err != nil {
		return fmt.Errorf("store login code: %w", err)
	}
	if err := s.sms.SendCode(ctx, phone, code); err != nil {
		return fmt.Errorf("send login code: %w", err)
	}
	return nil
}

func (s *authService) VerifyCode(ctx context.Context, phone, code string) (string, *domain.User, error) {
	phone, err := normalizePhone(phone)
	if err != nil {
		return "", nil, err
	}

	lc, err := s.codeRepo.Latest(ctx, phone)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, fmt.Errorf("%w: invalid or expired code", domain.ErrInvalidInput)
		}
		return "", nil, fmt.Errorf("get login code: %w", err)
	}
	if err := s.hasher.Compare(lc.CodeHash, strings.TrimSpace(code)); err != nil {
		return "", nil, fmt.Errorf("%w: invalid or expired code", domain.ErrInvalidInput)
	}
	if err := s.codeRepo.Delete(ctx, lc.ID); err != nil {
		return "", nil, fmt.Errorf("consume login code: %w", err)
	}

	user, err := s.userRepo.GetByPhone(ctx, phone)
	if errors.Is(err, domain.ErrNotFound) {
		now := time.Now()
		user = domain.NewUser(phone, "", now, now)
		if err := s.userRepo.Create(ctx, user); err != nil {
			return "", nil, fmt.Errorf("create user: %w", err)
		}
	} else if err != nil {
		return "", nil, fmt.Errorf("get user: %w", err)
	}

	token, err := s.issuer.Issue(user.ID, user.Phone, s.tokenExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

func normalizePhone(phone string) (string, error) {
	phone = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
	if !phoneRegexp.MatchString(phone) {
		return "", fmt.Errorf("%w: phone must be in E.164 format", domain.ErrInvalidInput)
	}
	return phone, nil
}

func generateLoginCode() (string, error) {
	max := big.NewInt(10)
	b := make([]byte, loginCodeDigits)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = byte('0' + n.Int64())
	}
	return string(b), nil
}
