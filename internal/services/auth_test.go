package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tripsync/internal/domain"
)

type fakeLoginCodeRepo struct {
	codes  map[string]*domain.LoginCode
	nextID int
}

func newFakeLoginCodeRepo() *fakeLoginCodeRepo {
	return &fakeLoginCodeRepo{codes: make(map[string]*domain.LoginCode)}
}

func (f *fakeLoginCodeRepo) Create(ctx context.Context, phone, codeHash string, expiresAt time.Time) error {
	f.nextID++
	id := fmt.Sprintf("code-%d", f.nextID)
	f.codes[id] = &domain.LoginCode{ID: id, Phone: phone, CodeHash: codeHash, ExpiresAt: expiresAt}
	return nil
}

func (f *fakeLoginCodeRepo) Latest(ctx context.Context, phone string) (*domain.LoginCode, error) {
	var latest *domain.LoginCode
	now := time.Now()
	for _, lc := range f.codes {
		if lc.Phone == phone && lc.ExpiresAt.After(now) {
			if latest == nil || lc.ID > latest.ID {
				latest = lc
			}
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return latest, nil
}

func (f *fakeLoginCodeRepo) Delete(ctx context.Context, id string) error {
	delete(f.codes, id)
	return nil
}

// fakeCodeHasher keeps codes recoverable so tests can assert on them.
type fakeCodeHasher struct{}

func (fakeCodeHasher) Hash(code string) (string, error) { return "hashed:" + code, nil }

func (fakeCodeHasher) Compare(hash, code string) error {
	if hash != "hashed:"+code {
		return errors.New("mismatch")
	}
	return nil
}

type fakeSMSSender struct {
	phones []string
	codes  []string
	err    error
}

func (f *fakeSMSSender) SendCode(ctx context.Context, phone, code string) error {
	if f.err != nil {
		return f.err
	}
	f.phones = append(f.phones, phone)
	f.codes = append(f.codes, code)
	return nil
}

type fakeTokenIssuer struct{}

func (fakeTokenIssuer) Issue(userID, phone string, expiry time.Duration) (string, error) {
	return "token-for-" + userID, nil
}

func authFixture() (*fakeUserRepo, *fakeLoginCodeRepo, *fakeSMSSender, domain.AuthService) {
	userRepo := newFakeUserRepo()
	codeRepo := newFakeLoginCodeRepo()
	sender := &fakeSMSSender{}
	svc := NewAuthService(userRepo, codeRepo, fakeCodeHasher{}, sender, fakeTokenIssuer{}, 10*time.Minute, time.Hour)
	return userRepo, codeRepo, sender, svc
}

func TestRequestCode(t *testing.T) {
	_, codeRepo, sender, svc := authFixture()

	err := svc.RequestCode(context.Background(), "+1 (415) 555-0123")
	require.NoError(t, err)

	// The phone is normalized before storage and delivery.
	require.Equal(t, []string{"+14155550123"}, sender.phones)
	require.Len(t, sender.codes, 1)
	require.Len(t, sender.codes[0], 6)

	lc, err := codeRepo.Latest(context.Background(), "+14155550123")
	require.NoError(t, err)
	require.Equal(t, "hashed:"+sender.codes[0], lc.CodeHash)
}

func TestRequestCode_InvalidPhone(t *testing.T) {
	_, _, _, svc := authFixture()

	for _, phone := range []string{"", "415-555-0123", "+0123456789", "not a phone"} {
		err := svc.RequestCode(context.Background(), phone)
		require.ErrorIs(t, err, domain.ErrInvalidInput, "phone %q", phone)
	}
}

func TestVerifyCode_CreatesUserOnFirstLogin(t *testing.T) {
	userRepo, codeRepo, sender, svc := authFixture()
	ctx := context.Background()

	require.NoError(t, svc.RequestCode(ctx, "+14155550123"))
	code := sender.codes[0]

	token, user, err := svc.VerifyCode(ctx, "+14155550123", code)
	require.NoError(t, err)
	require.Equal(t, "+14155550123", user.Phone)
	require.NotEmpty(t, user.ID)
	require.Equal(t, "token-for-"+user.ID, token)

	// The code is single-use.
	_, err = codeRepo.Latest(ctx, "+14155550123")
	require.ErrorIs(t, err, domain.ErrNotFound)

	// A second login reuses the account instead of creating another.
	require.NoError(t, svc.RequestCode(ctx, "+14155550123"))
	_, again, err := svc.VerifyCode(ctx, "+14155550123", sender.codes[1])
	require.NoError(t, err)
	require.Equal(t, user.ID, again.ID)
	require.Len(t, userRepo.users, 1)
}

func TestVerifyCode_WrongCode(t *testing.T) {
	_, _, sender, svc := authFixture()
	ctx := context.Background()

	require.NoError(t, svc.RequestCode(ctx, "+14155550123"))

	_, _, err := svc.VerifyCode(ctx, "+14155550123", "000000")
	if sender.codes[0] == "000000" {
		t.Skip("generated code collided with the guess")
	}
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVerifyCode_NoOutstandingCode(t *testing.T) {
	_, _, _, svc := authFixture()

	_, _, err := svc.VerifyCode(context.Background(), "+14155550123", "123456")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
