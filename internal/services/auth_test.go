package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"communityevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHasher records salt+password pairs instead of hashing.
type fakeHasher struct{}

func (fakeHasher) GenerateSalt() (string, error) { return "salt", nil }

func (fakeHasher) Hash(salt, password string) (string, error) {
	return salt + ":" + password, nil
}

func (fakeHasher) Compare(hash, salt, password string) error {
	if hash != salt+":"+password {
		return errors.New("mismatch")
	}
	return nil
}

type fakeTokens struct {
	err error
}

func (f *fakeTokens) Issue(userID, email string, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-for-" + userID, nil
}

type fakeFederated struct {
	identity *domain.FederatedIdentity
	err      error
}

func (f *fakeFederated) Verify(ctx context.Context, provider, accessToken string) (*domain.FederatedIdentity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

type fakeEmailService struct {
	welcomes  []*domain.WelcomeMessageEmailData
	reminders []*domain.EventReminderEmailData
	err       error
}

func (f *fakeEmailService) SendWelcomeMessage(ctx context.Context, data *domain.WelcomeMessageEmailData) error {
	if f.err != nil {
		return f.err
	}
	f.welcomes = append(f.welcomes, data)
	return nil
}

func (f *fakeEmailService) SendEventReminder(ctx context.Context, data *domain.EventReminderEmailData) error {
	if f.err != nil {
		return f.err
	}
	f.reminders = append(f.reminders, data)
	return nil
}

func newAuthFixture(users *fakeUserRepo, federated *fakeFederated, emails *fakeEmailService) domain.AuthService {
	// Pass a true nil interface when no fake is supplied; a typed-nil
	// *fakeEmailService would defeat the service's nil check.
	var emailService domain.EmailService
	if emails != nil {
		emailService = emails
	}
	return NewAuthService(users, fakeHasher{}, &fakeTokens{}, federated, emailService, time.Hour)
}

func TestAuthService_SignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user and sends welcome email", func(t *testing.T) {
		users := newFakeUserRepo()
		emails := &fakeEmailService{}
		svc := newAuthFixture(users, &fakeFederated{}, emails)

		token, user, err := svc.SignUp(ctx, "Ana@Example.com", "supersecret", "Ana")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, "ana@example.com", user.Email)
		assert.Equal(t, domain.ProviderPassword, user.Provider)
		require.Len(t, emails.welcomes, 1)
		assert.Equal(t, "ana@example.com", emails.welcomes[0].Email)
	})

	t.Run("welcome email failure does not fail sign-up", func(t *testing.T) {
		users := newFakeUserRepo()
		emails := &fakeEmailService{err: errors.New("smtp down")}
		svc := newAuthFixture(users, &fakeFederated{}, emails)

		token, _, err := svc.SignUp(ctx, "b@example.com", "supersecret", "B")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
	})

	t.Run("duplicate email", func(t *testing.T) {
		users := newFakeUserRepo()
		svc := newAuthFixture(users, &fakeFederated{}, nil)

		_, _, err := svc.SignUp(ctx, "ana@example.com", "supersecret", "Ana")
		require.NoError(t, err)
		_, _, err = svc.SignUp(ctx, "ana@example.com", "othersecret", "Ana 2")
		require.ErrorIs(t, err, domain.ErrDuplicateEmail)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		users := newFakeUserRepo()
		svc := newAuthFixture(users, &fakeFederated{}, nil)

		_, _, err := svc.SignUp(ctx, "not-an-email", "supersecret", "X")
		require.ErrorIs(t, err, domain.ErrInvalidInput)

		_, _, err = svc.SignUp(ctx, "ok@example.com", "short", "X")
		require.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Empty(t, users.byEmail)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	signUp := func(t *testing.T) (domain.AuthService, *fakeUserRepo) {
		t.Helper()
		users := newFakeUserRepo()
		svc := newAuthFixture(users, &fakeFederated{}, nil)
		_, _, err := svc.SignUp(ctx, "ana@example.com", "supersecret", "Ana")
		require.NoError(t, err)
		return svc, users
	}

	t.Run("valid credentials", func(t *testing.T) {
		svc, _ := signUp(t)

		token, user, err := svc.Login(ctx, "ANA@example.com", "supersecret")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, "ana@example.com", user.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, _ := signUp(t)

		_, _, err := svc.Login(ctx, "ana@example.com", "wrong")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, _ := signUp(t)

		_, _, err := svc.Login(ctx, "nobody@example.com", "supersecret")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("federated account cannot password-login", func(t *testing.T) {
		svc, users := signUp(t)
		users.add(&domain.User{Email: "g@example.com", DisplayName: "G", Provider: domain.ProviderGoogle})

		_, _, err := svc.Login(ctx, "g@example.com", "whatever")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestAuthService_FederatedLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("first sign-in creates the user", func(t *testing.T) {
		users := newFakeUserRepo()
		svc := newAuthFixture(users, &fakeFederated{identity: &domain.FederatedIdentity{
			Provider: domain.ProviderGoogle,
			Subject:  "sub-1",
			Email:    "Ana@Example.com",
			Name:     "Ana",
		}}, nil)

		token, user, err := svc.FederatedLogin(ctx, domain.ProviderGoogle, "provider-token")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, "ana@example.com", user.Email)
		assert.Equal(t, domain.ProviderGoogle, user.Provider)

		// Second sign-in reuses the same account.
		_, again, err := svc.FederatedLogin(ctx, domain.ProviderGoogle, "provider-token")
		require.NoError(t, err)
		assert.Equal(t, user.ID, again.ID)
		assert.Len(t, users.byEmail, 1)
	})

	t.Run("identity without a name gets a fallback", func(t *testing.T) {
		users := newFakeUserRepo()
		svc := newAuthFixture(users, &fakeFederated{identity: &domain.FederatedIdentity{
			Provider: domain.ProviderFacebook,
			Subject:  "fb-1",
			Email:    "fb@example.com",
		}}, nil)

		_, user, err := svc.FederatedLogin(ctx, domain.ProviderFacebook, "provider-token")
		require.NoError(t, err)
		assert.Equal(t, domain.UnknownUserName, user.DisplayName)
	})

	t.Run("unknown provider", func(t *testing.T) {
		svc := newAuthFixture(newFakeUserRepo(), &fakeFederated{}, nil)

		_, _, err := svc.FederatedLogin(ctx, "github", "provider-token")
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("provider rejects the token", func(t *testing.T) {
		svc := newAuthFixture(newFakeUserRepo(), &fakeFederated{err: errors.New("401")}, nil)

		_, _, err := svc.FederatedLogin(ctx, domain.ProviderGoogle, "bad-token")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("identity without an email is rejected", func(t *testing.T) {
		svc := newAuthFixture(newFakeUserRepo(), &fakeFederated{identity: &domain.FederatedIdentity{
			Provider: domain.ProviderGoogle,
			Subject:  "sub-2",
		}}, nil)

		_, _, err := svc.FederatedLogin(ctx, domain.ProviderGoogle, "provider-token")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestAuthService_GetUser(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	svc := newAuthFixture(users, &fakeFederated{}, nil)
	u := users.add(&domain.User{Email: "ana@example.com", DisplayName: "Ana"})

	got, err := svc.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.DisplayName)

	_, err = svc.GetUser(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}
