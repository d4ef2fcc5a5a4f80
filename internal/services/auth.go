package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"communityevents/internal/domain"
)

const minPasswordLen = 8

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type authService struct {
	userRepo     domain.UserRepository
	hasher       domain.PasswordHasher
	tokens       domain.TokenIssuer
	federated    domain.FederatedVerifier
	emailService domain.EmailService
	tokenExpiry  time.Duration
}

// NewAuthService creates an AuthService. The email service is optional; when
// nil no welcome email is sent.
func NewAuthService(userRepo domain.UserRepository,
	hasher domain.PasswordHasher,
	tokens domain.TokenIssuer,
	federated domain.FederatedVerifier,
	emailService domain.EmailService,
	tokenExpiry time.Duration,
) domain.AuthService {
	return &authService{
		userRepo:     userRepo,
		hasher:       hasher,
		tokens:       tokens,
		federated:    federated,
		emailService: emailService,
		tokenExpiry:  tokenExpiry,
	}
}

func (s *authService) SignUp(ctx context.Context, email, password, displayName string) (string, *domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegexp.MatchString(email) {
		return "", nil, fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return "", nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLen)
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return "", nil, fmt.Errorf("generate salt: %w", err)
	}
	hash, err := s.hasher.Hash(salt, password)
	if err != nil {
		return "", nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := domain.NewUser(email, strings.TrimSpace(displayName), domain.ProviderPassword, now, now)
	user.PasswordHash = hash
	user.Salt = salt
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return "", nil, domain.ErrDuplicateEmail
		}
		return "", nil, fmt.Errorf("create user: %w", err)
	}

	if s.emailService != nil {
		data := &domain.WelcomeMessageEmailData{Email: user.Email, DisplayName: user.DisplayName}
		if err := s.emailService.SendWelcomeMessage(ctx, data); err != nil {
			// Sign-up succeeded; the welcome email is not worth failing it.
			log.Printf("[AUTH] welcome email to %s failed: %v", user.Email, err)
		}
	}

	token, err := s.tokens.Issue(user.ID, user.Email, s.tokenExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	if user.Provider != domain.ProviderPassword {
		return "", nil, domain.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(user.ID, user.Email, s.tokenExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

func (s *authService) FederatedLogin(ctx context.Context, provider, accessToken string) (string, *domain.User, error) {
	if provider != domain.ProviderGoogle && provider != domain.ProviderFacebook {
		return "", nil, domain.ErrInvalidInput
	}
	identity, err := s.federated.Verify(ctx, provider, accessToken)
	if err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}
	email := strings.TrimSpace(strings.ToLower(identity.Email))
	if email == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		now := time.Now()
		name := strings.TrimSpace(identity.Name)
		if name == "" {
			name = domain.UnknownUserName
		}
		user = domain.NewUser(email, name, provider, now, now)
		if err := s.userRepo.Create(ctx, user); err != nil {
			return "", nil, fmt.Errorf("create federated user: %w", err)
		}
	} else if err != nil {
		return "", nil, fmt.Errorf("get user by email: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email, s.tokenExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

func (s *authService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
