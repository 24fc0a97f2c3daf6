package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/users"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var testJWT = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "storefront",
	ExpirationMinutes: 30,
}

func TestAuthenticateIssuesSession(t *testing.T) {
	repo := newStubUserRepo()
	admin := repo.add(t, "admin@ecommerce.com", "admin123", enums.UserRoleAdmin)
	svc, sessions := buildTestService(t, repo)

	result, err := svc.Authenticate(context.Background(), Credentials{Email: "  ADMIN@ecommerce.com ", Password: "admin123"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWT, result.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Role != enums.UserRoleAdmin {
		t.Fatalf("expected admin role claim, got %s", claims.Role)
	}
	if claims.UserID != admin.ID {
		t.Fatalf("expected user %s, got %s", admin.ID, claims.UserID)
	}
	if result.RefreshToken == "" {
		t.Fatal("expected refresh token to be set")
	}
	if owner, ok := sessions.sessions[claims.ID]; !ok || owner != admin.ID {
		t.Fatalf("expected session keyed by jti %q", claims.ID)
	}
	if result.User == nil || result.User.Email != "admin@ecommerce.com" {
		t.Fatalf("unexpected user view %+v", result.User)
	}
	if result.User.LastLoginAt == nil {
		t.Fatal("expected last login to be recorded")
	}
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	repo := newStubUserRepo()
	repo.add(t, "customer@example.com", "customer123", enums.UserRoleCustomer)
	svc, sessions := buildTestService(t, repo)

	cases := []Credentials{
		{Email: "customer@example.com", Password: "wrong"},
		{Email: "nobody@example.com", Password: "customer123"},
		{Email: "", Password: "customer123"},
		{Email: "customer@example.com", Password: ""},
	}
	for _, creds := range cases {
		_, err := svc.Authenticate(context.Background(), creds)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected invalid credentials for %q, got %v", creds.Email, err)
		}
	}
	if len(sessions.sessions) != 0 {
		t.Fatalf("expected no sessions, got %d", len(sessions.sessions))
	}
}

func TestRegisterCreatesCustomerAndSignsIn(t *testing.T) {
	repo := newStubUserRepo()
	svc, _ := buildTestService(t, repo)

	result, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Jane Roe",
		Email:    " Jane@Example.com",
		Password: "hunter22",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.User.Role != enums.UserRoleCustomer {
		t.Fatalf("expected customer role, got %s", result.User.Role)
	}
	if result.User.Email != "jane@example.com" {
		t.Fatalf("expected normalized email, got %s", result.User.Email)
	}

	if _, err := svc.Authenticate(context.Background(), Credentials{Email: "jane@example.com", Password: "hunter22"}); err != nil {
		t.Fatalf("expected new account to log in: %v", err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	repo.add(t, "customer@example.com", "customer123", enums.UserRoleCustomer)
	svc, _ := buildTestService(t, repo)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Imposter",
		Email:    "CUSTOMER@example.com",
		Password: "whatever1",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}
	if len(repo.byEmail) != 1 {
		t.Fatalf("expected roster unchanged, got %d users", len(repo.byEmail))
	}
}

func TestRegisterValidatesInput(t *testing.T) {
	svc, _ := buildTestService(t, newStubUserRepo())

	cases := []RegisterRequest{
		{Name: "Short", Email: "short@example.com", Password: "abc"},
		{Name: " ", Email: "blank@example.com", Password: "longenough"},
		{Name: "NoEmail", Email: "  ", Password: "longenough"},
	}
	for _, req := range cases {
		_, err := svc.Register(context.Background(), req)
		if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error for %+v, got %v", req, err)
		}
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	repo := newStubUserRepo()
	repo.add(t, "customer@example.com", "customer123", enums.UserRoleCustomer)
	svc, sessions := buildTestService(t, repo)

	first, err := svc.Authenticate(context.Background(), Credentials{Email: "customer@example.com", Password: "customer123"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWT, first.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if _, err := svc.Refresh(context.Background(), claims.ID, RefreshRequest{RefreshToken: "bogus"}); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected invalid session, got %v", err)
	}

	second, err := svc.Refresh(context.Background(), claims.ID, RefreshRequest{RefreshToken: first.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	rotated, err := pkgAuth.ParseAccessToken(testJWT, second.AccessToken)
	if err != nil {
		t.Fatalf("parse rotated token: %v", err)
	}
	if rotated.ID == claims.ID {
		t.Fatal("expected a new jti after refresh")
	}
	if _, ok := sessions.sessions[claims.ID]; ok {
		t.Fatal("expected old session to be removed")
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	repo := newStubUserRepo()
	repo.add(t, "customer@example.com", "customer123", enums.UserRoleCustomer)
	svc, sessions := buildTestService(t, repo)

	result, err := svc.Authenticate(context.Background(), Credentials{Email: "customer@example.com", Password: "customer123"})
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	claims, _ := pkgAuth.ParseAccessToken(testJWT, result.AccessToken)

	if err := svc.Logout(context.Background(), claims.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.sessions) != 0 {
		t.Fatal("expected session to be revoked")
	}
	if err := svc.Logout(context.Background(), ""); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for blank session id, got %v", err)
	}
}

func buildTestService(t *testing.T, repo *stubUserRepo) (Service, *stubSessionManager) {
	t.Helper()
	sessions := &stubSessionManager{sessions: map[string]uuid.UUID{}, tokens: map[string]string{}}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWT,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, sessions
}

type stubUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]*models.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byEmail: map[string]*models.User{}}
}

func (s *stubUserRepo) add(t *testing.T, email, password string, role enums.UserRole) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user, err := s.Create(context.Background(), users.CreateUserDTO{Email: email, PasswordHash: hash, Name: email, Role: role})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func (s *stubUserRepo) Create(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := dto.ToModel()
	if _, ok := s.byEmail[user.Email]; ok {
		return nil, gorm.ErrDuplicatedKey
	}
	user.ID = uuid.New()
	s.byEmail[user.Email] = user
	return user, nil
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.byEmail {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.byEmail {
		if user.ID == id {
			user.LastLoginAt = &at
		}
	}
	return nil
}

type stubSessionManager struct {
	sessions map[string]uuid.UUID
	tokens   map[string]string
}

func (s *stubSessionManager) Generate(_ context.Context, accessID string, userID uuid.UUID) (string, error) {
	token := "refresh-" + accessID
	s.sessions[accessID] = userID
	s.tokens[accessID] = token
	return token, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (session.Session, error) {
	userID, ok := s.sessions[oldAccessID]
	if !ok || s.tokens[oldAccessID] != provided {
		return session.Session{}, session.ErrInvalidRefreshToken
	}
	delete(s.sessions, oldAccessID)
	delete(s.tokens, oldAccessID)
	accessID := session.NewAccessID()
	token, _ := s.Generate(ctx, accessID, userID)
	return session.Session{AccessID: accessID, UserID: userID, RefreshToken: token}, nil
}

func (s *stubSessionManager) Revoke(_ context.Context, accessID string) error {
	delete(s.sessions, accessID)
	delete(s.tokens, accessID)
	return nil
}
