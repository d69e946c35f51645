package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"commung/internal/domain"
	"commung/internal/testutil"
)

func newAuthService() (*AuthService, *testutil.MockUserRepository, *testutil.MockSessionRepository) {
	userRepo := testutil.NewMockUserRepository()
	sessionRepo := testutil.NewMockSessionRepository()
	return NewAuthService(userRepo, sessionRepo, 24*time.Hour), userRepo, sessionRepo
}

func TestAuthService_Register_Success(t *testing.T) {
	authService, _, _ := newAuthService()

	ctx := context.Background()
	user, err := authService.Register(ctx, "alice", "alice@example.com", "password123")

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if user == nil {
		t.Fatal("Expected non-nil user")
	}
	if user.Username != "alice" {
		t.Errorf("Expected username 'alice', got %s", user.Username)
	}
	if user.ID == "" {
		t.Error("Expected user ID to be set")
	}
	if user.PasswordHash == "" || user.PasswordHash == "password123" {
		t.Error("Password should be hashed, not stored in plain text")
	}
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	authService, userRepo, _ := newAuthService()
	userRepo.Users["user1"] = testutil.NewTestUser(testutil.WithUsername("alice"))

	ctx := context.Background()
	user, err := authService.Register(ctx, "alice", "newalice@example.com", "password123")

	if user != nil {
		t.Errorf("Expected nil user, got: %+v", user)
	}
	if !errors.Is(err, domain.ErrUsernameExists) {
		t.Errorf("Expected ErrUsernameExists, got: %v", err)
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	authService, userRepo, _ := newAuthService()
	userRepo.Users["user1"] = testutil.NewTestUser(
		testutil.WithUsername("alice"),
		testutil.WithEmail("alice@example.com"),
	)

	ctx := context.Background()
	user, err := authService.Register(ctx, "bob", "alice@example.com", "password123")

	if user != nil {
		t.Errorf("Expected nil user, got: %+v", user)
	}
	if !errors.Is(err, domain.ErrEmailExists) {
		t.Errorf("Expected ErrEmailExists, got: %v", err)
	}
}

func TestAuthService_Register_InvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"empty username", "", "alice@example.com", "password123"},
		{"short username", "ab", "alice@example.com", "password123"},
		{"username with spaces", "alice bob", "alice@example.com", "password123"},
		{"empty email", "alice", "", "password123"},
		{"invalid email format", "alice", "not-an-email", "password123"},
		{"no TLD", "alice", "alice@example", "password123"},
		{"empty password", "alice", "alice@example.com", ""},
		{"short password", "alice", "alice@example.com", "1234567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authService, _, _ := newAuthService()

			user, err := authService.Register(context.Background(), tt.username, tt.email, tt.password)
			if user != nil {
				t.Errorf("Expected nil user, got: %+v", user)
			}
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got: %v", err)
			}
		})
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	authService, _, _ := newAuthService()

	ctx := context.Background()
	if _, err := authService.Register(ctx, "alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("Failed to register user: %v", err)
	}

	session, user, err := authService.Login(ctx, "alice", "password123")

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if session == nil || user == nil {
		t.Fatal("Expected non-nil session and user")
	}
	if session.Token == "" {
		t.Error("Expected session token to be set")
	}
	if !session.IsConsole() {
		t.Error("Login must mint a console-scoped session")
	}

	expectedExpiry := time.Now().Add(24 * time.Hour)
	if diff := session.ExpiresAt.Sub(expectedExpiry).Abs(); diff > time.Minute {
		t.Errorf("Expected session to expire in ~24 hours, difference is %v", diff)
	}
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	authService, _, _ := newAuthService()

	ctx := context.Background()
	if _, err := authService.Register(ctx, "alice", "alice@example.com", "password123"); err != nil {
		t.Fatalf("Failed to register user: %v", err)
	}

	session, user, err := authService.Login(ctx, "alice", "wrongpassword")

	if session != nil || user != nil {
		t.Error("Expected nil session and user")
	}
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got: %v", err)
	}
}

func TestAuthService_Login_UserNotFound(t *testing.T) {
	authService, _, _ := newAuthService()

	_, _, err := authService.Login(context.Background(), "nonexistent", "password123")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got: %v", err)
	}
}

func TestAuthService_Logout_Success(t *testing.T) {
	authService, _, sessionRepo := newAuthService()

	ctx := context.Background()
	session := testutil.NewTestSession(testutil.WithToken("test-token-123"))
	sessionRepo.Sessions[session.Token] = session

	if err := authService.Logout(ctx, session.Token); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if _, exists := sessionRepo.Sessions[session.Token]; exists {
		t.Error("Expected session to be deleted")
	}
}

func TestAuthService_Logout_Idempotent(t *testing.T) {
	authService, _, _ := newAuthService()

	// Logging out a token that was never issued (or already deleted)
	// still succeeds
	if err := authService.Logout(context.Background(), "already-gone"); err != nil {
		t.Errorf("Expected logout of unknown token to succeed, got: %v", err)
	}
}

func TestAuthService_Logout_StoreFailure(t *testing.T) {
	authService, _, sessionRepo := newAuthService()
	sessionRepo.DeleteFunc = func(ctx context.Context, token string) error {
		return errors.New("connection refused")
	}

	if err := authService.Logout(context.Background(), "some-token"); err == nil {
		t.Error("Expected store failures to surface")
	}
}

func TestAuthService_ValidateSession(t *testing.T) {
	authService, _, sessionRepo := newAuthService()

	session := testutil.NewTestSession()
	sessionRepo.Sessions[session.Token] = session

	got, err := authService.ValidateSession(context.Background(), session.Token)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got.ID != session.ID {
		t.Errorf("Expected session %s, got %s", session.ID, got.ID)
	}

	expired := testutil.NewTestSession(testutil.WithExpired())
	sessionRepo.Sessions[expired.Token] = expired

	if _, err := authService.ValidateSession(context.Background(), expired.Token); !errors.Is(err, domain.ErrSessionExpired) {
		t.Errorf("Expected ErrSessionExpired, got: %v", err)
	}
}

func TestAuthService_PasswordHashing(t *testing.T) {
	authService, _, _ := newAuthService()
	ctx := context.Background()

	user1, _ := authService.Register(ctx, "alice", "alice@example.com", "samepassword")
	user2, _ := authService.Register(ctx, "bob", "bob@example.com", "samepassword")

	// Salted hashes should differ even for identical passwords
	if user1.PasswordHash == user2.PasswordHash {
		t.Error("Expected different password hashes for same password")
	}

	_, _, err1 := authService.Login(ctx, "alice", "samepassword")
	_, _, err2 := authService.Login(ctx, "bob", "samepassword")
	if err1 != nil || err2 != nil {
		t.Error("Expected both users to login successfully with the same password")
	}
}

func TestAuthService_SessionTokenUniqueness(t *testing.T) {
	authService, _, _ := newAuthService()
	ctx := context.Background()

	authService.Register(ctx, "alice", "alice@example.com", "password123")

	session1, _, _ := authService.Login(ctx, "alice", "password123")
	session2, _, _ := authService.Login(ctx, "alice", "password123")

	if session1.Token == session2.Token {
		t.Error("Expected unique session tokens")
	}
}
