package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dkurbatov/learning_platform/internal/hash"
	"github.com/dkurbatov/learning_platform/internal/logging"
	"github.com/dkurbatov/learning_platform/internal/models"
	"github.com/dkurbatov/learning_platform/internal/session"
	"github.com/dkurbatov/learning_platform/internal/tokens"
)

var (
	ErrInvalidInput = errors.New("invalid user data")
	ErrInvalidRole  = errors.New("invalid role")
	ErrUserExists   = errors.New("user already exists")
	// ErrInvalidCredentials covers both unknown email and wrong
	// password. Callers must not distinguish the two.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	// ErrTokenInvalid: signature or expiry failed.
	ErrTokenInvalid = errors.New("invalid refresh token")
	// ErrTokenRevoked: signature fine but no live store record, so the
	// token was spent, logged out, or never issued here.
	ErrTokenRevoked = errors.New("refresh token revoked or unknown")
	// ErrTokenMismatch: stored owner differs from the signed subject.
	ErrTokenMismatch = errors.New("refresh token owner mismatch")
)

type AuthService struct {
	DB            *gorm.DB
	Sessions      session.Store
	JWTSecret     []byte
	RefreshSecret []byte
}

type TokenPair struct {
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
}

func (s *AuthService) Register(ctx context.Context, name, email, password, role string) (*models.User, *TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if name == "" || email == "" || password == "" {
		return nil, nil, ErrInvalidInput
	}
	switch role {
	case "":
		role = models.RoleStudent
	case models.RoleStudent, models.RoleInstructor:
	default:
		// Admin accounts are created manually, never via the public API.
		return nil, nil, ErrInvalidRole
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_failed", "reason", "cannot hash password", "error", err)
		return nil, nil, err
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: pwHash,
		Role:         role,
	}
	// The unique index on email is the authority on duplicates; a
	// pre-flight SELECT would race with concurrent registrations.
	if err := s.DB.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			l.Warn("register_failed", "reason", "email_taken", "email", email)
			return nil, nil, ErrUserExists
		}
		l.Error("register_failed", "reason", "db_error", "error", err)
		return nil, nil, err
	}

	pair, err := s.issuePair(ctx, &user)
	if err != nil {
		return nil, nil, err
	}

	l.Info("register_success", "user_id", user.ID, "role", user.Role)
	return &user, pair, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "reason", "db_error", "error", err)
		return nil, nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, &user)
	if err != nil {
		return nil, nil, err
	}

	l.Info("login_success", "user_id", user.ID)
	return &user, pair, nil
}

// Refresh validates a presented refresh token and rotates it: a new
// access+refresh pair is minted and the old store record is spent in
// the same transaction, so each refresh token works exactly once.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (*models.User, *TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.ParseRefresh(rawRefresh, s.RefreshSecret)
	if err != nil {
		return nil, nil, ErrTokenInvalid
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, nil, ErrTokenInvalid
	}

	oldHash := tokens.Sha256Hex(rawRefresh)
	rec, err := s.Sessions.Find(ctx, oldHash)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			l.Warn("refresh_rejected", "reason", "store_miss", "user_id", userID)
			return nil, nil, ErrTokenRevoked
		}
		return nil, nil, err
	}
	if rec.Revoked {
		l.Warn("refresh_rejected", "reason", "token_reuse", "user_id", userID)
		return nil, nil, ErrTokenRevoked
	}
	if rec.UserID != userID {
		l.Warn("refresh_rejected", "reason", "owner_mismatch", "user_id", userID, "stored_user_id", rec.UserID)
		return nil, nil, ErrTokenMismatch
	}

	var user models.User
	if err := s.DB.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}

	// Role is re-read from the user record here, at mint time. A role
	// change between mints rides out the old access token's lifetime.
	accessExp := time.Now().Add(tokens.AccessTTL)
	newAccess, err := tokens.SignAccess(user.ID, user.Role, accessExp, s.JWTSecret)
	if err != nil {
		return nil, nil, err
	}
	refreshExp := time.Now().Add(tokens.RefreshTTL)
	newRefresh, err := tokens.SignRefresh(user.ID, refreshExp, s.RefreshSecret)
	if err != nil {
		return nil, nil, err
	}

	newClaims, err := tokens.ParseRefresh(newRefresh, s.RefreshSecret)
	if err != nil {
		return nil, nil, err
	}
	next := &models.RefreshToken{
		TokenHash: tokens.Sha256Hex(newRefresh),
		JTI:       newClaims.ID,
		UserID:    user.ID,
		ExpiresAt: refreshExp.Unix(),
	}
	if err := s.Sessions.Rotate(ctx, oldHash, next); err != nil {
		if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrRevoked) {
			l.Warn("refresh_rejected", "reason", "rotation_race", "user_id", userID)
			return nil, nil, ErrTokenRevoked
		}
		return nil, nil, err
	}

	l.Info("refresh_success", "user_id", user.ID)
	return &user, &TokenPair{
		AccessToken:  newAccess,
		AccessExp:    accessExp,
		RefreshToken: newRefresh,
		RefreshExp:   refreshExp,
	}, nil
}

// Logout is idempotent: a missing or already-deleted record is still a
// successful logout.
func (s *AuthService) Logout(ctx context.Context, rawRefresh string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	if rawRefresh == "" {
		return nil
	}
	if err := s.Sessions.Delete(ctx, tokens.Sha256Hex(rawRefresh)); err != nil {
		l.Error("logout_failed", "reason", "cannot delete refresh token", "error", err)
		return err
	}
	l.Info("logout_success")
	return nil
}

func (s *AuthService) issuePair(ctx context.Context, user *models.User) (*TokenPair, error) {
	accessExp := time.Now().Add(tokens.AccessTTL)
	access, err := tokens.SignAccess(user.ID, user.Role, accessExp, s.JWTSecret)
	if err != nil {
		return nil, err
	}

	refreshExp := time.Now().Add(tokens.RefreshTTL)
	refresh, err := tokens.SignRefresh(user.ID, refreshExp, s.RefreshSecret)
	if err != nil {
		return nil, err
	}

	claims, err := tokens.ParseRefresh(refresh, s.RefreshSecret)
	if err != nil {
		return nil, err
	}
	rec := &models.RefreshToken{
		TokenHash: tokens.Sha256Hex(refresh),
		JTI:       claims.ID,
		UserID:    user.ID,
		ExpiresAt: refreshExp.Unix(),
	}
	if err := s.Sessions.Save(ctx, rec); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		AccessExp:    accessExp,
		RefreshToken: refresh,
		RefreshExp:   refreshExp,
	}, nil
}
