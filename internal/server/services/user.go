// Package services contains server-side business logic. This file implements
// UserService: the credential store (register/verify) and the session flows
// built on it (login, refresh rotation, sign-out).
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/pixelstudio/internal/common"
	"github.com/dmitrijs2005/pixelstudio/internal/cryptox"
	"github.com/dmitrijs2005/pixelstudio/internal/dbx"
	"github.com/dmitrijs2005/pixelstudio/internal/logging"
	"github.com/dmitrijs2005/pixelstudio/internal/server/auth"
	"github.com/dmitrijs2005/pixelstudio/internal/server/models"
	"github.com/dmitrijs2005/pixelstudio/internal/server/repositories/repomanager"
)

// RegisterInput is the signup payload after transport decoding.
type RegisterInput struct {
	Email          string
	Password       string
	Username       string
	FirstName      string
	LastName       string
	ProfilePicture string
}

// UserService provides authentication-related operations:
//   - Register / Verify: the credential store
//   - Signup / Login: verify or create, then mint a session
//   - Refresh: consume the presented refresh token and mint a new pair
//   - Signout: revoke the refresh token
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	issuer      *auth.Issuer
	bcryptCost  int
	logger      logging.Logger
	now         func() time.Time
}

// NewUserService constructs a UserService. The issuer carries the signing
// key; the service never reads it from anywhere else.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, issuer *auth.Issuer, bcryptCost int, l logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		issuer:      issuer,
		bcryptCost:  bcryptCost,
		logger:      l.With("module", "users"),
		now:         time.Now,
	}
}

// hashPassword is a seam for tests.
var hashPassword = cryptox.HashPassword

func validateRegistration(in *RegisterInput) error {
	in.Email = common.NormalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	if in.Email == "" || in.Password == "" {
		return fmt.Errorf("%w: email and password are required", common.ErrValidation)
	}
	if !common.ValidEmail(in.Email) {
		return fmt.Errorf("%w: invalid email address", common.ErrValidation)
	}
	if utf8.RuneCountInString(in.Password) < common.MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, common.MinPasswordLength)
	}
	if len(in.Password) > common.MaxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", common.ErrValidation, common.MaxPasswordBytes)
	}
	return nil
}

// Register validates the input, hashes the password and stores the
// identity. Validation happens before any hashing or storage work.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.register(ctx, s.db, in)
}

func (s *UserService) register(ctx context.Context, db dbx.DBTX, in RegisterInput) (*models.User, error) {
	if err := validateRegistration(&in); err != nil {
		return nil, err
	}

	hash, err := hashPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	user := &models.User{
		Email:          in.Email,
		Username:       in.Username,
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		ProfilePicture: strings.TrimSpace(in.ProfilePicture),
		PasswordHash:   hash,
	}

	u, err := s.repomanager.Users(db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) || errors.Is(err, common.ErrDuplicateUsername) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Verify checks email and password. Unknown emails, wrong passwords,
// disabled and password-less identities all fail with
// common.ErrInvalidCredentials.
func (s *UserService) Verify(ctx context.Context, email, password string) (*models.User, error) {
	email = common.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrValidation)
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			cryptox.Equalize([]byte(password))
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	if err := cryptox.ComparePassword(user.PasswordHash, []byte(password)); err != nil {
		if errors.Is(err, cryptox.ErrMismatch) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if user.DisabledAt != nil {
		return nil, common.ErrInvalidCredentials
	}
	return user, nil
}

// Signup registers the identity and opens its first session in one
// transaction.
func (s *UserService) Signup(ctx context.Context, in RegisterInput) (*models.User, *auth.TokenPair, error) {
	if err := validateRegistration(&in); err != nil {
		return nil, nil, err
	}

	var (
		user *models.User
		pair *auth.TokenPair
	)
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if user, err = s.register(ctx, tx, in); err != nil {
			return err
		}
		pair, err = s.openSession(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info(ctx, "user signed up", "user_id", user.ID)
	return user, pair, nil
}

// Login verifies credentials and opens a session.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, *auth.TokenPair, error) {
	user, err := s.Verify(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.openSession(ctx, s.db, user.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return user, pair, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token's
// record is consumed in the same transaction that records the new one, so
// the old token cannot be replayed and concurrent uses of one token yield
// at most one new pair. All failures wrap common.ErrRefreshFailed except a
// missing token, which is common.ErrNoRefreshToken.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*models.User, *auth.TokenPair, error) {
	if refreshToken == "" {
		return nil, nil, common.ErrNoRefreshToken
	}

	claims, err := s.issuer.Verify(refreshToken, auth.KindRefresh)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", common.ErrRefreshFailed, err)
	}

	var (
		user *models.User
		pair *auth.TokenPair
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		rec, err := s.repomanager.RefreshTokens(tx).Consume(ctx, claims.ID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("%w: token already used or revoked", common.ErrRefreshFailed)
			}
			return fmt.Errorf("error consuming refresh token: %w", err)
		}
		if rec.UserID != claims.Subject || !rec.Expires.After(s.now()) {
			return fmt.Errorf("%w: token record does not match", common.ErrRefreshFailed)
		}

		user, err = s.repomanager.Users(tx).GetByID(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("%w: %w", common.ErrRefreshFailed, common.ErrIdentityGone)
			}
			return fmt.Errorf("error loading user: %w", err)
		}
		if user.DisabledAt != nil {
			return fmt.Errorf("%w: %w", common.ErrRefreshFailed, common.ErrIdentityGone)
		}

		pair, err = s.openSession(ctx, tx, user.ID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Debug(ctx, "session refreshed", "user_id", user.ID)
	return user, pair, nil
}

// Signout revokes the refresh token if it belongs to userID. Tokens that
// do not verify have nothing to revoke and are ignored.
func (s *UserService) Signout(ctx context.Context, userID, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := s.issuer.Verify(refreshToken, auth.KindRefresh)
	if err != nil || claims.Subject != userID {
		return nil
	}

	if err := s.repomanager.RefreshTokens(s.db).Delete(ctx, claims.ID); err != nil {
		return fmt.Errorf("error revoking refresh token: %w", err)
	}
	s.logger.Info(ctx, "user signed out", "user_id", userID)
	return nil
}

// GetUser resolves an identity by id; used on every authenticated request.
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

// PurgeExpiredSessions drops refresh token records past their expiry.
func (s *UserService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("error purging refresh tokens: %w", err)
	}
	return n, nil
}

func (s *UserService) openSession(ctx context.Context, db dbx.DBTX, userID string) (*auth.TokenPair, error) {
	pair, err := s.issuer.Issue(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if err := s.repomanager.RefreshTokens(db).Create(ctx, pair.RefreshID, userID, pair.RefreshExpires); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}
	return pair, nil
}
