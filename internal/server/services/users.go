// Package services contains server-side business logic: registration and
// login, owner-scoped notes and file uploads. Services return *common.Error
// values whose Kind the HTTP layer maps to a status code.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/cloudnotes/internal/common"
	"github.com/dmitrijs2005/cloudnotes/internal/cryptox"
	"github.com/dmitrijs2005/cloudnotes/internal/dbx"
	"github.com/dmitrijs2005/cloudnotes/internal/server/auth"
	"github.com/dmitrijs2005/cloudnotes/internal/server/config"
	"github.com/dmitrijs2005/cloudnotes/internal/server/models"
	"github.com/dmitrijs2005/cloudnotes/internal/server/repositories/repomanager"
)

const (
	msgUserExists         = "User with this email or username already exists"
	msgInvalidCredentials = "Invalid email or password"
	msgUserNotFound       = "User not found"
)

// RegisterInput is the payload of a registration request.
type RegisterInput struct {
	UserName string
	Email    string
	Password string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  *models.User
	Token string
}

// UserService provides authentication-related operations:
// - Register: create users
// - Login: verify credentials and mint a token
// - GetIdentity: resolve the owner of a verified token
type UserService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	tokens       *auth.TokenService
	storeTimeout time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenService, cfg *config.Config) *UserService {
	return &UserService{
		db:           db,
		repomanager:  m,
		tokens:       tokens,
		storeTimeout: cfg.StoreTimeout,
	}
}

// Register validates in, creates the identity and returns it with a token.
// The uniqueness check and the insert share one transaction; a unique
// violation raised by a concurrent insert is reported the same way.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.UserName = strings.TrimSpace(in.UserName)
	in.Email = strings.TrimSpace(in.Email)

	if fields := fieldErrors(
		validateUserName(in.UserName),
		validateEmail(in.Email),
		validatePassword(in.Password),
	); len(fields) > 0 {
		return nil, common.ValidationError("Validation failed", fields...)
	}

	salt, err := cryptox.GenerateSalt()
	if err != nil {
		return nil, common.WrapError(common.KindInternal, msgInternal, err)
	}
	user := &models.User{
		UserName:     in.UserName,
		Email:        in.Email,
		Salt:         salt,
		PasswordHash: cryptox.HashPassword(in.Password, salt),
	}

	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		_, err := repo.FindByUserNameOrEmail(ctx, user.UserName, user.Email)
		if err == nil {
			return common.NewError(common.KindConflict, msgUserExists)
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		user, err = repo.Create(ctx, user)
		return err
	})
	if err != nil {
		var typed *common.Error
		switch {
		case errors.As(err, &typed):
			return nil, typed
		case errors.Is(err, common.ErrorAlreadyExists):
			return nil, common.WrapError(common.KindConflict, msgUserExists, err)
		default:
			return nil, storeError(err, msgUserNotFound)
		}
	}

	return s.authResult(user)
}

// Login checks email and password. Unknown email and wrong password
// produce the same error, and both run one password derivation.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)

	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.burnPasswordCheck(password)
			return nil, common.NewError(common.KindUnauthorized, msgInvalidCredentials)
		}
		return nil, storeError(err, msgInvalidCredentials)
	}

	if !cryptox.VerifyPassword(password, user.Salt, user.PasswordHash) {
		return nil, common.NewError(common.KindUnauthorized, msgInvalidCredentials)
	}

	return s.authResult(user)
}

// GetIdentity returns the user with id or a KindNotFound error.
func (s *UserService) GetIdentity(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, msgUserNotFound)
	}
	return user, nil
}

// --- helpers below ---

func (s *UserService) authResult(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, common.WrapError(common.KindInternal, msgInternal, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// burnPasswordCheck hashes password under a random salt so that an unknown
// email costs as much as a wrong password.
func (s *UserService) burnPasswordCheck(password string) {
	salt, err := cryptox.GenerateSalt()
	if err != nil {
		salt = make([]byte, cryptox.SaltSize)
	}
	cryptox.Wipe(cryptox.HashPassword(password, salt))
}
