package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cppla/blogapi/models"
	"github.com/cppla/blogapi/store"
	"github.com/cppla/blogapi/utils"
)

// PasswordHasher is a salted one-way password function.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer signs identity tokens bound to a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AccountService registers users and exchanges credentials for tokens.
type AccountService struct {
	users  store.UserStore
	hasher PasswordHasher
	tokens TokenIssuer

	decoyOnce sync.Once
	decoyHash string
}

func NewAccountService(users store.UserStore, hasher PasswordHasher, tokens TokenIssuer) *AccountService {
	return &AccountService{users: users, hasher: hasher, tokens: tokens}
}

// Register creates an account and signs the new user in.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = NormalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	_, err := s.users.GetUserByEmail(ctx, in.Email)
	if err == nil {
		return nil, errEmailTaken
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{Name: in.Name, Email: in.Email, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// lost a race with a concurrent registration of the same email
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, errEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.signIn(user)
}

// Login verifies credentials. Unknown email and wrong password fail identically.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = NormalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, store.ErrNotFound) {
		s.burnCompare(in.Password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, in.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.signIn(user)
}

// Me returns the public projection of the authenticated user.
func (s *AccountService) Me(ctx context.Context, userID string) (*UserView, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errUserGone
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	v := userView(user)
	return &v, nil
}

func (s *AccountService) signIn(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{Token: token, User: userView(user)}, nil
}

// burnCompare spends the time of one real password check for an unknown account.
func (s *AccountService) burnCompare(password string) {
	if decoy := s.decoy(); decoy != "" {
		_ = s.hasher.Compare(decoy, password)
		return
	}
	// no decoy hash to compare against; hashing costs the same
	_, _ = s.hasher.Hash(password)
}

func (s *AccountService) decoy() string {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.Hash("decoy-password-for-unknown-accounts")
		if err != nil {
			utils.Sugar.Warnf("decoy password hash failed: %v", err)
			return
		}
		s.decoyHash = hash
	})
	return s.decoyHash
}
