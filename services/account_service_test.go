package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cppla/blogapi/store/memstore"
	"github.com/cppla/blogapi/utils"
)

func newAccountService(t *testing.T) (*AccountService, *memstore.Store, *utils.TokenService) {
	t.Helper()
	st := memstore.New()
	tokens := utils.NewTokenService("test-secret", time.Hour)
	return NewAccountService(st, utils.NewBcryptHasher(bcrypt.MinCost), tokens), st, tokens
}

func TestRegister(t *testing.T) {
	svc, st, tokens := newAccountService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{Name: "  Alice ", Email: " Alice@Example.COM ", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.User.ID)
	assert.Equal(t, "Alice", res.User.Name)
	assert.Equal(t, "alice@example.com", res.User.Email)

	claims, err := tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)

	stored, err := st.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, st, _ := newAccountService(t)
	ctx := context.Background()

	first, err := svc.Register(ctx, RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Name: "Other", Email: "ALICE@example.com", Password: "secret2"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Equal(t, KindConflict, KindOf(err))

	stored, err := st.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, stored.ID)
	assert.Equal(t, "Alice", stored.Name)
}

func TestRegisterValidation(t *testing.T) {
	svc, st, _ := newAccountService(t)

	_, err := svc.Register(context.Background(), RegisterInput{Name: "A", Email: "not-an-email", Password: "123"})
	require.Error(t, err)
	assert.Equal(t, KindInvalidInput, KindOf(err))

	var e *Error
	require.True(t, errors.As(err, &e))
	fields := map[string]bool{}
	for _, f := range e.Fields {
		fields[f.Field] = true
	}
	assert.Equal(t, map[string]bool{"name": true, "email": true, "password": true}, fields)

	_, err = st.GetUserByEmail(context.Background(), "not-an-email")
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	svc, _, tokens := newAccountService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	res, err := svc.Login(ctx, LoginInput{Email: "ALICE@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, reg.User, res.User)

	claims, err := tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _, _ := newAccountService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong-password"})
	_, unknownEmail := svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "secret1"})

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.Equal(t, KindInvalidCredentials, KindOf(wrongPassword))
	assert.Equal(t, wrongPassword, unknownEmail)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLoginValidation(t *testing.T) {
	svc, _, _ := newAccountService(t)

	_, err := svc.Login(context.Background(), LoginInput{Email: "alice@example.com"})
	require.Error(t, err)
	assert.Equal(t, KindInvalidInput, KindOf(err))
}

func TestMe(t *testing.T) {
	svc, st, _ := newAccountService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	me, err := svc.Me(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, reg.User, *me)

	st.DeleteUser(reg.User.ID)
	_, err = svc.Me(ctx, reg.User.ID)
	assert.Equal(t, KindUnauthenticated, KindOf(err))
}

func TestRegisterRejectsPasswordBcryptCannotHash(t *testing.T) {
	svc, st, _ := newAccountService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Alice", Email: "alice@example.com", Password: strings.Repeat("p", 80)})
	require.Error(t, err)
	assert.Equal(t, KindInvalidInput, KindOf(err))
	var e *Error
	require.True(t, errors.As(err, &e))
	require.Len(t, e.Fields, 1)
	assert.Equal(t, "password", e.Fields[0].Field)

	// 24 three-byte runes: 72 bytes is still accepted, 25 is not
	_, err = svc.Register(ctx, RegisterInput{Name: "Bob", Email: "bob@example.com", Password: strings.Repeat("€", 25)})
	assert.Equal(t, KindInvalidInput, KindOf(err))
	_, err = svc.Register(ctx, RegisterInput{Name: "Bob", Email: "bob@example.com", Password: strings.Repeat("€", 24)})
	require.NoError(t, err)

	_, err = st.GetUserByEmail(ctx, "alice@example.com")
	assert.Error(t, err)
}

// failingHasher counts calls and never produces a hash.
type failingHasher struct {
	hashes   int
	compares int
}

func (h *failingHasher) Hash(string) (string, error) {
	h.hashes++
	return "", errors.New("hashing unavailable")
}

func (h *failingHasher) Compare(string, string) error {
	h.compares++
	return errors.New("mismatch")
}

func TestLoginUnknownEmailStillHashesWithoutDecoy(t *testing.T) {
	h := &failingHasher{}
	svc := NewAccountService(memstore.New(), h, utils.NewTokenService("test-secret", time.Hour))

	_, err := svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "secret1"})
	assert.Same(t, ErrInvalidCredentials, err)
	// one failed decoy attempt, then the password itself is hashed
	assert.Equal(t, 2, h.hashes)
	assert.Equal(t, 0, h.compares)

	_, err = svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "secret1"})
	assert.Same(t, ErrInvalidCredentials, err)
	assert.Equal(t, 3, h.hashes)
}
