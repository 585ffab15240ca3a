package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gedenkseiten/internal/domain"
)

// fakeHasher implements domain.PasswordHasher without bcrypt cost.
type fakeHasher struct{}

func (fakeHasher) GenerateSalt() (string, error) { return "salt", nil }
func (fakeHasher) Hash(salt, password string) (string, error) {
	return fmt.Sprintf("hash(%s,%s)", salt, password), nil
}
func (fakeHasher) Compare(hash, salt, password string) error {
	if hash != fmt.Sprintf("hash(%s,%s)", salt, password) {
		return errors.New("mismatch")
	}
	return nil
}

// fakeTokens implements domain.TokenIssuer.
type fakeTokens struct{}

func (fakeTokens) Issue(userID, email, role string, expiry time.Duration) (string, error) {
	return "token-" + userID, nil
}

func TestSignUp(t *testing.T) {
	newFixture := func() (domain.UserService, *fakeUserRepo) {
		users := newFakeUserRepo()
		return NewUserService(users, fakeHasher{}, fakeTokens{}, time.Second), users
	}

	t.Run("creates a member with a normalized email", func(t *testing.T) {
		svc, _ := newFixture()

		u, err := svc.SignUp(context.Background(), "  Pat@Example.ORG ", "password1", "Pat", "Schmidt")
		require.NoError(t, err)

		assert.Equal(t, "pat@example.org", u.Email)
		assert.Equal(t, domain.RoleMember, u.Role)
		assert.NotEmpty(t, u.PasswordHash)
		assert.NotEqual(t, "password1", u.PasswordHash)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		svc, _ := newFixture()

		_, err := svc.SignUp(context.Background(), "not-an-email", "password1", "", "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = svc.SignUp(context.Background(), "pat@example.org", "short", "", "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, _ := newFixture()

		_, err := svc.SignUp(context.Background(), "pat@example.org", "password1", "", "")
		require.NoError(t, err)

		_, err = svc.SignUp(context.Background(), "pat@example.org", "password2", "", "")
		assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	})
}

func TestLogin(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewUserService(users, fakeHasher{}, fakeTokens{}, time.Second)

	u, err := svc.SignUp(context.Background(), "pat@example.org", "password1", "Pat", "Schmidt")
	require.NoError(t, err)

	t.Run("issues a token for valid credentials", func(t *testing.T) {
		token, got, err := svc.Login(context.Background(), "pat@example.org", "password1")
		require.NoError(t, err)
		assert.Equal(t, "token-"+u.ID, token)
		assert.Equal(t, u.ID, got.ID)
	})

	t.Run("wrong password and unknown user look alike", func(t *testing.T) {
		_, _, err := svc.Login(context.Background(), "pat@example.org", "wrong")
		assert.ErrorIs(t, err, domain.ErrForbidden)

		_, _, err = svc.Login(context.Background(), "nobody@example.org", "password1")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}
