package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-storefront-api/internal/model"
	"go-storefront-api/internal/repository"
	"go-storefront-api/pkg/jwt"
)

func newAuthService(e *testEnv) AuthService {
	return NewAuthService(e.userRepo, repository.NewIDAllocator(e.db))
}

func TestRegisterAllocatesIDAndRejectsDuplicates(t *testing.T) {
	e := newTestEnv(t)
	auth := newAuthService(e)

	resp, err := auth.Register(&RegisterRequest{
		Email:    "new@example.com",
		Password: "long-enough-pass",
		FullName: "New Customer",
		Phone:    "5551112222",
	})
	require.NoError(t, err)
	assert.True(t, repository.IsWellFormedID(resp.ID))
	assert.Equal(t, model.RoleCustomer, resp.Role)

	_, err = auth.Register(&RegisterRequest{
		Email:    "new@example.com",
		Password: "another-password",
		FullName: "Impostor",
	})
	require.Error(t, err)
	assert.Equal(t, "conflict", appErrCode(t, err))
}

func TestLoginRotatesTokenVersion(t *testing.T) {
	e := newTestEnv(t)
	auth := newAuthService(e)

	_, err := auth.Register(&RegisterRequest{
		Email:    "session@example.com",
		Password: "long-enough-pass",
		FullName: "Session Tester",
	})
	require.NoError(t, err)

	first, err := auth.Login(&LoginRequest{Email: "session@example.com", Password: "long-enough-pass"})
	require.NoError(t, err)
	second, err := auth.Login(&LoginRequest{Email: "session@example.com", Password: "long-enough-pass"})
	require.NoError(t, err)

	firstClaims, err := jwt.ValidateToken(first.Token)
	require.NoError(t, err)
	secondClaims, err := jwt.ValidateToken(second.Token)
	require.NoError(t, err)

	// Each login invalidates the previous session's token version
	assert.NotEqual(t, firstClaims.TokenVersion, secondClaims.TokenVersion)

	user, err := e.userRepo.FindByEmail("session@example.com")
	require.NoError(t, err)
	assert.Equal(t, secondClaims.TokenVersion, user.TokenVersion)
}

func TestLoginRejectsBadCredentialsAndInactiveAccounts(t *testing.T) {
	e := newTestEnv(t)
	auth := newAuthService(e)

	_, err := auth.Register(&RegisterRequest{
		Email:    "locked@example.com",
		Password: "long-enough-pass",
		FullName: "Locked Out",
	})
	require.NoError(t, err)

	_, err = auth.Login(&LoginRequest{Email: "locked@example.com", Password: "wrong-password"})
	require.Error(t, err)
	assert.Equal(t, "unauthorized", appErrCode(t, err))

	_, err = auth.Login(&LoginRequest{Email: "nobody@example.com", Password: "whatever-pass"})
	require.Error(t, err)
	assert.Equal(t, "unauthorized", appErrCode(t, err))

	user, err := e.userRepo.FindByEmail("locked@example.com")
	require.NoError(t, err)
	user.IsActive = false
	require.NoError(t, e.userRepo.Update(user))

	_, err = auth.Login(&LoginRequest{Email: "locked@example.com", Password: "long-enough-pass"})
	require.Error(t, err)
	assert.Equal(t, "unauthorized", appErrCode(t, err))
}
