package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/chatassist/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	svc, _ := newTestAuth(t, repos)

	sess, err := svc.Register(ctx, "  Ann@Example.COM ", "secret1", "  Ann  ")
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	assert.Equal(t, "ann@example.com", sess.User.Email)
	assert.Equal(t, "Ann", sess.User.Name)
	assert.NotEqual(t, "secret1", sess.User.PasswordHash)

	claims, err := svc.Verify(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, claims.UserID)
	assert.Equal(t, "ann@example.com", claims.Email)

	stored, err := repos.Users().FindByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, stored.ID)
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuth(t, newTestRepos(t))

	_, err := svc.Register(ctx, "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "ANN@example.com", "other22", "Ann Two")
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.EqualError(t, err, MsgUserExists)
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, _ := newTestAuth(t, newTestRepos(t))

	tests := []struct {
		name, email, password, user, msg string
	}{
		{"missing email", "", "secret1", "Ann", MsgRegisterFieldsRequired},
		{"missing password", "a@b.co", "", "Ann", MsgRegisterFieldsRequired},
		{"missing name", "a@b.co", "secret1", "", MsgRegisterFieldsRequired},
		{"blank name", "a@b.co", "secret1", "   ", MsgInvalidName},
		{"blank email", "   ", "secret1", "Ann", MsgInvalidEmail},
		{"bad email", "not-an-email", "secret1", "Ann", MsgInvalidEmail},
		{"short password", "a@b.co", "ab1", "Ann", MsgPasswordTooShort},
		{"letters only", "a@b.co", "abcdefg", "Ann", MsgPasswordWeak},
		{"digits only", "a@b.co", "1234567", "Ann", MsgPasswordWeak},
		{"short name", "a@b.co", "secret1", " A ", MsgInvalidName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.email, tt.password, tt.user)
			require.ErrorIs(t, err, common.ErrorValidation)
			assert.EqualError(t, err, tt.msg)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	svc, _ := newTestAuth(t, repos)

	reg, err := svc.Register(ctx, "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)

	sess, err := svc.Login(ctx, "Ann@Example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, sess.User.ID)
	require.NotNil(t, sess.User.LastLoginAt)

	stored, err := repos.Users().FindByID(ctx, reg.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
}

func TestAuthService_Login_UnknownAndWrongPasswordLookAlike(t *testing.T) {
	ctx := context.Background()
	svc, th := newTestAuth(t, newTestRepos(t))

	_, err := svc.Register(ctx, "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)

	_, errUnknown := svc.Login(ctx, "bob@example.com", "secret1")
	_, errWrong := svc.Login(ctx, "ann@example.com", "wrong99")

	require.ErrorIs(t, errUnknown, common.ErrorInvalidCredentials)
	require.ErrorIs(t, errWrong, common.ErrorInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
	assert.Equal(t, 2, th.Len())
}

func TestAuthService_Login_Throttle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAuth(t, newTestRepos(t))

	_, err := svc.Register(ctx, "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := svc.Login(ctx, "ann@example.com", "wrong99")
		require.ErrorIs(t, err, common.ErrorInvalidCredentials)
	}

	// locked even with the right password, and regardless of case
	_, err = svc.Login(ctx, "ANN@example.com", "secret1")
	require.ErrorIs(t, err, common.ErrorRateLimited)
}

func TestAuthService_Login_SuccessClearsFailures(t *testing.T) {
	ctx := context.Background()
	svc, th := newTestAuth(t, newTestRepos(t))

	_, err := svc.Register(ctx, "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, _ = svc.Login(ctx, "ann@example.com", "wrong99")
	}
	_, err = svc.Login(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)

	locked, err := th.IsLocked(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.False(t, locked)
	assert.Equal(t, 0, th.Len())
}

func TestAuthService_Login_Validation(t *testing.T) {
	svc, _ := newTestAuth(t, newTestRepos(t))

	_, err := svc.Login(context.Background(), "", "x")
	assert.EqualError(t, err, MsgLoginFieldsRequired)

	_, err = svc.Login(context.Background(), "nope", "x")
	assert.EqualError(t, err, MsgInvalidEmail)
}

func TestAuthService_CurrentUser(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	svc, _ := newTestAuth(t, repos)

	sess, err := svc.Register(ctx, "ann@example.com", "secret1", "Ann")
	require.NoError(t, err)

	u, err := svc.CurrentUser(ctx, sess.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)

	require.NoError(t, repos.Users().Deactivate(ctx, sess.User.ID))
	_, err = svc.CurrentUser(ctx, sess.User.ID)
	require.ErrorIs(t, err, common.ErrorUnauthenticated)

	_, err = svc.CurrentUser(ctx, "")
	require.ErrorIs(t, err, common.ErrorUnauthenticated)

	_, err = svc.Verify("garbage")
	require.ErrorIs(t, err, common.ErrorUnauthenticated)
}
