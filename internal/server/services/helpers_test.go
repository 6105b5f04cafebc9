package services

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/chatassist/internal/server/auth"
	"github.com/dmitrijs2005/chatassist/internal/server/repositories/memstore"
	"github.com/dmitrijs2005/chatassist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/chatassist/internal/server/throttle"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestRepos(t *testing.T) repomanager.RepositoryManager {
	t.Helper()
	m := repomanager.NewMemoryRepositoryManager(memstore.New())
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func newTestAuth(t *testing.T, repos repomanager.RepositoryManager) (*AuthService, *throttle.Memory) {
	t.Helper()
	th := throttle.NewMemory(throttle.Policy{})
	svc := NewAuthService(
		repos,
		auth.NewPasswordHasher(bcrypt.MinCost),
		auth.NewTokenService([]byte(testSecret), 7*24*time.Hour),
		th,
		nil,
	)
	return svc, th
}
