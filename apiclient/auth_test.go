package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Atractapp/legito-api-testing-sub002/stubapi"
)

func newTestAuthManager(t *testing.T) (*AuthManager, *stubapi.Server) {
	t.Helper()
	stub := stubapi.New()
	server := httptest.NewServer(stub)
	t.Cleanup(server.Close)

	cfg := Config{
		BaseURL:  server.URL,
		Username: stubapi.DefaultUsername,
		Password: stubapi.DefaultPassword,
	}.withDefaults()
	return newAuthManager(cfg), stub
}

func TestAuthManagerSingleLoginUnderConcurrency(t *testing.T) {
	auth, stub := newTestAuthManager(t)

	const callers = 20
	tokens := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			tokens[i], errs[i] = auth.Token(context.Background())
		}()
	}
	wg.Wait()

	require.Equal(t, 1, stub.LoginCount(), "concurrent callers must share one login exchange")
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, tokens[0], tokens[i], "all callers must receive the same token")
	}
}

func TestAuthManagerCachesUntilExpiry(t *testing.T) {
	auth, stub := newTestAuthManager(t)

	first, err := auth.Token(context.Background())
	require.NoError(t, err)
	second, err := auth.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, stub.LoginCount())

	// Move past the credential's validity window; the next call must log in
	// again.
	auth.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	third, err := auth.Token(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
	assert.Equal(t, 2, stub.LoginCount())
}

func TestAuthManagerSafetyMargin(t *testing.T) {
	auth, stub := newTestAuthManager(t)
	stub.SetTokenLifetime(3600)
	auth.safetyMargin = time.Minute

	_, err := auth.Token(context.Background())
	require.NoError(t, err)

	// 59m30s in: inside the expiry but within the safety margin, so the
	// credential counts as stale.
	auth.now = func() time.Time { return time.Now().Add(time.Hour - 30*time.Second) }
	_, err = auth.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stub.LoginCount())
}

func TestAuthManagerInvalidateForcesRelogin(t *testing.T) {
	auth, stub := newTestAuthManager(t)

	first, err := auth.Token(context.Background())
	require.NoError(t, err)

	auth.Invalidate()
	second, err := auth.Token(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, stub.LoginCount())
}

func TestAuthManagerLoginFailure(t *testing.T) {
	auth, stub := newTestAuthManager(t)
	stub.FailNextLogins(1)

	_, err := auth.Token(context.Background())
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusForbidden, authErr.Status)
	assert.NotEmpty(t, authErr.Body, "error must carry the upstream body for diagnosis")

	// A failed exchange must clear the in-flight slot so the next call can
	// try again.
	_, err = auth.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stub.LoginCount())
}

func TestAuthManagerCallerCancellation(t *testing.T) {
	auth, _ := newTestAuthManager(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := auth.Token(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	// The guard must not be left held: a fresh caller succeeds.
	tok, err := auth.Token(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
}
