package directadmin

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/directadmin/pkg/directadmin/api"
)

// ---------- Mock Connection ----------

// mockConn implements api.Connection for testing.
type mockConn struct {
	mock.Mock
	username string
}

func newMockConn(username string) *mockConn {
	return &mockConn{username: username}
}

func (m *mockConn) Get(ctx context.Context, command string, params url.Values) (*api.Response, error) {
	args := m.Called(ctx, command, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.Response), args.Error(1)
}

func (m *mockConn) Post(ctx context.Context, command string, params url.Values) (*api.Response, error) {
	args := m.Called(ctx, command, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.Response), args.Error(1)
}

func (m *mockConn) LoginAs(username string) (api.Connection, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(api.Connection), args.Error(1)
}

func (m *mockConn) Username() string {
	return m.username
}

// ---------- Helpers ----------

func response(t *testing.T, body string) *api.Response {
	t.Helper()
	r, err := api.ParseResponse([]byte(body))
	require.NoError(t, err)
	return r
}

func success(t *testing.T) *api.Response {
	return response(t, "error=0&text=Success")
}

func newTestContext(t *testing.T, conn *mockConn, level Level) *Context {
	t.Helper()
	c, err := NewContext(conn, level)
	require.NoError(t, err)
	return c
}

func userValues(name string) url.Values {
	return url.Values{"user": {name}}
}
