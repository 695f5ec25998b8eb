package directadmin

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/directadmin/pkg/directadmin/api"
)

func TestNewContext(t *testing.T) {
	conn := newMockConn("admin")
	c := newTestContext(t, conn, LevelAdmin)

	assert.Equal(t, "admin", c.Username())
	assert.Equal(t, LevelAdmin, c.Level())
}

func TestNewContext_InvalidLevel(t *testing.T) {
	_, err := NewContext(newMockConn("admin"), Level(7))
	require.Error(t, err)
}

// ---------- Open ----------

func TestOpen_DetectsLevel(t *testing.T) {
	conn := newMockConn("bob")
	ctx := context.Background()
	conn.On("Get", ctx, "CMD_API_SHOW_USER_CONFIG", url.Values(nil)).
		Return(response(t, "usertype=reseller&username=bob"), nil)

	c, err := Open(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, LevelReseller, c.Level())
	assert.Equal(t, "bob", c.Username())
	conn.AssertExpectations(t)
}

func TestOpen_UnknownType(t *testing.T) {
	conn := newMockConn("bob")
	ctx := context.Background()
	conn.On("Get", ctx, "CMD_API_SHOW_USER_CONFIG", url.Values(nil)).
		Return(response(t, "usertype=superuser"), nil)

	_, err := Open(ctx, conn)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownAccountType))

	var typeErr *UnknownAccountTypeError
	require.True(t, errors.As(err, &typeErr))
	assert.Equal(t, "superuser", typeErr.Type)
}

func TestOpen_RemoteError(t *testing.T) {
	conn := newMockConn("bob")
	ctx := context.Background()
	conn.On("Get", ctx, "CMD_API_SHOW_USER_CONFIG", url.Values(nil)).
		Return(nil, &api.Error{Command: "CMD_API_SHOW_USER_CONFIG", Status: 200, Text: "unauthorized"})

	_, err := Open(ctx, conn)
	var remote *RemoteAPIError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "unauthorized", remote.Text)
}

// ---------- Invoke ----------

func TestContext_InvokePost_SurfacesRemoteError(t *testing.T) {
	conn := newMockConn("admin")
	c := newTestContext(t, conn, LevelAdmin)
	ctx := context.Background()

	remote := &api.Error{Command: "CMD_API_SELECT_USERS", Status: 200, Text: "Error", Details: "no such user"}
	conn.On("Post", ctx, "CMD_API_SELECT_USERS", mock.Anything).Return(nil, remote)

	_, err := c.InvokePost(ctx, "CMD_API_SELECT_USERS", url.Values{})
	assert.Same(t, remote, err)
}

// ---------- Impersonate ----------

func TestContext_Impersonate_AdminToReseller(t *testing.T) {
	conn := newMockConn("admin")
	sub := newMockConn("bob")
	conn.On("LoginAs", "bob").Return(sub, nil)
	c := newTestContext(t, conn, LevelAdmin)

	rc, err := c.Impersonate("bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", rc.Username())
	assert.Equal(t, LevelReseller, rc.Level())
	conn.AssertExpectations(t)
}

func TestContext_Impersonate_ResellerToUser(t *testing.T) {
	conn := newMockConn("bob")
	sub := newMockConn("alice")
	conn.On("LoginAs", "alice").Return(sub, nil)
	c := newTestContext(t, conn, LevelReseller)

	uc, err := c.Impersonate("alice")
	require.NoError(t, err)
	assert.Equal(t, LevelUser, uc.Level())
}

func TestContext_Impersonate_UserFails(t *testing.T) {
	conn := newMockConn("alice")
	c := newTestContext(t, conn, LevelUser)

	_, err := c.Impersonate("carol")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPrivilege))
	conn.AssertNotCalled(t, "LoginAs", mock.Anything)
}

func TestContext_ImpersonateAs(t *testing.T) {
	tests := []struct {
		name    string
		have    Level
		target  Level
		allowed bool
	}{
		{"admin as reseller", LevelAdmin, LevelReseller, true},
		{"admin as user", LevelAdmin, LevelUser, true},
		{"admin as admin", LevelAdmin, LevelAdmin, false},
		{"reseller as user", LevelReseller, LevelUser, true},
		{"reseller as reseller", LevelReseller, LevelReseller, false},
		{"reseller as admin", LevelReseller, LevelAdmin, false},
		{"user as user", LevelUser, LevelUser, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := newMockConn("root")
			conn.On("LoginAs", "target").Return(newMockConn("target"), nil).Maybe()
			c := newTestContext(t, conn, tt.have)

			sub, err := c.ImpersonateAs("target", tt.target)
			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, tt.target, sub.Level())
				assert.Equal(t, "target", sub.Username())
				return
			}
			var privErr *PrivilegeError
			require.True(t, errors.As(err, &privErr))
			assert.Equal(t, tt.have, privErr.Have)
			conn.AssertNotCalled(t, "LoginAs", mock.Anything)
			conn.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestContext_ImpersonateAs_LoginAsError(t *testing.T) {
	conn := newMockConn("admin")
	conn.On("LoginAs", "a|b").Return(nil, errors.New("invalid username"))
	c := newTestContext(t, conn, LevelAdmin)

	_, err := c.ImpersonateAs("a|b", LevelUser)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid username")
}

func TestPrivilegeError_Message(t *testing.T) {
	err := &PrivilegeError{Op: "list users", Have: LevelUser, Need: LevelReseller}
	assert.Equal(t, "list users: requires reseller privilege, have user", err.Error())

	err = &PrivilegeError{Op: "impersonate root as admin", Have: LevelAdmin, Need: LevelAdmin + 1}
	assert.Equal(t, "impersonate root as admin: not permitted with admin privilege", err.Error())
}
