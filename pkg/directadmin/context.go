package directadmin

import (
	"context"
	"fmt"
	"net/url"

	"github.com/edvin/directadmin/pkg/directadmin/api"
)

// Context is an authenticated identity with a privilege level. Accounts,
// domains and databases are always bound to the Context that produced them.
//
// A Context is not safe for concurrent use; callers sharing one across
// goroutines must synchronize.
type Context struct {
	conn     api.Connection
	username string
	level    Level
	cache    Cache
}

// NewContext wraps conn at the given level. The identity is the account conn
// acts as.
func NewContext(conn api.Connection, level Level) (*Context, error) {
	if !level.valid() {
		return nil, fmt.Errorf("new context: invalid level %d", level)
	}
	return &Context{conn: conn, username: conn.Username(), level: level}, nil
}

// Open detects the level of the authenticated account from its own usertype.
func Open(ctx context.Context, conn api.Connection) (*Context, error) {
	resp, err := conn.Get(ctx, cmdShowUserConfig, nil)
	if err != nil {
		return nil, fmt.Errorf("open context: %w", err)
	}
	raw := resp.Map()
	level, err := ParseLevel(raw["usertype"])
	if err != nil {
		return nil, fmt.Errorf("open context: %w", err)
	}
	return &Context{conn: conn, username: conn.Username(), level: level}, nil
}

func (c *Context) Username() string { return c.username }
func (c *Context) Level() Level    { return c.level }

// ClearCache drops all listings cached on the context.
func (c *Context) ClearCache() {
	c.cache.Clear()
}

func (c *Context) InvokeGet(ctx context.Context, command string, params url.Values) (*api.Response, error) {
	return c.conn.Get(ctx, command, params)
}

func (c *Context) InvokePost(ctx context.Context, command string, params url.Values) (*api.Response, error) {
	return c.conn.Post(ctx, command, params)
}

func (c *Context) require(op string, need Level) error {
	if c.level < need {
		return &PrivilegeError{Op: op, Have: c.level, Need: need}
	}
	return nil
}

// Impersonate returns a context one level below this one acting as target.
// Only the level is checked: whether a reseller owns target is left to the
// server. Account.Impersonate checks ownership before logging in.
func (c *Context) Impersonate(target string) (*Context, error) {
	if c.level == LevelUser {
		return nil, &PrivilegeError{Op: "impersonate " + target, Have: c.level, Need: LevelReseller}
	}
	return c.ImpersonateAs(target, c.level-1)
}

// ImpersonateAs returns a context acting as target at level, which must be
// strictly below this context's level. No request is made.
func (c *Context) ImpersonateAs(target string, level Level) (*Context, error) {
	if !level.valid() {
		return nil, fmt.Errorf("impersonate %s: invalid level %d", target, level)
	}
	if level >= c.level {
		return nil, &PrivilegeError{
			Op:   fmt.Sprintf("impersonate %s as %s", target, level),
			Have: c.level,
			Need: level + 1,
		}
	}
	sub, err := c.conn.LoginAs(target)
	if err != nil {
		return nil, fmt.Errorf("impersonate %s: %w", target, err)
	}
	return &Context{conn: sub, username: target, level: level}, nil
}
