package directadmin

import (
	"context"
	"fmt"
	"net/url"
	"slices"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// AccountParams describes a new account. Type selects the variant to create.
type AccountParams struct {
	Type     Level  `validate:"min=1,max=3"`
	Username string `validate:"required,min=3,max=16,alphanum,lowercase"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
	// Domain is required for users and resellers.
	Domain  string `validate:"omitempty,fqdn"`
	Package string
	IP      string `validate:"omitempty,ip"`
	Notify  bool
}

func (p AccountParams) validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if p.Type != LevelAdmin && p.Domain == "" {
		return fmt.Errorf("validation error: domain is required for %s accounts", p.Type)
	}
	return nil
}

// Self returns the account the context acts as.
func (c *Context) Self(ctx context.Context) (*Account, error) {
	return c.LoadAccount(ctx, c.username)
}

// LoadAccount fetches name's config and builds the matching variant with its
// config category already populated. It bypasses the context cache and
// visibility checks, so it may be called from several goroutines at once when
// the underlying connection allows it.
func (c *Context) LoadAccount(ctx context.Context, name string) (*Account, error) {
	resp, err := c.InvokeGet(ctx, cmdShowUserConfig, url.Values{"user": {name}})
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", name, err)
	}
	raw := resp.Map()
	if raw["username"] == "" {
		raw["username"] = name
	}
	a, err := FromConfig(raw, c)
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", name, err)
	}
	return a, nil
}

func (c *Context) cachedList(ctx context.Context, category Category, command string) ([]string, error) {
	return CacheGet(ctx, &c.cache, category, func(ctx context.Context) ([]string, error) {
		resp, err := c.InvokeGet(ctx, command, nil)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", category, err)
		}
		return resp.List(), nil
	})
}

// Users lists the accounts created by this context.
func (c *Context) Users(ctx context.Context) ([]string, error) {
	if err := c.require("list users", LevelReseller); err != nil {
		return nil, err
	}
	users, err := c.cachedList(ctx, CategoryUsers, cmdShowUsers)
	return slices.Clone(users), err
}

// AllUsers lists every account on the server.
func (c *Context) AllUsers(ctx context.Context) ([]string, error) {
	if err := c.require("list all users", LevelAdmin); err != nil {
		return nil, err
	}
	users, err := c.cachedList(ctx, CategoryAllUsers, cmdShowAllUsers)
	return slices.Clone(users), err
}

func (c *Context) Resellers(ctx context.Context) ([]string, error) {
	if err := c.require("list resellers", LevelAdmin); err != nil {
		return nil, err
	}
	resellers, err := c.cachedList(ctx, CategoryResellers, cmdShowResellers)
	return slices.Clone(resellers), err
}

func (c *Context) Admins(ctx context.Context) ([]string, error) {
	if err := c.require("list admins", LevelAdmin); err != nil {
		return nil, err
	}
	admins, err := c.cachedList(ctx, CategoryAdmins, cmdShowAdmins)
	return slices.Clone(admins), err
}

// User returns the named account if it is visible to this context, or nil.
// Users see only themselves, resellers their own users, admins everyone.
func (c *Context) User(ctx context.Context, name string) (*Account, error) {
	if name == c.username {
		return c.Self(ctx)
	}

	var visible []string
	var err error
	switch c.level {
	case LevelUser:
		return nil, nil
	case LevelReseller:
		visible, err = c.cachedList(ctx, CategoryUsers, cmdShowUsers)
	case LevelAdmin:
		visible, err = c.cachedList(ctx, CategoryAllUsers, cmdShowAllUsers)
	}
	if err != nil {
		return nil, err
	}
	if !slices.Contains(visible, name) {
		return nil, nil
	}
	return c.LoadAccount(ctx, name)
}

// Reseller returns the named reseller, or nil if there is none.
func (c *Context) Reseller(ctx context.Context, name string) (*Account, error) {
	if err := c.require("get reseller", LevelAdmin); err != nil {
		return nil, err
	}
	resellers, err := c.cachedList(ctx, CategoryResellers, cmdShowResellers)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(resellers, name) {
		return nil, nil
	}
	return c.LoadAccount(ctx, name)
}

// DomainOwners maps every domain on the server to its owning user.
func (c *Context) DomainOwners(ctx context.Context) (map[string]string, error) {
	if err := c.require("list domain owners", LevelAdmin); err != nil {
		return nil, err
	}
	owners, err := CacheGet(ctx, &c.cache, CategoryDomainOwners, c.fetchDomainOwners)
	return copyMap(owners), err
}

// DomainOwner returns the owner of domain; ok is false if no user owns it.
func (c *Context) DomainOwner(ctx context.Context, domain string) (string, bool, error) {
	if err := c.require("get domain owner", LevelAdmin); err != nil {
		return "", false, err
	}
	return CacheItem(ctx, &c.cache, CategoryDomainOwners, domain, c.fetchDomainOwners)
}

func (c *Context) fetchDomainOwners(ctx context.Context) (map[string]string, error) {
	resp, err := c.InvokeGet(ctx, cmdDomainOwners, nil)
	if err != nil {
		return nil, fmt.Errorf("list domain owners: %w", err)
	}
	return resp.Map(), nil
}

// CreateAccount creates a user, reseller or admin. Resellers may only create
// users. The returned account has an empty cache.
func (c *Context) CreateAccount(ctx context.Context, p AccountParams) (*Account, error) {
	var command string
	switch p.Type {
	case LevelUser:
		command = cmdAccountUser
	case LevelReseller:
		command = cmdAccountReseller
	case LevelAdmin:
		command = cmdAccountAdmin
	default:
		return nil, &UnknownAccountTypeError{Type: p.Type.String()}
	}

	need := LevelReseller
	if p.Type != LevelUser {
		need = LevelAdmin
	}
	if err := c.require("create "+p.Type.String(), need); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	params := url.Values{
		"action":   {"create"},
		"add":      {"Submit"},
		"username": {p.Username},
		"email":    {p.Email},
		"passwd":   {p.Password},
		"passwd2":  {p.Password},
		"notify":   {"no"},
	}
	if p.Notify {
		params.Set("notify", "yes")
	}
	if p.Domain != "" {
		params.Set("domain", p.Domain)
	}
	if p.Package != "" {
		params.Set("package", p.Package)
	}
	if p.IP != "" {
		params.Set("ip", p.IP)
	}

	c.ClearCache()
	if _, err := c.InvokePost(ctx, command, params); err != nil {
		return nil, fmt.Errorf("create %s %s: %w", p.Type, p.Username, err)
	}
	return newAccount(p.Username, p.Type, c), nil
}

// DeleteAccounts removes all named accounts in one request.
func (c *Context) DeleteAccounts(ctx context.Context, names []string) error {
	if err := c.require("delete accounts", LevelReseller); err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("delete accounts: no accounts selected")
	}

	params := selectValues(names)
	params.Set("confirmed", "Confirm")
	params.Set("delete", "yes")

	c.ClearCache()
	if _, err := c.InvokePost(ctx, cmdSelectUsers, params); err != nil {
		return fmt.Errorf("delete accounts: %w", err)
	}
	return nil
}

// SuspendAccounts suspends (or unsuspends) all named accounts in one request.
func (c *Context) SuspendAccounts(ctx context.Context, names []string, suspend bool) error {
	op := "suspend accounts"
	directive := "Suspend"
	if !suspend {
		op = "unsuspend accounts"
		directive = "Unsuspend"
	}
	if err := c.require(op, LevelReseller); err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("%s: no accounts selected", op)
	}

	params := selectValues(names)
	params.Set("suspend", directive)

	c.ClearCache()
	if _, err := c.InvokePost(ctx, cmdSelectUsers, params); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Packages lists the user packages defined by this context.
func (c *Context) Packages(ctx context.Context) ([]string, error) {
	if err := c.require("list packages", LevelReseller); err != nil {
		return nil, err
	}
	pkgs, err := c.cachedList(ctx, CategoryPackages, cmdPackagesUser)
	return slices.Clone(pkgs), err
}

// Package returns the limits of a user package.
func (c *Context) Package(ctx context.Context, name string) (map[string]string, error) {
	if err := c.require("get package", LevelReseller); err != nil {
		return nil, err
	}
	resp, err := c.InvokeGet(ctx, cmdPackagesUser, url.Values{"package": {name}})
	if err != nil {
		return nil, fmt.Errorf("get package %s: %w", name, err)
	}
	return resp.Map(), nil
}

// ResellerPackages lists the reseller packages on the server.
func (c *Context) ResellerPackages(ctx context.Context) ([]string, error) {
	if err := c.require("list reseller packages", LevelAdmin); err != nil {
		return nil, err
	}
	pkgs, err := c.cachedList(ctx, CategoryResellerPackages, cmdPackagesReseller)
	return slices.Clone(pkgs), err
}

// ChangePackage moves user onto package pkg.
func (c *Context) ChangePackage(ctx context.Context, user, pkg string) error {
	if err := c.require("change package", LevelReseller); err != nil {
		return err
	}
	params := url.Values{
		"action":  {"package"},
		"user":    {user},
		"package": {pkg},
	}
	c.ClearCache()
	if _, err := c.InvokePost(ctx, cmdModifyUser, params); err != nil {
		return fmt.Errorf("change package of %s: %w", user, err)
	}
	return nil
}
