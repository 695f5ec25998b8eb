package directadmin

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
)

// Account is a user, reseller or admin. The variant is fixed by Level and
// every reseller or admin account also satisfies the user operations.
//
// Data is fetched through the Context the account was obtained from and
// cached per category until the next mutation.
type Account struct {
	name  string
	level Level
	ctx   *Context
	cache Cache
}

func newAccount(name string, level Level, c *Context) *Account {
	return &Account{name: name, level: level, ctx: c}
}

// FromConfig builds the account variant named by raw["usertype"]. The raw
// config becomes the account's cached config.
func FromConfig(raw map[string]string, c *Context) (*Account, error) {
	level, err := ParseLevel(raw["usertype"])
	if err != nil {
		return nil, err
	}

	name := raw["username"]
	if name == "" {
		return nil, fmt.Errorf("%w: config has no username", ErrUnexpectedResponse)
	}

	a := newAccount(name, level, c)
	a.cache.store(CategoryConfig, copyMap(raw))
	return a, nil
}

func (a *Account) Name() string      { return a.name }
func (a *Account) Level() Level      { return a.level }
func (a *Account) Context() *Context { return a.ctx }

// SelfManaged reports whether the account is viewed through its own context.
func (a *Account) SelfManaged() bool {
	return a.name == a.ctx.username
}

// ClearCache drops every cached category of the account.
func (a *Account) ClearCache() {
	a.cache.Clear()
}

func (a *Account) require(op string, need Level) error {
	if a.level < need {
		return &PrivilegeError{Op: op, Have: a.level, Need: need}
	}
	return nil
}

// requireManager checks that the owning context may change the account. It
// must rank above the account; an admin context may also manage other admins.
func (a *Account) requireManager(op string) error {
	if a.ctx.level > a.level || (a.ctx.level == LevelAdmin && !a.SelfManaged()) {
		return nil
	}
	return &PrivilegeError{Op: op + " " + a.name, Have: a.ctx.level, Need: a.level + 1}
}

func (a *Account) fetchMap(command string) func(context.Context) (map[string]string, error) {
	return func(ctx context.Context) (map[string]string, error) {
		resp, err := a.ctx.InvokeGet(ctx, command, url.Values{"user": {a.name}})
		if err != nil {
			return nil, fmt.Errorf("fetch %s of %s: %w", command, a.name, err)
		}
		return resp.Map(), nil
	}
}

// Config returns one user config value; ok is false if the key is not set.
func (a *Account) Config(ctx context.Context, key string) (string, bool, error) {
	return CacheItem(ctx, &a.cache, CategoryConfig, key, a.fetchMap(cmdShowUserConfig))
}

func (a *Account) ConfigMap(ctx context.Context) (map[string]string, error) {
	m, err := CacheGet(ctx, &a.cache, CategoryConfig, a.fetchMap(cmdShowUserConfig))
	return copyMap(m), err
}

func (a *Account) Usage(ctx context.Context, key string) (string, bool, error) {
	return CacheItem(ctx, &a.cache, CategoryUsage, key, a.fetchMap(cmdShowUserUsage))
}

func (a *Account) UsageMap(ctx context.Context) (map[string]string, error) {
	m, err := CacheGet(ctx, &a.cache, CategoryUsage, a.fetchMap(cmdShowUserUsage))
	return copyMap(m), err
}

// ConfigQuota reads a limit from the user config. An unset key is reported
// with ok=false.
func (a *Account) ConfigQuota(ctx context.Context, key string) (Quota, bool, error) {
	v, ok, err := a.Config(ctx, key)
	if err != nil || !ok {
		return Quota{}, false, err
	}
	q, err := ParseQuota(v)
	return q, err == nil, err
}

func (a *Account) UsageQuota(ctx context.Context, key string) (Quota, bool, error) {
	v, ok, err := a.Usage(ctx, key)
	if err != nil || !ok {
		return Quota{}, false, err
	}
	q, err := ParseQuota(v)
	return q, err == nil, err
}

func (a *Account) configString(ctx context.Context, key string) (string, error) {
	v, _, err := a.Config(ctx, key)
	return v, err
}

func (a *Account) Email(ctx context.Context) (string, error) {
	return a.configString(ctx, "email")
}

func (a *Account) DefaultDomain(ctx context.Context) (string, error) {
	return a.configString(ctx, "domain")
}

func (a *Account) PackageName(ctx context.Context) (string, error) {
	return a.configString(ctx, "package")
}

func (a *Account) Creator(ctx context.Context) (string, error) {
	return a.configString(ctx, "creator")
}

func (a *Account) Suspended(ctx context.Context) (bool, error) {
	v, err := a.configString(ctx, "suspended")
	return parseFlag(v), err
}

// Bandwidth is the monthly transfer limit in MB. Accounts without the key
// have no limit.
func (a *Account) Bandwidth(ctx context.Context) (Quota, error) {
	q, _, err := a.ConfigQuota(ctx, "bandwidth")
	return q, err
}

// DiskQuota is the disk limit in MB.
func (a *Account) DiskQuota(ctx context.Context) (Quota, error) {
	q, _, err := a.ConfigQuota(ctx, "quota")
	return q, err
}

func (a *Account) usageFloat(ctx context.Context, key string) (float64, error) {
	v, ok, err := a.Usage(ctx, key)
	if err != nil || !ok || v == "" {
		return 0, err
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse usage %s of %s: %w", key, a.name, err)
	}
	return f, nil
}

// BandwidthUsage is the transfer used this month in MB.
func (a *Account) BandwidthUsage(ctx context.Context) (float64, error) {
	return a.usageFloat(ctx, "bandwidth")
}

// DiskUsage is the disk space used in MB.
func (a *Account) DiskUsage(ctx context.Context) (float64, error) {
	return a.usageFloat(ctx, "quota")
}

// ResellerConfig returns a value of the reseller allowance, which is cached
// apart from the user config of the same account.
func (a *Account) ResellerConfig(ctx context.Context, key string) (string, bool, error) {
	if err := a.require("reseller config", LevelReseller); err != nil {
		return "", false, err
	}
	return CacheItem(ctx, &a.cache, CategoryResellerConfig, key, a.fetchMap(cmdShowResellerConfig))
}

func (a *Account) ResellerConfigMap(ctx context.Context) (map[string]string, error) {
	if err := a.require("reseller config", LevelReseller); err != nil {
		return nil, err
	}
	m, err := CacheGet(ctx, &a.cache, CategoryResellerConfig, a.fetchMap(cmdShowResellerConfig))
	return copyMap(m), err
}

func (a *Account) ResellerUsage(ctx context.Context, key string) (string, bool, error) {
	if err := a.require("reseller usage", LevelReseller); err != nil {
		return "", false, err
	}
	return CacheItem(ctx, &a.cache, CategoryResellerUsage, key, a.fetchMap(cmdShowResellerUsage))
}

// ModifyConfig merges changes over the full current config and posts the
// merged set. The cache is dropped afterwards whether or not the post
// succeeded.
func (a *Account) ModifyConfig(ctx context.Context, changes map[string]string) error {
	if err := a.requireManager("modify config of"); err != nil {
		return err
	}
	current, err := CacheGet(ctx, &a.cache, CategoryConfig, a.fetchMap(cmdShowUserConfig))
	if err != nil {
		return fmt.Errorf("modify config of %s: %w", a.name, err)
	}
	return a.postMerged(ctx, cmdModifyUser, current, changes)
}

// ModifyResellerConfig is ModifyConfig for the reseller allowance.
func (a *Account) ModifyResellerConfig(ctx context.Context, changes map[string]string) error {
	if err := a.require("modify reseller config", LevelReseller); err != nil {
		return err
	}
	if err := a.requireManager("modify reseller config of"); err != nil {
		return err
	}
	current, err := CacheGet(ctx, &a.cache, CategoryResellerConfig, a.fetchMap(cmdShowResellerConfig))
	if err != nil {
		return fmt.Errorf("modify reseller config of %s: %w", a.name, err)
	}
	return a.postMerged(ctx, cmdModifyReseller, current, changes)
}

func (a *Account) postMerged(ctx context.Context, command string, current, changes map[string]string) error {
	defer a.ClearCache()

	params := make(url.Values, len(current)+len(changes)+2)
	for k, v := range current {
		params.Set(k, v)
	}
	for k, v := range changes {
		params.Set(k, v)
	}
	params.Set("action", "customize")
	params.Set("user", a.name)

	if _, err := a.ctx.InvokePost(ctx, command, params); err != nil {
		return fmt.Errorf("modify config of %s: %w", a.name, err)
	}
	return nil
}

// Impersonate returns a context acting as this account. The owning context
// must rank strictly above the account, and a reseller context may only
// impersonate users it created. The creator is read from the cached config,
// which is fetched first if needed.
func (a *Account) Impersonate(ctx context.Context) (*Context, error) {
	op := "impersonate " + a.name
	if a.ctx.level <= a.level {
		return nil, &PrivilegeError{Op: op, Have: a.ctx.level, Need: a.level + 1}
	}
	if a.ctx.level == LevelReseller {
		creator, err := a.Creator(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if creator != a.ctx.username {
			return nil, &PrivilegeError{Op: op + " (created by " + creator + ")", Have: a.ctx.level, Need: LevelAdmin}
		}
	}
	return a.ctx.ImpersonateAs(a.name, a.level)
}

// selfContext is the context to use for endpoints that only work when called
// as the account itself.
func (a *Account) selfContext(ctx context.Context) (*Context, error) {
	if a.SelfManaged() {
		return a.ctx, nil
	}
	return a.Impersonate(ctx)
}

func (a *Account) Suspend(ctx context.Context) error {
	if err := a.requireManager("suspend"); err != nil {
		return err
	}
	defer a.ClearCache()
	return a.ctx.SuspendAccounts(ctx, []string{a.name}, true)
}

func (a *Account) Unsuspend(ctx context.Context) error {
	if err := a.requireManager("unsuspend"); err != nil {
		return err
	}
	defer a.ClearCache()
	return a.ctx.SuspendAccounts(ctx, []string{a.name}, false)
}

// Delete removes the account. The object must not be used afterwards.
func (a *Account) Delete(ctx context.Context) error {
	if err := a.requireManager("delete"); err != nil {
		return err
	}
	defer a.ClearCache()
	return a.ctx.DeleteAccounts(ctx, []string{a.name})
}

func (a *Account) ChangePackage(ctx context.Context, pkg string) error {
	if err := a.requireManager("change package of"); err != nil {
		return err
	}
	defer a.ClearCache()
	return a.ctx.ChangePackage(ctx, a.name, pkg)
}

// LoginKeys lists the names of the account's login keys.
func (a *Account) LoginKeys(ctx context.Context) ([]string, error) {
	keys, err := CacheGet(ctx, &a.cache, CategoryLoginKeys, func(ctx context.Context) ([]string, error) {
		sc, err := a.selfContext(ctx)
		if err != nil {
			return nil, err
		}
		resp, err := sc.InvokeGet(ctx, cmdLoginKeys, nil)
		if err != nil {
			return nil, fmt.Errorf("list login keys of %s: %w", a.name, err)
		}
		return resp.List(), nil
	})
	return slices.Clone(keys), err
}
