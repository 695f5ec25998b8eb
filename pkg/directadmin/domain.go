package directadmin

import (
	"context"
	"fmt"
	"net/url"
	"slices"
)

// Domain is a domain owned by an account.
type Domain struct {
	name  string
	owner *Account
}

func (d *Domain) Name() string    { return d.name }
func (d *Domain) Owner() *Account { return d.owner }
func (d *Domain) String() string  { return d.name }

// DomainOptions sets per-domain limits on creation. Nil limits inherit the
// account defaults.
type DomainOptions struct {
	Bandwidth *Quota
	Quota     *Quota
	SSL       bool
	CGI       bool
	PHP       bool
}

// Domains lists the account's domains. The listing only works when issued as
// the account, so accounts viewed by a superior go through impersonation.
func (a *Account) Domains(ctx context.Context) ([]*Domain, error) {
	domains, err := CacheGet(ctx, &a.cache, CategoryDomains, func(ctx context.Context) ([]*Domain, error) {
		sc, err := a.selfContext(ctx)
		if err != nil {
			return nil, err
		}
		resp, err := sc.InvokeGet(ctx, cmdShowDomains, nil)
		if err != nil {
			return nil, fmt.Errorf("list domains of %s: %w", a.name, err)
		}
		names := resp.List()
		out := make([]*Domain, 0, len(names))
		for _, name := range names {
			out = append(out, &Domain{name: name, owner: a})
		}
		return out, nil
	})
	return slices.Clone(domains), err
}

// Domain returns the named domain, or nil if the account does not own it.
func (a *Account) Domain(ctx context.Context, name string) (*Domain, error) {
	domains, err := a.Domains(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range domains {
		if d.name == name {
			return d, nil
		}
	}
	return nil, nil
}

func (a *Account) CreateDomain(ctx context.Context, name string, opts DomainOptions) (*Domain, error) {
	sc, err := a.selfContext(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"action": {"create"},
		"domain": {name},
		"ssl":    {flagValue(opts.SSL)},
		"cgi":    {flagValue(opts.CGI)},
		"php":    {flagValue(opts.PHP)},
	}
	if opts.Bandwidth != nil {
		setQuota(params, "bandwidth", *opts.Bandwidth)
	}
	if opts.Quota != nil {
		setQuota(params, "quota", *opts.Quota)
	}

	defer a.ClearCache()
	if _, err := sc.InvokePost(ctx, cmdDomain, params); err != nil {
		return nil, fmt.Errorf("create domain %s: %w", name, err)
	}
	return &Domain{name: name, owner: a}, nil
}

// Delete removes the domain and everything under it.
func (d *Domain) Delete(ctx context.Context) error {
	sc, err := d.owner.selfContext(ctx)
	if err != nil {
		return err
	}

	params := selectValues([]string{d.name})
	params.Set("action", "select")
	params.Set("delete", "anything")
	params.Set("confirmed", "anything")

	defer d.owner.ClearCache()
	if _, err := sc.InvokePost(ctx, cmdDomain, params); err != nil {
		return fmt.Errorf("delete domain %s: %w", d.name, err)
	}
	return nil
}

// Settings returns the limits, usage and feature flags of the domain, e.g.
// bandwidth, quota, ssl and php. Settings of all the owner's domains are
// fetched together and cached on the owner.
func (d *Domain) Settings(ctx context.Context) (map[string]string, error) {
	table, err := CacheGet(ctx, &d.owner.cache, CategoryDomainSettings, func(ctx context.Context) (map[string]map[string]string, error) {
		sc, err := d.owner.selfContext(ctx)
		if err != nil {
			return nil, err
		}
		resp, err := sc.InvokeGet(ctx, cmdAdditionalDomains, nil)
		if err != nil {
			return nil, fmt.Errorf("list domain settings of %s: %w", d.owner.name, err)
		}
		table, err := resp.Table()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
		}
		return table, nil
	})
	if err != nil {
		return nil, err
	}
	settings, ok := table[d.name]
	if !ok {
		return nil, fmt.Errorf("%w: no settings for domain %s", ErrUnexpectedResponse, d.name)
	}
	return copyMap(settings), nil
}

// Quota reads a limit from the domain settings, e.g. "bandwidth" or "quota".
func (d *Domain) Quota(ctx context.Context, key string) (Quota, error) {
	settings, err := d.Settings(ctx)
	if err != nil {
		return Quota{}, err
	}
	return ParseQuota(settings[key])
}

// Subdomains lists the subdomain prefixes of the domain.
func (d *Domain) Subdomains(ctx context.Context) ([]string, error) {
	sc, err := d.owner.selfContext(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := sc.InvokeGet(ctx, cmdSubdomains, url.Values{"domain": {d.name}})
	if err != nil {
		return nil, fmt.Errorf("list subdomains of %s: %w", d.name, err)
	}
	return resp.List(), nil
}

func (d *Domain) CreateSubdomain(ctx context.Context, subdomain string) error {
	sc, err := d.owner.selfContext(ctx)
	if err != nil {
		return err
	}
	params := url.Values{
		"action":    {"create"},
		"domain":    {d.name},
		"subdomain": {subdomain},
	}

	defer d.owner.ClearCache()
	if _, err := sc.InvokePost(ctx, cmdSubdomains, params); err != nil {
		return fmt.Errorf("create subdomain %s.%s: %w", subdomain, d.name, err)
	}
	return nil
}
