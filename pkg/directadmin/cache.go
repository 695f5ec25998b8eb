package directadmin

import (
	"context"
	"fmt"
	"maps"
)

// Category names a bucket of cached remote data. A bucket is filled by one
// fetch and dropped as a unit.
type Category string

const (
	CategoryConfig           Category = "config"
	CategoryUsage            Category = "usage"
	CategoryResellerConfig   Category = "reseller_config"
	CategoryResellerUsage    Category = "reseller_usage"
	CategoryDomains          Category = "domains"
	CategoryDomainSettings   Category = "domain_settings"
	CategoryDatabases        Category = "databases"
	CategoryLoginKeys        Category = "login_keys"
	CategoryUsers            Category = "users"
	CategoryAllUsers         Category = "all_users"
	CategoryResellers        Category = "resellers"
	CategoryAdmins           Category = "admins"
	CategoryDomainOwners     Category = "domain_owners"
	CategoryPackages         Category = "packages"
	CategoryResellerPackages Category = "reseller_packages"
)

// Cache memoizes per-category fetches. The zero value is ready to use.
// It is not safe for concurrent use.
type Cache struct {
	entries map[Category]any
}

// Has reports whether category is populated.
func (c *Cache) Has(category Category) bool {
	_, ok := c.entries[category]
	return ok
}

// Clear drops every category.
func (c *Cache) Clear() {
	c.entries = nil
}

func (c *Cache) store(category Category, v any) {
	if c.entries == nil {
		c.entries = make(map[Category]any)
	}
	c.entries[category] = v
}

// CacheGet returns the whole category, calling fetch once to populate it on
// a miss. Failed fetches are not stored.
func CacheGet[T any](ctx context.Context, c *Cache, category Category, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := c.entries[category]; ok {
		t, ok := v.(T)
		if !ok {
			var zero T
			return zero, fmt.Errorf("cache category %s holds %T", category, v)
		}
		return t, nil
	}

	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.store(category, v)
	return v, nil
}

// CacheItem returns one key of a keyed category. A key missing from the
// fetched set is reported with ok=false, not as an error.
func CacheItem(ctx context.Context, c *Cache, category Category, key string, fetch func(context.Context) (map[string]string, error)) (string, bool, error) {
	m, err := CacheGet(ctx, c, category, fetch)
	if err != nil {
		return "", false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

func copyMap(m map[string]string) map[string]string {
	return maps.Clone(m)
}
