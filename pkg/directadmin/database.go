package directadmin

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Database is a MySQL database named "<owner>_<suffix>".
type Database struct {
	name  string
	owner *Account
}

// Name is the full database name including the owner prefix.
func (db *Database) Name() string    { return db.name }
func (db *Database) Owner() *Account { return db.owner }

// ShortName is the name without the owner prefix.
func (db *Database) ShortName() string {
	return strings.TrimPrefix(db.name, db.owner.name+"_")
}

func (a *Account) databasePrefix() string {
	return a.name + "_"
}

// Databases lists the account's databases. A name without the owner prefix
// means the server returned something other than this account's databases.
func (a *Account) Databases(ctx context.Context) ([]*Database, error) {
	dbs, err := CacheGet(ctx, &a.cache, CategoryDatabases, func(ctx context.Context) ([]*Database, error) {
		sc, err := a.selfContext(ctx)
		if err != nil {
			return nil, err
		}
		resp, err := sc.InvokeGet(ctx, cmdDatabases, nil)
		if err != nil {
			return nil, fmt.Errorf("list databases of %s: %w", a.name, err)
		}
		names := resp.List()
		out := make([]*Database, 0, len(names))
		for _, name := range names {
			if !strings.HasPrefix(name, a.databasePrefix()) {
				return nil, fmt.Errorf("%w: database %q of %s lacks prefix %q",
					ErrUnexpectedResponse, name, a.name, a.databasePrefix())
			}
			out = append(out, &Database{name: name, owner: a})
		}
		return out, nil
	})
	return slices.Clone(dbs), err
}

// Database looks a database up by full or short name; nil if absent.
func (a *Account) Database(ctx context.Context, name string) (*Database, error) {
	if !strings.HasPrefix(name, a.databasePrefix()) {
		name = a.databasePrefix() + name
	}
	dbs, err := a.Databases(ctx)
	if err != nil {
		return nil, err
	}
	for _, db := range dbs {
		if db.name == name {
			return db, nil
		}
	}
	return nil, nil
}

// CreateDatabase creates <owner>_<name> with a database user <owner>_<user>.
func (a *Account) CreateDatabase(ctx context.Context, name, user, password string) (*Database, error) {
	sc, err := a.selfContext(ctx)
	if err != nil {
		return nil, err
	}
	name = strings.TrimPrefix(name, a.databasePrefix())
	user = strings.TrimPrefix(user, a.databasePrefix())

	params := url.Values{
		"action":  {"create"},
		"name":    {name},
		"user":    {user},
		"passwd":  {password},
		"passwd2": {password},
	}

	defer a.ClearCache()
	if _, err := sc.InvokePost(ctx, cmdDatabases, params); err != nil {
		return nil, fmt.Errorf("create database %s: %w", a.databasePrefix()+name, err)
	}
	return &Database{name: a.databasePrefix() + name, owner: a}, nil
}

func (db *Database) Delete(ctx context.Context) error {
	sc, err := db.owner.selfContext(ctx)
	if err != nil {
		return err
	}
	params := selectValues([]string{db.name})
	params.Set("action", "delete")

	defer db.owner.ClearCache()
	if _, err := sc.InvokePost(ctx, cmdDatabases, params); err != nil {
		return fmt.Errorf("delete database %s: %w", db.name, err)
	}
	return nil
}
