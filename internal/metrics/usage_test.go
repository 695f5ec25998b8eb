package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/directadmin/pkg/directadmin"
	"github.com/edvin/directadmin/pkg/directadmin/api"
)

var (
	testConfigs = map[string]string{
		"admin": "usertype=admin&username=admin&bandwidth=unlimited&quota=unlimited&suspended=no",
		"alice": "usertype=user&username=alice&bandwidth=1000&quota=0&suspended=no",
		"bob":   "usertype=reseller&username=bob&bandwidth=unlimited&quota=500&suspended=yes",
	}
	testUsage = map[string]string{
		"admin": "bandwidth=0&quota=1",
		"alice": "bandwidth=250.5&quota=12",
		"bob":   "bandwidth=10&quota=100",
	}
)

// newFakePanel serves the account listing, config and usage commands from
// the test fixtures. Commands listed in failing answer with HTTP 500.
func newFakePanel(t *testing.T, failing ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		command := strings.TrimPrefix(r.URL.Path, "/")
		user := r.URL.Query().Get("user")
		for _, f := range failing {
			if f == command || f == command+":"+user {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
		}

		switch command {
		case "CMD_API_SHOW_ALL_USERS":
			w.Write([]byte("list[]=alice&list[]=bob"))
		case "CMD_API_SHOW_USERS":
			w.Write([]byte("list[]=alice"))
		case "CMD_API_SHOW_USER_CONFIG":
			w.Write([]byte(testConfigs[user]))
		case "CMD_API_SHOW_USER_USAGE":
			w.Write([]byte(testUsage[user]))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestCollector(t *testing.T, srv *httptest.Server, username string, level directadmin.Level) *UsageCollector {
	t.Helper()
	client, err := api.NewClient(srv.URL, username, "secret")
	require.NoError(t, err)
	dac, err := directadmin.NewContext(client, level)
	require.NoError(t, err)
	return NewUsageCollector(dac, 2, 5*time.Second, zerolog.Nop())
}

func TestUsageCollector_Admin(t *testing.T) {
	srv := newFakePanel(t)
	c := newTestCollector(t, srv, "admin", directadmin.LevelAdmin)

	expected := `
# HELP directadmin_account_limit_megabytes Resource limit of the account in MB, absent when unlimited
# TYPE directadmin_account_limit_megabytes gauge
directadmin_account_limit_megabytes{account="alice",level="user",resource="bandwidth"} 1000
directadmin_account_limit_megabytes{account="alice",level="user",resource="disk"} 0
directadmin_account_limit_megabytes{account="bob",level="reseller",resource="disk"} 500
# HELP directadmin_account_limit_unlimited 1 if the account has no limit on the resource
# TYPE directadmin_account_limit_unlimited gauge
directadmin_account_limit_unlimited{account="admin",level="admin",resource="bandwidth"} 1
directadmin_account_limit_unlimited{account="admin",level="admin",resource="disk"} 1
directadmin_account_limit_unlimited{account="alice",level="user",resource="bandwidth"} 0
directadmin_account_limit_unlimited{account="alice",level="user",resource="disk"} 0
directadmin_account_limit_unlimited{account="bob",level="reseller",resource="bandwidth"} 1
directadmin_account_limit_unlimited{account="bob",level="reseller",resource="disk"} 0
# HELP directadmin_account_suspended 1 if the account is suspended
# TYPE directadmin_account_suspended gauge
directadmin_account_suspended{account="admin",level="admin"} 0
directadmin_account_suspended{account="alice",level="user"} 0
directadmin_account_suspended{account="bob",level="reseller"} 1
# HELP directadmin_account_used_megabytes Resource usage of the account in MB
# TYPE directadmin_account_used_megabytes gauge
directadmin_account_used_megabytes{account="admin",level="admin",resource="bandwidth"} 0
directadmin_account_used_megabytes{account="admin",level="admin",resource="disk"} 1
directadmin_account_used_megabytes{account="alice",level="user",resource="bandwidth"} 250.5
directadmin_account_used_megabytes{account="alice",level="user",resource="disk"} 12
directadmin_account_used_megabytes{account="bob",level="reseller",resource="bandwidth"} 10
directadmin_account_used_megabytes{account="bob",level="reseller",resource="disk"} 100
# HELP directadmin_accounts Number of exported accounts by level
# TYPE directadmin_accounts gauge
directadmin_accounts{level="admin"} 1
directadmin_accounts{level="reseller"} 1
directadmin_accounts{level="user"} 1
# HELP directadmin_up Whether the account listing could be fetched
# TYPE directadmin_up gauge
directadmin_up 1
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"directadmin_account_limit_megabytes",
		"directadmin_account_limit_unlimited",
		"directadmin_account_suspended",
		"directadmin_account_used_megabytes",
		"directadmin_accounts",
		"directadmin_up",
	)
	assert.NoError(t, err)
}

func TestUsageCollector_Reseller(t *testing.T) {
	srv := newFakePanel(t)
	c := newTestCollector(t, srv, "bob", directadmin.LevelReseller)

	expected := `
# HELP directadmin_accounts Number of exported accounts by level
# TYPE directadmin_accounts gauge
directadmin_accounts{level="admin"} 0
directadmin_accounts{level="reseller"} 1
directadmin_accounts{level="user"} 1
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected), "directadmin_accounts")
	assert.NoError(t, err)
}

func TestUsageCollector_ListingFails(t *testing.T) {
	srv := newFakePanel(t, "CMD_API_SHOW_ALL_USERS")
	c := newTestCollector(t, srv, "admin", directadmin.LevelAdmin)

	expected := `
# HELP directadmin_up Whether the account listing could be fetched
# TYPE directadmin_up gauge
directadmin_up 0
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected), "directadmin_up", "directadmin_accounts")
	assert.NoError(t, err)
}

func TestUsageCollector_AccountFailureSkipped(t *testing.T) {
	srv := newFakePanel(t, "CMD_API_SHOW_USER_USAGE:bob")
	c := newTestCollector(t, srv, "admin", directadmin.LevelAdmin)

	expected := `
# HELP directadmin_accounts Number of exported accounts by level
# TYPE directadmin_accounts gauge
directadmin_accounts{level="admin"} 1
directadmin_accounts{level="reseller"} 0
directadmin_accounts{level="user"} 1
# HELP directadmin_scrape_account_errors Accounts that could not be fetched during the last scrape
# TYPE directadmin_scrape_account_errors gauge
directadmin_scrape_account_errors 1
`
	err := testutil.CollectAndCompare(c, strings.NewReader(expected),
		"directadmin_accounts", "directadmin_scrape_account_errors")
	assert.NoError(t, err)
}

func TestUsageCollector_FreshDataEachScrape(t *testing.T) {
	var listings atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimPrefix(r.URL.Path, "/") {
		case "CMD_API_SHOW_ALL_USERS":
			listings.Add(1)
			w.Write([]byte(""))
		case "CMD_API_SHOW_USER_CONFIG":
			w.Write([]byte(testConfigs["admin"]))
		case "CMD_API_SHOW_USER_USAGE":
			w.Write([]byte(testUsage["admin"]))
		}
	}))
	t.Cleanup(srv.Close)
	c := newTestCollector(t, srv, "admin", directadmin.LevelAdmin)

	testutil.CollectAndCount(c)
	testutil.CollectAndCount(c)
	assert.Equal(t, int32(2), listings.Load())
}
