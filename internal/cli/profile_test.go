package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/directadmin/internal/config"
)

func withConfigHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return filepath.Join(dir, configDirName)
}

func TestSaveAndLoadProfile(t *testing.T) {
	dir := withConfigHome(t)

	p := &Profile{
		Name:        "Prod Server",
		URL:         "https://da.example.com:2222",
		Username:    "admin",
		PasswordEnv: "DA_PROD_PASSWORD",
		LoginAs:     "bob",
		Insecure:    true,
	}
	require.NoError(t, SaveProfile(p))
	assert.Equal(t, "prod-server", p.Name)

	info, err := os.Stat(filepath.Join(dir, profilesDir, "prod-server.yaml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadProfile("prod-server")
	require.NoError(t, err)
	assert.Equal(t, p, loaded)
}

func TestSaveProfile_Invalid(t *testing.T) {
	withConfigHome(t)

	err := SaveProfile(&Profile{Name: "!!!", URL: "https://da", Username: "admin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")

	err = SaveProfile(&Profile{Name: "prod"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url and username")
}

func TestListProfiles(t *testing.T) {
	dir := withConfigHome(t)

	profiles, err := ListProfiles()
	require.NoError(t, err)
	assert.Empty(t, profiles)

	require.NoError(t, SaveProfile(&Profile{Name: "staging", URL: "https://s", Username: "admin"}))
	require.NoError(t, SaveProfile(&Profile{Name: "prod", URL: "https://p", Username: "admin"}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, profilesDir, "notes.txt"), []byte("x"), 0600))

	profiles, err = ListProfiles()
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "prod", profiles[0].Name)
	assert.Equal(t, "staging", profiles[1].Name)
}

func TestLoadProfile_NotFound(t *testing.T) {
	withConfigHome(t)

	_, err := LoadProfile("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `profile "missing" not found`)
}

func TestActiveProfile(t *testing.T) {
	withConfigHome(t)

	active, err := GetActive()
	require.NoError(t, err)
	assert.Empty(t, active)

	require.Error(t, SetActive("prod"))

	require.NoError(t, SaveProfile(&Profile{Name: "prod", URL: "https://p", Username: "admin"}))
	require.NoError(t, SetActive("prod"))

	active, err = GetActive()
	require.NoError(t, err)
	assert.Equal(t, "prod", active)

	require.NoError(t, DeleteProfile("prod"))
	active, err = GetActive()
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestDeleteProfile_NotFound(t *testing.T) {
	withConfigHome(t)
	assert.Error(t, DeleteProfile("ghost"))
}

func TestProfile_Apply(t *testing.T) {
	t.Setenv("DA_PROD_PASSWORD", "from-env")
	cfg := &config.Config{
		URL:      "https://env.example.com:2222",
		Username: "envuser",
		Password: "envpass",
		LoginAs:  "carol",
	}
	p := &Profile{
		Name:        "prod",
		URL:         "https://da.example.com:2222",
		Username:    "admin",
		PasswordEnv: "DA_PROD_PASSWORD",
	}

	require.NoError(t, p.Apply(cfg))
	assert.Equal(t, "prod", cfg.Profile)
	assert.Equal(t, "https://da.example.com:2222", cfg.URL)
	assert.Equal(t, "admin", cfg.Username)
	assert.Equal(t, "from-env", cfg.Password)
	assert.Equal(t, "carol", cfg.LoginAs)
	assert.False(t, cfg.Insecure)
}

func TestProfile_Apply_InlinePasswordWins(t *testing.T) {
	t.Setenv("DA_PROD_PASSWORD", "from-env")
	cfg := &config.Config{}
	p := &Profile{Name: "prod", Password: "inline", PasswordEnv: "DA_PROD_PASSWORD"}

	require.NoError(t, p.Apply(cfg))
	assert.Equal(t, "inline", cfg.Password)
}

func TestProfile_Apply_MissingPasswordEnv(t *testing.T) {
	p := &Profile{Name: "prod", PasswordEnv: "DA_SURELY_UNSET_PASSWORD"}
	err := p.Apply(&config.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DA_SURELY_UNSET_PASSWORD")
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "prod-server", sanitizeName("Prod Server"))
	assert.Equal(t, "da_1", sanitizeName("da_1"))
	assert.Equal(t, "", sanitizeName("///"))
}
