package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/edvin/directadmin/internal/config"
)

const (
	configDirName = "directadmin"
	profilesDir   = "profiles"
	stateFile     = "state.yaml"
)

// Profile is a saved panel connection.
type Profile struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	// Password is stored in clear text; prefer PasswordEnv.
	Password    string `yaml:"password,omitempty"`
	PasswordEnv string `yaml:"password_env,omitempty"`
	LoginAs     string `yaml:"login_as,omitempty"`
	Insecure    bool   `yaml:"insecure,omitempty"`
	CACert      string `yaml:"ca_cert,omitempty"`
}

// State holds the active profile selection.
type State struct {
	ActiveProfile string `yaml:"active_profile"`
}

// configDir returns the base config directory (~/.config/directadmin/).
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	return filepath.Join(xdgConfig, configDirName), nil
}

// ensureConfigDir creates the config directory structure if needed.
func ensureConfigDir() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Join(dir, profilesDir), 0700); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return dir, nil
}

// SaveProfile writes p to the profile store, replacing any profile of the
// same name. The name is sanitized before saving.
func SaveProfile(p *Profile) error {
	p.Name = sanitizeName(p.Name)
	if p.Name == "" {
		return errors.New("profile name is required")
	}
	if p.URL == "" || p.Username == "" {
		return fmt.Errorf("profile %q: url and username are required", p.Name)
	}

	dir, err := ensureConfigDir()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	path := filepath.Join(dir, profilesDir, p.Name+".yaml")
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// ListProfiles returns all saved profiles sorted by name.
func ListProfiles() ([]Profile, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}

	pDir := filepath.Join(dir, profilesDir)
	entries, err := os.ReadDir(pDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read profiles directory: %w", err)
	}

	var profiles []Profile
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(pDir, entry.Name()))
		if err != nil {
			continue
		}

		var p Profile
		if err := yaml.Unmarshal(data, &p); err != nil {
			continue
		}
		profiles = append(profiles, p)
	}

	slices.SortFunc(profiles, func(a, b Profile) int { return strings.Compare(a.Name, b.Name) })
	return profiles, nil
}

// LoadProfile loads a profile by name.
func LoadProfile(name string) (*Profile, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, profilesDir, sanitizeName(name)+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("profile %q not found: %w", name, err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %q: %w", name, err)
	}
	return &p, nil
}

// DeleteProfile removes a saved profile.
func DeleteProfile(name string) error {
	dir, err := configDir()
	if err != nil {
		return err
	}

	name = sanitizeName(name)
	path := filepath.Join(dir, profilesDir, name+".yaml")
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete profile %q: %w", name, err)
	}

	// If this was the active profile, clear it.
	state, _ := loadState()
	if state != nil && state.ActiveProfile == name {
		state.ActiveProfile = ""
		return saveState(state)
	}

	return nil
}

// SetActive sets the active profile.
func SetActive(name string) error {
	// Verify profile exists.
	p, err := LoadProfile(name)
	if err != nil {
		return err
	}

	state := &State{ActiveProfile: p.Name}
	return saveState(state)
}

// GetActive returns the currently active profile name.
func GetActive() (string, error) {
	state, err := loadState()
	if err != nil {
		return "", nil // no state file = no active profile
	}
	return state.ActiveProfile, nil
}

// Apply overlays the profile's connection settings onto cfg. Fields the
// profile leaves empty keep their environment values.
func (p *Profile) Apply(cfg *config.Config) error {
	cfg.Profile = p.Name
	if p.URL != "" {
		cfg.URL = p.URL
	}
	if p.Username != "" {
		cfg.Username = p.Username
	}
	if p.LoginAs != "" {
		cfg.LoginAs = p.LoginAs
	}
	if p.CACert != "" {
		cfg.CACert = p.CACert
	}
	if p.Insecure {
		cfg.Insecure = true
	}

	switch {
	case p.Password != "":
		cfg.Password = p.Password
	case p.PasswordEnv != "":
		v, ok := os.LookupEnv(p.PasswordEnv)
		if !ok {
			return fmt.Errorf("profile %q: password variable %s is not set", p.Name, p.PasswordEnv)
		}
		cfg.Password = v
	}
	return nil
}

func loadState() (*State, error) {
	dir, err := configDir()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, stateFile))
	if err != nil {
		return nil, err
	}

	var state State
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, err
	}

	return &state, nil
}

func saveState(state *State) error {
	dir, err := ensureConfigDir()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(state)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, stateFile), data, 0600)
}

func sanitizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
	return strings.Trim(name, "-")
}
