package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	settingsFile = "settings.toml"
	cacheDirName = "cache"

	// DefaultSchedule is the cron expression used for new sync workflows.
	DefaultSchedule = "0 0 * * *"
	// DefaultPrefix is the repository-name prefix mirrors are created with.
	DefaultPrefix = "mirror-"

	filePerm = 0o600
	dirPerm  = 0o700
)

// Settings is the persisted user configuration (~/.mirrorkeep/settings.toml).
type Settings struct {
	GitHub      GitHubSettings     `toml:"github"`
	Preferences PreferenceSettings `toml:"preferences"`
}

// GitHubSettings holds account information and the secrets pushed to mirrors.
type GitHubSettings struct {
	Username        string `toml:"username"`
	DefaultOrg      string `toml:"default_org"`
	Token           string `toml:"github_token"`
	SlackWebhookURL string `toml:"slack_webhook_url"`
}

// PreferenceSettings holds user preferences.
type PreferenceSettings struct {
	DefaultSchedule string `toml:"default_schedule"`
	DefaultPrefix   string `toml:"default_prefix"`
}

// Manager reads and writes the configuration directory. The injected root
// keeps tests isolated from the real home directory.
type Manager struct {
	dir string
}

// NewManager creates a manager rooted at dir; an empty dir resolves to
// ~/.mirrorkeep. The directory and a default settings file are created on
// first use.
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".mirrorkeep")
	}

	if err := os.MkdirAll(filepath.Join(dir, cacheDirName), dirPerm); err != nil {
		return nil, fmt.Errorf("cannot create config directory %q: %w", dir, err)
	}

	m := &Manager{dir: dir}
	if _, err := os.Stat(m.settingsPath()); errors.Is(err, os.ErrNotExist) {
		if writeErr := m.Save(defaultSettings()); writeErr != nil {
			return nil, writeErr
		}
	}
	return m, nil
}

// Dir returns the configuration directory root.
func (m *Manager) Dir() string { return m.dir }

// CacheDir returns the directory holding the cache slot files.
func (m *Manager) CacheDir() string { return filepath.Join(m.dir, cacheDirName) }

func (m *Manager) settingsPath() string { return filepath.Join(m.dir, settingsFile) }

// Load reads the settings file, filling missing preferences with defaults.
func (m *Manager) Load() (*Settings, error) {
	var settings Settings
	if _, err := toml.DecodeFile(m.settingsPath(), &settings); err != nil {
		return nil, fmt.Errorf("cannot read settings file: %w", err)
	}

	if settings.Preferences.DefaultSchedule == "" {
		settings.Preferences.DefaultSchedule = DefaultSchedule
	}
	if settings.Preferences.DefaultPrefix == "" {
		settings.Preferences.DefaultPrefix = DefaultPrefix
	}
	return &settings, nil
}

// Save writes the settings file wholesale with restricted permissions.
func (m *Manager) Save(settings *Settings) error {
	return m.write(settings)
}

// Update applies a mutation to the current settings and persists the result.
// Keys the Settings struct does not know about are carried over untouched, so
// other tools sharing the file never lose their configuration.
func (m *Manager) Update(apply func(*Settings)) error {
	settings, err := m.Load()
	if err != nil {
		return err
	}
	apply(settings)

	raw := map[string]any{}
	if _, err := toml.DecodeFile(m.settingsPath(), &raw); err != nil {
		return fmt.Errorf("cannot read settings file: %w", err)
	}

	typed, err := asTable(settings)
	if err != nil {
		return err
	}
	mergeTables(raw, typed)

	return m.write(raw)
}

func (m *Manager) write(payload any) error {
	file, err := os.OpenFile(m.settingsPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
	if err != nil {
		return fmt.Errorf("cannot write settings file: %w", err)
	}
	defer file.Close()

	if encodeErr := toml.NewEncoder(file).Encode(payload); encodeErr != nil {
		return fmt.Errorf("cannot encode settings: %w", encodeErr)
	}
	return nil
}

// asTable round-trips the typed settings through TOML into a generic table
// so they can be merged over the raw document.
func asTable(settings *Settings) (map[string]any, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(settings); err != nil {
		return nil, fmt.Errorf("cannot encode settings: %w", err)
	}

	table := map[string]any{}
	if _, err := toml.Decode(buf.String(), &table); err != nil {
		return nil, fmt.Errorf("cannot encode settings: %w", err)
	}
	return table, nil
}

// mergeTables overlays src onto dst, recursing into nested tables so sibling
// keys under a shared table survive.
func mergeTables(dst, src map[string]any) {
	for key, value := range src {
		if srcTable, ok := value.(map[string]any); ok {
			if dstTable, ok := dst[key].(map[string]any); ok {
				mergeTables(dstTable, srcTable)
				continue
			}
		}
		dst[key] = value
	}
}

func defaultSettings() *Settings {
	return &Settings{
		Preferences: PreferenceSettings{
			DefaultSchedule: DefaultSchedule,
			DefaultPrefix:   DefaultPrefix,
		},
	}
}
