package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/gcbaptista/go-facet-browser/internal/errors"
	"github.com/gcbaptista/go-facet-browser/model"
)

// DefaultSettingsKey is the storage key user settings are persisted under.
const DefaultSettingsKey = "GO_CAM_BROWSER_USER_SETTINGS"

// AppConfig is the full application configuration as read from TOML.
type AppConfig struct {
	Title             string         `toml:"title" json:"title"`
	Description       string         `toml:"description" json:"description"`
	SearchPlaceholder string         `toml:"search_placeholder" json:"search_placeholder"`
	DataURL           string         `toml:"data_url" json:"data_url"` // File path or http(s) URL of the JSON dataset
	HeaderLinks       []HeaderLink   `toml:"header_links" json:"header_links"`
	Fields            []FieldSpec    `toml:"fields" json:"-"`
	Server            ServerConfig   `toml:"server" json:"-"`
	Search            SearchTuning   `toml:"search" json:"-"`
	Settings          SettingsConfig `toml:"settings" json:"-"`
	Watch             bool           `toml:"watch" json:"-"` // Reload the dataset when the data file changes
}

// HeaderLink is an external link shown in the application header.
type HeaderLink struct {
	Label  string `toml:"label" json:"label"`
	Href   string `toml:"href" json:"href"`
	NewTab bool   `toml:"new_tab" json:"new_tab"`
}

// FieldSpec is the TOML form of a FieldConfig. DefaultVisible is a pointer so
// an omitted key keeps the "visible" default.
type FieldSpec struct {
	Field          string          `toml:"field"`
	Label          string          `toml:"label,omitempty"`
	IsID           bool            `toml:"is_id,omitempty"`
	Searchable     bool            `toml:"searchable,omitempty"`
	SearchFuzzy    bool            `toml:"search_fuzzy,omitempty"`
	Facet          model.FacetKind `toml:"facet,omitempty"`
	FacetHelp      string          `toml:"facet_help,omitempty"`
	DefaultVisible *bool           `toml:"default_visible,omitempty"`
	Render         string          `toml:"render,omitempty"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SearchTuning holds the text search knobs that are not part of the field registry.
type SearchTuning struct {
	MinWordSizeFor1Typo       int      `toml:"min_word_size_for_1_typo"`
	MinWordSizeFor2Typos      int      `toml:"min_word_size_for_2_typos"`
	FieldsWithoutPrefixSearch []string `toml:"fields_without_prefix_search"`
	Debounce                  Duration `toml:"debounce"`
}

// SettingsConfig locates the persisted user settings.
type SettingsConfig struct {
	Dir string `toml:"dir"`
	Key string `toml:"key"`
}

// Duration wraps time.Duration so it reads and writes as "300ms" in TOML.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// FieldConfig converts the spec, applying the NewField defaults.
func (s FieldSpec) FieldConfig() FieldConfig {
	fc := NewField(s.Field)
	if s.Label != "" {
		fc.Label = s.Label
	}
	fc.IsID = s.IsID
	fc.Searchable = s.Searchable
	fc.SearchFuzzy = s.SearchFuzzy
	fc.Facet = s.Facet
	fc.FacetHelp = s.FacetHelp
	if s.DefaultVisible != nil {
		fc.DefaultVisible = *s.DefaultVisible
	}
	fc.Render = s.Render
	return fc
}

// SpecFromField is the inverse of FieldSpec.FieldConfig.
func SpecFromField(fc FieldConfig) FieldSpec {
	spec := FieldSpec{
		Field:       fc.Field,
		IsID:        fc.IsID,
		Searchable:  fc.Searchable,
		SearchFuzzy: fc.SearchFuzzy,
		Facet:       fc.Facet,
		FacetHelp:   fc.FacetHelp,
		Render:      fc.Render,
	}
	if fc.Label != fc.Field {
		spec.Label = fc.Label
	}
	if !fc.DefaultVisible {
		visible := false
		spec.DefaultVisible = &visible
	}
	return spec
}

// LoadAppConfig reads the TOML config at configPath.
// A missing file yields the built-in GO-CAM configuration.
func LoadAppConfig(configPath string) (*AppConfig, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultGoCamConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg AppConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if len(cfg.Fields) == 0 {
		cfg.Fields = DefaultGoCamConfig().Fields
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// SaveAppConfig writes cfg to configPath as TOML, creating parent directories.
func SaveAppConfig(cfg *AppConfig, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// ApplyDefaults fills every unset value.
func (c *AppConfig) ApplyDefaults() {
	if c.Title == "" {
		c.Title = "GO-CAM Browser"
	}
	if c.SearchPlaceholder == "" {
		c.SearchPlaceholder = "Search..."
	}
	if c.DataURL == "" {
		c.DataURL = "data.json"
	}
	if c.HeaderLinks == nil {
		c.HeaderLinks = []HeaderLink{}
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Search.MinWordSizeFor1Typo == 0 {
		c.Search.MinWordSizeFor1Typo = 4
	}
	if c.Search.MinWordSizeFor2Typos == 0 {
		c.Search.MinWordSizeFor2Typos = 7
	}
	if c.Search.Debounce.Duration == 0 {
		c.Search.Debounce = Duration{300 * time.Millisecond}
	}
	if c.Settings.Key == "" {
		c.Settings.Key = DefaultSettingsKey
	}
	if c.Settings.Dir == "" {
		if dir, err := GetDefaultStateDir(); err == nil {
			c.Settings.Dir = dir
		} else {
			c.Settings.Dir = "."
		}
	}
}

// FieldConfigs converts every field spec.
func (c *AppConfig) FieldConfigs() []FieldConfig {
	out := make([]FieldConfig, 0, len(c.Fields))
	for _, spec := range c.Fields {
		out = append(out, spec.FieldConfig())
	}
	return out
}

// Registry builds and validates the field registry.
func (c *AppConfig) Registry() (*Registry, error) {
	return NewRegistry(c.FieldConfigs())
}

// SearchSettings combines the registry's searchable fields with the tuning section.
func (c *AppConfig) SearchSettings(reg *Registry) (SearchSettings, error) {
	settings := reg.SearchSettings()
	settings.MinWordSizeFor1Typo = c.Search.MinWordSizeFor1Typo
	settings.MinWordSizeFor2Typos = c.Search.MinWordSizeFor2Typos
	settings.FieldsWithoutPrefixSearch = append([]string(nil), c.Search.FieldsWithoutPrefixSearch...)
	settings.ApplyDefaults()

	if conflicts := settings.ValidateFieldNames(); len(conflicts) > 0 {
		return SearchSettings{}, errors.NewConfigError(conflicts...)
	}
	return settings, nil
}

// Validate checks the whole configuration and returns the registry and
// search settings it describes.
func (c *AppConfig) Validate() (*Registry, SearchSettings, error) {
	reg, err := c.Registry()
	if err != nil {
		return nil, SearchSettings{}, err
	}
	settings, err := c.SearchSettings(reg)
	if err != nil {
		return nil, SearchSettings{}, err
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return nil, SearchSettings{}, errors.NewConfigError(fmt.Sprintf("Invalid server port %d", c.Server.Port))
	}
	return reg, settings, nil
}

// GetConfigDir returns the configuration directory for the browser.
func GetConfigDir() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "go-facet-browser"), nil
}

// GetDefaultConfigPath returns the default config file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// GetDefaultStateDir returns where user settings are kept by default.
func GetDefaultStateDir() (string, error) {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		stateDir = filepath.Join(homeDir, ".local", "state")
	}
	return filepath.Join(stateDir, "go-facet-browser"), nil
}
