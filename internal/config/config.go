package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for caching and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the widget UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the widget UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used for day boundaries and
	// display (e.g. "Europe/Berlin").
	Timezone string `yaml:"timezone" json:"timezone"`

	// CalendarName selects which ICS source feeds the planner. If
	// empty, all configured sources are scanned.
	CalendarName string `yaml:"calendar_name" json:"calendar_name"`

	// ICS is the list of subscribed calendar sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// KnownPlacesPath is the path to the known-places JSON document.
	KnownPlacesPath string `yaml:"known_places_path" json:"known_places_path"`

	// StateDir holds the position cache, pending reminders and the
	// ICS fetch cache.
	StateDir string `yaml:"state_dir" json:"state_dir"`

	// PositionURL is the companion endpoint returning the device's
	// current coordinates as a {"lat":..,"lon":..} document.
	PositionURL string `yaml:"position_url" json:"position_url"`

	// Pessimistic enables the travel-time safety buffer.
	Pessimistic bool `yaml:"pessimistic" json:"pessimistic"`

	// BaselineCron is a cron-style schedule that bounds how long the
	// daemon may go without replanning, independent of the refresh
	// policy (e.g. "0 * * * *" for at least hourly).
	BaselineCron string `yaml:"baseline_cron" json:"baseline_cron"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// Secrets holds values that must never live in the YAML file. They are
// resolved from the environment (optionally seeded from a dotenv file)
// at startup.
type Secrets struct {
	// MapsAPIKey authenticates directions requests. Each request is a
	// paid call.
	MapsAPIKey string `envconfig:"MAPS_API_KEY" required:"true"`

	// PositionToken, if set, is sent as a bearer token to the
	// position endpoint.
	PositionToken string `envconfig:"POSITION_TOKEN"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          "127.0.0.1:8080",
		Timezone:        "Europe/Berlin",
		ICS:             []ICSConfig{},
		KnownPlacesPath: "/etc/leavenow/known_places.json",
		StateDir:        "/var/lib/leavenow",
		Pessimistic:     true,
		BaselineCron:    "0 * * * *",
	}
}

// Normalize fills in missing/zero values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/Berlin"
	}
	if c.KnownPlacesPath == "" {
		c.KnownPlacesPath = "/etc/leavenow/known_places.json"
	}
	if c.StateDir == "" {
		c.StateDir = "/var/lib/leavenow"
	}
	if c.BaselineCron == "" {
		c.BaselineCron = "0 * * * *"
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there (0600,
// parent dir created) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// LoadSecrets resolves Secrets from the process environment. If a
// dotenv file exists at dotenvPath it seeds the environment first
// without overriding already-set variables.
func LoadSecrets(dotenvPath string) (*Secrets, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	var s Secrets
	if err := envconfig.Process("leavenow", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".leavenow-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
