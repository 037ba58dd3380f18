package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/azspectre/internal/resource"
)

// EnvPrefix prefixes every environment override, e.g. AZSPECTRE_MODE.
const EnvPrefix = "AZSPECTRE"

// Config holds azspectre configuration loaded from .azspectre.yaml,
// .azspectre.yml or .azspectre.toml, then overridden from the environment.
type Config struct {
	SubscriptionID string   `yaml:"subscription_id" toml:"subscription_id" envconfig:"SUBSCRIPTION_ID"`
	Mode           string   `yaml:"mode" toml:"mode" envconfig:"MODE"`
	SnapshotDir    string   `yaml:"snapshot_dir" toml:"snapshot_dir" envconfig:"SNAPSHOT_DIR"`
	DataDir        string   `yaml:"data_dir" toml:"data_dir" envconfig:"DATA_DIR"`
	Format         string   `yaml:"format" toml:"format" envconfig:"FORMAT"`
	Timeout        string   `yaml:"timeout" toml:"timeout" envconfig:"TIMEOUT"`
	Concurrency    int      `yaml:"concurrency" toml:"concurrency" envconfig:"CONCURRENCY"`
	Listen         string   `yaml:"listen" toml:"listen" envconfig:"LISTEN"`
	Types          []string `yaml:"types" toml:"types" envconfig:"TYPES"`
	Exclude        Exclude  `yaml:"exclude" toml:"exclude" envconfig:"EXCLUDE"`
}

// Exclude defines resources to skip during collection.
type Exclude struct {
	ResourceIDs []string `yaml:"resource_ids" toml:"resource_ids" envconfig:"RESOURCE_IDS"`
	Tags        []string `yaml:"tags" toml:"tags" envconfig:"TAGS"`
}

// ParseTags converts tag strings ("Key=Value" or "Key") into a map.
// Key-only entries have an empty string value, meaning "match any value".
func (e Exclude) ParseTags() map[string]string {
	if len(e.Tags) == 0 {
		return nil
	}
	m := make(map[string]string, len(e.Tags))
	for _, s := range e.Tags {
		if k, v, ok := strings.Cut(s, "="); ok {
			m[k] = v
		} else {
			m[s] = ""
		}
	}
	return m
}

// ResourceIDSet returns the excluded ids, lower-cased, as a set.
func (e Exclude) ResourceIDSet() map[string]bool {
	if len(e.ResourceIDs) == 0 {
		return nil
	}
	m := make(map[string]bool, len(e.ResourceIDs))
	for _, id := range e.ResourceIDs {
		m[strings.ToLower(strings.TrimSpace(id))] = true
	}
	return m
}

// TimeoutDuration parses the timeout string as a duration.
func (c Config) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// ResourceTypes resolves Types, given as snapshot keys or slugs.
func (c Config) ResourceTypes() ([]resource.Type, error) {
	return ParseTypes(c.Types)
}

// ParseTypes resolves snapshot keys or slugs to resource types.
func ParseTypes(names []string) ([]resource.Type, error) {
	out := make([]resource.Type, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		info, ok := resource.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown resource type %q", name)
		}
		out = append(out, info.Type)
	}
	return out, nil
}

// Load searches dir for .azspectre.yaml, .azspectre.yml or .azspectre.toml,
// parses the first one found and applies AZSPECTRE_* environment overrides.
// A missing file yields a Config built from the environment alone.
func Load(dir string) (Config, error) {
	cfg, err := loadFile(dir)
	if err != nil {
		return Config{}, err
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	return cfg, nil
}

func loadFile(dir string) (Config, error) {
	candidates := []struct {
		name      string
		unmarshal func([]byte, any) error
	}{
		{".azspectre.yaml", yaml.Unmarshal},
		{".azspectre.yml", yaml.Unmarshal},
		{".azspectre.toml", toml.Unmarshal},
	}

	for _, c := range candidates {
		path := filepath.Join(dir, c.name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}

		var cfg Config
		if err := c.unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		return cfg, nil
	}

	return Config{}, nil
}
