// internal/config/config.go
//
// This package loads fieldcheck's runtime configuration. Values come from
// built-in defaults, then fieldcheck.yaml, then FIELDCHECK_* environment
// variables, then explicitly set command-line flags.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	// FileName is the configuration file looked up in the working directory.
	FileName = "fieldcheck.yaml"
	// SchemaFileName is the schema written next to it by Init.
	SchemaFileName = "schema.yaml"

	envPrefix = "FIELDCHECK_"

	OutputText = "text"
	OutputJSON = "json"
)

const defaultConfigYAML = `# fieldcheck configuration
schema: schema.yaml

# Record document to validate; "-" reads stdin.
# record: record.yaml

# text or json
output: text

# Delay before every check completes, to watch validation run asynchronously.
latency: 0s

# Report every failing check of a field instead of only the first.
collect_all: false

log:
  level: info
  format: text
  # file: fieldcheck.log
`

const defaultSchemaYAML = `fields:
  username:
    required: true
    type: string
    range: [3, 16]
  email:
    match: email
  password:
    min: 8
  confirm:
    duplicate: password
  age:
    required: false
    type: number
    min: 18
`

// LogConfig selects how diagnostics are written.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	File   string `koanf:"file"`
}

// Config holds the runtime configuration for fieldcheck.
type Config struct {
	Schema     string        `koanf:"schema"`
	Record     string        `koanf:"record"`
	Output     string        `koanf:"output"`
	Latency    time.Duration `koanf:"latency"`
	CollectAll bool          `koanf:"collect_all"`
	Log        LogConfig     `koanf:"log"`

	// FileUsed is the configuration file that was loaded, if any.
	FileUsed string `koanf:"-"`
}

func defaults() map[string]any {
	return map[string]any{
		"schema":      SchemaFileName,
		"record":      "",
		"output":      OutputText,
		"latency":     "0s",
		"collect_all": false,
		"log.level":   "info",
		"log.format":  "text",
		"log.file":    "",
	}
}

// Load builds the configuration. cfgFile names an explicit configuration
// file; when empty, FileName is used if it exists in the working directory.
// Only flags that were explicitly set override other sources.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	used, err := findFile(cfgFile)
	if err != nil {
		return nil, err
	}
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", used, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return configKey(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return configKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("config: load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.FileUsed = used
	cfg.normalize()
	if used != "" {
		base := filepath.Dir(used)
		cfg.Schema = resolvePath(base, cfg.Schema)
		if cfg.Record != "-" {
			cfg.Record = resolvePath(base, cfg.Record)
		}
		cfg.Log.File = resolvePath(base, cfg.Log.File)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no command can honour.
func (c *Config) Validate() error {
	switch c.Output {
	case OutputText, OutputJSON:
	default:
		return fmt.Errorf("config: output must be %q or %q, got %q", OutputText, OutputJSON, c.Output)
	}
	if c.Latency < 0 {
		return fmt.Errorf("config: latency must not be negative")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

func (c *Config) normalize() {
	c.Schema = strings.TrimSpace(c.Schema)
	c.Record = strings.TrimSpace(c.Record)
	c.Output = strings.ToLower(strings.TrimSpace(c.Output))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.Log.File = strings.TrimSpace(c.Log.File)
}

// Init writes a default configuration file and example schema into dir.
// Existing files are left untouched; the paths written are returned.
func Init(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	var written []string
	files := []struct{ name, content string }{
		{FileName, defaultConfigYAML},
		{SchemaFileName, defaultSchemaYAML},
	}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		ok, err := ensureFile(path, f.content)
		if err != nil {
			return nil, err
		}
		if ok {
			written = append(written, path)
		}
	}
	return written, nil
}

func ensureFile(path, content string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return false, fmt.Errorf("config: write %s: %w", path, err)
	}
	return true, nil
}

func findFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config: %w", err)
		}
		return explicit, nil
	}
	if _, err := os.Stat(FileName); err == nil {
		return FileName, nil
	}
	return "", nil
}

// configKey maps LOG_LEVEL and log-level alike to log.level.
func configKey(name string) string {
	key := strings.ToLower(strings.ReplaceAll(name, "-", "_"))
	if rest, ok := strings.CutPrefix(key, "log_"); ok {
		return "log." + rest
	}
	return key
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}
