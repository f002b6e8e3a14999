package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the typed application configuration.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Container ContainerConfig `yaml:"container"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	HTTP      HTTPConfig      `yaml:"http"`
}

type AppConfig struct {
	Name  string `yaml:"name" validate:"required"`
	Env   string `yaml:"env" validate:"oneof=local development testing production"`
	Debug bool   `yaml:"debug"`
	Port  string `yaml:"port" validate:"required,numeric"`
}

type ContainerConfig struct {
	// Strict makes rebinding an existing key an error instead of a replace.
	Strict bool `yaml:"strict"`
}

type AuthConfig struct {
	Realm     string `yaml:"realm" validate:"required"`
	JWTSecret string `yaml:"jwt_secret" validate:"omitempty,min=16"`
	JWTIssuer string `yaml:"jwt_issuer"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

type HTTPConfig struct {
	CORSOrigins []string `yaml:"cors_origins" validate:"dive,required"`
	MetricsPath string   `yaml:"metrics_path" validate:"omitempty,startswith=/"`
}

var validate = validator.New()

// Load builds a Config from, lowest priority first: defaults, the YAML file
// named by CONFIG_FILE, the given .env files (default ".env") and the process
// environment. Missing files are skipped.
//
//	cfg, err := config.Load()
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	dotenv, err := readEnvFiles(envFiles)
	if err != nil {
		return nil, err
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok && v != ""
	}

	cfg := Defaults()
	if path, ok := lookup("CONFIG_FILE"); ok {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv(lookup)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		App: AppConfig{
			Name:  "go-inject",
			Env:   "local",
			Debug: true,
			Port:  "8000",
		},
		Auth: AuthConfig{Realm: "Users"},
		Log:  LogConfig{Level: "info"},
		HTTP: HTTPConfig{MetricsPath: "/metrics"},
	}
}

// LoadFile overlays the YAML file at path onto c. Keys absent from the file
// keep their current value.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

// Validate checks the struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.App.Env == "production" }

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	str("APP_NAME", &c.App.Name)
	str("APP_ENV", &c.App.Env)
	boolean("APP_DEBUG", &c.App.Debug)
	str("APP_PORT", &c.App.Port)
	boolean("CONTAINER_STRICT", &c.Container.Strict)
	str("AUTH_REALM", &c.Auth.Realm)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("JWT_ISSUER", &c.Auth.JWTIssuer)
	str("LOG_LEVEL", &c.Log.Level)
	str("METRICS_PATH", &c.HTTP.MetricsPath)
	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok {
		c.HTTP.CORSOrigins = splitList(v)
	}
}

func readEnvFiles(files []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, f := range files {
		vals, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", f, err)
		}
		for k, v := range vals {
			if _, seen := out[k]; !seen {
				out[k] = v
			}
		}
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
