package scribecli

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// configPathEnv overrides the default config location.
const configPathEnv = "SCRIBECTL_CONFIG"

// Config is the on-disk scribectl state: named bridge deployments and the
// one used when --context is absent.
type Config struct {
	CurrentContext string             `yaml:"currentContext"`
	Contexts       map[string]Context `yaml:"contexts"`
}

// Context holds connection settings for one bridge deployment.
type Context struct {
	Name   string `yaml:"name"`
	Server string `yaml:"server"`
	// Token is sent as a bearer token to routes guarded by API_TOKEN.
	Token string `yaml:"token,omitempty"`
	// SessionID is the default session for ask and question.
	SessionID string `yaml:"sessionId,omitempty"`
}

// LoadConfig reads path. A missing file yields an empty config.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{Contexts: map[string]Context{}}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = map[string]Context{}
	}
	if _, ok := cfg.Contexts[cfg.CurrentContext]; !ok {
		cfg.CurrentContext = ""
	}
	return cfg, nil
}

// SaveConfig writes cfg through a temp file so a failed write keeps the old
// file. The file holds tokens and is created 0600.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".scribectl-*.yaml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func defaultConfigPath() string {
	if path := os.Getenv(configPathEnv); path != "" {
		return path
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "./scribectl.yaml"
	}
	return filepath.Join(dir, "scribectl", "config.yaml")
}

// normalizeServer checks that server is an absolute http(s) URL and strips
// the trailing slash.
func normalizeServer(server string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(server))
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", server, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("server URL %q must be http:// or https://", server)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

func setContext(cfg *Config, ctx Context, makeCurrent bool) error {
	if ctx.Name == "" {
		return errors.New("context name is required")
	}
	server, err := normalizeServer(ctx.Server)
	if err != nil {
		return err
	}
	ctx.Server = server
	if cfg.Contexts == nil {
		cfg.Contexts = map[string]Context{}
	}
	cfg.Contexts[ctx.Name] = ctx
	if cfg.CurrentContext == "" || makeCurrent {
		cfg.CurrentContext = ctx.Name
	}
	return nil
}

func removeContext(cfg *Config, name string) error {
	if err := ensureContextExists(cfg, name); err != nil {
		return err
	}
	delete(cfg.Contexts, name)
	if cfg.CurrentContext == name {
		cfg.CurrentContext = ""
	}
	return nil
}

func ensureContextExists(cfg *Config, name string) error {
	if _, ok := cfg.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	return nil
}

// resolve picks the named (or current) context and applies flag overrides.
// A server override works without any configured context.
func (cfg *Config) resolve(name, server, token string) (*Context, error) {
	if name == "" {
		name = cfg.CurrentContext
	}
	ctx, ok := cfg.Contexts[name]
	if !ok && server == "" {
		return nil, fmt.Errorf("context %q not found; use 'scribectl config set-context'", name)
	}
	if server != "" {
		normalized, err := normalizeServer(server)
		if err != nil {
			return nil, err
		}
		ctx.Server = normalized
	}
	if token != "" {
		ctx.Token = token
	}
	if ctx.Server == "" {
		return nil, fmt.Errorf("context %q is missing a server URL", name)
	}
	return &ctx, nil
}
