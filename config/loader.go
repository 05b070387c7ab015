package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/rxhttp/errors"
)

// FileSystem interface for file operations (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Resolver handles finding config and env files.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles contains the resolved config and env file paths.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns explicit paths if provided, otherwise searches for them.
func (cr *Resolver) ResolveFiles(serviceName string, opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{
		ConfigFile: opts.ConfigFile,
		EnvFile:    opts.EnvFile,
	}
	if resolved.ConfigFile == "" {
		resolved.ConfigFile = cr.findConfigFile(serviceName)
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = cr.findEnvFile(serviceName)
	}
	return resolved
}

// findConfigFile searches for config.yml in standard locations.
func (cr *Resolver) findConfigFile(serviceName string) string {
	searchPaths := []string{
		fmt.Sprintf("./cmd/%s/config.yml", serviceName),
		fmt.Sprintf("../cmd/%s/config.yml", serviceName),
		fmt.Sprintf("../../cmd/%s/config.yml", serviceName),
		fmt.Sprintf("./config/%s.yml", serviceName),
		"./config/config.yml",
		"./config.yml",
	}
	if home, err := os.UserConfigDir(); err == nil {
		searchPaths = append(searchPaths, fmt.Sprintf("%s/%s/config.yml", home, serviceName))
	}

	for _, path := range searchPaths {
		if cr.FileSystem.Exists(path) {
			return path
		}
	}
	return ""
}

// findEnvFile searches for .env.<service> then .env.
func (cr *Resolver) findEnvFile(serviceName string) string {
	envFiles := []string{fmt.Sprintf(".env.%s", serviceName), ".env"}
	dirs := []string{
		fmt.Sprintf("./cmd/%s", serviceName),
		"./config",
		".",
		"..",
	}
	for _, envFile := range envFiles {
		for _, dir := range dirs {
			fullPath := dir + "/" + envFile
			if cr.FileSystem.Exists(fullPath) {
				return fullPath
			}
		}
	}
	return ""
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // explicit config file; must exist when set
	EnvFile    string // explicit .env file; must exist when set
	EnvPrefix  string // only env vars with this prefix are bound
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvPrefix restricts env binding to PREFIX_* variables, with the
// prefix stripped before mapping to keys.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = strings.TrimSuffix(strings.ToUpper(prefix), "_") }
}

type defaulter interface{ ApplyDefaults() }

type validator interface{ Validate() error }

// LoadConfig loads configuration for a service into cfg. It reads config.yml,
// then the process environment and .env file, unmarshals into cfg and finally
// runs cfg's ApplyDefaults and Validate methods when present.
func LoadConfig(serviceName string, cfg any, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}

	for _, explicit := range []string{lc.ConfigFile, lc.EnvFile} {
		if explicit != "" && !lc.FileSystem.Exists(explicit) {
			return errors.ConfigLoad(explicit, os.ErrNotExist)
		}
	}

	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(serviceName, lc)

	if err := loadFromResolvedFiles(serviceName, cfg, files, lc); err != nil {
		return err
	}

	if d, ok := cfg.(defaulter); ok {
		d.ApplyDefaults()
	}
	if v, ok := cfg.(validator); ok {
		if err := v.Validate(); err != nil {
			return errors.InvalidConfig(err)
		}
	}
	return nil
}

func loadFromResolvedFiles(serviceName string, cfg any, files ResolvedFiles, lc LoaderConfig) error {
	v := viper.New()

	if files.ConfigFile != "" {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.ConfigLoad(files.ConfigFile, err)
		}
	}

	if files.EnvFile != "" {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			return errors.ConfigLoad(files.EnvFile, err)
		}
	}
	autoBindEnvVars(v, lc.EnvPrefix)

	if err := v.Unmarshal(cfg); err != nil {
		return errors.ConfigLoad(serviceName, fmt.Errorf("unmarshal: %w", err))
	}
	return nil
}

// autoBindEnvVars sets every matching environment variable on v under each
// nested key spelling it could stand for.
func autoBindEnvVars(v *viper.Viper, prefix string) {
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		if prefix != "" {
			rest, found := strings.CutPrefix(key, prefix+"_")
			if !found || rest == "" {
				continue
			}
			key = rest
		}
		for _, variant := range generateEnvKeyVariants(key) {
			v.Set(variant, value)
		}
	}
}

// generateEnvKeyVariants creates all possible key variants for an env var.
//
//	SESSION_BASE_URL -> [session_base_url, session.base.url, session.base_url, session_base.url]
func generateEnvKeyVariants(envKey string) []string {
	lowerKey := strings.ToLower(envKey)
	parts := strings.Split(lowerKey, "_")
	if len(parts) <= 1 {
		return []string{lowerKey}
	}

	variants := []string{
		lowerKey,
		strings.ReplaceAll(lowerKey, "_", "."),
	}
	for i := 1; i < len(parts); i++ {
		prefix := strings.Join(parts[:i], ".")
		suffix := strings.Join(parts[i:], "_")
		variants = append(variants, prefix+"."+suffix)
	}
	for i := 1; i < len(parts); i++ {
		prefix := strings.Join(parts[:i], "_")
		suffix := strings.Join(parts[i:], ".")
		variants = append(variants, prefix+"."+suffix)
	}
	return removeDuplicates(variants)
}

func removeDuplicates(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}
