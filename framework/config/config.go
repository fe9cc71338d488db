package config

import (
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Init parameter keys recognised by the bootstrap loader.
const (
	ContainerClassParam           = "container-class"
	ConfigLocationsParam          = "config-locations"
	ContainerIDParam              = "container-id"
	ContainerNamespaceParam       = "container-namespace"
	InitializerClassesParam       = "initializer-classes"
	GlobalInitializerClassesParam = "global-initializer-classes"
)

// ParamEnvPrefix marks environment variables that become init parameters:
// BOOTSTRAP_CONFIG_LOCATIONS → config-locations.
const ParamEnvPrefix = "BOOTSTRAP_"

// Params holds the hosting environment's init parameters.
type Params map[string]string

// Get returns the parameter and whether it was set.
func (p Params) Get(key string) (string, bool) {
	v, ok := p[key]
	return v, ok
}

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Server holds the hosting server's own settings.
type Server struct {
	Name        string
	Env         string // local | production | testing
	Addr        string
	ContextPath string
	Scope       string // explicit scope key, empty → generated
	Root        string // document root for host-relative config locations
	LogLevel    string
}

// Config is what a hosting server is started from.
type Config struct {
	Server Server
	Params Params
}

// Load reads the .env files (if present) and builds a Config from the
// process environment. Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	return &Config{
		Server: Server{
			Name:        env("APP_NAME", "go-bootstrap"),
			Env:         env("APP_ENV", "local"),
			Addr:        env("APP_ADDR", ":8000"),
			ContextPath: env("APP_CONTEXT_PATH", ""),
			Scope:       env("APP_SCOPE", ""),
			Root:        env("APP_ROOT", "."),
			LogLevel:    env("LOG_LEVEL", "info"),
		},
		Params: ParamsFromEnviron(os.Environ()),
	}
}

// ReadParams parses .env-style files without touching the process
// environment and returns the BOOTSTRAP_ entries as init parameters.
func ReadParams(files ...string) (Params, error) {
	vars, err := godotenv.Read(files...)
	if err != nil {
		return nil, err
	}
	environ := make([]string, 0, len(vars))
	for k, v := range vars {
		environ = append(environ, k+"="+v)
	}
	return ParamsFromEnviron(environ), nil
}

// ParamsFromEnviron converts KEY=value pairs into init parameters, keeping
// only keys with ParamEnvPrefix.
func ParamsFromEnviron(environ []string) Params {
	p := make(Params)
	for _, kv := range environ {
		key, val, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, ParamEnvPrefix) {
			continue
		}
		p[ParamName(strings.TrimPrefix(key, ParamEnvPrefix))] = val
	}
	return p
}

// ParamName maps CONFIG_LOCATIONS to config-locations.
func ParamName(envKey string) string {
	return strings.ReplaceAll(strings.ToLower(envKey), "_", "-")
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
	return envBool(key, defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
