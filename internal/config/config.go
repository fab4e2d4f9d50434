package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	AppPort     string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWTSecret is optional; identity tokens are disabled without it.
	JWTSecret string

	AllowedOrigin string
	PublicURL     string

	LogLevel string
	LogJSON  bool

	SessionIdleTimeout time.Duration
	SessionGracePeriod time.Duration
	HeartbeatInterval  time.Duration
	ConfigCacheTTL     time.Duration

	CreateRateLimit  int
	CreateRateWindow time.Duration
}

type option struct {
	name  string
	def   any
	usage string
}

// options doubles as the flag set and the viper defaults. Each flag maps to
// the upper-cased env var with dashes replaced, e.g. app-port -> APP_PORT.
var options = []option{
	{"app-port", "8080", "port to listen on"},
	{"database-url", "", "postgres connection string"},
	{"redis-addr", "", "redis host:port, empty disables caching and rate limiting"},
	{"redis-password", "", "redis password"},
	{"redis-db", 0, "redis database index"},
	{"jwt-secret", "", "HMAC secret for identity tokens, empty disables them"},
	{"allowed-origin", "", "websocket origin to accept, empty accepts any"},
	{"public-url", "", "base URL used in join links"},
	{"log-level", "info", "debug, info, warn or error"},
	{"log-json", false, "log as JSON"},
	{"session-idle-timeout", 60 * time.Minute, "time before an idle game is reclaimed"},
	{"session-grace-period", 2 * time.Minute, "time a finished or abandoned game is kept"},
	{"heartbeat-interval", 30 * time.Second, "websocket ping interval"},
	{"config-cache-ttl", 5 * time.Minute, "how long word bank configs stay in redis"},
	{"create-rate-limit", 10, "games one client may create per window"},
	{"create-rate-window", time.Minute, "rate limit window for game creation"},
}

func envName(flag string) string {
	return strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// NewViper returns a viper instance reading the process environment.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, o := range options {
		v.SetDefault(o.name, o.def)
	}
	return v
}

// RegisterFlags adds every option to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	for _, o := range options {
		usage := fmt.Sprintf("%s (env: %s)", o.usage, envName(o.name))
		switch d := o.def.(type) {
		case string:
			fs.String(o.name, d, usage)
		case int:
			fs.Int(o.name, d, usage)
		case bool:
			fs.Bool(o.name, d, usage)
		case time.Duration:
			fs.Duration(o.name, d, usage)
		}
	}
}

// BindFlags lets explicitly set flags win over the environment, and the
// environment win over flag defaults.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

// Load reads .env if present and builds the config from v.
func Load(v *viper.Viper) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppPort:            v.GetString("app-port"),
		DatabaseURL:        v.GetString("database-url"),
		RedisAddr:          v.GetString("redis-addr"),
		RedisPassword:      v.GetString("redis-password"),
		RedisDB:            v.GetInt("redis-db"),
		JWTSecret:          v.GetString("jwt-secret"),
		AllowedOrigin:      v.GetString("allowed-origin"),
		PublicURL:          strings.TrimRight(v.GetString("public-url"), "/"),
		LogLevel:           strings.ToLower(v.GetString("log-level")),
		LogJSON:            v.GetBool("log-json"),
		SessionIdleTimeout: v.GetDuration("session-idle-timeout"),
		SessionGracePeriod: v.GetDuration("session-grace-period"),
		HeartbeatInterval:  v.GetDuration("heartbeat-interval"),
		ConfigCacheTTL:     v.GetDuration("config-cache-ttl"),
		CreateRateLimit:    v.GetInt("create-rate-limit"),
		CreateRateWindow:   v.GetDuration("create-rate-window"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	if port, err := strconv.Atoi(c.AppPort); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %s", c.AppPort)
	}
	if c.SessionIdleTimeout <= 0 || c.SessionGracePeriod <= 0 || c.HeartbeatInterval <= 0 {
		return errors.New("session timeouts and heartbeat interval must be positive")
	}
	if c.SessionGracePeriod > c.SessionIdleTimeout {
		return fmt.Errorf("grace period %s is longer than idle timeout %s", c.SessionGracePeriod, c.SessionIdleTimeout)
	}
	if c.CreateRateLimit < 1 || c.CreateRateWindow <= 0 {
		return errors.New("create rate limit and window must be positive")
	}
	return nil
}
