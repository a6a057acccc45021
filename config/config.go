package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds all configuration settings for the application.
type Config struct {
	// Server settings
	ListenAddress string
	ListenPort    string
	CORSOrigins   []string
	FrontendURL   string // where the OAuth callback sends the browser back to

	// Storage settings
	MetadataDir   string
	ContentDir    string
	EnableBackup  bool
	Watch         bool
	WatchDebounce time.Duration

	// Authentication settings
	APIToken      string // The shared secret clients present
	APITokenHash  string // Optional bcrypt hash used instead of a plaintext token
	APITokenFile  string
	SessionSecret string // Signs OAuth state values
	StateLifetime time.Duration

	// Twitch / IGDB
	TwitchClientID     string
	TwitchClientSecret string
	TwitchRedirectURL  string
	TwitchAuthURL      string
	TwitchTokenURL     string
	TwitchAPIURL       string
	IGDBBaseURL        string
	IGDBRateLimit      float64
	HTTPClientTimeout  time.Duration

	// Logging
	LogLevel      string
	LogFormat     string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	MetricsEnabled bool

	// TokenSource describes where APIToken came from, for the startup log.
	TokenSource string
	// LoadWarnings collects problems found while loading that did not abort it.
	// They are logged once the logger is configured.
	LoadWarnings []string
}

const (
	envPrefix = "GAMELIB"

	defaultAddress        = "0.0.0.0"
	defaultPort           = "3000"
	defaultMetadataDir    = "./metadata"
	defaultContentDir     = "./content"
	defaultEnableBackup   = false
	defaultWatchDebounce  = 500 * time.Millisecond
	defaultTokenKeyFile   = "./gamelib.key" // Default file if we generate a token
	defaultStateLifetime  = 10 * time.Minute
	defaultTwitchAuthURL  = "https://id.twitch.tv/oauth2/authorize"
	defaultTwitchTokenURL = "https://id.twitch.tv/oauth2/token"
	defaultTwitchAPIURL   = "https://api.twitch.tv/helix"
	defaultIGDBBaseURL    = "https://api.igdb.com/v4"
	defaultIGDBRateLimit  = 4.0
	defaultClientTimeout  = 10 * time.Second
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
	defaultLogMaxSizeMB   = 20
	defaultLogMaxBackups  = 3
	defaultLogMaxAgeDays  = 28
)

// RegisterFlags defines every command-line flag LoadConfig understands.
// Each flag can also be set through GAMELIB_<FLAG_NAME> (dashes become underscores).
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Optional YAML/JSON config file")
	fs.String("address", defaultAddress, "Server listen address")
	fs.String("port", defaultPort, "Server listen port")
	fs.StringSlice("cors-origins", []string{"*"}, "Allowed CORS origins")
	fs.String("frontend-url", "", "Web client URL the OAuth callback redirects to")

	fs.String("metadata-dir", defaultMetadataDir, "Directory holding the metadata JSON files")
	fs.String("content-dir", defaultContentDir, "Directory holding per-entity covers, backgrounds and scripts")
	fs.Bool("enable-backup", defaultEnableBackup, "Keep a .bak copy of a metadata file before overwriting it")
	fs.Bool("watch", false, "Reload the game index when library files change on disk")
	fs.Duration("watch-debounce", defaultWatchDebounce, "Quiet period before a watched change triggers a reload")

	fs.String("api-token", "", "Shared API token")
	fs.String("api-token-hash", "", "bcrypt hash of the API token (used instead of api-token)")
	fs.String("api-token-file", "", "File containing the API token (overrides api-token)")
	fs.String("session-secret", "", "Secret used to sign OAuth state values (generated when empty)")
	fs.Duration("state-lifetime", defaultStateLifetime, "Lifetime of an OAuth state value")

	fs.String("twitch-client-id", "", "Twitch application client id")
	fs.String("twitch-client-secret", "", "Twitch application client secret")
	fs.String("twitch-redirect-url", "", "OAuth redirect URL registered with Twitch")
	fs.String("twitch-auth-url", defaultTwitchAuthURL, "Twitch authorize endpoint")
	fs.String("twitch-token-url", defaultTwitchTokenURL, "Twitch token endpoint")
	fs.String("twitch-api-url", defaultTwitchAPIURL, "Twitch Helix API base URL")
	fs.String("igdb-base-url", defaultIGDBBaseURL, "IGDB API base URL")
	fs.Float64("igdb-rate-limit", defaultIGDBRateLimit, "Maximum IGDB requests per second")
	fs.Duration("http-client-timeout", defaultClientTimeout, "Timeout for outbound HTTP calls")

	fs.String("log-level", defaultLogLevel, "Log level (debug, info, warn, error)")
	fs.String("log-format", defaultLogFormat, "Log format (console, json)")
	fs.String("log-file", "", "Write logs to this rotating file instead of stderr")
	fs.Int("log-max-size", defaultLogMaxSizeMB, "Rotate the log file after this many megabytes")
	fs.Int("log-max-backups", defaultLogMaxBackups, "Rotated log files to keep")
	fs.Int("log-max-age", defaultLogMaxAgeDays, "Days to keep rotated log files")

	fs.Bool("metrics", true, "Expose Prometheus metrics on /metrics")
}

// LoadConfig loads configuration from defaults, an optional config file, a .env
// file, environment variables, and command-line flags. Flags take precedence
// over environment variables, which take precedence over the config file and
// the defaults. fs may be nil, in which case only defaults and the environment apply.
func LoadConfig(fs *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs == nil {
		fs = pflag.NewFlagSet("gamelib", pflag.ContinueOnError)
		RegisterFlags(fs)
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", cfgFile, err)
		}
	}

	cfg := &Config{
		ListenAddress: v.GetString("address"),
		ListenPort:    v.GetString("port"),
		CORSOrigins:   v.GetStringSlice("cors-origins"),
		FrontendURL:   strings.TrimRight(v.GetString("frontend-url"), "/"),

		MetadataDir:   v.GetString("metadata-dir"),
		ContentDir:    v.GetString("content-dir"),
		EnableBackup:  v.GetBool("enable-backup"),
		Watch:         v.GetBool("watch"),
		WatchDebounce: v.GetDuration("watch-debounce"),

		APIToken:      strings.TrimSpace(v.GetString("api-token")),
		APITokenHash:  strings.TrimSpace(v.GetString("api-token-hash")),
		APITokenFile:  v.GetString("api-token-file"),
		SessionSecret: v.GetString("session-secret"),
		StateLifetime: v.GetDuration("state-lifetime"),

		TwitchClientID:     v.GetString("twitch-client-id"),
		TwitchClientSecret: v.GetString("twitch-client-secret"),
		TwitchRedirectURL:  v.GetString("twitch-redirect-url"),
		TwitchAuthURL:      v.GetString("twitch-auth-url"),
		TwitchTokenURL:     v.GetString("twitch-token-url"),
		TwitchAPIURL:       strings.TrimRight(v.GetString("twitch-api-url"), "/"),
		IGDBBaseURL:        strings.TrimRight(v.GetString("igdb-base-url"), "/"),
		IGDBRateLimit:      v.GetFloat64("igdb-rate-limit"),
		HTTPClientTimeout:  v.GetDuration("http-client-timeout"),

		LogLevel:      strings.ToLower(v.GetString("log-level")),
		LogFormat:     strings.ToLower(v.GetString("log-format")),
		LogFile:       v.GetString("log-file"),
		LogMaxSizeMB:  v.GetInt("log-max-size"),
		LogMaxBackups: v.GetInt("log-max-backups"),
		LogMaxAgeDays: v.GetInt("log-max-age"),

		MetricsEnabled: v.GetBool("metrics"),
	}

	if cfg.WatchDebounce <= 0 {
		cfg.warn("Invalid watch-debounce %s. Using default %s.", cfg.WatchDebounce, defaultWatchDebounce)
		cfg.WatchDebounce = defaultWatchDebounce
	}
	if cfg.StateLifetime <= 0 {
		cfg.StateLifetime = defaultStateLifetime
	}
	if cfg.IGDBRateLimit <= 0 {
		cfg.warn("Invalid igdb-rate-limit %v. Using default %v.", cfg.IGDBRateLimit, defaultIGDBRateLimit)
		cfg.IGDBRateLimit = defaultIGDBRateLimit
	}
	if cfg.HTTPClientTimeout <= 0 {
		cfg.HTTPClientTimeout = defaultClientTimeout
	}

	if err := resolveAPIToken(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.SessionSecret) == "" {
		secret, err := generateRandomKey(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		cfg.SessionSecret = secret
	}

	// --- Directory Validation ---
	var err error
	if cfg.MetadataDir, err = resolveDir("metadata-dir", cfg.MetadataDir); err != nil {
		return nil, err
	}
	if cfg.ContentDir, err = resolveDir("content-dir", cfg.ContentDir); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveAPIToken fills cfg.APIToken.
// Priority: File > Flag/Env > Hash only > Default Key File > Generate.
func resolveAPIToken(cfg *Config) error {
	// 1. Explicit token file
	if cfg.APITokenFile != "" {
		tokenBytes, err := os.ReadFile(cfg.APITokenFile)
		switch {
		case err != nil:
			cfg.warn("Failed to read API token file '%s': %v. Checking other sources.", cfg.APITokenFile, err)
		case strings.TrimSpace(string(tokenBytes)) == "":
			cfg.warn("API token file '%s' is empty or contains only whitespace. Ignoring.", cfg.APITokenFile)
		default:
			cfg.APIToken = strings.TrimSpace(string(tokenBytes))
			cfg.TokenSource = fmt.Sprintf("File (%s)", cfg.APITokenFile)
			return nil
		}
	}

	// 2. Flag or GAMELIB_API_TOKEN
	if cfg.APIToken != "" {
		cfg.TokenSource = "Flag or Environment (GAMELIB_API_TOKEN)"
		return nil
	}

	// 3. A bcrypt hash alone is enough; there is no plaintext to generate.
	if cfg.APITokenHash != "" {
		cfg.TokenSource = "bcrypt hash (GAMELIB_API_TOKEN_HASH)"
		return nil
	}

	// 4. Default key file
	tokenBytes, err := os.ReadFile(defaultTokenKeyFile)
	if err == nil {
		if token := strings.TrimSpace(string(tokenBytes)); token != "" {
			cfg.APIToken = token
			cfg.TokenSource = fmt.Sprintf("Default Key File (%s)", defaultTokenKeyFile)
			return nil
		}
		cfg.warn("Default API token file '%s' is empty. Generating a new token.", defaultTokenKeyFile)
	} else if !errors.Is(err, os.ErrNotExist) {
		cfg.warn("Failed to read default API token file '%s': %v. Generating a new token.", defaultTokenKeyFile, err)
	}

	// 5. Generate and save
	token, err := generateRandomKey(32)
	if err != nil {
		return fmt.Errorf("failed to generate API token: %w", err)
	}
	cfg.APIToken = token
	if err := os.WriteFile(defaultTokenKeyFile, []byte(token), 0o600); err != nil {
		cfg.warn("Failed to save generated API token to '%s': %v. The token is valid for this session only.", defaultTokenKeyFile, err)
		cfg.TokenSource = "Generated (In Memory)"
		return nil
	}
	cfg.TokenSource = fmt.Sprintf("Generated & Saved (%s)", defaultTokenKeyFile)
	return nil
}

func resolveDir(name, dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("could not determine absolute path for %s '%s': %w", name, dir, err)
	}
	info, err := os.Stat(abs)
	if err == nil && !info.IsDir() {
		return "", fmt.Errorf("%s '%s' points to a file, not a directory", name, abs)
	}
	// A missing directory is fine: reads fail open and writes create it.
	return abs, nil
}

func (cfg *Config) warn(format string, args ...any) {
	cfg.LoadWarnings = append(cfg.LoadWarnings, fmt.Sprintf(format, args...))
}

// TwitchEnabled reports whether the Twitch OAuth handshake is configured.
func (cfg *Config) TwitchEnabled() bool {
	return cfg.TwitchClientID != "" && cfg.TwitchClientSecret != "" && cfg.TwitchRedirectURL != ""
}

// IGDBEnabled reports whether the IGDB proxy has credentials.
func (cfg *Config) IGDBEnabled() bool {
	return cfg.TwitchClientID != "" && cfg.TwitchClientSecret != ""
}

// LogConfiguration prints the loaded configuration settings and any load warnings.
func LogConfiguration(cfg *Config) {
	log := zap.S()
	for _, w := range cfg.LoadWarnings {
		log.Warn(w)
	}
	log.Infow("Configuration loaded",
		"address", cfg.ListenAddress,
		"port", cfg.ListenPort,
		"metadata_dir", cfg.MetadataDir,
		"content_dir", cfg.ContentDir,
		"backup", cfg.EnableBackup,
		"watch", cfg.Watch,
		"token_source", cfg.TokenSource,
		"twitch", cfg.TwitchEnabled(),
		"igdb", cfg.IGDBEnabled(),
		"metrics", cfg.MetricsEnabled,
		"log_level", cfg.LogLevel,
	)
}

// generateRandomKey generates a cryptographically secure random key of the specified byte length
// and returns it as a hex-encoded string.
func generateRandomKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
