package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Engine names accepted in [browser] engine
const (
	EngineChromeDP   = "chromedp"
	EnginePlaywright = "playwright"
)

// Missing post policies accepted in [actions] missing_post_policy
const (
	MissingPostError  = "error"
	MissingPostIgnore = "ignore"
)

// Config represents the application configuration
type Config struct {
	URLs     URLsConfig     `toml:"urls"`
	Fixtures FixturesConfig `toml:"fixtures"`
	Browser  BrowserConfig  `toml:"browser"`
	Timing   TimingConfig   `toml:"timing"`
	Actions  ActionsConfig  `toml:"actions"`
	Logging  LoggingConfig  `toml:"logging"`
}

// URLsConfig holds the pages under test
type URLsConfig struct {
	BlogDashboard string `toml:"blog_dashboard" validate:"required,url"`
	BlogAdmin     string `toml:"blog_admin" validate:"required,url"`
}

// FixturesConfig holds files uploaded by the actions
type FixturesConfig struct {
	ThumbnailImage string `toml:"thumbnail_image" validate:"required"`
}

type BrowserConfig struct {
	Engine       string `toml:"engine" validate:"oneof=chromedp playwright"`
	Headless     bool   `toml:"headless"`
	NoSandbox    bool   `toml:"no_sandbox"`
	WindowWidth  int    `toml:"window_width" validate:"gt=0"`
	WindowHeight int    `toml:"window_height" validate:"gt=0"`
	UserAgent    string `toml:"user_agent"`
	ResultsDir   string `toml:"results_dir" validate:"required"` // Failure screenshots and page dumps
	Debug        bool   `toml:"debug"`                           // Forward driver protocol logs at debug level
}

// TimingConfig - waits are bounded by WaitTimeout; the delays are fallbacks applied
// after a readiness wait and may be set to 0.
type TimingConfig struct {
	WaitTimeout     string `toml:"wait_timeout" validate:"required,duration"`     // e.g., "30s"
	TransitionDelay string `toml:"transition_delay" validate:"required,duration"` // e.g., "500ms", "0s" disables
	ShortDelay      string `toml:"short_delay" validate:"required,duration"`      // e.g., "100ms"
}

// WaitTimeoutDuration returns the parsed wait timeout, falling back to 30s
func (t TimingConfig) WaitTimeoutDuration() time.Duration {
	return parseDurationOr(t.WaitTimeout, 30*time.Second)
}

// TransitionDelayDuration returns the parsed transition delay, falling back to 500ms
func (t TimingConfig) TransitionDelayDuration() time.Duration {
	return parseDurationOr(t.TransitionDelay, 500*time.Millisecond)
}

// ShortDelayDuration returns the parsed short delay, falling back to 100ms
func (t TimingConfig) ShortDelayDuration() time.Duration {
	return parseDurationOr(t.ShortDelay, 100*time.Millisecond)
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

type ActionsConfig struct {
	MissingPostPolicy string `toml:"missing_post_policy" validate:"oneof=error ignore"`
	AuthorBio         string `toml:"author_bio" validate:"required"`
	PostBody          string `toml:"post_body" validate:"required"`
	DuplicatePostBody string `toml:"duplicate_post_body" validate:"required"`
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=trace debug info warn error"`
	Output []string `toml:"output" validate:"dive,oneof=stdout console file"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		URLs: URLsConfig{
			BlogDashboard: "http://localhost:8181/blog-dashboard",
			BlogAdmin:     "http://localhost:8181/blog-admin",
		},
		Fixtures: FixturesConfig{
			ThumbnailImage: "./fixtures/blog-post-thumbnail.svg",
		},
		Browser: BrowserConfig{
			Engine:       EngineChromeDP,
			Headless:     true,
			NoSandbox:    false,
			WindowWidth:  1920,
			WindowHeight: 1080,
			ResultsDir:   "./results",
		},
		Timing: TimingConfig{
			WaitTimeout:     "30s",
			TransitionDelay: "500ms", // Dashboard tile and dialog transitions
			ShortDelay:      "100ms",
		},
		Actions: ActionsConfig{
			MissingPostPolicy: MissingPostError,
			AuthorBio:         "Dummy-User-Bio",
			PostBody:          "test blog post body content",
			DuplicatePostBody: "test blog post body content - duplicate",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
	}
}

// LoadFromFiles loads configuration with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files. CLI flags are applied by the caller with ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies BLOGADMIN_* environment variables to config
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("BLOGADMIN_DASHBOARD_URL"); v != "" {
		config.URLs.BlogDashboard = v
	}
	if v := os.Getenv("BLOGADMIN_ADMIN_URL"); v != "" {
		config.URLs.BlogAdmin = v
	}
	if v := os.Getenv("BLOGADMIN_THUMBNAIL_IMAGE"); v != "" {
		config.Fixtures.ThumbnailImage = v
	}

	// Browser
	if v := os.Getenv("BLOGADMIN_BROWSER_ENGINE"); v != "" {
		config.Browser.Engine = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("BLOGADMIN_BROWSER_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Browser.Headless = b
		}
	}
	if v := os.Getenv("BLOGADMIN_BROWSER_NO_SANDBOX"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Browser.NoSandbox = b
		}
	}
	if v := os.Getenv("BLOGADMIN_RESULTS_DIR"); v != "" {
		config.Browser.ResultsDir = v
	}

	// Timing
	if v := os.Getenv("BLOGADMIN_WAIT_TIMEOUT"); v != "" {
		config.Timing.WaitTimeout = v
	}
	if v := os.Getenv("BLOGADMIN_TRANSITION_DELAY"); v != "" {
		config.Timing.TransitionDelay = v
	}
	if v := os.Getenv("BLOGADMIN_SHORT_DELAY"); v != "" {
		config.Timing.ShortDelay = v
	}

	if v := os.Getenv("BLOGADMIN_MISSING_POST_POLICY"); v != "" {
		config.Actions.MissingPostPolicy = strings.ToLower(strings.TrimSpace(v))
	}

	// Logging
	if v := os.Getenv("BLOGADMIN_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("BLOGADMIN_LOG_OUTPUT"); v != "" {
		outputs := []string{}
		for _, o := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// ApplyFlagOverrides applies command-line flags (highest priority).
// Empty values leave the config untouched.
func ApplyFlagOverrides(config *Config, engine string, headless string) {
	if engine != "" {
		config.Browser.Engine = engine
	}
	if headless != "" {
		if b, err := strconv.ParseBool(headless); err == nil {
			config.Browser.Headless = b
		}
	}
}

// Validate checks the resolved configuration
func (c *Config) Validate() error {
	validate := validator.New()
	_ = validate.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(strings.TrimSpace(fl.Field().String()))
		return err == nil && d >= 0
	})
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
