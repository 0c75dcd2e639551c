package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/todoseq/internal/keywords"
	"github.com/starford/todoseq/internal/parser"
	"github.com/starford/todoseq/internal/urgency"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Vault  VaultConfig       `yaml:"vault"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
	Tasks  TasksConfig       `yaml:"tasks"`
	Index  IndexConfig       `yaml:"index"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Tasks.Validate(); err != nil {
		return err
	}
	if err := c.Index.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path       string           `yaml:"path"`
	DailyNotes DailyNotesConfig `yaml:"daily_notes"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.DailyNotes),
	)
}

// DailyNotesConfig says where daily notes live and how they are named.
// Format is a Go time layout matched against the file name without extension.
type DailyNotesConfig struct {
	Folder string `yaml:"folder"`
	Format string `yaml:"format"`
}

// Validate validates the daily notes configuration.
func (c DailyNotesConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Format, validation.Required, validation.By(timeLayout)),
	)
}

// timeLayout rejects strings that contain no time layout element.
func timeLayout(v any) error {
	s, _ := v.(string)
	ref := time.Date(2001, 2, 3, 4, 5, 6, 0, time.UTC)
	if ref.Format(s) == s {
		return errors.New("must be a Go time layout such as 2006-01-02")
	}
	return nil
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// IndexConfig tunes vault indexing.
type IndexConfig struct {
	// Workers bounds concurrent parsing during sync; 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Workers, validation.Min(0), validation.Max(256)),
	)
}

// TasksConfig holds the task parser options.
type TasksConfig struct {
	IncludeCalloutBlocks   bool           `yaml:"include_callout_blocks"`
	IncludeCodeBlocks      bool           `yaml:"include_code_blocks"`
	IncludeCommentBlocks   bool           `yaml:"include_comment_blocks"`
	LanguageCommentSupport ToggleConfig   `yaml:"language_comment_support"`
	Keywords               KeywordsConfig `yaml:"keywords"`
	DateLookahead          int            `yaml:"date_lookahead"`
	Timezone               string         `yaml:"timezone"`
	Urgency                UrgencyConfig  `yaml:"urgency"`
}

// ToggleConfig is a nested on/off switch.
type ToggleConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Validate validates the tasks configuration.
func (c *TasksConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Keywords),
		validation.Field(&c.DateLookahead, validation.Min(0), validation.Max(1000)),
		validation.Field(&c.Timezone, validation.By(timezone)),
		validation.Field(&c.Urgency),
	)
}

// Settings returns the parser settings described by c.
func (c *TasksConfig) Settings() parser.Settings {
	return parser.Settings{
		IncludeCalloutBlocks:   c.IncludeCalloutBlocks,
		IncludeCodeBlocks:      c.IncludeCodeBlocks,
		IncludeCommentBlocks:   c.IncludeCommentBlocks,
		LanguageCommentSupport: c.LanguageCommentSupport.Enabled,
		DateLookahead:          c.DateLookahead,
	}
}

// Location returns the configured time zone, UTC when unset.
func (c *TasksConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func timezone(v any) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	if _, err := time.LoadLocation(s); err != nil {
		return fmt.Errorf("unknown time zone %q", s)
	}
	return nil
}

// KeywordsConfig holds the user keyword groups.
type KeywordsConfig struct {
	Active    []string `yaml:"active"`
	Completed []string `yaml:"completed"`
}

// Validate validates the keyword groups with the same rules the parser applies.
func (c KeywordsConfig) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.Active, validation.By(keywordList)),
		validation.Field(&c.Completed, validation.By(keywordList)),
	); err != nil {
		return err
	}
	if len(c.Active)+len(c.Completed) == 0 {
		return errors.New("keywords: at least one keyword is required")
	}
	return nil
}

// Set builds the keyword set.
func (c KeywordsConfig) Set() (*keywords.Set, error) {
	return keywords.New(c.Active, c.Completed)
}

func keywordList(v any) error {
	ks, _ := v.([]string)
	return keywords.Validate(ks)
}

// UrgencyConfig holds urgency scoring weights. With no coefficients tasks are
// not scored.
type UrgencyConfig struct {
	Coefficients map[string]float64 `yaml:"coefficients"`
}

// Validate validates the urgency configuration.
func (c UrgencyConfig) Validate() error {
	for name := range c.Coefficients {
		if !slices.Contains(urgency.Features, name) {
			return fmt.Errorf("urgency: unknown coefficient %q", name)
		}
	}
	return nil
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	def := parser.DefaultSettings()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path: "./vault",
			DailyNotes: DailyNotesConfig{
				Format: "2006-01-02",
			},
		},
		SQLite: SQLiteConfig{
			Path: "./todoseq.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Tasks: TasksConfig{
			IncludeCalloutBlocks:   def.IncludeCalloutBlocks,
			IncludeCodeBlocks:      def.IncludeCodeBlocks,
			IncludeCommentBlocks:   def.IncludeCommentBlocks,
			LanguageCommentSupport: ToggleConfig{Enabled: def.LanguageCommentSupport},
			Keywords: KeywordsConfig{
				Active:    slices.Clone(keywords.DefaultActive),
				Completed: slices.Clone(keywords.DefaultCompleted),
			},
			DateLookahead: def.DateLookahead,
		},
	}
}
