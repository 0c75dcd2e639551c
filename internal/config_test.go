package internal

import (
	"strings"
	"testing"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	s := cfg.Tasks.Settings()
	if !s.IncludeCalloutBlocks || !s.LanguageCommentSupport || s.IncludeCodeBlocks || s.DateLookahead != 8 {
		t.Errorf("default settings = %+v", s)
	}
	ks, err := cfg.Tasks.Keywords.Set()
	if err != nil {
		t.Fatalf("default keywords: %v", err)
	}
	if !ks.Contains("TODO") || !ks.IsCompleted("DONE") {
		t.Error("default keyword groups missing")
	}
}

func TestTasksConfig_InvalidKeyword(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Tasks.Keywords.Active = append(cfg.Tasks.Keywords.Active, "(a+)+")
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid keyword should fail validation")
	}
	if !strings.Contains(err.Error(), "a+") {
		t.Errorf("error should name the keyword: %v", err)
	}
}

func TestTasksConfig_NoKeywords(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Tasks.Keywords = KeywordsConfig{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty keyword groups should fail validation")
	}
}

func TestTasksConfig_Fields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"negative lookahead", func(c *Config) { c.Tasks.DateLookahead = -1 }, true},
		{"zero lookahead", func(c *Config) { c.Tasks.DateLookahead = 0 }, false},
		{"unknown timezone", func(c *Config) { c.Tasks.Timezone = "Mars/Olympus" }, true},
		{"known timezone", func(c *Config) { c.Tasks.Timezone = "UTC" }, false},
		{"unknown coefficient", func(c *Config) { c.Tasks.Urgency.Coefficients = map[string]float64{"vibes": 1} }, true},
		{"known coefficient", func(c *Config) { c.Tasks.Urgency.Coefficients = map[string]float64{"priority.high": 6} }, false},
		{"daily format without layout", func(c *Config) { c.Vault.DailyNotes.Format = "daily" }, true},
		{"negative workers", func(c *Config) { c.Index.Workers = -2 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
