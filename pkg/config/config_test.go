package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_PORT", "9090")
	p := writeConfig(t, "name: vault\nport: ${SAMPLE_PORT}\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "vault" || s.Port != 9090 {
		t.Errorf("loaded = %+v", s)
	}
}

func TestLoad_KeepsDefaults(t *testing.T) {
	p := writeConfig(t, "port: 1\n")
	s := sample{Name: "default"}
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "default" {
		t.Errorf("name = %q, want default preserved", s.Name)
	}
}

func TestLoad_ValidationFails(t *testing.T) {
	p := writeConfig(t, "port: 0\n")
	var s sample
	if err := Load(p, &s); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	fallback := writeConfig(t, "port: 7\n")
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	var s sample
	if err := LoadWithDefaults(missing, fallback, &s); err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if s.Port != 7 {
		t.Errorf("port = %d, want 7 from fallback", s.Port)
	}

	err := LoadWithDefaults(missing, "", &s)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMustLoad_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	var s sample
	MustLoad(filepath.Join(t.TempDir(), "nope.yaml"), &s)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	p := writeConfig(t, "port: 1\nprot: 2\n")
	var s sample
	if err := Load(p, &s); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestDecode_EmptyDocument(t *testing.T) {
	s := sample{Name: "kept", Port: 3}
	if err := Decode([]byte(""), &s); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if s.Name != "kept" || s.Port != 3 {
		t.Errorf("decoded = %+v", s)
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("SAMPLE_SET", "on")
	t.Setenv("SAMPLE_EMPTY", "")

	tests := []struct {
		in, want string
	}{
		{"${SAMPLE_SET}", "on"},
		{"$SAMPLE_SET", "on"},
		{"${SAMPLE_SET:-off}", "on"},
		{"${SAMPLE_EMPTY:-off}", "off"},
		{"${SAMPLE_UNSET_XYZ:-8080}", "8080"},
		{"${SAMPLE_UNSET_XYZ}", ""},
		{"a-${SAMPLE_SET}-b", "a-on-b"},
	}
	for _, tt := range tests {
		if got := ExpandEnv(tt.in); got != tt.want {
			t.Errorf("ExpandEnv(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
