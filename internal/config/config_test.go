package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("TWILIO_AUTH_TOKEN", "")
	path := writeConfig(t, `
public_host: receptionist.example.com
openai:
  api_key: sk-test
twilio:
  account_sid: AC123
  auth_token: tok
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want default :8080", cfg.ListenAddr)
	}
	if cfg.OpenAI.Model != "gpt-4o-realtime-preview-2024-10-01" {
		t.Errorf("Model = %q, want default realtime model", cfg.OpenAI.Model)
	}
	if cfg.OpenAI.Voice != "alloy" {
		t.Errorf("Voice = %q, want alloy", cfg.OpenAI.Voice)
	}
	if got := cfg.SettleDelay().Milliseconds(); got != 500 {
		t.Errorf("SettleDelay = %dms, want 500", got)
	}
	if got := cfg.IdleTimeout().Milliseconds(); got != 7000 {
		t.Errorf("IdleTimeout = %dms, want 7000", got)
	}
	if got := cfg.StreamURL(); got != "wss://receptionist.example.com/media-stream" {
		t.Errorf("StreamURL = %q", got)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok-from-env")
	path := writeConfig(t, `
openai:
  api_key: sk-from-file
twilio:
  auth_token: tok-from-file
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-from-env" {
		t.Errorf("APIKey = %q, want env value", cfg.OpenAI.APIKey)
	}
	if cfg.Twilio.AuthToken != "tok-from-env" {
		t.Errorf("AuthToken = %q, want env value", cfg.Twilio.AuthToken)
	}
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	path := writeConfig(t, `listen_addr: ":9000"`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load succeeded without an API key")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load succeeded on a missing file")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "listen_addr: [unterminated")
	if _, err := Load(path); err == nil {
		t.Fatal("Load succeeded on malformed yaml")
	}
}
