package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("AI_PROVIDER", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("OPENAPI_SPEC_PATH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
	if cfg.AI.Provider != ProviderOllama {
		t.Fatalf("unexpected provider: %s", cfg.AI.Provider)
	}
	if cfg.AI.OllamaModel != "llama3.2" {
		t.Fatalf("unexpected model: %s", cfg.AI.OllamaModel)
	}
	if !cfg.AI.Enabled() {
		t.Fatal("expected ollama provider enabled by default")
	}
	if cfg.Tools.Enabled() {
		t.Fatal("expected tools disabled without OPENAPI_SPEC_PATH")
	}
	if len(cfg.HTTP.AllowedOrigins) != 1 || cfg.HTTP.AllowedOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected origins: %v", cfg.HTTP.AllowedOrigins)
	}
}

func TestLoadPortForms(t *testing.T) {
	t.Setenv("PORT", "9090")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}

	t.Setenv("PORT", "127.0.0.1:9191")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9191" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("PORT", "not a port")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid PORT")
	}
}

func TestLoadInvalidProvider(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("AI_PROVIDER", "watson")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestArkProviderRequiresCredentials(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("AI_PROVIDER", "ark")
	t.Setenv("ARK_API_KEY", "")
	t.Setenv("ARK_ACCESS_KEY", "")
	t.Setenv("ARK_SECRET_KEY", "")
	t.Setenv("MODEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.AI.Enabled() {
		t.Fatal("expected ark provider disabled without credentials")
	}

	t.Setenv("ARK_API_KEY", "key")
	t.Setenv("MODEL", "some-model")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if !cfg.AI.Enabled() {
		t.Fatal("expected ark provider enabled with API key and model")
	}
}

func TestLoadStreamToggle(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("AI_PROVIDER", "")
	t.Setenv("AI_STREAM", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if !cfg.AI.StreamResponse {
		t.Fatal("expected streaming enabled by default")
	}

	t.Setenv("AI_STREAM", "false")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.AI.StreamResponse {
		t.Fatal("expected AI_STREAM=false to disable streaming")
	}

	t.Setenv("AI_STREAM", "maybe")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid AI_STREAM")
	}
}

func TestLoadCORSOrigins(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("AI_PROVIDER", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if len(cfg.HTTP.AllowedOrigins) != 2 {
		t.Fatalf("unexpected origins: %v", cfg.HTTP.AllowedOrigins)
	}
	if cfg.HTTP.AllowedOrigins[1] != "http://b.example" {
		t.Fatalf("expected trimmed origin, got %q", cfg.HTTP.AllowedOrigins[1])
	}
}

func TestLoadToolsConfig(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("AI_PROVIDER", "")
	t.Setenv("OPENAPI_SPEC_PATH", "/etc/orion/openapi.yaml")
	t.Setenv("API_BASE_URL", "http://upstream:9000")
	t.Setenv("API_TOKEN", "tok")
	t.Setenv("TOOL_TIMEOUT", "12")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if !cfg.Tools.Enabled() {
		t.Fatal("expected tools enabled")
	}
	if cfg.Tools.BaseURL != "http://upstream:9000" {
		t.Fatalf("unexpected base URL: %s", cfg.Tools.BaseURL)
	}
	if cfg.Tools.Timeout != 12*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.Tools.Timeout)
	}
}
