package profile

import (
	"path/filepath"
	"testing"
)

func clearBackendEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range []string{"REPAIRDESK_BACKEND_URL", "NEXT_PUBLIC_API_URL", "REPAIRDESK_DEV", "NODE_ENV"} {
		t.Setenv(key, "")
	}
}

// TestResolveBackendURL 测试后端地址选择
func TestResolveBackendURL(t *testing.T) {
	tests := []struct {
		name     string
		profile  Profile
		expected string
	}{
		{"dev selects local backend", Profile{Mode: "dev"}, LocalBackendURL},
		{"prod selects production backend", Profile{Mode: "prod"}, ProductionBackendURL},
		{"demo selects production backend", Profile{Mode: "demo"}, ProductionBackendURL},
		{"override wins in dev", Profile{Mode: "dev", BackendURL: "https://staging.example.com/"}, "https://staging.example.com"},
		{"override wins in prod", Profile{Mode: "prod", BackendURL: "http://10.0.0.2:9000"}, "http://10.0.0.2:9000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.profile.ResolveBackendURL(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Run("legacy backend variable", func(t *testing.T) {
		clearBackendEnvVars(t)
		t.Setenv("NEXT_PUBLIC_API_URL", "https://legacy.example.com")

		p := &Profile{}
		p.FromEnv()
		if p.BackendURL != "https://legacy.example.com" {
			t.Errorf("expected legacy backend url, got %q", p.BackendURL)
		}
	})

	t.Run("new variable takes precedence", func(t *testing.T) {
		clearBackendEnvVars(t)
		t.Setenv("NEXT_PUBLIC_API_URL", "https://legacy.example.com")
		t.Setenv("REPAIRDESK_BACKEND_URL", "https://new.example.com")

		p := &Profile{}
		p.FromEnv()
		if p.BackendURL != "https://new.example.com" {
			t.Errorf("expected new backend url, got %q", p.BackendURL)
		}
	})

	t.Run("flag value is not overwritten", func(t *testing.T) {
		clearBackendEnvVars(t)
		t.Setenv("REPAIRDESK_BACKEND_URL", "https://env.example.com")

		p := &Profile{BackendURL: "https://flag.example.com"}
		p.FromEnv()
		if p.BackendURL != "https://flag.example.com" {
			t.Errorf("expected flag backend url, got %q", p.BackendURL)
		}
	})

	t.Run("development indicator selects dev mode", func(t *testing.T) {
		clearBackendEnvVars(t)
		t.Setenv("NODE_ENV", "development")

		p := &Profile{}
		p.FromEnv()
		if !p.IsDev() {
			t.Errorf("expected dev mode, got %q", p.Mode)
		}
	})

	t.Run("rate limit defaults", func(t *testing.T) {
		clearBackendEnvVars(t)

		p := &Profile{}
		p.FromEnv()
		if p.RateLimitPerSecond != 10 || p.RateLimitBurst != 20 {
			t.Errorf("unexpected rate limit defaults: %v/%d", p.RateLimitPerSecond, p.RateLimitBurst)
		}
	})
}

func TestValidate(t *testing.T) {
	t.Run("unknown mode falls back to demo", func(t *testing.T) {
		p := &Profile{Mode: "staging", Driver: "memory"}
		if err := p.Validate(); err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if p.Mode != "demo" {
			t.Errorf("expected demo mode, got %q", p.Mode)
		}
	})

	t.Run("bolt derives dsn from data dir", func(t *testing.T) {
		dir := t.TempDir()
		p := &Profile{Mode: "dev", Driver: "bolt", Data: dir}
		if err := p.Validate(); err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if p.DSN != filepath.Join(dir, "repairdesk_dev.bolt") {
			t.Errorf("unexpected dsn %q", p.DSN)
		}
	})

	t.Run("sqlite derives dsn from data dir", func(t *testing.T) {
		dir := t.TempDir()
		p := &Profile{Mode: "prod", Driver: "sqlite", Data: dir}
		if err := p.Validate(); err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if p.DSN != filepath.Join(dir, "repairdesk_prod.db") {
			t.Errorf("unexpected dsn %q", p.DSN)
		}
	})

	t.Run("redis default address", func(t *testing.T) {
		p := &Profile{Mode: "prod", Driver: "redis"}
		if err := p.Validate(); err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if p.DSN != "localhost:6379" {
			t.Errorf("unexpected dsn %q", p.DSN)
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		p := &Profile{Mode: "prod", Driver: "mysql"}
		if err := p.Validate(); err == nil {
			t.Error("expected error for unknown driver")
		}
	})
}
