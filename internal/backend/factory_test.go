package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"fintrack/internal/config"
	"fintrack/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{StateBackend: "redis", RedisAddress: "cache:6379", RedisDB: 2}
	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if got.Type != RedisBackend || got.RedisAddress != "cache:6379" || got.RedisDB != 2 {
		t.Fatalf("unexpected config %+v", got)
	}

	if _, err := FromAppConfig(&config.Config{StateBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{"memory", Config{Type: MemoryBackend}, ""},
		{"sqlite ok", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, ""},
		{"sqlite missing path", Config{Type: SQLiteBackend}, "SQLite database path is required"},
		{"redis missing addr", Config{Type: RedisBackend}, "redis address is required"},
		{"invalid", Config{Type: "postgres"}, "invalid backend type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestFactoryCreatesBackends(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	mem, err := f.CreateBackend(ctx, Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("memory backend: %v", err)
	}
	if _, ok := mem.Persister.(*storage.MemoryStore); !ok {
		t.Fatalf("expected MemoryStore, got %T", mem.Persister)
	}

	sqlite, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "s.db")})
	if err != nil {
		t.Fatalf("sqlite backend: %v", err)
	}
	defer sqlite.Cleanup()
	if _, ok := sqlite.Persister.(*storage.SQLiteStore); !ok {
		t.Fatalf("expected SQLiteStore, got %T", sqlite.Persister)
	}
	if err := sqlite.Persister.Save(ctx, "ns", []byte("v")); err != nil {
		t.Fatalf("save through factory backend: %v", err)
	}
}
