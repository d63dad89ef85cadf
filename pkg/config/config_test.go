package config

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/matzehuels/sheetpack/pkg/errors"
	"github.com/matzehuels/sheetpack/pkg/packing"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
inputs = ["sprites", "/abs/icons"]
image = "build/atlas.png"
map = "build/atlas.xml"

[constraints]
max_width = 1024
padding = 2
power_of_two = true

[cache]
backend = "none"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	wantInputs := []string{filepath.Join(dir, "sprites"), "/abs/icons"}
	if !reflect.DeepEqual(cfg.Inputs, wantInputs) {
		t.Errorf("Inputs = %v, want %v", cfg.Inputs, wantInputs)
	}
	if cfg.Image != filepath.Join(dir, "build", "atlas.png") {
		t.Errorf("Image = %s", cfg.Image)
	}
	if cfg.Map != filepath.Join(dir, "build", "atlas.xml") {
		t.Errorf("Map = %s", cfg.Map)
	}

	want := packing.Constraints{MaxWidth: 1024, MaxHeight: 4096, Padding: 2, PowerOfTwo: true}
	if cfg.Constraints != want {
		t.Errorf("Constraints = %+v, want %+v (unset keys keep defaults)", cfg.Constraints, want)
	}
	if cfg.Cache.Backend != CacheNone {
		t.Errorf("Cache.Backend = %q", cfg.Cache.Backend)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want default", cfg.Server.Addr)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"syntax", "inputs = [", errors.ErrCodeInvalidConfig},
		{"unknown key", "imgae = \"a.png\"", errors.ErrCodeInvalidConfig},
		{"bad constraints", "[constraints]\nmax_width = 0", errors.ErrCodeInvalidConfig},
		{"negative padding", "[constraints]\npadding = -1", errors.ErrCodeInvalidConfig},
		{"unknown backend", "[cache]\nbackend = \"memcached\"", errors.ErrCodeInvalidConfig},
		{"redis without addr", "[cache]\nbackend = \"redis\"", errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.body)
			if _, err := Load(path); !errors.Is(err, tt.code) {
				t.Errorf("Load error = %v, want %s", err, tt.code)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v", err)
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	cfg, found, err := Find(dir)
	if err != nil || found {
		t.Fatalf("Find(empty dir) = %v, %v", found, err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("Find(empty dir) = %+v, want defaults", cfg)
	}

	writeConfig(t, dir, "image = \"atlas.png\"\n")
	cfg, found, err = Find(dir)
	if err != nil || !found {
		t.Fatalf("Find = %v, %v", found, err)
	}
	if cfg.Image != filepath.Join(dir, "atlas.png") {
		t.Errorf("Image = %s", cfg.Image)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvRedisAddr, "redis:6379")
	t.Setenv(EnvMongoURI, "mongodb://db:27017")

	cfg := Default()
	cfg.ApplyEnv()
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.RedisAddr != "redis:6379" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Server.MongoURI != "mongodb://db:27017" {
		t.Errorf("Server.MongoURI = %q", cfg.Server.MongoURI)
	}

	disabled := Default()
	disabled.Cache.Backend = CacheNone
	disabled.ApplyEnv()
	if disabled.Cache.Backend != CacheNone {
		t.Error("ApplyEnv should not re-enable a disabled cache")
	}
}

func TestWriteRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Inputs = []string{"sprites"}
	cfg.Image = "atlas.png"
	cfg.Constraints.Square = true

	var buf bytes.Buffer
	if err := Write(&buf, cfg); err != nil {
		t.Fatalf("Write: %v", err)
	}
	dir := t.TempDir()
	loaded, err := Load(writeConfig(t, dir, buf.String()))
	if err != nil {
		t.Fatalf("Load written config: %v\n%s", err, buf.String())
	}
	if loaded.Constraints != cfg.Constraints {
		t.Errorf("Constraints = %+v, want %+v", loaded.Constraints, cfg.Constraints)
	}
	if loaded.Image != filepath.Join(dir, "atlas.png") {
		t.Errorf("Image = %s", loaded.Image)
	}
}
