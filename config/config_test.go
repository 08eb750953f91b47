package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("PORT", "")

	cfg, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("driver = %q, want postgres", cfg.Database.Driver)
	}
	if cfg.RabbitMQ.Queue != "bodega.events" {
		t.Errorf("queue = %q", cfg.RabbitMQ.Queue)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Errorf("session ttl = %v", cfg.Session.TTL)
	}
}

func TestLoadEnvYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte(`server:
  port: "8080"
database:
  driver: sqlite
  sqlitePath: /tmp/bodega.db
minio:
  endpoint: minio:9000
  bucket: photos
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("SESSION_TTL_SECONDS", "60")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q, env should win over file", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.SQLitePath != "/tmp/bodega.db" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Minio.Endpoint != "minio:9000" || cfg.Minio.Bucket != "photos" {
		t.Errorf("minio = %+v", cfg.Minio)
	}
	if cfg.Session.TTL != time.Minute {
		t.Errorf("session ttl = %v", cfg.Session.TTL)
	}
	if len(cfg.CORS.AllowOrigins) != 2 || cfg.CORS.AllowOrigins[1] != "https://b.example" {
		t.Errorf("origins = %v", cfg.CORS.AllowOrigins)
	}
}

func TestLoadEnvRejectsUnknownDriver(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_DRIVER", "mysql")
	if _, err := LoadEnv(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestDSNPrefersURL(t *testing.T) {
	d := DatabaseConfig{URL: "postgres://u:p@h/db", Host: "ignored"}
	if d.DSN() != "postgres://u:p@h/db" {
		t.Errorf("DSN = %q", d.DSN())
	}
	d.URL = ""
	d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode = "h", "u", "p", "db", "5432", "disable"
	want := "host=h user=u password=p dbname=db port=5432 sslmode=disable"
	if d.DSN() != want {
		t.Errorf("DSN = %q, want %q", d.DSN(), want)
	}
}
