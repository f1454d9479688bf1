package config

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Parallel()
	cfg := NewConfig("/var/lib/evault")

	if cfg.Registry.Type != "sqlite" {
		t.Errorf("Registry.Type = %q, want %q", cfg.Registry.Type, "sqlite")
	}
	if cfg.Vault.Type != "filesystem" {
		t.Errorf("Vault.Type = %q, want %q", cfg.Vault.Type, "filesystem")
	}
	if cfg.Encryption.Type != "age" {
		t.Errorf("Encryption.Type = %q, want %q", cfg.Encryption.Type, "age")
	}
	if cfg.Encryption.IdentityPath != "/var/lib/evault/keys/evault.key" {
		t.Errorf("Encryption.IdentityPath = %q", cfg.Encryption.IdentityPath)
	}
	if cfg.Sessions.TTLMinutes != 30 {
		t.Errorf("Sessions.TTLMinutes = %d, want 30", cfg.Sessions.TTLMinutes)
	}
}

func TestManager_ReadWriteRoundTrip(t *testing.T) {
	t.Parallel()
	m := &Manager{}
	cfg := NewConfig("/var/lib/evault")
	cfg.Vault = VaultConfig{
		Type:     "s3",
		Name:     "offsite",
		S3Bucket: "evault-content",
		S3Region: "eu-west-1",
	}

	var buf bytes.Buffer
	if err := m.Write(&buf, cfg); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.BaseDir != cfg.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, cfg.BaseDir)
	}
	if got.Vault != cfg.Vault {
		t.Errorf("Vault = %+v, want %+v", got.Vault, cfg.Vault)
	}
	if got.Registry != cfg.Registry {
		t.Errorf("Registry = %+v, want %+v", got.Registry, cfg.Registry)
	}
}

func TestManager_Read_Invalid(t *testing.T) {
	t.Parallel()
	m := &Manager{}
	if _, err := m.Read(strings.NewReader("not [valid toml")); err == nil {
		t.Error("Read() succeeded on invalid TOML")
	}
}

func TestInit(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config", "evault.toml")
	cfg := NewConfig(dir)

	if err := Init(path, cfg); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	got, err := ReadFromFile(path)
	if err != nil {
		t.Fatalf("ReadFromFile() error = %v", err)
	}
	if got.BaseDir != dir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, dir)
	}

	if err := Init(path, cfg); err == nil {
		t.Error("second Init() succeeded, want error")
	}
}

func TestReadFromFile_Missing(t *testing.T) {
	t.Parallel()
	if _, err := ReadFromFile(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("ReadFromFile() succeeded on missing file")
	}
}
