package qconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tempDir)
	t.Cleanup(func() { os.Chdir(oldWd) })
	return tempDir
}

func TestLoadConfig_Defaults(t *testing.T) {
	tempDir := chdirTemp(t)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Qsub != "qsub" {
		t.Errorf("Expected default qsub, got %s", cfg.Qsub)
	}
	if cfg.Memory != 512 {
		t.Errorf("Expected default memory 512, got %d", cfg.Memory)
	}
	if cfg.LockTTL != 10*time.Minute {
		t.Errorf("Expected default lockTTL 10m, got %s", cfg.LockTTL)
	}
	if cfg.KV.Backend != BackendMemory {
		t.Errorf("Expected default kv backend memory, got %s", cfg.KV.Backend)
	}
	if cfg.Archive.Enabled {
		t.Error("Expected archive to be disabled by default")
	}
	wd, _ := os.Getwd()
	if cfg.WorkDir != wd {
		t.Errorf("Expected workdir %s (temp dir %s), got %s", wd, tempDir, cfg.WorkDir)
	}
}

func TestLoadConfig_ProjectConfig(t *testing.T) {
	chdirTemp(t)

	projectConfig := `
qsub: /opt/torque/bin/qsub
memory: 4096
recordTTL: 1h
archive:
  enabled: true
kv:
  backend: valkey
`
	os.WriteFile("pbsub.yaml", []byte(projectConfig), 0644)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Qsub != "/opt/torque/bin/qsub" {
		t.Errorf("Expected qsub /opt/torque/bin/qsub, got %s", cfg.Qsub)
	}
	if cfg.Memory != 4096 {
		t.Errorf("Expected memory 4096, got %d", cfg.Memory)
	}
	if cfg.RecordTTL != time.Hour {
		t.Errorf("Expected recordTTL 1h, got %s", cfg.RecordTTL)
	}
	if !cfg.Archive.Enabled {
		t.Error("Expected archive to be enabled")
	}
	if cfg.KV.Backend != BackendValkey {
		t.Errorf("Expected kv backend valkey, got %s", cfg.KV.Backend)
	}
	if cfg.ConfigFileUsed() != "pbsub.yaml" {
		t.Errorf("Expected pbsub.yaml to be used, got %s", cfg.ConfigFileUsed())
	}
}

func TestLoadConfig_LocalOverride(t *testing.T) {
	chdirTemp(t)

	os.WriteFile("pbsub.yaml", []byte("qsub: qsub\nmemory: 1024\n"), 0644)
	os.MkdirAll(ConfigRoot, 0755)
	os.WriteFile(filepath.Join(ConfigRoot, "config.yaml"), []byte("memory: 2048\n"), 0644)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Memory != 2048 {
		t.Errorf("Expected memory 2048 (from local override), got %d", cfg.Memory)
	}
}

func TestLoadConfig_ExplicitFileAndEnv(t *testing.T) {
	tempDir := chdirTemp(t)

	customPath := filepath.Join(tempDir, "custom.yaml")
	os.WriteFile(customPath, []byte("qsub: /usr/local/bin/qsub\nworkdir: /scratch/jobs\n"), 0644)
	t.Setenv("PBSUB_WORKDIR", "/scratch/override")

	cfg, err := LoadConfig(customPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Qsub != "/usr/local/bin/qsub" {
		t.Errorf("Expected qsub from file, got %s", cfg.Qsub)
	}
	if cfg.WorkDir != "/scratch/override" {
		t.Errorf("Expected workdir from env, got %s", cfg.WorkDir)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	chdirTemp(t)
	os.WriteFile("pbsub.yaml", []byte("kv:\n  backend: etcd\n"), 0644)

	_, err := LoadConfig("")
	if err == nil || !strings.Contains(err.Error(), "kv.backend") {
		t.Fatalf("Expected kv.backend validation error, got %v", err)
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	chdirTemp(t)
	if _, err := LoadConfig("does-not-exist.yaml"); err == nil {
		t.Error("Expected error for a missing explicit config file")
	}
}

func TestConfig_Reload(t *testing.T) {
	chdirTemp(t)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	cfg.Viper().Set(MemoryKey, 8192)
	if err := cfg.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if cfg.Memory != 8192 {
		t.Errorf("Expected memory 8192 after reload, got %d", cfg.Memory)
	}
	if cfg.GetString(QsubKey) != "qsub" {
		t.Errorf("Expected viper to stay attached after reload")
	}
}
