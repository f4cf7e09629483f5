package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.cfg.Paths.ProjectRoot)
	requireContains(t, out, "Config file:")
	requireContains(t, out, "[OK] built-in (")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting an existing file")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateRejectsBadTemplateTable(t *testing.T) {
	env := setupCLITestEnv(t)
	tablePath := filepath.Join(env.baseDir, "templates.toml")
	if err := os.WriteFile(tablePath, []byte("[[category]]\nname = \"\"\n"), 0o644); err != nil {
		t.Fatalf("write table: %v", err)
	}
	f, err := os.OpenFile(env.configPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open config: %v", err)
	}
	if _, err := f.WriteString("\n[templates]\npath = \"" + tablePath + "\"\n"); err != nil {
		t.Fatalf("append config: %v", err)
	}
	f.Close()

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err == nil {
		t.Fatal("expected validation to fail for a broken template table")
	}
	requireContains(t, out, "Templates:")
	requireContains(t, out, "[ERROR]")
}
