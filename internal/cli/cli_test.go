package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func isolateHome(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolateHome(t)

	v := viper.New()
	if err := setupViper(v, ""); err != nil {
		t.Fatalf("setupViper failed: %v", err)
	}
	cfg, err := loadConfig(v)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.Input.Dir != "texts" || len(cfg.Input.Patterns) != 1 || cfg.Input.Patterns[0] != "*.txt" {
		t.Errorf("unexpected input defaults: %+v", cfg.Input)
	}
	if cfg.Output.Path != "analysis_results.txt" || cfg.Output.Language != "ru" {
		t.Errorf("unexpected output defaults: %+v", cfg.Output)
	}
	if cfg.Annotator.Timeout != 2*time.Minute || cfg.Annotator.Backend != "http" {
		t.Errorf("unexpected annotator defaults: %+v", cfg.Annotator)
	}
	if cfg.RateLimiting.RequestsPerSecond != 20 || cfg.Cache.TTL != 30*24*time.Hour {
		t.Errorf("unexpected numeric defaults: %+v %+v", cfg.RateLimiting, cfg.Cache)
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	isolateHome(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "input:\n  dir: corpus\nannotator:\n  backend: command\n  timeout: 30s\nconcurrency:\n  workers: 2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RELTEXT_ANNOTATOR_BACKEND", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	v := viper.New()
	if err := setupViper(v, path); err != nil {
		t.Fatalf("setupViper failed: %v", err)
	}
	cfg, err := loadConfig(v)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.Input.Dir != "corpus" {
		t.Errorf("expected dir from config file, got %s", cfg.Input.Dir)
	}
	if cfg.Annotator.Backend != "anthropic" {
		t.Errorf("expected env to override config file, got %s", cfg.Annotator.Backend)
	}
	if cfg.Annotator.Timeout != 30*time.Second || cfg.Concurrency.Workers != 2 {
		t.Errorf("unexpected values from config file: %+v %+v", cfg.Annotator, cfg.Concurrency)
	}
	if cfg.Annotator.APIKey != "sk-ant-test" {
		t.Errorf("expected API key from ANTHROPIC_API_KEY, got %q", cfg.Annotator.APIKey)
	}
	if cfg.Output.Path != "analysis_results.txt" {
		t.Errorf("expected default for keys missing from config file, got %s", cfg.Output.Path)
	}
}

func TestLoadConfig_BadFile(t *testing.T) {
	isolateHome(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("input: [unterminated\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := setupViper(viper.New(), path); err == nil {
		t.Error("expected error for malformed config file")
	}
	if err := setupViper(viper.New(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	isolateHome(t)

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig failed: %v", err)
	}
	if err := writeDefaultConfig(path); err == nil {
		t.Error("expected error when config already exists")
	}

	v := viper.New()
	if err := setupViper(v, path); err != nil {
		t.Fatalf("setupViper failed: %v", err)
	}
	cfg, err := loadConfig(v)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Annotator.Timeout != 2*time.Minute || cfg.Output.SummaryRows != 10 {
		t.Errorf("written config did not load back: %+v", cfg)
	}
}

func TestInspectCommand(t *testing.T) {
	isolateHome(t)

	report := "Результаты анализа:\n\n" +
		"1. Пары <Персонаж>:<Локация>\n" +
		"Персонаж : Локация\tЧастота\n" +
		"Иван : Москва\t3\n" +
		"Иван : Тверь\t1\n" +
		"\n2. Пары <Персонаж>:<Действие>\n" +
		"Персонаж : Действие (время)\tЧастота\n" +
		"Иван : поехал (прошедшее)\t2\n"
	path := filepath.Join(t.TempDir(), "analysis_results.txt")
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"inspect", path, "Иван", "--category", "per"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Москва", "Тверь", "поехал (past)", "LOC", "ACTION"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in output:\n%s", want, got)
		}
	}
	if strings.Index(got, "Москва") > strings.Index(got, "Тверь") {
		t.Errorf("expected partners ordered by frequency:\n%s", got)
	}
}
