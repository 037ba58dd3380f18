package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/azspectre/internal/resource"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func TestLoad_NoFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SubscriptionID != "" {
		t.Fatalf("expected empty subscription, got %q", cfg.SubscriptionID)
	}
	if cfg.Concurrency != 0 {
		t.Fatalf("expected zero concurrency, got %d", cfg.Concurrency)
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".azspectre.yaml", `subscription_id: 00000000-0000-0000-0000-000000000001
mode: demo
snapshot_dir: ./scans
data_dir: ./data
format: json
timeout: 5m
concurrency: 8
listen: ":9090"
types:
  - disks
  - public-ips
exclude:
  resource_ids:
    - /subscriptions/s/resourceGroups/rg/providers/Microsoft.Compute/disks/keep
  tags:
    - "Environment=production"
    - "DoNotDelete"
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SubscriptionID != "00000000-0000-0000-0000-000000000001" {
		t.Fatalf("unexpected subscription %q", cfg.SubscriptionID)
	}
	if cfg.Mode != "demo" || cfg.SnapshotDir != "./scans" || cfg.DataDir != "./data" {
		t.Fatalf("unexpected paths/mode %+v", cfg)
	}
	if cfg.Concurrency != 8 || cfg.Listen != ":9090" {
		t.Fatalf("unexpected concurrency/listen %+v", cfg)
	}
	if cfg.TimeoutDuration() != 5*time.Minute {
		t.Fatalf("expected 5m timeout, got %v", cfg.TimeoutDuration())
	}

	types, err := cfg.ResourceTypes()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(types) != 2 || types[0] != resource.TypeDisks || types[1] != resource.TypePublicIPs {
		t.Fatalf("unexpected types %v", types)
	}

	tags := cfg.Exclude.ParseTags()
	if tags["Environment"] != "production" {
		t.Fatalf("expected Environment=production, got %q", tags["Environment"])
	}
	if v, ok := tags["DoNotDelete"]; !ok || v != "" {
		t.Fatal("key-only tag should match any value")
	}
	ids := cfg.Exclude.ResourceIDSet()
	if !ids["/subscriptions/s/resourcegroups/rg/providers/microsoft.compute/disks/keep"] {
		t.Fatalf("expected lower-cased id set, got %v", ids)
	}
}

func TestLoad_YMLExtension(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".azspectre.yml", "format: sarif\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Format != "sarif" {
		t.Fatalf("expected format sarif, got %q", cfg.Format)
	}
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".azspectre.toml", `subscription_id = "sub-toml"
concurrency = 2
types = ["nsgs"]

[exclude]
tags = ["team=core"]
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SubscriptionID != "sub-toml" || cfg.Concurrency != 2 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	types, err := cfg.ResourceTypes()
	if err != nil || len(types) != 1 || types[0] != resource.TypeNetworkSecurityGroups {
		t.Fatalf("unexpected types %v (%v)", types, err)
	}
	if cfg.Exclude.ParseTags()["team"] != "core" {
		t.Fatal("expected team=core exclusion")
	}
}

func TestLoad_YAMLWinsOverTOML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".azspectre.yaml", "format: text\n")
	writeConfig(t, dir, ".azspectre.toml", "format = \"json\"\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Format != "text" {
		t.Fatalf("expected yaml to take precedence, got %q", cfg.Format)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".azspectre.yaml", "mode: demo\nformat: text\n")
	t.Setenv("AZSPECTRE_MODE", "production")
	t.Setenv("AZSPECTRE_CONCURRENCY", "6")
	t.Setenv("AZSPECTRE_TYPES", "disks,nics")
	t.Setenv("AZSPECTRE_EXCLUDE_TAGS", "keep")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Mode != "production" {
		t.Fatalf("expected env to override mode, got %q", cfg.Mode)
	}
	if cfg.Format != "text" {
		t.Fatalf("unset env must keep file value, got %q", cfg.Format)
	}
	if cfg.Concurrency != 6 || len(cfg.Types) != 2 {
		t.Fatalf("unexpected env overrides %+v", cfg)
	}
	if _, ok := cfg.Exclude.ParseTags()["keep"]; !ok {
		t.Fatal("expected nested exclude override")
	}
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("AZSPECTRE_CONCURRENCY", "many")
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("expected error for non-numeric concurrency")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".azspectre.yaml", "{{invalid yaml")

	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestParseTypes_Unknown(t *testing.T) {
	if _, err := ParseTypes([]string{"disks", "mainframes"}); err == nil {
		t.Fatal("expected error for unknown type")
	}
	types, err := ParseTypes([]string{" ", "vnet-gateways"})
	if err != nil || len(types) != 1 || types[0] != resource.TypeVirtualNetworkGateways {
		t.Fatalf("unexpected result %v (%v)", types, err)
	}
}

func TestTimeoutDuration_Empty(t *testing.T) {
	if d := (Config{}).TimeoutDuration(); d != 0 {
		t.Fatalf("expected 0, got %v", d)
	}
}
