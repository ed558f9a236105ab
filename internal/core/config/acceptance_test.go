package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestAcceptanceCriteria covers secret handling and source precedence end to end.
func TestAcceptanceCriteria(t *testing.T) {
	t.Run("AC1: Config file with hmac_secret rejected with clear error", func(t *testing.T) {
		path := writeFile(t, "config.yaml", `formula_api:
  host: "localhost"
  http_port: 8081
  hmac_secret: "should_be_rejected"
`)

		_, err := LoadConfig(path)
		if err == nil {
			t.Fatal("AC1 FAIL: Expected error for secret in config file")
		}
		if err.Error() != "HMAC secrets not allowed in config files (use FT_HMAC_SECRET environment variable)" {
			t.Fatalf("AC1 FAIL: Wrong error message: %v", err)
		}
	})

	t.Run("AC2: Environment overrides config file", func(t *testing.T) {
		t.Setenv("FT_FORMULA_API_HTTP_PORT", "8081")
		path := writeFile(t, "config.yaml", "formula_api:\n  http_port: 9090\n")

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("AC2 FAIL: LoadConfig error: %v", err)
		}
		if cfg.HTTPPort != 8081 {
			t.Fatalf("AC2 FAIL: Environment should override config file. Expected 8081, got %d", cfg.HTTPPort)
		}
	})

	t.Run("AC3: Catalog file feeds the engine catalog", func(t *testing.T) {
		path := writeFile(t, "catalog.yaml", `params:
  - value: "17132"
    label: Labor
    description: Labor hours
uoms:
  - value: HR
    label: Hours
`)
		catalog, err := LoadCatalog(path)
		if err != nil {
			t.Fatalf("AC3 FAIL: LoadCatalog error: %v", err)
		}
		if catalog.Describe("17132") != "Labor hours" {
			t.Fatalf("AC3 FAIL: description = %q", catalog.Describe("17132"))
		}
		if catalog.KnownParam("404") || !catalog.KnownUOM("HR") {
			t.Fatal("AC3 FAIL: catalog membership wrong")
		}
	})
}

func TestLoadCatalogFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
		params  int
	}{
		{"empty file", "", false, 0},
		{"params only", "params:\n  - value: a\n  - value: b\n", false, 2},
		{"unknown key", "parameters:\n  - value: a\n", true, 0},
		{"missing value", "uoms:\n  - label: Hours\n", true, 0},
		{"malformed", "params: [", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cf, err := LoadCatalogFile(writeFile(t, "catalog.yaml", tt.content))
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadCatalogFile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && len(cf.Params) != tt.params {
				t.Errorf("len(Params) = %d, want %d", len(cf.Params), tt.params)
			}
		})
	}

	if _, err := LoadCatalogFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if c, err := LoadCatalog(""); err != nil || !c.KnownParam("anything") {
		t.Errorf("LoadCatalog(\"\") = %v, %v", c, err)
	}
}
