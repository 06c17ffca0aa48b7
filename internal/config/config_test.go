package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadBytes_Defaults(t *testing.T) {
	cfg, err := LoadBytes(nil)
	if err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}
	if cfg.Store.Mode != ModeLocal || cfg.Database.Driver != DriverSQLite {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if d, _ := cfg.MinSession(); d != time.Minute {
		t.Errorf("MinSession = %v, want 1m", d)
	}
	if d, _ := cfg.MaxSession(); d != 24*time.Hour {
		t.Errorf("MaxSession = %v, want 24h", d)
	}
	if loc, _ := cfg.Location(); loc != time.Local {
		t.Errorf("Location = %v, want Local", loc)
	}
}

func TestLoadBytes_File(t *testing.T) {
	data := []byte(`
employee_id = "emp-42"
timezone = "Europe/Berlin"

[store]
mode = "Remote"

[api]
base_url = "https://crm.example.com/api"

[rules]
min_session = "5m"
`)
	cfg, err := LoadBytes(data)
	if err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}
	if cfg.EmployeeID != "emp-42" {
		t.Errorf("EmployeeID = %q, want emp-42", cfg.EmployeeID)
	}
	if !cfg.Remote() {
		t.Errorf("expected remote mode, got %q", cfg.Store.Mode)
	}
	if cfg.API.BaseURL != "https://crm.example.com/api" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if d, _ := cfg.MinSession(); d != 5*time.Minute {
		t.Errorf("MinSession = %v, want 5m", d)
	}
	if d, _ := cfg.MaxSession(); d != 24*time.Hour {
		t.Errorf("MaxSession should keep default, got %v", d)
	}
	if loc, _ := cfg.Location(); loc.String() != "Europe/Berlin" {
		t.Errorf("Location = %v", loc)
	}
}

func TestLoadBytes_EnvOverrides(t *testing.T) {
	t.Setenv("PUNCH_EMPLOYEE_ID", "from-env")
	t.Setenv("PUNCH_STORE", "remote")

	cfg, err := LoadBytes([]byte(`employee_id = "from-file"`))
	if err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}
	if cfg.EmployeeID != "from-env" || !cfg.Remote() {
		t.Errorf("env not applied: %+v", cfg)
	}
}

func TestLoadBytes_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad toml":        `employee_id = `,
		"bad mode":        "[store]\nmode = \"cloud\"",
		"bad driver":      "[database]\ndriver = \"mysql\"",
		"postgres no dsn": "[database]\ndriver = \"postgres\"\ndsn = \"\"",
		"bad timezone":    `timezone = "Mars/Olympus"`,
		"bad duration":    "[rules]\nmin_session = \"soon\"",
		"min over max":    "[rules]\nmin_session = \"2h\"\nmax_session = \"1h\"",
	}
	for name, data := range cases {
		if _, err := LoadBytes([]byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Listen != ":8080" {
		t.Errorf("Listen = %q, want :8080", cfg.Server.Listen)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server]\nlisten = \":9090\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Listen != ":9090" {
		t.Errorf("Listen = %q, want :9090", cfg.Server.Listen)
	}
}

func TestDatabasePath_ExpandsHome(t *testing.T) {
	cfg := Default()
	path, err := cfg.DatabasePath()
	if err != nil {
		t.Fatalf("DatabasePath failed: %v", err)
	}
	home, _ := os.UserHomeDir()
	if path != filepath.Join(home, ".punch", "punch.db") {
		t.Errorf("DatabasePath = %q", path)
	}
}
