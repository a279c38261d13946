package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testReport() *StartupReport {
	return &StartupReport{
		GeneratedAt: time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC),
		Host: HostInfo{
			Hostname: "ill-gw",
			OS:       "linux",
			Arch:     "amd64",
			PID:      4242,
			Version:  "dev",
		},
		Server: ServerInfo{
			Listen:            ":9001",
			Transport:         "tcp",
			IdleTimeout:       "5m0s",
			MaxFrameBytes:     1 << 20,
			RequireLogin:      true,
			RejectUnspecified: false,
			Users:             2,
		},
		Schema: SchemaInfo{
			Source: "builtin",
			Commands: []CommandInfo{
				{Name: "SLNPAlive", Handler: "ill.alive"},
				{Name: "SLNPFLBestellung", Handler: "ill.order", Params: 16},
				{Name: "SLNPLogin", Handler: "auth.login", Params: 2, Login: true},
			},
		},
		Storage: StorageInfo{
			StateDir:    "/var/lib/slnpd",
			ConfigPath:  "/etc/slnpd.toml",
			LogPath:     "/var/lib/slnpd/slnpd.log",
			JournalPath: "/var/lib/slnpd/journal.db",
			ReportPath:  "/var/lib/slnpd/startup-report.json",
		},
	}
}

func TestSaveJSON(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "report.json")

	report := testReport()
	if err := SaveJSON(path, report); err != nil {
		t.Fatalf("SaveJSON() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	var loaded StartupReport
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if loaded.Server.Listen != ":9001" {
		t.Errorf("Server.Listen = %q, want %q", loaded.Server.Listen, ":9001")
	}
	if len(loaded.Schema.Commands) != 3 {
		t.Errorf("Schema.Commands = %d, want 3", len(loaded.Schema.Commands))
	}
	if !loaded.Schema.Commands[2].Login {
		t.Error("Schema.Commands[2].Login = false, want true")
	}
}

func TestSaveJSON_InvalidPath(t *testing.T) {
	report := testReport()
	err := SaveJSON("/nonexistent/dir/report.json", report)
	if err == nil {
		t.Error("SaveJSON() should fail for invalid path")
	}
}

func TestRenderText(t *testing.T) {
	report := testReport()
	text := RenderText(report)

	expectedStrings := []string{
		"slnpd Startup Report",
		"Generated: 2026-02-08T12:00:00Z",
		"OS/Arch: linux/amd64",
		"Listen: :9001 (tcp)",
		"Idle timeout: 5m0s",
		"Max frame: 1.0 MiB",
		"Login: required (2 users)",
		"SLNPFLBestellung -> ill.order (16 params)",
		"SLNPLogin -> auth.login (2 params) [login]",
		"Journal: /var/lib/slnpd/journal.db",
	}

	for _, expected := range expectedStrings {
		if !strings.Contains(text, expected) {
			t.Errorf("RenderText() missing %q", expected)
		}
	}
}

func TestRenderText_Defaults(t *testing.T) {
	report := testReport()
	report.Server.IdleTimeout = ""
	report.Server.RequireLogin = false
	report.Storage.JournalPath = ""
	report.Storage.ConfigPath = ""

	text := RenderText(report)

	for _, want := range []string{"Idle timeout: disabled", "Login: optional", "Journal: disabled"} {
		if !strings.Contains(text, want) {
			t.Errorf("RenderText() missing %q", want)
		}
	}
	if strings.Contains(text, "Config:") {
		t.Error("RenderText() should omit config path when empty")
	}
}
