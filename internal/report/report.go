package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

type StartupReport struct {
	GeneratedAt time.Time   `json:"generated_at"`
	Host        HostInfo    `json:"host"`
	Server      ServerInfo  `json:"server"`
	Schema      SchemaInfo  `json:"schema"`
	Storage     StorageInfo `json:"storage"`
}

type HostInfo struct {
	Hostname string `json:"hostname"`
	OS       string `json:"os"`
	Arch     string `json:"arch"`
	PID      int    `json:"pid"`
	Version  string `json:"version"`
}

type ServerInfo struct {
	Listen            string `json:"listen"`
	Transport         string `json:"transport"`
	IdleTimeout       string `json:"idle_timeout,omitempty"`
	MaxFrameBytes     uint64 `json:"max_frame_bytes"`
	RequireLogin      bool   `json:"require_login"`
	RejectUnspecified bool   `json:"reject_unspecified"`
	Users             int    `json:"users"`
}

type SchemaInfo struct {
	Source   string        `json:"source"`
	Commands []CommandInfo `json:"commands"`
}

type CommandInfo struct {
	Name    string `json:"name"`
	Handler string `json:"handler"`
	Params  int    `json:"params"`
	Login   bool   `json:"login,omitempty"`
}

type StorageInfo struct {
	StateDir    string `json:"state_dir"`
	ConfigPath  string `json:"config_path,omitempty"`
	LogPath     string `json:"log_path"`
	JournalPath string `json:"journal_path,omitempty"`
	ReportPath  string `json:"report_path"`
}

func SaveJSON(path string, report *StartupReport) error {
	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal startup report: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write startup report: %w", err)
	}
	return nil
}

func RenderText(r *StartupReport) string {
	var b strings.Builder
	b.WriteString("slnpd Startup Report\n")
	b.WriteString(fmt.Sprintf("Generated: %s\n", r.GeneratedAt.Format(time.RFC3339)))
	b.WriteString("\n")

	b.WriteString("Host\n")
	b.WriteString(fmt.Sprintf("  Hostname: %s\n", r.Host.Hostname))
	b.WriteString(fmt.Sprintf("  OS/Arch: %s/%s\n", r.Host.OS, r.Host.Arch))
	b.WriteString(fmt.Sprintf("  PID: %d\n", r.Host.PID))
	b.WriteString(fmt.Sprintf("  Version: %s\n", r.Host.Version))
	b.WriteString("\n")

	b.WriteString("Server\n")
	b.WriteString(fmt.Sprintf("  Listen: %s (%s)\n", r.Server.Listen, r.Server.Transport))
	if r.Server.IdleTimeout != "" {
		b.WriteString(fmt.Sprintf("  Idle timeout: %s\n", r.Server.IdleTimeout))
	} else {
		b.WriteString("  Idle timeout: disabled\n")
	}
	b.WriteString(fmt.Sprintf("  Max frame: %s\n", humanize.IBytes(r.Server.MaxFrameBytes)))
	if r.Server.RequireLogin {
		b.WriteString(fmt.Sprintf("  Login: required (%d users)\n", r.Server.Users))
	} else {
		b.WriteString("  Login: optional\n")
	}
	b.WriteString(fmt.Sprintf("  Reject unspecified params: %t\n", r.Server.RejectUnspecified))
	b.WriteString("\n")

	b.WriteString("Schema\n")
	b.WriteString(fmt.Sprintf("  Source: %s\n", r.Schema.Source))
	for _, c := range r.Schema.Commands {
		line := fmt.Sprintf("  %s -> %s (%d params)", c.Name, c.Handler, c.Params)
		if c.Login {
			line += " [login]"
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")

	b.WriteString("Storage\n")
	b.WriteString(fmt.Sprintf("  State dir: %s\n", r.Storage.StateDir))
	if r.Storage.ConfigPath != "" {
		b.WriteString(fmt.Sprintf("  Config: %s\n", r.Storage.ConfigPath))
	}
	b.WriteString(fmt.Sprintf("  Log file: %s\n", r.Storage.LogPath))
	if r.Storage.JournalPath != "" {
		b.WriteString(fmt.Sprintf("  Journal: %s\n", r.Storage.JournalPath))
	} else {
		b.WriteString("  Journal: disabled (orders kept in memory)\n")
	}
	b.WriteString(fmt.Sprintf("  Report: %s\n", r.Storage.ReportPath))

	return b.String()
}
