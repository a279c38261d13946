package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/stuffbucket/slnpd/internal/auth"
	"github.com/stuffbucket/slnpd/internal/config"
	"github.com/stuffbucket/slnpd/internal/ill"
	"github.com/stuffbucket/slnpd/internal/journal"
	"github.com/stuffbucket/slnpd/internal/logging"
	"github.com/stuffbucket/slnpd/internal/report"
	"github.com/stuffbucket/slnpd/internal/schema"
	"github.com/stuffbucket/slnpd/internal/server"
)

const reportName = "startup-report.json"

var serveFlags struct {
	listen            string
	transport         string
	schemaPath        string
	logLevel          string
	idleTimeout       time.Duration
	requireLogin      bool
	rejectUnspecified bool
	noJournal         bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the SLNP server",
	Long: `Listen for SLNP connections and serve interlibrary loan commands until
interrupted. Flags override values from the config file.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVarP(&serveFlags.listen, "listen", "l", "", fmt.Sprintf("Listen address (default %q)", config.DefaultListenAddr))
	f.StringVar(&serveFlags.transport, "transport", "", "Transport: tcp or unix")
	f.StringVar(&serveFlags.schemaPath, "schema", "", "Command schema YAML (default: built-in ILL schema)")
	f.StringVar(&serveFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.DurationVar(&serveFlags.idleTimeout, "idle-timeout", 0, "Disconnect silent peers after this long")
	f.BoolVar(&serveFlags.requireLogin, "require-login", false, "Require SLNPLogin before other commands")
	f.BoolVar(&serveFlags.rejectUnspecified, "reject-unspecified", false, "Reject parameters not declared in the schema")
	f.BoolVar(&serveFlags.noJournal, "no-journal", false, "Keep orders in memory and do not log commands")
}

func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("listen") {
		cfg.Server.Listen = serveFlags.listen
	}
	if f.Changed("transport") {
		cfg.Server.Transport = serveFlags.transport
	}
	if f.Changed("schema") {
		cfg.Schema.Path = serveFlags.schemaPath
	}
	if f.Changed("log-level") {
		cfg.Log.Level = serveFlags.logLevel
	}
	if f.Changed("idle-timeout") {
		cfg.Server.IdleTimeout = config.Duration{Duration: serveFlags.idleTimeout}
	}
	if f.Changed("require-login") {
		cfg.Server.RequireLogin = serveFlags.requireLogin
	}
	if f.Changed("reject-unspecified") {
		cfg.Server.RejectUnspecified = serveFlags.rejectUnspecified
	}
	if serveFlags.noJournal {
		cfg.Journal.Enabled = false
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	applyServeFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	logFile, err := logging.Init(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	reg, err := schema.Load(cfg.Schema.Path)
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	var (
		backend ill.Backend
		jrnl    server.Journal
	)
	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer func() { _ = j.Close() }()
		backend, jrnl = j, j
	} else {
		backend = ill.NewMemoryBackend()
	}

	router := server.NewRouter()
	ill.Register(router, backend)
	auth.Register(router, auth.Credentials(cfg.Auth.Users))
	dispatcher, err := router.Bind(reg)
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	transport, err := server.TransportByName(cfg.Server.Transport)
	if err != nil {
		return err
	}
	ln, err := server.NewListener(server.ListenerConfig{
		Address:   cfg.Server.Listen,
		Transport: transport,
		Engine: server.NewEngine(server.EngineConfig{
			Dispatcher:        dispatcher,
			RequireLogin:      cfg.Server.RequireLogin,
			RejectUnspecified: cfg.Server.RejectUnspecified,
			Journal:           jrnl,
		}),
		IdleTimeout:   cfg.Server.IdleTimeout.Duration,
		MaxFrameBytes: cfg.Server.MaxFrameBytes,
	})
	if err != nil {
		return err
	}

	rep := buildReport(cfg, reg, ln.Addr().String())
	if err := report.SaveJSON(rep.Storage.ReportPath, rep); err != nil {
		logging.L().Warn("startup report", "error", err)
	}
	fmt.Println(title("slnpd is serving"))
	fmt.Printf("  %s %s\n", key("Listen:"), value(ln.Addr().String()))
	fmt.Printf("  %s %d\n", key("Commands:"), reg.Len())
	fmt.Printf("  %s %s\n", key("Report:"), value(rep.Storage.ReportPath))
	fmt.Printf("  %s %s\n", key("Try:"), command(fmt.Sprintf("slnpd send --transport %s --addr %s request.slnp", cfg.Server.Transport, ln.Addr())))
	fmt.Println()
	logging.L().Debug("startup report\n" + report.RenderText(rep))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ln.Serve(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logging.L().Info("shutting down", "grace", cfg.Server.ShutdownGrace.Duration)
		sctx, scancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace.Duration)
		defer scancel()
		return ln.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Println(subtle("slnpd stopped"))
	return nil
}

func buildReport(cfg *config.Config, reg *schema.Registry, addr string) *report.StartupReport {
	hostname, _ := os.Hostname()
	rep := &report.StartupReport{
		GeneratedAt: time.Now().UTC(),
		Host: report.HostInfo{
			Hostname: hostname,
			OS:       runtime.GOOS,
			Arch:     runtime.GOARCH,
			PID:      os.Getpid(),
			Version:  version,
		},
		Server: report.ServerInfo{
			Listen:            addr,
			Transport:         cfg.Server.Transport,
			MaxFrameBytes:     uint64(cfg.Server.MaxFrameBytes),
			RequireLogin:      cfg.Server.RequireLogin,
			RejectUnspecified: cfg.Server.RejectUnspecified,
			Users:             len(cfg.Auth.Users),
		},
		Schema: report.SchemaInfo{Source: "builtin"},
		Storage: report.StorageInfo{
			StateDir:   cfg.StateDir,
			ConfigPath: rootFlags.configPath,
			LogPath:    cfg.Log.Path,
			ReportPath: filepath.Join(cfg.StateDir, reportName),
		},
	}
	if cfg.Server.IdleTimeout.Duration > 0 {
		rep.Server.IdleTimeout = cfg.Server.IdleTimeout.Duration.String()
	}
	if cfg.Schema.Path != "" {
		rep.Schema.Source = cfg.Schema.Path
	}
	if cfg.Journal.Enabled {
		rep.Storage.JournalPath = cfg.Journal.Path
	}
	for _, c := range reg.Commands() {
		rep.Schema.Commands = append(rep.Schema.Commands, report.CommandInfo{
			Name:    string(c.Name),
			Handler: string(c.Handler),
			Params:  len(c.Params),
			Login:   c.Login,
		})
	}
	return rep
}
