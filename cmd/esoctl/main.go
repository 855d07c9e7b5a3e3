package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/esolog/logpipeline/internal/config"
	"github.com/esolog/logpipeline/internal/index"
	"github.com/esolog/logpipeline/internal/store"
	"github.com/esolog/logpipeline/internal/telemetry"
)

// Build-time variables (set via ldflags), mirroring the teacher's
// cmd/agent/main.go version/commit/buildTime triple.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func init() {
	// Load .env into the process environment before LoadDefault reads
	// esoctl.toml. Config values come from esoctl.toml and defaults only;
	// no config field is read from the environment.
	_ = godotenv.Load()
}

func main() {
	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "esoctl: load config: %v\n", err)
		os.Exit(1)
	}

	storeRoot, err := cfg.ResolvedLogStoreRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "esoctl: resolve log store root: %v\n", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(storeRoot, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "esoctl: create log store root %s: %v\n", storeRoot, err)
		os.Exit(1)
	}

	ctx := context.Background()

	shutdown, err := telemetry.Init(ctx, telemetry.Options{
		Enabled:  cfg.Telemetry.Enabled,
		Protocol: cfg.Telemetry.Protocol,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "esoctl: init telemetry: %v\n", err)
		os.Exit(1)
	}
	defer shutdown(ctx)

	storeOpts := store.Options{
		BusyTimeoutMs:     cfg.Storage.BusyTimeoutMs,
		StatementTimeoutS: cfg.Storage.StatementTimeoutS,
	}

	ix := index.New(storeRoot, index.Options{
		Store:   storeOpts,
		NatsURL: cfg.Events.NatsURL,
	})
	if err := ix.Refresh(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "esoctl: refresh index: %v\n", err)
		os.Exit(1)
	}
	defer ix.Close()

	app := &App{Ctx: ctx, Cfg: cfg, Index: ix, StoreOpts: storeOpts, Stdout: os.Stdout}

	var cli CLI
	parser := kong.Parse(&cli,
		kong.Name("esoctl"),
		kong.Description("Import and query ESO combat logs."),
		kongVars(),
	)
	err = parser.Run(app)
	parser.FatalIfErrorf(err)
}
