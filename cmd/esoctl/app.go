package main

import (
	"context"
	"os"

	"github.com/esolog/logpipeline/internal/config"
	"github.com/esolog/logpipeline/internal/index"
	"github.com/esolog/logpipeline/internal/store"
)

// App bundles the dependencies every subcommand's Run method needs,
// built once in main and threaded through kong's Run-method binding
// (parser.Run(app) in main.go), rather than the teacher's package-level
// globalCreds variable.
type App struct {
	Ctx       context.Context
	Cfg       *config.Config
	Index     *index.Index
	StoreOpts store.Options
	Stdout    *os.File
}
