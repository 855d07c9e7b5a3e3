// Package main is the entry point for esoctl, the combat-log import and
// query CLI described in spec §4.10.
//
// The CLI struct shape (one exported field per subcommand, kong struct
// tags for flags/args) is grounded on the teacher's cmd/agent/cli.go.
// Unlike that file, kong.Parse is actually invoked here from main.go:
// in the teacher's repo the CLI struct and kongVars helper are declared
// but main() dispatches on os.Args by hand instead, leaving kong
// unused; esoctl uses it for real since the subcommand set here is flat
// enough for kong's declarative parsing to carry all of it.
package main

import "github.com/alecthomas/kong"

// CLI defines esoctl's command-line interface.
type CLI struct {
	Import RunImportCmd `cmd:"" name:"import" help:"Ingest one or more ESO combat logs into the store root."`
	Sessions SessionsCmd `cmd:"" help:"List every known session, most recent first."`
	Fights   FightsCmd   `cmd:"" help:"List every fight recorded in a session."`
	Query    QueryCmd    `cmd:"" help:"Run a read-only projection over one fight."`
	Index    IndexCmd    `cmd:"" help:"Maintain the multi-log store index."`
	Browse   BrowseCmd   `cmd:"" help:"Open the interactive fight browser."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`
}

// RunImportCmd ingests one or more raw combat logs through a bounded
// worker pool (internal/index.Ingester, spec §5).
type RunImportCmd struct {
	Paths   []string `arg:"" name:"path" help:"Combat log file(s) to import." type:"path"`
	Workers int      `default:"4" help:"Maximum concurrent imports."`
}

// SessionsCmd lists every known session.
type SessionsCmd struct{}

// FightsCmd lists every fight in one session.
type FightsCmd struct {
	SessionID string `arg:"" help:"Session id (as printed by 'esoctl sessions')."`
}

// QueryCmd groups the three read-only fight projections.
type QueryCmd struct {
	Aggregates QueryAggregatesCmd `cmd:"" help:"Per-ability grouped totals and rates."`
	Series     QuerySeriesCmd     `cmd:"" help:"Per-second damage/heal timeline."`
	Range      QueryRangeCmd      `cmd:"" help:"Additive damage/heal sum over an arbitrary time window."`
}

// queryFilterFlags are the source/target/heals flags shared by the
// aggregates and series subcommands (spec §4.6's filter triple), plus an
// ability-id restriction.
type queryFilterFlags struct {
	FightID string `arg:"" help:"Fight id (as printed by 'esoctl fights')."`
	Source  *int   `help:"Restrict to this source unit id."`
	Target  *int   `help:"Restrict to this target unit id."`
	Ability *int   `help:"Restrict to this ability id."`
	Heals   bool   `help:"Show heal aggregates/series instead of damage."`
}

// QueryAggregatesCmd runs the grouped-by-ability aggregate projection.
type QueryAggregatesCmd struct {
	queryFilterFlags
}

// QuerySeriesCmd runs the per-second timeline projection.
type QuerySeriesCmd struct {
	queryFilterFlags
}

// QueryRangeCmd runs the additive range-stats projection.
type QueryRangeCmd struct {
	FightID string `arg:"" help:"Fight id (as printed by 'esoctl fights')."`
	FromMs  int64  `help:"Range start, in fight-relative milliseconds." required:""`
	ToMs    int64  `help:"Range end (exclusive), in fight-relative milliseconds." required:""`
}

// IndexCmd groups index-maintenance subcommands.
type IndexCmd struct {
	RenameLegacy IndexRenameLegacyCmd `cmd:"" name:"rename-legacy" help:"Rename GUID-named legacy stores to the friendly name form."`
}

// IndexRenameLegacyCmd renames GUID-named stores under the store root.
type IndexRenameLegacyCmd struct{}

// BrowseCmd launches the interactive fight browser, optionally starting
// on a given fight (spec §4.10).
type BrowseCmd struct {
	FightID string `arg:"" optional:"" help:"Fight id to open the browser on (as printed by 'esoctl fights')."`
}

// VersionCmd prints build version information.
type VersionCmd struct{}

// kongVars returns variables substituted into kong help text.
func kongVars() kong.Vars {
	return kong.Vars{
		"version": version,
	}
}
