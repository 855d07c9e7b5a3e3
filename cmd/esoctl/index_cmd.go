package main

import (
	"fmt"

	"github.com/esolog/logpipeline/internal/index"
)

// Run renames every GUID-named store under the store root to the
// friendly name form and refreshes the index so routing reflects it.
func (c *IndexRenameLegacyCmd) Run(app *App) error {
	storeRoot, err := app.Cfg.ResolvedLogStoreRoot()
	if err != nil {
		return err
	}
	results, err := index.RenameLegacy(app.Ctx, storeRoot)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(app.Stdout, "no legacy stores found")
	}
	for _, r := range results {
		fmt.Fprintf(app.Stdout, "%s -> %s\n", r.OldPath, r.NewPath)
	}
	return app.Index.Refresh(app.Ctx)
}
