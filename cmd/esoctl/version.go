package main

import "fmt"

// Run prints build version information, matching the teacher's
// "agent version %s (commit: %s, built: %s)" line shape.
func (c *VersionCmd) Run(app *App) error {
	fmt.Fprintf(app.Stdout, "esoctl version %s (commit: %s, built: %s)\n", version, commit, buildTime)
	return nil
}
