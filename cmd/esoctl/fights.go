package main

import (
	"fmt"
	"time"

	"github.com/muesli/reflow/wordwrap"
)

// Run lists every fight recorded in a session, ascending by start time.
// Fight titles can run long (multi-boss trial names); they're wrapped
// to 100 columns with reflow/wordwrap rather than truncated, the same
// library src/internal/replay/pager.go wraps pager content with.
func (c *FightsCmd) Run(app *App) error {
	fights := app.Index.FightsForSession(c.SessionID)
	if len(fights) == 0 {
		fmt.Fprintf(app.Stdout, "no fights found for session %s\n", c.SessionID)
		return nil
	}
	for _, f := range fights {
		dur := time.Duration(f.EndRelMs-f.StartRelMs) * time.Millisecond
		title := wordwrap.String(f.Title, 100)
		fmt.Fprintf(app.Stdout, "%s  %-10s  %s  (%s)\n", f.ID, dur.Round(time.Second), title, f.ZoneName)
	}
	return nil
}
