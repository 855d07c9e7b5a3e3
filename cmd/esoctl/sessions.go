package main

import (
	"fmt"
	"time"
)

// Run lists every known session, most recent first, one line per
// session in the teacher's printHeader label-column shape.
func (c *SessionsCmd) Run(app *App) error {
	sessions := app.Index.Sessions()
	if len(sessions) == 0 {
		fmt.Fprintln(app.Stdout, "no sessions found")
		return nil
	}
	for _, s := range sessions {
		started := time.UnixMilli(s.UnixStartMs).Format(time.RFC3339)
		fmt.Fprintf(app.Stdout, "%s  %-20s  %-10s  %s\n", s.ID, s.Title, s.Server, started)
	}
	return nil
}
