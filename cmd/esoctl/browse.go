package main

import (
	"fmt"

	"github.com/esolog/logpipeline/internal/tui"
)

// Run launches the interactive fight browser, refusing to do so when
// stdout isn't a terminal (the teacher's replaySession gates its
// interactive pager the same way, via isTerminal).
func (c *BrowseCmd) Run(app *App) error {
	if !isTerminal(app.Stdout) {
		return fmt.Errorf("browse requires an interactive terminal")
	}
	return tui.Run(app.Index, c.FightID)
}
