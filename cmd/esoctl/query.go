package main

import (
	"fmt"

	"github.com/esolog/logpipeline/internal/logmodel"
	"github.com/esolog/logpipeline/internal/query"
	"github.com/esolog/logpipeline/internal/tui"
)

// resolveFight looks up a fight's detail, series, and an ability-name
// resolver built from its owning session's ability table, shared by
// all three query subcommands.
func (app *App) resolveFight(fightID string) (*logmodel.FightDetail, []logmodel.FightSeriesPoint, func(int) string, error) {
	detail, ok := app.Index.FightDetail(fightID)
	if !ok {
		return nil, nil, nil, fmt.Errorf("unknown fight id %q", fightID)
	}
	series, _ := app.Index.Series(fightID)

	abilityName := func(id int) string { return "" }
	if f, ok := app.Index.Fight(fightID); ok {
		if sess, ok := app.Index.Session(f.SessionID); ok {
			abilityName = func(id int) string {
				if def, ok := sess.Abilities[id]; ok {
					return def.Name
				}
				return ""
			}
		}
	}
	return detail, series, abilityName, nil
}

func (q queryFilterFlags) filter() query.Filter {
	return query.Filter{SourceUnitID: q.Source, TargetUnitID: q.Target, AbilityID: q.Ability, Heals: q.Heals}
}

// Run prints the grouped-by-ability aggregate table for one fight.
func (c *QueryAggregatesCmd) Run(app *App) error {
	detail, _, abilityName, err := app.resolveFight(c.FightID)
	if err != nil {
		return err
	}
	rows := query.Aggregates(detail, c.filter())
	fmt.Fprint(app.Stdout, tui.FormatAggregateTable(rows, abilityName))
	return nil
}

// Run prints the per-second damage/heal timeline for one fight.
func (c *QuerySeriesCmd) Run(app *App) error {
	detail, dense, _, err := app.resolveFight(c.FightID)
	if err != nil {
		return err
	}
	rows := query.Series(detail, dense, c.filter())
	fmt.Fprint(app.Stdout, tui.RenderSeriesChart(rows))
	return nil
}

// Run prints the additive range stats over [FromMs, ToMs) for one
// fight's dense series.
func (c *QueryRangeCmd) Run(app *App) error {
	stats, ok := app.Index.Range(c.FightID, c.FromMs, c.ToMs)
	if !ok {
		return fmt.Errorf("unknown fight id %q or empty range", c.FightID)
	}
	fmt.Fprintln(app.Stdout, tui.FormatRangeStats(stats))
	return nil
}
