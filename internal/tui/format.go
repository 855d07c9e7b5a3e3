package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/esolog/logpipeline/internal/logmodel"
	"github.com/esolog/logpipeline/internal/query"
)

// FormatFightTitle renders one line identifying a fight, grounded on the
// teacher's printHeader "LABEL value" row shape.
func FormatFightTitle(f logmodel.FightSummary) string {
	dur := time.Duration(f.EndRelMs-f.StartRelMs) * time.Millisecond
	status := successStyle.Render("clear")
	if len(f.BossUnitIDs) > 0 {
		status = warnStyle.Render("boss")
	}
	return fmt.Sprintf("%s %s %s %s",
		titleStyle.Render(f.Title),
		labelStyle.Render("zone:"), valueStyle.Render(f.ZoneName),
		dimStyle.Render(fmt.Sprintf("(%s) %s", dur.Round(time.Second), status)))
}

// FormatAggregateTable renders query.Aggregates rows as a fixed-width
// text table, in the teacher's printStats label-column shape.
func FormatAggregateTable(rows []query.AggregateRow, abilityName func(int) string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-24s %10s %8s %8s %7s %7s\n", "ABILITY", "TOTAL", "HITS", "CRITS", "DPS", "CRIT%")
	fmt.Fprintln(&b, divider)
	for _, r := range rows {
		name := abilityName(r.AbilityID)
		if name == "" {
			name = fmt.Sprintf("#%d", r.AbilityID)
		}
		if len(name) > 24 {
			name = name[:21] + "..."
		}
		fmt.Fprintf(&b, "%-24s %10d %8d %8d %7.1f %6.1f%%\n",
			name, r.Total, r.Hits, r.Crits, r.DPS, r.CritPct*100)
	}
	return b.String()
}

// FormatRangeStats renders one query.RangeStats as a label/value block.
func FormatRangeStats(rs *query.RangeStats) string {
	if rs == nil {
		return dimStyle.Render("(invalid range)")
	}
	return fmt.Sprintf("%s %s  %s %s  %s %.1fs\n%s %.0f  %s %.0f",
		labelStyle.Render("damage:"), valueStyle.Render(fmt.Sprintf("%d", rs.Damage)),
		labelStyle.Render("heal:"), valueStyle.Render(fmt.Sprintf("%d", rs.Heal)),
		labelStyle.Render("duration:"), rs.DurationSec,
		labelStyle.Render("dps:"), rs.DPS,
		labelStyle.Render("hps:"), rs.HPS)
}
