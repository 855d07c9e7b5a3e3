package tui

import (
	"fmt"
	"strings"

	"github.com/esolog/logpipeline/internal/logmodel"
)

const chartBarWidth = 40

// RenderSeriesChart renders a per-second damage/heal series as stacked
// horizontal bar rows, one row per second, scaled to the series' peak
// combined value. This is the fight browser's dedicated rendering of
// query.Series output — the teacher has no per-second numeric timeline
// to adapt a chart from, so the row-per-tick bar shape is new, built in
// the teacher's divider/label-column text-table idiom.
func RenderSeriesChart(points []logmodel.FightSeriesPoint) string {
	if len(points) == 0 {
		return dimStyle.Render("(no series data)")
	}

	peak := 0
	for _, p := range points {
		if total := p.Damage + p.Heal; total > peak {
			peak = total
		}
	}
	if peak == 0 {
		peak = 1
	}

	var b strings.Builder
	for _, p := range points {
		dmgWidth := p.Damage * chartBarWidth / peak
		healWidth := p.Heal * chartBarWidth / peak
		bar := damageBarStyle.Render(strings.Repeat("█", dmgWidth)) +
			healBarStyle.Render(strings.Repeat("█", healWidth))
		fmt.Fprintf(&b, "%s │ %s %s\n",
			dimStyle.Render(fmt.Sprintf("%4ds", p.Second)),
			bar,
			dimStyle.Render(fmt.Sprintf("dmg=%d heal=%d", p.Damage, p.Heal)))
	}
	return b.String()
}
