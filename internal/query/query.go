// Package query implements the four read-only projections spec §4.6
// defines over one fight's FightDetail and dense series: ability id
// discovery, grouped aggregates with derived rates, a per-second series
// (sample-bucketed when samples were recorded, dense-fallback
// otherwise), and additive range stats over an arbitrary [from, to)
// window.
//
// Grounded on the teacher's internal/replay/stats.go: single accumulate
// pass over events, then a second pass deriving averages/percentages,
// generalised from LLM-session token/latency stats to combat-log
// damage/heal aggregates.
package query

import (
	"math"
	"sort"

	"github.com/esolog/logpipeline/internal/logmodel"
)

// Filter narrows a query to one source/target unit and/or the heal
// (rather than damage) aggregate family, matching spec §4.6's
// `(sourceUnitId?, targetUnitId?, heals?)` filter triple, and optionally
// to one ability id.
type Filter struct {
	SourceUnitID *int
	TargetUnitID *int
	AbilityID    *int
	Heals        bool
}

func (f Filter) empty() bool {
	return f.SourceUnitID == nil && f.TargetUnitID == nil && f.AbilityID == nil
}

func (f Filter) matchesAgg(a logmodel.CombatAgg) bool {
	if f.SourceUnitID != nil && a.SourceUnitID != *f.SourceUnitID {
		return false
	}
	if f.TargetUnitID != nil && a.TargetUnitID != *f.TargetUnitID {
		return false
	}
	if f.AbilityID != nil && a.AbilityID != *f.AbilityID {
		return false
	}
	return true
}

func (f Filter) matchesSample(s logmodel.CombatSample) bool {
	if f.SourceUnitID != nil && s.SourceUnitID != *f.SourceUnitID {
		return false
	}
	if f.TargetUnitID != nil && s.TargetUnitID != *f.TargetUnitID {
		return false
	}
	if f.AbilityID != nil && s.AbilityID != *f.AbilityID {
		return false
	}
	return true
}

func (f Filter) aggList(detail *logmodel.FightDetail) []logmodel.CombatAgg {
	if f.Heals {
		return detail.HealAggList
	}
	return detail.DamageAggList
}

// AbilityIDs returns the union of ability ids present in the relevant
// aggregate list (damage or heal, per Filter.Heals) matching the
// source/target/ability filters.
func AbilityIDs(detail *logmodel.FightDetail, f Filter) []int {
	seen := make(map[int]bool)
	var out []int
	for _, a := range f.aggList(detail) {
		if !f.matchesAgg(a) {
			continue
		}
		if !seen[a.AbilityID] {
			seen[a.AbilityID] = true
			out = append(out, a.AbilityID)
		}
	}
	sort.Ints(out)
	return out
}

// AggregateRow is one ability-grouped, rate-derived row of the
// "projected aggregates" query.
type AggregateRow struct {
	AbilityID     int
	Total         int
	Hits          int
	Crits         int
	ActiveSeconds int
	Overheal      int
	DPS           float64
	Average       float64
	CritPct       float64
	Percent       float64
}

// Aggregates groups the CombatAgg entries selected by f by abilityId,
// summing total/hits/crits/activeSeconds/overheal, then derives
// dps/average/critPct/percent per spec §4.6. Rows are sorted descending
// by Total.
func Aggregates(detail *logmodel.FightDetail, f Filter) []AggregateRow {
	byAbility := make(map[int]*AggregateRow)
	var order []int
	grandTotal := 0

	for _, a := range f.aggList(detail) {
		if !f.matchesAgg(a) {
			continue
		}
		row, ok := byAbility[a.AbilityID]
		if !ok {
			row = &AggregateRow{AbilityID: a.AbilityID}
			byAbility[a.AbilityID] = row
			order = append(order, a.AbilityID)
		}
		row.Total += a.Total
		row.Hits += a.Hits
		row.Crits += a.Crits
		row.ActiveSeconds += a.ActiveSeconds
		row.Overheal += a.Overheal
		grandTotal += a.Total
	}

	out := make([]AggregateRow, 0, len(order))
	for _, id := range order {
		row := *byAbility[id]
		if row.ActiveSeconds > 0 {
			row.DPS = float64(row.Total) / float64(row.ActiveSeconds)
		} else {
			row.DPS = float64(row.Total)
		}
		if row.Hits > 0 {
			row.Average = float64(row.Total) / float64(row.Hits)
			row.CritPct = float64(row.Crits) / float64(row.Hits)
		}
		if grandTotal > 0 {
			row.Percent = float64(row.Total) / float64(grandTotal)
		}
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

// Series projects a per-second damage/heal timeline. When the fight
// recorded CombatSamples, they are bucketed by integer second with f
// applied and only non-zero buckets returned, ascending by second. With
// no samples and no filters, the dense series is returned verbatim
// (zeroing the channel f doesn't select). With no samples but filters
// given, filtering cannot be reconstructed from the dense series, so an
// empty result is returned (spec §4.6).
func Series(detail *logmodel.FightDetail, dense []logmodel.FightSeriesPoint, f Filter) []logmodel.FightSeriesPoint {
	if len(detail.Samples) == 0 {
		if !f.empty() {
			return nil
		}
		out := make([]logmodel.FightSeriesPoint, len(dense))
		for i, p := range dense {
			out[i] = p
			if f.Heals {
				out[i].Damage = 0
			} else {
				out[i].Heal = 0
			}
		}
		return out
	}

	buckets := make(map[int]*logmodel.FightSeriesPoint)
	var seconds []int
	for _, s := range detail.Samples {
		if !f.matchesSample(s) {
			continue
		}
		amount := s.Damage
		if f.Heals {
			amount = s.Heal
		}
		if amount == 0 {
			continue
		}
		second := secondOf(s.RelMs)
		b, ok := buckets[second]
		if !ok {
			b = &logmodel.FightSeriesPoint{Second: second}
			buckets[second] = b
			seconds = append(seconds, second)
		}
		if f.Heals {
			b.Heal += amount
		} else {
			b.Damage += amount
		}
	}

	sort.Ints(seconds)
	out := make([]logmodel.FightSeriesPoint, 0, len(seconds))
	for _, sec := range seconds {
		out = append(out, *buckets[sec])
	}
	return out
}

func secondOf(relMs int64) int {
	return int(relMs / 1000)
}

// RangeStats is the additive damage/heal summary over an arbitrary
// [from, to) millisecond window of a fight's dense series.
type RangeStats struct {
	Damage      int
	Heal        int
	DurationSec float64
	DPS         float64
	HPS         float64
}

// Range sums damage/heal for seconds in [floor(from/1000), ceil(to/1000))
// from the dense per-second series and derives dps/hps. Returns nil when
// to <= from (spec §4.6).
func Range(dense []logmodel.FightSeriesPoint, fromMs, toMs int64) *RangeStats {
	if toMs <= fromMs {
		return nil
	}
	fromSec := int(fromMs / 1000)
	toSec := int(math.Ceil(float64(toMs) / 1000))

	var damage, heal int
	for _, p := range dense {
		if p.Second >= fromSec && p.Second < toSec {
			damage += p.Damage
			heal += p.Heal
		}
	}

	durationSec := float64(toMs-fromMs) / 1000
	if durationSec < 0.001 {
		durationSec = 0.001
	}
	return &RangeStats{
		Damage:      damage,
		Heal:        heal,
		DurationSec: durationSec,
		DPS:         float64(damage) / durationSec,
		HPS:         float64(heal) / durationSec,
	}
}
