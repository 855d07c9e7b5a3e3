package query

import (
	"testing"

	"github.com/esolog/logpipeline/internal/logmodel"
)

func intp(v int) *int { return &v }

func buildDetail() *logmodel.FightDetail {
	d := logmodel.NewFightDetail("f1")
	d.DamageAggList = []logmodel.CombatAgg{
		{SourceUnitID: 1, TargetUnitID: 2, AbilityID: 7, Total: 300, Hits: 3, Crits: 1, ActiveSeconds: 2},
		{SourceUnitID: 1, TargetUnitID: 2, AbilityID: 9, Total: 100, Hits: 1, Crits: 0, ActiveSeconds: 1},
		{SourceUnitID: 5, TargetUnitID: 2, AbilityID: 7, Total: 50, Hits: 1, Crits: 0, ActiveSeconds: 1},
	}
	d.HealAggList = []logmodel.CombatAgg{
		{SourceUnitID: 1, TargetUnitID: 1, AbilityID: 30, Total: 400, Hits: 2, Crits: 0, ActiveSeconds: 2},
	}
	return d
}

func TestAbilityIDsFiltersBySource(t *testing.T) {
	d := buildDetail()
	ids := AbilityIDs(d, Filter{SourceUnitID: intp(1)})
	if len(ids) != 2 || ids[0] != 7 || ids[1] != 9 {
		t.Errorf("ids = %v, want [7 9]", ids)
	}
}

func TestAbilityIDsHeals(t *testing.T) {
	d := buildDetail()
	ids := AbilityIDs(d, Filter{Heals: true})
	if len(ids) != 1 || ids[0] != 30 {
		t.Errorf("ids = %v, want [30]", ids)
	}
}

func TestAggregatesGroupsAndDerives(t *testing.T) {
	d := buildDetail()
	rows := Aggregates(d, Filter{SourceUnitID: intp(1)})
	if len(rows) != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	// sorted descending by total: ability 7 (300) before ability 9 (100)
	if rows[0].AbilityID != 7 || rows[0].Total != 300 {
		t.Errorf("rows[0] = %+v", rows[0])
	}
	if rows[0].DPS != 150 {
		t.Errorf("dps = %v, want 150 (300/2)", rows[0].DPS)
	}
	if rows[0].Average != 100 {
		t.Errorf("average = %v, want 100 (300/3)", rows[0].Average)
	}
	if rows[0].CritPct != 1.0/3.0 {
		t.Errorf("critPct = %v, want 1/3", rows[0].CritPct)
	}
	if rows[0].Percent != 0.75 {
		t.Errorf("percent = %v, want 0.75 (300/400)", rows[0].Percent)
	}
}

func TestAggregatesZeroActiveSecondsFallsBackToTotal(t *testing.T) {
	d := logmodel.NewFightDetail("f1")
	d.DamageAggList = []logmodel.CombatAgg{{SourceUnitID: 1, TargetUnitID: 2, AbilityID: 1, Total: 50, Hits: 1, ActiveSeconds: 0}}
	rows := Aggregates(d, Filter{})
	if rows[0].DPS != 50 {
		t.Errorf("dps = %v, want fallback to total 50", rows[0].DPS)
	}
}

func TestSeriesDenseFallbackNoFilters(t *testing.T) {
	d := logmodel.NewFightDetail("f1")
	dense := []logmodel.FightSeriesPoint{{Second: 0, Damage: 10, Heal: 5}, {Second: 1, Damage: 20, Heal: 0}}
	out := Series(d, dense, Filter{})
	if len(out) != 2 || out[0].Heal != 0 || out[0].Damage != 10 {
		t.Errorf("out = %+v, want heal zeroed for damage query", out)
	}

	outHeals := Series(d, dense, Filter{Heals: true})
	if outHeals[0].Damage != 0 || outHeals[0].Heal != 5 {
		t.Errorf("outHeals = %+v, want damage zeroed", outHeals)
	}
}

func TestSeriesNoSamplesWithFiltersReturnsEmpty(t *testing.T) {
	d := logmodel.NewFightDetail("f1")
	dense := []logmodel.FightSeriesPoint{{Second: 0, Damage: 10}}
	out := Series(d, dense, Filter{SourceUnitID: intp(1)})
	if out != nil {
		t.Errorf("out = %v, want nil when samples absent but filters given", out)
	}
}

func TestSeriesBucketsSamplesSkippingZero(t *testing.T) {
	d := logmodel.NewFightDetail("f1")
	d.Samples = []logmodel.CombatSample{
		{RelMs: 500, SourceUnitID: 1, TargetUnitID: 2, AbilityID: 7, Damage: 10},
		{RelMs: 800, SourceUnitID: 1, TargetUnitID: 2, AbilityID: 7, Damage: 20},
		{RelMs: 2100, SourceUnitID: 1, TargetUnitID: 2, AbilityID: 7, Damage: 0, Heal: 5},
	}
	out := Series(d, nil, Filter{SourceUnitID: intp(1)})
	if len(out) != 1 || out[0].Second != 0 || out[0].Damage != 30 {
		t.Errorf("out = %+v, want one non-zero bucket at second 0 totalling 30", out)
	}
}

func TestRangeReturnsNilWhenToNotAfterFrom(t *testing.T) {
	if Range(nil, 1000, 1000) != nil {
		t.Errorf("expected nil for to == from")
	}
	if Range(nil, 2000, 1000) != nil {
		t.Errorf("expected nil for to < from")
	}
}

func TestRangeSumsAndDerivesRates(t *testing.T) {
	dense := []logmodel.FightSeriesPoint{
		{Second: 0, Damage: 100, Heal: 10},
		{Second: 1, Damage: 200, Heal: 20},
		{Second: 2, Damage: 50, Heal: 5},
	}
	stats := Range(dense, 0, 2000)
	if stats == nil {
		t.Fatalf("expected stats")
	}
	if stats.Damage != 300 || stats.Heal != 30 {
		t.Errorf("stats = %+v, want damage=300 heal=30 (seconds 0,1 only)", stats)
	}
	if stats.DPS != 150 {
		t.Errorf("dps = %v, want 150 (300/2)", stats.DPS)
	}
}

func TestRangeDurationFloorsAtEpsilon(t *testing.T) {
	dense := []logmodel.FightSeriesPoint{{Second: 0, Damage: 10}}
	stats := Range(dense, 0, 1)
	if stats == nil {
		t.Fatalf("expected stats")
	}
	if stats.DurationSec != 0.001 {
		t.Errorf("durationSec = %v, want floored at 0.001", stats.DurationSec)
	}
}
