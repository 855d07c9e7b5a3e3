package fight

import (
	"testing"

	"github.com/esolog/logpipeline/internal/logmodel"
	"github.com/esolog/logpipeline/internal/record"
)

func lookupNone(int) (UnitMeta, bool) { return UnitMeta{}, false }

func findAgg(list []logmodel.CombatAgg, src, tgt, ability int) (logmodel.CombatAgg, bool) {
	for _, a := range list {
		if a.SourceUnitID == src && a.TargetUnitID == tgt && a.AbilityID == ability {
			return a, true
		}
	}
	return logmodel.CombatAgg{}, false
}

// S3. Simple fight: two COMBAT_EVENT hits in the same second.
func TestCombatAggregationS3(t *testing.T) {
	b := NewBuilder("f1", 0, nil)
	ev := &record.CombatEventFields{
		Result: "DAMAGE", Damage: 100, AbilityID: 7, SourceUnitID: 1,
		HasTarget: true, TargetUnitID: 2,
	}
	b.HandleCombatEvent(1000, ev)
	b.HandleCombatEvent(1500, ev)

	res := b.Finalize(2000, "sess1", 0, 0, "Zone", "NORMAL", "", "", lookupNone)

	if len(res.Series) < 2 || res.Series[1].Damage != 200 {
		t.Fatalf("series[1].damage = %+v, want 200", res.Series)
	}
	agg, ok := findAgg(res.Detail.DamageAggList, 1, 2, 7)
	if !ok {
		t.Fatalf("no damage agg for (1,2,7): %+v", res.Detail.DamageAggList)
	}
	if agg.Total != 200 || agg.Hits != 2 || agg.Crits != 0 || agg.ActiveSeconds != 1 {
		t.Errorf("agg = %+v, want total=200 hits=2 crits=0 activeSeconds=1", agg)
	}
	if res.Detail.Totals(1).DamageDone != 200 {
		t.Errorf("source damageDone = %d, want 200", res.Detail.Totals(1).DamageDone)
	}
	if res.Detail.Totals(2).DamageTaken != 200 {
		t.Errorf("target damageTaken = %d, want 200", res.Detail.Totals(2).DamageTaken)
	}
}

func TestCombatAggregationCritsAndActiveSeconds(t *testing.T) {
	b := NewBuilder("f1", 0, nil)
	b.HandleCombatEvent(1000, &record.CombatEventFields{
		Result: "CRITICAL DAMAGE", Damage: 50, AbilityID: 3, SourceUnitID: 1, HasTarget: true, TargetUnitID: 2,
	})
	b.HandleCombatEvent(2200, &record.CombatEventFields{
		Result: "DAMAGE", Damage: 50, AbilityID: 3, SourceUnitID: 1, HasTarget: true, TargetUnitID: 2,
	})
	res := b.Finalize(3000, "sess1", 0, 0, "Zone", "NORMAL", "", "", lookupNone)
	agg, ok := findAgg(res.Detail.DamageAggList, 1, 2, 3)
	if !ok {
		t.Fatalf("no agg found")
	}
	if agg.Crits != 1 || agg.Hits != 2 || agg.ActiveSeconds != 2 {
		t.Errorf("agg = %+v, want crits=1 hits=2 activeSeconds=2", agg)
	}
}

// S4. Effect uptime: GAINED at 1000, FADED at 4000 on the same (target,ability).
func TestEffectUptimeS4(t *testing.T) {
	b := NewBuilder("f1", 0, nil)
	b.HandleEffectChanged(1000, &record.EffectChangedFields{ChangeType: "GAINED", AbilityID: 9, TargetUnitID: 3})
	b.HandleEffectChanged(4000, &record.EffectChangedFields{ChangeType: "FADED", AbilityID: 9, TargetUnitID: 3})

	res := b.Finalize(5000, "sess1", 0, 0, "Zone", "NORMAL", "", "", lookupNone)

	uptime := res.Detail.EffectUptimes[3][9]
	if uptime == nil {
		t.Fatalf("no uptime recorded for (3,9)")
	}
	if uptime.TotalMs != 3000 || uptime.Applications != 1 {
		t.Errorf("uptime = %+v, want totalMs=3000 applications=1", uptime)
	}
	if uptime.IsOpen() {
		t.Errorf("expected uptime closed after FADED")
	}
}

func TestEffectUptimeLeftOpenAtFinalize(t *testing.T) {
	b := NewBuilder("f1", 0, nil)
	b.HandleEffectChanged(1000, &record.EffectChangedFields{ChangeType: "GAINED", AbilityID: 9, TargetUnitID: 3})

	res := b.Finalize(6000, "sess1", 0, 0, "Zone", "NORMAL", "", "", lookupNone)

	uptime := res.Detail.EffectUptimes[3][9]
	if uptime == nil {
		t.Fatalf("no uptime recorded")
	}
	if uptime.TotalMs != 5000 {
		t.Errorf("totalMs = %d, want 5000 (closed at end of fight)", uptime.TotalMs)
	}
	if uptime.IsOpen() {
		t.Errorf("expected uptime closed by Finalize")
	}
}

// S6. Orphan END_CAST with no matching BEGIN_CAST.
func TestOrphanEndCastS6(t *testing.T) {
	b := NewBuilder("f1", 0, nil)
	b.HandleEndCast(2000, &record.EndCastFields{Result: "COMPLETED", CastInstanceID: 55, AbilityID: 9})

	res := b.Finalize(3000, "sess1", 0, 0, "Zone", "NORMAL", "", "", lookupNone)

	if len(res.Detail.Casts) != 1 {
		t.Fatalf("casts = %+v, want 1 entry", res.Detail.Casts)
	}
	c := res.Detail.Casts[0]
	if c.CasterUnitID != logmodel.OrphanCasterID {
		t.Errorf("caster = %d, want sentinel %d", c.CasterUnitID, logmodel.OrphanCasterID)
	}
	if len(res.Detail.UnitTotals) != 0 {
		t.Errorf("expected no casts counter incremented, got %+v", res.Detail.UnitTotals)
	}
}

func TestBeginEndCastMatched(t *testing.T) {
	b := NewBuilder("f1", 0, nil)
	b.HandleBeginCast(1000, &record.BeginCastFields{CastInstanceID: 10, AbilityID: 9, CasterUnitID: 1})
	b.HandleEndCast(1500, &record.EndCastFields{Result: "COMPLETED", CastInstanceID: 10, AbilityID: 9})

	res := b.Finalize(2000, "sess1", 0, 0, "Zone", "NORMAL", "", "", lookupNone)
	if len(res.Detail.Casts) != 1 {
		t.Fatalf("casts = %+v", res.Detail.Casts)
	}
	c := res.Detail.Casts[0]
	if c.CasterUnitID != 1 || c.Result != logmodel.CastResultCompleted {
		t.Errorf("cast = %+v", c)
	}
	if res.Detail.Totals(1).Casts != 1 {
		t.Errorf("caster casts counter = %d, want 1", res.Detail.Totals(1).Casts)
	}
}

func TestBeginCastLeftOpenAtFinalize(t *testing.T) {
	b := NewBuilder("f1", 0, nil)
	b.HandleBeginCast(1000, &record.BeginCastFields{CastInstanceID: 10, AbilityID: 9, CasterUnitID: 1})

	res := b.Finalize(5000, "sess1", 0, 0, "Zone", "NORMAL", "", "", lookupNone)
	if len(res.Detail.Casts) != 1 {
		t.Fatalf("casts = %+v", res.Detail.Casts)
	}
	if res.Detail.Casts[0].Result != logmodel.CastResultOpen {
		t.Errorf("result = %v, want Open", res.Detail.Casts[0].Result)
	}
}

func TestDeathAttribution(t *testing.T) {
	b := NewBuilder("f1", 0, nil)
	b.HandleCombatEvent(1000, &record.CombatEventFields{
		Result: "KILLING_BLOW", SourceUnitID: 1, HasTarget: true, TargetUnitID: 2, AbilityID: 5,
	})
	res := b.Finalize(2000, "sess1", 0, 0, "Zone", "NORMAL", "", "", lookupNone)
	if len(res.Detail.Deaths) != 1 {
		t.Fatalf("deaths = %+v", res.Detail.Deaths)
	}
	d := res.Detail.Deaths[0]
	if d.VictimUnitID != 2 || d.KillerUnitID != 1 {
		t.Errorf("death = %+v", d)
	}
	if res.Detail.Totals(2).Deaths != 1 {
		t.Errorf("target deaths counter = %d", res.Detail.Totals(2).Deaths)
	}
}

func TestDiedNoKiller(t *testing.T) {
	b := NewBuilder("f1", 0, nil)
	b.HandleCombatEvent(1000, &record.CombatEventFields{Result: "DIED", SourceUnitID: 4})
	res := b.Finalize(2000, "sess1", 0, 0, "Zone", "NORMAL", "", "", lookupNone)
	if len(res.Detail.Deaths) != 1 || res.Detail.Deaths[0].VictimUnitID != 4 || res.Detail.Deaths[0].KillerUnitID != 0 {
		t.Errorf("deaths = %+v", res.Detail.Deaths)
	}
}

func TestResourceEvent(t *testing.T) {
	b := NewBuilder("f1", 0, nil)
	b.HandleCombatEvent(1000, &record.CombatEventFields{
		Result: "DRAIN", PowerType: -2, Damage: 40, AbilityID: 8, SourceUnitID: 1, HasTarget: true, TargetUnitID: 2,
	})
	res := b.Finalize(2000, "sess1", 0, 0, "Zone", "NORMAL", "", "", lookupNone)
	if len(res.Detail.ResourceEvents) != 1 {
		t.Fatalf("resourceEvents = %+v", res.Detail.ResourceEvents)
	}
	re := res.Detail.ResourceEvents[0]
	if re.Kind != logmodel.ResourceHealth || re.Amount != -40 || re.ReceiverID != 2 {
		t.Errorf("resource event = %+v", re)
	}
}

func TestFallbackFightTitle(t *testing.T) {
	b := NewBuilder("f1", 0, nil)
	res := b.Finalize(1000, "sess1", 0, 2, "Zone", "NORMAL", "", "", lookupNone)
	if res.Summary.Title != "Fight 3" {
		t.Errorf("title = %q, want \"Fight 3\"", res.Summary.Title)
	}
}

func TestBossTitleFromLookup(t *testing.T) {
	b := NewBuilder("f1", 0, nil)
	b.HandleCombatEvent(1000, &record.CombatEventFields{Result: "DAMAGE", Damage: 1, SourceUnitID: 1, HasTarget: true, TargetUnitID: 99})
	lookup := func(unitID int) (UnitMeta, bool) {
		if unitID == 99 {
			return UnitMeta{Disposition: "HOSTILE", IsBoss: true, Name: "Boss"}, true
		}
		return UnitMeta{UnitType: "PLAYER"}, true
	}
	res := b.Finalize(2000, "sess1", 0, 0, "Zone", "NORMAL", "", "", lookup)
	if res.Summary.Title != "Boss" {
		t.Errorf("title = %q, want Boss", res.Summary.Title)
	}
	if len(res.Summary.BossUnitIDs) != 1 || res.Summary.BossUnitIDs[0] != 99 {
		t.Errorf("bossUnitIds = %v", res.Summary.BossUnitIDs)
	}
	if len(res.Detail.EnemyUnitIDs) != 1 {
		t.Errorf("expected one enemy unit, got %v", res.Detail.EnemyUnitIDs)
	}
}
