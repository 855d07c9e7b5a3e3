// Package fight drives the combat-level state machine — Idle → InFight on
// BEGIN_COMBAT, closing out on END_COMBAT — and owns the per-fight
// aggregates and samples that are materialised once into a
// logmodel.FightDetail (spec §4.4, §9 "in-memory then serialise").
//
// Grounded on internal/checkpoint/checkpoint.go's phase-transition shape
// (a single mutable accumulator advanced by discrete external calls, with
// no internal goroutines or I/O) generalised from checkpoint phases to
// combat record types, and internal/replay/stats.go's single-pass
// accumulate-then-derive style for the aggregate bookkeeping.
package fight

import (
	"sort"
	"strconv"
	"strings"

	"github.com/esolog/logpipeline/internal/logmodel"
	"github.com/esolog/logpipeline/internal/record"
)

type castKey struct {
	instanceID int
	abilityID  int
}

// UnitMeta is what the fight builder needs to know about a unit to
// partition it as friendly/enemy and to name bosses. The session builder
// supplies it by lookup; the fight builder never owns unit lifetime data
// (spec §9 "graph vs index").
type UnitMeta struct {
	UnitType    string
	Disposition string
	IsBoss      bool
	Name        string
}

// UnitLookup resolves a unit id to its current lifetime metadata.
type UnitLookup func(unitID int) (UnitMeta, bool)

// Builder accumulates one fight from BEGIN_COMBAT to END_COMBAT.
type Builder struct {
	fightID           string
	startRelMs        int64
	hardModeAbilities map[int]bool

	detail     *logmodel.FightDetail
	unitsSeen  map[int]bool
	openCasts  map[castKey]*logmodel.CastEntry
	series     map[int]*logmodel.FightSeriesPoint
	maxSecond  int
	isHardMode bool
}

// NewBuilder starts a new fight at startRelMs. hardModeAbilities is the
// session's set of ability ids flagged as hard-mode markers (spec §4.3);
// it is read-only from the fight builder's perspective.
func NewBuilder(fightID string, startRelMs int64, hardModeAbilities map[int]bool) *Builder {
	return &Builder{
		fightID:           fightID,
		startRelMs:        startRelMs,
		hardModeAbilities: hardModeAbilities,
		detail:            logmodel.NewFightDetail(fightID),
		unitsSeen:         make(map[int]bool),
		openCasts:         make(map[castKey]*logmodel.CastEntry),
		series:            make(map[int]*logmodel.FightSeriesPoint),
	}
}

// IsHardMode reports whether a hard-mode-marker ability has been seen as
// an effect on this fight so far.
func (b *Builder) IsHardMode() bool { return b.isHardMode }

func (b *Builder) noteUnit(unitID int) {
	if unitID != 0 {
		b.unitsSeen[unitID] = true
	}
}

func (b *Builder) second(relMs int64) int {
	d := relMs - b.startRelMs
	if d < 0 {
		d = 0
	}
	return int(d / 1000)
}

func (b *Builder) seriesPoint(second int) *logmodel.FightSeriesPoint {
	p, ok := b.series[second]
	if !ok {
		p = &logmodel.FightSeriesPoint{Second: second}
		b.series[second] = p
	}
	if second > b.maxSecond {
		b.maxSecond = second
	}
	return p
}

// HandleCombatEvent folds one COMBAT_EVENT into the fight's aggregates
// (spec §4.4 "Combat event parsing").
func (b *Builder) HandleCombatEvent(relMs int64, ev *record.CombatEventFields) {
	b.noteUnit(ev.SourceUnitID)
	if ev.HasTarget {
		b.noteUnit(ev.TargetUnitID)
	}

	sec := b.second(relMs)
	if ev.SourceBlockOK {
		b.setResourceSample(ev.SourceUnitID, sec, ev.SourceBlock)
	}
	if ev.HasTarget && ev.TargetBlockOK {
		b.setResourceSample(ev.TargetUnitID, sec, ev.TargetBlock)
	}

	resultUpper := strings.ToUpper(ev.Result)
	isCrit := strings.Contains(resultUpper, "CRITICAL")
	target := 0
	if ev.HasTarget {
		target = ev.TargetUnitID
	}
	key := logmodel.CombatAggKey{SourceUnitID: ev.SourceUnitID, TargetUnitID: target, AbilityID: ev.AbilityID}

	overheal := 0
	if ev.Damage > 0 {
		b.seriesPoint(sec).Damage += ev.Damage
		logmodel.AddByUnitAbility(b.detail.DamageDoneByUnitAbility, ev.SourceUnitID, ev.AbilityID, ev.Damage)
		b.detail.Totals(ev.SourceUnitID).DamageDone += ev.Damage
		if ev.HasTarget {
			logmodel.AddByUnitAbility(b.detail.DamageTakenByUnitAbility, ev.TargetUnitID, ev.AbilityID, ev.Damage)
			b.detail.Totals(ev.TargetUnitID).DamageTaken += ev.Damage
		}
		agg := logmodel.Agg(b.detail.DamageAgg, key)
		agg.Total += ev.Damage
		agg.Hits++
		if isCrit {
			agg.Crits++
		}
		agg.Observe(sec)
	}

	if ev.Heal > 0 {
		b.seriesPoint(sec).Heal += ev.Heal
		logmodel.AddByUnitAbility(b.detail.HealDoneByUnitAbility, ev.SourceUnitID, ev.AbilityID, ev.Heal)
		b.detail.Totals(ev.SourceUnitID).HealingDone += ev.Heal
		if ev.HasTarget {
			logmodel.AddByUnitAbility(b.detail.HealTakenByUnitAbility, ev.TargetUnitID, ev.AbilityID, ev.Heal)
			b.detail.Totals(ev.TargetUnitID).HealingTaken += ev.Heal
			if ev.TargetBlockOK {
				missing := ev.TargetBlock.Health.Max - ev.TargetBlock.Health.Cur
				if missing < 0 {
					missing = 0
				}
				overheal = ev.Heal - missing
				if overheal < 0 {
					overheal = 0
				}
			}
		}
		agg := logmodel.Agg(b.detail.HealAgg, key)
		agg.Total += ev.Heal
		agg.Hits++
		if isCrit {
			agg.Crits++
		}
		agg.Overheal += overheal
		agg.Observe(sec)
	}

	if strings.Contains(resultUpper, "ENERGIZE") || strings.Contains(resultUpper, "DRAIN") {
		if ev.Damage != 0 {
			amount := ev.Damage
			if amount < 0 {
				amount = -amount
			}
			if strings.Contains(resultUpper, "DRAIN") {
				amount = -amount
			}
			receiver := ev.SourceUnitID
			if ev.HasTarget {
				receiver = ev.TargetUnitID
			}
			kind := logmodel.ResourceKindFromPowerType(ev.PowerType)
			b.detail.ResourceEvents = append(b.detail.ResourceEvents, logmodel.ResourceEvent{
				RelMs:      relMs,
				ReceiverID: receiver,
				SourceID:   ev.SourceUnitID,
				AbilityID:  ev.AbilityID,
				Kind:       kind,
				Amount:     amount,
				Result:     ev.Result,
			})
			if amount > 0 {
				logmodel.AddByUnitAbility(b.detail.ResourceGainedByUnitAbility, receiver, ev.AbilityID, amount)
				b.detail.Totals(receiver).ResourceGained += amount
			}
		}
	}

	switch {
	case strings.Contains(resultUpper, "KILLING_BLOW") && ev.HasTarget:
		b.detail.Deaths = append(b.detail.Deaths, logmodel.DeathEvent{RelMs: relMs, VictimUnitID: ev.TargetUnitID, KillerUnitID: ev.SourceUnitID})
		b.detail.Totals(ev.TargetUnitID).Deaths++
	case strings.Contains(resultUpper, "UNIT_DIED") || strings.Contains(resultUpper, "DIED"):
		b.detail.Deaths = append(b.detail.Deaths, logmodel.DeathEvent{RelMs: relMs, VictimUnitID: ev.SourceUnitID})
		b.detail.Totals(ev.SourceUnitID).Deaths++
	}

	if ev.Damage > 0 || ev.Heal > 0 {
		b.detail.Samples = append(b.detail.Samples, logmodel.CombatSample{
			RelMs:        relMs,
			SourceUnitID: ev.SourceUnitID,
			TargetUnitID: target,
			AbilityID:    ev.AbilityID,
			Damage:       ev.Damage,
			Heal:         ev.Heal,
			Overheal:     overheal,
			IsCrit:       isCrit,
			Result:       ev.Result,
		})
	}
}

func (b *Builder) setResourceSample(unitID, second int, block logmodel.UnitBlock) {
	perUnit, ok := b.detail.ResourceSamples[unitID]
	if !ok {
		perUnit = make(map[int]logmodel.UnitBlock)
		b.detail.ResourceSamples[unitID] = perUnit
	}
	perUnit[second] = block
}

// HandleEffectChanged folds one EFFECT_CHANGED into uptime bookkeeping
// (spec §4.4 "Effect changed").
func (b *Builder) HandleEffectChanged(relMs int64, ev *record.EffectChangedFields) {
	b.noteUnit(ev.TargetUnitID)

	byAbility, ok := b.detail.EffectUptimes[ev.TargetUnitID]
	if !ok {
		byAbility = make(map[int]*logmodel.EffectUptime)
		b.detail.EffectUptimes[ev.TargetUnitID] = byAbility
	}
	uptime, ok := byAbility[ev.AbilityID]
	if !ok {
		uptime = &logmodel.EffectUptime{TargetUnitID: ev.TargetUnitID, AbilityID: ev.AbilityID}
		byAbility[ev.AbilityID] = uptime
	}

	switch strings.ToUpper(ev.ChangeType) {
	case "GAINED", "UPDATED":
		uptime.Open(relMs)
		if b.hardModeAbilities != nil && b.hardModeAbilities[ev.AbilityID] {
			b.isHardMode = true
		}
	case "FADED":
		uptime.Close(relMs)
	}

	b.detail.EffectChanges = append(b.detail.EffectChanges, logmodel.EffectChangedEvent{
		RelMs:          relMs,
		ChangeType:     ev.ChangeType,
		EffectSlot:     ev.EffectSlot,
		EffectInstance: ev.EffectInstanceID,
		AbilityID:      ev.AbilityID,
		TargetUnitID:   ev.TargetUnitID,
		Pool:           ev.Block.Health,
		Extras:         ev.Block.Extra,
		X:              ev.Block.X,
		Y:              ev.Block.Y,
		Z:              ev.Block.Z,
	})
}

// HandleBeginCast opens a cast keyed by (castInstanceId, abilityId).
func (b *Builder) HandleBeginCast(relMs int64, ev *record.BeginCastFields) {
	b.noteUnit(ev.CasterUnitID)
	health := ev.Block.Health
	b.openCasts[castKey{ev.CastInstanceID, ev.AbilityID}] = &logmodel.CastEntry{
		CastInstanceID: ev.CastInstanceID,
		AbilityID:      ev.AbilityID,
		CasterUnitID:   ev.CasterUnitID,
		BeginRelMs:     relMs,
		Result:         logmodel.CastResultOpen,
		Pool:           &health,
	}
}

// HandleEndCast closes a matching open cast, or records an orphan entry
// with the sentinel caster if none was open (spec §4.4, scenario S6).
func (b *Builder) HandleEndCast(relMs int64, ev *record.EndCastFields) {
	key := castKey{ev.CastInstanceID, ev.AbilityID}
	entry, ok := b.openCasts[key]
	if !ok {
		end := relMs
		b.detail.Casts = append(b.detail.Casts, logmodel.CastEntry{
			CastInstanceID: ev.CastInstanceID,
			AbilityID:      ev.AbilityID,
			CasterUnitID:   logmodel.OrphanCasterID,
			BeginRelMs:     relMs,
			EndRelMs:       &end,
			Result:         castResult(ev.Result),
		})
		return
	}
	delete(b.openCasts, key)
	end := relMs
	entry.EndRelMs = &end
	entry.Result = castResult(ev.Result)
	b.detail.Totals(entry.CasterUnitID).Casts++
	b.detail.Casts = append(b.detail.Casts, *entry)
}

func castResult(raw string) logmodel.CastResult {
	if strings.Contains(strings.ToUpper(raw), "INTERRUPT") {
		return logmodel.CastResultInterrupt
	}
	if raw == "" {
		return logmodel.CastResultCompleted
	}
	return logmodel.CastResult(raw)
}

// HandleHealthRegen appends a per-unit HEALTH_REGEN snapshot and
// contributes a resource sample (spec §4.3).
func (b *Builder) HandleHealthRegen(relMs int64, ev *record.HealthRegenFields) {
	b.noteUnit(ev.UnitID)
	b.detail.HealthRegens = append(b.detail.HealthRegens, logmodel.HealthRegenEvent{
		RelMs:      relMs,
		UnitID:     ev.UnitID,
		Regen:      ev.Regen,
		Health:     ev.Block.Health,
		Magicka:    ev.Block.Magicka,
		Stamina:    ev.Block.Stamina,
		Ultimate:   ev.Block.Ultimate,
		SpecialCur: ev.SpecialCur,
		SpecialMax: ev.SpecialMax,
		Unknown0:   ev.Unknown0,
		X:          ev.X,
		Y:          ev.Y,
		Z:          ev.Z,
	})
	if ev.BlockOK {
		b.setResourceSample(ev.UnitID, b.second(relMs), ev.Block)
	}
}

// HandleUnhandled bumps the fight-scoped unhandled-type counter.
func (b *Builder) HandleUnhandled(typ string) {
	b.detail.UnhandledCounts[typ]++
}

// Result is what Finalize returns: the lightweight summary, the
// materialised detail, and the dense per-second series.
type Result struct {
	Summary logmodel.FightSummary
	Detail  *logmodel.FightDetail
	Series  []logmodel.FightSeriesPoint
}

// Finalize closes out open intervals/casts, partitions units, derives
// bosses and title, and materialises the dense series (spec §4.4 steps
// 1-5). ordinal is this fight's zero-based position within its session,
// used for the fallback "Fight N" title.
func (b *Builder) Finalize(endRelMs int64, sessionID string, zoneSegmentID int, ordinal int, zoneName, difficulty, mapName, mapKey string, lookup UnitLookup) Result {
	for _, byAbility := range b.detail.EffectUptimes {
		for _, uptime := range byAbility {
			uptime.Close(endRelMs)
		}
	}
	for key, entry := range b.openCasts {
		entry.Result = logmodel.CastResultOpen
		b.detail.Casts = append(b.detail.Casts, *entry)
		delete(b.openCasts, key)
	}

	var friendly, enemy []int
	var bossIDs []int
	var bossNames []string
	for unitID := range b.unitsSeen {
		meta, ok := lookup(unitID)
		if !ok {
			continue
		}
		disp := strings.ToUpper(meta.Disposition)
		switch {
		case meta.UnitType == "PLAYER" || containsAny(disp, "PLAYER_ALLY", "NPC_ALLY", "FRIENDLY"):
			friendly = append(friendly, unitID)
		case strings.Contains(disp, "HOSTILE"):
			enemy = append(enemy, unitID)
			if meta.IsBoss {
				bossIDs = append(bossIDs, unitID)
				bossNames = append(bossNames, meta.Name)
			}
		}
	}
	sort.Ints(friendly)
	sort.Ints(enemy)
	sort.Ints(bossIDs)
	sort.Strings(bossNames)

	b.detail.FriendlyUnitIDs = friendly
	b.detail.EnemyUnitIDs = enemy
	b.detail.MaxSecond = b.maxSecond
	b.detail.Finalize()

	title := strings.Join(bossNames, " + ")
	if title == "" {
		title = "Fight " + strconv.Itoa(ordinal+1)
	}

	series := make([]logmodel.FightSeriesPoint, b.maxSecond+1)
	for i := range series {
		series[i].Second = i
	}
	for sec, p := range b.series {
		series[sec] = *p
	}

	summary := logmodel.FightSummary{
		ID:            b.fightID,
		SessionID:     sessionID,
		ZoneSegmentID: zoneSegmentID,
		StartRelMs:    b.startRelMs,
		EndRelMs:      endRelMs,
		Title:         title,
		ZoneName:      zoneName,
		Difficulty:    difficulty,
		MapName:       mapName,
		MapKey:        mapKey,
		IsHardMode:    b.isHardMode,
		BossUnitIDs:   bossIDs,
		BossNames:     bossNames,
	}

	return Result{Summary: summary, Detail: b.detail, Series: series}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

