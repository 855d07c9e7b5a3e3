// Package logsession drives the log-level state machine — Idle →
// InSession on BEGIN_LOG, finalising on END_LOG or end-of-file — and owns
// every session-scoped dictionary: abilities, effects, unit lifetimes,
// zone segments, trials and unhandled-type counts (spec §4.3).
//
// Grounded on internal/session/session.go's Manager/Store split (a single
// mutable accumulator fed by discrete calls, persisted by a separate
// writer) generalised from an LLM conversation transcript to a combat log,
// and on internal/checkpoint/checkpoint.go's phase-transition shape for
// the fight hand-off.
package logsession

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/esolog/logpipeline/internal/fight"
	"github.com/esolog/logpipeline/internal/logmodel"
	"github.com/esolog/logpipeline/internal/record"
)

type state int

const (
	stateIdle state = iota
	stateInSession
)

// FightRecord bundles one finalised fight's summary, detail and series —
// the unit the store writer persists per fight (spec §4.5).
type FightRecord struct {
	SessionID string
	Summary   logmodel.FightSummary
	Detail    *logmodel.FightDetail
	Series    []logmodel.FightSeriesPoint
}

// Builder drives one log file's worth of records. A single log can
// contain more than one BEGIN_LOG/END_LOG interval; each completed
// interval is appended to Sessions.
type Builder struct {
	state state

	session  *logmodel.Session
	sessions []logmodel.Session

	unitIndex         map[int]int // unitId -> index into session.Units (latest entry, active or not)
	hardModeAbilities map[int]bool
	openTrial         *logmodel.TrialRun

	currentFight *fight.Builder
	fightOrdinal int
	fightRecords []FightRecord

	lastRelMs int64
}

// NewBuilder returns an idle Builder, ready to process lines from one log
// file via Process.
func NewBuilder() *Builder {
	return &Builder{state: stateIdle}
}

// Process frames and parses one raw log line and folds it into whatever
// session/fight is currently open. Malformed lines are silently skipped
// (spec §4.2); lines outside an open session are ignored.
func (b *Builder) Process(line string) {
	frame, ok := record.FrameLine(line)
	if !ok {
		return
	}
	b.lastRelMs = frame.RelMs

	switch frame.Type {
	case "BEGIN_LOG":
		ev, evOK := record.Parse(frame.RelMs, frame.Type, frame.Remaining)
		if b.state == stateInSession {
			b.finalizeSession(frame.RelMs)
		}
		if evOK && ev.BeginLog != nil {
			b.startSession(frame.RelMs, ev.BeginLog)
		}
		return
	case "END_LOG":
		if b.state == stateInSession {
			b.finalizeSession(frame.RelMs)
		}
		return
	}

	if b.state != stateInSession {
		return
	}

	ev, ok := record.Parse(frame.RelMs, frame.Type, frame.Remaining)
	if !ok {
		b.bumpUnhandled(frame.Type)
		return
	}

	switch ev.Kind {
	case record.KindZoneChanged:
		b.handleZoneChanged(frame.RelMs, ev.ZoneChanged)
	case record.KindMapChanged:
		b.handleMapChanged(frame.RelMs, ev.MapChanged)
	case record.KindUnitAdded:
		b.handleUnitAdded(frame.RelMs, ev.UnitAdded)
	case record.KindUnitChanged:
		b.handleUnitChanged(frame.RelMs, ev.UnitChanged)
	case record.KindUnitRemoved:
		b.handleUnitRemoved(frame.RelMs, ev.UnitRemoved.UnitID)
	case record.KindAbilityInfo:
		b.handleAbilityInfo(ev.AbilityInfo)
	case record.KindEffectInfo:
		b.handleEffectInfo(ev.EffectInfo)
	case record.KindPlayerInfo:
		b.handlePlayerInfo(frame.RelMs, ev.PlayerInfo)
	case record.KindBeginCombat:
		b.handleBeginCombat(frame.RelMs)
	case record.KindEndCombat:
		b.handleEndCombat(frame.RelMs)
	case record.KindBeginTrial:
		b.handleBeginTrial(frame.RelMs, ev.BeginTrial)
	case record.KindEndTrial:
		b.handleEndTrial(frame.RelMs, ev.EndTrial)
	case record.KindTrialInit:
		b.handleTrialInit(ev.TrialInit)
	case record.KindHealthRegen:
		b.handleHealthRegen(frame.RelMs, ev.HealthRegen)
	case record.KindCombatEvent:
		if b.currentFight != nil {
			b.currentFight.HandleCombatEvent(frame.RelMs, ev.CombatEvent)
		}
	case record.KindEffectChanged:
		if b.currentFight != nil {
			b.currentFight.HandleEffectChanged(frame.RelMs, ev.EffectChanged)
		}
	case record.KindBeginCast:
		if b.currentFight != nil {
			b.currentFight.HandleBeginCast(frame.RelMs, ev.BeginCast)
		}
	case record.KindEndCast:
		if b.currentFight != nil {
			b.currentFight.HandleEndCast(frame.RelMs, ev.EndCast)
		}
	default:
		b.bumpUnhandled(frame.Type)
	}
}

func (b *Builder) bumpUnhandled(typ string) {
	b.session.UnhandledCounts[typ]++
	if b.currentFight != nil {
		b.currentFight.HandleUnhandled(typ)
	}
}

// Finalize closes out a still-open session at end-of-file, using the last
// seen relMs as the session's endRelMs (spec §7 "premature end-of-file").
// Safe to call whether or not a session is open.
func (b *Builder) Finalize() {
	if b.state == stateInSession {
		b.finalizeSession(b.lastRelMs)
	}
}

// Sessions returns every session completed so far (by END_LOG or by
// Finalize).
func (b *Builder) Sessions() []logmodel.Session { return b.sessions }

// FightRecords returns every fight completed so far, across all sessions
// in this log.
func (b *Builder) FightRecords() []FightRecord { return b.fightRecords }

func (b *Builder) startSession(relMs int64, f *record.BeginLogFields) {
	b.session = &logmodel.Session{
		ID:              uuid.NewString(),
		UnixStartMs:     f.UnixStartMs,
		Server:          f.Server,
		Language:        f.Language,
		Patch:           f.Patch,
		Abilities:       make(map[int]logmodel.AbilityDef),
		Effects:         make(map[int]logmodel.EffectDef),
		UnhandledCounts: make(map[string]int),
	}
	b.unitIndex = make(map[int]int)
	b.hardModeAbilities = make(map[int]bool)
	b.openTrial = nil
	b.currentFight = nil
	b.fightOrdinal = 0
	b.state = stateInSession
}

// finalizeSession closes any still-open fight and zone, derives a title
// (the format carries no explicit session title; spec §8 scenario S1 only
// requires it to carry the session's calendar date, so it is built from
// unixStartMs and, when known, the first zone's name), and appends the
// completed session.
func (b *Builder) finalizeSession(relMs int64) {
	if b.currentFight != nil {
		b.closeFight(relMs)
	}
	b.closeZone(relMs)

	b.session.EndRelMs = relMs
	if b.session.Title == "" {
		b.session.Title = b.deriveTitle()
	}

	b.sessions = append(b.sessions, *b.session)
	b.session = nil
	b.state = stateIdle
}

func (b *Builder) deriveTitle() string {
	date := time.UnixMilli(b.session.UnixStartMs).UTC().Format("2006-01-02")
	if len(b.session.Zones) > 0 && b.session.Zones[0].ZoneName != "" {
		return b.session.Zones[0].ZoneName + " — " + date
	}
	return date
}

func (b *Builder) handleZoneChanged(relMs int64, f *record.ZoneChangedFields) {
	b.closeZone(relMs)
	b.session.Zones = append(b.session.Zones, logmodel.ZoneSegment{
		ID:         len(b.session.Zones),
		StartRelMs: relMs,
		ZoneID:     f.ZoneID,
		ZoneName:   f.ZoneName,
		Difficulty: f.Difficulty,
	})
}

func (b *Builder) closeZone(relMs int64) {
	if len(b.session.Zones) == 0 {
		return
	}
	z := &b.session.Zones[len(b.session.Zones)-1]
	if z.EndRelMs == nil {
		end := relMs
		z.EndRelMs = &end
	}
}

func (b *Builder) handleMapChanged(relMs int64, f *record.MapChangedFields) {
	b.ensureZone(relMs)
	z := &b.session.Zones[len(b.session.Zones)-1]
	z.Maps = append(z.Maps, logmodel.MapChange{RelMs: relMs, MapID: f.MapID, MapName: f.MapName, MapKey: f.MapKey})
}

// ensureZone synthesizes a zone with id 0 if MAP_CHANGED (or BEGIN_COMBAT)
// arrives before any ZONE_CHANGED (spec §3 ZoneSegment).
func (b *Builder) ensureZone(relMs int64) {
	if len(b.session.Zones) == 0 {
		b.session.Zones = append(b.session.Zones, logmodel.ZoneSegment{ID: 0, StartRelMs: relMs})
	}
}

func (b *Builder) handleUnitAdded(relMs int64, f *record.UnitFields) {
	if idx, ok := b.unitIndex[f.UnitID]; ok && b.session.Units[idx].IsActive {
		b.session.Units[idx].IsActive = false
		b.session.Units[idx].LastSeenRelMs = relMs
	}
	b.session.Units = append(b.session.Units, logmodel.UnitInfo{
		UnitID:         f.UnitID,
		UnitType:       f.UnitType,
		IsLocal:        f.IsLocal,
		GroupIndex:     f.GroupIndex,
		MonsterID:      f.MonsterID,
		IsBoss:         f.IsBoss,
		ClassID:        f.ClassID,
		RaceID:         f.RaceID,
		Name:           f.Name,
		Account:        f.Account,
		CharacterID:    f.CharacterID,
		Level:          f.Level,
		ChampionPoints: f.ChampionPoints,
		Disposition:    f.Disposition,
		IsGrouped:      f.IsGrouped,
		IsActive:       true,
		FirstSeenRelMs: relMs,
		LastSeenRelMs:  relMs,
	})
	b.unitIndex[f.UnitID] = len(b.session.Units) - 1
}

func (b *Builder) handleUnitChanged(relMs int64, f *record.UnitFields) {
	idx, ok := b.unitIndex[f.UnitID]
	if !ok {
		// No prior UNIT_ADDED observed; create a minimal entry rather than
		// drop the data.
		b.session.Units = append(b.session.Units, logmodel.UnitInfo{
			UnitID: f.UnitID, IsActive: true, FirstSeenRelMs: relMs,
		})
		idx = len(b.session.Units) - 1
		b.unitIndex[f.UnitID] = idx
	}
	u := &b.session.Units[idx]
	if f.ClassID != nil {
		u.ClassID = f.ClassID
	}
	if f.RaceID != nil {
		u.RaceID = f.RaceID
	}
	u.Name = f.Name
	u.Account = f.Account
	u.CharacterID = f.CharacterID
	u.Level = f.Level
	u.ChampionPoints = f.ChampionPoints
	u.Disposition = f.Disposition
	u.IsGrouped = f.IsGrouped
	u.LastSeenRelMs = relMs
}

func (b *Builder) handleUnitRemoved(relMs int64, unitID int) {
	idx, ok := b.unitIndex[unitID]
	if !ok {
		return
	}
	b.session.Units[idx].IsActive = false
	b.session.Units[idx].LastSeenRelMs = relMs
}

// isHardModeName flags an ability as a hard-mode marker if its name
// contains "Hard Mode" (case-insensitive) or both "HM" and "Mode" (spec
// §4.3). This is a name heuristic, so a session's IsHardMode is not
// authoritative.
func isHardModeName(name string) bool {
	if strings.Contains(strings.ToUpper(name), "HARD MODE") {
		return true
	}
	return strings.Contains(name, "HM") && strings.Contains(name, "Mode")
}

func (b *Builder) handleAbilityInfo(f *record.AbilityInfoFields) {
	def := logmodel.AbilityDef{
		AbilityID: f.AbilityID,
		Name:      f.Name,
		Icon:      f.Icon,
		IsPassive: f.IsPassive,
		IsPlayer:  f.IsPlayer,
	}
	if isHardModeName(f.Name) {
		def.IsHardMode = true
		b.hardModeAbilities[f.AbilityID] = true
	}
	b.session.Abilities[f.AbilityID] = def
}

func (b *Builder) handleEffectInfo(f *record.EffectInfoFields) {
	b.session.Effects[f.AbilityID] = logmodel.EffectDef{
		AbilityID:     f.AbilityID,
		Kind:          f.Kind,
		DamageType:    f.DamageType,
		DurationType:  f.DurationType,
		LinkedAbility: f.LinkedAbility,
	}
}

func (b *Builder) handlePlayerInfo(relMs int64, f *record.PlayerInfoFields) {
	b.session.PlayerInfos = append(b.session.PlayerInfos, logmodel.PlayerInfoSnapshot{
		RelMs: relMs, UnitID: f.UnitID, Passives: f.Passives, Ranks: f.Ranks,
		Gear: f.Gear, Front: f.Front, Back: f.Back,
	})
}

func (b *Builder) handleBeginCombat(relMs int64) {
	if b.currentFight != nil {
		return // already InFight; not nested (spec §4.4)
	}
	b.ensureZone(relMs)
	b.currentFight = fight.NewBuilder(uuid.NewString(), relMs, b.hardModeAbilities)
}

func (b *Builder) handleEndCombat(relMs int64) {
	if b.currentFight == nil {
		return
	}
	b.closeFight(relMs)
}

func (b *Builder) closeFight(relMs int64) {
	zone := &b.session.Zones[len(b.session.Zones)-1]
	var mapName, mapKey string
	if n := len(zone.Maps); n > 0 {
		mapName, mapKey = zone.Maps[n-1].MapName, zone.Maps[n-1].MapKey
	}

	lookup := func(unitID int) (fight.UnitMeta, bool) {
		idx, ok := b.unitIndex[unitID]
		if !ok {
			return fight.UnitMeta{}, false
		}
		u := b.session.Units[idx]
		return fight.UnitMeta{UnitType: u.UnitType, Disposition: u.Disposition, IsBoss: u.IsBoss, Name: u.Name}, true
	}

	res := b.currentFight.Finalize(relMs, b.session.ID, zone.ID, b.fightOrdinal, zone.ZoneName, zone.Difficulty, mapName, mapKey, lookup)
	b.fightOrdinal++
	zone.Fights = append(zone.Fights, res.Summary)
	b.fightRecords = append(b.fightRecords, FightRecord{
		SessionID: b.session.ID,
		Summary:   res.Summary,
		Detail:    res.Detail,
		Series:    res.Series,
	})
	b.currentFight = nil
}

func (b *Builder) handleBeginTrial(relMs int64, f *record.BeginTrialFields) {
	b.openTrial = &logmodel.TrialRun{TrialKey: f.TrialKey, StartRelMs: relMs, StartUnixMs: f.UnixStartMs}
}

func (b *Builder) handleEndTrial(relMs int64, f *record.EndTrialFields) {
	trial := b.openTrial
	if trial == nil {
		trial = &logmodel.TrialRun{
			TrialKey:    f.TrialKey,
			StartRelMs:  relMs,
			StartUnixMs: b.session.UnixStartMs + relMs,
			Synthesized: true,
		}
	}
	trial.EndRelMs = relMs
	trial.EndUnixMs = b.session.UnixStartMs + relMs
	if f.DurationMs != nil {
		trial.DurationMs = *f.DurationMs
	} else if d := relMs - trial.StartRelMs; d > 0 {
		trial.DurationMs = d
	} else {
		trial.DurationMs = 0
	}
	trial.Success = f.Success
	trial.FinalScore = f.FinalScore
	trial.Vitality = f.Vitality
	b.session.Trials = append(b.session.Trials, *trial)
	b.openTrial = nil
}

func (b *Builder) handleTrialInit(f *record.TrialInitFields) {
	key := f.TrialKey
	b.session.TrialInitKey = &key
}

func (b *Builder) handleHealthRegen(relMs int64, f *record.HealthRegenFields) {
	if b.currentFight != nil {
		b.currentFight.HandleHealthRegen(relMs, f)
	}
}
