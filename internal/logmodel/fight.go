package logmodel

// FightSummary is the lightweight record of one BEGIN_COMBAT/END_COMBAT
// interval, stored alongside its owning zone segment.
type FightSummary struct {
	ID            string   `json:"id"`
	SessionID     string   `json:"sessionId"`
	ZoneSegmentID int      `json:"zoneSegmentId"`
	StartRelMs    int64    `json:"startRelMs"`
	EndRelMs      int64    `json:"endRelMs"`
	Title         string   `json:"title"`
	ZoneName      string   `json:"zoneName"`
	Difficulty    string   `json:"difficulty"`
	MapName       string   `json:"mapName,omitempty"`
	MapKey        string   `json:"mapKey,omitempty"`
	IsHardMode    bool     `json:"isHardMode"`
	BossUnitIDs   []int    `json:"bossUnitIds"`
	BossNames     []string `json:"bossNames"`
}

// CombatAgg is a (sourceUnitId, targetUnitId, abilityId)-keyed damage or
// heal accumulator.
type CombatAgg struct {
	SourceUnitID  int `json:"sourceUnitId"`
	TargetUnitID  int `json:"targetUnitId"`
	AbilityID     int `json:"abilityId"`
	Total         int `json:"total"`
	Hits          int `json:"hits"`
	Crits         int `json:"crits"`
	ActiveSeconds int `json:"activeSeconds"`
	Overheal      int `json:"overheal"`

	lastSecond int // not serialized; used only while accumulating
}

// CombatAggKey identifies one CombatAgg bucket.
type CombatAggKey struct {
	SourceUnitID int
	TargetUnitID int
	AbilityID    int
}

// UnitTotals accumulates the per-unit scalar totals materialised at
// END_COMBAT.
type UnitTotals struct {
	UnitID          int `json:"unitId"`
	DamageDone      int `json:"damageDone"`
	DamageTaken     int `json:"damageTaken"`
	HealingDone     int `json:"healingDone"`
	HealingTaken    int `json:"healingTaken"`
	ResourceGained  int `json:"resourceGained"`
	Deaths          int `json:"deaths"`
	Casts           int `json:"casts"`
}

// ResourceEvent records one ENERGIZE/DRAIN resource change.
type ResourceEvent struct {
	RelMs        int64        `json:"relMs"`
	ReceiverID   int          `json:"receiverId"`
	SourceID     int          `json:"sourceId"`
	AbilityID    int          `json:"abilityId"`
	Kind         ResourceKind `json:"kind"`
	Amount       int          `json:"amount"` // signed: negative for DRAIN
	Result       string       `json:"result"`
}

// EffectUptime is the accumulated GAINED/UPDATED/FADED interval state for
// one (targetUnitId, abilityId) pair within a fight.
type EffectUptime struct {
	TargetUnitID int   `json:"targetUnitId"`
	AbilityID    int   `json:"abilityId"`
	TotalMs      int64 `json:"totalMs"`
	Applications int   `json:"applications"`

	openSinceRelMs *int64 // not serialized; open-interval bookkeeping
}

// IsOpen reports whether this uptime interval is currently open.
func (e *EffectUptime) IsOpen() bool { return e.openSinceRelMs != nil }

// Open starts the interval at relMs if not already open (an open interval
// keeps its original start), and increments Applications, matching
// GAINED/UPDATED semantics from spec §4.4.
func (e *EffectUptime) Open(relMs int64) {
	if e.openSinceRelMs == nil {
		start := relMs
		e.openSinceRelMs = &start
	}
	e.Applications++
}

// Close ends the open interval at relMs, adding max(0, relMs-start) to
// TotalMs. No-op if not open.
func (e *EffectUptime) Close(relMs int64) {
	if e.openSinceRelMs == nil {
		return
	}
	delta := relMs - *e.openSinceRelMs
	if delta > 0 {
		e.TotalMs += delta
	}
	e.openSinceRelMs = nil
}

// EffectChangedEvent is the raw EFFECT_CHANGED record, retained verbatim
// on the fight for forensics/round-tripping.
type EffectChangedEvent struct {
	RelMs          int64  `json:"relMs"`
	ChangeType     string `json:"changeType"`
	EffectSlot     int    `json:"effectSlot"`
	EffectInstance int    `json:"effectInstanceId"`
	AbilityID      int    `json:"abilityId"`
	TargetUnitID   int    `json:"targetUnitId"`
	Pool           Pool   `json:"pool"`
	Extras         int    `json:"extras"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Z              float64 `json:"z"`
}

// HealthRegenEvent is a per-unit HEALTH_REGEN snapshot. The trailing
// special-resource pair and the lone preceding integer are only loosely
// specified (spec Open Question (ii)) and are preserved best-effort.
type HealthRegenEvent struct {
	RelMs       int64 `json:"relMs"`
	UnitID      int   `json:"unitId"`
	Regen       int   `json:"regen"`
	Health      Pool  `json:"health"`
	Magicka     Pool  `json:"magicka"`
	Stamina     Pool  `json:"stamina"`
	Ultimate    Pool  `json:"ultimate"`
	SpecialCur  int   `json:"specialCur,omitempty"`
	SpecialMax  int   `json:"specialMax,omitempty"`
	Unknown0    int   `json:"unknown0,omitempty"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
}

// CombatSample is one per-event damage/heal observation, retained for
// every combat event with non-zero damage or heal (used to bucket
// per-second series with filters in the query layer).
type CombatSample struct {
	RelMs        int64  `json:"relMs"`
	SourceUnitID int    `json:"sourceUnitId"`
	TargetUnitID int    `json:"targetUnitId"` // 0 if absent
	AbilityID    int    `json:"abilityId"`
	Damage       int    `json:"damage"`
	Heal         int    `json:"heal"`
	Overheal     int    `json:"overheal"`
	IsCrit       bool   `json:"isCrit"`
	Result       string `json:"result"`
}

// CastResult is the outcome recorded on a closed cast.
type CastResult string

const (
	CastResultCompleted CastResult = "COMPLETED"
	CastResultInterrupt CastResult = "INTERRUPTED"
	CastResultOpen      CastResult = "OPEN" // still open at END_COMBAT
)

// CastEntry is one BEGIN_CAST/END_CAST pairing.
type CastEntry struct {
	CastInstanceID int        `json:"castInstanceId"`
	AbilityID      int        `json:"abilityId"`
	CasterUnitID   int        `json:"casterUnitId"` // sentinel (-1) for orphan END_CAST
	BeginRelMs     int64      `json:"beginRelMs"`
	EndRelMs       *int64     `json:"endRelMs,omitempty"`
	Result         CastResult `json:"result"`
	Pool           *Pool      `json:"pool,omitempty"`
}

// OrphanCasterID is the sentinel caster id used for an END_CAST with no
// matching open BEGIN_CAST (spec §4.4, scenario S6).
const OrphanCasterID = -1

// DeathEvent records a KILLING_BLOW / DIED / UNIT_DIED attribution.
type DeathEvent struct {
	RelMs        int64 `json:"relMs"`
	VictimUnitID int   `json:"victimUnitId"`
	KillerUnitID int   `json:"killerUnitId,omitempty"`
}

// FightSeriesPoint is one dense per-second entry in a fight's damage/heal
// timeline, over [0, maxSecond].
type FightSeriesPoint struct {
	Second int `json:"second"`
	Damage int `json:"damage"`
	Heal   int `json:"heal"`
}

// FightDetail is the full materialised record of one fight, built
// entirely in memory and serialised once at END_COMBAT.
type FightDetail struct {
	FightID  string `json:"fightId"`
	MaxSecond int   `json:"maxSecond"`

	FriendlyUnitIDs []int `json:"friendlyUnitIds"`
	EnemyUnitIDs    []int `json:"enemyUnitIds"`

	UnitTotals map[int]*UnitTotals `json:"unitTotals"`

	DamageDoneByUnitAbility   map[int]map[int]int `json:"damageDoneByUnitAbility"`
	DamageTakenByUnitAbility  map[int]map[int]int `json:"damageTakenByUnitAbility"`
	HealDoneByUnitAbility     map[int]map[int]int `json:"healDoneByUnitAbility"`
	HealTakenByUnitAbility    map[int]map[int]int `json:"healTakenByUnitAbility"`
	ResourceGainedByUnitAbility map[int]map[int]int `json:"resourceGainedByUnitAbility"`

	ResourceSamples map[int]map[int]UnitBlock `json:"resourceSamples"` // unitId -> second -> snapshot
	ResourceEvents  []ResourceEvent           `json:"resourceEvents"`

	EffectUptimes map[int]map[int]*EffectUptime `json:"effectUptimes"` // targetUnitId -> abilityId -> uptime
	EffectChanges []EffectChangedEvent          `json:"effectChanges"`
	HealthRegens  []HealthRegenEvent            `json:"healthRegens"`

	Casts  []CastEntry  `json:"casts"`
	Deaths []DeathEvent `json:"deaths"`

	DamageAgg map[CombatAggKey]*CombatAgg `json:"-"`
	HealAgg   map[CombatAggKey]*CombatAgg `json:"-"`
	// Exported flat lists for serialisation (map keys aren't JSON-able).
	DamageAggList []CombatAgg `json:"damageAgg"`
	HealAggList   []CombatAgg `json:"healAgg"`

	Samples []CombatSample `json:"samples,omitempty"`

	UnhandledCounts map[string]int `json:"unhandledCounts"`
}

// NewFightDetail returns a FightDetail with every map initialised so the
// fight builder never needs nil-checks while accumulating.
func NewFightDetail(fightID string) *FightDetail {
	return &FightDetail{
		FightID:                     fightID,
		UnitTotals:                  make(map[int]*UnitTotals),
		DamageDoneByUnitAbility:     make(map[int]map[int]int),
		DamageTakenByUnitAbility:    make(map[int]map[int]int),
		HealDoneByUnitAbility:       make(map[int]map[int]int),
		HealTakenByUnitAbility:      make(map[int]map[int]int),
		ResourceGainedByUnitAbility: make(map[int]map[int]int),
		ResourceSamples:             make(map[int]map[int]UnitBlock),
		EffectUptimes:               make(map[int]map[int]*EffectUptime),
		DamageAgg:                   make(map[CombatAggKey]*CombatAgg),
		HealAgg:                     make(map[CombatAggKey]*CombatAgg),
		UnhandledCounts:             make(map[string]int),
	}
}

// Totals returns the UnitTotals entry for unitID, creating it on first
// access.
func (fd *FightDetail) Totals(unitID int) *UnitTotals {
	t, ok := fd.UnitTotals[unitID]
	if !ok {
		t = &UnitTotals{UnitID: unitID}
		fd.UnitTotals[unitID] = t
	}
	return t
}

// AddByUnitAbility increments nested[unitID][abilityID] by amount,
// allocating the inner map on first use.
func AddByUnitAbility(nested map[int]map[int]int, unitID, abilityID, amount int) {
	inner, ok := nested[unitID]
	if !ok {
		inner = make(map[int]int)
		nested[unitID] = inner
	}
	inner[abilityID] += amount
}

// Agg returns the CombatAgg bucket for key, creating it on first access.
func Agg(table map[CombatAggKey]*CombatAgg, key CombatAggKey) *CombatAgg {
	a, ok := table[key]
	if !ok {
		a = &CombatAgg{SourceUnitID: key.SourceUnitID, TargetUnitID: key.TargetUnitID, AbilityID: key.AbilityID, lastSecond: -1}
		table[key] = a
	}
	return a
}

// Observe records one contributing event at second for activeSeconds
// bookkeeping: activeSeconds increments only the first time a given
// second is observed for this aggregate.
func (a *CombatAgg) Observe(second int) {
	if a.lastSecond != second {
		a.ActiveSeconds++
		a.lastSecond = second
	}
}

// Finalize copies the map-keyed aggregates into their flat, JSON-able
// list form. Call once, at END_COMBAT, before serialising.
func (fd *FightDetail) Finalize() {
	fd.DamageAggList = flattenAgg(fd.DamageAgg)
	fd.HealAggList = flattenAgg(fd.HealAgg)
}

func flattenAgg(table map[CombatAggKey]*CombatAgg) []CombatAgg {
	out := make([]CombatAgg, 0, len(table))
	for _, a := range table {
		out = append(out, *a)
	}
	return out
}
