package record

import (
	"strconv"
	"strings"

	"github.com/esolog/logpipeline/internal/logmodel"
	"github.com/esolog/logpipeline/internal/tokenize"
	"github.com/esolog/logpipeline/internal/unitblock"
)

// Kind is the tagged discriminator of a parsed Event. Modelling record
// types as a single flat variant (Kind plus one populated payload field)
// rather than dispatching on the type string at every consumer keeps the
// session and fight state machines small (spec §9 design note).
type Kind string

const (
	KindBeginLog     Kind = "BEGIN_LOG"
	KindEndLog       Kind = "END_LOG"
	KindZoneChanged  Kind = "ZONE_CHANGED"
	KindMapChanged   Kind = "MAP_CHANGED"
	KindUnitAdded    Kind = "UNIT_ADDED"
	KindUnitChanged  Kind = "UNIT_CHANGED"
	KindUnitRemoved  Kind = "UNIT_REMOVED"
	KindAbilityInfo  Kind = "ABILITY_INFO"
	KindEffectInfo   Kind = "EFFECT_INFO"
	KindPlayerInfo   Kind = "PLAYER_INFO"
	KindBeginCombat  Kind = "BEGIN_COMBAT"
	KindEndCombat    Kind = "END_COMBAT"
	KindCombatEvent  Kind = "COMBAT_EVENT"
	KindEffectChanged Kind = "EFFECT_CHANGED"
	KindBeginCast    Kind = "BEGIN_CAST"
	KindEndCast      Kind = "END_CAST"
	KindHealthRegen  Kind = "HEALTH_REGEN"
	KindTrialInit    Kind = "TRIAL_INIT"
	KindBeginTrial   Kind = "BEGIN_TRIAL"
	KindEndTrial     Kind = "END_TRIAL"
	KindUnknown      Kind = ""
)

// Event is one parsed log record. Exactly one of the payload fields is
// non-nil, selected by Kind; Unknown records carry no payload and are
// reported to the caller via ok=false from Parse so the session builder
// can bump its unhandled-type counter itself (spec §4.3, §7).
type Event struct {
	RelMs int64
	Kind  Kind
	Raw   []string

	BeginLog      *BeginLogFields
	ZoneChanged   *ZoneChangedFields
	MapChanged    *MapChangedFields
	UnitAdded     *UnitFields
	UnitChanged   *UnitFields
	UnitRemoved   *UnitRemovedFields
	AbilityInfo   *AbilityInfoFields
	EffectInfo    *EffectInfoFields
	PlayerInfo    *PlayerInfoFields
	CombatEvent   *CombatEventFields
	EffectChanged *EffectChangedFields
	BeginCast     *BeginCastFields
	EndCast       *EndCastFields
	HealthRegen   *HealthRegenFields
	TrialInit     *TrialInitFields
	BeginTrial    *BeginTrialFields
	EndTrial      *EndTrialFields
}

type BeginLogFields struct {
	UnixStartMs int64
	Server      string
	Language    string
	Patch       string
}

type ZoneChangedFields struct {
	ZoneID     int
	ZoneName   string
	Difficulty string
}

type MapChangedFields struct {
	MapID   int
	MapName string
	MapKey  string
}

type UnitFields struct {
	UnitID         int
	UnitType       string // only set by UNIT_ADDED
	IsLocal        bool   // only set by UNIT_ADDED
	GroupIndex     *int   // only set by UNIT_ADDED
	MonsterID      *int   // only set by UNIT_ADDED
	IsBoss         bool   // only set by UNIT_ADDED
	ClassID        *int
	RaceID         *int
	Name           string
	Account        string
	CharacterID    string
	Level          int
	ChampionPoints int
	Disposition    string
	IsGrouped      bool
}

type UnitRemovedFields struct {
	UnitID int
}

type AbilityInfoFields struct {
	AbilityID int
	Name      string
	Icon      string
	IsPassive bool
	IsPlayer  bool
}

type EffectInfoFields struct {
	AbilityID     int
	Kind          string
	DamageType    string
	DurationType  string
	LinkedAbility int
}

type PlayerInfoFields struct {
	UnitID   int
	Passives []int
	Ranks    []int
	Gear     []logmodel.GearPiece
	Front    []int
	Back     []int
}

type CombatEventFields struct {
	Result           string
	DamageType       string
	PowerType        int
	Damage           int
	Heal             int
	SourceInstanceID int
	AbilityID        int
	SourceUnitID     int
	SourceBlock      logmodel.UnitBlock
	SourceBlockOK    bool
	TargetUnitID     int // 0 when absent ('*')
	HasTarget        bool
	TargetBlock      logmodel.UnitBlock
	TargetBlockOK    bool
}

type EffectChangedFields struct {
	ChangeType       string
	EffectSlot       int
	EffectInstanceID int
	AbilityID        int
	TargetUnitID     int
	Block            logmodel.UnitBlock
	BlockOK          bool
}

type BeginCastFields struct {
	CastInstanceID int
	AbilityID      int
	CasterUnitID   int
	Block          logmodel.UnitBlock
	BlockOK        bool
}

type EndCastFields struct {
	Result         string
	CastInstanceID int
	AbilityID      int
}

type HealthRegenFields struct {
	UnitID     int
	Regen      int
	Block      logmodel.UnitBlock
	BlockOK    bool
	Unknown0   int
	SpecialCur int
	SpecialMax int
	X, Y, Z    float64
}

type TrialInitFields struct {
	TrialKey int
}

type BeginTrialFields struct {
	TrialKey    int
	UnixStartMs int64
}

type EndTrialFields struct {
	TrialKey int
	// DurationMs is nil when the field is absent from the record,
	// distinguishing "not provided" from an explicit 0 (spec §7's
	// missing-BEGIN_TRIAL fallback depends on the distinction).
	DurationMs *int64
	Success    bool
	FinalScore int64
	Vitality   int
}

// Parse tokenizes remaining with the plain-CSV tokenizer (bracket-aware
// for PLAYER_INFO) and builds the typed Event for typ. ok is false only
// for a type not in the recognised set; the caller is responsible for the
// unhandled-type bookkeeping (spec §7).
func Parse(relMs int64, typ string, remaining string) (Event, bool) {
	kind := Kind(typ)
	ev := Event{RelMs: relMs, Kind: kind}

	switch kind {
	case KindPlayerInfo:
		ev.Raw = tokenize.BracketFields(remaining)
	default:
		ev.Raw = tokenize.Fields(remaining)
	}
	f := ev.Raw

	switch kind {
	case KindBeginLog:
		ev.BeginLog = &BeginLogFields{
			UnixStartMs: atoi64(at(f, 1)),
			Server:      at(f, 3),
			Language:    at(f, 4),
			Patch:       at(f, 5),
		}
	case KindEndLog:
		// no payload
	case KindZoneChanged:
		ev.ZoneChanged = &ZoneChangedFields{
			ZoneID:     atoi(at(f, 0)),
			ZoneName:   at(f, 1),
			Difficulty: at(f, 2),
		}
	case KindMapChanged:
		ev.MapChanged = &MapChangedFields{
			MapID:   atoi(at(f, 0)),
			MapName: at(f, 1),
			MapKey:  at(f, 2),
		}
	case KindUnitAdded:
		ev.UnitAdded = &UnitFields{
			UnitID:         atoi(at(f, 0)),
			UnitType:       at(f, 1),
			IsLocal:        atoTF(at(f, 2)),
			GroupIndex:     atoiPtr(at(f, 3)),
			MonsterID:      atoiPtr(at(f, 4)),
			IsBoss:         atoTF(at(f, 5)),
			ClassID:        atoiPtr(at(f, 6)),
			RaceID:         atoiPtr(at(f, 7)),
			Name:           at(f, 8),
			Account:        at(f, 9),
			CharacterID:    at(f, 10),
			Level:          atoi(at(f, 11)),
			ChampionPoints: atoi(at(f, 12)),
			Disposition:    at(f, 14),
			IsGrouped:      atoTF(at(f, 15)),
		}
	case KindUnitChanged:
		ev.UnitChanged = &UnitFields{
			UnitID:         atoi(at(f, 0)),
			ClassID:        atoiPtr(at(f, 1)),
			RaceID:         atoiPtr(at(f, 2)),
			Name:           at(f, 3),
			Account:        at(f, 4),
			CharacterID:    at(f, 5),
			Level:          atoi(at(f, 6)),
			ChampionPoints: atoi(at(f, 7)),
			Disposition:    at(f, 9),
			IsGrouped:      atoTF(at(f, 10)),
		}
	case KindUnitRemoved:
		ev.UnitRemoved = &UnitRemovedFields{UnitID: atoi(at(f, 0))}
	case KindAbilityInfo:
		ev.AbilityInfo = &AbilityInfoFields{
			AbilityID: atoi(at(f, 0)),
			Name:      at(f, 1),
			Icon:      at(f, 2),
			IsPassive: atoTF(at(f, 3)),
			IsPlayer:  atoTF(at(f, 4)),
		}
	case KindEffectInfo:
		ev.EffectInfo = &EffectInfoFields{
			AbilityID:     atoi(at(f, 0)),
			Kind:          at(f, 1),
			DamageType:    at(f, 2),
			DurationType:  at(f, 3),
			LinkedAbility: atoi(at(f, 4)),
		}
	case KindPlayerInfo:
		ev.PlayerInfo = parsePlayerInfo(f)
	case KindBeginCombat, KindEndCombat:
		// no payload
	case KindCombatEvent:
		ev.CombatEvent = parseCombatEvent(f)
	case KindEffectChanged:
		ev.EffectChanged = parseEffectChanged(f)
	case KindBeginCast:
		ev.BeginCast = parseBeginCast(f)
	case KindEndCast:
		ev.EndCast = &EndCastFields{
			Result:         at(f, 0),
			CastInstanceID: atoi(at(f, 1)),
			AbilityID:      atoi(at(f, 2)),
		}
	case KindHealthRegen:
		ev.HealthRegen = parseHealthRegen(f)
	case KindTrialInit, "TRAIL_INIT":
		ev.Kind = KindTrialInit
		ev.TrialInit = &TrialInitFields{TrialKey: atoi(at(f, 0))}
	case KindBeginTrial:
		ev.BeginTrial = &BeginTrialFields{
			TrialKey:    atoi(at(f, 0)),
			UnixStartMs: atoi64(at(f, 1)),
		}
	case KindEndTrial:
		ev.EndTrial = &EndTrialFields{
			TrialKey:   atoi(at(f, 0)),
			DurationMs: atoi64Ptr(at(f, 1)),
			Success:    atoTF(at(f, 2)),
			FinalScore: atoi64(at(f, 3)),
			Vitality:   atoi(at(f, 4)),
		}
	default:
		return ev, false
	}
	return ev, true
}

func parsePlayerInfo(f []string) *PlayerInfoFields {
	p := &PlayerInfoFields{UnitID: atoi(at(f, 0))}
	p.Passives = bracketInts(at(f, 1))
	p.Ranks = bracketInts(at(f, 2))
	p.Gear = bracketGear(at(f, 3))
	p.Front = bracketInts(at(f, 4))
	p.Back = bracketInts(at(f, 5))
	return p
}

// bracketInts parses a bare or bracketed integer list, tolerant of
// missing/empty input and of individual tokens that fail to parse
// (defaulted to 0, per spec §6).
func bracketInts(s string) []int {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		out = append(out, atoi(p))
	}
	return out
}

// bracketGear parses the PLAYER_INFO equipment list, shaped
// "[[FIELD,FIELD,...],[FIELD,...]]" (spec §4.3).
func bracketGear(s string) []logmodel.GearPiece {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return nil
	}
	pieces := strings.Split(s, "],[")
	out := make([]logmodel.GearPiece, 0, len(pieces))
	for _, piece := range pieces {
		piece = strings.TrimPrefix(piece, "[")
		piece = strings.TrimSuffix(piece, "]")
		if piece == "" {
			out = append(out, logmodel.GearPiece{})
			continue
		}
		fields := strings.Split(piece, ",")
		ints := make([]int, 0, len(fields))
		for _, fld := range fields {
			ints = append(ints, atoi(fld))
		}
		out = append(out, logmodel.GearPiece{Fields: ints})
	}
	return out
}

func parseCombatEvent(f []string) *CombatEventFields {
	ev := &CombatEventFields{
		Result:           at(f, 0),
		DamageType:       at(f, 1),
		PowerType:        atoi(at(f, 2)),
		Damage:           atoi(at(f, 3)),
		Heal:             atoi(at(f, 4)),
		SourceInstanceID: atoi(at(f, 5)),
		AbilityID:        atoi(at(f, 6)),
		SourceUnitID:     atoi(at(f, 7)),
	}

	// Source unit block starts at index 8; Parse stops exactly at its
	// end regardless of what follows, so the optional target section
	// (unit id, then optionally its own block) is read from there.
	block, consumed, ok := unitblock.Parse(f, 8)
	ev.SourceBlock, ev.SourceBlockOK = block, ok
	if !ok {
		return ev
	}

	tgtPos := 8 + consumed
	raw := at(f, tgtPos)
	if raw == "*" || raw == "" {
		return ev
	}
	ev.HasTarget = true
	ev.TargetUnitID = atoi(raw)

	if tgtPos+1 < len(f) {
		tblock, _, tok := unitblock.Parse(f, tgtPos+1)
		ev.TargetBlock, ev.TargetBlockOK = tblock, tok
	}
	return ev
}

func parseEffectChanged(f []string) *EffectChangedFields {
	ev := &EffectChangedFields{
		ChangeType:       at(f, 0),
		EffectSlot:       atoi(at(f, 1)),
		EffectInstanceID: atoi(at(f, 2)),
		AbilityID:        atoi(at(f, 3)),
		TargetUnitID:     atoi(at(f, 4)),
	}
	block, _, ok := unitblock.Parse(f, 5)
	ev.Block, ev.BlockOK = block, ok
	return ev
}

func parseBeginCast(f []string) *BeginCastFields {
	ev := &BeginCastFields{
		CastInstanceID: atoi(at(f, 2)),
		AbilityID:      atoi(at(f, 3)),
		CasterUnitID:   atoi(at(f, 4)),
	}
	block, _, ok := unitblock.Parse(f, 5)
	ev.Block, ev.BlockOK = block, ok
	return ev
}

// parseHealthRegen is deliberately best-effort: the trailing special pool
// and its preceding integer are only loosely specified upstream (spec §9
// Open Question ii). Unlike the generic unit block, the fifth cur/max
// pool here is not discarded — its value is the special resource pool —
// so the four required pools and the tail are parsed directly rather than
// through unitblock.Parse. Raw fields are always preserved on the Event
// for forensics regardless of whether this parse succeeds.
func parseHealthRegen(f []string) *HealthRegenFields {
	ev := &HealthRegenFields{
		UnitID: atoi(at(f, 0)),
		Regen:  atoi(at(f, 1)),
	}

	pos := 2
	pools := make([]logmodel.Pool, 4)
	for i := 0; i < 4; i++ {
		p, ok := unitblock.ParsePool(at(f, pos))
		if !ok {
			return ev
		}
		pools[i] = p
		pos++
	}
	ev.Block.Health, ev.Block.Magicka, ev.Block.Stamina, ev.Block.Ultimate = pools[0], pools[1], pools[2], pools[3]

	if special, ok := unitblock.ParsePool(at(f, pos)); ok {
		ev.SpecialCur, ev.SpecialMax = special.Cur, special.Max
		ev.Block.Extra = 1
		pos++
	}

	unknown, _, x, y, z, _, ok := unitblock.ParseTail(f, pos)
	if !ok {
		return ev
	}
	ev.Unknown0 = unknown
	ev.Block.X, ev.Block.Y, ev.Block.Z = x, y, z
	ev.X, ev.Y, ev.Z = x, y, z
	ev.BlockOK = true
	return ev
}

func at(f []string, i int) string {
	if i < 0 || i >= len(f) {
		return ""
	}
	return strings.TrimSpace(f[i])
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func atoi64(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func atof(s string) float64 {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return n
}

func atoTF(s string) bool {
	return strings.TrimSpace(s) == "T"
}

func atoiPtr(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func atoi64Ptr(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}
