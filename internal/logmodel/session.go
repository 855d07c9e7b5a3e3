package logmodel

// Session is one BEGIN_LOG/END_LOG interval: the top-level container for
// everything extracted from a log file.
type Session struct {
	ID              string               `json:"id"`
	Title           string               `json:"title"`
	UnixStartMs     int64                `json:"unixStartMs"`
	Server          string               `json:"server"`
	Language        string               `json:"language"`
	Patch           string               `json:"patch"`
	Abilities       map[int]AbilityDef   `json:"abilities"`
	Effects         map[int]EffectDef    `json:"effects"`
	Units           []UnitInfo           `json:"units"`
	Zones           []ZoneSegment        `json:"zones"`
	PlayerInfos     []PlayerInfoSnapshot `json:"playerInfos"`
	Trials          []TrialRun           `json:"trials"`
	UnhandledCounts map[string]int       `json:"unhandledCounts"`
	TrialInitKey    *int                 `json:"trialInitKey,omitempty"`

	// DisplayName is an operator-assigned override (setSessionDisplayName).
	DisplayName *string `json:"displayName,omitempty"`

	// EndRelMs is set on END_LOG, or on premature EOF to the last seen
	// relMs (spec §7, "Premature end-of-file").
	EndRelMs int64 `json:"endRelMs"`
}

// AbilityDef is an ABILITY_INFO record, upserted by id.
type AbilityDef struct {
	AbilityID  int    `json:"abilityId"`
	Name       string `json:"name"`
	Icon       string `json:"icon"`
	IsPassive  bool   `json:"isPassive"`
	IsPlayer   bool   `json:"isPlayer"`
	IsHardMode bool   `json:"isHardMode,omitempty"` // heuristic, see spec Open Question (iii)
}

// EffectDef is an EFFECT_INFO record, upserted by id.
type EffectDef struct {
	AbilityID      int    `json:"abilityId"`
	Kind           string `json:"kind"`
	DamageType     string `json:"damageType"`
	DurationType   string `json:"durationType"`
	LinkedAbility  int    `json:"linkedAbilityId,omitempty"`
}

// UnitInfo is one lifetime entry for a unit id. Unit ids are reused: when
// UNIT_ADDED arrives for an id that already has an active lifetime entry,
// that entry is closed and a new one appended (see invariant in spec §3).
type UnitInfo struct {
	UnitID         int    `json:"unitId"`
	UnitType       string `json:"unitType"`
	IsLocal        bool   `json:"isLocal"`
	GroupIndex     *int   `json:"groupIndex,omitempty"`
	MonsterID      *int   `json:"monsterId,omitempty"`
	IsBoss         bool   `json:"isBoss"`
	ClassID        *int   `json:"classId,omitempty"`
	RaceID         *int   `json:"raceId,omitempty"`
	Name           string `json:"name"`
	Account        string `json:"account"`
	CharacterID    string `json:"characterId"`
	Level          int    `json:"level"`
	ChampionPoints int    `json:"championPoints"`
	Disposition    string `json:"disposition"`
	IsGrouped      bool   `json:"isGrouped"`
	IsActive       bool   `json:"isActive"`
	FirstSeenRelMs int64  `json:"firstSeenRelMs"`
	LastSeenRelMs  int64  `json:"lastSeenRelMs"`
}

// ZoneSegment is a maximal interval between ZONE_CHANGED boundaries.
type ZoneSegment struct {
	ID         int            `json:"id"`
	StartRelMs int64          `json:"startRelMs"`
	EndRelMs   *int64         `json:"endRelMs,omitempty"`
	ZoneID     int            `json:"zoneId"`
	ZoneName   string         `json:"zoneName"`
	Difficulty string         `json:"difficulty"`
	Maps       []MapChange    `json:"maps"`
	Fights     []FightSummary `json:"fights"`
}

// MapChange is a MAP_CHANGED record within a zone segment.
type MapChange struct {
	RelMs   int64  `json:"relMs"`
	MapID   int    `json:"mapId"`
	MapName string `json:"mapName"`
	MapKey  string `json:"mapKey"`
}

// PlayerInfoSnapshot is one PLAYER_INFO record: passives, ranks and gear
// for a unit at a point in time.
type PlayerInfoSnapshot struct {
	RelMs    int64        `json:"relMs"`
	UnitID   int          `json:"unitId"`
	Passives []int        `json:"passives"`
	Ranks    []int        `json:"ranks"`
	Gear     []GearPiece  `json:"gear"`
	Front    []int        `json:"front"`
	Back     []int        `json:"back"`
}

// GearPiece is one entry of the PLAYER_INFO equipment list.
type GearPiece struct {
	Fields []int `json:"fields"`
}

// TrialRun is a BEGIN_TRIAL/END_TRIAL interval.
type TrialRun struct {
	TrialKey    int            `json:"trialKey"`
	StartRelMs  int64          `json:"startRelMs"`
	EndRelMs    int64          `json:"endRelMs"`
	StartUnixMs int64          `json:"startUnixMs"`
	EndUnixMs   int64          `json:"endUnixMs"`
	DurationMs  int64          `json:"durationMs"`
	Success     bool           `json:"success"`
	FinalScore  int64          `json:"finalScore"`
	Vitality    int            `json:"vitality"`
	BeginFields []string       `json:"beginFields,omitempty"`
	EndFields   []string       `json:"endFields,omitempty"`
	Synthesized bool           `json:"synthesized,omitempty"` // true if BEGIN_TRIAL was missing
}
