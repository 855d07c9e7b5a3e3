package logmodel

// Pool is a cur/max pair for a resource (health/magicka/stamina/ultimate).
type Pool struct {
	Cur int `json:"cur"`
	Max int `json:"max"`
}

// UnitBlock is the parsed variable-width "unit block" that accompanies
// combat events, effect-changed records, begin-cast and health-regen
// records: four required pools, up to two tolerated extra pools (counted
// in Extra, their values discarded), an optional integer before the
// coordinates (not kept), and three floats for position.
type UnitBlock struct {
	Health   Pool    `json:"health"`
	Magicka  Pool    `json:"magicka"`
	Stamina  Pool    `json:"stamina"`
	Ultimate Pool    `json:"ultimate"`
	Extra    int     `json:"extra,omitempty"` // number of extra cur/max pools after the four required ones (0-2)
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
}
