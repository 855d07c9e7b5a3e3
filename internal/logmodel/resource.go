// Package logmodel defines the data model produced by the log ingestion
// pipeline: sessions, zone segments, unit lifetimes, fights and their
// aggregates. Types here are pure data — no parsing or I/O — so that the
// tokenizer, session/fight builders, store and query layer can all share
// one vocabulary.
package logmodel

// ResourceKind identifies which resource pool a power/resource event
// refers to. The game has reused powerType codes across patches; both the
// historical and current codes map onto the same ResourceKind (see
// spec Open Question (i)).
type ResourceKind int

const (
	ResourceUnknown ResourceKind = iota
	ResourceHealth
	ResourceMagicka
	ResourceStamina
	ResourceUltimate
)

func (k ResourceKind) String() string {
	switch k {
	case ResourceHealth:
		return "health"
	case ResourceMagicka:
		return "magicka"
	case ResourceStamina:
		return "stamina"
	case ResourceUltimate:
		return "ultimate"
	default:
		return "unknown"
	}
}

// ResourceKindFromPowerType maps a raw powerType column to a ResourceKind,
// accepting both historical and current codes.
func ResourceKindFromPowerType(powerType int) ResourceKind {
	switch powerType {
	case -2, 32:
		return ResourceHealth
	case 0, 1:
		return ResourceMagicka
	case 6, 4:
		return ResourceStamina
	case 10, 8:
		return ResourceUltimate
	default:
		return ResourceUnknown
	}
}
