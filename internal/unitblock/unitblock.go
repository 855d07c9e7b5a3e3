// Package unitblock parses the variable-width "unit block" embedded in
// COMBAT_EVENT, EFFECT_CHANGED, BEGIN_CAST and HEALTH_REGEN records: four
// required health/magicka/stamina/ultimate pools, up to two tolerated
// extra pools, an optional integer, and exactly three trailing floats for
// position.
//
// The greedy reader is deliberate (spec §9 design note): a strict parser
// that rejects the extra pools or the optional integer regresses on
// clients that emit them. Parse consumes exactly one block starting at
// start and returns how many fields it used, so callers with more data
// after the block (COMBAT_EVENT's optional target section) can continue
// from the returned offset; it never needs to know how much trails.
package unitblock

import (
	"strconv"
	"strings"

	"github.com/esolog/logpipeline/internal/logmodel"
)

const maxExtraPools = 2

// Parse reads one unit block out of fields starting at index start. It
// returns the populated block, the number of fields consumed, and
// ok=false if the four required pools or the three position floats could
// not be parsed.
func Parse(fields []string, start int) (logmodel.UnitBlock, int, bool) {
	pos := start
	var block logmodel.UnitBlock

	pools := make([]logmodel.Pool, 4)
	for i := 0; i < 4; i++ {
		p, ok := parsePool(fieldAt(fields, pos))
		if !ok {
			return logmodel.UnitBlock{}, 0, false
		}
		pools[i] = p
		pos++
	}
	block.Health, block.Magicka, block.Stamina, block.Ultimate = pools[0], pools[1], pools[2], pools[3]

	extra := 0
	for extra < maxExtraPools {
		if _, ok := parsePool(fieldAt(fields, pos)); !ok {
			break
		}
		pos++
		extra++
	}
	block.Extra = extra

	_, _, x, y, z, tailConsumed, ok := ParseTail(fields, pos)
	if !ok {
		return logmodel.UnitBlock{}, 0, false
	}
	block.X, block.Y, block.Z = x, y, z
	return block, pos + tailConsumed - start, true
}

// ParseTail reads the "optional integer then three position floats" tail
// shared by unit blocks and HEALTH_REGEN's trailing specialCur/specialMax
// pair (spec §9 Open Question ii): an optional integer (often 0) and the
// three floats that follow it look alike when a coordinate happens to be
// written without a decimal point, so both placements are tried: a token
// without a '.' is preferred as the integer, falling back to the other
// reading if that leaves too few tokens for the three floats.
func ParseTail(fields []string, pos int) (intVal int, hasInt bool, x, y, z float64, consumed int, ok bool) {
	firstHasDot := strings.Contains(fieldAt(fields, pos), ".")
	offsets := []int{1, 0}
	if firstHasDot {
		offsets = []int{0, 1}
	}

	for _, off := range offsets {
		px, py, pz, pok := parseXYZ(fields, pos+off)
		if !pok {
			continue
		}
		if off == 1 {
			intVal, hasInt = atoiOr0(fieldAt(fields, pos)), true
		}
		return intVal, hasInt, px, py, pz, off + 3, true
	}
	return 0, false, 0, 0, 0, 0, false
}

func atoiOr0(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func parseXYZ(fields []string, pos int) (x, y, z float64, ok bool) {
	var err error
	x, err = strconv.ParseFloat(strings.TrimSpace(fieldAt(fields, pos)), 64)
	if err != nil {
		return 0, 0, 0, false
	}
	y, err = strconv.ParseFloat(strings.TrimSpace(fieldAt(fields, pos+1)), 64)
	if err != nil {
		return 0, 0, 0, false
	}
	z, err = strconv.ParseFloat(strings.TrimSpace(fieldAt(fields, pos+2)), 64)
	if err != nil {
		return 0, 0, 0, false
	}
	return x, y, z, true
}

func fieldAt(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}

// ParsePool parses a "cur/max" token, exported for callers that need a
// pool's value rather than just its presence (e.g. HEALTH_REGEN's special
// pool, which unitblock.Parse's generic extra-pool handling would
// otherwise discard).
func ParsePool(s string) (logmodel.Pool, bool) {
	return parsePool(s)
}

// parsePool parses a "cur/max" token.
func parsePool(s string) (logmodel.Pool, bool) {
	s = strings.TrimSpace(s)
	slash := strings.IndexByte(s, '/')
	if slash < 0 {
		return logmodel.Pool{}, false
	}
	cur, err := strconv.Atoi(strings.TrimSpace(s[:slash]))
	if err != nil {
		return logmodel.Pool{}, false
	}
	max, err := strconv.Atoi(strings.TrimSpace(s[slash+1:]))
	if err != nil {
		return logmodel.Pool{}, false
	}
	return logmodel.Pool{Cur: cur, Max: max}, true
}
