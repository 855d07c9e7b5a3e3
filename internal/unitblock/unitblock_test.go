package unitblock

import "testing"

func TestParseMinimal(t *testing.T) {
	// 4 required pools, no extras, no optional int, then xyz, no trailing fields.
	fields := []string{"100/100", "200/200", "300/300", "0/0", "1.5", "2.5", "3.5"}
	b, n, ok := Parse(fields, 0)
	if !ok {
		t.Fatalf("expected ok")
	}
	if n != len(fields) {
		t.Fatalf("consumed = %d, want %d", n, len(fields))
	}
	if b.Health.Cur != 100 || b.Health.Max != 100 {
		t.Errorf("health = %+v", b.Health)
	}
	if b.Ultimate.Cur != 0 || b.Ultimate.Max != 0 {
		t.Errorf("ultimate = %+v", b.Ultimate)
	}
	if b.X != 1.5 || b.Y != 2.5 || b.Z != 3.5 {
		t.Errorf("xyz = %v,%v,%v", b.X, b.Y, b.Z)
	}
	if b.Extra != 0 {
		t.Errorf("extra = %d, want 0", b.Extra)
	}
}

func TestParseWithOptionalInt(t *testing.T) {
	fields := []string{"100/100", "200/200", "300/300", "0/0", "0", "1.5", "2.5", "3.5"}
	b, n, ok := Parse(fields, 0)
	if !ok {
		t.Fatalf("expected ok")
	}
	if n != len(fields) {
		t.Fatalf("consumed = %d, want %d", n, len(fields))
	}
	if b.X != 1.5 {
		t.Errorf("x = %v", b.X)
	}
}

func TestParseWithExtraPoolsAndTrailing(t *testing.T) {
	// Two extra pools (werewolf, shield), optional int, xyz, then one
	// trailing field (a target unit id) the caller leaves for itself.
	fields := []string{
		"100/100", "200/200", "300/300", "0/0",
		"10/10", "20/20",
		"0",
		"1.0", "2.0", "3.0",
		"42",
	}
	b, n, ok := Parse(fields, 0)
	if !ok {
		t.Fatalf("expected ok")
	}
	if n != len(fields)-1 {
		t.Fatalf("consumed = %d, want %d", n, len(fields)-1)
	}
	if b.Extra != 2 {
		t.Errorf("extra = %d, want 2", b.Extra)
	}
	if fields[n] != "42" {
		t.Errorf("trailing field not left unconsumed: fields[n] = %q", fields[n])
	}
}

func TestParseTooFewFields(t *testing.T) {
	fields := []string{"100/100", "200/200"}
	_, _, ok := Parse(fields, 0)
	if ok {
		t.Fatalf("expected failure on too few fields")
	}
}

func TestParseOffsetStart(t *testing.T) {
	fields := []string{"ignored", "100/100", "200/200", "300/300", "0/0", "1.0", "2.0", "3.0"}
	_, n, ok := Parse(fields, 1)
	if !ok {
		t.Fatalf("expected ok")
	}
	if n != len(fields)-1 {
		t.Fatalf("consumed = %d, want %d", n, len(fields)-1)
	}
}

func TestParseFollowedByTargetBlock(t *testing.T) {
	// Source block with no optional int, followed by a target unit id and
	// a full target block — exercises that Parse stops exactly at the end
	// of the source block rather than swallowing the target section.
	fields := []string{
		"100/100", "200/200", "300/300", "0/0",
		"1.0", "2.0", "3.0",
		"99",
		"50/50", "60/60", "70/70", "0/0",
		"4.0", "5.0", "6.0",
	}
	b, n, ok := Parse(fields, 0)
	if !ok {
		t.Fatalf("expected ok")
	}
	if n != 7 {
		t.Fatalf("consumed = %d, want 7 (stop before target id)", n)
	}
	if fields[n] != "99" {
		t.Errorf("fields[n] = %q, want target id 99", fields[n])
	}
	if b.X != 1.0 {
		t.Errorf("x = %v", b.X)
	}

	tb, tn, tok := Parse(fields, n+1)
	if !tok {
		t.Fatalf("expected target block ok")
	}
	if tn != 7 {
		t.Fatalf("target consumed = %d, want 7", tn)
	}
	if tb.X != 4.0 {
		t.Errorf("target x = %v", tb.X)
	}
}
