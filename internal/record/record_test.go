package record

import "testing"

func TestFrameLineBasic(t *testing.T) {
	fr, ok := FrameLine("1000,COMBAT_EVENT,a,b,c")
	if !ok {
		t.Fatalf("expected ok")
	}
	if fr.RelMs != 1000 || fr.Type != "COMBAT_EVENT" || fr.Remaining != "a,b,c" {
		t.Errorf("got %+v", fr)
	}
}

func TestFrameLineNoRemaining(t *testing.T) {
	fr, ok := FrameLine("10,END_LOG")
	if !ok {
		t.Fatalf("expected ok")
	}
	if fr.Type != "END_LOG" || fr.Remaining != "" {
		t.Errorf("got %+v", fr)
	}
}

func TestFrameLineBOM(t *testing.T) {
	fr, ok := FrameLine("\xef\xbb\xbf0,BEGIN_LOG,x")
	if !ok || fr.RelMs != 0 || fr.Type != "BEGIN_LOG" {
		t.Errorf("got %+v ok=%v", fr, ok)
	}
}

func TestFrameLineMalformed(t *testing.T) {
	cases := []string{"", "notanumber,FOO", "BEGIN_LOG"}
	for _, c := range cases {
		if _, ok := FrameLine(c); ok {
			t.Errorf("FrameLine(%q) unexpectedly ok", c)
		}
	}
}

func TestParseBeginLog(t *testing.T) {
	ev, ok := Parse(0, "BEGIN_LOG", "14,1700000000000,1,NA,EN,10.0")
	if !ok {
		t.Fatalf("expected ok")
	}
	if ev.BeginLog == nil {
		t.Fatalf("BeginLog payload missing")
	}
	if ev.BeginLog.UnixStartMs != 1700000000000 {
		t.Errorf("unixStartMs = %d", ev.BeginLog.UnixStartMs)
	}
	if ev.BeginLog.Server != "NA" || ev.BeginLog.Language != "EN" || ev.BeginLog.Patch != "10.0" {
		t.Errorf("got %+v", ev.BeginLog)
	}
}

func TestParseUnknownType(t *testing.T) {
	_, ok := Parse(0, "SOME_FUTURE_TYPE", "a,b")
	if ok {
		t.Errorf("expected unknown type to report ok=false")
	}
}

func TestParseCombatEventNoTarget(t *testing.T) {
	// result,damageType,powerType,damage,heal,sourceInstanceId,abilityId,sourceUnitId,<block>,'*'
	remaining := "COMBAT,1,1,100,0,1,7,1," +
		"1000/1000,2000/2000,3000/3000,0/0,1.0,2.0,3.0,*"
	ev, ok := Parse(1500, "COMBAT_EVENT", remaining)
	if !ok {
		t.Fatalf("expected ok")
	}
	ce := ev.CombatEvent
	if ce == nil {
		t.Fatalf("CombatEvent payload missing")
	}
	if ce.Damage != 100 || ce.AbilityID != 7 || ce.SourceUnitID != 1 {
		t.Errorf("got %+v", ce)
	}
	if !ce.SourceBlockOK {
		t.Errorf("expected source block ok")
	}
	if ce.HasTarget {
		t.Errorf("expected no target")
	}
}

func TestParseCombatEventWithTarget(t *testing.T) {
	remaining := "CRITICAL DAMAGE,1,1,150,0,1,7,1," +
		"1000/1000,2000/2000,3000/3000,0/0,1.0,2.0,3.0," +
		"2," +
		"500/1000,600/600,700/700,0/0,4.0,5.0,6.0"
	ev, ok := Parse(1000, "COMBAT_EVENT", remaining)
	if !ok {
		t.Fatalf("expected ok")
	}
	ce := ev.CombatEvent
	if !ce.HasTarget || ce.TargetUnitID != 2 {
		t.Errorf("got %+v", ce)
	}
	if !ce.TargetBlockOK || ce.TargetBlock.Health.Cur != 500 {
		t.Errorf("target block = %+v ok=%v", ce.TargetBlock, ce.TargetBlockOK)
	}
}

func TestParseEndCastOrphan(t *testing.T) {
	ev, ok := Parse(2000, "END_CAST", "COMPLETED,55,9")
	if !ok {
		t.Fatalf("expected ok")
	}
	if ev.EndCast == nil || ev.EndCast.CastInstanceID != 55 || ev.EndCast.AbilityID != 9 {
		t.Errorf("got %+v", ev.EndCast)
	}
}

func TestParsePlayerInfoGear(t *testing.T) {
	remaining := "3,[1,2,3],[4,5],[[1,2,3,4],[5,6,7,8]],[9],[10]"
	ev, ok := Parse(500, "PLAYER_INFO", remaining)
	if !ok {
		t.Fatalf("expected ok")
	}
	pi := ev.PlayerInfo
	if pi == nil || pi.UnitID != 3 {
		t.Fatalf("got %+v", pi)
	}
	if len(pi.Passives) != 3 || len(pi.Ranks) != 2 {
		t.Errorf("passives/ranks = %v / %v", pi.Passives, pi.Ranks)
	}
	if len(pi.Gear) != 2 || len(pi.Gear[0].Fields) != 4 {
		t.Errorf("gear = %+v", pi.Gear)
	}
}

func TestParseTrailInitMisspelling(t *testing.T) {
	ev, ok := Parse(0, "TRAIL_INIT", "42")
	if !ok {
		t.Fatalf("expected ok")
	}
	if ev.Kind != KindTrialInit || ev.TrialInit == nil || ev.TrialInit.TrialKey != 42 {
		t.Errorf("got %+v", ev)
	}
}

func TestParseEndTrial(t *testing.T) {
	ev, ok := Parse(5000, "END_TRIAL", "42,4500,T,123456,80")
	if !ok {
		t.Fatalf("expected ok")
	}
	et := ev.EndTrial
	if et.TrialKey != 42 || et.DurationMs == nil || *et.DurationMs != 4500 || !et.Success || et.FinalScore != 123456 || et.Vitality != 80 {
		t.Errorf("got %+v", et)
	}
}

func TestParseEndTrialMissingDuration(t *testing.T) {
	ev, ok := Parse(5000, "END_TRIAL", "42,,T,123456,80")
	if !ok {
		t.Fatalf("expected ok")
	}
	if ev.EndTrial.DurationMs != nil {
		t.Errorf("DurationMs = %v, want nil for an absent field", *ev.EndTrial.DurationMs)
	}
}

func TestParseHealthRegenWithSpecialPool(t *testing.T) {
	// unitId, regen, 4 required pools, special pool, unknown int, x, y, z.
	remaining := "5,230,1000/1000,2000/2000,3000/3000,0/0,50/100,0,1.1,2.2,3.3"
	ev, ok := Parse(9000, "HEALTH_REGEN", remaining)
	if !ok {
		t.Fatalf("expected ok")
	}
	hr := ev.HealthRegen
	if hr.UnitID != 5 || hr.Regen != 230 {
		t.Errorf("got %+v", hr)
	}
	if !hr.BlockOK {
		t.Fatalf("expected block ok")
	}
	if hr.SpecialCur != 50 || hr.SpecialMax != 100 {
		t.Errorf("special pool = %d/%d", hr.SpecialCur, hr.SpecialMax)
	}
	if hr.X != 1.1 || hr.Y != 2.2 || hr.Z != 3.3 {
		t.Errorf("xyz = %v,%v,%v", hr.X, hr.Y, hr.Z)
	}
}

func TestParseHealthRegenWithoutSpecialPool(t *testing.T) {
	remaining := "5,230,1000/1000,2000/2000,3000/3000,0/0,1.1,2.2,3.3"
	ev, ok := Parse(9000, "HEALTH_REGEN", remaining)
	if !ok {
		t.Fatalf("expected ok")
	}
	hr := ev.HealthRegen
	if hr.SpecialCur != 0 || hr.SpecialMax != 0 {
		t.Errorf("expected no special pool, got %d/%d", hr.SpecialCur, hr.SpecialMax)
	}
	if !hr.BlockOK || hr.X != 1.1 {
		t.Errorf("got %+v", hr)
	}
}
