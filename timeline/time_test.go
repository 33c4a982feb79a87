package timeline

import "testing"

func TestTimePacking(t *testing.T) {
	cases := []struct {
		m    uint8
		tick uint32
	}{
		{0, 0},
		{3, 1200},
		{255, tickMask},
		{7, tickMask + 5},
	}
	for _, c := range cases {
		tm := At(c.m, c.tick)
		if tm.Map() != c.m || tm.Tick() != c.tick&tickMask {
			t.Fatalf("At(%d,%d) unpacked to %s", c.m, c.tick, tm)
		}
	}
	if got := At(2, 10).Add(5); got != At(2, 15) {
		t.Fatalf("Add kept map wrong: %s", got)
	}
	if At(0, 900).Compare(At(1, 3)) >= 0 {
		t.Fatalf("map index should dominate Compare")
	}
}

func TestEffectAndTypeNames(t *testing.T) {
	for _, e := range []Effect{EffectSet, EffectClear, EffectToggle, EffectHold} {
		got, ok := ParseEffect(e.String())
		if !ok || got != e {
			t.Fatalf("ParseEffect(%q) = %v, %v", e.String(), got, ok)
		}
	}
	if EffectSet.Invert() != EffectClear || EffectClear.Invert() != EffectSet || EffectToggle.Invert() != EffectToggle {
		t.Fatalf("unexpected Invert results")
	}
	for _, typ := range []Type{TypeDoor, TypeUpdateBehaviourCreature3, TypeFootprints} {
		got, ok := ParseType(typ.String())
		if !ok || got != typ {
			t.Fatalf("ParseType(%q) = %v, %v", typ.String(), got, ok)
		}
	}
	if !TypeWall.IsSpatial() || TypeDoorAnimation.IsSpatial() || !TypeGroupReactionHitByProjectile.IsGroup() || TypeMoveGroupSilent.IsGroup() {
		t.Fatalf("unexpected type classification")
	}
	for _, typ := range []Type{TypeInvisibility, TypeChampionShield, TypePartyShield, TypeFootprints} {
		if !typ.IsDefense() {
			t.Fatalf("%s should be a timed defense", typ)
		}
	}
	if TypeLight.IsDefense() || TypePoisonChampion.IsDefense() || TypeDoor.IsDefense() {
		t.Fatalf("unexpected defense classification")
	}
}
