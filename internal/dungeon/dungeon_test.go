package dungeon

import (
	"testing"

	"github.com/duskhall/delve/internal/trap"
)

func TestBossLayout(t *testing.T) {
	d := New("crypt", "The Sunken Crypt", "seed-1", 30)

	tests := []struct {
		level int
		want  RoomType
	}{
		{10, RoomTypeBoss},
		{20, RoomTypeBoss},
		{30, RoomTypeBoss},
		{5, RoomTypeMidBoss},
		{15, RoomTypeMidBoss},
		{25, RoomTypeMidBoss},
	}

	for _, tc := range tests {
		room, err := d.RoomAt(tc.level)
		if err != nil {
			t.Fatalf("RoomAt(%d): %v", tc.level, err)
		}
		if room.Type != tc.want {
			t.Errorf("RoomAt(%d).Type = %v, want %v", tc.level, room.Type, tc.want)
		}
	}
}

func TestRoomSeedsFollowConvention(t *testing.T) {
	d := New("crypt", "The Sunken Crypt", "abc", 20)
	room, err := d.RoomAt(7)
	if err != nil {
		t.Fatalf("RoomAt: %v", err)
	}
	if room.Seed != "abc-level-7" {
		t.Errorf("room seed = %q, want abc-level-7", room.Seed)
	}
}

func TestLazyGenerationIsDeterministic(t *testing.T) {
	a := New("crypt", "The Sunken Crypt", "same-seed", 50)
	b := New("crypt", "The Sunken Crypt", "same-seed", 50)

	for level := 1; level <= 50; level++ {
		ra, err := a.RoomAt(level)
		if err != nil {
			t.Fatalf("RoomAt(%d): %v", level, err)
		}
		rb, err := b.RoomAt(level)
		if err != nil {
			t.Fatalf("RoomAt(%d): %v", level, err)
		}
		if ra != rb {
			t.Fatalf("level %d rooms diverged: %+v vs %+v", level, ra, rb)
		}
	}
}

func TestRoomAtOutOfRange(t *testing.T) {
	d := New("crypt", "The Sunken Crypt", "s", 10)
	if _, err := d.RoomAt(0); err == nil {
		t.Error("RoomAt(0) succeeded, want error")
	}
	if _, err := d.RoomAt(11); err == nil {
		t.Error("RoomAt(11) succeeded, want error")
	}
}

func TestDepthClamped(t *testing.T) {
	d := New("abyss", "The Abyss", "s", 500)
	if d.Depth != MaxDepth {
		t.Errorf("Depth = %d, want clamped to %d", d.Depth, MaxDepth)
	}
	if d2 := New("pit", "The Pit", "s", 0); d2.Depth != 1 {
		t.Errorf("Depth = %d, want floor of 1", d2.Depth)
	}
}

func TestTrapRoomsCarryKind(t *testing.T) {
	d := New("crypt", "The Sunken Crypt", "trapseed", 100)
	found := false
	for level := 1; level <= 100; level++ {
		room, err := d.RoomAt(level)
		if err != nil {
			t.Fatalf("RoomAt(%d): %v", level, err)
		}
		if room.Type == RoomTypeTrap {
			found = true
			if room.TrapKind == "" {
				t.Errorf("level %d trap room has no subtype", level)
			}
		} else if room.TrapKind != "" {
			t.Errorf("level %d non-trap room carries subtype %s", level, room.TrapKind)
		}
	}
	if !found {
		t.Error("no trap rooms generated across 100 levels")
	}
}

func TestTrapKindsCoverFullVocabulary(t *testing.T) {
	// Roughly a hundred trap rooms across five deep dungeons; every
	// subtype, including ambush, must show up.
	kinds := make(map[trap.Kind]int)
	for _, seed := range []string{"ka", "kb", "kc", "kd", "ke"} {
		d := New("crypt", "The Sunken Crypt", seed, 100)
		for level := 1; level <= 100; level++ {
			room, err := d.RoomAt(level)
			if err != nil {
				t.Fatalf("RoomAt(%d): %v", level, err)
			}
			if room.Type == RoomTypeTrap {
				kinds[room.TrapKind]++
			}
		}
	}

	for _, k := range []trap.Kind{trap.KindMechanical, trap.KindMagical, trap.KindFakeTreasure, trap.KindAmbush} {
		if kinds[k] == 0 {
			t.Errorf("no %s traps generated across 500 levels", k)
		}
	}
}

func TestParseRoomTypeRoundTrip(t *testing.T) {
	types := []RoomType{
		RoomTypeCombat, RoomTypeMidBoss, RoomTypeBoss,
		RoomTypeTrap, RoomTypeTreasure, RoomTypeSafe,
	}
	for _, rt := range types {
		parsed, ok := ParseRoomType(rt.String())
		if !ok || parsed != rt {
			t.Errorf("ParseRoomType(%q) = (%v, %v)", rt.String(), parsed, ok)
		}
	}
	if _, ok := ParseRoomType("corridor"); ok {
		t.Error(`ParseRoomType("corridor") succeeded`)
	}
}

func TestIsCombat(t *testing.T) {
	if !RoomTypeBoss.IsCombat() || !RoomTypeMidBoss.IsCombat() || !RoomTypeCombat.IsCombat() {
		t.Error("combat room types not flagged as combat")
	}
	if RoomTypeTrap.IsCombat() || RoomTypeSafe.IsCombat() {
		t.Error("non-combat room types flagged as combat")
	}
}
