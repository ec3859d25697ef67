package world

import (
	"testing"
	"time"
)

func TestTimeOfDayOf_Bands(t *testing.T) {
	cases := map[int]string{
		0:  Night,
		4:  Night,
		5:  EarlyMorning,
		6:  EarlyMorning,
		7:  MorningRush,
		8:  MorningRush,
		9:  Midday,
		16: Midday,
		17: EveningRush,
		18: EveningRush,
		19: Evening,
		22: Evening,
		23: Night,
	}
	for hour, want := range cases {
		if got := TimeOfDayOf(hour); got != want {
			t.Fatalf("hour %d: got %s want %s", hour, got, want)
		}
	}
}

func TestRushMultiplier_Table(t *testing.T) {
	if got := RushMultiplier(MorningRush, Weekday); got != 3.0 {
		t.Fatalf("weekday morning rush: got %v", got)
	}
	if got := RushMultiplier(EveningRush, Weekday); got != 3.0 {
		t.Fatalf("weekday evening rush: got %v", got)
	}
	if got := RushMultiplier(Night, Weekday); got != 0.3 {
		t.Fatalf("weekday night: got %v", got)
	}
	if got := RushMultiplier(Midday, Weekday); got != 1.2 {
		t.Fatalf("weekday midday: got %v", got)
	}
	if got := RushMultiplier(Midday, Weekend); got != 1.5 {
		t.Fatalf("weekend midday: got %v", got)
	}
	if got := RushMultiplier(MorningRush, Weekend); got != 0.8 {
		t.Fatalf("weekend rush: got %v", got)
	}
}

func TestDayTypeOf(t *testing.T) {
	sat := time.Date(2024, 1, 6, 12, 0, 0, 0, time.UTC)
	mon := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)
	if DayTypeOf(sat) != Weekend {
		t.Fatalf("saturday should be weekend")
	}
	if DayTypeOf(mon) != Weekday {
		t.Fatalf("monday should be weekday")
	}
}
