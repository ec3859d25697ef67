package world

import (
	"math/rand"
	"testing"

	"transitcraft.sim/internal/sim/catalogs"
)

func TestOptimalVehicleCount(t *testing.T) {
	cases := []struct {
		stations, frequency, want int
	}{
		{6, 15, 2},  // ceil(6/3) * max(1, 15/15)
		{6, 5, 6},   // 2 * 3
		{30, 1, 10}, // capped
		{2, 30, 1},  // floor
		{1, 5, 0},   // not a line
	}
	for _, c := range cases {
		if got := OptimalVehicleCount(c.stations, c.frequency); got != c.want {
			t.Errorf("OptimalVehicleCount(%d, %d) = %d, want %d", c.stations, c.frequency, got, c.want)
		}
	}
}

func TestSpawner_BootstrapThenHeadway(t *testing.T) {
	sp := newFleetSpawner(rand.New(rand.NewSource(1)))
	line := &TransportLine{
		ID: "l1", Mode: "bus", Phase: PhaseOperational,
		Stations: []string{"a", "b", "c", "d", "e", "f"}, Frequency: 5,
	}

	// First frame spawns immediately regardless of the headway.
	if n := sp.due(line, 0, 0.25); n != 1 {
		t.Fatalf("bootstrap spawn: got %d", n)
	}
	// Next frame is inside the headway.
	if n := sp.due(line, 1, 0.25); n != 0 {
		t.Fatalf("spawned inside headway: got %d", n)
	}
	// Accumulate a full 5-minute headway.
	active := 1
	spawns := 0
	for i := 0; i < 1200; i++ {
		n := sp.due(line, active, 0.25)
		spawns += n
		active += n
	}
	if spawns != 1 {
		t.Fatalf("one headway elapsed, want 1 spawn, got %d", spawns)
	}
}

func TestSpawner_StopsAtOptimalCount(t *testing.T) {
	sp := newFleetSpawner(rand.New(rand.NewSource(1)))
	line := &TransportLine{
		ID: "l1", Mode: "bus", Phase: PhaseOperational,
		Stations: []string{"a", "b"}, Frequency: 30,
	}
	if n := sp.due(line, 0, 0.25); n != 1 {
		t.Fatalf("bootstrap: got %d", n)
	}
	// Optimal count is 1; nothing more, ever.
	for i := 0; i < 20000; i++ {
		if n := sp.due(line, 1, 0.25); n != 0 {
			t.Fatalf("spawned past optimal count at frame %d", i)
		}
	}
}

func TestSpawner_UnderConstructionLineIdle(t *testing.T) {
	sp := newFleetSpawner(rand.New(rand.NewSource(1)))
	line := &TransportLine{
		ID: "l1", Mode: "metro", Phase: PhaseConstruction,
		Stations: []string{"a", "b", "c"}, Frequency: 5,
	}
	if n := sp.due(line, 0, 0.25); n != 0 {
		t.Fatal("lines under construction must not spawn vehicles")
	}
}

func TestBuildVehicle_Staggered(t *testing.T) {
	sp := newFleetSpawner(rand.New(rand.NewSource(1)))
	line := &TransportLine{ID: "l1", Mode: "metro", Stations: []string{"a", "b", "c"}}
	spec := catalogs.VehicleDef{Mode: "metro", Models: []string{"CAF Inneo"}, Capacity: 200, SpeedKmh: 60, Electric: true}

	veh0, vs0 := sp.buildVehicle(line, spec, 0)
	_, vs1 := sp.buildVehicle(line, spec, 1)
	_, vs3 := sp.buildVehicle(line, spec, 3)

	if veh0.Capacity != 200 || veh0.Model != "CAF Inneo" || !veh0.Electric {
		t.Fatalf("vehicle not built from spec: %+v", veh0)
	}
	if veh0.Condition != 100 {
		t.Fatalf("new vehicle condition: %v", veh0.Condition)
	}
	if vs0.Segment != 0 || vs1.Segment != 1 || vs3.Segment != 0 {
		t.Fatalf("stagger wrong: %d %d %d", vs0.Segment, vs1.Segment, vs3.Segment)
	}
	if vs0.NextStationID != "b" {
		t.Fatalf("next station for segment 0: %s", vs0.NextStationID)
	}
}
