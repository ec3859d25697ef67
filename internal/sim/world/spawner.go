package world

import (
	"fmt"
	"math"
	"math/rand"

	"transitcraft.sim/internal/sim/catalogs"
)

// lineSchedule tracks spawn timing for one line's fleet.
type lineSchedule struct {
	LineID         string
	SinceLastSpawn float64 // seconds
	Spawned        int
	Bootstrapped   bool
}

// fleetSpawner owns the schedules that turn a line's frequency into actual
// vehicles on the map. One per world, driven from the frame update.
type fleetSpawner struct {
	schedules map[string]*lineSchedule
	rng       *rand.Rand
}

func newFleetSpawner(rng *rand.Rand) *fleetSpawner {
	return &fleetSpawner{schedules: map[string]*lineSchedule{}, rng: rng}
}

// OptimalVehicleCount sizes a line's fleet from its length and headway. Short
// headways need more vehicles in circulation; the fleet is capped at 10.
func OptimalVehicleCount(stationCount, frequency int) int {
	if stationCount < 2 {
		return 0
	}
	if frequency < 1 {
		frequency = 1
	}
	routeFactor := math.Ceil(float64(stationCount) / 3)
	freqFactor := math.Max(1, 15/float64(frequency))
	return clampInt(int(math.Ceil(routeFactor*freqFactor)), 1, 10)
}

// due reports how many vehicles the line should spawn this frame. The first
// call for a line bootstraps one vehicle immediately; afterwards spawns follow
// the headway until the fleet reaches its optimal size.
func (sp *fleetSpawner) due(line *TransportLine, active int, dt float64) int {
	if line.Phase != PhaseOperational || len(line.Stations) < 2 {
		return 0
	}
	sched := sp.schedules[line.ID]
	if sched == nil {
		sched = &lineSchedule{LineID: line.ID}
		sp.schedules[line.ID] = sched
	}

	target := OptimalVehicleCount(len(line.Stations), line.Frequency)
	if active >= target {
		sched.SinceLastSpawn = 0
		return 0
	}

	if !sched.Bootstrapped {
		sched.Bootstrapped = true
		sched.SinceLastSpawn = 0
		sched.Spawned++
		return 1
	}

	sched.SinceLastSpawn += dt
	interval := float64(line.Frequency) * 60
	if interval <= 0 {
		interval = 60
	}
	if sched.SinceLastSpawn < interval {
		return 0
	}
	sched.SinceLastSpawn = 0
	sched.Spawned++
	return 1
}

// forget drops the schedule for a removed line.
func (sp *fleetSpawner) forget(lineID string) {
	delete(sp.schedules, lineID)
}

// buildVehicle materializes a vehicle and its initial kinematic state for a
// line. Successive vehicles start staggered along the route so a fresh line
// does not bunch its whole fleet at station zero.
func (sp *fleetSpawner) buildVehicle(line *TransportLine, spec catalogs.VehicleDef, ordinal int) (*Vehicle, *VehicleState) {
	model := spec.Models[sp.rng.Intn(len(spec.Models))]
	id := fmt.Sprintf("%s-veh-%d", line.ID, ordinal)

	veh := &Vehicle{
		ID:        id,
		Mode:      line.Mode,
		Model:     model,
		Capacity:  spec.Capacity,
		Speed:     spec.SpeedKmh,
		Condition: 100,
		Electric:  spec.Electric,
		LineID:    line.ID,
	}

	segment := 0
	if n := len(line.Stations); n > 1 {
		segment = ordinal % n
	}
	vs := &VehicleState{
		VehicleID:     veh.ID,
		LineID:        line.ID,
		Segment:       segment,
		Forward:       true,
		Status:        VehicleMoving,
		NextStationID: nextStationID(line, segment),
	}
	return veh, vs
}

func nextStationID(line *TransportLine, segment int) string {
	n := len(line.Stations)
	if n == 0 {
		return ""
	}
	return line.Stations[destIndex(segment, true, line.Loop, n)]
}
