package world

import "math"

// Per-stop passenger exchange limits. A dwell can only turn over so many
// people regardless of how crowded the platform is.
const (
	maxAlightPerStop = 30
	maxBoardPerStop  = 50
)

// destIndex is the station index a vehicle at segment is heading to. Loops
// wrap forward; bidirectional lines run out and back; plain lines return to
// the first station from the terminus.
func destIndex(segment int, forward, loop bool, n int) int {
	if n < 2 {
		return segment
	}
	if loop {
		return (segment + 1) % n
	}
	if forward {
		if segment+1 < n {
			return segment + 1
		}
		return 0
	}
	if segment-1 >= 0 {
		return segment - 1
	}
	return 1
}

// stepVehicle advances one vehicle by dt seconds. Movement, arrival and
// boarding countdown happen here; stops are mutated when passengers get on
// and off. speedKmh is the effective speed for this frame, which for buses
// already includes traffic drag.
func stepVehicle(vs *VehicleState, veh *Vehicle, line *TransportLine, stops []*Station, speedKmh, dt float64) {
	n := len(stops)
	if n < 2 || vs.Status == VehicleMaintenance || vs.Status == VehicleStopped {
		return
	}
	if vs.Segment >= n {
		clampVehicleSegment(vs, n)
	}

	if vs.Status == VehicleBoarding {
		vs.BoardingLeft -= dt
		if vs.BoardingLeft > 0 {
			return
		}
		vs.BoardingLeft = 0
		vs.Status = VehicleMoving
		vs.Progress = 0
		vs.NextStationID = stops[destIndex(vs.Segment, vs.Forward, line.Loop, n)].ID
		return
	}

	dest := destIndex(vs.Segment, vs.Forward, line.Loop, n)
	distKm := haversineKm(stops[vs.Segment].Pos, stops[dest].Pos)
	if distKm <= 0 || speedKmh <= 0 {
		return
	}
	speedKmPerSec := speedKmh / 3600
	vs.Progress += speedKmPerSec / distKm * dt
	vs.ETASeconds = math.Max(0, (1-vs.Progress)*distKm/speedKmPerSec)
	vs.NextStationID = stops[dest].ID

	if vs.Progress < 1 {
		return
	}

	// Arrival.
	vs.Segment = dest
	vs.Progress = 0
	vs.ETASeconds = 0
	if line.Bidirectional && !line.Loop {
		if dest == n-1 {
			vs.Forward = false
		} else if dest == 0 {
			vs.Forward = true
		}
	}
	exchanged := exchangePassengers(vs, veh, stops[dest])
	vs.Status = VehicleBoarding
	vs.BoardingLeft = boardingSeconds(exchanged)
}

// exchangePassengers alights then boards at a station, clamped to the per-stop
// limits and the vehicle's capacity. Returns the total number moved.
func exchangePassengers(vs *VehicleState, veh *Vehicle, st *Station) int {
	alight := vs.Passengers
	if alight > maxAlightPerStop {
		alight = maxAlightPerStop
	}
	vs.Passengers -= alight

	board := st.Passengers
	if board > maxBoardPerStop {
		board = maxBoardPerStop
	}
	if room := veh.Capacity - vs.Passengers; board > room {
		board = room
	}
	if board < 0 {
		board = 0
	}
	st.Passengers -= board
	vs.Passengers += board

	return alight + board
}

// boardingSeconds is the dwell time for a passenger exchange: at least five
// seconds, longer when many people move.
func boardingSeconds(exchanged int) float64 {
	return math.Max(5, float64(exchanged)/10)
}

// vehiclePos interpolates a vehicle's position along its current segment.
func vehiclePos(vs *VehicleState, line *TransportLine, stops []*Station) Position {
	n := len(stops)
	if n == 0 {
		return Position{}
	}
	if n == 1 || vs.Segment >= n {
		return stops[0].Pos
	}
	dest := destIndex(vs.Segment, vs.Forward, line.Loop, n)
	return lerpPos(stops[vs.Segment].Pos, stops[dest].Pos, clamp(vs.Progress, 0, 1))
}

// clampVehicleSegment repairs a state whose line was edited underneath it.
// The vehicle snaps to the nearest surviving station index and restarts its
// run from there.
func clampVehicleSegment(vs *VehicleState, n int) {
	if n == 0 {
		vs.Segment = 0
		vs.Progress = 0
		return
	}
	if vs.Segment >= n {
		vs.Segment = n - 1
	}
	if vs.Segment < 0 {
		vs.Segment = 0
	}
	vs.Progress = 0
	vs.Forward = true
	vs.Status = VehicleMoving
	vs.BoardingLeft = 0
}
