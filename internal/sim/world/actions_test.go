package world

import (
	"testing"

	"transitcraft.sim/internal/protocol"
	"transitcraft.sim/internal/sim/catalogs"
	"transitcraft.sim/internal/sim/tuning"
)

func newTestWorld(t *testing.T, seed int64) *World {
	t.Helper()
	cat, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	return New(WorldConfig{ID: "test", Seed: seed}, cat, tuning.Defaults())
}

func busLineReq() *protocol.BuildLineReq {
	return &protocol.BuildLineReq{
		Name: "Cross Town", Mode: "bus", Frequency: 10,
		Stations: []protocol.StationSite{
			{Name: "West End", Lat: 41.3850, Lon: 2.1500},
			{Name: "Center", Lat: 41.3900, Lon: 2.1650},
			{Name: "East Side", Lat: 41.3950, Lon: 2.1800},
		},
	}
}

func TestBuildLine_DeductsExactCost(t *testing.T) {
	w := newTestWorld(t, 42)
	before := w.econ.Balance

	res := w.apply(protocol.ActMsg{Cmd: protocol.CmdBuildLine, BuildLine: busLineReq()})
	if !res.OK {
		t.Fatalf("build rejected: %s %s", res.Code, res.Reason)
	}
	if len(w.lines) != 1 || len(w.stations) != 3 {
		t.Fatalf("want 1 line / 3 stations, got %d / %d", len(w.lines), len(w.stations))
	}

	var line *TransportLine
	for _, l := range w.lines {
		line = l
	}
	if got := before - w.econ.Balance; got != line.ConstructionCost {
		t.Fatalf("balance moved by %.0f, line cost is %.0f", got, line.ConstructionCost)
	}
	// The bill is the sum of the station builds, nothing per kilometer.
	stationSum := 0.0
	for _, sid := range line.Stations {
		stationSum += w.stations[sid].ConstructionCost
	}
	if line.ConstructionCost != stationSum {
		t.Fatalf("line cost %.0f, stations sum to %.0f", line.ConstructionCost, stationSum)
	}
	if line.Phase != PhaseConstruction {
		t.Fatalf("new line should be under construction, got %s", line.Phase)
	}
	if line.Level != "bus" {
		t.Fatalf("level should start at the mode, got %s", line.Level)
	}
	// Buses never go underground.
	for _, sid := range line.Stations {
		if w.stations[sid].Depth != DepthSurface {
			t.Fatalf("bus station at depth %s", w.stations[sid].Depth)
		}
	}
}

func TestBuildLine_InsufficientFundsAtomic(t *testing.T) {
	w := newTestWorld(t, 42)
	w.econ.Balance = 10_000_000

	req := busLineReq()
	req.Mode = "metro" // underground station boxes cost tens of millions each
	res := w.apply(protocol.ActMsg{Cmd: protocol.CmdBuildLine, BuildLine: req})

	if res.OK {
		t.Fatal("build should be rejected")
	}
	if res.Code != protocol.ErrNoFunds {
		t.Fatalf("want %s, got %s", protocol.ErrNoFunds, res.Code)
	}
	if len(w.lines) != 0 || len(w.stations) != 0 || len(w.tunnels) != 0 {
		t.Fatal("rejected build must leave no partial state")
	}
	if w.econ.Balance != 10_000_000 {
		t.Fatalf("balance touched on rejection: %.0f", w.econ.Balance)
	}
}

func TestBuildLine_TooFewStations(t *testing.T) {
	w := newTestWorld(t, 1)
	req := busLineReq()
	req.Stations = req.Stations[:1]
	res := w.apply(protocol.ActMsg{Cmd: protocol.CmdBuildLine, BuildLine: req})
	if res.OK || res.Code != protocol.ErrBadTopology {
		t.Fatalf("want %s, got ok=%v code=%s", protocol.ErrBadTopology, res.OK, res.Code)
	}
}

func TestSetFrequency_Validation(t *testing.T) {
	w := newTestWorld(t, 1)
	w.apply(protocol.ActMsg{Cmd: protocol.CmdBuildLine, BuildLine: busLineReq()})
	lineID := w.lineOrder[0]

	res := w.apply(protocol.ActMsg{Cmd: protocol.CmdSetFrequency,
		SetFrequency: &protocol.SetFrequencyReq{LineID: lineID, FrequencyMin: 45}})
	if res.OK || res.Code != protocol.ErrBadRequest {
		t.Fatalf("out-of-range frequency: ok=%v code=%s", res.OK, res.Code)
	}

	res = w.apply(protocol.ActMsg{Cmd: protocol.CmdSetFrequency,
		SetFrequency: &protocol.SetFrequencyReq{LineID: lineID, FrequencyMin: 5, RushFrequency: 2}})
	if !res.OK {
		t.Fatalf("valid frequency rejected: %s", res.Reason)
	}
	if w.lines[lineID].Frequency != 5 || w.lines[lineID].RushFrequency != 2 {
		t.Fatal("frequency not applied")
	}

	res = w.apply(protocol.ActMsg{Cmd: protocol.CmdSetFrequency,
		SetFrequency: &protocol.SetFrequencyReq{LineID: "nope", FrequencyMin: 5}})
	if res.OK || res.Code != protocol.ErrNotFound {
		t.Fatalf("unknown line: ok=%v code=%s", res.OK, res.Code)
	}
}

func TestRemoveStation_TopologyGuard(t *testing.T) {
	w := newTestWorld(t, 1)
	req := busLineReq()
	req.Stations = req.Stations[:2]
	w.apply(protocol.ActMsg{Cmd: protocol.CmdBuildLine, BuildLine: req})
	sid := w.lines[w.lineOrder[0]].Stations[0]

	res := w.apply(protocol.ActMsg{Cmd: protocol.CmdRemoveStation,
		RemoveStation: &protocol.StationRef{StationID: sid}})
	if res.OK || res.Code != protocol.ErrBadTopology {
		t.Fatalf("removing below 2 stations: ok=%v code=%s", res.OK, res.Code)
	}
	if w.stations[sid] == nil {
		t.Fatal("station deleted despite rejection")
	}
}

func TestUpgradeStation_OnceOnly(t *testing.T) {
	w := newTestWorld(t, 1)
	w.apply(protocol.ActMsg{Cmd: protocol.CmdBuildLine, BuildLine: busLineReq()})
	sid := w.lines[w.lineOrder[0]].Stations[0]
	before := w.econ.Balance

	res := w.apply(protocol.ActMsg{Cmd: protocol.CmdUpgradeStation,
		UpgradeStation: &protocol.UpgradeStationReq{StationID: sid, Upgrade: "elevator"}})
	if !res.OK {
		t.Fatalf("elevator rejected: %s", res.Reason)
	}
	if before-w.econ.Balance != upgradeElevatorCost {
		t.Fatalf("elevator should cost %d", upgradeElevatorCost)
	}
	if !w.stations[sid].HasElevator {
		t.Fatal("elevator not installed")
	}

	res = w.apply(protocol.ActMsg{Cmd: protocol.CmdUpgradeStation,
		UpgradeStation: &protocol.UpgradeStationReq{StationID: sid, Upgrade: "elevator"}})
	if res.OK {
		t.Fatal("second elevator must be rejected")
	}
}

func TestUpgradeLine_Prerequisites(t *testing.T) {
	w := newTestWorld(t, 1)
	w.apply(protocol.ActMsg{Cmd: protocol.CmdBuildLine, BuildLine: busLineReq()})
	lineID := w.lineOrder[0]

	// 3 stations, load factor 0: both prerequisites fail.
	res := w.apply(protocol.ActMsg{Cmd: protocol.CmdUpgradeLine,
		UpgradeLine: &protocol.LineRef{LineID: lineID}})
	if res.OK || res.Code != protocol.ErrRequirements {
		t.Fatalf("want %s, got ok=%v code=%s", protocol.ErrRequirements, res.OK, res.Code)
	}

	line := w.lines[lineID]
	line.Stations = append(line.Stations, "pad1", "pad2")
	line.LoadFactor = 0.75
	capBefore := line.VehicleCapacity

	res = w.apply(protocol.ActMsg{Cmd: protocol.CmdUpgradeLine,
		UpgradeLine: &protocol.LineRef{LineID: lineID}})
	if !res.OK {
		t.Fatalf("eligible upgrade rejected: %s %s", res.Code, res.Reason)
	}
	if line.Level != "brt" {
		t.Fatalf("level should climb to brt, got %s", line.Level)
	}
	if line.VehicleCapacity <= capBefore {
		t.Fatal("capacity should increase on upgrade")
	}
}

func TestResolveEvent_PaysChoice(t *testing.T) {
	w := newTestWorld(t, 1)
	w.apply(protocol.ActMsg{Cmd: protocol.CmdBuildLine, BuildLine: busLineReq()})
	lineID := w.lineOrder[0]

	w.events = append(w.events, &GameEvent{
		ID: "ev-1", Kind: "equipment_failure", AffectedLines: []string{lineID},
		DurationHours: 4,
		Choices: []EventChoice{
			{Text: "Emergency repair", Cost: 100_000, Reliability: 10},
			{Text: "Wait it out", Cost: 0, Satisfaction: -5},
		},
	})
	before := w.econ.Balance

	res := w.apply(protocol.ActMsg{Cmd: protocol.CmdResolveEvent,
		ResolveEvent: &protocol.ResolveEventReq{EventID: "ev-1", Choice: 0}})
	if !res.OK {
		t.Fatalf("resolve rejected: %s", res.Reason)
	}
	if before-w.econ.Balance != 100_000 {
		t.Fatalf("choice cost not charged, moved %.0f", before-w.econ.Balance)
	}
	if len(w.events) != 0 {
		t.Fatal("resolved event still active")
	}

	res = w.apply(protocol.ActMsg{Cmd: protocol.CmdResolveEvent,
		ResolveEvent: &protocol.ResolveEventReq{EventID: "ev-1", Choice: 0}})
	if res.OK || res.Code != protocol.ErrNotFound {
		t.Fatalf("resolving twice: ok=%v code=%s", res.OK, res.Code)
	}
}

func TestTakeLoan_CreditLimit(t *testing.T) {
	w := newTestWorld(t, 1)
	before := w.econ.Balance

	res := w.apply(protocol.ActMsg{Cmd: protocol.CmdTakeLoan,
		TakeLoan: &protocol.TakeLoanReq{Amount: 100_000_000, Months: 120}})
	if !res.OK {
		t.Fatalf("loan rejected: %s %s", res.Code, res.Reason)
	}
	if w.econ.Balance != before+100_000_000 {
		t.Fatal("loan proceeds not credited")
	}
	if len(w.loans) != 1 || w.loans[0].MonthlyPayment <= 0 {
		t.Fatal("loan not recorded with a payment")
	}

	res = w.apply(protocol.ActMsg{Cmd: protocol.CmdTakeLoan,
		TakeLoan: &protocol.TakeLoanReq{Amount: 1e13, Months: 120}})
	if res.OK || res.Code != protocol.ErrRequirements {
		t.Fatalf("over-limit loan: ok=%v code=%s", res.OK, res.Code)
	}
}

func TestSetSpeed_PauseIdempotent(t *testing.T) {
	w := newTestWorld(t, 1)

	for i := 0; i < 3; i++ {
		res := w.apply(protocol.ActMsg{Cmd: protocol.CmdSetSpeed,
			SetSpeed: &protocol.SetSpeedReq{Speed: 0}})
		if !res.OK {
			t.Fatalf("pause %d rejected: %s", i, res.Reason)
		}
	}
	if w.gameSpeed != 0 {
		t.Fatal("world not paused")
	}

	res := w.apply(protocol.ActMsg{Cmd: protocol.CmdSetSpeed,
		SetSpeed: &protocol.SetSpeedReq{Speed: 9}})
	if res.OK || res.Code != protocol.ErrBadRequest {
		t.Fatalf("invalid speed: ok=%v code=%s", res.OK, res.Code)
	}
}

func TestApply_UnknownCommand(t *testing.T) {
	w := newTestWorld(t, 1)
	res := w.apply(protocol.ActMsg{Cmd: "EXPLODE"})
	if res.OK || res.Code != protocol.ErrBadRequest {
		t.Fatalf("unknown command: ok=%v code=%s", res.OK, res.Code)
	}
}
