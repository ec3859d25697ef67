package world

import (
	"testing"

	"transitcraft.sim/internal/persistence/snapshot"
	"transitcraft.sim/internal/protocol"
	"transitcraft.sim/internal/sim/catalogs"
	"transitcraft.sim/internal/sim/tuning"
)

func TestSnapshot_Roundtrip(t *testing.T) {
	w := newTestWorld(t, 99)
	w.apply(protocol.ActMsg{Cmd: protocol.CmdBuildLine, BuildLine: busLineReq()})
	w.apply(protocol.ActMsg{Cmd: protocol.CmdTakeLoan,
		TakeLoan: &protocol.TakeLoanReq{Amount: 50_000_000, Months: 60}})
	w.apply(protocol.ActMsg{Cmd: protocol.CmdBuildDepot,
		BuildDepot: &protocol.BuildDepotReq{Mode: "bus", Lat: 41.38, Lon: 2.16}})
	line := w.lines[w.lineOrder[0]]
	line.Phase = PhaseOperational
	for i := 0; i < 30; i++ {
		w.SimulateHour()
	}
	w.frame(0.25) // spawn at least one vehicle

	if len(w.vehicles) == 0 {
		t.Fatal("expected the spawner to bootstrap a vehicle")
	}

	raw, err := snapshot.Encode(w.Export())
	if err != nil {
		t.Fatal(err)
	}
	v, err := snapshot.Decode(raw)
	if err != nil {
		t.Fatal(err)
	}

	cat, _ := catalogs.Load("../../../configs")
	r := Resume(v, cat, tuning.Defaults())

	if r.econ.Balance != w.econ.Balance {
		t.Fatalf("balance: %.4f vs %.4f", r.econ.Balance, w.econ.Balance)
	}
	if r.hoursRun != w.hoursRun || !r.time.Date.Equal(w.time.Date) {
		t.Fatal("clock not restored")
	}
	if len(r.lines) != len(w.lines) || len(r.stations) != len(w.stations) {
		t.Fatal("topology not restored")
	}
	if len(r.loans) != 1 || r.loans[0].Remaining != w.loans[0].Remaining {
		t.Fatal("loans not restored")
	}
	if len(r.depots) != 1 {
		t.Fatal("depot not restored")
	}
	if len(r.vehicles) != len(w.vehicles) || len(r.vehicleStates) != len(w.vehicleStates) {
		t.Fatal("fleet not restored")
	}
	if r.seq != w.seq {
		t.Fatal("id sequence not restored; new ids would collide")
	}
	if len(r.analytics.SatisfactionTrend) != len(w.analytics.SatisfactionTrend) {
		t.Fatal("trends not restored")
	}

	// The resumed world must keep simulating without blowing up.
	r.SimulateHour()
	if s := r.satisfaction.Overall; s < 0 || s > 100 {
		t.Fatalf("satisfaction %v after resume", s)
	}
}

func TestSnapshot_RejectsUnknownVersion(t *testing.T) {
	if _, err := snapshot.Decode([]byte(`{"version": 99}`)); err == nil {
		t.Fatal("future version must be rejected")
	}
	if _, err := snapshot.Decode([]byte(`{}`)); err == nil {
		t.Fatal("missing version must be rejected")
	}
}

func TestResume_RepairsOversizedSegment(t *testing.T) {
	w := newTestWorld(t, 5)
	w.apply(protocol.ActMsg{Cmd: protocol.CmdBuildLine, BuildLine: busLineReq()})
	v := w.Export()

	v.Vehicles = append(v.Vehicles, snapshot.VehicleV1{
		ID: "veh-x", Mode: "bus", Model: "M", Capacity: 80, Speed: 40,
		Condition: 100, LineID: v.Lines[0].ID,
	})
	v.VehicleStates = append(v.VehicleStates, snapshot.VehicleStateV1{
		VehicleID: "veh-x", LineID: v.Lines[0].ID,
		Segment: 99, Progress: 0.5, Forward: true, Status: VehicleMoving,
	})

	cat, _ := catalogs.Load("../../../configs")
	r := Resume(v, cat, tuning.Defaults())
	vs := r.vehicleStates["veh-x"]
	if vs == nil {
		t.Fatal("vehicle state dropped")
	}
	if vs.Segment >= len(r.lines[v.Lines[0].ID].Stations) {
		t.Fatalf("segment %d not repaired", vs.Segment)
	}
}
