package world

import (
	"testing"
)

func addTestVehicle(w *World, line *TransportLine) *Vehicle {
	veh := &Vehicle{
		ID: w.newID("veh"), Mode: line.Mode, Model: "Test Unit",
		Capacity: 80, Speed: 40, Condition: 100, LineID: line.ID,
	}
	w.vehicles[veh.ID] = veh
	w.vehicleOrder = append(w.vehicleOrder, veh.ID)
	w.vehicleStates[veh.ID] = &VehicleState{
		VehicleID: veh.ID, LineID: line.ID,
		Forward: true, Status: VehicleMoving, NextStationID: line.Stations[1],
	}
	return veh
}

func TestUpdateMaintenance_DeferredAccrues(t *testing.T) {
	w := newTestWorld(t, 1)
	line := makeOperationalLine(w, "bus",
		Position{Lat: 41.385, Lon: 2.150},
		Position{Lat: 41.395, Lon: 2.180})
	veh := addTestVehicle(w, line)

	// No depot: nothing gets serviced, so the backlog grows 10% of the job
	// each day the vehicle goes without.
	w.updateMaintenance()
	w.updateMaintenance()
	if veh.Deferred != 1000 {
		t.Fatalf("two unserviced days should owe 1000, got %.0f", veh.Deferred)
	}

	var rec *MaintenanceRecord
	for i := range w.maintenance {
		if w.maintenance[i].AssetID == veh.ID {
			rec = &w.maintenance[i]
		}
	}
	if rec == nil || rec.Deferred != veh.Deferred {
		t.Fatalf("record should carry the vehicle's backlog, got %+v", rec)
	}

	// A depot clears the backlog on service.
	w.depots = append(w.depots, &Depot{ID: "dep-1", Mode: "bus", Pos: Position{Lat: 41.386, Lon: 2.151}})
	veh.Condition = 50 // forces a service
	w.updateMaintenance()
	if veh.Deferred != 0 {
		t.Fatalf("service should zero the backlog, got %.0f", veh.Deferred)
	}
}

func TestRebuildTracking_StatusBands(t *testing.T) {
	w := newTestWorld(t, 3)
	line := makeOperationalLine(w, "bus",
		Position{Lat: 41.385, Lon: 2.150},
		Position{Lat: 41.395, Lon: 2.180})
	addTestVehicle(w, line)

	// Reliable lines never sample a delay: no delayed and no early reports,
	// only on_time with the rare breakdown.
	line.Reliability = 95
	for i := 0; i < 200; i++ {
		w.rebuildTracking()
		for _, tr := range w.tracking {
			if tr.DelayMinutes != 0 {
				t.Fatalf("reliable line sampled delay %.2f", tr.DelayMinutes)
			}
			if tr.Status == "delayed" || tr.Status == "early" {
				t.Fatalf("reliable line reported %q", tr.Status)
			}
		}
	}

	// Unreliable lines sample 0..5 minutes of delay; over 3 reads delayed,
	// the rest on_time or breakdown. Early never appears from this band.
	line.Reliability = 50
	sawDelayed := false
	for i := 0; i < 200; i++ {
		w.rebuildTracking()
		for _, tr := range w.tracking {
			switch tr.Status {
			case "delayed":
				sawDelayed = true
				if tr.DelayMinutes <= 3 {
					t.Fatalf("delayed at %.2f minutes", tr.DelayMinutes)
				}
			case "early":
				t.Fatal("early reported without a negative delay")
			case "on_time", "breakdown":
			default:
				t.Fatalf("unknown status %q", tr.Status)
			}
		}
	}
	if !sawDelayed {
		t.Fatal("unreliable line never reported a delay")
	}
}

func TestUpdateStaff_MechanicsFollowDrivers(t *testing.T) {
	w := newTestWorld(t, 1)
	makeOperationalLine(w, "bus",
		Position{Lat: 41.385, Lon: 2.150},
		Position{Lat: 41.395, Lon: 2.180})

	w.updateStaff()

	// Frequency 10 means 6 departures an hour, two shifts: 12 drivers,
	// and one mechanic per ten of them rounded up.
	if w.staff.Drivers != 12 {
		t.Fatalf("drivers = %d, want 12", w.staff.Drivers)
	}
	if w.staff.Mechanics != 2 {
		t.Fatalf("mechanics = %d, want ceil(12*0.1) = 2", w.staff.Mechanics)
	}
	if w.staff.StationStaff != 6 {
		t.Fatalf("station staff = %d, want 6", w.staff.StationStaff)
	}
}

func TestUpdatePolitics_CouncilSeats(t *testing.T) {
	w := newTestWorld(t, 1)
	w.updatePolitics()

	if w.council == nil {
		t.Fatal("council not seated")
	}
	want := []string{"progressive", "conservative", "centrist", "populist"}
	if len(w.council.Factions) != len(want) {
		t.Fatalf("%d factions, want %d", len(w.council.Factions), len(want))
	}
	support := 0.0
	for i, f := range w.council.Factions {
		if f.ID != want[i] {
			t.Fatalf("faction %d = %q, want %q", i, f.ID, want[i])
		}
		if len(f.Priorities) != 3 {
			t.Fatalf("faction %s has %d priorities", f.ID, len(f.Priorities))
		}
		support += f.Support
	}
	if support != 100 {
		t.Fatalf("support sums to %.0f", support)
	}
	if w.council.MayorFaction != "progressive" {
		t.Fatalf("mayor faction %q", w.council.MayorFaction)
	}
}

func TestUpdateVictory_ProfitAnnualized(t *testing.T) {
	w := newTestWorld(t, 1)
	w.analytics.NetIncome = 5000 // per hour
	w.updateVictory()

	var profit *VictoryProgress
	for i := range w.victory {
		if w.victory[i].Condition == "profit" {
			profit = &w.victory[i]
		}
	}
	if profit == nil {
		t.Fatal("no profit goal")
	}
	if profit.Target != 100_000_000 {
		t.Fatalf("target %.0f, want 100M a year", profit.Target)
	}
	if profit.Current != 5000*24*365 {
		t.Fatalf("current %.0f, want the annualized run rate", profit.Current)
	}
	if profit.Achieved {
		t.Fatal("43.8M a year must not clear a 100M goal")
	}
}

func TestAggregateSatisfaction_DistrictsScored(t *testing.T) {
	w := newTestWorld(t, 9)
	makeOperationalLine(w, "bus",
		Position{Lat: 41.3888, Lon: 2.1590}, // Eixample center
		Position{Lat: 41.3900, Lon: 2.1650})

	w.SimulateHour()

	var covered, uncovered *District
	for _, d := range w.districts {
		switch d.ID {
		case "d-eixample":
			covered = d
		case "d-zonafranca":
			uncovered = d
		}
	}
	if covered == nil || uncovered == nil {
		t.Fatal("default districts missing")
	}
	if covered.Satisfaction <= 0 {
		t.Fatal("served district never scored")
	}
	if covered.Satisfaction <= uncovered.Satisfaction {
		t.Fatalf("served district %.1f should outscore unserved %.1f",
			covered.Satisfaction, uncovered.Satisfaction)
	}
}

func TestSimulateHour_HourlyCalculatorsAlwaysRun(t *testing.T) {
	w := newTestWorld(t, 5)
	makeOperationalLine(w, "bus",
		Position{Lat: 41.385, Lon: 2.150},
		Position{Lat: 41.395, Lon: 2.180})

	// The world starts at 05:00; two ticks land on 07:00, off every slower
	// cadence. The hourly read models must still be fresh.
	w.SimulateHour()
	w.SimulateHour()

	if len(w.upgradePaths) == 0 {
		t.Fatal("upgrade paths not rebuilt on an ordinary hour")
	}
	if len(w.competition) == 0 {
		t.Fatal("competition not rebuilt on an ordinary hour")
	}
	if len(w.elasticity) == 0 {
		t.Fatal("elasticity not rebuilt on an ordinary hour")
	}
	if len(w.victory) == 0 {
		t.Fatal("victory progress not rebuilt on an ordinary hour")
	}
}
