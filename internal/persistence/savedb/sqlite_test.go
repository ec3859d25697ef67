package savedb

import (
	"path/filepath"
	"testing"

	"transitcraft.sim/internal/persistence/snapshot"
)

func testSnapshot(hours int) *snapshot.V1 {
	return &snapshot.V1{
		WorldID:  "w1",
		Seed:     42,
		HoursRun: hours,
		Economics: snapshot.EconomicsV1{
			Balance:  450_000_000,
			BaseFare: 2.5,
		},
		Stations: []snapshot.StationV1{{ID: "st-1", Name: "Central", Mode: "metro", Depth: "shallow"}},
		Lines:    []snapshot.LineV1{{ID: "line-1", Name: "L1", Mode: "metro", Stations: []string{"st-1"}}},
	}
}

func TestSaveDB_Roundtrip(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "saves.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if err := db.Save("auto", testSnapshot(10), 450_000_000, 72.5); err != nil {
		t.Fatal(err)
	}

	v, err := db.Load("auto")
	if err != nil {
		t.Fatal(err)
	}
	if v.WorldID != "w1" || v.Seed != 42 || v.HoursRun != 10 {
		t.Fatalf("meta mangled: %+v", v)
	}
	if len(v.Stations) != 1 || v.Stations[0].ID != "st-1" {
		t.Fatal("stations mangled")
	}
}

func TestSaveDB_OverwriteSlot(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "saves.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if err := db.Save("auto", testSnapshot(10), 1, 50); err != nil {
		t.Fatal(err)
	}
	if err := db.Save("auto", testSnapshot(20), 2, 60); err != nil {
		t.Fatal(err)
	}

	v, err := db.Load("auto")
	if err != nil {
		t.Fatal(err)
	}
	if v.HoursRun != 20 {
		t.Fatalf("slot not replaced, hours %d", v.HoursRun)
	}

	slots, err := db.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 1 {
		t.Fatalf("want 1 slot, got %d", len(slots))
	}
}

func TestSaveDB_MissingSlot(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "saves.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := db.Load("nope"); err == nil {
		t.Fatal("missing slot must error")
	}
	if err := db.Delete("nope"); err == nil {
		t.Fatal("deleting a missing slot must error")
	}
}
