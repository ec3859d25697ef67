package world

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"transitcraft.sim/internal/protocol"
	"transitcraft.sim/internal/sim/catalogs"
	"transitcraft.sim/internal/sim/tuning"
)

type WorldConfig struct {
	ID        string
	Seed      int64
	StartDate time.Time
}

// World is the authoritative simulation state. All mutation happens on the
// Run goroutine; external callers go through Do and View.
type World struct {
	cfg  WorldConfig
	cat  *catalogs.Catalogs
	tune tuning.Tuning
	rng  *rand.Rand

	stations map[string]*Station
	lines    map[string]*TransportLine
	// insertion order, for deterministic iteration
	stationOrder []string
	lineOrder    []string

	tunnels       []*TunnelSegment
	vehicles      map[string]*Vehicle
	vehicleStates map[string]*VehicleState
	vehicleOrder  []string
	districts     []*District
	buildings     []Building
	depots        []*Depot
	loans         []*Loan

	econ         Economics
	satisfaction SatisfactionFactors
	analytics    Analytics
	events       []*GameEvent
	suggestions  []Suggestion

	time      GameTime
	gameSpeed int
	hoursRun  int
	seq       int // structural id counter; deterministic per seed

	spawner *fleetSpawner

	// derived tycoon state, rebuilt on calculator cadences
	heatmap           DemandHeatmap
	competition       []CompetitionData
	profitability     []LineProfitability
	todEffects        []TODEffect
	specialEvent      *SpecialEvent
	elasticity        []FareElasticity
	bottlenecks       []Bottleneck
	victory           []VictoryProgress
	complaints        []PassengerComplaint
	tracking          []VehicleTracking
	upgradePaths      []UpgradePath
	staff             StaffSummary
	union             *Union
	credit            CreditRating
	induced           []InducedDemand
	maintenance       []MaintenanceRecord
	council           *CityCouncil
	politicalDemands  []PoliticalDemand
	competitors       []*Competitor
	competitorActions []CompetitorAction
	satisfactionDays  int

	inbox  chan actRequest
	reads  chan func(*World)
	onHour func(HourLogEntry)
}

type actRequest struct {
	msg   protocol.ActMsg
	reply chan protocol.ResultMsg
}

func New(cfg WorldConfig, cat *catalogs.Catalogs, tune tuning.Tuning) *World {
	if cfg.StartDate.IsZero() {
		cfg.StartDate = time.Date(2025, 1, 6, 5, 0, 0, 0, time.UTC)
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	w := &World{
		cfg:  cfg,
		cat:  cat,
		tune: tune,
		rng:  rng,

		stations:      map[string]*Station{},
		lines:         map[string]*TransportLine{},
		vehicles:      map[string]*Vehicle{},
		vehicleStates: map[string]*VehicleState{},

		gameSpeed: 1,
		spawner:   newFleetSpawner(rng),

		inbox: make(chan actRequest, 64),
		reads: make(chan func(*World), 64),
	}
	w.time = gameTimeAt(cfg.StartDate)
	w.econ = Economics{
		Balance:          tune.StartingBalance,
		BaseFare:         tune.BaseFare,
		PeakSurcharge:    tune.PeakSurcharge,
		TransferDiscount: tune.TransferDiscount,
		MonthlyPassPrice: tune.MonthlyPassPrice,
	}
	w.satisfaction = SatisfactionFactors{
		Reliability: 95, Coverage: 0, Cleanliness: 80, Safety: 85, Accessibility: 70,
	}
	w.satisfaction.Overall = OverallSatisfaction(w.satisfaction)
	w.districts = defaultDistricts()
	w.buildings = defaultBuildings()
	w.initInducedDemand()
	return w
}

// Run drives the world until ctx is cancelled. Frames move vehicles at wall
// speed; hours advance on the pace the current game speed dictates.
func (w *World) Run(ctx context.Context) {
	frameMs := w.tune.FrameIntervalMs
	if frameMs <= 0 {
		frameMs = 250
	}
	frame := time.NewTicker(time.Duration(frameMs) * time.Millisecond)
	defer frame.Stop()

	var hourAccumMs int

	for {
		select {
		case <-ctx.Done():
			log.Printf("world %s: stopping after %d simulated hours", w.cfg.ID, w.hoursRun)
			return

		case req := <-w.inbox:
			req.reply <- w.apply(req.msg)

		case fn := <-w.reads:
			fn(w)

		case <-frame.C:
			if w.gameSpeed == 0 {
				continue
			}
			w.frame(float64(frameMs) / 1000)

			interval := w.hourIntervalMs()
			if interval <= 0 {
				continue
			}
			hourAccumMs += frameMs
			for hourAccumMs >= interval {
				hourAccumMs -= interval
				w.SimulateHour()
			}
		}
	}
}

func (w *World) hourIntervalMs() int {
	iv := w.tune.SpeedIntervalsMs
	if w.gameSpeed < 0 || w.gameSpeed >= len(iv) {
		return 0
	}
	return iv[w.gameSpeed]
}

// Do submits an action and waits for its result. Safe from any goroutine.
func (w *World) Do(ctx context.Context, msg protocol.ActMsg) protocol.ResultMsg {
	reply := make(chan protocol.ResultMsg, 1)
	select {
	case w.inbox <- actRequest{msg: msg, reply: reply}:
	case <-ctx.Done():
		return protocol.ResultMsg{Type: protocol.TypeResult, OK: false,
			Code: protocol.ErrInternal, Reason: "world unavailable"}
	}
	select {
	case res := <-reply:
		return res
	case <-ctx.Done():
		return protocol.ResultMsg{Type: protocol.TypeResult, OK: false,
			Code: protocol.ErrInternal, Reason: "world unavailable"}
	}
}

// View runs fn on the world goroutine and waits for it. fn must not retain
// references past its return.
func (w *World) View(ctx context.Context, fn func(*World)) error {
	done := make(chan struct{})
	wrapped := func(w *World) {
		fn(w)
		close(done)
	}
	select {
	case w.reads <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// frame advances vehicle kinematics and the spawner by dt seconds of game
// time. Never touches economics or demand; that is the hourly tick's job.
func (w *World) frame(dt float64) {
	for _, lineID := range w.lineOrder {
		line := w.lines[lineID]
		if line == nil {
			continue
		}
		n := w.spawner.due(line, w.activeVehicleCount(lineID), dt)
		for i := 0; i < n; i++ {
			w.spawnVehicle(line)
		}
	}

	for _, id := range w.vehicleOrder {
		vs := w.vehicleStates[id]
		veh := w.vehicles[id]
		if vs == nil || veh == nil {
			continue
		}
		line := w.lines[vs.LineID]
		if line == nil {
			continue
		}
		stops := w.lineStops(line)
		if len(stops) < 2 {
			continue
		}

		if !w.lineOperatingNow(line) {
			if vs.Status == VehicleMoving || vs.Status == VehicleBoarding {
				vs.Status = VehicleStopped
			}
			continue
		}
		if vs.Status == VehicleStopped {
			vs.Status = VehicleMoving
			vs.Progress = 0
		}

		stepVehicle(vs, veh, line, stops, w.effectiveSpeed(veh, line), dt)
	}
}

func (w *World) activeVehicleCount(lineID string) int {
	n := 0
	for _, vs := range w.vehicleStates {
		if vs.LineID == lineID {
			n++
		}
	}
	return n
}

func (w *World) spawnVehicle(line *TransportLine) {
	spec, err := w.cat.Fleet(line.Mode)
	if err != nil {
		log.Printf("world %s: spawn on %s: %v", w.cfg.ID, line.ID, err)
		return
	}
	ordinal := len(w.vehicleOrder)
	veh, vs := w.spawner.buildVehicle(line, spec, ordinal)
	w.vehicles[veh.ID] = veh
	w.vehicleStates[veh.ID] = vs
	w.vehicleOrder = append(w.vehicleOrder, veh.ID)
}

// lineStops resolves the ordered station pointers of a line, dropping any id
// that no longer resolves.
func (w *World) lineStops(line *TransportLine) []*Station {
	stops := make([]*Station, 0, len(line.Stations))
	for _, id := range line.Stations {
		if st := w.stations[id]; st != nil {
			stops = append(stops, st)
		}
	}
	return stops
}

func (w *World) lineOperatingNow(line *TransportLine) bool {
	if line.Phase != PhaseOperational {
		return false
	}
	if line.OperatingFrom == 0 && line.OperatingTo == 0 {
		return true
	}
	h := w.time.Hour
	if line.OperatingFrom <= line.OperatingTo {
		return h >= line.OperatingFrom && h < line.OperatingTo
	}
	// window wraps midnight
	return h >= line.OperatingFrom || h < line.OperatingTo
}

// effectiveSpeed is the vehicle's speed for this frame. Buses share the road
// and get slowed by traffic; everything else runs at its rated speed.
func (w *World) effectiveSpeed(veh *Vehicle, line *TransportLine) float64 {
	if veh.Mode != "bus" {
		return veh.Speed
	}
	return EffectiveBusSpeed(veh.Speed, w.trafficLevel(), line.HasBusLane, w.time.TimeOfDay)
}

func (w *World) trafficLevel() float64 {
	switch w.time.TimeOfDay {
	case MorningRush, EveningRush:
		return 0.8
	case Night:
		return 0.2
	default:
		return 0.5
	}
}

// districtAt finds the district containing a position, if any.
func (w *World) districtAt(pos Position) *District {
	for _, d := range w.districts {
		if flatDistanceM(pos, d.Center) <= d.Radius {
			return d
		}
	}
	return nil
}

func (w *World) findLine(id string) *TransportLine { return w.lines[id] }

// OnHour registers a callback invoked after each simulated hour with that
// hour's ledger line. Set before Run starts; the callback runs on the world
// goroutine and must not block.
func (w *World) OnHour(fn func(HourLogEntry)) { w.onHour = fn }

// newID mints a structural id. Stations and lines get sequence-based ids so
// two worlds built from the same seed and inputs stay bit-identical; the
// station id feeds the demand hash.
func (w *World) newID(prefix string) string {
	w.seq++
	return fmt.Sprintf("%s-%d", prefix, w.seq)
}

// Accessors used by transport and persistence; all must run under View.

func (w *World) ID() string             { return w.cfg.ID }
func (w *World) Seed() int64            { return w.cfg.Seed }
func (w *World) Clock() GameTime        { return w.time }
func (w *World) Balance() float64       { return w.econ.Balance }
func (w *World) Satisfaction() float64  { return w.satisfaction.Overall }
func (w *World) GameSpeed() int         { return w.gameSpeed }
func (w *World) Catalogs() *catalogs.Catalogs { return w.cat }

// defaultDistricts seeds a small city the simulation can breathe in before
// any lines exist. Coordinates are central Barcelona.
func defaultDistricts() []*District {
	return []*District{
		{ID: "d-eixample", Name: "Eixample", Zone: ZoneResidential,
			Center: Position{Lat: 41.3888, Lon: 2.1590}, Radius: 1500,
			Population: 266000, Density: 0.9, AverageIncome: 32000,
			MorningDemand: 0.8, EveningDemand: 0.6, WeekendDemand: 0.5},
		{ID: "d-ciutatvella", Name: "Ciutat Vella", Zone: ZoneCommercial,
			Center: Position{Lat: 41.3802, Lon: 2.1734}, Radius: 1200,
			Population: 100000, Density: 0.95, AverageIncome: 26000,
			MorningDemand: 0.5, EveningDemand: 0.8, WeekendDemand: 0.9},
		{ID: "d-santmarti", Name: "Sant Marti", Zone: ZoneMixed,
			Center: Position{Lat: 41.4104, Lon: 2.2010}, Radius: 1800,
			Population: 236000, Density: 0.7, AverageIncome: 30000,
			MorningDemand: 0.7, EveningDemand: 0.6, WeekendDemand: 0.4},
		{ID: "d-zonafranca", Name: "Zona Franca", Zone: ZoneIndustrial,
			Center: Position{Lat: 41.3450, Lon: 2.1330}, Radius: 2000,
			Population: 31000, Density: 0.3, AverageIncome: 28000,
			MorningDemand: 0.9, EveningDemand: 0.9, WeekendDemand: 0.1},
		{ID: "d-gracia", Name: "Gracia", Zone: ZoneResidential,
			Center: Position{Lat: 41.4036, Lon: 2.1565}, Radius: 1100,
			Population: 121000, Density: 0.85, AverageIncome: 31000,
			MorningDemand: 0.75, EveningDemand: 0.6, WeekendDemand: 0.6},
	}
}

// defaultBuildings seeds the foundation obstacles the survey checks against.
func defaultBuildings() []Building {
	return []Building{
		{ID: "b-sagrada", Pos: Position{Lat: 41.4036, Lon: 2.1744},
			FoundationDepth: 12, Protected: true, PropertyValue: 900_000_000},
		{ID: "b-catedral", Pos: Position{Lat: 41.3840, Lon: 2.1762},
			FoundationDepth: 8, Protected: true, PropertyValue: 500_000_000},
		{ID: "b-tower-glories", Pos: Position{Lat: 41.4036, Lon: 2.1896},
			FoundationDepth: 28, Protected: false, PropertyValue: 300_000_000},
		{ID: "b-office-diagonal", Pos: Position{Lat: 41.3930, Lon: 2.1300},
			FoundationDepth: 22, Protected: false, PropertyValue: 150_000_000},
	}
}
