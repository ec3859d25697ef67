package world

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

const hotspotDemandThreshold = 100

// rebuildHeatmap recomputes origin/destination demand between every district
// pair and ranks the hotspots.
func (w *World) rebuildHeatmap() {
	var hotspots []DemandHotspot
	var unserved float64

	for _, from := range w.districts {
		for _, to := range w.districts {
			if from.ID == to.ID {
				continue
			}
			demand := float64(Demand(from.Zone, to.Zone, w.time.TimeOfDay, w.time.DayType, from.Population))
			demand *= 0.1 // only a slice of raw trips considers transit at all
			if demand <= hotspotDemandThreshold {
				continue
			}
			satisfied := 0.2
			if from.Coverage > 0 && to.Coverage > 0 {
				satisfied = 0.8
			}
			hotspots = append(hotspots, DemandHotspot{
				Origin: from.ID, Destination: to.ID,
				Demand: demand, TimeOfDay: w.time.TimeOfDay, Satisfied: satisfied,
			})
			unserved += demand * (1 - satisfied)
		}
	}

	sort.Slice(hotspots, func(i, j int) bool { return hotspots[i].Demand > hotspots[j].Demand })
	w.heatmap = DemandHeatmap{Hotspots: hotspots, UnservedDemand: unserved}
	if len(hotspots) > 0 {
		w.heatmap.Peak = &hotspots[0]
	}
}

// rebuildCompetition recomputes the modal split per district. Shares always
// normalize to 1.
func (w *World) rebuildCompetition() {
	w.competition = w.competition[:0]
	sat := w.satisfaction.Overall

	for _, d := range w.districts {
		transit := d.Coverage*0.5 + sat/100*0.3

		// Higher income means more cars competing for the same trips.
		carOwnership := min(0.8, d.AverageIncome/100000)
		car := carOwnership * (1 - transit)
		walk := max(0.05, 0.15-transit*0.1)
		bike := max(0.05, 0.1-transit*0.05)

		total := transit + car + walk + bike
		trend := "stable"
		switch {
		case sat > 75 && d.Coverage > 0.6:
			trend = "improving"
		case sat < 50 || d.Coverage < 0.3:
			trend = "declining"
		}
		w.competition = append(w.competition, CompetitionData{
			DistrictID: d.ID, TransitShare: transit / total,
			CarShare: car / total, WalkShare: walk / total, BikeShare: bike / total,
			Trend: trend,
		})
	}
}

// rebuildProfitability classifies every line's finances.
func (w *World) rebuildProfitability() {
	w.profitability = w.profitability[:0]
	for _, lid := range w.lineOrder {
		line := w.lines[lid]
		if line == nil {
			continue
		}
		costs := line.OperatingCost
		profit := line.Revenue - costs

		margin := 0.0
		if line.Revenue > 0 {
			margin = profit / line.Revenue * 100
		}
		roi := 0.0
		if line.ConstructionCost > 0 {
			roi = finiteOr(profit*24*365/line.ConstructionCost*100, 0)
		}

		status := "break_even"
		switch {
		case margin > 30:
			status = "highly_profitable"
		case margin > 10:
			status = "profitable"
		case margin < -20:
			status = "heavily_subsidized"
		case margin < 0:
			status = "subsidized"
		}
		w.profitability = append(w.profitability, LineProfitability{
			LineID: line.ID, Revenue: line.Revenue, Costs: costs,
			Profit: profit, Margin: margin, ROI: roi, Status: status,
		})
	}
}

// applyTODEffects grows districts around their stations, once a day at noon.
// Transit-oriented development: population and density creep up near good
// service, faster the closer the station sits to the district center. The
// monthly growth figures are spread over thirty daily applications.
func (w *World) applyTODEffects() {
	const reachM = 0.01 * 111000 // about a kilometer

	w.todEffects = w.todEffects[:0]
	for _, sid := range w.stationOrder {
		st := w.stations[sid]
		if st == nil {
			continue
		}
		for _, d := range w.districts {
			dist := flatDistanceM(st.Pos, d.Center)
			if dist > reachM {
				continue
			}
			proximity := 1 - dist/reachM
			effect := TODEffect{
				StationID: st.ID, DistrictID: d.ID,
				PopulationGrowth: 50 * proximity,
				DensityIncrease:  0.01 * proximity,
				PropertyValueMul: 1 + 0.2*proximity,
			}
			d.Population += effect.PopulationGrowth / 30
			d.Density = clamp(d.Density+effect.DensityIncrease/30, 0, 1)
			d.TransitOriented = true
			w.todEffects = append(w.todEffects, effect)
		}
	}
}

var specialEventKinds = []struct {
	kind      string
	name      string
	attendees int
	duration  int
	demandMul float64
}{
	{"concert", "Stadium concert", 20000, 5, 2.0},
	{"sports", "Derby match", 40000, 4, 2.5},
	{"festival", "Street festival", 15000, 12, 1.8},
	{"conference", "Trade conference", 5000, 8, 1.3},
}

// maybeSpecialEvent rolls for a crowd-drawing city event. Only one can run
// at a time.
func (w *World) maybeSpecialEvent() {
	if w.specialEvent != nil || len(w.districts) == 0 {
		return
	}
	chance := w.tune.SpecialEventChanceWeekday
	if w.time.DayType == Weekend {
		chance = w.tune.SpecialEventChanceWeekend
	}
	if w.rng.Float64() >= chance {
		return
	}

	k := specialEventKinds[w.rng.Intn(len(specialEventKinds))]
	d := w.districts[w.rng.Intn(len(w.districts))]
	w.specialEvent = &SpecialEvent{
		ID: "spev-" + uuid.NewString()[:8], Kind: k.kind,
		Name: fmt.Sprintf("%s in %s", k.name, d.Name), DistrictID: d.ID,
		StartHour: w.hoursRun, Duration: k.duration,
		Attendees: k.attendees, DemandMul: k.demandMul,
		BonusRevenue: float64(k.attendees) * w.econ.BaseFare * 0.1,
	}
}

func (w *World) clearExpiredSpecialEvent() {
	if w.specialEvent == nil {
		return
	}
	if w.hoursRun >= w.specialEvent.StartHour+w.specialEvent.Duration {
		w.specialEvent = nil
	}
}

// rebuildElasticity estimates per-district fare sensitivity. Wealthier
// districts shrug off fare rises; poorer ones do not.
func (w *World) rebuildElasticity() {
	w.elasticity = w.elasticity[:0]
	for _, d := range w.districts {
		incomeNorm := clamp(d.AverageIncome/50000, 0, 1)
		w.elasticity = append(w.elasticity, FareElasticity{
			DistrictID:      d.ID,
			PriceElasticity: -0.8 + incomeNorm*0.5,
			OptimalFare:     w.tune.BaseFare * (0.8 + incomeNorm*0.6),
			CurrentFare:     w.econ.BaseFare,
		})
	}
}

// detectBottlenecks flags overcrowded stations and overloaded lines, each
// with two concrete remedies.
func (w *World) detectBottlenecks() {
	w.bottlenecks = w.bottlenecks[:0]

	for _, sid := range w.stationOrder {
		st := w.stations[sid]
		if st == nil || st.CrowdingLevel <= 0.85 {
			continue
		}
		severity := "moderate"
		switch {
		case st.CrowdingLevel >= 0.95:
			severity = "critical"
		case st.CrowdingLevel >= 0.9:
			severity = "severe"
		}
		w.bottlenecks = append(w.bottlenecks, Bottleneck{
			ID: "bn-st-" + st.ID, Kind: "station", Location: st.ID,
			Severity:           severity,
			Issue:              fmt.Sprintf("%s platform at %.0f%% of holding capacity", st.Name, st.CrowdingLevel*100),
			PassengersAffected: st.Passengers,
			DelayMinutes:       st.CrowdingLevel * 10,
			SatisfactionLoss:   st.CrowdingLevel * 5,
			Solutions: []BottleneckSolution{
				{Description: "Extend the platform", Cost: upgradePlatformCost, TimeDays: 30, Effectiveness: 0.7},
				{Description: "Add crowd management staff", Cost: 50_000, TimeDays: 1, Effectiveness: 0.4},
			},
		})
	}

	for _, lid := range w.lineOrder {
		line := w.lines[lid]
		if line == nil || line.LoadFactor <= 0.9 || line.Frequency <= 5 {
			continue
		}
		w.bottlenecks = append(w.bottlenecks, Bottleneck{
			ID: "bn-ln-" + line.ID, Kind: "vehicle", Location: line.ID,
			Severity:           "severe",
			Issue:              fmt.Sprintf("%s running at %.0f%% load", line.Name, line.LoadFactor*100),
			PassengersAffected: int(line.LoadFactor * float64(line.VehicleCapacity)),
			DelayMinutes:       line.LoadFactor * 5,
			SatisfactionLoss:   line.LoadFactor * 3,
			Solutions: []BottleneckSolution{
				{Description: "Run more frequent service", Cost: 100_000, TimeDays: 1, Effectiveness: 0.6},
				{Description: "Order higher-capacity vehicles", Cost: 5_000_000, TimeDays: 90, Effectiveness: 0.8},
			},
		})
	}
}

// updateVictory tracks the four long-game goals. The satisfaction goal needs
// 30 consecutive days at 85 or better; a bad day resets the streak.
func (w *World) updateVictory() {
	if w.time.Hour == 0 {
		if w.satisfaction.Overall >= 85 {
			w.satisfactionDays++
		} else {
			w.satisfactionDays = 0
		}
	}

	avgRecovery := 0.0
	if n := len(w.lineOrder); n > 0 {
		for _, lid := range w.lineOrder {
			avgRecovery += w.lines[lid].FareboxRecovery
		}
		avgRecovery /= float64(n)
	}

	goals := []VictoryProgress{
		{Condition: "profit", Name: "Clear $100M profit in a year",
			Target: 100_000_000, Current: w.analytics.NetIncome * 24 * 365},
		{Condition: "coverage", Name: "Serve 80% of the city",
			Target: 0.8, Current: w.satisfaction.Coverage},
		{Condition: "satisfaction", Name: "Keep riders happy for 30 days",
			Target: 30, Current: float64(w.satisfactionDays)},
		{Condition: "efficiency", Name: "Run at full farebox recovery",
			Target: 100, Current: avgRecovery},
	}
	for i := range goals {
		g := &goals[i]
		if g.Target > 0 {
			g.Progress = clamp(g.Current/g.Target*100, 0, 100)
		}
		g.Achieved = g.Progress >= 100
	}
	w.victory = goals
}

// maybeComplaint rolls for passenger feedback on a random line.
func (w *World) maybeComplaint() {
	if len(w.lineOrder) == 0 || w.rng.Float64() >= w.tune.ComplaintChancePerHour {
		return
	}
	line := w.lines[w.lineOrder[w.rng.Intn(len(w.lineOrder))]]
	if line == nil || line.Phase != PhaseOperational {
		return
	}

	var kind, message string
	var severity float64
	switch {
	case line.LoadFactor > 0.85:
		kind, severity = "crowded", line.LoadFactor
		message = fmt.Sprintf("Couldn't even get on the %s this morning, it was packed solid.", line.Name)
	case line.Reliability < 80:
		kind, severity = "late", (100-line.Reliability)/100
		message = fmt.Sprintf("The %s was late again. Third time this week.", line.Name)
	case w.avgCleanliness() < 60:
		kind, severity = "dirty", 0.5
		message = fmt.Sprintf("The stations on the %s need a serious clean.", line.Name)
	case w.rng.Float64() < 0.2:
		kind, severity = "praise", 0
		message = fmt.Sprintf("The %s has been great lately. Keep it up!", line.Name)
	default:
		return
	}

	retention := w.tune.ComplaintRetention
	if retention <= 0 {
		retention = 10
	}
	w.complaints = append(w.complaints, PassengerComplaint{
		ID: "cmp-" + uuid.NewString()[:8], Kind: kind, Message: message,
		LineID: line.ID, At: w.time.Date, Severity: severity,
	})
	if len(w.complaints) > retention {
		w.complaints = w.complaints[len(w.complaints)-retention:]
	}
}

func (w *World) avgCleanliness() float64 {
	if len(w.stationOrder) == 0 {
		return 80
	}
	var sum float64
	for _, sid := range w.stationOrder {
		if st := w.stations[sid]; st != nil {
			sum += st.Cleanliness
		}
	}
	return sum / float64(len(w.stationOrder))
}
