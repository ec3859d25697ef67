package world

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// rebuildTracking projects the live fleet into the tracking read model. Delay
// and breakdown are sampled from the line's reliability, not stored.
func (w *World) rebuildTracking() {
	w.tracking = w.tracking[:0]
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

		pos := vehiclePos(vs, line, stops)
		dest := destIndex(vs.Segment, vs.Forward, line.Loop, len(stops))

		speed := 0.0
		if vs.Status == VehicleMoving {
			speed = w.effectiveSpeed(veh, line)
		}

		delay := 0.0
		if line.Reliability < 90 {
			delay = w.rng.Float64() * 5
		}
		status := "on_time"
		switch {
		case delay > 3:
			status = "delayed"
		case delay < -1:
			status = "early"
		case w.rng.Float64() < 0.02:
			status = "breakdown"
		}

		w.tracking = append(w.tracking, VehicleTracking{
			VehicleID: veh.ID, LineID: line.ID,
			Pos: pos, Heading: headingDeg(stops[vs.Segment].Pos, stops[dest].Pos),
			Speed: speed, Load: vs.Passengers, Capacity: veh.Capacity,
			NextStationID: vs.NextStationID,
			DelayMinutes:  delay, Status: status,
		})
	}
}

// rebuildUpgradePaths evaluates every line against the upgrade ladder and
// names what blocks the ineligible ones.
func (w *World) rebuildUpgradePaths() {
	w.upgradePaths = w.upgradePaths[:0]
	for _, lid := range w.lineOrder {
		line := w.lines[lid]
		if line == nil {
			continue
		}
		path := UpgradePath{LineID: line.ID, CurrentLevel: line.Level}

		def, ok := w.cat.Upgrades.ByFrom[line.Level]
		if !ok {
			path.Blockers = []string{"already at the top of the ladder"}
			w.upgradePaths = append(w.upgradePaths, path)
			continue
		}

		path.Available = []UpgradeOption{{
			ToLevel: def.To, Cost: def.Cost, TimeDays: def.TimeDays,
			CapacityIncrease: def.CapacityIncrease, SpeedIncrease: def.SpeedIncrease,
			ReliabilityBonus: def.ReliabilityBonus, Requirements: def.Requirements,
		}}
		if def.MinStations > 0 && len(line.Stations) < def.MinStations {
			path.Blockers = append(path.Blockers,
				fmt.Sprintf("needs %d stations, has %d", def.MinStations, len(line.Stations)))
		}
		if def.MinLoadFactor > 0 && line.LoadFactor < def.MinLoadFactor {
			path.Blockers = append(path.Blockers,
				fmt.Sprintf("needs load factor %.2f, at %.2f", def.MinLoadFactor, line.LoadFactor))
		}
		if def.Cost > w.econ.Balance {
			path.Blockers = append(path.Blockers, "insufficient funds")
		}
		path.Eligible = len(path.Blockers) == 0
		w.upgradePaths = append(w.upgradePaths, path)
	}
}

// updateStaff sizes the workforce from the network: two shifts of drivers per
// departure slot, a mechanic per ten drivers, three staff per station.
func (w *World) updateStaff() {
	drivers := 0
	for _, lid := range w.lineOrder {
		line := w.lines[lid]
		if line == nil || line.Phase != PhaseOperational {
			continue
		}
		freq := clampInt(line.Frequency, 1, 30)
		drivers += 2 * int(math.Ceil(60/float64(freq)))
	}
	w.staff = StaffSummary{
		Drivers:      drivers,
		Mechanics:    int(math.Ceil(float64(drivers) * 0.1)),
		StationStaff: len(w.stationOrder) * 3,
	}
}

// updateUnion runs the daily labor relations check. The union only organizes
// once there is a workforce.
func (w *World) updateUnion() {
	members := w.staff.Drivers + w.staff.Mechanics + w.staff.StationStaff
	if members == 0 {
		return
	}
	if w.union == nil {
		w.union = &Union{Name: "Transit Workers Union", LastNegotiation: w.time.Date}
	}
	w.union.MemberCount = members

	conditions := w.avgVehicleCondition() * 0.3
	staffing := 20.0
	if len(w.vehicleOrder) > 0 && w.staff.Mechanics*10 < len(w.vehicleOrder) {
		staffing = 5
	}
	salary := 30.0 // baseline pay factor; raises move it
	w.union.Satisfaction = clamp(salary+conditions+staffing, 0, 100)
	w.union.StrikeRisk = clamp((60-w.union.Satisfaction)/100, 0, 1)

	w.union.Demands = w.union.Demands[:0]
	if w.union.Satisfaction < 50 {
		w.union.Demands = append(w.union.Demands, UnionDemand{
			Kind: "wage_increase", Urgency: "high",
			Description: "Across-the-board 8% wage increase",
			Cost:        float64(members) * 2000,
		})
	}
	if w.union.Satisfaction < 40 {
		w.union.Demands = append(w.union.Demands, UnionDemand{
			Kind: "better_conditions", Urgency: "high",
			Description: "Modernize the vehicle fleet and break rooms",
			Cost:        5_000_000,
		})
	}
	if w.rng.Float64() < 0.1 {
		w.union.Demands = append(w.union.Demands, UnionDemand{
			Kind: "more_staff", Urgency: "medium",
			Description: "Hire additional station staff for night shifts",
			Cost:        float64(len(w.stationOrder)) * 50_000,
		})
	}
}

func (w *World) avgVehicleCondition() float64 {
	if len(w.vehicleOrder) == 0 {
		return 100
	}
	var sum float64
	for _, id := range w.vehicleOrder {
		if veh := w.vehicles[id]; veh != nil {
			sum += veh.Condition
		}
	}
	return sum / float64(len(w.vehicleOrder))
}

// refreshCreditRating rescores the authority's creditworthiness from its
// balance sheet.
func (w *World) refreshCreditRating() {
	score := 50.0
	switch {
	case w.econ.Balance > 100_000_000:
		score += 20
	case w.econ.Balance > 10_000_000:
		score += 10
	case w.econ.Balance < 0:
		score -= 20
	}
	if w.analytics.NetIncome > 0 {
		score += 10
	} else if w.analytics.NetIncome < 0 {
		score -= 10
	}

	var debt float64
	for _, loan := range w.loans {
		debt += loan.Remaining
	}
	if debt > w.econ.Balance*2 && debt > 0 {
		score -= 15
	}
	score = clamp(score, 0, 100)

	rating := "D"
	for _, band := range []struct {
		min  float64
		name string
	}{{90, "AAA"}, {80, "AA"}, {70, "A"}, {60, "BBB"}, {50, "BB"}, {40, "B"}, {30, "CCC"}} {
		if score >= band.min {
			rating = band.name
			break
		}
	}

	w.credit = CreditRating{
		Score:           score,
		Rating:          rating,
		AvailableCredit: math.Max(0, w.econ.Balance*2-debt),
		RateModifier:    (100 - score) / 100,
	}
}

func (w *World) initInducedDemand() {
	w.induced = w.induced[:0]
	for _, d := range w.districts {
		w.induced = append(w.induced, InducedDemand{
			DistrictID: d.ID,
			Baseline:   d.Population * 0.1,
			Current:    d.Population * 0.1,
			Elasticity: 0.5,
		})
	}
}

// updateInducedDemand grows ridership beyond the baseline where good service
// exists long enough. Quality adds up to 50%; time in service doubles the
// effect over two years.
func (w *World) updateInducedDemand() {
	monthsRunning := float64(w.hoursRun) / (24 * 30)
	timeFactor := 1 + math.Min(monthsRunning/24, 1)

	for i := range w.induced {
		ind := &w.induced[i]
		d := w.districtByID(ind.DistrictID)
		if d == nil {
			continue
		}
		quality := clamp(w.satisfaction.Overall/100*d.Coverage, 0, 1)
		target := ind.Baseline * (1 + 0.5*quality) * timeFactor

		// Demand drifts toward its target rather than jumping.
		ind.Current += (target - ind.Current) * 0.1
		ind.GrowthRate = finiteOr((ind.Current-ind.Baseline)/ind.Baseline, 0)
	}
}

func (w *World) districtByID(id string) *District {
	for _, d := range w.districts {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// updateMaintenance rebuilds the asset health book daily and services the
// worst vehicles when a depot of their mode exists.
func (w *World) updateMaintenance() {
	w.maintenance = w.maintenance[:0]

	for _, id := range w.vehicleOrder {
		veh := w.vehicles[id]
		if veh == nil {
			continue
		}
		rec := MaintenanceRecord{
			AssetID: veh.ID, AssetKind: "vehicle",
			Condition:       veh.Condition,
			MaintenanceCost: 5000,
			BreakdownRisk:   (100 - veh.Condition) / 100,
		}

		// Condition below 70 forces a service; otherwise a small daily chance
		// of preventive work keeps the fleet from all ageing in lockstep.
		due := veh.Condition < 70 || w.rng.Float64() < w.tune.MaintenanceChancePerDay
		if due && w.depotFor(veh.Mode) != nil && w.econ.Balance > rec.MaintenanceCost {
			w.econ.Balance -= rec.MaintenanceCost
			veh.Condition = clamp(veh.Condition+30, 0, 100)
			veh.Deferred = 0
			rec.Condition = veh.Condition
			rec.BreakdownRisk = (100 - veh.Condition) / 100
			rec.LastMaintenance = w.time.Date
			if vs := w.vehicleStates[id]; vs != nil && vs.Status == VehicleMaintenance {
				vs.Status = VehicleMoving
			}
		} else {
			// Every unserviced day adds 10% of the job to the backlog.
			veh.Deferred += rec.MaintenanceCost * 0.1
			if rec.BreakdownRisk > 0.6 {
				if vs := w.vehicleStates[id]; vs != nil {
					vs.Status = VehicleMaintenance
				}
			}
		}
		rec.Deferred = veh.Deferred
		w.maintenance = append(w.maintenance, rec)
	}

	for _, sid := range w.stationOrder {
		st := w.stations[sid]
		if st == nil {
			continue
		}
		st.Cleanliness = clamp(st.Cleanliness-0.5, 0, 100)
		if st.Cleanliness < 60 && w.econ.Balance > 2000 {
			w.econ.Balance -= 2000
			st.Cleanliness = clamp(st.Cleanliness+25, 0, 100)
		}
		w.maintenance = append(w.maintenance, MaintenanceRecord{
			AssetID: st.ID, AssetKind: "station",
			Condition:       st.Cleanliness,
			MaintenanceCost: 2000,
			BreakdownRisk:   0,
		})
	}
}

func (w *World) depotFor(mode string) *Depot {
	for _, d := range w.depots {
		if d.Mode == mode {
			return d
		}
	}
	return nil
}

// updatePolitics runs the daily city-council beat: seed the council, roll for
// new faction demands, expire old ones.
func (w *World) updatePolitics() {
	if w.council == nil {
		w.council = &CityCouncil{
			Factions: []PoliticalFaction{
				{ID: "progressive", Name: "Progressive Alliance", Ideology: "progressive",
					Support: 35, Priorities: []string{"environmental", "equity", "public_transit"}},
				{ID: "conservative", Name: "Fiscal Conservatives", Ideology: "conservative",
					Support: 30, Priorities: []string{"cost_efficiency", "private_sector", "low_taxes"}},
				{ID: "centrist", Name: "Centrist Coalition", Ideology: "centrist",
					Support: 25, Priorities: []string{"balanced_budget", "service_quality", "growth"}},
				{ID: "populist", Name: "People First Party", Ideology: "populist",
					Support: 10, Priorities: []string{"low_fares", "coverage", "jobs"}},
			},
			MayorFaction:   "progressive",
			SubsidyLevel:   0.3,
			NextElection:   w.time.Date.AddDate(2, 0, 0),
			ApprovalRating: 60,
		}
	}

	w.council.ApprovalRating = clamp(
		w.council.ApprovalRating*0.95+w.satisfaction.Overall*0.05, 0, 100)

	// Expire overdue demands and take the penalty.
	kept := w.politicalDemands[:0]
	for _, pd := range w.politicalDemands {
		if !pd.Completed && w.time.Date.After(pd.Deadline) {
			w.council.ApprovalRating = clamp(w.council.ApprovalRating-pd.Penalty/100_000, 0, 100)
			continue
		}
		kept = append(kept, pd)
	}
	w.politicalDemands = kept

	if w.rng.Float64() >= w.tune.PoliticalDemandChancePerDay || len(w.council.Factions) == 0 {
		return
	}
	faction := w.council.Factions[w.rng.Intn(len(w.council.Factions))]

	var kind, desc string
	reward := 2_000_000.0
	switch faction.ID {
	case "progressive":
		kind, desc, reward = "expansion", "Extend service into an underserved district", 5_000_000
	case "conservative":
		kind, desc, reward = "fare_cap", "Hold the base fare at or below the city standard", 3_000_000
	case "centrist":
		kind, desc, reward = "service_improvement", "Raise reliability on the worst-performing line", 4_000_000
	default:
		kind, desc = "route_demand", "Add direct commuter service to the business district"
	}
	w.politicalDemands = append(w.politicalDemands, PoliticalDemand{
		ID: "pol-" + uuid.NewString()[:8], FactionID: faction.ID,
		Kind: kind, Description: desc,
		Deadline: w.time.Date.AddDate(0, 0, 90),
		Reward:   reward, Penalty: reward * 0.5,
	})
}

// updateCompetitors seeds rival operators once the network matters and lets
// them act on the six-hour beat. Personality gates how often and how hard
// each one moves.
func (w *World) updateCompetitors() {
	if len(w.competitors) == 0 {
		if len(w.lineOrder) < 3 {
			return
		}
		w.competitors = []*Competitor{
			{ID: "comp-metrolink", Name: "MetroLink", Kind: "private",
				MarketShare: 0.15, Strategy: "aggressive", Cash: 200_000_000, Reputation: 60,
				RiskTolerance: 0.8, ExpansionRate: 0.7, PriceCompetitiveness: 0.5},
			{ID: "comp-citybus", Name: "CityBus Co", Kind: "private",
				MarketShare: 0.10, Strategy: "opportunistic", Cash: 80_000_000, Reputation: 50,
				RiskTolerance: 0.4, ExpansionRate: 0.3, PriceCompetitiveness: 0.9},
		}
	}

	for _, c := range w.competitors {
		if w.rng.Float64() >= w.tune.CompetitorActChance*c.RiskTolerance*2 {
			continue
		}

		roll := w.rng.Float64()
		var action, impact string
		switch {
		case roll < c.ExpansionRate*0.5:
			action = "new_line"
			impact = "opened a competing route"
			c.MarketShare = clamp(c.MarketShare+0.02, 0, 0.5)
			c.Cash -= 20_000_000
		case roll < c.ExpansionRate*0.5+c.PriceCompetitiveness*0.3:
			action = "price_cut"
			impact = "undercut fares on shared corridors"
			c.MarketShare = clamp(c.MarketShare+0.01, 0, 0.5)
			w.satisfaction.Overall = clamp(w.satisfaction.Overall-0.5, 0, 100)
		default:
			action = "service_improvement"
			impact = "upgraded onboard comfort"
			c.Reputation = clamp(c.Reputation+2, 0, 100)
		}

		target := ""
		if len(w.districts) > 0 {
			target = w.districts[w.rng.Intn(len(w.districts))].ID
		}
		w.competitorActions = append(w.competitorActions, CompetitorAction{
			CompetitorID: c.ID, Action: action, Target: target,
			Impact: impact, At: w.time.Date,
		})
	}

	retention := w.tune.CompetitorActionRetention
	if retention <= 0 {
		retention = 20
	}
	if len(w.competitorActions) > retention {
		w.competitorActions = w.competitorActions[len(w.competitorActions)-retention:]
	}
}
