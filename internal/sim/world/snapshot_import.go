package world

import (
	"time"

	"transitcraft.sim/internal/persistence/snapshot"
	"transitcraft.sim/internal/sim/catalogs"
	"transitcraft.sim/internal/sim/tuning"
)

// Resume rebuilds a world from a snapshot. Derived read models are
// recomputed on the first tick rather than restored.
func Resume(v *snapshot.V1, cat *catalogs.Catalogs, tune tuning.Tuning) *World {
	w := New(WorldConfig{ID: v.WorldID, Seed: v.Seed}, cat, tune)

	w.seq = v.Seq
	w.hoursRun = v.HoursRun
	w.time = gameTimeAt(time.UnixMilli(v.DateMs).UTC())
	w.gameSpeed = v.GameSpeed
	w.satisfactionDays = v.SatisfactionDays

	w.econ = Economics{
		Balance:            v.Economics.Balance,
		FareRevenue:        v.Economics.FareRevenue,
		AdvertisingRevenue: v.Economics.AdvertisingRevenue,
		RetailRevenue:      v.Economics.RetailRevenue,
		Subsidies:          v.Economics.Subsidies,
		OperatingCosts:     v.Economics.OperatingCosts,
		MaintenanceCosts:   v.Economics.MaintenanceCosts,
		StaffCosts:         v.Economics.StaffCosts,
		EnergyCosts:        v.Economics.EnergyCosts,
		DebtService:        v.Economics.DebtService,
		BaseFare:           v.Economics.BaseFare,
		PeakSurcharge:      v.Economics.PeakSurcharge,
		TransferDiscount:   v.Economics.TransferDiscount,
		MonthlyPassPrice:   v.Economics.MonthlyPassPrice,
	}
	w.satisfaction = SatisfactionFactors{
		WaitTime:      finiteOr(v.Satisfaction.WaitTime, 0),
		TravelTime:    finiteOr(v.Satisfaction.TravelTime, 0),
		Crowding:      finiteOr(v.Satisfaction.Crowding, 0),
		Reliability:   finiteOr(v.Satisfaction.Reliability, 95),
		Coverage:      finiteOr(v.Satisfaction.Coverage, 0),
		Cleanliness:   finiteOr(v.Satisfaction.Cleanliness, 80),
		Safety:        finiteOr(v.Satisfaction.Safety, 85),
		Accessibility: finiteOr(v.Satisfaction.Accessibility, 70),
		Overall:       clamp(finiteOr(v.Satisfaction.Overall, 50), 0, 100),
	}
	w.analytics = Analytics{
		TotalPassengers:   v.Analytics.TotalPassengers,
		TotalRevenue:      v.Analytics.TotalRevenue,
		TotalCosts:        v.Analytics.TotalCosts,
		NetIncome:         v.Analytics.NetIncome,
		PassengerTrend:    append([]int(nil), v.Analytics.PassengerTrend...),
		RevenueTrend:      append([]float64(nil), v.Analytics.RevenueTrend...),
		SatisfactionTrend: append([]float64(nil), v.Analytics.SatisfactionTrend...),
	}

	for _, s := range v.Stations {
		st := &Station{
			ID: s.ID, Name: s.Name, Pos: posFromV1(s.Pos), Mode: s.Mode, Depth: s.Depth,
			Platforms: s.Platforms, PlatformLength: s.PlatformLength, Capacity: s.Capacity,
			HasElevator: s.HasElevator, HasEscalator: s.HasEscalator, HasRetail: s.HasRetail,
			Passengers: s.Passengers, WaitTime: s.WaitTime, CrowdingLevel: finiteOr(s.Crowding, 0),
			ConstructionCost: s.ConstructionCost, MaintenanceCost: s.MaintenanceCost,
			RetailRevenue: s.RetailRevenue,
			Cleanliness:   s.Cleanliness, Safety: s.Safety, Accessibility: s.Accessibility,
		}
		w.stations[st.ID] = st
		w.stationOrder = append(w.stationOrder, st.ID)
	}

	for _, l := range v.Lines {
		line := &TransportLine{
			ID: l.ID, Name: l.Name, Mode: l.Mode, Level: l.Level, Color: l.Color,
			Stations: append([]string(nil), l.Stations...),
			Loop:     l.Loop, Bidirectional: l.Bidirectional, HasBusLane: l.HasBusLane,
			Frequency: l.Frequency, RushFrequency: l.RushFrequency,
			OperatingFrom: l.OperatingFrom, OperatingTo: l.OperatingTo,
			VehicleCapacity: l.VehicleCapacity, AverageSpeed: l.AverageSpeed,
			Reliability: clamp(finiteOr(l.Reliability, 95), 0, 100),
			LoadFactor:  finiteOr(l.LoadFactor, 0),
			ConstructionCost: l.ConstructionCost, OperatingCost: l.OperatingCost,
			Revenue: l.Revenue, FareboxRecovery: finiteOr(l.FareboxRecovery, 0),
			Phase: l.Phase, ConstructionProgress: l.ConstructionProgress,
			ConstructionDaysLeft:  l.ConstructionDaysLeft,
			ConstructionDaysTotal: l.ConstructionDaysTotal,
		}
		if line.Level == "" {
			line.Level = line.Mode
		}
		w.lines[line.ID] = line
		w.lineOrder = append(w.lineOrder, line.ID)
	}

	for _, t := range v.Tunnels {
		w.tunnels = append(w.tunnels, &TunnelSegment{
			ID: t.ID, LineID: t.LineID, From: t.From, To: t.To,
			Depth: t.Depth, Gradient: t.Gradient, Valid: t.Valid,
			Warnings: append([]string(nil), t.Warnings...),
		})
	}

	for _, vv := range v.Vehicles {
		veh := &Vehicle{
			ID: vv.ID, Mode: vv.Mode, Model: vv.Model, Capacity: vv.Capacity,
			Speed: vv.Speed, AgeYears: vv.AgeYears,
			Condition: clamp(finiteOr(vv.Condition, 100), 0, 100),
			Deferred:  finiteOr(vv.Deferred, 0),
			Electric:  vv.Electric, LineID: vv.LineID,
		}
		w.vehicles[veh.ID] = veh
		w.vehicleOrder = append(w.vehicleOrder, veh.ID)
	}
	for _, s := range v.VehicleStates {
		vs := &VehicleState{
			VehicleID: s.VehicleID, LineID: s.LineID,
			Segment: s.Segment, Progress: clamp(finiteOr(s.Progress, 0), 0, 1),
			Forward: s.Forward, Passengers: s.Passengers,
			NextStationID: s.NextStationID, Status: s.Status, BoardingLeft: s.BoardingLeft,
		}
		if line := w.lines[vs.LineID]; line != nil && vs.Segment >= len(line.Stations) {
			clampVehicleSegment(vs, len(line.Stations))
		}
		w.vehicleStates[vs.VehicleID] = vs
	}

	if len(v.Districts) > 0 {
		w.districts = w.districts[:0]
		for _, d := range v.Districts {
			w.districts = append(w.districts, &District{
				ID: d.ID, Name: d.Name, Zone: d.Zone, Center: posFromV1(d.Center), Radius: d.Radius,
				Population: d.Population, MorningDemand: d.MorningDemand,
				EveningDemand: d.EveningDemand, WeekendDemand: d.WeekendDemand,
				Density: d.Density, AverageIncome: d.AverageIncome,
				TransitOriented: d.TransitOriented,
				Satisfaction:    d.Satisfaction, Coverage: d.Coverage,
			})
		}
	}

	for _, d := range v.Depots {
		w.depots = append(w.depots, &Depot{
			ID: d.ID, Name: d.Name, Pos: posFromV1(d.Pos), Mode: d.Mode,
			Capacity: d.Capacity, MaintenanceBays: d.MaintenanceBays,
			ConstructionCost: d.ConstructionCost, OperatingCost: d.OperatingCost,
			CoverageRadius: d.CoverageRadius,
		})
	}

	for _, l := range v.Loans {
		w.loans = append(w.loans, &Loan{
			ID: l.ID, Amount: l.Amount, AnnualRate: l.AnnualRate,
			MonthlyPayment: l.MonthlyPayment, Remaining: l.Remaining,
			MonthsLeft: l.MonthsLeft, Purpose: l.Purpose,
			Taken: time.UnixMilli(l.TakenMs).UTC(),
		})
	}

	for _, e := range v.Events {
		ev := &GameEvent{
			ID: e.ID, Kind: e.Kind, Title: e.Title, Description: e.Description,
			AffectedLines: append([]string(nil), e.AffectedLines...),
			Reliability:   e.Reliability, Cost: e.Cost, Satisfaction: e.Satisfaction,
			DurationHours: e.DurationHours,
		}
		for _, c := range e.Choices {
			ev.Choices = append(ev.Choices, EventChoice{
				Text: c.Text, Cost: c.Cost, Reliability: c.Reliability,
				Satisfaction: c.Satisfaction, DurationHours: c.DurationHours,
			})
		}
		w.events = append(w.events, ev)
	}

	if se := v.SpecialEvent; se != nil {
		w.specialEvent = &SpecialEvent{
			ID: se.ID, Kind: se.Kind, Name: se.Name, DistrictID: se.DistrictID,
			StartHour: se.StartHour, Duration: se.Duration, Attendees: se.Attendees,
			DemandMul: se.DemandMul, BonusRevenue: se.BonusRevenue,
		}
	}

	for _, c := range v.Complaints {
		w.complaints = append(w.complaints, PassengerComplaint{
			ID: c.ID, Kind: c.Kind, Message: c.Message, LineID: c.LineID,
			At: time.UnixMilli(c.AtMs).UTC(), Severity: c.Severity,
		})
	}

	if u := v.Union; u != nil {
		w.union = &Union{
			Name: u.Name, MemberCount: u.MemberCount,
			Satisfaction: u.Satisfaction, StrikeRisk: u.StrikeRisk,
			LastNegotiation: time.UnixMilli(u.LastNegotiationMs).UTC(),
		}
	}

	if c := v.Council; c != nil {
		council := &CityCouncil{
			MayorFaction: c.MayorFaction, SubsidyLevel: c.SubsidyLevel,
			NextElection: time.UnixMilli(c.NextElectionMs).UTC(), ApprovalRating: c.ApprovalRating,
		}
		for _, f := range c.Factions {
			council.Factions = append(council.Factions, PoliticalFaction{
				ID: f.ID, Name: f.Name, Ideology: f.Ideology,
				Support: f.Support, Priorities: append([]string(nil), f.Priorities...),
			})
		}
		w.council = council
	}

	for _, p := range v.Politics {
		w.politicalDemands = append(w.politicalDemands, PoliticalDemand{
			ID: p.ID, FactionID: p.FactionID, Kind: p.Kind,
			Description: p.Description, Deadline: time.UnixMilli(p.DeadlineMs).UTC(),
			Reward: p.Reward, Penalty: p.Penalty, Completed: p.Completed,
		})
	}

	for _, c := range v.Competitors {
		w.competitors = append(w.competitors, &Competitor{
			ID: c.ID, Name: c.Name, Kind: c.Kind, MarketShare: c.MarketShare,
			Strategy: c.Strategy, Cash: c.Cash, Reputation: c.Reputation,
			RiskTolerance: c.RiskTolerance, ExpansionRate: c.ExpansionRate,
			PriceCompetitiveness: c.PriceCompetitiveness,
		})
	}

	if len(v.Induced) > 0 {
		w.induced = w.induced[:0]
		for _, ind := range v.Induced {
			w.induced = append(w.induced, InducedDemand{
				DistrictID: ind.DistrictID, Baseline: ind.Baseline, Current: ind.Current,
				GrowthRate: ind.GrowthRate, Elasticity: ind.Elasticity,
			})
		}
	}

	w.credit.Score = v.CreditScore
	w.refreshCreditRating()
	return w
}

func posFromV1(p snapshot.PositionV1) Position {
	return Position{Lat: p.Lat, Lon: p.Lon, Alt: p.Alt}
}
