package world

import (
	"transitcraft.sim/internal/persistence/snapshot"
)

// Export captures the full resumable state. Must run on the world goroutine
// (directly in tests, via View in production).
func (w *World) Export() *snapshot.V1 {
	v := &snapshot.V1{
		WorldID:          w.cfg.ID,
		Seed:             w.cfg.Seed,
		Seq:              w.seq,
		HoursRun:         w.hoursRun,
		DateMs:           w.time.Date.UnixMilli(),
		GameSpeed:        w.gameSpeed,
		SatisfactionDays: w.satisfactionDays,
		CreditScore:      w.credit.Score,

		Economics: snapshot.EconomicsV1{
			Balance:            w.econ.Balance,
			FareRevenue:        w.econ.FareRevenue,
			AdvertisingRevenue: w.econ.AdvertisingRevenue,
			RetailRevenue:      w.econ.RetailRevenue,
			Subsidies:          w.econ.Subsidies,
			OperatingCosts:     w.econ.OperatingCosts,
			MaintenanceCosts:   w.econ.MaintenanceCosts,
			StaffCosts:         w.econ.StaffCosts,
			EnergyCosts:        w.econ.EnergyCosts,
			DebtService:        w.econ.DebtService,
			BaseFare:           w.econ.BaseFare,
			PeakSurcharge:      w.econ.PeakSurcharge,
			TransferDiscount:   w.econ.TransferDiscount,
			MonthlyPassPrice:   w.econ.MonthlyPassPrice,
		},
		Satisfaction: snapshot.FactorsV1{
			WaitTime:      w.satisfaction.WaitTime,
			TravelTime:    w.satisfaction.TravelTime,
			Crowding:      w.satisfaction.Crowding,
			Reliability:   w.satisfaction.Reliability,
			Coverage:      w.satisfaction.Coverage,
			Cleanliness:   w.satisfaction.Cleanliness,
			Safety:        w.satisfaction.Safety,
			Accessibility: w.satisfaction.Accessibility,
			Overall:       w.satisfaction.Overall,
		},
		Analytics: snapshot.AnalyticsV1{
			TotalPassengers:   w.analytics.TotalPassengers,
			TotalRevenue:      w.analytics.TotalRevenue,
			TotalCosts:        w.analytics.TotalCosts,
			NetIncome:         w.analytics.NetIncome,
			PassengerTrend:    append([]int(nil), w.analytics.PassengerTrend...),
			RevenueTrend:      append([]float64(nil), w.analytics.RevenueTrend...),
			SatisfactionTrend: append([]float64(nil), w.analytics.SatisfactionTrend...),
		},
	}

	for _, sid := range w.stationOrder {
		st := w.stations[sid]
		if st == nil {
			continue
		}
		v.Stations = append(v.Stations, snapshot.StationV1{
			ID: st.ID, Name: st.Name, Pos: posV1(st.Pos), Mode: st.Mode, Depth: st.Depth,
			Platforms: st.Platforms, PlatformLength: st.PlatformLength, Capacity: st.Capacity,
			HasElevator: st.HasElevator, HasEscalator: st.HasEscalator, HasRetail: st.HasRetail,
			Passengers: st.Passengers, WaitTime: st.WaitTime, Crowding: st.CrowdingLevel,
			ConstructionCost: st.ConstructionCost, MaintenanceCost: st.MaintenanceCost,
			RetailRevenue: st.RetailRevenue,
			Cleanliness:   st.Cleanliness, Safety: st.Safety, Accessibility: st.Accessibility,
		})
	}

	for _, lid := range w.lineOrder {
		line := w.lines[lid]
		if line == nil {
			continue
		}
		v.Lines = append(v.Lines, snapshot.LineV1{
			ID: line.ID, Name: line.Name, Mode: line.Mode, Level: line.Level, Color: line.Color,
			Stations: append([]string(nil), line.Stations...),
			Loop:     line.Loop, Bidirectional: line.Bidirectional, HasBusLane: line.HasBusLane,
			Frequency: line.Frequency, RushFrequency: line.RushFrequency,
			OperatingFrom: line.OperatingFrom, OperatingTo: line.OperatingTo,
			VehicleCapacity: line.VehicleCapacity, AverageSpeed: line.AverageSpeed,
			Reliability: line.Reliability, LoadFactor: line.LoadFactor,
			ConstructionCost: line.ConstructionCost, OperatingCost: line.OperatingCost,
			Revenue: line.Revenue, FareboxRecovery: line.FareboxRecovery,
			Phase: line.Phase, ConstructionProgress: line.ConstructionProgress,
			ConstructionDaysLeft:  line.ConstructionDaysLeft,
			ConstructionDaysTotal: line.ConstructionDaysTotal,
		})
	}

	for _, t := range w.tunnels {
		v.Tunnels = append(v.Tunnels, snapshot.TunnelV1{
			ID: t.ID, LineID: t.LineID, From: t.From, To: t.To,
			Depth: t.Depth, Gradient: t.Gradient, Valid: t.Valid,
			Warnings: append([]string(nil), t.Warnings...),
		})
	}

	for _, id := range w.vehicleOrder {
		veh := w.vehicles[id]
		if veh == nil {
			continue
		}
		v.Vehicles = append(v.Vehicles, snapshot.VehicleV1{
			ID: veh.ID, Mode: veh.Mode, Model: veh.Model, Capacity: veh.Capacity,
			Speed: veh.Speed, AgeYears: veh.AgeYears, Condition: veh.Condition,
			Deferred: veh.Deferred, Electric: veh.Electric, LineID: veh.LineID,
		})
		if vs := w.vehicleStates[id]; vs != nil {
			v.VehicleStates = append(v.VehicleStates, snapshot.VehicleStateV1{
				VehicleID: vs.VehicleID, LineID: vs.LineID,
				Segment: vs.Segment, Progress: vs.Progress, Forward: vs.Forward,
				Passengers: vs.Passengers, NextStationID: vs.NextStationID,
				Status: vs.Status, BoardingLeft: vs.BoardingLeft,
			})
		}
	}

	for _, d := range w.districts {
		v.Districts = append(v.Districts, snapshot.DistrictV1{
			ID: d.ID, Name: d.Name, Zone: d.Zone, Center: posV1(d.Center), Radius: d.Radius,
			Population: d.Population, MorningDemand: d.MorningDemand,
			EveningDemand: d.EveningDemand, WeekendDemand: d.WeekendDemand,
			Density: d.Density, AverageIncome: d.AverageIncome,
			TransitOriented: d.TransitOriented,
			Satisfaction:    d.Satisfaction, Coverage: d.Coverage,
		})
	}

	for _, d := range w.depots {
		v.Depots = append(v.Depots, snapshot.DepotV1{
			ID: d.ID, Name: d.Name, Pos: posV1(d.Pos), Mode: d.Mode,
			Capacity: d.Capacity, MaintenanceBays: d.MaintenanceBays,
			ConstructionCost: d.ConstructionCost, OperatingCost: d.OperatingCost,
			CoverageRadius: d.CoverageRadius,
		})
	}

	for _, loan := range w.loans {
		v.Loans = append(v.Loans, snapshot.LoanV1{
			ID: loan.ID, Amount: loan.Amount, AnnualRate: loan.AnnualRate,
			MonthlyPayment: loan.MonthlyPayment, Remaining: loan.Remaining,
			MonthsLeft: loan.MonthsLeft, Purpose: loan.Purpose,
			TakenMs: loan.Taken.UnixMilli(),
		})
	}

	for _, ev := range w.events {
		out := snapshot.EventV1{
			ID: ev.ID, Kind: ev.Kind, Title: ev.Title, Description: ev.Description,
			AffectedLines: append([]string(nil), ev.AffectedLines...),
			Reliability:   ev.Reliability, Cost: ev.Cost, Satisfaction: ev.Satisfaction,
			DurationHours: ev.DurationHours,
		}
		for _, c := range ev.Choices {
			out.Choices = append(out.Choices, snapshot.EventChoiceV1{
				Text: c.Text, Cost: c.Cost, Reliability: c.Reliability,
				Satisfaction: c.Satisfaction, DurationHours: c.DurationHours,
			})
		}
		v.Events = append(v.Events, out)
	}

	if se := w.specialEvent; se != nil {
		v.SpecialEvent = &snapshot.SpecialEvV1{
			ID: se.ID, Kind: se.Kind, Name: se.Name, DistrictID: se.DistrictID,
			StartHour: se.StartHour, Duration: se.Duration, Attendees: se.Attendees,
			DemandMul: se.DemandMul, BonusRevenue: se.BonusRevenue,
		}
	}

	for _, c := range w.complaints {
		v.Complaints = append(v.Complaints, snapshot.ComplaintV1{
			ID: c.ID, Kind: c.Kind, Message: c.Message, LineID: c.LineID,
			AtMs: c.At.UnixMilli(), Severity: c.Severity,
		})
	}

	if u := w.union; u != nil {
		v.Union = &snapshot.UnionV1{
			Name: u.Name, MemberCount: u.MemberCount,
			Satisfaction: u.Satisfaction, StrikeRisk: u.StrikeRisk,
			LastNegotiationMs: u.LastNegotiation.UnixMilli(),
		}
	}

	if c := w.council; c != nil {
		council := &snapshot.CouncilV1{
			MayorFaction: c.MayorFaction, SubsidyLevel: c.SubsidyLevel,
			NextElectionMs: c.NextElection.UnixMilli(), ApprovalRating: c.ApprovalRating,
		}
		for _, f := range c.Factions {
			council.Factions = append(council.Factions, snapshot.FactionV1{
				ID: f.ID, Name: f.Name, Ideology: f.Ideology,
				Support: f.Support, Priorities: append([]string(nil), f.Priorities...),
			})
		}
		v.Council = council
	}

	for _, pd := range w.politicalDemands {
		v.Politics = append(v.Politics, snapshot.PoliticalV1{
			ID: pd.ID, FactionID: pd.FactionID, Kind: pd.Kind,
			Description: pd.Description, DeadlineMs: pd.Deadline.UnixMilli(),
			Reward: pd.Reward, Penalty: pd.Penalty, Completed: pd.Completed,
		})
	}

	for _, c := range w.competitors {
		v.Competitors = append(v.Competitors, snapshot.CompetitorV1{
			ID: c.ID, Name: c.Name, Kind: c.Kind, MarketShare: c.MarketShare,
			Strategy: c.Strategy, Cash: c.Cash, Reputation: c.Reputation,
			RiskTolerance: c.RiskTolerance, ExpansionRate: c.ExpansionRate,
			PriceCompetitiveness: c.PriceCompetitiveness,
		})
	}

	for _, ind := range w.induced {
		v.Induced = append(v.Induced, snapshot.InducedV1{
			DistrictID: ind.DistrictID, Baseline: ind.Baseline, Current: ind.Current,
			GrowthRate: ind.GrowthRate, Elasticity: ind.Elasticity,
		})
	}

	return v
}

func posV1(p Position) snapshot.PositionV1 {
	return snapshot.PositionV1{Lat: p.Lat, Lon: p.Lon, Alt: p.Alt}
}
