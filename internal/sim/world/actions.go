package world

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"transitcraft.sim/internal/protocol"
)

// Station upgrade costs.
const (
	upgradeElevatorCost  = 500_000
	upgradeEscalatorCost = 300_000
	upgradeRetailCost    = 200_000
	upgradePlatformCost  = 1_000_000
)

// apply routes an ACT message to its handler. Every handler validates fully
// before mutating anything; a rejection leaves the world byte-identical.
func (w *World) apply(msg protocol.ActMsg) protocol.ResultMsg {
	res := protocol.ResultMsg{Type: protocol.TypeResult, ProtocolVersion: protocol.Version, ID: msg.ID}

	var err *protocol.ActionError
	switch msg.Cmd {
	case protocol.CmdBuildLine:
		err = w.buildLine(msg.BuildLine)
	case protocol.CmdRemoveLine:
		err = w.removeLine(msg.RemoveLine)
	case protocol.CmdAddStation:
		err = w.addStation(msg.AddStation)
	case protocol.CmdRemoveStation:
		err = w.removeStation(msg.RemoveStation)
	case protocol.CmdSetFrequency:
		err = w.setFrequency(msg.SetFrequency)
	case protocol.CmdUpgradeStation:
		err = w.upgradeStation(msg.UpgradeStation)
	case protocol.CmdUpgradeLine:
		err = w.upgradeLine(msg.UpgradeLine)
	case protocol.CmdResolveEvent:
		err = w.resolveEvent(msg.ResolveEvent)
	case protocol.CmdDismissEvent:
		err = w.dismissEvent(msg.DismissEvent)
	case protocol.CmdBuildDepot:
		err = w.buildDepot(msg.BuildDepot)
	case protocol.CmdTakeLoan:
		err = w.takeLoan(msg.TakeLoan)
	case protocol.CmdSetFare:
		err = w.setFare(msg.SetFare)
	case protocol.CmdSetSpeed:
		err = w.setSpeed(msg.SetSpeed)
	default:
		err = protocol.Errf(protocol.ErrBadRequest, "unknown command %q", msg.Cmd)
	}

	if err != nil {
		res.OK = false
		res.Code = err.Code
		res.Reason = err.Reason
		return res
	}
	res.OK = true
	return res
}

// plannedStation is a surveyed site ready to build; nothing is committed
// until every site on the route has passed.
type plannedStation struct {
	site  protocol.StationSite
	depth string
	cost  float64
}

func (w *World) buildLine(req *protocol.BuildLineReq) *protocol.ActionError {
	if req == nil {
		return protocol.Errf(protocol.ErrBadRequest, "missing build_line payload")
	}
	mode, merr := w.cat.Mode(req.Mode)
	if merr != nil {
		return protocol.Errf(protocol.ErrBadRequest, "%v", merr)
	}
	if len(req.Stations) < 2 {
		return protocol.Errf(protocol.ErrBadTopology, "a line needs at least 2 stations, got %d", len(req.Stations))
	}
	freq := req.Frequency
	if freq == 0 {
		freq = 10
	}
	if freq < 1 || freq > 30 {
		return protocol.Errf(protocol.ErrBadRequest, "frequency %d outside 1..30 minutes", freq)
	}

	// Survey every site first. Any blocked site rejects the whole route.
	planned := make([]plannedStation, 0, len(req.Stations))
	for i, site := range req.Stations {
		p, perr := w.planStation(site, mode.CanGoUnderground)
		if perr != nil {
			return protocol.Errf(perr.Code, "station %d: %s", i, perr.Reason)
		}
		planned = append(planned, p)
	}

	// Gradient feasibility between consecutive underground stops.
	for i := 1; i < len(planned); i++ {
		a := stationFromPlan(planned[i-1], req.Mode)
		b := stationFromPlan(planned[i], req.Mode)
		tc, terr := CheckTunnelSegment(a, b, mode.MaxGradientPct)
		if terr != nil {
			return protocol.Errf(protocol.ErrBadTopology, "segment %d: %v", i, terr)
		}
		if !tc.Valid {
			return protocol.Errf(protocol.ErrBadTopology,
				"segment %d gradient %.1f%% exceeds the mode limit", i, tc.Gradient)
		}
	}

	lengthKm := 0.0
	for i := 1; i < len(req.Stations); i++ {
		lengthKm += haversineKm(
			Position{Lat: req.Stations[i-1].Lat, Lon: req.Stations[i-1].Lon},
			Position{Lat: req.Stations[i].Lat, Lon: req.Stations[i].Lon})
	}

	// The price of a line is the price of its stations. Route length drives
	// the construction schedule, not the bill.
	total := 0.0
	for _, p := range planned {
		total += p.cost
	}
	if total > w.econ.Balance {
		return protocol.Errf(protocol.ErrNoFunds,
			"line costs %.0f, balance is %.0f", total, w.econ.Balance)
	}

	// Commit.
	line := &TransportLine{
		ID:    w.newID("line"),
		Name:  req.Name,
		Mode:  req.Mode,
		Level: req.Mode,
		Color: req.Color,

		Loop:          req.Loop,
		Bidirectional: req.Bidirectional,
		Frequency:     freq,
		RushFrequency: clampInt(freq/2, 1, 30),
		OperatingFrom: 5,
		OperatingTo:   1,

		VehicleCapacity:  mode.Capacity,
		AverageSpeed:     mode.BaseSpeedKmh,
		Reliability:      95,
		ConstructionCost: total,
		OperatingCost:    mode.OperatingCostPerHour,

		Phase:                 PhaseConstruction,
		ConstructionDaysLeft:  math.Max(1, lengthKm*mode.ConstructionDaysPerKm),
		ConstructionDaysTotal: math.Max(1, lengthKm*mode.ConstructionDaysPerKm),
	}

	for _, p := range planned {
		st := stationFromPlan(p, req.Mode)
		st.ID = w.newID("st")
		if st.Name == "" {
			st.Name = fmt.Sprintf("%s %d", line.Name, len(line.Stations)+1)
		}
		w.stations[st.ID] = st
		w.stationOrder = append(w.stationOrder, st.ID)
		line.Stations = append(line.Stations, st.ID)
	}

	for i := 1; i < len(line.Stations); i++ {
		a, b := w.stations[line.Stations[i-1]], w.stations[line.Stations[i]]
		tc, _ := CheckTunnelSegment(a, b, mode.MaxGradientPct)
		if a.Depth != DepthSurface || b.Depth != DepthSurface {
			w.tunnels = append(w.tunnels, &TunnelSegment{
				ID: w.newID("tun"), LineID: line.ID,
				From: a.ID, To: b.ID,
				Depth:    math.Max(depthOrZero(a.Depth), depthOrZero(b.Depth)),
				Gradient: tc.Gradient, Valid: tc.Valid, Warnings: tc.Warnings,
			})
		}
	}

	w.econ.Balance -= total
	w.lines[line.ID] = line
	w.lineOrder = append(w.lineOrder, line.ID)
	return nil
}

func depthOrZero(depth string) float64 {
	m, err := DepthMeters(depth)
	if err != nil {
		return 0
	}
	return m
}

// planStation surveys a site and prices it at the requested depth, or at the
// recommended one when the request leaves the depth open.
func (w *World) planStation(site protocol.StationSite, canGoUnderground bool) (plannedStation, *protocol.ActionError) {
	pos := Position{Lat: site.Lat, Lon: site.Lon}
	options := AnalyzeLocation(pos, w.buildings, w.rng)

	depth := site.Depth
	if !canGoUnderground {
		depth = DepthSurface
	}
	if depth == "" {
		for _, o := range options {
			if o.Recommended {
				depth = o.Depth
				break
			}
		}
		if depth == "" {
			return plannedStation{}, protocol.Errf(protocol.ErrBlockedSite,
				"no buildable depth at %.4f,%.4f", site.Lat, site.Lon)
		}
	}
	if _, derr := DepthMeters(depth); derr != nil {
		return plannedStation{}, protocol.Errf(protocol.ErrBadRequest, "%v", derr)
	}

	cost, buildable := StationDepthCost(options, depth)
	if !buildable {
		return plannedStation{}, protocol.Errf(protocol.ErrBlockedSite,
			"depth %s is blocked at %.4f,%.4f", depth, site.Lat, site.Lon)
	}
	return plannedStation{site: site, depth: depth, cost: cost}, nil
}

func stationFromPlan(p plannedStation, mode string) *Station {
	alt := -depthOrZero(p.depth)
	return &Station{
		Name:  p.site.Name,
		Pos:   Position{Lat: p.site.Lat, Lon: p.site.Lon, Alt: alt},
		Mode:  mode,
		Depth: p.depth,

		Platforms:      2,
		PlatformLength: 100,
		Capacity:       2000,

		ConstructionCost: p.cost,
		MaintenanceCost:  1000,

		Cleanliness: 90, Safety: 85, Accessibility: 60,
	}
}

func (w *World) removeLine(ref *protocol.LineRef) *protocol.ActionError {
	if ref == nil {
		return protocol.Errf(protocol.ErrBadRequest, "missing remove_line payload")
	}
	line := w.lines[ref.LineID]
	if line == nil {
		return protocol.Errf(protocol.ErrNotFound, "line %q not found", ref.LineID)
	}

	// Stations shared with other lines survive.
	shared := map[string]bool{}
	for _, other := range w.lines {
		if other.ID == line.ID {
			continue
		}
		for _, sid := range other.Stations {
			shared[sid] = true
		}
	}
	for _, sid := range line.Stations {
		if !shared[sid] {
			delete(w.stations, sid)
			w.stationOrder = removeID(w.stationOrder, sid)
		}
	}

	for id, vs := range w.vehicleStates {
		if vs.LineID == line.ID {
			delete(w.vehicleStates, id)
			delete(w.vehicles, id)
			w.vehicleOrder = removeID(w.vehicleOrder, id)
		}
	}
	w.tunnels = filterTunnels(w.tunnels, line.ID)
	w.spawner.forget(line.ID)
	delete(w.lines, line.ID)
	w.lineOrder = removeID(w.lineOrder, line.ID)
	return nil
}

func (w *World) addStation(req *protocol.AddStationReq) *protocol.ActionError {
	if req == nil {
		return protocol.Errf(protocol.ErrBadRequest, "missing add_station payload")
	}
	line := w.lines[req.LineID]
	if line == nil {
		return protocol.Errf(protocol.ErrNotFound, "line %q not found", req.LineID)
	}
	mode, merr := w.cat.Mode(line.Mode)
	if merr != nil {
		return protocol.Errf(protocol.ErrInternal, "%v", merr)
	}

	p, perr := w.planStation(req.Site, mode.CanGoUnderground)
	if perr != nil {
		return perr
	}
	if p.cost > w.econ.Balance {
		return protocol.Errf(protocol.ErrNoFunds,
			"station costs %.0f, balance is %.0f", p.cost, w.econ.Balance)
	}
	if len(line.Stations) > 0 {
		last := w.stations[line.Stations[len(line.Stations)-1]]
		cand := stationFromPlan(p, line.Mode)
		tc, terr := CheckTunnelSegment(last, cand, mode.MaxGradientPct)
		if terr != nil {
			return protocol.Errf(protocol.ErrBadTopology, "%v", terr)
		}
		if !tc.Valid {
			return protocol.Errf(protocol.ErrBadTopology,
				"gradient %.1f%% exceeds the mode limit", tc.Gradient)
		}
	}

	st := stationFromPlan(p, line.Mode)
	st.ID = w.newID("st")
	if st.Name == "" {
		st.Name = fmt.Sprintf("%s %d", line.Name, len(line.Stations)+1)
	}
	w.econ.Balance -= p.cost
	w.stations[st.ID] = st
	w.stationOrder = append(w.stationOrder, st.ID)
	line.Stations = append(line.Stations, st.ID)
	return nil
}

func (w *World) removeStation(ref *protocol.StationRef) *protocol.ActionError {
	if ref == nil {
		return protocol.Errf(protocol.ErrBadRequest, "missing remove_station payload")
	}
	if w.stations[ref.StationID] == nil {
		return protocol.Errf(protocol.ErrNotFound, "station %q not found", ref.StationID)
	}
	for _, line := range w.lines {
		if containsID(line.Stations, ref.StationID) && len(line.Stations) <= 2 {
			return protocol.Errf(protocol.ErrBadTopology,
				"removing %s would leave line %s with fewer than 2 stations", ref.StationID, line.ID)
		}
	}

	for _, line := range w.lines {
		if !containsID(line.Stations, ref.StationID) {
			continue
		}
		line.Stations = removeID(line.Stations, ref.StationID)
		n := len(line.Stations)
		for _, vs := range w.vehicleStates {
			if vs.LineID == line.ID {
				clampVehicleSegment(vs, n)
			}
		}
	}
	delete(w.stations, ref.StationID)
	w.stationOrder = removeID(w.stationOrder, ref.StationID)
	return nil
}

func (w *World) setFrequency(req *protocol.SetFrequencyReq) *protocol.ActionError {
	if req == nil {
		return protocol.Errf(protocol.ErrBadRequest, "missing set_frequency payload")
	}
	line := w.lines[req.LineID]
	if line == nil {
		return protocol.Errf(protocol.ErrNotFound, "line %q not found", req.LineID)
	}
	if req.FrequencyMin < 1 || req.FrequencyMin > 30 {
		return protocol.Errf(protocol.ErrBadRequest,
			"frequency %d outside 1..30 minutes", req.FrequencyMin)
	}
	if req.RushFrequency != 0 && (req.RushFrequency < 1 || req.RushFrequency > 30) {
		return protocol.Errf(protocol.ErrBadRequest,
			"rush frequency %d outside 1..30 minutes", req.RushFrequency)
	}
	line.Frequency = req.FrequencyMin
	if req.RushFrequency != 0 {
		line.RushFrequency = req.RushFrequency
	}
	return nil
}

func (w *World) upgradeStation(req *protocol.UpgradeStationReq) *protocol.ActionError {
	if req == nil {
		return protocol.Errf(protocol.ErrBadRequest, "missing upgrade_station payload")
	}
	st := w.stations[req.StationID]
	if st == nil {
		return protocol.Errf(protocol.ErrNotFound, "station %q not found", req.StationID)
	}

	var cost float64
	switch req.Upgrade {
	case "elevator":
		if st.HasElevator {
			return protocol.Errf(protocol.ErrBadRequest, "station already has an elevator")
		}
		cost = upgradeElevatorCost
	case "escalator":
		if st.HasEscalator {
			return protocol.Errf(protocol.ErrBadRequest, "station already has escalators")
		}
		cost = upgradeEscalatorCost
	case "retail":
		if st.HasRetail {
			return protocol.Errf(protocol.ErrBadRequest, "station already has retail space")
		}
		cost = upgradeRetailCost
	case "platform":
		cost = upgradePlatformCost
	default:
		return protocol.Errf(protocol.ErrBadRequest, "unknown upgrade %q", req.Upgrade)
	}
	if cost > w.econ.Balance {
		return protocol.Errf(protocol.ErrNoFunds,
			"upgrade costs %.0f, balance is %.0f", cost, w.econ.Balance)
	}

	w.econ.Balance -= cost
	switch req.Upgrade {
	case "elevator":
		st.HasElevator = true
		st.Accessibility = clamp(st.Accessibility+15, 0, 100)
	case "escalator":
		st.HasEscalator = true
		st.Accessibility = clamp(st.Accessibility+10, 0, 100)
	case "retail":
		st.HasRetail = true
		st.RetailRevenue = 500
	case "platform":
		st.Capacity = int(float64(st.Capacity) * 1.5)
		st.PlatformLength += 50
	}
	return nil
}

func (w *World) upgradeLine(ref *protocol.LineRef) *protocol.ActionError {
	if ref == nil {
		return protocol.Errf(protocol.ErrBadRequest, "missing upgrade_line payload")
	}
	line := w.lines[ref.LineID]
	if line == nil {
		return protocol.Errf(protocol.ErrNotFound, "line %q not found", ref.LineID)
	}
	def, ok := w.cat.Upgrades.ByFrom[line.Level]
	if !ok {
		return protocol.Errf(protocol.ErrRequirements,
			"no upgrade available from level %q", line.Level)
	}
	if def.MinStations > 0 && len(line.Stations) < def.MinStations {
		return protocol.Errf(protocol.ErrRequirements,
			"needs %d stations, line has %d", def.MinStations, len(line.Stations))
	}
	if def.MinLoadFactor > 0 && line.LoadFactor < def.MinLoadFactor {
		return protocol.Errf(protocol.ErrRequirements,
			"needs load factor %.2f, line is at %.2f", def.MinLoadFactor, line.LoadFactor)
	}
	if def.Cost > w.econ.Balance {
		return protocol.Errf(protocol.ErrNoFunds,
			"upgrade costs %.0f, balance is %.0f", def.Cost, w.econ.Balance)
	}

	w.econ.Balance -= def.Cost
	line.Level = def.To
	line.VehicleCapacity += def.CapacityIncrease
	line.AverageSpeed += def.SpeedIncrease
	line.Reliability = clamp(line.Reliability+def.ReliabilityBonus, 0, 100)
	return nil
}

func (w *World) resolveEvent(req *protocol.ResolveEventReq) *protocol.ActionError {
	if req == nil {
		return protocol.Errf(protocol.ErrBadRequest, "missing resolve_event payload")
	}
	idx := w.eventIndex(req.EventID)
	if idx < 0 {
		return protocol.Errf(protocol.ErrNotFound, "event %q not found", req.EventID)
	}
	ev := w.events[idx]
	if req.Choice < 0 || req.Choice >= len(ev.Choices) {
		return protocol.Errf(protocol.ErrBadRequest,
			"choice %d outside 0..%d", req.Choice, len(ev.Choices)-1)
	}
	choice := ev.Choices[req.Choice]
	if choice.Cost > w.econ.Balance {
		return protocol.Errf(protocol.ErrNoFunds,
			"choice costs %.0f, balance is %.0f", choice.Cost, w.econ.Balance)
	}

	w.econ.Balance -= choice.Cost
	for _, lineID := range ev.AffectedLines {
		if line := w.lines[lineID]; line != nil {
			line.Reliability = clamp(line.Reliability+choice.Reliability, 0, 100)
		}
	}
	w.satisfaction.Overall = clamp(w.satisfaction.Overall+choice.Satisfaction, 0, 100)
	w.events = append(w.events[:idx], w.events[idx+1:]...)
	return nil
}

func (w *World) dismissEvent(ref *protocol.EventRef) *protocol.ActionError {
	if ref == nil {
		return protocol.Errf(protocol.ErrBadRequest, "missing dismiss_event payload")
	}
	idx := w.eventIndex(ref.EventID)
	if idx < 0 {
		return protocol.Errf(protocol.ErrNotFound, "event %q not found", ref.EventID)
	}
	// Ignoring a disruption keeps its satisfaction hit on the books.
	ev := w.events[idx]
	w.satisfaction.Overall = clamp(w.satisfaction.Overall+ev.Satisfaction, 0, 100)
	w.events = append(w.events[:idx], w.events[idx+1:]...)
	return nil
}

func (w *World) eventIndex(id string) int {
	for i, ev := range w.events {
		if ev.ID == id {
			return i
		}
	}
	return -1
}

func (w *World) buildDepot(req *protocol.BuildDepotReq) *protocol.ActionError {
	if req == nil {
		return protocol.Errf(protocol.ErrBadRequest, "missing build_depot payload")
	}
	if _, merr := w.cat.Mode(req.Mode); merr != nil {
		return protocol.Errf(protocol.ErrBadRequest, "%v", merr)
	}
	cost := 50_000_000.0
	if req.Mode == "bus" || req.Mode == "tram" {
		cost = 20_000_000
	}
	if cost > w.econ.Balance {
		return protocol.Errf(protocol.ErrNoFunds,
			"depot costs %.0f, balance is %.0f", cost, w.econ.Balance)
	}

	name := req.Name
	if name == "" {
		name = fmt.Sprintf("%s depot %d", req.Mode, len(w.depots)+1)
	}
	w.econ.Balance -= cost
	w.depots = append(w.depots, &Depot{
		ID: "dep-" + uuid.NewString()[:8], Name: name,
		Pos: Position{Lat: req.Lat, Lon: req.Lon}, Mode: req.Mode,
		Capacity: 20, MaintenanceBays: 3,
		ConstructionCost: cost, OperatingCost: 1000, CoverageRadius: 5,
	})
	return nil
}

func (w *World) takeLoan(req *protocol.TakeLoanReq) *protocol.ActionError {
	if req == nil {
		return protocol.Errf(protocol.ErrBadRequest, "missing take_loan payload")
	}
	if req.Amount <= 0 {
		return protocol.Errf(protocol.ErrBadRequest, "loan amount must be positive")
	}
	if req.Months < 12 || req.Months > 360 {
		return protocol.Errf(protocol.ErrBadRequest, "loan term %d outside 12..360 months", req.Months)
	}
	w.refreshCreditRating()
	if req.Amount > w.credit.AvailableCredit {
		return protocol.Errf(protocol.ErrRequirements,
			"amount %.0f exceeds available credit %.0f", req.Amount, w.credit.AvailableCredit)
	}

	annualRate := 0.05 + w.credit.RateModifier*0.05
	monthlyRate := annualRate / 12
	// Standard amortization.
	payment := req.Amount * monthlyRate /
		(1 - math.Pow(1+monthlyRate, -float64(req.Months)))

	w.econ.Balance += req.Amount
	w.loans = append(w.loans, &Loan{
		ID: "loan-" + uuid.NewString()[:8],
		Amount: req.Amount, AnnualRate: annualRate,
		MonthlyPayment: payment, Remaining: req.Amount,
		MonthsLeft: req.Months, Purpose: req.Purpose,
		Taken: w.time.Date,
	})
	return nil
}

func (w *World) setFare(req *protocol.SetFareReq) *protocol.ActionError {
	if req == nil {
		return protocol.Errf(protocol.ErrBadRequest, "missing set_fare payload")
	}
	if req.BaseFare <= 0 || req.BaseFare > 20 {
		return protocol.Errf(protocol.ErrBadRequest, "base fare %.2f outside (0, 20]", req.BaseFare)
	}
	if req.PeakSurcharge < 0 {
		return protocol.Errf(protocol.ErrBadRequest, "peak surcharge cannot be negative")
	}
	w.econ.BaseFare = req.BaseFare
	if req.PeakSurcharge > 0 {
		w.econ.PeakSurcharge = req.PeakSurcharge
	}
	return nil
}

func (w *World) setSpeed(req *protocol.SetSpeedReq) *protocol.ActionError {
	if req == nil {
		return protocol.Errf(protocol.ErrBadRequest, "missing set_speed payload")
	}
	if req.Speed < 0 || req.Speed >= len(w.tune.SpeedIntervalsMs) {
		return protocol.Errf(protocol.ErrBadRequest,
			"speed %d outside 0..%d", req.Speed, len(w.tune.SpeedIntervalsMs)-1)
	}
	w.gameSpeed = req.Speed
	return nil
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func filterTunnels(tunnels []*TunnelSegment, lineID string) []*TunnelSegment {
	out := tunnels[:0]
	for _, t := range tunnels {
		if t.LineID != lineID {
			out = append(out, t)
		}
	}
	return out
}
