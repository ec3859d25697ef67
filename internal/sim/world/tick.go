package world

import (
	"hash/fnv"
	"math"
	"time"
)

// Station platforms can only hold so many waiting passengers; overflow walks
// away and counts as unserved demand.
const platformHoldFraction = 0.3

// Fares captured per passenger trip; the rest of the journey value is
// transfers, passes and spillage.
const fareCaptureRate = 0.3

// SimulateHour advances the world by one simulated hour. This is the only
// place hourly economics, demand and the calculator cadences run; vehicle
// kinematics live in frame.
func (w *World) SimulateHour() {
	w.hoursRun++
	w.time = gameTimeAt(w.time.Date.Add(time.Hour))

	w.advanceConstruction()

	stats := w.stationPass()
	w.linePass(stats)
	w.aggregateSatisfaction(stats)
	// Overheads after satisfaction: the subsidy gate reads this hour's score.
	w.overheadPass()

	net := w.hourNetIncome()
	w.econ.Balance += net
	w.analytics.NetIncome = net
	w.analytics.TotalPassengers = stats.boarded
	w.appendTrends(stats)

	w.tickEvents()
	w.maybeDisruption()
	w.maybeSpecialEvent()
	w.clearExpiredSpecialEvent()

	// Calculator cadences. Hourly ones first, then the slower bands.
	w.rebuildHeatmap()
	w.rebuildCompetition()
	w.rebuildProfitability()
	w.rebuildElasticity()
	w.rebuildTracking()
	w.rebuildUpgradePaths()
	w.updateVictory()
	w.maybeComplaint()
	w.decayVehicleCondition()

	if w.time.Hour%6 == 0 {
		w.detectBottlenecks()
		w.updateCompetitors()
	}
	if w.time.Hour == 0 {
		w.rebuildSuggestions()
		w.updateMaintenance()
		w.updatePolitics()
		w.updateUnion()
		w.updateStaff()
	}
	if w.time.Hour == 12 {
		w.applyTODEffects()
	}
	if w.time.Date.Day() == 1 && w.time.Hour == 0 {
		w.payLoans()
		w.refreshCreditRating()
		w.updateInducedDemand()
	}

	if w.onHour != nil {
		w.onHour(w.HourLog())
	}
}

// hourStats accumulates what the station and line passes produce for the
// satisfaction and analytics rollups.
type hourStats struct {
	arrived  int
	boarded  int
	unserved int

	waitSum     float64
	crowdSum    float64
	stationN    int
	boardedByLn map[string]int
}

// stationPass regenerates waiting passengers, boards them onto serving lines
// and updates per-station wait and crowding.
func (w *World) stationPass() *hourStats {
	stats := &hourStats{boardedByLn: map[string]int{}}

	for _, sid := range w.stationOrder {
		st := w.stations[sid]
		if st == nil {
			continue
		}
		serving := w.servingLines(sid)

		arriving := w.arrivingPassengers(st)
		st.Passengers += arriving
		stats.arrived += arriving

		// Hourly boarding throughput across all serving lines.
		throughput := 0.0
		minFreq := 0
		for _, line := range serving {
			freq := w.currentFrequency(line)
			trips := 60.0 / float64(freq)
			throughput += float64(line.VehicleCapacity) * trips * 0.7
			if minFreq == 0 || freq < minFreq {
				minFreq = freq
			}
		}
		boarded := st.Passengers
		if b := int(throughput); boarded > b {
			boarded = b
		}
		st.Passengers -= boarded
		stats.boarded += boarded

		// Attribute boarded passengers to lines by their share of throughput.
		if throughput > 0 {
			for _, line := range serving {
				freq := w.currentFrequency(line)
				share := float64(line.VehicleCapacity) * (60.0 / float64(freq)) * 0.7 / throughput
				stats.boardedByLn[line.ID] += int(float64(boarded) * share)
			}
		}

		// Platform overflow walks away.
		holdCap := int(float64(st.Capacity) * platformHoldFraction)
		if st.Passengers > holdCap {
			stats.unserved += st.Passengers - holdCap
			st.Passengers = holdCap
		}
		if st.Passengers < 0 {
			st.Passengers = 0
		}

		if st.Capacity > 0 {
			st.CrowdingLevel = finiteOr(float64(st.Passengers)/(float64(st.Capacity)*platformHoldFraction), 0)
		}
		if minFreq > 0 {
			st.WaitTime = float64(minFreq) / 2 * (1 + st.CrowdingLevel*0.5)
		} else {
			st.WaitTime = 30 // nothing serves this station
		}

		stats.waitSum += st.WaitTime
		stats.crowdSum += clamp(st.CrowdingLevel, 0, 1)
		stats.stationN++
	}
	return stats
}

// arrivingPassengers is the hourly arrival count for one station: a stable
// per-station base rate shaped by district demand, mode attractiveness, the
// rush multiplier and a +-50% jitter.
func (w *World) arrivingPassengers(st *Station) int {
	base := 30 + float64(stationHash(st.ID)%271)

	if d := w.districtAt(st.Pos); d != nil {
		base *= 0.5 + d.Density
		switch w.time.TimeOfDay {
		case MorningRush:
			base *= 0.5 + d.MorningDemand
		case EveningRush:
			base *= 0.5 + d.EveningDemand
		}
		if w.time.DayType == Weekend {
			base *= 0.5 + d.WeekendDemand
		}
	}
	if mode, err := w.cat.Mode(st.Mode); err == nil {
		base *= mode.Attractiveness
	}
	base *= w.time.RushMultiplier
	base *= 0.5 + w.rng.Float64() // jitter

	if w.specialEvent != nil {
		if d := w.districtAt(st.Pos); d != nil && d.ID == w.specialEvent.DistrictID {
			base *= w.specialEvent.DemandMul
		}
	}
	return int(base)
}

func stationHash(id string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(id))
	return h.Sum32()
}

func (w *World) servingLines(stationID string) []*TransportLine {
	var out []*TransportLine
	for _, lid := range w.lineOrder {
		line := w.lines[lid]
		if line != nil && line.Phase == PhaseOperational && containsID(line.Stations, stationID) {
			out = append(out, line)
		}
	}
	return out
}

func (w *World) currentFrequency(line *TransportLine) int {
	freq := line.Frequency
	if (w.time.TimeOfDay == MorningRush || w.time.TimeOfDay == EveningRush) && line.RushFrequency > 0 {
		freq = line.RushFrequency
	}
	return clampInt(freq, 1, 30)
}

// linePass is the single revenue pipeline: fares earned by each line this
// hour, network-scaled, plus operating cost and load factor updates.
func (w *World) linePass(stats *hourStats) {
	fare := w.econ.BaseFare
	if w.time.TimeOfDay == MorningRush || w.time.TimeOfDay == EveningRush {
		fare += w.econ.PeakSurcharge
	}
	networkMul := math.Min(1+0.15*float64(len(w.stationOrder))/10, 2.5)

	w.econ.FareRevenue = 0
	w.econ.OperatingCosts = 0

	for _, lid := range w.lineOrder {
		line := w.lines[lid]
		if line == nil {
			continue
		}
		if line.Phase != PhaseOperational {
			line.Revenue = 0
			continue
		}
		boarded := stats.boardedByLn[line.ID]

		line.Revenue = float64(boarded) * fare * fareCaptureRate * networkMul
		if w.specialEvent != nil {
			line.Revenue += w.specialEvent.BonusRevenue / float64(len(w.lineOrder))
		}
		line.LoadFactor = LoadFactorOf(float64(boarded), line.VehicleCapacity, w.currentFrequency(line))
		line.FareboxRecovery = FareboxRecovery(line.Revenue, line.OperatingCost)

		w.econ.FareRevenue += line.Revenue
		w.econ.OperatingCosts += line.OperatingCost
	}

	// Ancillary revenue. The operator keeps 30% of station retail takings.
	w.econ.RetailRevenue = 0
	w.econ.AdvertisingRevenue = 0
	for _, sid := range w.stationOrder {
		st := w.stations[sid]
		if st == nil {
			continue
		}
		w.econ.RetailRevenue += st.RetailRevenue * 0.3
		w.econ.AdvertisingRevenue += 150 // per-station ad space
	}
	for _, d := range w.depots {
		w.econ.OperatingCosts += d.OperatingCost
	}
	for _, lid := range w.lineOrder {
		line := w.lines[lid]
		if line != nil && line.Phase == PhaseOperational {
			w.econ.OperatingCosts += w.deadheadCost(line) / 24
		}
	}
}

// deadheadCost is the daily cost of empty runs between a line and its nearest
// depot of the same mode, $500 per km per vehicle. Lines without a depot park
// at their termini for free.
func (w *World) deadheadCost(line *TransportLine) float64 {
	depot := w.depotFor(line.Mode)
	if depot == nil {
		return 0
	}
	minKm := math.Inf(1)
	for _, st := range w.lineStops(line) {
		if km := haversineKm(st.Pos, depot.Pos); km < minKm {
			minKm = km
		}
	}
	if math.IsInf(minKm, 1) {
		return 0
	}
	return minKm * 500 * float64(w.activeVehicleCount(line.ID))
}

// overheadPass charges the fixed hourly overheads scaled by system size. The
// subsidy covers 30% of the full cost base, overheads included, once riders
// are happy enough.
func (w *World) overheadPass() {
	st := float64(len(w.stationOrder))
	ln := float64(len(w.lineOrder))

	w.econ.StaffCosts = (st*2000 + ln*5000) / 24
	w.econ.MaintenanceCosts = (st*1000 + ln*2000) / 24
	w.econ.EnergyCosts = (st*500 + ln*1500) / 24
	w.econ.DebtService = (ln * 1000) / 24

	w.econ.Subsidies = 0
	if w.satisfaction.Overall > 70 {
		w.econ.Subsidies = w.totalHourlyCosts() * 0.3
	}
}

// totalHourlyCosts is line operating cost plus every overhead stream,
// including the 5% administrative surcharge on operating cost.
func (w *World) totalHourlyCosts() float64 {
	admin := w.econ.OperatingCosts * 0.05
	return w.econ.OperatingCosts + w.econ.StaffCosts + w.econ.MaintenanceCosts +
		w.econ.EnergyCosts + w.econ.DebtService + admin
}

func (w *World) hourNetIncome() float64 {
	revenue := w.econ.FareRevenue + w.econ.AdvertisingRevenue + w.econ.RetailRevenue + w.econ.Subsidies
	costs := w.totalHourlyCosts()

	w.analytics.TotalRevenue = revenue
	w.analytics.TotalCosts = costs
	return revenue - costs
}

func (w *World) aggregateSatisfaction(stats *hourStats) {
	f := SatisfactionFactors{Reliability: 95, Cleanliness: 80, Safety: 85, Accessibility: 70}

	if stats.stationN > 0 {
		f.WaitTime = stats.waitSum / float64(stats.stationN)
		f.Crowding = stats.crowdSum / float64(stats.stationN)

		var clean, safe, access float64
		for _, sid := range w.stationOrder {
			if st := w.stations[sid]; st != nil {
				clean += st.Cleanliness
				safe += st.Safety
				access += st.Accessibility
			}
		}
		n := float64(stats.stationN)
		f.Cleanliness = clean / n
		f.Safety = safe / n
		f.Accessibility = access / n
	}

	if n := len(w.lineOrder); n > 0 {
		var rel, travel float64
		for _, lid := range w.lineOrder {
			line := w.lines[lid]
			rel += line.Reliability
			travel += w.lineTravelMinutes(line)
		}
		f.Reliability = rel / float64(n)
		f.TravelTime = travel / float64(n)
	}

	f.Coverage = w.systemCoverage()
	f.Overall = clamp(OverallSatisfaction(f), 0, 100)
	w.satisfaction = f

	// Districts feel the system score, discounted where service is thin.
	for _, d := range w.districts {
		d.Satisfaction = clamp(f.Overall*(0.5+0.5*d.Coverage), 0, 100)
	}

	w.analytics.AverageWaitTime = f.WaitTime
	w.analytics.AverageTravelTime = f.TravelTime
	w.analytics.SystemReliability = f.Reliability
	w.analytics.SystemCoverage = f.Coverage
}

// lineTravelMinutes is the end-to-end run time of a line.
func (w *World) lineTravelMinutes(line *TransportLine) float64 {
	stops := w.lineStops(line)
	if len(stops) < 2 || line.AverageSpeed <= 0 {
		return 0
	}
	km := 0.0
	for i := 1; i < len(stops); i++ {
		km += haversineKm(stops[i-1].Pos, stops[i].Pos)
	}
	return km / line.AverageSpeed * 60
}

// systemCoverage is the population share living in a district with at least
// one station.
func (w *World) systemCoverage() float64 {
	var total, covered float64
	for _, d := range w.districts {
		total += d.Population
		d.Coverage = 0
		for _, sid := range w.stationOrder {
			st := w.stations[sid]
			if st != nil && flatDistanceM(st.Pos, d.Center) <= d.Radius {
				d.Coverage = 1
				covered += d.Population
				break
			}
		}
	}
	if total == 0 {
		return 0
	}
	return covered / total
}

func (w *World) appendTrends(stats *hourStats) {
	window := w.tune.TrendWindowHours
	if window <= 0 {
		window = 30
	}
	w.analytics.PassengerTrend = appendTrimInt(w.analytics.PassengerTrend, stats.boarded, window)
	w.analytics.RevenueTrend = appendTrim(w.analytics.RevenueTrend, w.analytics.TotalRevenue, window)
	w.analytics.SatisfactionTrend = appendTrim(w.analytics.SatisfactionTrend, w.satisfaction.Overall, window)
}

func appendTrim(s []float64, v float64, n int) []float64 {
	s = append(s, v)
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return s
}

func appendTrimInt(s []int, v, n int) []int {
	s = append(s, v)
	if len(s) > n {
		s = s[len(s)-n:]
	}
	return s
}

// advanceConstruction moves lines through their build phases. The last tenth
// of the schedule is testing; hitting zero opens the line.
func (w *World) advanceConstruction() {
	for _, lid := range w.lineOrder {
		line := w.lines[lid]
		if line == nil || line.Phase == PhaseOperational {
			continue
		}
		if line.Phase == PhasePlanning {
			line.Phase = PhaseConstruction
		}
		line.ConstructionDaysLeft -= 1.0 / 24
		total := line.ConstructionDaysTotal
		if total <= 0 {
			total = 1
		}
		line.ConstructionProgress = clamp((1-line.ConstructionDaysLeft/total)*100, 0, 100)

		switch {
		case line.ConstructionDaysLeft <= 0:
			line.ConstructionDaysLeft = 0
			line.ConstructionProgress = 100
			line.Phase = PhaseOperational
		case line.ConstructionDaysLeft <= total*0.1:
			line.Phase = PhaseTesting
		}
	}
}

func (w *World) decayVehicleCondition() {
	for _, id := range w.vehicleOrder {
		veh := w.vehicles[id]
		if veh == nil {
			continue
		}
		vs := w.vehicleStates[id]
		if vs != nil && vs.Status == VehicleMaintenance {
			continue
		}
		veh.Condition = clamp(veh.Condition-0.01, 0, 100)
		veh.AgeYears += 1.0 / (24 * 365)
	}
}

func (w *World) payLoans() {
	kept := w.loans[:0]
	for _, loan := range w.loans {
		w.econ.Balance -= loan.MonthlyPayment
		interest := loan.Remaining * loan.AnnualRate / 12
		principal := loan.MonthlyPayment - interest
		loan.Remaining = math.Max(0, loan.Remaining-principal)
		loan.MonthsLeft--
		if loan.MonthsLeft > 0 && loan.Remaining > 0 {
			kept = append(kept, loan)
		}
	}
	w.loans = kept
}
