package world

import "fmt"

// rebuildSuggestions refreshes the daily advisor list: overcrowded stations,
// uncovered districts, mistimed headways and money-losing lines, in that
// priority order.
func (w *World) rebuildSuggestions() {
	w.suggestions = w.suggestions[:0]

	for _, sid := range w.stationOrder {
		st := w.stations[sid]
		if st == nil || st.CrowdingLevel <= 0.8 {
			continue
		}
		priority := "high"
		if st.CrowdingLevel >= 0.95 {
			priority = "critical"
		}
		w.suggestions = append(w.suggestions, Suggestion{
			ID:            "sug-st-" + st.ID,
			Priority:      priority,
			Category:      "capacity",
			Title:         fmt.Sprintf("Relieve crowding at %s", st.Name),
			Description:   fmt.Sprintf("%s is at %.0f%% of platform holding capacity. Extend the platform or raise frequency on its lines.", st.Name, st.CrowdingLevel*100),
			EstimatedCost: upgradePlatformCost,
			Benefit:       "Shorter waits and fewer walk-aways",
		})
	}

	for _, d := range w.districts {
		if d.Coverage >= 0.5 {
			continue
		}
		w.suggestions = append(w.suggestions, Suggestion{
			ID:            "sug-cov-" + d.ID,
			Priority:      "medium",
			Category:      "coverage",
			Title:         fmt.Sprintf("Bring service to %s", d.Name),
			Description:   fmt.Sprintf("%s (%0.f residents) has no station. A new line or an extension would capture its demand.", d.Name, d.Population),
			EstimatedCost: 50_000_000,
			Benefit:       fmt.Sprintf("Up to %.0f new daily riders", d.Population*0.1),
		})
	}

	for _, lid := range w.lineOrder {
		line := w.lines[lid]
		if line == nil || line.Phase != PhaseOperational {
			continue
		}

		// Compare the scheduled headway with what current ridership wants.
		trips := 60.0 / float64(clampInt(line.Frequency, 1, 30))
		demand := line.LoadFactor * float64(line.VehicleCapacity) * trips
		opt := OptimalFrequency(demand, line.VehicleCapacity, 0.75)
		if diff := opt - line.Frequency; diff >= 5 || diff <= -5 {
			verb := "Thin out"
			if diff < 0 {
				verb = "Tighten"
			}
			w.suggestions = append(w.suggestions, Suggestion{
				ID:            "sug-freq-" + line.ID,
				Priority:      "medium",
				Category:      "efficiency",
				Title:         fmt.Sprintf("%s the %s timetable", verb, line.Name),
				Description:   fmt.Sprintf("%s runs every %d min; ridership supports every %d min at a 75%% target load.", line.Name, line.Frequency, opt),
				Benefit:       "Better match of capacity to demand",
				AffectedLines: []string{line.ID},
			})
		}

		if line.FareboxRecovery < 50 {
			w.suggestions = append(w.suggestions, Suggestion{
				ID:            "sug-ln-" + line.ID,
				Priority:      "low",
				Category:      "efficiency",
				Title:         fmt.Sprintf("Review %s economics", line.Name),
				Description:   fmt.Sprintf("%s recovers only %.0f%% of its operating cost from fares. Lower frequency off-peak or restructure the route.", line.Name, line.FareboxRecovery),
				Benefit:       "Reduced hourly losses",
				AffectedLines: []string{line.ID},
			})
		}
	}
}

// Suggestions returns the current advisor list.
func (w *World) Suggestions() []Suggestion { return w.suggestions }
