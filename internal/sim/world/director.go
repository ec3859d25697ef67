package world

import "github.com/google/uuid"

// maybeDisruption rolls for a service disruption from the event catalog. Only
// one disruption runs at a time; impact scales with the template's severity.
func (w *World) maybeDisruption() {
	if len(w.events) > 0 || len(w.lineOrder) == 0 {
		return
	}
	if w.rng.Float64() >= w.tune.EventChancePerHour {
		return
	}
	if len(w.cat.Events.IDs) == 0 {
		return
	}

	tmpl := w.cat.Events.ByID[w.cat.Events.IDs[w.rng.Intn(len(w.cat.Events.IDs))]]

	n := tmpl.AffectedLines
	if n <= 0 || n > len(w.lineOrder) {
		n = 1
	}
	affected := make([]string, 0, n)
	for _, lid := range w.lineOrder[:n] {
		affected = append(affected, lid)
	}

	ev := &GameEvent{
		ID:            "ev-" + uuid.NewString()[:8],
		Kind:          tmpl.ID,
		Title:         tmpl.Title,
		Description:   tmpl.Description,
		AffectedLines: affected,
		Reliability:   -tmpl.Severity * 30,
		Cost:          tmpl.Severity * 50_000,
		Satisfaction:  -tmpl.Severity * 20,
		DurationHours: int(tmpl.Severity * 4),
	}
	if ev.DurationHours < 1 {
		ev.DurationHours = 1
	}
	for _, c := range tmpl.Choices {
		ev.Choices = append(ev.Choices, EventChoice{
			Text: c.Text, Cost: c.Cost,
			Reliability: c.Reliability, Satisfaction: c.Satisfaction,
			DurationHours: c.DurationHours,
		})
	}

	// Immediate impact; resolving a choice can claw some of it back.
	for _, lid := range affected {
		if line := w.lines[lid]; line != nil {
			line.Reliability = clamp(line.Reliability+ev.Reliability, 0, 100)
		}
	}
	w.econ.Balance -= ev.Cost
	w.events = append(w.events, ev)
}

// tickEvents counts down active disruptions. An expired event restores the
// reliability it took; the satisfaction damage has already washed through
// the hourly aggregate.
func (w *World) tickEvents() {
	kept := w.events[:0]
	for _, ev := range w.events {
		ev.DurationHours--
		if ev.DurationHours > 0 {
			kept = append(kept, ev)
			continue
		}
		for _, lid := range ev.AffectedLines {
			if line := w.lines[lid]; line != nil {
				line.Reliability = clamp(line.Reliability-ev.Reliability, 0, 100)
			}
		}
	}
	w.events = kept
}

// ActiveEvents is the player-facing view of running disruptions.
func (w *World) ActiveEvents() []*GameEvent { return w.events }
