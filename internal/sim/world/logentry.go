package world

// HourLogEntry is the per-hour ledger line written to the compressed log.
type HourLogEntry struct {
	WorldID      string  `json:"world_id"`
	Hour         int     `json:"hour"`
	DateMs       int64   `json:"date_ms"`
	Passengers   int     `json:"passengers"`
	Revenue      float64 `json:"revenue"`
	Costs        float64 `json:"costs"`
	NetIncome    float64 `json:"net_income"`
	Balance      float64 `json:"balance"`
	Satisfaction float64 `json:"satisfaction"`
	Lines        int     `json:"lines"`
	Stations     int     `json:"stations"`
	Vehicles     int     `json:"vehicles"`
}

// AuditEntry records one player action and its outcome.
type AuditEntry struct {
	WorldID string `json:"world_id"`
	AtMs    int64  `json:"at_ms"`
	Cmd     string `json:"cmd"`
	OK      bool   `json:"ok"`
	Code    string `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// HourLog summarizes the hour just simulated.
func (w *World) HourLog() HourLogEntry {
	return HourLogEntry{
		WorldID:      w.cfg.ID,
		Hour:         w.hoursRun,
		DateMs:       w.time.Date.UnixMilli(),
		Passengers:   w.analytics.TotalPassengers,
		Revenue:      w.analytics.TotalRevenue,
		Costs:        w.analytics.TotalCosts,
		NetIncome:    w.analytics.NetIncome,
		Balance:      w.econ.Balance,
		Satisfaction: w.satisfaction.Overall,
		Lines:        len(w.lineOrder),
		Stations:     len(w.stationOrder),
		Vehicles:     len(w.vehicleOrder),
	}
}
