package protocol

// StateMsg is the periodic world summary pushed to connected clients. It is
// a dashboard view, not a snapshot; clients needing full detail save and
// reload instead.
type StateMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	DateMs    int64  `json:"date_ms"`
	Hour      int    `json:"hour"`
	TimeOfDay string `json:"time_of_day"`
	DayType   string `json:"day_type"`
	GameSpeed int    `json:"game_speed"`

	Balance      float64 `json:"balance"`
	NetIncome    float64 `json:"net_income"`
	Satisfaction float64 `json:"satisfaction"`
	Passengers   int     `json:"passengers"`

	Lines        int `json:"lines"`
	Stations     int `json:"stations"`
	Vehicles     int `json:"vehicles"`
	ActiveEvents int `json:"active_events"`
	Bottlenecks  int `json:"bottlenecks"`

	Vehicles2D []VehiclePos `json:"vehicle_positions,omitempty"`
}

type VehiclePos struct {
	VehicleID string  `json:"vehicle_id"`
	LineID    string  `json:"line_id"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Load      int     `json:"load"`
	Status    string  `json:"status"`
}
