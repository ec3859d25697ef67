package protocol

// Act commands. Closed set; unknown commands are rejected at the boundary.
const (
	CmdBuildLine      = "BUILD_LINE"
	CmdRemoveLine     = "REMOVE_LINE"
	CmdAddStation     = "ADD_STATION"
	CmdRemoveStation  = "REMOVE_STATION"
	CmdSetFrequency   = "SET_FREQUENCY"
	CmdUpgradeStation = "UPGRADE_STATION"
	CmdUpgradeLine    = "UPGRADE_LINE"
	CmdResolveEvent   = "RESOLVE_EVENT"
	CmdDismissEvent   = "DISMISS_EVENT"
	CmdBuildDepot     = "BUILD_DEPOT"
	CmdTakeLoan       = "TAKE_LOAN"
	CmdSetFare        = "SET_FARE"
	CmdSetSpeed       = "SET_SPEED"
)

var knownCommands = map[string]struct{}{
	CmdBuildLine:      {},
	CmdRemoveLine:     {},
	CmdAddStation:     {},
	CmdRemoveStation:  {},
	CmdSetFrequency:   {},
	CmdUpgradeStation: {},
	CmdUpgradeLine:    {},
	CmdResolveEvent:   {},
	CmdDismissEvent:   {},
	CmdBuildDepot:     {},
	CmdTakeLoan:       {},
	CmdSetFare:        {},
	CmdSetSpeed:       {},
}

func IsKnownCommand(cmd string) bool {
	_, ok := knownCommands[cmd]
	return ok
}

type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
}

type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	WorldID         string `json:"world_id"`
	Seed            int64  `json:"seed"`
	TransportDigest string `json:"transport_digest"`
	EventsDigest    string `json:"events_digest"`
}

// ActMsg carries exactly one command payload, selected by Cmd.
type ActMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id,omitempty"` // client echo token
	Cmd             string `json:"cmd"`

	BuildLine      *BuildLineReq      `json:"build_line,omitempty"`
	RemoveLine     *LineRef           `json:"remove_line,omitempty"`
	AddStation     *AddStationReq     `json:"add_station,omitempty"`
	RemoveStation  *StationRef        `json:"remove_station,omitempty"`
	SetFrequency   *SetFrequencyReq   `json:"set_frequency,omitempty"`
	UpgradeStation *UpgradeStationReq `json:"upgrade_station,omitempty"`
	UpgradeLine    *LineRef           `json:"upgrade_line,omitempty"`
	ResolveEvent   *ResolveEventReq   `json:"resolve_event,omitempty"`
	DismissEvent   *EventRef          `json:"dismiss_event,omitempty"`
	BuildDepot     *BuildDepotReq     `json:"build_depot,omitempty"`
	TakeLoan       *TakeLoanReq       `json:"take_loan,omitempty"`
	SetFare        *SetFareReq        `json:"set_fare,omitempty"`
	SetSpeed       *SetSpeedReq       `json:"set_speed,omitempty"`
}

type LineRef struct {
	LineID string `json:"line_id"`
}

type StationRef struct {
	StationID string `json:"station_id"`
}

type EventRef struct {
	EventID string `json:"event_id"`
}

type StationSite struct {
	Name  string  `json:"name,omitempty"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Depth string  `json:"depth,omitempty"` // surface|shallow|medium|deep
}

type BuildLineReq struct {
	Name          string        `json:"name"`
	Mode          string        `json:"mode"`
	Color         string        `json:"color,omitempty"`
	Loop          bool          `json:"loop,omitempty"`
	Bidirectional bool          `json:"bidirectional,omitempty"`
	Frequency     int           `json:"frequency_min,omitempty"`
	Stations      []StationSite `json:"stations"`
}

type AddStationReq struct {
	LineID string      `json:"line_id"`
	Site   StationSite `json:"site"`
}

type SetFrequencyReq struct {
	LineID        string `json:"line_id"`
	FrequencyMin  int    `json:"frequency_min"`
	RushFrequency int    `json:"rush_frequency_min,omitempty"`
}

type UpgradeStationReq struct {
	StationID string `json:"station_id"`
	Upgrade   string `json:"upgrade"` // elevator|escalator|retail|platform
}

type ResolveEventReq struct {
	EventID string `json:"event_id"`
	Choice  int    `json:"choice"`
}

type BuildDepotReq struct {
	Name string  `json:"name,omitempty"`
	Mode string  `json:"mode"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

type TakeLoanReq struct {
	Amount  float64 `json:"amount"`
	Months  int     `json:"months"`
	Purpose string  `json:"purpose,omitempty"`
}

type SetFareReq struct {
	BaseFare      float64 `json:"base_fare"`
	PeakSurcharge float64 `json:"peak_surcharge,omitempty"`
}

type SetSpeedReq struct {
	Speed int `json:"speed"` // 0 paused, 1..3
}

// ResultMsg reports action acceptance or rejection.
type ResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id,omitempty"`
	OK              bool   `json:"ok"`
	Code            string `json:"code,omitempty"`
	Reason          string `json:"reason,omitempty"`
}
