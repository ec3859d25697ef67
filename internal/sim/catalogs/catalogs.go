package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Catalogs struct {
	Transport TransportCatalog
	Vehicles  VehicleCatalog
	Events    EventCatalog
	Upgrades  UpgradeCatalog
}

// TransportCatalog holds per-mode performance and cost constants.
type TransportCatalog struct {
	ByMode map[string]TransportDef
	Digest string
}

type TransportDef struct {
	ID                    string  `json:"id"`
	BaseSpeedKmh          float64 `json:"base_speed_kmh"`
	Capacity              int     `json:"capacity"`
	CostPerKm             float64 `json:"cost_per_km"`
	OperatingCostPerHour  float64 `json:"operating_cost_per_hour"`
	TicketPrice           float64 `json:"ticket_price"`
	CanGoUnderground      bool    `json:"can_go_underground"`
	NeedsDedicatedTrack   bool    `json:"needs_dedicated_track"`
	MinStationDistanceM   float64 `json:"min_station_distance_m"`
	MaxGradientPct        float64 `json:"max_gradient_pct"`
	Attractiveness        float64 `json:"attractiveness"`
	ConstructionDaysPerKm float64 `json:"construction_days_per_km"`
}

// VehicleCatalog holds the fleet spec per mode. One source of truth shared by
// the spawner and the characteristics table.
type VehicleCatalog struct {
	ByMode map[string]VehicleDef
	Digest string
}

type VehicleDef struct {
	Mode     string   `json:"mode"`
	Models   []string `json:"models"`
	Capacity int      `json:"capacity"`
	SpeedKmh float64  `json:"speed_kmh"`
	Electric bool     `json:"electric"`
}

type EventCatalog struct {
	ByID   map[string]EventTemplate
	IDs    []string // load order, for deterministic sampling
	Digest string
}

type EventTemplate struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Severity      float64       `json:"severity"`
	AffectedLines int           `json:"affected_lines"`
	Choices       []EventChoice `json:"choices"`
}

type EventChoice struct {
	Text          string  `json:"text"`
	Cost          float64 `json:"cost"`
	Reliability   float64 `json:"reliability,omitempty"`
	Satisfaction  float64 `json:"satisfaction,omitempty"`
	DurationHours int     `json:"duration_hours,omitempty"`
}

// UpgradeCatalog is the linear bus -> brt -> light_rail -> metro ->
// regional_rail tree keyed by the level being upgraded from.
type UpgradeCatalog struct {
	ByFrom map[string]UpgradeDef
	Digest string
}

type UpgradeDef struct {
	From             string   `json:"from"`
	To               string   `json:"to"`
	Cost             float64  `json:"cost"`
	TimeDays         int      `json:"time_days"`
	CapacityIncrease int      `json:"capacity_increase"`
	SpeedIncrease    float64  `json:"speed_increase"`
	ReliabilityBonus float64  `json:"reliability_bonus"`
	MinStations      int      `json:"min_stations,omitempty"`
	MinLoadFactor    float64  `json:"min_load_factor,omitempty"`
	Requirements     []string `json:"requirements"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadTransport(filepath.Join(configDir, "transport.json"), &c.Transport); err != nil {
		return nil, err
	}
	if err := loadVehicles(filepath.Join(configDir, "vehicles.json"), &c.Vehicles); err != nil {
		return nil, err
	}
	if err := loadEvents(filepath.Join(configDir, "events.json"), &c.Events); err != nil {
		return nil, err
	}
	if err := loadUpgrades(filepath.Join(configDir, "upgrades.json"), &c.Upgrades); err != nil {
		return nil, err
	}

	// Every transport mode must have a fleet spec.
	for mode := range c.Transport.ByMode {
		if _, ok := c.Vehicles.ByMode[mode]; !ok {
			return nil, fmt.Errorf("vehicles.json: missing fleet spec for mode %q", mode)
		}
	}

	return &c, nil
}

// Mode resolves a transport mode or fails. An unknown mode is a configuration
// error, never a silent default.
func (c *Catalogs) Mode(id string) (TransportDef, error) {
	def, ok := c.Transport.ByMode[id]
	if !ok {
		return TransportDef{}, fmt.Errorf("unknown transport mode %q", id)
	}
	return def, nil
}

func (c *Catalogs) Fleet(mode string) (VehicleDef, error) {
	def, ok := c.Vehicles.ByMode[mode]
	if !ok {
		return VehicleDef{}, fmt.Errorf("no fleet spec for mode %q", mode)
	}
	return def, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadTransport(path string, out *TransportCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []TransportDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("transport.json: %w", err)
	}
	out.ByMode = map[string]TransportDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("transport.json: empty id")
		}
		if d.Capacity <= 0 || d.BaseSpeedKmh <= 0 {
			return fmt.Errorf("transport.json: mode %q: capacity and speed must be positive", d.ID)
		}
		out.ByMode[d.ID] = d
	}
	return nil
}

func loadVehicles(path string, out *VehicleCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []VehicleDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("vehicles.json: %w", err)
	}
	out.ByMode = map[string]VehicleDef{}
	for _, d := range defs {
		if d.Mode == "" {
			return fmt.Errorf("vehicles.json: empty mode")
		}
		if len(d.Models) == 0 {
			return fmt.Errorf("vehicles.json: mode %q: no models", d.Mode)
		}
		out.ByMode[d.Mode] = d
	}
	return nil
}

func loadEvents(path string, out *EventCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []EventTemplate
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("events.json: %w", err)
	}
	out.ByID = map[string]EventTemplate{}
	for _, ev := range defs {
		if ev.ID == "" {
			return fmt.Errorf("events.json: empty id")
		}
		if len(ev.Choices) < 2 {
			return fmt.Errorf("events.json: event %q needs at least 2 choices", ev.ID)
		}
		out.ByID[ev.ID] = ev
		out.IDs = append(out.IDs, ev.ID)
	}
	return nil
}

func loadUpgrades(path string, out *UpgradeCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []UpgradeDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("upgrades.json: %w", err)
	}
	out.ByFrom = map[string]UpgradeDef{}
	for _, d := range defs {
		if d.From == "" || d.To == "" {
			return fmt.Errorf("upgrades.json: step missing from/to")
		}
		if _, dup := out.ByFrom[d.From]; dup {
			return fmt.Errorf("upgrades.json: duplicate upgrade from %q", d.From)
		}
		out.ByFrom[d.From] = d
	}
	return nil
}
