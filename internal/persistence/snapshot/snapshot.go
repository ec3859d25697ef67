package snapshot

import "encoding/json"

// Version tags the snapshot schema. Readers must refuse versions they do not
// know instead of guessing.
const Version = 1

// V1 is the complete persisted world. Dates travel as epoch milliseconds;
// derived read models (heatmaps, bottlenecks, suggestions) are rebuilt on
// load and never stored.
type V1 struct {
	Version int `json:"version"`

	WorldID          string `json:"world_id"`
	Seed             int64  `json:"seed"`
	Seq              int    `json:"seq"`
	HoursRun         int    `json:"hours_run"`
	DateMs           int64  `json:"date_ms"`
	GameSpeed        int    `json:"game_speed"`
	SatisfactionDays int    `json:"satisfaction_days"`

	Economics    EconomicsV1 `json:"economics"`
	Satisfaction FactorsV1   `json:"satisfaction"`
	Analytics    AnalyticsV1 `json:"analytics"`

	Stations      []StationV1      `json:"stations"`
	Lines         []LineV1         `json:"lines"`
	Tunnels       []TunnelV1       `json:"tunnels,omitempty"`
	Vehicles      []VehicleV1      `json:"vehicles,omitempty"`
	VehicleStates []VehicleStateV1 `json:"vehicle_states,omitempty"`
	Districts     []DistrictV1     `json:"districts"`
	Depots        []DepotV1        `json:"depots,omitempty"`
	Loans         []LoanV1         `json:"loans,omitempty"`

	Events       []EventV1      `json:"events,omitempty"`
	SpecialEvent *SpecialEvV1   `json:"special_event,omitempty"`
	Complaints   []ComplaintV1  `json:"complaints,omitempty"`
	Union        *UnionV1       `json:"union,omitempty"`
	CreditScore  float64        `json:"credit_score"`
	Council      *CouncilV1     `json:"council,omitempty"`
	Politics     []PoliticalV1  `json:"political_demands,omitempty"`
	Competitors  []CompetitorV1 `json:"competitors,omitempty"`
	Induced      []InducedV1    `json:"induced_demand,omitempty"`
}

type PositionV1 struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Alt float64 `json:"alt,omitempty"`
}

type EconomicsV1 struct {
	Balance            float64 `json:"balance"`
	FareRevenue        float64 `json:"fare_revenue"`
	AdvertisingRevenue float64 `json:"advertising_revenue"`
	RetailRevenue      float64 `json:"retail_revenue"`
	Subsidies          float64 `json:"subsidies"`
	OperatingCosts     float64 `json:"operating_costs"`
	MaintenanceCosts   float64 `json:"maintenance_costs"`
	StaffCosts         float64 `json:"staff_costs"`
	EnergyCosts        float64 `json:"energy_costs"`
	DebtService        float64 `json:"debt_service"`
	BaseFare           float64 `json:"base_fare"`
	PeakSurcharge      float64 `json:"peak_surcharge"`
	TransferDiscount   float64 `json:"transfer_discount"`
	MonthlyPassPrice   float64 `json:"monthly_pass_price"`
}

type FactorsV1 struct {
	WaitTime      float64 `json:"wait_time"`
	TravelTime    float64 `json:"travel_time"`
	Crowding      float64 `json:"crowding"`
	Reliability   float64 `json:"reliability"`
	Coverage      float64 `json:"coverage"`
	Cleanliness   float64 `json:"cleanliness"`
	Safety        float64 `json:"safety"`
	Accessibility float64 `json:"accessibility"`
	Overall       float64 `json:"overall"`
}

type AnalyticsV1 struct {
	TotalPassengers   int       `json:"total_passengers"`
	TotalRevenue      float64   `json:"total_revenue"`
	TotalCosts        float64   `json:"total_costs"`
	NetIncome         float64   `json:"net_income"`
	PassengerTrend    []int     `json:"passenger_trend,omitempty"`
	RevenueTrend      []float64 `json:"revenue_trend,omitempty"`
	SatisfactionTrend []float64 `json:"satisfaction_trend,omitempty"`
}

type StationV1 struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Pos              PositionV1 `json:"pos"`
	Mode             string     `json:"mode"`
	Depth            string     `json:"depth"`
	Platforms        int        `json:"platforms"`
	PlatformLength   float64    `json:"platform_length"`
	Capacity         int        `json:"capacity"`
	HasElevator      bool       `json:"has_elevator,omitempty"`
	HasEscalator     bool       `json:"has_escalator,omitempty"`
	HasRetail        bool       `json:"has_retail,omitempty"`
	Passengers       int        `json:"passengers"`
	WaitTime         float64    `json:"wait_time"`
	Crowding         float64    `json:"crowding"`
	ConstructionCost float64    `json:"construction_cost"`
	MaintenanceCost  float64    `json:"maintenance_cost"`
	RetailRevenue    float64    `json:"retail_revenue,omitempty"`
	Cleanliness      float64    `json:"cleanliness"`
	Safety           float64    `json:"safety"`
	Accessibility    float64    `json:"accessibility"`
}

type LineV1 struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Mode          string   `json:"mode"`
	Level         string   `json:"level"`
	Color         string   `json:"color,omitempty"`
	Stations      []string `json:"stations"`
	Loop          bool     `json:"loop,omitempty"`
	Bidirectional bool     `json:"bidirectional,omitempty"`
	HasBusLane    bool     `json:"has_bus_lane,omitempty"`
	Frequency     int      `json:"frequency"`
	RushFrequency int      `json:"rush_frequency,omitempty"`
	OperatingFrom int      `json:"operating_from"`
	OperatingTo   int      `json:"operating_to"`

	VehicleCapacity int     `json:"vehicle_capacity"`
	AverageSpeed    float64 `json:"average_speed"`
	Reliability     float64 `json:"reliability"`
	LoadFactor      float64 `json:"load_factor"`

	ConstructionCost float64 `json:"construction_cost"`
	OperatingCost    float64 `json:"operating_cost"`
	Revenue          float64 `json:"revenue"`
	FareboxRecovery  float64 `json:"farebox_recovery"`

	Phase                 string  `json:"phase"`
	ConstructionProgress  float64 `json:"construction_progress"`
	ConstructionDaysLeft  float64 `json:"construction_days_left"`
	ConstructionDaysTotal float64 `json:"construction_days_total"`
}

type TunnelV1 struct {
	ID       string   `json:"id"`
	LineID   string   `json:"line_id"`
	From     string   `json:"from"`
	To       string   `json:"to"`
	Depth    float64  `json:"depth"`
	Gradient float64  `json:"gradient"`
	Valid    bool     `json:"valid"`
	Warnings []string `json:"warnings,omitempty"`
}

type VehicleV1 struct {
	ID        string  `json:"id"`
	Mode      string  `json:"mode"`
	Model     string  `json:"model"`
	Capacity  int     `json:"capacity"`
	Speed     float64 `json:"speed"`
	AgeYears  float64 `json:"age_years"`
	Condition float64 `json:"condition"`
	Deferred  float64 `json:"deferred_maintenance,omitempty"`
	Electric  bool    `json:"electric,omitempty"`
	LineID    string  `json:"line_id"`
}

type VehicleStateV1 struct {
	VehicleID     string  `json:"vehicle_id"`
	LineID        string  `json:"line_id"`
	Segment       int     `json:"segment"`
	Progress      float64 `json:"progress"`
	Forward       bool    `json:"forward"`
	Passengers    int     `json:"passengers"`
	NextStationID string  `json:"next_station_id,omitempty"`
	Status        string  `json:"status"`
	BoardingLeft  float64 `json:"boarding_left,omitempty"`
}

type DistrictV1 struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Zone            string     `json:"zone"`
	Center          PositionV1 `json:"center"`
	Radius          float64    `json:"radius"`
	Population      float64    `json:"population"`
	MorningDemand   float64    `json:"morning_demand"`
	EveningDemand   float64    `json:"evening_demand"`
	WeekendDemand   float64    `json:"weekend_demand"`
	Density         float64    `json:"density"`
	AverageIncome   float64    `json:"average_income"`
	TransitOriented bool       `json:"transit_oriented,omitempty"`
	Satisfaction    float64    `json:"satisfaction"`
	Coverage        float64    `json:"coverage"`
}

type DepotV1 struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Pos              PositionV1 `json:"pos"`
	Mode             string     `json:"mode"`
	Capacity         int        `json:"capacity"`
	MaintenanceBays  int        `json:"maintenance_bays"`
	ConstructionCost float64    `json:"construction_cost"`
	OperatingCost    float64    `json:"operating_cost"`
	CoverageRadius   float64    `json:"coverage_radius"`
}

type LoanV1 struct {
	ID             string  `json:"id"`
	Amount         float64 `json:"amount"`
	AnnualRate     float64 `json:"annual_rate"`
	MonthlyPayment float64 `json:"monthly_payment"`
	Remaining      float64 `json:"remaining"`
	MonthsLeft     int     `json:"months_left"`
	Purpose        string  `json:"purpose,omitempty"`
	TakenMs        int64   `json:"taken_ms"`
}

type EventV1 struct {
	ID            string          `json:"id"`
	Kind          string          `json:"kind"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	AffectedLines []string        `json:"affected_lines,omitempty"`
	Reliability   float64         `json:"reliability"`
	Cost          float64         `json:"cost"`
	Satisfaction  float64         `json:"satisfaction"`
	DurationHours int             `json:"duration_hours"`
	Choices       []EventChoiceV1 `json:"choices"`
}

type EventChoiceV1 struct {
	Text          string  `json:"text"`
	Cost          float64 `json:"cost"`
	Reliability   float64 `json:"reliability,omitempty"`
	Satisfaction  float64 `json:"satisfaction,omitempty"`
	DurationHours int     `json:"duration_hours,omitempty"`
}

type SpecialEvV1 struct {
	ID           string  `json:"id"`
	Kind         string  `json:"kind"`
	Name         string  `json:"name"`
	DistrictID   string  `json:"district_id"`
	StartHour    int     `json:"start_hour"`
	Duration     int     `json:"duration"`
	Attendees    int     `json:"attendees"`
	DemandMul    float64 `json:"demand_mul"`
	BonusRevenue float64 `json:"bonus_revenue"`
}

type ComplaintV1 struct {
	ID       string  `json:"id"`
	Kind     string  `json:"kind"`
	Message  string  `json:"message"`
	LineID   string  `json:"line_id"`
	AtMs     int64   `json:"at_ms"`
	Severity float64 `json:"severity"`
}

type UnionV1 struct {
	Name              string  `json:"name"`
	MemberCount       int     `json:"member_count"`
	Satisfaction      float64 `json:"satisfaction"`
	StrikeRisk        float64 `json:"strike_risk"`
	LastNegotiationMs int64   `json:"last_negotiation_ms"`
}

type CouncilV1 struct {
	Factions       []FactionV1 `json:"factions"`
	MayorFaction   string      `json:"mayor_faction"`
	SubsidyLevel   float64     `json:"subsidy_level"`
	NextElectionMs int64       `json:"next_election_ms"`
	ApprovalRating float64     `json:"approval_rating"`
}

type FactionV1 struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Ideology   string   `json:"ideology"`
	Support    float64  `json:"support"`
	Priorities []string `json:"priorities,omitempty"`
}

type PoliticalV1 struct {
	ID          string  `json:"id"`
	FactionID   string  `json:"faction_id"`
	Kind        string  `json:"kind"`
	Description string  `json:"description"`
	DeadlineMs  int64   `json:"deadline_ms"`
	Reward      float64 `json:"reward"`
	Penalty     float64 `json:"penalty"`
	Completed   bool    `json:"completed,omitempty"`
}

type CompetitorV1 struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	Kind                 string  `json:"kind"`
	MarketShare          float64 `json:"market_share"`
	Strategy             string  `json:"strategy"`
	Cash                 float64 `json:"cash"`
	Reputation           float64 `json:"reputation"`
	RiskTolerance        float64 `json:"risk_tolerance"`
	ExpansionRate        float64 `json:"expansion_rate"`
	PriceCompetitiveness float64 `json:"price_competitiveness"`
}

type InducedV1 struct {
	DistrictID string  `json:"district_id"`
	Baseline   float64 `json:"baseline"`
	Current    float64 `json:"current"`
	GrowthRate float64 `json:"growth_rate"`
	Elasticity float64 `json:"elasticity"`
}

// Encode serializes a snapshot as compact JSON.
func Encode(v *V1) ([]byte, error) {
	v.Version = Version
	return json.Marshal(v)
}

// Decode parses and version-checks a snapshot.
func Decode(raw []byte) (*V1, error) {
	var v V1
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	if v.Version != Version {
		return nil, &VersionError{Got: v.Version}
	}
	return &v, nil
}

type VersionError struct{ Got int }

func (e *VersionError) Error() string {
	if e.Got == 0 {
		return "snapshot: missing version"
	}
	return "snapshot: unsupported version"
}
