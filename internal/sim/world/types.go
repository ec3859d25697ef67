package world

import "time"

// Position is a geographic point. Alt is meters relative to the surface;
// underground stations carry a negative Alt.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Alt float64 `json:"alt"`
}

// Station depth categories.
const (
	DepthSurface = "surface"
	DepthShallow = "shallow"
	DepthMedium  = "medium"
	DepthDeep    = "deep"
)

type Station struct {
	ID    string
	Name  string
	Pos   Position
	Mode  string // transport mode id from the catalog
	Depth string

	Platforms      int
	PlatformLength float64 // meters
	Capacity       int     // passengers per hour

	HasElevator  bool
	HasEscalator bool
	HasRetail    bool

	Passengers    int     // currently waiting
	WaitTime      float64 // average wait, minutes
	CrowdingLevel float64 // 0..1+

	ConstructionCost float64
	MaintenanceCost  float64
	RetailRevenue    float64 // per hour

	Cleanliness   float64 // 0-100
	Safety        float64
	Accessibility float64
}

// Construction phases.
const (
	PhasePlanning     = "planning"
	PhaseConstruction = "construction"
	PhaseTesting      = "testing"
	PhaseOperational  = "operational"
)

type TransportLine struct {
	ID       string
	Name     string
	Mode     string
	Level    string // service level on the upgrade ladder; starts as Mode
	Color    string
	Stations []string // ordered station ids; the route

	Loop          bool
	Bidirectional bool
	HasBusLane    bool // bus only; caps traffic drag

	Frequency     int // minutes between departures
	RushFrequency int
	OperatingFrom int // hour, inclusive
	OperatingTo   int // hour, exclusive

	VehicleCapacity int
	AverageSpeed    float64 // km/h
	Reliability     float64 // 0-100
	LoadFactor      float64 // 0..1+

	ConstructionCost float64
	OperatingCost    float64 // per hour
	Revenue          float64 // per hour
	FareboxRecovery  float64 // percent

	Phase                 string
	ConstructionProgress  float64 // 0-100
	ConstructionDaysLeft  float64
	ConstructionDaysTotal float64
}

type TunnelSegment struct {
	ID       string
	LineID   string
	From     string // station id
	To       string
	Depth    float64 // meters
	Gradient float64 // percent
	Valid    bool
	Warnings []string
}

type Vehicle struct {
	ID        string
	Mode      string
	Model     string
	Capacity  int
	Speed     float64 // km/h
	AgeYears  float64
	Condition float64 // 0-100
	Deferred  float64 // unserviced maintenance debt, dollars
	Electric  bool
	LineID    string
}

// Vehicle motion statuses.
const (
	VehicleMoving      = "moving"
	VehicleStopped     = "stopped"
	VehicleBoarding    = "boarding"
	VehicleMaintenance = "maintenance"
)

// VehicleState is the transient kinematic state keyed by vehicle id. It is
// touched only by the frame update, never by the hourly tick.
type VehicleState struct {
	VehicleID     string
	LineID        string
	Segment       int     // index of the current station pair
	Progress      float64 // 0..1 along the segment
	Forward       bool
	Passengers    int
	NextStationID string
	ETASeconds    float64
	Status        string
	BoardingLeft  float64 // seconds of boarding remaining
}

type District struct {
	ID     string
	Name   string
	Zone   string // residential|commercial|industrial|mixed
	Center Position
	Radius float64 // meters

	Population      float64
	MorningDemand   float64 // 0..1
	EveningDemand   float64
	WeekendDemand   float64
	Density         float64 // 0..1
	AverageIncome   float64
	TransitOriented bool

	Satisfaction float64 // 0-100
	Coverage     float64 // 0..1
}

type Economics struct {
	Balance float64

	FareRevenue        float64
	AdvertisingRevenue float64
	RetailRevenue      float64
	Subsidies          float64

	OperatingCosts   float64
	MaintenanceCosts float64
	StaffCosts       float64
	EnergyCosts      float64
	DebtService      float64

	BaseFare         float64
	PeakSurcharge    float64
	TransferDiscount float64
	MonthlyPassPrice float64
}

type GameEvent struct {
	ID            string
	Kind          string // event template id
	Title         string
	Description   string
	AffectedLines []string
	Reliability   float64 // impact deltas
	Cost          float64
	Satisfaction  float64
	DurationHours int
	Choices       []EventChoice
}

type EventChoice struct {
	Text          string
	Cost          float64
	Reliability   float64
	Satisfaction  float64
	DurationHours int
}

type SatisfactionFactors struct {
	WaitTime      float64 // minutes
	TravelTime    float64
	Crowding      float64 // 0..1
	Reliability   float64 // 0-100
	Coverage      float64 // 0..1
	Cleanliness   float64 // 0-100
	Safety        float64
	Accessibility float64
	Overall       float64 // 0-100
}

type Analytics struct {
	TotalPassengers int
	TotalRevenue    float64
	TotalCosts      float64
	NetIncome       float64

	AverageWaitTime   float64
	AverageTravelTime float64
	SystemReliability float64
	SystemCoverage    float64

	PassengerTrend    []int
	RevenueTrend      []float64
	SatisfactionTrend []float64
}

type Suggestion struct {
	ID            string
	Priority      string // low|medium|high|critical
	Category      string // capacity|coverage|efficiency|satisfaction
	Title         string
	Description   string
	EstimatedCost float64
	Benefit       string
	AffectedLines []string
}

// Derived read models. All reproducible from the primary entities plus the
// small path-dependent histories noted on each.

type DemandHotspot struct {
	Origin      string
	Destination string
	Demand      float64
	TimeOfDay   string
	Satisfied   float64 // 0..1
}

type DemandHeatmap struct {
	Hotspots       []DemandHotspot
	UnservedDemand float64
	Peak           *DemandHotspot
}

type CompetitionData struct {
	DistrictID   string
	TransitShare float64
	CarShare     float64
	WalkShare    float64
	BikeShare    float64
	Trend        string // improving|stable|declining
}

type LineProfitability struct {
	LineID  string
	Revenue float64
	Costs   float64
	Profit  float64
	Margin  float64 // percent
	ROI     float64
	Status  string
}

type TODEffect struct {
	StationID        string
	DistrictID       string
	PopulationGrowth float64 // per month
	DensityIncrease  float64
	PropertyValueMul float64
}

type SpecialEvent struct {
	ID           string
	Kind         string // concert|sports|festival|conference
	Name         string
	DistrictID   string
	StartHour    int
	Duration     int
	Attendees    int
	DemandMul    float64
	BonusRevenue float64
}

type FareElasticity struct {
	DistrictID      string
	PriceElasticity float64
	OptimalFare     float64
	CurrentFare     float64
}

type Bottleneck struct {
	ID                 string
	Kind               string // station|vehicle
	Location           string
	Severity           string // moderate|severe|critical
	Issue              string
	PassengersAffected int
	DelayMinutes       float64
	SatisfactionLoss   float64
	Solutions          []BottleneckSolution
}

type BottleneckSolution struct {
	Description   string
	Cost          float64
	TimeDays      int
	Effectiveness float64
}

type VictoryProgress struct {
	Condition string // profit|coverage|satisfaction|efficiency
	Name      string
	Target    float64
	Current   float64
	Progress  float64 // 0-100
	Achieved  bool
}

type PassengerComplaint struct {
	ID       string
	Kind     string // crowded|late|dirty|praise
	Message  string
	LineID   string
	At       time.Time
	Severity float64
}

type VehicleTracking struct {
	VehicleID     string
	LineID        string
	Pos           Position
	Heading       float64
	Speed         float64
	Load          int
	Capacity      int
	NextStationID string
	DelayMinutes  float64
	Status        string // on_time|delayed|early|breakdown
}

type UpgradePath struct {
	LineID       string
	CurrentLevel string
	Available    []UpgradeOption
	Eligible     bool
	Blockers     []string
}

type UpgradeOption struct {
	ToLevel          string
	Cost             float64
	TimeDays         int
	CapacityIncrease int
	SpeedIncrease    float64
	ReliabilityBonus float64
	Requirements     []string
}

type Depot struct {
	ID               string
	Name             string
	Pos              Position
	Mode             string
	Capacity         int
	MaintenanceBays  int
	ConstructionCost float64
	OperatingCost    float64 // per hour
	CoverageRadius   float64 // km
}

type StaffSummary struct {
	Drivers      int
	Mechanics    int
	StationStaff int
}

type Union struct {
	Name            string
	MemberCount     int
	Satisfaction    float64 // 0-100; path-dependent, survives ticks
	Demands         []UnionDemand
	StrikeRisk      float64
	LastNegotiation time.Time
}

type UnionDemand struct {
	Kind        string // wage_increase|better_conditions|more_staff
	Description string
	Cost        float64
	Urgency     string
}

type Loan struct {
	ID             string
	Amount         float64
	AnnualRate     float64
	MonthlyPayment float64
	Remaining      float64
	MonthsLeft     int
	Purpose        string
	Taken          time.Time
}

type CreditRating struct {
	Score           float64 // 0-100; path-dependent
	Rating          string  // AAA..D
	AvailableCredit float64
	RateModifier    float64
}

type InducedDemand struct {
	DistrictID string
	Baseline   float64
	Current    float64
	GrowthRate float64
	Elasticity float64
}

type MaintenanceRecord struct {
	AssetID         string
	AssetKind       string // vehicle|station
	Condition       float64
	LastMaintenance time.Time
	NextScheduled   time.Time
	MaintenanceCost float64
	BreakdownRisk   float64
	Deferred        float64
}

type PoliticalFaction struct {
	ID         string
	Name       string
	Ideology   string
	Support    float64
	Priorities []string
}

type CityCouncil struct {
	Factions       []PoliticalFaction
	MayorFaction   string
	SubsidyLevel   float64
	NextElection   time.Time
	ApprovalRating float64
}

type PoliticalDemand struct {
	ID          string
	FactionID   string
	Kind        string // route_demand|fare_cap|service_improvement|expansion
	Description string
	Deadline    time.Time
	Reward      float64
	Penalty     float64
	Completed   bool
}

type Competitor struct {
	ID          string
	Name        string
	Kind        string // public|private
	MarketShare float64 // path-dependent
	Strategy    string  // aggressive|defensive|opportunistic
	Cash        float64
	Reputation  float64

	RiskTolerance        float64 // 0..1
	ExpansionRate        float64
	PriceCompetitiveness float64
}

type CompetitorAction struct {
	CompetitorID string
	Action       string // new_line|price_cut|service_improvement
	Target       string
	Impact       string
	At           time.Time
}
