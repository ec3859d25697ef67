package world

import (
	"fmt"
	"math"
	"math/rand"
)

// Building is a construction constraint near a candidate station site.
type Building struct {
	ID              string
	Pos             Position
	FoundationDepth float64 // meters underground
	Protected       bool    // historic; blocks nearby excavation
	PropertyValue   float64
}

// Obstacle severities.
const (
	SeverityMinor    = "minor"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
	SeverityBlocking = "blocking"
)

// Obstacle kinds.
const (
	ObstacleFoundation     = "building_foundation"
	ObstacleBedrock        = "bedrock"
	ObstacleWaterTable     = "water_table"
	ObstacleUtility        = "utility"
	ObstacleArchaeological = "archaeological"
)

type FoundationObstacle struct {
	Kind           string
	Depth          float64
	Severity       string
	CostMultiplier float64
	Description    string
	Pos            Position
}

type DepthOption struct {
	Depth               string
	DepthMeters         float64
	BaseCost            float64
	Obstacles           []FoundationObstacle
	TotalCostMultiplier float64
	ConstructionDays    int
	Difficulty          int
	Description         string
	Recommended         bool
}

// A blocking obstacle pushes the total multiplier here; callers treat any
// option above blockedMultiplierCeiling as not buildable.
const (
	blockingMultiplier       = 999.0
	blockedMultiplierCeiling = 10.0
)

// DepthMeters maps a depth category to meters below surface.
func DepthMeters(depth string) (float64, error) {
	switch depth {
	case DepthSurface:
		return 0, nil
	case DepthShallow:
		return 10, nil
	case DepthMedium:
		return 25, nil
	case DepthDeep:
		return 50, nil
	default:
		return 0, fmt.Errorf("unknown depth category %q", depth)
	}
}

func baseDepthOptions() []DepthOption {
	return []DepthOption{
		{Depth: DepthSurface, DepthMeters: 0, BaseCost: 5_000_000, TotalCostMultiplier: 1.0,
			ConstructionDays: 180, Difficulty: 2, Description: "Surface station - easiest and cheapest"},
		{Depth: DepthShallow, DepthMeters: 10, BaseCost: 15_000_000, TotalCostMultiplier: 1.0,
			ConstructionDays: 365, Difficulty: 4, Description: "Shallow tunnel (10m) - cut-and-cover method"},
		{Depth: DepthMedium, DepthMeters: 25, BaseCost: 35_000_000, TotalCostMultiplier: 1.0,
			ConstructionDays: 547, Difficulty: 6, Description: "Medium depth (25m) - bored tunnel"},
		{Depth: DepthDeep, DepthMeters: 50, BaseCost: 75_000_000, TotalCostMultiplier: 1.0,
			ConstructionDays: 730, Difficulty: 8, Description: "Deep tunnel (50m) - avoids most obstacles"},
	}
}

// AnalyzeLocation surveys a candidate station site and returns all four depth
// options with detected obstacles and cost multipliers. Always returns four
// options, even when every one of them is blocked; in that degenerate case no
// option is marked recommended and the caller must treat the site as not
// buildable.
func AnalyzeLocation(pos Position, buildings []Building, rng *rand.Rand) []DepthOption {
	options := baseDepthOptions()
	for i := range options {
		options[i].Obstacles = detectObstacles(pos, options[i].DepthMeters, buildings, rng)
		options[i].TotalCostMultiplier = costMultiplier(options[i].Obstacles)
	}
	recommendDepth(options)
	return options
}

func detectObstacles(pos Position, depth float64, buildings []Building, rng *rand.Rand) []FoundationObstacle {
	var obstacles []FoundationObstacle

	for _, b := range buildings {
		if flatDistanceM(pos, b.Pos) >= 100 {
			continue
		}
		if b.FoundationDepth < depth-5 || b.FoundationDepth > depth+5 {
			continue
		}
		o := FoundationObstacle{
			Kind:  ObstacleFoundation,
			Depth: b.FoundationDepth,
			Pos:   b.Pos,
		}
		if b.Protected {
			o.Severity = SeverityBlocking
			o.CostMultiplier = blockingMultiplier
			o.Description = "Protected building foundation - cannot build here"
		} else {
			o.Severity = SeveritySevere
			o.CostMultiplier = 2.5
			o.Description = "Building foundation requires careful excavation"
		}
		obstacles = append(obstacles, o)
	}

	if depth > 30 && rng.Float64() < 0.3 {
		obstacles = append(obstacles, FoundationObstacle{
			Kind: ObstacleBedrock, Depth: depth, Severity: SeverityModerate, CostMultiplier: 1.5,
			Description: "Hard bedrock requires specialized boring equipment", Pos: pos,
		})
	}
	if depth < 20 && rng.Float64() < 0.4 {
		obstacles = append(obstacles, FoundationObstacle{
			Kind: ObstacleWaterTable, Depth: depth, Severity: SeverityModerate, CostMultiplier: 1.8,
			Description: "High water table requires waterproofing and pumping", Pos: pos,
		})
	}
	if depth < 15 && rng.Float64() < 0.5 {
		obstacles = append(obstacles, FoundationObstacle{
			Kind: ObstacleUtility, Depth: depth, Severity: SeverityMinor, CostMultiplier: 1.2,
			Description: "Underground utilities need relocation", Pos: pos,
		})
	}
	if rng.Float64() < 0.05 {
		obstacles = append(obstacles, FoundationObstacle{
			Kind: ObstacleArchaeological, Depth: depth, Severity: SeveritySevere, CostMultiplier: 3.0,
			Description: "Archaeological site requires excavation and documentation", Pos: pos,
		})
	}

	return obstacles
}

func costMultiplier(obstacles []FoundationObstacle) float64 {
	if len(obstacles) == 0 {
		return 1.0
	}
	for _, o := range obstacles {
		if o.Severity == SeverityBlocking {
			return blockingMultiplier
		}
	}
	total := 1.0
	for _, o := range obstacles {
		total *= o.CostMultiplier
	}
	return total
}

// recommendDepth marks the best non-blocked option. Shallow carries a large
// score bonus so it wins unless blocked; if every option is blocked, nothing
// is recommended.
func recommendDepth(options []DepthOption) {
	best := -1
	bestScore := math.Inf(1)
	for i, o := range options {
		if o.TotalCostMultiplier > blockedMultiplierCeiling {
			continue
		}
		score := o.BaseCost*o.TotalCostMultiplier/1_000_000 +
			float64(o.Difficulty)*2 +
			float64(o.ConstructionDays)/100
		if o.Depth == DepthShallow {
			score -= 50
		}
		if score < bestScore {
			bestScore = score
			best = i
		}
	}
	if best >= 0 {
		options[best].Recommended = true
	}
}

// Buildable reports whether a depth option can be built at all.
func (o DepthOption) Buildable() bool {
	return o.TotalCostMultiplier <= blockedMultiplierCeiling
}

type TunnelCheck struct {
	Gradient    float64
	Valid       bool
	Warnings    []string
	HorizontalM float64
	VerticalM   float64
}

// CheckTunnelSegment validates the gradient of a tunnel between two stations
// against the mode's limit from the transport catalog. Warnings are advisory;
// only an over-limit gradient invalidates the segment.
func CheckTunnelSegment(start, end *Station, maxGradient float64) (TunnelCheck, error) {
	var tc TunnelCheck

	startDepth, err := DepthMeters(start.Depth)
	if err != nil {
		return tc, err
	}
	endDepth, err := DepthMeters(end.Depth)
	if err != nil {
		return tc, err
	}

	tc.HorizontalM = haversineKm(start.Pos, end.Pos) * 1000
	tc.VerticalM = math.Abs(endDepth - startDepth)
	if tc.HorizontalM <= 0 {
		return tc, fmt.Errorf("stations %s and %s are coincident", start.ID, end.ID)
	}
	tc.Gradient = tc.VerticalM / tc.HorizontalM * 100

	if maxGradient <= 0 {
		maxGradient = 3.0
	}
	tc.Valid = tc.Gradient <= maxGradient

	if tc.Gradient > maxGradient {
		tc.Warnings = append(tc.Warnings,
			fmt.Sprintf("Gradient %.1f%% exceeds maximum %.0f%%", tc.Gradient, maxGradient),
			"Consider intermediate station or adjust depths")
	} else if tc.Gradient > maxGradient*0.8 {
		tc.Warnings = append(tc.Warnings,
			fmt.Sprintf("Gradient %.1f%% is steep - may affect speed and energy", tc.Gradient))
	}
	if tc.VerticalM > 30 {
		tc.Warnings = append(tc.Warnings,
			fmt.Sprintf("Large depth change (%.0fm) increases cost", tc.VerticalM))
	}

	return tc, nil
}

// StationDepthCost prices a station at a given depth for a surveyed site.
func StationDepthCost(options []DepthOption, depth string) (float64, bool) {
	for _, o := range options {
		if o.Depth == depth {
			return o.BaseCost * o.TotalCostMultiplier, o.Buildable()
		}
	}
	return 0, false
}
