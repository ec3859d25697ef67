package world

import "math"

// Zone types.
const (
	ZoneResidential = "residential"
	ZoneCommercial  = "commercial"
	ZoneIndustrial  = "industrial"
	ZoneMixed       = "mixed"
)

// Demand estimates hourly passenger demand between two zone types. Base is
// 10% of the origin population; commuter flows get a 2.5x surge and weekend
// shopping trips 1.8x. Deterministic, called per district pair every tick.
func Demand(originZone, destZone, timeOfDay, dayType string, population float64) int {
	base := population * 0.1

	if dayType == Weekday {
		switch timeOfDay {
		case MorningRush:
			if originZone == ZoneResidential && (destZone == ZoneCommercial || destZone == ZoneIndustrial) {
				base *= 2.5
			}
		case EveningRush:
			if (originZone == ZoneCommercial || originZone == ZoneIndustrial) && destZone == ZoneResidential {
				base *= 2.5
			}
		}
	} else if timeOfDay == Midday && destZone == ZoneCommercial {
		base *= 1.8
	}

	return int(math.Floor(base))
}

// OptimalFrequency converts demand against vehicle capacity into a headway,
// clamped to [1,30] minutes.
func OptimalFrequency(demand float64, capacity int, targetLoadFactor float64) int {
	if capacity <= 0 || targetLoadFactor <= 0 {
		return 30
	}
	vehiclesPerHour := demand / (float64(capacity) * targetLoadFactor)
	if vehiclesPerHour <= 0 {
		return 30
	}
	freq := int(math.Round(60 / vehiclesPerHour))
	if freq < 1 {
		return 1
	}
	if freq > 30 {
		return 30
	}
	return freq
}

// LoadFactorOf is capacity utilization per vehicle trip; can exceed 1.0
// (overcrowding) but is capped at 2.0.
func LoadFactorOf(passengersPerHour float64, capacity, frequency int) float64 {
	if capacity <= 0 || frequency <= 0 {
		return 0
	}
	perVehicle := passengersPerHour * float64(frequency) / 60
	lf := perVehicle / float64(capacity)
	return math.Min(lf, 2.0)
}

// FareboxRecovery is revenue over cost as a percentage; 0 when there is no
// cost to recover against.
func FareboxRecovery(revenue, costs float64) float64 {
	if costs <= 0 {
		return 0
	}
	return revenue / costs * 100
}

// EffectiveBusSpeed applies road-traffic drag to buses. Without a bus lane,
// rush-hour traffic cuts speed up to 50%; with one the drag caps at 20%.
// Never drops below 30% of base speed.
func EffectiveBusSpeed(baseSpeed, trafficLevel float64, hasBusLane bool, timeOfDay string) float64 {
	speed := baseSpeed
	if !hasBusLane {
		mult := 0.7
		if timeOfDay == MorningRush || timeOfDay == EveningRush {
			mult = 0.5
		}
		speed *= 1 - trafficLevel*mult
	} else {
		speed *= 1 - trafficLevel*0.2
	}
	return math.Max(speed, baseSpeed*0.3)
}
