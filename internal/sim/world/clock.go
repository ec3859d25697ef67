package world

import "time"

// Time-of-day bands.
const (
	EarlyMorning = "early_morning"
	MorningRush  = "morning_rush"
	Midday       = "midday"
	EveningRush  = "evening_rush"
	Evening      = "evening"
	Night        = "night"
)

const (
	Weekday = "weekday"
	Weekend = "weekend"
)

type GameTime struct {
	Date           time.Time
	Hour           int
	TimeOfDay      string
	DayType        string
	RushMultiplier float64
}

// TimeOfDayOf classifies an hour into its band: 5-7 early morning, 7-9
// morning rush, 9-17 midday, 17-19 evening rush, 19-23 evening, else night.
func TimeOfDayOf(hour int) string {
	switch {
	case hour >= 5 && hour < 7:
		return EarlyMorning
	case hour >= 7 && hour < 9:
		return MorningRush
	case hour >= 9 && hour < 17:
		return Midday
	case hour >= 17 && hour < 19:
		return EveningRush
	case hour >= 19 && hour < 23:
		return Evening
	default:
		return Night
	}
}

func DayTypeOf(t time.Time) string {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return Weekend
	default:
		return Weekday
	}
}

// RushMultiplier scales baseline demand for a time band.
func RushMultiplier(timeOfDay, dayType string) float64 {
	if dayType == Weekend {
		if timeOfDay == Midday {
			return 1.5
		}
		return 0.8
	}
	switch timeOfDay {
	case MorningRush, EveningRush:
		return 3.0
	case Midday:
		return 1.2
	case EarlyMorning, Evening:
		return 0.8
	case Night:
		return 0.3
	default:
		return 1.0
	}
}

// gameTimeAt derives the full GameTime for a wall date.
func gameTimeAt(date time.Time) GameTime {
	hour := date.Hour()
	tod := TimeOfDayOf(hour)
	day := DayTypeOf(date)
	return GameTime{
		Date:           date,
		Hour:           hour,
		TimeOfDay:      tod,
		DayType:        day,
		RushMultiplier: RushMultiplier(tod, day),
	}
}
