package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	StartingBalance  float64 `yaml:"starting_balance"`
	BaseFare         float64 `yaml:"base_fare"`
	PeakSurcharge    float64 `yaml:"peak_surcharge"`
	TransferDiscount float64 `yaml:"transfer_discount"`
	MonthlyPassPrice float64 `yaml:"monthly_pass_price"`

	// Wall-clock pacing. speed_intervals_ms is indexed by game speed
	// (0 = paused); a zero interval means no hourly ticks.
	FrameIntervalMs  int   `yaml:"frame_interval_ms"`
	SpeedIntervalsMs []int `yaml:"speed_intervals_ms"`

	EventChancePerHour          float64 `yaml:"event_chance_per_hour"`
	SpecialEventChanceWeekend   float64 `yaml:"special_event_chance_weekend"`
	SpecialEventChanceWeekday   float64 `yaml:"special_event_chance_weekday"`
	ComplaintChancePerHour      float64 `yaml:"complaint_chance_per_hour"`
	MaintenanceChancePerDay     float64 `yaml:"maintenance_chance_per_day"`
	PoliticalDemandChancePerDay float64 `yaml:"political_demand_chance_per_day"`
	CompetitorActChance         float64 `yaml:"competitor_act_chance"`

	TrendWindowHours          int `yaml:"trend_window_hours"`
	ComplaintRetention        int `yaml:"complaint_retention"`
	CompetitorActionRetention int `yaml:"competitor_action_retention"`
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:  "1.0",
		StartingBalance:  500_000_000,
		BaseFare:         2.5,
		PeakSurcharge:    0.5,
		TransferDiscount: 0.5,
		MonthlyPassPrice: 100,

		FrameIntervalMs:  250,
		SpeedIntervalsMs: []int{0, 3000, 1500, 750},

		EventChancePerHour:          0.005,
		SpecialEventChanceWeekend:   0.005,
		SpecialEventChanceWeekday:   0.002,
		ComplaintChancePerHour:      0.1,
		MaintenanceChancePerDay:     0.1,
		PoliticalDemandChancePerDay: 0.05,
		CompetitorActChance:         0.2,

		TrendWindowHours:          30,
		ComplaintRetention:        10,
		CompetitorActionRetention: 20,
	}
}
