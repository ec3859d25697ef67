package world

import "transitcraft.sim/internal/protocol"

// StateSummary builds the periodic dashboard push. Must run on the world
// goroutine.
func (w *World) StateSummary() protocol.StateMsg {
	msg := protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,

		DateMs:    w.time.Date.UnixMilli(),
		Hour:      w.time.Hour,
		TimeOfDay: w.time.TimeOfDay,
		DayType:   w.time.DayType,
		GameSpeed: w.gameSpeed,

		Balance:      w.econ.Balance,
		NetIncome:    w.analytics.NetIncome,
		Satisfaction: w.satisfaction.Overall,
		Passengers:   w.analytics.TotalPassengers,

		Lines:        len(w.lineOrder),
		Stations:     len(w.stationOrder),
		Vehicles:     len(w.vehicleOrder),
		ActiveEvents: len(w.events),
		Bottlenecks:  len(w.bottlenecks),
	}

	for _, t := range w.tracking {
		msg.Vehicles2D = append(msg.Vehicles2D, protocol.VehiclePos{
			VehicleID: t.VehicleID, LineID: t.LineID,
			Lat: t.Pos.Lat, Lon: t.Pos.Lon,
			Load: t.Load, Status: t.Status,
		})
	}
	return msg
}
