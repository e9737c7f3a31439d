package core

import "math"

// Statistics summarizes one batch's equipment. It is always derived from
// records on demand and never stored.
type Statistics struct {
	TotalCount       int            `json:"total_count"`
	AvgFlowrate      float64        `json:"average_flowrate"`
	AvgPressure      float64        `json:"average_pressure"`
	AvgTemperature   float64        `json:"average_temperature"`
	TypeDistribution map[string]int `json:"type_distribution"`
}

// Measurement is the aggregator's input: one equipment reading.
type Measurement struct {
	Type        string
	Flowrate    float64
	Pressure    float64
	Temperature float64
}

// Aggregate computes statistics over ms. Means are rounded to two decimals
// and are 0 for an empty input. Inputs must arrive in insertion order so that
// every caller sums in the same sequence.
func Aggregate(ms []Measurement) Statistics {
	stats := Statistics{
		TotalCount:       len(ms),
		TypeDistribution: make(map[string]int),
	}
	if len(ms) == 0 {
		return stats
	}

	var flow, pressure, temp float64
	for _, m := range ms {
		flow += m.Flowrate
		pressure += m.Pressure
		temp += m.Temperature
		stats.TypeDistribution[m.Type]++
	}

	n := float64(len(ms))
	stats.AvgFlowrate = round2(flow / n)
	stats.AvgPressure = round2(pressure / n)
	stats.AvgTemperature = round2(temp / n)
	return stats
}

// StatsFromRows aggregates a freshly parsed dataset.
func StatsFromRows(rows []EquipmentRow) Statistics {
	ms := make([]Measurement, len(rows))
	for i, r := range rows {
		ms[i] = Measurement{Type: r.Type, Flowrate: r.Flowrate, Pressure: r.Pressure, Temperature: r.Temperature}
	}
	return Aggregate(ms)
}

// StatsFromRecords aggregates persisted records.
func StatsFromRecords(records []Equipment) Statistics {
	ms := make([]Measurement, len(records))
	for i, r := range records {
		ms[i] = Measurement{Type: r.Type, Flowrate: r.Flowrate, Pressure: r.Pressure, Temperature: r.Temperature}
	}
	return Aggregate(ms)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
