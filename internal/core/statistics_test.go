package core

import (
	"reflect"
	"testing"
)

func TestAggregate(t *testing.T) {
	ms := []Measurement{
		{Type: "Pump", Flowrate: 10, Pressure: 1, Temperature: 100},
		{Type: "Valve", Flowrate: 20, Pressure: 2, Temperature: 100},
		{Type: "Valve", Flowrate: 30, Pressure: 2, Temperature: 101},
	}

	got := Aggregate(ms)
	if got.TotalCount != 3 {
		t.Errorf("TotalCount = %d, want 3", got.TotalCount)
	}
	if got.AvgFlowrate != 20 {
		t.Errorf("AvgFlowrate = %v, want 20", got.AvgFlowrate)
	}
	if got.AvgPressure != 1.67 {
		t.Errorf("AvgPressure = %v, want 1.67", got.AvgPressure)
	}
	if got.AvgTemperature != 100.33 {
		t.Errorf("AvgTemperature = %v, want 100.33", got.AvgTemperature)
	}
	want := map[string]int{"Pump": 1, "Valve": 2}
	if !reflect.DeepEqual(got.TypeDistribution, want) {
		t.Errorf("TypeDistribution = %v, want %v", got.TypeDistribution, want)
	}
}

func TestAggregateEmpty(t *testing.T) {
	got := Aggregate(nil)
	if got.TotalCount != 0 || got.AvgFlowrate != 0 || got.AvgPressure != 0 || got.AvgTemperature != 0 {
		t.Errorf("Aggregate(nil) = %+v", got)
	}
	if got.TypeDistribution == nil || len(got.TypeDistribution) != 0 {
		t.Errorf("TypeDistribution = %v, want empty map", got.TypeDistribution)
	}
}

func TestStatsFromRowsMatchesRecords(t *testing.T) {
	rows := []EquipmentRow{
		{Name: "A", Type: "Pump", Flowrate: 12.345, Pressure: 3.3, Temperature: 70.1},
		{Name: "B", Type: "Compressor", Flowrate: 0.1, Pressure: 0.2, Temperature: 0.3},
		{Name: "C", Type: "Pump", Flowrate: 7, Pressure: 9.99, Temperature: 65},
	}
	records := make([]Equipment, len(rows))
	for i, r := range rows {
		records[i] = r.Record(9)
		records[i].ID = int64(i + 1)
	}

	a, b := StatsFromRows(rows), StatsFromRecords(records)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("rows %+v != records %+v", a, b)
	}
	if records[0].BatchID != 9 {
		t.Errorf("Record did not set batch id")
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1.005, 1},
		{2.346, 2.35},
		{-1.234, -1.23},
		{10, 10},
	}
	for _, tt := range tests {
		if got := round2(tt.in); got != tt.want {
			t.Errorf("round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
