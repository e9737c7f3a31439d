package core

import (
	"errors"
	"strings"
	"testing"
)

const header = "Equipment Name,Type,Flowrate,Pressure,Temperature\n"

func TestParseDataset(t *testing.T) {
	csv := header +
		"Pump-1,Pump,10,5.2,110\n" +
		"\n" +
		"Valve-1,Valve,20,4.1,95\n" +
		" , , , , \n" +
		"Valve-2,Valve,30,6,100.5\n"

	ds, err := ParseDataset(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ParseDataset: %v", err)
	}
	if len(ds.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(ds.Rows))
	}
	if ds.Rows[0].Name != "Pump-1" || ds.Rows[2].Temperature != 100.5 {
		t.Errorf("unexpected rows: %+v", ds.Rows)
	}
	if ds.Bytes != int64(len(csv)) {
		t.Errorf("bytes = %d, want %d", ds.Bytes, len(csv))
	}
}

func TestParseDatasetColumnOrderAndExtras(t *testing.T) {
	csv := "\ufeffTemperature,Notes,Pressure,Type,Flowrate,Equipment Name\n" +
		"80,spare,2.5,Reactor,15,R-1\n"

	ds, err := ParseDataset(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ParseDataset: %v", err)
	}
	got := ds.Rows[0]
	want := EquipmentRow{Name: "R-1", Type: "Reactor", Flowrate: 15, Pressure: 2.5, Temperature: 80}
	if got != want {
		t.Errorf("row = %+v, want %+v", got, want)
	}
}

func TestParseDatasetMissingColumns(t *testing.T) {
	_, err := ParseDataset(strings.NewReader("Equipment Name,Type,Flowrate\nP,Pump,1\n"))

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if e.Kind != KindBadInput {
		t.Errorf("kind = %v, want bad_input", e.Kind)
	}
	if len(e.Missing) != 2 || e.Missing[0] != ColumnPressure || e.Missing[1] != ColumnTemperature {
		t.Errorf("missing = %v", e.Missing)
	}
	if len(e.Required) != len(RequiredColumns) {
		t.Errorf("required = %v", e.Required)
	}
}

func TestParseDatasetColumnsAreCaseSensitive(t *testing.T) {
	_, err := ParseDataset(strings.NewReader("equipment name,Type,Flowrate,Pressure,Temperature\nP,Pump,1,1,1\n"))
	if KindOf(err) != KindBadInput {
		t.Fatalf("err = %v, want bad input", err)
	}
}

func TestParseDatasetInvalidNumber(t *testing.T) {
	csv := header +
		"P-1,Pump,10,1,1\n" +
		"P-2,Pump,abc,1,1\n"

	_, err := ParseDataset(strings.NewReader(csv))
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if e.Line != 3 || e.Column != ColumnFlowrate || e.Value != "abc" {
		t.Errorf("got line=%d column=%q value=%q", e.Line, e.Column, e.Value)
	}
	if !strings.Contains(e.Error(), "invalid number") {
		t.Errorf("message = %q", e.Error())
	}
}

func TestParseDatasetRejectsNonFinite(t *testing.T) {
	for _, v := range []string{"NaN", "Inf", "-Inf"} {
		_, err := ParseDataset(strings.NewReader(header + "P,Pump,1,1," + v + "\n"))
		if KindOf(err) != KindBadInput {
			t.Errorf("%s: err = %v, want bad input", v, err)
		}
	}
}

func TestParseDatasetRejectsQuotedNumbers(t *testing.T) {
	// Cells as they reach the parser: 'quoted' and ="formula" numbers.
	for _, cell := range []string{`'10'`, `"=""10"""`, `=10`} {
		_, err := ParseDataset(strings.NewReader(header + "P,Pump," + cell + ",1,1\n"))
		var e *Error
		if !errors.As(err, &e) {
			t.Errorf("%s: error = %v, want *Error", cell, err)
			continue
		}
		if e.Kind != KindBadInput || e.Column != ColumnFlowrate || e.Line != 2 {
			t.Errorf("%s: got kind=%v column=%q line=%d", cell, e.Kind, e.Column, e.Line)
		}
	}

	// CSV quoting itself is fine.
	ds, err := ParseDataset(strings.NewReader(header + "P,Pump,\" 10 \",1,1\n"))
	if err != nil {
		t.Fatalf("ParseDataset: %v", err)
	}
	if ds.Rows[0].Flowrate != 10 {
		t.Errorf("flowrate = %v, want 10", ds.Rows[0].Flowrate)
	}
}

func TestParseDatasetEmpty(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"no bytes", ""},
		{"header only", header},
		{"header and blank rows", header + "\n,,,,\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDataset(strings.NewReader(tt.in))
			if KindOf(err) != KindBadInput {
				t.Fatalf("err = %v, want bad input", err)
			}
			if !strings.Contains(err.Error(), "empty file") {
				t.Errorf("message = %q", err.Error())
			}
		})
	}
}

func TestParseDatasetMalformedCSV(t *testing.T) {
	_, err := ParseDataset(strings.NewReader(header + "P,\"Pump,1,1,1\n"))
	if KindOf(err) != KindBadInput {
		t.Fatalf("err = %v, want bad input", err)
	}
}
