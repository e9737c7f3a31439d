package core

import "testing"

func TestParseMeasurement(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"10", 10, true},
		{" 2.5 ", 2.5, true},
		{"-3e2", -300, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"-infinity", 0, false},
		{"1,5", 0, false},
		{"'10'", 0, false},
		{`="10"`, 0, false},
		{"=10", 0, false},
		{`"10"`, 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseMeasurement(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseMeasurement(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestMakeHeaderIndex(t *testing.T) {
	idx := MakeHeaderIndex([]string{"\ufeffEquipment Name", " Type ", "Type", "flowrate"})

	if idx["Equipment Name"] != 0 {
		t.Errorf("Equipment Name = %d, want 0", idx["Equipment Name"])
	}
	if idx["Type"] != 1 {
		t.Errorf("Type = %d, want 1 (first occurrence)", idx["Type"])
	}
	if _, ok := idx["Flowrate"]; ok {
		t.Error("header matching must be case-sensitive")
	}
	if got := idx.Cell([]string{"P-1"}, "Type"); got != "" {
		t.Errorf("Cell on short row = %q, want empty", got)
	}
}

func TestValidateColumns(t *testing.T) {
	tests := []struct {
		name        string
		header      []string
		wantMissing []string
	}{
		{
			name:   "exact",
			header: []string{"Equipment Name", "Type", "Flowrate", "Pressure", "Temperature"},
		},
		{
			name:   "extra columns and reordering",
			header: []string{"Notes", "Temperature", "Pressure", "Flowrate", "Type", "Equipment Name"},
		},
		{
			name:        "missing pressure",
			header:      []string{"Equipment Name", "Type", "Flowrate", "Temperature"},
			wantMissing: []string{"Pressure"},
		},
		{
			name:        "wrong case counts as missing",
			header:      []string{"equipment name", "Type", "Flowrate", "Pressure", "Temperature"},
			wantMissing: []string{"Equipment Name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateColumns(tt.header)
			if len(tt.wantMissing) == 0 {
				if err != nil {
					t.Fatalf("ValidateColumns() error = %v", err)
				}
				return
			}
			e, ok := err.(*Error)
			if !ok {
				t.Fatalf("ValidateColumns() error = %T, want *Error", err)
			}
			if e.Kind != KindBadInput {
				t.Errorf("Kind = %v, want bad_input", e.Kind)
			}
			if len(e.Missing) != len(tt.wantMissing) || e.Missing[0] != tt.wantMissing[0] {
				t.Errorf("Missing = %v, want %v", e.Missing, tt.wantMissing)
			}
			if len(e.Required) != len(RequiredColumns) {
				t.Errorf("Required = %v, want %v", e.Required, RequiredColumns)
			}
		})
	}
}
