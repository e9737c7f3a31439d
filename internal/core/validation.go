package core

// validation.go checks an uploaded header against the fixed equipment schema.
//
// The check is a superset test: every required column must appear, extra
// columns are ignored. Cell contents are not inspected here; numeric parsing
// happens when rows are mapped into EquipmentRow.

// Required column names, in the order they are reported to clients.
const (
	ColumnName        = "Equipment Name"
	ColumnType        = "Type"
	ColumnFlowrate    = "Flowrate"
	ColumnPressure    = "Pressure"
	ColumnTemperature = "Temperature"
)

// RequiredColumns lists the columns every dataset must carry.
var RequiredColumns = []string{ColumnName, ColumnType, ColumnFlowrate, ColumnPressure, ColumnTemperature}

// ValidateColumns returns a BadInput error naming every required column
// absent from header. Header names are compared exactly after trimming.
func ValidateColumns(header []string) error {
	idx := MakeHeaderIndex(header)

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return missingColumns(missing)
	}
	return nil
}
