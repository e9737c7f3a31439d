package export

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/core"
)

var records = []core.Equipment{
	{ID: 1, BatchID: 4, Name: "Pump, main", Type: "Pump", Flowrate: 10.5, Pressure: 2, Temperature: 80},
	{ID: 2, BatchID: 4, Name: "Valve-1", Type: "Valve", Flowrate: 20, Pressure: 3.25, Temperature: 95.125},
}

func TestWriteCSVRoundTripsThroughIngestion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	want := "Equipment Name,Type,Flowrate,Pressure,Temperature\n" +
		"\"Pump, main\",Pump,10.5,2,80\n" +
		"Valve-1,Valve,20,3.25,95.125\n"
	assert.Equal(t, want, buf.String())

	ds, err := core.ParseDataset(strings.NewReader(buf.String()))
	require.NoError(t, err)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, "Pump, main", ds.Rows[0].Name)
	assert.Equal(t, 95.125, ds.Rows[1].Temperature)
}

func TestWriteParquet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatParquet, records))

	reader := parquet.NewGenericReader[EquipmentRow](bytes.NewReader(buf.Bytes()))
	defer reader.Close()
	require.Equal(t, int64(2), reader.NumRows())

	rows := make([]EquipmentRow, 2)
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		require.NoError(t, err)
	}
	require.Equal(t, 2, n)
	assert.Equal(t, ToRow(records[0]), rows[0])
	assert.Equal(t, ToRow(records[1]), rows[1])
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("parquet")
	require.NoError(t, err)
	assert.Equal(t, FormatParquet, f)

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)

	assert.Equal(t, "batch_3_equipment.parquet", FileName(3, FormatParquet))
	assert.Equal(t, "text/csv; charset=utf-8", FormatCSV.ContentType())
}
