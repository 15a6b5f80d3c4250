package rigmerge

import (
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportParquet(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.h5")
	pathB := filepath.Join(dir, "b.h5")
	writeRigFile(t, pathA, fixtureSession{
		name: "Session001", signals: timeAndLoad(),
		samples: rows([]float64{0, 2}, []float64{1, 2}),
	})
	writeRigFile(t, pathB, fixtureSession{
		name: "Session001", signals: timeAndLoad(),
		samples: rows([]float64{1}, []float64{10}),
	})

	ds, _, err := Merge(pathA, pathB, DefaultOptions())
	require.NoError(t, err)

	out := filepath.Join(dir, "samples.parquet")
	require.NoError(t, ExportParquet(out, ds))

	records, err := parquet.ReadFile[SampleRecord](out)
	require.NoError(t, err)

	// One record per cell: 3 rows x 2 columns.
	require.Len(t, records, 6)
	assert.Equal(t, SampleRecord{Signal: "Running Time", Unit: "sec", Row: 0, Time: 0, Value: 0}, records[0])
	assert.Equal(t, SampleRecord{Signal: "Load", Unit: "kN", Row: 0, Time: 0, Value: 1}, records[1])
	assert.Equal(t, SampleRecord{Signal: "Load", Unit: "kN", Row: 2, Time: 2, Value: 2}, records[5])
}
