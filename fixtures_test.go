package rigmerge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/rigmerge/internal/h5io"
)

// fixtureSession describes one session group in a generated rig log.
// Every session gets a small Triggers table unless noTriggers is set, so
// the fixtures look like complete rig output.
type fixtureSession struct {
	name       string
	signals    []SignalDescriptor
	samples    [][]float64 // row-major
	attrs      []h5io.Attr
	noTriggers bool
}

// timeAndLoad builds the common two-column descriptor set used across the
// merge tests.
func timeAndLoad() []SignalDescriptor {
	return []SignalDescriptor{
		{Name: "Running Time", Unit: "sec"},
		{Name: "Load", Unit: "kN"},
	}
}

// rows zips a time column and a value column into sample rows.
func rows(times, values []float64) [][]float64 {
	out := make([][]float64, len(times))
	for i := range times {
		out[i] = []float64{times[i], values[i]}
	}
	return out
}

// writeRigFile generates a rig log at path with the given sessions.
func writeRigFile(t *testing.T, path string, sessions ...fixtureSession) {
	t.Helper()

	fw, err := h5io.Create(path)
	require.NoError(t, err)

	var root []h5io.Link
	for _, s := range sessions {
		var children []h5io.Link

		if s.samples != nil {
			cols := 0
			var flat []float64
			for _, row := range s.samples {
				cols = len(row)
				flat = append(flat, row...)
			}
			addr, err := fw.WriteMatrix(flat, len(s.samples), cols, 4)
			require.NoError(t, err)
			children = append(children, h5io.Link{Name: "Scans", Addr: addr})
		}

		if s.signals != nil {
			tbl := h5io.NewTable([]h5io.Field{
				{Name: "Name", Class: h5io.ClassString, Size: 32},
				{Name: "Unit", Class: h5io.ClassString, Size: 16},
			})
			for _, d := range s.signals {
				require.NoError(t, tbl.AppendRow(d.Name, d.Unit))
			}
			addr, err := fw.WriteTable(tbl, 4)
			require.NoError(t, err)
			children = append(children, h5io.Link{Name: "Signals", Addr: addr})
		}

		if !s.noTriggers {
			trig := h5io.NewTable([]h5io.Field{
				{Name: "Time", Class: h5io.ClassFloat, Size: 8},
				{Name: "Event", Class: h5io.ClassString, Size: 16},
			})
			require.NoError(t, trig.AppendRow(0.0, "start"))
			addr, err := fw.WriteTable(trig, 4)
			require.NoError(t, err)
			children = append(children, h5io.Link{Name: "Triggers", Addr: addr})
		}

		addr, err := fw.WriteGroup(children, s.attrs)
		require.NoError(t, err)
		root = append(root, h5io.Link{Name: s.name, Addr: addr})
	}

	require.NoError(t, fw.Finish(root))
	require.NoError(t, fw.Close())
}

// displayAttrs builds a minimal session attribute set.
func displayAttrs(displayName string) []h5io.Attr {
	return []h5io.Attr{
		{Name: "DisplayName", Value: displayName},
		{Name: "Name", Value: "cyclicDaqActivity"},
		{Name: "SessionIndex", Value: int32(1)},
	}
}

// column extracts one column from a sample table.
func column(t *testing.T, st *SampleTable, col int) []float64 {
	t.Helper()
	require.NotNil(t, st)
	require.Less(t, col, st.Cols)
	return st.Column(col)
}
