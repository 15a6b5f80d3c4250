// Package rigmerge ingests MTS fatigue-test-rig HDF5 sensor logs. It reads
// per-session sample tables and signal descriptors, aggregates sessions
// within a file, merges two files into a single time-ordered combined
// store, and extracts named signal columns for inspection and plotting.
package rigmerge

import "github.com/scigolib/rigmerge/internal/h5io"

// SignalDescriptor names one sample column and its engineering unit.
type SignalDescriptor struct {
	Name string
	Unit string
}

// Label returns the display label for the signal, "{name} ({unit})".
func (d SignalDescriptor) Label() string {
	return d.Name + " (" + d.Unit + ")"
}

// MetaAttr is one session attribute. Order matters, so metadata is a slice
// rather than a map.
type MetaAttr struct {
	Name  string
	Value interface{}
}

// Metadata is an ordered attribute list.
type Metadata []MetaAttr

// Get returns the value of the named attribute.
func (m Metadata) Get(name string) (interface{}, bool) {
	for _, a := range m {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// Set overwrites the named attribute in place, or appends it.
func (m Metadata) Set(name string, value interface{}) Metadata {
	for i := range m {
		if m[i].Name == name {
			m[i].Value = value
			return m
		}
	}
	return append(m, MetaAttr{Name: name, Value: value})
}

// Clone returns a copy safe to amend.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	copy(out, m)
	return out
}

// SampleTable is a dense rows x cols float64 matrix, one column per signal.
type SampleTable struct {
	Rows, Cols int
	Values     []float64 // row-major
}

// At returns the value at (row, col).
func (t *SampleTable) At(row, col int) float64 {
	return t.Values[row*t.Cols+col]
}

// Column returns a copy of one column.
func (t *SampleTable) Column(col int) []float64 {
	out := make([]float64, t.Rows)
	for r := 0; r < t.Rows; r++ {
		out[r] = t.Values[r*t.Cols+col]
	}
	return out
}

// Session holds one session group's contents. Any table may be nil when the
// group does not carry it.
type Session struct {
	Name        string
	Samples     *SampleTable
	Signals     []SignalDescriptor
	SignalTable *h5io.Table // raw descriptor table, kept for writing
	Triggers    *h5io.Table
	GroupIndex  *h5io.Table
	Meta        Metadata
}

// FileAggregate is the session-concatenated view of one file. TimeColumn is
// the running-time column index in Signals, or ColumnNotFound.
type FileAggregate struct {
	Path        string
	Samples     *SampleTable
	Signals     []SignalDescriptor
	SignalTable *h5io.Table
	Triggers    *h5io.Table
	GroupIndex  *h5io.Table
	Meta        Metadata
	TimeColumn  int
}

// MergedDataset is the result of merging two files: globally time-sorted
// samples plus the amended metadata and a synthetic group index.
type MergedDataset struct {
	Samples     *SampleTable
	Signals     []SignalDescriptor
	SignalTable *h5io.Table
	Triggers    *h5io.Table
	GroupIndex  *h5io.Table
	Meta        Metadata
	TimeColumn  int
}

// Extraction holds two resolved signal columns with their display labels.
type Extraction struct {
	X, Y           []float64
	XLabel, YLabel string
	XUnit, YUnit   string
	Title          string
}
