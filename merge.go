package rigmerge

import (
	"path/filepath"
	"sort"

	"github.com/scigolib/rigmerge/internal/h5io"
	"github.com/scigolib/rigmerge/internal/logging"
)

// Attribute and dataset name constants for the combined store.
const (
	// CombinedGroupName is the single top-level group in a merged store.
	CombinedGroupName = "CombinedDataSession"

	// DefaultDisplayName replaces the source DisplayName attribute.
	DefaultDisplayName = "Combined High and Low Frequency Data (Sorted by Running Time)"

	// DefaultDatasetName replaces the source Name attribute.
	DefaultDatasetName = "combinedCyclicDaqActivity"

	displayNameAttr  = "DisplayName"
	nameAttr         = "Name"
	sessionIndexAttr = "SessionIndex"

	combinedSegmentTag = "Combined"
)

// Merge aggregates two rig logs and combines them into one dataset sorted
// globally by the running-time signal. Fatal conditions (unopenable input,
// no usable metadata, no rows) return an error with a nil dataset;
// everything recoverable lands in the returned Diagnostics.
func Merge(pathA, pathB string, opts Options) (*MergedDataset, *Diagnostics, error) {
	log := logging.Component("merge")
	diag := &Diagnostics{}

	aggA, err := aggregateFile(pathA, opts, diag)
	if err != nil {
		return nil, diag, err
	}
	aggB, err := aggregateFile(pathB, opts, diag)
	if err != nil {
		return nil, diag, err
	}

	// Representative metadata: the first input with descriptors and a
	// resolvable time column wins.
	rep := aggA
	if !qualifies(rep) {
		rep = aggB
	}
	if !qualifies(rep) {
		return nil, diag, wrapErr(ErrNoUsableMetadata, "%s, %s", pathA, pathB)
	}
	if qualifies(aggA) && qualifies(aggB) && !descriptorsEqual(aggA.Signals, aggB.Signals) {
		diag.Warnf("descriptor tables differ between %s and %s; using %s", pathA, pathB, rep.Path)
	}

	samples := concatAggregates(rep, []*FileAggregate{aggA, aggB}, diag)
	if samples == nil {
		return nil, diag, wrapErr(ErrNoRows, "%s, %s", pathA, pathB)
	}
	sortByColumn(samples, rep.TimeColumn)

	ds := &MergedDataset{
		Samples:     samples,
		Signals:     rep.Signals,
		SignalTable: rep.SignalTable,
		Triggers:    rep.Triggers,
		Meta:        amendMetadata(rep.Meta, pathA, pathB, opts),
		TimeColumn:  rep.TimeColumn,
	}

	layout := rep.GroupIndex
	if layout == nil {
		if aggA != nil && aggA.GroupIndex != nil {
			layout = aggA.GroupIndex
		} else if aggB != nil && aggB.GroupIndex != nil {
			layout = aggB.GroupIndex
		}
	}
	ds.GroupIndex, err = syntheticGroupIndex(layout, samples.Rows)
	if err != nil {
		return nil, diag, err
	}

	log.Info("merged", "first", pathA, "second", pathB, "rows", samples.Rows, "cols", samples.Cols)
	return ds, diag, nil
}

// aggregateFile opens and aggregates one input. Open failures are fatal;
// an empty store degrades to a warning and a nil aggregate.
func aggregateFile(path string, opts Options, diag *Diagnostics) (*FileAggregate, error) {
	store, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	agg, err := AggregateStore(store, opts, diag)
	if err != nil {
		diag.Warnf("%v", err)
		return nil, nil
	}
	return agg, nil
}

func qualifies(agg *FileAggregate) bool {
	return agg != nil && len(agg.Signals) > 0 && agg.TimeColumn != ColumnNotFound
}

// concatAggregates stacks the inputs' sample tables in argument order,
// dropping inputs that contribute nothing or disagree on width.
func concatAggregates(rep *FileAggregate, aggs []*FileAggregate, diag *Diagnostics) *SampleTable {
	cols := len(rep.Signals)
	var rows int
	var kept []*SampleTable
	for _, agg := range aggs {
		if agg == nil || agg.Samples == nil || agg.Samples.Rows == 0 {
			if agg != nil {
				diag.Warnf("%s contributes no rows, omitted", agg.Path)
			}
			continue
		}
		if agg.Samples.Cols != cols {
			diag.Warnf("%s has %d columns, want %d, omitted", agg.Path, agg.Samples.Cols, cols)
			continue
		}
		rows += agg.Samples.Rows
		kept = append(kept, agg.Samples)
	}
	if rows == 0 {
		return nil
	}

	out := &SampleTable{Rows: rows, Cols: cols, Values: make([]float64, 0, rows*cols)}
	for _, t := range kept {
		out.Values = append(out.Values, t.Values...)
	}
	return out
}

// sortByColumn sorts the table rows ascending on one column. The sort is
// stable so equal timestamps keep their arrival order.
func sortByColumn(t *SampleTable, col int) {
	order := make([]int, t.Rows)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return t.Values[order[i]*t.Cols+col] < t.Values[order[j]*t.Cols+col]
	})

	sorted := make([]float64, 0, len(t.Values))
	for _, r := range order {
		sorted = append(sorted, t.Values[r*t.Cols:(r+1)*t.Cols]...)
	}
	t.Values = sorted
}

// amendMetadata rewrites the representative metadata for the combined
// store: fixed display and dataset names, session index zero, and the two
// source basenames under the configured provenance keys.
func amendMetadata(meta Metadata, pathA, pathB string, opts Options) Metadata {
	out := meta.Clone()
	out = out.Set(displayNameAttr, DefaultDisplayName)
	out = out.Set(nameAttr, DefaultDatasetName)
	out = out.Set(sessionIndexAttr, int32(0))
	out = out.Set(opts.Provenance.First, filepath.Base(pathA))
	out = out.Set(opts.Provenance.Second, filepath.Base(pathB))
	return out
}

// syntheticGroupIndex builds the one-row segment index covering the whole
// merged table. The field layout is copied from an input's index table when
// one was found; otherwise the fixed fallback shape is used. Copied layouts
// are filled positionally: integer fields get id, start, count in order,
// string fields get the segment tag.
func syntheticGroupIndex(layout *h5io.Table, rows int) (*h5io.Table, error) {
	var fields []h5io.Field
	if layout != nil {
		fields = make([]h5io.Field, len(layout.Fields))
		copy(fields, layout.Fields)
	} else {
		fields = []h5io.Field{
			{Name: "[Id]", Class: h5io.ClassFixed, Size: 8},
			{Name: "[ScanStart]", Class: h5io.ClassFixed, Size: 8},
			{Name: "[ScanCount]", Class: h5io.ClassFixed, Size: 8},
			{Name: "[Tag]", Class: h5io.ClassString, Size: 10},
		}
	}

	t := h5io.NewTable(fields)
	ints := []int64{1, 0, int64(rows)}
	values := make([]interface{}, len(t.Fields))
	intIdx := 0
	for i, f := range t.Fields {
		switch f.Class {
		case h5io.ClassFixed:
			if intIdx < len(ints) {
				values[i] = ints[intIdx]
			} else {
				values[i] = int64(0)
			}
			intIdx++
		case h5io.ClassFloat:
			values[i] = float64(0)
		default:
			values[i] = combinedSegmentTag
		}
	}
	if err := t.AppendRow(values...); err != nil {
		return nil, wrapErr(ErrWriteFailed, "group index: %v", err)
	}
	return t, nil
}
