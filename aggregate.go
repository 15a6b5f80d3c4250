package rigmerge

import (
	"github.com/scigolib/rigmerge/internal/logging"
)

// AggregateStore concatenates every session's sample table in session
// order. The first session supplies the descriptors, metadata, triggers,
// and group-index layout for the whole file; an unreadable first session
// shifts that role to the next one with a warning.
//
// Only an empty store is an error. A missing running-time signal leaves
// TimeColumn at ColumnNotFound; a file whose sessions carry no sample
// tables yields a nil Samples with descriptors and metadata intact.
func AggregateStore(s *Store, opts Options, diag *Diagnostics) (*FileAggregate, error) {
	log := logging.Component("aggregate")

	names := s.Sessions(opts.SessionPrefix)
	if len(names) == 0 {
		return nil, wrapErr(ErrNoSessions, "%s", s.Path())
	}
	log.Debug("aggregating", "path", s.Path(), "sessions", len(names))

	agg := &FileAggregate{Path: s.Path(), TimeColumn: ColumnNotFound}
	var tables []*SampleTable

	haveRep := false
	for i, name := range names {
		sess, err := s.ReadSession(name, diag)
		if err != nil {
			diag.Warnf("%s: %v", s.Path(), err)
			continue
		}
		if !haveRep {
			// The first session supplies descriptors, metadata, triggers
			// and the group-index layout, whether or not it carries a
			// descriptor table of its own.
			haveRep = true
			if i != 0 {
				diag.Warnf("%s: representative session is %s, not %s", s.Path(), name, names[0])
			}
			agg.Signals = sess.Signals
			agg.SignalTable = sess.SignalTable
			agg.Triggers = sess.Triggers
			agg.GroupIndex = sess.GroupIndex
			agg.Meta = sess.Meta
		}
		if sess.Samples == nil {
			diag.Warnf("%s: session %s has no sample table", s.Path(), name)
			continue
		}
		tables = append(tables, sess.Samples)
	}

	if agg.Signals != nil {
		agg.TimeColumn = FindColumn(agg.Signals, opts.TimeSignal)
		if agg.TimeColumn == ColumnNotFound {
			diag.Warnf("%s: signal %q not in descriptors", s.Path(), opts.TimeSignal)
		}
	}

	agg.Samples = concatTables(s.Path(), tables, len(agg.Signals), diag)
	if agg.Samples != nil {
		log.Debug("aggregated", "path", s.Path(), "rows", agg.Samples.Rows, "cols", agg.Samples.Cols)
	}
	return agg, nil
}

// concatTables stacks session tables row-wise. Tables whose width differs
// from the descriptor count are dropped with a warning; when there are no
// descriptors the first table fixes the width.
func concatTables(path string, tables []*SampleTable, wantCols int, diag *Diagnostics) *SampleTable {
	var rows int
	var kept []*SampleTable
	for _, t := range tables {
		if wantCols == 0 {
			wantCols = t.Cols
		}
		if t.Cols != wantCols {
			diag.Warnf("%s: sample table has %d columns, want %d, dropped", path, t.Cols, wantCols)
			continue
		}
		rows += t.Rows
		kept = append(kept, t)
	}
	if len(kept) == 0 {
		return nil
	}

	out := &SampleTable{Rows: rows, Cols: wantCols, Values: make([]float64, 0, rows*wantCols)}
	for _, t := range kept {
		out.Values = append(out.Values, t.Values...)
	}
	return out
}
