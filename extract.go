package rigmerge

import (
	"fmt"
)

// Extract reads two named signal columns from the first top-level group
// that exposes both signals and a sample table. Further qualifying groups
// are reported through Diagnostics and ignored.
func Extract(path, xName, yName string) (*Extraction, *Diagnostics, error) {
	diag := &Diagnostics{}

	store, err := Open(path)
	if err != nil {
		return nil, diag, err
	}
	defer store.Close()

	// Any top-level group is a candidate; merged stores use the combined
	// group name, raw logs use session names.
	names := store.Sessions("")
	if len(names) == 0 {
		return nil, diag, wrapErr(ErrNoSessions, "%s", path)
	}

	var chosen *Session
	var xCol, yCol int
	for _, name := range names {
		sess, err := store.ReadSession(name, diag)
		if err != nil {
			diag.Warnf("%s: %v", path, err)
			continue
		}
		if sess.Samples == nil || len(sess.Signals) == 0 {
			continue
		}
		x, y, err := FindColumns(sess.Signals, xName, yName)
		if err != nil {
			continue
		}
		if chosen != nil {
			diag.Warnf("%s: group %s also matches, using %s", path, name, chosen.Name)
			continue
		}
		chosen, xCol, yCol = sess, x, y
	}
	if chosen == nil {
		return nil, diag, wrapErr(ErrSignalNotFound, "%q, %q in %s", xName, yName, path)
	}

	xDesc, yDesc := chosen.Signals[xCol], chosen.Signals[yCol]
	return &Extraction{
		X:      chosen.Samples.Column(xCol),
		Y:      chosen.Samples.Column(yCol),
		XLabel: xDesc.Label(),
		YLabel: yDesc.Label(),
		XUnit:  xDesc.Unit,
		YUnit:  yDesc.Unit,
		Title:  fmt.Sprintf("%s vs. %s", yName, xName),
	}, diag, nil
}
