package rigmerge

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/scigolib/hdf5"

	"github.com/scigolib/rigmerge/internal/h5io"
)

// Dataset names inside a session group.
const (
	scansDataset    = "Scans"
	signalsDataset  = "Signals"
	triggersDataset = "Triggers"
	groupsDataset   = "Groups"
)

// Descriptor field names in the Signals table.
const (
	signalNameField = "Name"
	signalUnitField = "Unit"
)

// Store is a read-only handle on one rig log file.
type Store struct {
	path string
	file *hdf5.File
}

// Open opens a rig log for reading. A missing path maps to ErrNotFound, an
// unreadable or non-HDF5 file to ErrBadFormat.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, wrapErr(ErrNotFound, "%s", path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	f, err := hdf5.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", path, err, ErrBadFormat)
	}
	return &Store{path: path, file: f}, nil
}

// Close releases the underlying file.
func (s *Store) Close() error {
	return s.file.Close()
}

// Path returns the file path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Sessions returns the top-level group names starting with prefix, sorted
// lexicographically. The rig writes zero-padded session numbers, so this
// order is acquisition order.
func (s *Store) Sessions(prefix string) []string {
	var names []string
	for _, child := range s.file.Root().Children() {
		g, ok := child.(*hdf5.Group)
		if !ok {
			continue
		}
		if strings.HasPrefix(g.Name(), prefix) {
			names = append(names, g.Name())
		}
	}
	sort.Strings(names)
	return names
}

// ReadSession reads one session group. Missing or unreadable tables are
// reported through diag and leave the corresponding field nil; only a
// missing group is an error.
func (s *Store) ReadSession(name string, diag *Diagnostics) (*Session, error) {
	group := s.findGroup(name)
	if group == nil {
		return nil, wrapErr(ErrNotFound, "session %q in %s", name, s.path)
	}
	sess := &Session{Name: name}
	sess.Meta = s.readAttributes(group, diag)

	for _, child := range group.Children() {
		ds, ok := child.(*hdf5.Dataset)
		if !ok {
			continue
		}
		switch ds.Name() {
		case scansDataset:
			sess.Samples = s.readSamples(name, ds, diag)
		case signalsDataset:
			sess.SignalTable = s.readTable(name, ds, diag)
		case triggersDataset:
			sess.Triggers = s.readTable(name, ds, diag)
		case groupsDataset:
			sess.GroupIndex = s.readTable(name, ds, diag)
		}
	}

	if sess.SignalTable != nil {
		sess.Signals = descriptorsFromTable(sess.SignalTable, name, diag)
	} else {
		diag.Warnf("%s: session %s: %s table missing", s.path, name, signalsDataset)
	}
	if sess.Triggers == nil {
		diag.Warnf("%s: session %s: %s table missing", s.path, name, triggersDataset)
	}
	return sess, nil
}

// VerifyDescriptors compares every session's descriptor table against the
// first session's, returning the names of sessions that differ. The first
// session is the representative for the whole file, so a mismatch means a
// column was added or renamed mid-run.
func (s *Store) VerifyDescriptors(prefix string, diag *Diagnostics) ([]string, error) {
	names := s.Sessions(prefix)
	if len(names) == 0 {
		return nil, wrapErr(ErrNoSessions, "%s", s.path)
	}

	var reference []SignalDescriptor
	var mismatched []string
	for i, name := range names {
		sess, err := s.ReadSession(name, diag)
		if err != nil {
			diag.Warnf("verify: %v", err)
			continue
		}
		if i == 0 {
			reference = sess.Signals
			continue
		}
		if !descriptorsEqual(reference, sess.Signals) {
			mismatched = append(mismatched, name)
			diag.Warnf("session %s: descriptors differ from %s", name, names[0])
		}
	}
	return mismatched, nil
}

func (s *Store) findGroup(name string) *hdf5.Group {
	for _, child := range s.file.Root().Children() {
		if g, ok := child.(*hdf5.Group); ok && g.Name() == name {
			return g
		}
	}
	return nil
}

func (s *Store) readAttributes(group *hdf5.Group, diag *Diagnostics) Metadata {
	attrs, err := group.Attributes()
	if err != nil {
		diag.Warnf("%s: group %s: attributes unreadable: %v", s.path, group.Name(), err)
		return nil
	}
	meta := make(Metadata, 0, len(attrs))
	for _, a := range attrs {
		v, err := a.ReadValue()
		if err != nil {
			diag.Warnf("%s: attribute %s: %v", s.path, a.Name, err)
			continue
		}
		meta = append(meta, MetaAttr{Name: a.Name, Value: v})
	}
	return meta
}

func (s *Store) readSamples(session string, ds *hdf5.Dataset, diag *Diagnostics) *SampleTable {
	dims, err := h5io.ReadDims(s.file.Reader(), ds.Address())
	if err != nil || len(dims) != 2 {
		diag.Warnf("%s: session %s: sample table shape unreadable: %v", s.path, session, err)
		return nil
	}
	values, err := ds.Read()
	if err != nil {
		diag.Warnf("%s: session %s: sample table unreadable: %v", s.path, session, err)
		return nil
	}
	rows, cols := int(dims[0]), int(dims[1])
	if rows*cols != len(values) {
		diag.Warnf("%s: session %s: sample table has %d values for shape %dx%d", s.path, session, len(values), rows, cols)
		return nil
	}
	return &SampleTable{Rows: rows, Cols: cols, Values: values}
}

func (s *Store) readTable(session string, ds *hdf5.Dataset, diag *Diagnostics) *h5io.Table {
	t, err := h5io.ReadTable(s.file.Reader(), ds.Address())
	if err != nil {
		diag.Warnf("%s: session %s: table %s unreadable: %v", s.path, session, ds.Name(), err)
		return nil
	}
	return t
}

// descriptorsFromTable extracts Name/Unit pairs from a raw descriptor
// table. A table without those fields yields nil with a warning.
func descriptorsFromTable(t *h5io.Table, session string, diag *Diagnostics) []SignalDescriptor {
	nameIdx := t.FieldIndex(signalNameField)
	unitIdx := t.FieldIndex(signalUnitField)
	if nameIdx < 0 || unitIdx < 0 {
		diag.Warnf("session %s: descriptor table lacks %s/%s fields", session, signalNameField, signalUnitField)
		return nil
	}
	descs := make([]SignalDescriptor, 0, t.Rows())
	for r := 0; r < t.Rows(); r++ {
		name, _ := t.StringAt(r, nameIdx)
		unit, _ := t.StringAt(r, unitIdx)
		descs = append(descs, SignalDescriptor{Name: name, Unit: unit})
	}
	return descs
}

func descriptorsEqual(a, b []SignalDescriptor) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
