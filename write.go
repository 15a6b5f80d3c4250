package rigmerge

import (
	"os"

	"github.com/scigolib/rigmerge/internal/h5io"
	"github.com/scigolib/rigmerge/internal/logging"
)

// WriteStore writes a merged dataset to path as a single-group store the
// rig tooling can read back. The file is created fresh; a partial file left
// by a failed write is removed.
func WriteStore(path string, ds *MergedDataset, opts Options) error {
	log := logging.Component("write")

	fw, err := h5io.Create(path)
	if err != nil {
		return wrapErr(ErrWriteFailed, "%s: %v", path, err)
	}

	if err := writeCombined(fw, ds, opts.CompressionLevel); err != nil {
		fw.Close()
		os.Remove(path)
		return wrapErr(ErrWriteFailed, "%s: %v", path, err)
	}
	if err := fw.Close(); err != nil {
		os.Remove(path)
		return wrapErr(ErrWriteFailed, "%s: %v", path, err)
	}

	log.Info("store written", "path", path, "rows", ds.Samples.Rows, "signals", len(ds.Signals))
	return nil
}

func writeCombined(fw *h5io.FileWriter, ds *MergedDataset, level int) error {
	var children []h5io.Link

	addr, err := fw.WriteMatrix(ds.Samples.Values, ds.Samples.Rows, ds.Samples.Cols, level)
	if err != nil {
		return err
	}
	children = append(children, h5io.Link{Name: scansDataset, Addr: addr})

	signals := ds.SignalTable
	if signals == nil {
		signals = descriptorTable(ds.Signals)
	}
	addr, err = fw.WriteTable(signals, level)
	if err != nil {
		return err
	}
	children = append(children, h5io.Link{Name: signalsDataset, Addr: addr})

	if ds.Triggers != nil && ds.Triggers.Rows() > 0 {
		addr, err = fw.WriteTable(ds.Triggers, level)
		if err != nil {
			return err
		}
		children = append(children, h5io.Link{Name: triggersDataset, Addr: addr})
	}

	addr, err = fw.WriteTable(ds.GroupIndex, level)
	if err != nil {
		return err
	}
	children = append(children, h5io.Link{Name: groupsDataset, Addr: addr})

	attrs := make([]h5io.Attr, 0, len(ds.Meta))
	for _, a := range ds.Meta {
		switch a.Value.(type) {
		case string, int32, int64, float64:
			attrs = append(attrs, h5io.Attr{Name: a.Name, Value: a.Value})
		default:
			// Non-scalar source attributes are not carried over.
			logging.Component("write").Debug("attribute dropped", "name", a.Name)
		}
	}

	groupAddr, err := fw.WriteGroup(children, attrs)
	if err != nil {
		return err
	}
	return fw.Finish([]h5io.Link{{Name: CombinedGroupName, Addr: groupAddr}})
}

// descriptorTable rebuilds a raw Signals table from parsed descriptors, for
// datasets assembled without a source table. Name and unit fields use the
// rig's fixed 64-byte strings.
func descriptorTable(descs []SignalDescriptor) *h5io.Table {
	t := h5io.NewTable([]h5io.Field{
		{Name: signalNameField, Class: h5io.ClassString, Size: 64},
		{Name: signalUnitField, Class: h5io.ClassString, Size: 64},
	})
	for _, d := range descs {
		t.AppendRow(d.Name, d.Unit)
	}
	return t
}
