package h5io

import (
	"path/filepath"
	"testing"

	"github.com/scigolib/hdf5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Written files must be readable by the hdf5 library, which also serves as
// the format check for external rig tooling.

func TestRoundtripMatrix(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "matrix.h5")

	values := []float64{
		0.0, 1.5,
		2.0, 2.5,
		4.0, 3.5,
	}

	fw, err := Create(filename)
	require.NoError(t, err)

	addr, err := fw.WriteMatrix(values, 3, 2, 4)
	require.NoError(t, err)

	groupAddr, err := fw.WriteGroup([]Link{{Name: "Scans", Addr: addr}}, nil)
	require.NoError(t, err)
	require.NoError(t, fw.Finish([]Link{{Name: "Session001", Addr: groupAddr}}))
	require.NoError(t, fw.Close())

	f, err := hdf5.Open(filename)
	require.NoError(t, err)
	defer f.Close()

	children := f.Root().Children()
	require.Len(t, children, 1)
	group, ok := children[0].(*hdf5.Group)
	require.True(t, ok)
	assert.Equal(t, "Session001", group.Name())

	require.Len(t, group.Children(), 1)
	ds, ok := group.Children()[0].(*hdf5.Dataset)
	require.True(t, ok)
	assert.Equal(t, "Scans", ds.Name())

	got, err := ds.Read()
	require.NoError(t, err)
	assert.Equal(t, values, got)

	dims, err := ReadDims(f.Reader(), ds.Address())
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 2}, dims)
}

func TestRoundtripCompoundTable(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "table.h5")

	// String member first: the layout the descriptor tables use.
	tbl := NewTable([]Field{
		{Name: "Name", Class: ClassString, Size: 32},
		{Name: "Unit", Class: ClassString, Size: 16},
		{Name: "Scale", Class: ClassFloat, Size: 8},
		{Name: "Index", Class: ClassFixed, Size: 8},
	})
	require.NoError(t, tbl.AppendRow("Running Time", "sec", 1.0, int64(0)))
	require.NoError(t, tbl.AppendRow("Load", "kN", 0.001, int64(1)))

	fw, err := Create(filename)
	require.NoError(t, err)

	addr, err := fw.WriteTable(tbl, 4)
	require.NoError(t, err)

	groupAddr, err := fw.WriteGroup([]Link{{Name: "Signals", Addr: addr}}, nil)
	require.NoError(t, err)
	require.NoError(t, fw.Finish([]Link{{Name: "Session001", Addr: groupAddr}}))
	require.NoError(t, fw.Close())

	f, err := hdf5.Open(filename)
	require.NoError(t, err)
	defer f.Close()

	group := f.Root().Children()[0].(*hdf5.Group)
	ds, ok := group.Children()[0].(*hdf5.Dataset)
	require.True(t, ok)

	got, err := ReadTable(f.Reader(), ds.Address())
	require.NoError(t, err)

	require.Equal(t, 2, got.Rows())
	require.Len(t, got.Fields, 4)
	assert.Equal(t, tbl.RowSize, got.RowSize)

	name, ok := got.StringAt(0, got.FieldIndex("Name"))
	require.True(t, ok)
	assert.Equal(t, "Running Time", name)
	unit, ok := got.StringAt(1, got.FieldIndex("Unit"))
	require.True(t, ok)
	assert.Equal(t, "kN", unit)
	scale, ok := got.Float64At(1, got.FieldIndex("Scale"))
	require.True(t, ok)
	assert.Equal(t, 0.001, scale)
	idx, ok := got.Int64At(1, got.FieldIndex("Index"))
	require.True(t, ok)
	assert.Equal(t, int64(1), idx)
}

func TestRoundtripAttributes(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "attrs.h5")

	fw, err := Create(filename)
	require.NoError(t, err)

	values := []float64{1}
	addr, err := fw.WriteMatrix(values, 1, 1, 4)
	require.NoError(t, err)

	groupAddr, err := fw.WriteGroup(
		[]Link{{Name: "Scans", Addr: addr}},
		[]Attr{
			{Name: "DisplayName", Value: "Combined Data"},
			{Name: "SessionIndex", Value: int32(0)},
			{Name: "ScanCount", Value: int64(12345)},
			{Name: "SampleRate", Value: 2048.0},
		},
	)
	require.NoError(t, err)
	require.NoError(t, fw.Finish([]Link{{Name: "CombinedDataSession", Addr: groupAddr}}))
	require.NoError(t, fw.Close())

	f, err := hdf5.Open(filename)
	require.NoError(t, err)
	defer f.Close()

	group := f.Root().Children()[0].(*hdf5.Group)
	attrs, err := group.Attributes()
	require.NoError(t, err)
	require.Len(t, attrs, 4)

	byName := map[string]interface{}{}
	for _, a := range attrs {
		v, err := a.ReadValue()
		require.NoError(t, err)
		byName[a.Name] = v
	}

	assert.Equal(t, "Combined Data", byName["DisplayName"])
	assert.Equal(t, int32(0), byName["SessionIndex"])
	assert.Equal(t, int64(12345), byName["ScanCount"])
	assert.Equal(t, 2048.0, byName["SampleRate"])
}

func TestRoundtripMultipleGroups(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "multi.h5")

	fw, err := Create(filename)
	require.NoError(t, err)

	var root []Link
	for _, name := range []string{"Session002", "Session001", "Session003"} {
		addr, err := fw.WriteMatrix([]float64{1, 2}, 1, 2, 4)
		require.NoError(t, err)
		groupAddr, err := fw.WriteGroup([]Link{{Name: "Scans", Addr: addr}}, nil)
		require.NoError(t, err)
		root = append(root, Link{Name: name, Addr: groupAddr})
	}
	require.NoError(t, fw.Finish(root))
	require.NoError(t, fw.Close())

	f, err := hdf5.Open(filename)
	require.NoError(t, err)
	defer f.Close()

	var names []string
	for _, child := range f.Root().Children() {
		names = append(names, child.(*hdf5.Group).Name())
	}
	assert.ElementsMatch(t, []string{"Session001", "Session002", "Session003"}, names)
}

func TestGroupLinkNamesReadable(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "names.h5")

	fw, err := Create(filename)
	require.NoError(t, err)

	// Mixed-length names exercise the heap data segment layout.
	var children []Link
	for _, name := range []string{"Scans", "Signals", "Triggers", "Groups"} {
		addr, err := fw.WriteMatrix([]float64{1}, 1, 1, 4)
		require.NoError(t, err)
		children = append(children, Link{Name: name, Addr: addr})
	}
	groupAddr, err := fw.WriteGroup(children, nil)
	require.NoError(t, err)
	require.NoError(t, fw.Finish([]Link{{Name: "Session001", Addr: groupAddr}}))
	require.NoError(t, fw.Close())

	f, err := hdf5.Open(filename)
	require.NoError(t, err)
	defer f.Close()

	root := f.Root().Children()
	require.Len(t, root, 1)
	group, ok := root[0].(*hdf5.Group)
	require.True(t, ok)
	assert.Equal(t, "Session001", group.Name())

	var names []string
	for _, child := range group.Children() {
		names = append(names, child.(*hdf5.Dataset).Name())
	}
	assert.ElementsMatch(t, []string{"Scans", "Signals", "Triggers", "Groups"}, names)
}

func TestWriteMatrixShapeMismatch(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "bad.h5")
	fw, err := Create(filename)
	require.NoError(t, err)
	defer fw.Close()

	_, err = fw.WriteMatrix([]float64{1, 2, 3}, 2, 2, 4)
	require.Error(t, err)
}
