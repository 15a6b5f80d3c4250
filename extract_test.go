package rigmerge

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenExtract(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "high.h5")
	pathB := filepath.Join(dir, "low.h5")
	writeRigFile(t, pathA, fixtureSession{
		name:    "Session001",
		signals: timeAndLoad(),
		samples: rows([]float64{0, 2, 4, 6}, []float64{1, 2, 3, 4}),
		attrs:   displayAttrs("high frequency"),
	})
	writeRigFile(t, pathB, fixtureSession{
		name:    "Session001",
		signals: timeAndLoad(),
		samples: rows([]float64{1, 3, 5}, []float64{10, 20, 30}),
		attrs:   displayAttrs("low frequency"),
	})

	opts := DefaultOptions()
	ds, _, err := Merge(pathA, pathB, opts)
	require.NoError(t, err)

	out := filepath.Join(dir, "combined.h5")
	require.NoError(t, err)
	require.NoError(t, WriteStore(out, ds, opts))

	ext, diag, err := Extract(out, "Running Time", "Load")
	require.NoError(t, err)
	assert.True(t, diag.Empty())

	assert.Equal(t, ds.Samples.Column(0), ext.X)
	assert.Equal(t, ds.Samples.Column(1), ext.Y)
	assert.Equal(t, "Running Time (sec)", ext.XLabel)
	assert.Equal(t, "Load (kN)", ext.YLabel)
	assert.Equal(t, "Load vs. Running Time", ext.Title)
	assert.Equal(t, "sec", ext.XUnit)
	assert.Equal(t, "kN", ext.YUnit)
}

func TestWrittenStoreMetadataSurvives(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "high.h5")
	pathB := filepath.Join(dir, "low.h5")
	writeRigFile(t, pathA, fixtureSession{
		name: "Session001", signals: timeAndLoad(),
		samples: rows([]float64{0}, []float64{1}),
		attrs:   displayAttrs("high frequency"),
	})
	writeRigFile(t, pathB, fixtureSession{
		name: "Session001", signals: timeAndLoad(),
		samples: rows([]float64{1}, []float64{2}),
		attrs:   displayAttrs("low frequency"),
	})

	opts := DefaultOptions()
	ds, _, err := Merge(pathA, pathB, opts)
	require.NoError(t, err)

	out := filepath.Join(dir, "combined.h5")
	require.NoError(t, WriteStore(out, ds, opts))

	store, err := Open(out)
	require.NoError(t, err)
	defer store.Close()

	groups := store.Sessions("")
	assert.Equal(t, []string{CombinedGroupName}, groups)

	sess, err := store.ReadSession(CombinedGroupName, &Diagnostics{})
	require.NoError(t, err)

	display, ok := sess.Meta.Get("DisplayName")
	require.True(t, ok)
	assert.Equal(t, DefaultDisplayName, display)
	idx, ok := sess.Meta.Get("SessionIndex")
	require.True(t, ok)
	assert.Equal(t, int32(0), idx)
	high, ok := sess.Meta.Get("OriginalFileHigh")
	require.True(t, ok)
	assert.Equal(t, "high.h5", high)

	assert.Equal(t, timeAndLoad(), sess.Signals)
	require.NotNil(t, sess.GroupIndex)
	assert.Equal(t, 1, sess.GroupIndex.Rows())
}

func TestExtractUnknownSignal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.h5")
	writeRigFile(t, path, fixtureSession{
		name: "Session001", signals: timeAndLoad(),
		samples: rows([]float64{0}, []float64{1}),
	})

	_, _, err := Extract(path, "Running Time", "Strain")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSignalNotFound)
}

func TestExtractFirstQualifyingGroupWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.h5")
	writeRigFile(t, path,
		fixtureSession{
			name: "Session001", signals: timeAndLoad(),
			samples: rows([]float64{0, 1}, []float64{1, 2}),
		},
		fixtureSession{
			name: "Session002", signals: timeAndLoad(),
			samples: rows([]float64{5}, []float64{50}),
		},
	)

	ext, diag, err := Extract(path, "Running Time", "Load")
	require.NoError(t, err)
	assert.False(t, diag.Empty())
	assert.Equal(t, []float64{1, 2}, ext.Y)
}
