package rigmerge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindColumn(t *testing.T) {
	descs := []SignalDescriptor{
		{Name: "Running Time", Unit: "sec"},
		{Name: "Load", Unit: "kN"},
		{Name: "Displacement", Unit: "mm"},
	}

	assert.Equal(t, 0, FindColumn(descs, "Running Time"))
	assert.Equal(t, 2, FindColumn(descs, "Displacement"))
	assert.Equal(t, ColumnNotFound, FindColumn(descs, "Strain"))
	assert.Equal(t, ColumnNotFound, FindColumn(nil, "Load"))
}

func TestFindColumnDuplicateNames(t *testing.T) {
	descs := []SignalDescriptor{
		{Name: "Load", Unit: "kN"},
		{Name: "Load", Unit: "lbf"},
	}
	assert.Equal(t, 0, FindColumn(descs, "Load"))
}

func TestFindColumnExactMatch(t *testing.T) {
	descs := []SignalDescriptor{{Name: "Running Time", Unit: "sec"}}
	assert.Equal(t, ColumnNotFound, FindColumn(descs, "running time"))
	assert.Equal(t, ColumnNotFound, FindColumn(descs, "Running Time "))
}

func TestFindColumns(t *testing.T) {
	descs := timeAndLoad()

	x, y, err := FindColumns(descs, "Running Time", "Load")
	require.NoError(t, err)
	assert.Equal(t, 0, x)
	assert.Equal(t, 1, y)

	_, _, err = FindColumns(descs, "Running Time", "Strain")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSignalNotFound)
	assert.Contains(t, err.Error(), "Strain")

	_, _, err = FindColumns(descs, "Bogus", "Strain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bogus")
	assert.Contains(t, err.Error(), "Strain")
}
