package rigmerge

// ColumnNotFound is the index returned when a signal name does not resolve.
const ColumnNotFound = -1

// FindColumn returns the column index of the named signal, matching names
// exactly. When the rig records duplicate names, the lowest index wins.
func FindColumn(descs []SignalDescriptor, name string) int {
	for i, d := range descs {
		if d.Name == name {
			return i
		}
	}
	return ColumnNotFound
}

// FindColumns resolves an x/y signal pair, reporting every name that failed
// to resolve.
func FindColumns(descs []SignalDescriptor, xName, yName string) (x, y int, err error) {
	x = FindColumn(descs, xName)
	y = FindColumn(descs, yName)
	switch {
	case x == ColumnNotFound && y == ColumnNotFound:
		err = wrapErr(ErrSignalNotFound, "%q, %q", xName, yName)
	case x == ColumnNotFound:
		err = wrapErr(ErrSignalNotFound, "%q", xName)
	case y == ColumnNotFound:
		err = wrapErr(ErrSignalNotFound, "%q", yName)
	}
	return x, y, err
}
