package rigmerge

import (
	"fmt"

	"github.com/scigolib/rigmerge/internal/logging"
)

// Diagnostics collects the non-fatal problems encountered during an
// operation. Warnings are returned to the caller rather than printed, and
// are additionally logged as they occur.
type Diagnostics struct {
	Warnings []string
}

// Warnf records a warning and logs it.
func (d *Diagnostics) Warnf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	d.Warnings = append(d.Warnings, msg)
	logging.Warn(msg)
}

// Empty reports whether no warnings were recorded.
func (d *Diagnostics) Empty() bool {
	return len(d.Warnings) == 0
}
