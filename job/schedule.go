package job

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// scheduleParser accepts standard 5-field cron expressions as well as
// seconds-precision 6-field expressions, matching the framework's
// original contract ("any cron parser that supports seconds precision").
var scheduleParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule parses a cron expression and returns both the runnable
// cron.Schedule and its canonical string form. The canonical form is what
// gets hashed by Fingerprint and persisted on the wire, so two
// syntactically different but semantically identical expressions
// (e.g. "0 * * * *" and "0 0 * * * *") must normalize to the same string.
//
// cron.Schedule does not expose a canonical String() method, so the
// canonical form here is simply the normalized 6-field expression: a
// missing seconds field is made explicit as "0".
func ParseSchedule(expr string) (cron.Schedule, string, error) {
	canonical := normalizeCronExpr(expr)

	schedule, err := scheduleParser.Parse(canonical)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %q: %w", ErrCron, expr, err)
	}
	return schedule, canonical, nil
}

// normalizeCronExpr prepends a "0" seconds field to a standard 5-field
// expression so 5-field and 6-field forms of the same schedule hash to the
// same fingerprint. Descriptors ("@hourly", "@every 5m", ...) pass through
// unchanged.
func normalizeCronExpr(expr string) string {
	if len(expr) > 0 && expr[0] == '@' {
		return expr
	}
	fields := splitFields(expr)
	if len(fields) == 5 {
		return "0 " + expr
	}
	return expr
}

func splitFields(expr string) []string {
	var fields []string
	start := -1
	for i, r := range expr {
		if r == ' ' || r == '\t' {
			if start >= 0 {
				fields = append(fields, expr[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		fields = append(fields, expr[start:])
	}
	return fields
}
