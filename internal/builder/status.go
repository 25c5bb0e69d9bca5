package builder

import "strings"

// StatusPolicy maps release status codes to concept activity.
type StatusPolicy map[string]bool

// DefaultStatusPolicy treats ACTIVE and TRIAL codes as active and
// DISCOURAGED and DEPRECATED codes as inactive.
func DefaultStatusPolicy() StatusPolicy {
	return StatusPolicy{
		"ACTIVE":      true,
		"TRIAL":       true,
		"DISCOURAGED": false,
		"DEPRECATED":  false,
	}
}

// Resolve returns the activity of a status code. Unknown codes are active and
// reported through known.
func (p StatusPolicy) Resolve(code string) (active bool, known bool) {
	active, known = p[strings.ToUpper(strings.TrimSpace(code))]
	if !known {
		return true, false
	}
	return active, true
}

// Merge returns a copy of p with overrides applied. Override keys are upper-cased.
func (p StatusPolicy) Merge(overrides map[string]bool) StatusPolicy {
	out := make(StatusPolicy, len(p)+len(overrides))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range overrides {
		out[strings.ToUpper(k)] = v
	}
	return out
}
