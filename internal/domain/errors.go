package domain

import "fmt"

// InsufficientDataError is returned before a backtest starts when the bar
// series is shorter than the longest indicator warm-up period.
type InsufficientDataError struct {
	Bars     int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d bars, need at least %d", e.Bars, e.Required)
}

// InvalidConfigurationError is returned when run parameters are unusable:
// negative periods, non-positive cash, negative commission.
type InvalidConfigurationError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}
