package enums

import (
	"fmt"
	"time"
)

// SalesPeriod selects the trailing window used by the sales dashboard.
type SalesPeriod string

const (
	SalesPeriodAll     SalesPeriod = "all"
	SalesPeriodMonth   SalesPeriod = "month"
	SalesPeriodQuarter SalesPeriod = "quarter"
	SalesPeriodYear    SalesPeriod = "year"
)

var validSalesPeriods = []SalesPeriod{
	SalesPeriodAll,
	SalesPeriodMonth,
	SalesPeriodQuarter,
	SalesPeriodYear,
}

// String implements fmt.Stringer.
func (s SalesPeriod) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SalesPeriod.
func (s SalesPeriod) IsValid() bool {
	for _, candidate := range validSalesPeriods {
		if candidate == s {
			return true
		}
	}
	return false
}

// Since returns the inclusive lower bound of the window ending at now.
// The zero time means no lower bound.
func (s SalesPeriod) Since(now time.Time) time.Time {
	switch s {
	case SalesPeriodMonth:
		return now.AddDate(0, 0, -30)
	case SalesPeriodQuarter:
		return now.AddDate(0, 0, -90)
	case SalesPeriodYear:
		return now.AddDate(0, 0, -365)
	default:
		return time.Time{}
	}
}

// ParseSalesPeriod converts raw input into a SalesPeriod. Empty input means all.
func ParseSalesPeriod(value string) (SalesPeriod, error) {
	if value == "" {
		return SalesPeriodAll, nil
	}
	for _, candidate := range validSalesPeriods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sales period %q", value)
}
