package domain

import (
	"fmt"
	"time"
)

// DateLayout is the YYYY-MM-DD layout used for every date in the records
const DateLayout = "2006-01-02"

// MaxReportAge bounds how far in the past a report date may be
const MaxReportAge = 365 * 24 * time.Hour

// ParseReportDate parses a YYYY-MM-DD date in local time.
func ParseReportDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, NewInputError(fmt.Sprintf("Not a valid date: '%s'.", s))
	}
	return t, nil
}

// CheckReportDate rejects dates after now or more than a year before now.
func CheckReportDate(date, now time.Time) error {
	if date.After(now) {
		return NewInputError("Selected_date is in the future, please check value entered.")
	}
	if date.Before(now.Add(-MaxReportAge)) {
		return NewInputError("Selected_date is in the distant past, please check value entered.")
	}
	return nil
}
