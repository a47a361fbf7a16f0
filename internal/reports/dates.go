package reports

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDateParse indicates a Date cell did not match any accepted layout.
// There is no fallback parsing strategy beyond this fixed list.
var ErrDateParse = errors.New("unrecognized date format")

// dateLayouts are the layouts uploaded Date cells may use. Spreadsheet
// readers surface dates as display strings, so both ISO and the common
// Excel display formats are accepted.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01-02-06",
	"1/2/06",
	"1/2/2006",
	"01/02/2006",
	"2-Jan-06",
	"02-Jan-06",
	"2 January 2006",
}

// normalizeMonth parses a Date cell and reduces it to calendar-month
// granularity, formatted as YYYY-MM so lexical order is chronological.
func normalizeMonth(value string) (string, error) {
	s := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01"), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrDateParse, value)
}
