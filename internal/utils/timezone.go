package utils

import (
	"strconv"
	"time"
)

func loadLocation(tz string) *time.Location {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// StartOfDayInTimezone is the midnight boundary used by the retention sweep:
// rows strictly before it belong to a previous day.
func StartOfDayInTimezone(tz string, at time.Time) time.Time {
	loc := loadLocation(tz)
	local := at.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

var thaiMonths = []string{
	"มกราคม", "กุมภาพันธ์", "มีนาคม", "เมษายน", "พฤษภาคม", "มิถุนายน",
	"กรกฎาคม", "สิงหาคม", "กันยายน", "ตุลาคม", "พฤศจิกายน", "ธันวาคม",
}

// FormatThaiDate renders a date the way the staff dashboard displays it
// (Buddhist-era year, Thai month names).
func FormatThaiDate(tz string, at time.Time) string {
	local := at.In(loadLocation(tz))
	return strconv.Itoa(local.Day()) + " " + thaiMonths[local.Month()-1] + " " + strconv.Itoa(local.Year()+543)
}
