package scheduler

import (
	"fmt"
	"time"
)

// MarketSchedule is the regular session in US Eastern Time
type MarketSchedule struct {
	OpenHour  int
	OpenMin   int
	CloseHour int
	CloseMin  int
}

// DefaultMarketSchedule returns the NYSE/NASDAQ regular session
func DefaultMarketSchedule() MarketSchedule {
	return MarketSchedule{
		OpenHour:  9,
		OpenMin:   30,
		CloseHour: 16,
		CloseMin:  0,
	}
}

// MarketStatus describes the session at one instant
type MarketStatus struct {
	IsOpen        bool          `json:"is_open"`
	CurrentTimeET time.Time     `json:"current_time_et"`
	TimeToOpen    time.Duration `json:"time_to_open,omitempty"`
	TimeToClose   time.Duration `json:"time_to_close,omitempty"`
	Reason        string        `json:"reason"` // open, weekend, holiday, pre-market, after-hours
}

// ETLocation returns US Eastern Time
func ETLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// TradingDay reports whether the exchange trades on t's Eastern date
func TradingDay(t time.Time) bool {
	et := t.In(ETLocation())
	if wd := et.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !IsUSHoliday(et)
}

// GetMarketStatus returns the session status at now
func GetMarketStatus(schedule MarketSchedule, now time.Time) MarketStatus {
	loc := ETLocation()
	now = now.In(loc)
	status := MarketStatus{CurrentTimeET: now}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	openAt := func(day time.Time) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), schedule.OpenHour, schedule.OpenMin, 0, 0, loc)
	}
	closeTime := time.Date(now.Year(), now.Month(), now.Day(), schedule.CloseHour, schedule.CloseMin, 0, 0, loc)

	if !TradingDay(now) {
		status.Reason = "holiday"
		if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
			status.Reason = "weekend"
		}
		status.TimeToOpen = openAt(nextTradingDay(today)).Sub(now)
		return status
	}

	switch {
	case now.Before(openAt(today)):
		status.Reason = "pre-market"
		status.TimeToOpen = openAt(today).Sub(now)
	case !now.Before(closeTime):
		status.Reason = "after-hours"
		status.TimeToOpen = openAt(nextTradingDay(today)).Sub(now)
	default:
		status.IsOpen = true
		status.Reason = "open"
		status.TimeToClose = closeTime.Sub(now)
	}
	return status
}

func nextTradingDay(day time.Time) time.Time {
	next := day.AddDate(0, 0, 1)
	for !TradingDay(next.Add(12 * time.Hour)) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// FormatDuration renders d as hours and minutes
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "0s"
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// Full-day NYSE closures
var usHolidays = map[string]bool{
	"2024-01-01": true, "2024-01-15": true, "2024-02-19": true, "2024-03-29": true,
	"2024-05-27": true, "2024-06-19": true, "2024-07-04": true, "2024-09-02": true,
	"2024-11-28": true, "2024-12-25": true,

	"2025-01-01": true, "2025-01-09": true, "2025-01-20": true, "2025-02-17": true,
	"2025-04-18": true, "2025-05-26": true, "2025-06-19": true, "2025-07-04": true,
	"2025-09-01": true, "2025-11-27": true, "2025-12-25": true,

	"2026-01-01": true, "2026-01-19": true, "2026-02-16": true, "2026-04-03": true,
	"2026-05-25": true, "2026-06-19": true, "2026-07-03": true, "2026-09-07": true,
	"2026-11-26": true, "2026-12-25": true,

	"2027-01-01": true, "2027-01-18": true, "2027-02-15": true, "2027-03-26": true,
	"2027-05-31": true, "2027-06-18": true, "2027-07-05": true, "2027-09-06": true,
	"2027-11-25": true, "2027-12-24": true,
}

// IsUSHoliday reports whether t's date is an exchange holiday
func IsUSHoliday(t time.Time) bool {
	return usHolidays[t.Format("2006-01-02")]
}
