// Package flow implements the cycle date arithmetic.
package flow

import "time"

// Fertile window offsets around ovulation, in days. The window ends one day
// after ovulation at every call site.
const (
	fertileWindowBefore = 5
	fertileWindowAfter  = 1
	ovulationOffset     = 14 // days before the next period
)

// CycleForecast is the derived cycle schedule.
type CycleForecast struct {
	NextPeriod   time.Time
	Ovulation    time.Time
	FertileStart time.Time
	FertileEnd   time.Time
}

// ForecastCycle computes the next period, ovulation day and fertile window
// from the last period start date and the cycle length in days.
func ForecastCycle(lastPeriod time.Time, cycleLength int) CycleForecast {
	next := lastPeriod.AddDate(0, 0, cycleLength)
	ovulation := lastPeriod.AddDate(0, 0, cycleLength-ovulationOffset)
	return CycleForecast{
		NextPeriod:   next,
		Ovulation:    ovulation,
		FertileStart: ovulation.AddDate(0, 0, -fertileWindowBefore),
		FertileEnd:   ovulation.AddDate(0, 0, fertileWindowAfter),
	}
}
