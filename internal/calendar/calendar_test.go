package calendar

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func TestAddBusinessDays(t *testing.T) {
	cases := []struct {
		name  string
		start time.Time
		n     int
		want  time.Time
	}{
		{"zero days", day(2024, time.June, 5), 0, day(2024, time.June, 5)},
		{"friday plus one lands monday", day(2024, time.June, 7), 1, day(2024, time.June, 10)},
		{"monday plus five skips one weekend", day(2024, time.June, 3), 5, day(2024, time.June, 10)},
		{"wednesday plus three crosses weekend", day(2024, time.June, 5), 3, day(2024, time.June, 10)},
		{"saturday start counts from monday", day(2024, time.June, 8), 1, day(2024, time.June, 10)},
		{"two full weeks", day(2024, time.June, 3), 10, day(2024, time.June, 17)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AddBusinessDays(tc.start, tc.n)
			if !got.Equal(tc.want) {
				t.Fatalf("AddBusinessDays(%s, %d) = %s, want %s",
					tc.start.Format("2006-01-02"), tc.n,
					got.Format("2006-01-02"), tc.want.Format("2006-01-02"))
			}
		})
	}
}

func TestAddBusinessDaysPreservesClock(t *testing.T) {
	start := time.Date(2024, time.June, 7, 16, 45, 30, 0, time.UTC)
	got := AddBusinessDays(start, 1)
	if got.Hour() != 16 || got.Minute() != 45 || got.Second() != 30 {
		t.Fatalf("time of day changed: %s", got)
	}
}

func TestWeekend(t *testing.T) {
	if Weekend(day(2024, time.June, 7)) {
		t.Error("friday is not a weekend")
	}
	if !Weekend(day(2024, time.June, 8)) {
		t.Error("saturday is a weekend")
	}
	if !Weekend(day(2024, time.June, 9)) {
		t.Error("sunday is a weekend")
	}
}

func TestDayAfter(t *testing.T) {
	lateMonday := time.Date(2024, time.June, 3, 23, 50, 0, 0, time.UTC)
	earlyTuesday := time.Date(2024, time.June, 4, 0, 10, 0, 0, time.UTC)

	if DayAfter(lateMonday, earlyTuesday) {
		t.Error("monday is not after tuesday")
	}
	if !DayAfter(earlyTuesday, lateMonday) {
		t.Error("tuesday is a later calendar day than monday")
	}
	if DayAfter(lateMonday, day(2024, time.June, 3)) {
		t.Error("same calendar day, different hours, is not after")
	}
}

func TestSameDayOrBefore(t *testing.T) {
	monday := day(2024, time.June, 3)
	tuesday := day(2024, time.June, 4)

	if !SameDayOrBefore(monday, monday.Add(10*time.Hour)) {
		t.Error("same calendar day qualifies")
	}
	if !SameDayOrBefore(monday, tuesday) {
		t.Error("earlier day qualifies")
	}
	if SameDayOrBefore(tuesday, monday) {
		t.Error("later day does not qualify")
	}
}
