package workdays_test

import (
	"errors"
	"testing"
	"time"

	"github.com/p-n-ai/vocatrack/internal/workdays"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddWorkingDays(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		n     int
		want  time.Time
	}{
		{"friday plus one is monday", date(2025, 1, 10), 1, date(2025, 1, 13)},
		{"monday minus one is friday", date(2025, 1, 13), -1, date(2025, 1, 10)},
		{"zero is unchanged", date(2025, 1, 8), 0, date(2025, 1, 8)},
		{"zero on saturday is unchanged", date(2025, 1, 11), 0, date(2025, 1, 11)},
		{"monday plus four is friday", date(2025, 1, 6), 4, date(2025, 1, 10)},
		{"monday plus nine spans a weekend", date(2025, 1, 20), 9, date(2025, 1, 31)},
		{"saturday plus one is monday", date(2025, 1, 11), 1, date(2025, 1, 13)},
		{"sunday minus one is friday", date(2025, 1, 12), -1, date(2025, 1, 10)},
		{"wednesday minus five", date(2025, 1, 15), -5, date(2025, 1, 8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := workdays.AddWorkingDays(tt.start, tt.n)
			if !got.Equal(tt.want) {
				t.Errorf("AddWorkingDays(%s, %d) = %s, want %s",
					workdays.Format(tt.start), tt.n, workdays.Format(got), workdays.Format(tt.want))
			}
		})
	}
}

func TestNextMonday(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"from friday", date(2025, 1, 17), date(2025, 1, 20)},
		{"from monday is strictly after", date(2025, 1, 20), date(2025, 1, 27)},
		{"from sunday", date(2025, 1, 19), date(2025, 1, 20)},
		{"across month end", date(2025, 1, 29), date(2025, 2, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := workdays.NextMonday(tt.in); !got.Equal(tt.want) {
				t.Errorf("NextMonday(%s) = %s, want %s", workdays.Format(tt.in), workdays.Format(got), workdays.Format(tt.want))
			}
		})
	}
}

func TestNextWorkingDay(t *testing.T) {
	if got := workdays.NextWorkingDay(date(2025, 1, 11)); !got.Equal(date(2025, 1, 13)) {
		t.Errorf("NextWorkingDay(saturday) = %s, want 13/01/2025", workdays.Format(got))
	}
	if got := workdays.NextWorkingDay(date(2025, 1, 8)); !got.Equal(date(2025, 1, 8)) {
		t.Errorf("NextWorkingDay(wednesday) = %s, want unchanged", workdays.Format(got))
	}
}

func TestWorkingDaysBetween(t *testing.T) {
	if got := workdays.WorkingDaysBetween(date(2025, 1, 6), date(2025, 1, 17)); got != 10 {
		t.Errorf("WorkingDaysBetween() = %d, want 10", got)
	}
	if got := workdays.WorkingDaysBetween(date(2025, 1, 17), date(2025, 1, 6)); got != 0 {
		t.Errorf("WorkingDaysBetween(reversed) = %d, want 0", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Time
		wantErr bool
	}{
		{"valid", "06/01/2025", date(2025, 1, 6), false},
		{"leap day", "29/02/2024", date(2024, 2, 29), false},
		{"single digit day", "6/01/2025", time.Time{}, true},
		{"single digit month", "06/1/2025", time.Time{}, true},
		{"two digit year", "06/01/25", time.Time{}, true},
		{"iso format", "2025-01-06", time.Time{}, true},
		{"day out of range", "31/02/2025", time.Time{}, true},
		{"month out of range", "01/13/2025", time.Time{}, true},
		{"empty", "", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := workdays.Parse("startDate", tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				var dateErr *workdays.InvalidDateError
				if !errors.As(err, &dateErr) {
					t.Fatalf("error type = %T, want *InvalidDateError", err)
				}
				if dateErr.Field != "startDate" {
					t.Errorf("Field = %q, want startDate", dateErr.Field)
				}
				return
			}
			if !got.Equal(tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatRoundTrip(t *testing.T) {
	for _, s := range []string{"06/01/2025", "31/12/1999", "01/10/2030"} {
		d, err := workdays.Parse("date", s)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", s, err)
		}
		if got := workdays.Format(d); got != s {
			t.Errorf("Format(Parse(%q)) = %q", s, got)
		}
	}
}

func TestDisplayFormats(t *testing.T) {
	d := date(2025, 1, 6)
	if got := workdays.Short(d); got != "06 Jan" {
		t.Errorf("Short() = %q, want %q", got, "06 Jan")
	}
	if got := workdays.Long(d); got != "06 Jan 2025" {
		t.Errorf("Long() = %q, want %q", got, "06 Jan 2025")
	}
}

func TestToday_TruncatesTime(t *testing.T) {
	now := func() time.Time { return time.Date(2025, 3, 4, 17, 45, 0, 0, time.UTC) }
	if got := workdays.Today(now); !got.Equal(date(2025, 3, 4)) {
		t.Errorf("Today() = %v, want 2025-03-04", got)
	}
}

func TestDaysBetween(t *testing.T) {
	if got := workdays.DaysBetween(date(2025, 1, 1), date(2025, 1, 15)); got != 14 {
		t.Errorf("DaysBetween() = %d, want 14", got)
	}
	if got := workdays.DaysBetween(date(2025, 1, 15), date(2025, 1, 1)); got != -14 {
		t.Errorf("DaysBetween() = %d, want -14", got)
	}
}
