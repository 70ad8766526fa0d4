package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.January, 31},
		{2024, time.February, 29}, // leap year
		{2023, time.February, 28},
		{2000, time.February, 29}, // divisible by 400
		{1900, time.February, 28}, // divisible by 100 only
		{2024, time.April, 30},
		{2024, time.June, 30},
		{2024, time.September, 30},
		{2024, time.November, 30},
		{2024, time.December, 31},
		{2025, time.July, 31},
		{2025, time.August, 31},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d-%02d", tt.year, tt.month), func(t *testing.T) {
			for _, day := range []int{1, 15, 28} {
				ref := time.Date(tt.year, tt.month, day, 13, 30, 0, 0, time.UTC)
				if got := DaysInMonth(ref); got != tt.want {
					t.Fatalf("DaysInMonth(%s) = %d, want %d", ref.Format(DateLayout), got, tt.want)
				}
			}
		})
	}
}

func TestDaysInMonthMatchesCalendar(t *testing.T) {
	for year := 1999; year <= 2030; year++ {
		for m := time.January; m <= time.December; m++ {
			first := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
			want := int(first.AddDate(0, 1, 0).Sub(first).Hours() / 24)
			if got := DaysInMonth(first); got != want {
				t.Fatalf("%d-%02d: got %d, want %d", year, m, got, want)
			}
		}
	}
}

func TestDailyLimit(t *testing.T) {
	jan := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if got := DailyLimit(Money{Cents: 310000}, jan); !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("DailyLimit(3100, Jan) = %s, want 100", got)
	}

	for _, ref := range []time.Time{jan, time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)} {
		if got := DailyLimit(Money{}, ref); !got.IsZero() {
			t.Fatalf("zero monthly limit should give zero, got %s", got)
		}
	}
}

func TestDailyLimitTimesDaysIsMonthly(t *testing.T) {
	tolerance := decimal.New(1, -8)
	amounts := []int64{1, 99, 100000, 123456, 310000, 999999999}
	for _, cents := range amounts {
		for m := time.January; m <= time.December; m++ {
			ref := time.Date(2024, m, 10, 0, 0, 0, 0, time.UTC)
			monthly := Money{Cents: cents}
			back := DailyLimit(monthly, ref).Mul(decimal.NewFromInt(int64(DaysInMonth(ref))))
			if back.Sub(monthly.Decimal()).Abs().GreaterThan(tolerance) {
				t.Fatalf("%d cents in %s: daily*days = %s", cents, m, back)
			}
		}
	}
}

func TestNewBudget(t *testing.T) {
	ref := time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC)
	b := NewBudget(Money{Cents: 300000}, ref)
	if b.MonthlyLimit.Cents != 300000 {
		t.Fatalf("monthly limit = %d", b.MonthlyLimit.Cents)
	}
	if !b.DailyLimit.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("daily limit = %s, want 100", b.DailyLimit)
	}
	if !b.SavedAt.Equal(ref) {
		t.Fatalf("saved at = %v", b.SavedAt)
	}
}
