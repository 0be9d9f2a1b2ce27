package scheduler

import (
	"testing"
	"time"
)

func TestNextAfter(t *testing.T) {
	from := time.Date(2025, time.March, 1, 10, 30, 0, 0, time.UTC)

	// Каждый час в нулевую минуту
	next, err := NextAfter("0 * * * *", from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, time.March, 1, 11, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %s, got %s", want, next)
	}

	// Ежедневно в полночь
	next, err = NextAfter("0 0 * * *", from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %s, got %s", want, next)
	}
}

func TestNextAfter_Invalid(t *testing.T) {
	if _, err := NextAfter("not a cron", time.Now()); err == nil {
		t.Error("expected error for invalid expression")
	}
}

func TestValidateCronExpr(t *testing.T) {
	valid := []string{
		"* * * * *",
		"0 0 * * *",
		"*/15 * * * *",
		"30 9 * * 1-5",
	}
	for _, expr := range valid {
		if err := ValidateCronExpr(expr); err != nil {
			t.Errorf("%q should be valid: %v", expr, err)
		}
	}

	invalid := []string{
		"",
		"* * * *",        // мало полей
		"61 * * * *",     // минута вне диапазона
		"* * * * * * *",  // много полей
	}
	for _, expr := range invalid {
		if err := ValidateCronExpr(expr); err == nil {
			t.Errorf("%q should be invalid", expr)
		}
	}
}

func TestNew_RejectsInvalidSchedule(t *testing.T) {
	if _, err := New(Config{CronExpr: "bad"}); err == nil {
		t.Error("expected error for invalid schedule")
	}
	if _, err := New(Config{CronExpr: "*/5 * * * *"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
