package clock

import (
	"testing"
	"time"
)

func TestLocalDayCrossesMidnightPerZone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatal(err)
	}

	// 23:30 UTC on the 30th is already the 31st in Tokyo.
	instant := time.Date(2026, 8, 30, 23, 30, 0, 0, time.UTC)

	utcDay := LocalDay(instant, time.UTC)
	tokyoDay := LocalDay(instant, tokyo)

	if utcDay.Day() != 30 {
		t.Errorf("expected UTC day 30, got %d", utcDay.Day())
	}
	if tokyoDay.Day() != 31 {
		t.Errorf("expected Tokyo day 31, got %d", tokyoDay.Day())
	}
	if tokyoDay.Location() != time.UTC {
		t.Error("normalized days must be in UTC")
	}
}

func TestLocalDayEqualAcrossInstantsOfSameDay(t *testing.T) {
	morning := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 8, 31, 22, 0, 0, 0, time.UTC)

	if !LocalDay(morning, time.UTC).Equal(LocalDay(evening, time.UTC)) {
		t.Error("two instants of the same day must map to the same key")
	}
}

func TestStartOfLocalDay(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatal(err)
	}

	instant := time.Date(2026, 8, 31, 5, 0, 0, 0, tokyo)
	start := StartOfLocalDay(instant, tokyo)

	want := time.Date(2026, 8, 31, 0, 0, 0, 0, tokyo)
	if !start.Equal(want) {
		t.Errorf("expected %v, got %v", want, start)
	}
}
