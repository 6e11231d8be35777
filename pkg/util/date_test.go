package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2025-03-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeBareDate(t *testing.T) {
	got, ok := ParseTime("2025-03-10")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Year() != 2025 || got.Month() != time.March || got.Day() != 10 {
		t.Fatalf("unexpected date %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2025, 3, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2025, 3, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestStartOfWeek(t *testing.T) {
	// 2025-03-12 is a Wednesday.
	wed := time.Date(2025, 3, 12, 15, 4, 5, 0, time.UTC)
	got := StartOfWeek(wed)
	if got.Weekday() != time.Monday || got.Day() != 10 || got.Hour() != 0 {
		t.Fatalf("unexpected week start %v", got)
	}
}

func TestAlignFromTo(t *testing.T) {
	from := time.Date(2025, 3, 12, 15, 4, 5, 0, time.UTC)
	to := time.Date(2025, 3, 20, 8, 30, 0, 0, time.UTC)

	gotFrom, gotTo := AlignFromTo(from, to, "day")
	if gotFrom.Hour() != 0 || gotFrom.Day() != 12 || gotTo.Hour() != 0 || gotTo.Day() != 20 {
		t.Fatalf("day alignment got %v, %v", gotFrom, gotTo)
	}

	gotFrom, gotTo = AlignFromTo(from, to, "week")
	if gotFrom.Weekday() != time.Monday || gotFrom.Day() != 10 || gotTo.Weekday() != time.Monday || gotTo.Day() != 17 {
		t.Fatalf("week alignment got %v, %v", gotFrom, gotTo)
	}

	gotFrom, gotTo = AlignFromTo(from, to, "month")
	if gotFrom.Day() != 1 || gotTo.Day() != 1 || gotFrom.Month() != time.March {
		t.Fatalf("month alignment got %v, %v", gotFrom, gotTo)
	}
}

func TestParseIntList(t *testing.T) {
	got := ParseIntList(" 1, 2 ,x,, 9")
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 9 {
		t.Fatalf("unexpected list %v", got)
	}
}
