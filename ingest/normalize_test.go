package ingest

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNormalizeDatePrecedence(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	legacy := time.Date(2021, 3, 15, 0, 0, 0, 0, time.Local).UnixMilli()

	tests := []struct {
		name string
		date interface{}
		data interface{}
		want int64
	}{
		{"numeric date", json.Number("1700000000000"), nil, 1700000000000},
		{"float date", 1700000000000.0, nil, 1700000000000},
		{"numeric string date", "1700000000000", nil, 1700000000000},
		{"date wins over data", json.Number("1700000000000"), "15/03/2021", 1700000000000},
		{"legacy string data", nil, "15/03/2021", legacy},
		{"legacy numeric data", nil, json.Number("1600000000000"), 1600000000000},
		{"zero date falls through to data", json.Number("0"), "15/03/2021", legacy},
		{"non numeric date falls through", "yesterday", "15/03/2021", legacy},
		{"malformed data string uses now", nil, "2021-03-15", now.UnixMilli()},
		{"data with letters uses now", nil, "aa/bb/cccc", now.UnixMilli()},
		{"two digit year uses now", nil, "15/03/21", now.UnixMilli()},
		{"signed day uses now", nil, "+15/03/2021", now.UnixMilli()},
		{"negative parts use now", nil, "-1/0/99999", now.UnixMilli()},
		{"month out of range uses now", nil, "15/13/2021", now.UnixMilli()},
		{"single digit day and month", nil, "5/3/2021", time.Date(2021, 3, 5, 0, 0, 0, 0, time.Local).UnixMilli()},
		{"boolean data uses now", nil, true, now.UnixMilli()},
		{"absent uses now", nil, nil, now.UnixMilli()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDate(tt.date, tt.data, now)
			if got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestNormalizeDateUsesWallClock(t *testing.T) {
	before := time.Now().UnixMilli()
	got := NormalizeDate(nil, nil, time.Now())
	after := time.Now().UnixMilli()

	if got < before || got > after {
		t.Errorf("Expected date within [%d, %d], got %d", before, after, got)
	}
}

func TestParseLegacyDateIsLocalMidnight(t *testing.T) {
	got, ok := parseLegacyDate("01/12/2023")
	if !ok {
		t.Fatal("Expected 01/12/2023 to parse")
	}

	if got.Year() != 2023 || got.Month() != time.December || got.Day() != 1 {
		t.Errorf("Expected 2023-12-01, got %v", got)
	}
	if got.Hour() != 0 || got.Minute() != 0 || got.Location() != time.Local {
		t.Errorf("Expected local midnight, got %v", got)
	}
}
