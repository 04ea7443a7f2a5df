package models

import (
	"encoding/json"
	"testing"
)

func TestStockHistoryModel(t *testing.T) {
	price := 25.50
	history := StockHistory{
		Ticker:       "PETR4",
		Date:         1700000000000,
		ClosingPrice: &price,
	}

	if history.Ticker != "PETR4" {
		t.Errorf("Expected ticker PETR4, got %s", history.Ticker)
	}

	if *history.ClosingPrice != 25.50 {
		t.Errorf("Expected price 25.50, got %f", *history.ClosingPrice)
	}

	if history.TableName() != "stocks_history" {
		t.Errorf("Expected table stocks_history, got %s", history.TableName())
	}
}

func TestStockHistoryJSONKeepsNulls(t *testing.T) {
	history := StockHistory{ID: 1, Ticker: "VALE3", Date: 100}

	raw, err := json.Marshal(history)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	for _, column := range ValueColumns() {
		value, ok := decoded[column]
		if !ok {
			t.Errorf("Expected key %s in JSON output", column)
			continue
		}
		if value != nil {
			t.Errorf("Expected %s to be null, got %v", column, value)
		}
	}

	if decoded["date"] != float64(100) {
		t.Errorf("Expected numeric date 100, got %v", decoded["date"])
	}
}

func TestValueColumnsExcludeKey(t *testing.T) {
	columns := ValueColumns()
	if len(columns) != 12 {
		t.Fatalf("Expected 12 value columns, got %d", len(columns))
	}
	for _, column := range columns {
		if column == "ticker" || column == "date" || column == "id" {
			t.Errorf("Key column %s must not be overwritten on upsert", column)
		}
	}
}
