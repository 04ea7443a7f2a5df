package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/viktsys/b3history/models"
)

var ErrNotArray = errors.New("request body must be a JSON array of records")

// RawRecord is one record-like object as received on the wire
type RawRecord map[string]interface{}

// DecodeBatch reads a JSON array of record-like objects.
// Elements that are not objects are kept as empty records, matching the lenient coercion of fields.
func DecodeBatch(r io.Reader) ([]RawRecord, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotArray
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var items []interface{}
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	records := make([]RawRecord, 0, len(items))
	for _, item := range items {
		obj, _ := item.(map[string]interface{})
		records = append(records, RawRecord(obj))
	}
	return records, nil
}

// ToStockHistory coerces a raw record into a row; malformed values become NULL
func ToStockHistory(raw RawRecord, now time.Time) models.StockHistory {
	return models.StockHistory{
		Ticker:                    NormalizeTicker(raw["ticker"]),
		Date:                      NormalizeDate(raw["date"], raw["data"], now),
		OpeningPrice:              floatField(raw["preco_abertura"]),
		ClosingPrice:              floatField(raw["preco_fechamento"]),
		HighPrice:                 floatField(raw["preco_maximo"]),
		LowPrice:                  floatField(raw["preco_minimo"]),
		AveragePrice:              floatField(raw["preco_medio"]),
		TradedQuantity:            intField(raw["quantidade_negociada"]),
		TradeCount:                intField(raw["quantidade_negocios"]),
		TradedVolume:              floatField(raw["volume_negociado"]),
		AdjustmentFactor:          floatField(raw["fator_ajuste"]),
		AdjustedClosingPrice:      floatField(raw["preco_fechamento_ajustado"]),
		SplitAdjustmentFactor:     floatField(raw["fator_ajuste_desdobramentos"]),
		SplitAdjustedClosingPrice: floatField(raw["preco_fechamento_ajustado_desdobramentos"]),
	}
}

// ToStockHistories converts a whole batch, stamping date-less records with the same instant
func ToStockHistories(raws []RawRecord, now time.Time) []models.StockHistory {
	rows := make([]models.StockHistory, 0, len(raws))
	for _, raw := range raws {
		rows = append(rows, ToStockHistory(raw, now))
	}
	return rows
}

// NormalizeTicker trims and upper-cases a ticker; non-strings become empty
func NormalizeTicker(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(s))
}

func floatField(v interface{}) *float64 {
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	}

	f, ok := number(v)
	if !ok {
		return nil
	}
	return &f
}

func intField(v interface{}) *int64 {
	f := floatField(v)
	if f == nil {
		return nil
	}
	n := int64(*f)
	return &n
}
