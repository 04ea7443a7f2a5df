package models

// StockHistory representa o histórico diário de um ticker da B3
type StockHistory struct {
	ID                        uint     `gorm:"primaryKey" json:"id"`
	Ticker                    string   `gorm:"not null;size:20;uniqueIndex:uidx_stocks_history_ticker_date" json:"ticker"`
	Date                      int64    `gorm:"not null;uniqueIndex:uidx_stocks_history_ticker_date" json:"date"`
	OpeningPrice              *float64 `gorm:"column:preco_abertura" json:"preco_abertura"`
	ClosingPrice              *float64 `gorm:"column:preco_fechamento" json:"preco_fechamento"`
	HighPrice                 *float64 `gorm:"column:preco_maximo" json:"preco_maximo"`
	LowPrice                  *float64 `gorm:"column:preco_minimo" json:"preco_minimo"`
	AveragePrice              *float64 `gorm:"column:preco_medio" json:"preco_medio"`
	TradedQuantity            *int64   `gorm:"column:quantidade_negociada" json:"quantidade_negociada"`
	TradeCount                *int64   `gorm:"column:quantidade_negocios" json:"quantidade_negocios"`
	TradedVolume              *float64 `gorm:"column:volume_negociado" json:"volume_negociado"`
	AdjustmentFactor          *float64 `gorm:"column:fator_ajuste" json:"fator_ajuste"`
	AdjustedClosingPrice      *float64 `gorm:"column:preco_fechamento_ajustado" json:"preco_fechamento_ajustado"`
	SplitAdjustmentFactor     *float64 `gorm:"column:fator_ajuste_desdobramentos" json:"fator_ajuste_desdobramentos"`
	SplitAdjustedClosingPrice *float64 `gorm:"column:preco_fechamento_ajustado_desdobramentos" json:"preco_fechamento_ajustado_desdobramentos"`
}

func (StockHistory) TableName() string {
	return "stocks_history"
}

// ValueColumns lists every non-key column overwritten on upsert.
func ValueColumns() []string {
	return []string{
		"preco_abertura",
		"preco_fechamento",
		"preco_maximo",
		"preco_minimo",
		"preco_medio",
		"quantidade_negociada",
		"quantidade_negocios",
		"volume_negociado",
		"fator_ajuste",
		"preco_fechamento_ajustado",
		"fator_ajuste_desdobramentos",
		"preco_fechamento_ajustado_desdobramentos",
	}
}

// MessageResponse é a resposta das operações de escrita
type MessageResponse struct {
	Message string `json:"message"`
	Count   int64  `json:"count"`
}

// ChangesResponse é a resposta das operações de remoção
type ChangesResponse struct {
	Message string `json:"message"`
	Changes int64  `json:"changes"`
}

// ErrorResponse carrega a mensagem de erro devolvida ao cliente
type ErrorResponse struct {
	Error string `json:"error"`
}
