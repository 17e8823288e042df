package entity

// HistoryPoint — одна точка истории баланса, обогащенная ценой.
// ValueInFiat и UnitPrice равны nil, если цены на этот момент нет.
type HistoryPoint struct {
	Date        string    `json:"date"`
	Timestamp   int64     `json:"timestamp"`
	Balance     string    `json:"balance"`
	Change      string    `json:"change"`
	Direction   Direction `json:"type"`
	TxHash      string    `json:"txHash"`
	ValueInFiat *string   `json:"valueInFiat"`
	UnitPrice   *string   `json:"unitPrice"`
}

// EnrichedHistory is the response body of the balance-history endpoint.
type EnrichedHistory struct {
	Address            string         `json:"address"`
	Network            string         `json:"network"`
	Symbol             string         `json:"symbol"`
	Currency           string         `json:"currency"`
	CurrentBalance     string         `json:"currentBalance"`
	CurrentPrice       string         `json:"currentPrice"`
	CurrentValueInFiat string         `json:"currentValueInFiat"`
	History            []HistoryPoint `json:"history"`
}
