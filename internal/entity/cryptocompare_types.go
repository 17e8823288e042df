package entity

import "github.com/shopspring/decimal"

// CryptoCompareHistoResponse is the v2 histohour/histoday payload.
type CryptoCompareHistoResponse struct {
	Response string                 `json:"Response"`
	Message  string                 `json:"Message"`
	Data     CryptoCompareHistoData `json:"Data"`
}

type CryptoCompareHistoData struct {
	Aggregated bool                 `json:"Aggregated"`
	TimeFrom   int64                `json:"TimeFrom"`
	TimeTo     int64                `json:"TimeTo"`
	Data       []CryptoCompareCandle `json:"Data"`
}

// CryptoCompareCandle is one OHLCV candle.
type CryptoCompareCandle struct {
	Time       int64           `json:"time"`
	Open       decimal.Decimal `json:"open"`
	High       decimal.Decimal `json:"high"`
	Low        decimal.Decimal `json:"low"`
	Close      decimal.Decimal `json:"close"`
	VolumeFrom decimal.Decimal `json:"volumefrom"`
	VolumeTo   decimal.Decimal `json:"volumeto"`
}
