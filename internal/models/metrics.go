package models

// SymbolMetrics holds summary statistics for one successfully processed symbol.
type SymbolMetrics struct {
	AvgVolume            float64 `json:"avg_volume"`
	AvgPrice             float64 `json:"avg_price"`
	AnnualizedVolatility float64 `json:"annualized_volatility"`
	MaxPrice             float64 `json:"max_price"`
	MinPrice             float64 `json:"min_price"`
	PriceRange           float64 `json:"price_range"`
	TradingDays          int     `json:"trading_days"`
}
