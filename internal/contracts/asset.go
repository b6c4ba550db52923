package contracts

// Asset identifies a digital asset under evaluation
// ⭐ SSOT: 자산 식별자는 이 타입으로만 전달
type Asset struct {
	ID     string `json:"id"`     // canonical id, e.g. "bitcoin"
	Symbol string `json:"symbol"` // market symbol, e.g. "BTCUSDT"
}

// Valid reports whether the asset carries the minimum identity
func (a Asset) Valid() bool {
	return a.ID != "" && a.Symbol != ""
}
