package snapshots

// Snapshot is a point-in-time capture of the portfolio report. The
// position detail travels in Payload as msgpack and is decoded only
// when a single snapshot is fetched.
type Snapshot struct {
	ID         string  `json:"id"`
	TakenAt    int64   `json:"taken_at"`
	TotalValue float64 `json:"total_value"`
	TotalCost  float64 `json:"total_cost"`
	TotalPL    float64 `json:"total_pl"`
	Partial    bool    `json:"partial"`
	Payload    []byte  `json:"-"`
}

// Payload is the encoded position detail of one snapshot
type Payload struct {
	AsOf           string     `msgpack:"as_of" json:"as_of"`
	Positions      []Position `msgpack:"positions" json:"positions"`
	Principal      float64    `msgpack:"principal" json:"principal"`
	Balance        float64    `msgpack:"balance" json:"balance"`
	MissingSymbols []string   `msgpack:"missing_symbols" json:"missing_symbols"`
}

// Position is one holding lot as it was valued at capture time
type Position struct {
	AccountID    int64    `msgpack:"account_id" json:"account_id"`
	AccountName  string   `msgpack:"account_name" json:"account_name"`
	Symbol       string   `msgpack:"symbol" json:"symbol"`
	Shares       float64  `msgpack:"shares" json:"shares"`
	CostBasis    float64  `msgpack:"cost_basis" json:"cost_basis"`
	Priced       bool     `msgpack:"priced" json:"priced"`
	MarketValue  *float64 `msgpack:"market_value" json:"market_value"`
	UnrealizedPL *float64 `msgpack:"unrealized_pl" json:"unrealized_pl"`
}
