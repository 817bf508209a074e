package model

// TxRecord is a journal entry for a settled or polled transaction.
type TxRecord struct {
	Network         string  `json:"network"`
	Signature       string  `json:"signature"`
	Operation       string  `json:"operation"`
	Status          int     `json:"status"`
	Fee             *string `json:"fee,omitempty"`
	Error           string  `json:"error,omitempty"`
	Checkpoint      *uint64 `json:"checkpoint,omitempty"`
	PoolAddress     string  `json:"pool_address,omitempty"`
	PositionAddress string  `json:"position_address,omitempty"`
	Wallet          string  `json:"wallet,omitempty"`
	RecordedAt      string  `json:"recorded_at"`
}
