package transfers

// Row is one Balance Transfers record, keyed by (ExtrinsicID, EventIdx,
// Asset).
type Row struct {
	ExtrinsicID   string
	EventIdx      uint32
	Network       string
	BlockHeight   uint32
	BlockTimeMs   int64
	From          string
	To            string
	Asset         string
	AssetContract string
	Amount        string // fixed-point, 18-digit scale
	Fee           string
	Version       int64
}
