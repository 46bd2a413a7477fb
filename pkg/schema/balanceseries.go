package schema

// BalanceSeriesDDL creates the Balance Series table and its pending-period
// accumulator.
var BalanceSeriesDDL = []Chunk{
	{
		Name:        "balance_series_table",
		ExistsQuery: "SELECT to_regclass('balance_series')",
		SQL: `
CREATE TABLE balance_series (
	network         TEXT NOT NULL,
	period_start_ms BIGINT NOT NULL,
	address         TEXT NOT NULL,
	asset           TEXT NOT NULL,
	period_end_ms   BIGINT NOT NULL,
	block_height    BIGINT NOT NULL,
	free            NUMERIC(78, 0) NOT NULL,
	reserved        NUMERIC(78, 0) NOT NULL,
	staked          NUMERIC(78, 0) NOT NULL,
	total           NUMERIC(78, 0) NOT NULL,
	delta_free      NUMERIC(78, 0) NOT NULL,
	delta_reserved  NUMERIC(78, 0) NOT NULL,
	delta_staked    NUMERIC(78, 0) NOT NULL,
	delta_total     NUMERIC(78, 0) NOT NULL,
	percent_change  DOUBLE PRECISION NOT NULL,
	written_at      TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (network, period_start_ms, address, asset)
)`,
	},
	{
		Name:        "balance_series_address_idx",
		ExistsQuery: "SELECT to_regclass('balance_series_address_idx')",
		SQL:         `CREATE INDEX balance_series_address_idx ON balance_series (network, address, asset, period_start_ms)`,
	},
	{
		Name:        "balance_series_pending_table",
		ExistsQuery: "SELECT to_regclass('balance_series_pending')",
		SQL: `
CREATE TABLE balance_series_pending (
	network         TEXT NOT NULL,
	period_start_ms BIGINT NOT NULL,
	address         TEXT NOT NULL,
	last_height     BIGINT NOT NULL DEFAULT 0,
	PRIMARY KEY (network, period_start_ms, address)
)`,
	},
}
