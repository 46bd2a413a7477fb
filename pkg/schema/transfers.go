package schema

// TransfersDDL creates the Balance Transfers table.
var TransfersDDL = []Chunk{
	{
		Name:        "transfers_table",
		ExistsQuery: "SELECT to_regclass('transfers')",
		SQL: `
CREATE TABLE transfers (
	extrinsic_id    TEXT NOT NULL,
	event_idx       INT NOT NULL,
	network         TEXT NOT NULL,
	block_height    BIGINT NOT NULL,
	block_time_ms   BIGINT NOT NULL,
	from_address    TEXT NOT NULL,
	to_address      TEXT NOT NULL,
	asset           TEXT NOT NULL,
	asset_contract  TEXT NOT NULL,
	amount          NUMERIC(78, 0) NOT NULL,
	fee             NUMERIC(78, 0) NOT NULL,
	version         BIGINT NOT NULL DEFAULT 1,
	PRIMARY KEY (extrinsic_id, event_idx, asset)
)`,
	},
	{
		Name:        "transfers_from_idx",
		ExistsQuery: "SELECT to_regclass('transfers_from_idx')",
		SQL:         `CREATE INDEX transfers_from_idx ON transfers (network, from_address, block_height)`,
	},
	{
		Name:        "transfers_to_idx",
		ExistsQuery: "SELECT to_regclass('transfers_to_idx')",
		SQL:         `CREATE INDEX transfers_to_idx ON transfers (network, to_address, block_height)`,
	},
}
