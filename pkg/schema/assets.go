package schema

// AssetsDDL creates the Asset Dictionary table.
var AssetsDDL = []Chunk{
	{
		Name:        "assets_table",
		ExistsQuery: "SELECT to_regclass('assets')",
		SQL: `
CREATE TABLE assets (
	network           TEXT NOT NULL,
	contract          TEXT NOT NULL,
	symbol            TEXT NOT NULL,
	display_name      TEXT NOT NULL DEFAULT '',
	decimals          INT NOT NULL DEFAULT 0,
	status            TEXT NOT NULL DEFAULT 'unknown',
	first_seen_height BIGINT NOT NULL,
	first_seen_at     TIMESTAMPTZ NOT NULL,
	last_updated_at   TIMESTAMPTZ NOT NULL,
	updated_by        TEXT NOT NULL DEFAULT '',
	notes             TEXT NOT NULL DEFAULT '',
	version           BIGINT NOT NULL DEFAULT 1,
	PRIMARY KEY (network, contract)
)`,
	},
	{
		Name:        "assets_status_idx",
		ExistsQuery: "SELECT to_regclass('assets_status_idx')",
		SQL:         `CREATE INDEX assets_status_idx ON assets (network, status)`,
	},
}
