package schema

// MoneyFlowDDL creates the money-flow graph's node/edge/label/relation/
// community tables.
var MoneyFlowDDL = []Chunk{
	{
		Name:        "money_flow_nodes_table",
		ExistsQuery: "SELECT to_regclass('money_flow_nodes')",
		SQL: `
CREATE TABLE money_flow_nodes (
	network              TEXT NOT NULL,
	address              TEXT NOT NULL,
	first_seen_at_ms     BIGINT NOT NULL,
	first_seen_height    BIGINT NOT NULL,
	last_seen_at_ms      BIGINT NOT NULL,
	last_seen_height     BIGINT NOT NULL,
	neighbor_count       BIGINT NOT NULL DEFAULT 0,
	unique_senders       BIGINT NOT NULL DEFAULT 0,
	unique_receivers     BIGINT NOT NULL DEFAULT 0,
	transfer_count       BIGINT NOT NULL DEFAULT 0,
	has_community        BOOLEAN NOT NULL DEFAULT false,
	community_id         BIGINT NOT NULL DEFAULT 0,
	community_page_rank  DOUBLE PRECISION NOT NULL DEFAULT 0,
	embedding_0          DOUBLE PRECISION NOT NULL DEFAULT 0,
	embedding_1          DOUBLE PRECISION NOT NULL DEFAULT 0,
	embedding_2          DOUBLE PRECISION NOT NULL DEFAULT 0,
	embedding_3          DOUBLE PRECISION NOT NULL DEFAULT 0,
	embedding_4          DOUBLE PRECISION NOT NULL DEFAULT 0,
	embedding_5          DOUBLE PRECISION NOT NULL DEFAULT 0,
	PRIMARY KEY (network, address)
)`,
	},
	{
		Name:        "money_flow_nodes_community_idx",
		ExistsQuery: "SELECT to_regclass('money_flow_nodes_community_idx')",
		SQL:         `CREATE INDEX money_flow_nodes_community_idx ON money_flow_nodes (network, community_id)`,
	},
	{
		Name:        "money_flow_edges_table",
		ExistsQuery: "SELECT to_regclass('money_flow_edges')",
		SQL: `
CREATE TABLE money_flow_edges (
	network           TEXT NOT NULL,
	from_address      TEXT NOT NULL,
	to_address        TEXT NOT NULL,
	asset             TEXT NOT NULL,
	volume            NUMERIC(78, 0) NOT NULL,
	transfer_count    BIGINT NOT NULL,
	first_seen_at_ms  BIGINT NOT NULL,
	first_seen_height BIGINT NOT NULL,
	last_seen_at_ms   BIGINT NOT NULL,
	last_seen_height  BIGINT NOT NULL,
	PRIMARY KEY (network, from_address, to_address, asset)
)`,
	},
	{
		Name:        "money_flow_labels_table",
		ExistsQuery: "SELECT to_regclass('money_flow_labels')",
		SQL: `
CREATE TABLE money_flow_labels (
	network TEXT NOT NULL,
	address TEXT NOT NULL,
	label   TEXT NOT NULL,
	PRIMARY KEY (network, address, label)
)`,
	},
	{
		Name:        "money_flow_relations_table",
		ExistsQuery: "SELECT to_regclass('money_flow_relations')",
		SQL: `
CREATE TABLE money_flow_relations (
	network      TEXT NOT NULL,
	from_address TEXT NOT NULL,
	to_address   TEXT NOT NULL,
	kind         TEXT NOT NULL,
	PRIMARY KEY (network, from_address, to_address, kind)
)`,
	},
	{
		Name:        "money_flow_communities_table",
		ExistsQuery: "SELECT to_regclass('money_flow_communities')",
		SQL: `
CREATE TABLE money_flow_communities (
	network      TEXT NOT NULL,
	community_id BIGINT NOT NULL,
	PRIMARY KEY (network, community_id)
)`,
	},
}
