package moneyflow

import (
	"context"
	"database/sql"
	"math/big"

	"github.com/chainswarm/indexer/pkg/database"
	"github.com/chainswarm/indexer/pkg/retry"
)

// Repository persists the money-flow graph over Postgres: one row per
// node, one row per aggregated edge, plus small label/relation side
// tables.
type Repository struct {
	db *database.Client
}

// NewRepository builds a Repository.
func NewRepository(db *database.Client) *Repository {
	return &Repository{db: db}
}

// TouchNode upserts a node's first/last-activity fields. On first touch
// (isNew == true) the caller must still account for the current event's
// transfer: first/last activity are seeded to tsMs/height and every
// counter starts at 0, with the caller incrementing transfer_count right
// after TouchNode.
func (r *Repository) TouchNode(ctx context.Context, network, address string, tsMs int64, height uint32) (isNew bool, err error) {
	var exists bool
	row := r.db.DB().QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM money_flow_nodes WHERE network = $1 AND address = $2)`, network, address)
	if err := row.Scan(&exists); err != nil {
		return false, retry.New(retry.StorageTransient, "moneyflow.TouchNode", err)
	}
	if exists {
		_, err := r.db.DB().ExecContext(ctx, `
			UPDATE money_flow_nodes SET
				last_seen_at_ms = GREATEST(last_seen_at_ms, $3),
				last_seen_height = GREATEST(last_seen_height, $4)
			WHERE network = $1 AND address = $2
		`, network, address, tsMs, height)
		if err != nil {
			return false, retry.New(retry.StorageTransient, "moneyflow.TouchNode", err)
		}
		return false, nil
	}

	_, err = r.db.DB().ExecContext(ctx, `
		INSERT INTO money_flow_nodes (network, address, first_seen_at_ms, first_seen_height, last_seen_at_ms, last_seen_height,
			neighbor_count, unique_senders, unique_receivers, transfer_count, has_community, community_id, community_page_rank)
		VALUES ($1,$2,$3,$4,$3,$4,0,0,0,0,false,0,0)
		ON CONFLICT (network, address) DO NOTHING
	`, network, address, tsMs, height)
	if err != nil {
		return false, retry.New(retry.StorageTransient, "moneyflow.TouchNode", err)
	}
	return true, nil
}

// IncrementTransferCount bumps a node's transfer_count by one, keeping
// it equal to the number of events the node participates in.
func (r *Repository) IncrementTransferCount(ctx context.Context, network, address string) error {
	_, err := r.db.DB().ExecContext(ctx, `
		UPDATE money_flow_nodes SET transfer_count = transfer_count + 1 WHERE network = $1 AND address = $2
	`, network, address)
	if err != nil {
		return retry.New(retry.StorageTransient, "moneyflow.IncrementTransferCount", err)
	}
	return nil
}

// IncrementNeighborCount bumps a node's neighbor_count by one, called
// only when a previously-unconnected counterparty pair gains its first
// edge.
func (r *Repository) IncrementNeighborCount(ctx context.Context, network, address string) error {
	_, err := r.db.DB().ExecContext(ctx, `
		UPDATE money_flow_nodes SET neighbor_count = neighbor_count + 1 WHERE network = $1 AND address = $2
	`, network, address)
	if err != nil {
		return retry.New(retry.StorageTransient, "moneyflow.IncrementNeighborCount", err)
	}
	return nil
}

// IncrementUniqueSenders bumps the receiving node's distinct-sender
// counter by one.
func (r *Repository) IncrementUniqueSenders(ctx context.Context, network, address string) error {
	_, err := r.db.DB().ExecContext(ctx, `
		UPDATE money_flow_nodes SET unique_senders = unique_senders + 1 WHERE network = $1 AND address = $2
	`, network, address)
	if err != nil {
		return retry.New(retry.StorageTransient, "moneyflow.IncrementUniqueSenders", err)
	}
	return nil
}

// IncrementUniqueReceivers bumps the sending node's distinct-receiver
// counter by one.
func (r *Repository) IncrementUniqueReceivers(ctx context.Context, network, address string) error {
	_, err := r.db.DB().ExecContext(ctx, `
		UPDATE money_flow_nodes SET unique_receivers = unique_receivers + 1 WHERE network = $1 AND address = $2
	`, network, address)
	if err != nil {
		return retry.New(retry.StorageTransient, "moneyflow.IncrementUniqueReceivers", err)
	}
	return nil
}

// EdgeTouch reports what an UpsertEdge call created. neighbor_count
// counts distinct counterparties and unique_senders/unique_receivers
// count distinct directed counterparties, so a second asset
// or the reverse direction between an already-connected pair must not
// bump those counters again; the flags let the caller tell the cases
// apart.
type EdgeTouch struct {
	NewEdge         bool // no prior (from, to, asset) edge
	NewDirectedPair bool // no prior from->to edge with any asset
	NewPair         bool // no prior edge between the pair in either direction
}

// UpsertEdge accumulates amount and one transfer onto the (network, from,
// to, asset) edge, creating it on first touch.
func (r *Repository) UpsertEdge(ctx context.Context, network, from, to, asset, amount string, tsMs int64, height uint32) (EdgeTouch, error) {
	var existingVolume sql.NullString
	row := r.db.DB().QueryRowContext(ctx, `
		SELECT volume FROM money_flow_edges WHERE network = $1 AND from_address = $2 AND to_address = $3 AND asset = $4
	`, network, from, to, asset)
	err := row.Scan(&existingVolume)
	switch {
	case err == sql.ErrNoRows:
		var directed, either int
		pairRow := r.db.DB().QueryRowContext(ctx, `
			SELECT COUNT(*) FILTER (WHERE from_address = $2 AND to_address = $3), COUNT(*)
			FROM money_flow_edges
			WHERE network = $1 AND ((from_address = $2 AND to_address = $3) OR (from_address = $3 AND to_address = $2))
		`, network, from, to)
		if err := pairRow.Scan(&directed, &either); err != nil {
			return EdgeTouch{}, retry.New(retry.StorageTransient, "moneyflow.UpsertEdge", err)
		}
		_, err = r.db.DB().ExecContext(ctx, `
			INSERT INTO money_flow_edges (network, from_address, to_address, asset, volume, transfer_count,
				first_seen_at_ms, first_seen_height, last_seen_at_ms, last_seen_height)
			VALUES ($1,$2,$3,$4,$5,1,$6,$7,$6,$7)
		`, network, from, to, asset, amount, tsMs, height)
		if err != nil {
			return EdgeTouch{}, retry.New(retry.StorageTransient, "moneyflow.UpsertEdge", err)
		}
		return EdgeTouch{NewEdge: true, NewDirectedPair: directed == 0, NewPair: either == 0}, nil
	case err != nil:
		return EdgeTouch{}, retry.New(retry.StorageTransient, "moneyflow.UpsertEdge", err)
	}

	newVolume := new(big.Int).Add(bigOrZero(existingVolume.String), bigOrZero(amount)).String()
	_, err = r.db.DB().ExecContext(ctx, `
		UPDATE money_flow_edges SET
			volume = $5,
			transfer_count = transfer_count + 1,
			last_seen_at_ms = GREATEST(last_seen_at_ms, $6),
			last_seen_height = GREATEST(last_seen_height, $7)
		WHERE network = $1 AND from_address = $2 AND to_address = $3 AND asset = $4
	`, network, from, to, asset, newVolume, tsMs, height)
	if err != nil {
		return EdgeTouch{}, retry.New(retry.StorageTransient, "moneyflow.UpsertEdge", err)
	}
	return EdgeTouch{}, nil
}

func bigOrZero(s string) *big.Int {
	if s == "" {
		return big.NewInt(0)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return big.NewInt(0)
	}
	return v
}

// UpsertLabel attaches label to address if not already present.
func (r *Repository) UpsertLabel(ctx context.Context, network, address, label string) error {
	_, err := r.db.DB().ExecContext(ctx, `
		INSERT INTO money_flow_labels (network, address, label) VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, network, address, label)
	if err != nil {
		return retry.New(retry.StorageTransient, "moneyflow.UpsertLabel", err)
	}
	return nil
}

// UpsertRelation records a typed relation between two entities if not
// already present.
func (r *Repository) UpsertRelation(ctx context.Context, network, from, to, kind string) error {
	_, err := r.db.DB().ExecContext(ctx, `
		INSERT INTO money_flow_relations (network, from_address, to_address, kind) VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING
	`, network, from, to, kind)
	if err != nil {
		return retry.New(retry.StorageTransient, "moneyflow.UpsertRelation", err)
	}
	return nil
}

// ListEdges returns every edge for network, used to build the in-memory
// graph for periodic analytics.
func (r *Repository) ListEdges(ctx context.Context, network string) ([]Edge, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT network, from_address, to_address, asset, volume, transfer_count,
			first_seen_at_ms, first_seen_height, last_seen_at_ms, last_seen_height
		FROM money_flow_edges WHERE network = $1
	`, network)
	if err != nil {
		return nil, retry.New(retry.StorageTransient, "moneyflow.ListEdges", err)
	}
	defer rows.Close()

	var out []Edge
	for rows.Next() {
		var e Edge
		if err := rows.Scan(&e.Network, &e.From, &e.To, &e.Asset, &e.Volume, &e.TransferCount,
			&e.FirstSeenAtMs, &e.FirstSeenHeight, &e.LastSeenAtMs, &e.LastSeenHeight); err != nil {
			return nil, retry.New(retry.StorageTransient, "moneyflow.ListEdges", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListNodes returns every node for network.
func (r *Repository) ListNodes(ctx context.Context, network string) ([]Node, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT network, address, first_seen_at_ms, first_seen_height, last_seen_at_ms, last_seen_height,
			neighbor_count, unique_senders, unique_receivers, transfer_count, has_community, community_id, community_page_rank
		FROM money_flow_nodes WHERE network = $1
	`, network)
	if err != nil {
		return nil, retry.New(retry.StorageTransient, "moneyflow.ListNodes", err)
	}
	defer rows.Close()

	var out []Node
	for rows.Next() {
		var n Node
		if err := rows.Scan(&n.Network, &n.Address, &n.FirstSeenAtMs, &n.FirstSeenHeight, &n.LastSeenAtMs, &n.LastSeenHeight,
			&n.NeighborCount, &n.UniqueSenders, &n.UniqueReceivers, &n.TransferCount, &n.HasCommunity, &n.CommunityID, &n.CommunityPageRank); err != nil {
			return nil, retry.New(retry.StorageTransient, "moneyflow.ListNodes", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// WriteCommunityID records the community a node was assigned in the most
// recent community-detection run, creating a Community row too.
func (r *Repository) WriteCommunityID(ctx context.Context, network, address string, communityID int64) error {
	_, err := r.db.DB().ExecContext(ctx, `
		UPDATE money_flow_nodes SET has_community = true, community_id = $3 WHERE network = $1 AND address = $2
	`, network, address, communityID)
	if err != nil {
		return retry.New(retry.StorageTransient, "moneyflow.WriteCommunityID", err)
	}
	if _, err := r.db.DB().ExecContext(ctx, `
		INSERT INTO money_flow_communities (network, community_id) VALUES ($1, $2) ON CONFLICT DO NOTHING
	`, network, communityID); err != nil {
		return retry.New(retry.StorageTransient, "moneyflow.WriteCommunityID", err)
	}
	return nil
}

// WritePageRank records a node's in-community PageRank score.
func (r *Repository) WritePageRank(ctx context.Context, network, address string, rank float64) error {
	_, err := r.db.DB().ExecContext(ctx, `
		UPDATE money_flow_nodes SET community_page_rank = $3 WHERE network = $1 AND address = $2
	`, network, address, rank)
	if err != nil {
		return retry.New(retry.StorageTransient, "moneyflow.WritePageRank", err)
	}
	return nil
}

// WriteEmbedding persists a node's 6-float network embedding.
func (r *Repository) WriteEmbedding(ctx context.Context, network, address string, embedding [6]float64) error {
	_, err := r.db.DB().ExecContext(ctx, `
		UPDATE money_flow_nodes SET
			embedding_0 = $3, embedding_1 = $4, embedding_2 = $5,
			embedding_3 = $6, embedding_4 = $7, embedding_5 = $8
		WHERE network = $1 AND address = $2
	`, network, address, embedding[0], embedding[1], embedding[2], embedding[3], embedding[4], embedding[5])
	if err != nil {
		return retry.New(retry.StorageTransient, "moneyflow.WriteEmbedding", err)
	}
	return nil
}
