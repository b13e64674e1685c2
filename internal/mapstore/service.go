// Package mapstore persists maps and their versioned document
// snapshots.
package mapstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gridforge/gridforge/internal/scene"
	"github.com/gridforge/gridforge/internal/typeid"
)

var (
	ErrNotFound  = errors.New("map not found")
	ErrForbidden = errors.New("forbidden")
)

type Service struct {
	pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

type Map struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Create inserts a map and seeds its first snapshot with an empty
// document, so every map loads to a valid (if empty) scene.
func (s *Service) Create(ctx context.Context, name, ownerID string) (*Map, error) {
	mapID := typeid.NewMapID()

	var m Map
	err := s.pool.QueryRow(ctx,
		`INSERT INTO maps (id, name, owner_id) VALUES ($1, $2, $3)
		 RETURNING id, name, owner_id,
		           to_char(created_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"'),
		           to_char(updated_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"')`,
		mapID, name, ownerID,
	).Scan(&m.ID, &m.Name, &m.OwnerID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create map: %w", err)
	}

	emptyDoc := scene.NewEmptyDocument(name)
	docJSON, err := json.Marshal(emptyDoc)
	if err != nil {
		return nil, fmt.Errorf("marshal empty document: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO map_snapshots (id, map_id, version, document) VALUES ($1, $2, 1, $3)`,
		typeid.NewSnapshotID(), mapID, docJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	return &m, nil
}

func (s *Service) Get(ctx context.Context, mapID, userID string) (*Map, error) {
	m, err := s.get(ctx, mapID)
	if err != nil {
		return nil, err
	}
	if m.OwnerID != userID {
		return nil, ErrForbidden
	}
	return m, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Map, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, owner_id,
		        to_char(created_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"'),
		        to_char(updated_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"')
		 FROM maps WHERE owner_id = $1 ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list maps: %w", err)
	}
	defer rows.Close()

	var maps []Map
	for rows.Next() {
		var m Map
		if err := rows.Scan(&m.ID, &m.Name, &m.OwnerID, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan map: %w", err)
		}
		maps = append(maps, m)
	}
	return maps, rows.Err()
}

func (s *Service) Delete(ctx context.Context, mapID, userID string) error {
	m, err := s.get(ctx, mapID)
	if err != nil {
		return err
	}
	if m.OwnerID != userID {
		return ErrForbidden
	}

	_, err = s.pool.Exec(ctx, `DELETE FROM maps WHERE id = $1`, mapID)
	return err
}

// CheckAccess verifies the user may open the map (session join and
// snapshot reads).
func (s *Service) CheckAccess(ctx context.Context, mapID, userID string) error {
	m, err := s.get(ctx, mapID)
	if err != nil {
		return err
	}
	if m.OwnerID != userID {
		return ErrForbidden
	}
	return nil
}

// LatestSnapshot returns the newest persisted document for a map.
func (s *Service) LatestSnapshot(ctx context.Context, mapID string) (json.RawMessage, int, error) {
	var (
		doc     []byte
		version int
	)
	err := s.pool.QueryRow(ctx,
		`SELECT document, version FROM map_snapshots
		 WHERE map_id = $1 ORDER BY version DESC LIMIT 1`,
		mapID,
	).Scan(&doc, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("get snapshot: %w", err)
	}
	return doc, version, nil
}

// SaveSnapshot persists a document as the next version for the map.
func (s *Service) SaveSnapshot(ctx context.Context, mapID string, doc json.RawMessage) error {
	_, current, err := s.LatestSnapshot(ctx, mapID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO map_snapshots (id, map_id, version, document) VALUES ($1, $2, $3, $4)`,
		typeid.NewSnapshotID(), mapID, current+1, []byte(doc),
	)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}

	_, err = s.pool.Exec(ctx, `UPDATE maps SET updated_at = now() WHERE id = $1`, mapID)
	return err
}

func (s *Service) get(ctx context.Context, mapID string) (*Map, error) {
	var m Map
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, owner_id,
		        to_char(created_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"'),
		        to_char(updated_at, 'YYYY-MM-DD"T"HH24:MI:SS"Z"')
		 FROM maps WHERE id = $1`,
		mapID,
	).Scan(&m.ID, &m.Name, &m.OwnerID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get map: %w", err)
	}
	return &m, nil
}
