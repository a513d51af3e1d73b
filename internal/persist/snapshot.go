package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vectorforge/scenert/internal/core/serial"
	"golang.org/x/crypto/blake2b"
	"go.uber.org/zap"
)

var (
	// ErrChecksumMismatch means a stored snapshot does not hash to its
	// recorded checksum.
	ErrChecksumMismatch = errors.New("snapshot checksum mismatch")
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// Snapshot is one stored graph dump of a scene.
type Snapshot struct {
	ID          int64
	Scene       string
	RootUUID    string
	Records     []serial.Record
	RecordCount int
	Checksum    []byte
	CreatedAt   time.Time
}

// SnapshotInfo is a snapshot row without its records.
type SnapshotInfo struct {
	ID          int64
	Scene       string
	RootUUID    string
	RecordCount int
	CreatedAt   time.Time
}

type SnapshotRepo struct {
	db  *DB
	log *zap.Logger
}

func NewSnapshotRepo(db *DB, log *zap.Logger) *SnapshotRepo {
	if log == nil {
		log = zap.NewNop()
	}
	return &SnapshotRepo{db: db, log: log}
}

// encodeSnapshot renders records as JSON and returns the payload with its
// BLAKE2b-256 sum.
func encodeSnapshot(records []serial.Record) ([]byte, []byte, error) {
	payload, err := json.Marshal(records)
	if err != nil {
		return nil, nil, fmt.Errorf("encode snapshot: %w", err)
	}
	sum := blake2b.Sum256(payload)
	return payload, sum[:], nil
}

// decodeSnapshot verifies payload against sum and parses it. Numbers are
// kept as json.Number so integers survive the round trip.
func decodeSnapshot(payload, sum []byte) ([]serial.Record, error) {
	got := blake2b.Sum256(payload)
	if !bytes.Equal(got[:], sum) {
		return nil, ErrChecksumMismatch
	}
	return parseRecords(payload)
}

// Save stores records under scene and trims the scene to the keep newest
// snapshots (keep <= 0 keeps everything).
func (r *SnapshotRepo) Save(ctx context.Context, scene string, records []serial.Record, keep int) (int64, error) {
	if len(records) == 0 {
		return 0, fmt.Errorf("save snapshot %s: no records", scene)
	}
	payload, sum, err := encodeSnapshot(records)
	if err != nil {
		return 0, err
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("snapshot begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	if err := tx.QueryRow(ctx,
		`INSERT INTO scene_snapshots (scene, root_uuid, records, record_count, checksum)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		scene, records[0].UUID(), payload, len(records), sum,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("snapshot insert: %w", err)
	}

	if keep > 0 {
		if _, err := tx.Exec(ctx,
			`DELETE FROM scene_snapshots
			 WHERE scene = $1 AND id NOT IN (
			   SELECT id FROM scene_snapshots WHERE scene = $1
			   ORDER BY created_at DESC, id DESC LIMIT $2)`,
			scene, keep,
		); err != nil {
			return 0, fmt.Errorf("snapshot trim: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("snapshot commit: %w", err)
	}
	r.log.Debug("snapshot saved", zap.String("scene", scene), zap.Int64("id", id), zap.Int("records", len(records)))
	return id, nil
}

// Latest returns the newest snapshot of scene after verifying its
// checksum.
func (r *SnapshotRepo) Latest(ctx context.Context, scene string) (*Snapshot, error) {
	return r.scan(r.db.Pool.QueryRow(ctx,
		`SELECT id, scene, root_uuid, records, record_count, checksum, created_at
		 FROM scene_snapshots WHERE scene = $1
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		scene,
	), scene)
}

// Get returns one snapshot by id.
func (r *SnapshotRepo) Get(ctx context.Context, id int64) (*Snapshot, error) {
	return r.scan(r.db.Pool.QueryRow(ctx,
		`SELECT id, scene, root_uuid, records, record_count, checksum, created_at
		 FROM scene_snapshots WHERE id = $1`,
		id,
	), fmt.Sprintf("#%d", id))
}

func (r *SnapshotRepo) scan(row pgx.Row, what string) (*Snapshot, error) {
	var s Snapshot
	var payload []byte
	if err := row.Scan(&s.ID, &s.Scene, &s.RootUUID, &payload, &s.RecordCount, &s.Checksum, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, what)
		}
		return nil, fmt.Errorf("snapshot query %s: %w", what, err)
	}
	// records is BYTEA, so payload is byte-for-byte what Save hashed.
	records, err := decodeSnapshot(payload, s.Checksum)
	if err != nil {
		return nil, fmt.Errorf("snapshot %d: %w", s.ID, err)
	}
	s.Records = records
	return &s, nil
}

func parseRecords(payload []byte) ([]serial.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	out := make([]serial.Record, len(raw))
	for i, m := range raw {
		out[i] = serial.Record(m)
	}
	return out, nil
}

// List returns the snapshots of scene, newest first.
func (r *SnapshotRepo) List(ctx context.Context, scene string) ([]SnapshotInfo, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, scene, root_uuid, record_count, created_at
		 FROM scene_snapshots WHERE scene = $1
		 ORDER BY created_at DESC, id DESC`,
		scene,
	)
	if err != nil {
		return nil, fmt.Errorf("snapshot list: %w", err)
	}
	defer rows.Close()

	var out []SnapshotInfo
	for rows.Next() {
		var s SnapshotInfo
		if err := rows.Scan(&s.ID, &s.Scene, &s.RootUUID, &s.RecordCount, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("snapshot scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SnapshotRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM scene_snapshots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("snapshot delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: #%d", ErrSnapshotNotFound, id)
	}
	return nil
}

// SaveGraph serializes root with g and stores it.
func (r *SnapshotRepo) SaveGraph(ctx context.Context, g *serial.GraphCodec, scene string, root serial.Object, keep int) (int64, int, error) {
	records, err := g.Serialize(root)
	if err != nil {
		return 0, 0, fmt.Errorf("serialize %s: %w", scene, err)
	}
	id, err := r.Save(ctx, scene, records, keep)
	return id, len(records), err
}
