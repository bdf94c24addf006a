// Package postgres provides a PostgreSQL-backed node store with metrics.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/samsirama/windows-explorer-clone/internal/logging"
	"github.com/samsirama/windows-explorer-clone/internal/metadata"
	"github.com/samsirama/windows-explorer-clone/internal/metrics"
	"github.com/samsirama/windows-explorer-clone/pkg/models"
	"github.com/samsirama/windows-explorer-clone/pkg/retry"
)

const nodeColumns = `id, parent_id, name, type, size, created_at`

// Store is a PostgreSQL node store.
type Store struct {
	db *sql.DB
}

var _ metadata.Store = (*Store)(nil)

// New creates a new PostgreSQL node store.
func New(databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Connect is New with start-up retries while the database comes up.
func Connect(ctx context.Context, databaseURL string, cfg retry.Config) (*Store, error) {
	cfg.OnRetry = func(attempt int, err error, wait time.Duration) {
		logging.Info("waiting for PostgreSQL",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
	}
	return retry.DoWithResult(ctx, cfg, func() (*Store, error) {
		s, err := New(databaseURL)
		if err != nil {
			return nil, retry.Retryable(err)
		}
		return s, nil
	})
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// UpdateConnectionMetrics updates the database connection metrics.
func (s *Store) UpdateConnectionMetrics() {
	stats := s.db.Stats()
	metrics.SetDBConnectionsOpen(stats.OpenConnections)
}

// Migrate runs SQL migration files. Every migration must be idempotent.
func (s *Store) Migrate(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}

	for _, f := range files {
		logging.Info("running migration", zap.String("file", filepath.Base(f)))
		content, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("exec migration %s: %w", f, err)
		}
	}

	return nil
}

// ListNodes returns every node, oldest first.
func (s *Store) ListNodes(ctx context.Context) ([]*models.Node, error) {
	defer observe("list_nodes", time.Now())

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	return scanNodes(rows)
}

// GetNode returns a single node.
func (s *Store) GetNode(ctx context.Context, id string) (*models.Node, error) {
	defer observe("get_node", time.Now())

	if !validID(id) {
		return nil, metadata.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE id = $1`, id)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, metadata.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query node: %w", err)
	}
	return n, nil
}

// ListChildren returns the direct children of parentID.
func (s *Store) ListChildren(ctx context.Context, parentID string) ([]*models.Node, error) {
	defer observe("list_children", time.Now())

	if !validID(parentID) {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE parent_id = $1 ORDER BY created_at, id`, parentID)
	if err != nil {
		return nil, fmt.Errorf("query children: %w", err)
	}
	return scanNodes(rows)
}

// SearchNodes matches names case-insensitively. limit <= 0 means no limit.
func (s *Store) SearchNodes(ctx context.Context, query string, limit int) ([]*models.Node, error) {
	defer observe("search_nodes", time.Now())

	q := `SELECT ` + nodeColumns + ` FROM nodes
	      WHERE name ILIKE '%' || $1 || '%'
	      ORDER BY created_at, id`
	args := []interface{}{escapeLike(query)}
	if limit > 0 {
		q += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("search nodes: %w", err)
	}
	nodes, err := scanNodes(rows)
	if nodes == nil && err == nil {
		nodes = []*models.Node{}
	}
	return nodes, err
}

// CreateNode inserts n with a fresh UUID.
func (s *Store) CreateNode(ctx context.Context, n *models.Node) (*models.Node, error) {
	defer observe("create_node", time.Now())

	var parent interface{}
	if n.ParentID != nil {
		if !validID(*n.ParentID) {
			// Unresolvable parents are stored as roots; the column is uuid-typed.
			parent = nil
		} else {
			parent = *n.ParentID
		}
	}
	var size interface{}
	if n.Size != nil {
		size = *n.Size
	}

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO nodes (id, parent_id, name, type, size, created_at)
		 VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))
		 RETURNING `+nodeColumns,
		uuid.NewString(), parent, n.Name, string(n.Type), size, nullTime(n.CreatedAt))
	created, err := scanNode(row)
	if err != nil {
		return nil, fmt.Errorf("insert node: %w", err)
	}
	return created, nil
}

// UpdateNode applies a partial update.
func (s *Store) UpdateNode(ctx context.Context, id string, patch models.NodePatch) (*models.Node, error) {
	defer observe("update_node", time.Now())

	if !validID(id) {
		return nil, metadata.ErrNotFound
	}
	if patch.Empty() {
		return s.GetNode(ctx, id)
	}

	var sets []string
	args := []interface{}{id}
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Type != nil {
		add("type", string(*patch.Type))
	}
	if patch.Size != nil {
		add("size", *patch.Size)
	} else if patch.ClearsSize() {
		add("size", nil)
	}
	if patch.ParentSet {
		if patch.ParentID == nil || !validID(*patch.ParentID) {
			add("parent_id", nil)
		} else {
			add("parent_id", *patch.ParentID)
		}
	}

	row := s.db.QueryRowContext(ctx,
		`UPDATE nodes SET `+strings.Join(sets, ", ")+` WHERE id = $1 RETURNING `+nodeColumns,
		args...)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, metadata.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update node: %w", err)
	}
	return n, nil
}

// DeleteNode removes exactly one node; children keep their parent_id.
func (s *Store) DeleteNode(ctx context.Context, id string) (*models.Node, error) {
	defer observe("delete_node", time.Now())

	if !validID(id) {
		return nil, metadata.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`DELETE FROM nodes WHERE id = $1 RETURNING `+nodeColumns, id)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, metadata.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete node: %w", err)
	}
	return n, nil
}

// DeleteSubtree removes id and all of its descendants.
func (s *Store) DeleteSubtree(ctx context.Context, id string) (int64, error) {
	defer observe("delete_subtree", time.Now())

	if !validID(id) {
		return 0, metadata.ErrNotFound
	}
	// UNION (not UNION ALL) stops the walk if parent links ever form a cycle.
	result, err := s.db.ExecContext(ctx,
		`WITH RECURSIVE subtree AS (
			SELECT id FROM nodes WHERE id = $1
			UNION
			SELECT n.id FROM nodes n JOIN subtree st ON n.parent_id = st.id
		)
		DELETE FROM nodes WHERE id IN (SELECT id FROM subtree)`, id)
	if err != nil {
		return 0, fmt.Errorf("delete subtree: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete subtree: %w", err)
	}
	if n == 0 {
		return 0, metadata.ErrNotFound
	}
	return n, nil
}

// DeleteAll empties the table. Used by the seed tool's --reset flag.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM nodes`)
	if err != nil {
		return 0, fmt.Errorf("delete all: %w", err)
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanNode(row scanner) (*models.Node, error) {
	var (
		n         models.Node
		parentID  sql.NullString
		nodeType  string
		size      sql.NullInt64
		createdAt time.Time
	)
	if err := row.Scan(&n.ID, &parentID, &n.Name, &nodeType, &size, &createdAt); err != nil {
		return nil, err
	}
	n.Type = models.NodeType(nodeType)
	n.CreatedAt = createdAt
	if parentID.Valid {
		pid := parentID.String
		n.ParentID = &pid
	}
	if size.Valid {
		v := size.Int64
		n.Size = &v
	}
	return &n, nil
}

func scanNodes(rows *sql.Rows) ([]*models.Node, error) {
	defer rows.Close()
	var nodes []*models.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return nodes, nil
}

func observe(query string, start time.Time) {
	metrics.RecordDBQuery(query, time.Since(start))
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

// escapeLike escapes LIKE metacharacters so the query is matched literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
