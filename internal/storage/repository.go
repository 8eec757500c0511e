package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"budgetai/internal/core"
	"budgetai/internal/store"

	_ "modernc.org/sqlite"
)

// Document kinds stored in user_documents.
const (
	KindConfig  = "config"
	KindProfile = "profile"
	KindCart    = "cart"
)

// SQLiteRepository stores each user's config, profile and cart as JSON
// documents.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

var _ store.Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serialises writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("SQLite schema ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db, queries: New(db), now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) getDocument(ctx context.Context, q *Queries, userID, kind string, dst any) (int64, bool, error) {
	doc, err := q.GetDocument(ctx, userID, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get %s: %w", kind, err)
	}
	if err := json.Unmarshal([]byte(doc.Data), dst); err != nil {
		return 0, false, fmt.Errorf("decode %s: %w", kind, err)
	}
	return doc.Version, true, nil
}

// mergeDocument reads, merges and writes one document in a transaction.
func (r *SQLiteRepository) mergeDocument(ctx context.Context, userID, kind string, merge func(q *Queries) (any, error)) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	next, err := merge(q)
	if err != nil {
		return err
	}
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	if err := q.UpsertDocument(ctx, userID, kind, string(data), r.now()); err != nil {
		return fmt.Errorf("save %s: %w", kind, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", kind, err)
	}
	slog.DebugContext(ctx, "Document saved to SQLite", "user_id", userID, "kind", kind, "bytes", len(data))
	return nil
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, userID string) (*core.BudgetConfig, error) {
	var cfg core.BudgetConfig
	_, ok, err := r.getDocument(ctx, r.queries, userID, KindConfig, &cfg)
	if err != nil || !ok {
		return nil, err
	}
	cfg = cfg.Clone()
	return &cfg, nil
}

func (r *SQLiteRepository) SaveConfig(ctx context.Context, userID string, patch core.ConfigPatch) error {
	return r.mergeDocument(ctx, userID, KindConfig, func(q *Queries) (any, error) {
		base := core.EmptyConfig()
		if _, _, err := r.getDocument(ctx, q, userID, KindConfig, &base); err != nil {
			return nil, err
		}
		return core.MergeConfig(base, patch), nil
	})
}

func (r *SQLiteRepository) GetProfile(ctx context.Context, userID string) (*core.Profile, error) {
	var p core.Profile
	_, ok, err := r.getDocument(ctx, r.queries, userID, KindProfile, &p)
	if err != nil || !ok {
		return nil, err
	}
	p = p.Clone()
	return &p, nil
}

func (r *SQLiteRepository) SaveProfile(ctx context.Context, userID string, patch core.ProfilePatch) error {
	return r.mergeDocument(ctx, userID, KindProfile, func(q *Queries) (any, error) {
		base := core.EmptyProfile()
		if _, _, err := r.getDocument(ctx, q, userID, KindProfile, &base); err != nil {
			return nil, err
		}
		return core.MergeProfile(base, patch), nil
	})
}

func (r *SQLiteRepository) GetCart(ctx context.Context, userID string) ([]core.CartItem, error) {
	items, _, err := r.GetCartVersion(ctx, userID)
	return items, err
}

// GetCartVersion returns the cart with its save counter. A user without a
// stored cart has version 0.
func (r *SQLiteRepository) GetCartVersion(ctx context.Context, userID string) ([]core.CartItem, int64, error) {
	var items []core.CartItem
	version, _, err := r.getDocument(ctx, r.queries, userID, KindCart, &items)
	if err != nil {
		return nil, 0, err
	}
	return core.CloneCart(items), version, nil
}

// DocumentVersion returns the save counter of one document, 0 when it has
// never been saved.
func (r *SQLiteRepository) DocumentVersion(ctx context.Context, userID, kind string) (int64, error) {
	var raw json.RawMessage
	version, _, err := r.getDocument(ctx, r.queries, userID, kind, &raw)
	return version, err
}

func (r *SQLiteRepository) SaveCart(ctx context.Context, userID string, items []core.CartItem) error {
	return r.mergeDocument(ctx, userID, KindCart, func(*Queries) (any, error) {
		return core.CloneCart(items), nil
	})
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) error {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}
	err := r.queries.CreateUser(ctx, u.ID, email, u.Name, u.PasswordHash, createdAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("user %s: %w", email, store.ErrDuplicate)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	row, err := r.queries.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	return toUser(row, err, email)
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	row, err := r.queries.GetUserByID(ctx, id)
	return toUser(row, err, id)
}

func toUser(row userRow, err error, key string) (*core.User, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFound("user", key)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &core.User{
		ID:           row.ID,
		Email:        row.Email,
		Name:         row.Name,
		PasswordHash: row.PasswordHash,
		CreatedAt:    parseTime(row.CreatedAt),
	}, nil
}

func (r *SQLiteRepository) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	n, err := r.queries.UpdatePasswordHash(ctx, userID, hash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n == 0 {
		return core.NotFound("user", userID)
	}
	return nil
}

func (r *SQLiteRepository) SaveResetToken(ctx context.Context, t store.ResetToken) error {
	if err := r.queries.SaveResetToken(ctx, t.TokenHash, t.UserID, t.ExpiresAt); err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetResetToken(ctx context.Context, tokenHash string) (*store.ResetToken, error) {
	userID, expiresAt, err := r.queries.GetResetToken(ctx, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NotFound("reset token", "")
	}
	if err != nil {
		return nil, fmt.Errorf("get reset token: %w", err)
	}
	return &store.ResetToken{TokenHash: tokenHash, UserID: userID, ExpiresAt: parseTime(expiresAt)}, nil
}

func (r *SQLiteRepository) DeleteResetToken(ctx context.Context, tokenHash string) error {
	if err := r.queries.DeleteResetToken(ctx, tokenHash); err != nil {
		return fmt.Errorf("delete reset token: %w", err)
	}
	return nil
}
