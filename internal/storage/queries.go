package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type document struct {
	Data    string
	Version int64
}

const getDocument = `SELECT data, version FROM user_documents WHERE user_id = ? AND kind = ?`

func (q *Queries) GetDocument(ctx context.Context, userID, kind string) (document, error) {
	var d document
	err := q.db.QueryRowContext(ctx, getDocument, userID, kind).Scan(&d.Data, &d.Version)
	return d, err
}

const upsertDocument = `
INSERT INTO user_documents (user_id, kind, data, version, updated_at)
VALUES (?, ?, ?, 1, ?)
ON CONFLICT (user_id, kind) DO UPDATE SET
    data = excluded.data,
    version = user_documents.version + 1,
    updated_at = excluded.updated_at`

func (q *Queries) UpsertDocument(ctx context.Context, userID, kind, data string, now time.Time) error {
	_, err := q.db.ExecContext(ctx, upsertDocument, userID, kind, data, formatTime(now))
	return err
}

const createUser = `INSERT INTO users (id, email, name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`

func (q *Queries) CreateUser(ctx context.Context, id, email, name, hash string, createdAt time.Time) error {
	_, err := q.db.ExecContext(ctx, createUser, id, email, name, hash, formatTime(createdAt))
	return err
}

type userRow struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    string
}

const getUserByEmail = `SELECT id, email, name, password_hash, created_at FROM users WHERE email = ?`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (userRow, error) {
	var u userRow
	err := q.db.QueryRowContext(ctx, getUserByEmail, email).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

const getUserByID = `SELECT id, email, name, password_hash, created_at FROM users WHERE id = ?`

func (q *Queries) GetUserByID(ctx context.Context, id string) (userRow, error) {
	var u userRow
	err := q.db.QueryRowContext(ctx, getUserByID, id).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

const updatePasswordHash = `UPDATE users SET password_hash = ? WHERE id = ?`

func (q *Queries) UpdatePasswordHash(ctx context.Context, id, hash string) (int64, error) {
	res, err := q.db.ExecContext(ctx, updatePasswordHash, hash, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const saveResetToken = `
INSERT INTO password_reset_tokens (token_hash, user_id, expires_at) VALUES (?, ?, ?)
ON CONFLICT (token_hash) DO UPDATE SET user_id = excluded.user_id, expires_at = excluded.expires_at`

func (q *Queries) SaveResetToken(ctx context.Context, hash, userID string, expiresAt time.Time) error {
	_, err := q.db.ExecContext(ctx, saveResetToken, hash, userID, formatTime(expiresAt))
	return err
}

const getResetToken = `SELECT user_id, expires_at FROM password_reset_tokens WHERE token_hash = ?`

func (q *Queries) GetResetToken(ctx context.Context, hash string) (userID, expiresAt string, err error) {
	err = q.db.QueryRowContext(ctx, getResetToken, hash).Scan(&userID, &expiresAt)
	return userID, expiresAt, err
}

const deleteResetToken = `DELETE FROM password_reset_tokens WHERE token_hash = ?`

func (q *Queries) DeleteResetToken(ctx context.Context, hash string) error {
	_, err := q.db.ExecContext(ctx, deleteResetToken, hash)
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
