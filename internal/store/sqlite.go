package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/whisper/internal/ledger"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on comments.post_address
const currentSchemaVersion = 1

// SQLite is the durable RecordStore backend.
// Uses SQLite with WAL mode for concurrent read access.
type SQLite struct {
	db *sql.DB
}

var _ RecordStore = (*SQLite)(nil)

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time; a single-connection pool
	// avoids SQLITE_BUSY errors and makes transactions serialize at the
	// pool rather than fail under contention.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
		version = 1
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 adds the comments scan index for databases created before the
// index existed in schema.sql. CREATE INDEX IF NOT EXISTS is a no-op on new
// databases.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_comments_post
		ON comments(post_address)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

func (s *SQLite) CreatePost(ctx context.Context, post ledger.Post) error {
	return createPost(ctx, s.db, post)
}

func (s *SQLite) GetPost(ctx context.Context, addr ledger.Address) (ledger.Post, error) {
	return getPost(ctx, s.db, addr)
}

func (s *SQLite) MutatePost(ctx context.Context, addr ledger.Address, fn func(*ledger.Post) error) (ledger.Post, error) {
	var out ledger.Post
	err := s.Atomic(ctx, func(tx RecordStore) error {
		var err error
		out, err = tx.MutatePost(ctx, addr, fn)
		return err
	})
	if err != nil {
		return ledger.Post{}, err
	}
	return out, nil
}

func (s *SQLite) CreateComment(ctx context.Context, comment ledger.Comment) error {
	return createComment(ctx, s.db, comment)
}

func (s *SQLite) GetComment(ctx context.Context, addr ledger.Address) (ledger.Comment, error) {
	return getComment(ctx, s.db, addr)
}

func (s *SQLite) Posts(ctx context.Context) ([]ledger.Post, error) {
	return listPosts(ctx, s.db)
}

// Atomic runs fn inside one SQL transaction. The single-connection pool
// means the transaction holds the only connection until commit, so no other
// store call can interleave.
func (s *SQLite) Atomic(ctx context.Context, fn func(tx RecordStore) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback() // No-op if committed

	if err := fn(&sqliteTx{tx: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// sqliteTx is the transactional view handed to Atomic bodies.
type sqliteTx struct {
	tx *sql.Tx
}

var _ RecordStore = (*sqliteTx)(nil)

func (t *sqliteTx) CreatePost(ctx context.Context, post ledger.Post) error {
	return createPost(ctx, t.tx, post)
}

func (t *sqliteTx) GetPost(ctx context.Context, addr ledger.Address) (ledger.Post, error) {
	return getPost(ctx, t.tx, addr)
}

func (t *sqliteTx) MutatePost(ctx context.Context, addr ledger.Address, fn func(*ledger.Post) error) (ledger.Post, error) {
	post, err := getPost(ctx, t.tx, addr)
	if err != nil {
		return ledger.Post{}, err
	}
	if err := fn(&post); err != nil {
		return ledger.Post{}, err
	}
	_, err = t.tx.ExecContext(ctx, `
		UPDATE posts SET reaction_count = ?, comment_count = ?
		WHERE address = ?
	`, int64(post.ReactionCount), int64(post.CommentCount), string(addr))
	if err != nil {
		return ledger.Post{}, fmt.Errorf("update post counters: %w", err)
	}
	return post, nil
}

func (t *sqliteTx) CreateComment(ctx context.Context, comment ledger.Comment) error {
	return createComment(ctx, t.tx, comment)
}

func (t *sqliteTx) GetComment(ctx context.Context, addr ledger.Address) (ledger.Comment, error) {
	return getComment(ctx, t.tx, addr)
}

func (t *sqliteTx) Posts(ctx context.Context) ([]ledger.Post, error) {
	return listPosts(ctx, t.tx)
}

// Atomic on a transactional view joins the enclosing transaction.
func (t *sqliteTx) Atomic(ctx context.Context, fn func(tx RecordStore) error) error {
	return fn(t)
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// createPost inserts a post record with create-if-absent semantics.
// ON CONFLICT DO NOTHING plus the affected-row count distinguishes a win
// from an occupied address without a read-before-write race.
func createPost(ctx context.Context, q querier, post ledger.Post) error {
	res, err := q.ExecContext(ctx, `
		INSERT INTO posts
		(address, owner, content_uri, reaction_count, comment_count, created_at, bump)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(address) DO NOTHING
	`,
		string(post.Address),
		string(post.Owner),
		post.ContentRef,
		int64(post.ReactionCount),
		int64(post.CommentCount),
		post.CreatedAt,
		int64(post.Bump),
	)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	if n == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func createComment(ctx context.Context, q querier, comment ledger.Comment) error {
	res, err := q.ExecContext(ctx, `
		INSERT INTO comments
		(address, post_address, author, content_uri, created_at, bump)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(address) DO NOTHING
	`,
		string(comment.Address),
		string(comment.Post),
		string(comment.Author),
		comment.ContentRef,
		comment.CreatedAt,
		int64(comment.Bump),
	)
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	if n == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func getPost(ctx context.Context, q querier, addr ledger.Address) (ledger.Post, error) {
	row := q.QueryRowContext(ctx, `
		SELECT address, owner, content_uri, reaction_count, comment_count, created_at, bump
		FROM posts
		WHERE address = ?
	`, string(addr))

	post, err := scanPost(row)
	if err == sql.ErrNoRows {
		return ledger.Post{}, ErrNotFound
	}
	if err != nil {
		return ledger.Post{}, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

func getComment(ctx context.Context, q querier, addr ledger.Address) (ledger.Comment, error) {
	row := q.QueryRowContext(ctx, `
		SELECT address, post_address, author, content_uri, created_at, bump
		FROM comments
		WHERE address = ?
	`, string(addr))

	var (
		comment            ledger.Comment
		address, post      string
		author, contentURI string
		bump               int64
	)
	err := row.Scan(&address, &post, &author, &contentURI, &comment.CreatedAt, &bump)
	if err == sql.ErrNoRows {
		return ledger.Comment{}, ErrNotFound
	}
	if err != nil {
		return ledger.Comment{}, fmt.Errorf("get comment: %w", err)
	}

	comment.Address = ledger.Address(address)
	comment.Post = ledger.Address(post)
	comment.Author = ledger.Identity(author)
	comment.ContentRef = contentURI
	comment.Bump = uint8(bump)
	return comment, nil
}

func listPosts(ctx context.Context, q querier) ([]ledger.Post, error) {
	// Deterministic ordering: creation time, then address as tiebreaker.
	rows, err := q.QueryContext(ctx, `
		SELECT address, owner, content_uri, reaction_count, comment_count, created_at, bump
		FROM posts
		ORDER BY created_at ASC, address ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []ledger.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (ledger.Post, error) {
	var (
		post                     ledger.Post
		address, owner           string
		reactionCount, commentCount int64
		bump                     int64
	)
	err := row.Scan(&address, &owner, &post.ContentRef, &reactionCount, &commentCount, &post.CreatedAt, &bump)
	if err != nil {
		return ledger.Post{}, err
	}

	post.Address = ledger.Address(address)
	post.Owner = ledger.Identity(owner)
	post.ReactionCount = uint64(reactionCount)
	post.CommentCount = uint64(commentCount)
	post.Bump = uint8(bump)
	return post, nil
}
