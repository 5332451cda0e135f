package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/roach88/whisper/internal/ledger"
)

// Postgres is the gorm-backed RecordStore for shared deployments.
//
// Counters are stored as signed bigint (Postgres has no unsigned type);
// the conversion round-trips through two's complement, and the service
// caps counters before they reach the sign bit in any realistic ledger.
type Postgres struct {
	db *gorm.DB
}

var _ RecordStore = (*Postgres)(nil)

// postRow is the posts table row. Kept separate from ledger.Post so gorm
// tags never leak into the record types other packages hash and compare.
type postRow struct {
	Address       string `gorm:"primaryKey"`
	Owner         string `gorm:"not null"`
	ContentURI    string `gorm:"column:content_uri;not null"`
	ReactionCount int64  `gorm:"not null;default:0"`
	CommentCount  int64  `gorm:"not null;default:0"`
	CreatedAt     int64  `gorm:"not null"`
	Bump          int16  `gorm:"not null"`
}

func (postRow) TableName() string { return "posts" }

type commentRow struct {
	Address     string `gorm:"primaryKey"`
	PostAddress string `gorm:"not null;index"`
	Author      string `gorm:"not null"`
	ContentURI  string `gorm:"column:content_uri;not null"`
	CreatedAt   int64  `gorm:"not null"`
	Bump        int16  `gorm:"not null"`
}

func (commentRow) TableName() string { return "comments" }

// OpenPostgres connects to the given DSN and migrates the record tables.
func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&postRow{}, &commentRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Postgres{db: db}, nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return fmt.Errorf("get underlying db: %w", err)
	}
	return sqlDB.Close()
}

func (p *Postgres) CreatePost(ctx context.Context, post ledger.Post) error {
	row := toPostRow(post)
	res := p.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return fmt.Errorf("create post: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (p *Postgres) GetPost(ctx context.Context, addr ledger.Address) (ledger.Post, error) {
	var row postRow
	err := p.db.WithContext(ctx).First(&row, "address = ?", string(addr)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.Post{}, ErrNotFound
	}
	if err != nil {
		return ledger.Post{}, fmt.Errorf("get post: %w", err)
	}
	return fromPostRow(row), nil
}

func (p *Postgres) MutatePost(ctx context.Context, addr ledger.Address, fn func(*ledger.Post) error) (ledger.Post, error) {
	var out ledger.Post
	err := p.Atomic(ctx, func(tx RecordStore) error {
		var err error
		out, err = tx.MutatePost(ctx, addr, fn)
		return err
	})
	if err != nil {
		return ledger.Post{}, err
	}
	return out, nil
}

// mutatePostLocked does the read-modify-write inside an open transaction,
// taking a row lock so concurrent mutations of one post serialize on the
// database rather than clobber each other.
func (p *Postgres) mutatePostLocked(ctx context.Context, addr ledger.Address, fn func(*ledger.Post) error) (ledger.Post, error) {
	var row postRow
	err := p.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&row, "address = ?", string(addr)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.Post{}, ErrNotFound
	}
	if err != nil {
		return ledger.Post{}, fmt.Errorf("lock post: %w", err)
	}

	post := fromPostRow(row)
	updated := post
	if err := fn(&updated); err != nil {
		return ledger.Post{}, err
	}

	// Only the counters are mutable.
	post.ReactionCount = updated.ReactionCount
	post.CommentCount = updated.CommentCount

	err = p.db.WithContext(ctx).Model(&postRow{}).
		Where("address = ?", string(addr)).
		Updates(map[string]any{
			"reaction_count": int64(post.ReactionCount),
			"comment_count":  int64(post.CommentCount),
		}).Error
	if err != nil {
		return ledger.Post{}, fmt.Errorf("update post counters: %w", err)
	}
	return post, nil
}

func (p *Postgres) CreateComment(ctx context.Context, comment ledger.Comment) error {
	row := toCommentRow(comment)
	res := p.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return fmt.Errorf("create comment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (p *Postgres) GetComment(ctx context.Context, addr ledger.Address) (ledger.Comment, error) {
	var row commentRow
	err := p.db.WithContext(ctx).First(&row, "address = ?", string(addr)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.Comment{}, ErrNotFound
	}
	if err != nil {
		return ledger.Comment{}, fmt.Errorf("get comment: %w", err)
	}
	return fromCommentRow(row), nil
}

func (p *Postgres) Posts(ctx context.Context) ([]ledger.Post, error) {
	var rows []postRow
	err := p.db.WithContext(ctx).
		Order("created_at ASC, address ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}

	posts := make([]ledger.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, fromPostRow(row))
	}
	return posts, nil
}

// Atomic runs fn inside one database transaction; a failing body rolls
// everything back.
func (p *Postgres) Atomic(ctx context.Context, fn func(tx RecordStore) error) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&postgresTx{p: &Postgres{db: tx}})
	})
}

// postgresTx marks a view as transactional so nested Atomic calls join the
// open transaction instead of opening a new one.
type postgresTx struct {
	p *Postgres
}

var _ RecordStore = (*postgresTx)(nil)

func (t *postgresTx) CreatePost(ctx context.Context, post ledger.Post) error {
	return t.p.CreatePost(ctx, post)
}

func (t *postgresTx) GetPost(ctx context.Context, addr ledger.Address) (ledger.Post, error) {
	return t.p.GetPost(ctx, addr)
}

func (t *postgresTx) MutatePost(ctx context.Context, addr ledger.Address, fn func(*ledger.Post) error) (ledger.Post, error) {
	return t.p.mutatePostLocked(ctx, addr, fn)
}

func (t *postgresTx) CreateComment(ctx context.Context, comment ledger.Comment) error {
	return t.p.CreateComment(ctx, comment)
}

func (t *postgresTx) GetComment(ctx context.Context, addr ledger.Address) (ledger.Comment, error) {
	return t.p.GetComment(ctx, addr)
}

func (t *postgresTx) Posts(ctx context.Context) ([]ledger.Post, error) {
	return t.p.Posts(ctx)
}

func (t *postgresTx) Atomic(ctx context.Context, fn func(tx RecordStore) error) error {
	return fn(t)
}

func toPostRow(post ledger.Post) postRow {
	return postRow{
		Address:       string(post.Address),
		Owner:         string(post.Owner),
		ContentURI:    post.ContentRef,
		ReactionCount: int64(post.ReactionCount),
		CommentCount:  int64(post.CommentCount),
		CreatedAt:     post.CreatedAt,
		Bump:          int16(post.Bump),
	}
}

func fromPostRow(row postRow) ledger.Post {
	return ledger.Post{
		Address:       ledger.Address(row.Address),
		Owner:         ledger.Identity(row.Owner),
		ContentRef:    row.ContentURI,
		ReactionCount: uint64(row.ReactionCount),
		CommentCount:  uint64(row.CommentCount),
		CreatedAt:     row.CreatedAt,
		Bump:          uint8(row.Bump),
	}
}

func toCommentRow(comment ledger.Comment) commentRow {
	return commentRow{
		Address:     string(comment.Address),
		PostAddress: string(comment.Post),
		Author:      string(comment.Author),
		ContentURI:  comment.ContentRef,
		CreatedAt:   comment.CreatedAt,
		Bump:        int16(comment.Bump),
	}
}

func fromCommentRow(row commentRow) ledger.Comment {
	return ledger.Comment{
		Address:    ledger.Address(row.Address),
		Post:       ledger.Address(row.PostAddress),
		Author:     ledger.Identity(row.Author),
		ContentRef: row.ContentURI,
		CreatedAt:  row.CreatedAt,
		Bump:       uint8(row.Bump),
	}
}
