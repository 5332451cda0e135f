package store

import (
	"context"
	"sort"
	"sync"

	"github.com/roach88/whisper/internal/ledger"
)

// Memory is an in-memory RecordStore for tests and ephemeral use.
//
// A single RW mutex serializes writers, which is exactly the execution
// model the ledger core assumes from its host: no two transactions touching
// the same address commit concurrently. Atomic bodies run with the write
// lock held and stage their writes, so a failing body leaves no trace.
type Memory struct {
	mu       sync.RWMutex
	posts    map[ledger.Address]ledger.Post
	comments map[ledger.Address]ledger.Comment
}

var _ RecordStore = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		posts:    make(map[ledger.Address]ledger.Post),
		comments: make(map[ledger.Address]ledger.Comment),
	}
}

func (m *Memory) CreatePost(ctx context.Context, post ledger.Post) error {
	return m.Atomic(ctx, func(tx RecordStore) error {
		return tx.CreatePost(ctx, post)
	})
}

func (m *Memory) GetPost(ctx context.Context, addr ledger.Address) (ledger.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	post, ok := m.posts[addr]
	if !ok {
		return ledger.Post{}, ErrNotFound
	}
	return post, nil
}

func (m *Memory) MutatePost(ctx context.Context, addr ledger.Address, fn func(*ledger.Post) error) (ledger.Post, error) {
	var out ledger.Post
	err := m.Atomic(ctx, func(tx RecordStore) error {
		var err error
		out, err = tx.MutatePost(ctx, addr, fn)
		return err
	})
	if err != nil {
		return ledger.Post{}, err
	}
	return out, nil
}

func (m *Memory) CreateComment(ctx context.Context, comment ledger.Comment) error {
	return m.Atomic(ctx, func(tx RecordStore) error {
		return tx.CreateComment(ctx, comment)
	})
}

func (m *Memory) GetComment(ctx context.Context, addr ledger.Address) (ledger.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	comment, ok := m.comments[addr]
	if !ok {
		return ledger.Comment{}, ErrNotFound
	}
	return comment, nil
}

func (m *Memory) Posts(ctx context.Context) ([]ledger.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	posts := make([]ledger.Post, 0, len(m.posts))
	for _, p := range m.posts {
		posts = append(posts, p)
	}
	sortPosts(posts)
	return posts, nil
}

// Atomic holds the write lock for the whole body. Writes are staged in the
// transaction view and copied into the base maps only when fn succeeds.
func (m *Memory) Atomic(ctx context.Context, fn func(tx RecordStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{
		base:     m,
		posts:    make(map[ledger.Address]ledger.Post),
		comments: make(map[ledger.Address]ledger.Comment),
	}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// memTx stages writes against a Memory store. The caller holds the store's
// write lock for the lifetime of the view.
type memTx struct {
	base     *Memory
	posts    map[ledger.Address]ledger.Post    // staged creates and mutations
	comments map[ledger.Address]ledger.Comment // staged creates
}

var _ RecordStore = (*memTx)(nil)

func (t *memTx) commit() {
	for addr, post := range t.posts {
		t.base.posts[addr] = post
	}
	for addr, comment := range t.comments {
		t.base.comments[addr] = comment
	}
}

func (t *memTx) CreatePost(ctx context.Context, post ledger.Post) error {
	if _, ok := t.posts[post.Address]; ok {
		return ErrAlreadyExists
	}
	if _, ok := t.base.posts[post.Address]; ok {
		return ErrAlreadyExists
	}
	t.posts[post.Address] = post
	return nil
}

func (t *memTx) GetPost(ctx context.Context, addr ledger.Address) (ledger.Post, error) {
	if post, ok := t.posts[addr]; ok {
		return post, nil
	}
	if post, ok := t.base.posts[addr]; ok {
		return post, nil
	}
	return ledger.Post{}, ErrNotFound
}

func (t *memTx) MutatePost(ctx context.Context, addr ledger.Address, fn func(*ledger.Post) error) (ledger.Post, error) {
	post, err := t.GetPost(ctx, addr)
	if err != nil {
		return ledger.Post{}, err
	}

	updated := post
	if err := fn(&updated); err != nil {
		return ledger.Post{}, err
	}

	// Only the counters are mutable; everything else keeps its stored value.
	post.ReactionCount = updated.ReactionCount
	post.CommentCount = updated.CommentCount
	t.posts[addr] = post
	return post, nil
}

func (t *memTx) CreateComment(ctx context.Context, comment ledger.Comment) error {
	if _, ok := t.comments[comment.Address]; ok {
		return ErrAlreadyExists
	}
	if _, ok := t.base.comments[comment.Address]; ok {
		return ErrAlreadyExists
	}
	t.comments[comment.Address] = comment
	return nil
}

func (t *memTx) GetComment(ctx context.Context, addr ledger.Address) (ledger.Comment, error) {
	if comment, ok := t.comments[addr]; ok {
		return comment, nil
	}
	if comment, ok := t.base.comments[addr]; ok {
		return comment, nil
	}
	return ledger.Comment{}, ErrNotFound
}

func (t *memTx) Posts(ctx context.Context) ([]ledger.Post, error) {
	seen := make(map[ledger.Address]bool, len(t.posts))
	posts := make([]ledger.Post, 0, len(t.base.posts)+len(t.posts))
	for addr, p := range t.posts {
		seen[addr] = true
		posts = append(posts, p)
	}
	for addr, p := range t.base.posts {
		if !seen[addr] {
			posts = append(posts, p)
		}
	}
	sortPosts(posts)
	return posts, nil
}

// Atomic on a transactional view joins the enclosing transaction.
func (t *memTx) Atomic(ctx context.Context, fn func(tx RecordStore) error) error {
	return fn(t)
}

func sortPosts(posts []ledger.Post) {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt != posts[j].CreatedAt {
			return posts[i].CreatedAt < posts[j].CreatedAt
		}
		return posts[i].Address < posts[j].Address
	})
}
