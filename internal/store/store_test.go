package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/roach88/whisper/internal/ledger"
)

// backends returns every RecordStore implementation under test. The sqlite
// backend gets a fresh on-disk database per call; Postgres is exercised only
// in environments that provide a server and is covered by the same service
// and harness flows through the shared contract here.
func backends(t *testing.T) map[string]RecordStore {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return map[string]RecordStore{
		"memory": NewMemory(),
		"sqlite": s,
	}
}

func testPost(owner ledger.Identity, contentRef string) ledger.Post {
	addr, bump := ledger.MustDerivePostAddress(owner)
	return ledger.Post{
		Address:    addr,
		Owner:      owner,
		ContentRef: contentRef,
		CreatedAt:  1700000000,
		Bump:       bump,
	}
}

func testComment(post ledger.Address, author ledger.Identity, contentRef string) ledger.Comment {
	addr, bump := ledger.MustDeriveCommentAddress(post, author)
	return ledger.Comment{
		Address:    addr,
		Post:       post,
		Author:     author,
		ContentRef: contentRef,
		CreatedAt:  1700000001,
		Bump:       bump,
	}
}

func TestCreatePost_DuplicateRejected(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			post := testPost("alice", "uri-1")

			if err := st.CreatePost(ctx, post); err != nil {
				t.Fatalf("first CreatePost failed: %v", err)
			}

			dup := post
			dup.ContentRef = "uri-2"
			if err := st.CreatePost(ctx, dup); !errors.Is(err, ErrAlreadyExists) {
				t.Fatalf("second CreatePost = %v, want ErrAlreadyExists", err)
			}

			// The occupied address keeps the first record's state.
			got, err := st.GetPost(ctx, post.Address)
			if err != nil {
				t.Fatalf("GetPost failed: %v", err)
			}
			if got.ContentRef != "uri-1" {
				t.Errorf("ContentRef = %q, want %q (first write wins)", got.ContentRef, "uri-1")
			}
		})
	}
}

func TestGetPost_NotFound(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.GetPost(context.Background(), "feedface")
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("GetPost = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestMutatePost_IncrementsCounter(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			post := testPost("alice", "uri-1")
			if err := st.CreatePost(ctx, post); err != nil {
				t.Fatalf("CreatePost failed: %v", err)
			}

			for i := 1; i <= 3; i++ {
				updated, err := st.MutatePost(ctx, post.Address, func(p *ledger.Post) error {
					p.ReactionCount++
					return nil
				})
				if err != nil {
					t.Fatalf("MutatePost failed: %v", err)
				}
				if updated.ReactionCount != uint64(i) {
					t.Errorf("ReactionCount = %d, want %d", updated.ReactionCount, i)
				}
			}

			got, err := st.GetPost(ctx, post.Address)
			if err != nil {
				t.Fatalf("GetPost failed: %v", err)
			}
			if got.ReactionCount != 3 {
				t.Errorf("persisted ReactionCount = %d, want 3", got.ReactionCount)
			}
		})
	}
}

func TestMutatePost_NotFound(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.MutatePost(context.Background(), "feedface", func(p *ledger.Post) error {
				p.ReactionCount++
				return nil
			})
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("MutatePost = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestMutatePost_FnErrorLeavesRecordUnchanged(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			post := testPost("alice", "uri-1")
			if err := st.CreatePost(ctx, post); err != nil {
				t.Fatalf("CreatePost failed: %v", err)
			}

			wantErr := errors.New("boom")
			_, err := st.MutatePost(ctx, post.Address, func(p *ledger.Post) error {
				p.ReactionCount = 99
				return wantErr
			})
			if !errors.Is(err, wantErr) {
				t.Fatalf("MutatePost = %v, want wrapped fn error", err)
			}

			got, err := st.GetPost(ctx, post.Address)
			if err != nil {
				t.Fatalf("GetPost failed: %v", err)
			}
			if got.ReactionCount != 0 {
				t.Errorf("ReactionCount = %d, want 0 after failed mutate", got.ReactionCount)
			}
		})
	}
}

func TestMutatePost_OnlyCountersPersist(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			post := testPost("alice", "uri-1")
			if err := st.CreatePost(ctx, post); err != nil {
				t.Fatalf("CreatePost failed: %v", err)
			}

			_, err := st.MutatePost(ctx, post.Address, func(p *ledger.Post) error {
				p.ContentRef = "hijacked"
				p.Owner = "mallory"
				p.CommentCount++
				return nil
			})
			if err != nil {
				t.Fatalf("MutatePost failed: %v", err)
			}

			got, err := st.GetPost(ctx, post.Address)
			if err != nil {
				t.Fatalf("GetPost failed: %v", err)
			}
			if got.ContentRef != "uri-1" || got.Owner != "alice" {
				t.Errorf("identity fields changed: owner=%q contentRef=%q", got.Owner, got.ContentRef)
			}
			if got.CommentCount != 1 {
				t.Errorf("CommentCount = %d, want 1", got.CommentCount)
			}
		})
	}
}

func TestCreateComment_DuplicateRejected(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			post := testPost("alice", "uri-1")
			if err := st.CreatePost(ctx, post); err != nil {
				t.Fatalf("CreatePost failed: %v", err)
			}

			comment := testComment(post.Address, "bob", "c-1")
			if err := st.CreateComment(ctx, comment); err != nil {
				t.Fatalf("first CreateComment failed: %v", err)
			}
			if err := st.CreateComment(ctx, comment); !errors.Is(err, ErrAlreadyExists) {
				t.Fatalf("second CreateComment = %v, want ErrAlreadyExists", err)
			}
		})
	}
}

func TestGetComment_NotFound(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.GetComment(context.Background(), "feedface")
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("GetComment = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestAtomic_RollsBackOnError(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			post := testPost("alice", "uri-1")
			if err := st.CreatePost(ctx, post); err != nil {
				t.Fatalf("CreatePost failed: %v", err)
			}

			comment := testComment(post.Address, "bob", "c-1")
			wantErr := errors.New("abort")
			err := st.Atomic(ctx, func(tx RecordStore) error {
				if err := tx.CreateComment(ctx, comment); err != nil {
					return err
				}
				if _, err := tx.MutatePost(ctx, post.Address, func(p *ledger.Post) error {
					p.CommentCount++
					return nil
				}); err != nil {
					return err
				}
				return wantErr
			})
			if !errors.Is(err, wantErr) {
				t.Fatalf("Atomic = %v, want fn error", err)
			}

			// Neither half of the transaction is observable.
			if _, err := st.GetComment(ctx, comment.Address); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetComment after rollback = %v, want ErrNotFound", err)
			}
			got, err := st.GetPost(ctx, post.Address)
			if err != nil {
				t.Fatalf("GetPost failed: %v", err)
			}
			if got.CommentCount != 0 {
				t.Errorf("CommentCount = %d, want 0 after rollback", got.CommentCount)
			}
		})
	}
}

func TestAtomic_CommitsOnSuccess(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			post := testPost("alice", "uri-1")
			if err := st.CreatePost(ctx, post); err != nil {
				t.Fatalf("CreatePost failed: %v", err)
			}

			comment := testComment(post.Address, "bob", "c-1")
			err := st.Atomic(ctx, func(tx RecordStore) error {
				if err := tx.CreateComment(ctx, comment); err != nil {
					return err
				}
				_, err := tx.MutatePost(ctx, post.Address, func(p *ledger.Post) error {
					p.CommentCount++
					return nil
				})
				return err
			})
			if err != nil {
				t.Fatalf("Atomic failed: %v", err)
			}

			if _, err := st.GetComment(ctx, comment.Address); err != nil {
				t.Errorf("GetComment after commit = %v, want nil", err)
			}
			got, err := st.GetPost(ctx, post.Address)
			if err != nil {
				t.Fatalf("GetPost failed: %v", err)
			}
			if got.CommentCount != 1 {
				t.Errorf("CommentCount = %d, want 1 after commit", got.CommentCount)
			}
		})
	}
}

func TestPosts_DeterministicOrdering(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			p1 := testPost("alice", "uri-1")
			p1.CreatedAt = 100
			p2 := testPost("bob", "uri-2")
			p2.CreatedAt = 50
			p3 := testPost("carol", "uri-3")
			p3.CreatedAt = 100

			for _, p := range []ledger.Post{p1, p2, p3} {
				if err := st.CreatePost(ctx, p); err != nil {
					t.Fatalf("CreatePost failed: %v", err)
				}
			}

			posts, err := st.Posts(ctx)
			if err != nil {
				t.Fatalf("Posts failed: %v", err)
			}
			if len(posts) != 3 {
				t.Fatalf("len(Posts) = %d, want 3", len(posts))
			}

			if posts[0].Owner != "bob" {
				t.Errorf("posts[0].Owner = %q, want bob (earliest created_at)", posts[0].Owner)
			}
			// Equal created_at ties break on address.
			if !(posts[1].Address < posts[2].Address) {
				t.Errorf("posts with equal created_at not in address order: %s, %s",
					posts[1].Address, posts[2].Address)
			}
		})
	}
}

func TestPosts_EmptyStore(t *testing.T) {
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			posts, err := st.Posts(context.Background())
			if err != nil {
				t.Fatalf("Posts failed: %v", err)
			}
			if posts == nil {
				t.Error("Posts returned nil, want empty slice")
			}
			if len(posts) != 0 {
				t.Errorf("len(Posts) = %d, want 0", len(posts))
			}
		})
	}
}
