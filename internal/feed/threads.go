package feed

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

type thread struct {
	expanded bool
	loaded   bool
	loading  bool
	posting  bool
	comments []Comment
}

// Threads loads comment threads lazily and keeps them for the session.
// Collapsing a thread hides it without dropping the cache.
type Threads struct {
	store    *Store
	remote   RemoteStore
	gate     *Gate
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	threads map[string]*thread
}

// NewThreads creates a comment thread loader writing counts into store
func NewThreads(store *Store, remote RemoteStore, gate *Gate, notifier Notifier, logger *zap.Logger) *Threads {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Threads{
		store:    store,
		remote:   remote,
		gate:     gate,
		notifier: notifier,
		logger:   logger.With(zap.String("component", "comment-threads")),
		now:      time.Now,
		threads:  make(map[string]*thread),
	}
}

// get must be called with t.mu held
func (t *Threads) get(postID string) *thread {
	th, ok := t.threads[postID]
	if !ok {
		th = &thread{}
		t.threads[postID] = th
	}
	return th
}

// Expanded reports whether the thread of a post is open.
func (t *Threads) Expanded(postID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.get(postID).expanded
}

// Posting reports whether a comment submission is in flight for a post.
func (t *Threads) Posting(postID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.get(postID).posting
}

// Comments returns a copy of the cached thread, oldest first.
func (t *Threads) Comments(postID string) []Comment {
	t.mu.Lock()
	defer t.mu.Unlock()
	th := t.get(postID)
	out := make([]Comment, len(th.comments))
	copy(out, th.comments)
	return out
}

// Expand opens a thread, fetching its comments the first time.
func (t *Threads) Expand(ctx context.Context, postID string) error {
	t.mu.Lock()
	th := t.get(postID)
	if th.expanded {
		t.mu.Unlock()
		return nil
	}
	th.expanded = true
	if th.loaded || th.loading {
		t.mu.Unlock()
		return nil
	}
	th.loading = true
	t.mu.Unlock()

	now := t.now()
	fetched, err := t.remote.ListComments(ctx, postID)

	t.mu.Lock()
	th.loading = false
	if err != nil {
		// closed again so the next Expand retries the fetch
		th.expanded = false
		t.mu.Unlock()

		err = asRemoteError("list comments", err)
		t.logger.Warn("Loading comments failed", zap.String("post_id", postID), zap.Error(err))
		t.notifier.Report(KindRemoteStoreFailure, "Could not load comments: "+err.Error())
		return err
	}
	th.comments = mergeComments(fetched, th.comments, now)
	th.loaded = true
	n := len(th.comments)
	t.mu.Unlock()

	t.logger.Debug("Comments loaded", zap.String("post_id", postID), zap.Int("comments", n))
	return nil
}

// Collapse hides a thread. The cache is kept.
func (t *Threads) Collapse(postID string) {
	t.mu.Lock()
	t.get(postID).expanded = false
	t.mu.Unlock()
}

// SubmitComment posts a comment and, once the store confirms it, appends it to
// the thread and bumps the post's comment count. Blank text and submissions
// made while another one is in flight are ignored.
func (t *Threads) SubmitComment(ctx context.Context, postID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	t.mu.Lock()
	th := t.get(postID)
	if th.posting {
		t.mu.Unlock()
		return nil
	}
	th.posting = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		th.posting = false
		t.mu.Unlock()
	}()

	session, err := t.gate.RequireSession(ctx)
	if err != nil {
		return err
	}

	created, err := t.remote.CreateComment(ctx, postID, session.UserID, text)
	if err != nil {
		err = asRemoteError("create comment", err)
		t.logger.Warn("Comment submission failed", zap.String("post_id", postID), zap.Error(err))
		t.notifier.Report(KindRemoteStoreFailure, "Could not post your comment: "+err.Error())
		return err
	}

	t.mu.Lock()
	th.comments = mergeComments(th.comments, []Comment{created}, t.now())
	t.mu.Unlock()

	if _, ok := t.store.apply(postID, func(p *Post) { p.CommentCount++ }); !ok {
		t.logger.Debug("Commented post is not in the feed", zap.String("post_id", postID))
	}
	return nil
}

// mergeComments unions two lists by id, sorts oldest first and relabels.
func mergeComments(base, extra []Comment, now time.Time) []Comment {
	seen := make(map[string]bool, len(base)+len(extra))
	out := make([]Comment, 0, len(base)+len(extra))
	for _, list := range [][]Comment{base, extra} {
		for _, c := range list {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			c.TimeAgo = FormatRelative(c.CreatedAt, now)
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
