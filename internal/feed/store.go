package feed

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Store owns the ordered post sequence of the feed. It is the only place
// like and comment counts live; overlays write back into it by post id.
type Store struct {
	remote   RemoteStore
	gate     *Gate
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time

	refreshes singleflight.Group

	mu         sync.RWMutex
	posts      []Post
	inflight   int
	generation uint64
	// started numbers each remote listing; applied is the newest one installed
	started uint64
	applied uint64
}

// NewStore creates an empty store
func NewStore(remote RemoteStore, gate *Gate, notifier Notifier, logger *zap.Logger) *Store {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		remote:   remote,
		gate:     gate,
		notifier: notifier,
		logger:   logger.With(zap.String("component", "feed-store")),
		now:      time.Now,
	}
}

// Posts returns a copy of the current sequence, newest first.
func (s *Store) Posts() []Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Post, len(s.posts))
	copy(out, s.posts)
	return out
}

// Post looks a post up by id.
func (s *Store) Post(id string) (Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.posts[i], true
	}
	return Post{}, false
}

// Loading reports whether a refresh is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight > 0
}

// Refresh replaces the sequence with the store's current posts. Calls that
// arrive while a refresh is running share its outcome. A caller whose context
// ends stops waiting; the shared refresh keeps running for the others.
func (s *Store) Refresh(ctx context.Context) error {
	ch := s.refreshes.DoChan("refresh", func() (interface{}, error) {
		return nil, s.refresh(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Shared {
			s.logger.Debug("Refresh coalesced")
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) refresh(ctx context.Context) error {
	// one "now" for the whole batch keeps labels consistent with each other
	now := s.now()

	s.mu.Lock()
	s.inflight++
	s.started++
	seq := s.started
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inflight--
		s.mu.Unlock()
	}()

	posts, err := s.remote.ListPosts(ctx)
	if err != nil {
		err = asRemoteError("list posts", err)
		s.logger.Warn("Feed refresh failed", zap.Error(err))
		s.notifier.Report(KindRemoteStoreFailure, "Could not load the feed: "+err.Error())
		return err
	}

	next := make([]Post, len(posts))
	copy(next, posts)
	sortPosts(next)
	for i := range next {
		next[i].TimeAgo = FormatRelative(next[i].CreatedAt, now)
	}

	s.mu.Lock()
	if seq < s.applied {
		// a listing requested later has already been installed
		s.mu.Unlock()
		s.logger.Debug("Dropped superseded refresh", zap.Uint64("seq", seq))
		return nil
	}
	s.posts = next
	s.applied = seq
	s.generation++
	s.mu.Unlock()

	s.logger.Debug("Feed refreshed", zap.Int("posts", len(next)))
	return nil
}

// SubmitPost creates a post and refreshes so the feed shows the store's id and timestamp.
// Blank content is ignored.
func (s *Store) SubmitPost(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	session, err := s.gate.RequireSession(ctx)
	if err != nil {
		return err
	}

	created, err := s.remote.CreatePost(ctx, session.UserID, content)
	if err != nil {
		err = asRemoteError("create post", err)
		s.logger.Warn("Post submission failed", zap.Error(err))
		s.notifier.Report(KindRemoteStoreFailure, "Could not publish your post: "+err.Error())
		return err
	}

	s.logger.Info("Post created", zap.String("post_id", created.ID), zap.String("author_id", session.UserID))

	// a refresh already in flight listed posts before the create; start a new one
	s.refreshes.Forget("refresh")
	return s.Refresh(ctx)
}

// apply mutates the post with the given id under the lock and returns the
// generation the mutation was applied to.
func (s *Store) apply(id string, fn func(p *Post)) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return s.generation, false
	}
	fn(&s.posts[i])
	return s.generation, true
}

// applyAt is apply restricted to an unchanged generation: it is a no-op once a
// refresh has replaced the sequence.
func (s *Store) applyAt(id string, generation uint64, fn func(p *Post)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		return false
	}
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	fn(&s.posts[i])
	return true
}

func (s *Store) indexOf(id string) int {
	for i := range s.posts {
		if s.posts[i].ID == id {
			return i
		}
	}
	return -1
}

// sortPosts orders newest first; equal timestamps fall back to id, higher first.
func sortPosts(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID > posts[j].ID
	})
}
