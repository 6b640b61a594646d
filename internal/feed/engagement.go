package feed

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// LikeState is the per-post state of the like toggle.
type LikeState int

const (
	LikeIdle LikeState = iota
	LikePending
)

func (s LikeState) String() string {
	switch s {
	case LikeIdle:
		return "idle"
	case LikePending:
		return "pending"
	default:
		return fmt.Sprintf("LikeState(%d)", int(s))
	}
}

// Engagement runs the like toggle for every post in a Store. A post has at
// most one request in flight; the visible count is either the confirmed value
// or one optimistic step away from it.
type Engagement struct {
	store    *Store
	remote   RemoteStore
	gate     *Gate
	notifier Notifier
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[string]bool
}

// NewEngagement creates a like controller writing into store
func NewEngagement(store *Store, remote RemoteStore, gate *Gate, notifier Notifier, logger *zap.Logger) *Engagement {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engagement{
		store:    store,
		remote:   remote,
		gate:     gate,
		notifier: notifier,
		logger:   logger.With(zap.String("component", "engagement")),
		pending:  make(map[string]bool),
	}
}

// State returns the toggle state of a post.
func (e *Engagement) State(postID string) LikeState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending[postID] {
		return LikePending
	}
	return LikeIdle
}

// ToggleLike flips the viewer's like on a post, optimistically, and rolls the
// flip back if the store rejects it. A call made while another toggle for the
// same post is pending does nothing.
func (e *Engagement) ToggleLike(ctx context.Context, postID string) error {
	if !e.claim(postID) {
		e.logger.Debug("Like toggle already pending", zap.String("post_id", postID))
		return nil
	}
	defer e.release(postID)

	session, err := e.gate.RequireSession(ctx)
	if err != nil {
		return err
	}

	var prevLiked, on bool
	var prevCount int
	generation, ok := e.store.apply(postID, func(p *Post) {
		prevLiked, prevCount = p.LikedByCurrentUser, p.LikeCount
		on = !p.LikedByCurrentUser
		setLiked(p, on)
	})
	if !ok {
		return fmt.Errorf("%w: %s", ErrPostNotFound, postID)
	}

	if err := e.remote.SetLike(ctx, postID, session.UserID, on); err != nil {
		err = asRemoteError("set like", err)
		restored := e.store.applyAt(postID, generation, func(p *Post) {
			p.LikedByCurrentUser, p.LikeCount = prevLiked, prevCount
		})
		e.logger.Warn("Like toggle failed",
			zap.String("post_id", postID),
			zap.Bool("on", on),
			zap.Bool("rolled_back", restored),
			zap.Error(err))
		e.notifier.Report(KindRemoteStoreFailure, "Could not update your like: "+err.Error())
		return err
	}

	// A refresh may have replaced the record while the request was out;
	// setLiked is a no-op when the current record already agrees.
	e.store.apply(postID, func(p *Post) { setLiked(p, on) })
	return nil
}

func (e *Engagement) claim(postID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending[postID] {
		return false
	}
	e.pending[postID] = true
	return true
}

func (e *Engagement) release(postID string) {
	e.mu.Lock()
	delete(e.pending, postID)
	e.mu.Unlock()
}

func setLiked(p *Post, on bool) {
	if p.LikedByCurrentUser == on {
		return
	}
	p.LikedByCurrentUser = on
	if on {
		p.LikeCount++
	} else if p.LikeCount > 0 {
		p.LikeCount--
	}
}
