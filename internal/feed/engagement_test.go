package feed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPost(t *testing.T, s *Store, id string) Post {
	t.Helper()
	p, ok := s.Post(id)
	require.True(t, ok, "post %s not in feed", id)
	return p
}

func TestEngagement_ToggleLike(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote(samplePosts()...)
	f, notifier := newTestFeed(remote, signedIn("u1"))

	require.NoError(t, f.Likes.ToggleLike(ctx, "p1"))
	p := mustPost(t, f.Store, "p1")
	assert.True(t, p.LikedByCurrentUser)
	assert.Equal(t, 4, p.LikeCount)
	assert.Equal(t, LikeIdle, f.Likes.State("p1"))
	assert.Equal(t, "u1", remote.lastLike.userID)
	assert.True(t, remote.lastLike.on)

	require.NoError(t, f.Likes.ToggleLike(ctx, "p1"))
	p = mustPost(t, f.Store, "p1")
	assert.False(t, p.LikedByCurrentUser)
	assert.Equal(t, 3, p.LikeCount)
	assert.False(t, remote.lastLike.on)

	assert.Equal(t, 2, remote.callCount("SetLike"))
	assert.Empty(t, notifier.kinds())
}

func TestEngagement_SecondToggleWhilePendingIsNoop(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote(samplePosts()...)
	f, _ := newTestFeed(remote, signedIn("u1"))
	gate := remote.hold("SetLike")

	done := make(chan error, 1)
	go func() { done <- f.Likes.ToggleLike(ctx, "p2") }()
	<-gate.started

	assert.Equal(t, LikePending, f.Likes.State("p2"))
	optimistic := mustPost(t, f.Store, "p2")
	assert.True(t, optimistic.LikedByCurrentUser)
	assert.Equal(t, 1, optimistic.LikeCount)

	require.NoError(t, f.Likes.ToggleLike(ctx, "p2"))
	assert.Equal(t, 1, remote.callCount("SetLike"))
	assert.Equal(t, optimistic, mustPost(t, f.Store, "p2"))

	close(gate.release)
	require.NoError(t, <-done)

	assert.Equal(t, LikeIdle, f.Likes.State("p2"))
	assert.Equal(t, 1, remote.callCount("SetLike"))
	assert.Equal(t, 1, mustPost(t, f.Store, "p2").LikeCount)
}

func TestEngagement_TogglesOnDifferentPostsAreIndependent(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote(samplePosts()...)
	f, _ := newTestFeed(remote, signedIn("u1"))
	gate := remote.hold("SetLike")

	done := make(chan error, 2)
	go func() { done <- f.Likes.ToggleLike(ctx, "p1") }()
	<-gate.started
	go func() { done <- f.Likes.ToggleLike(ctx, "p3") }()
	<-gate.started

	assert.Equal(t, LikePending, f.Likes.State("p1"))
	assert.Equal(t, LikePending, f.Likes.State("p3"))
	close(gate.release)
	require.NoError(t, <-done)
	require.NoError(t, <-done)

	assert.Equal(t, 2, remote.callCount("SetLike"))
	assert.Equal(t, 4, mustPost(t, f.Store, "p1").LikeCount)
	assert.Equal(t, 6, mustPost(t, f.Store, "p3").LikeCount)
}

func TestEngagement_FailureRollsBack(t *testing.T) {
	ctx := context.Background()

	for _, id := range []string{"p1", "p3"} {
		t.Run(id, func(t *testing.T) {
			remote := newFakeRemote(samplePosts()...)
			f, notifier := newTestFeed(remote, signedIn("u1"))
			before := mustPost(t, f.Store, id)
			remote.failWith("SetLike", errors.New("timeout"))

			err := f.Likes.ToggleLike(ctx, id)

			assert.ErrorIs(t, err, ErrRemoteStore)
			after := mustPost(t, f.Store, id)
			assert.Equal(t, before.LikeCount, after.LikeCount)
			assert.Equal(t, before.LikedByCurrentUser, after.LikedByCurrentUser)
			assert.Equal(t, LikeIdle, f.Likes.State(id))
			assert.Equal(t, []Kind{KindRemoteStoreFailure}, notifier.kinds())
		})
	}
}

func TestEngagement_SignedOut(t *testing.T) {
	remote := newFakeRemote(samplePosts()...)
	f, notifier := newTestFeed(remote, signedOut())
	before := mustPost(t, f.Store, "p1")

	err := f.Likes.ToggleLike(context.Background(), "p1")

	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.Equal(t, []Kind{KindAuthenticationRequired}, notifier.kinds())
	assert.Equal(t, before, mustPost(t, f.Store, "p1"))
	assert.Equal(t, LikeIdle, f.Likes.State("p1"))
	assert.Zero(t, remote.callCount("SetLike"))
}

func TestEngagement_UnknownPost(t *testing.T) {
	remote := newFakeRemote(samplePosts()...)
	f, _ := newTestFeed(remote, signedIn("u1"))

	err := f.Likes.ToggleLike(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.Zero(t, remote.callCount("SetLike"))
	assert.Equal(t, LikeIdle, f.Likes.State("missing"))
}

func TestEngagement_RefreshDuringFailedToggleWins(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote(samplePosts()...)
	f, _ := newTestFeed(remote, signedIn("u1"))
	gate := remote.hold("SetLike")
	remote.failWith("SetLike", errors.New("timeout"))

	done := make(chan error, 1)
	go func() { done <- f.Likes.ToggleLike(ctx, "p1") }()
	<-gate.started

	// someone else liked the post meanwhile
	server := samplePosts()[0]
	server.LikeCount = 10
	remote.setPost(server)
	require.NoError(t, f.Store.Refresh(ctx))

	close(gate.release)
	assert.ErrorIs(t, <-done, ErrRemoteStore)

	p := mustPost(t, f.Store, "p1")
	assert.Equal(t, 10, p.LikeCount)
	assert.False(t, p.LikedByCurrentUser)
}

func TestEngagement_RefreshDuringSuccessfulToggleReappliesDelta(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote(samplePosts()...)
	f, _ := newTestFeed(remote, signedIn("u1"))
	gate := remote.hold("SetLike")

	done := make(chan error, 1)
	go func() { done <- f.Likes.ToggleLike(ctx, "p1") }()
	<-gate.started

	server := samplePosts()[0]
	server.LikeCount = 10
	remote.setPost(server)
	require.NoError(t, f.Store.Refresh(ctx))
	assert.Equal(t, 10, mustPost(t, f.Store, "p1").LikeCount)

	close(gate.release)
	require.NoError(t, <-done)

	p := mustPost(t, f.Store, "p1")
	assert.Equal(t, 11, p.LikeCount)
	assert.True(t, p.LikedByCurrentUser)
}

func TestLikeState_String(t *testing.T) {
	assert.Equal(t, "idle", LikeIdle.String())
	assert.Equal(t, "pending", LikePending.String())
	assert.Equal(t, "LikeState(7)", LikeState(7).String())
}
