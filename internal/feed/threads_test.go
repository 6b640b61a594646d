package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedComments(remote *fakeRemote) {
	remote.comments["p1"] = []Comment{
		{ID: "c2", PostID: "p1", Content: "second", CreatedAt: baseTime.Add(-10 * time.Minute)},
		{ID: "c1", PostID: "p1", Content: "first", CreatedAt: baseTime.Add(-2 * time.Hour)},
	}
}

func commentIDs(comments []Comment) []string {
	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestThreads_ExpandLoadsOnce(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote(samplePosts()...)
	seedComments(remote)
	f, _ := newTestFeed(remote, signedOut())

	require.NoError(t, f.Comments.Expand(ctx, "p1"))
	require.NoError(t, f.Comments.Expand(ctx, "p1"))

	assert.Equal(t, 1, remote.callCount("ListComments"))
	assert.True(t, f.Comments.Expanded("p1"))
	comments := f.Comments.Comments("p1")
	assert.Equal(t, []string{"c1", "c2"}, commentIDs(comments))
	assert.Equal(t, "4h", comments[0].TimeAgo)
	assert.Equal(t, "2h", comments[1].TimeAgo)
}

func TestThreads_CollapseKeepsCache(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote(samplePosts()...)
	seedComments(remote)
	f, _ := newTestFeed(remote, signedOut())

	require.NoError(t, f.Comments.Expand(ctx, "p1"))
	f.Comments.Collapse("p1")
	assert.False(t, f.Comments.Expanded("p1"))
	assert.Len(t, f.Comments.Comments("p1"), 2)

	require.NoError(t, f.Comments.Expand(ctx, "p1"))
	assert.True(t, f.Comments.Expanded("p1"))
	assert.Equal(t, 1, remote.callCount("ListComments"))
}

func TestThreads_ExpandFailureAllowsRetry(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote(samplePosts()...)
	seedComments(remote)
	f, notifier := newTestFeed(remote, signedOut())
	remote.failWith("ListComments", errors.New("502"))

	err := f.Comments.Expand(ctx, "p1")
	assert.ErrorIs(t, err, ErrRemoteStore)
	assert.False(t, f.Comments.Expanded("p1"))
	assert.Empty(t, f.Comments.Comments("p1"))
	assert.Equal(t, []Kind{KindRemoteStoreFailure}, notifier.kinds())

	remote.failWith("ListComments", nil)
	require.NoError(t, f.Comments.Expand(ctx, "p1"))
	assert.Equal(t, 2, remote.callCount("ListComments"))
	assert.Len(t, f.Comments.Comments("p1"), 2)
}

func TestThreads_SubmitComment(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote(samplePosts()...)
	seedComments(remote)
	f, notifier := newTestFeed(remote, signedIn("u1"))
	require.NoError(t, f.Comments.Expand(ctx, "p1"))

	require.NoError(t, f.Comments.SubmitComment(ctx, "p1", "  nice post "))

	comments := f.Comments.Comments("p1")
	require.Len(t, comments, 3)
	last := comments[2]
	assert.Equal(t, "nice post", last.Content)
	assert.Equal(t, "u1", last.Author.ID)
	assert.Equal(t, "2h", last.TimeAgo)
	assert.Equal(t, 2, mustPost(t, f.Store, "p1").CommentCount)
	assert.False(t, f.Comments.Posting("p1"))
	assert.Empty(t, notifier.kinds())
}

func TestThreads_SubmitBlankComment(t *testing.T) {
	remote := newFakeRemote(samplePosts()...)
	f, notifier := newTestFeed(remote, signedIn("u1"))

	for _, text := range []string{"", "   ", "\n\t"} {
		require.NoError(t, f.Comments.SubmitComment(context.Background(), "p1", text))
	}

	assert.Zero(t, remote.callCount("CreateComment"))
	assert.Equal(t, 1, mustPost(t, f.Store, "p1").CommentCount)
	assert.Empty(t, notifier.kinds())
}

func TestThreads_SubmitCommentSignedOut(t *testing.T) {
	remote := newFakeRemote(samplePosts()...)
	f, notifier := newTestFeed(remote, signedOut())

	err := f.Comments.SubmitComment(context.Background(), "p1", "hello")

	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.Zero(t, remote.callCount("CreateComment"))
	assert.Equal(t, []Kind{KindAuthenticationRequired}, notifier.kinds())
	assert.False(t, f.Comments.Posting("p1"))
}

func TestThreads_SubmitCommentFailure(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote(samplePosts()...)
	seedComments(remote)
	f, notifier := newTestFeed(remote, signedIn("u1"))
	require.NoError(t, f.Comments.Expand(ctx, "p1"))
	remote.failWith("CreateComment", errors.New("500"))

	err := f.Comments.SubmitComment(ctx, "p1", "hello")

	assert.ErrorIs(t, err, ErrRemoteStore)
	assert.Len(t, f.Comments.Comments("p1"), 2)
	assert.Equal(t, 1, mustPost(t, f.Store, "p1").CommentCount)
	assert.False(t, f.Comments.Posting("p1"))
	assert.Equal(t, []Kind{KindRemoteStoreFailure}, notifier.kinds())
}

func TestThreads_DuplicateSubmitWhilePosting(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote(samplePosts()...)
	f, _ := newTestFeed(remote, signedIn("u1"))
	gate := remote.hold("CreateComment")

	done := make(chan error, 1)
	go func() { done <- f.Comments.SubmitComment(ctx, "p2", "first!") }()
	<-gate.started

	assert.True(t, f.Comments.Posting("p2"))
	require.NoError(t, f.Comments.SubmitComment(ctx, "p2", "first!"))
	assert.Empty(t, f.Comments.Comments("p2"))

	close(gate.release)
	require.NoError(t, <-done)

	assert.Equal(t, 1, remote.callCount("CreateComment"))
	assert.Len(t, f.Comments.Comments("p2"), 1)
	assert.Equal(t, 1, mustPost(t, f.Store, "p2").CommentCount)
}

func TestThreads_CommentCountAppliedToRefreshedRecord(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote(samplePosts()...)
	f, _ := newTestFeed(remote, signedIn("u1"))
	gate := remote.hold("CreateComment")

	done := make(chan error, 1)
	go func() { done <- f.Comments.SubmitComment(ctx, "p3", "late") }()
	<-gate.started

	server := samplePosts()[2]
	server.CommentCount = 5
	remote.setPost(server)
	require.NoError(t, f.Store.Refresh(ctx))

	close(gate.release)
	require.NoError(t, <-done)
	assert.Equal(t, 6, mustPost(t, f.Store, "p3").CommentCount)
}

func TestMergeComments(t *testing.T) {
	now := baseTime
	a := []Comment{{ID: "b", CreatedAt: baseTime.Add(-time.Minute)}, {ID: "a", CreatedAt: baseTime.Add(-time.Minute)}}
	b := []Comment{{ID: "a", CreatedAt: baseTime.Add(-time.Minute)}, {ID: "c", CreatedAt: baseTime.Add(-time.Hour)}}

	merged := mergeComments(a, b, now)

	assert.Equal(t, []string{"c", "a", "b"}, commentIDs(merged))
	assert.Equal(t, "1h", merged[0].TimeAgo)
	assert.Equal(t, "1m", merged[1].TimeAgo)
}
