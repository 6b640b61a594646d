package remote

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/steemit/feedsync/internal/api"
	"github.com/steemit/feedsync/internal/auth"
	"github.com/steemit/feedsync/internal/db"
	"github.com/steemit/feedsync/internal/feed"
	"github.com/steemit/feedsync/pkg/config"
)

type reports struct {
	kinds []feed.Kind
}

func (r *reports) Report(kind feed.Kind, _ string) { r.kinds = append(r.kinds, kind) }

func startStore(t *testing.T) (*httptest.Server, *auth.Signer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := db.Open(sqlite.Open(":memory:"), "error")
	require.NoError(t, err)
	sqlDB, err := database.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(context.Background()))
	t.Cleanup(func() { _ = database.Close() })

	authCfg := &config.AuthConfig{Secret: "test-secret", Issuer: "feedsync", TokenTTL: time.Hour}
	verifier, err := auth.NewVerifier(authCfg)
	require.NoError(t, err)
	signer, err := auth.NewSigner(authCfg)
	require.NoError(t, err)

	engine := gin.New()
	api.NewRouter(database, nil, verifier).SetupRoutes(engine)

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv, signer
}

func newClientFeed(t *testing.T, url string, session *auth.TokenSession) (*feed.Feed, *reports) {
	t.Helper()
	client, err := New(&config.StoreConfig{URL: url + "/rpc", Timeout: 5 * time.Second}, session)
	require.NoError(t, err)
	r := &reports{}
	return feed.New(client, session, r, nil), r
}

func TestFeedAgainstRecordStore(t *testing.T) {
	srv, signer := startStore(t)
	ctx := context.Background()

	aliceToken, err := signer.Sign("alice", "Alice")
	require.NoError(t, err)
	alice, _ := newClientFeed(t, srv.URL, auth.NewTokenSession(aliceToken))

	require.NoError(t, alice.Store.SubmitPost(ctx, "first post"))
	posts := alice.Store.Posts()
	require.Len(t, posts, 1)
	postID := posts[0].ID
	assert.Equal(t, "Alice", posts[0].Author.Name)
	assert.Equal(t, "now", posts[0].TimeAgo)

	require.NoError(t, alice.Likes.ToggleLike(ctx, postID))
	p, ok := alice.Store.Post(postID)
	require.True(t, ok)
	assert.Equal(t, 1, p.LikeCount)
	assert.True(t, p.LikedByCurrentUser)

	require.NoError(t, alice.Comments.Expand(ctx, postID))
	assert.Empty(t, alice.Comments.Comments(postID))
	require.NoError(t, alice.Comments.SubmitComment(ctx, postID, "  me first  "))
	comments := alice.Comments.Comments(postID)
	require.Len(t, comments, 1)
	assert.Equal(t, "me first", comments[0].Content)
	p, _ = alice.Store.Post(postID)
	assert.Equal(t, 1, p.CommentCount)

	// a second viewer sees the confirmed counts but not alice's like flag
	bobToken, err := signer.Sign("bob", "Bob")
	require.NoError(t, err)
	bob, _ := newClientFeed(t, srv.URL, auth.NewTokenSession(bobToken))
	require.NoError(t, bob.Store.Refresh(ctx))
	p, ok = bob.Store.Post(postID)
	require.True(t, ok)
	assert.Equal(t, 1, p.LikeCount)
	assert.Equal(t, 1, p.CommentCount)
	assert.False(t, p.LikedByCurrentUser)

	require.NoError(t, alice.Likes.ToggleLike(ctx, postID))
	require.NoError(t, bob.Store.Refresh(ctx))
	p, _ = bob.Store.Post(postID)
	assert.Equal(t, 0, p.LikeCount)
}

func TestFeedAgainstRecordStore_SignedOut(t *testing.T) {
	srv, signer := startStore(t)
	ctx := context.Background()

	token, err := signer.Sign("alice", "Alice")
	require.NoError(t, err)
	alice, _ := newClientFeed(t, srv.URL, auth.NewTokenSession(token))
	require.NoError(t, alice.Store.SubmitPost(ctx, "hello"))

	anon, r := newClientFeed(t, srv.URL, auth.NewTokenSession(""))
	require.NoError(t, anon.Store.Refresh(ctx))
	postID := anon.Store.Posts()[0].ID

	err = anon.Likes.ToggleLike(ctx, postID)
	assert.ErrorIs(t, err, feed.ErrAuthenticationRequired)
	assert.Equal(t, []feed.Kind{feed.KindAuthenticationRequired}, r.kinds)

	p, _ := anon.Store.Post(postID)
	assert.Equal(t, 0, p.LikeCount)
	assert.Equal(t, feed.LikeIdle, anon.Likes.State(postID))
}

func TestFeedAgainstRecordStore_RejectedToken(t *testing.T) {
	srv, _ := startStore(t)
	ctx := context.Background()

	// readable subject, but signed with a different secret
	other, err := auth.NewSigner(&config.AuthConfig{Secret: "other", Issuer: "feedsync", TokenTTL: time.Hour})
	require.NoError(t, err)
	forged, err := other.Sign("mallory", "")
	require.NoError(t, err)

	f, r := newClientFeed(t, srv.URL, auth.NewTokenSession(forged))
	err = f.Store.SubmitPost(ctx, "let me in")
	require.Error(t, err)
	assert.ErrorIs(t, err, feed.ErrRemoteStore)
	assert.Equal(t, []feed.Kind{feed.KindRemoteStoreFailure}, r.kinds)
	assert.Empty(t, f.Store.Posts())
}
