package feed

import (
	"context"
	"fmt"
	"sync"
	"time"
)

var baseTime = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

type callGate struct {
	started chan struct{}
	release chan struct{}
}

// fakeRemote is an in-memory record store whose calls can be counted, failed or held open.
type fakeRemote struct {
	mu       sync.Mutex
	posts    []Post
	comments map[string][]Comment
	calls    map[string]int
	errs     map[string]error
	gates    map[string]*callGate
	lastLike struct {
		postID, userID string
		on             bool
	}
	seq int
}

func newFakeRemote(posts ...Post) *fakeRemote {
	return &fakeRemote{
		posts:    posts,
		comments: make(map[string][]Comment),
		calls:    make(map[string]int),
		errs:     make(map[string]error),
		gates:    make(map[string]*callGate),
	}
}

func (f *fakeRemote) failWith(op string, err error) {
	f.mu.Lock()
	f.errs[op] = err
	f.mu.Unlock()
}

func (f *fakeRemote) hold(op string) *callGate {
	g := &callGate{started: make(chan struct{}, 8), release: make(chan struct{})}
	f.mu.Lock()
	f.gates[op] = g
	f.mu.Unlock()
	return g
}

// unhold lets later calls through; calls already waiting stay on their gate
func (f *fakeRemote) unhold(op string) {
	f.mu.Lock()
	delete(f.gates, op)
	f.mu.Unlock()
}

func (f *fakeRemote) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeRemote) setPost(p Post) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.posts {
		if f.posts[i].ID == p.ID {
			f.posts[i] = p
			return
		}
	}
	f.posts = append(f.posts, p)
}

// enter records the call, waits on a held gate and returns the configured error.
func (f *fakeRemote) enter(op string) error {
	f.mu.Lock()
	f.calls[op]++
	g := f.gates[op]
	f.mu.Unlock()

	if g != nil {
		g.started <- struct{}{}
		<-g.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[op]
}

// ListPosts answers with the posts as they were when the request arrived
func (f *fakeRemote) ListPosts(ctx context.Context) ([]Post, error) {
	f.mu.Lock()
	out := make([]Post, len(f.posts))
	copy(out, f.posts)
	f.mu.Unlock()

	if err := f.enter("ListPosts"); err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeRemote) CreatePost(ctx context.Context, authorID, content string) (Post, error) {
	if err := f.enter("CreatePost"); err != nil {
		return Post{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	p := Post{
		ID:        fmt.Sprintf("p-new-%d", f.seq),
		Author:    Author{ID: authorID},
		Content:   content,
		CreatedAt: baseTime,
	}
	f.posts = append(f.posts, p)
	return p, nil
}

func (f *fakeRemote) ListComments(ctx context.Context, postID string) ([]Comment, error) {
	if err := f.enter("ListComments"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Comment, len(f.comments[postID]))
	copy(out, f.comments[postID])
	return out, nil
}

func (f *fakeRemote) CreateComment(ctx context.Context, postID, authorID, content string) (Comment, error) {
	if err := f.enter("CreateComment"); err != nil {
		return Comment{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	c := Comment{
		ID:        fmt.Sprintf("c-new-%d", f.seq),
		PostID:    postID,
		Author:    Author{ID: authorID},
		Content:   content,
		CreatedAt: baseTime,
	}
	f.comments[postID] = append(f.comments[postID], c)
	return c, nil
}

func (f *fakeRemote) SetLike(ctx context.Context, postID, userID string, on bool) error {
	if err := f.enter("SetLike"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLike.postID, f.lastLike.userID, f.lastLike.on = postID, userID, on
	for i := range f.posts {
		if f.posts[i].ID == postID {
			setLiked(&f.posts[i], on)
		}
	}
	return nil
}

type report struct {
	kind    Kind
	message string
}

type recordingNotifier struct {
	mu      sync.Mutex
	reports []report
}

func (n *recordingNotifier) Report(kind Kind, message string) {
	n.mu.Lock()
	n.reports = append(n.reports, report{kind, message})
	n.mu.Unlock()
}

func (n *recordingNotifier) kinds() []Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Kind, 0, len(n.reports))
	for _, r := range n.reports {
		out = append(out, r.kind)
	}
	return out
}

func signedIn(userID string) SessionSource {
	return SessionFunc(func(context.Context) (Session, bool) {
		return Session{ID: "session-" + userID, UserID: userID}, true
	})
}

func signedOut() SessionSource {
	return SessionFunc(func(context.Context) (Session, bool) {
		return Session{}, false
	})
}

// newTestFeed builds a Feed over remote with a fixed clock and refreshes it once.
func newTestFeed(remote *fakeRemote, sessions SessionSource) (*Feed, *recordingNotifier) {
	notifier := &recordingNotifier{}
	f := New(remote, sessions, notifier, nil)
	clock := func() time.Time { return baseTime.Add(2 * time.Hour) }
	f.Store.now = clock
	f.Comments.now = clock
	if err := f.Store.Refresh(context.Background()); err != nil {
		panic(err)
	}
	return f, notifier
}

func samplePosts() []Post {
	return []Post{
		{ID: "p1", Author: Author{ID: "u2", Name: "Ada"}, Content: "first", LikeCount: 3, CommentCount: 1, CreatedAt: baseTime.Add(-3 * time.Hour)},
		{ID: "p2", Author: Author{ID: "u3", Name: "Lin"}, Content: "second", LikeCount: 0, CreatedAt: baseTime.Add(-30 * time.Minute)},
		{ID: "p3", Author: Author{ID: "u2", Name: "Ada"}, Content: "third", LikeCount: 7, LikedByCurrentUser: true, CreatedAt: baseTime.Add(-2 * 24 * time.Hour)},
	}
}
