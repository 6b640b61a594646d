package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/steemit/feedsync/internal/auth"
	"github.com/steemit/feedsync/internal/feed"
	"github.com/steemit/feedsync/internal/notify"
	"github.com/steemit/feedsync/internal/remote"
	"github.com/steemit/feedsync/pkg/config"
	"github.com/steemit/feedsync/pkg/logging"
	"github.com/steemit/feedsync/pkg/telemetry"
)

const usage = `usage: feed [-v] <command> [args]

commands:
  list                      show the feed, newest first
  show <post-id>            fetch one post straight from the store
  post <text>               publish a post
  like <post-id>            like or unlike a post
  comments <post-id>        show the comments of a post
  comment <post-id> <text>  comment on a post
  token <user-id> [name]    mint a session token with the configured secret
`

var errUsage = errors.New("bad usage")

// postLookup fetches a single post from the record store
type postLookup interface {
	GetPost(ctx context.Context, postID string) (feed.Post, error)
}

func main() {
	verbose := flag.Bool("v", false, "log at debug level")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// the terminal is for feed output; only errors are logged unless -v
	cfg.Logging.Level = "ERROR"
	if *verbose {
		cfg.Logging.Level = "DEBUG"
	}
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()
	logger := logging.GetLogger()

	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	args := flag.Args()
	if len(args) > 0 && args[0] == "token" {
		err = mintToken(os.Stdout, &cfg.Auth, args[1:])
	} else {
		err = runClient(ctx, cfg, logger, args)
	}

	if errors.Is(err, errUsage) {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		// the notifier has already shown the user-facing message
		logger.Debug("Command failed", zap.Error(err))
		os.Exit(1)
	}
}

func runClient(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string) error {
	session := auth.NewTokenSession(cfg.Auth.Token)
	client, err := remote.New(&cfg.Store, session)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create store client: %v\n", err)
		return err
	}

	notifier := notify.Multi{notify.NewConsole(os.Stderr), notify.NewLog(logger)}
	f := feed.New(client, session, notifier, logger)
	return run(ctx, os.Stdout, f, client, args)
}

func mintToken(w io.Writer, cfg *config.AuthConfig, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	signer, err := auth.NewSigner(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot mint tokens: %v (set FEED_AUTH_SECRET)\n", err)
		return err
	}
	name := args[0]
	if len(args) == 2 {
		name = args[1]
	}
	token, err := signer.Sign(args[0], name)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, token)
	return nil
}

// run executes one command against f and prints the result to w
func run(ctx context.Context, w io.Writer, f *feed.Feed, lookup postLookup, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "list":
		if len(rest) != 0 {
			return errUsage
		}
		if err := f.Store.Refresh(ctx); err != nil {
			return err
		}
		printPosts(w, f.Store.Posts())
		return nil

	case "show":
		if len(rest) != 1 {
			return errUsage
		}
		p, err := lookup.GetPost(ctx, rest[0])
		if err != nil {
			if errors.Is(err, feed.ErrPostNotFound) {
				fmt.Fprintf(os.Stderr, "No post %s in the store\n", rest[0])
			}
			return err
		}
		p.TimeAgo = feed.FormatRelative(p.CreatedAt, time.Now())
		printPost(w, p)
		return nil

	case "post":
		text := strings.Join(rest, " ")
		if strings.TrimSpace(text) == "" {
			return errUsage
		}
		if err := f.Store.SubmitPost(ctx, text); err != nil {
			return err
		}
		printPosts(w, f.Store.Posts())
		return nil

	case "like":
		if len(rest) != 1 {
			return errUsage
		}
		postID := rest[0]
		if err := f.Store.Refresh(ctx); err != nil {
			return err
		}
		if err := f.Likes.ToggleLike(ctx, postID); err != nil {
			if errors.Is(err, feed.ErrPostNotFound) {
				fmt.Fprintf(os.Stderr, "No post %s in the feed\n", postID)
			}
			return err
		}
		if p, ok := f.Store.Post(postID); ok {
			printPost(w, p)
		}
		return nil

	case "comments":
		if len(rest) != 1 {
			return errUsage
		}
		if err := f.Comments.Expand(ctx, rest[0]); err != nil {
			return err
		}
		printComments(w, f.Comments.Comments(rest[0]))
		return nil

	case "comment":
		if len(rest) < 2 {
			return errUsage
		}
		postID := rest[0]
		if err := f.Store.Refresh(ctx); err != nil {
			return err
		}
		if err := f.Comments.Expand(ctx, postID); err != nil {
			return err
		}
		if err := f.Comments.SubmitComment(ctx, postID, strings.Join(rest[1:], " ")); err != nil {
			return err
		}
		printComments(w, f.Comments.Comments(postID))
		return nil

	default:
		return errUsage
	}
}

func printPosts(w io.Writer, posts []feed.Post) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "The feed is empty.")
		return
	}
	for _, p := range posts {
		printPost(w, p)
	}
}

func printPost(w io.Writer, p feed.Post) {
	heart := "♡"
	if p.LikedByCurrentUser {
		heart = "♥"
	}
	fmt.Fprintf(w, "%s  %s · %s\n", p.ID, authorLine(p.Author), p.TimeAgo)
	fmt.Fprintf(w, "    %s\n", p.Content)
	if p.ImageURL != "" {
		fmt.Fprintf(w, "    [image] %s\n", p.ImageURL)
	}
	fmt.Fprintf(w, "    %s %d  comments %d  shares %d\n\n", heart, p.LikeCount, p.CommentCount, p.ShareCount)
}

func printComments(w io.Writer, comments []feed.Comment) {
	if len(comments) == 0 {
		fmt.Fprintln(w, "No comments yet.")
		return
	}
	for _, c := range comments {
		fmt.Fprintf(w, "%s · %s\n    %s\n", authorLine(c.Author), c.TimeAgo, c.Content)
	}
}

func authorLine(a feed.Author) string {
	line := a.Name
	if line == "" {
		line = a.ID
	}
	if a.Verified {
		line += " ✓"
	}
	if a.Title != "" {
		line += " (" + a.Title + ")"
	}
	return line
}
