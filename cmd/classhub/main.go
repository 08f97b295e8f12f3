// Command classhub is a small terminal client for the ClassHub API
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"github.com/yigit/classhub/internal/client"
	"github.com/yigit/classhub/internal/domain/reaction"
	"github.com/yigit/classhub/internal/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("classhub failed")
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:  "classhub",
		Usage: "read and react to ClassHub posts",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api", Value: "http://localhost:8080/api", EnvVars: []string{"CLASSHUB_API"}, Usage: "API base URL"},
			&cli.StringFlag{Name: "email", EnvVars: []string{"CLASSHUB_EMAIL"}, Required: true},
			&cli.StringFlag{Name: "password", EnvVars: []string{"CLASSHUB_PASSWORD"}, Required: true},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
		},
		Writer:    out,
		ErrWriter: os.Stderr,
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "print a post with its reactions and comments",
				ArgsUsage: "POST_ID",
				Action:    showPost,
			},
			{
				Name:      "like",
				Usage:     "like a post, or take the like back",
				ArgsUsage: "POST_ID",
				Action:    reactAction(reaction.Like),
			},
			{
				Name:      "dislike",
				Usage:     "dislike a post, or take the dislike back",
				ArgsUsage: "POST_ID",
				Action:    reactAction(reaction.Dislike),
			},
		},
	}
}

// session logs in and builds a reactor for the logged-in user. Failed
// reactions are sent to failures.
func session(c *cli.Context, failures chan<- error) (*client.Reactor, error) {
	level := logger.WarnLevel
	if c.Bool("verbose") {
		level = logger.DebugLevel
	}
	lgr := logger.Configure(logger.Config{Level: level, Pretty: true, Output: os.Stderr})

	api := client.NewHTTPClient(c.String("api"))
	auth, err := api.Login(c.Context, c.String("email"), c.String("password"))
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	return client.NewReactor(c.Context, api, client.NewStore(), client.Config{
		UserID: auth.User.ID,
		Logger: lgr,
		OnError: func(postID string, err error) {
			failures <- fmt.Errorf("reaction on %s failed and was undone: %w", postID, err)
		},
	}), nil
}

func postArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", cli.Exit("expected exactly one POST_ID", 2)
	}
	return c.Args().First(), nil
}

func showPost(c *cli.Context) error {
	postID, err := postArg(c)
	if err != nil {
		return err
	}
	r, err := session(c, make(chan error, 1))
	if err != nil {
		return err
	}
	defer r.Close()

	post, comments, err := r.Load(c.Context, postID)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "[%s] %s\n%s\n\n", post.BoardName, post.Title, post.Content)
	fmt.Fprintf(c.App.Writer, "by %s  views %d  likes %d  dislikes %d  you: %s\n",
		post.Author.Name, post.Views, post.Likes, post.Dislikes, post.UserLike)
	for _, cm := range comments {
		fmt.Fprintf(c.App.Writer, "- %s: %s (%d)\n", cm.Author.Name, cm.Content, cm.LikesCount)
		for _, reply := range cm.Replies {
			fmt.Fprintf(c.App.Writer, "    - %s: %s (%d)\n", reply.Author.Name, reply.Content, reply.LikesCount)
		}
	}
	return nil
}

func reactAction(action reaction.Action) cli.ActionFunc {
	return func(c *cli.Context) error {
		postID, err := postArg(c)
		if err != nil {
			return err
		}
		failures := make(chan error, 1)
		r, err := session(c, failures)
		if err != nil {
			return err
		}
		defer r.Close()

		if _, _, err := r.Load(c.Context, postID); err != nil {
			return err
		}
		optimistic, err := r.React(postID, action)
		if err != nil {
			return err
		}
		printState(c.App.Writer, "sending", optimistic)
		r.Wait()

		select {
		case err := <-failures:
			return err
		default:
		}
		final, _ := r.State(postID)
		if final != optimistic {
			fmt.Fprintf(c.App.Writer, "server corrected the counts\n")
		}
		printState(c.App.Writer, "saved", final)
		return nil
	}
}

func printState(w io.Writer, label string, s reaction.State) {
	fmt.Fprintf(w, "%-8s likes %d  dislikes %d  you: %s\n", label, s.Likes, s.Dislikes, s.Disposition)
}
