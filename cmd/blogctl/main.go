// Command blogctl is a terminal client for the blog API. Credentials are
// kept in the user config directory between runs.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/inkwell/blog/pkg/client"
	"github.com/inkwell/blog/pkg/logger"
)

func main() {
	server := flag.String("server", envOr("BLOG_SERVER", "http://localhost:8080"), "API base URL")
	debug := flag.Bool("debug", false, "log session events to stderr")
	flag.Usage = usage
	flag.Parse()

	level := "warn"
	if *debug {
		level = "debug"
	}
	log := logger.Init(logger.Options{Level: level, Pretty: true, Output: os.Stderr})

	store, err := client.DefaultFileStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app := &cli{in: bufio.NewReader(os.Stdin), out: os.Stdout}
	app.session = client.NewSession(client.New(*server), store,
		client.WithLogger(log),
		client.WithRedirect(func() {
			fmt.Fprintln(os.Stderr, "Your session has expired. Run `blogctl login` to sign in again.")
		}),
	)
	app.session.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.run(ctx, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `usage: blogctl [-server URL] <command> [args]

commands:
  register                         create an account and sign in
  login                            sign in
  logout                           forget stored credentials
  whoami                           show the signed-in user
  posts [-page N] [-limit N] [-category ID] [-search TEXT] [-sort KEY]
  search TEXT                      quick search over published posts
  show ID|SLUG                     print a post with its comments
  new -title T -content C [-excerpt E] [-category ID] [-image FILE] [-draft]
  delete ID                        delete one of your posts
  comment ID TEXT                  comment on a post
  categories                       list categories
  add-category NAME [DESCRIPTION]  create a category (admin)
`)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
