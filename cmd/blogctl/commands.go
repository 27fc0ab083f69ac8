package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/inkwell/blog/pkg/client"
)

var errUsage = errors.New("invalid arguments; run blogctl -h for usage")

type cli struct {
	session *client.Session
	in      *bufio.Reader
	out     io.Writer
}

func (a *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "register":
		return a.register(ctx)
	case "login":
		return a.login(ctx)
	case "logout":
		if err := a.session.SignOut(); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Signed out.")
		return nil
	case "whoami":
		return a.whoami()
	case "posts":
		return a.posts(ctx, rest)
	case "search":
		return a.search(ctx, rest)
	case "show":
		return a.show(ctx, rest)
	case "new":
		return a.newPost(ctx, rest)
	case "delete":
		return a.deletePost(ctx, rest)
	case "comment":
		return a.comment(ctx, rest)
	case "categories":
		return a.categories(ctx)
	case "add-category":
		return a.addCategory(ctx, rest)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *cli) register(ctx context.Context) error {
	name, err := promptLine(a.in, a.out, "Name")
	if err != nil {
		return err
	}
	email, err := promptLine(a.in, a.out, "Email")
	if err != nil {
		return err
	}
	password, err := promptPassword(a.out)
	if err != nil {
		return err
	}
	if err := a.session.SignUp(ctx, name, email, password); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s.\n", a.session.User().Name)
	return nil
}

func (a *cli) login(ctx context.Context) error {
	email, err := promptLine(a.in, a.out, "Email")
	if err != nil {
		return err
	}
	password, err := promptPassword(a.out)
	if err != nil {
		return err
	}
	if err := a.session.SignIn(ctx, email, password); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s.\n", a.session.User().Email)
	return nil
}

func (a *cli) whoami() error {
	if a.session.State() != client.StateAuthenticated {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}
	u := a.session.User()
	fmt.Fprintf(a.out, "%s <%s> (%s)\n", u.Name, u.Email, u.Role)
	return nil
}

// requireSession fails fast instead of sending a request the server
// will reject.
func (a *cli) requireSession() error {
	if a.session.State() != client.StateAuthenticated {
		return errors.New("not signed in; run blogctl login")
	}
	return nil
}

func (a *cli) posts(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("posts", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var opts client.ListOptions
	fs.IntVar(&opts.Page, "page", 0, "")
	fs.IntVar(&opts.Limit, "limit", 0, "")
	fs.StringVar(&opts.Category, "category", "", "")
	fs.StringVar(&opts.Search, "search", "", "")
	fs.StringVar(&opts.Sort, "sort", "", "")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	page, err := a.session.Client().ListPosts(ctx, opts)
	if err != nil {
		return err
	}
	a.printSummaries(page.Posts)
	fmt.Fprintf(a.out, "page %d of %d (%d posts)\n", page.CurrentPage, page.TotalPages, page.Total)
	return nil
}

func (a *cli) search(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	items, err := a.session.Client().SearchPosts(ctx, strings.Join(args, " "), 0)
	if err != nil {
		return err
	}
	a.printSummaries(items)
	return nil
}

func (a *cli) printSummaries(items []client.PostSummary) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSLUG\tAUTHOR\tCATEGORY\tVIEWS")
	for _, p := range items {
		category := "-"
		if p.Category != nil {
			category = p.Category.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", p.ID, p.Slug, p.Author.Name, category, p.ViewCount)
	}
	tw.Flush()
}

func (a *cli) show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	p, err := a.session.Client().GetPost(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\nby %s on %s", p.Title, p.Author.Name, p.CreatedAt.Format("2006-01-02"))
	if p.Category != nil {
		fmt.Fprintf(a.out, " in %s", p.Category.Name)
	}
	if !p.IsPublished {
		fmt.Fprint(a.out, " [draft]")
	}
	fmt.Fprintf(a.out, "\n\n%s\n", p.Content)
	if p.FeaturedImageURL != "" {
		fmt.Fprintf(a.out, "\nimage: %s\n", p.FeaturedImageURL)
	}
	if len(p.Comments) > 0 {
		fmt.Fprintf(a.out, "\n%d comments\n", len(p.Comments))
		for _, c := range p.Comments {
			fmt.Fprintf(a.out, "  %s: %s\n", c.User.Name, c.Content)
		}
	}
	return nil
}

func (a *cli) newPost(ctx context.Context, args []string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var in client.PostInput
	fs.StringVar(&in.Title, "title", "", "")
	fs.StringVar(&in.Content, "content", "", "")
	fs.StringVar(&in.Excerpt, "excerpt", "", "")
	fs.StringVar(&in.Category, "category", "", "")
	image := fs.String("image", "", "")
	draft := fs.Bool("draft", false, "")
	if err := fs.Parse(args); err != nil || in.Title == "" || in.Content == "" {
		return errUsage
	}
	published := !*draft
	in.IsPublished = &published

	if *image != "" {
		f, err := os.Open(*image)
		if err != nil {
			return err
		}
		defer f.Close()
		in.Image = &client.Image{
			Filename:    filepath.Base(*image),
			ContentType: mime.TypeByExtension(filepath.Ext(*image)),
			Body:        f,
		}
	}

	p, err := a.session.Client().CreatePost(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created %s (%s).\n", p.Slug, p.ID)
	return nil
}

func (a *cli) deletePost(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if err := a.requireSession(); err != nil {
		return err
	}
	if err := a.session.Client().DeletePost(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Deleted.")
	return nil
}

func (a *cli) comment(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	if err := a.requireSession(); err != nil {
		return err
	}
	if _, err := a.session.Client().AddComment(ctx, args[0], strings.Join(args[1:], " ")); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Comment added.")
	return nil
}

func (a *cli) categories(ctx context.Context) error {
	cats, err := a.session.Client().ListCategories(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSLUG")
	for _, c := range cats {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Name, c.Slug)
	}
	return tw.Flush()
}

func (a *cli) addCategory(ctx context.Context, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return errUsage
	}
	if err := a.requireSession(); err != nil {
		return err
	}
	description := ""
	if len(args) == 2 {
		description = args[1]
	}
	c, err := a.session.Client().CreateCategory(ctx, args[0], description)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created category %s (%s).\n", c.Name, c.ID)
	return nil
}
