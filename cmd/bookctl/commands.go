package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"bookshelf/internal/service"
	"bookshelf/internal/storage"
)

// serviceOpener builds the book service for one command run. The returned
// function releases the store.
type serviceOpener func(ctx context.Context) (service.BookService, func() error, error)

// newRootCmd assembles the command tree. open is only called by commands that
// touch the library.
func newRootCmd(open serviceOpener) *cobra.Command {
	root := &cobra.Command{
		Use:           "bookctl",
		Short:         "Manage the bookshelf library from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// withService opens the service, runs fn and closes the store.
	withService := func(fn func(cmd *cobra.Command, args []string, books service.BookService, p *printer) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			books, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				_ = closeFn()
			}()
			return fn(cmd, args, books, newPrinter(cmd.OutOrStdout()))
		}
	}

	root.AddCommand(
		newListCmd(withService),
		newGetCmd(withService),
		newSearchCmd(withService),
		newAddCmd(withService),
		newRemoveCmd(withService),
		newStatusCmd(withService),
		newNextIDCmd(withService),
		newRenumberCmd(withService),
		newSimilarCmd(withService),
		newReindexCmd(withService),
		newHashPasswordCmd(),
	)
	return root
}

type runner func(fn func(cmd *cobra.Command, args []string, books service.BookService, p *printer) error) func(*cobra.Command, []string) error

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid book id %q: must be a positive integer", arg)
	}
	return id, nil
}

func newListCmd(run runner) *cobra.Command {
	var status, category, query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books, optionally filtered by status, category or text",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = run(func(cmd *cobra.Command, _ []string, books service.BookService, p *printer) error {
		filter := service.ListFilter{Query: query}
		if status != "" {
			s, err := storage.ParseStatus(status)
			if err != nil {
				return err
			}
			filter.Status = &s
		}
		if category != "" {
			c, err := storage.ParseCategory(category)
			if err != nil {
				return err
			}
			filter.Category = &c
		}

		list, err := books.List(cmd.Context(), filter)
		if err != nil {
			return err
		}
		p.books(list)
		return nil
	})
	cmd.Flags().StringVar(&status, "status", "", "reading, unread, finished or 0-2")
	cmd.Flags().StringVar(&category, "category", "", "non-fiction, fiction, textbook or a number")
	cmd.Flags().StringVarP(&query, "query", "q", "", "match title or author")
	return cmd
}

func newGetCmd(run runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show one book",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = run(func(cmd *cobra.Command, args []string, books service.BookService, p *printer) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		book, err := books.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		p.book(*book)
		return nil
	})
	return cmd
}

func newSearchCmd(run runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Find books whose title or author contains QUERY",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.RunE = run(func(cmd *cobra.Command, args []string, books service.BookService, p *printer) error {
		p.books(books.Search(cmd.Context(), strings.Join(args, " ")))
		return nil
	})
	return cmd
}

func newAddCmd(run runner) *cobra.Command {
	var (
		req              service.AddRequest
		status, category string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a book to the end of the library",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = run(func(cmd *cobra.Command, _ []string, books service.BookService, p *printer) error {
		if status != "" {
			s, err := storage.ParseStatus(status)
			if err != nil {
				return err
			}
			req.Status = &s
		}
		if category != "" {
			c, err := storage.ParseCategory(category)
			if err != nil {
				return err
			}
			req.Category = &c
		}

		res, err := books.Add(cmd.Context(), req)
		if err != nil {
			return err
		}
		if res.IsDuplicate {
			p.warning("%s", res.Message)
			return nil
		}
		p.success("Added #%d %q by %s", res.ID, res.Book.Title, res.Book.Author)
		if res.Enriched {
			p.note("Details were filled in by the metadata assistant.")
		}
		return nil
	})
	cmd.Flags().StringVarP(&req.Title, "title", "t", "", "book title")
	cmd.Flags().StringVarP(&req.Author, "author", "a", "", "book author")
	cmd.Flags().StringVar(&status, "status", "", "reading, unread or finished (default unread)")
	cmd.Flags().StringVar(&category, "category", "", "non-fiction, fiction or textbook (default non-fiction)")
	cmd.Flags().StringVar(&req.Genre, "genre", "", "genre")
	cmd.Flags().StringVar(&req.Description, "description", "", "short description")
	cmd.Flags().BoolVar(&req.Enrich, "enrich", false, "ask the completion model to correct and complete the details")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("author")
	return cmd
}

func newRemoveCmd(run runner) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "remove ID",
		Short: "Delete a book and renumber the books below it",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = run(func(cmd *cobra.Command, args []string, books service.BookService, p *printer) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if dryRun {
			return previewRemove(ctx, books, id, p)
		}

		if err := books.Remove(ctx, id); err != nil {
			var renumberErr *service.RenumberError
			if errors.As(err, &renumberErr) {
				p.warning("Book %d was removed but ids from row %d on are stale. Run 'bookctl renumber'.", id, renumberErr.Row)
			}
			return err
		}
		p.success("Removed book %d. Books below it moved up one id.", id)
		return nil
	})
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the resulting ids without writing")
	return cmd
}

// previewRemove prints the ids every later book would receive if the row at id were removed.
func previewRemove(ctx context.Context, books service.BookService, id int, p *printer) error {
	preview, err := books.PreviewRemove(ctx, id)
	if err != nil {
		return err
	}

	p.note("Would remove row %d %q by %s", id, preview.Title, preview.Author)
	if preview.StoredID != strconv.Itoa(id) {
		p.warning("Row %d holds id %q; run 'bookctl renumber' to repair ids.", id, preview.StoredID)
	}
	for _, m := range preview.Moves {
		title := m.Title
		if title == "" {
			title = "(blank row)"
		}
		fmt.Fprintf(p.w, "  #%s -> #%d  %s\n", m.OldID, m.NewID, title)
	}
	p.note("%d book(s) would be renumbered", len(preview.Moves))
	return nil
}

func newStatusCmd(run runner) *cobra.Command {
	var expectTitle, expectAuthor string
	cmd := &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Move a book to a new reading status",
		Long: "Move a book to a new reading status. The book is deleted from its row and " +
			"appended at the end of the library, so its id changes.",
		Args: cobra.ExactArgs(2),
	}
	cmd.RunE = run(func(cmd *cobra.Command, args []string, books service.BookService, p *printer) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		status, err := storage.ParseStatus(args[1])
		if err != nil {
			return err
		}

		req := service.StatusChangeRequest{ID: id, Status: status}
		if expectTitle != "" || expectAuthor != "" {
			req.Expected = &service.Expected{Title: expectTitle, Author: expectAuthor}
		}

		res, err := books.ChangeStatus(cmd.Context(), req)
		if err != nil {
			var partial *service.PartialFailureError
			if errors.As(err, &partial) {
				p.warning("%q was deleted but not re-added. Add it again with:", partial.Book.Title)
				fmt.Fprintf(p.w, "  bookctl add --title %q --author %q --status %d --category %d --genre %q --description %q\n",
					partial.Book.Title, partial.Book.Author, int(partial.Book.Status), int(partial.Book.Category),
					partial.Book.Genre, partial.Book.Description)
			}
			return err
		}
		if res.AlreadySet {
			p.note("%q is already %s", res.Book.Title, res.Book.Status)
			return nil
		}
		p.success("%q is now %s (id %d -> %d)", res.Book.Title, p.statusText(res.Book.Status), res.PreviousID, res.Book.ID)
		return nil
	})
	cmd.Flags().StringVar(&expectTitle, "expect-title", "", "refuse the change unless the book at ID has this title")
	cmd.Flags().StringVar(&expectAuthor, "expect-author", "", "refuse the change unless the book at ID has this author")
	return cmd
}

func newNextIDCmd(run runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next-id",
		Short: "Print the id the next added book will get",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = run(func(cmd *cobra.Command, _ []string, books service.BookService, p *printer) error {
		hint := books.LatestID(cmd.Context())
		fmt.Fprintln(p.w, hint.ID)
		if hint.Fallback {
			return fmt.Errorf("could not read the library, %d is a placeholder", hint.ID)
		}
		return nil
	})
	return cmd
}

func newRenumberCmd(run runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "renumber",
		Short: "Rewrite every id to match its row",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = run(func(cmd *cobra.Command, _ []string, books service.BookService, p *printer) error {
		if err := books.Repair(cmd.Context()); err != nil {
			return err
		}
		p.success("Ids repaired")
		return nil
	})
	return cmd
}

func newReindexCmd(run runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the similar-books index from the library",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = run(func(cmd *cobra.Command, _ []string, books service.BookService, p *printer) error {
		if err := books.Reindex(cmd.Context()); err != nil {
			return err
		}
		p.success("Similar-books index rebuilt")
		return nil
	})
	return cmd
}

func newSimilarCmd(run runner) *cobra.Command {
	var (
		k            int
		sameCategory bool
	)
	cmd := &cobra.Command{
		Use:   "similar ID",
		Short: "List books similar to one in the library",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = run(func(cmd *cobra.Command, args []string, books service.BookService, p *printer) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		hits, err := books.Similar(cmd.Context(), id, k, sameCategory)
		if err != nil {
			return err
		}
		p.similar(hits)
		return nil
	})
	cmd.Flags().IntVarP(&k, "limit", "k", 5, "number of results")
	cmd.Flags().BoolVar(&sameCategory, "same-category", false, "only books in the same category")
	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Print a bcrypt hash for APP_PASSWORD_HASH",
		Long: "Print a bcrypt hash for APP_PASSWORD_HASH. The password is read without echo " +
			"from a terminal, or as the first line of standard input otherwise.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if password == "" {
				return errors.New("password cannot be empty")
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}

// readPassword prompts with masking on a terminal and asks twice; piped input is read as one line.
func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		first, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprint(prompt, "Confirm password: ")
		second, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		if string(first) != string(second) {
			return "", errors.New("passwords do not match")
		}
		return strings.TrimSpace(string(first)), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}
