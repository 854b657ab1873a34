// admin 提供 migrate、setup_permissions、createsuperuser 與關聯查詢等管理指令
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"library-hub/internal/apperrors"
	"library-hub/internal/config"
	"library-hub/internal/database"
	"library-hub/internal/logger"
	"library-hub/internal/service"
	"library-hub/internal/store"

	"golang.org/x/term"
)

const usage = `usage: admin <command> [args]

commands:
  migrate up|down
  setup_permissions [-file groups.yaml]
  createsuperuser -username NAME -email EMAIL [-password PASSWORD]
  query books-by-author NAME
  query books-in-library NAME
  query librarian LIBRARY
`

var (
	loadConfig     = config.Load
	newPgxPool     = database.NewPgxPool
	runMigrations  = database.RunMigrations
	rollbackAll    = database.RollbackAll
	setupGroups    = service.SetupGroupsFrom
	createUser     = store.CreateUser
	listBooks      = store.ListBooks
	getAuthor      = store.GetAuthorByName
	getLibrary     = store.GetLibraryByName
	readPassword   = func() ([]byte, error) { return term.ReadPassword(int(os.Stdin.Fd())) }
	exitFunc       = os.Exit
	errUsage       = errors.New("invalid arguments")
	errPwdMismatch = errors.New("Error: Your passwords didn't match.")
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		} else {
			logger.Error().Err(err).Msg("admin command failed")
		}
		exitFunc(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger.Configure(logger.Config{Level: cfg.LogLevel, Pretty: true})

	switch args[0] {
	case "migrate":
		return migrate(cfg.DatabaseURL, args[1:], out)
	}

	db, err := newPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("DB 連線失敗: %v", err)
	}
	defer db.Close()

	switch args[0] {
	case "setup_permissions":
		return setupPermissions(ctx, db, args[1:], out)
	case "createsuperuser":
		return createSuperuser(ctx, db, args[1:], out)
	case "query":
		return query(ctx, db, args[1:], out)
	default:
		return errUsage
	}
}

func migrate(dbURL string, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errUsage
	}
	switch args[0] {
	case "up":
		if err := runMigrations(dbURL); err != nil {
			return err
		}
	case "down":
		if err := rollbackAll(dbURL); err != nil {
			return err
		}
	default:
		return errUsage
	}
	fmt.Fprintf(out, "migrate %s: OK\n", args[0])
	return nil
}

func setupPermissions(ctx context.Context, db database.DB, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("setup_permissions", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	file := fs.String("file", "", "")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	defs := service.DefaultGroups
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			return err
		}
		defer f.Close()
		if defs, err = service.LoadGroupDefinitions(f); err != nil {
			return err
		}
	}

	results, err := setupGroups(ctx, db, defs)
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Created {
			fmt.Fprintf(out, "Created group %q with %d permissions\n", r.Name, r.Permissions)
		} else {
			fmt.Fprintf(out, "Group %q already exists (%d permissions)\n", r.Name, r.Permissions)
		}
	}
	return nil
}

func createSuperuser(ctx context.Context, db database.DB, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("createsuperuser", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	username := fs.String("username", "", "")
	email := fs.String("email", "", "")
	password := fs.String("password", "", "")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	pw := *password
	if pw == "" {
		fmt.Fprint(out, "Password: ")
		first, err := readPassword()
		if err != nil {
			return err
		}
		fmt.Fprint(out, "\nPassword (again): ")
		second, err := readPassword()
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		if string(first) != string(second) {
			return errPwdMismatch
		}
		pw = string(first)
	}

	u, err := service.BuildSuperuser(service.NewUserInput{Username: *username, Email: *email, Password: pw}, service.SuperuserFlags{})
	if err != nil {
		return err
	}
	if _, err := createUser(ctx, db, u); err != nil {
		return err
	}
	fmt.Fprintln(out, "Superuser created successfully.")
	return nil
}

func query(ctx context.Context, db database.DB, args []string, out io.Writer) error {
	if len(args) < 2 {
		return errUsage
	}
	name := strings.Join(args[1:], " ")
	switch args[0] {
	case "books-by-author":
		a, err := getAuthor(ctx, db, name)
		if apperrors.IsNotFound(err) {
			fmt.Fprintf(out, "No author named %q\n", name)
			return nil
		}
		if err != nil {
			return err
		}
		books, err := listBooks(ctx, db, store.BookFilter{AuthorID: &a.ID, Ordering: []string{"title"}})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Books by %s:\n", a.Name)
		for _, b := range books {
			fmt.Fprintf(out, "  %s (%d)\n", b.Title, b.PublicationYear)
		}
	case "books-in-library":
		l, err := getLibrary(ctx, db, name)
		if apperrors.IsNotFound(err) {
			fmt.Fprintf(out, "No library named %q\n", name)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Books in %s:\n", l.Name)
		for _, b := range l.Books {
			fmt.Fprintf(out, "  %s by %s\n", b.Title, b.AuthorName)
		}
	case "librarian":
		l, err := getLibrary(ctx, db, name)
		if apperrors.IsNotFound(err) {
			fmt.Fprintf(out, "No library named %q\n", name)
			return nil
		}
		if err != nil {
			return err
		}
		if l.Librarian == nil {
			fmt.Fprintf(out, "%s has no librarian\n", l.Name)
			return nil
		}
		fmt.Fprintf(out, "Librarian of %s: %s\n", l.Name, l.Librarian.Name)
	default:
		return errUsage
	}
	return nil
}
