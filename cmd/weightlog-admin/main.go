// Command weightlog-admin manages accounts directly in the database.
//
//	weightlog-admin user list
//	weightlog-admin user add [-english] [-goal N] [-password P] NAME
//	weightlog-admin user passwd [-password P] NAME
//	weightlog-admin user delete NAME
//
// When -password is omitted the password is read from the first line of
// standard input.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"weightlog/internal/app"
	"weightlog/internal/config"
	"weightlog/internal/domain"
	"weightlog/internal/storage"
)

var errUsage = errors.New("usage: weightlog-admin user list|add|passwd|delete [flags] [NAME]")

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadAdmin()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintln(os.Stderr, "db open:", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	accounts := app.NewAccountService(store, app.NewHasher(cfg.BcryptCost))
	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, accounts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		_ = store.Close()
		os.Exit(2)
	}
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer, accounts *app.AccountService) error {
	if len(args) < 2 || args[0] != "user" {
		return errUsage
	}
	cmd, rest := args[1], args[2:]

	switch cmd {
	case "list":
		return listUsers(ctx, out, accounts)
	case "add":
		return addUser(ctx, rest, in, out, accounts)
	case "passwd":
		return resetPassword(ctx, rest, in, out, accounts)
	case "delete":
		return deleteUser(ctx, rest, out, accounts)
	default:
		return errUsage
	}
}

func listUsers(ctx context.Context, out io.Writer, accounts *app.AccountService) error {
	users, err := accounts.List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME\tUNIT\tGOAL\tCREATED")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%g\t%s\n", u.ID, u.Username, domain.UnitName(u.Metric), u.GoalWeight, u.CreatedAt.Format("2006-01-02"))
	}
	return tw.Flush()
}

func addUser(ctx context.Context, args []string, in io.Reader, out io.Writer, accounts *app.AccountService) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	english := fs.Bool("english", false, "record weights in pounds")
	goal := fs.Float64("goal", 0, "goal weight in the chosen unit")
	password := fs.String("password", "", "password (read from stdin when empty)")
	name, err := parseName(fs, args)
	if err != nil {
		return err
	}
	pw, err := passwordFrom(*password, in)
	if err != nil {
		return err
	}

	u, err := accounts.Create(ctx, app.Settings{Username: name, Metric: !*english, GoalWeight: *goal}, pw)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "created user %s (id %d)\n", u.Username, u.ID)
	return nil
}

func resetPassword(ctx context.Context, args []string, in io.Reader, out io.Writer, accounts *app.AccountService) error {
	fs := flag.NewFlagSet("passwd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	password := fs.String("password", "", "new password (read from stdin when empty)")
	name, err := parseName(fs, args)
	if err != nil {
		return err
	}
	pw, err := passwordFrom(*password, in)
	if err != nil {
		return err
	}

	u, err := accounts.FindByUsername(ctx, name)
	if err != nil {
		return err
	}
	if err := accounts.ResetPassword(ctx, u.ID, pw); err != nil {
		return err
	}
	fmt.Fprintf(out, "password updated for %s\n", u.Username)
	return nil
}

func deleteUser(ctx context.Context, args []string, out io.Writer, accounts *app.AccountService) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	name, err := parseName(fs, args)
	if err != nil {
		return err
	}
	u, err := accounts.FindByUsername(ctx, name)
	if err != nil {
		return err
	}
	if err := accounts.Delete(ctx, u.ID); err != nil {
		return err
	}
	fmt.Fprintf(out, "deleted user %s and all entries\n", u.Username)
	return nil
}

func parseName(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", fmt.Errorf("%s: %w", fs.Name(), err)
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s: exactly one username is required", fs.Name())
	}
	return fs.Arg(0), nil
}

func passwordFrom(flagValue string, in io.Reader) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
