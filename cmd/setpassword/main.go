package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"card-manager/internal/config"
	"card-manager/internal/repository"
	"card-manager/internal/service"

	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("setpassword", flag.ContinueOnError)
	fs.SetOutput(stderr)

	userID := fs.String("user", "", "Account user id")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	dbPath := fs.String("db", "", "Path to a SQLite database file (overrides DB_DRIVER and DB_PATH)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *userID == "" {
		fmt.Fprintln(stdout, "Usage: setpassword -user <user_id> [-password <password>] [-db <db_path>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: user")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.DBDriver = config.DriverSQLite
		cfg.DBPath = *dbPath
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	dialect := repository.Dialect(cfg.DBDriver)
	db, err := repository.Open(ctx, dialect, cfg.GetDBConnectionString(), logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	manager := service.NewManager(repository.NewStore(db, dialect, logger), repository.NewMemorySessionStore(), logger)

	account, err := manager.GetAccount(ctx, *userID)
	if err != nil {
		return fmt.Errorf("failed to look up account: %w", err)
	}
	if account == nil {
		return fmt.Errorf("account %s does not exist", *userID)
	}

	if err := manager.SetPassword(ctx, account.UserID, password); err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}

	fmt.Fprintf(stdout, "Password updated for %s\n", account.UserID)
	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
