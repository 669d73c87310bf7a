package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"photo-share/internal/apperr"
	"photo-share/internal/collection"
	"photo-share/internal/docstore"
	"photo-share/internal/filesystem"
)

const (
	// Default timeout for document operations
	defaultTimeout = 30 * time.Second
	// Default data directory path
	defaultDataDir = "/data"
	// Default age after which a lock marker counts as stale
	defaultStaleAge = 10 * time.Minute
)

// cli holds the streams and data root a command runs against.
type cli struct {
	dataDir  string
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	terminal bool
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	// Create a context that cancels on interrupt signals
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = defaultDataDir
	}

	c := &cli{
		dataDir:  dataDir,
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		terminal: term.IsTerminal(int(os.Stdin.Fd())),
	}
	os.Exit(c.run(ctx, os.Args[1:]))
}

// run executes one command and returns the process exit code.
func (c *cli) run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		c.printUsage()
		return 2
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	store := docstore.New(c.dataDir, filesystem.DefaultLockConfig())
	albums := collection.NewManager(store)

	var err error
	switch args[0] {
	case "create-admin":
		err = c.createAdmin(ctx, store, albums)
	case "create-collection":
		err = c.createCollection(ctx, albums, args[1:])
	case "delete-collection":
		err = c.deleteCollection(ctx, albums, args[1:])
	case "list":
		err = c.list(albums, args[1:])
	case "locks":
		err = c.locks(args[1:])
	case "unlock":
		err = c.unlock(args[1:])
	case "help", "-h", "--help":
		c.printUsage()
		return 0
	default:
		fmt.Fprintf(c.stderr, "Unknown command: %s\n", sanitizeCommand(args[0]))
		c.printUsage()
		return 2
	}

	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %s\n", describe(err))
		return 1
	}
	return 0
}

// describe renders err with its kind when it carries one.
func describe(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) {
		return fmt.Sprintf("%s: %s", e.Kind, apperr.MessageOf(err))
	}
	return err.Error()
}

// sanitizeCommand returns a safe representation of a command string for display.
// It uses an allowlist approach, replacing any character that is not alphanumeric,
// a hyphen, or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func (c *cli) printUsage() {
	fmt.Fprintln(c.stdout, "Photo Share Administration")
	fmt.Fprintln(c.stdout, "")
	fmt.Fprintln(c.stdout, "Usage: albumctl <command> [flags] [args]")
	fmt.Fprintln(c.stdout, "")
	fmt.Fprintln(c.stdout, "Commands:")
	fmt.Fprintln(c.stdout, "  create-admin                                  - Create an admin registry and print its key")
	fmt.Fprintln(c.stdout, "  create-collection -admin KEY NAME             - Create a collection")
	fmt.Fprintln(c.stdout, "  delete-collection -admin KEY [-yes] COLLECTION - Delete a collection and its albums")
	fmt.Fprintln(c.stdout, "  list -admin KEY                               - List the collections of an admin")
	fmt.Fprintln(c.stdout, "  locks [-older-than DURATION]                  - List stale lock markers")
	fmt.Fprintln(c.stdout, "  unlock [-older-than DURATION] [-yes]          - Remove stale lock markers")
	fmt.Fprintln(c.stdout, "")
	fmt.Fprintln(c.stdout, "Environment:")
	fmt.Fprintf(c.stdout, "  DATA_DIR - Path to the data directory (default: %s)\n", defaultDataDir)
}

func (c *cli) createAdmin(ctx context.Context, store *docstore.Store, albums *collection.Manager) error {
	if err := store.EnsureLayout(); err != nil {
		return err
	}
	key, err := albums.CreateAdmin(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, key)
	return nil
}

func (c *cli) createCollection(ctx context.Context, albums *collection.Manager, args []string) error {
	fset := c.flagSet("create-collection")
	adminKey := fset.String("admin", "", "admin key")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() != 1 {
		return errors.New("usage: create-collection -admin KEY NAME")
	}

	key, err := albums.CreateCollection(ctx, *adminKey, fset.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, key)
	return nil
}

func (c *cli) deleteCollection(ctx context.Context, albums *collection.Manager, args []string) error {
	fset := c.flagSet("delete-collection")
	adminKey := fset.String("admin", "", "admin key")
	yes := fset.Bool("yes", false, "do not ask for confirmation")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() != 1 {
		return errors.New("usage: delete-collection -admin KEY [-yes] COLLECTION")
	}
	collKey := fset.Arg(0)

	if !*yes {
		coll, err := albums.Collection(collKey)
		if err != nil {
			return err
		}
		ok, err := c.confirm(fmt.Sprintf("Delete collection %q (%s) and all its albums?", coll.Name, collKey))
		if err != nil || !ok {
			return err
		}
	}

	if err := albums.DeleteCollection(ctx, *adminKey, collKey); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Deleted collection %s\n", collKey)
	return nil
}

func (c *cli) list(albums *collection.Manager, args []string) error {
	fset := c.flagSet("list")
	adminKey := fset.String("admin", "", "admin key")
	if err := fset.Parse(args); err != nil {
		return err
	}

	summaries, err := albums.List(*adminKey)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(c.stdout, "No collections.")
		return nil
	}

	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tALBUMS\tOBJECTS")
	for _, s := range summaries {
		if s.Missing {
			fmt.Fprintf(tw, "%s\t(missing)\t-\t-\n", s.Key)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", s.Key, s.Name, s.Albums, s.Objects)
	}
	return tw.Flush()
}

func (c *cli) locks(args []string) error {
	fset := c.flagSet("locks")
	olderThan := fset.Duration("older-than", defaultStaleAge, "minimum marker age")
	if err := fset.Parse(args); err != nil {
		return err
	}

	stale, err := filesystem.FindStaleLocks(c.dataDir, *olderThan)
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		fmt.Fprintf(c.stdout, "No lock markers older than %v.\n", *olderThan)
		return nil
	}
	for _, l := range stale {
		fmt.Fprintf(c.stdout, "%s\t%v\n", l.Path, l.Age.Round(time.Second))
	}
	return nil
}

func (c *cli) unlock(args []string) error {
	fset := c.flagSet("unlock")
	olderThan := fset.Duration("older-than", defaultStaleAge, "minimum marker age")
	yes := fset.Bool("yes", false, "do not ask for confirmation")
	if err := fset.Parse(args); err != nil {
		return err
	}

	stale, err := filesystem.FindStaleLocks(c.dataDir, *olderThan)
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		fmt.Fprintf(c.stdout, "No lock markers older than %v.\n", *olderThan)
		return nil
	}

	if !*yes {
		fmt.Fprintf(c.stdout, "%d lock markers older than %v. Only remove them when no server is writing.\n", len(stale), *olderThan)
		ok, err := c.confirm("Remove them?")
		if err != nil || !ok {
			return err
		}
	}

	n, err := filesystem.BreakStaleLocks(c.dataDir, *olderThan)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Removed %d lock markers.\n", n)
	return nil
}

func (c *cli) flagSet(name string) *flag.FlagSet {
	fset := flag.NewFlagSet(name, flag.ContinueOnError)
	fset.SetOutput(c.stderr)
	return fset
}

// confirm asks a yes/no question on the terminal. Without a terminal it refuses so that
// scripts must pass -yes explicitly.
func (c *cli) confirm(question string) (bool, error) {
	if !c.terminal {
		return false, errors.New("confirmation required: run interactively or pass -yes")
	}
	fmt.Fprintf(c.stdout, "%s [y/N]: ", question)
	line, err := bufio.NewReader(c.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	fmt.Fprintln(c.stdout, "Aborted.")
	return false, nil
}
