// Command todo is a single-user to-do list backed by a local SQLite file.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/GoCodeAlone/todo/config"
	"github.com/GoCodeAlone/todo/controller"
	"github.com/GoCodeAlone/todo/events"
	"github.com/GoCodeAlone/todo/internal/logging"
	"github.com/GoCodeAlone/todo/internal/version"
	"github.com/GoCodeAlone/todo/task"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// app bundles what the subcommands need.
type app struct {
	ctrl   *controller.Controller
	store  *task.SQLiteStore
	logger *slog.Logger
	dbPath string
	stdin  *bufio.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("todo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", envOr("TODO_CONFIG", config.DefaultPath), "path to config file")
	dbPath := fs.String("db", "", "database file (overrides config)")
	showEvents := fs.Bool("events", false, "print the task events recorded by this run")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return 2
	}

	rest := fs.Args()
	if len(rest) == 0 {
		usage(stderr)
		return 2
	}
	cmd, rest := rest[0], rest[1:]

	switch cmd {
	case "version":
		fmt.Fprintf(stdout, "todo %s\n", version.String())
		return 0
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	logger, closer, err := logging.New(cfg.Log, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: open log: %v\n", err)
		return 1
	}
	defer closer.Close() //nolint:errcheck

	store, err := task.NewSQLiteStore(cfg.DBPath, task.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer store.Close() //nolint:errcheck

	bus := events.NewInMemoryBus(0)
	bus.Subscribe(auditLog(logger))

	a := &app{
		ctrl:   controller.New(store, bus, logger, controller.Options{AllowTimestampEdit: cfg.Edit.AllowTimestamps}),
		store:  store,
		logger: logger,
		dbPath: cfg.DBPath,
		stdin:  bufio.NewReader(stdin),
		stdout: stdout,
		stderr: stderr,
	}

	if cmd != "init" {
		if err := store.Initialize(); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
	}

	switch cmd {
	case "init":
		err = a.cmdInit(rest)
	case "add":
		err = a.cmdAdd(rest)
	case "list", "ls":
		err = a.cmdList(rest)
	case "done", "complete":
		err = a.cmdDone(rest)
	case "edit":
		err = a.cmdEdit(rest)
	case "delete", "rm":
		err = a.cmdDelete(rest)
	case "dump":
		err = a.cmdDump(rest)
	default:
		fmt.Fprintf(stderr, "unknown command: %s\n", cmd)
		usage(stderr)
		return 2
	}

	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if *showEvents {
		printEvents(stderr, bus.History(0))
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprint(w, `todo: single-user to-do list

Usage:
  todo [flags] <command> [args]

Flags:
  -config <path>   config file (default: todo.yaml, or $TODO_CONFIG)
  -db     <path>   database file (overrides config and $TODO_DB_PATH)
  -events          print the task events recorded by this run to stderr

Commands:
  init [-schema file]                 create or validate the database
  add <title>                         add a pending task
  list [-json]                        list tasks in id order
  done <id>                           mark a task completed
  edit <id> [-title t] [-status s]    edit a task (title defaults to the current one)
       [-created-at ts] [-updated-at ts]
  delete <id> [-yes]                  delete a task after confirmation
  dump                                print every stored row as stored
  version                             print version

An id that matches no task is not an error: done, edit and delete leave the
database unchanged and exit 0.
`)
}

// auditLog logs every task event at debug level.
func auditLog(logger *slog.Logger) events.Handler {
	return func(_ context.Context, ev *events.Event) error {
		logger.Debug("task event",
			slog.String("event_id", ev.ID),
			slog.String("type", string(ev.Type)),
			slog.Int64("task_id", ev.TaskID),
		)
		return nil
	}
}

func printEvents(w io.Writer, history []*events.Event) {
	for _, ev := range history {
		fmt.Fprintf(w, "event %s task=%d id=%s at=%s\n",
			ev.Type, ev.TaskID, ev.ID, ev.Timestamp.Format(time.RFC3339Nano))
	}
}

// --- init ---

func (a *app) cmdInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	schemaPath := fs.String("schema", "", "schema script to execute instead of the built-in schema")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *schemaPath == "" {
		if err := a.store.Initialize(); err != nil {
			return err
		}
	} else {
		script, err := os.ReadFile(*schemaPath)
		if err != nil {
			return fmt.Errorf("read schema: %w", err)
		}
		if err := a.store.InitializeScript(string(script)); err != nil {
			return err
		}
	}
	fmt.Fprintf(a.stdout, "database ready: %s\n", a.dbPath)
	return nil
}

// --- add ---

func (a *app) cmdAdd(args []string) error {
	id, err := a.ctrl.AddTask(strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "added task %d\n", id)
	return nil
}

// --- list ---

func (a *app) cmdList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	asJSON := fs.Bool("json", false, "print tasks as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	listing, err := a.ctrl.ListTasks()
	if err != nil {
		return err
	}
	if *asJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(listing.Tasks)
	}

	if listing.Count == 0 {
		fmt.Fprintln(a.stdout, "no tasks")
	} else {
		tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tCREATED\tUPDATED")
		for _, r := range listing.Rows() {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.ID, truncate(r.Title, 48), r.Status, r.CreatedAt, r.UpdatedAt)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	fmt.Fprintf(a.stdout, "tasks: %d\n", listing.Count)
	return nil
}

// --- done ---

func (a *app) cmdDone(args []string) error {
	id, _, err := splitID(args)
	if err != nil {
		return err
	}
	if err := a.ctrl.CompleteTask(id); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "completed task %d\n", id)
	return nil
}

// --- edit ---

func (a *app) cmdEdit(args []string) error {
	id, rest, err := splitID(args)
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	var f controller.Fields
	fs.StringVar(&f.Title, "title", "", "new title")
	fs.StringVar(&f.Status, "status", "", "pending or completed")
	fs.StringVar(&f.CreatedAt, "created-at", "", "override created_at (ISO-8601, UTC)")
	fs.StringVar(&f.UpdatedAt, "updated-at", "", "override updated_at (ISO-8601, UTC)")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if id == 0 && fs.NArg() > 0 {
		if id, err = parseID(fs.Arg(0)); err != nil {
			return err
		}
	}

	// Keep the current title when only other fields change.
	if f.Title == "" && id > 0 {
		current, ok, err := a.currentTitle(id)
		if err != nil {
			return err
		}
		if !ok {
			a.logger.Debug("edit unknown task", slog.Int64("id", id))
			fmt.Fprintf(a.stdout, "edited task %d\n", id)
			return nil
		}
		f.Title = current
	}

	if err := a.ctrl.EditTask(id, f); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "edited task %d\n", id)
	return nil
}

func (a *app) currentTitle(id int64) (string, bool, error) {
	listing, err := a.ctrl.ListTasks()
	if err != nil {
		return "", false, err
	}
	for _, t := range listing.Tasks {
		if t.ID == id {
			return t.Title, true, nil
		}
	}
	return "", false, nil
}

// --- delete ---

func (a *app) cmdDelete(args []string) error {
	id, rest, err := splitID(args)
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	yes := fs.Bool("yes", false, "delete without asking")
	if err := fs.Parse(rest); err != nil {
		return err
	}
	if id == 0 && fs.NArg() > 0 {
		if id, err = parseID(fs.Arg(0)); err != nil {
			return err
		}
	}

	confirmed := *yes
	if !confirmed && id > 0 {
		confirmed = a.confirm(fmt.Sprintf("Delete task %d? [y/N] ", id))
	}

	err = a.ctrl.DeleteTask(id, confirmed)
	if errors.Is(err, controller.ErrNotConfirmed) {
		fmt.Fprintln(a.stdout, "delete canceled")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "deleted task %d\n", id)
	return nil
}

func (a *app) confirm(prompt string) bool {
	fmt.Fprint(a.stdout, prompt)
	line, err := a.stdin.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(a.stdout)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// --- dump ---

func (a *app) cmdDump(_ []string) error {
	records, err := a.ctrl.Records()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "rows in %s:\n", a.dbPath)
	for _, r := range records {
		fmt.Fprintf(a.stdout, "(%d, %q, %q, %s, %s)\n",
			r.ID, r.Title, r.Status, rawValue(r.CreatedAt), rawValue(r.UpdatedAt))
	}
	return nil
}

// --- helpers ---

// splitID takes a leading task id off args. A missing id yields 0, which
// the controller reports as no selection; the id may also follow the flags.
func splitID(args []string) (int64, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return 0, args, nil
	}
	id, err := parseID(args[0])
	return id, args[1:], err
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func rawValue(v *string) string {
	if v == nil {
		return "NULL"
	}
	return strconv.Quote(*v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
