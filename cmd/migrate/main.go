// Command migrate manages the database schema: applying, rolling back and authoring
// the numbered SQL files in migrations/.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/repairshop/backend/internal/infrastructure/config"
	"github.com/repairshop/backend/internal/infrastructure/logger"
	"github.com/repairshop/backend/internal/infrastructure/migration"
	"go.uber.org/zap"
)

const migrationsDir = "migrations"

var errUsage = errors.New("usage")

// invocation is what every command receives
type invocation struct {
	log  *zap.Logger
	dir  string
	args []string
	m    *migration.Migrator // nil for commands that only touch the directory
}

type command struct {
	usage    string
	help     string
	schemaOp bool
	run      func(inv invocation) error
}

var commands = map[string]command{
	"up":   {usage: "up", help: "Apply all pending migrations", schemaOp: true, run: func(inv invocation) error { return inv.m.Up() }},
	"down": {usage: "down", help: "Roll back all migrations", schemaOp: true, run: func(inv invocation) error { return inv.m.Down() }},
	"step": {usage: "step <n>", help: "Move n versions, negative rolls back", schemaOp: true, run: func(inv invocation) error {
		n, err := inv.int(0, "step <n>")
		if err != nil {
			return err
		}
		return inv.m.Steps(n)
	}},
	"goto": {usage: "goto <version>", help: "Migrate up or down to a version", schemaOp: true, run: func(inv invocation) error {
		n, err := inv.int(0, "goto <version>")
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("%w: version must not be negative", errUsage)
		}
		return inv.m.GoTo(uint(n))
	}},
	"version": {usage: "version", help: "Show the applied version", schemaOp: true, run: func(inv invocation) error {
		v, dirty, err := inv.m.Version()
		if err != nil {
			return err
		}
		if v == 0 {
			inv.log.Info("No migrations applied")
		} else {
			inv.log.Info("Schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		}
		return nil
	}},
	"force": {usage: "force <version>", help: "Mark a version clean after a manual repair", schemaOp: true, run: func(inv invocation) error {
		n, err := inv.int(0, "force <version>")
		if err != nil {
			return err
		}
		return inv.m.Force(n)
	}},
	"drop": {usage: "drop -confirm", help: "Drop every table, ledger included", schemaOp: true, run: func(inv invocation) error {
		if !slices.Contains(inv.args, "-confirm") && !slices.Contains(inv.args, "--confirm") {
			return fmt.Errorf("%w: drop removes the ledger too; run 'migrate drop -confirm'", errUsage)
		}
		return inv.m.Drop()
	}},
	"create": {usage: "create <name> [desc]", help: "Write the next up/down file pair", run: func(inv invocation) error {
		if len(inv.args) == 0 {
			return fmt.Errorf("%w: migrate create <name> [description]", errUsage)
		}
		mf, err := migration.CreateMigration(inv.dir, inv.args[0], strings.Join(inv.args[1:], " "))
		if err != nil {
			return err
		}
		inv.log.Info("Migration created", zap.String("version", mf.Version), zap.String("up", mf.UpPath), zap.String("down", mf.DownPath))
		return nil
	}},
	"list": {usage: "list", help: "List migration files", run: func(inv invocation) error {
		files, err := migration.ListMigrations(inv.dir)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Println("  -", f)
		}
		inv.log.Info("Migrations listed", zap.Int("count", len(files)))
		return nil
	}},
}

func (inv invocation) int(i int, usage string) (int, error) {
	if len(inv.args) <= i {
		return 0, fmt.Errorf("%w: migrate %s", errUsage, usage)
	}
	n, err := strconv.Atoi(inv.args[i])
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", errUsage, inv.args[i])
	}
	return n, nil
}

func main() {
	dirFlag := flag.String("path", "", "migrations directory (default ./migrations)")
	level := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(1)
	}
	name, args := flag.Arg(0), flag.Args()[1:]

	log, err := logger.New(&logger.Config{Level: *level, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	cmd, ok := commands[name]
	if !ok {
		log.Error("Unknown command", zap.String("command", name))
		usage()
		os.Exit(2)
	}

	dir, err := findMigrations(*dirFlag)
	if err != nil {
		log.Fatal("Migrations directory not usable", zap.Error(err))
	}
	log = log.With(zap.String("command", name), zap.String("dir", dir))

	if err := execute(log, cmd, dir, args); err != nil {
		if errors.Is(err, errUsage) {
			log.Error(err.Error())
			os.Exit(2)
		}
		log.Fatal("Migration command failed", zap.Error(err))
	}
}

func execute(log *zap.Logger, cmd command, dir string, args []string) error {
	inv := invocation{log: log, dir: dir, args: args}
	if !cmd.schemaOp {
		return cmd.run(inv)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("database %s:%d unreachable: %w", cfg.Database.Host, cfg.Database.Port, err)
	}

	if inv.m, err = migration.New(db, dir, log); err != nil {
		return err
	}
	defer inv.m.Close()
	return cmd.run(inv)
}

// findMigrations prefers an explicit path, then ./migrations, then the repo copy two
// levels above the binary (bin/<os>/migrate).
func findMigrations(explicit string) (string, error) {
	if explicit != "" {
		return filepath.Abs(explicit)
	}
	candidates := []string{migrationsDir}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "..", "..", migrationsDir))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return filepath.Abs(c)
		}
	}
	return filepath.Abs(migrationsDir)
}

func usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)

	out := flag.CommandLine.Output()
	fmt.Fprintln(out, "Repair shop schema migrations\n\nUsage:\n  migrate [flags] <command> [arguments]\n\nCommands:")
	for _, name := range names {
		fmt.Fprintf(out, "  %-22s %s\n", commands[name].usage, commands[name].help)
	}
	fmt.Fprintln(out, "\nFlags:")
	flag.PrintDefaults()
	fmt.Fprintln(out, "\nThe database is read from config.toml and REPAIR_DATABASE_* variables.")
}
