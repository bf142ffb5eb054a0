// dbdctl is a simple CLI for loading a route-table/feature-flag document
// into a DBD container and inspecting it interactively.
//
// Usage:
//
//	dbdctl -config routes.json
//
// Commands (in REPL):
//
//	routes [prefix]    List routes, optionally filtered by prefix
//	flags              List feature flags
//	watch              Reload -config on every change and re-publish
//	stats              Show registered-reader count and last-publish time
//	reload             Reload -config once
//	help               Show this help
//	exit / quit / q    Exit
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/doublebuf/dbd/internal/cfglock"
	"github.com/doublebuf/dbd/internal/tlsim"
	"github.com/doublebuf/dbd/pkg/dbd"
	"github.com/doublebuf/dbd/pkg/dbdflags"
)

func main() {
	configPath := flag.StringP("config", "c", "", "path to a route-table/feature-flag document (required)")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "dbdctl: -config is required")
		os.Exit(1)
	}

	repl, err := newREPL(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dbdctl: %v\n", err)
		os.Exit(1)
	}
	defer repl.routes.Close()
	defer repl.flags.Close()

	if err := repl.run(); err != nil {
		fmt.Fprintf(os.Stderr, "dbdctl: %v\n", err)
		os.Exit(1)
	}
}

// REPL is the interactive command loop, adapted from cmd/sloty's shape
// to DBD's publish/read model in place of slotcache's file-backed one.
type REPL struct {
	configPath string

	routes *dbdflags.RouteContainer
	flags  *dbdflags.FlagContainer
	scope  *tlsim.Scope

	lastPublish time.Time

	liner *liner.State
}

func newREPL(configPath string) (*REPL, error) {
	r := &REPL{
		configPath: configPath,
		routes:     dbd.NewContainer[dbdflags.RouteTable, struct{}](),
		flags:      dbd.NewContainer[dbdflags.FlagSet, int](),
		scope:      tlsim.NewScope(),
	}

	if err := r.reload(); err != nil {
		return nil, err
	}

	return r, nil
}

// reload re-reads configPath under a non-blocking cross-process lock
// (which excludes other processes taking the same lock; dbdseed does not
// take it and instead replaces the file atomically) and republishes it
// into both containers.
func (r *REPL) reload() error {
	lock, err := cfglock.TryLock(r.configPath)
	if err != nil {
		return fmt.Errorf("locking %s for read: %w", r.configPath, err)
	}
	defer lock.Close()

	doc, err := dbdflags.LoadDocument(r.configPath)
	if err != nil {
		return err
	}

	dbdflags.Publish(r.routes, doc.Routes)
	dbdflags.PublishFlags(r.flags, doc.Flags)
	r.lastPublish = time.Now()

	return nil
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".dbdctl_history")
}

func (r *REPL) run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("dbdctl - DBD config CLI (config=%s)\n", r.configPath)
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("dbdctl> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			r.saveHistory()

			return nil

		case "help", "?":
			r.printHelp()

		case "routes":
			r.cmdRoutes(args)

		case "flags":
			r.cmdFlags()

		case "reload":
			r.cmdReload()

		case "watch":
			r.cmdWatch()

		case "stats":
			r.cmdStats()

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *REPL) completer(line string) []string {
	commands := []string{"routes", "flags", "reload", "watch", "stats", "help", "exit", "quit", "q"}

	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  routes [prefix]   List routes, optionally filtered by prefix")
	fmt.Println("  flags             List feature flags")
	fmt.Println("  reload            Reload -config once")
	fmt.Println("  watch             Reload -config whenever its mtime changes")
	fmt.Println("  stats             Show registered-reader count and last-publish time")
	fmt.Println("  help              Show this help")
	fmt.Println("  exit / quit / q   Exit")
}

func (r *REPL) cmdRoutes(args []string) {
	g, err := r.routes.Read(r.scope)
	if err != nil {
		fmt.Printf("error: %v\n", err)

		return
	}
	defer g.Close()

	var prefix string
	if len(args) > 0 {
		prefix = args[0]
	}

	for _, route := range *g.Value() {
		if prefix != "" && !strings.HasPrefix(route.Prefix, prefix) {
			continue
		}

		fmt.Printf("%-20s %s\n", route.Prefix, strings.Join(route.Backends, ", "))
	}
}

func (r *REPL) cmdFlags() {
	g, err := r.flags.Read(r.scope)
	if err != nil {
		fmt.Printf("error: %v\n", err)

		return
	}
	defer g.Close()

	*g.TLS()++

	for name, enabled := range *g.Value() {
		fmt.Printf("%-20s %v\n", name, enabled)
	}
}

func (r *REPL) cmdReload() {
	if err := r.reload(); err != nil {
		fmt.Printf("reload failed: %v\n", err)

		return
	}

	fmt.Println("reloaded")
}

func (r *REPL) cmdWatch() {
	info, err := os.Stat(r.configPath)
	if err != nil {
		fmt.Printf("error: %v\n", err)

		return
	}

	lastMod := info.ModTime()

	fmt.Println("watching for changes, Ctrl-C to stop...")

	for {
		time.Sleep(500 * time.Millisecond)

		info, err := os.Stat(r.configPath)
		if err != nil {
			fmt.Printf("error: %v\n", err)

			return
		}

		if !info.ModTime().After(lastMod) {
			continue
		}

		lastMod = info.ModTime()

		if err := r.reload(); err != nil {
			fmt.Printf("reload failed: %v\n", err)

			continue
		}

		fmt.Printf("reloaded at %s\n", lastMod.Format(time.RFC3339))
	}
}

func (r *REPL) cmdStats() {
	fmt.Printf("route readers registered: %d\n", r.routes.ReaderCount())
	fmt.Printf("flag readers registered:  %d\n", r.flags.ReaderCount())
	fmt.Printf("last publish:             %s\n", r.lastPublish.Format(time.RFC3339))
}
