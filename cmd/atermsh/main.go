// atermsh is an interactive REPL for building and inspecting terms in
// a single in-process term pool.
//
// Usage:
//
//	atermsh [-config=path]
//
// Commands (in REPL):
//
//	term <text>         Parse text and print the resulting term
//	size                Show live node count
//	cap                 Show hash table capacity
//	gc                  Force a collection
//	stats               Show pool metrics
//	symbols             List interned symbols
//	help                Show this help
//	exit / quit / q     Exit
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/mcrl2/aterm/pkg/aterm"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := ""
	for _, a := range os.Args[1:] {
		if strings.HasPrefix(a, "-config=") {
			configPath = strings.TrimPrefix(a, "-config=")
		}
	}

	cfg, err := aterm.LoadConfig(configPath, envMap())
	if err != nil {
		return err
	}

	pool, err := aterm.Init(cfg)
	if err != nil {
		return fmt.Errorf("initializing pool: %w", err)
	}
	defer pool.Shutdown()

	th := pool.RegisterThread()
	defer pool.UnregisterThread(th)

	repl := &REPL{pool: pool, th: th}

	return repl.Run()
}

func envMap() map[string]string {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}

	return env
}

// REPL is the interactive command loop.
type REPL struct {
	pool  *aterm.Pool
	th    *aterm.ThreadHandle
	liner *liner.State

	roots []aterm.OwnedTerm
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".atermsh_history")
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Println("atermsh - aterm term pool REPL")
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("atermsh> ")
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

		fields := strings.SplitN(line, " ", 2)
		cmd := strings.ToLower(fields[0])

		var arg string
		if len(fields) > 1 {
			arg = fields[1]
		}

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			r.saveHistory()

			return nil

		case "help", "?":
			r.printHelp()

		case "term":
			r.cmdTerm(arg)

		case "size":
			fmt.Printf("live nodes: %d\n", r.pool.Size(r.th))

		case "cap":
			fmt.Printf("capacity: %d\n", r.pool.Capacity(r.th))

		case "gc":
			r.pool.CollectNow(r.th)
			fmt.Println("collection complete")

		case "stats":
			if err := r.pool.PrintMetrics(os.Stdout, r.th); err != nil {
				fmt.Printf("error: %v\n", err)
			}

		case "symbols":
			for _, sym := range r.pool.Symbols() {
				fmt.Printf("%s/%d\n", sym.Name(), sym.Arity())
			}

		case "clear", "cls":
			fmt.Print("\033[H\033[2J")

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
	commands := []string{"term", "size", "cap", "gc", "stats", "symbols", "clear", "cls", "help", "exit", "quit", "q"}

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
	fmt.Println("  term <text>     Parse text and print the resulting term")
	fmt.Println("  size            Show live node count")
	fmt.Println("  cap             Show hash table capacity")
	fmt.Println("  gc              Force a collection")
	fmt.Println("  stats           Show pool metrics")
	fmt.Println("  symbols         List interned symbols")
	fmt.Println("  help            Show this help")
	fmt.Println("  exit / quit / q Exit")
}

func (r *REPL) cmdTerm(arg string) {
	if arg == "" {
		fmt.Println("Usage: term <text>")
		return
	}

	owned, err := r.pool.FromText(r.th, arg)
	if err != nil {
		fmt.Printf("parse error: %v\n", err)
		return
	}

	r.roots = append(r.roots, owned)

	fmt.Printf("= %s  (address=%x)\n", r.pool.ToText(r.th, owned.Ref()), owned.AddressOf())
}
