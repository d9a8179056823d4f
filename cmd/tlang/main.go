// Command tlang checks and runs programs.
//
//	tlang [flags] [file.lang | dir]
//	tlang [flags] repl
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/smasher164/tlang/ast"
	"github.com/smasher164/tlang/checker"
	"github.com/smasher164/tlang/config"
	"github.com/smasher164/tlang/diag"
	"github.com/smasher164/tlang/interp"
	"github.com/smasher164/tlang/parser"
)

var (
	configFile = flag.String("config", config.Name, "project file")
	lib        = flag.Bool("lib", false, "check every function, not only those reachable from main")
	backend    = flag.String("backend", config.Interpret, "what to do after checking: interpret or check")
	trace      = flag.Bool("trace", false, "trace checking and evaluation to stderr")
	dump       = flag.Bool("dump", false, "print the parsed tree and exit")
	history    = flag.String("history", "", "REPL history file")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: tlang [flags] [file.lang | dir | repl]\n\nflags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(diag.Wrapped.ExitCode())
	}

	args := flag.Args()
	if len(args) == 1 && args[0] == "repl" {
		os.Exit(runRepl(cfg))
	}
	file := cfg.Entry
	switch len(args) {
	case 0:
	case 1:
		file = args[0]
	default:
		flag.Usage()
		os.Exit(2)
	}
	if file == "" {
		flag.Usage()
		os.Exit(2)
	}
	os.Exit(run(cfg, file))
}

// loadConfig reads the project file and applies the flags given on the
// command line over it. The default project file may be absent.
func loadConfig() (*config.Config, error) {
	var explicit bool
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})
	load := config.LoadOptional
	if explicit {
		load = config.Load
	}
	cfg, err := load(os.DirFS(filepath.Dir(*configFile)), filepath.Base(*configFile))
	if err != nil {
		return nil, err
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lib":
			cfg.Lib = *lib
		case "backend":
			cfg.Backend = *backend
		case "trace":
			cfg.Trace = *trace
		case "history":
			cfg.History = *history
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func traceWriter(cfg *config.Config) io.Writer {
	if cfg.Trace {
		return os.Stderr
	}
	return nil
}

func fail(err error) int {
	fmt.Fprintln(os.Stderr, err)
	return diag.As(err).Kind.ExitCode()
}

// parse reads a single source file, or every source file in a directory.
func parse(file string) ([]*ast.File, error) {
	if fi, err := os.Stat(file); err == nil && fi.IsDir() {
		return parser.ParseDir(os.DirFS(file), ".")
	}
	f, err := parser.ParseFile(os.DirFS(filepath.Dir(file)), filepath.Base(file))
	if err != nil {
		return nil, err
	}
	return []*ast.File{f}, nil
}

func run(cfg *config.Config, file string) int {
	files, err := parse(file)
	if err != nil {
		return fail(err)
	}
	if *dump {
		fmt.Println(ast.Dump(files))
		return 0
	}

	c, err := checker.New(checker.WithTrace(traceWriter(cfg)))
	if err != nil {
		return fail(err)
	}
	if err := c.Load(files...); err != nil {
		return fail(err)
	}
	check := c.Check
	if cfg.Lib {
		check = c.CheckLib
	}
	if err := check(); err != nil {
		return fail(err)
	}
	if cfg.Backend == config.Check || cfg.Lib {
		return 0
	}

	m, err := interp.New(interp.WithTrace(traceWriter(cfg)))
	if err != nil {
		return fail(err)
	}
	if err := m.Load(files...); err != nil {
		return fail(err)
	}
	if _, err := m.Run(); err != nil {
		return fail(err)
	}
	return 0
}
