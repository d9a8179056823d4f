package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/pkg/errors"
	"github.com/smasher164/tlang/ast"
	"github.com/smasher164/tlang/checker"
	"github.com/smasher164/tlang/config"
	"github.com/smasher164/tlang/fsx"
	"github.com/smasher164/tlang/interp"
	"github.com/smasher164/tlang/parser"
)

const prompt = "> "

// session is one REPL: a checker and a machine that see the same lines.
type session struct {
	c   *checker.Checker
	m   *interp.Machine
	out io.Writer
}

func runRepl(cfg *config.Config) int {
	c, err := checker.New(checker.WithTrace(traceWriter(cfg)))
	if err != nil {
		return fail(err)
	}
	m, err := interp.New(interp.WithTrace(traceWriter(cfg)))
	if err != nil {
		return fail(err)
	}
	s := &session{c: c, m: m, out: os.Stdout}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	if cfg.History != "" {
		dir, name := fsx.DirFS(filepath.Dir(cfg.History)), filepath.Base(cfg.History)
		if err := loadHistory(ln, dir, name); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		defer func() {
			if err := saveHistory(ln, dir, name); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}()
	}

	for {
		line, err := ln.Prompt(prompt)
		if err == liner.ErrPromptAborted {
			continue
		}
		if err != nil {
			fmt.Fprintln(s.out)
			return 0
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)
		if err := s.eval(line); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

// eval handles one line. Items reach the machine only once the checker has
// accepted them, and a rejected line leaves both untouched; statements are checked and then evaluated, and a value other than
// void is echoed with its type.
func (s *session) eval(line string) (err error) {
	f, stmts, err := parser.ParseLine("<repl>", line)
	if err != nil {
		return err
	}
	if f != nil {
		if err := s.c.Define(f); err != nil {
			return err
		}
		return s.m.Load(f)
	}
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*interp.InvariantError)
			if !ok {
				panic(r)
			}
			err = errors.WithStack(ie)
		}
	}()
	for _, stmt := range stmts {
		td, err := s.c.CheckStmt(stmt)
		if err != nil {
			return err
		}
		v := s.m.EvalStmt(stmt)
		if _, void := v.(ast.VoidValue); !void {
			fmt.Fprintf(s.out, "%s : %s\n", v, td)
		}
	}
	return nil
}

// history is the part of liner.State that persists lines between sessions.
type history interface {
	ReadHistory(r io.Reader) (int, error)
	WriteHistory(w io.Writer) (int, error)
}

// loadHistory reads name from fsys into h. A missing file is not an error.
func loadHistory(h history, fsys fs.FS, name string) error {
	f, err := fsys.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "read history")
	}
	defer f.Close()
	_, err = h.ReadHistory(f)
	return errors.Wrap(err, "read history")
}

func saveHistory(h history, fsys fs.FS, name string) error {
	f, err := fsx.Create(fsys, name)
	if err != nil {
		return errors.Wrap(err, "write history")
	}
	if _, err := h.WriteHistory(f); err != nil {
		f.Close()
		return errors.Wrap(err, "write history")
	}
	return errors.Wrap(f.Close(), "write history")
}
