// Package std holds the bootstrap sources loaded into every environment
// before user code.
package std

import (
	"embed"

	"github.com/smasher164/tlang/ast"
	"github.com/smasher164/tlang/parser"
)

//go:embed *.lang
var sources embed.FS

// Units lists the bootstrap sources in load order. Traits are declared in
// ops.lang, so it comes first.
var Units = []string{"ops.lang", "print.lang"}

func FS() embed.FS { return sources }

// Files parses the bootstrap units. Each call returns a fresh tree.
func Files() ([]*ast.File, error) {
	files := make([]*ast.File, 0, len(Units))
	for _, name := range Units {
		f, err := parser.ParseFile(sources, name, parser.Intrinsics())
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}
