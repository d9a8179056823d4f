package parser

import (
	"io/fs"
	"path"

	"github.com/samber/lo"
	"github.com/smasher164/tlang/ast"
	"github.com/smasher164/tlang/diag"
	"github.com/smasher164/tlang/lexer"
)

// ParseDir parses every .lang file directly inside dir, in lexical order.
// Together they form one program whose items load in that order.
func ParseDir(fsys fs.FS, dir string, opts ...Option) ([]*ast.File, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, diag.Wrap(err, dir, "read directory")
	}
	names := lo.FilterMap(entries, func(entry fs.DirEntry, _ int) (string, bool) {
		return path.Join(dir, entry.Name()), !entry.IsDir() && path.Ext(entry.Name()) == lexer.Ext
	})
	if len(names) == 0 {
		return nil, &diag.Error{File: dir, Kind: diag.Wrapped, Msg: "no " + lexer.Ext + " files"}
	}
	files := make([]*ast.File, 0, len(names))
	for _, name := range names {
		f, err := ParseFile(fsys, name, opts...)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}
