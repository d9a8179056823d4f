package ast

import (
	"regexp"

	"github.com/sanity-io/litter"
)

var dumper = litter.Options{
	HidePrivateFields: true,
	FieldExclusions:   regexp.MustCompile(`^Loc$`),
}

// Dump renders a tree for debugging, leaving out source locations.
func Dump(n any) string {
	return dumper.Sdump(n)
}
