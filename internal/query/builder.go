// Package query composes parameterized SQL predicates from optional filters.
package query

import (
	"strconv"
	"strings"
)

// Predicate is a single "column op $n" condition with its bound value
type Predicate struct {
	Column string
	Op     string
	Arg    any
}

// Fragment is predicate text plus its positional arguments. Clause is
// empty when there are no predicates, otherwise it starts with " WHERE ".
type Fragment struct {
	Clause string
	Args   []any
}

// Next returns the placeholder number a caller should use for its first
// additional argument.
func (f Fragment) Next() int {
	return len(f.Args) + 1
}

// Builder collects predicates in order
type Builder struct {
	preds []Predicate
}

// Where appends a predicate. Column and op come from code, the value is
// always bound.
func (b *Builder) Where(column, op string, arg any) *Builder {
	b.preds = append(b.preds, Predicate{Column: column, Op: op, Arg: arg})
	return b
}

// Build renders the predicates with placeholders $1..$n.
func (b *Builder) Build() Fragment {
	if len(b.preds) == 0 {
		return Fragment{}
	}

	var sb strings.Builder
	args := make([]any, 0, len(b.preds))
	for i, p := range b.preds {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		sb.WriteString(p.Column)
		sb.WriteByte(' ')
		sb.WriteString(p.Op)
		sb.WriteString(" $")
		sb.WriteString(strconv.Itoa(i + 1))
		args = append(args, p.Arg)
	}
	return Fragment{Clause: sb.String(), Args: args}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern returns an ILIKE pattern matching term anywhere, with
// wildcards inside term taken literally.
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
