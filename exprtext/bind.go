package exprtext

import (
	"errors"
	"fmt"

	"github.com/vortexdb/colexec/batch"
	"github.com/vortexdb/colexec/expr"
	"github.com/vortexdb/colexec/vector"
)

var errUnknownColumn = errors.New("exprtext: unknown column")

// Bind resolves tree's named references against schema, in declared order -
// the same ordinal assignment batch.Build uses - producing a fully bound
// expr.Node ready for codegen.Compile.
func Bind(tree *expr.UnboundNode, schema []batch.Schema) (*expr.Node, error) {
	byName := make(map[string]int, len(schema))
	for i, attr := range schema {
		byName[attr.Name] = i
	}
	resolve := expr.Resolver(func(name string) (int, vector.Dtype, bool, error) {
		i, ok := byName[name]
		if !ok {
			return 0, 0, false, fmt.Errorf("%w: %q", errUnknownColumn, name)
		}
		return i, schema[i].Dtype, schema[i].Nullable, nil
	})
	return expr.Bind(tree, resolve)
}

// ParseAndBind parses s and binds it against schema in one step, the entry
// point cmd/bench, cmd/server and cmd/lambda-handler actually call.
func ParseAndBind(s string, schema []batch.Schema) (*expr.Node, error) {
	tree, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return Bind(tree, schema)
}
