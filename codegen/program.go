package codegen

import (
	"fmt"

	"github.com/vortexdb/colexec/batch"
	"github.com/vortexdb/colexec/expr"
	"github.com/vortexdb/colexec/vector"
)

// Projection is a compiled, callable expression: apply it to a row batch to
// get one result column vector, with not-null and selection properly
// propagated.
type Projection struct {
	step   stepFunc
	source string
}

// Apply runs the compiled projection against a batch.
func (p *Projection) Apply(b *batch.Batch) (vector.Vector, error) {
	result, err := p.step(b)
	if err != nil {
		return nil, err
	}
	return result.vec, nil
}

// Source returns the generator-produced pseudo-source for this projection,
// the same text a CompileFailure would have carried had compilation failed
// partway through.
func (p *Projection) Source() string {
	return p.source
}

// compile lowers a canonical tree, under the generator's compile lock. Any
// failure here is a compile-time error (UnsupportedExpression or
// TypeMismatch); this module's lowering has no separate runtime-compiler
// step that can reject already-valid generated source, so CompileFailure
// is not raised today, but the pseudo-source it would carry is still
// rendered and attached to every successful Projection for introspection.
func compile(canonical *expr.Node) (*Projection, error) {
	ctx := &lowerCtx{}
	step, err := lower(canonical, ctx)
	if err != nil {
		return nil, err
	}
	return &Projection{step: step, source: ctx.source()}, nil
}

// Compile lowers a bound expression tree into a Projection using a
// package-level generator and cache, for callers that do not need to
// manage a BatchCodeGenerator instance themselves.
func Compile(tree *expr.Node) (*Projection, error) {
	return defaultGenerator.Compile(tree)
}

var defaultGenerator = NewBatchCodeGenerator()

// CompileFromSchema resolves tree's named references against schema (in
// declared order, the same order Build assigns ordinals) and compiles the
// resulting bound tree, equivalent to apply(tree, schema) = apply(bind(tree,
// schema)) in the external interface.
func CompileFromSchema(tree *expr.UnboundNode, schema []batch.Schema) (*Projection, error) {
	byName := make(map[string]int, len(schema))
	for i, attr := range schema {
		byName[attr.Name] = i
	}
	resolve := func(name string) (int, vector.Dtype, bool, error) {
		i, ok := byName[name]
		if !ok {
			return 0, 0, false, fmt.Errorf("%w: unknown attribute %q", ErrUnsupportedExpression, name)
		}
		return i, schema[i].Dtype, schema[i].Nullable, nil
	}
	bound, err := expr.Bind(tree, resolve)
	if err != nil {
		return nil, err
	}
	return Compile(bound)
}
