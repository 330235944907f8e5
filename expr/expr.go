// Package expr defines the bound expression IR the code generator compiles:
// a tagged tree of bound references, literals, casts, arithmetic,
// comparisons, and logicals.
package expr

import (
	"fmt"
	"strconv"

	"github.com/vortexdb/colexec/vector"
)

// Kind tags the variant of a Node.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBoundRef
	KindLiteral
	KindCast
	KindAdd
	KindSub
	KindMul
	KindDiv
	KindRem
	KindEq
	KindGt
	KindGe
	KindLt
	KindLe
	KindAnd
	KindOr
	KindNot
)

func (k Kind) String() string {
	switch k {
	case KindBoundRef:
		return "BoundRef"
	case KindLiteral:
		return "Literal"
	case KindCast:
		return "Cast"
	case KindAdd:
		return "Add"
	case KindSub:
		return "Sub"
	case KindMul:
		return "Mul"
	case KindDiv:
		return "Div"
	case KindRem:
		return "Rem"
	case KindEq:
		return "Eq"
	case KindGt:
		return "Gt"
	case KindGe:
		return "Ge"
	case KindLt:
		return "Lt"
	case KindLe:
		return "Le"
	case KindAnd:
		return "And"
	case KindOr:
		return "Or"
	case KindNot:
		return "Not"
	default:
		return "Invalid"
	}
}

// Node is a tagged tree node of the bound expression IR. Every node carries
// an output Dtype; fields outside a variant's relevance are left zero.
type Node struct {
	Kind Kind
	// BoundRef
	Ordinal  int
	Nullable bool
	// Literal
	LiteralValue interface{}
	// Cast
	To vector.Dtype
	// unary/binary
	Left, Right *Node
	// every node's declared output type
	Dtype vector.Dtype
}

// BoundRef builds a reference to the ordinal-th column of the batch the
// compiled projection will be applied to.
func BoundRef(ordinal int, dt vector.Dtype, nullable bool) *Node {
	return &Node{Kind: KindBoundRef, Ordinal: ordinal, Dtype: dt, Nullable: nullable}
}

// Literal builds a constant-valued node.
func Literal(v interface{}, dt vector.Dtype) *Node {
	return &Node{Kind: KindLiteral, LiteralValue: v, Dtype: dt}
}

// Cast builds a numeric conversion node. The result Dtype is to - this is
// the line the known "toFloat" bug affected in the source this design is
// modeled on; this constructor always records the requested target type.
func Cast(child *Node, to vector.Dtype) *Node {
	return &Node{Kind: KindCast, Left: child, To: to, Dtype: to}
}

func binOp(k Kind, l, r *Node, dt vector.Dtype) *Node {
	return &Node{Kind: k, Left: l, Right: r, Dtype: dt}
}

// Add builds l+r; result type is the left child's declared type.
func Add(l, r *Node) *Node { return binOp(KindAdd, l, r, l.Dtype) }

// Sub builds l-r; result type is the left child's declared type.
func Sub(l, r *Node) *Node { return binOp(KindSub, l, r, l.Dtype) }

// Mul builds l*r; result type is the left child's declared type.
func Mul(l, r *Node) *Node { return binOp(KindMul, l, r, l.Dtype) }

// Div builds l/r; result type is the left child's declared type.
func Div(l, r *Node) *Node { return binOp(KindDiv, l, r, l.Dtype) }

// Rem builds l%r; both children must be integer dtypes (enforced at
// compile time, not here).
func Rem(l, r *Node) *Node { return binOp(KindRem, l, r, l.Dtype) }

// Eq builds l==r, a Boolean-typed node.
func Eq(l, r *Node) *Node { return binOp(KindEq, l, r, vector.DtypeBool) }

// Gt builds l>r, a Boolean-typed node.
func Gt(l, r *Node) *Node { return binOp(KindGt, l, r, vector.DtypeBool) }

// Ge builds l>=r, a Boolean-typed node.
func Ge(l, r *Node) *Node { return binOp(KindGe, l, r, vector.DtypeBool) }

// Lt builds l<r, a Boolean-typed node.
func Lt(l, r *Node) *Node { return binOp(KindLt, l, r, vector.DtypeBool) }

// Le builds l<=r, a Boolean-typed node.
func Le(l, r *Node) *Node { return binOp(KindLe, l, r, vector.DtypeBool) }

// And builds l&&r over Boolean children.
func And(l, r *Node) *Node { return binOp(KindAnd, l, r, vector.DtypeBool) }

// Or builds l||r over Boolean children.
func Or(l, r *Node) *Node { return binOp(KindOr, l, r, vector.DtypeBool) }

// Not builds !x over a Boolean child.
func Not(x *Node) *Node { return &Node{Kind: KindNot, Left: x, Dtype: vector.DtypeBool} }

// UnboundNode mirrors Node but refers to columns by name rather than
// ordinal - the shape a text expression front end produces before binding
// against a concrete batch schema.
type UnboundNode struct {
	Kind         Kind
	Name         string
	LiteralValue interface{}
	To           vector.Dtype
	Dtype        vector.Dtype
	Left, Right  *UnboundNode
}

// UnboundRef builds a reference to a named attribute, resolved to an
// ordinal by Bind.
func UnboundRef(name string) *UnboundNode {
	return &UnboundNode{Kind: KindBoundRef, Name: name}
}

// UnboundLiteral builds a constant-valued unbound node.
func UnboundLiteral(v interface{}, dt vector.Dtype) *UnboundNode {
	return &UnboundNode{Kind: KindLiteral, LiteralValue: v, Dtype: dt}
}

// UnboundCast builds an unbound cast node.
func UnboundCast(child *UnboundNode, to vector.Dtype) *UnboundNode {
	return &UnboundNode{Kind: KindCast, Left: child, To: to}
}

func unboundBinOp(k Kind, l, r *UnboundNode) *UnboundNode {
	return &UnboundNode{Kind: k, Left: l, Right: r}
}

func UnboundAdd(l, r *UnboundNode) *UnboundNode { return unboundBinOp(KindAdd, l, r) }
func UnboundSub(l, r *UnboundNode) *UnboundNode { return unboundBinOp(KindSub, l, r) }
func UnboundMul(l, r *UnboundNode) *UnboundNode { return unboundBinOp(KindMul, l, r) }
func UnboundDiv(l, r *UnboundNode) *UnboundNode { return unboundBinOp(KindDiv, l, r) }
func UnboundRem(l, r *UnboundNode) *UnboundNode { return unboundBinOp(KindRem, l, r) }
func UnboundEq(l, r *UnboundNode) *UnboundNode  { return unboundBinOp(KindEq, l, r) }
func UnboundGt(l, r *UnboundNode) *UnboundNode  { return unboundBinOp(KindGt, l, r) }
func UnboundGe(l, r *UnboundNode) *UnboundNode  { return unboundBinOp(KindGe, l, r) }
func UnboundLt(l, r *UnboundNode) *UnboundNode  { return unboundBinOp(KindLt, l, r) }
func UnboundLe(l, r *UnboundNode) *UnboundNode  { return unboundBinOp(KindLe, l, r) }
func UnboundAnd(l, r *UnboundNode) *UnboundNode { return unboundBinOp(KindAnd, l, r) }
func UnboundOr(l, r *UnboundNode) *UnboundNode  { return unboundBinOp(KindOr, l, r) }
func UnboundNot(x *UnboundNode) *UnboundNode    { return &UnboundNode{Kind: KindNot, Left: x} }

// Resolver looks up a named attribute's ordinal position, dtype, and
// nullability - what Bind uses to turn an UnboundRef into a BoundRef.
type Resolver func(name string) (ordinal int, dt vector.Dtype, nullable bool, err error)

// Bind resolves every named reference in n against resolve, producing a
// fully bound Node with every Dtype filled in per the same rules the Node
// constructors apply (arithmetic takes the left child's type, comparisons
// are Boolean, etc).
func Bind(n *UnboundNode, resolve Resolver) (*Node, error) {
	if n == nil {
		return nil, nil
	}
	switch n.Kind {
	case KindBoundRef:
		ord, dt, nullable, err := resolve(n.Name)
		if err != nil {
			return nil, err
		}
		return BoundRef(ord, dt, nullable), nil
	case KindLiteral:
		return Literal(n.LiteralValue, n.Dtype), nil
	case KindCast:
		child, err := Bind(n.Left, resolve)
		if err != nil {
			return nil, err
		}
		return Cast(child, n.To), nil
	case KindNot:
		child, err := Bind(n.Left, resolve)
		if err != nil {
			return nil, err
		}
		return Not(child), nil
	default:
		l, err := Bind(n.Left, resolve)
		if err != nil {
			return nil, err
		}
		r, err := Bind(n.Right, resolve)
		if err != nil {
			return nil, err
		}
		return binOp(n.Kind, l, r, resultDtype(n.Kind, l)), nil
	}
}

func resultDtype(k Kind, left *Node) vector.Dtype {
	switch k {
	case KindEq, KindGt, KindGe, KindLt, KindLe, KindAnd, KindOr:
		return vector.DtypeBool
	default:
		return left.Dtype
	}
}

// Canonicalize returns a deterministic rewrite of n used as the compile
// cache key: it strips nothing this module tracks as debug metadata today
// (the IR carries none) but rebuilds the tree fresh so two structurally
// identical trees produced from different call sites compare equal and so
// future debug annotations have a single place to be stripped. Child
// ordering is left exactly as given, per the base contract: this module
// does not extend canonicalization with commutative reordering.
func Canonicalize(n *Node) *Node {
	if n == nil {
		return nil
	}
	out := &Node{
		Kind:         n.Kind,
		Ordinal:      n.Ordinal,
		Nullable:     n.Nullable,
		LiteralValue: n.LiteralValue,
		To:           n.To,
		Dtype:        n.Dtype,
	}
	out.Left = Canonicalize(n.Left)
	out.Right = Canonicalize(n.Right)
	return out
}

// Key renders a canonical tree as a comparable string, the actual type
// used as the compile cache's map key.
func Key(n *Node) string {
	if n == nil {
		return "_"
	}
	switch n.Kind {
	case KindBoundRef:
		return "ref(" + strconv.Itoa(n.Ordinal) + "," + n.Dtype.String() + ")"
	case KindLiteral:
		return "lit(" + n.Dtype.String() + "," + toString(n.LiteralValue) + ")"
	case KindCast:
		return "cast(" + Key(n.Left) + "->" + n.To.String() + ")"
	case KindNot:
		return "not(" + Key(n.Left) + ")"
	default:
		return n.Kind.String() + "(" + Key(n.Left) + "," + Key(n.Right) + ")"
	}
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
