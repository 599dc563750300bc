package derived

import "github.com/mcrl2/aterm/pkg/aterm"

// DataExpr is a borrowed view of a term known to be one of: a variable,
// an application, a lambda abstraction, a quantifier (Forall/Exists),
// or a Where clause. It carries no more state than the [aterm.TermRef]
// it wraps; Kind and the typed accessors below re-derive everything
// from the underlying node on each call, exactly as the core handle
// surface does for IsList/IsInt.
type DataExpr struct {
	ref aterm.TermRef
}

// Kind enumerates the data expression shapes DataExpr recognizes.
type Kind int

const (
	KindVariable Kind = iota
	KindApplication
	KindLambda
	KindForall
	KindExists
	KindWhere
	KindOther
)

// VariableSchema, ApplicationSchema, LambdaSchema, ForallSchema,
// ExistsSchema, and WhereSchema each recognize one DataExpr shape.
// DataExprSchema recognizes any of them — the general-purpose entry
// point most callers want.
var (
	VariableSchema = NewSchema(
		func(p *aterm.Pool, r aterm.TermRef) bool { return r.Symbol() == p.VarSymbol() },
		func(r aterm.TermRef) DataExpr { return DataExpr{ref: r} },
	)
	ApplicationSchema = NewSchema(
		func(p *aterm.Pool, r aterm.TermRef) bool { return r.Symbol() == p.ApplySymbol() },
		func(r aterm.TermRef) DataExpr { return DataExpr{ref: r} },
	)
	LambdaSchema = NewSchema(
		func(p *aterm.Pool, r aterm.TermRef) bool { return r.Symbol() == p.LambdaSymbol() },
		func(r aterm.TermRef) DataExpr { return DataExpr{ref: r} },
	)
	ForallSchema = NewSchema(
		func(p *aterm.Pool, r aterm.TermRef) bool { return r.Symbol() == p.ForallSymbol() },
		func(r aterm.TermRef) DataExpr { return DataExpr{ref: r} },
	)
	ExistsSchema = NewSchema(
		func(p *aterm.Pool, r aterm.TermRef) bool { return r.Symbol() == p.ExistsSymbol() },
		func(r aterm.TermRef) DataExpr { return DataExpr{ref: r} },
	)
	WhereSchema = NewSchema(
		func(p *aterm.Pool, r aterm.TermRef) bool { return r.Symbol() == p.WhereSymbol() },
		func(r aterm.TermRef) DataExpr { return DataExpr{ref: r} },
	)
	DataExprSchema = NewSchema(
		func(p *aterm.Pool, r aterm.TermRef) bool {
			sym := r.Symbol()
			return sym == p.VarSymbol() || sym == p.ApplySymbol() || sym == p.LambdaSymbol() ||
				sym == p.ForallSymbol() || sym == p.ExistsSymbol() || sym == p.WhereSymbol()
		},
		func(r aterm.TermRef) DataExpr { return DataExpr{ref: r} },
	)
)

// Kind classifies d by comparing its head symbol against the pool's
// reserved data-expression symbols.
func (d DataExpr) Kind(p *aterm.Pool) Kind {
	switch d.ref.Symbol() {
	case p.VarSymbol():
		return KindVariable
	case p.ApplySymbol():
		return KindApplication
	case p.LambdaSymbol():
		return KindLambda
	case p.ForallSymbol():
		return KindForall
	case p.ExistsSymbol():
		return KindExists
	case p.WhereSymbol():
		return KindWhere
	default:
		return KindOther
	}
}

// Ref returns the underlying borrowed term.
func (d DataExpr) Ref() aterm.TermRef { return d.ref }

// Head returns argument 0 of the underlying node: the function for
// applications and the bound variables for lambdas and quantifiers (for
// a variable it is the name). Returns [aterm.ErrInvalidArgument] if the
// node has no arguments.
func (d DataExpr) Head() (aterm.TermRef, error) { return d.ref.Arg(0) }

// Argument returns the second subterm (the application's argument, or
// the abstraction's or quantifier's body), argument 1 of the underlying
// node. Returns [aterm.ErrInvalidArgument] if the node has fewer than two
// arguments.
func (d DataExpr) Argument() (aterm.TermRef, error) { return d.ref.Arg(1) }

// MakeVariable builds a Var(name) data expression whose single argument
// is the given name term.
func MakeVariable(p *aterm.Pool, th *aterm.ThreadHandle, name aterm.TermRef) (aterm.OwnedTerm, error) {
	return p.MakeApplication(th, p.VarSymbol(), []aterm.TermRef{name})
}

// MakeApplication builds an Apply(fn, arg) data expression.
func MakeApplication(p *aterm.Pool, th *aterm.ThreadHandle, fn, arg aterm.TermRef) (aterm.OwnedTerm, error) {
	return p.MakeApplication(th, p.ApplySymbol(), []aterm.TermRef{fn, arg})
}

// MakeLambda builds a Lambda(vars, body) data expression.
func MakeLambda(p *aterm.Pool, th *aterm.ThreadHandle, vars, body aterm.TermRef) (aterm.OwnedTerm, error) {
	return p.MakeApplication(th, p.LambdaSymbol(), []aterm.TermRef{vars, body})
}

// MakeForall builds a Forall(vars, body) data expression.
func MakeForall(p *aterm.Pool, th *aterm.ThreadHandle, vars, body aterm.TermRef) (aterm.OwnedTerm, error) {
	return p.MakeApplication(th, p.ForallSymbol(), []aterm.TermRef{vars, body})
}

// MakeExists builds an Exists(vars, body) data expression.
func MakeExists(p *aterm.Pool, th *aterm.ThreadHandle, vars, body aterm.TermRef) (aterm.OwnedTerm, error) {
	return p.MakeApplication(th, p.ExistsSymbol(), []aterm.TermRef{vars, body})
}

// MakeWhere builds a Where(body, substitutions) data expression.
func MakeWhere(p *aterm.Pool, th *aterm.ThreadHandle, body, substitutions aterm.TermRef) (aterm.OwnedTerm, error) {
	return p.MakeApplication(th, p.WhereSymbol(), []aterm.TermRef{body, substitutions})
}
