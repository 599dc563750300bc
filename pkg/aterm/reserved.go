package aterm

// The accessors below expose the pool's reserved symbols to consumers
// outside the package — chiefly [pkg/aterm/derived] — without exposing
// the reservedSymbols struct itself, keeping the Node/Symbol shape
// comparisons used by the schema predicates confined to this package.

// VarSymbol returns the reserved "Var"/1 symbol.
func (p *Pool) VarSymbol() *Symbol { return p.reserved.variable }

// ApplySymbol returns the reserved "Apply"/2 symbol.
func (p *Pool) ApplySymbol() *Symbol { return p.reserved.application }

// LambdaSymbol returns the reserved "Lambda"/2 symbol.
func (p *Pool) LambdaSymbol() *Symbol { return p.reserved.lambda }

// ForallSymbol returns the reserved "Forall"/2 symbol.
func (p *Pool) ForallSymbol() *Symbol { return p.reserved.forall }

// ExistsSymbol returns the reserved "Exists"/2 symbol.
func (p *Pool) ExistsSymbol() *Symbol { return p.reserved.exists }

// WhereSymbol returns the reserved "Where"/2 symbol.
func (p *Pool) WhereSymbol() *Symbol { return p.reserved.where }

// EmptyListSymbol returns the reserved "[]"/0 symbol.
func (p *Pool) EmptyListSymbol() *Symbol { return p.reserved.emptyList }

// ConsSymbol returns the reserved "Cons"/2 symbol.
func (p *Pool) ConsSymbol() *Symbol { return p.reserved.cons }

// IntHeadSymbol returns the reserved integer-marker symbol.
func (p *Pool) IntHeadSymbol() *Symbol { return p.reserved.intHead }
