package aterm

import (
	"strconv"
	"strings"
)

// FromText parses s as a term and returns an owned handle to it. The
// grammar is whitespace-insensitive:
//
//	term   := integer | name | name "(" term ("," term)* ")" | list
//	list   := "[" (term ("," term)*)? "]"
//	name   := any run of characters other than "(" ")" "[" "]" "," and
//	          whitespace, not parseable as a decimal integer
//
// A list desugars into nested applications of the reserved Cons/[]
// constructors, so `[1, 2]` and `Cons(1, Cons(2, []))` intern to the
// same node.
func (p *Pool) FromText(th *ThreadHandle, s string) (OwnedTerm, error) {
	parser := &textParser{pool: p, th: th, src: s}

	parser.skipSpace()
	term, err := parser.parseTerm()
	if err != nil {
		return OwnedTerm{}, err
	}

	parser.skipSpace()
	if parser.pos != len(parser.src) {
		return OwnedTerm{}, &ParseError{Pos: parser.pos, Message: "trailing input after term"}
	}

	return term, nil
}

type textParser struct {
	pool *Pool
	th   *ThreadHandle
	src  string
	pos  int
}

func (p *textParser) skipSpace() {
	for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' || b == '\r' }

func isDelim(b byte) bool {
	return b == '(' || b == ')' || b == '[' || b == ']' || b == ',' || isSpace(b)
}

func (p *textParser) parseTerm() (OwnedTerm, error) {
	if p.pos >= len(p.src) {
		return OwnedTerm{}, &ParseError{Pos: p.pos, Message: "unexpected end of input"}
	}

	if p.src[p.pos] == '[' {
		return p.parseList()
	}

	start := p.pos
	for p.pos < len(p.src) && !isDelim(p.src[p.pos]) {
		p.pos++
	}

	if p.pos == start {
		return OwnedTerm{}, &ParseError{Pos: start, Message: "expected a term"}
	}

	tok := p.src[start:p.pos]

	if val, err := strconv.ParseUint(tok, 10, 64); err == nil {
		return p.pool.MakeInt(p.th, val), nil
	}

	p.skipSpace()

	if p.pos < len(p.src) && p.src[p.pos] == '(' {
		p.pos++

		args, err := p.parseArgs()
		if err != nil {
			return OwnedTerm{}, err
		}

		sym := p.pool.Intern(p.th, tok, len(args))
		defer p.pool.ReleaseSymbol(p.th, sym)

		refs := make([]TermRef, len(args))
		for i, a := range args {
			refs[i] = a.Ref()
		}

		result, err := p.pool.MakeApplication(p.th, sym, refs)

		for _, a := range args {
			a.Drop()
		}

		if err != nil {
			return OwnedTerm{}, err
		}

		return result, nil
	}

	sym := p.pool.Intern(p.th, tok, 0)
	defer p.pool.ReleaseSymbol(p.th, sym)

	return p.pool.MakeApplication(p.th, sym, nil)
}

func (p *textParser) parseArgs() ([]OwnedTerm, error) {
	var args []OwnedTerm

	p.skipSpace()

	if p.pos < len(p.src) && p.src[p.pos] == ')' {
		p.pos++
		return args, nil
	}

	for {
		p.skipSpace()

		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		args = append(args, term)

		p.skipSpace()

		if p.pos >= len(p.src) {
			return nil, &ParseError{Pos: p.pos, Message: "unterminated argument list"}
		}

		switch p.src[p.pos] {
		case ',':
			p.pos++
		case ')':
			p.pos++
			return args, nil
		default:
			return nil, &ParseError{Pos: p.pos, Message: "expected ',' or ')'"}
		}
	}
}

func (p *textParser) parseList() (OwnedTerm, error) {
	p.pos++ // consume '['

	var elems []OwnedTerm

	p.skipSpace()

	if p.pos < len(p.src) && p.src[p.pos] == ']' {
		p.pos++
	} else {
		for {
			p.skipSpace()

			term, err := p.parseTerm()
			if err != nil {
				return OwnedTerm{}, err
			}
			elems = append(elems, term)

			p.skipSpace()

			if p.pos >= len(p.src) {
				return OwnedTerm{}, &ParseError{Pos: p.pos, Message: "unterminated list"}
			}

			switch p.src[p.pos] {
			case ',':
				p.pos++
			case ']':
				p.pos++
				goto done
			default:
				return OwnedTerm{}, &ParseError{Pos: p.pos, Message: "expected ',' or ']'"}
			}
		}
	}

done:
	result := p.pool.MakeApplication0(p.th, p.pool.reserved.emptyList)

	for i := len(elems) - 1; i >= 0; i-- {
		next, err := p.pool.MakeApplication(p.th, p.pool.reserved.cons, []TermRef{elems[i].Ref(), result.Ref()})
		result.Drop()
		if err != nil {
			return OwnedTerm{}, err
		}
		result = next
	}

	for _, e := range elems {
		e.Drop()
	}

	return result, nil
}

// ToText renders r as the same surface syntax [Pool.FromText] accepts,
// comma-separating arguments and list elements with no following space
// (`f(a,g(b))`, `[1,2,3]`) to match the literal output spec.md §8
// scenario 2 requires.
func (p *Pool) ToText(th *ThreadHandle, r TermRef) string {
	var sb strings.Builder
	p.writeText(&sb, th, r)

	return sb.String()
}

func (p *Pool) writeText(sb *strings.Builder, th *ThreadHandle, r TermRef) {
	switch {
	case r.IsInt(p):
		val, _ := r.AsInt(p)
		sb.WriteString(strconv.FormatUint(val, 10))
	case r.node.sym == p.reserved.emptyList || r.node.sym == p.reserved.cons:
		p.writeListText(sb, th, r)
	default:
		sb.WriteString(r.Symbol().Name())

		if r.Arity() > 0 {
			sb.WriteByte('(')
			for i := 0; i < r.Arity(); i++ {
				if i > 0 {
					sb.WriteByte(',')
				}
				arg, _ := r.Arg(i)
				p.writeText(sb, th, arg)
			}
			sb.WriteByte(')')
		}
	}
}

func (p *Pool) writeListText(sb *strings.Builder, th *ThreadHandle, r TermRef) {
	sb.WriteByte('[')

	first := true
	cur := r

	for cur.node.sym == p.reserved.cons {
		if !first {
			sb.WriteByte(',')
		}
		first = false

		head, _ := cur.Arg(0)
		p.writeText(sb, th, head)

		tail, _ := cur.Arg(1)
		cur = tail
	}

	sb.WriteByte(']')
}

// MakeApplication0 is the zero-argument convenience form of
// [Pool.MakeApplication], used for reserved constants that never need
// a caller-allocated empty args slice.
func (p *Pool) MakeApplication0(th *ThreadHandle, sym *Symbol) OwnedTerm {
	result, err := p.MakeApplication(th, sym, nil)
	if err != nil {
		// A reserved 0-arity symbol applied to zero arguments cannot
		// fail an arity check.
		panic(err)
	}

	return result
}
