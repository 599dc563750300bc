package aterm

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Binary wire format (C7): a magic header, then a stream of entries
// describing symbols and nodes in dependency order — every entry only
// ever references an index assigned by an entry already written, so a
// decoder never needs to buffer a forward reference — terminated by a
// sentinel tag and a trailing root table. Sharing in the in-memory term
// graph is preserved exactly: a node referenced by two parents is
// still emitted (and later decoded) exactly once.
const (
	wireMagic   = "ATRM"
	wireVersion = 1

	entrySymbol = 0x01
	entryNode   = 0x02
	entryInt    = 0x03
	entryEnd    = 0xFF
)

type encoder struct {
	w       *bufio.Writer
	symIdx  map[*Symbol]uint64
	nodeIdx map[*Node]uint64
	intHead *Symbol
	err     error
}

func (e *encoder) writeByte(b byte) {
	if e.err != nil {
		return
	}
	e.err = e.w.WriteByte(b)
}

func (e *encoder) writeUvarint(v uint64) {
	if e.err != nil {
		return
	}
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	_, e.err = e.w.Write(buf[:n])
}

func (e *encoder) writeBytes(b []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(b)
}

func (e *encoder) encodeSymbol(s *Symbol) uint64 {
	if idx, ok := e.symIdx[s]; ok {
		return idx
	}

	e.writeByte(entrySymbol)
	e.writeUvarint(uint64(len(s.name)))
	e.writeBytes([]byte(s.name))
	e.writeUvarint(uint64(s.arity))

	idx := uint64(len(e.symIdx))
	e.symIdx[s] = idx

	return idx
}

// encodeNode writes n and everything it depends on in postorder (args
// before the node that holds them), so every index a node entry cites
// has already been assigned by the time a decoder reads it.
func (e *encoder) encodeNode(n *Node) uint64 {
	if idx, ok := e.nodeIdx[n]; ok {
		return idx
	}

	if e.err != nil {
		return 0
	}

	if n.sym == e.intHead {
		e.writeByte(entryInt)

		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], n.intVal)
		e.writeBytes(buf[:])

		idx := uint64(len(e.nodeIdx))
		e.nodeIdx[n] = idx

		return idx
	}

	argIdx := make([]uint64, len(n.args))
	for i, a := range n.args {
		argIdx[i] = e.encodeNode(a)
	}

	symIdx := e.encodeSymbol(n.sym)

	e.writeByte(entryNode)
	e.writeUvarint(symIdx)
	for _, ai := range argIdx {
		e.writeUvarint(ai)
	}

	idx := uint64(len(e.nodeIdx))
	e.nodeIdx[n] = idx

	return idx
}

// WriteBinary serializes roots (and every node they transitively
// reference) to w. Two nodes reachable from different roots, or from
// the same root via two paths, are written exactly once: decoding the
// result and re-encoding it reproduces a byte-identical stream.
func (p *Pool) WriteBinary(w io.Writer, th *ThreadHandle, roots []TermRef) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(wireMagic); err != nil {
		return err
	}
	if err := bw.WriteByte(wireVersion); err != nil {
		return err
	}

	enc := &encoder{w: bw, symIdx: map[*Symbol]uint64{}, nodeIdx: map[*Node]uint64{}, intHead: p.reserved.intHead}

	th.reader.LockShared()
	rootIdx := make([]uint64, len(roots))
	for i, r := range roots {
		rootIdx[i] = enc.encodeNode(r.node)
	}
	th.reader.UnlockShared()

	if enc.err != nil {
		return enc.err
	}

	enc.writeByte(entryEnd)
	enc.writeUvarint(uint64(len(roots)))
	for _, idx := range rootIdx {
		enc.writeUvarint(idx)
	}

	if enc.err != nil {
		return enc.err
	}

	return bw.Flush()
}

type decoder struct {
	r         *bufio.Reader
	off       int64
	symbols   []*Symbol
	nodes     []OwnedTerm
	pool      *Pool
	th        *ThreadHandle
}

func (d *decoder) fail(msg string) error {
	return &FormatError{Offset: d.off, Message: msg}
}

func (d *decoder) readByte() (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, d.fail("unexpected end of stream")
	}
	d.off++

	return b, nil
}

func (d *decoder) readUvarint() (uint64, error) {
	var v uint64

	for i, shift := 0, uint(0); i < binary.MaxVarintLen64; i, shift = i+1, shift+7 {
		b, err := d.r.ReadByte()
		if err != nil {
			return 0, d.fail("truncated integer")
		}
		d.off++

		if b < 0x80 {
			if i == binary.MaxVarintLen64-1 && b > 1 {
				return 0, d.fail("integer overflows 64 bits")
			}

			return v | uint64(b)<<shift, nil
		}
		v |= uint64(b&0x7f) << shift
	}

	return 0, d.fail("integer overflows 64 bits")
}

func (d *decoder) readExact(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return nil, d.fail("truncated field")
	}
	d.off += int64(n)

	return buf, nil
}

// ReadBinary decodes a stream written by [Pool.WriteBinary], returning
// one owned handle per encoded root, in the order they were written.
func (p *Pool) ReadBinary(r io.Reader, th *ThreadHandle) ([]OwnedTerm, error) {
	br := bufio.NewReader(r)

	magic, err := readN(br, len(wireMagic))
	if err != nil || string(magic) != wireMagic {
		return nil, &FormatError{Offset: 0, Message: "bad magic header"}
	}

	version, err := br.ReadByte()
	if err != nil {
		return nil, &FormatError{Offset: int64(len(wireMagic)), Message: "missing version byte"}
	}
	if version != wireVersion {
		return nil, &FormatError{Offset: int64(len(wireMagic)), Message: fmt.Sprintf("unsupported version %d", version)}
	}

	d := &decoder{r: br, pool: p, th: th, off: int64(len(wireMagic)) + 1}

	for {
		tag, err := d.readByte()
		if err != nil {
			return nil, err
		}

		switch tag {
		case entrySymbol:
			nameLen, err := d.readUvarint()
			if err != nil {
				return nil, err
			}
			name, err := d.readExact(int(nameLen))
			if err != nil {
				return nil, err
			}
			arity, err := d.readUvarint()
			if err != nil {
				return nil, err
			}

			sym := p.Intern(th, string(name), int(arity))
			d.symbols = append(d.symbols, sym)

		case entryNode:
			symIdx, err := d.readUvarint()
			if err != nil {
				return nil, err
			}
			if symIdx >= uint64(len(d.symbols)) {
				return nil, d.fail("node entry references unknown symbol")
			}
			sym := d.symbols[symIdx]

			args := make([]TermRef, sym.Arity())
			for i := range args {
				argIdx, err := d.readUvarint()
				if err != nil {
					return nil, err
				}
				if argIdx >= uint64(len(d.nodes)) {
					return nil, d.fail("node entry references unknown argument")
				}
				args[i] = d.nodes[argIdx].Ref()
			}

			owned, err := p.MakeApplication(th, sym, args)
			if err != nil {
				return nil, d.fail(err.Error())
			}
			d.nodes = append(d.nodes, owned)

		case entryInt:
			raw, err := d.readExact(8)
			if err != nil {
				return nil, err
			}
			val := binary.LittleEndian.Uint64(raw)
			d.nodes = append(d.nodes, p.MakeInt(th, val))

		case entryEnd:
			return d.finishRoots()

		default:
			return nil, d.fail(fmt.Sprintf("unknown entry tag 0x%02x", tag))
		}
	}
}

func (d *decoder) finishRoots() ([]OwnedTerm, error) {
	count, err := d.readUvarint()
	if err != nil {
		return nil, err
	}

	roots := make([]OwnedTerm, count)
	for i := range roots {
		idx, err := d.readUvarint()
		if err != nil {
			return nil, err
		}
		if idx >= uint64(len(d.nodes)) {
			return nil, d.fail("root entry references unknown node")
		}
		roots[i] = d.nodes[idx].Clone()
	}

	for _, n := range d.nodes {
		n.Drop()
	}
	for _, s := range d.symbols {
		d.pool.ReleaseSymbol(d.th, s)
	}

	return roots, nil
}

func readN(r *bufio.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	return buf, nil
}
