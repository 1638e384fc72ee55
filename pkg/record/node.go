package record

import (
	"bytes"
	"encoding/json"
	"strconv"

	"gitlab.com/tozd/go/errors"
)

// 🌲 NodeKind identifies the shape of a JSON value
type NodeKind int

const (
	NodeObject NodeKind = iota
	NodeArray
	NodeString
	NodeLiteral // number, bool or null, kept as raw text
)

// 🔑 Member is a single object member; order of members is preserved
type Member struct {
	Key   string
	Value *Node
}

// 🌳 Node is a JSON value that preserves object member order.
// encoding/json maps lose key order, which breaks round-trip fidelity of
// localization files, so decoding is done at token level instead.
type Node struct {
	Kind    NodeKind
	Members []Member // NodeObject
	Elems   []*Node  // NodeArray
	Str     string   // NodeString
	Lit     string   // NodeLiteral raw text
}

// 📖 DecodeNode parses data into an order-preserving node tree
func DecodeNode(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	n, err := parseValue(dec)
	if err != nil {
		return nil, errors.Errorf("decoding json: %w", err)
	}

	// Reject trailing garbage
	if _, err := dec.Token(); err == nil {
		return nil, errors.Errorf("decoding json: unexpected trailing content")
	}

	return n, nil
}

func parseValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return parseObject(dec)
		case '[':
			return parseArray(dec)
		default:
			return nil, errors.Errorf("unexpected delimiter %q", v.String())
		}
	case string:
		return &Node{Kind: NodeString, Str: v}, nil
	case json.Number:
		return &Node{Kind: NodeLiteral, Lit: v.String()}, nil
	case bool:
		if v {
			return &Node{Kind: NodeLiteral, Lit: "true"}, nil
		}
		return &Node{Kind: NodeLiteral, Lit: "false"}, nil
	case nil:
		return &Node{Kind: NodeLiteral, Lit: "null"}, nil
	default:
		return nil, errors.Errorf("unexpected token %v", tok)
	}
}

func parseObject(dec *json.Decoder) (*Node, error) {
	n := &Node{Kind: NodeObject}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, errors.Errorf("object key is not a string: %v", keyTok)
		}
		val, err := parseValue(dec)
		if err != nil {
			return nil, err
		}
		n.Members = append(n.Members, Member{Key: key, Value: val})
	}
	// Consume closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return n, nil
}

func parseArray(dec *json.Decoder) (*Node, error) {
	n := &Node{Kind: NodeArray}
	for dec.More() {
		val, err := parseValue(dec)
		if err != nil {
			return nil, err
		}
		n.Elems = append(n.Elems, val)
	}
	// Consume closing ']'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return n, nil
}

// 🧬 Clone returns a deep copy of the node tree
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Kind: n.Kind, Str: n.Str, Lit: n.Lit}
	if n.Members != nil {
		out.Members = make([]Member, len(n.Members))
		for i, m := range n.Members {
			out.Members[i] = Member{Key: m.Key, Value: m.Value.Clone()}
		}
	}
	if n.Elems != nil {
		out.Elems = make([]*Node, len(n.Elems))
		for i, e := range n.Elems {
			out.Elems[i] = e.Clone()
		}
	}
	return out
}

// 📝 Encode serializes the node tree with two-space indentation,
// writing object members in their original order
func (n *Node) Encode() []byte {
	var buf bytes.Buffer
	n.encode(&buf, 0)
	buf.WriteByte('\n')
	return buf.Bytes()
}

func (n *Node) encode(buf *bytes.Buffer, depth int) {
	switch n.Kind {
	case NodeObject:
		if len(n.Members) == 0 {
			buf.WriteString("{}")
			return
		}
		buf.WriteString("{\n")
		for i, m := range n.Members {
			writeIndent(buf, depth+1)
			buf.Write(encodeString(m.Key))
			buf.WriteString(": ")
			m.Value.encode(buf, depth+1)
			if i < len(n.Members)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		writeIndent(buf, depth)
		buf.WriteByte('}')
	case NodeArray:
		if len(n.Elems) == 0 {
			buf.WriteString("[]")
			return
		}
		buf.WriteString("[\n")
		for i, e := range n.Elems {
			writeIndent(buf, depth+1)
			e.encode(buf, depth+1)
			if i < len(n.Elems)-1 {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		writeIndent(buf, depth)
		buf.WriteByte(']')
	case NodeString:
		buf.Write(encodeString(n.Str))
	case NodeLiteral:
		buf.WriteString(n.Lit)
	}
}

func writeIndent(buf *bytes.Buffer, depth int) {
	for i := 0; i < depth; i++ {
		buf.WriteString("  ")
	}
}

// encodeString quotes s without HTML escaping, so text like "<item>"
// survives unchanged
func encodeString(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		// Strings are always encodable; fall back just in case
		return []byte(strconv.Quote(s))
	}
	return bytes.TrimRight(buf.Bytes(), "\n")
}
