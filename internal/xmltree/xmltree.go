// Package xmltree provides a small ordered XML element tree for documents
// that are read, edited in place, and written back out.
//
// Unlike struct-mapped encoding/xml decoding, the tree preserves element
// order, attributes, comments, directives, processing instructions, and mixed
// character data, so a document can be round-tripped with only deliberate
// edits applied. Serialization always emits an XML declaration and UTF-8
// output. Prolog constructs outside the root element (the original
// declaration, a DOCTYPE) are not retained; the fresh declaration replaces
// them on write.
package xmltree

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// Node is one ordered child of an element: *Element, CharData, Comment,
// Directive, or ProcInst.
type Node interface {
	isNode()
}

// CharData is raw text content between elements.
type CharData string

// Comment is an XML comment, stored without the <!-- --> markers.
type Comment string

// Directive is an XML directive, stored without the <! > markers.
type Directive string

// ProcInst is a processing instruction.
type ProcInst struct {
	Target string
	Inst   string
}

// Attr is a single element attribute.
type Attr struct {
	Key   string
	Value string
}

// Element is a tag with attributes and ordered children.
type Element struct {
	Tag      string
	Attrs    []Attr
	Children []Node
}

func (*Element) isNode()  {}
func (CharData) isNode()  {}
func (Comment) isNode()   {}
func (Directive) isNode() {}
func (ProcInst) isNode()  {}

// NewElement builds an element with the given tag and attributes.
func NewElement(tag string, attrs ...Attr) *Element {
	return &Element{Tag: tag, Attrs: attrs}
}

// Append attaches node as the last child of e.
func (e *Element) Append(node Node) {
	e.Children = append(e.Children, node)
}

// Attr returns the value of the named attribute, or "" when absent.
func (e *Element) Attr(key string) string {
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

// FindChild returns the first child element with the given tag whose
// attribute attrKey equals attrValue, or nil when no child matches. An empty
// attrKey matches on tag alone.
func (e *Element) FindChild(tag, attrKey, attrValue string) *Element {
	for _, node := range e.Children {
		child, ok := node.(*Element)
		if !ok || child.Tag != tag {
			continue
		}
		if attrKey == "" || child.Attr(attrKey) == attrValue {
			return child
		}
	}
	return nil
}

// ChildElements returns the element children of e in document order.
func (e *Element) ChildElements() []*Element {
	elements := make([]*Element, 0, len(e.Children))
	for _, node := range e.Children {
		if child, ok := node.(*Element); ok {
			elements = append(elements, child)
		}
	}
	return elements
}

// Text returns the concatenated character data directly under e.
func (e *Element) Text() string {
	var b strings.Builder
	for _, node := range e.Children {
		if text, ok := node.(CharData); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}

// Parse reads an XML document and returns its root element.
func Parse(r io.Reader) (*Element, error) {
	decoder := xml.NewDecoder(r)

	var root *Element
	var stack []*Element
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}

		switch tok := token.(type) {
		case xml.StartElement:
			element := &Element{Tag: tok.Name.Local}
			for _, a := range tok.Attr {
				key := a.Name.Local
				if a.Name.Space == "xmlns" {
					key = "xmlns:" + a.Name.Local
				}
				element.Attrs = append(element.Attrs, Attr{Key: key, Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("parse xml: multiple root elements")
				}
				root = element
			} else {
				stack[len(stack)-1].Append(element)
			}
			stack = append(stack, element)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("parse xml: unexpected end element %q", tok.Name.Local)
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Append(CharData(tok))
			}
		case xml.Comment:
			if len(stack) > 0 {
				stack[len(stack)-1].Append(Comment(tok))
			}
		case xml.Directive:
			if len(stack) > 0 {
				stack[len(stack)-1].Append(Directive(tok))
			}
		case xml.ProcInst:
			if len(stack) > 0 {
				stack[len(stack)-1].Append(ProcInst{Target: tok.Target, Inst: string(tok.Inst)})
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("parse xml: no root element")
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("parse xml: unclosed element %q", stack[len(stack)-1].Tag)
	}
	return root, nil
}

// ParseFile reads and parses the XML document at path.
func ParseFile(path string) (*Element, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer file.Close()
	return Parse(bufio.NewReader(file))
}

// Indent rewrites the whitespace between elements so the serialized tree is
// human readable. Elements whose direct text content is non-whitespace are
// treated as mixed content and left untouched.
func Indent(root *Element, indent string) {
	indentElement(root, "\n", indent)
}

func indentElement(e *Element, prefix, indent string) {
	if len(e.ChildElements()) == 0 {
		return
	}
	for _, node := range e.Children {
		if text, ok := node.(CharData); ok && strings.TrimSpace(string(text)) != "" {
			// Mixed content; reformatting would alter meaning.
			return
		}
	}

	childPrefix := prefix + indent
	children := make([]Node, 0, 2*len(e.Children)+1)
	for _, node := range e.Children {
		if _, ok := node.(CharData); ok {
			continue
		}
		children = append(children, CharData(childPrefix), node)
		if child, ok := node.(*Element); ok {
			indentElement(child, childPrefix, indent)
		}
	}
	children = append(children, CharData(prefix))
	e.Children = children
}

// WriteTo serializes the tree with an XML declaration.
func WriteTo(w io.Writer, root *Element) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(xml.Header); err != nil {
		return err
	}
	if err := writeElement(bw, root); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	return bw.Flush()
}

// WriteFile serializes the tree to path, overwriting any existing file.
func WriteFile(root *Element, path string) error {
	var buf bytes.Buffer
	if err := WriteTo(&buf, root); err != nil {
		return fmt.Errorf("serialize document: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// encoding/xml's EscapeText also escapes whitespace, which would mangle the
// indentation chardata, so escaping is done with plain replacers.
var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

func writeElement(w *bufio.Writer, e *Element) error {
	if _, err := w.WriteString("<" + e.Tag); err != nil {
		return err
	}
	for _, a := range e.Attrs {
		if _, err := w.WriteString(" " + a.Key + `="` + attrEscaper.Replace(a.Value) + `"`); err != nil {
			return err
		}
	}
	if len(e.Children) == 0 {
		_, err := w.WriteString("/>")
		return err
	}
	if err := w.WriteByte('>'); err != nil {
		return err
	}
	for _, node := range e.Children {
		switch n := node.(type) {
		case *Element:
			if err := writeElement(w, n); err != nil {
				return err
			}
		case CharData:
			if _, err := w.WriteString(textEscaper.Replace(string(n))); err != nil {
				return err
			}
		case Comment:
			if _, err := w.WriteString("<!--" + string(n) + "-->"); err != nil {
				return err
			}
		case Directive:
			if _, err := w.WriteString("<!" + string(n) + ">"); err != nil {
				return err
			}
		case ProcInst:
			if _, err := w.WriteString("<?" + n.Target + " " + n.Inst + "?>"); err != nil {
				return err
			}
		}
	}
	_, err := w.WriteString("</" + e.Tag + ">")
	return err
}
