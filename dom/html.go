package dom

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseHTML builds a document from markup. Missing html/head/body elements
// are synthesized the way browsers do.
func ParseHTML(src string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, errors.Wrap(err, "parse html")
	}
	d := NewDocument()
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if id := d.importNode(c); id != NoNode {
			d.nodes[id].Parent = d.root
			d.nodes[d.root].Children = append(d.nodes[d.root].Children, id)
		}
	}
	return d, nil
}

// importNode copies an html.Node subtree into the arena. Doctypes are
// dropped.
func (d *Document) importNode(n *html.Node) NodeID {
	var id NodeID
	switch n.Type {
	case html.ElementNode:
		id = d.CreateElement(n.Data)
		node := d.nodes[id]
		for _, a := range n.Attr {
			name := a.Key
			if a.Namespace != "" {
				name = a.Namespace + ":" + a.Key
			}
			node.Attrs = append(node.Attrs, Attr{Name: name, Value: a.Val})
		}
	case html.TextNode:
		id = d.CreateTextNode(n.Data)
	case html.CommentNode:
		id = d.CreateComment(n.Data)
	default:
		return NoNode
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if child := d.importNode(c); child != NoNode {
			d.nodes[child].Parent = id
			d.nodes[id].Children = append(d.nodes[id].Children, child)
		}
	}
	return id
}

// exportNode converts an arena subtree into an html.Node tree.
func (d *Document) exportNode(id NodeID) *html.Node {
	n := d.nodes[id]
	var out *html.Node
	switch n.Type {
	case ElementNode:
		out = &html.Node{Type: html.ElementNode, Data: n.Tag, DataAtom: atom.Lookup([]byte(n.Tag))}
		for _, a := range n.Attrs {
			out.Attr = append(out.Attr, html.Attribute{Key: a.Name, Val: a.Value})
		}
	case TextNode:
		return &html.Node{Type: html.TextNode, Data: n.Data}
	case CommentNode:
		return &html.Node{Type: html.CommentNode, Data: n.Data}
	case DocumentNode:
		out = &html.Node{Type: html.DocumentNode}
	default:
		out = &html.Node{Type: html.DocumentNode}
	}
	for _, c := range n.Children {
		out.AppendChild(d.exportNode(c))
	}
	return out
}

func render(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

// OuterHTML serializes id including itself.
func (d *Document) OuterHTML(id NodeID) string {
	if d.Node(id) == nil {
		return ""
	}
	return render(d.exportNode(id))
}

// InnerHTML serializes the children of id.
func (d *Document) InnerHTML(id NodeID) string {
	n := d.Node(id)
	if n == nil {
		return ""
	}
	var b strings.Builder
	for _, c := range n.Children {
		// Render needs a parent for raw-text elements to escape correctly.
		exported := d.exportNode(c)
		if n.Type == ElementNode && exported.Type == html.TextNode {
			parent := &html.Node{Type: html.ElementNode, Data: n.Tag, DataAtom: atom.Lookup([]byte(n.Tag))}
			parent.AppendChild(exported)
			full := render(parent)
			open := "<" + n.Tag + ">"
			full = strings.TrimPrefix(full, open)
			full = strings.TrimSuffix(full, "</"+n.Tag+">")
			b.WriteString(full)
			continue
		}
		b.WriteString(render(exported))
	}
	return b.String()
}

// SetInnerHTML replaces the children of id with parsed markup.
func (d *Document) SetInnerHTML(id NodeID, markup string) error {
	n := d.Node(id)
	if n == nil {
		return ErrNoNode
	}
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	if n.Type == ElementNode {
		ctx = &html.Node{Type: html.ElementNode, Data: n.Tag, DataAtom: atom.Lookup([]byte(n.Tag))}
	}
	parsed, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return errors.Wrap(err, "parse fragment")
	}
	d.detachChildren(id)
	for _, p := range parsed {
		if child := d.importNode(p); child != NoNode {
			d.nodes[child].Parent = id
			n.Children = append(n.Children, child)
		}
	}
	return nil
}

// SetOuterHTML replaces id in its parent with parsed markup.
func (d *Document) SetOuterHTML(id NodeID, markup string) error {
	n := d.Node(id)
	if n == nil {
		return ErrNoNode
	}
	parent := n.Parent
	if parent == NoNode {
		return errors.New("NoModificationAllowedError: This element has no parent node.")
	}
	frag := d.CreateFragment()
	if err := d.SetInnerHTML(frag, markup); err != nil {
		return err
	}
	return d.ReplaceChild(parent, frag, id)
}
