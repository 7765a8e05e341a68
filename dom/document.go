// Package dom is the simulated document: an arena of nodes addressed by
// NodeID, with tree mutation, selectors, HTML parsing and event dispatch.
package dom

import (
	"strings"

	"github.com/pkg/errors"
)

// NodeID addresses a node in its Document. The zero value means no node.
type NodeID int

const (
	NoNode NodeID = 0
	// WindowID is the pseudo event target above the document.
	WindowID NodeID = -1
)

// NodeType classifies nodes.
type NodeType int

const (
	DocumentNode NodeType = iota
	ElementNode
	TextNode
	CommentNode
	FragmentNode
)

// Attr is one element attribute.
type Attr struct {
	Name  string
	Value string
}

// Node is an arena entry. Fields are owned by the Document; callers mutate
// through Document methods.
type Node struct {
	ID       NodeID
	Type     NodeType
	Tag      string
	Attrs    []Attr
	Data     string
	Parent   NodeID
	Children []NodeID

	value      string
	valueDirty bool
	checked    bool
	checkDirty bool
}

// Sentinel errors for invalid tree operations.
var (
	ErrHierarchy = errors.New("HierarchyRequestError")
	ErrNotFound  = errors.New("NotFoundError")
	ErrNoNode    = errors.New("no such node")
)

// Document owns every node.
type Document struct {
	nodes   []*Node
	root    NodeID
	focused NodeID
	Events  *Registry
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	d := &Document{nodes: []*Node{nil}, Events: NewRegistry()}
	d.root = d.alloc(&Node{Type: DocumentNode, Tag: "#document"})
	return d
}

func (d *Document) alloc(n *Node) NodeID {
	n.ID = NodeID(len(d.nodes))
	d.nodes = append(d.nodes, n)
	return n.ID
}

// Root returns the document node.
func (d *Document) Root() NodeID {
	return d.root
}

// Node returns the arena entry for id, or nil.
func (d *Document) Node(id NodeID) *Node {
	if id <= 0 || int(id) >= len(d.nodes) {
		return nil
	}
	return d.nodes[id]
}

// Len reports the number of allocated nodes.
func (d *Document) Len() int {
	return len(d.nodes) - 1
}

// CreateElement allocates a detached element.
func (d *Document) CreateElement(tag string) NodeID {
	return d.alloc(&Node{Type: ElementNode, Tag: strings.ToLower(tag)})
}

// CreateTextNode allocates a detached text node.
func (d *Document) CreateTextNode(text string) NodeID {
	return d.alloc(&Node{Type: TextNode, Tag: "#text", Data: text})
}

// CreateComment allocates a detached comment.
func (d *Document) CreateComment(text string) NodeID {
	return d.alloc(&Node{Type: CommentNode, Tag: "#comment", Data: text})
}

// CreateFragment allocates a detached document fragment.
func (d *Document) CreateFragment() NodeID {
	return d.alloc(&Node{Type: FragmentNode, Tag: "#document-fragment"})
}

// Element helpers

// DocumentElement returns the <html> element.
func (d *Document) DocumentElement() NodeID {
	for _, c := range d.nodes[d.root].Children {
		if d.nodes[c].Type == ElementNode {
			return c
		}
	}
	return NoNode
}

// Body returns the <body> element, or NoNode.
func (d *Document) Body() NodeID {
	return d.childByTag(d.DocumentElement(), "body")
}

// Head returns the <head> element, or NoNode.
func (d *Document) Head() NodeID {
	return d.childByTag(d.DocumentElement(), "head")
}

func (d *Document) childByTag(parent NodeID, tag string) NodeID {
	n := d.Node(parent)
	if n == nil {
		return NoNode
	}
	for _, c := range n.Children {
		if d.nodes[c].Tag == tag {
			return c
		}
	}
	return NoNode
}

// Contains reports whether other is id or one of its descendants.
func (d *Document) Contains(id, other NodeID) bool {
	for cur := other; cur != NoNode; cur = d.nodes[cur].Parent {
		if cur == id {
			return true
		}
	}
	return false
}

// IsConnected reports whether id is attached to the document tree.
func (d *Document) IsConnected(id NodeID) bool {
	return d.Node(id) != nil && d.Contains(d.root, id)
}

// Ancestors returns the parent chain of id, nearest first.
func (d *Document) Ancestors(id NodeID) []NodeID {
	var out []NodeID
	for cur := d.nodes[id].Parent; cur != NoNode; cur = d.nodes[cur].Parent {
		out = append(out, cur)
	}
	return out
}

// ChildElements returns the element children of id.
func (d *Document) ChildElements(id NodeID) []NodeID {
	n := d.Node(id)
	if n == nil {
		return nil
	}
	var out []NodeID
	for _, c := range n.Children {
		if d.nodes[c].Type == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// Siblings

func (d *Document) siblingIndex(id NodeID) (NodeID, int) {
	parent := d.nodes[id].Parent
	if parent == NoNode {
		return NoNode, -1
	}
	for i, c := range d.nodes[parent].Children {
		if c == id {
			return parent, i
		}
	}
	return parent, -1
}

// NextSibling returns the following sibling, or NoNode.
func (d *Document) NextSibling(id NodeID) NodeID {
	parent, i := d.siblingIndex(id)
	if i < 0 || i+1 >= len(d.nodes[parent].Children) {
		return NoNode
	}
	return d.nodes[parent].Children[i+1]
}

// PreviousSibling returns the preceding sibling, or NoNode.
func (d *Document) PreviousSibling(id NodeID) NodeID {
	parent, i := d.siblingIndex(id)
	if i <= 0 {
		return NoNode
	}
	return d.nodes[parent].Children[i-1]
}

// Walk visits id's descendants in document order, excluding id itself.
// Returning false from fn stops the walk.
func (d *Document) Walk(id NodeID, fn func(NodeID) bool) {
	var visit func(NodeID) bool
	visit = func(cur NodeID) bool {
		for _, c := range d.nodes[cur].Children {
			if !fn(c) || !visit(c) {
				return false
			}
		}
		return true
	}
	if d.Node(id) != nil {
		visit(id)
	}
}

// Attributes

// GetAttribute returns an attribute value and whether it exists.
func (d *Document) GetAttribute(id NodeID, name string) (string, bool) {
	n := d.Node(id)
	if n == nil {
		return "", false
	}
	name = strings.ToLower(name)
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// HasAttribute reports whether the attribute exists.
func (d *Document) HasAttribute(id NodeID, name string) bool {
	_, ok := d.GetAttribute(id, name)
	return ok
}

// SetAttribute creates or replaces an attribute in place.
func (d *Document) SetAttribute(id NodeID, name, value string) {
	n := d.Node(id)
	if n == nil || n.Type != ElementNode {
		return
	}
	name = strings.ToLower(name)
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// RemoveAttribute deletes an attribute if present.
func (d *Document) RemoveAttribute(id NodeID, name string) {
	n := d.Node(id)
	if n == nil {
		return
	}
	name = strings.ToLower(name)
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs = append(n.Attrs[:i], n.Attrs[i+1:]...)
			return
		}
	}
}

// AttributeNames lists attribute names in source order.
func (d *Document) AttributeNames(id NodeID) []string {
	n := d.Node(id)
	if n == nil {
		return nil
	}
	out := make([]string, len(n.Attrs))
	for i, a := range n.Attrs {
		out[i] = a.Name
	}
	return out
}

// GetElementByID finds the first connected element with the id attribute.
func (d *Document) GetElementByID(id string) NodeID {
	found := NoNode
	d.Walk(d.root, func(n NodeID) bool {
		if v, ok := d.GetAttribute(n, "id"); ok && v == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Text

// TextContent concatenates descendant text.
func (d *Document) TextContent(id NodeID) string {
	n := d.Node(id)
	if n == nil {
		return ""
	}
	if n.Type == TextNode || n.Type == CommentNode {
		return n.Data
	}
	var b strings.Builder
	d.Walk(id, func(c NodeID) bool {
		if d.nodes[c].Type == TextNode {
			b.WriteString(d.nodes[c].Data)
		}
		return true
	})
	return b.String()
}

// SetTextContent replaces all children with a single text node.
func (d *Document) SetTextContent(id NodeID, text string) {
	n := d.Node(id)
	if n == nil {
		return
	}
	if n.Type == TextNode || n.Type == CommentNode {
		n.Data = text
		return
	}
	d.detachChildren(id)
	if text != "" {
		t := d.CreateTextNode(text)
		d.nodes[t].Parent = id
		n.Children = []NodeID{t}
	}
}

func (d *Document) detachChildren(id NodeID) {
	n := d.nodes[id]
	for _, c := range n.Children {
		d.nodes[c].Parent = NoNode
		if d.Contains(c, d.focused) {
			d.focused = NoNode
		}
	}
	n.Children = nil
}

// Tree mutation

func (d *Document) checkInsert(parent, child NodeID) error {
	p, c := d.Node(parent), d.Node(child)
	if p == nil || c == nil {
		return ErrNoNode
	}
	if p.Type == TextNode || p.Type == CommentNode || c.Type == DocumentNode {
		return errors.Wrap(ErrHierarchy, "The new child element contains the parent.")
	}
	if d.Contains(child, parent) {
		return errors.Wrap(ErrHierarchy, "The new child element contains the parent.")
	}
	return nil
}

func (d *Document) detach(child NodeID) {
	parent, i := d.siblingIndex(child)
	if i < 0 {
		return
	}
	p := d.nodes[parent]
	p.Children = append(p.Children[:i:i], p.Children[i+1:]...)
	d.nodes[child].Parent = NoNode
}

// insertAt inserts child (or a fragment's children) at index i of parent.
func (d *Document) insertAt(parent, child NodeID, i int) {
	var moving []NodeID
	if d.nodes[child].Type == FragmentNode {
		moving = append(moving, d.nodes[child].Children...)
		d.nodes[child].Children = nil
	} else {
		d.detach(child)
		moving = []NodeID{child}
	}
	p := d.nodes[parent]
	if i < 0 || i > len(p.Children) {
		i = len(p.Children)
	}
	rest := append([]NodeID{}, p.Children[i:]...)
	p.Children = append(append(p.Children[:i], moving...), rest...)
	for _, m := range moving {
		d.nodes[m].Parent = parent
	}
}

// AppendChild moves child to the end of parent's children.
func (d *Document) AppendChild(parent, child NodeID) error {
	if err := d.checkInsert(parent, child); err != nil {
		return err
	}
	d.insertAt(parent, child, -1)
	return nil
}

// InsertBefore inserts child before ref; a NoNode ref appends.
func (d *Document) InsertBefore(parent, child, ref NodeID) error {
	if err := d.checkInsert(parent, child); err != nil {
		return err
	}
	if ref == NoNode {
		d.insertAt(parent, child, -1)
		return nil
	}
	if d.nodes[ref].Parent != parent {
		return errors.Wrap(ErrNotFound, "The node before which the new node is to be inserted is not a child of this node.")
	}
	if ref == child {
		return nil
	}
	d.detach(child)
	_, i := d.siblingIndex(ref)
	d.insertAt(parent, child, i)
	return nil
}

// RemoveChild detaches child from parent.
func (d *Document) RemoveChild(parent, child NodeID) error {
	c := d.Node(child)
	if c == nil || c.Parent != parent {
		return errors.Wrap(ErrNotFound, "The node to be removed is not a child of this node.")
	}
	d.detach(child)
	if d.Contains(child, d.focused) {
		d.focused = NoNode
	}
	return nil
}

// ReplaceChild swaps old for replacement under parent.
func (d *Document) ReplaceChild(parent, replacement, old NodeID) error {
	if err := d.checkInsert(parent, replacement); err != nil {
		return err
	}
	if o := d.Node(old); o == nil || o.Parent != parent {
		return errors.Wrap(ErrNotFound, "The node to be replaced is not a child of this node.")
	}
	if replacement == old {
		return nil
	}
	d.detach(replacement)
	_, i := d.siblingIndex(old)
	d.detach(old)
	d.insertAt(parent, replacement, i)
	return nil
}

// Remove detaches id from its parent, if any.
func (d *Document) Remove(id NodeID) {
	n := d.Node(id)
	if n == nil || n.Parent == NoNode {
		return
	}
	_ = d.RemoveChild(n.Parent, id)
}

// Before inserts nodes before id.
func (d *Document) Before(id NodeID, nodes ...NodeID) error {
	parent := d.nodes[id].Parent
	if parent == NoNode {
		return nil
	}
	for _, n := range nodes {
		if err := d.InsertBefore(parent, n, id); err != nil {
			return err
		}
	}
	return nil
}

// After inserts nodes after id, preserving their order.
func (d *Document) After(id NodeID, nodes ...NodeID) error {
	parent := d.nodes[id].Parent
	if parent == NoNode {
		return nil
	}
	ref := d.NextSibling(id)
	for _, n := range nodes {
		if err := d.InsertBefore(parent, n, ref); err != nil {
			return err
		}
	}
	return nil
}

// Append appends nodes to id.
func (d *Document) Append(id NodeID, nodes ...NodeID) error {
	for _, n := range nodes {
		if err := d.AppendChild(id, n); err != nil {
			return err
		}
	}
	return nil
}

// Prepend inserts nodes at the start of id.
func (d *Document) Prepend(id NodeID, nodes ...NodeID) error {
	var first NodeID
	if ch := d.nodes[id].Children; len(ch) > 0 {
		first = ch[0]
	}
	for _, n := range nodes {
		if err := d.InsertBefore(id, n, first); err != nil {
			return err
		}
	}
	return nil
}

// CloneNode copies id, optionally with its subtree. Listeners and form
// state are not copied.
func (d *Document) CloneNode(id NodeID, deep bool) NodeID {
	src := d.nodes[id]
	cp := &Node{Type: src.Type, Tag: src.Tag, Data: src.Data}
	cp.Attrs = append([]Attr(nil), src.Attrs...)
	clone := d.alloc(cp)
	if deep {
		for _, c := range src.Children {
			cc := d.CloneNode(c, true)
			d.nodes[cc].Parent = clone
			cp.Children = append(cp.Children, cc)
		}
	}
	return clone
}

// Focus

// Focus makes id the active element.
func (d *Document) Focus(id NodeID) {
	if d.Node(id) != nil && d.IsConnected(id) {
		d.focused = id
	}
}

// Blur clears focus if id holds it.
func (d *Document) Blur(id NodeID) {
	if d.focused == id {
		d.focused = NoNode
	}
}

// ActiveElement returns the focused element, or the body.
func (d *Document) ActiveElement() NodeID {
	if d.focused != NoNode {
		return d.focused
	}
	return d.Body()
}

// Form state

// Value returns the current value of a form control.
func (d *Document) Value(id NodeID) string {
	n := d.Node(id)
	if n == nil {
		return ""
	}
	if n.valueDirty {
		return n.value
	}
	switch n.Tag {
	case "textarea":
		return d.TextContent(id)
	case "select":
		for _, opt := range d.selectOptions(id) {
			if d.HasAttribute(opt, "selected") {
				return d.optionValue(opt)
			}
		}
		if opts := d.selectOptions(id); len(opts) > 0 {
			return d.optionValue(opts[0])
		}
		return ""
	case "option":
		return d.optionValue(id)
	}
	v, _ := d.GetAttribute(id, "value")
	return v
}

// SetValue sets the current value of a form control.
func (d *Document) SetValue(id NodeID, v string) {
	n := d.Node(id)
	if n == nil {
		return
	}
	n.value = v
	n.valueDirty = true
}

// Checked returns the checkedness of a checkbox or radio input.
func (d *Document) Checked(id NodeID) bool {
	n := d.Node(id)
	if n == nil {
		return false
	}
	if n.checkDirty {
		return n.checked
	}
	return d.HasAttribute(id, "checked")
}

// SetChecked sets checkedness. Checking a radio unchecks others in its
// group.
func (d *Document) SetChecked(id NodeID, checked bool) {
	n := d.Node(id)
	if n == nil {
		return
	}
	n.checked = checked
	n.checkDirty = true
	if !checked {
		return
	}
	if typ, _ := d.GetAttribute(id, "type"); typ != "radio" {
		return
	}
	group, ok := d.GetAttribute(id, "name")
	if !ok {
		return
	}
	d.Walk(d.root, func(other NodeID) bool {
		if other != id && d.nodes[other].Tag == "input" {
			if t, _ := d.GetAttribute(other, "type"); t == "radio" {
				if g, _ := d.GetAttribute(other, "name"); g == group {
					d.nodes[other].checked = false
					d.nodes[other].checkDirty = true
				}
			}
		}
		return true
	})
}

func (d *Document) selectOptions(id NodeID) []NodeID {
	var out []NodeID
	d.Walk(id, func(c NodeID) bool {
		if d.nodes[c].Tag == "option" {
			out = append(out, c)
		}
		return true
	})
	return out
}

func (d *Document) optionValue(id NodeID) string {
	if v, ok := d.GetAttribute(id, "value"); ok {
		return v
	}
	return strings.TrimSpace(d.TextContent(id))
}
