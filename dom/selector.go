package dom

import (
	"strconv"
	"strings"
)

// SelectorError reports a selector that failed to parse.
type SelectorError struct {
	Selector string
}

func (e *SelectorError) Error() string {
	return "'" + e.Selector + "' is not a valid selector"
}

type attrSelector struct {
	name  string
	op    string // "", "=", "~=", "^=", "$=", "*=", "|="
	value string
}

type pseudoSelector struct {
	name string
	not  []complexSelector
	a, b int
}

type compoundSelector struct {
	tag     string
	id      string
	classes []string
	attrs   []attrSelector
	pseudos []pseudoSelector
}

// complexSelector is compounds joined by combinators; combinators[i] links
// compounds[i] and compounds[i+1].
type complexSelector struct {
	compounds   []compoundSelector
	combinators []byte
}

// Selector is a parsed selector list.
type Selector struct {
	source string
	list   []complexSelector
}

func (s *Selector) String() string {
	return s.source
}

// CompileSelector parses a selector list.
func CompileSelector(src string) (*Selector, error) {
	p := &selectorParser{src: src}
	list, err := p.parseList()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.src) {
		return nil, &SelectorError{Selector: src}
	}
	return &Selector{source: src, list: list}, nil
}

type selectorParser struct {
	src string
	pos int
}

func (p *selectorParser) fail() error {
	return &SelectorError{Selector: p.src}
}

func (p *selectorParser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *selectorParser) skipSpace() bool {
	start := p.pos
	for p.pos < len(p.src) && isSelectorSpace(p.src[p.pos]) {
		p.pos++
	}
	return p.pos > start
}

func isSelectorSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isIdentChar(c byte) bool {
	return c == '-' || c == '_' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (p *selectorParser) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '\\' && p.pos+1 < len(p.src) {
			p.pos += 2
			continue
		}
		if !isIdentChar(c) {
			break
		}
		p.pos++
	}
	return strings.ReplaceAll(p.src[start:p.pos], "\\", "")
}

func (p *selectorParser) parseList() ([]complexSelector, error) {
	var list []complexSelector
	for {
		p.skipSpace()
		sel, err := p.parseComplex()
		if err != nil {
			return nil, err
		}
		list = append(list, sel)
		p.skipSpace()
		if p.peek() != ',' {
			return list, nil
		}
		p.pos++
	}
}

func (p *selectorParser) parseComplex() (complexSelector, error) {
	var sel complexSelector
	first, err := p.parseCompound()
	if err != nil {
		return sel, err
	}
	sel.compounds = append(sel.compounds, first)
	for {
		hadSpace := p.skipSpace()
		c := p.peek()
		var comb byte
		switch {
		case c == '>' || c == '+' || c == '~':
			comb = c
			p.pos++
			p.skipSpace()
		case c == 0 || c == ',' || c == ')':
			return sel, nil
		case hadSpace:
			comb = ' '
		default:
			return sel, p.fail()
		}
		next, err := p.parseCompound()
		if err != nil {
			return sel, err
		}
		sel.combinators = append(sel.combinators, comb)
		sel.compounds = append(sel.compounds, next)
	}
}

func (p *selectorParser) parseCompound() (compoundSelector, error) {
	var c compoundSelector
	start := p.pos
	if p.peek() == '*' {
		p.pos++
		c.tag = "*"
	} else if isIdentChar(p.peek()) {
		c.tag = strings.ToLower(p.ident())
	}
	for {
		switch p.peek() {
		case '#':
			p.pos++
			id := p.ident()
			if id == "" {
				return c, p.fail()
			}
			c.id = id
		case '.':
			p.pos++
			class := p.ident()
			if class == "" {
				return c, p.fail()
			}
			c.classes = append(c.classes, class)
		case '[':
			p.pos++
			attr, err := p.parseAttr()
			if err != nil {
				return c, err
			}
			c.attrs = append(c.attrs, attr)
		case ':':
			p.pos++
			if p.peek() == ':' {
				return c, p.fail()
			}
			ps, err := p.parsePseudo()
			if err != nil {
				return c, err
			}
			c.pseudos = append(c.pseudos, ps)
		default:
			if p.pos == start {
				return c, p.fail()
			}
			return c, nil
		}
	}
}

func (p *selectorParser) parseAttr() (attrSelector, error) {
	var a attrSelector
	p.skipSpace()
	a.name = strings.ToLower(p.ident())
	if a.name == "" {
		return a, p.fail()
	}
	p.skipSpace()
	if p.peek() == ']' {
		p.pos++
		return a, nil
	}
	for _, op := range []string{"=", "~=", "^=", "$=", "*=", "|="} {
		if strings.HasPrefix(p.src[p.pos:], op) {
			a.op = op
			p.pos += len(op)
			break
		}
	}
	if a.op == "" {
		return a, p.fail()
	}
	p.skipSpace()
	if q := p.peek(); q == '"' || q == '\'' {
		end := strings.IndexByte(p.src[p.pos+1:], q)
		if end < 0 {
			return a, p.fail()
		}
		a.value = p.src[p.pos+1 : p.pos+1+end]
		p.pos += end + 2
	} else {
		a.value = p.ident()
		if a.value == "" {
			return a, p.fail()
		}
	}
	p.skipSpace()
	if p.peek() != ']' {
		return a, p.fail()
	}
	p.pos++
	return a, nil
}

func (p *selectorParser) parsePseudo() (pseudoSelector, error) {
	ps := pseudoSelector{name: strings.ToLower(p.ident())}
	switch ps.name {
	case "first-child", "last-child", "only-child", "checked", "disabled",
		"enabled", "empty", "root", "focus", "first-of-type", "last-of-type":
		return ps, nil
	case "not":
		if p.peek() != '(' {
			return ps, p.fail()
		}
		p.pos++
		list, err := p.parseList()
		if err != nil {
			return ps, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return ps, p.fail()
		}
		p.pos++
		ps.not = list
		return ps, nil
	case "nth-child", "nth-last-child", "nth-of-type":
		if p.peek() != '(' {
			return ps, p.fail()
		}
		end := strings.IndexByte(p.src[p.pos:], ')')
		if end < 0 {
			return ps, p.fail()
		}
		a, b, ok := parseNth(p.src[p.pos+1 : p.pos+end])
		if !ok {
			return ps, p.fail()
		}
		ps.a, ps.b = a, b
		p.pos += end + 1
		return ps, nil
	}
	return ps, p.fail()
}

// parseNth parses an+b, odd and even.
func parseNth(expr string) (int, int, bool) {
	expr = strings.ToLower(strings.ReplaceAll(expr, " ", ""))
	switch expr {
	case "odd":
		return 2, 1, true
	case "even":
		return 2, 0, true
	}
	nIdx := strings.IndexByte(expr, 'n')
	if nIdx < 0 {
		b, err := strconv.Atoi(expr)
		return 0, b, err == nil
	}
	var a int
	switch coef := expr[:nIdx]; coef {
	case "", "+":
		a = 1
	case "-":
		a = -1
	default:
		n, err := strconv.Atoi(coef)
		if err != nil {
			return 0, 0, false
		}
		a = n
	}
	b := 0
	if rest := expr[nIdx+1:]; rest != "" {
		n, err := strconv.Atoi(rest)
		if err != nil {
			return 0, 0, false
		}
		b = n
	}
	return a, b, true
}

func nthMatches(a, b, pos int) bool {
	if a == 0 {
		return pos == b
	}
	n := pos - b
	return n%a == 0 && n/a >= 0
}

// Matching

// Matches reports whether id matches sel.
func (d *Document) Matches(id NodeID, sel *Selector) bool {
	if n := d.Node(id); n == nil || n.Type != ElementNode {
		return false
	}
	for _, cs := range sel.list {
		if d.matchComplex(id, cs, len(cs.compounds)-1) {
			return true
		}
	}
	return false
}

func (d *Document) matchComplex(id NodeID, cs complexSelector, idx int) bool {
	if !d.matchCompound(id, cs.compounds[idx]) {
		return false
	}
	if idx == 0 {
		return true
	}
	switch cs.combinators[idx-1] {
	case '>':
		parent := d.nodes[id].Parent
		return d.isElement(parent) && d.matchComplex(parent, cs, idx-1)
	case ' ':
		for _, anc := range d.Ancestors(id) {
			if d.isElement(anc) && d.matchComplex(anc, cs, idx-1) {
				return true
			}
		}
	case '+':
		prev := d.previousElement(id)
		return prev != NoNode && d.matchComplex(prev, cs, idx-1)
	case '~':
		for prev := d.previousElement(id); prev != NoNode; prev = d.previousElement(prev) {
			if d.matchComplex(prev, cs, idx-1) {
				return true
			}
		}
	}
	return false
}

func (d *Document) isElement(id NodeID) bool {
	n := d.Node(id)
	return n != nil && n.Type == ElementNode
}

func (d *Document) previousElement(id NodeID) NodeID {
	for cur := d.PreviousSibling(id); cur != NoNode; cur = d.PreviousSibling(cur) {
		if d.nodes[cur].Type == ElementNode {
			return cur
		}
	}
	return NoNode
}

func (d *Document) matchCompound(id NodeID, c compoundSelector) bool {
	n := d.nodes[id]
	if c.tag != "" && c.tag != "*" && c.tag != n.Tag {
		return false
	}
	if c.id != "" {
		if v, ok := d.GetAttribute(id, "id"); !ok || v != c.id {
			return false
		}
	}
	if len(c.classes) > 0 {
		have := d.ClassList(id)
		for _, want := range c.classes {
			if !containsString(have, want) {
				return false
			}
		}
	}
	for _, a := range c.attrs {
		if !d.matchAttr(id, a) {
			return false
		}
	}
	for _, ps := range c.pseudos {
		if !d.matchPseudo(id, ps) {
			return false
		}
	}
	return true
}

func (d *Document) matchAttr(id NodeID, a attrSelector) bool {
	v, ok := d.GetAttribute(id, a.name)
	if !ok {
		return false
	}
	switch a.op {
	case "":
		return true
	case "=":
		return v == a.value
	case "~=":
		return containsString(strings.Fields(v), a.value)
	case "^=":
		return a.value != "" && strings.HasPrefix(v, a.value)
	case "$=":
		return a.value != "" && strings.HasSuffix(v, a.value)
	case "*=":
		return a.value != "" && strings.Contains(v, a.value)
	case "|=":
		return v == a.value || strings.HasPrefix(v, a.value+"-")
	}
	return false
}

func (d *Document) matchPseudo(id NodeID, ps pseudoSelector) bool {
	parent := d.nodes[id].Parent
	siblings := d.ChildElements(parent)
	pos := indexOf(siblings, id) + 1
	switch ps.name {
	case "first-child":
		return pos == 1
	case "last-child":
		return pos == len(siblings)
	case "only-child":
		return len(siblings) == 1
	case "nth-child":
		return nthMatches(ps.a, ps.b, pos)
	case "nth-last-child":
		return nthMatches(ps.a, ps.b, len(siblings)-pos+1)
	case "nth-of-type", "first-of-type", "last-of-type":
		var same []NodeID
		for _, s := range siblings {
			if d.nodes[s].Tag == d.nodes[id].Tag {
				same = append(same, s)
			}
		}
		tpos := indexOf(same, id) + 1
		switch ps.name {
		case "first-of-type":
			return tpos == 1
		case "last-of-type":
			return tpos == len(same)
		}
		return nthMatches(ps.a, ps.b, tpos)
	case "checked":
		return d.Checked(id) || (d.nodes[id].Tag == "option" && d.HasAttribute(id, "selected"))
	case "disabled":
		return d.HasAttribute(id, "disabled")
	case "enabled":
		return !d.HasAttribute(id, "disabled")
	case "empty":
		return len(d.nodes[id].Children) == 0
	case "root":
		return id == d.DocumentElement()
	case "focus":
		return id == d.focused
	case "not":
		for _, cs := range ps.not {
			if d.matchComplex(id, cs, len(cs.compounds)-1) {
				return false
			}
		}
		return true
	}
	return false
}

func indexOf(ids []NodeID, id NodeID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// QuerySelectorAll returns descendants of root matching sel in document
// order.
func (d *Document) QuerySelectorAll(root NodeID, selector string) ([]NodeID, error) {
	sel, err := CompileSelector(selector)
	if err != nil {
		return nil, err
	}
	var out []NodeID
	d.Walk(root, func(id NodeID) bool {
		if d.Matches(id, sel) {
			out = append(out, id)
		}
		return true
	})
	return out, nil
}

// QuerySelector returns the first descendant of root matching sel.
func (d *Document) QuerySelector(root NodeID, selector string) (NodeID, error) {
	sel, err := CompileSelector(selector)
	if err != nil {
		return NoNode, err
	}
	found := NoNode
	d.Walk(root, func(id NodeID) bool {
		if d.Matches(id, sel) {
			found = id
			return false
		}
		return true
	})
	return found, nil
}

// Closest returns the nearest inclusive ancestor matching sel.
func (d *Document) Closest(id NodeID, selector string) (NodeID, error) {
	sel, err := CompileSelector(selector)
	if err != nil {
		return NoNode, err
	}
	for cur := id; cur != NoNode; cur = d.nodes[cur].Parent {
		if d.Matches(cur, sel) {
			return cur, nil
		}
	}
	return NoNode, nil
}

// MatchesSelector compiles selector and tests id against it.
func (d *Document) MatchesSelector(id NodeID, selector string) (bool, error) {
	sel, err := CompileSelector(selector)
	if err != nil {
		return false, err
	}
	return d.Matches(id, sel), nil
}
