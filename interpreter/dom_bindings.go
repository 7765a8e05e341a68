package interpreter

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/finitefield-org/browser-tester-sub000/ast"
	"github.com/finitefield-org/browser-tester-sub000/dom"
	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

// inlineHandler identifies the on<type> slot of a node. Attribute and
// property handlers share it, so the registry holds at most one of them.
type inlineHandler struct {
	node dom.NodeID
	typ  string
}

type viewKey struct {
	node dom.NodeID
	kind string
}

// domBindings exposes the document to scripts. Every node has exactly one
// wrapper object, so identity comparisons hold.
type domBindings struct {
	interp *Interpreter
	doc    *dom.Document

	wrappers map[dom.NodeID]*runtime.Object
	views    map[viewKey]*runtime.Object

	nodeProto        *runtime.Object
	documentProto    *runtime.Object
	nodeListProto    *runtime.Object
	classListProto   *runtime.Object
	styleProto       *runtime.Object
	datasetProto     *runtime.Object
	eventProto       *runtime.Object
	customEventProto *runtime.Object

	onProps map[inlineHandler]*runtime.Value
	inline  map[string][]ast.Statement
}

var readOnlyNodeProps = map[string]bool{
	"nodeType": true, "nodeName": true, "tagName": true, "parentNode": true,
	"parentElement": true, "childNodes": true, "children": true,
	"firstChild": true, "lastChild": true, "firstElementChild": true,
	"lastElementChild": true, "nextSibling": true, "previousSibling": true,
	"nextElementSibling": true, "previousElementSibling": true,
	"childElementCount": true, "isConnected": true, "ownerDocument": true,
	"classList": true, "dataset": true, "documentElement": true,
	"body": true, "head": true, "activeElement": true,
}

// reflected string attributes, property name to attribute name.
var reflectedAttrs = map[string]string{
	"id": "id", "className": "class", "name": "name", "type": "type",
	"href": "href", "src": "src", "title": "title", "alt": "alt",
	"placeholder": "placeholder", "htmlFor": "for", "rel": "rel",
	"lang": "lang", "dir": "dir", "action": "action", "method": "method",
	"role": "role",
}

var booleanAttrs = map[string]string{
	"hidden": "hidden", "disabled": "disabled", "required": "required",
	"readOnly": "readonly", "multiple": "multiple", "autofocus": "autofocus",
}

func (interp *Interpreter) installDOM() {
	r := interp.realm
	b := &domBindings{
		interp:   interp,
		doc:      interp.doc,
		wrappers: make(map[dom.NodeID]*runtime.Object),
		views:    make(map[viewKey]*runtime.Object),
		onProps:  make(map[inlineHandler]*runtime.Value),
		inline:   make(map[string][]ast.Statement),
	}
	interp.dom = b

	b.nodeProto = r.NewObject()
	b.documentProto = runtime.NewOrdinaryObject(b.nodeProto)
	b.nodeListProto = r.NewObject()
	b.classListProto = r.NewObject()
	b.styleProto = r.NewObject()
	b.datasetProto = r.NewObject()
	b.eventProto = r.NewObject()
	b.customEventProto = runtime.NewOrdinaryObject(b.eventProto)

	b.installTarget(b.nodeProto)
	b.installNode()
	b.installDocument()
	b.installNodeList()
	b.installClassList()
	b.installStyle()
	b.installEvents()

	b.wrappers[dom.WindowID] = r.GlobalObject
	b.installTarget(r.GlobalObject)
	for _, name := range []string{"addEventListener", "removeEventListener", "dispatchEvent"} {
		interp.global.DefineGlobal(name, r.GlobalObject.Get(name), true)
	}
	b.defineGlobal("document", b.wrap(b.doc.Root()))
}

func (b *domBindings) defineGlobal(name string, v *runtime.Value) {
	b.interp.global.DefineGlobal(name, v, true)
	b.interp.realm.GlobalObject.Set(name, v)
}

func (b *domBindings) method(obj *runtime.Object, name string, length int, fn runtime.CallableFunc) {
	obj.DefineProperty(name, &runtime.Property{
		Value:        runtime.NewObject(b.interp.realm.NewFunction(name, length, fn)),
		Writable:     true,
		Configurable: true,
	})
}

// wrap returns the script object for id, or null.
func (b *domBindings) wrap(id dom.NodeID) *runtime.Value {
	if obj, ok := b.wrappers[id]; ok {
		return runtime.NewObject(obj)
	}
	n := b.doc.Node(id)
	if n == nil {
		return runtime.Null
	}
	proto := b.nodeProto
	if n.Type == dom.DocumentNode {
		proto = b.documentProto
	}
	obj := runtime.NewOrdinaryObject(proto)
	obj.OType = runtime.ObjTypeNode
	obj.Host = &nodeHost{b: b, id: id}
	obj.SetInternal("node", id)
	b.wrappers[id] = obj
	return runtime.NewObject(obj)
}

func (b *domBindings) nodeList(ids []dom.NodeID) *runtime.Value {
	elems := make([]*runtime.Value, len(ids))
	for i, id := range ids {
		elems[i] = b.wrap(id)
	}
	obj := runtime.NewArrayObject(b.nodeListProto, elems)
	obj.OType = runtime.ObjTypeNodeList
	return runtime.NewObject(obj)
}

func nodeID(v *runtime.Value) (dom.NodeID, bool) {
	if !v.IsObject() {
		return dom.NoNode, false
	}
	id, ok := v.Object.Internal["node"].(dom.NodeID)
	return id, ok
}

func (b *domBindings) thisNode(this *runtime.Value, method string) (dom.NodeID, error) {
	if id, ok := nodeID(this); ok {
		return id, nil
	}
	return dom.NoNode, runtime.NewTypeError("Failed to execute '%s' on 'Node': Illegal invocation", method)
}

// eventTarget resolves the receiver of addEventListener and friends,
// accepting the window as well as nodes.
func (b *domBindings) eventTarget(this *runtime.Value, method string) (dom.NodeID, error) {
	if this.IsObject() && this.Object == b.interp.realm.GlobalObject {
		return dom.WindowID, nil
	}
	if this.Type == runtime.TypeUndefined {
		return dom.WindowID, nil
	}
	return b.thisNode(this, method)
}

func nodeArg(args []*runtime.Value, i int, method string) (dom.NodeID, error) {
	if id, ok := nodeID(argAt(args, i)); ok {
		return id, nil
	}
	return dom.NoNode, runtime.NewTypeError("Failed to execute '%s' on 'Node': parameter %d is not of type 'Node'.", method, i+1)
}

// nodesArg converts the arguments of append, prepend, before and after.
// Strings become text nodes.
func (b *domBindings) nodesArg(args []*runtime.Value) []dom.NodeID {
	ids := make([]dom.NodeID, 0, len(args))
	for _, a := range args {
		if id, ok := nodeID(a); ok {
			ids = append(ids, id)
			continue
		}
		ids = append(ids, b.doc.CreateTextNode(a.ToString()))
	}
	return ids
}

func domError(method string, err error) error {
	switch errors.Cause(err) {
	case dom.ErrHierarchy, dom.ErrNotFound:
		return runtime.NewError(runtime.KindError, "Failed to execute '%s' on 'Node': %s", method, errors.Cause(err).Error())
	}
	return runtime.NewSyntaxError("Failed to execute '%s': %s", method, err.Error())
}

func stringOrEmpty(v *runtime.Value) string {
	if v.IsNullish() {
		return ""
	}
	return v.ToString()
}

func nullableString(s string, ok bool) *runtime.Value {
	if !ok {
		return runtime.Null
	}
	return runtime.NewString(s)
}

// nodeHost serves the live properties of a node wrapper.
type nodeHost struct {
	b  *domBindings
	id dom.NodeID
}

func (h *nodeHost) GetHost(name string) (*runtime.Value, bool, error) {
	b, d, id := h.b, h.b.doc, h.id
	n := d.Node(id)
	if n == nil {
		return nil, false, nil
	}
	if attr, ok := reflectedAttrs[name]; ok && n.Type == dom.ElementNode {
		v, _ := d.GetAttribute(id, attr)
		return runtime.NewString(v), true, nil
	}
	if attr, ok := booleanAttrs[name]; ok && n.Type == dom.ElementNode {
		return runtime.NewBool(d.HasAttribute(id, attr)), true, nil
	}
	switch name {
	case "nodeType":
		return runtime.NewInt(nodeTypeCode(n.Type)), true, nil
	case "nodeName":
		return runtime.NewString(nodeName(n)), true, nil
	case "tagName":
		if n.Type != dom.ElementNode {
			return runtime.Undefined, true, nil
		}
		return runtime.NewString(strings.ToUpper(n.Tag)), true, nil
	case "textContent":
		if n.Type == dom.DocumentNode {
			return runtime.Null, true, nil
		}
		return runtime.NewString(d.TextContent(id)), true, nil
	case "nodeValue", "data":
		if n.Type != dom.TextNode && n.Type != dom.CommentNode {
			return runtime.Null, true, nil
		}
		return runtime.NewString(n.Data), true, nil
	case "innerHTML":
		return runtime.NewString(d.InnerHTML(id)), true, nil
	case "outerHTML":
		return runtime.NewString(d.OuterHTML(id)), true, nil
	case "value":
		return runtime.NewString(d.Value(id)), true, nil
	case "checked":
		return runtime.NewBool(d.Checked(id)), true, nil
	case "parentNode":
		return b.wrap(n.Parent), true, nil
	case "parentElement":
		if p := d.Node(n.Parent); p != nil && p.Type == dom.ElementNode {
			return b.wrap(n.Parent), true, nil
		}
		return runtime.Null, true, nil
	case "childNodes":
		return b.nodeList(n.Children), true, nil
	case "children":
		return b.nodeList(d.ChildElements(id)), true, nil
	case "childElementCount":
		return runtime.NewInt(int64(len(d.ChildElements(id)))), true, nil
	case "firstChild":
		if len(n.Children) == 0 {
			return runtime.Null, true, nil
		}
		return b.wrap(n.Children[0]), true, nil
	case "lastChild":
		if len(n.Children) == 0 {
			return runtime.Null, true, nil
		}
		return b.wrap(n.Children[len(n.Children)-1]), true, nil
	case "firstElementChild", "lastElementChild":
		kids := d.ChildElements(id)
		switch {
		case len(kids) == 0:
			return runtime.Null, true, nil
		case name == "firstElementChild":
			return b.wrap(kids[0]), true, nil
		}
		return b.wrap(kids[len(kids)-1]), true, nil
	case "nextSibling":
		return b.wrap(d.NextSibling(id)), true, nil
	case "previousSibling":
		return b.wrap(d.PreviousSibling(id)), true, nil
	case "nextElementSibling":
		return b.wrap(b.elementSibling(id, d.NextSibling)), true, nil
	case "previousElementSibling":
		return b.wrap(b.elementSibling(id, d.PreviousSibling)), true, nil
	case "isConnected":
		return runtime.NewBool(d.IsConnected(id)), true, nil
	case "ownerDocument":
		if n.Type == dom.DocumentNode {
			return runtime.Null, true, nil
		}
		return b.wrap(d.Root()), true, nil
	case "style":
		return b.view(id, "style", b.styleProto, &styleHost{b: b, id: id}), true, nil
	case "classList":
		return b.view(id, "classList", b.classListProto, &classListHost{b: b, id: id}), true, nil
	case "dataset":
		return b.view(id, "dataset", b.datasetProto, &datasetHost{b: b, id: id}), true, nil
	}
	if n.Type == dom.DocumentNode {
		switch name {
		case "documentElement":
			return b.wrap(d.DocumentElement()), true, nil
		case "body":
			return b.wrap(d.Body()), true, nil
		case "head":
			return b.wrap(d.Head()), true, nil
		case "activeElement":
			return b.wrap(d.ActiveElement()), true, nil
		}
	}
	if typ, ok := handlerProperty(name); ok {
		if fn, ok := b.onProps[inlineHandler{id, typ}]; ok {
			return fn, true, nil
		}
		return runtime.Null, true, nil
	}
	return nil, false, nil
}

func (h *nodeHost) SetHost(name string, v *runtime.Value) (bool, error) {
	b, d, id := h.b, h.b.doc, h.id
	n := d.Node(id)
	if n == nil {
		return false, nil
	}
	if readOnlyNodeProps[name] {
		return true, runtime.NewTypeError("%s is read-only", name)
	}
	if attr, ok := reflectedAttrs[name]; ok && n.Type == dom.ElementNode {
		d.SetAttribute(id, attr, v.ToString())
		return true, nil
	}
	if attr, ok := booleanAttrs[name]; ok && n.Type == dom.ElementNode {
		if v.ToBoolean() {
			d.SetAttribute(id, attr, "")
		} else {
			d.RemoveAttribute(id, attr)
		}
		return true, nil
	}
	switch name {
	case "textContent", "nodeValue", "data":
		if n.Type == dom.DocumentNode {
			return true, nil
		}
		d.SetTextContent(id, stringOrEmpty(v))
		return true, nil
	case "innerHTML":
		if err := d.SetInnerHTML(id, stringOrEmpty(v)); err != nil {
			return true, domError("innerHTML", err)
		}
		return true, nil
	case "outerHTML":
		if err := d.SetOuterHTML(id, stringOrEmpty(v)); err != nil {
			return true, domError("outerHTML", err)
		}
		return true, nil
	case "value":
		d.SetValue(id, stringOrEmpty(v))
		return true, nil
	case "checked":
		d.SetChecked(id, v.ToBoolean())
		return true, nil
	case "style":
		d.SetAttribute(id, "style", stringOrEmpty(v))
		return true, nil
	}
	if typ, ok := handlerProperty(name); ok {
		b.setHandlerProperty(id, typ, v)
		return true, nil
	}
	return false, nil
}

// handlerProperty maps onclick to click.
func handlerProperty(name string) (string, bool) {
	if len(name) > 2 && strings.HasPrefix(name, "on") && strings.ToLower(name) == name {
		return name[2:], true
	}
	return "", false
}

func nodeTypeCode(t dom.NodeType) int64 {
	switch t {
	case dom.ElementNode:
		return 1
	case dom.TextNode:
		return 3
	case dom.CommentNode:
		return 8
	case dom.DocumentNode:
		return 9
	}
	return 11
}

func nodeName(n *dom.Node) string {
	switch n.Type {
	case dom.ElementNode:
		return strings.ToUpper(n.Tag)
	case dom.TextNode:
		return "#text"
	case dom.CommentNode:
		return "#comment"
	case dom.DocumentNode:
		return "#document"
	}
	return "#document-fragment"
}

func (b *domBindings) elementSibling(id dom.NodeID, step func(dom.NodeID) dom.NodeID) dom.NodeID {
	for cur := step(id); cur != dom.NoNode; cur = step(cur) {
		if n := b.doc.Node(cur); n != nil && n.Type == dom.ElementNode {
			return cur
		}
	}
	return dom.NoNode
}

// view returns the cached style, classList or dataset object of a node.
func (b *domBindings) view(id dom.NodeID, kind string, proto *runtime.Object, host runtime.HostObject) *runtime.Value {
	key := viewKey{id, kind}
	if obj, ok := b.views[key]; ok {
		return runtime.NewObject(obj)
	}
	obj := runtime.NewOrdinaryObject(proto)
	obj.Host = host
	obj.SetInternal(kind, id)
	b.views[key] = obj
	return runtime.NewObject(obj)
}

func (b *domBindings) viewNode(this *runtime.Value, kind, method string) (dom.NodeID, error) {
	if this.IsObject() {
		if id, ok := this.Object.Internal[kind].(dom.NodeID); ok {
			return id, nil
		}
	}
	return dom.NoNode, runtime.NewTypeError("Failed to execute '%s': Illegal invocation", method)
}

func (b *domBindings) installNode() {
	p, d := b.nodeProto, b.doc

	b.method(p, "getAttribute", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.thisNode(this, "getAttribute")
		if err != nil {
			return nil, err
		}
		return nullableString(d.GetAttribute(id, strings.ToLower(argAt(args, 0).ToString()))), nil
	})
	b.method(p, "setAttribute", 2, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.thisNode(this, "setAttribute")
		if err != nil {
			return nil, err
		}
		d.SetAttribute(id, strings.ToLower(argAt(args, 0).ToString()), argAt(args, 1).ToString())
		return runtime.Undefined, nil
	})
	b.method(p, "removeAttribute", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.thisNode(this, "removeAttribute")
		if err != nil {
			return nil, err
		}
		d.RemoveAttribute(id, strings.ToLower(argAt(args, 0).ToString()))
		return runtime.Undefined, nil
	})
	b.method(p, "hasAttribute", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.thisNode(this, "hasAttribute")
		if err != nil {
			return nil, err
		}
		return runtime.NewBool(d.HasAttribute(id, strings.ToLower(argAt(args, 0).ToString()))), nil
	})
	b.method(p, "toggleAttribute", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.thisNode(this, "toggleAttribute")
		if err != nil {
			return nil, err
		}
		name := argAt(args, 0).ToString()
		on := !d.HasAttribute(id, name)
		if len(args) > 1 && args[1].Type != runtime.TypeUndefined {
			on = args[1].ToBoolean()
		}
		if on {
			if !d.HasAttribute(id, name) {
				d.SetAttribute(id, name, "")
			}
		} else {
			d.RemoveAttribute(id, name)
		}
		return runtime.NewBool(on), nil
	})
	b.method(p, "getAttributeNames", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.thisNode(this, "getAttributeNames")
		if err != nil {
			return nil, err
		}
		var names []*runtime.Value
		for _, name := range d.AttributeNames(id) {
			names = append(names, runtime.NewString(name))
		}
		return b.interp.realm.ArrayValue(names), nil
	})

	b.method(p, "appendChild", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.thisNode(this, "appendChild")
		if err != nil {
			return nil, err
		}
		child, err := nodeArg(args, 0, "appendChild")
		if err != nil {
			return nil, err
		}
		if err := d.AppendChild(id, child); err != nil {
			return nil, domError("appendChild", err)
		}
		return args[0], nil
	})
	b.method(p, "insertBefore", 2, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.thisNode(this, "insertBefore")
		if err != nil {
			return nil, err
		}
		child, err := nodeArg(args, 0, "insertBefore")
		if err != nil {
			return nil, err
		}
		ref := dom.NoNode
		if !argAt(args, 1).IsNullish() {
			if ref, err = nodeArg(args, 1, "insertBefore"); err != nil {
				return nil, err
			}
		}
		if err := d.InsertBefore(id, child, ref); err != nil {
			return nil, domError("insertBefore", err)
		}
		return args[0], nil
	})
	b.method(p, "removeChild", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.thisNode(this, "removeChild")
		if err != nil {
			return nil, err
		}
		child, err := nodeArg(args, 0, "removeChild")
		if err != nil {
			return nil, err
		}
		if err := d.RemoveChild(id, child); err != nil {
			return nil, domError("removeChild", err)
		}
		return args[0], nil
	})
	b.method(p, "replaceChild", 2, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.thisNode(this, "replaceChild")
		if err != nil {
			return nil, err
		}
		repl, err := nodeArg(args, 0, "replaceChild")
		if err != nil {
			return nil, err
		}
		old, err := nodeArg(args, 1, "replaceChild")
		if err != nil {
			return nil, err
		}
		if err := d.ReplaceChild(id, repl, old); err != nil {
			return nil, domError("replaceChild", err)
		}
		return args[1], nil
	})
	b.method(p, "remove", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.thisNode(this, "remove")
		if err != nil {
			return nil, err
		}
		d.Remove(id)
		return runtime.Undefined, nil
	})
	variadic := []struct {
		name string
		fn   func(dom.NodeID, ...dom.NodeID) error
	}{
		{"before", d.Before},
		{"after", d.After},
		{"append", d.Append},
		{"prepend", d.Prepend},
	}
	for _, m := range variadic {
		m := m
		b.method(p, m.name, 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
			id, err := b.thisNode(this, m.name)
			if err != nil {
				return nil, err
			}
			if err := m.fn(id, b.nodesArg(args)...); err != nil {
				return nil, domError(m.name, err)
			}
			return runtime.Undefined, nil
		})
	}
	b.method(p, "cloneNode", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.thisNode(this, "cloneNode")
		if err != nil {
			return nil, err
		}
		return b.wrap(d.CloneNode(id, argAt(args, 0).ToBoolean())), nil
	})
	b.method(p, "contains", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.thisNode(this, "contains")
		if err != nil {
			return nil, err
		}
		other, ok := nodeID(argAt(args, 0))
		return runtime.NewBool(ok && d.Contains(id, other)), nil
	})
	b.method(p, "hasChildNodes", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.thisNode(this, "hasChildNodes")
		if err != nil {
			return nil, err
		}
		return runtime.NewBool(len(d.Node(id).Children) > 0), nil
	})

	b.method(p, "querySelector", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.thisNode(this, "querySelector")
		if err != nil {
			return nil, err
		}
		found, err := d.QuerySelector(id, argAt(args, 0).ToString())
		if err != nil {
			return nil, domError("querySelector", err)
		}
		return b.wrap(found), nil
	})
	b.method(p, "querySelectorAll", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.thisNode(this, "querySelectorAll")
		if err != nil {
			return nil, err
		}
		found, err := d.QuerySelectorAll(id, argAt(args, 0).ToString())
		if err != nil {
			return nil, domError("querySelectorAll", err)
		}
		return b.nodeList(found), nil
	})
	b.method(p, "getElementsByTagName", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.thisNode(this, "getElementsByTagName")
		if err != nil {
			return nil, err
		}
		found, err := d.QuerySelectorAll(id, argAt(args, 0).ToString())
		if err != nil {
			return nil, domError("getElementsByTagName", err)
		}
		return b.nodeList(found), nil
	})
	b.method(p, "getElementsByClassName", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.thisNode(this, "getElementsByClassName")
		if err != nil {
			return nil, err
		}
		classes := strings.Fields(argAt(args, 0).ToString())
		if len(classes) == 0 {
			return b.nodeList(nil), nil
		}
		found, err := d.QuerySelectorAll(id, "."+strings.Join(classes, "."))
		if err != nil {
			return nil, domError("getElementsByClassName", err)
		}
		return b.nodeList(found), nil
	})
	b.method(p, "matches", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.thisNode(this, "matches")
		if err != nil {
			return nil, err
		}
		ok, err := d.MatchesSelector(id, argAt(args, 0).ToString())
		if err != nil {
			return nil, domError("matches", err)
		}
		return runtime.NewBool(ok), nil
	})
	b.method(p, "closest", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.thisNode(this, "closest")
		if err != nil {
			return nil, err
		}
		found, err := d.Closest(id, argAt(args, 0).ToString())
		if err != nil {
			return nil, domError("closest", err)
		}
		return b.wrap(found), nil
	})

	b.method(p, "focus", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.thisNode(this, "focus")
		if err != nil {
			return nil, err
		}
		return runtime.Undefined, b.focus(id)
	})
	b.method(p, "blur", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.thisNode(this, "blur")
		if err != nil {
			return nil, err
		}
		return runtime.Undefined, b.blur(id)
	})
	b.method(p, "click", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.thisNode(this, "click")
		if err != nil {
			return nil, err
		}
		return runtime.Undefined, b.click(id)
	})
}

func (b *domBindings) installDocument() {
	p, d := b.documentProto, b.doc
	b.method(p, "getElementById", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return b.wrap(d.GetElementByID(argAt(args, 0).ToString())), nil
	})
	b.method(p, "createElement", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		tag := argAt(args, 0).ToString()
		if tag == "" || strings.ContainsAny(tag, " <>\"'/=") {
			return nil, runtime.NewError(runtime.KindError, "Failed to execute 'createElement' on 'Document': The tag name provided ('%s') is not a valid name.", tag)
		}
		return b.wrap(d.CreateElement(strings.ToLower(tag))), nil
	})
	b.method(p, "createTextNode", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return b.wrap(d.CreateTextNode(argAt(args, 0).ToString())), nil
	})
	b.method(p, "createComment", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return b.wrap(d.CreateComment(argAt(args, 0).ToString())), nil
	})
	b.method(p, "createDocumentFragment", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return b.wrap(d.CreateFragment()), nil
	})
}

func (b *domBindings) installNodeList() {
	p := b.nodeListProto
	b.method(p, "item", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		if !this.IsObject() {
			return runtime.Null, nil
		}
		i := int(argAt(args, 0).ToNumber())
		if i < 0 || i >= len(this.Object.ArrayData) {
			return runtime.Null, nil
		}
		return this.Object.ArrayData[i], nil
	})
	b.method(p, "forEach", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		cb := argAt(args, 0)
		if !cb.IsCallable() {
			return nil, runtime.NewTypeError("Failed to execute 'forEach' on 'NodeList': parameter 1 is not of type 'Function'.")
		}
		if !this.IsObject() {
			return runtime.Undefined, nil
		}
		items := append([]*runtime.Value(nil), this.Object.ArrayData...)
		for i, item := range items {
			if _, err := runtime.Call(cb, argAt(args, 1), []*runtime.Value{item, runtime.NewInt(int64(i)), this}); err != nil {
				return nil, err
			}
		}
		return runtime.Undefined, nil
	})
	p.DefineSymbol(runtime.SymbolToStringTag, &runtime.Property{Value: runtime.NewString("NodeList"), Configurable: true})
}

type classListHost struct {
	b  *domBindings
	id dom.NodeID
}

func (h *classListHost) GetHost(name string) (*runtime.Value, bool, error) {
	classes := h.b.doc.ClassList(h.id)
	switch name {
	case "length":
		return runtime.NewInt(int64(len(classes))), true, nil
	case "value":
		v, _ := h.b.doc.GetAttribute(h.id, "class")
		return runtime.NewString(v), true, nil
	}
	if i, ok := runtime.ArrayIndex(name); ok {
		if i < len(classes) {
			return runtime.NewString(classes[i]), true, nil
		}
		return runtime.Undefined, true, nil
	}
	return nil, false, nil
}

func (h *classListHost) SetHost(name string, v *runtime.Value) (bool, error) {
	switch name {
	case "value":
		h.b.doc.SetAttribute(h.id, "class", v.ToString())
		return true, nil
	case "length":
		return true, runtime.NewTypeError("length is read-only")
	}
	return false, nil
}

func (h *classListHost) HostKeys() []string {
	n := len(h.b.doc.ClassList(h.id))
	keys := make([]string, n)
	for i := range keys {
		keys[i] = runtime.NewInt(int64(i)).ToString()
	}
	return keys
}

func classTokens(args []*runtime.Value, method string) ([]string, error) {
	tokens := make([]string, len(args))
	for i, a := range args {
		t := a.ToString()
		if t == "" {
			return nil, runtime.NewSyntaxError("Failed to execute '%s' on 'DOMTokenList': The token provided must not be empty.", method)
		}
		if strings.ContainsAny(t, " \t\n\f\r") {
			return nil, runtime.NewError(runtime.KindError, "Failed to execute '%s' on 'DOMTokenList': The token provided ('%s') contains HTML space characters, which are not valid in tokens.", method, t)
		}
		tokens[i] = t
	}
	return tokens, nil
}

func (b *domBindings) installClassList() {
	p, d := b.classListProto, b.doc
	b.method(p, "add", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.viewNode(this, "classList", "add")
		if err != nil {
			return nil, err
		}
		tokens, err := classTokens(args, "add")
		if err != nil {
			return nil, err
		}
		d.AddClass(id, tokens...)
		return runtime.Undefined, nil
	})
	b.method(p, "remove", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.viewNode(this, "classList", "remove")
		if err != nil {
			return nil, err
		}
		tokens, err := classTokens(args, "remove")
		if err != nil {
			return nil, err
		}
		d.RemoveClass(id, tokens...)
		return runtime.Undefined, nil
	})
	b.method(p, "toggle", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.viewNode(this, "classList", "toggle")
		if err != nil {
			return nil, err
		}
		tokens, err := classTokens(args[:min(len(args), 1)], "toggle")
		if err != nil {
			return nil, err
		}
		if len(tokens) == 0 {
			return nil, runtime.NewTypeError("Failed to execute 'toggle' on 'DOMTokenList': 1 argument required, but only 0 present.")
		}
		var force *bool
		if len(args) > 1 && args[1].Type != runtime.TypeUndefined {
			f := args[1].ToBoolean()
			force = &f
		}
		return runtime.NewBool(d.ToggleClass(id, tokens[0], force)), nil
	})
	b.method(p, "contains", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.viewNode(this, "classList", "contains")
		if err != nil {
			return nil, err
		}
		return runtime.NewBool(d.HasClass(id, argAt(args, 0).ToString())), nil
	})
	b.method(p, "replace", 2, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.viewNode(this, "classList", "replace")
		if err != nil {
			return nil, err
		}
		tokens, err := classTokens(args[:min(len(args), 2)], "replace")
		if err != nil {
			return nil, err
		}
		if len(tokens) < 2 || !d.HasClass(id, tokens[0]) {
			return runtime.NewBool(false), nil
		}
		classes := d.ClassList(id)
		for i, c := range classes {
			if c == tokens[0] {
				classes[i] = tokens[1]
			}
		}
		d.SetAttribute(id, "class", strings.Join(classes, " "))
		return runtime.NewBool(true), nil
	})
	b.method(p, "item", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.viewNode(this, "classList", "item")
		if err != nil {
			return nil, err
		}
		classes := d.ClassList(id)
		i := int(argAt(args, 0).ToNumber())
		if i < 0 || i >= len(classes) {
			return runtime.Null, nil
		}
		return runtime.NewString(classes[i]), nil
	})
	b.method(p, "toString", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.viewNode(this, "classList", "toString")
		if err != nil {
			return nil, err
		}
		v, _ := d.GetAttribute(id, "class")
		return runtime.NewString(v), nil
	})
}

type styleHost struct {
	b  *domBindings
	id dom.NodeID
}

func (h *styleHost) GetHost(name string) (*runtime.Value, bool, error) {
	d := h.b.doc
	switch name {
	case "cssText":
		v, _ := d.GetAttribute(h.id, "style")
		return runtime.NewString(v), true, nil
	case "length":
		return runtime.NewInt(int64(len(d.InlineStyle(h.id)))), true, nil
	}
	if i, ok := runtime.ArrayIndex(name); ok {
		decls := d.InlineStyle(h.id)
		if i < len(decls) {
			return runtime.NewString(decls[i].Property), true, nil
		}
		return runtime.Undefined, true, nil
	}
	if h.b.styleProto.HasProperty(name) {
		return nil, false, nil
	}
	return runtime.NewString(d.GetStyle(h.id, name)), true, nil
}

func (h *styleHost) SetHost(name string, v *runtime.Value) (bool, error) {
	switch name {
	case "cssText":
		h.b.doc.SetAttribute(h.id, "style", stringOrEmpty(v))
		return true, nil
	case "length":
		return true, runtime.NewTypeError("length is read-only")
	}
	if h.b.styleProto.HasProperty(name) {
		return false, nil
	}
	h.b.doc.SetStyle(h.id, name, stringOrEmpty(v))
	return true, nil
}

func (b *domBindings) installStyle() {
	p, d := b.styleProto, b.doc
	b.method(p, "getPropertyValue", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.viewNode(this, "style", "getPropertyValue")
		if err != nil {
			return nil, err
		}
		return runtime.NewString(d.GetStyle(id, argAt(args, 0).ToString())), nil
	})
	b.method(p, "setProperty", 2, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.viewNode(this, "style", "setProperty")
		if err != nil {
			return nil, err
		}
		d.SetStyle(id, argAt(args, 0).ToString(), stringOrEmpty(argAt(args, 1)))
		return runtime.Undefined, nil
	})
	b.method(p, "removeProperty", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id, err := b.viewNode(this, "style", "removeProperty")
		if err != nil {
			return nil, err
		}
		name := argAt(args, 0).ToString()
		old := d.GetStyle(id, name)
		d.SetStyle(id, name, "")
		return runtime.NewString(old), nil
	})
}

type datasetHost struct {
	b  *domBindings
	id dom.NodeID
}

func (h *datasetHost) GetHost(name string) (*runtime.Value, bool, error) {
	v, ok := h.b.doc.GetAttribute(h.id, dom.DataAttributeName(name))
	if !ok {
		return nil, false, nil
	}
	return runtime.NewString(v), true, nil
}

func (h *datasetHost) SetHost(name string, v *runtime.Value) (bool, error) {
	h.b.doc.SetAttribute(h.id, dom.DataAttributeName(name), v.ToString())
	return true, nil
}

func (h *datasetHost) HostKeys() []string {
	var keys []string
	for _, a := range h.b.doc.Dataset(h.id) {
		keys = append(keys, a.Name)
	}
	return keys
}
