package builtins

import (
	"math"
	"strconv"
	"strings"

	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

const (
	inspectDepth = 2
	breakLength  = 72
)

// Inspect renders v the way console.log shows a nested value.
func Inspect(v *runtime.Value) string {
	in := &inspector{}
	return in.value(v, 0, true)
}

// inspector formats values for the console in the style of Node's
// util.inspect.
type inspector struct {
	seen []*runtime.Object
}

func (in *inspector) value(v *runtime.Value, depth int, nested bool) string {
	switch v.Type {
	case runtime.TypeUndefined:
		return "undefined"
	case runtime.TypeNull:
		return "null"
	case runtime.TypeString:
		if nested {
			return quoteSingle(v.Str)
		}
		return v.Str
	case runtime.TypeNumber, runtime.TypeFloat:
		f := v.ToNumber()
		if f == 0 && math.Signbit(f) {
			return "-0"
		}
		return v.ToString()
	case runtime.TypeBigInt:
		return v.BigInt.String() + "n"
	case runtime.TypeBoolean, runtime.TypeSymbol:
		return v.ToString()
	}
	return in.object(v.Object, depth)
}

func quoteSingle(s string) string {
	q := strconv.Quote(s)
	q = strings.ReplaceAll(q[1:len(q)-1], `\"`, `"`)
	return "'" + strings.ReplaceAll(q, "'", `\'`) + "'"
}

func isIdentifier(k string) bool {
	if k == "" {
		return false
	}
	for i, r := range k {
		switch {
		case r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r > 0x7f:
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func (in *inspector) key(k string) string {
	if isIdentifier(k) {
		return k
	}
	return quoteSingle(k)
}

// constructorName returns the name of the constructor on obj's
// prototype chain, or "" when there is none.
func constructorName(obj *runtime.Object) string {
	if obj.Prototype == nil {
		return ""
	}
	ctor := obj.Prototype.Get("constructor")
	if !ctor.IsObject() {
		return ""
	}
	return ctor.Object.Get("name").ToString()
}

func (in *inspector) object(obj *runtime.Object, depth int) string {
	for _, s := range in.seen {
		if s == obj {
			return "[Circular *1]"
		}
	}
	v := runtime.NewObject(obj)
	switch {
	case obj.Callable != nil:
		return in.function(obj)
	case obj.OType == runtime.ObjTypeError:
		if stack := obj.Get("stack"); stack.Type == runtime.TypeString {
			return stack.Str
		}
		res, _ := errorToString(v, nil)
		if res == nil {
			return "Error"
		}
		return res.ToString()
	case regexpOf(v) != nil:
		res, _ := regexpToString(v, nil)
		if res == nil {
			return "/(?:)/"
		}
		return res.ToString()
	case obj.OType == runtime.ObjTypeNode:
		return inspectNode(obj)
	}
	if tv, ok := dateOf(v); ok {
		if math.IsNaN(tv) {
			return "Invalid Date"
		}
		return isoString(tv)
	}
	if p, ok := obj.Internal["primitive"].(*runtime.Value); ok && obj.Collection == nil {
		tag := builtinTag(runtime.NewObject(obj))
		return "[" + tag + ": " + in.value(p, depth, true) + "]"
	}

	if depth > inspectDepth {
		if isArray(v) {
			return "[Array]"
		}
		if name := constructorName(obj); name != "" {
			return "[" + name + "]"
		}
		return "[Object]"
	}
	in.seen = append(in.seen, obj)
	defer func() { in.seen = in.seen[:len(in.seen)-1] }()

	var entries []string
	prefix := ""
	open, close := "{", "}"
	switch {
	case obj.OType == runtime.ObjTypeArray || obj.OType == runtime.ObjTypeNodeList || obj.OType == runtime.ObjTypeTypedArray:
		open, close = "[", "]"
		entries = in.indexed(obj, depth)
		switch obj.OType {
		case runtime.ObjTypeTypedArray:
			prefix = kindOf(obj).name + "(" + itoa(len(obj.ArrayData)) + ") "
		case runtime.ObjTypeNodeList:
			prefix = "NodeList(" + itoa(len(obj.ArrayData)) + ") "
		default:
			if name := constructorName(obj); name != "Array" && name != "" {
				prefix = name + "(" + itoa(len(obj.ArrayData)) + ") "
			}
		}
	case obj.Collection != nil:
		kind, _ := obj.Internal["collection"].(string)
		if kind == "WeakMap" || kind == "WeakSet" {
			return kind + " { <items unknown> }"
		}
		prefix = kind + "(" + itoa(obj.Collection.Size()) + ") "
		for _, e := range obj.Collection.Entries() {
			if kind == "Map" {
				entries = append(entries, in.value(e[0], depth+1, true)+" => "+in.value(e[1], depth+1, true))
			} else {
				entries = append(entries, in.value(e[0], depth+1, true))
			}
		}
	case obj.Promise != nil:
		prefix = "Promise "
		switch obj.Promise.State {
		case runtime.PromisePending:
			entries = append(entries, "<pending>")
		case runtime.PromiseRejected:
			entries = append(entries, "<rejected> "+in.value(obj.Promise.Value, depth+1, true))
		default:
			entries = append(entries, in.value(obj.Promise.Value, depth+1, true))
		}
	default:
		prefix = in.objectPrefix(obj)
	}

	entries = append(entries, in.properties(obj, depth)...)
	if len(entries) == 0 {
		return prefix + open + close
	}
	return prefix + in.join(open, close, entries)
}

func (in *inspector) objectPrefix(obj *runtime.Object) string {
	tag := ""
	if t := obj.GetSymbol(runtime.SymbolToStringTag); t.Type == runtime.TypeString {
		tag = t.Str
	}
	if obj.Prototype == nil {
		if tag != "" {
			return "[" + tag + ": null prototype] "
		}
		return "[Object: null prototype] "
	}
	name := constructorName(obj)
	switch {
	case tag != "" && tag != name:
		if name == "" {
			name = "Object"
		}
		return name + " [" + tag + "] "
	case name != "Object" && name != "":
		return name + " "
	}
	return ""
}

func (in *inspector) function(obj *runtime.Object) string {
	name := obj.Get("name").ToString()
	kind := "Function"
	if _, ok := obj.Internal["class"]; ok {
		kind = "class"
		if name == "" {
			return "[class (anonymous)]"
		}
		return "[class " + name + "]"
	}
	if name == "" {
		return "[" + kind + " (anonymous)]"
	}
	return "[" + kind + ": " + name + "]"
}

func inspectNode(obj *runtime.Object) string {
	name := obj.Get("nodeName").ToString()
	if strings.HasPrefix(name, "#") {
		return name
	}
	return "<" + strings.ToLower(name) + ">"
}

func (in *inspector) indexed(obj *runtime.Object, depth int) []string {
	var out []string
	holes := 0
	flush := func() {
		if holes == 0 {
			return
		}
		item := "items"
		if holes == 1 {
			item = "item"
		}
		out = append(out, "<"+itoa(holes)+" empty "+item+">")
		holes = 0
	}
	for _, el := range obj.ArrayData {
		if el == nil {
			holes++
			continue
		}
		flush()
		out = append(out, in.value(el, depth+1, true))
	}
	flush()
	return out
}

// properties renders own enumerable properties other than indices.
func (in *inspector) properties(obj *runtime.Object, depth int) []string {
	var out []string
	indexed := hasIndexedData(obj)
	for _, k := range obj.OwnKeys() {
		if indexed {
			if _, ok := runtime.ArrayIndex(k); ok {
				continue
			}
		}
		if !obj.IsEnumerable(k) {
			continue
		}
		out = append(out, in.key(k)+": "+in.property(obj, k, depth))
	}
	for _, sym := range obj.OwnSymbols() {
		prop, _ := obj.GetOwnSymbol(sym)
		if !prop.Enumerable {
			continue
		}
		out = append(out, "["+runtime.NewSymbolValue(sym).ToString()+"]: "+in.value(orUndefined(prop.Value), depth+1, true))
	}
	return out
}

func (in *inspector) property(obj *runtime.Object, k string, depth int) string {
	if prop, ok := obj.GetOwnProperty(k); ok && prop.IsAccessor {
		switch {
		case prop.Getter != nil && prop.Setter != nil:
			return "[Getter/Setter]"
		case prop.Getter != nil:
			return "[Getter]"
		}
		return "[Setter]"
	}
	return in.value(obj.Get(k), depth+1, true)
}

// join lays entries out on one line when they fit, else one per line.
func (in *inspector) join(open, close string, entries []string) string {
	total := len(entries) + 2
	multiline := false
	for _, e := range entries {
		total += len(e)
		if strings.Contains(e, "\n") {
			multiline = true
		}
	}
	if !multiline && total <= breakLength {
		return open + " " + strings.Join(entries, ", ") + " " + close
	}
	const indent = "  "
	var sb strings.Builder
	sb.WriteString(open + "\n")
	for i, e := range entries {
		sb.WriteString(indent + strings.ReplaceAll(e, "\n", "\n"+indent))
		if i < len(entries)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(close)
	return sb.String()
}
