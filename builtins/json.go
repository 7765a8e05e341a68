package builtins

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

func (l *lib) installJSON() {
	j := runtime.NewOrdinaryObject(l.realm.ObjectPrototype)
	l.method(j, "parse", 2, l.jsonParse)
	l.method(j, "stringify", 3, l.jsonStringify)
	setToStringTag(j, "JSON")
	l.global("JSON", runtime.NewObject(j))
}

// ParseJSON decodes src into script values, keeping object keys in
// source order.
func ParseJSON(realm *runtime.Realm, src string) (*runtime.Value, error) {
	dec := json.NewDecoder(strings.NewReader(src))
	dec.UseNumber()
	v, err := decodeJSON(realm, dec)
	if err != nil {
		return nil, jsonSyntaxError(dec, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, runtime.NewSyntaxError("Unexpected non-whitespace character after JSON at position %d", dec.InputOffset())
	}
	return v, nil
}

func jsonSyntaxError(dec *json.Decoder, err error) error {
	if re, ok := runtime.AsRuntimeError(err); ok {
		return re
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return runtime.NewSyntaxError("Unexpected end of JSON input")
	}
	return runtime.NewSyntaxError("Unexpected token in JSON at position %d", dec.InputOffset())
}

func decodeJSON(realm *runtime.Realm, dec *json.Decoder) (*runtime.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case nil:
		return runtime.Null, nil
	case bool:
		return runtime.NewBool(t), nil
	case string:
		return runtime.NewString(t), nil
	case json.Number:
		return runtime.NewNumber(runtime.StringToNumber(string(t))), nil
	case json.Delim:
		switch t {
		case '[':
			var items []*runtime.Value
			for dec.More() {
				v, err := decodeJSON(realm, dec)
				if err != nil {
					return nil, err
				}
				items = append(items, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return realm.ArrayValue(items), nil
		case '{':
			obj := realm.NewObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := keyTok.(string)
				v, err := decodeJSON(realm, dec)
				if err != nil {
					return nil, err
				}
				setDataProp(obj, key, v, true, true, true)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return runtime.NewObject(obj), nil
		}
	}
	return nil, runtime.NewSyntaxError("Unexpected token in JSON at position %d", dec.InputOffset())
}

func (l *lib) jsonParse(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	text, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	v, err := ParseJSON(l.realm, text)
	if err != nil {
		return nil, err
	}
	reviver := argAt(args, 1)
	if !reviver.IsCallable() {
		return v, nil
	}
	root := l.realm.NewObject()
	root.Set("", v)
	return l.revive(reviver, root, "")
}

// revive walks holder[key] bottom-up through reviver.
func (l *lib) revive(reviver *runtime.Value, holder *runtime.Object, key string) (*runtime.Value, error) {
	val, err := holder.GetValue(key)
	if err != nil {
		return nil, err
	}
	if val.IsObject() {
		obj := val.Object
		var keys []string
		if obj.OType == runtime.ObjTypeArray {
			for i := range obj.ArrayData {
				keys = append(keys, strconv.Itoa(i))
			}
		} else {
			for _, k := range obj.OwnKeys() {
				if obj.IsEnumerable(k) {
					keys = append(keys, k)
				}
			}
		}
		for _, k := range keys {
			nv, err := l.revive(reviver, obj, k)
			if err != nil {
				return nil, err
			}
			if nv.Type == runtime.TypeUndefined {
				obj.Delete(k)
			} else if err := obj.Put(k, nv); err != nil {
				return nil, err
			}
		}
	}
	return runtime.Call(reviver, runtime.NewObject(holder), []*runtime.Value{runtime.NewString(key), val})
}

// jsonWriter carries the state of one JSON.stringify call.
type jsonWriter struct {
	l        *lib
	replacer *runtime.Value
	allow    []string
	gap      string
	stack    []*runtime.Object
}

func (l *lib) jsonStringify(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	w := &jsonWriter{l: l}
	if rep := argAt(args, 1); rep.IsCallable() {
		w.replacer = rep
	} else if isArray(rep) {
		w.allow = []string{}
		seen := map[string]bool{}
		for _, item := range rep.Object.ArrayData {
			item = orUndefined(item)
			if item.IsObject() && (item.Object.OType == runtime.ObjTypeString || item.Object.OType == runtime.ObjTypeNumber) {
				item = item.Object.Internal["primitive"].(*runtime.Value)
			}
			if item.Type != runtime.TypeString && !item.IsNumber() {
				continue
			}
			if k := item.ToString(); !seen[k] {
				seen[k] = true
				w.allow = append(w.allow, k)
			}
		}
	}
	space := argAt(args, 2)
	if space.IsObject() && (space.Object.OType == runtime.ObjTypeString || space.Object.OType == runtime.ObjTypeNumber) {
		space = space.Object.Internal["primitive"].(*runtime.Value)
	}
	switch {
	case space.IsNumber():
		n := min(10, int(space.ToNumber()))
		if n > 0 {
			w.gap = strings.Repeat(" ", n)
		}
	case space.Type == runtime.TypeString:
		w.gap = space.Str
		if utf8.RuneCountInString(w.gap) > 10 {
			w.gap = string([]rune(w.gap)[:10])
		}
	}

	wrapper := l.realm.NewObject()
	wrapper.Set("", argAt(args, 0))
	out, ok, err := w.property(wrapper, "", argAt(args, 0), "")
	if err != nil {
		return nil, err
	}
	if !ok {
		return runtime.Undefined, nil
	}
	return runtime.NewString(out), nil
}

// property serializes holder[key]; ok is false when the value is
// omitted.
func (w *jsonWriter) property(holder *runtime.Object, key string, val *runtime.Value, indent string) (string, bool, error) {
	r := w.l.realm
	if val.IsObject() || val.Type == runtime.TypeBigInt {
		toJSON, err := r.Get(val, "toJSON")
		if err != nil {
			return "", false, err
		}
		if toJSON.IsCallable() {
			if val, err = runtime.Call(toJSON, val, []*runtime.Value{runtime.NewString(key)}); err != nil {
				return "", false, err
			}
		}
	}
	if w.replacer != nil {
		var err error
		if val, err = runtime.Call(w.replacer, runtime.NewObject(holder), []*runtime.Value{runtime.NewString(key), val}); err != nil {
			return "", false, err
		}
	}
	if val.IsObject() {
		switch val.Object.OType {
		case runtime.ObjTypeNumber:
			n, err := runtime.ToNumberValue(val)
			if err != nil {
				return "", false, err
			}
			val = runtime.NewNumber(n)
		case runtime.ObjTypeString:
			s, err := toString(val)
			if err != nil {
				return "", false, err
			}
			val = runtime.NewString(s)
		case runtime.ObjTypeBoolean:
			val = val.Object.Internal["primitive"].(*runtime.Value)
		}
	}
	switch val.Type {
	case runtime.TypeNull:
		return "null", true, nil
	case runtime.TypeBoolean:
		return strconv.FormatBool(val.Bool), true, nil
	case runtime.TypeString:
		return quoteJSON(val.Str), true, nil
	case runtime.TypeNumber, runtime.TypeFloat:
		if _, bad := nonFinite(val.ToNumber()); bad {
			return "null", true, nil
		}
		return val.ToString(), true, nil
	case runtime.TypeBigInt:
		return "", false, runtime.NewTypeError("Do not know how to serialize a BigInt")
	case runtime.TypeObject:
		if val.IsCallable() {
			return "", false, nil
		}
		for _, seen := range w.stack {
			if seen == val.Object {
				return "", false, runtime.NewTypeError("Converting circular structure to JSON")
			}
		}
		w.stack = append(w.stack, val.Object)
		defer func() { w.stack = w.stack[:len(w.stack)-1] }()
		if isArray(val) {
			return w.array(val.Object, indent)
		}
		return w.object(val.Object, indent)
	}
	return "", false, nil
}

func (w *jsonWriter) wrap(open, close string, parts []string, indent string) string {
	if len(parts) == 0 {
		return open + close
	}
	if w.gap == "" {
		return open + strings.Join(parts, ",") + close
	}
	inner := indent + w.gap
	return open + "\n" + inner + strings.Join(parts, ",\n"+inner) + "\n" + indent + close
}

func (w *jsonWriter) array(obj *runtime.Object, indent string) (string, bool, error) {
	parts := make([]string, 0, len(obj.ArrayData))
	for i := 0; i < len(obj.ArrayData); i++ {
		key := strconv.Itoa(i)
		v, err := obj.GetValue(key)
		if err != nil {
			return "", false, err
		}
		s, ok, err := w.property(obj, key, v, indent+w.gap)
		if err != nil {
			return "", false, err
		}
		if !ok {
			s = "null"
		}
		parts = append(parts, s)
	}
	return w.wrap("[", "]", parts, indent), true, nil
}

func (w *jsonWriter) object(obj *runtime.Object, indent string) (string, bool, error) {
	keys := w.allow
	if keys == nil {
		for _, k := range obj.OwnKeys() {
			if obj.IsEnumerable(k) {
				keys = append(keys, k)
			}
		}
	}
	sep := ":"
	if w.gap != "" {
		sep = ": "
	}
	var parts []string
	for _, k := range keys {
		v, err := obj.GetValue(k)
		if err != nil {
			return "", false, err
		}
		s, ok, err := w.property(obj, k, v, indent+w.gap)
		if err != nil {
			return "", false, err
		}
		if ok {
			parts = append(parts, quoteJSON(k)+sep+s)
		}
	}
	return w.wrap("{", "}", parts, indent), true, nil
}

// quoteJSON quotes s the way JSON.stringify does; unlike encoding/json
// it leaves HTML characters alone.
func quoteJSON(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 {
				sb.WriteString(`\u00`)
				sb.WriteByte("0123456789abcdef"[r>>4])
				sb.WriteByte("0123456789abcdef"[r&0xf])
				continue
			}
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
