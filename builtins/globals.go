package builtins

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

const (
	uriUnreserved = "-_.!~*'()"
	uriReserved   = ";/?:@&=+$,#"
)

func (l *lib) installGlobals() {
	g := l.realm.Global
	g.DefineGlobal("undefined", runtime.Undefined, false)
	g.DefineGlobal("NaN", runtime.NaN, false)
	g.DefineGlobal("Infinity", runtime.PosInf, false)

	// The globals are the same function objects as the Number statics.
	number := l.realm.Constructors["Number"]
	l.global("parseInt", number.Get("parseInt"))
	l.global("parseFloat", number.Get("parseFloat"))

	l.global("isNaN", l.fn("isNaN", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		n, err := toNumber(argAt(args, 0))
		if err != nil {
			return nil, err
		}
		return runtime.NewBool(math.IsNaN(n)), nil
	}))
	l.global("isFinite", l.fn("isFinite", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		n, err := toNumber(argAt(args, 0))
		if err != nil {
			return nil, err
		}
		return runtime.NewBool(!math.IsNaN(n) && !math.IsInf(n, 0)), nil
	}))

	l.global("encodeURIComponent", l.fn("encodeURIComponent", 1, uriEncoder(uriUnreserved)))
	l.global("encodeURI", l.fn("encodeURI", 1, uriEncoder(uriUnreserved+uriReserved)))
	l.global("decodeURIComponent", l.fn("decodeURIComponent", 1, uriDecoder("")))
	l.global("decodeURI", l.fn("decodeURI", 1, uriDecoder(uriReserved)))
	l.global("escape", l.fn("escape", 1, globalEscape))
	l.global("unescape", l.fn("unescape", 1, globalUnescape))

	l.global("structuredClone", l.fn("structuredClone", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		c := &cloner{l: l, done: map[*runtime.Object]*runtime.Value{}}
		return c.clone(argAt(args, 0))
	}))
	l.global("eval", l.fn("eval", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return nil, runtime.NewError(runtime.KindEvalError, "eval is not supported")
	}))
}

func uriMalformed() error {
	return runtime.NewError(runtime.KindURIError, "URI malformed")
}

// uriEncoder percent-encodes the UTF-8 bytes of every code point outside
// the alphanumerics and keep.
func uriEncoder(keep string) runtime.CallableFunc {
	return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		s, err := toString(argAt(args, 0))
		if err != nil {
			return nil, err
		}
		var sb strings.Builder
		for i := 0; i < len(s); {
			r, size := utf8.DecodeRuneInString(s[i:])
			if r == utf8.RuneError && size == 1 {
				// Lone surrogates are not valid UTF-8 and cannot be encoded.
				return nil, uriMalformed()
			}
			if isAlnum(r) || (r < utf8.RuneSelf && strings.IndexByte(keep, byte(r)) >= 0) {
				sb.WriteRune(r)
			} else {
				for j := 0; j < size; j++ {
					fmt.Fprintf(&sb, "%%%02X", s[i+j])
				}
			}
			i += size
		}
		return runtime.NewString(sb.String()), nil
	}
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func hexByte(s string, i int) (byte, bool) {
	if i+3 > len(s) || s[i] != '%' {
		return 0, false
	}
	n, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
	if err != nil {
		return 0, false
	}
	return byte(n), true
}

// uriDecoder reverses uriEncoder; escapes that decode to a byte in
// preserve are left as written.
func uriDecoder(preserve string) runtime.CallableFunc {
	return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		s, err := toString(argAt(args, 0))
		if err != nil {
			return nil, err
		}
		var sb strings.Builder
		for i := 0; i < len(s); {
			if s[i] != '%' {
				sb.WriteByte(s[i])
				i++
				continue
			}
			b, ok := hexByte(s, i)
			if !ok {
				return nil, uriMalformed()
			}
			if b < utf8.RuneSelf {
				if strings.IndexByte(preserve, b) >= 0 {
					sb.WriteString(s[i : i+3])
				} else {
					sb.WriteByte(b)
				}
				i += 3
				continue
			}
			n := utf8SequenceLength(b)
			if n == 0 {
				return nil, uriMalformed()
			}
			seq := []byte{b}
			j := i + 3
			for k := 1; k < n; k++ {
				c, ok := hexByte(s, j)
				if !ok || c&0xC0 != 0x80 {
					return nil, uriMalformed()
				}
				seq = append(seq, c)
				j += 3
			}
			if !utf8.Valid(seq) {
				return nil, uriMalformed()
			}
			sb.Write(seq)
			i = j
		}
		return runtime.NewString(sb.String()), nil
	}
}

func utf8SequenceLength(b byte) int {
	switch {
	case b&0xE0 == 0xC0:
		return 2
	case b&0xF0 == 0xE0:
		return 3
	case b&0xF8 == 0xF0:
		return 4
	}
	return 0
}

// escape works on UTF-16 code units: characters outside the Latin-1
// range become %uXXXX.
func globalEscape(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := toString(argAt(args, 0))
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	for _, cu := range toUTF16(s) {
		r := rune(cu)
		switch {
		case isAlnum(r) || strings.ContainsRune("@*_+-./", r):
			sb.WriteRune(r)
		case cu <= 0xFF:
			fmt.Fprintf(&sb, "%%%02X", cu)
		default:
			fmt.Fprintf(&sb, "%%u%04X", cu)
		}
	}
	return runtime.NewString(sb.String()), nil
}

func globalUnescape(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := toString(argAt(args, 0))
	if err != nil {
		return nil, err
	}
	var units []uint16
	for i := 0; i < len(s); {
		if s[i] == '%' {
			if i+6 <= len(s) && s[i+1] == 'u' {
				if n, err := strconv.ParseUint(s[i+2:i+6], 16, 16); err == nil {
					units = append(units, uint16(n))
					i += 6
					continue
				}
			}
			if b, ok := hexByte(s, i); ok {
				units = append(units, uint16(b))
				i += 3
				continue
			}
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		units = utf16.AppendRune(units, r)
		i += size
	}
	return runtime.NewString(fromUTF16(units)), nil
}

// toUTF16 splits s into UTF-16 code units. Surrogates stored as
// three-byte sequences come back as single units.
func toUTF16(s string) []uint16 {
	var out []uint16
	for i := 0; i < len(s); {
		if r, ok := decodeSurrogate(s[i:]); ok {
			out = append(out, uint16(r))
			i += 3
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			out = append(out, uint16(s[i]))
		} else {
			out = utf16.AppendRune(out, r)
		}
		i += size
	}
	return out
}

func decodeSurrogate(s string) (rune, bool) {
	if len(s) < 3 || s[0] != 0xED || s[1] < 0xA0 || s[1] > 0xBF || s[2]&0xC0 != 0x80 {
		return 0, false
	}
	return rune(s[0]&0x0F)<<12 | rune(s[1]&0x3F)<<6 | rune(s[2]&0x3F), true
}

// fromUTF16 joins code units, keeping unpaired surrogates as three-byte
// sequences so they survive a round trip.
func fromUTF16(units []uint16) string {
	var sb strings.Builder
	for i := 0; i < len(units); i++ {
		cu := units[i]
		if utf16.IsSurrogate(rune(cu)) {
			if i+1 < len(units) {
				if r := utf16.DecodeRune(rune(cu), rune(units[i+1])); r != utf8.RuneError {
					sb.WriteRune(r)
					i++
					continue
				}
			}
			sb.WriteByte(byte(0xE0 | cu>>12))
			sb.WriteByte(byte(0x80 | (cu>>6)&0x3F))
			sb.WriteByte(byte(0x80 | cu&0x3F))
			continue
		}
		sb.WriteRune(rune(cu))
	}
	return sb.String()
}

// cloner implements structuredClone for plain data: primitives, arrays,
// plain objects, wrappers, Maps, Sets and errors. Shared references and
// cycles are preserved.
type cloner struct {
	l    *lib
	done map[*runtime.Object]*runtime.Value
}

func dataCloneError(what string) error {
	return runtime.NewError("DataCloneError", "%s could not be cloned.", what)
}

func (c *cloner) clone(v *runtime.Value) (*runtime.Value, error) {
	if v.Type == runtime.TypeSymbol {
		return nil, dataCloneError(v.ToString())
	}
	if !v.IsObject() {
		return v, nil
	}
	src := v.Object
	if out, ok := c.done[src]; ok {
		return out, nil
	}
	r := c.l.realm
	switch {
	case src.Callable != nil:
		return nil, dataCloneError(Inspect(v))
	case src.OType == runtime.ObjTypeNode || src.Promise != nil || regexpOf(v) != nil:
		return nil, dataCloneError(Inspect(v))
	case src.OType == runtime.ObjTypeArray:
		arr := r.NewArray(make([]*runtime.Value, len(src.ArrayData)))
		out := runtime.NewObject(arr)
		c.done[src] = out
		for i, el := range src.ArrayData {
			if el == nil {
				continue
			}
			cv, err := c.clone(el)
			if err != nil {
				return nil, err
			}
			arr.ArrayData[i] = cv
		}
		return out, nil
	case src.Collection != nil:
		kind, _ := src.Internal["collection"].(string)
		if kind != "Map" && kind != "Set" {
			return nil, dataCloneError(kind)
		}
		out, err := c.l.construct(r.Constructors[kind], nil)
		if err != nil {
			return nil, err
		}
		c.done[src] = out
		for _, e := range src.Collection.Entries() {
			k, err := c.clone(e[0])
			if err != nil {
				return nil, err
			}
			val, err := c.clone(e[1])
			if err != nil {
				return nil, err
			}
			out.Object.Collection.Set(k, val)
		}
		return out, nil
	case src.OType == runtime.ObjTypeError:
		name := src.Get("name").ToString()
		proto, ok := r.ErrorPrototypes[name]
		if !ok {
			proto = r.ErrorPrototypes[runtime.KindError]
		}
		e := runtime.NewErrorObject(proto, name, src.Get("message").ToString())
		if stack := src.Get("stack"); stack.Type == runtime.TypeString {
			setDataProp(e, "stack", stack, true, false, true)
		}
		out := runtime.NewObject(e)
		c.done[src] = out
		return out, nil
	}
	if tv, ok := dateOf(v); ok {
		out, err := c.l.construct(r.Constructors["Date"], []*runtime.Value{runtime.NewNumber(tv)})
		if err != nil {
			return nil, err
		}
		c.done[src] = out
		return out, nil
	}
	if p, ok := src.Internal["primitive"].(*runtime.Value); ok {
		if p.Type == runtime.TypeSymbol {
			return nil, dataCloneError(p.ToString())
		}
		obj, err := r.ToObject(p)
		if err != nil {
			return nil, err
		}
		return runtime.NewObject(obj), nil
	}
	dst := r.NewObject()
	out := runtime.NewObject(dst)
	c.done[src] = out
	for _, k := range src.OwnKeys() {
		if !src.IsEnumerable(k) {
			continue
		}
		val, err := src.GetValue(k)
		if err != nil {
			return nil, err
		}
		cv, err := c.clone(val)
		if err != nil {
			return nil, err
		}
		dst.Set(k, cv)
	}
	return out, nil
}

func (l *lib) installTimers() {
	if l.timers == nil {
		return
	}
	schedule := func(name string, repeat bool) runtime.CallableFunc {
		return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
			cb := argAt(args, 0)
			if !cb.IsCallable() {
				return nil, runtime.NewTypeError("The \"callback\" argument must be of type function. Received %s", describe(cb))
			}
			delay := 0.0
			if len(args) > 1 {
				d, err := toNumber(args[1])
				if err != nil {
					return nil, err
				}
				if !math.IsNaN(d) && d > 0 {
					delay = math.Min(d, math.MaxInt32)
				}
			}
			var extra []*runtime.Value
			if len(args) > 2 {
				extra = append(extra, args[2:]...)
			}
			task := func() error {
				_, err := runtime.Call(cb, runtime.Undefined, extra)
				return err
			}
			var id int64
			if repeat {
				id = l.timers.SetInterval(task, int64(delay))
			} else {
				id = l.timers.SetTimeout(task, int64(delay))
			}
			l.log.WithField("timer", id).Debugf("%s scheduled after %dms", name, int64(delay))
			return runtime.NewInt(id), nil
		}
	}
	clearTimer := func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		id := argAt(args, 0)
		if id.IsNumber() {
			l.timers.Clear(int64(id.ToNumber()))
		}
		return runtime.Undefined, nil
	}
	l.global("setTimeout", l.fn("setTimeout", 2, schedule("setTimeout", false)))
	l.global("setInterval", l.fn("setInterval", 2, schedule("setInterval", true)))
	l.global("clearTimeout", l.fn("clearTimeout", 1, clearTimer))
	l.global("clearInterval", l.fn("clearInterval", 1, clearTimer))
	l.global("queueMicrotask", l.fn("queueMicrotask", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		cb := argAt(args, 0)
		if !cb.IsCallable() {
			return nil, runtime.NewTypeError("The \"callback\" argument must be of type function. Received %s", describe(cb))
		}
		l.timers.QueueMicrotask(func() error {
			_, err := runtime.Call(cb, runtime.Undefined, nil)
			return err
		})
		return runtime.Undefined, nil
	}))
}
