package builtins

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

func (l *lib) installString() {
	proto := l.realm.StringPrototype
	proto.OType = runtime.ObjTypeString
	proto.SetInternal("primitive", runtime.EmptyStr)

	l.method(proto, "charAt", 1, stringCharAt)
	l.method(proto, "charCodeAt", 1, stringCharCodeAt)
	l.method(proto, "codePointAt", 1, stringCharCodeAt)
	l.method(proto, "at", 1, stringAt)
	l.method(proto, "indexOf", 1, stringIndexOf)
	l.method(proto, "lastIndexOf", 1, stringLastIndexOf)
	l.method(proto, "includes", 1, stringIncludes)
	l.method(proto, "startsWith", 1, stringStartsWith)
	l.method(proto, "endsWith", 1, stringEndsWith)
	l.method(proto, "slice", 2, stringSlice)
	l.method(proto, "substring", 2, stringSubstring)
	l.method(proto, "substr", 2, stringSubstr)
	l.method(proto, "toUpperCase", 0, stringMapper("toUpperCase", strings.ToUpper))
	l.method(proto, "toLowerCase", 0, stringMapper("toLowerCase", strings.ToLower))
	l.method(proto, "toLocaleUpperCase", 0, stringMapper("toLocaleUpperCase", strings.ToUpper))
	l.method(proto, "toLocaleLowerCase", 0, stringMapper("toLocaleLowerCase", strings.ToLower))
	l.method(proto, "trim", 0, stringMapper("trim", func(s string) string { return strings.TrimFunc(s, isJSSpace) }))
	l.method(proto, "trimStart", 0, stringMapper("trimStart", func(s string) string { return strings.TrimLeftFunc(s, isJSSpace) }))
	l.method(proto, "trimEnd", 0, stringMapper("trimEnd", func(s string) string { return strings.TrimRightFunc(s, isJSSpace) }))
	l.method(proto, "padStart", 2, stringPadder(true))
	l.method(proto, "padEnd", 2, stringPadder(false))
	l.method(proto, "repeat", 1, stringRepeat)
	l.method(proto, "concat", 1, stringConcat)
	l.method(proto, "split", 2, l.stringSplit)
	l.method(proto, "replace", 2, l.stringReplacer(false))
	l.method(proto, "replaceAll", 2, l.stringReplacer(true))
	l.method(proto, "match", 1, l.stringMatch)
	l.method(proto, "matchAll", 1, l.stringMatchAll)
	l.method(proto, "search", 1, l.stringSearch)
	l.method(proto, "localeCompare", 1, stringLocaleCompare)
	l.method(proto, "normalize", 0, stringNormalize)
	l.method(proto, "toString", 0, stringValueOf)
	l.method(proto, "valueOf", 0, stringValueOf)
	l.symbolMethod(proto, runtime.SymbolIterator, "[Symbol.iterator]", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		s, err := thisString(this, "[Symbol.iterator]")
		if err != nil {
			return nil, err
		}
		it, err := runtime.GetIterator(l.realm, runtime.NewString(s))
		if err != nil {
			return nil, err
		}
		return l.iteratorValue(l.stringIteratorProto, it), nil
	})

	ctor := l.constructor("String", 1, proto, stringCall, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		s := ""
		if len(args) > 0 {
			var err error
			if s, err = toString(args[0]); err != nil {
				return nil, err
			}
		}
		this.Object.OType = runtime.ObjTypeString
		this.Object.SetInternal("primitive", runtime.NewString(s))
		return this, nil
	})
	l.method(ctor, "fromCharCode", 1, stringFromCharCode)
	l.method(ctor, "fromCodePoint", 1, stringFromCharCode)
	l.method(ctor, "raw", 1, l.stringRaw)
}

func stringCall(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	if len(args) == 0 {
		return runtime.EmptyStr, nil
	}
	if args[0].Type == runtime.TypeSymbol {
		return runtime.NewString(args[0].ToString()), nil
	}
	s, err := toString(args[0])
	if err != nil {
		return nil, err
	}
	return runtime.NewString(s), nil
}

// thisString coerces the receiver of a String.prototype method.
func thisString(this *runtime.Value, method string) (string, error) {
	switch this.Type {
	case runtime.TypeString:
		return this.Str, nil
	case runtime.TypeUndefined, runtime.TypeNull:
		return "", runtime.NewTypeError("String.prototype.%s called on null or undefined", method)
	}
	return toString(this)
}

func stringArg(args []*runtime.Value, i int) (string, error) {
	return toString(argAt(args, i))
}

// isJSSpace matches WhiteSpace and LineTerminator.
func isJSSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

func stringValueOf(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	if this.Type == runtime.TypeString {
		return this, nil
	}
	if this.IsObject() && this.Object.OType == runtime.ObjTypeString {
		if p, ok := this.Object.Internal["primitive"].(*runtime.Value); ok {
			return p, nil
		}
	}
	return nil, runtime.NewTypeError("String.prototype.valueOf requires that 'this' be a String")
}

func stringMapper(method string, f func(string) string) runtime.CallableFunc {
	return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		s, err := thisString(this, method)
		if err != nil {
			return nil, err
		}
		return runtime.NewString(f(s)), nil
	}
}

func stringCharAt(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "charAt")
	if err != nil {
		return nil, err
	}
	runes := []rune(s)
	n, err := toInteger(argAt(args, 0))
	if err != nil {
		return nil, err
	}
	if n < 0 || n >= float64(len(runes)) {
		return runtime.EmptyStr, nil
	}
	return runtime.NewString(string(runes[int(n)])), nil
}

func stringCharCodeAt(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "charCodeAt")
	if err != nil {
		return nil, err
	}
	runes := []rune(s)
	n, err := toInteger(argAt(args, 0))
	if err != nil {
		return nil, err
	}
	if n < 0 || n >= float64(len(runes)) {
		return runtime.NaN, nil
	}
	return runtime.NewInt(int64(runes[int(n)])), nil
}

func stringAt(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "at")
	if err != nil {
		return nil, err
	}
	runes := []rune(s)
	i, ok, err := absoluteIndex(argAt(args, 0), len(runes))
	if err != nil || !ok {
		return runtime.Undefined, err
	}
	return runtime.NewString(string(runes[i])), nil
}

// runeIndex converts a byte offset in s to a rune offset.
func runeIndex(s string, byteOff int) int {
	return utf8.RuneCountInString(s[:byteOff])
}

// byteOffset converts a rune offset in s to a byte offset.
func byteOffset(s string, runeOff int) int {
	if runeOff <= 0 {
		return 0
	}
	n := 0
	for i := range s {
		if n == runeOff {
			return i
		}
		n++
	}
	return len(s)
}

func stringIndexOf(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "indexOf")
	if err != nil {
		return nil, err
	}
	search, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	from, err := relativeIndex(argAt(args, 1), utf8.RuneCountInString(s), 0)
	if err != nil {
		return nil, err
	}
	if argAt(args, 1).IsNumber() && argAt(args, 1).ToNumber() < 0 {
		from = 0
	}
	off := byteOffset(s, from)
	idx := strings.Index(s[off:], search)
	if idx < 0 {
		return runtime.NewInt(-1), nil
	}
	return runtime.NewInt(int64(runeIndex(s, off+idx))), nil
}

func stringLastIndexOf(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "lastIndexOf")
	if err != nil {
		return nil, err
	}
	search, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	limit := len(s)
	if p := argAt(args, 1); p.Type != runtime.TypeUndefined {
		n, err := toNumber(p)
		if err != nil {
			return nil, err
		}
		if !math.IsNaN(n) {
			limit = byteOffset(s, int(math.Max(0, n))) + len(search)
			if limit > len(s) {
				limit = len(s)
			}
		}
	}
	idx := strings.LastIndex(s[:limit], search)
	if idx < 0 {
		return runtime.NewInt(-1), nil
	}
	return runtime.NewInt(int64(runeIndex(s, idx))), nil
}

func noRegExpArg(args []*runtime.Value, method string) error {
	if v := argAt(args, 0); v.IsObject() {
		if _, ok := v.Object.Internal["regexp"]; ok {
			return runtime.NewTypeError("First argument to String.prototype.%s must not be a regular expression", method)
		}
	}
	return nil
}

func stringIncludes(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "includes")
	if err != nil {
		return nil, err
	}
	if err := noRegExpArg(args, "includes"); err != nil {
		return nil, err
	}
	search, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	from, err := relativeIndex(argAt(args, 1), utf8.RuneCountInString(s), 0)
	if err != nil {
		return nil, err
	}
	return runtime.NewBool(strings.Contains(s[byteOffset(s, from):], search)), nil
}

func stringStartsWith(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "startsWith")
	if err != nil {
		return nil, err
	}
	if err := noRegExpArg(args, "startsWith"); err != nil {
		return nil, err
	}
	search, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	from, err := relativeIndex(argAt(args, 1), utf8.RuneCountInString(s), 0)
	if err != nil {
		return nil, err
	}
	return runtime.NewBool(strings.HasPrefix(s[byteOffset(s, from):], search)), nil
}

func stringEndsWith(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "endsWith")
	if err != nil {
		return nil, err
	}
	if err := noRegExpArg(args, "endsWith"); err != nil {
		return nil, err
	}
	search, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	n := utf8.RuneCountInString(s)
	end, err := relativeIndex(argAt(args, 1), n, n)
	if err != nil {
		return nil, err
	}
	return runtime.NewBool(strings.HasSuffix(s[:byteOffset(s, end)], search)), nil
}

func stringSlice(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "slice")
	if err != nil {
		return nil, err
	}
	runes := []rune(s)
	start, err := relativeIndex(argAt(args, 0), len(runes), 0)
	if err != nil {
		return nil, err
	}
	end, err := relativeIndex(argAt(args, 1), len(runes), len(runes))
	if err != nil {
		return nil, err
	}
	if start >= end {
		return runtime.EmptyStr, nil
	}
	return runtime.NewString(string(runes[start:end])), nil
}

// clampIndex truncates v into [0, length]; negatives become 0.
func clampIndex(v *runtime.Value, length, def int) (int, error) {
	if v.Type == runtime.TypeUndefined {
		return def, nil
	}
	n, err := toInteger(v)
	if err != nil {
		return 0, err
	}
	return int(math.Max(0, math.Min(n, float64(length)))), nil
}

func stringSubstring(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "substring")
	if err != nil {
		return nil, err
	}
	runes := []rune(s)
	start, err := clampIndex(argAt(args, 0), len(runes), 0)
	if err != nil {
		return nil, err
	}
	end, err := clampIndex(argAt(args, 1), len(runes), len(runes))
	if err != nil {
		return nil, err
	}
	if start > end {
		start, end = end, start
	}
	return runtime.NewString(string(runes[start:end])), nil
}

func stringSubstr(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "substr")
	if err != nil {
		return nil, err
	}
	runes := []rune(s)
	start, err := relativeIndex(argAt(args, 0), len(runes), 0)
	if err != nil {
		return nil, err
	}
	count, err := clampIndex(argAt(args, 1), len(runes)-start, len(runes)-start)
	if err != nil {
		return nil, err
	}
	return runtime.NewString(string(runes[start : start+count])), nil
}

func stringPadder(atStart bool) runtime.CallableFunc {
	return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		s, err := thisString(this, "padStart")
		if err != nil {
			return nil, err
		}
		target, err := toInteger(argAt(args, 0))
		if err != nil {
			return nil, err
		}
		fill := " "
		if f := argAt(args, 1); f.Type != runtime.TypeUndefined {
			if fill, err = toString(f); err != nil {
				return nil, err
			}
		}
		n := utf8.RuneCountInString(s)
		if int(target) <= n || fill == "" {
			return runtime.NewString(s), nil
		}
		need := int(target) - n
		fillRunes := []rune(fill)
		pad := make([]rune, need)
		for i := range pad {
			pad[i] = fillRunes[i%len(fillRunes)]
		}
		if atStart {
			return runtime.NewString(string(pad) + s), nil
		}
		return runtime.NewString(s + string(pad)), nil
	}
}

func stringRepeat(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "repeat")
	if err != nil {
		return nil, err
	}
	n, err := toInteger(argAt(args, 0))
	if err != nil {
		return nil, err
	}
	if n < 0 || math.IsInf(n, 0) {
		return nil, runtime.NewRangeError("Invalid count value: %s", runtime.FormatNumber(n))
	}
	if float64(len(s))*n > 1<<28 {
		return nil, runtime.NewRangeError("Invalid string length")
	}
	return runtime.NewString(strings.Repeat(s, int(n))), nil
}

func stringConcat(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "concat")
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	sb.WriteString(s)
	for _, a := range args {
		part, err := toString(a)
		if err != nil {
			return nil, err
		}
		sb.WriteString(part)
	}
	return runtime.NewString(sb.String()), nil
}

func (l *lib) stringSplit(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "split")
	if err != nil {
		return nil, err
	}
	limit := -1
	if lv := argAt(args, 1); lv.Type != runtime.TypeUndefined {
		n, err := toNumber(lv)
		if err != nil {
			return nil, err
		}
		limit = int(runtime.ToUint32(n))
	}
	sepVal := argAt(args, 0)
	var parts []string
	switch {
	case sepVal.Type == runtime.TypeUndefined:
		parts = []string{s}
	case regexpOf(sepVal) != nil:
		return l.regexpSplit(regexpOf(sepVal), s, limit)
	default:
		sep, err := toString(sepVal)
		if err != nil {
			return nil, err
		}
		if sep == "" {
			for _, r := range s {
				parts = append(parts, string(r))
			}
		} else {
			parts = strings.Split(s, sep)
		}
	}
	if limit >= 0 && len(parts) > limit {
		parts = parts[:limit]
	}
	out := make([]*runtime.Value, len(parts))
	for i, p := range parts {
		out[i] = runtime.NewString(p)
	}
	return l.realm.ArrayValue(out), nil
}

func (l *lib) stringReplacer(all bool) runtime.CallableFunc {
	method := "replace"
	if all {
		method = "replaceAll"
	}
	return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		s, err := thisString(this, method)
		if err != nil {
			return nil, err
		}
		pattern, replacement := argAt(args, 0), argAt(args, 1)
		if re := regexpOf(pattern); re != nil {
			if all && !re.global {
				return nil, runtime.NewTypeError("replaceAll must be called with a global RegExp")
			}
			return l.regexpReplace(pattern.Object, re, s, replacement)
		}
		search, err := toString(pattern)
		if err != nil {
			return nil, err
		}
		var matches [][]int
		if all {
			step := max(1, len(search))
			for pos := 0; pos <= len(s); {
				idx := strings.Index(s[pos:], search)
				if idx < 0 {
					break
				}
				matches = append(matches, []int{pos + idx, pos + idx + len(search)})
				pos += idx + step
				if search == "" && pos > len(s) {
					break
				}
			}
		} else if idx := strings.Index(s, search); idx >= 0 {
			matches = [][]int{{idx, idx + len(search)}}
		}
		return l.substitute(s, matches, nil, replacement)
	}
}

// substitute rebuilds s with each match replaced. A match holds byte
// offsets of the whole match followed by its groups.
func (l *lib) substitute(s string, matches [][]int, names []string, replacement *runtime.Value) (*runtime.Value, error) {
	var template string
	if !replacement.IsCallable() {
		var err error
		if template, err = toString(replacement); err != nil {
			return nil, err
		}
	}
	var sb strings.Builder
	last := 0
	for _, m := range matches {
		sb.WriteString(s[last:m[0]])
		if replacement.IsCallable() {
			callArgs := matchStrings(s, m)
			callArgs = append(callArgs, runtime.NewInt(int64(runeIndex(s, m[0]))), runtime.NewString(s))
			if groups := l.namedGroups(s, m, names); groups != nil {
				callArgs = append(callArgs, groups)
			}
			res, err := runtime.Call(replacement, runtime.Undefined, callArgs)
			if err != nil {
				return nil, err
			}
			str, err := toString(res)
			if err != nil {
				return nil, err
			}
			sb.WriteString(str)
		} else {
			sb.WriteString(expandTemplate(template, s, m, names))
		}
		last = m[1]
	}
	sb.WriteString(s[last:])
	return runtime.NewString(sb.String()), nil
}

// matchStrings returns the match and its groups; unmatched groups are
// undefined.
func matchStrings(s string, m []int) []*runtime.Value {
	out := make([]*runtime.Value, 0, len(m)/2)
	for i := 0; i+1 < len(m); i += 2 {
		if m[i] < 0 {
			out = append(out, runtime.Undefined)
			continue
		}
		out = append(out, runtime.NewString(s[m[i]:m[i+1]]))
	}
	return out
}

// expandTemplate applies $-substitutions of a replacement string.
func expandTemplate(template, s string, m []int, names []string) string {
	if !strings.Contains(template, "$") {
		return template
	}
	group := func(n int) string {
		if 2*n+1 >= len(m) || m[2*n] < 0 {
			return ""
		}
		return s[m[2*n]:m[2*n+1]]
	}
	groups := len(m)/2 - 1
	var sb strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '$' || i+1 >= len(template) {
			sb.WriteByte(c)
			continue
		}
		next := template[i+1]
		switch {
		case next == '$':
			sb.WriteByte('$')
			i++
		case next == '&':
			sb.WriteString(s[m[0]:m[1]])
			i++
		case next == '`':
			sb.WriteString(s[:m[0]])
			i++
		case next == '\'':
			sb.WriteString(s[m[1]:])
			i++
		case next >= '0' && next <= '9':
			n := int(next - '0')
			width := 1
			if i+2 < len(template) && template[i+2] >= '0' && template[i+2] <= '9' {
				if two := n*10 + int(template[i+2]-'0'); two >= 1 && two <= groups {
					n, width = two, 2
				}
			}
			if n < 1 || n > groups {
				sb.WriteByte(c)
				continue
			}
			sb.WriteString(group(n))
			i += width
		case next == '<' && names != nil:
			end := strings.IndexByte(template[i+2:], '>')
			if end < 0 {
				sb.WriteByte(c)
				continue
			}
			name := template[i+2 : i+2+end]
			for gi, gn := range names {
				if gn == name && gi > 0 {
					sb.WriteString(group(gi))
				}
			}
			i += end + 2
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func (l *lib) stringMatch(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "match")
	if err != nil {
		return nil, err
	}
	reVal, err := l.toRegExp(argAt(args, 0), "")
	if err != nil {
		return nil, err
	}
	re := regexpOf(reVal)
	if !re.global {
		return l.regexpExecAt(reVal.Object, re, s)
	}
	reVal.Object.Set("lastIndex", runtime.Zero)
	all, err := re.findAll(s)
	if err != nil {
		return nil, err
	}
	var out []*runtime.Value
	for _, m := range all {
		out = append(out, runtime.NewString(s[m[0]:m[1]]))
	}
	if out == nil {
		return runtime.Null, nil
	}
	return l.realm.ArrayValue(out), nil
}

func (l *lib) stringMatchAll(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "matchAll")
	if err != nil {
		return nil, err
	}
	if re := regexpOf(argAt(args, 0)); re != nil && !re.global {
		return nil, runtime.NewTypeError("String.prototype.matchAll called with a non-global RegExp argument")
	}
	reVal, err := l.toRegExp(argAt(args, 0), "g")
	if err != nil {
		return nil, err
	}
	re := regexpOf(reVal)
	all, err := re.findAll(s)
	if err != nil {
		return nil, err
	}
	i := 0
	it := runtime.IteratorOf(func() (*runtime.Value, bool, error) {
		if i >= len(all) {
			return runtime.Undefined, true, nil
		}
		m := all[i]
		i++
		return l.matchResult(re, s, m), false, nil
	})
	return l.iteratorValue(l.realm.IteratorPrototype, it), nil
}

func (l *lib) stringSearch(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "search")
	if err != nil {
		return nil, err
	}
	reVal, err := l.toRegExp(argAt(args, 0), "")
	if err != nil {
		return nil, err
	}
	m, err := regexpOf(reVal).find(s, 0)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return runtime.NewInt(-1), nil
	}
	return runtime.NewInt(int64(runeIndex(s, m[0]))), nil
}

var collator = collate.New(language.Und)

func stringLocaleCompare(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "localeCompare")
	if err != nil {
		return nil, err
	}
	other, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	return runtime.NewInt(int64(collator.CompareString(s, other))), nil
}

func stringNormalize(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	s, err := thisString(this, "normalize")
	if err != nil {
		return nil, err
	}
	form := "NFC"
	if f := argAt(args, 0); f.Type != runtime.TypeUndefined {
		if form, err = toString(f); err != nil {
			return nil, err
		}
	}
	forms := map[string]norm.Form{"NFC": norm.NFC, "NFD": norm.NFD, "NFKC": norm.NFKC, "NFKD": norm.NFKD}
	f, ok := forms[form]
	if !ok {
		return nil, runtime.NewRangeError("The normalization form should be one of NFC, NFD, NFKC, NFKD.")
	}
	return runtime.NewString(f.String(s)), nil
}

func stringFromCharCode(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	var sb strings.Builder
	for _, a := range args {
		n, err := toNumber(a)
		if err != nil {
			return nil, err
		}
		sb.WriteRune(rune(runtime.ToUint32(n) & 0x1FFFFF))
	}
	return runtime.NewString(sb.String()), nil
}

func (l *lib) stringRaw(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	strs := argAt(args, 0)
	if !strs.IsObject() {
		return nil, runtime.NewTypeError("Cannot convert undefined or null to object")
	}
	raw, err := strs.Object.GetValue("raw")
	if err != nil {
		return nil, err
	}
	if !raw.IsObject() {
		return nil, runtime.NewTypeError("Cannot convert undefined or null to object")
	}
	parts, err := elements(raw.Object)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	for i, p := range parts {
		str, err := toString(orUndefined(p))
		if err != nil {
			return nil, err
		}
		sb.WriteString(str)
		if i+1 < len(parts) && i+1 < len(args) {
			sub, err := toString(args[i+1])
			if err != nil {
				return nil, err
			}
			sb.WriteString(sub)
		}
	}
	return runtime.NewString(sb.String()), nil
}
