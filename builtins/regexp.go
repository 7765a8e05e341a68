package builtins

import (
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"github.com/dlclark/regexp2/syntax"

	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

// regexpData is the internal slot of a RegExp object.
type regexpData struct {
	re     *regexp2.Regexp
	source string
	flags  string
	global bool
	sticky bool
	// order maps each capturing group, in source order, to the engine's
	// group number.
	order []int
	// names holds group names by index, or nil when the pattern has none.
	names []string
}

func regexpOf(v *runtime.Value) *regexpData {
	if !v.IsObject() {
		return nil
	}
	re, _ := v.Object.Internal["regexp"].(*regexpData)
	return re
}

func (l *lib) installRegExp() {
	proto := runtime.NewOrdinaryObject(l.realm.ObjectPrototype)
	l.regexpProto = proto

	l.method(proto, "exec", 1, l.regexpExec)
	l.method(proto, "test", 1, l.regexpTest)
	l.method(proto, "toString", 0, regexpToString)
	l.method(proto, "compile", 2, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		if regexpOf(this) == nil {
			return nil, runtime.NewTypeError("RegExp.prototype.compile called on incompatible receiver")
		}
		if err := l.initRegExp(this.Object, argAt(args, 0), argAt(args, 1)); err != nil {
			return nil, err
		}
		return this, nil
	})

	l.getter(proto, "source", func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		re := regexpOf(this)
		if re == nil || re.source == "" {
			return runtime.NewString("(?:)"), nil
		}
		return runtime.NewString(escapeSource(re.source)), nil
	})
	l.getter(proto, "flags", func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		if re := regexpOf(this); re != nil {
			return runtime.NewString(re.flags), nil
		}
		return runtime.EmptyStr, nil
	})
	for name, flag := range map[string]byte{
		"global":     'g',
		"ignoreCase": 'i',
		"multiline":  'm',
		"dotAll":     's',
		"sticky":     'y',
		"unicode":    'u',
		"hasIndices": 'd',
	} {
		flag := flag
		l.getter(proto, name, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
			re := regexpOf(this)
			if re == nil {
				return runtime.Undefined, nil
			}
			return runtime.NewBool(strings.IndexByte(re.flags, flag) >= 0), nil
		})
	}

	var ctor *runtime.Object
	ctor = l.constructor("RegExp", 2, proto, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		if regexpOf(argAt(args, 0)) != nil && argAt(args, 1).Type == runtime.TypeUndefined {
			return args[0], nil
		}
		return l.construct(ctor, args)
	}, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		if err := l.initRegExp(this.Object, argAt(args, 0), argAt(args, 1)); err != nil {
			return nil, err
		}
		return this, nil
	})
}

// initRegExp compiles pattern into obj and resets lastIndex.
func (l *lib) initRegExp(obj *runtime.Object, pattern, flags *runtime.Value) error {
	source, flagStr := "", ""
	if re := regexpOf(pattern); re != nil {
		source, flagStr = re.source, re.flags
	} else if pattern.Type != runtime.TypeUndefined {
		var err error
		if source, err = toString(pattern); err != nil {
			return err
		}
	}
	if flags.Type != runtime.TypeUndefined {
		var err error
		if flagStr, err = toString(flags); err != nil {
			return err
		}
	}
	data, err := compileRegExp(source, flagStr)
	if err != nil {
		return err
	}
	obj.SetInternal("regexp", data)
	setDataProp(obj, "lastIndex", runtime.Zero, true, false, false)
	return nil
}

func compileRegExp(source, flags string) (*regexpData, error) {
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	seen := map[rune]bool{}
	for _, f := range flags {
		if !strings.ContainsRune("dgimsuyv", f) || seen[f] {
			return nil, runtime.NewSyntaxError("Invalid flags supplied to RegExp constructor '%s'", flags)
		}
		seen[f] = true
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		case 'u', 'v':
			opts |= regexp2.Unicode
		}
	}
	re, err := regexp2.Compile(source, opts)
	if err != nil {
		return nil, runtime.NewSyntaxError("Invalid regular expression: /%s/: %s", source, regexpReason(err))
	}
	data := &regexpData{
		re:     re,
		source: source,
		flags:  flags,
		global: seen['g'],
		sticky: seen['y'],
	}
	data.order, data.names = captureOrder(source, re)
	return data, nil
}

func regexpReason(err error) string {
	if se, ok := err.(*syntax.Error); ok {
		return string(se.Code)
	}
	return err.Error()
}

// captureOrder lists the engine's group number for each capturing group
// in source order. The engine numbers named groups after unnamed ones, so
// named groups are looked up by name. names is nil unless some group is
// named; otherwise it is indexed like a match, with names[0] empty.
func captureOrder(src string, re *regexp2.Regexp) (order []int, names []string) {
	labels := []string{""}
	named := false
	unnamed := 0
	inClass := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '\\':
			i++
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
			if strings.HasPrefix(src[i:], "[]") || strings.HasPrefix(src[i:], "[^]") {
				i = i + strings.IndexByte(src[i:], ']')
				inClass = false
			}
		case c == '(':
			if i+1 < len(src) && src[i+1] == '?' {
				if !strings.HasPrefix(src[i:], "(?<") || i+3 >= len(src) || src[i+3] == '=' || src[i+3] == '!' {
					continue
				}
				end := strings.IndexByte(src[i+3:], '>')
				if end < 0 {
					continue
				}
				name := src[i+3 : i+3+end]
				order = append(order, re.GroupNumberFromName(name))
				labels = append(labels, name)
				named = true
				continue
			}
			unnamed++
			order = append(order, unnamed)
			labels = append(labels, "")
		}
	}
	if named {
		names = labels
	}
	return order, names
}

// find runs one match at byte offset start and returns byte offsets of
// the match and its groups in source order, -1 for unmatched groups.
func (re *regexpData) find(s string, start int) ([]int, error) {
	runes, offs := runeTable(s)
	m, err := re.re.FindRunesMatchStartingAt(runes, runeIndex(s, start))
	if err != nil || m == nil {
		return nil, err
	}
	return re.offsets(m, offs), nil
}

// findAll returns every non-overlapping match of s, as find does.
func (re *regexpData) findAll(s string) ([][]int, error) {
	runes, offs := runeTable(s)
	m, err := re.re.FindRunesMatch(runes)
	var out [][]int
	for err == nil && m != nil {
		out = append(out, re.offsets(m, offs))
		m, err = re.re.FindNextMatch(m)
	}
	return out, err
}

func (re *regexpData) offsets(m *regexp2.Match, offs []int) []int {
	out := make([]int, 0, 2*(len(re.order)+1))
	out = append(out, offs[m.Index], offs[m.Index+m.Length])
	for _, num := range re.order {
		g := m.GroupByNumber(num)
		if g == nil || len(g.Captures) == 0 {
			out = append(out, -1, -1)
			continue
		}
		out = append(out, offs[g.Index], offs[g.Index+g.Length])
	}
	return out
}

// runeTable splits s into runes and maps each rune index, plus the end,
// to its byte offset.
func runeTable(s string) ([]rune, []int) {
	runes := make([]rune, 0, len(s))
	offs := make([]int, 0, len(s)+1)
	for i, r := range s {
		runes = append(runes, r)
		offs = append(offs, i)
	}
	return runes, append(offs, len(s))
}

func escapeSource(src string) string {
	if !strings.Contains(src, "/") {
		return src
	}
	var sb strings.Builder
	for i := 0; i < len(src); i++ {
		if src[i] == '\\' && i+1 < len(src) {
			sb.WriteString(src[i : i+2])
			i++
			continue
		}
		if src[i] == '/' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(src[i])
	}
	return sb.String()
}

// toRegExp returns v when it is a RegExp, else a new RegExp from its
// string form.
func (l *lib) toRegExp(v *runtime.Value, flags string) (*runtime.Value, error) {
	if regexpOf(v) != nil {
		return v, nil
	}
	pattern := runtime.EmptyStr
	if v.Type != runtime.TypeUndefined {
		s, err := toString(v)
		if err != nil {
			return nil, err
		}
		pattern = runtime.NewString(s)
	}
	return l.construct(l.realm.Constructors["RegExp"], []*runtime.Value{pattern, runtime.NewString(flags)})
}

func (l *lib) regexpExec(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	re := regexpOf(this)
	if re == nil {
		return nil, runtime.NewTypeError("RegExp.prototype.exec called on incompatible receiver %s", describe(this))
	}
	s, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	return l.regexpExecAt(this.Object, re, s)
}

func (l *lib) regexpTest(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	res, err := l.regexpExec(this, args)
	if err != nil {
		return nil, err
	}
	return runtime.NewBool(res.Type != runtime.TypeNull), nil
}

// regexpExecAt runs one match, honoring and updating lastIndex for
// global and sticky expressions.
func (l *lib) regexpExecAt(obj *runtime.Object, re *regexpData, s string) (*runtime.Value, error) {
	start := 0
	stateful := re.global || re.sticky
	if stateful {
		li, err := toInteger(obj.Get("lastIndex"))
		if err != nil {
			return nil, err
		}
		if li < 0 || int(li) > utf8.RuneCountInString(s) {
			return runtime.Null, obj.Put("lastIndex", runtime.Zero)
		}
		start = byteOffset(s, int(li))
	}
	m, err := re.find(s, start)
	if err != nil {
		return nil, err
	}
	if m == nil || (re.sticky && m[0] != start) {
		if stateful {
			return runtime.Null, obj.Put("lastIndex", runtime.Zero)
		}
		return runtime.Null, nil
	}
	if stateful {
		if err := obj.Put("lastIndex", runtime.NewInt(int64(runeIndex(s, m[1])))); err != nil {
			return nil, err
		}
	}
	return l.matchResult(re, s, m), nil
}

// matchResult builds the exec result array for match m.
func (l *lib) matchResult(re *regexpData, s string, m []int) *runtime.Value {
	arr := l.realm.NewArray(matchStrings(s, m))
	arr.Set("index", runtime.NewInt(int64(runeIndex(s, m[0]))))
	arr.Set("input", runtime.NewString(s))
	groups := l.namedGroups(s, m, re.names)
	if groups == nil {
		groups = runtime.Undefined
	}
	arr.Set("groups", groups)
	return runtime.NewObject(arr)
}

// namedGroups returns the groups object of a match, or nil when the
// pattern has no named groups.
func (l *lib) namedGroups(s string, m []int, names []string) *runtime.Value {
	if names == nil {
		return nil
	}
	groups := runtime.NewOrdinaryObject(nil)
	for i, name := range names {
		if name == "" || 2*i+1 >= len(m) {
			continue
		}
		v := runtime.Undefined
		if m[2*i] >= 0 {
			v = runtime.NewString(s[m[2*i]:m[2*i+1]])
		}
		groups.Set(name, v)
	}
	return runtime.NewObject(groups)
}

func (l *lib) regexpReplace(obj *runtime.Object, re *regexpData, s string, replacement *runtime.Value) (*runtime.Value, error) {
	var matches [][]int
	if re.global {
		all, err := re.findAll(s)
		if err != nil {
			return nil, err
		}
		matches = all
		if err := obj.Put("lastIndex", runtime.Zero); err != nil {
			return nil, err
		}
	} else {
		m, err := re.find(s, 0)
		if err != nil {
			return nil, err
		}
		if m != nil {
			matches = [][]int{m}
		}
	}
	return l.substitute(s, matches, re.names, replacement)
}

func (l *lib) regexpSplit(re *regexpData, s string, limit int) (*runtime.Value, error) {
	var out []*runtime.Value
	if s == "" {
		if ok, err := re.re.MatchString(s); err != nil || ok {
			return l.realm.ArrayValue(nil), err
		}
		return l.realm.ArrayValue([]*runtime.Value{runtime.EmptyStr}), nil
	}
	all, err := re.findAll(s)
	if err != nil {
		return nil, err
	}
	last := 0
	for _, m := range all {
		if m[0] == m[1] && (m[0] == 0 || m[0] >= len(s) || m[1] == last) {
			continue
		}
		out = append(out, runtime.NewString(s[last:m[0]]))
		out = append(out, matchStrings(s, m)[1:]...)
		last = m[1]
	}
	out = append(out, runtime.NewString(s[last:]))
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return l.realm.ArrayValue(out), nil
}

func regexpToString(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	if !this.IsObject() {
		return nil, runtime.NewTypeError("RegExp.prototype.toString requires that 'this' be an Object")
	}
	source, err := this.Object.GetValue("source")
	if err != nil {
		return nil, err
	}
	flags, err := this.Object.GetValue("flags")
	if err != nil {
		return nil, err
	}
	return runtime.NewString("/" + source.ToString() + "/" + flags.ToString()), nil
}
