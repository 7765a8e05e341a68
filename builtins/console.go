package builtins

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

func (l *lib) installConsole() {
	c := runtime.NewOrdinaryObject(l.realm.ObjectPrototype)
	for _, name := range []string{"log", "info", "debug", "warn", "error"} {
		name := name
		l.method(c, name, 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
			l.print(name, formatLog(args))
			return runtime.Undefined, nil
		})
	}
	l.method(c, "trace", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		l.print("trace", strings.TrimRight("Trace: "+formatLog(args), " "))
		return runtime.Undefined, nil
	})
	l.method(c, "dir", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		l.print("dir", Inspect(argAt(args, 0)))
		return runtime.Undefined, nil
	})
	l.method(c, "assert", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		if argAt(args, 0).ToBoolean() {
			return runtime.Undefined, nil
		}
		msg := "Assertion failed"
		if len(args) > 1 {
			msg += ": " + formatLog(args[1:])
		}
		l.print("assert", msg)
		return runtime.Undefined, nil
	})
	l.method(c, "count", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		label, err := consoleLabel(args)
		if err != nil {
			return nil, err
		}
		l.counts[label]++
		l.print("count", label+": "+strconv.Itoa(l.counts[label]))
		return runtime.Undefined, nil
	})
	l.method(c, "countReset", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		label, err := consoleLabel(args)
		if err != nil {
			return nil, err
		}
		delete(l.counts, label)
		return runtime.Undefined, nil
	})
	l.method(c, "time", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		label, err := consoleLabel(args)
		if err != nil {
			return nil, err
		}
		if _, ok := l.timeStarts[label]; ok {
			l.print("time", fmt.Sprintf("Warning: Label '%s' already exists for console.time()", label))
			return runtime.Undefined, nil
		}
		l.timeStarts[label] = time.Now()
		return runtime.Undefined, nil
	})
	timeReport := func(method string, end bool) runtime.CallableFunc {
		return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
			label, err := consoleLabel(args)
			if err != nil {
				return nil, err
			}
			start, ok := l.timeStarts[label]
			if !ok {
				l.print(method, fmt.Sprintf("Warning: No such label '%s' for console.%s()", label, method))
				return runtime.Undefined, nil
			}
			if end {
				delete(l.timeStarts, label)
			}
			ms := float64(time.Since(start).Microseconds()) / 1000
			line := label + ": " + strconv.FormatFloat(ms, 'f', 3, 64) + "ms"
			if !end && len(args) > 1 {
				line += " " + formatLog(args[1:])
			}
			l.print(method, line)
			return runtime.Undefined, nil
		}
	}
	l.method(c, "timeEnd", 0, timeReport("timeEnd", true))
	l.method(c, "timeLog", 0, timeReport("timeLog", false))
	group := func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		if len(args) > 0 {
			l.print("group", formatLog(args))
		}
		l.groupDepth++
		return runtime.Undefined, nil
	}
	l.method(c, "group", 0, group)
	l.method(c, "groupCollapsed", 0, group)
	l.method(c, "groupEnd", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		if l.groupDepth > 0 {
			l.groupDepth--
		}
		return runtime.Undefined, nil
	})
	l.global("console", runtime.NewObject(c))
}

func consoleLabel(args []*runtime.Value) (string, error) {
	if a := argAt(args, 0); a.Type != runtime.TypeUndefined {
		return toString(a)
	}
	return "default", nil
}

// print writes one console line, indented by the open groups, and
// mirrors it to the logger.
func (l *lib) print(method, line string) {
	if l.groupDepth > 0 {
		pad := strings.Repeat("  ", l.groupDepth)
		line = pad + strings.ReplaceAll(line, "\n", "\n"+pad)
	}
	fmt.Fprintln(l.console, line)
	l.log.WithField("console", method).Debug(line)
}

// formatLog joins console arguments, applying printf-style directives
// when the first argument is a string.
func formatLog(args []*runtime.Value) string {
	if len(args) == 0 {
		return ""
	}
	var parts []string
	rest := args
	if first := args[0]; first.Type == runtime.TypeString && strings.Contains(first.Str, "%") {
		var s string
		s, rest = formatDirectives(first.Str, args[1:])
		parts = append(parts, s)
	}
	for _, a := range rest {
		parts = append(parts, inspectTop(a))
	}
	return strings.Join(parts, " ")
}

// inspectTop renders a top-level console argument; strings print raw.
func inspectTop(v *runtime.Value) string {
	in := &inspector{}
	return in.value(v, 0, false)
}

func formatDirectives(format string, args []*runtime.Value) (string, []*runtime.Value) {
	var sb strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			sb.WriteByte(c)
			continue
		}
		d := format[i+1]
		if d == '%' {
			sb.WriteByte('%')
			i++
			continue
		}
		if !strings.ContainsRune("sdifjoOc", rune(d)) {
			sb.WriteByte(c)
			continue
		}
		i++
		if d == 'c' {
			if len(args) > 0 {
				args = args[1:]
			}
			continue
		}
		if len(args) == 0 {
			sb.WriteByte('%')
			sb.WriteByte(d)
			continue
		}
		a := args[0]
		args = args[1:]
		switch d {
		case 's':
			if a.Type == runtime.TypeString {
				sb.WriteString(a.Str)
			} else {
				sb.WriteString(Inspect(a))
			}
		case 'd', 'i':
			if a.IsObject() {
				sb.WriteString("NaN")
				break
			}
			n := a.ToNumber()
			if d == 'i' {
				n = math.Trunc(n)
			}
			sb.WriteString(runtime.FormatNumber(n))
		case 'f':
			sb.WriteString(runtime.FormatNumber(a.ToNumber()))
		case 'j':
			sb.WriteString(jsonLine(a))
		default:
			sb.WriteString(Inspect(a))
		}
	}
	return sb.String(), args
}

// jsonLine is %j: compact JSON without running user hooks.
func jsonLine(v *runtime.Value) string {
	switch v.Type {
	case runtime.TypeString:
		return quoteJSON(v.Str)
	case runtime.TypeObject:
		return Inspect(v)
	}
	return v.ToString()
}
