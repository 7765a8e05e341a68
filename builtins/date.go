package builtins

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

// maxTime is the largest magnitude a time value may hold.
const maxTime = 8.64e15

// Field positions shared by the constructor, Date.UTC and the setters.
const (
	fieldYear = iota
	fieldMonth
	fieldDate
	fieldHours
	fieldMinutes
	fieldSeconds
	fieldMillis
)

// Date runs on the virtual clock and in UTC so scripts see the same
// times on every host.
func (l *lib) installDate() {
	proto := l.realm.NewObject()

	ctor := l.constructor("Date", 7, proto, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return runtime.NewString(formatDate(toTime(l.now()))), nil
	}, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		tv, err := l.dateArgs(args)
		if err != nil {
			return nil, err
		}
		this.Object.SetInternal("date", tv)
		return this, nil
	})
	l.method(ctor, "now", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return runtime.NewNumber(l.now()), nil
	})
	l.method(ctor, "parse", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		s, err := toString(argAt(args, 0))
		if err != nil {
			return nil, err
		}
		return runtime.NewNumber(parseDate(s)), nil
	})
	l.method(ctor, "UTC", 7, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		fields := [7]float64{math.NaN(), 0, 1, 0, 0, 0, 0}
		if err := readFields(fields[:], 0, args); err != nil {
			return nil, err
		}
		return runtime.NewNumber(makeTime(fields, true)), nil
	})

	getters := []struct {
		name string
		get  func(t time.Time) int
	}{
		{"FullYear", func(t time.Time) int { return t.Year() }},
		{"Month", func(t time.Time) int { return int(t.Month()) - 1 }},
		{"Date", func(t time.Time) int { return t.Day() }},
		{"Day", func(t time.Time) int { return int(t.Weekday()) }},
		{"Hours", func(t time.Time) int { return t.Hour() }},
		{"Minutes", func(t time.Time) int { return t.Minute() }},
		{"Seconds", func(t time.Time) int { return t.Second() }},
		{"Milliseconds", func(t time.Time) int { return t.Nanosecond() / 1e6 }},
	}
	for _, g := range getters {
		g := g
		f := func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
			tv, err := thisTime(this)
			if err != nil {
				return nil, err
			}
			if math.IsNaN(tv) {
				return runtime.NaN, nil
			}
			return runtime.NewInt(int64(g.get(toTime(tv)))), nil
		}
		l.method(proto, "get"+g.name, 0, f)
		l.method(proto, "getUTC"+g.name, 0, f)
	}
	l.method(proto, "getYear", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		tv, err := thisTime(this)
		if err != nil || math.IsNaN(tv) {
			return runtime.NaN, err
		}
		return runtime.NewInt(int64(toTime(tv).Year() - 1900)), nil
	})
	timeValue := func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		tv, err := thisTime(this)
		if err != nil {
			return nil, err
		}
		return runtime.NewNumber(tv), nil
	}
	l.method(proto, "getTime", 0, timeValue)
	l.method(proto, "valueOf", 0, timeValue)
	l.method(proto, "getTimezoneOffset", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		tv, err := thisTime(this)
		if err != nil || math.IsNaN(tv) {
			return runtime.NaN, err
		}
		return runtime.Zero, nil
	})

	l.method(proto, "setTime", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		if _, err := thisTime(this); err != nil {
			return nil, err
		}
		n, err := toNumber(argAt(args, 0))
		if err != nil {
			return nil, err
		}
		tv := timeClip(n)
		this.Object.SetInternal("date", tv)
		return runtime.NewNumber(tv), nil
	})
	setters := []struct {
		name  string
		first int
		count int
	}{
		{"FullYear", fieldYear, 3},
		{"Month", fieldMonth, 2},
		{"Date", fieldDate, 1},
		{"Hours", fieldHours, 4},
		{"Minutes", fieldMinutes, 3},
		{"Seconds", fieldSeconds, 2},
		{"Milliseconds", fieldMillis, 1},
	}
	for _, s := range setters {
		f := dateSetter(s.first, s.count)
		l.method(proto, "set"+s.name, s.count, f)
		l.method(proto, "setUTC"+s.name, s.count, f)
	}
	l.method(proto, "setYear", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		tv, err := thisTime(this)
		if err != nil {
			return nil, err
		}
		y, err := toNumber(argAt(args, 0))
		if err != nil {
			return nil, err
		}
		if math.IsNaN(y) {
			this.Object.SetInternal("date", math.NaN())
			return runtime.NaN, nil
		}
		if math.IsNaN(tv) {
			tv = 0
		}
		fields := splitTime(tv)
		fields[fieldYear] = y
		tv = makeTime(fields, true)
		this.Object.SetInternal("date", tv)
		return runtime.NewNumber(tv), nil
	})

	formats := []struct {
		name   string
		format func(t time.Time) string
	}{
		{"toString", formatDate},
		{"toDateString", func(t time.Time) string { return t.Format("Mon Jan 02 ") + formatYear(t) }},
		{"toTimeString", func(t time.Time) string { return t.Format("15:04:05") + utcZone }},
		{"toUTCString", func(t time.Time) string { return t.Format("Mon, 02 Jan ") + formatYear(t) + t.Format(" 15:04:05 GMT") }},
		{"toLocaleString", func(t time.Time) string { return t.Format("1/2/2006, 3:04:05 PM") }},
		{"toLocaleDateString", func(t time.Time) string { return t.Format("1/2/2006") }},
		{"toLocaleTimeString", func(t time.Time) string { return t.Format("3:04:05 PM") }},
	}
	for _, f := range formats {
		f := f
		l.method(proto, f.name, 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
			tv, err := thisTime(this)
			if err != nil {
				return nil, err
			}
			if math.IsNaN(tv) {
				return runtime.NewString("Invalid Date"), nil
			}
			return runtime.NewString(f.format(toTime(tv))), nil
		})
	}
	setDataProp(proto, "toGMTString", proto.Get("toUTCString"), true, false, true)
	l.method(proto, "toISOString", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		tv, err := thisTime(this)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(tv) {
			return nil, runtime.NewRangeError("Invalid time value")
		}
		return runtime.NewString(isoString(tv)), nil
	})
	l.method(proto, "toJSON", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		prim, err := runtime.ToPrimitive(this, "number")
		if err != nil {
			return nil, err
		}
		if prim.IsNumber() {
			if n := prim.ToNumber(); math.IsNaN(n) || math.IsInf(n, 0) {
				return runtime.Null, nil
			}
		}
		iso, err := l.realm.Get(this, "toISOString")
		if err != nil {
			return nil, err
		}
		if !iso.IsCallable() {
			return nil, runtime.NewTypeError("toISOString is not a function")
		}
		return runtime.Call(iso, this, nil)
	})
	// "default" converts like "string", unlike every other object.
	l.symbolMethod(proto, runtime.SymbolToPrimitive, "[Symbol.toPrimitive]", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		if !this.IsObject() {
			return nil, runtime.NewTypeError("Date.prototype[Symbol.toPrimitive] called on non-object")
		}
		order := []string{"toString", "valueOf"}
		switch hint := argAt(args, 0); {
		case hint.Type == runtime.TypeString && hint.Str == "number":
			order = []string{"valueOf", "toString"}
		case hint.Type == runtime.TypeString && (hint.Str == "string" || hint.Str == "default"):
		default:
			return nil, runtime.NewTypeError("Invalid hint: %s", hint.ToString())
		}
		for _, name := range order {
			m, err := this.Object.GetValue(name)
			if err != nil {
				return nil, err
			}
			if !m.IsCallable() {
				continue
			}
			res, err := runtime.Call(m, this, nil)
			if err != nil {
				return nil, err
			}
			if !res.IsObject() {
				return res, nil
			}
		}
		return nil, runtime.NewTypeError("Cannot convert object to primitive value")
	})
}

const utcZone = " GMT+0000 (Coordinated Universal Time)"

// now reads the scheduler clock, or zero when no timer host is wired.
func (l *lib) now() float64 {
	if l.timers == nil {
		return 0
	}
	return float64(l.timers.Now())
}

// dateArgs computes the time value for new Date(...args).
func (l *lib) dateArgs(args []*runtime.Value) (float64, error) {
	switch len(args) {
	case 0:
		return l.now(), nil
	case 1:
		if tv, ok := dateOf(args[0]); ok {
			return tv, nil
		}
		prim, err := runtime.ToPrimitive(args[0], "default")
		if err != nil {
			return 0, err
		}
		if prim.Type == runtime.TypeString {
			return parseDate(prim.Str), nil
		}
		n, err := toNumber(prim)
		if err != nil {
			return 0, err
		}
		return timeClip(n), nil
	}
	fields := [7]float64{0, 0, 1, 0, 0, 0, 0}
	if err := readFields(fields[:], 0, args); err != nil {
		return 0, err
	}
	return makeTime(fields, true), nil
}

// dateSetter builds a setter that replaces count fields starting at first.
// Only setFullYear revives an invalid date, from time zero.
func dateSetter(first, count int) runtime.CallableFunc {
	return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		tv, err := thisTime(this)
		if err != nil {
			return nil, err
		}
		if len(args) > count {
			args = args[:count]
		}
		if len(args) == 0 {
			args = []*runtime.Value{runtime.Undefined}
		}
		if math.IsNaN(tv) && first == fieldYear {
			tv = 0
		}
		fields := splitTime(tv)
		if err := readFields(fields[:], first, args); err != nil {
			return nil, err
		}
		if math.IsNaN(tv) {
			return runtime.NaN, nil
		}
		tv = makeTime(fields, false)
		this.Object.SetInternal("date", tv)
		return runtime.NewNumber(tv), nil
	}
}

// readFields coerces args into fields starting at first.
func readFields(fields []float64, first int, args []*runtime.Value) error {
	for i, a := range args {
		if first+i >= len(fields) {
			break
		}
		n, err := toNumber(a)
		if err != nil {
			return err
		}
		fields[first+i] = n
	}
	return nil
}

func dateOf(v *runtime.Value) (float64, bool) {
	if !v.IsObject() {
		return 0, false
	}
	tv, ok := v.Object.Internal["date"].(float64)
	return tv, ok
}

func thisTime(this *runtime.Value) (float64, error) {
	tv, ok := dateOf(this)
	if !ok {
		return 0, runtime.NewTypeError("this is not a Date object.")
	}
	return tv, nil
}

func timeClip(n float64) float64 {
	if math.IsNaN(n) || math.IsInf(n, 0) || math.Abs(n) > maxTime {
		return math.NaN()
	}
	return math.Trunc(n) + 0
}

func toTime(tv float64) time.Time {
	return time.UnixMilli(int64(tv)).UTC()
}

func splitTime(tv float64) [7]float64 {
	if math.IsNaN(tv) {
		return [7]float64{math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()}
	}
	t := toTime(tv)
	return [7]float64{
		float64(t.Year()), float64(t.Month() - 1), float64(t.Day()),
		float64(t.Hour()), float64(t.Minute()), float64(t.Second()), float64(t.Nanosecond() / 1e6),
	}
}

// makeTime folds calendar fields into a clipped time value. Out-of-range
// fields carry into the next larger unit. twoDigitYear maps 0..99 onto
// 1900..1999 the way the constructor and Date.UTC do.
func makeTime(fields [7]float64, twoDigitYear bool) float64 {
	var n [7]int64
	for i, f := range fields {
		if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > 1e12 {
			return math.NaN()
		}
		n[i] = int64(math.Trunc(f))
	}
	if twoDigitYear && n[fieldYear] >= 0 && n[fieldYear] <= 99 {
		n[fieldYear] += 1900
	}
	day := time.Date(int(n[fieldYear]), time.Month(n[fieldMonth]+1), 1, 0, 0, 0, 0, time.UTC)
	ms := float64(day.UnixMilli()) +
		float64(n[fieldDate]-1)*864e5 +
		float64(n[fieldHours])*36e5 +
		float64(n[fieldMinutes])*6e4 +
		float64(n[fieldSeconds])*1e3 +
		float64(n[fieldMillis])
	return timeClip(ms)
}

func formatYear(t time.Time) string {
	y := t.Year()
	if y < 0 {
		return fmt.Sprintf("-%06d", -y)
	}
	return fmt.Sprintf("%04d", y)
}

func isoString(tv float64) string {
	t := toTime(tv)
	y := t.Year()
	year := fmt.Sprintf("%04d", y)
	if y < 0 || y > 9999 {
		year = fmt.Sprintf("%+07d", y)
	}
	return year + t.Format("-01-02T15:04:05.000Z")
}

func formatDate(t time.Time) string {
	return t.Format("Mon Jan 02 ") + formatYear(t) + t.Format(" 15:04:05") + utcZone
}

// dateLayouts are tried in order by Date.parse. Forms without an offset
// read as UTC.
var dateLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006-01",
	"2006",
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"Mon Jan 02 2006",
	"Mon, 02 Jan 2006 15:04:05 GMT",
	"Mon, 02 Jan 2006 15:04:05 MST",
	"January 2, 2006 15:04:05",
	"January 2, 2006",
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006",
	"1/2/2006, 3:04:05 PM",
	"1/2/2006",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// parseDate returns the time value of s or NaN.
func parseDate(s string) float64 {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, " ("); i > 0 && strings.HasSuffix(s, ")") {
		s = s[:i]
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return timeClip(float64(t.UnixMilli()))
		}
	}
	return math.NaN()
}
