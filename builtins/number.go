package builtins

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

const maxSafeInteger = 1<<53 - 1

func (l *lib) installNumber() {
	proto := l.realm.NumberPrototype
	proto.OType = runtime.ObjTypeNumber
	proto.SetInternal("primitive", runtime.Zero)

	l.method(proto, "toString", 1, numberToString)
	l.method(proto, "toLocaleString", 0, numberToLocaleString)
	l.method(proto, "toFixed", 1, numberToFixed)
	l.method(proto, "toPrecision", 1, numberToPrecision)
	l.method(proto, "toExponential", 1, numberToExponential)
	l.method(proto, "valueOf", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		n, err := thisNumber(this, "valueOf")
		if err != nil {
			return nil, err
		}
		return runtime.NewNumber(n), nil
	})

	ctor := l.constructor("Number", 1, proto, numberCall, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		v, err := numberCall(runtime.Undefined, args)
		if err != nil {
			return nil, err
		}
		this.Object.OType = runtime.ObjTypeNumber
		this.Object.SetInternal("primitive", v)
		return this, nil
	})
	l.method(ctor, "isInteger", 1, numberPredicate(func(f float64) bool { return f == math.Trunc(f) }))
	l.method(ctor, "isSafeInteger", 1, numberPredicate(func(f float64) bool {
		return f == math.Trunc(f) && math.Abs(f) <= maxSafeInteger
	}))
	l.method(ctor, "isFinite", 1, numberPredicate(func(float64) bool { return true }))
	l.method(ctor, "isNaN", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		a := argAt(args, 0)
		return runtime.NewBool(a.IsNumber() && math.IsNaN(a.ToNumber())), nil
	})
	l.method(ctor, "parseInt", 2, parseIntFunc)
	l.method(ctor, "parseFloat", 1, parseFloatFunc)

	setConstant(ctor, "EPSILON", runtime.NewFloat(math.Nextafter(1, 2)-1))
	setConstant(ctor, "MAX_SAFE_INTEGER", runtime.NewInt(maxSafeInteger))
	setConstant(ctor, "MIN_SAFE_INTEGER", runtime.NewInt(-maxSafeInteger))
	setConstant(ctor, "MAX_VALUE", runtime.NewFloat(math.MaxFloat64))
	setConstant(ctor, "MIN_VALUE", runtime.NewFloat(math.SmallestNonzeroFloat64))
	setConstant(ctor, "NaN", runtime.NaN)
	setConstant(ctor, "POSITIVE_INFINITY", runtime.PosInf)
	setConstant(ctor, "NEGATIVE_INFINITY", runtime.NegInf)
}

func numberCall(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	if len(args) == 0 {
		return runtime.Zero, nil
	}
	v, err := runtime.ToNumeric(args[0])
	if err != nil {
		return nil, err
	}
	if v.Type == runtime.TypeBigInt {
		f, _ := new(big.Float).SetInt(v.BigInt).Float64()
		return runtime.NewNumber(f), nil
	}
	return v, nil
}

// numberPredicate builds a Number.isX static; non-numbers and
// non-finite values are rejected before ok runs.
func numberPredicate(ok func(float64) bool) runtime.CallableFunc {
	return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		a := argAt(args, 0)
		if !a.IsNumber() {
			return runtime.False, nil
		}
		f := a.ToNumber()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return runtime.False, nil
		}
		return runtime.NewBool(ok(f)), nil
	}
}

func thisNumber(this *runtime.Value, method string) (float64, error) {
	if this.IsNumber() {
		return this.ToNumber(), nil
	}
	if this.IsObject() && this.Object.OType == runtime.ObjTypeNumber {
		if p, ok := this.Object.Internal["primitive"].(*runtime.Value); ok {
			return p.ToNumber(), nil
		}
	}
	return 0, runtime.NewTypeError("Number.prototype.%s requires that 'this' be a Number", method)
}

// digitsArg reads an optional digit count, checking it against [lo, hi].
func digitsArg(args []*runtime.Value, lo, hi int, method string) (int, bool, error) {
	a := argAt(args, 0)
	if a.Type == runtime.TypeUndefined {
		return 0, false, nil
	}
	n, err := toInteger(a)
	if err != nil {
		return 0, false, err
	}
	if n < float64(lo) || n > float64(hi) {
		return 0, false, runtime.NewRangeError("%s() argument must be between %d and %d", method, lo, hi)
	}
	return int(n), true, nil
}

func nonFinite(f float64) (string, bool) {
	switch {
	case math.IsNaN(f):
		return "NaN", true
	case math.IsInf(f, 1):
		return "Infinity", true
	case math.IsInf(f, -1):
		return "-Infinity", true
	}
	return "", false
}

func numberToString(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	f, err := thisNumber(this, "toString")
	if err != nil {
		return nil, err
	}
	radix := 10
	if r := argAt(args, 0); r.Type != runtime.TypeUndefined {
		n, err := toInteger(r)
		if err != nil {
			return nil, err
		}
		if n < 2 || n > 36 {
			return nil, runtime.NewRangeError("toString() radix must be between 2 and 36")
		}
		radix = int(n)
	}
	if radix == 10 {
		return runtime.NewString(runtime.FormatNumber(f)), nil
	}
	if s, ok := nonFinite(f); ok {
		return runtime.NewString(s), nil
	}
	return runtime.NewString(formatRadix(f, radix)), nil
}

// formatRadix renders f in a non-decimal radix, emitting at most 52
// fractional digits.
func formatRadix(f float64, radix int) string {
	neg := f < 0
	f = math.Abs(f)
	whole := math.Floor(f)
	frac := f - whole
	bi, _ := new(big.Float).SetFloat64(whole).Int(nil)
	s := bi.Text(radix)
	if frac > 0 {
		var sb strings.Builder
		for i := 0; i < 52 && frac > 0; i++ {
			frac *= float64(radix)
			d := int(frac)
			sb.WriteByte("0123456789abcdefghijklmnopqrstuvwxyz"[d])
			frac -= float64(d)
		}
		s += "." + sb.String()
	}
	if neg {
		s = "-" + s
	}
	return s
}

func numberToLocaleString(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	f, err := thisNumber(this, "toLocaleString")
	if err != nil {
		return nil, err
	}
	if s, ok := nonFinite(f); ok {
		return runtime.NewString(s), nil
	}
	s := toFixed(math.Abs(f), 3)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	intPart, fracPart, _ := strings.Cut(s, ".")
	var sb strings.Builder
	if f < 0 {
		sb.WriteByte('-')
	}
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(c)
	}
	if fracPart != "" {
		sb.WriteString("." + fracPart)
	}
	return runtime.NewString(sb.String()), nil
}

// exactDigits returns the decimal digits of x > 0 and the exponent e
// such that x = 0.digits * 10^e. The digits are exact.
func exactDigits(x float64) (string, int) {
	s := strconv.FormatFloat(x, 'e', 767, 64)
	mant, expStr, _ := strings.Cut(s, "e")
	exp, _ := strconv.Atoi(expStr)
	digits := strings.TrimRight(strings.Replace(mant, ".", "", 1), "0")
	if digits == "" {
		digits = "0"
	}
	return digits, exp + 1
}

// roundDigits keeps the first n digits, rounding half up. A carry out of
// the leading digit yields n+1 digits.
func roundDigits(digits string, n int) string {
	if n >= len(digits) {
		return digits + strings.Repeat("0", n-len(digits))
	}
	head := []byte(digits[:n])
	if digits[n] < '5' {
		return string(head)
	}
	for i := n - 1; i >= 0; i-- {
		if head[i] < '9' {
			head[i]++
			return string(head)
		}
		head[i] = '0'
	}
	return "1" + string(head)
}

// toFixed formats x >= 0 with f fractional digits.
func toFixed(x float64, f int) string {
	var m string
	if x > 0 {
		digits, exp := exactDigits(x)
		if keep := exp + f; keep >= 0 {
			m = roundDigits(digits, keep)
		}
	}
	m = strings.TrimLeft(m, "0")
	if len(m) < f+1 {
		m = strings.Repeat("0", f+1-len(m)) + m
	}
	if f == 0 {
		return m
	}
	return m[:len(m)-f] + "." + m[len(m)-f:]
}

func numberToFixed(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	x, err := thisNumber(this, "toFixed")
	if err != nil {
		return nil, err
	}
	f, _, err := digitsArg(args, 0, 100, "toFixed")
	if err != nil {
		return nil, err
	}
	if s, ok := nonFinite(x); ok {
		return runtime.NewString(s), nil
	}
	if math.Abs(x) >= 1e21 {
		return runtime.NewString(runtime.FormatNumber(x)), nil
	}
	s := toFixed(math.Abs(x), f)
	if x < 0 && strings.Trim(s, "0.") != "" {
		s = "-" + s
	}
	return runtime.NewString(s), nil
}

func exponentSuffix(e int) string {
	if e < 0 {
		return "e-" + strconv.Itoa(-e)
	}
	return "e+" + strconv.Itoa(e)
}

func numberToPrecision(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	x, err := thisNumber(this, "toPrecision")
	if err != nil {
		return nil, err
	}
	p, given, err := digitsArg(args, 1, 100, "toPrecision")
	if err != nil {
		return nil, err
	}
	if !given {
		return runtime.NewString(runtime.FormatNumber(x)), nil
	}
	if s, ok := nonFinite(x); ok {
		return runtime.NewString(s), nil
	}
	sign := ""
	if x < 0 {
		sign, x = "-", -x
	}
	var r string
	e := 0
	if x == 0 {
		r = strings.Repeat("0", p)
	} else {
		digits, exp := exactDigits(x)
		r = roundDigits(digits, p)
		if len(r) > p {
			r = r[:p]
			exp++
		}
		e = exp - 1
	}
	switch {
	case e < -6 || e >= p:
		s := r[:1]
		if p > 1 {
			s += "." + r[1:]
		}
		return runtime.NewString(sign + s + exponentSuffix(e)), nil
	case e >= 0:
		s := r[:e+1]
		if p > e+1 {
			s += "." + r[e+1:]
		}
		return runtime.NewString(sign + s), nil
	default:
		return runtime.NewString(sign + "0." + strings.Repeat("0", -e-1) + r), nil
	}
}

func numberToExponential(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	x, err := thisNumber(this, "toExponential")
	if err != nil {
		return nil, err
	}
	f, given, err := digitsArg(args, 0, 100, "toExponential")
	if err != nil {
		return nil, err
	}
	if s, ok := nonFinite(x); ok {
		return runtime.NewString(s), nil
	}
	sign := ""
	if x < 0 {
		sign, x = "-", -x
	}
	var r string
	e := 0
	switch {
	case x == 0:
		r = strings.Repeat("0", f+1)
	case !given:
		s := strconv.FormatFloat(x, 'e', -1, 64)
		mant, expStr, _ := strings.Cut(s, "e")
		e, _ = strconv.Atoi(expStr)
		r = strings.Replace(mant, ".", "", 1)
		f = len(r) - 1
	default:
		digits, exp := exactDigits(x)
		r = roundDigits(digits, f+1)
		if len(r) > f+1 {
			r = r[:f+1]
			exp++
		}
		e = exp - 1
	}
	s := r[:1]
	if f > 0 {
		s += "." + r[1:]
	}
	return runtime.NewString(sign + s + exponentSuffix(e)), nil
}

func isDigitIn(c byte, radix int) (int, bool) {
	var d int
	switch {
	case c >= '0' && c <= '9':
		d = int(c - '0')
	case c >= 'a' && c <= 'z':
		d = int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		d = int(c-'A') + 10
	default:
		return 0, false
	}
	return d, d < radix
}

func parseIntFunc(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	str, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	s := strings.TrimLeftFunc(str, isJSSpace)
	r, err := toNumber(argAt(args, 1))
	if err != nil {
		return nil, err
	}
	radix := int(runtime.ToInt32(r))
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	stripPrefix := true
	if radix != 0 {
		if radix < 2 || radix > 36 {
			return runtime.NaN, nil
		}
		stripPrefix = radix == 16
	} else {
		radix = 10
	}
	if stripPrefix && len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
		radix = 16
	}
	end := 0
	for end < len(s) {
		if _, ok := isDigitIn(s[end], radix); !ok {
			break
		}
		end++
	}
	if end == 0 {
		return runtime.NaN, nil
	}
	n, ok := new(big.Int).SetString(s[:end], radix)
	if !ok {
		return runtime.NaN, nil
	}
	if neg {
		n.Neg(n)
	}
	if n.IsInt64() && n.Int64() != 0 {
		return runtime.NewNumber(float64(n.Int64())), nil
	}
	f, _ := new(big.Float).SetInt(n).Float64()
	if neg && f == 0 {
		return runtime.NewFloat(math.Copysign(0, -1)), nil
	}
	return runtime.NewNumber(f), nil
}

func parseFloatFunc(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	str, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	s := strings.TrimLeftFunc(str, isJSSpace)
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		if s[0] == '-' {
			return runtime.NegInf, nil
		}
		return runtime.PosInf, nil
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return runtime.NaN, nil
	}
	end := i
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && s[k] >= '0' && s[k] <= '9' {
			k++
		}
		if k > j {
			end = k
		}
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); !ok || ne.Err != strconv.ErrRange {
			return runtime.NaN, nil
		}
	}
	return runtime.NewNumber(f), nil
}

func (l *lib) installBigInt() {
	proto := l.realm.BigIntPrototype
	l.method(proto, "toString", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		b, err := thisBigInt(this, "toString")
		if err != nil {
			return nil, err
		}
		radix := 10
		if r := argAt(args, 0); r.Type != runtime.TypeUndefined {
			n, err := toInteger(r)
			if err != nil {
				return nil, err
			}
			if n < 2 || n > 36 {
				return nil, runtime.NewRangeError("toString() radix must be between 2 and 36")
			}
			radix = int(n)
		}
		return runtime.NewString(b.Text(radix)), nil
	})
	l.method(proto, "toLocaleString", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		b, err := thisBigInt(this, "toLocaleString")
		if err != nil {
			return nil, err
		}
		return runtime.NewString(b.String()), nil
	})
	l.method(proto, "valueOf", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		b, err := thisBigInt(this, "valueOf")
		if err != nil {
			return nil, err
		}
		return runtime.NewBigInt(b), nil
	})
	setToStringTag(proto, "BigInt")

	ctor := l.constructor("BigInt", 1, proto, bigIntCall, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return nil, runtime.NewTypeError("BigInt is not a constructor")
	})
	l.method(ctor, "asIntN", 2, bigIntAsN(true))
	l.method(ctor, "asUintN", 2, bigIntAsN(false))
}

func thisBigInt(this *runtime.Value, method string) (*big.Int, error) {
	if this.Type == runtime.TypeBigInt {
		return this.BigInt, nil
	}
	if this.IsObject() {
		if p, ok := this.Object.Internal["primitive"].(*runtime.Value); ok && p.Type == runtime.TypeBigInt {
			return p.BigInt, nil
		}
	}
	return nil, runtime.NewTypeError("BigInt.prototype.%s requires that 'this' be a BigInt", method)
}

func bigIntCall(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	v, err := runtime.ToPrimitive(argAt(args, 0), "number")
	if err != nil {
		return nil, err
	}
	switch v.Type {
	case runtime.TypeNumber, runtime.TypeFloat:
		b, err := runtime.BigIntFromNumber(v)
		if err != nil {
			return nil, err
		}
		return runtime.NewBigInt(b), nil
	}
	return toBigInt(v)
}

// toBigInt converts a non-number primitive as BigInt() does.
func toBigInt(v *runtime.Value) (*runtime.Value, error) {
	switch v.Type {
	case runtime.TypeBigInt:
		return v, nil
	case runtime.TypeBoolean:
		if v.Bool {
			return runtime.NewBigInt(big.NewInt(1)), nil
		}
		return runtime.NewBigInt(new(big.Int)), nil
	case runtime.TypeString:
		b, ok := runtime.StringToBigInt(v.Str)
		if !ok {
			return nil, runtime.NewSyntaxError("Cannot convert %s to a BigInt", v.Str)
		}
		return runtime.NewBigInt(b), nil
	}
	return nil, runtime.NewTypeError("Cannot convert %s to a BigInt", v.ToString())
}

func bigIntAsN(signed bool) runtime.CallableFunc {
	return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		bits, err := toInteger(argAt(args, 0))
		if err != nil {
			return nil, err
		}
		if bits < 0 || bits > 1<<20 {
			return nil, runtime.NewRangeError("Invalid value: not (convertible to) a safe integer")
		}
		prim, err := runtime.ToPrimitive(argAt(args, 1), "number")
		if err != nil {
			return nil, err
		}
		v, err := toBigInt(prim)
		if err != nil {
			return nil, err
		}
		n := uint(bits)
		mod := new(big.Int).Lsh(big.NewInt(1), n)
		res := new(big.Int).Mod(v.BigInt, mod)
		if signed && n > 0 && res.Bit(int(n-1)) == 1 {
			res.Sub(res, mod)
		}
		return runtime.NewBigInt(res), nil
	}
}
