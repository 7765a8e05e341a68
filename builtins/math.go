package builtins

import (
	"math"
	"math/bits"

	"github.com/finitefield-org/browser-tester-sub000/runtime"
)

var mathUnary = map[string]func(float64) float64{
	"abs":   math.Abs,
	"ceil":  math.Ceil,
	"floor": math.Floor,
	"trunc": math.Trunc,
	"round": jsRound,
	"sign":  jsSign,
	"sqrt":  math.Sqrt,
	"cbrt":  math.Cbrt,
	"log":   math.Log,
	"log2":  math.Log2,
	"log10": math.Log10,
	"log1p": math.Log1p,
	"exp":   math.Exp,
	"expm1": math.Expm1,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"asin":  math.Asin,
	"acos":  math.Acos,
	"atan":  math.Atan,
	"sinh":  math.Sinh,
	"cosh":  math.Cosh,
	"tanh":  math.Tanh,
	"asinh": math.Asinh,
	"acosh": math.Acosh,
	"atanh": math.Atanh,
	"fround": func(f float64) float64 {
		return float64(float32(f))
	},
}

func (l *lib) installMath() {
	m := runtime.NewOrdinaryObject(l.realm.ObjectPrototype)

	setConstant(m, "PI", runtime.NewFloat(math.Pi))
	setConstant(m, "E", runtime.NewFloat(math.E))
	setConstant(m, "LN2", runtime.NewFloat(math.Ln2))
	setConstant(m, "LN10", runtime.NewFloat(math.Ln10))
	setConstant(m, "LOG2E", runtime.NewFloat(math.Log2E))
	setConstant(m, "LOG10E", runtime.NewFloat(math.Log10E))
	setConstant(m, "SQRT2", runtime.NewFloat(math.Sqrt2))
	setConstant(m, "SQRT1_2", runtime.NewFloat(math.Sqrt2/2))

	for name, f := range mathUnary {
		f := f
		l.method(m, name, 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
			n, err := toNumber(argAt(args, 0))
			if err != nil {
				return nil, err
			}
			return runtime.NewNumber(f(n)), nil
		})
	}
	l.method(m, "max", 2, mathExtreme(math.Inf(-1), func(a, b float64) bool {
		return a > b || (a == 0 && b == 0 && !math.Signbit(a))
	}))
	l.method(m, "min", 2, mathExtreme(math.Inf(1), func(a, b float64) bool {
		return a < b || (a == 0 && b == 0 && math.Signbit(a))
	}))
	l.method(m, "pow", 2, mathBinary(jsPow))
	l.method(m, "atan2", 2, mathBinary(math.Atan2))
	l.method(m, "imul", 2, mathBinary(func(a, b float64) float64 {
		return float64(runtime.ToInt32(a) * runtime.ToInt32(b))
	}))
	l.method(m, "clz32", 1, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		n, err := toNumber(argAt(args, 0))
		if err != nil {
			return nil, err
		}
		return runtime.NewInt(int64(bits.LeadingZeros32(runtime.ToUint32(n)))), nil
	})
	l.method(m, "hypot", 2, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		nums, err := numberArgs(args)
		if err != nil {
			return nil, err
		}
		sum, nan := 0.0, false
		for _, n := range nums {
			if math.IsInf(n, 0) {
				return runtime.PosInf, nil
			}
			nan = nan || math.IsNaN(n)
			sum += n * n
		}
		if nan {
			return runtime.NaN, nil
		}
		return runtime.NewNumber(math.Sqrt(sum)), nil
	})
	l.method(m, "random", 0, func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		return runtime.NewFloat(l.rand.Float64()), nil
	})
	setToStringTag(m, "Math")
	l.global("Math", runtime.NewObject(m))
}

// numberArgs converts every argument before any result is computed.
func numberArgs(args []*runtime.Value) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		n, err := toNumber(a)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func mathExtreme(start float64, better func(a, b float64) bool) runtime.CallableFunc {
	return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		nums, err := numberArgs(args)
		if err != nil {
			return nil, err
		}
		best := start
		for _, n := range nums {
			if math.IsNaN(n) {
				return runtime.NaN, nil
			}
			if better(n, best) {
				best = n
			}
		}
		return runtime.NewNumber(best), nil
	}
}

func mathBinary(f func(a, b float64) float64) runtime.CallableFunc {
	return func(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		a, err := toNumber(argAt(args, 0))
		if err != nil {
			return nil, err
		}
		b, err := toNumber(argAt(args, 1))
		if err != nil {
			return nil, err
		}
		return runtime.NewNumber(f(a, b)), nil
	}
}

// jsRound rounds half toward positive infinity, keeping -0.
func jsRound(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	r := math.Floor(x)
	if x-r >= 0.5 {
		r++
	}
	if r == 0 && math.Signbit(x) {
		return math.Copysign(0, -1)
	}
	return r
}

func jsSign(x float64) float64 {
	switch {
	case math.IsNaN(x) || x == 0:
		return x
	case x > 0:
		return 1
	}
	return -1
}

// jsPow differs from math.Pow where the base magnitude is 1 and the
// exponent is not finite.
func jsPow(a, b float64) float64 {
	if math.IsNaN(b) || (math.Abs(a) == 1 && math.IsInf(b, 0)) {
		return math.NaN()
	}
	return math.Pow(a, b)
}
