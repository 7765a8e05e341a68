package runtime

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// ValueType represents the type tag of a script value.
type ValueType int

const (
	TypeUndefined ValueType = iota
	TypeNull
	TypeBoolean
	TypeNumber // integral number held in Int
	TypeFloat  // non-integral or out-of-range number held in Float
	TypeBigInt
	TypeString
	TypeSymbol
	TypeObject
)

func (t ValueType) String() string {
	switch t {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		return "boolean"
	case TypeNumber:
		return "number"
	case TypeFloat:
		return "float"
	case TypeBigInt:
		return "bigint"
	case TypeString:
		return "string"
	case TypeSymbol:
		return "symbol"
	case TypeObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a tagged union of every script value.
type Value struct {
	Type   ValueType
	Bool   bool
	Int    int64
	Float  float64
	BigInt *big.Int
	Str    string
	Symbol *Symbol
	Object *Object
}

var (
	Undefined = &Value{Type: TypeUndefined}
	Null      = &Value{Type: TypeNull}
	True      = &Value{Type: TypeBoolean, Bool: true}
	False     = &Value{Type: TypeBoolean, Bool: false}
	NaN       = &Value{Type: TypeFloat, Float: math.NaN()}
	PosInf    = &Value{Type: TypeFloat, Float: math.Inf(1)}
	NegInf    = &Value{Type: TypeFloat, Float: math.Inf(-1)}
	Zero      = &Value{Type: TypeNumber}
	EmptyStr  = &Value{Type: TypeString}
)

// maxSafeInteger bounds the integers NewNumber stores in the integral kind.
const maxSafeInteger = 1<<53 - 1

// NewInt returns an integral number.
func NewInt(n int64) *Value {
	return &Value{Type: TypeNumber, Int: n}
}

// NewNumber returns n as an integral number when it is exactly
// representable, and as a Float otherwise.
func NewNumber(n float64) *Value {
	if n == math.Trunc(n) && math.Abs(n) <= maxSafeInteger && !(n == 0 && math.Signbit(n)) {
		return &Value{Type: TypeNumber, Int: int64(n)}
	}
	return &Value{Type: TypeFloat, Float: n}
}

// NewFloat always returns the Float kind.
func NewFloat(n float64) *Value {
	return &Value{Type: TypeFloat, Float: n}
}

func NewBigInt(n *big.Int) *Value {
	return &Value{Type: TypeBigInt, BigInt: n}
}

func NewString(s string) *Value {
	if s == "" {
		return EmptyStr
	}
	return &Value{Type: TypeString, Str: s}
}

func NewBool(b bool) *Value {
	if b {
		return True
	}
	return False
}

func NewObject(obj *Object) *Value {
	return &Value{Type: TypeObject, Object: obj}
}

func NewSymbolValue(s *Symbol) *Value {
	return &Value{Type: TypeSymbol, Symbol: s}
}

// IsNumber reports whether v is a Number or Float.
func (v *Value) IsNumber() bool {
	return v.Type == TypeNumber || v.Type == TypeFloat
}

// IsNumeric reports whether v is a Number, Float or BigInt.
func (v *Value) IsNumeric() bool {
	return v.IsNumber() || v.Type == TypeBigInt
}

func (v *Value) IsNullish() bool {
	return v == nil || v.Type == TypeUndefined || v.Type == TypeNull
}

func (v *Value) IsObject() bool {
	return v != nil && v.Type == TypeObject && v.Object != nil
}

// IsCallable reports whether v is a function object.
func (v *Value) IsCallable() bool {
	return v.IsObject() && v.Object.Callable != nil
}

// TypeOf implements the typeof operator.
func (v *Value) TypeOf() string {
	switch v.Type {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "object"
	case TypeBoolean:
		return "boolean"
	case TypeNumber, TypeFloat:
		return "number"
	case TypeBigInt:
		return "bigint"
	case TypeString:
		return "string"
	case TypeSymbol:
		return "symbol"
	case TypeObject:
		if v.Object != nil && v.Object.Callable != nil {
			return "function"
		}
		return "object"
	}
	return "undefined"
}

// ToBoolean implements the ToBoolean conversion.
func (v *Value) ToBoolean() bool {
	switch v.Type {
	case TypeUndefined, TypeNull:
		return false
	case TypeBoolean:
		return v.Bool
	case TypeNumber:
		return v.Int != 0
	case TypeFloat:
		return v.Float != 0 && !math.IsNaN(v.Float)
	case TypeBigInt:
		return v.BigInt.Sign() != 0
	case TypeString:
		return len(v.Str) > 0
	default:
		return true
	}
}

// ToNumber converts a primitive to float64. Objects yield NaN; callers
// that need valueOf/toString run ToPrimitive first.
func (v *Value) ToNumber() float64 {
	switch v.Type {
	case TypeNull:
		return 0
	case TypeBoolean:
		if v.Bool {
			return 1
		}
		return 0
	case TypeNumber:
		return float64(v.Int)
	case TypeFloat:
		return v.Float
	case TypeBigInt:
		f, _ := new(big.Float).SetInt(v.BigInt).Float64()
		return f
	case TypeString:
		return StringToNumber(v.Str)
	default:
		return math.NaN()
	}
}

// ToString converts a value to its string form without invoking user code.
func (v *Value) ToString() string {
	switch v.Type {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		if v.Bool {
			return "true"
		}
		return "false"
	case TypeNumber:
		return strconv.FormatInt(v.Int, 10)
	case TypeFloat:
		return FormatNumber(v.Float)
	case TypeBigInt:
		return v.BigInt.String()
	case TypeString:
		return v.Str
	case TypeSymbol:
		return "Symbol(" + v.Symbol.Description + ")"
	case TypeObject:
		return objectToString(v.Object)
	}
	return "undefined"
}

func objectToString(o *Object) string {
	if o == nil {
		return "null"
	}
	switch o.OType {
	case ObjTypeArray:
		parts := make([]string, len(o.ArrayData))
		for i, el := range o.ArrayData {
			if el != nil && !el.IsNullish() {
				parts[i] = el.ToString()
			}
		}
		return strings.Join(parts, ",")
	case ObjTypeError:
		name := o.Get("name").ToString()
		msg := o.Get("message")
		if msg.IsNullish() || msg.ToString() == "" {
			return name
		}
		return name + ": " + msg.ToString()
	case ObjTypeFunction:
		return "function " + o.Get("name").ToString() + "() { [native code] }"
	case ObjTypeBoolean, ObjTypeNumber, ObjTypeString:
		if p, ok := o.Internal["primitive"].(*Value); ok {
			return p.ToString()
		}
	}
	if tag := o.GetSymbol(SymbolToStringTag); tag.Type == TypeString {
		return "[object " + tag.Str + "]"
	}
	return "[object Object]"
}

// FormatNumber renders a float the way Number.prototype.toString does
// for radix 10.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		if exp[0] == '+' || exp[0] == '-' {
			sign := exp[:1]
			exp = strings.TrimLeft(exp[1:], "0")
			return mant + "e" + sign + exp
		}
		return mant + "e+" + strings.TrimLeft(exp, "0")
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// StringToNumber implements StringToNumber, including hex/octal/binary
// prefixes and Infinity.
func StringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}
	if strings.ContainsAny(s, "_xXpP") || strings.HasPrefix(strings.ToLower(s), "inf") ||
		strings.HasPrefix(strings.ToLower(s), "+inf") || strings.HasPrefix(strings.ToLower(s), "-inf") ||
		strings.EqualFold(s, "nan") {
		return math.NaN()
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return n
		}
		return math.NaN()
	}
	return n
}

// Symbol is a unique symbol value.
type Symbol struct {
	Description string
}

// Well-known symbols.
var (
	SymbolIterator      = &Symbol{Description: "Symbol.iterator"}
	SymbolAsyncIterator = &Symbol{Description: "Symbol.asyncIterator"}
	SymbolHasInstance   = &Symbol{Description: "Symbol.hasInstance"}
	SymbolToPrimitive   = &Symbol{Description: "Symbol.toPrimitive"}
	SymbolToStringTag   = &Symbol{Description: "Symbol.toStringTag"}
)
