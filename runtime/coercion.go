package runtime

import (
	"math"
	"math/big"
	"strings"
)

// StrictEquals implements ===.
func StrictEquals(a, b *Value) bool {
	if a.IsNumber() && b.IsNumber() {
		if a.Type == TypeNumber && b.Type == TypeNumber {
			return a.Int == b.Int
		}
		return a.ToNumber() == b.ToNumber()
	}
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case TypeUndefined, TypeNull:
		return true
	case TypeBoolean:
		return a.Bool == b.Bool
	case TypeBigInt:
		return a.BigInt.Cmp(b.BigInt) == 0
	case TypeString:
		return a.Str == b.Str
	case TypeSymbol:
		return a.Symbol == b.Symbol
	case TypeObject:
		return a.Object == b.Object
	}
	return false
}

// SameValueZero is StrictEquals except that NaN equals NaN.
func SameValueZero(a, b *Value) bool {
	if a.IsNumber() && b.IsNumber() {
		x, y := a.ToNumber(), b.ToNumber()
		if math.IsNaN(x) && math.IsNaN(y) {
			return true
		}
		return x == y
	}
	return StrictEquals(a, b)
}

// SameValue distinguishes +0 from -0 and equates NaN with itself.
func SameValue(a, b *Value) bool {
	if a.IsNumber() && b.IsNumber() {
		x, y := a.ToNumber(), b.ToNumber()
		if x == 0 && y == 0 {
			return math.Signbit(x) == math.Signbit(y)
		}
	}
	return SameValueZero(a, b)
}

// LooseEquals implements ==.
func LooseEquals(a, b *Value) (bool, error) {
	switch {
	case a.Type == b.Type || (a.IsNumber() && b.IsNumber()):
		return StrictEquals(a, b), nil
	case a.IsNullish() && b.IsNullish():
		return true, nil
	case a.IsNullish() || b.IsNullish():
		return false, nil
	case a.IsNumber() && b.Type == TypeString:
		return StrictEquals(a, NewNumber(b.ToNumber())), nil
	case a.Type == TypeString && b.IsNumber():
		return StrictEquals(NewNumber(a.ToNumber()), b), nil
	case a.Type == TypeBigInt && b.Type == TypeString:
		n, ok := StringToBigInt(b.Str)
		return ok && a.BigInt.Cmp(n) == 0, nil
	case a.Type == TypeString && b.Type == TypeBigInt:
		return LooseEquals(b, a)
	case a.Type == TypeBoolean:
		return LooseEquals(NewNumber(a.ToNumber()), b)
	case b.Type == TypeBoolean:
		return LooseEquals(a, NewNumber(b.ToNumber()))
	case a.Type == TypeObject && b.Type != TypeObject:
		prim, err := ToPrimitive(a, "default")
		if err != nil {
			return false, err
		}
		return LooseEquals(prim, b)
	case b.Type == TypeObject && a.Type != TypeObject:
		prim, err := ToPrimitive(b, "default")
		if err != nil {
			return false, err
		}
		return LooseEquals(a, prim)
	case a.Type == TypeBigInt && b.IsNumber():
		return compareBigIntNumber(a.BigInt, b.ToNumber()) == 0, nil
	case a.IsNumber() && b.Type == TypeBigInt:
		return compareBigIntNumber(b.BigInt, a.ToNumber()) == 0, nil
	}
	return false, nil
}

// ToPrimitive converts objects through Symbol.toPrimitive, then valueOf and
// toString in hint order.
func ToPrimitive(v *Value, hint string) (*Value, error) {
	if !v.IsObject() {
		return v, nil
	}
	obj := v.Object
	if exotic := obj.GetSymbol(SymbolToPrimitive); exotic.IsCallable() {
		res, err := exotic.Object.Callable(v, []*Value{NewString(hint)})
		if err != nil {
			return nil, err
		}
		if res.IsObject() {
			return nil, NewTypeError("Cannot convert object to primitive value")
		}
		return res, nil
	}
	order := []string{"valueOf", "toString"}
	if hint == "string" {
		order = []string{"toString", "valueOf"}
	}
	called := false
	for _, name := range order {
		method, err := obj.GetValue(name)
		if err != nil {
			return nil, err
		}
		if !method.IsCallable() {
			continue
		}
		called = true
		res, err := method.Object.Callable(v, nil)
		if err != nil {
			return nil, err
		}
		if !res.IsObject() {
			return res, nil
		}
	}
	if !called {
		// Bare objects without conversion methods fall back to their tag.
		return NewString(objectToString(obj)), nil
	}
	return nil, NewTypeError("Cannot convert object to primitive value")
}

// ToNumberValue implements ToNumber, running user conversions on objects.
func ToNumberValue(v *Value) (float64, error) {
	switch v.Type {
	case TypeSymbol:
		return 0, NewTypeError("Cannot convert a Symbol value to a number")
	case TypeBigInt:
		return 0, NewTypeError("Cannot convert a BigInt value to a number")
	case TypeObject:
		prim, err := ToPrimitive(v, "number")
		if err != nil {
			return 0, err
		}
		return ToNumberValue(prim)
	}
	return v.ToNumber(), nil
}

// ToNumeric returns a Number, Float or BigInt value.
func ToNumeric(v *Value) (*Value, error) {
	if v.IsNumeric() {
		return v, nil
	}
	prim, err := ToPrimitive(v, "number")
	if err != nil {
		return nil, err
	}
	if prim.Type == TypeBigInt {
		return prim, nil
	}
	n, err := ToNumberValue(prim)
	if err != nil {
		return nil, err
	}
	return NewNumber(n), nil
}

// ToStringValue implements ToString, running user conversions on objects.
func ToStringValue(v *Value) (string, error) {
	switch v.Type {
	case TypeSymbol:
		return "", NewTypeError("Cannot convert a Symbol value to a string")
	case TypeObject:
		prim, err := ToPrimitive(v, "string")
		if err != nil {
			return "", err
		}
		return ToStringValue(prim)
	}
	return v.ToString(), nil
}

// ToPropertyKey converts a value to a string key or a symbol.
func ToPropertyKey(v *Value) (string, *Symbol, error) {
	if v.Type == TypeSymbol {
		return "", v.Symbol, nil
	}
	prim, err := ToPrimitive(v, "string")
	if err != nil {
		return "", nil, err
	}
	if prim.Type == TypeSymbol {
		return "", prim.Symbol, nil
	}
	return prim.ToString(), nil, nil
}

// ToIntegerOrInfinity truncates toward zero; NaN becomes 0.
func ToIntegerOrInfinity(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	if math.IsInf(f, 0) {
		return f
	}
	return math.Trunc(f)
}

// ToInt32 implements the ToInt32 wrap-around conversion.
func ToInt32(f float64) int32 {
	return int32(ToUint32(f))
}

// ToUint32 implements the ToUint32 wrap-around conversion.
func ToUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Trunc(f)
	m := math.Mod(f, 4294967296)
	if m < 0 {
		m += 4294967296
	}
	return uint32(m)
}

// StringToBigInt parses a string as a BigInt literal body.
func StringToBigInt(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(big.Int), true
	}
	base := 10
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			base, s = 16, s[2:]
		case 'o', 'O':
			base, s = 8, s[2:]
		case 'b', 'B':
			base, s = 2, s[2:]
		}
	}
	n, ok := new(big.Int).SetString(s, base)
	return n, ok
}

func compareBigIntNumber(b *big.Int, f float64) int {
	if math.IsNaN(f) {
		return 2
	}
	if math.IsInf(f, 1) {
		return -1
	}
	if math.IsInf(f, -1) {
		return 1
	}
	return new(big.Float).SetInt(b).Cmp(big.NewFloat(f))
}

// LessThan implements the abstract relational comparison a < b. The second
// result is false when the comparison is undefined (NaN involved).
func LessThan(a, b *Value, leftFirst bool) (bool, bool, error) {
	var pa, pb *Value
	var err error
	if leftFirst {
		if pa, err = ToPrimitive(a, "number"); err != nil {
			return false, false, err
		}
		if pb, err = ToPrimitive(b, "number"); err != nil {
			return false, false, err
		}
	} else {
		if pb, err = ToPrimitive(b, "number"); err != nil {
			return false, false, err
		}
		if pa, err = ToPrimitive(a, "number"); err != nil {
			return false, false, err
		}
	}
	if pa.Type == TypeString && pb.Type == TypeString {
		return pa.Str < pb.Str, true, nil
	}
	if pa.Type == TypeBigInt && pb.Type == TypeString {
		n, ok := StringToBigInt(pb.Str)
		if !ok {
			return false, false, nil
		}
		return pa.BigInt.Cmp(n) < 0, true, nil
	}
	if pa.Type == TypeString && pb.Type == TypeBigInt {
		n, ok := StringToBigInt(pa.Str)
		if !ok {
			return false, false, nil
		}
		return n.Cmp(pb.BigInt) < 0, true, nil
	}
	if pa.Type == TypeBigInt && pb.Type == TypeBigInt {
		return pa.BigInt.Cmp(pb.BigInt) < 0, true, nil
	}
	if pa.Type == TypeBigInt || pb.Type == TypeBigInt {
		if pa.Type == TypeBigInt {
			nb, err := ToNumberValue(pb)
			if err != nil {
				return false, false, err
			}
			c := compareBigIntNumber(pa.BigInt, nb)
			return c == -1, c != 2, nil
		}
		na, err := ToNumberValue(pa)
		if err != nil {
			return false, false, err
		}
		c := compareBigIntNumber(pb.BigInt, na)
		return c == 1, c != 2, nil
	}
	if pa.Type == TypeNumber && pb.Type == TypeNumber {
		return pa.Int < pb.Int, true, nil
	}
	na, err := ToNumberValue(pa)
	if err != nil {
		return false, false, err
	}
	nb, err := ToNumberValue(pb)
	if err != nil {
		return false, false, err
	}
	if math.IsNaN(na) || math.IsNaN(nb) {
		return false, false, nil
	}
	return na < nb, true, nil
}
