package runtime

import (
	"math"
	"math/big"
)

// BinaryOp applies an arithmetic, bitwise or shift operator.
func BinaryOp(op string, a, b *Value) (*Value, error) {
	if op == "+" {
		return Add(a, b)
	}
	na, err := ToNumeric(a)
	if err != nil {
		return nil, err
	}
	nb, err := ToNumeric(b)
	if err != nil {
		return nil, err
	}
	if na.Type == TypeBigInt || nb.Type == TypeBigInt {
		if na.Type != nb.Type {
			return nil, NewTypeError("Cannot mix BigInt and other types, use explicit conversions")
		}
		return bigIntOp(op, na.BigInt, nb.BigInt)
	}
	return numberOp(op, na, nb), nil
}

// Add implements the + operator: string concatenation when either
// primitive is a string, numeric addition otherwise.
func Add(a, b *Value) (*Value, error) {
	if a.Type == TypeNumber && b.Type == TypeNumber {
		return addInt(a.Int, b.Int), nil
	}
	pa, err := ToPrimitive(a, "default")
	if err != nil {
		return nil, err
	}
	pb, err := ToPrimitive(b, "default")
	if err != nil {
		return nil, err
	}
	if pa.Type == TypeString || pb.Type == TypeString {
		sa, err := ToStringValue(pa)
		if err != nil {
			return nil, err
		}
		sb, err := ToStringValue(pb)
		if err != nil {
			return nil, err
		}
		return NewString(sa + sb), nil
	}
	return BinaryOp("add", pa, pb)
}

func addInt(x, y int64) *Value {
	s := x + y
	if (x^s)&(y^s) < 0 {
		return NewFloat(float64(x) + float64(y))
	}
	return NewInt(s)
}

func subInt(x, y int64) *Value {
	d := x - y
	if (x^y)&(x^d) < 0 {
		return NewFloat(float64(x) - float64(y))
	}
	return NewInt(d)
}

func mulInt(x, y int64) *Value {
	if x == 0 || y == 0 {
		if (x < 0) != (y < 0) {
			return NewFloat(math.Copysign(0, -1))
		}
		return NewInt(0)
	}
	p := x * y
	if p/y != x || (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
		return NewFloat(float64(x) * float64(y))
	}
	return NewInt(p)
}

func numberOp(op string, a, b *Value) *Value {
	if a.Type == TypeNumber && b.Type == TypeNumber {
		x, y := a.Int, b.Int
		switch op {
		case "add":
			return addInt(x, y)
		case "-":
			return subInt(x, y)
		case "*":
			return mulInt(x, y)
		case "/":
			if y != 0 && x%y == 0 && !(x == math.MinInt64 && y == -1) {
				if x == 0 && y < 0 {
					return NewFloat(math.Copysign(0, -1))
				}
				return NewInt(x / y)
			}
		case "%":
			if y == 0 {
				return NaN
			}
			r := x % y
			if r == 0 && x < 0 {
				return NewFloat(math.Copysign(0, -1))
			}
			return NewInt(r)
		}
	}
	x, y := a.ToNumber(), b.ToNumber()
	switch op {
	case "add":
		return NewNumber(x + y)
	case "-":
		return NewNumber(x - y)
	case "*":
		return NewNumber(x * y)
	case "/":
		return NewNumber(x / y)
	case "%":
		if y == 0 || math.IsInf(x, 0) || math.IsNaN(x) || math.IsNaN(y) {
			return NaN
		}
		if math.IsInf(y, 0) {
			return NewNumber(x)
		}
		return NewNumber(math.Mod(x, y))
	case "**":
		if math.IsNaN(y) || ((x == 1 || x == -1) && math.IsInf(y, 0)) {
			return NaN
		}
		return NewNumber(math.Pow(x, y))
	case "&":
		return NewInt(int64(ToInt32(x) & ToInt32(y)))
	case "|":
		return NewInt(int64(ToInt32(x) | ToInt32(y)))
	case "^":
		return NewInt(int64(ToInt32(x) ^ ToInt32(y)))
	case "<<":
		return NewInt(int64(ToInt32(x) << (ToUint32(y) & 0x1f)))
	case ">>":
		return NewInt(int64(ToInt32(x) >> (ToUint32(y) & 0x1f)))
	case ">>>":
		return NewInt(int64(ToUint32(x) >> (ToUint32(y) & 0x1f)))
	}
	return NaN
}

func bigIntOp(op string, x, y *big.Int) (*Value, error) {
	r := new(big.Int)
	switch op {
	case "add":
		r.Add(x, y)
	case "-":
		r.Sub(x, y)
	case "*":
		r.Mul(x, y)
	case "/":
		if y.Sign() == 0 {
			return nil, NewRangeError("Division by zero")
		}
		r.Quo(x, y)
	case "%":
		if y.Sign() == 0 {
			return nil, NewRangeError("Division by zero")
		}
		r.Rem(x, y)
	case "**":
		if y.Sign() < 0 {
			return nil, NewRangeError("Exponent must be non-negative")
		}
		r.Exp(x, y, nil)
	case "&":
		r.And(x, y)
	case "|":
		r.Or(x, y)
	case "^":
		r.Xor(x, y)
	case "<<":
		if y.Sign() < 0 {
			r.Rsh(x, uint(new(big.Int).Neg(y).Uint64()))
		} else {
			r.Lsh(x, uint(y.Uint64()))
		}
	case ">>":
		if y.Sign() < 0 {
			r.Lsh(x, uint(new(big.Int).Neg(y).Uint64()))
		} else {
			r.Rsh(x, uint(y.Uint64()))
		}
	case ">>>":
		return nil, NewTypeError("BigInts have no unsigned right shift, use >> instead")
	default:
		return nil, NewTypeError("Unsupported BigInt operator %s", op)
	}
	return NewBigInt(r), nil
}

// Increment adds delta (+1 or -1) to a numeric value, promoting integral
// overflow to Float.
func Increment(v *Value, delta int64) (*Value, error) {
	n, err := ToNumeric(v)
	if err != nil {
		return nil, err
	}
	switch n.Type {
	case TypeBigInt:
		return NewBigInt(new(big.Int).Add(n.BigInt, big.NewInt(delta))), nil
	case TypeNumber:
		return addInt(n.Int, delta), nil
	}
	return NewNumber(n.Float + float64(delta)), nil
}

// Negate implements unary minus.
func Negate(v *Value) (*Value, error) {
	n, err := ToNumeric(v)
	if err != nil {
		return nil, err
	}
	switch n.Type {
	case TypeBigInt:
		return NewBigInt(new(big.Int).Neg(n.BigInt)), nil
	case TypeNumber:
		if n.Int == 0 {
			return NewFloat(math.Copysign(0, -1)), nil
		}
		if n.Int == math.MinInt64 {
			return NewFloat(-float64(n.Int)), nil
		}
		return NewInt(-n.Int), nil
	}
	return NewNumber(-n.Float), nil
}

// BitNot implements unary ~.
func BitNot(v *Value) (*Value, error) {
	n, err := ToNumeric(v)
	if err != nil {
		return nil, err
	}
	if n.Type == TypeBigInt {
		return NewBigInt(new(big.Int).Not(n.BigInt)), nil
	}
	return NewInt(int64(^ToInt32(n.ToNumber()))), nil
}
