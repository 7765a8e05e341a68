package runtime

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNumberNormalizes(t *testing.T) {
	assert.Equal(t, TypeNumber, NewNumber(3).Type)
	assert.Equal(t, TypeFloat, NewNumber(3.5).Type)
	assert.Equal(t, TypeFloat, NewNumber(math.Copysign(0, -1)).Type)
	assert.Equal(t, TypeFloat, NewNumber(1e300).Type)
}

func TestFormatNumber(t *testing.T) {
	a, b := 0.1, 0.2
	cases := []struct {
		in   float64
		want string
	}{
		{a + b, "0.30000000000000004"},
		{1e21, "1e+21"},
		{1.5e-7, "1.5e-7"},
		{123456789.25, "123456789.25"},
		{math.NaN(), "NaN"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatNumber(tc.in))
	}
}

func TestStringToNumber(t *testing.T) {
	assert.Equal(t, 255.0, StringToNumber("0xff"))
	assert.Equal(t, 5.0, StringToNumber("  0b101 "))
	assert.Equal(t, 0.0, StringToNumber(""))
	assert.True(t, math.IsNaN(StringToNumber("12px")))
	assert.True(t, math.IsInf(StringToNumber("-Infinity"), -1))
}

func TestTypeOf(t *testing.T) {
	realm := NewRealm()
	fn := realm.NewFunction("f", 0, func(this *Value, args []*Value) (*Value, error) { return Undefined, nil })
	assert.Equal(t, "object", Null.TypeOf())
	assert.Equal(t, "function", NewObject(fn).TypeOf())
	assert.Equal(t, "bigint", NewBigInt(big.NewInt(1)).TypeOf())
	assert.Equal(t, "number", NaN.TypeOf())
}

func TestEqualityAndCoercion(t *testing.T) {
	eq, err := LooseEquals(NewInt(1), NewString("1"))
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = LooseEquals(Null, Undefined)
	require.NoError(t, err)
	assert.True(t, eq)

	eq, err = LooseEquals(NewBigInt(big.NewInt(2)), NewInt(2))
	require.NoError(t, err)
	assert.True(t, eq)

	assert.False(t, StrictEquals(NaN, NaN))
	assert.True(t, SameValueZero(NaN, NaN))
	assert.False(t, SameValue(NewFloat(math.Copysign(0, -1)), Zero))
	assert.True(t, StrictEquals(NewFloat(2), NewInt(2)))
}

func TestToPrimitiveUsesValueOf(t *testing.T) {
	realm := NewRealm()
	obj := realm.NewObject()
	obj.Set("valueOf", NewObject(realm.NewFunction("valueOf", 0, func(this *Value, args []*Value) (*Value, error) {
		return NewInt(41), nil
	})))
	sum, err := Add(NewObject(obj), NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, int64(42), sum.Int)
}

func TestArithmetic(t *testing.T) {
	v, err := BinaryOp("-", NewInt(math.MaxInt64), NewInt(-1))
	require.NoError(t, err)
	assert.Equal(t, TypeFloat, v.Type)

	v, err = BinaryOp("/", NewInt(7), NewInt(2))
	require.NoError(t, err)
	assert.Equal(t, 3.5, v.Float)

	v, err = BinaryOp("%", NewInt(-4), NewInt(2))
	require.NoError(t, err)
	assert.True(t, math.Signbit(v.ToNumber()))

	v, err = BinaryOp(">>>", NewInt(-1), NewInt(0))
	require.NoError(t, err)
	assert.Equal(t, int64(4294967295), v.Int)

	v, err = Add(NewString("a"), NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, "a1", v.Str)
}

func TestBigIntArithmetic(t *testing.T) {
	a, b := NewBigInt(big.NewInt(7)), NewBigInt(big.NewInt(2))
	v, err := BinaryOp("/", a, b)
	require.NoError(t, err)
	assert.Equal(t, "3", v.BigInt.String())

	_, err = BinaryOp("*", a, NewInt(2))
	require.Error(t, err)
	assert.Equal(t, KindTypeError, ErrorKindOf(err))

	_, err = BinaryOp("%", a, NewBigInt(big.NewInt(0)))
	require.Error(t, err)
	assert.Equal(t, KindRangeError, ErrorKindOf(err))
}

func TestLessThan(t *testing.T) {
	lt, ok, err := LessThan(NewString("a"), NewString("b"), true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, lt)

	_, ok, err = LessThan(NaN, NewInt(1), true)
	require.NoError(t, err)
	assert.False(t, ok)

	lt, ok, err = LessThan(NewBigInt(big.NewInt(1)), NewFloat(1.5), true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, lt)
}
