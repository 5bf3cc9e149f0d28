package common

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hxuan190/lotto-treasury/internal/domain"
)

func TestCheckedChain(t *testing.T) {
	v, err := NewChecked(2_000_000).Div("ops", 10).Mul("scale", 3).Add("bonus", 1).Sub("fee", 1).Result()
	require.NoError(t, err)
	require.Equal(t, uint64(600_000), v)
}

func TestCheckedReportsFirstFailingStep(t *testing.T) {
	tests := []struct {
		name string
		run  func() Checked
		step string
	}{
		{
			name: "add overflow",
			run:  func() Checked { return NewChecked(math.MaxUint64).Add("first", 1).Sub("second", 5) },
			step: "first",
		},
		{
			name: "sub underflow",
			run:  func() Checked { return NewChecked(3).Sub("first", 4).Add("second", 1) },
			step: "first",
		},
		{
			name: "mul overflow after ok step",
			run:  func() Checked { return NewChecked(1<<40).Add("ok", 1).Mul("second", 1<<40) },
			step: "second",
		},
		{
			name: "div by zero",
			run:  func() Checked { return NewChecked(10).Div("first", 0).Div("second", 0) },
			step: "first",
		},
		{
			name: "muldiv quotient too wide",
			run:  func() Checked { return NewChecked(math.MaxUint64).MulDiv("first", 3, 2) },
			step: "first",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := tt.run().Result()
			require.Zero(t, v)
			require.True(t, errors.Is(err, domain.ErrArithmeticOverflow))
			require.Contains(t, err.Error(), tt.step)
		})
	}
}

func TestMulDivWideIntermediate(t *testing.T) {
	// a*b overflows 64 bits but the quotient fits
	v, err := MulDiv(math.MaxUint64, 60, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(11_068_046_444_225_730_969), v)

	v, err = MulDiv(1_800_000, 60, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(1_080_000), v)

	_, err = MulDiv(1, 1, 0)
	require.ErrorIs(t, err, domain.ErrArithmeticOverflow)
}

func TestCheckedAdd(t *testing.T) {
	v, err := CheckedAdd("x", 40, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(42), v)

	_, err = CheckedAdd("x", math.MaxUint64, 1)
	require.ErrorIs(t, err, domain.ErrArithmeticOverflow)
}
