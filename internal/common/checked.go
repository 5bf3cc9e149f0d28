package common

import (
	"fmt"
	"math/bits"

	"github.com/hxuan190/lotto-treasury/internal/domain"
)

// Checked chains uint64 arithmetic and stops at the first step that would
// overflow, underflow or divide by zero. Later steps are no-ops, so a whole
// computation can be written straight through and checked once via Result.
type Checked struct {
	value uint64
	err   error
}

func NewChecked(v uint64) Checked {
	return Checked{value: v}
}

func (c Checked) fail(step string, format string, args ...any) Checked {
	return Checked{err: fmt.Errorf("%w: %s: %s", domain.ErrArithmeticOverflow, step, fmt.Sprintf(format, args...))}
}

func (c Checked) Add(step string, v uint64) Checked {
	if c.err != nil {
		return c
	}
	sum, carry := bits.Add64(c.value, v, 0)
	if carry != 0 {
		return c.fail(step, "%d + %d", c.value, v)
	}
	return Checked{value: sum}
}

func (c Checked) Sub(step string, v uint64) Checked {
	if c.err != nil {
		return c
	}
	diff, borrow := bits.Sub64(c.value, v, 0)
	if borrow != 0 {
		return c.fail(step, "%d - %d underflows", c.value, v)
	}
	return Checked{value: diff}
}

func (c Checked) Mul(step string, v uint64) Checked {
	if c.err != nil {
		return c
	}
	hi, lo := bits.Mul64(c.value, v)
	if hi != 0 {
		return c.fail(step, "%d * %d", c.value, v)
	}
	return Checked{value: lo}
}

func (c Checked) Div(step string, v uint64) Checked {
	if c.err != nil {
		return c
	}
	if v == 0 {
		return c.fail(step, "division by zero")
	}
	return Checked{value: c.value / v}
}

// MulDiv computes floor(value * num / den) with a 256-bit intermediate, so
// only a quotient that does not fit in 64 bits fails.
func (c Checked) MulDiv(step string, num, den uint64) Checked {
	if c.err != nil {
		return c
	}
	if den == 0 {
		return c.fail(step, "division by zero")
	}
	result := GetU256()
	temp := GetU256()
	defer func() {
		PutU256(result)
		PutU256(temp)
	}()

	result.SetUint64(c.value)
	temp.SetUint64(num)
	result.Mul(result, temp)
	temp.SetUint64(den)
	result.Div(result, temp)

	if !result.IsUint64() {
		return c.fail(step, "%d * %d / %d", c.value, num, den)
	}
	return Checked{value: result.Uint64()}
}

// Value is the running value. It is zero once a step has failed.
func (c Checked) Value() uint64 {
	return c.value
}

func (c Checked) Err() error {
	return c.err
}

// Result returns the final value, or the error of the first failing step.
func (c Checked) Result() (uint64, error) {
	if c.err != nil {
		return 0, c.err
	}
	return c.value, nil
}

// CheckedAdd is a single checked addition.
func CheckedAdd(step string, a, b uint64) (uint64, error) {
	return NewChecked(a).Add(step, b).Result()
}

// MulDiv returns floor(a * b / c), or an error if c is zero or the quotient
// exceeds 64 bits.
func MulDiv(a, b, c uint64) (uint64, error) {
	return NewChecked(a).MulDiv("muldiv", b, c).Result()
}
