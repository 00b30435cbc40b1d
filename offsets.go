package geoarrow

import (
	"math"

	"github.com/pkg/errors"
)

// Offset is the integer width of an offset buffer.
type Offset interface {
	int32 | int64
}

func maxOffset[O Offset]() int64 {
	var zero O
	switch any(zero).(type) {
	case int32:
		return math.MaxInt32
	default:
		return math.MaxInt64
	}
}

// OffsetBuffer partitions a child buffer into runs: run i covers child
// positions [values[i], values[i+1]). The buffer holds Len()+1 values.
type OffsetBuffer[O Offset] struct {
	values []O
}

// NewOffsetBuffer wraps values without checking them. Use Validate.
func NewOffsetBuffer[O Offset](values []O) OffsetBuffer[O] {
	return OffsetBuffer[O]{values: values}
}

// UnitOffsets returns the offsets 0, 1, ..., n: n runs of length one.
func UnitOffsets[O Offset](n int) OffsetBuffer[O] {
	values := make([]O, n+1)
	for i := range values {
		values[i] = O(i)
	}
	return OffsetBuffer[O]{values: values}
}

// Len returns the number of runs.
func (o OffsetBuffer[O]) Len() int {
	if len(o.values) == 0 {
		return 0
	}
	return len(o.values) - 1
}

func (o OffsetBuffer[O]) Start(i int) int     { return int(o.values[i]) }
func (o OffsetBuffer[O]) End(i int) int       { return int(o.values[i+1]) }
func (o OffsetBuffer[O]) RunLength(i int) int { return int(o.values[i+1] - o.values[i]) }

// First returns the first offset, 0 for an empty buffer.
func (o OffsetBuffer[O]) First() int {
	if len(o.values) == 0 {
		return 0
	}
	return int(o.values[0])
}

// Last returns the final offset, 0 for an empty buffer.
func (o OffsetBuffer[O]) Last() int {
	if len(o.values) == 0 {
		return 0
	}
	return int(o.values[len(o.values)-1])
}

// Values returns the raw offsets. Callers must not modify them.
func (o OffsetBuffer[O]) Values() []O { return o.values }

// Slice returns runs [off, off+n). The child buffer is not touched, so the
// result usually does not start at zero.
func (o OffsetBuffer[O]) Slice(off, n int) OffsetBuffer[O] {
	if off < 0 || n < 0 || off+n > o.Len() {
		panic("geoarrow: offset slice out of range")
	}
	if len(o.values) == 0 {
		return o
	}
	return OffsetBuffer[O]{values: o.values[off : off+n+1]}
}

// Validate checks that the offsets are non-negative, non-decreasing and do
// not run past a child of length childLen.
func (o OffsetBuffer[O]) Validate(childLen int) error {
	if len(o.values) == 0 {
		return nil
	}
	if o.values[0] < 0 {
		return errors.Wrapf(ErrInvalidBuffers, "first offset %d is negative", o.values[0])
	}
	for i := 1; i < len(o.values); i++ {
		if o.values[i] < o.values[i-1] {
			return errors.Wrapf(ErrInvalidBuffers, "offset %d (%d) is less than offset %d (%d)",
				i, o.values[i], i-1, o.values[i-1])
		}
	}
	if last := o.Last(); last > childLen {
		return errors.Wrapf(ErrInvalidBuffers, "last offset %d exceeds child length %d", last, childLen)
	}
	return nil
}

// Rebase returns offsets shifted so the first one is zero, copying only
// when a shift is needed.
func (o OffsetBuffer[O]) Rebase() OffsetBuffer[O] {
	first := O(o.First())
	if first == 0 {
		return o
	}
	values := make([]O, len(o.values))
	for i, v := range o.values {
		values[i] = v - first
	}
	return OffsetBuffer[O]{values: values}
}

// Widen converts 32-bit offsets to 64-bit offsets.
func Widen(o OffsetBuffer[int32]) OffsetBuffer[int64] {
	values := make([]int64, len(o.values))
	for i, v := range o.values {
		values[i] = int64(v)
	}
	return OffsetBuffer[int64]{values: values}
}

// Narrow converts 64-bit offsets to 32-bit offsets, failing when any
// offset does not fit.
func Narrow(o OffsetBuffer[int64]) (OffsetBuffer[int32], error) {
	values := make([]int32, len(o.values))
	for i, v := range o.values {
		if v > math.MaxInt32 || v < math.MinInt32 {
			return OffsetBuffer[int32]{}, errors.Wrapf(ErrOffsetOverflow, "offset %d does not fit in 32 bits", v)
		}
		values[i] = int32(v)
	}
	return OffsetBuffer[int32]{values: values}, nil
}

// OffsetBuilder appends run lengths to an offset buffer that starts at 0.
type OffsetBuilder[O Offset] struct {
	values []O
}

// NewOffsetBuilder returns a builder with room for capacity runs.
func NewOffsetBuilder[O Offset](capacity int) *OffsetBuilder[O] {
	values := make([]O, 1, capacity+1)
	return &OffsetBuilder[O]{values: values}
}

// Len returns the number of runs pushed so far.
func (b *OffsetBuilder[O]) Len() int { return len(b.values) - 1 }

// Last returns the running total of all pushed lengths.
func (b *OffsetBuilder[O]) Last() int { return int(b.values[len(b.values)-1]) }

// Check reports whether n more child elements still fit the offset width.
func (b *OffsetBuilder[O]) Check(n int) error {
	if int64(b.Last())+int64(n) > maxOffset[O]() {
		return errors.Wrapf(ErrOffsetOverflow, "%d + %d exceeds %d", b.Last(), n, maxOffset[O]())
	}
	return nil
}

// Push appends a run of the given length.
func (b *OffsetBuilder[O]) Push(length int) error {
	if err := b.Check(length); err != nil {
		return err
	}
	b.values = append(b.values, b.values[len(b.values)-1]+O(length))
	return nil
}

// pushUnchecked appends a run whose total was already checked.
func (b *OffsetBuilder[O]) pushUnchecked(length int) {
	b.values = append(b.values, b.values[len(b.values)-1]+O(length))
}

// Reserve makes room for n more runs.
func (b *OffsetBuilder[O]) Reserve(n int) {
	if cap(b.values)-len(b.values) >= n {
		return
	}
	grown := make([]O, len(b.values), len(b.values)+n)
	copy(grown, b.values)
	b.values = grown
}

// ShrinkToFit releases unused capacity.
func (b *OffsetBuilder[O]) ShrinkToFit() {
	if cap(b.values) > len(b.values) {
		b.values = append([]O(nil), b.values...)
	}
}

// Finish hands the offsets over without copying.
func (b *OffsetBuilder[O]) Finish() OffsetBuffer[O] {
	out := OffsetBuffer[O]{values: b.values}
	b.values = nil
	return out
}
