package geoarrow

import (
	"github.com/apache/arrow-go/v18/arrow/bitutil"
)

// Bitmap is an optional validity bitmap, one bit per row, LSB first. A
// bitmap without bits means every row is valid.
type Bitmap struct {
	bits   []byte
	offset int
	length int
	nulls  int
}

// NewBitmap wraps bits as a validity bitmap of length rows starting at bit
// offset. A nil bits slice yields an all-valid bitmap.
func NewBitmap(bits []byte, offset, length int) Bitmap {
	b := Bitmap{bits: bits, offset: offset, length: length}
	if bits != nil {
		b.nulls = length - bitutil.CountSetBits(bits, offset, length)
	}
	return b
}

// AllValid returns a bitmap of n valid rows with no backing bits.
func AllValid(n int) Bitmap { return Bitmap{length: n} }

func (b Bitmap) Len() int       { return b.length }
func (b Bitmap) NullCount() int { return b.nulls }

// Bytes returns the backing bits, or nil when every row is valid.
func (b Bitmap) Bytes() []byte { return b.bits }

// Offset is the bit offset of row 0 within Bytes.
func (b Bitmap) Offset() int { return b.offset }

// IsValid reports whether row i is non-null.
func (b Bitmap) IsValid(i int) bool {
	if i < 0 || i >= b.length {
		panic("geoarrow: bitmap index out of range")
	}
	return b.bits == nil || bitutil.BitIsSet(b.bits, b.offset+i)
}

// Slice returns the bitmap for rows [off, off+n). The bits are shared.
func (b Bitmap) Slice(off, n int) Bitmap {
	if off < 0 || n < 0 || off+n > b.length {
		panic("geoarrow: bitmap slice out of range")
	}
	if b.bits == nil || b.nulls == 0 {
		return Bitmap{length: n}
	}
	return NewBitmap(b.bits, b.offset+off, n)
}

// BitmapBuilder accumulates validity bits. No memory is allocated until the
// first null is appended.
type BitmapBuilder struct {
	bits   []byte
	length int
	nulls  int
	hint   int
}

// Reserve records room for n more rows.
func (b *BitmapBuilder) Reserve(n int) {
	b.hint = b.length + n
	if b.bits != nil {
		b.grow(b.hint)
	}
}

func (b *BitmapBuilder) grow(rows int) {
	need := int(bitutil.BytesForBits(int64(rows)))
	if need <= len(b.bits) {
		return
	}
	if need <= cap(b.bits) {
		b.bits = b.bits[:need]
		return
	}
	c := 2 * cap(b.bits)
	if c < need {
		c = need
	}
	grown := make([]byte, need, c)
	copy(grown, b.bits)
	b.bits = grown
}

// materialize allocates the bits with every row so far marked valid.
func (b *BitmapBuilder) materialize() {
	rows := b.length + 1
	if b.hint > rows {
		rows = b.hint
	}
	b.bits = make([]byte, bitutil.BytesForBits(int64(b.length)), bitutil.BytesForBits(int64(rows)))
	for i := range b.bits {
		b.bits[i] = 0xff
	}
}

// Append adds one row.
func (b *BitmapBuilder) Append(valid bool) {
	if !valid && b.bits == nil {
		b.materialize()
	}
	if b.bits != nil {
		b.grow(b.length + 1)
		bitutil.SetBitTo(b.bits, b.length, valid)
	}
	if !valid {
		b.nulls++
	}
	b.length++
}

// AppendN adds n rows with the same validity.
func (b *BitmapBuilder) AppendN(n int, valid bool) {
	for i := 0; i < n; i++ {
		b.Append(valid)
	}
}

// AppendBitmap adds every row of v.
func (b *BitmapBuilder) AppendBitmap(v Bitmap) {
	if v.NullCount() == 0 && b.bits == nil {
		b.length += v.Len()
		return
	}
	for i := 0; i < v.Len(); i++ {
		b.Append(v.IsValid(i))
	}
}

func (b *BitmapBuilder) Len() int       { return b.length }
func (b *BitmapBuilder) NullCount() int { return b.nulls }

// ShrinkToFit releases unused capacity.
func (b *BitmapBuilder) ShrinkToFit() {
	b.hint = 0
	if b.bits != nil && cap(b.bits) > len(b.bits) {
		b.bits = append([]byte(nil), b.bits...)
	}
}

// Finish returns the bitmap and resets the builder.
func (b *BitmapBuilder) Finish() Bitmap {
	out := Bitmap{bits: b.bits, length: b.length, nulls: b.nulls}
	if b.nulls == 0 {
		out.bits = nil
	}
	*b = BitmapBuilder{}
	return out
}
