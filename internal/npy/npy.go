// internal/npy/npy.go

// Package npy reads and writes NumPy .npy files for the C-ordered numeric
// arrays mavekit exchanges with Python tooling. Decoding goes through
// npyio; writing emits format 1.0 headers for arbitrary shapes.
package npy

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/sbinet/npyio"
)

var magic = []byte("\x93NUMPY")

// Supported dtype descriptors.
const (
	Uint8   = "|u1"
	Bool    = "|b1"
	Int32   = "<i4"
	Int64   = "<i8"
	Float32 = "<f4"
	Float64 = "<f8"
)

// ErrUnsupported marks arrays this package cannot represent.
var ErrUnsupported = errors.New("npy: unsupported array")

// Array is a decoded C-ordered array. The element slice matches Descr.
type Array struct {
	Descr string
	Shape []int
	data  any
}

// Len is the number of elements (product of Shape).
func (a *Array) Len() int { return prod(a.Shape) }

func itemSize(descr string) (int, bool) {
	switch descr {
	case Uint8, Bool:
		return 1, true
	case Int32, Float32:
		return 4, true
	case Int64, Float64:
		return 8, true
	}
	return 0, false
}

func prod(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// Uint8 returns the data as bytes; only |u1 and |b1 arrays qualify.
func (a *Array) Uint8() ([]uint8, error) {
	switch v := a.data.(type) {
	case []uint8:
		return append([]uint8(nil), v...), nil
	case []bool:
		out := make([]uint8, len(v))
		for i, b := range v {
			if b {
				out[i] = 1
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: want uint8, have %s", ErrUnsupported, a.Descr)
}

// Float64 converts any supported dtype to float64.
func (a *Array) Float64() []float64 {
	switch v := a.data.(type) {
	case []float64:
		return append([]float64(nil), v...)
	case []float32:
		return convert(v)
	case []int32:
		return convert(v)
	case []int64:
		return convert(v)
	case []uint8:
		return convert(v)
	case []bool:
		u, _ := a.Uint8()
		return convert(u)
	}
	return nil
}

// Float32 converts any supported dtype to float32.
func (a *Array) Float32() []float32 {
	if v, ok := a.data.([]float32); ok {
		return append([]float32(nil), v...)
	}
	f := a.Float64()
	out := make([]float32, len(f))
	for i, v := range f {
		out[i] = float32(v)
	}
	return out
}

func convert[T uint8 | int32 | int64 | float32](v []T) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// WriteUint8 writes a |u1 array.
func WriteUint8(w io.Writer, shape []int, data []uint8) error {
	if err := checkLen(shape, len(data)); err != nil {
		return err
	}
	if err := writeHeader(w, Uint8, shape); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

// WriteFloat32 writes a <f4 array.
func WriteFloat32(w io.Writer, shape []int, data []float32) error {
	if err := checkLen(shape, len(data)); err != nil {
		return err
	}
	if err := writeHeader(w, Float32, shape); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	var b [4]byte
	for _, v := range data {
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
		if _, err := bw.Write(b[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFloat64 writes a <f8 array.
func WriteFloat64(w io.Writer, shape []int, data []float64) error {
	if err := checkLen(shape, len(data)); err != nil {
		return err
	}
	if err := writeHeader(w, Float64, shape); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	var b [8]byte
	for _, v := range data {
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
		if _, err := bw.Write(b[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func checkLen(shape []int, n int) error {
	for _, d := range shape {
		if d < 0 {
			return fmt.Errorf("npy: negative dimension in shape %v", shape)
		}
	}
	if p := prod(shape); p != n {
		return fmt.Errorf("npy: shape %v needs %d elements, have %d", shape, p, n)
	}
	return nil
}

func shapeString(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	s := strings.Join(parts, ", ")
	if len(shape) == 1 {
		s += ","
	}
	return "(" + s + ")"
}

// writeHeader emits a version 1.0 header padded so data starts on a 64-byte
// boundary.
func writeHeader(w io.Writer, descr string, shape []int) error {
	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }", descr, shapeString(shape))
	total := len(magic) + 2 + 2 + len(dict) + 1
	pad := (64 - total%64) % 64
	hlen := len(dict) + pad + 1
	if hlen > math.MaxUint16 {
		return fmt.Errorf("npy: header too long (%d bytes)", hlen)
	}
	var buf bytes.Buffer
	buf.Write(magic)
	buf.Write([]byte{1, 0})
	_ = binary.Write(&buf, binary.LittleEndian, uint16(hlen))
	buf.WriteString(dict)
	buf.WriteString(strings.Repeat(" ", pad))
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

// Read decodes one array from r. avail is the number of bytes left in r
// after the header is consumed, or an upper bound of it; a negative avail
// skips that bound but overflowing shapes are always rejected.
func Read(r io.Reader, avail int64) (*Array, error) {
	nr, err := npyio.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("npy: %w", err)
	}
	hdr := nr.Header
	if hdr.Descr.Fortran {
		return nil, fmt.Errorf("%w: fortran_order arrays", ErrUnsupported)
	}
	a := &Array{Descr: normalize(hdr.Descr.Type), Shape: append([]int(nil), hdr.Descr.Shape...)}
	size, ok := itemSize(a.Descr)
	if !ok {
		return nil, fmt.Errorf("%w: dtype %s", ErrUnsupported, hdr.Descr.Type)
	}
	nbytes, err := dataSize(a.Shape, size)
	if err != nil {
		return nil, err
	}
	if avail >= 0 && nbytes > avail {
		return nil, fmt.Errorf("%w: shape %v needs %d bytes, at most %d present", ErrUnsupported, a.Shape, nbytes, avail)
	}
	n := int(nbytes) / size
	switch a.Descr {
	case Uint8:
		a.data = make([]uint8, n)
	case Bool:
		a.data = make([]bool, n)
	case Int32:
		a.data = make([]int32, n)
	case Int64:
		a.data = make([]int64, n)
	case Float32:
		a.data = make([]float32, n)
	case Float64:
		a.data = make([]float64, n)
	}
	if err := readInto(nr, a); err != nil {
		return nil, fmt.Errorf("npy: read %d elements: %w", n, err)
	}
	return a, nil
}

// readInto decodes the data section into a.data, keeping whatever slice
// npyio leaves behind.
func readInto(nr *npyio.Reader, a *Array) (err error) {
	switch v := a.data.(type) {
	case []uint8:
		a.data, err = decode(nr, v)
	case []bool:
		a.data, err = decode(nr, v)
	case []int32:
		a.data, err = decode(nr, v)
	case []int64:
		a.data, err = decode(nr, v)
	case []float32:
		a.data, err = decode(nr, v)
	case []float64:
		a.data, err = decode(nr, v)
	default:
		err = fmt.Errorf("%w: dtype %s", ErrUnsupported, a.Descr)
	}
	return err
}

func decode[T any](nr *npyio.Reader, v []T) (any, error) {
	err := nr.Read(&v)
	return v, err
}

// normalize folds equivalent single-byte descriptors ("<u1", "=b1") onto
// their canonical form.
func normalize(descr string) string {
	if len(descr) == 3 {
		switch descr[1:] {
		case "u1":
			return Uint8
		case "b1":
			return Bool
		}
	}
	return descr
}

// dataSize is the byte size of shape, rejecting negative dimensions and
// products that overflow.
func dataSize(shape []int, item int) (int64, error) {
	n := int64(item)
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("%w: negative dimension in shape %v", ErrUnsupported, shape)
		}
		if d != 0 && n > math.MaxInt64/int64(d) {
			return 0, fmt.Errorf("%w: shape %v overflows", ErrUnsupported, shape)
		}
		n *= int64(d)
	}
	if n > math.MaxInt {
		return 0, fmt.Errorf("%w: shape %v overflows", ErrUnsupported, shape)
	}
	return n, nil
}

// ReadFile opens path and decodes it.
func ReadFile(path string) (*Array, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	st, err := fh.Stat()
	if err != nil {
		return nil, err
	}
	a, err := Read(bufio.NewReader(fh), st.Size())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// WriteFile creates path and runs write on a buffered writer.
func WriteFile(path string, write func(io.Writer) error) (err error) {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fh.Close(); err == nil {
			err = cerr
		}
	}()
	bw := bufio.NewWriter(fh)
	if err := write(bw); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return bw.Flush()
}
