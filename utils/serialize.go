package utils

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Binary cache encoding: little-endian fixed width, one uint64 length
// prefix per vector.

func SaveNumber(w io.Writer, v uint64) error {
	return binary.Write(w, binary.LittleEndian, v)
}

func LoadNumber(r io.Reader) (v uint64, err error) {
	err = binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func SaveIntSlice(w io.Writer, arr []int) error {
	if err := SaveNumber(w, uint64(len(arr))); err != nil {
		return err
	}
	buf := make([]int64, len(arr))
	for i, v := range arr {
		buf[i] = int64(v)
	}
	return binary.Write(w, binary.LittleEndian, buf)
}

func LoadIntSlice(r io.Reader) (arr []int, err error) {
	sz, err := LoadNumber(r)
	if err != nil {
		return nil, err
	}
	buf := make([]int64, sz)
	if err := binary.Read(r, binary.LittleEndian, buf); err != nil {
		return nil, err
	}
	arr = make([]int, sz)
	for i, v := range buf {
		arr[i] = int(v)
	}
	return arr, nil
}

func SaveUint64Slice(w io.Writer, arr []uint64) error {
	if err := SaveNumber(w, uint64(len(arr))); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, arr)
}

func LoadUint64Slice(r io.Reader) (arr []uint64, err error) {
	sz, err := LoadNumber(r)
	if err != nil {
		return nil, err
	}
	arr = make([]uint64, sz)
	if err := binary.Read(r, binary.LittleEndian, arr); err != nil {
		return nil, err
	}
	return arr, nil
}

func SaveByteSlice(w io.Writer, arr []byte) error {
	if err := SaveNumber(w, uint64(len(arr))); err != nil {
		return err
	}
	_, err := w.Write(arr)
	return err
}

func LoadByteSlice(r io.Reader) (arr []byte, err error) {
	sz, err := LoadNumber(r)
	if err != nil {
		return nil, err
	}
	arr = make([]byte, sz)
	if _, err := io.ReadFull(r, arr); err != nil {
		return nil, err
	}
	return arr, nil
}

func SaveIntSlice2D(w io.Writer, arr [][]int) error {
	if err := SaveNumber(w, uint64(len(arr))); err != nil {
		return err
	}
	for _, row := range arr {
		if err := SaveIntSlice(w, row); err != nil {
			return err
		}
	}
	return nil
}

func LoadIntSlice2D(r io.Reader) (arr [][]int, err error) {
	sz, err := LoadNumber(r)
	if err != nil {
		return nil, err
	}
	arr = make([][]int, sz)
	for i := range arr {
		if arr[i], err = LoadIntSlice(r); err != nil {
			return nil, errors.Wrapf(err, "row %d of %d", i, sz)
		}
	}
	return arr, nil
}
