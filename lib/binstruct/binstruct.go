// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

// Package binstruct marshals and unmarshals fixed-layout on-disk
// structures.
//
// A structure describes its layout with `bin:"off=0x…, siz=0x…"`
// field tags (`bin:"-"` skips a field) and pins its total size with a
// trailing embedded End field:
//
//	type Thing struct {
//		A             uint64   `bin:"off=0x0, siz=0x8"`
//		B             [4]byte  `bin:"off=0x8, siz=0x4"`
//		binstruct.End `bin:"off=0xc"`
//	}
//
// The declared offsets and sizes are cross-checked against the field
// types the first time a structure is used; a disagreement is a bug
// in the type definition and panics.  All integers are little-endian,
// which is the only byte order the bcache format uses.
package binstruct

import (
	"encoding"
	"encoding/binary"
	"errors"
	"fmt"
	"reflect"
)

// Marshaler is the interface a type implements to override the
// reflection-based encoding of itself.
type Marshaler = encoding.BinaryMarshaler

// Unmarshaler is like encoding.BinaryUnmarshaler, but additionally
// reports how many bytes were consumed.
type Unmarshaler interface {
	UnmarshalBinary([]byte) (int, error)
}

// StaticSizer is implemented by Marshaler/Unmarshaler types whose
// encoding has a fixed length.
type StaticSizer interface {
	BinaryStaticSize() int
}

var (
	staticSizerType = reflect.TypeOf((*StaticSizer)(nil)).Elem()
	marshalerType   = reflect.TypeOf((*Marshaler)(nil)).Elem()
	unmarshalerType = reflect.TypeOf((*Unmarshaler)(nil)).Elem()
)

// StaticSize returns the encoded size of obj's type, panicking with
// an InvalidTypeError if the type is not statically sized.
func StaticSize(obj any) int {
	sz, err := staticSize(reflect.TypeOf(obj))
	if err != nil {
		panic(err)
	}
	return sz
}

func staticSize(typ reflect.Type) (int, error) {
	if typ.Implements(staticSizerType) {
		return reflect.New(typ).Elem().Interface().(StaticSizer).BinaryStaticSize(), nil
	}
	if typ.Implements(marshalerType) || typ.Implements(unmarshalerType) {
		return 0, &InvalidTypeError{
			Type: typ,
			Err:  errors.New("implements binstruct.Marshaler or binstruct.Unmarshaler but not binstruct.StaticSizer"),
		}
	}
	switch typ.Kind() {
	case reflect.Uint8, reflect.Int8:
		return 1, nil
	case reflect.Uint16, reflect.Int16:
		return 2, nil
	case reflect.Uint32, reflect.Int32:
		return 4, nil
	case reflect.Uint64, reflect.Int64:
		return 8, nil
	case reflect.Ptr:
		return staticSize(typ.Elem())
	case reflect.Array:
		elemSize, err := staticSize(typ.Elem())
		if err != nil {
			return 0, err
		}
		return elemSize * typ.Len(), nil
	case reflect.Struct:
		return getStructHandler(typ).size, nil
	default:
		return 0, &InvalidTypeError{
			Type: typ,
			Err:  fmt.Errorf("kind=%v is not statically sized", typ.Kind()),
		}
	}
}

// Marshal returns the encoding of obj.
func Marshal(obj any) ([]byte, error) {
	if mar, ok := obj.(Marshaler); ok {
		dat, err := mar.MarshalBinary()
		if err != nil {
			err = &MarshalError{
				Type:   reflect.TypeOf(obj),
				Method: "MarshalBinary",
				Err:    err,
			}
		}
		return dat, err
	}

	val := reflect.ValueOf(obj)
	switch val.Kind() {
	case reflect.Uint8, reflect.Int8, reflect.Uint16, reflect.Int16,
		reflect.Uint32, reflect.Int32, reflect.Uint64, reflect.Int64:
		buf := make([]byte, val.Type().Size())
		putInt(buf, val)
		return buf, nil
	case reflect.Ptr:
		return Marshal(val.Elem().Interface())
	case reflect.Array:
		if val.Type().Elem().Kind() == reflect.Uint8 {
			ret := make([]byte, val.Len())
			for i := range ret {
				ret[i] = byte(val.Index(i).Uint())
			}
			return ret, nil
		}
		var ret []byte
		for i := 0; i < val.Len(); i++ {
			bs, err := Marshal(val.Index(i).Interface())
			ret = append(ret, bs...)
			if err != nil {
				return ret, err
			}
		}
		return ret, nil
	case reflect.Struct:
		return getStructHandler(val.Type()).marshal(val)
	default:
		panic(&InvalidTypeError{
			Type: val.Type(),
			Err:  fmt.Errorf("does not implement binstruct.Marshaler and kind=%v is not encodable", val.Kind()),
		})
	}
}

// Unmarshal decodes the beginning of dat into *dstPtr, returning how
// many bytes it consumed.
func Unmarshal(dat []byte, dstPtr any) (int, error) {
	if unmar, ok := dstPtr.(Unmarshaler); ok {
		n, err := unmar.UnmarshalBinary(dat)
		if err != nil {
			err = &UnmarshalError{
				Type:   reflect.TypeOf(dstPtr),
				Method: "UnmarshalBinary",
				Err:    err,
			}
		}
		return n, err
	}

	ptr := reflect.ValueOf(dstPtr)
	if ptr.Kind() != reflect.Ptr {
		panic(&InvalidTypeError{
			Type: ptr.Type(),
			Err:  errors.New("not a pointer"),
		})
	}
	dst := ptr.Elem()

	switch dst.Kind() {
	case reflect.Uint8, reflect.Int8, reflect.Uint16, reflect.Int16,
		reflect.Uint32, reflect.Int32, reflect.Uint64, reflect.Int64:
		size := int(dst.Type().Size())
		if len(dat) < size {
			return 0, &UnmarshalError{
				Type: ptr.Type(),
				Err:  fmt.Errorf("need %d bytes but only have %d", size, len(dat)),
			}
		}
		getInt(dst, dat)
		return size, nil
	case reflect.Ptr:
		elemPtr := reflect.New(dst.Type().Elem())
		n, err := Unmarshal(dat, elemPtr.Interface())
		dst.Set(elemPtr.Convert(dst.Type()))
		return n, err
	case reflect.Array:
		if dst.Type().Elem().Kind() == reflect.Uint8 {
			if len(dat) < dst.Len() {
				return 0, &UnmarshalError{
					Type: ptr.Type(),
					Err:  fmt.Errorf("need %d bytes but only have %d", dst.Len(), len(dat)),
				}
			}
			for i := 0; i < dst.Len(); i++ {
				dst.Index(i).SetUint(uint64(dat[i]))
			}
			return dst.Len(), nil
		}
		var n int
		for i := 0; i < dst.Len(); i++ {
			_n, err := Unmarshal(dat[n:], dst.Index(i).Addr().Interface())
			n += _n
			if err != nil {
				return n, err
			}
		}
		return n, nil
	case reflect.Struct:
		return getStructHandler(dst.Type()).unmarshal(dat, dst)
	default:
		panic(&InvalidTypeError{
			Type: ptr.Type(),
			Err:  fmt.Errorf("does not implement binstruct.Unmarshaler and kind=%v is not decodable", dst.Kind()),
		})
	}
}

func putInt(buf []byte, val reflect.Value) {
	var u uint64
	switch val.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		u = uint64(val.Int())
	default:
		u = val.Uint()
	}
	switch len(buf) {
	case 1:
		buf[0] = byte(u)
	case 2:
		binary.LittleEndian.PutUint16(buf, uint16(u))
	case 4:
		binary.LittleEndian.PutUint32(buf, uint32(u))
	case 8:
		binary.LittleEndian.PutUint64(buf, u)
	}
}

func getInt(dst reflect.Value, dat []byte) {
	var u uint64
	var i int64
	switch dst.Type().Size() {
	case 1:
		u = uint64(dat[0])
		i = int64(int8(dat[0]))
	case 2:
		u = uint64(binary.LittleEndian.Uint16(dat))
		i = int64(int16(binary.LittleEndian.Uint16(dat)))
	case 4:
		u = uint64(binary.LittleEndian.Uint32(dat))
		i = int64(int32(binary.LittleEndian.Uint32(dat)))
	case 8:
		u = binary.LittleEndian.Uint64(dat)
		i = int64(u)
	}
	switch dst.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		dst.SetInt(i)
	default:
		dst.SetUint(u)
	}
}
