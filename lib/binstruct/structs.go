// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

package binstruct

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"git.lukeshu.com/go/typedsync"
)

// End pins the total size of a structure; it must be the last field,
// with a `bin:"off=0x…"` tag giving the expected size.
type End struct{}

var endType = reflect.TypeOf(End{})

type tag struct {
	skip bool

	off int
	siz int
}

func parseStructTag(str string) (tag, error) {
	var ret tag
	for _, part := range strings.Split(str, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if part == "-" {
			return tag{skip: true}, nil
		}
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return tag{}, fmt.Errorf("option is not a key=value pair: %q", part)
		}
		vint, err := strconv.ParseInt(val, 0, 0)
		if err != nil {
			return tag{}, err
		}
		switch key {
		case "off":
			ret.off = int(vint)
		case "siz":
			ret.siz = int(vint)
		default:
			return tag{}, fmt.Errorf("unrecognized option %q", key)
		}
	}
	return ret, nil
}

type structHandler struct {
	name   string
	size   int
	fields []structField
}

type structField struct {
	name string
	tag
}

func (sh structHandler) marshal(val reflect.Value) ([]byte, error) {
	ret := make([]byte, 0, sh.size)
	for i, field := range sh.fields {
		if field.skip {
			continue
		}
		bs, err := Marshal(val.Field(i).Interface())
		ret = append(ret, bs...)
		if err != nil {
			return ret, fmt.Errorf("struct %q field %v %q: %w",
				sh.name, i, field.name, err)
		}
	}
	return ret, nil
}

func (sh structHandler) unmarshal(dat []byte, dst reflect.Value) (int, error) {
	if len(dat) < sh.size {
		return 0, fmt.Errorf("struct %q: need %d bytes but only have %d",
			sh.name, sh.size, len(dat))
	}
	var n int
	for i, field := range sh.fields {
		if field.skip {
			continue
		}
		_n, err := Unmarshal(dat[n:], dst.Field(i).Addr().Interface())
		if err != nil {
			if _n >= 0 {
				n += _n
			}
			return n, fmt.Errorf("struct %q field %v %q: %w",
				sh.name, i, field.name, err)
		}
		if _n != field.siz {
			return n, fmt.Errorf("struct %q field %v %q: consumed %v bytes but expected %v",
				sh.name, i, field.name, _n, field.siz)
		}
		n += _n
	}
	return n, nil
}

func genStructHandler(structInfo reflect.Type) (structHandler, error) {
	ret := structHandler{
		name: structInfo.String(),
	}

	var curOffset, endOffset int
	for i := 0; i < structInfo.NumField(); i++ {
		fieldInfo := structInfo.Field(i)
		fieldErr := func(err error) error {
			return fmt.Errorf("struct %q field %v %q: %w",
				ret.name, i, fieldInfo.Name, err)
		}

		if fieldInfo.Anonymous && fieldInfo.Type != endType {
			return ret, fieldErr(fmt.Errorf("embedded fields are not supported"))
		}

		fieldTag, err := parseStructTag(fieldInfo.Tag.Get("bin"))
		if err != nil {
			return ret, fieldErr(err)
		}
		if fieldTag.skip {
			ret.fields = append(ret.fields, structField{
				name: fieldInfo.Name,
				tag:  fieldTag,
			})
			continue
		}

		if fieldTag.off != curOffset {
			return ret, fieldErr(fmt.Errorf("tag says off=%#x but actual offset is %#x",
				fieldTag.off, curOffset))
		}
		if fieldInfo.Type == endType {
			endOffset = curOffset
		}

		fieldSize, err := staticSize(fieldInfo.Type)
		if err != nil {
			return ret, fieldErr(err)
		}
		if fieldTag.siz != fieldSize {
			return ret, fieldErr(fmt.Errorf("tag says siz=%#x but StaticSize(typ)=%#x",
				fieldTag.siz, fieldSize))
		}
		curOffset += fieldTag.siz

		ret.fields = append(ret.fields, structField{
			name: fieldInfo.Name,
			tag:  fieldTag,
		})
	}
	ret.size = curOffset

	if ret.size != endOffset {
		return ret, fmt.Errorf("struct %q: size=%v but the End field says %v",
			ret.name, ret.size, endOffset)
	}

	return ret, nil
}

var structCache typedsync.Map[reflect.Type, structHandler]

func getStructHandler(typ reflect.Type) structHandler {
	if h, ok := structCache.Load(typ); ok {
		return h
	}

	h, err := genStructHandler(typ)
	if err != nil {
		panic(&InvalidTypeError{
			Type: typ,
			Err:  err,
		})
	}
	structCache.Store(typ, h)
	return h
}
