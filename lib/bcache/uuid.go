// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

package bcache

import (
	"encoding"
	"fmt"

	"github.com/google/uuid"

	"github.com/zoumingzhe/bcache-tools-easystack/lib/fmtutil"
)

// UUID is a device or cache-set identity.
type UUID [16]byte

var (
	_ fmt.Stringer             = UUID{}
	_ fmt.Formatter            = UUID{}
	_ encoding.TextMarshaler   = UUID{}
	_ encoding.TextUnmarshaler = (*UUID)(nil)
)

// GenerateUUID returns a fresh random identity.
func GenerateUUID() UUID {
	return UUID(uuid.New())
}

// ParseUUID parses the canonical
// "xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx" form.
func ParseUUID(str string) (UUID, error) {
	id, err := uuid.Parse(str)
	if err != nil {
		return UUID{}, err
	}
	return UUID(id), nil
}

func MustParseUUID(str string) UUID {
	ret, err := ParseUUID(str)
	if err != nil {
		panic(err)
	}
	return ret
}

func (u UUID) String() string {
	return uuid.UUID(u).String()
}

func (u UUID) IsZero() bool {
	return u == UUID{}
}

func (u UUID) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

func (u *UUID) UnmarshalText(text []byte) error {
	var err error
	*u, err = ParseUUID(string(text))
	return err
}

func (u UUID) Format(f fmt.State, verb rune) {
	fmtutil.FormatByteArrayStringer(u, u[:], f, verb)
}
