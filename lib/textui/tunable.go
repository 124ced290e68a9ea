// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

package textui

// Tunable annotates a value as something that might want to be tuned
// as the program gets optimized.
func Tunable[T any](x T) T {
	return x
}
