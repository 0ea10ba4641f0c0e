// Copyright 2024 The op-program Authors
// This file is part of op-program.
//
// op-program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// op-program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with op-program. If not, see <http://www.gnu.org/licenses/>.

// Package providers implements the thin, oracle-backed data-provider
// adapters of spec.md §4.2: hint, wait for ack, read preimages, decode.
package providers

import lru "github.com/hashicorp/golang-lru/v2"

// defaultCacheSize bounds the number of recent decodes each provider
// keeps, avoiding repeated oracle round-trips for headers/blobs that are
// read more than once within a single derivation run (e.g. an epoch's L1
// origin header is read by both the L1 traversal stage and the
// attributes builder).
const defaultCacheSize = 256

func newCache[K comparable, V any]() *lru.Cache[K, V] {
	c, err := lru.New[K, V](defaultCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which is a
		// programmer error, not a runtime condition.
		panic(err)
	}
	return c
}
