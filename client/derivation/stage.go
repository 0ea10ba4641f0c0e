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

// Package derivation implements the nine pull-based pipeline stages that
// turn L1 chain data into L2 payload attributes (spec.md §4.6, C6): L1
// Traversal, L1 Retrieval, Frame Queue, Channel Bank, Channel Reader,
// Batch Stream, Batch Queue (pre-Holocene) / Batch Validator
// (Holocene+), and the Attributes Queue at the top, which hands each
// batch to client/attributes' Builder.
//
// Every stage follows the same shape: a NextXxx method that either
// returns the next item or a Temporary types.EOF-classified error
// meaning "nothing more is available from below yet". L1 Retrieval is
// the stage that steps L1 Traversal forward, once the current block's
// data is exhausted; EOF from L1 Traversal means every block up to the
// trusted L1 head has been served.
package derivation

import (
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// next pulls repeatedly from fn until it yields a non-EOF result or a
// non-Temporary error, stepping the underlying L1 origin forward via
// advance each time fn reports EOF. This is the common "pull from below,
// advance the bottom of the stack on empty" loop every stage but L1
// Traversal itself needs.
func next[T any](fn func() (T, error), advance func() error) (T, error) {
	for {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		if !optypes.IsTemporary(err) {
			return v, err
		}
		if advErr := advance(); advErr != nil {
			return v, advErr
		}
	}
}
