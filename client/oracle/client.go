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

// Package oracle implements the preimage-oracle wire protocol (spec.md
// §4.1, §6): two unidirectional byte streams, one for typed preimage
// request/response, one for hints. The client is single-threaded,
// reentrant only by nesting through the pipeline's cooperative task, and
// every failure here is fatal (Critical) — there is no partial-preimage
// recovery.
package oracle

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/ethereum-optimism/op-program/client/types"
)

// ErrInvalidPreimageKey is returned when a caller asks for a key whose
// type byte the client does not recognize.
var ErrInvalidPreimageKey = errors.New("invalid preimage key")

// Client implements the oracle and hint channels over any io.ReadWriter
// pair. In the FPVM this is backed by file descriptors 3/4 (oracle) and
// 5/6 (hints); in tests it is backed by in-memory pipes.
type Client struct {
	preimageRW io.ReadWriter
	hintRW     io.ReadWriter
}

func NewClient(preimageRW, hintRW io.ReadWriter) *Client {
	return &Client{preimageRW: preimageRW, hintRW: hintRW}
}

// Get requests the preimage for key and returns the full response body.
// All failure modes are Critical: a malformed transport means the host
// and client have desynchronized and nothing downstream can be trusted.
func (c *Client) Get(key Key) ([]byte, error) {
	if key.Type() == KeyTypeInvalid || key.Type() > KeyTypeKeccak256ViaPrecompile {
		return nil, types.NewCriticalError(fmt.Errorf("%w: type %d", ErrInvalidPreimageKey, key.Type()))
	}
	if err := binary.Write(c.preimageRW, binary.BigEndian, uint64(len(key))); err != nil {
		return nil, types.NewCriticalError(fmt.Errorf("write preimage request length: %w", err))
	}
	if _, err := c.preimageRW.Write(key[:]); err != nil {
		return nil, types.NewCriticalError(fmt.Errorf("write preimage request key: %w", err))
	}
	var length uint64
	if err := binary.Read(c.preimageRW, binary.BigEndian, &length); err != nil {
		return nil, types.NewCriticalError(fmt.Errorf("read preimage response length: %w", err))
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(c.preimageRW, payload); err != nil {
		return nil, types.NewCriticalError(fmt.Errorf("short read of preimage response (want %d): %w", length, err))
	}
	return payload, nil
}

// WriteHint writes a hint describing the intent of the next Get calls,
// then blocks for the host's single-byte acknowledgement.
func (c *Client) WriteHint(hint string) error {
	data := []byte(hint)
	if err := binary.Write(c.hintRW, binary.BigEndian, uint32(len(data))); err != nil {
		return types.NewCriticalError(fmt.Errorf("write hint length: %w", err))
	}
	if _, err := c.hintRW.Write(data); err != nil {
		return types.NewCriticalError(fmt.Errorf("write hint body: %w", err))
	}
	var ack [1]byte
	if _, err := io.ReadFull(c.hintRW, ack[:]); err != nil {
		return types.NewCriticalError(fmt.Errorf("read hint ack: %w", err))
	}
	if ack[0] != 1 {
		return types.NewCriticalError(fmt.Errorf("unexpected hint ack byte: %d", ack[0]))
	}
	return nil
}
