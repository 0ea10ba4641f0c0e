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

package oracle

import (
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// loopback wires a client-facing io.ReadWriter to a host-facing one over
// in-memory pipes, so tests can drive both ends without fds.
type loopback struct {
	clientSide io.ReadWriter
	hostRead   io.Reader
	hostWrite  io.Writer
}

func newLoopback() loopback {
	cr, hw := io.Pipe()
	hr, cw := io.Pipe()
	return loopback{
		clientSide: struct {
			io.Reader
			io.Writer
		}{cr, cw},
		hostRead:  hr,
		hostWrite: hw,
	}
}

func TestClient_Get_RoundTrip(t *testing.T) {
	lb := newLoopback()
	client := NewClient(lb.clientSide, lb.clientSide)

	payload := []byte("hello preimage")
	go func() {
		var length uint64
		_ = binary.Read(lb.hostRead, binary.BigEndian, &length)
		var key [32]byte
		_, _ = io.ReadFull(lb.hostRead, key[:])
		_ = binary.Write(lb.hostWrite, binary.BigEndian, uint64(len(payload)))
		_, _ = lb.hostWrite.Write(payload)
	}()

	var key Key
	key[0] = byte(KeyTypeLocal)
	got, err := client.Get(key)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestClient_Get_InvalidKeyType(t *testing.T) {
	lb := newLoopback()
	client := NewClient(lb.clientSide, lb.clientSide)

	var key Key
	key[0] = 99
	_, err := client.Get(key)
	require.Error(t, err)
}

func TestClient_WriteHint_RoundTrip(t *testing.T) {
	lb := newLoopback()
	client := NewClient(lb.clientSide, lb.clientSide)

	received := make(chan string, 1)
	go func() {
		var length uint32
		_ = binary.Read(lb.hostRead, binary.BigEndian, &length)
		buf := make([]byte, length)
		_, _ = io.ReadFull(lb.hostRead, buf)
		received <- string(buf)
		_, _ = lb.hostWrite.Write([]byte{1})
	}()

	require.NoError(t, client.WriteHint("l1-block-header deadbeef"))
	require.Equal(t, "l1-block-header deadbeef", <-received)
}
