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

import "os"

// Standard file descriptor numbers the FPVM wires the two channels to.
// The host opens these as pipes before exec'ing the client program.
const (
	FDPreimageRead  = 3
	FDPreimageWrite = 4
	FDHintRead      = 5
	FDHintWrite     = 6
)

// pipeRW glues together a read-only and a write-only *os.File into the
// io.ReadWriter the Client needs, since the two directions of each
// channel are distinct file descriptors.
type pipeRW struct {
	r *os.File
	w *os.File
}

func (p pipeRW) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p pipeRW) Write(b []byte) (int, error) { return p.w.Write(b) }

// NewFDClient builds a Client from the standard FPVM file descriptors.
func NewFDClient() *Client {
	preimage := pipeRW{r: os.NewFile(FDPreimageRead, "preimage-read"), w: os.NewFile(FDPreimageWrite, "preimage-write")}
	hint := pipeRW{r: os.NewFile(FDHintRead, "hint-read"), w: os.NewFile(FDHintWrite, "hint-write")}
	return NewClient(preimage, hint)
}
