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

package derivation

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"

	"github.com/ethereum-optimism/op-program/client/rollup"
)

// maxChannelOutputSize bounds a single decompressed channel's size,
// guarding against a zip-bomb style blow-up from a malicious batcher.
const maxChannelOutputSize = 100_000_000

// channelVersionBrotli is the first byte of a channel compressed with
// brotli instead of zlib, used from Fjord onward.
const channelVersionBrotli = 0x01

// ChannelReader decompresses assembled channel bytes into the raw batch
// stream (spec.md §4.6.5): zlib before Fjord, brotli from Fjord onward,
// selected by the channel's first byte.
type ChannelReader struct {
	cfg   *rollup.Config
	upper *ChannelBank
}

func NewChannelReader(cfg *rollup.Config, upper *ChannelBank) *ChannelReader {
	return &ChannelReader{cfg: cfg, upper: upper}
}

// NextBatchData returns the next channel's decompressed bytes, skipping
// (not failing the stage on) any channel that fails to decompress or
// exceeds the output bound: a bad channel is the batcher's fault, not a
// reason to abort derivation.
func (r *ChannelReader) NextBatchData(l1Time uint64) ([]byte, error) {
	for {
		raw, err := r.upper.NextChannel()
		if err != nil {
			return nil, err
		}
		data, err := r.decompress(raw, l1Time)
		if err != nil {
			continue
		}
		return data, nil
	}
}

func (r *ChannelReader) decompress(raw []byte, l1Time uint64) ([]byte, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty channel")
	}
	var reader io.Reader
	if raw[0] == channelVersionBrotli {
		if !r.cfg.IsFjord(l1Time) {
			return nil, fmt.Errorf("brotli channel before fjord activation")
		}
		reader = brotli.NewReader(bytes.NewReader(raw[1:]))
	} else {
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		reader = zr
	}
	limited := io.LimitReader(reader, maxChannelOutputSize+1)
	out, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if len(out) > maxChannelOutputSize {
		return nil, fmt.Errorf("decompressed channel exceeds %d bytes", maxChannelOutputSize)
	}
	return out, nil
}
