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
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/op-program/client/rollup"
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

func zlibCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func brotliCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return append([]byte{channelVersionBrotli}, buf.Bytes()...)
}

// channelBankWith seeds a ChannelBank so it returns exactly one completed
// channel with the given raw (already-compressed) bytes.
func channelBankWith(cfg *rollup.Config, raw []byte) *ChannelBank {
	id := optypes.ChannelID{1}
	fq := frameQueueWith(cfg, optypes.Frame{ChannelID: id, FrameNumber: 0, Data: raw, IsLast: true})
	bank := NewChannelBank(cfg, fq)
	bank.SetOrigin(1, 100)
	return bank
}

func TestChannelReader_ZlibDecompress(t *testing.T) {
	cfg := &rollup.Config{ChannelTimeout: 100, FjordTime: rollup.NeverActivated}
	payload := []byte("the quick brown fox jumps over the lazy dog")
	bank := channelBankWith(cfg, zlibCompress(t, payload))
	r := NewChannelReader(cfg, bank)

	out, err := r.NextBatchData(0)
	require.NoError(t, err)
	require.Equal(t, payload, out)
}

func TestChannelReader_BrotliPostFjord(t *testing.T) {
	cfg := &rollup.Config{ChannelTimeout: 100, FjordTime: 0}
	payload := []byte("brotli channel payload")
	bank := channelBankWith(cfg, brotliCompress(t, payload))
	r := NewChannelReader(cfg, bank)

	out, err := r.NextBatchData(0)
	require.NoError(t, err)
	require.Equal(t, payload, out)
}

func TestChannelReader_BrotliBeforeFjordIsSkipped(t *testing.T) {
	cfg := &rollup.Config{ChannelTimeout: 100, FjordTime: rollup.NeverActivated}
	payload := []byte("brotli too early")
	bank := channelBankWith(cfg, brotliCompress(t, payload))
	r := NewChannelReader(cfg, bank)

	_, err := r.NextBatchData(0)
	require.Error(t, err, "brotli channel pre-Fjord must be skipped, not decoded")
}

func TestChannelReader_MalformedChannelIsSkippedNotFatal(t *testing.T) {
	cfg := &rollup.Config{ChannelTimeout: 100}
	bank := channelBankWith(cfg, []byte("not a valid zlib stream"))
	r := NewChannelReader(cfg, bank)

	_, err := r.NextBatchData(0)
	require.Error(t, err)
	require.True(t, optypes.IsTemporary(err), "exhausted with no valid channel must surface as EOF, not fatal")
}
