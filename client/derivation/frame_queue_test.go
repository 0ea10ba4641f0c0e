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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/op-program/client/rollup"
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

func holoceneConfig() *rollup.Config {
	return &rollup.Config{HoloceneTime: 0}
}

func TestFrameQueue_PreHolocene_TolerantOrdering(t *testing.T) {
	// pre-Holocene config never enters the strict admission path, so
	// frames are handed back in arrival order regardless of frame number.
	cfg := &rollup.Config{HoloceneTime: rollup.NeverActivated}
	fq := NewFrameQueue(cfg, nil)
	id := optypes.ChannelID{1}
	fq.queue = []optypes.Frame{
		{ChannelID: id, FrameNumber: 1, Data: []byte("b")},
		{ChannelID: id, FrameNumber: 0, Data: []byte("a"), IsLast: true},
	}

	f1, err := fq.NextFrame(0)
	require.NoError(t, err)
	require.Equal(t, uint16(1), f1.FrameNumber)

	f2, err := fq.NextFrame(0)
	require.NoError(t, err)
	require.Equal(t, uint16(0), f2.FrameNumber)
}

func TestFrameQueue_Holocene_RejectsNonZeroFirstFrame(t *testing.T) {
	cfg := holoceneConfig()
	fq := NewFrameQueue(cfg, nil)
	id := optypes.ChannelID{1}
	fq.queue = []optypes.Frame{
		{ChannelID: id, FrameNumber: 1, Data: []byte("x")},
		{ChannelID: id, FrameNumber: 0, Data: []byte("y"), IsLast: true},
	}
	// frame 1 arriving first is dropped outright, frame 0 is admitted next.
	f, err := fq.NextFrame(1)
	require.NoError(t, err)
	require.Equal(t, uint16(0), f.FrameNumber)
}

func TestFrameQueue_Holocene_DropsChannelOnOutOfOrderFrame(t *testing.T) {
	cfg := holoceneConfig()
	fq := NewFrameQueue(cfg, nil)
	idA := optypes.ChannelID{1}
	idB := optypes.ChannelID{2}
	fq.queue = []optypes.Frame{
		{ChannelID: idA, FrameNumber: 0, Data: []byte("a0")},
		{ChannelID: idA, FrameNumber: 2, Data: []byte("a2")}, // skips frame 1: drop channel A
		{ChannelID: idB, FrameNumber: 0, Data: []byte("b0"), IsLast: true},
	}

	f1, err := fq.NextFrame(1)
	require.NoError(t, err)
	require.Equal(t, idA, f1.ChannelID)
	require.Equal(t, uint16(0), f1.FrameNumber)

	// frame 2 of channel A is out of order (expected 1): dropped, and since
	// it belongs to the already-open channel it yields nothing by itself,
	// so the next admitted frame is channel B's frame 0.
	f2, err := fq.NextFrame(1)
	require.NoError(t, err)
	require.Equal(t, idB, f2.ChannelID)
}

func TestFrameQueue_Holocene_AcceptsContiguousFrames(t *testing.T) {
	cfg := holoceneConfig()
	fq := NewFrameQueue(cfg, nil)
	id := optypes.ChannelID{9}
	fq.queue = []optypes.Frame{
		{ChannelID: id, FrameNumber: 0, Data: []byte("a")},
		{ChannelID: id, FrameNumber: 1, Data: []byte("b")},
		{ChannelID: id, FrameNumber: 2, Data: []byte("c"), IsLast: true},
	}
	for i := uint16(0); i < 3; i++ {
		f, err := fq.NextFrame(1)
		require.NoError(t, err)
		require.Equal(t, i, f.FrameNumber)
	}
}
