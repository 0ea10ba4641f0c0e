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

package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChannel_NotReadyUntilClosedAndContiguous(t *testing.T) {
	c := NewChannel(ChannelID{1}, 100)
	require.False(t, c.IsReady())

	c.AddFrame(Frame{FrameNumber: 1, Data: []byte("b"), IsLast: true})
	require.False(t, c.IsReady(), "frame 0 is still missing")

	c.AddFrame(Frame{FrameNumber: 0, Data: []byte("a")})
	require.True(t, c.IsReady())
	require.Equal(t, []byte("ab"), c.Assemble())
}

func TestChannel_DuplicateFrameIsIgnored(t *testing.T) {
	c := NewChannel(ChannelID{1}, 100)
	require.True(t, c.AddFrame(Frame{FrameNumber: 0, Data: []byte("a"), IsLast: true}))
	require.False(t, c.AddFrame(Frame{FrameNumber: 0, Data: []byte("a"), IsLast: true}))
	require.Equal(t, uint64(1), c.Size())
}

func TestChannel_TimedOutBoundary(t *testing.T) {
	c := NewChannel(ChannelID{1}, 100)
	// open at block 100, timeout 50: admitted through block 150, rejected at 151.
	require.False(t, c.TimedOut(150, 50))
	require.True(t, c.TimedOut(151, 50))
}
