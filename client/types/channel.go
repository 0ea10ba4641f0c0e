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
	"github.com/RoaringBitmap/roaring/v2"
)

// ChannelID identifies a Channel across potentially many L1 blocks.
type ChannelID = [16]byte

// Channel accumulates the frames sharing a ChannelID until it is ready
// (the last frame arrived and every lower-numbered frame is present) or
// it times out.
type Channel struct {
	ID ChannelID

	// OpenBlock is the L1 block number the first frame of this channel
	// was seen in; the channel must close by OpenBlock+channel_timeout.
	OpenBlock uint64

	frames     map[uint16][]byte
	seen       *roaring.Bitmap
	closedAt   uint16 // frame number marked IsLast, or invalid if !closed
	closed     bool
	size       uint64
}

func NewChannel(id ChannelID, openBlock uint64) *Channel {
	return &Channel{
		ID:        id,
		OpenBlock: openBlock,
		frames:    make(map[uint16][]byte),
		seen:      roaring.New(),
	}
}

// AddFrame records data for the frame number; returns false if the frame
// number was already seen (deduplicated, not an error).
func (c *Channel) AddFrame(f Frame) bool {
	if c.seen.Contains(uint32(f.FrameNumber)) {
		return false
	}
	c.seen.Add(uint32(f.FrameNumber))
	c.frames[f.FrameNumber] = f.Data
	c.size += uint64(len(f.Data))
	if f.IsLast {
		c.closed = true
		c.closedAt = f.FrameNumber
	}
	return true
}

// Size is the sum of all frame payload bytes accumulated so far, counted
// toward the channel bank's total-size bound.
func (c *Channel) Size() uint64 { return c.size }

// IsReady reports whether every frame from 0 up to and including the
// frame marked IsLast has arrived, with no gaps.
func (c *Channel) IsReady() bool {
	if !c.closed {
		return false
	}
	for i := uint16(0); i <= c.closedAt; i++ {
		if !c.seen.Contains(uint32(i)) {
			return false
		}
	}
	return true
}

// TimedOut reports whether the channel has exceeded its deadline as of
// the given current L1 block number.
func (c *Channel) TimedOut(l1Block uint64, channelTimeout uint64) bool {
	return l1Block > c.OpenBlock+channelTimeout
}

// Assemble concatenates frame payloads 0..closedAt in order. Callers
// must only call this once IsReady returns true.
func (c *Channel) Assemble() []byte {
	out := make([]byte, 0, c.size)
	for i := uint16(0); i <= c.closedAt; i++ {
		out = append(out, c.frames[i]...)
	}
	return out
}
