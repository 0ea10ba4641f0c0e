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
	"github.com/ethereum-optimism/op-program/client/rollup"
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// FrameQueue parses each data stream L1 Retrieval hands it into frames,
// and enforces Holocene's strict per-channel frame ordering (spec.md
// §4.6.3): once Holocene is active, a channel's frame 0 must be the
// first frame any of its frames are seen in, and every later frame for
// that channel must arrive with a strictly increasing frame number, or
// the whole in-progress channel is dropped rather than just the
// offending frame.
type FrameQueue struct {
	cfg   *rollup.Config
	upper *L1Retrieval

	queue []optypes.Frame

	// holocene per-channel ordering state.
	openChannel  optypes.ChannelID
	haveOpen     bool
	nextFrameNum uint16
}

func NewFrameQueue(cfg *rollup.Config, upper *L1Retrieval) *FrameQueue {
	return &FrameQueue{cfg: cfg, upper: upper}
}

// NextFrame returns the next frame in arrival order, or types.EOF once
// the current pending frames are drained and the caller must pull more
// data from below.
func (q *FrameQueue) NextFrame(l1Time uint64) (optypes.Frame, error) {
	for {
		if len(q.queue) > 0 {
			f := q.queue[0]
			q.queue = q.queue[1:]
			if q.cfg.IsHolocene(l1Time) {
				if drop := !q.admitHolocene(f); drop {
					continue
				}
			}
			return f, nil
		}
		data, err := q.upper.NextData()
		if err != nil {
			return optypes.Frame{}, err
		}
		frames, err := optypes.ParseFrames(data)
		if err != nil {
			// malformed batcher data is simply ignored, not fatal:
			// garbage on the batch inbox is expected background noise.
			continue
		}
		q.queue = frames
	}
}

// admitHolocene reports whether f is consistent with Holocene's frame
// ordering rule, dropping the in-progress channel and resetting tracking
// state if not.
func (q *FrameQueue) admitHolocene(f optypes.Frame) bool {
	if !q.haveOpen {
		if f.FrameNumber != 0 {
			return false
		}
		q.haveOpen = true
		q.openChannel = f.ChannelID
		q.nextFrameNum = 1
		if f.IsLast {
			q.haveOpen = false
		}
		return true
	}
	if f.ChannelID != q.openChannel || f.FrameNumber != q.nextFrameNum {
		// out-of-order or interleaved frame: drop the open channel and
		// retry admitting f as if no channel were open.
		q.haveOpen = false
		if f.ChannelID == q.openChannel {
			return false
		}
		return q.admitHolocene(f)
	}
	q.nextFrameNum++
	if f.IsLast {
		q.haveOpen = false
	}
	return true
}
