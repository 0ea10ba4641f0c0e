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
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxFrameLen is the largest a single frame's data payload may be once
// framing overhead is accounted for.
const MaxFrameLen = 1_000_000

// DerivationVersion0 is the only batcher-transaction tag this program
// understands.
const DerivationVersion0 = 0

// Frame is one fragment of a Channel, as posted to the batch-inbox
// address in calldata or carried inside an EIP-4844 blob.
type Frame struct {
	ChannelID   [16]byte
	FrameNumber uint16
	Data        []byte
	IsLast      bool
}

// frameHeaderLen is channel_id(16) + frame_number(2) + frame_data_length(4);
// the is_last byte follows the data.
const frameHeaderLen = 16 + 2 + 4

// MarshalBinary encodes a single frame using the batch-inbox wire format.
func (f Frame) MarshalBinary() ([]byte, error) {
	if len(f.Data) > MaxFrameLen {
		return nil, fmt.Errorf("frame data exceeds max length: %d", len(f.Data))
	}
	out := make([]byte, 0, frameHeaderLen+len(f.Data))
	out = append(out, f.ChannelID[:]...)
	out = binary.BigEndian.AppendUint16(out, f.FrameNumber)
	out = binary.BigEndian.AppendUint32(out, uint32(len(f.Data)))
	out = append(out, f.Data...)
	if f.IsLast {
		out = append(out, 1)
	} else {
		out = append(out, 0)
	}
	return out, nil
}

// ParseFrames decodes every frame out of a single version-0 batcher
// transaction payload (the version byte must already be stripped).
func ParseFrames(data []byte) ([]Frame, error) {
	var frames []Frame
	for len(data) > 0 {
		var f Frame
		n, err := f.unmarshal(data)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
		data = data[n:]
	}
	if len(frames) == 0 {
		return nil, errors.New("no frames decoded")
	}
	return frames, nil
}

func (f *Frame) unmarshal(data []byte) (int, error) {
	if len(data) < frameHeaderLen {
		return 0, io.ErrUnexpectedEOF
	}
	copy(f.ChannelID[:], data[:16])
	f.FrameNumber = binary.BigEndian.Uint16(data[16:18])
	frameLen := binary.BigEndian.Uint32(data[18:22])
	if frameLen > MaxFrameLen {
		return 0, fmt.Errorf("frame too large: %d", frameLen)
	}
	end := frameHeaderLen + int(frameLen)
	if len(data) < end+1 {
		return 0, io.ErrUnexpectedEOF
	}
	f.Data = append([]byte(nil), data[frameHeaderLen:end]...)
	switch data[end] {
	case 0:
		f.IsLast = false
	case 1:
		f.IsLast = true
	default:
		return 0, fmt.Errorf("invalid is_last byte: %d", data[end])
	}
	return end + 1, nil
}
