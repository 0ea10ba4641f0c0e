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

package mpt

// keyToNibbles expands a byte path into its nibble sequence, high nibble
// first, with a trailing terminator (16) appended so a shortNode's Key
// can be compared against a branch slot's 0-15 range unambiguously.
func keyToNibbles(key []byte) []byte {
	out := make([]byte, len(key)*2+1)
	for i, b := range key {
		out[i*2] = b / 16
		out[i*2+1] = b % 16
	}
	out[len(out)-1] = 16
	return out
}

// nibblesToKey collapses a nibble sequence (without its terminator) back
// into bytes. Only ever called on complete, even-length key nibbles.
func nibblesToKey(nibbles []byte) []byte {
	if len(nibbles) != 0 && nibbles[len(nibbles)-1] == 16 {
		nibbles = nibbles[:len(nibbles)-1]
	}
	out := make([]byte, len(nibbles)/2)
	for i := range out {
		out[i] = nibbles[i*2]<<4 | nibbles[i*2+1]
	}
	return out
}

// commonPrefixLen returns how many leading nibbles a and b share.
func commonPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// hasTerm reports whether a nibble slice ends with the terminator byte.
func hasTerm(nibbles []byte) bool {
	return len(nibbles) > 0 && nibbles[len(nibbles)-1] == 16
}

// compactEncode implements Ethereum's hex-prefix encoding used for a
// shortNode's Key when it appears in a node's RLP encoding.
func compactEncode(nibbles []byte) []byte {
	term := hasTerm(nibbles)
	if term {
		nibbles = nibbles[:len(nibbles)-1]
	}
	oddLen := len(nibbles) % 2
	flag := byte(0)
	if term {
		flag = 2
	}
	flag += byte(oddLen)

	var raw []byte
	if oddLen == 1 {
		raw = append(raw, flag<<4|nibbles[0])
		nibbles = nibbles[1:]
	} else {
		raw = append(raw, flag<<4)
	}
	for i := 0; i < len(nibbles); i += 2 {
		raw = append(raw, nibbles[i]<<4|nibbles[i+1])
	}
	return raw
}

// compactDecode is the inverse of compactEncode, appending the
// terminator nibble 16 that compactEncode strips whenever the flag's
// term bit is set.
func compactDecode(raw []byte) (nibbles []byte, term bool) {
	if len(raw) == 0 {
		return nil, false
	}
	flag := raw[0] >> 4
	term = flag&2 != 0
	odd := flag&1 != 0
	if odd {
		nibbles = append(nibbles, raw[0]&0xf)
	}
	for _, b := range raw[1:] {
		nibbles = append(nibbles, b>>4, b&0xf)
	}
	if term {
		nibbles = append(nibbles, 16)
	}
	return nibbles, term
}
