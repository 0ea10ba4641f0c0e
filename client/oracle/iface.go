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

// Oracle is the capability every data provider in client/providers
// depends on. *Client satisfies it over the real fd transport;
// testoracle.Oracle satisfies it in-memory for tests.
type Oracle interface {
	Get(key Key) ([]byte, error)
	WriteHint(hint string) error
}

var _ Oracle = (*Client)(nil)
