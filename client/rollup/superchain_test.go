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

package rollup

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigByChainID_ReturnsRegistered(t *testing.T) {
	cfg := &Config{L2ChainID: 999999}
	Register(999999, cfg)

	got, err := ConfigByChainID(999999)
	require.NoError(t, err)
	require.Same(t, cfg, got)
}

func TestConfigByChainID_UnknownChainIsError(t *testing.T) {
	_, err := ConfigByChainID(1234567890123)
	require.Error(t, err)
}
