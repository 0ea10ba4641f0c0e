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

func TestConfig_ActivationChecks(t *testing.T) {
	cfg := &Config{CanyonTime: 100, EcotoneTime: NeverActivated}
	require.False(t, cfg.IsCanyon(99))
	require.True(t, cfg.IsCanyon(100))
	require.True(t, cfg.IsCanyon(200))
	require.False(t, cfg.IsEcotone(1<<62))
}

func TestConfig_ActivationBlock(t *testing.T) {
	cfg := &Config{HoloceneTime: 1000}
	require.True(t, cfg.IsHoloceneActivationBlock(1000, 998))
	require.False(t, cfg.IsHoloceneActivationBlock(1002, 1000), "parent already past activation")
	require.False(t, cfg.IsHoloceneActivationBlock(998, 996), "neither side activated yet")
}

func TestConfig_ChannelTimeoutAt_GraniteShortens(t *testing.T) {
	cfg := &Config{
		ChannelTimeout:        300,
		ChannelTimeoutGranite: 50,
		GraniteTime:           500,
	}
	require.Equal(t, uint64(300), cfg.ChannelTimeoutAt(499))
	require.Equal(t, uint64(50), cfg.ChannelTimeoutAt(500))
}

func TestConfig_ChannelTimeoutAt_ZeroGraniteOverrideKeepsDefault(t *testing.T) {
	cfg := &Config{ChannelTimeout: 300, GraniteTime: 500}
	require.Equal(t, uint64(300), cfg.ChannelTimeoutAt(600))
}
