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

import "fmt"

// registry is the well-known-chain-id → Config lookup that program.Run
// falls back on when its boot info carries no rollup config. boot.Load
// fails when boot key 6 (serialized rollup config) cannot be read, so a
// run that boots through it does not reach this lookup.
var registry = map[uint64]*Config{}

// Register adds or overwrites the well-known configuration for chainID.
// Nothing in this module registers a chain, so the registry starts
// empty; tests register fixtures through it.
func Register(chainID uint64, cfg *Config) {
	registry[chainID] = cfg
}

// ConfigByChainID returns the well-known Config for chainID, if any.
func ConfigByChainID(chainID uint64) (*Config, error) {
	cfg, ok := registry[chainID]
	if !ok {
		return nil, fmt.Errorf("no well-known rollup config for chain id %d", chainID)
	}
	return cfg, nil
}
