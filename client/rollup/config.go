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

// Package rollup holds the rollup's static configuration: genesis
// anchors, chain ids, timing parameters, and the per-hardfork activation
// schedule. Nothing here is mutated after boot; it is threaded explicitly
// through constructors rather than kept as package state (spec.md §9,
// "Global mutable state → threaded context").
package rollup

import (
	"math"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ethereum-optimism/op-program/client/types"
)

// Config is the rollup's static, genesis-anchored configuration.
type Config struct {
	GenesisL1       types.ID
	GenesisL2       types.ID
	GenesisL2Time   uint64
	GenesisSystemConfig types.SystemConfig

	BlockTime         uint64
	MaxSequencerDrift uint64
	SeqWindowSize     uint64
	ChannelTimeout    uint64
	ChannelTimeoutGranite uint64

	L1ChainID common.Hash
	L2ChainID uint64

	BatchInboxAddress       common.Address
	L1SystemConfigAddress   common.Address
	DepositContractAddress  common.Address

	// Activation timestamps. math.MaxUint64 means "never activated".
	CanyonTime   uint64
	DeltaTime    uint64
	EcotoneTime  uint64
	FjordTime    uint64
	GraniteTime  uint64
	HoloceneTime uint64
	IsthmusTime  uint64

	// InteropTime/DASwitchoverTime are out of scope for this program's
	// testable behaviors but are carried so config round-trips cleanly.
	InteropTime     uint64
	DASwitchoverTime uint64
}

const NeverActivated = math.MaxUint64

func activated(t, at uint64) bool { return at != NeverActivated && t >= at }

func (c *Config) IsCanyon(t uint64) bool   { return activated(t, c.CanyonTime) }
func (c *Config) IsDelta(t uint64) bool    { return activated(t, c.DeltaTime) }
func (c *Config) IsEcotone(t uint64) bool  { return activated(t, c.EcotoneTime) }
func (c *Config) IsFjord(t uint64) bool    { return activated(t, c.FjordTime) }
func (c *Config) IsGranite(t uint64) bool  { return activated(t, c.GraniteTime) }
func (c *Config) IsHolocene(t uint64) bool { return activated(t, c.HoloceneTime) }
func (c *Config) IsIsthmus(t uint64) bool  { return activated(t, c.IsthmusTime) }

// ActivationBlock reports whether timestamp t is the first L2 block at or
// after activation time at — i.e. whether this block must run the
// corresponding upgrade transactions.
func activationBlock(t, parentT, at uint64) bool {
	return activated(t, at) && !activated(parentT, at)
}

func (c *Config) IsCanyonActivationBlock(t, parentT uint64) bool {
	return activationBlock(t, parentT, c.CanyonTime)
}
func (c *Config) IsEcotoneActivationBlock(t, parentT uint64) bool {
	return activationBlock(t, parentT, c.EcotoneTime)
}
func (c *Config) IsFjordActivationBlock(t, parentT uint64) bool {
	return activationBlock(t, parentT, c.FjordTime)
}
func (c *Config) IsGraniteActivationBlock(t, parentT uint64) bool {
	return activationBlock(t, parentT, c.GraniteTime)
}
func (c *Config) IsHoloceneActivationBlock(t, parentT uint64) bool {
	return activationBlock(t, parentT, c.HoloceneTime)
}
func (c *Config) IsIsthmusActivationBlock(t, parentT uint64) bool {
	return activationBlock(t, parentT, c.IsthmusTime)
}

// ChannelTimeoutAt returns the channel timeout, in L1 blocks, in effect at
// L1 block origin time t. Granite shortened the timeout.
func (c *Config) ChannelTimeoutAt(t uint64) uint64 {
	if c.IsGranite(t) && c.ChannelTimeoutGranite != 0 {
		return c.ChannelTimeoutGranite
	}
	return c.ChannelTimeout
}
