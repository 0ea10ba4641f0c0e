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

package providers

// Hint verbs, spec.md §6. Each hint is "<verb> <hex-args>", whitespace
// separated.
const (
	HintL1BlockHeader       = "l1-block-header"
	HintL1Transactions      = "l1-transactions"
	HintL1Receipts          = "l1-receipts"
	HintL1Blob              = "l1-blob"
	HintL1Precompile        = "l1-precompile"
	HintL2BlockHeader       = "l2-block-header"
	HintL2Transactions      = "l2-transactions"
	HintL2Code              = "l2-code"
	HintL2StateNode         = "l2-state-node"
	HintL2AccountProof      = "l2-account-proof"
	HintL2AccountStorageProof = "l2-account-storage-proof"
	HintL2Output            = "l2-output"
	HintStartingL2Output    = "starting-l2-output"
)
