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

// Command op-program is the fault-proof program's client binary
// (spec.md §1, §6): it takes no chain input beyond the preimage-oracle
// channel wired to file descriptors 3-6, derives and executes L2 blocks
// up to the claimed block number, and exits 0 if the claimed output root
// holds, 1 if it doesn't, and 2 if the run faulted before reaching a
// verdict at all.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/op-program/client/oracle"
	"github.com/ethereum-optimism/op-program/client/program"
)

const (
	exitCodeValid   = 0
	exitCodeInvalid = 1
	exitCodeFault   = 2
)

var logLevelFlag = &cli.StringFlag{
	Name:  "log.level",
	Usage: "Log level: trace, debug, info, warn, error, crit",
	Value: "info",
}

func main() {
	app := cli.NewApp()
	app.Name = "op-program"
	app.Usage = "OP Stack fault proof program"
	app.Flags = []cli.Flag{logLevelFlag}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(exitCodeFault)
	}
}

func run(ctx *cli.Context) error {
	lvl, err := parseLevel(ctx.String(logLevelFlag.Name))
	if err != nil {
		return err
	}
	logger := log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, lvl, false))

	o := oracle.NewFDClient()
	verdict, err := program.Run(o, logger)
	if err != nil {
		logger.Error("program faulted", "err", err)
		os.Exit(exitCodeFault)
	}

	logger.Info("program finished", "verdict", verdict)
	if verdict == program.VerdictValid {
		os.Exit(exitCodeValid)
	}
	os.Exit(exitCodeInvalid)
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	case "crit":
		return log.LevelCrit, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
