// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

// Command bcache-super-show decodes and prints the superblock of a
// formatted device.
package main

import (
	"bufio"
	"context"
	"os"

	"git.lukeshu.com/go/lowmemjson"
	"github.com/datawire/dlib/dlog"
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"

	"github.com/zoumingzhe/bcache-tools-easystack/lib/bcachetools/supershow"
	"github.com/zoumingzhe/bcache-tools-easystack/lib/textui"
)

func main() {
	logLevelFlag := textui.LogLevelFlag{
		Level: dlog.LogLevelInfo,
	}
	var opts supershow.Options
	var jsonFlag bool

	argparser := &cobra.Command{
		Use:   "bcache-super-show [flags] DEV",
		Short: "Print the bcache superblock of a device",

		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),

		SilenceErrors: true, // main() will handle this after .ExecuteContext() returns
		SilenceUsage:  true, // our FlagErrorFunc will handle it

		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	argparser.SetFlagErrorFunc(cliutil.FlagErrorFunc)
	argparser.SetHelpTemplate(cliutil.HelpTemplate)

	flags := argparser.Flags()
	flags.Var(&logLevelFlag, "verbosity", "set the verbosity")
	flags.BoolVarP(&opts.Force, "force", "f", false, "show the record even if the magic does not check out")
	flags.IntVar(&opts.Slot, "slot", 0, "superblock slot `index` to read")
	flags.BoolVar(&jsonFlag, "json", false, "emit the report as JSON, including the raw record as hex")

	argparser.RunE = func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		logger := textui.NewLogger(os.Stderr, logLevelFlag.Level)
		ctx = dlog.WithLogger(ctx, logger)

		report, err := supershow.Show(ctx, args[0], opts)
		if err != nil {
			return err
		}

		out := bufio.NewWriter(os.Stdout)
		defer func() {
			if _err := out.Flush(); _err != nil && err == nil {
				err = _err
			}
		}()
		if jsonFlag {
			return lowmemjson.NewEncoder(lowmemjson.NewReEncoder(out, lowmemjson.ReEncoderConfig{
				Indent:                "\t",
				ForceTrailingNewlines: true,
			})).Encode(report)
		}
		return report.Render(out)
	}

	if err := argparser.ExecuteContext(context.Background()); err != nil {
		textui.Fprintf(os.Stderr, "%v: error: %v\n", argparser.CommandPath(), err)
		os.Exit(1)
	}
}
