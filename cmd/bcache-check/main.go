// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

// Command bcache-check prints, as KEY=value lines for shell
// evaluation, whether a device carries a skip-udev-registration
// marker and whether it is registered with the caching driver.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/datawire/dlib/dlog"
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"

	"github.com/zoumingzhe/bcache-tools-easystack/lib/bcache"
	"github.com/zoumingzhe/bcache-tools-easystack/lib/diskio"
	"github.com/zoumingzhe/bcache-tools-easystack/lib/sysfs"
	"github.com/zoumingzhe/bcache-tools-easystack/lib/textui"
)

func main() {
	logLevelFlag := textui.LogLevelFlag{
		Level: dlog.LogLevelInfo,
	}

	argparser := &cobra.Command{
		Use:   "bcache-check NODE",
		Short: "Report a device's registration marker and driver state",

		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),

		SilenceErrors: true, // main() will handle this after .ExecuteContext() returns
		SilenceUsage:  true, // our FlagErrorFunc will handle it

		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	argparser.SetFlagErrorFunc(cliutil.FlagErrorFunc)
	argparser.SetHelpTemplate(cliutil.HelpTemplate)
	argparser.Flags().Var(&logLevelFlag, "verbosity", "set the verbosity")

	argparser.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := textui.NewLogger(os.Stderr, logLevelFlag.Level)
		ctx = dlog.WithLogger(ctx, logger)
		return run(ctx, args[0], os.Stdout, sysfs.DefaultTree())
	}

	if err := argparser.ExecuteContext(context.Background()); err != nil {
		textui.Fprintf(os.Stderr, "%v: error: %v\n", argparser.CommandPath(), err)
		os.Exit(1)
	}
}

func run(ctx context.Context, node string, out io.Writer, tree *sysfs.Tree) error {
	f, err := diskio.OpenReadOnly[int64](node)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	marker, err := bcache.ReadMarker(f)
	if err != nil {
		return err
	}
	dlog.Debugf(ctx, "marker on %v: %v", node, marker)

	// The marker line prints before the name is validated, so a
	// caller evaluating line-by-line still gets it for nodes
	// outside /dev.
	if _, err := fmt.Fprintf(out, "SKIPREGISTER_DEV=%v\n", yesno(marker.SkipsRegistration())); err != nil {
		return err
	}

	name, ok := strings.CutPrefix(node, "/dev/")
	if !ok || name == "" {
		return fmt.Errorf("can't parse '/dev/bdev_name' from %v", node)
	}
	_, err = fmt.Fprintf(out, "DISK_REGISTERED=%v\n", yesno(tree.IsRegistered(name)))
	return err
}

func yesno(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
