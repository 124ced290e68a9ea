// Copyright (C) 2023-2026  EasyStack, Inc.
//
// SPDX-License-Identifier: GPL-2.0-only

package main

import (
	"context"
	"os"

	"github.com/datawire/dlib/dgroup"
	"github.com/datawire/dlib/dlog"
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/zoumingzhe/bcache-tools-easystack/lib/bcache"
	"github.com/zoumingzhe/bcache-tools-easystack/lib/bcachetools/mkbcache"
	"github.com/zoumingzhe/bcache-tools-easystack/lib/profile"
	"github.com/zoumingzhe/bcache-tools-easystack/lib/textui"
)

func main() {
	logLevelFlag := textui.LogLevelFlag{
		Level: dlog.LogLevelInfo,
	}
	opts := mkbcache.Options{
		SBNum:     1,
		ResetSlot: -1,
		Out:       os.Stdout,
	}
	var (
		alcubierreFlag bool
		skipUdevFlag   bool
		blockFlag      = sizeFlag{what: "block size"}
		bucketFlag     = sizeFlag{what: "bucket size"}
		dataOffsetFlag uint64
		csetUUIDFlag   uuidFlag
		bdevUUIDFlag   uuidFlag
		policyFlag     policyFlag
	)

	argparser := &cobra.Command{
		Use:   "make-bcache [flags]",
		Short: "Format cache and backing devices for a cache set",

		Args: cliutil.WrapPositionalArgs(cobra.NoArgs),

		SilenceErrors: true, // main() will handle this after .ExecuteContext() returns
		SilenceUsage:  true, // our FlagErrorFunc will handle it

		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	argparser.SetFlagErrorFunc(cliutil.FlagErrorFunc)
	argparser.SetHelpTemplate(cliutil.HelpTemplate)

	// The original getopt surface spells two options with
	// underscores as well as dashes.
	argparser.SetGlobalNormalizationFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		switch name {
		case "data_offset":
			name = "data-offset"
		case "cache_replacement_policy":
			name = "cache-replacement-policy"
		}
		return pflag.NormalizedName(name)
	})

	flags := argparser.Flags()
	flags.Var(&logLevelFlag, "verbosity", "set the verbosity")
	flags.StringArrayVarP(&opts.CacheDevs, "cache", "C", nil, "format `device` as a cache device (repeatable)")
	flags.StringArrayVarP(&opts.BackingDevs, "bdev", "B", nil, "format `device` as a backing device (repeatable)")
	for _, name := range []string{"cache", "bdev"} {
		if err := argparser.MarkFlagFilename(name); err != nil {
			panic(err)
		}
	}
	flags.BoolVarP(&alcubierreFlag, "alcubierre", "A", false, "format an alcubierre device (implies a skip-udev marker)")
	flags.BoolVarP(&skipUdevFlag, "skip-udev-register", "S", false, "mark the device so the udev rules do not auto-register it")
	flags.VarP(&bucketFlag, "bucket", "b", "bucket `size` (accepts k/m/g/t suffixes)")
	flags.VarP(&blockFlag, "block", "w", "block `size` (hard sector size of SSD, often 2k)")
	flags.Uint64VarP(&dataOffsetFlag, "data-offset", "o", 0, "data offset in `sectors`")
	flags.VarP(&csetUUIDFlag, "cset-uuid", "u", "`UUID` for the cache set")
	flags.VarP(&bdevUUIDFlag, "bdev-uuid", "v", "`UUID` for the bdev; marks its cache state dirty so attach resumes writeback")
	flags.BoolVar(&opts.WriteBack, "writeback", false, "enable writeback")
	flags.BoolVar(&opts.Discard, "discard", false, "enable discards")
	flags.BoolVar(&opts.Wipe, "wipe-bcache", false, "overwrite an existing bcache superblock")
	flags.Var(&policyFlag, "cache-replacement-policy", "one of lru, fifo, or random")
	flags.IntVarP(&opts.SBNum, "sb-num", "s", 1, "superblock slot `count` for backing devices")
	flags.IntVarP(&opts.ResetSlot, "reset-cset-uuid", "r", -1, "reset the identity of backing superblock slot `index` instead of formatting")
	stopProfiling := profile.AddProfileFlags(flags, "profile.")

	argparser.RunE = func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		logger := textui.NewLogger(os.Stderr, logLevelFlag.Level)
		ctx = dlog.WithLogger(ctx, logger)
		dlog.SetFallbackLogger(logger.WithField("bcache-tools.THIS_IS_A_BUG", true))

		opts.BlockSize = blockFlag.sectors
		opts.BucketSize = bucketFlag.sectors
		if cmd.Flags().Changed("data-offset") {
			opts.DataOffset = &dataOffsetFlag
		}
		opts.SetUUID = csetUUIDFlag.val
		opts.DeviceUUID = bdevUUIDFlag.val
		opts.Dirty = bdevUUIDFlag.set
		opts.CacheReplacement = policyFlag.val
		switch {
		case alcubierreFlag:
			opts.Marker = bcache.MarkerAlcubierre
		case skipUdevFlag:
			opts.Marker = bcache.MarkerSkipUdev
		}

		grp := dgroup.NewGroup(ctx, dgroup.GroupConfig{
			EnableSignalHandling: true,
		})
		grp.Go("main", func(ctx context.Context) error {
			defer func() {
				if err := stopProfiling(); err != nil {
					dlog.Errorf(ctx, "stop profiling: %v", err)
				}
			}()
			return mkbcache.Run(ctx, opts)
		})
		return grp.Wait()
	}

	if err := argparser.ExecuteContext(context.Background()); err != nil {
		textui.Fprintf(os.Stderr, "%v: error: %v\n", argparser.CommandPath(), err)
		os.Exit(1)
	}
}

// sizeFlag parses a human block/bucket size at flag-parse time, so a
// bad size fails before any device is touched.
type sizeFlag struct {
	what    string
	sectors uint16
	text    string
}

var _ pflag.Value = (*sizeFlag)(nil)

func (f *sizeFlag) Type() string   { return "size" }
func (f *sizeFlag) String() string { return f.text }

func (f *sizeFlag) Set(str string) error {
	sectors, err := mkbcache.ParseSize(str, f.what)
	if err != nil {
		return err
	}
	f.sectors = sectors
	f.text = str
	return nil
}

type uuidFlag struct {
	val bcache.UUID
	set bool
}

var _ pflag.Value = (*uuidFlag)(nil)

func (f *uuidFlag) Type() string { return "UUID" }

func (f *uuidFlag) String() string {
	if !f.set {
		return ""
	}
	return f.val.String()
}

func (f *uuidFlag) Set(str string) error {
	val, err := bcache.ParseUUID(str)
	if err != nil {
		return err
	}
	f.val = val
	f.set = true
	return nil
}

type policyFlag struct {
	val bcache.CacheReplacement
}

var _ pflag.Value = (*policyFlag)(nil)

func (f *policyFlag) Type() string   { return "policy" }
func (f *policyFlag) String() string { return f.val.String() }

func (f *policyFlag) Set(str string) error {
	val, err := bcache.ParseCacheReplacement(str)
	if err != nil {
		return err
	}
	f.val = val
	return nil
}
