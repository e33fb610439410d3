// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies

// Package cmd provides the maxifier command line.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"maxifier.safepic.fr/tsmap"
)

const (
	exitSuccess = 0
	exitFailure = 1

	autoMapFlagName = "auto_map"
	configFlagName  = "config"
	probeFlagName   = "probe"
)

const rootLongDescription = `Recreate unminified source paths on disk from a (JSON) sourcemap.

The sourcemap is read from the given file, from stdin when the argument is
"-" or absent, or discovered from a JavaScript bundle with --auto_map: the
X-SourceMap response header first, then the trailing
"//# sourceMappingURL=" comment, which may be an inline base64 data URI.

Every entry of "sources" is written with its "sourcesContent" under the
output directory. Leading "/" and "../" segments are folded so that no file
lands outside of it.`

// stdinIsTerminal is replaced in tests.
var stdinIsTerminal = func(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Execute runs the command line and exits with 0 on success, 1 on any error.
// This is called by main.main().
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run is the single error boundary: every failure ends here, is printed on
// stderr and turns into exit code 1.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd(newConfig())
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	executed, err := root.ExecuteC()
	if err == nil {
		return exitSuccess
	}

	tsmap.NewPrinter(stderr).Error(err)
	var usageErr *tsmap.UsageError
	if errors.As(err, &usageErr) {
		if executed == nil {
			executed = root
		}
		fmt.Fprintln(stderr)
		fmt.Fprint(stderr, executed.UsageString())
	}
	return exitFailure
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:           "maxifier [sourcemap]",
		Short:         "Recreate unminified source files from a JavaScript sourcemap",
		Long:          rootLongDescription,
		Args:          maxOneArg,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := readConfig(v, configFile); err != nil {
				return err
			}
			configureLogger(v, cmd.ErrOrStderr())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, v, args)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &tsmap.UsageError{Msg: err.Error()}
	})

	cmd.PersistentFlags().StringVar(&configFile, configFlagName, "", "config file (default ./maxifier.yaml)")
	configureRootFlags(cmd, v)

	cmd.AddCommand(newCrawlCmd(v), newVersionCmd())
	return cmd
}

func configureRootFlags(cmd *cobra.Command, v *viper.Viper) {
	pf := cmd.PersistentFlags()

	pf.StringP(outDirKey, "o", v.GetString(outDirKey), "directory to save extracted files")
	bindFlagToConfig(v, pf.Lookup(outDirKey), outDirKey)
	pf.BoolP(verboseKey, "v", v.GetBool(verboseKey), "narrate every step on stderr")
	bindFlagToConfig(v, pf.Lookup(verboseKey), verboseKey)

	pf.String(eolKey, v.GetString(eolKey), "rewrite line endings: unix|dos")
	bindFlagToConfig(v, pf.Lookup(eolKey), eolKey)
	pf.Bool(beautifyKey, v.GetBool(beautifyKey), "break minified JS/TS on ; { }")
	bindFlagToConfig(v, pf.Lookup(beautifyKey), beautifyKey)
	pf.Bool("use-source-root", v.GetBool(useSourceRootKey), "prefix every source with the map's sourceRoot")
	bindFlagToConfig(v, pf.Lookup("use-source-root"), useSourceRootKey)
	pf.Bool("save-map", v.GetBool(saveMapKey), "also save the sourcemap itself in the output directory")
	bindFlagToConfig(v, pf.Lookup("save-map"), saveMapKey)

	pf.String("user-agent", v.GetString(userAgentKey), "User-Agent header for HTTP requests")
	bindFlagToConfig(v, pf.Lookup("user-agent"), userAgentKey)
	pf.String("proxy", v.GetString(proxyKey), "proxy URL (e.g. http://127.0.0.1:8080)")
	bindFlagToConfig(v, pf.Lookup("proxy"), proxyKey)
	pf.Bool("insecure", v.GetBool(insecureKey), "skip TLS verification, useful behind an intercepting proxy")
	bindFlagToConfig(v, pf.Lookup("insecure"), insecureKey)
	pf.Duration("timeout", v.GetDuration(timeoutKey), "HTTP timeout per request (0 = none)")
	bindFlagToConfig(v, pf.Lookup("timeout"), timeoutKey)

	pf.String("log-file", v.GetString(logFilenameKey), "also write diagnostics to this rotating log file")
	bindFlagToConfig(v, pf.Lookup("log-file"), logFilenameKey)

	f := cmd.Flags()
	f.StringP(autoMapFlagName, "a", "", "URL to the .js file to auto-map")
	f.Bool(probeFlagName, false, "with --auto_map, also try <url>.map when the bundle names no sourcemap")
	f.String(manifestKey, v.GetString(manifestKey), "write a YAML manifest of the extracted files to this path")
	bindFlagToConfig(v, f.Lookup(manifestKey), manifestKey)
}

func maxOneArg(_ *cobra.Command, args []string) error {
	if len(args) > 1 {
		return &tsmap.UsageError{Msg: fmt.Sprintf("accepts at most 1 sourcemap, received %d", len(args))}
	}
	return nil
}

func runExtract(cmd *cobra.Command, v *viper.Viper, args []string) error {
	autoMap, _ := cmd.Flags().GetString(autoMapFlagName)
	probe, _ := cmd.Flags().GetBool(probeFlagName)

	transform, err := transformFromConfig(v)
	if err != nil {
		return err
	}

	printer := tsmap.NewPrinter(cmd.OutOrStdout())
	cfg := tsmap.Config{
		AutoMap:       autoMap,
		Probe:         probe,
		OutDir:        v.GetString(outDirKey),
		Transform:     transform,
		UseSourceRoot: v.GetBool(useSourceRootKey),
		SaveMap:       v.GetBool(saveMapKey),
		OnWrite: func(_ tsmap.Target, dest string) {
			printer.Written(dest)
		},
	}

	if autoMap != "" {
		if cfg.Fetcher, err = fetcherFromConfig(v); err != nil {
			return err
		}
	} else {
		r, name, closeFn, err := openSourceMap(args, cmd.InOrStdin())
		if err != nil {
			return err
		}
		defer closeFn()
		cfg.SourceMap, cfg.SourceMapName = r, name
	}

	res, err := tsmap.Run(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	printer.Summary(len(res.Written), res.OutDir)

	if path := v.GetString(manifestKey); path != "" {
		if err := tsmap.WriteManifest(afero.NewOsFs(), path, tsmap.NewManifest(res)); err != nil {
			return err
		}
	}
	return nil
}

// openSourceMap opens the positional sourcemap, or stdin for "-" and no
// argument. An interactive stdin means no sourcemap was given at all.
func openSourceMap(args []string, stdin io.Reader) (io.Reader, string, func(), error) {
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(filepath.Clean(args[0]))
		if err != nil {
			return nil, "", nil, &tsmap.UsageError{Msg: fmt.Sprintf("can't open sourcemap: %v", err)}
		}
		return f, args[0], func() { _ = f.Close() }, nil
	}
	if stdin == nil || stdinIsTerminal(stdin) {
		return nil, "", nil, &tsmap.UsageError{}
	}
	return stdin, tsmap.StdinName, func() {}, nil
}
