// Copyright 2024 CloudWeGo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-delve/delve/pkg/logflags"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/cloudwego/weakcheck/pkg/config"
	"github.com/cloudwego/weakcheck/pkg/dispatch"
	"github.com/cloudwego/weakcheck/pkg/leak"
	"github.com/cloudwego/weakcheck/pkg/scenario"
	"github.com/cloudwego/weakcheck/pkg/version"
	"github.com/cloudwego/weakcheck/pkg/widget"
	"github.com/cloudwego/weakcheck/pprof"
)

var (
	// rootCommand is the root of the command tree.
	rootCommand *cobra.Command

	conf        *config.Config
	loadConfErr error
	confFile    string
	listenAddr  string

	// verbose is whether to log verbose info, like debug logs.
	verbose bool
)

// New returns an initialized command tree.
func New(docCall bool) *cobra.Command {
	rootCommand = &cobra.Command{
		Use:   "wck",
		Short: "Weakcheck verifies that disposed objects can be garbage collected.",
		Long:  "Weakcheck verifies that disposed objects can be garbage collected.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			loadConfig()
		},
	}
	rootCommand.CompletionOptions.DisableDefaultCmd = true

	demoCommand := &cobra.Command{
		Use:   "demo [scenario...]",
		Short: "Run leak scenarios and print their verdicts.",
		Long: `Run the built-in leak scenarios on the main goroutine and print one verdict per scenario.

Without arguments the scenarios listed in the config file are run, or all of them.
The exit status is 1 if a scenario fails or leaks unexpectedly.`,
		Run: demoCmd,
	}
	rootCommand.AddCommand(demoCommand)

	listCommand := &cobra.Command{
		Use:   "list",
		Short: "List the built-in scenarios.",
		Run: func(cmd *cobra.Command, args []string) {
			suite := newSuite(dispatch.New())
			for _, name := range suite.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
		ValidArgsFunction: cobra.NoFileCompletions,
	}
	rootCommand.AddCommand(listCommand)

	serveCommand := &cobra.Command{
		Use:   "serve",
		Short: "Serve scenario verdicts over HTTP.",
		Long: fmt.Sprintf(`Start an HTTP server exposing the built-in scenarios at %s.

Scenarios run on a dedicated dispatcher goroutine; select them with ?scenario=name.`, pprof.Path),
		Run: serveCmd,
	}
	serveCommand.Flags().StringVarP(&listenAddr, "listen", "l", "", "listen address (default from config, localhost:6060)")
	rootCommand.AddCommand(serveCommand)

	versionCommand := &cobra.Command{
		Use:   "version",
		Short: "Prints version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Weakcheck Tool\n%s\n", version.Current)
			if verbose {
				fmt.Printf("Build Details: %s\n", version.BuildInfo())
			}
		},
		ValidArgsFunction: cobra.NoFileCompletions,
	}
	rootCommand.AddCommand(versionCommand)

	rootCommand.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print verbose info or enable debug logger")
	rootCommand.PersistentFlags().StringVar(&confFile, "config", "", "config file (default $XDG_CONFIG_HOME/wck/config.yml)")

	return rootCommand
}

func loadConfig() {
	if confFile != "" {
		conf, loadConfErr = config.LoadFile(confFile)
	} else {
		conf, loadConfErr = config.LoadConfig()
	}
	if conf.Verbose {
		verbose = true
	}
}

func setupLogging() (func(), error) {
	if !verbose {
		return func() {}, nil
	}
	if err := logflags.Setup(verbose, "", ""); err != nil {
		return nil, err
	}
	return logflags.Close, nil
}

func newSuite(d *dispatch.Dispatcher) *scenario.Suite {
	app := widget.NewApplication(d)
	suite := scenario.NewSuite(leak.NewProbe(leak.WithJobRunner(d)))
	suite.Add(scenario.Builtin(app)...)
	return suite
}

func demoCmd(cmd *cobra.Command, args []string) {
	os.Exit(demo(cmd.OutOrStdout(), args))
}

func demo(out io.Writer, names []string) int {
	closeLog, err := setupLogging()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer closeLog()
	if loadConfErr != nil {
		logflags.DebuggerLogger().Errorf("%v", loadConfErr)
	}

	// the main goroutine plays the UI thread
	suite := newSuite(dispatch.Default())
	if len(names) == 0 {
		names = conf.Scenarios
	}

	var results []scenario.Result
	if len(names) == 0 {
		results = suite.RunAll()
	} else {
		for _, name := range names {
			res, err := suite.Run(name)
			if err != nil {
				fmt.Fprintln(os.Stderr, err.Error())
				return 1
			}
			results = append(results, res)
		}
	}

	if err := scenario.Write(out, results, useColor(out)); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	for _, r := range results {
		if r.Unexpected() {
			return 1
		}
	}
	return 0
}

func useColor(out io.Writer) bool {
	switch conf.Color {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	f, ok := out.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func serveCmd(_ *cobra.Command, _ []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(serve(ctx))
}

func serve(ctx context.Context) int {
	closeLog, err := setupLogging()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer closeLog()
	if loadConfErr != nil {
		logflags.DebuggerLogger().Errorf("%v", loadConfErr)
	}

	addr := listenAddr
	if addr == "" {
		addr = conf.Listen
	}

	d := dispatch.New()
	suite := newSuite(d)
	mux := http.NewServeMux()
	pprof.Register(mux, suite, d)
	srv := &http.Server{Addr: addr, Handler: mux}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	srvErr := make(chan error, 1)
	go func() {
		log.Printf("serving leak scenarios at http://%s%s", addr, pprof.Path)
		srvErr <- srv.ListenAndServe()
		cancel()
	}()

	// the dispatcher owns every widget; it runs here until shutdown
	if err := d.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown failed: %v\n", err)
		return 1
	}
	if err := <-srvErr; !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}
