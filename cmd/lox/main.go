// Command lox runs Lox programs and inspects them.
//
// Usage:
//
//	lox                              Start the interactive REPL
//	lox <script>                     Run a script
//	lox run      <file>              Run a script
//	lox tokens   [--json] <file>     Print tokens
//	lox parse    [--resolve] <file>  Print AST as JSON
//	lox resolve  <file>              Print resolved variable distances
//	lox repl                         Start the interactive REPL
//	lox dumpconfig                   Print the effective configuration as TOML
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/urfave/cli.v1"

	"lox-lang/internal/ast"
	"lox-lang/internal/config"
	"lox-lang/internal/diag"
	"lox-lang/internal/engine"
	"lox-lang/internal/runtime"
)

// Exit statuses, following sysexits.h.
const (
	exitUsage    = 64
	exitDataErr  = 65
	exitSoftware = 70
)

var (
	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML or YAML configuration file",
	}
	colorFlag = cli.StringFlag{
		Name:  "color",
		Usage: "Colorize diagnostics: auto, always or never",
	}
	verbosityFlag = cli.StringFlag{
		Name:  "verbosity",
		Usage: "Log level: debug, info, warn or error",
	}
	warnUnusedFlag = cli.BoolFlag{
		Name:  "warn-unused",
		Usage: "Warn about block variables that are never read",
	}
	jsonFlag = cli.BoolFlag{
		Name:  "json",
		Usage: "Print as JSON",
	}
	resolveFlag = cli.BoolFlag{
		Name:  "resolve",
		Usage: "Resolve scopes and include each local reference's depth",
	}
)

var (
	runCommand = cli.Command{
		Action:    runFile,
		Name:      "run",
		Usage:     "Run a script",
		ArgsUsage: "<file>",
	}
	tokensCommand = cli.Command{
		Action:    printTokens,
		Name:      "tokens",
		Usage:     "Tokenize a file and print its tokens",
		ArgsUsage: "<file>",
		Flags:     []cli.Flag{jsonFlag},
	}
	parseCommand = cli.Command{
		Action:    printAST,
		Name:      "parse",
		Usage:     "Parse a file and print its AST as JSON",
		ArgsUsage: "<file>",
		Flags:     []cli.Flag{resolveFlag},
	}
	resolveCommand = cli.Command{
		Action:    printResolution,
		Name:      "resolve",
		Usage:     "Print the scope distance of every local variable reference",
		ArgsUsage: "<file>",
	}
	replCommand = cli.Command{
		Action: startRepl,
		Name:   "repl",
		Usage:  "Start the interactive REPL",
	}
	dumpConfigCommand = cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Show configuration values",
		Description: `The dumpconfig command shows the effective configuration as TOML.`,
	}
)

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "lox"
	app.Usage = "the Lox tree-walking interpreter"
	app.ArgsUsage = "[script]"
	app.HideVersion = true
	app.Flags = []cli.Flag{configFileFlag, colorFlag, verbosityFlag, warnUnusedFlag}
	app.Commands = []cli.Command{
		runCommand,
		tokensCommand,
		parseCommand,
		resolveCommand,
		replCommand,
		dumpConfigCommand,
	}
	app.Action = defaultAction
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// defaultAction mirrors the classic driver: no arguments starts the REPL and
// a single argument runs that script.
func defaultAction(ctx *cli.Context) error {
	switch ctx.NArg() {
	case 0:
		return startRepl(ctx)
	case 1:
		return runFile(ctx)
	default:
		return cli.NewExitError("Usage: lox [script]", exitUsage)
	}
}

// settings loads the configuration and installs the default logger and
// color mode from it.
func settings(ctx *cli.Context) (config.Config, error) {
	cfg, err := loadSettings(ctx)
	if err != nil {
		return cfg, err
	}

	level, _ := config.ParseLevel(cfg.LogLevel) // validated by loadSettings
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	setColorMode(cfg.Color)

	if file := ctx.GlobalString(configFileFlag.Name); file != "" {
		slog.Info("Loaded configuration", "file", file)
	}
	return cfg, nil
}

// loadSettings reads the config file if one is given and applies flag
// overrides on top of it.
func loadSettings(ctx *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if file := ctx.GlobalString(configFileFlag.Name); file != "" {
		loaded, err := config.Load(file)
		if err != nil {
			return cfg, cli.NewExitError(err.Error(), exitUsage)
		}
		cfg = loaded
	}
	if ctx.GlobalIsSet(colorFlag.Name) {
		cfg.Color = ctx.GlobalString(colorFlag.Name)
	}
	if ctx.GlobalIsSet(verbosityFlag.Name) {
		cfg.LogLevel = ctx.GlobalString(verbosityFlag.Name)
	}
	if ctx.GlobalIsSet(warnUnusedFlag.Name) {
		cfg.WarnUnused = ctx.GlobalBool(warnUnusedFlag.Name)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, cli.NewExitError(err.Error(), exitUsage)
	}
	return cfg, nil
}

func newEngine(out io.Writer, cfg config.Config, filename string) (*engine.Engine, error) {
	return engine.New(out,
		engine.WithFilename(filename),
		engine.WithCacheSize(cfg.CacheSize),
		engine.WithUnusedWarnings(cfg.WarnUnused),
		engine.WithLogger(slog.Default()),
	)
}

// fileArg reads the single file argument of a subcommand.
func fileArg(ctx *cli.Context) (string, string, error) {
	if ctx.NArg() != 1 {
		return "", "", cli.NewExitError(fmt.Sprintf("Usage: lox %s %s", ctx.Command.Name, ctx.Command.ArgsUsage), exitUsage)
	}
	filename := ctx.Args().First()
	source, err := os.ReadFile(filename)
	if err != nil {
		return "", "", cli.NewExitError(fmt.Sprintf("error: cannot read file %s: %v", filename, err), exitUsage)
	}
	return string(source), filename, nil
}

// ---- run command ----

func runFile(ctx *cli.Context) error {
	cfg, err := settings(ctx)
	if err != nil {
		return err
	}
	source, filename, err := fileArg(ctx)
	if err != nil {
		return err
	}
	eng, err := newEngine(os.Stdout, cfg, filename)
	if err != nil {
		return err
	}

	warnings, err := eng.Run(source)
	printDiags(os.Stderr, warnings)
	return exitStatus(err)
}

// exitStatus maps an engine error to the process exit status, printing it.
func exitStatus(err error) error {
	if err == nil {
		return nil
	}
	var diagErr *engine.DiagnosticsError
	if errors.As(err, &diagErr) {
		printDiags(os.Stderr, diagErr.Diagnostics)
		return cli.NewExitError("", exitDataErr)
	}
	var rtErr *runtime.RuntimeError
	if errors.As(err, &rtErr) {
		printRuntimeError(os.Stderr, rtErr)
		return cli.NewExitError("", exitSoftware)
	}
	return cli.NewExitError(err.Error(), exitSoftware)
}

// ---- inspection commands ----

func printTokens(ctx *cli.Context) error {
	if _, err := settings(ctx); err != nil {
		return err
	}
	source, filename, err := fileArg(ctx)
	if err != nil {
		return err
	}
	tokens, diags := lexTokens(source, filename)
	if ctx.Bool(jsonFlag.Name) {
		if err := printTokensJSON(os.Stdout, tokens, diags); err != nil {
			return err
		}
	} else {
		printTokensText(os.Stdout, tokens)
		printDiags(os.Stderr, diags)
	}
	if len(diags) > 0 {
		return cli.NewExitError("", exitDataErr)
	}
	return nil
}

func printAST(ctx *cli.Context) error {
	if _, err := settings(ctx); err != nil {
		return err
	}
	source, filename, err := fileArg(ctx)
	if err != nil {
		return err
	}
	hasErrors, err := writeAST(os.Stdout, source, filename, ctx.Bool(resolveFlag.Name))
	if err != nil {
		return err
	}
	if hasErrors {
		return cli.NewExitError("", exitDataErr)
	}
	return nil
}

// writeAST prints the parsed program as JSON. With resolve set and no syntax
// errors, scopes are resolved too and local references carry their depth.
func writeAST(w io.Writer, source, filename string, resolve bool) (bool, error) {
	stmts, diags := engine.ScanAndParse(source, filename)
	var locals ast.Locals
	if resolve && !diag.HasErrors(diags) {
		var resolveDiags []diag.Diagnostic
		locals, resolveDiags = engine.Resolve(stmts)
		diags = append(diags, diag.InFile(resolveDiags, filename)...)
	}
	if err := printASTJSON(w, stmts, locals, diags); err != nil {
		return false, err
	}
	return diag.HasErrors(diags), nil
}

func printResolution(ctx *cli.Context) error {
	cfg, err := settings(ctx)
	if err != nil {
		return err
	}
	source, filename, err := fileArg(ctx)
	if err != nil {
		return err
	}
	eng, err := newEngine(os.Stdout, cfg, filename)
	if err != nil {
		return err
	}
	prog, err := eng.Compile(source)
	if err != nil {
		return exitStatus(err)
	}
	printDiags(os.Stderr, prog.Diagnostics)
	printLocals(os.Stdout, prog.Locals)
	return nil
}

// ---- dumpconfig command ----

func dumpConfig(ctx *cli.Context) error {
	cfg, err := settings(ctx)
	if err != nil {
		return err
	}
	out, err := cfg.MarshalTOML()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}
