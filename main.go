package main

import (
	"flag"
	"fmt"
	"os"

	"bitpack/logging"
	"bitpack/repl"
)

const version = "v0.1.0"

func main() {
	var (
		configPath = flag.String("config", "", "Path to configuration file (YAML or JSON)")
		execFile   = flag.String("exec", "", "Execute a command file in batch mode")
		schema     = flag.String("schema", "", "Schema selected at start")
		logLevel   = flag.String("log-level", "", "Log level: debug, info, warning, error")
		logFile    = flag.String("log-file", "", "Write logs to this file (\"stderr\" for the terminal)")
		initConfig = flag.String("init-config", "", "Write the default configuration to this path and exit")

		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("bitpack " + version + " - bit values and packed records")
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	if *initConfig != "" {
		if err := SaveConfig(DefaultConfig(), *initConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration written to %s\n", *initConfig)
		os.Exit(0)
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFile != "" {
		cfg.Logging.File = *logFile
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	if *execFile != "" {
		if err := BatchMode(*execFile, cfg, logger, *schema, os.Stdout); err != nil {
			logger.ErrorBit(err)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			_ = logger.Close()
			os.Exit(1)
		}
		return
	}

	if err := runREPL(cfg, logger, *schema); err != nil {
		logger.ErrorBit(err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		_ = logger.Close()
		os.Exit(1)
	}
}

func runREPL(cfg *Config, logger logging.Logger, schema string) error {
	interp, err := newInterpreter(cfg, logger, schema)
	if err != nil {
		return err
	}
	defer func() {
		_ = interp.Close()
	}()

	r, err := repl.NewREPLWithConfig(repl.REPLConfig{
		Prompt:       cfg.REPL.Prompt,
		HistoryFile:  expandHome(cfg.REPL.HistoryFile),
		HistorySize:  cfg.REPL.HistorySize,
		ShowWelcome:  cfg.REPL.ShowWelcome,
		EnableColors: cfg.REPL.EnableColors,
		Version:      version,
		Interpreter:  interp,
	})
	if err != nil {
		return err
	}
	return r.Run()
}

func printHelp() {
	fmt.Println("bitpack " + version + " - bit values and packed records")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  bitpack [flags]                 start the interactive REPL")
	fmt.Println("  bitpack -exec commands.txt      run a command file")
	fmt.Println("  echo 'int 0x16' | bitpack       run commands from stdin")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Type :help inside the REPL for the command list.")
}
