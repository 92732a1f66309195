package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/fatih/color"
	"github.com/lychee-technology/jsonerd"
	"github.com/lychee-technology/jsonerd/internal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cli carries state shared by every subcommand once flags are parsed.
type cli struct {
	configPath string
	logLevel   string
	config     *jsonerd.Config
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	app := &cli{}

	rootCmd := &cobra.Command{
		Use:   "erd",
		Short: "Infer entity-relationship models from JSON documents",
		Long: color.CyanString(`erd - JSON to entity-relationship inference

Reads a JSON document, infers the collections embedded in it and the
references between them, and prints the model, a JSON Schema or a share link.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup()
		},
	}

	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "path to a jsonerd.yaml config file")
	rootCmd.PersistentFlags().StringVar(&app.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newAnalyzeCommand(app))
	rootCmd.AddCommand(newShareCommand(app))
	rootCmd.AddCommand(newExportSchemaCommand(app))
	rootCmd.AddCommand(newValidateCommand(app))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func (c *cli) setup() error {
	config, err := internal.LoadConfig(c.configPath)
	if err != nil {
		return err
	}
	// Command output owns stdout, so logging defaults to warnings on stderr.
	config.Logging = jsonerd.LoggingConfig{Level: "warn", Format: "console"}
	if c.logLevel != "" {
		config.Logging.Level = c.logLevel
	}

	logger, err := internal.NewLogger(config.Logging)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)

	c.config = config
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		// Version needs no config.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)

			titleColor.Fprint(out, "erd version: ")
			fmt.Fprintln(out, Version)
			titleColor.Fprint(out, "Git commit: ")
			fmt.Fprintln(out, GitCommit)
			titleColor.Fprint(out, "Build date: ")
			fmt.Fprintln(out, BuildDate)
			titleColor.Fprint(out, "Go version: ")
			fmt.Fprintln(out, runtime.Version())
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
