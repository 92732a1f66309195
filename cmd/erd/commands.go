package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/fatih/color"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/lychee-technology/jsonerd"
	"github.com/lychee-technology/jsonerd/internal"
	"github.com/spf13/cobra"
)

// analysis is the printable form of a model.
type analysis struct {
	Root        string                 `json:"root"`
	Collections *jsonerd.CollectionSet `json:"collections"`
	Relations   []jsonerd.Relation     `json:"relations"`
	Graph       jsonerd.Graph          `json:"graph"`
}

func newAnalyzeCommand(app *cli) *cobra.Command {
	var collection, format string

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Infer collections and relations from a JSON document",
		Long:  "Reads a JSON document from file, or stdin when no file is given, and prints the inferred model.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			model, err := internal.NewEngine(app.config.Heuristics).AnalyzeJSON(raw, collection)
			if err != nil {
				return err
			}

			return writeFormatted(cmd.OutOrStdout(), format, analysis{
				Root:        model.Root,
				Collections: model.Collections,
				Relations:   model.Relations,
				Graph:       internal.BuildGraph(model),
			})
		},
	}

	cmd.Flags().StringVar(&collection, "collection", "", "name of the root collection")
	cmd.Flags().StringVar(&format, "format", "json", "output format (json, yaml)")
	return cmd
}

func newShareCommand(app *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Encode and decode share tokens",
	}
	cmd.AddCommand(newShareEncodeCommand(app))
	cmd.AddCommand(newShareDecodeCommand(app))
	return cmd
}

func newShareEncodeCommand(app *cli) *cobra.Command {
	var collection, baseURL string

	cmd := &cobra.Command{
		Use:   "encode [file]",
		Short: "Print a share link for a JSON document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			doc, err := internal.ParseDocument(raw)
			if err != nil {
				return err
			}

			if baseURL == "" {
				baseURL = app.config.Share.BaseURL
			}
			codec := internal.NewShareCodec(app.config.Share.QueryParam)
			state := jsonerd.ShareState{JSON: doc, Collection: app.config.Heuristics.RootName(collection)}

			token, err := codec.Encode(state)
			if err != nil {
				return err
			}
			link, err := codec.ShareURL(baseURL, state)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			label := color.New(color.FgCyan, color.Bold)
			label.Fprint(out, "token: ")
			fmt.Fprintln(out, token)
			label.Fprint(out, "url:   ")
			fmt.Fprintln(out, link)
			return nil
		},
	}

	cmd.Flags().StringVar(&collection, "collection", "", "name of the root collection")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "base URL of the share link (defaults to share.base_url)")
	return cmd
}

func newShareDecodeCommand(app *cli) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "decode <token|url>",
		Short: "Print the state carried by a share token or link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec := internal.NewShareCodec(app.config.Share.QueryParam)

			var (
				state jsonerd.ShareState
				err   error
			)
			if isShareURL(args[0]) {
				state, err = codec.StateFromURL(args[0])
			} else {
				state, err = codec.Decode(args[0])
			}
			if err != nil {
				return err
			}

			return writeFormatted(cmd.OutOrStdout(), format, state)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "output format (json, yaml)")
	return cmd
}

func newExportSchemaCommand(app *cli) *cobra.Command {
	var collection string

	cmd := &cobra.Command{
		Use:   "export-schema [file]",
		Short: "Print a JSON Schema describing the inferred model",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			model, err := internal.NewEngine(app.config.Heuristics).AnalyzeJSON(raw, collection)
			if err != nil {
				return err
			}

			schema, err := internal.ExportJSONSchema(model)
			if err != nil {
				return err
			}
			return writeFormatted(cmd.OutOrStdout(), "json", schema)
		},
	}

	cmd.Flags().StringVar(&collection, "collection", "", "name of the root collection")
	return cmd
}

func newValidateCommand(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <schema> <file>",
		Short: "Check a JSON document against a JSON Schema",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			schemaText, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read schema: %w", err)
			}
			var schema jsonschema.Schema
			if err := json.Unmarshal(schemaText, &schema); err != nil {
				return fmt.Errorf("parse schema: %w", err)
			}

			raw, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			if err := internal.ValidateDocument(&schema, raw); err != nil {
				return err
			}

			color.New(color.FgGreen, color.Bold).Fprintf(cmd.OutOrStdout(), "%s is valid\n", args[1])
			return nil
		},
	}
}

// readInput reads the named file, or stdin when no file was given.
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", args[0], err)
	}
	return data, nil
}

func isShareURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}
