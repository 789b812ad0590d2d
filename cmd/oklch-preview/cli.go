package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/urfave/cli/v2"

	"github.com/GosuCode/oklch-color-preview/internal/config"
	"github.com/GosuCode/oklch-color-preview/internal/errors"
	"github.com/GosuCode/oklch-color-preview/internal/ops"
	"github.com/GosuCode/oklch-color-preview/internal/tui"
	"github.com/GosuCode/oklch-color-preview/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "oklch-preview",
		Usage:   "Color swatches for oklch() literals",
		Version: Version,
		Commands: []*cli.Command{
			convertCmd(),
			scanCmd(cfg),
			storeCmd(db, cfg),
			fetchCmd(db, cfg),
			listCmd(db),
			deleteCmd(db),
			importCmd(db, cfg),
			viewCmd(cfg),
			serveCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// convertCmd creates the convert command.
func convertCmd() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert one OKLCH color to sRGB (use -- before negative values)",
		ArgsUsage: "<l> <c> <h> [alpha]",
		Action: func(c *cli.Context) error {
			if c.NArg() < 3 || c.NArg() > 4 {
				return outputError(errors.NewInvalidRequest("expected <l> <c> <h> [alpha]"))
			}
			args := c.Args()
			output, err := ops.Convert(ops.ConvertInput{
				L:     args.Get(0),
				C:     args.Get(1),
				H:     args.Get(2),
				Alpha: args.Get(3),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// scanCmd creates the scan command.
func scanCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "List color markers for a file, or for text piped via stdin",
		ArgsUsage: "[file]",
		Action: func(c *cli.Context) error {
			input := ops.ScanInput{}

			if c.NArg() > 0 {
				text, err := ops.ReadTextFile(c.Args().First(), cfg)
				if err != nil {
					return outputError(err)
				}
				input.Name = c.Args().First()
				input.Text = text
			} else {
				if !stdinHasData() {
					return outputError(errors.NewInvalidRequest("pass a file or pipe text via stdin"))
				}
				text, err := readStdin()
				if err != nil {
					return outputError(err)
				}
				input.Text = text
			}

			output, err := ops.Scan(cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// storeCmd creates the store command.
func storeCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "store",
		Usage: "Store a document (reads text from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true, Usage: "Document name"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace"},
		},
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("text must be piped via stdin"))
			}
			text, err := readStdin()
			if err != nil {
				return outputError(err)
			}

			output, err := ops.StoreDocument(db, cfg, ops.StoreInput{
				Name: c.String("name"),
				Text: text,
				Mode: ops.StoreMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// fetchCmd creates the fetch command.
func fetchCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch a document with its color markers",
		ArgsUsage: "[id]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Document name"},
			&cli.BoolFlag{Name: "no-text", Usage: "Exclude text from output"},
		},
		Action: func(c *cli.Context) error {
			input := ops.FetchInput{Name: c.String("name")}
			if c.NArg() > 0 {
				input.ID = c.Args().First()
			}
			if c.Bool("no-text") {
				includeText := false
				input.IncludeText = &includeText
			}

			output, err := ops.FetchDocument(db, cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List stored documents",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Max items"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ListDocuments(context.Background(), db, ops.ListInput{
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Permanently delete a document",
		ArgsUsage: "[id]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Document name"},
		},
		Action: func(c *cli.Context) error {
			input := ops.DeleteInput{Name: c.String("name")}
			if c.NArg() > 0 {
				input.ID = c.Args().First()
			}

			output, err := ops.DeleteDocument(db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import a text file as a document",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Document name (default: file name)"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("path is required"))
			}

			output, err := ops.ImportDocument(db, cfg, ops.ImportInput{
				Path: c.Args().First(),
				Name: c.String("name"),
				Mode: ops.StoreMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// viewCmd creates the view command.
func viewCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "view",
		Usage:     "Show files in the terminal with colored swatches",
		ArgsUsage: "<file>...",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("at least one file is required"))
			}

			screen, err := tcell.NewScreen()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if err := screen.Init(); err != nil {
				return outputError(errors.NewInternal(err))
			}
			defer screen.Fini()

			v := tui.New(screen, cfg)
			for _, path := range c.Args().Slice() {
				if err := v.Open(path); err != nil {
					return outputError(err)
				}
			}
			return v.Run()
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8765, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(db, cfg, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if appErr, ok := err.(*errors.Error); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", appErr.Code, appErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all of stdin as UTF-8 text. Text is kept byte-exact so
// marker offsets match the input.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if !utf8.Valid(data) {
		return "", errors.NewInvalidRequest("stdin is not valid UTF-8 text")
	}
	return string(data), nil
}
