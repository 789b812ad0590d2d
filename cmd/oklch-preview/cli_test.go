package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/GosuCode/oklch-color-preview/internal/config"
	"github.com/GosuCode/oklch-color-preview/internal/db"
	"github.com/GosuCode/oklch-color-preview/internal/ops"
)

const paletteText = ":root {\n  --accent: oklch(0.7 0.1 180);\n  --hot: oklch(1 0.4 0);\n}\n"

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	cleanup := func() {
		database.Close()
	}
	return database, cleanup
}

// runApp runs the app with optional stdin and returns captured stdout.
func runApp(t *testing.T, app *cli.App, stdin *string, args ...string) ([]byte, error) {
	t.Helper()

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	if stdin != nil {
		oldStdin := os.Stdin
		stdinR, stdinW, _ := os.Pipe()
		os.Stdin = stdinR
		defer func() { os.Stdin = oldStdin }()

		go func() {
			_, _ = stdinW.WriteString(*stdin)
			stdinW.Close()
		}()
	}

	err := app.Run(append([]string{"oklch-preview"}, args...))

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout
	return buf.Bytes(), err
}

func TestCLIConvert(t *testing.T) {
	app := newCLIApp(nil, config.DefaultConfig())

	out, err := runApp(t, app, nil, "convert", "0.7", "0.1", "180")
	if err != nil {
		t.Fatalf("convert command failed: %v", err)
	}

	var output ops.ConvertOutput
	if err := json.Unmarshal(out, &output); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if output.CSS != "rgb(75, 179, 161)" {
		t.Errorf("expected rgb(75, 179, 161), got %s", output.CSS)
	}
	if output.Hex != "#4bb3a1" {
		t.Errorf("expected #4bb3a1, got %s", output.Hex)
	}
	if !output.InGamut {
		t.Error("expected in_gamut=true")
	}

	t.Run("percent and alpha", func(t *testing.T) {
		out, err := runApp(t, app, nil, "convert", "70%", "0.1", "180", "50%")
		if err != nil {
			t.Fatalf("convert command failed: %v", err)
		}
		var output ops.ConvertOutput
		if err := json.Unmarshal(out, &output); err != nil {
			t.Fatalf("failed to parse output: %v", err)
		}
		if output.CSS != "rgba(75, 179, 161, 0.5)" {
			t.Errorf("expected rgba(75, 179, 161, 0.5), got %s", output.CSS)
		}
	})

	t.Run("wrong arity", func(t *testing.T) {
		if _, err := runApp(t, app, nil, "convert", "0.7"); err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("invalid component", func(t *testing.T) {
		if _, err := runApp(t, app, nil, "convert", "abc", "0.1", "180"); err == nil {
			t.Error("expected error, got nil")
		}
	})
}

func TestCLIScan(t *testing.T) {
	cfg := config.DefaultConfig()
	app := newCLIApp(nil, cfg)

	t.Run("stdin", func(t *testing.T) {
		text := paletteText
		out, err := runApp(t, app, &text, "scan")
		if err != nil {
			t.Fatalf("scan command failed: %v", err)
		}

		var output ops.ScanOutput
		if err := json.Unmarshal(out, &output); err != nil {
			t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
		}
		if output.Count != 2 {
			t.Fatalf("expected 2 markers, got %d", output.Count)
		}
		if output.Markers[0].Range.Start.Line != 1 {
			t.Errorf("expected first marker on line 1, got %d", output.Markers[0].Range.Start.Line)
		}
		if output.Markers[1].InGamut {
			t.Error("expected second marker out of gamut")
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "theme.css")
		if err := os.WriteFile(path, []byte(paletteText), 0o600); err != nil {
			t.Fatal(err)
		}

		out, err := runApp(t, app, nil, "scan", path)
		if err != nil {
			t.Fatalf("scan command failed: %v", err)
		}

		var output ops.ScanOutput
		if err := json.Unmarshal(out, &output); err != nil {
			t.Fatalf("failed to parse output: %v", err)
		}
		if output.Name != path {
			t.Errorf("expected name=%s, got %s", path, output.Name)
		}
		if output.Count != 2 {
			t.Errorf("expected 2 markers, got %d", output.Count)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := runApp(t, app, nil, "scan", filepath.Join(t.TempDir(), "nope.css")); err == nil {
			t.Error("expected error, got nil")
		}
	})
}

func TestCLIStore(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	app := newCLIApp(database, config.DefaultConfig())

	text := paletteText
	out, err := runApp(t, app, &text, "store", "--name=Theme")
	if err != nil {
		t.Fatalf("store command failed: %v", err)
	}

	var output ops.StoreOutput
	if err := json.Unmarshal(out, &output); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if output.ID == "" {
		t.Error("expected non-empty ID")
	}
	if output.Markers != 2 {
		t.Errorf("expected 2 markers, got %d", output.Markers)
	}

	t.Run("collision", func(t *testing.T) {
		text := "plain"
		if _, err := runApp(t, app, &text, "store", "--name=theme"); err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("replace", func(t *testing.T) {
		text := "plain"
		out, err := runApp(t, app, &text, "store", "--name=theme", "--mode=replace")
		if err != nil {
			t.Fatalf("store command failed: %v", err)
		}
		var replaced ops.StoreOutput
		if err := json.Unmarshal(out, &replaced); err != nil {
			t.Fatalf("failed to parse output: %v", err)
		}
		if !replaced.Replaced || replaced.ID != output.ID {
			t.Errorf("expected replace of %s, got %+v", output.ID, replaced)
		}
	})
}

func TestCLIFetch(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()
	cfg := config.DefaultConfig()

	stored, err := ops.StoreDocument(database, cfg, ops.StoreInput{Name: "fetch-test", Text: paletteText})
	if err != nil {
		t.Fatalf("failed to store test document: %v", err)
	}

	app := newCLIApp(database, cfg)

	t.Run("fetch by name", func(t *testing.T) {
		out, err := runApp(t, app, nil, "fetch", "--name=fetch-test")
		if err != nil {
			t.Fatalf("fetch command failed: %v", err)
		}

		var output ops.FetchOutput
		if err := json.Unmarshal(out, &output); err != nil {
			t.Fatalf("failed to parse output: %v", err)
		}
		if output.ID != stored.ID {
			t.Errorf("expected ID=%s, got %s", stored.ID, output.ID)
		}
		if output.Text != paletteText {
			t.Errorf("expected text to round trip, got %q", output.Text)
		}
		if len(output.Markers) != 2 {
			t.Errorf("expected 2 markers, got %d", len(output.Markers))
		}
	})

	t.Run("fetch by id without text", func(t *testing.T) {
		out, err := runApp(t, app, nil, "fetch", stored.ID, "--no-text")
		if err != nil {
			t.Fatalf("fetch command failed: %v", err)
		}

		var output ops.FetchOutput
		if err := json.Unmarshal(out, &output); err != nil {
			t.Fatalf("failed to parse output: %v", err)
		}
		if output.Text != "" {
			t.Errorf("expected no text, got %q", output.Text)
		}
		if len(output.Markers) != 2 {
			t.Errorf("expected 2 markers, got %d", len(output.Markers))
		}
	})
}

func TestCLIList(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()
	cfg := config.DefaultConfig()

	for _, name := range []string{"a", "b", "c"} {
		if _, err := ops.StoreDocument(database, cfg, ops.StoreInput{Name: name, Text: paletteText}); err != nil {
			t.Fatalf("failed to store %s: %v", name, err)
		}
	}

	app := newCLIApp(database, cfg)

	out, err := runApp(t, app, nil, "list", "--limit=2")
	if err != nil {
		t.Fatalf("list command failed: %v", err)
	}

	var output ops.ListOutput
	if err := json.Unmarshal(out, &output); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if len(output.Items) != 2 {
		t.Errorf("expected 2 items, got %d", len(output.Items))
	}
	if output.Pagination.Total != 3 || !output.Pagination.HasMore {
		t.Errorf("unexpected pagination: %+v", output.Pagination)
	}
}

func TestCLIDelete(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()
	cfg := config.DefaultConfig()

	if _, err := ops.StoreDocument(database, cfg, ops.StoreInput{Name: "gone", Text: paletteText}); err != nil {
		t.Fatalf("failed to store test document: %v", err)
	}

	app := newCLIApp(database, cfg)

	out, err := runApp(t, app, nil, "delete", "--name=gone")
	if err != nil {
		t.Fatalf("delete command failed: %v", err)
	}

	var output ops.DeleteOutput
	if err := json.Unmarshal(out, &output); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if !output.Deleted {
		t.Error("expected deleted=true")
	}

	if _, err := runApp(t, app, nil, "fetch", "--name=gone"); err == nil {
		t.Error("expected fetch after delete to fail")
	}
}

func TestCLIImport(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	dir := t.TempDir()
	path := filepath.Join(dir, "palette.css")
	if err := os.WriteFile(path, []byte(paletteText), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{dir}
	app := newCLIApp(database, cfg)

	out, err := runApp(t, app, nil, "import", path)
	if err != nil {
		t.Fatalf("import command failed: %v", err)
	}

	var output ops.StoreOutput
	if err := json.Unmarshal(out, &output); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if output.Name != "palette.css" {
		t.Errorf("expected name=palette.css, got %s", output.Name)
	}
	if output.Markers != 2 {
		t.Errorf("expected 2 markers, got %d", output.Markers)
	}

	t.Run("missing path", func(t *testing.T) {
		if _, err := runApp(t, app, nil, "import"); err == nil {
			t.Error("expected error, got nil")
		}
	})
}

// TestCLIErrorHandling tests error handling in CLI commands.
func TestCLIErrorHandling(t *testing.T) {
	database, cleanup := setupTestDB(t)
	defer cleanup()

	app := newCLIApp(database, config.DefaultConfig())

	t.Run("fetch not found returns error", func(t *testing.T) {
		// cli.Exit writes to stderr, so just verify the error is returned
		if _, err := runApp(t, app, nil, "fetch", "--name=nonexistent"); err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("delete not found returns error", func(t *testing.T) {
		if _, err := runApp(t, app, nil, "delete", "--name=nonexistent"); err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("view without files returns error", func(t *testing.T) {
		if _, err := runApp(t, app, nil, "view"); err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("coded errors keep their code", func(t *testing.T) {
		_, err := runApp(t, app, nil, "fetch", "--name=nonexistent")
		exitErr, ok := err.(cli.ExitCoder)
		if !ok {
			t.Fatalf("expected cli.ExitCoder, got %T", err)
		}
		if exitErr.ExitCode() != 1 {
			t.Errorf("expected exit code 1, got %d", exitErr.ExitCode())
		}
		if got := exitErr.Error(); !strings.HasPrefix(got, "[NOT_FOUND]") {
			t.Errorf("expected [NOT_FOUND] prefix, got %q", got)
		}
	})
}

// TestIsCLIMode tests the isCLIMode function.
func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{name: "no args", args: []string{"oklch-preview"}, expected: false},
		{name: "convert command", args: []string{"oklch-preview", "convert"}, expected: true},
		{name: "view command", args: []string{"oklch-preview", "view"}, expected: true},
		{name: "serve command", args: []string{"oklch-preview", "serve"}, expected: true},
		{name: "help flag", args: []string{"oklch-preview", "--help"}, expected: true},
		{name: "short version flag", args: []string{"oklch-preview", "-v"}, expected: true},
		{name: "unknown arg defaults to MCP", args: []string{"oklch-preview", "--unknown"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if result := isCLIMode(); result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

// TestIsHelpOrVersion tests the isHelpOrVersion function.
func TestIsHelpOrVersion(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{name: "no args", args: []string{"oklch-preview"}, expected: false},
		{name: "help flag", args: []string{"oklch-preview", "--help"}, expected: true},
		{name: "short help flag", args: []string{"oklch-preview", "-h"}, expected: true},
		{name: "version flag", args: []string{"oklch-preview", "--version"}, expected: true},
		{name: "help subcommand", args: []string{"oklch-preview", "help"}, expected: true},
		{name: "scan command is not help", args: []string{"oklch-preview", "scan"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if result := isHelpOrVersion(); result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestNeedsDB(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	for cmd, want := range map[string]bool{
		"convert": false, "scan": false, "view": false,
		"store": true, "fetch": true, "serve": true,
	} {
		os.Args = []string{"oklch-preview", cmd}
		if got := needsDB(); got != want {
			t.Errorf("needsDB(%s) = %v, want %v", cmd, got, want)
		}
	}
}

func TestReadStdin(t *testing.T) {
	t.Run("keeps text byte exact", func(t *testing.T) {
		content := "  oklch(0.5 0.1 30)\n"
		r, w, err := os.Pipe()
		if err != nil {
			t.Fatalf("Failed to create pipe: %v", err)
		}
		go func() {
			_, _ = w.WriteString(content)
			w.Close()
		}()

		oldStdin := os.Stdin
		os.Stdin = r
		defer func() { os.Stdin = oldStdin }()

		result, err := readStdin()
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if result != content {
			t.Errorf("expected %q, got %q", content, result)
		}
	})

	t.Run("rejects invalid utf8", func(t *testing.T) {
		r, w, err := os.Pipe()
		if err != nil {
			t.Fatalf("Failed to create pipe: %v", err)
		}
		go func() {
			_, _ = w.Write([]byte{0xff, 0xfe})
			w.Close()
		}()

		oldStdin := os.Stdin
		os.Stdin = r
		defer func() { os.Stdin = oldStdin }()

		if _, err := readStdin(); err == nil {
			t.Error("expected error, got nil")
		}
	})
}
