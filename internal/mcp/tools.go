package mcp

import "github.com/mark3labs/mcp-go/mcp"

const componentHelp = "Decimal number or percentage, as written inside oklch() (e.g. 0.7 or 70%)"

var convertToolDef = mcp.NewTool("color_convert",
	mcp.WithDescription("Convert one OKLCH color to sRGB. Reports the clamped rgb() swatch, hex, and whether the color was inside the sRGB gamut."),
	mcp.WithString("l", mcp.Required(), mcp.Description("Lightness. "+componentHelp)),
	mcp.WithString("c", mcp.Required(), mcp.Description("Chroma. "+componentHelp)),
	mcp.WithString("h", mcp.Required(), mcp.Description("Hue in degrees. "+componentHelp)),
	mcp.WithString("alpha", mcp.Description("Alpha, default 1. "+componentHelp)),
)

var scanToolDef = mcp.NewTool("color_scan",
	mcp.WithDescription("Find every oklch() literal in text and return one color marker per valid literal, with line/column ranges and swatch styling."),
	mcp.WithString("text", mcp.Required(), mcp.Description("Text to scan")),
	mcp.WithString("name", mcp.Description("Optional label echoed in the result")),
)

var storeToolDef = mcp.NewTool("document_store",
	mcp.WithDescription("Save a document under a unique name."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Document name (case-insensitive, unique)")),
	mcp.WithString("text", mcp.Required(), mcp.Description("Document text")),
	mcp.WithString("mode", mcp.Enum("error", "replace"), mcp.Description("Behavior when the name exists (default: error)")),
)

var fetchToolDef = mcp.NewTool("document_fetch",
	mcp.WithDescription("Load a stored document by id or name, with freshly computed color markers."),
	mcp.WithString("id", mcp.Description("Document ID")),
	mcp.WithString("name", mcp.Description("Document name")),
	mcp.WithBoolean("include_text", mcp.Description("Include document text (default: true)")),
)

var listToolDef = mcp.NewTool("document_list",
	mcp.WithDescription("List stored documents, most recently updated first."),
	mcp.WithNumber("limit", mcp.Description("Max items (default: 20, max: 100)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
)

var deleteToolDef = mcp.NewTool("document_delete",
	mcp.WithDescription("Permanently delete a stored document."),
	mcp.WithString("id", mcp.Description("Document ID")),
	mcp.WithString("name", mcp.Description("Document name")),
)

var importToolDef = mcp.NewTool("document_import",
	mcp.WithDescription("Import a UTF-8 text file from disk as a document."),
	mcp.WithString("path", mcp.Required(), mcp.Description("File path (must be inside an allowed directory)")),
	mcp.WithString("name", mcp.Description("Document name (default: file name)")),
	mcp.WithString("mode", mcp.Enum("error", "replace"), mcp.Description("Behavior when the name exists (default: error)")),
)

var sessionOpenToolDef = mcp.NewTool("session_open",
	mcp.WithDescription("Open a stored document in the live session and make it active. Markers are recomputed for the active document."),
	mcp.WithString("id", mcp.Description("Document ID")),
	mcp.WithString("name", mcp.Description("Document name")),
)

var sessionEditToolDef = mcp.NewTool("session_edit",
	mcp.WithDescription("Replace a stored document's text. If the document is active in the session its markers are replaced."),
	mcp.WithString("id", mcp.Description("Document ID")),
	mcp.WithString("name", mcp.Description("Document name")),
	mcp.WithString("text", mcp.Required(), mcp.Description("New document text")),
)

var sessionCloseToolDef = mcp.NewTool("session_close",
	mcp.WithDescription("Close a document in the live session. The stored document is kept."),
	mcp.WithString("id", mcp.Description("Document ID")),
	mcp.WithString("name", mcp.Description("Document name")),
)

var sessionMarkersToolDef = mcp.NewTool("session_markers",
	mcp.WithDescription("Return the open documents and the markers currently shown for the active one."),
)
