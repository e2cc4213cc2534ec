// Package server implements the MCP (Model Context Protocol) server for
// random-dot marker tools.
//
// This package provides a JSON-RPC 2.0 server that exposes marker
// generation, rendering and recognition through the MCP protocol, so MCP
// clients can create printable markers and locate them in captured images.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//   - image_threshold: Binarize an image as the detector sees it
//
// Marker Sets:
//   - marker_generate: Generate a marker set and save it as YAML
//   - marker_render: Render one marker or a whole sheet as PNG
//
// Recognition:
//   - marker_detect: Identify markers and report their corners
//   - marker_crop: Cut out the image area of one detected marker
//
// # Caching
//
// Loaded images are cached by path and reused across tool calls. Marker
// sets are registered once per definition and configuration file; the
// resulting recognizer is shared by every later marker_detect and
// marker_crop call. marker_generate drops the recognizers of the file it
// overwrites.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// An image without markers is not an error; marker_detect returns an empty
// detection list.
//
// # Usage
//
// The server is started by the dotmarker binary's serve command:
//
//	srv := server.New()
//	if err := srv.Serve(os.Stdin, os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
package server
