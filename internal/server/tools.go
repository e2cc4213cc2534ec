package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pathProperty is the schema of an absolute image path argument.
var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

// definitionProperty is the schema of a marker set YAML argument.
var definitionProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the marker set YAML file",
}

// configProperty is the schema of the optional recognizer configuration.
var configProperty = map[string]interface{}{
	"type":        "string",
	"description": "Optional path to a JSON recognizer configuration. Defaults are used when omitted, with marker_length taken from the marker set.",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The image stays cached for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_threshold",
			Description: "Binarize an image the way the marker detector sees it. Dark pixels become foreground and are drawn black. Use this to tune threshold settings when markers are missed.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"method": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"local_mean", "global", "otsu"},
						"description": "Threshold method. Default local_mean",
						"default":     "local_mean",
					},
					"level": map[string]interface{}{
						"type":        "integer",
						"description": "Gray level for the global method (0-255). Default 128",
						"default":     128,
					},
					"block_size": map[string]interface{}{
						"type":        "integer",
						"description": "Neighbourhood size in pixels for local_mean. Default 50",
						"default":     50,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "A pixel is foreground when darker than scale times its local mean. Default 0.95",
						"default":     0.95,
					},
					"blur_radius": map[string]interface{}{
						"type":        "number",
						"description": "Optional Gaussian blur radius applied first",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to save the mask. When omitted the mask is returned as base64 PNG.",
					},
				},
				"required": []string{"path"},
			},
		},

		// Marker Sets
		{
			Name:        "marker_generate",
			Description: "Generate a set of random-dot markers and save it as YAML. The same seed and parameters always produce the same markers.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Path of the YAML file to write",
					},
					"dots": map[string]interface{}{
						"type":        "integer",
						"description": "Dots per marker. Default 30",
						"default":     30,
					},
					"markers": map[string]interface{}{
						"type":        "integer",
						"description": "Number of unique markers. Default 1",
						"default":     1,
					},
					"width": map[string]interface{}{
						"type":        "number",
						"description": "Marker side length in units. Default 80",
						"default":     80,
					},
					"dot_diameter": map[string]interface{}{
						"type":        "number",
						"description": "Dot diameter in units. Default 5",
						"default":     5,
					},
					"seed": map[string]interface{}{
						"type":        "integer",
						"description": "Random seed. Default 3735928559 (0xDEADBEEF)",
					},
					"units": map[string]interface{}{
						"type":        "string",
						"description": "Unit label stored in the file. Default mm",
						"default":     "mm",
					},
				},
				"required": []string{"output_path"},
			},
		},
		{
			Name:        "marker_render",
			Description: "Render one marker, or a sheet with every marker of a set, as black dots on white for printing.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"definition": definitionProperty,
					"marker_id": map[string]interface{}{
						"type":        "integer",
						"description": "Optional marker to render. When omitted the whole set is rendered as a sheet.",
					},
					"pixels_per_unit": map[string]interface{}{
						"type":        "number",
						"description": "Pixels per marker unit. Default 10",
						"default":     10,
					},
					"margin": map[string]interface{}{
						"type":        "integer",
						"description": "White margin around each marker in pixels. Default 20",
						"default":     20,
					},
					"label": map[string]interface{}{
						"type":        "boolean",
						"description": "Print the marker ID in the margin. Default true",
						"default":     true,
					},
					"border": map[string]interface{}{
						"type":        "boolean",
						"description": "Outline the marker square",
						"default":     false,
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to save the PNG. When omitted the image is returned as base64 PNG.",
					},
				},
				"required": []string{"definition"},
			},
		},

		// Recognition
		{
			Name:        "marker_detect",
			Description: "Find the markers of a set in an image. Returns each marker's ID, projected corners and inlier statistics, plus detector rejection counts.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":       pathProperty,
					"definition": definitionProperty,
					"config":     configProperty,
					"overlay_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path to save a copy of the image with detections drawn on it",
					},
				},
				"required": []string{"path", "definition"},
			},
		},
		{
			Name:        "marker_crop",
			Description: "Detect markers and return the image area of one of them as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":       pathProperty,
					"definition": definitionProperty,
					"config":     configProperty,
					"marker_id": map[string]interface{}{
						"type":        "integer",
						"description": "ID of the marker to crop",
					},
					"margin": map[string]interface{}{
						"type":        "number",
						"description": "Extra border as a fraction of the marker size. Default 0.1",
						"default":     0.1,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor. Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path", "definition", "marker_id"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
