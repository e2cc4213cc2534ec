package server

import (
	"encoding/json"
	"fmt"
	"image"

	"github.com/google/uuid"

	"github.com/ironsheep/dotmarker/internal/config"
	"github.com/ironsheep/dotmarker/internal/imaging"
	"github.com/ironsheep/dotmarker/internal/marker"
	"github.com/ironsheep/dotmarker/internal/monitoring"
	"github.com/ironsheep/dotmarker/internal/recognition"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "marker_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads images and recognizers from the caches as needed
//  4. Calls the appropriate imaging/marker/recognition function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_threshold":
		return s.handleImageThreshold(args)

	// Marker Sets
	case "marker_generate":
		return s.handleMarkerGenerate(args)
	case "marker_render":
		return s.handleMarkerRender(args)

	// Recognition
	case "marker_detect":
		return s.handleMarkerDetect(args)
	case "marker_crop":
		return s.handleMarkerCrop(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type imageThresholdArgs struct {
	Path       string  `json:"path"`
	Method     string  `json:"method"`
	Level      int     `json:"level"`
	BlockSize  int     `json:"block_size"`
	Scale      float64 `json:"scale"`
	BlurRadius float64 `json:"blur_radius"`
	OutputPath string  `json:"output_path"`
}

// ThresholdResult describes a binarized image.
type ThresholdResult struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Method     string `json:"method"`
	Foreground int    `json:"foreground_pixels"`
	OutputPath string `json:"output_path,omitempty"`

	// ImageBase64 holds the mask as PNG when no output path was given.
	ImageBase64 string `json:"image_base64,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
}

func (s *Server) handleImageThreshold(args json.RawMessage) (interface{}, error) {
	var a imageThresholdArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	cfg := config.Default().Threshold
	if a.Method != "" {
		cfg.Method = a.Method
	}
	if a.Level != 0 {
		cfg.Level = a.Level
	}
	if a.BlockSize != 0 {
		cfg.BlockSize = a.BlockSize
	}
	if a.Scale != 0 {
		cfg.Scale = a.Scale
	}
	cfg.BlurRadius = a.BlurRadius

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	binary, err := imaging.Threshold(img, cfg)
	if err != nil {
		return nil, err
	}

	result := &ThresholdResult{
		Width:      binary.Width,
		Height:     binary.Height,
		Method:     cfg.Method,
		Foreground: binary.CountNonZero(),
	}
	mask := imaging.BinaryImage(binary)
	if a.OutputPath != "" {
		if err := imaging.Save(mask, a.OutputPath); err != nil {
			return nil, err
		}
		s.cache.Evict(a.OutputPath)
		result.OutputPath = a.OutputPath
		return result, nil
	}
	encoded, err := imaging.EncodePNG(mask)
	if err != nil {
		return nil, err
	}
	result.ImageBase64 = encoded
	result.MimeType = "image/png"
	return result, nil
}

// === Marker Set Handlers ===

type markerGenerateArgs struct {
	OutputPath  string  `json:"output_path"`
	Dots        int     `json:"dots"`
	Markers     int     `json:"markers"`
	Width       float64 `json:"width"`
	DotDiameter float64 `json:"dot_diameter"`
	Seed        *uint64 `json:"seed"`
	Units       string  `json:"units"`
}

// GenerateResult describes a saved marker set.
type GenerateResult struct {
	OutputPath  string  `json:"output_path"`
	Markers     int     `json:"markers"`
	Dots        int     `json:"dots_per_marker"`
	Width       float64 `json:"marker_width"`
	DotDiameter float64 `json:"dot_diameter"`
	Seed        uint64  `json:"random_seed"`
	Units       string  `json:"units"`
}

func (s *Server) handleMarkerGenerate(args json.RawMessage) (interface{}, error) {
	var a markerGenerateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.OutputPath == "" {
		return nil, fmt.Errorf("output_path is required")
	}
	if a.Dots == 0 {
		a.Dots = 30
	}
	if a.Markers == 0 {
		a.Markers = 1
	}
	if a.Width == 0 {
		a.Width = 80
	}
	if a.DotDiameter == 0 {
		a.DotDiameter = 5
	}
	if a.Units == "" {
		a.Units = "mm"
	}
	seed := marker.DefaultSeed
	if a.Seed != nil {
		seed = *a.Seed
	}

	set, err := marker.GenerateSet(marker.SetParams{
		Params:  marker.Params{DotCount: a.Dots, Width: a.Width, DotDiameter: a.DotDiameter},
		Seed:    seed,
		Markers: a.Markers,
		Units:   a.Units,
	})
	if err != nil {
		return nil, err
	}
	if err := marker.SaveYAML(a.OutputPath, set); err != nil {
		return nil, err
	}
	s.forgetRecognizers(a.OutputPath)

	return &GenerateResult{
		OutputPath:  a.OutputPath,
		Markers:     len(set.Markers),
		Dots:        set.MaxDotsPerMarker,
		Width:       set.MarkerWidth,
		DotDiameter: set.DotDiameter,
		Seed:        set.Seed,
		Units:       set.Units,
	}, nil
}

type markerRenderArgs struct {
	Definition    string  `json:"definition"`
	MarkerID      *int    `json:"marker_id"`
	PixelsPerUnit float64 `json:"pixels_per_unit"`
	Margin        *int    `json:"margin"`
	Label         *bool   `json:"label"`
	Border        bool    `json:"border"`
	OutputPath    string  `json:"output_path"`
}

// RenderResult describes a rendered marker or sheet.
type RenderResult struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Markers    int    `json:"markers"`
	OutputPath string `json:"output_path,omitempty"`

	ImageBase64 string `json:"image_base64,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
}

func (s *Server) handleMarkerRender(args json.RawMessage) (interface{}, error) {
	var a markerRenderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	set, err := marker.LoadYAML(a.Definition)
	if err != nil {
		return nil, err
	}

	opts := imaging.DefaultRenderOptions()
	if a.PixelsPerUnit != 0 {
		opts.PixelsPerUnit = a.PixelsPerUnit
	}
	if a.Margin != nil {
		opts.Margin = *a.Margin
	}
	if a.Label != nil {
		opts.Label = *a.Label
	}
	opts.Border = a.Border

	var img image.Image
	count := len(set.Markers)
	if a.MarkerID != nil {
		def, ok := set.Marker(*a.MarkerID)
		if !ok {
			return nil, fmt.Errorf("marker %d not in %s", *a.MarkerID, a.Definition)
		}
		img, err = imaging.RenderMarker(def, opts)
		count = 1
	} else {
		img, err = imaging.RenderSheet(set, opts)
	}
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	result := &RenderResult{Width: bounds.Dx(), Height: bounds.Dy(), Markers: count}
	if a.OutputPath != "" {
		if err := imaging.Save(img, a.OutputPath); err != nil {
			return nil, err
		}
		s.cache.Evict(a.OutputPath)
		result.OutputPath = a.OutputPath
		return result, nil
	}
	encoded, err := imaging.EncodePNG(img)
	if err != nil {
		return nil, err
	}
	result.ImageBase64 = encoded
	result.MimeType = "image/png"
	return result, nil
}

// === Recognition Handlers ===

type markerDetectArgs struct {
	Path        string `json:"path"`
	Definition  string `json:"definition"`
	Config      string `json:"config"`
	OverlayPath string `json:"overlay_path"`
}

// DetectResult is the report of one recognized image.
type DetectResult struct {
	recognition.Report
	OverlayPath string `json:"overlay_path,omitempty"`
}

func (s *Server) handleMarkerDetect(args json.RawMessage) (interface{}, error) {
	var a markerDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, frame, err := s.detect(a.Path, a.Definition, a.Config)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	result := &DetectResult{
		Report: recognition.NewReport(uuid.NewString(), a.Path, bounds.Dx(), bounds.Dy(), frame),
	}
	if a.OverlayPath != "" {
		overlay, err := imaging.DrawDetections(img, frame, imaging.DefaultOverlayOptions())
		if err != nil {
			return nil, err
		}
		if err := imaging.Save(overlay, a.OverlayPath); err != nil {
			return nil, err
		}
		s.cache.Evict(a.OverlayPath)
		result.OverlayPath = a.OverlayPath
	}
	return result, nil
}

type markerCropArgs struct {
	Path       string  `json:"path"`
	Definition string  `json:"definition"`
	Config     string  `json:"config"`
	MarkerID   int     `json:"marker_id"`
	Margin     float64 `json:"margin"`
	Scale      float64 `json:"scale"`
}

// MarkerCropResult is the image area of one detected marker.
type MarkerCropResult struct {
	*imaging.CropResult
	MarkerID       int     `json:"marker_id"`
	InlierFraction float64 `json:"inlier_fraction"`
}

func (s *Server) handleMarkerCrop(args json.RawMessage) (interface{}, error) {
	var a markerCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	if a.Margin == 0 {
		a.Margin = 0.1
	}
	img, frame, err := s.detect(a.Path, a.Definition, a.Config)
	if err != nil {
		return nil, err
	}

	for _, det := range frame.Detections {
		if det.MarkerID != a.MarkerID {
			continue
		}
		crop, err := imaging.CropDetection(img, det, a.Margin, a.Scale)
		if err != nil {
			return nil, err
		}
		return &MarkerCropResult{
			CropResult:     crop,
			MarkerID:       det.MarkerID,
			InlierFraction: det.InlierFraction,
		}, nil
	}
	return nil, fmt.Errorf("marker %d not detected in %s", a.MarkerID, a.Path)
}

// detect runs the recognizer for definitionPath on the image at path.
func (s *Server) detect(path, definitionPath, configPath string) (image.Image, *recognition.Frame, error) {
	if definitionPath == "" {
		return nil, nil, fmt.Errorf("definition is required")
	}
	r, err := s.recognizer(definitionPath, configPath)
	if err != nil {
		return nil, nil, err
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, nil, err
	}
	frame, err := imaging.Detect(r, img)
	if err != nil {
		return nil, nil, err
	}
	monitoring.Debugf("%s: %d observations, %d detections", path, len(frame.Observations), len(frame.Detections))
	return img, frame, nil
}
