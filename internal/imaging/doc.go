// Package imaging holds the image I/O around the recognizer: loading
// captures, thresholding them into binary masks, rendering printable
// markers and drawing detection overlays.
//
// None of this code identifies markers. It converts between image.Image
// values and the geometry rasters the detection and recognition packages
// work on.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// Rendered markers map marker point (u, v) to pixel position
// (Margin + u·PixelsPerUnit, Margin + v·PixelsPerUnit).
//
// # Thresholding
//
// Threshold accepts any image.Image and produces a geometry.Binary where
// dark pixels are foreground. Global and Otsu thresholds are delegated to
// bild's segment package. The local mean method compares each pixel to the
// mean of its neighbourhood, computed from a summed area table.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. The other functions are
// stateless and can be called concurrently on different images.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Regions outside the image or with zero area
//   - Invalid threshold or render options
//   - File I/O errors during image loading and saving
package imaging
