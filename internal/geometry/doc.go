// Package geometry provides the numeric building blocks shared by the marker
// generator, the dot detector and the recognizer.
//
// # Coordinate System
//
// Image-space points follow the standard image convention:
//   - Origin (0, 0) at the top-left corner of the top-left pixel
//   - X increases rightward
//   - Y increases downward
//   - Pixel (x, y) covers [x, x+1) × [y, y+1); its center is (x+0.5, y+0.5)
//
// Marker-local points use the same axis directions with the origin at the
// marker's top-left corner, in document units (usually millimetres).
//
// # Rasters
//
// Raster is parameterized by its pixel type so that binary masks (uint8),
// 16-bit captures and floating point gray images share one implementation.
// The pixel depth is fixed when the raster is created; no runtime type switch
// is involved.
//
// # Homographies
//
// FitHomography estimates a planar projective transform from point
// correspondences with the normalized direct linear transform. The singular
// value decomposition comes from gonum.
//
// # Thread Safety
//
// Rasters and SpatialIndex values are not synchronized. A SpatialIndex is
// read-only after construction and may be queried concurrently.
package geometry
