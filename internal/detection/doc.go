// Package detection finds printed dots in a binary image and reports each as
// an ellipse observation.
//
// The detector is the first stage of marker recognition. It knows nothing
// about markers: it turns foreground blobs into sub-pixel dot centers and
// leaves the identification to the llah and recognition packages.
//
// # Algorithm Overview
//
// Detection runs a fixed pipeline over the binary image:
//
//  1. Blob Labeling: Group foreground pixels into 4- or 8-connected blobs
//     with an explicit-stack flood fill
//  2. Contour Extraction: Keep the blob pixels that touch the background
//  3. Ellipse Fitting: Estimate center, axes and orientation from the
//     blob's second order moments
//  4. Filtering: Reject blobs whose contour is too short, whose ellipse is
//     too thin or too elongated, or whose contour strays from the ellipse
//  5. Edge Check (optional): Sample a gray image across the ellipse
//     boundary and reject blobs without a real intensity edge
//
// Blobs touching the image border are dropped because their shape is
// truncated and their center is biased.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at the top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Pixel (x, y) has its center at (x+0.5, y+0.5)
//
// Observation centers are continuous positions in this system.
//
// # Rejections
//
// Rejected blobs are expected and frequent: thresholding leaves specks,
// merges touching dots and splits noisy ones. Rejections are not errors.
// They simply shrink the observation set, and the recognizer is designed to
// tolerate missing and spurious dots.
//
// # Thread Safety
//
// A Detector holds only its configuration. One Detector may serve any
// number of goroutines, each with its own image.
package detection
