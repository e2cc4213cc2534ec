// Package recognition identifies registered random-dot markers in a frame.
//
// A Recognizer owns the immutable LLAH table built from a marker set and
// runs the per-frame pipeline:
//
//  1. Detection: binary image to dot observations (detection package)
//  2. Encoding: every observation is described by its neighbourhood and
//     looked up in the table (llah package)
//  3. Voting: each table hit votes for an (observation, marker, point)
//     pairing
//  4. Assembly: markers with enough votes become candidates with a one to
//     one set of correspondences
//  5. Verification: RANSAC fits a marker to image homography and keeps the
//     candidate only when enough correspondences agree
//
// # Determinism
//
// Every stage is deterministic. Vote ties are broken by observation and
// point index, candidates are verified in a fixed order, and RANSAC draws
// from a generator seeded from the configuration at the start of every
// verification.
//
// # Concurrency
//
// A Recognizer holds no per-frame state. Process may be called from any
// number of goroutines at once; each call allocates its own observations,
// votes and candidates.
//
// # Non-detection
//
// A frame without markers is a normal outcome and yields an empty detection
// list, not an error. Candidates rejected by RANSAC are dropped silently and
// only reported through debug logging.
package recognition
