// Package llah implements Locally Likely Arrangement Hashing for dot
// patterns.
//
// LLAH describes a point by the geometry of its neighbourhood rather than by
// its position, so the same physical dot produces the same descriptor no
// matter where the marker sits in the image or how it is rotated.
//
// # Descriptors
//
// For a reference point the encoder takes its N nearest neighbours and
// orders them by angle around the reference. Every combination of M of those
// neighbours, kept in that cyclic order, yields one descriptor. A descriptor
// is the list of invariants computed over every ordered sub-tuple of the
// combination:
//
//   - AFFINE: for each 4-tuple (a,b,c,d) the ratio of triangle areas
//     S(a,c,d)/S(a,b,c), unchanged by any affine map of the plane.
//   - CROSS_RATIO: for each 5-tuple the ratio
//     S(a,b,c)·S(a,d,e) / (S(a,b,d)·S(a,c,e)), unchanged by homographies.
//
// Which neighbour comes first in the cyclic order depends on the rotation of
// the marker. The encoder therefore evaluates all M cyclic starts and keeps
// the one with the smallest key, which makes the key rotation invariant
// without trying M lookups per descriptor.
//
// # Quantization
//
// Invariants are mapped to K discrete levels. Level boundaries are learned
// at registration so that every level holds roughly the same share of the
// registered invariants. Boundaries are placed midway between distinct
// sample values, never on a sample, so recomputing a registered invariant
// with floating point noise lands in the same level.
//
// The hash key is the weighted sum of levels, Σ level[i]·K^i, reduced modulo
// the table size. Keys are 32-bit unsigned values computed in 64-bit
// arithmetic.
//
// # Hash table
//
// Register builds a Table from a marker set. The table maps keys to buckets
// of entries (marker, point, levels); colliding keys simply share a bucket.
// Lookup returns only entries whose levels match the query exactly. A Table
// is never modified after Register returns and may be read by any number of
// goroutines.
package llah
