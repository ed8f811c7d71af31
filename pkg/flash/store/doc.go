// Package store manages one tagged logical record per physical flash
// sector.
package store

// Each sector holds a fixed header followed by the payload:
//
//   [valid:1][write_count:4][length:8][payload:length]  (little-endian)
//
// Writes are erase-then-program for the whole sector; the write count
// carried in the header survives rewrites and erases, so it tracks the
// wear of the sector across the life of the image. Only an external
// reflash resets it.
//
// The store assumes exclusive ownership of the managed region and does
// no internal locking beyond the device's critical section: like the
// hardware it drives, it is a single resource and callers serialize
// access to it.
