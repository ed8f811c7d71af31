// Package flash defines the raw flash device contract and provides
// hosted implementations for development and tests.
package flash

// Real hardware exposes three primitives: erase a whole sector,
// program previously erased cells, and memory-mapped reads. Erase sets
// every bit of the sector; program can only clear bits. The hosted
// devices in this package keep those semantics so code driving them
// behaves the same as on the chip.
//
// Producer: device implementations (in-memory, mmap'd image file)
// Consumer: the sector record store and anything else issuing raw
// flash operations
