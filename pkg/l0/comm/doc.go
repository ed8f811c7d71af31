// Package comm implements the L0 flash command protocol.
package comm

// The protocol drives a sector record store across a peer-to-peer
// byte channel (serial port, socket, pipe). Frames carry a one-byte
// sequence number and the two ends synchronize with a REQ/ACK
// handshake, so either side recovers from lost or corrupted bytes by
// resyncing instead of stalling. There is no bit verification
// (CRC/checksum); enable parity on the serial port if the channel
// needs it.
//
// Producer: flash firmware, or flashd standing in for it
// Consumer: host tooling issuing write/read/erase/stat commands
