// Package wal is the engine's durable operation log: a segmented
// append-only file of CRC-framed records. Every accepted submission
// and cancellation is appended; replaying the log through the engine
// reproduces the book exactly, because order ids are a pure function
// of the accepted-operation sequence.
//
// Frame layout, big-endian:
//
//	[type:1][seq:8][time:8][len:4][payload][crc32:4]
//
// The checksum covers everything before it. Segments rotate at a size
// threshold; TruncateBefore drops segments wholly behind a snapshot.
package wal
