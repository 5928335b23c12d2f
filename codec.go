// codec.go: entry framing, compression, and hash verification
//
// On-disk layout (all integers little-endian):
//
//	 0: u32  magic         = 0x44434B52 ("DCKR")
//	 4: u16  format_version
//	 6: u16  codec_flags   (bit0: lz4 value; bit1: raw; bit2-3: hash algo)
//	 8: u64  created_at_ns
//	16: u64  expires_at_ns (0 = never)
//	24: u32  key_len
//	28: u32  value_len_stored
//	32: u32  value_len_logical
//	36: [32] content_hash
//	68:      key_bytes
//	  :      value_bytes_stored
//	end-8: u64 trailer_magic
//
// Copyright (c) 2025 loonghao
// SPDX-License-Identifier: MPL-2.0
package diskcache

import (
	"encoding/binary"

	"github.com/pierrec/lz4/v4"
)

const (
	entryMagic        uint32 = 0x44434B52 // "DCKR"
	entryTrailerMagic uint64 = 0x454E4452454E4421
	formatVersion1    uint16 = 1

	codecFlagLZ4     uint16 = 1 << 0
	codecFlagRaw     uint16 = 1 << 1
	codecHashShift           = 2
	codecHashMask    uint16 = 0x3 << codecHashShift

	hashAlgoBlake3 uint16 = 0

	entryHeaderSize = 68 // bytes before key_bytes
	entryTrailerLen = 8  // bytes of trailer_magic
)

// decodedEntry is the in-memory result of decoding an entry file.
type decodedEntry struct {
	FormatVersion uint16
	CodecFlags    uint16
	CreatedAtNs   int64
	ExpiresAtNs   int64
	Key           []byte
	Value         []byte // logical (decompressed) value bytes
	ContentHash   [32]byte
}

// encodeEntry frames key/value into the on-disk entry layout, optionally
// LZ4-compressing the value payload. createdAtNs/expiresAtNs are caller
// supplied so the controller controls the clock (via TimeProvider).
func encodeEntry(key, value []byte, createdAtNs, expiresAtNs int64, compress bool, maxValueSize int) ([]byte, error) {
	if len(value) > maxValueSize {
		return nil, NewErrTooLarge(len(value), maxValueSize)
	}

	hash := contentHash(key, value)

	flags := hashAlgoBlake3 << codecHashShift
	stored := value
	if compress && len(value) > 0 {
		bound := lz4.CompressBlockBound(len(value))
		buf := make([]byte, bound)
		var c lz4.Compressor
		n, err := c.CompressBlock(value, buf)
		if err != nil {
			return nil, NewErrInternal("lz4_compress", err)
		}
		if n > 0 && n < len(value) {
			stored = buf[:n]
			flags |= codecFlagLZ4
		} else {
			// Compression didn't help; store raw and mark explicitly so a
			// decoder never tries to LZ4-decompress a raw payload.
			flags |= codecFlagRaw
		}
	} else {
		flags |= codecFlagRaw
	}

	total := entryHeaderSize + len(key) + len(stored) + entryTrailerLen
	buf := make([]byte, total)

	binary.LittleEndian.PutUint32(buf[0:4], entryMagic)
	binary.LittleEndian.PutUint16(buf[4:6], formatVersion1)
	binary.LittleEndian.PutUint16(buf[6:8], flags)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(createdAtNs))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(expiresAtNs))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(len(key)))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(len(stored)))
	binary.LittleEndian.PutUint32(buf[32:36], uint32(len(value)))
	copy(buf[36:68], hash[:])
	copy(buf[68:68+len(key)], key)
	copy(buf[68+len(key):68+len(key)+len(stored)], stored)
	binary.LittleEndian.PutUint64(buf[total-8:total], entryTrailerMagic)

	return buf, nil
}

// decodeEntry parses and fully verifies an on-disk entry buffer: magic,
// version, trailer sentinel, length consistency, decompression, and content
// hash. An unsupported format version returns a VersionMismatch error,
// unrecognized codec flags an UnknownCodec error, and any other mismatch a
// CorruptEntry/HashMismatch error (never a partially-populated
// decodedEntry).
func decodeEntry(path string, buf []byte) (*decodedEntry, error) {
	if len(buf) < entryHeaderSize+entryTrailerLen {
		return nil, NewErrCorruptEntry(path, "file too short")
	}

	magic := binary.LittleEndian.Uint32(buf[0:4])
	if magic != entryMagic {
		return nil, NewErrCorruptEntry(path, "bad magic")
	}

	version := binary.LittleEndian.Uint16(buf[4:6])
	if version != formatVersion1 {
		return nil, NewErrVersionMismatch(version)
	}

	flags := binary.LittleEndian.Uint16(buf[6:8])
	if flags&codecHashMask>>codecHashShift != hashAlgoBlake3 {
		return nil, NewErrUnknownCodec(flags)
	}

	createdAt := int64(binary.LittleEndian.Uint64(buf[8:16]))
	expiresAt := int64(binary.LittleEndian.Uint64(buf[16:24]))
	keyLen := binary.LittleEndian.Uint32(buf[24:28])
	storedLen := binary.LittleEndian.Uint32(buf[28:32])
	logicalLen := binary.LittleEndian.Uint32(buf[32:36])
	var hash [32]byte
	copy(hash[:], buf[36:68])

	expectedTotal := entryHeaderSize + int64(keyLen) + int64(storedLen) + entryTrailerLen
	if expectedTotal != int64(len(buf)) {
		return nil, NewErrCorruptEntry(path, "length mismatch")
	}

	trailer := binary.LittleEndian.Uint64(buf[len(buf)-8:])
	if trailer != entryTrailerMagic {
		return nil, NewErrCorruptEntry(path, "bad trailer")
	}

	keyStart := entryHeaderSize
	keyEnd := keyStart + int(keyLen)
	valStart := keyEnd
	valEnd := valStart + int(storedLen)

	key := buf[keyStart:keyEnd]
	stored := buf[valStart:valEnd]

	var value []byte
	switch {
	case flags&codecFlagRaw != 0:
		value = stored
	case flags&codecFlagLZ4 != 0:
		value = make([]byte, logicalLen)
		n, err := lz4.UncompressBlock(stored, value)
		if err != nil || uint32(n) != logicalLen {
			return nil, NewErrCorruptEntry(path, "lz4 decompress failed")
		}
	default:
		return nil, NewErrUnknownCodec(flags)
	}

	got := contentHash(key, value)
	if got != hash {
		return nil, NewErrHashMismatch(path)
	}

	// Defensive copies so the returned entry doesn't alias a caller-owned
	// (possibly mmap'd) buffer past its lifetime.
	keyCopy := append([]byte(nil), key...)
	var valueCopy []byte
	if flags&codecFlagRaw != 0 {
		valueCopy = append([]byte(nil), value...)
	} else {
		valueCopy = value // already a freshly allocated decompression buffer
	}

	return &decodedEntry{
		FormatVersion: version,
		CodecFlags:    flags,
		CreatedAtNs:   createdAt,
		ExpiresAtNs:   expiresAt,
		Key:           keyCopy,
		Value:         valueCopy,
		ContentHash:   hash,
	}, nil
}
