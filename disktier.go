// disktier.go: on-disk layout and entry-file I/O for the disk tier
//
// Directory layout under Config.Directory:
//
//	meta.json        schema version (checked at open) plus the eviction and
//	                 compression settings recorded at creation (not checked)
//	data/ab/cd/*.bin entry files, 2-level fan-out by fingerprint hex prefix
//	idx/index-*.log  index journal segments (index.go)
//	tmp/              scratch space reserved for future use; writes currently
//	                 stage their temp file alongside the destination so the
//	                 rename stays within one fan-out directory (same mount)
//
// Copyright (c) 2025 loonghao
// SPDX-License-Identifier: MPL-2.0
package diskcache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
)

const (
	metaSchemaVersion = 1
	dataDirName       = "data"
	idxDirName        = "idx"
	tmpDirName        = "tmp"
	metaFileName      = "meta.json"
)

// diskMeta is the persisted root descriptor, written once at first open and
// checked (not rewritten) on every subsequent open.
type diskMeta struct {
	SchemaVersion  int             `json:"schema_version"`
	EvictionPolicy EvictionPolicy  `json:"eviction_policy"`
	Compression    CompressionKind `json:"compression"`
}

// diskTier owns the entry-file namespace under Directory/data and the root
// meta.json descriptor.
type diskTier struct {
	root          string
	dataDir       string
	idxDir        string
	tmpDir        string
	mmapThreshold int64
	fsync         bool
}

func newDiskTier(cfg Config) *diskTier {
	return &diskTier{
		root:          cfg.Directory,
		dataDir:       filepath.Join(cfg.Directory, dataDirName),
		idxDir:        filepath.Join(cfg.Directory, idxDirName),
		tmpDir:        filepath.Join(cfg.Directory, tmpDirName),
		mmapThreshold: cfg.MmapThreshold,
		fsync:         cfg.FsyncOnWrite,
	}
}

// open ensures the directory skeleton exists and reconciles meta.json,
// returning the (possibly freshly-written) descriptor.
func (d *diskTier) open(cfg Config) (diskMeta, error) {
	for _, dir := range []string{d.root, d.dataDir, d.idxDir, d.tmpDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return diskMeta{}, NewErrInvalidDirectory(dir, err)
		}
	}

	path := filepath.Join(d.root, metaFileName)
	buf, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return diskMeta{}, NewErrInvalidDirectory(path, err)
		}
		meta := diskMeta{
			SchemaVersion:  metaSchemaVersion,
			EvictionPolicy: cfg.EvictionPolicy,
			Compression:    cfg.Compression,
		}
		encoded, mErr := json.MarshalIndent(meta, "", "  ")
		if mErr != nil {
			return diskMeta{}, NewErrInternal("marshal_meta", mErr)
		}
		if wErr := writeAtomic(context.Background(), path, encoded, d.fsync); wErr != nil {
			return diskMeta{}, wErr
		}
		return meta, nil
	}

	var meta diskMeta
	if err := json.Unmarshal(buf, &meta); err != nil {
		return diskMeta{}, NewErrCorruptEntry(path, "meta.json unmarshal failed")
	}
	if meta.SchemaVersion != metaSchemaVersion {
		return diskMeta{}, NewErrSchemaMismatch(metaSchemaVersion, meta.SchemaVersion)
	}
	return meta, nil
}

// pathFor returns the absolute entry-file path for fp.
func (d *diskTier) pathFor(fp Fingerprint) string {
	return filepath.Join(d.dataDir, filepath.FromSlash(fp.relPath()))
}

// write encodes and durably persists an entry for fp, returning the encoded
// size on disk.
func (d *diskTier) write(ctx context.Context, fp Fingerprint, key, value []byte, createdAtNs, expiresAtNs int64, compress bool, maxValueSize int) (int64, error) {
	buf, err := encodeEntry(key, value, createdAtNs, expiresAtNs, compress, maxValueSize)
	if err != nil {
		return 0, err
	}

	path := d.pathFor(fp)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, NewErrIo(ErrCodeIoUnknown, path, err)
	}
	if err := writeAtomic(ctx, path, buf, d.fsync); err != nil {
		return 0, err
	}
	return int64(len(buf)), nil
}

// read loads and fully verifies the entry file for fp.
func (d *diskTier) read(fp Fingerprint) (*decodedEntry, error) {
	path := d.pathFor(fp)
	buf, err := readAll(path, d.mmapThreshold)
	if err != nil {
		return nil, err
	}
	return decodeEntry(path, buf)
}

// remove deletes the entry file for fp. Absence is not an error.
func (d *diskTier) remove(fp Fingerprint) error {
	return remove(d.pathFor(fp))
}

// clear removes every entry file under data/, recreating empty fan-out
// directories lazily on next write.
func (d *diskTier) clear() error {
	if err := os.RemoveAll(d.dataDir); err != nil {
		return NewErrIo(ErrCodeIoUnknown, d.dataDir, err)
	}
	if err := os.MkdirAll(d.dataDir, 0o755); err != nil {
		return NewErrIo(ErrCodeIoUnknown, d.dataDir, err)
	}
	return nil
}

// scanEntry is a single entry discovered while walking data/.
type scanEntry struct {
	Fingerprint Fingerprint
	Path        string
	Size        int64
}

// walk visits every *.bin file under data/, decoding its fingerprint from
// its path rather than its content (cheap, and tolerant of a corrupt body
// that recovery will flag separately). fn returning an error stops the walk.
func (d *diskTier) walk(fn func(scanEntry) error) error {
	return filepath.WalkDir(d.dataDir, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if filepath.Ext(path) != ".bin" {
			return nil
		}
		fp, ok := fingerprintFromPath(path)
		if !ok {
			return nil // not one of ours; leave it alone
		}
		info, err := entry.Info()
		if err != nil {
			return nil
		}
		return fn(scanEntry{Fingerprint: fp, Path: path, Size: info.Size()})
	})
}

func fingerprintFromPath(path string) (Fingerprint, bool) {
	base := filepath.Base(path)
	hexPart := base[:len(base)-len(filepath.Ext(base))]
	var fp Fingerprint
	if len(hexPart) != len(fp)*2 {
		return fp, false
	}
	for i := range fp {
		hi, ok1 := hexNibble(hexPart[i*2])
		lo, ok2 := hexNibble(hexPart[i*2+1])
		if !ok1 || !ok2 {
			return fp, false
		}
		fp[i] = hi<<4 | lo
	}
	return fp, true
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
