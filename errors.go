// errors.go: structured error handling for diskcache operations
//
// This file provides structured error types using the go-errors library,
// enabling rich error context, categorization, and standardized error codes
// for all cache operations.
//
// Copyright (c) 2025 loonghao
// SPDX-License-Identifier: MPL-2.0
package diskcache

import (
	goerrors "errors"
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes for diskcache operations.
const (
	// Configuration errors (1xxx)
	ErrCodeInvalidConfig     errors.ErrorCode = "DISKCACHE_INVALID_CONFIG"
	ErrCodeInvalidDirectory  errors.ErrorCode = "DISKCACHE_INVALID_DIRECTORY"
	ErrCodeSchemaMismatch    errors.ErrorCode = "DISKCACHE_SCHEMA_MISMATCH"
	ErrCodeInvalidEviction   errors.ErrorCode = "DISKCACHE_INVALID_EVICTION_POLICY"
	ErrCodeInvalidCompression errors.ErrorCode = "DISKCACHE_INVALID_COMPRESSION"

	// Operation errors (2xxx)
	ErrCodeNotFound     errors.ErrorCode = "DISKCACHE_NOT_FOUND"
	ErrCodeEmptyKey     errors.ErrorCode = "DISKCACHE_EMPTY_KEY"
	ErrCodeKeyTooLarge  errors.ErrorCode = "DISKCACHE_KEY_TOO_LARGE"
	ErrCodeTooLarge     errors.ErrorCode = "DISKCACHE_VALUE_TOO_LARGE"
	ErrCodeClosed       errors.ErrorCode = "DISKCACHE_CLOSED"

	// Codec / corruption errors (3xxx)
	ErrCodeCorruptEntry    errors.ErrorCode = "DISKCACHE_CORRUPT_ENTRY"
	ErrCodeHashMismatch    errors.ErrorCode = "DISKCACHE_HASH_MISMATCH"
	ErrCodeUnknownCodec    errors.ErrorCode = "DISKCACHE_UNKNOWN_CODEC"
	ErrCodeVersionMismatch errors.ErrorCode = "DISKCACHE_VERSION_MISMATCH"

	// I/O errors (4xxx)
	ErrCodeIoPermission errors.ErrorCode = "DISKCACHE_IO_PERMISSION"
	ErrCodeIoSpace      errors.ErrorCode = "DISKCACHE_IO_SPACE"
	ErrCodeIoTransient  errors.ErrorCode = "DISKCACHE_IO_TRANSIENT"
	ErrCodeIoUnknown    errors.ErrorCode = "DISKCACHE_IO_UNKNOWN"

	// Internal errors (5xxx)
	ErrCodeInternal        errors.ErrorCode = "DISKCACHE_INTERNAL_ERROR"
	ErrCodePanicRecovered  errors.ErrorCode = "DISKCACHE_PANIC_RECOVERED"
	ErrCodeRecoveryFailed  errors.ErrorCode = "DISKCACHE_RECOVERY_FAILED"
)

const (
	msgInvalidDirectory = "invalid or unwritable cache directory"
	msgSchemaMismatch   = "meta.json schema version mismatch"
	msgInvalidEviction  = "invalid eviction policy"
	msgInvalidCompression = "invalid compression kind"
	msgNotFound         = "key not found in cache"
	msgEmptyKey         = "key cannot be empty"
	msgKeyTooLarge      = "key exceeds maximum length"
	msgTooLarge         = "value exceeds max_value_size"
	msgClosed           = "cache is closed"
	msgCorruptEntry     = "entry file failed codec verification"
	msgHashMismatch     = "content hash mismatch"
	msgUnknownCodec     = "unknown codec flags"
	msgVersionMismatch  = "entry format_version not supported"
	msgInternal         = "internal cache error"
	msgPanicRecovered   = "panic recovered in cache operation"
	msgRecoveryFailed   = "startup recovery failed"
)

// =============================================================================
// CONFIGURATION ERRORS
// =============================================================================

// NewErrInvalidDirectory reports an unusable cache root directory.
func NewErrInvalidDirectory(dir string, cause error) error {
	return errors.Wrap(cause, ErrCodeInvalidDirectory, msgInvalidDirectory).
		WithContext("directory", dir)
}

// NewErrSchemaMismatch reports an incompatible on-disk schema version.
func NewErrSchemaMismatch(want, got int) error {
	return errors.NewWithContext(ErrCodeSchemaMismatch, msgSchemaMismatch, map[string]interface{}{
		"expected_schema": want,
		"found_schema":    got,
	})
}

// NewErrInvalidEviction reports an unrecognized eviction policy string.
func NewErrInvalidEviction(policy string) error {
	return errors.NewWithField(ErrCodeInvalidEviction, msgInvalidEviction, "policy", policy)
}

// NewErrInvalidCompression reports an unrecognized compression kind string.
func NewErrInvalidCompression(kind string) error {
	return errors.NewWithField(ErrCodeInvalidCompression, msgInvalidCompression, "compression", kind)
}

// =============================================================================
// OPERATION ERRORS
// =============================================================================

// NewErrNotFound reports a cache miss surfaced as an explicit error (used by
// APIs that return error rather than (value, bool)).
func NewErrNotFound(key []byte) error {
	return errors.NewWithField(ErrCodeNotFound, msgNotFound, "key_len", len(key))
}

// NewErrEmptyKey reports an empty key passed to an operation.
func NewErrEmptyKey(operation string) error {
	return errors.NewWithField(ErrCodeEmptyKey, msgEmptyKey, "operation", operation)
}

// NewErrKeyTooLarge reports a key exceeding the maximum length.
func NewErrKeyTooLarge(size, max int) error {
	return errors.NewWithContext(ErrCodeKeyTooLarge, msgKeyTooLarge, map[string]interface{}{
		"key_size": size,
		"max_size": max,
	})
}

// NewErrTooLarge reports a value exceeding max_value_size.
func NewErrTooLarge(size, max int) error {
	return errors.NewWithContext(ErrCodeTooLarge, msgTooLarge, map[string]interface{}{
		"value_size":     size,
		"max_value_size": max,
	})
}

// NewErrClosed reports an operation attempted on a closed Cache.
func NewErrClosed(operation string) error {
	return errors.NewWithField(ErrCodeClosed, msgClosed, "operation", operation)
}

// =============================================================================
// CODEC / CORRUPTION ERRORS
// =============================================================================

// NewErrCorruptEntry reports a generic codec verification failure.
func NewErrCorruptEntry(path, reason string) error {
	return errors.NewWithContext(ErrCodeCorruptEntry, msgCorruptEntry, map[string]interface{}{
		"path":   path,
		"reason": reason,
	})
}

// NewErrHashMismatch reports a content hash mismatch on decode.
func NewErrHashMismatch(path string) error {
	return errors.NewWithField(ErrCodeHashMismatch, msgHashMismatch, "path", path)
}

// NewErrUnknownCodec reports unrecognized codec_flags bits.
func NewErrUnknownCodec(flags uint16) error {
	return errors.NewWithField(ErrCodeUnknownCodec, msgUnknownCodec, "codec_flags", flags)
}

// NewErrVersionMismatch reports an unsupported entry format_version.
func NewErrVersionMismatch(version uint16) error {
	return errors.NewWithField(ErrCodeVersionMismatch, msgVersionMismatch, "format_version", version)
}

// =============================================================================
// I/O ERRORS
// =============================================================================

// NewErrIo wraps a lower-level I/O failure with a diskcache IoError kind.
func NewErrIo(kind errors.ErrorCode, path string, cause error) error {
	e := errors.Wrap(cause, kind, ioMessageFor(kind)).WithContext("path", path)
	if kind == ErrCodeIoTransient {
		e = e.AsRetryable()
	}
	return e
}

func ioMessageFor(kind errors.ErrorCode) string {
	switch kind {
	case ErrCodeIoPermission:
		return "permission denied"
	case ErrCodeIoSpace:
		return "no space left on device"
	case ErrCodeIoTransient:
		return "transient I/O failure"
	default:
		return "unknown I/O failure"
	}
}

// =============================================================================
// INTERNAL ERRORS
// =============================================================================

// NewErrInternal creates a generic internal error.
func NewErrInternal(operation string, cause error) error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeInternal, msgInternal).
			WithContext("operation", operation).
			WithSeverity("warning")
	}
	return errors.NewWithField(ErrCodeInternal, msgInternal, "operation", operation).
		WithSeverity("warning")
}

// NewErrPanicRecovered reports a panic recovered from a background worker.
func NewErrPanicRecovered(operation string, panicValue interface{}) error {
	return errors.NewWithContext(ErrCodePanicRecovered, msgPanicRecovered, map[string]interface{}{
		"operation":   operation,
		"panic_value": fmt.Sprintf("%v", panicValue),
	}).WithSeverity("critical")
}

// NewErrRecoveryFailed reports a fatal failure during startup recovery.
func NewErrRecoveryFailed(directory string, cause error) error {
	return errors.Wrap(cause, ErrCodeRecoveryFailed, msgRecoveryFailed).
		WithContext("directory", directory)
}

// =============================================================================
// ERROR CHECKING HELPERS
// =============================================================================

// IsNotFound reports whether err is a key-not-found error.
func IsNotFound(err error) bool {
	return errors.HasCode(err, ErrCodeNotFound)
}

// IsCorrupt reports whether err indicates a corrupt on-disk entry.
func IsCorrupt(err error) bool {
	return errors.HasCode(err, ErrCodeCorruptEntry) || errors.HasCode(err, ErrCodeHashMismatch)
}

// IsTooLarge reports whether err is a size-limit rejection, for either an
// oversized value or an oversized key.
func IsTooLarge(err error) bool {
	return errors.HasCode(err, ErrCodeTooLarge) || errors.HasCode(err, ErrCodeKeyTooLarge)
}

// IsConfigError reports whether err originates from configuration
// validation or directory/schema checks at open.
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		code := coder.ErrorCode()
		return code == ErrCodeInvalidConfig || code == ErrCodeInvalidDirectory ||
			code == ErrCodeSchemaMismatch || code == ErrCodeInvalidEviction ||
			code == ErrCodeInvalidCompression
	}
	return false
}

// IsIoError reports whether err is an I/O failure of any kind.
func IsIoError(err error) bool {
	if err == nil {
		return false
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		code := coder.ErrorCode()
		return code == ErrCodeIoPermission || code == ErrCodeIoSpace ||
			code == ErrCodeIoTransient || code == ErrCodeIoUnknown
	}
	return false
}

// IsRetryable reports whether err can be retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var retryable errors.Retryable
	if goerrors.As(err, &retryable) {
		return retryable.IsRetryable()
	}
	return false
}

// GetErrorCode extracts the error code from err, or "" if none.
func GetErrorCode(err error) errors.ErrorCode {
	if err == nil {
		return ""
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return ""
}

// GetErrorContext extracts the structured context map from err, if any.
func GetErrorContext(err error) map[string]interface{} {
	if err == nil {
		return nil
	}
	var dcErr *errors.Error
	if goerrors.As(err, &dcErr) {
		return dcErr.Context
	}
	return nil
}
