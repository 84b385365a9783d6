package client

import (
	"errors"

	"github.com/voxstory/voxstory-client/internal/apierr"
	"github.com/voxstory/voxstory-client/internal/types"
)

// ErrBackPressure is returned when the client's internal shard queue is full.
var ErrBackPressure = errors.New("back-pressure (queue full)")

// IsBackPressure reports whether err is a back-pressure error.
func IsBackPressure(err error) bool { return errors.Is(err, ErrBackPressure) }

// Re-export shared SDK error so callers compare against a single symbol.
var ErrNotFound = types.ErrNotFound

// ErrorCode is the stable tag carried by classified errors. UIs branch on
// the code, never on error strings.
type ErrorCode = apierr.Code

// Taxonomy codes re-exported for consumers of the root package.
const (
	CodeOffline            = apierr.CodeOffline
	CodeTimeout            = apierr.CodeTimeout
	CodeAuthError          = apierr.CodeAuthError
	CodeAPIError           = apierr.CodeAPIError
	CodeStorageError       = apierr.CodeStorageError
	CodeDownloadError      = apierr.CodeDownloadError
	CodeDownloadCancelled  = apierr.CodeDownloadCancelled
	CodeGenerationTimeout  = apierr.CodeGenerationTimeout
	CodeMissingVoiceID     = apierr.CodeMissingVoiceID
	CodeCloneError         = apierr.CodeCloneError
	CodeVerificationError  = apierr.CodeVerificationError
	CodeQueueProcessingErr = apierr.CodeQueueProcessingErr
)

// CodeOf extracts the taxonomy code from err, or empty when unclassified.
func CodeOf(err error) ErrorCode { return apierr.CodeOf(err) }

// UserMessage resolves err to a human-readable message in the given locale.
func UserMessage(err error, locale string) string { return apierr.UserMessage(err, locale) }
