package errors

// Error code constants
// Format: CATEGORY_SPECIFIC_DETAIL
// API consumers map these codes to their own handling

const (
	// ==================== Cache lookups (CACHE_) ====================
	CacheMissNotFound = "CACHE_MISS_NOT_FOUND" // identifier resolved to no row
	CacheMissStale    = "CACHE_MISS_STALE"     // row found but older than max age
	CacheInvalidAge   = "CACHE_INVALID_MAX_AGE" // unparsable max age parameter

	// ==================== Save path (SAVE_) ====================
	SaveRejected       = "SAVE_REJECTED"        // producer marked the extraction as failed
	SaveInvalidPayload = "SAVE_INVALID_PAYLOAD" // extraction body failed to bind

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT" // malformed request input
	ValidationInvalidID    = "VALIDATION_INVALID_ID"    // malformed identifier
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE" // value out of range

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"      // no such resource
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS" // duplicate key

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // unclassified failure
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // backing store unavailable or corrupt
	StorageFailure        = "STORAGE_FAILURE"         // persistence failed mid-operation
	ExportFailed          = "EXPORT_FAILED"           // spreadsheet generation failed
)
