package file

// Error codes of file operations. Lookups of a missing or deleted file fail
// with metadata.CodeFileNotFound.
const (
	// CodeStorageError is returned when the object store fails. Files stored
	// earlier in the same upload are kept.
	CodeStorageError = "STORAGE_ERROR"

	// CodeDirectoryOwnershipMismatch is returned when uploading into a directory
	// that belongs to another user.
	CodeDirectoryOwnershipMismatch = "DIRECTORY_OWNERSHIP_MISMATCH"
)
