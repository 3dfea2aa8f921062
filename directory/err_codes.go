package directory

// Error codes of directory operations. Lookups of a missing directory fail
// with metadata.CodeDirectoryNotFound.
const (
	// CodeBaseDirectoryExists is returned by CreateBase when the user already has an active root.
	CodeBaseDirectoryExists = "BASE_DIRECTORY_EXISTS"

	// CodeInvalidParent is returned when a move would detach a directory from its tree:
	// the new parent is the directory itself, one of its descendants, missing, or foreign.
	CodeInvalidParent = "INVALID_PARENT"

	// CodeProvisioningExhausted is returned when a root could neither be created
	// nor found after the configured number of attempts.
	CodeProvisioningExhausted = "PROVISIONING_EXHAUSTED"

	// CodeTreeTooDeep is returned when walking parents exceeds maxTreeDepth,
	// which only happens for corrupted (cyclic) trees.
	CodeTreeTooDeep = "DIRECTORY_TREE_TOO_DEEP"
)
