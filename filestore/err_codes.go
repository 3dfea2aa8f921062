package filestore

// Error codes for object store operations.
const (
	// CodeObjectNotFound is returned when no object exists under the key.
	CodeObjectNotFound = "OBJECT_NOT_FOUND"

	// CodeContainerNotFound is returned when the container does not exist.
	CodeContainerNotFound = "CONTAINER_NOT_FOUND"

	// CodeSizeMismatch is returned when the stream length differs from the declared size.
	CodeSizeMismatch = "SIZE_MISMATCH"
)
