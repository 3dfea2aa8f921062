package filestore

// Content types the storage core assigns itself.
const (
	// ContentTypeOctetStream is stored when the uploader declared no content type.
	ContentTypeOctetStream = "application/octet-stream"
	ContentTypeText        = "text/plain"
)
