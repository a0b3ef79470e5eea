package domain

import "fmt"

// ObjectHandle identifies an uploaded object in the backend storage.
type ObjectHandle struct {
	Path string
}

// ImageUploadPath builds the time-keyed storage path of an attachment.
func ImageUploadPath(unixMillis int64, username string) string {
	return fmt.Sprintf("messages/%d-%s.jpg", unixMillis, username)
}
