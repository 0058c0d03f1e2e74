package tree

import "fmt"

// InvalidPathReason classifies why a root path cannot be rendered.
type InvalidPathReason string

const (
	// ReasonNotExist reports a root path that does not exist or is empty.
	ReasonNotExist InvalidPathReason = "does not exist"
	// ReasonNotDirectory reports a root path that names something other than a directory.
	ReasonNotDirectory InvalidPathReason = "is not a directory"
	// ReasonInaccessible reports a root directory that cannot be inspected or listed.
	ReasonInaccessible InvalidPathReason = "is not accessible"

	invalidPathFormat          = "root path %q %s"
	invalidPathWithCauseFormat = "root path %q %s: %v"
	entryListingFormat         = "listing %s: %v"
)

// InvalidPathError is returned when the root of a render cannot be traversed.
// No lines are produced in that case.
type InvalidPathError struct {
	Path   string
	Reason InvalidPathReason
	Err    error
}

func (invalidPathError *InvalidPathError) Error() string {
	if invalidPathError.Err == nil {
		return fmt.Sprintf(invalidPathFormat, invalidPathError.Path, invalidPathError.Reason)
	}
	return fmt.Sprintf(invalidPathWithCauseFormat, invalidPathError.Path, invalidPathError.Reason, invalidPathError.Err)
}

func (invalidPathError *InvalidPathError) Unwrap() error {
	return invalidPathError.Err
}

// EntryListingError records a subdirectory that could not be listed mid-walk.
// The subdirectory is rendered without children and traversal continues.
type EntryListingError struct {
	Path string
	Err  error
}

func (entryListingError *EntryListingError) Error() string {
	return fmt.Sprintf(entryListingFormat, entryListingError.Path, entryListingError.Err)
}

func (entryListingError *EntryListingError) Unwrap() error {
	return entryListingError.Err
}
