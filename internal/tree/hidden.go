package tree

import (
	"os"
	"strings"
)

const hiddenNamePrefix = "."

// isHidden reports whether an entry is hidden. A leading dot hides an entry on
// every platform; platforms exposing a hidden attribute are consulted as well.
func isHidden(fileInformation os.FileInfo) bool {
	if strings.HasPrefix(fileInformation.Name(), hiddenNamePrefix) {
		return true
	}
	return hasHiddenAttribute(fileInformation)
}
