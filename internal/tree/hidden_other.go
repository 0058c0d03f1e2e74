//go:build !windows

package tree

import "os"

func hasHiddenAttribute(os.FileInfo) bool {
	return false
}
