//go:build windows

package tree

import (
	"os"
	"syscall"
)

func hasHiddenAttribute(fileInformation os.FileInfo) bool {
	attributeData, ok := fileInformation.Sys().(*syscall.Win32FileAttributeData)
	if !ok || attributeData == nil {
		return false
	}
	return attributeData.FileAttributes&syscall.FILE_ATTRIBUTE_HIDDEN != 0
}
