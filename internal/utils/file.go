package utils

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
)

// ImageExtensions are the extensions the loaders can decode
var ImageExtensions = []string{"jpg", "jpeg", "png", "gif", "bmp", "tiff", "webp"}

// GetFileExtension returns the lower-cased file extension without the dot
func GetFileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 0 {
		return strings.ToLower(ext[1:])
	}
	return ""
}

// IsImageFile checks if a file has an image extension
func IsImageFile(filename string) bool {
	return slices.Contains(ImageExtensions, GetFileExtension(filename))
}

// ReplaceExtension swaps the extension of path for ext, given without the dot
func ReplaceExtension(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + ext
}

// FileExists checks if a file exists on fs and is not a directory
func FileExists(fs afero.Fs, filename string) bool {
	info, err := fs.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists checks if a directory exists on fs
func DirExists(fs afero.Fs, dirname string) bool {
	ok, err := afero.DirExists(fs, dirname)
	return err == nil && ok
}

// SanitizeFilename removes or replaces invalid characters in filenames
func SanitizeFilename(filename string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := filename
	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}

	// Remove leading/trailing spaces and dots
	return strings.Trim(result, " .")
}
