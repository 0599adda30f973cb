// Package security validates operator-supplied file paths before they are read.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxConfigFileSize caps seed and holiday files.
const MaxConfigFileSize = 4 << 20

// ErrUnsafePath is returned for paths that fail validation.
var ErrUnsafePath = errors.New("unsafe file path")

// dangerousChars contains shell metacharacters that could be used for injection attacks.
var dangerousChars = []string{";", "&", "|", "$", "`", "(", ")", "{", "}", "<", ">", "!", "\n", "\r"}

var configExtensions = map[string]bool{".yaml": true, ".yml": true}

// ValidateFilePath cleans path, makes it absolute and resolves symlinks when
// the file exists.
func ValidateFilePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty", ErrUnsafePath)
	}
	for _, char := range dangerousChars {
		if strings.Contains(path, char) {
			return "", fmt.Errorf("%w: forbidden character %q in %s", ErrUnsafePath, char, path)
		}
	}

	cleanPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}

	resolvedPath, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cleanPath, nil
		}
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}
	return resolvedPath, nil
}

// ReadConfigFile reads a YAML configuration file such as a region seed or a
// holiday list. The path must validate, end in .yaml or .yml, name a regular
// file and stay under MaxConfigFileSize.
func ReadConfigFile(path string) ([]byte, error) {
	cleanPath, err := ValidateFilePath(path)
	if err != nil {
		return nil, err
	}
	if !configExtensions[strings.ToLower(filepath.Ext(cleanPath))] {
		return nil, fmt.Errorf("%w: %s is not a YAML file", ErrUnsafePath, path)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrUnsafePath, path)
	}
	if info.Size() > MaxConfigFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrUnsafePath, path, info.Size(), MaxConfigFileSize)
	}

	// #nosec G304 - path is validated above
	return os.ReadFile(cleanPath)
}
