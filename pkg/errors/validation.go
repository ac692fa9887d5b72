package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateIdentifier validates an upstream identifier (package name, repo
// path, arXiv id) before it is interpolated into a request URL.
//
// The validation rules are intentionally conservative:
//   - No empty identifiers
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - Maximum length of 256 characters
//
// Source-specific validation is done separately by the adapters.
func ValidateIdentifier(id string) error {
	if id == "" {
		return New(ErrCodeInvalidIdentifier, "identifier cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidIdentifier, "identifier too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidIdentifier, "identifier contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "//", "\\"} {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidIdentifier, "identifier contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateRecordID validates a catalog record id for use as a file name.
func ValidateRecordID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidRecord, "record id cannot be empty")
	}
	if strings.ContainsAny(id, "/\\") {
		return New(ErrCodeInvalidRecord, "record id cannot contain path separators")
	}
	if strings.HasPrefix(id, ".") {
		return New(ErrCodeInvalidRecord, "record id cannot start with a dot")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidRecord, "record id contains invalid characters")
		}
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// arxivIDRegex matches new-style (2103.12345v2) and old-style (hep-th/9901001) ids.
var arxivIDRegex = regexp.MustCompile(`^(\d{4}\.\d{4,5}|[a-z-]+(\.[A-Z]{2})?/\d{7})(v\d+)?$`)

// ValidateArxivID validates an arXiv identifier.
func ValidateArxivID(id string) error {
	if !arxivIDRegex.MatchString(id) {
		return New(ErrCodeInvalidIdentifier, "invalid arXiv id: %q", id)
	}
	return nil
}

// videoIDRegex matches YouTube video ids.
var videoIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ValidateVideoID validates a YouTube video id.
func ValidateVideoID(id string) error {
	if !videoIDRegex.MatchString(id) {
		return New(ErrCodeInvalidIdentifier, "invalid YouTube video id: %q", id)
	}
	return nil
}

// npmPackageNameRegex matches valid npm package names.
var npmPackageNameRegex = regexp.MustCompile(`^(@[a-z0-9-~][a-z0-9-._~]*/)?[a-z0-9-~][a-z0-9-._~]*$`)

// ValidateNpmPackageName validates an npm package name.
func ValidateNpmPackageName(name string) error {
	if err := ValidateIdentifier(name); err != nil {
		return err
	}

	if strings.ToLower(name) != name {
		return New(ErrCodeInvalidIdentifier, "npm package names must be lowercase: %q", name)
	}

	if !npmPackageNameRegex.MatchString(name) {
		return New(ErrCodeInvalidIdentifier, "invalid npm package name: %q", name)
	}

	return nil
}

// pythonPackageNameRegex matches valid Python package names (PEP 508).
var pythonPackageNameRegex = regexp.MustCompile(`^([A-Za-z0-9]|[A-Za-z0-9][A-Za-z0-9._-]*[A-Za-z0-9])$`)

// ValidatePythonPackageName validates a Python package name per PEP 508.
func ValidatePythonPackageName(name string) error {
	if err := ValidateIdentifier(name); err != nil {
		return err
	}

	if !pythonPackageNameRegex.MatchString(name) {
		return New(ErrCodeInvalidIdentifier, "invalid Python package name: %q", name)
	}

	return nil
}

// cratesPackageNameRegex matches valid crates.io package names.
var cratesPackageNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// ValidateCratesPackageName validates a crates.io package name.
func ValidateCratesPackageName(name string) error {
	if err := ValidateIdentifier(name); err != nil {
		return err
	}

	if !cratesPackageNameRegex.MatchString(name) {
		return New(ErrCodeInvalidIdentifier, "invalid crates.io package name: %q", name)
	}

	return nil
}

// goModulePathRegex matches valid Go module paths.
var goModulePathRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._~/-]*$`)

// ValidateGoModulePath validates a Go module path.
func ValidateGoModulePath(path string) error {
	if err := ValidateIdentifier(path); err != nil {
		return err
	}

	if !goModulePathRegex.MatchString(path) {
		return New(ErrCodeInvalidIdentifier, "invalid Go module path: %q", path)
	}

	return nil
}
