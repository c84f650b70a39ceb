package sequence

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// framePattern captures the frame token at the very end of a file stem:
// 0001, ####, or %04d. Digit and hash runs may be any length.
var framePattern = regexp.MustCompile(`([0-9#]+|%0\dd)$`)

// splitExt splits path into stem and extension at the last dot of the base
// name. Leading dots of the base name never start an extension.
func splitExt(path string) (string, string) {
	base := filepath.Base(path)
	trimmed := strings.TrimLeft(base, ".")
	idx := strings.LastIndex(trimmed, ".")
	if idx < 0 {
		return path, ""
	}
	extLen := len(trimmed) - idx
	return path[:len(path)-extLen], path[len(path)-extLen:]
}

// frameToken returns the trailing frame token of stem, if any.
func frameToken(stem string) (string, bool) {
	m := framePattern.FindStringSubmatchIndex(stem)
	if m == nil {
		return "", false
	}
	return stem[m[2]:m[3]], true
}

// globFor builds the sibling glob for a stem whose trailing token is replaced
// by a single wildcard.
func globFor(stem, ext string) string {
	return framePattern.ReplaceAllLiteralString(stem, "*") + ext
}

// frameNumber parses a literal frame token. Placeholder tokens and values that
// overflow int are rejected.
func frameNumber(token string) (int, bool) {
	if token == "" || strings.ContainsAny(token, "#%") {
		return 0, false
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FramePath renders path for a single frame: a %0Nd placeholder or a run of
// '#' before the extension is replaced by frame, zero padded to the
// placeholder width. Paths that already carry a literal frame number are
// returned unchanged.
func FramePath(path string, frame int) string {
	stem, ext := splitExt(path)
	token, ok := frameToken(stem)
	if !ok {
		return path
	}
	var width int
	switch {
	case strings.HasPrefix(token, "%"):
		width = int(token[2] - '0')
	case strings.Trim(token, "#") == "":
		width = len(token)
	default:
		return path
	}
	rendered := fmt.Sprintf("%0*d", width, frame)
	return stem[:len(stem)-len(token)] + rendered + ext
}

// IsPlaceholder reports whether path names its frame with '#' or %0Nd.
func IsPlaceholder(path string) bool {
	stem, _ := splitExt(path)
	token, ok := frameToken(stem)
	if !ok {
		return false
	}
	return strings.HasPrefix(token, "%") || strings.Trim(token, "#") == ""
}
