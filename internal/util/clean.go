package util

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
)

const maxBinaryCheckBytes = 512

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// typographic punctuation folded to ASCII so that visually identical messages
// submit identical text
var punctuationReplacer = strings.NewReplacer(
	"\u2018", "'", "\u2019", "'", "\u201C", "\"", "\u201D", "\"",
	"\u2013", "-", "\u2014", "--", "\u2026", "...", "\u00a0", " ",
)

// ErrBinaryInput is returned for input that does not look like text.
var ErrBinaryInput = errors.New("input looks like binary data")

// IsLikelyBinary reports whether the leading bytes contain a NUL.
func IsLikelyBinary(data []byte) bool {
	if len(data) > maxBinaryCheckBytes {
		data = data[:maxBinaryCheckBytes]
	}
	return bytes.IndexByte(data, 0) >= 0
}

// NormalizeText strips a UTF-8 BOM, replaces invalid UTF-8 sequences and
// folds typographic punctuation. Surrounding whitespace is trimmed.
func NormalizeText(data []byte, src string) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		log.Warnf("%s is not valid UTF-8, replacing invalid sequences", src)
		data = bytes.ToValidUTF8(data, []byte(string(utf8.RuneError)))
	}
	return strings.TrimSpace(punctuationReplacer.Replace(string(data)))
}

// ReadMessageFile reads a message to submit from path. Binary and empty files
// are rejected.
func ReadMessageFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read message file: %w", err)
	}
	if IsLikelyBinary(data) {
		return "", fmt.Errorf("%s: %w", path, ErrBinaryInput)
	}
	text := NormalizeText(data, path)
	if text == "" {
		return "", fmt.Errorf("%s: message file is empty", path)
	}
	return text, nil
}
