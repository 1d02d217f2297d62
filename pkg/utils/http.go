package utils

import (
	"io"
	"strings"
)

// DrainAndClose discards what is left of rc and closes it so the transport can reuse the connection.
func DrainAndClose(rc io.ReadCloser) error {
	if rc == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, rc)
	return rc.Close()
}

// Snippet reads at most limit bytes of r for use in error messages.
func Snippet(r io.Reader, limit int64) string {
	b, _ := io.ReadAll(io.LimitReader(r, limit))
	return strings.TrimSpace(string(b))
}
