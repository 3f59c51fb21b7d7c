package logsink

import (
	"strings"
	"time"
)

// BlobName is the default log blob for a host on a given day:
// YYYY/MM/DD/<host>.jsonl, in UTC so every replica rolls over together.
func BlobName(host string, at time.Time) string {
	if host == "" {
		host = "unknown"
	}
	host = strings.ReplaceAll(host, "/", "_")
	return at.UTC().Format("2006/01/02") + "/" + host + ".jsonl"
}
