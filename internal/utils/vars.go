package utils

import (
	"errors"
	"regexp"
)

const (
	DefaultChunkSize = 8096
	DefaultThreshold = 1024 * 1024
	DefaultBarSize   = 40
	FitBarSize       = -1
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 6.1; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/40.0.2214.85 Safari/537.36"

var (
	ErrInvalidPlan       = errors.New("invalid segment plan")
	ErrUnexpectedStatus  = errors.New("unexpected status code")
	ErrShortSegment      = errors.New("segment ended before its last byte")
	ErrSegmentOverflow   = errors.New("server sent more bytes than the segment holds")
	ErrUnsupportedScheme = errors.New("unsupported scheme")
)

var FilenameRegex = regexp.MustCompile(`[^a-zA-Z0-9_\-\. ]+`)

// Matches unquoted values the mime parser rejects, e.g. `attachment; filename=a b.zip`.
var LooseFilenameRegex = regexp.MustCompile(`filename=([^\s;]+)`)

// environment variables that seed flag defaults
var EnvFlagDefaults = map[string]string{
	"FUTLOAD_USER_AGENT": "user-agent",
	"FUTLOAD_THREADS":    "threads",
	"FUTLOAD_THRESHOLD":  "threshold",
	"FUTLOAD_DEST":       "dest",
	"FUTLOAD_CHUNK_SIZE": "chunk-size",
}

// Local-only User-Agent list
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:135.0) Gecko/20100101 Firefox/135.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64; rv:135.0) Gecko/20100101 Firefox/135.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.3 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36 Edg/132.0.0.0",
	"curl/7.88.1",
	"Wget/1.21.4",
}
