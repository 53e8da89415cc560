package utils

import "fmt"

// ProbeError is returned when the initial request for a URL fails. It aborts that
// URL only; other URLs in the same run are still attempted.
type ProbeError struct {
	URL string
	Err error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.URL, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// SegmentError records a failed segment. The segment is still marked done so the
// download completes, leaving that byte range incomplete on disk.
type SegmentError struct {
	Index int
	Start int64
	End   int64
	Err   error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("segment %d (bytes %d-%d): %v", e.Index, e.Start, e.End, e.Err)
}

func (e *SegmentError) Unwrap() error { return e.Err }

// ConfigError reports an invalid command line value.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}
