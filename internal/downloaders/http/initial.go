package futhttp

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tanq16/futload/internal/utils"
)

// DownloadTarget is what the initial response tells us about a URL.
type DownloadTarget struct {
	URL            string
	Size           int64 // -1 when the server sent no usable Content-Length
	RangeSupported bool
	FileName       string
	Destination    string
}

func (t *DownloadTarget) SizeKnown() bool {
	return t.Size >= 0
}

func (t *DownloadTarget) OutputPath() string {
	return filepath.Join(t.Destination, t.FileName)
}

// Probe issues the initial GET for rawURL and reads the headers that decide the
// download strategy. The response body is returned open so the whole-file path
// can stream from it; the caller must close it.
func Probe(ctx context.Context, client utils.HTTPDoer, rawURL, destination string) (*DownloadTarget, io.ReadCloser, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, nil, &utils.ProbeError{URL: rawURL, Err: fmt.Errorf("invalid URL: %w", err)}
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, nil, &utils.ProbeError{URL: rawURL, Err: fmt.Errorf("%w: %q", utils.ErrUnsupportedScheme, parsedURL.Scheme)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, &utils.ProbeError{URL: rawURL, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, &utils.ProbeError{URL: rawURL, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, nil, &utils.ProbeError{URL: rawURL, Err: fmt.Errorf("%w: %d", utils.ErrUnexpectedStatus, resp.StatusCode)}
	}

	target := &DownloadTarget{
		URL:            rawURL,
		Size:           parseContentLength(resp.Header.Get("Content-Length")),
		RangeSupported: resp.Header.Get("Accept-Ranges") == "bytes",
		FileName:       fileNameFor(parsedURL, resp.Header.Get("Content-Disposition")),
		Destination:    destination,
	}
	return target, resp.Body, nil
}

func parseContentLength(value string) int64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return -1
	}
	size, err := strconv.ParseInt(value, 10, 64)
	if err != nil || size < 0 {
		return -1
	}
	return size
}

func fileNameFor(u *url.URL, contentDisposition string) string {
	if name := dispositionFileName(contentDisposition); name != "" {
		return name
	}
	base := path.Base(u.Path)
	if unescaped, err := url.PathUnescape(base); err == nil {
		base = unescaped
	}
	if unusableName(base) {
		return "download"
	}
	return utils.SanitizeFilename(base)
}

// unusableName reports names that would resolve to a directory under the destination.
func unusableName(name string) bool {
	return name == "" || name == "." || name == ".." || name == "/"
}

func dispositionFileName(contentDisposition string) string {
	if contentDisposition == "" {
		return ""
	}
	filename := ""
	if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
		// filename* is decoded into "filename" by the mime parser
		filename = params["filename"]
	} else if m := utils.LooseFilenameRegex.FindStringSubmatch(contentDisposition); m != nil {
		filename = strings.Trim(m[1], `"'`)
	}
	filename = filepath.Base(filename)
	if unusableName(filename) {
		return ""
	}
	return utils.SanitizeFilename(filename)
}
