package futhttp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/tanq16/futload/internal/utils"
)

// fetchSegment downloads one segment into its span of the output file. Failures
// are logged and recorded on the table entry; they are never returned, so a bad
// segment cannot stall its siblings or the aggregator.
func fetchSegment(ctx context.Context, client utils.HTTPDoer, url string, seg Segment, table *ProgressTable, chunkSize int) {
	log := utils.GetLogger("http/segment")
	err := copySegment(ctx, client, url, seg, table, chunkSize)
	if err != nil {
		log.Error().Err(err).Int("segment", seg.Index).Int64("start", seg.Start).Int64("end", seg.End).Msg("Segment failed")
		table.MarkDone(seg.Index, err)
		return
	}
	log.Debug().Int("segment", seg.Index).Int64("bytes", seg.Len()).Msg("Segment complete")
	table.MarkDone(seg.Index, nil)
}

func copySegment(ctx context.Context, client utils.HTTPDoer, url string, seg Segment, table *ProgressTable, chunkSize int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Range", seg.RangeHeader())
	req.Header.Set("Connection", "keep-alive")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent {
		return fmt.Errorf("%w: %d", utils.ErrUnexpectedStatus, resp.StatusCode)
	}

	file, err := os.OpenFile(seg.Path, os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error opening output file: %w", err)
	}
	defer file.Close()

	buffer := make([]byte, chunkSize)
	offset := seg.Start
	limit := seg.End + 1
	for {
		bytesRead, readErr := resp.Body.Read(buffer)
		if bytesRead > 0 {
			chunk := buffer[:bytesRead]
			overflow := offset+int64(bytesRead) > limit
			if overflow {
				chunk = chunk[:limit-offset]
			}
			written, writeErr := table.Write(seg.Index, file, offset, chunk)
			offset += int64(written)
			if writeErr != nil {
				return fmt.Errorf("error writing to output file: %w", writeErr)
			}
			if overflow {
				return utils.ErrSegmentOverflow
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return fmt.Errorf("error reading response body: %w", readErr)
		}
	}
	if offset != limit {
		return fmt.Errorf("%w: got %d of %d bytes", utils.ErrShortSegment, offset-seg.Start, seg.Len())
	}
	return nil
}
