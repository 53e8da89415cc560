package futhttp

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/tanq16/futload/internal/output"
	"github.com/tanq16/futload/internal/utils"
)

// downloadWhole streams body sequentially into outputPath, reporting once per chunk.
func downloadWhole(ctx context.Context, body io.Reader, outputPath string, total int64, chunkSize, barSize int, sink output.LineSink) (int64, error) {
	log := utils.GetLogger("http/simple-downloader")
	outFile, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("error creating output file: %w", err)
	}
	defer outFile.Close()

	buffer := make([]byte, chunkSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		bytesRead, readErr := body.Read(buffer)
		if bytesRead > 0 {
			n, writeErr := outFile.Write(buffer[:bytesRead])
			written += int64(n)
			if writeErr != nil {
				return written, fmt.Errorf("error writing to output file: %w", writeErr)
			}
			sink.Update(output.ProgressLine(written, total, barSize, ""))
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return written, fmt.Errorf("error reading response body: %w", readErr)
		}
	}
	if err := outFile.Sync(); err != nil {
		log.Warn().Err(err).Str("output", outputPath).Msg("Sync failed")
	}
	log.Debug().Str("output", outputPath).Int64("bytes", written).Msg("Simple download finished")
	return written, nil
}
