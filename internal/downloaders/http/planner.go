package futhttp

import (
	"fmt"

	"github.com/tanq16/futload/internal/utils"
)

// Segment is one contiguous byte range of the target, fetched by one fetcher.
// End is inclusive.
type Segment struct {
	Index int
	Start int64
	End   int64
	Path  string
}

func (s Segment) Len() int64 {
	return s.End - s.Start + 1
}

func (s Segment) RangeHeader() string {
	return fmt.Sprintf("bytes=%d-%d", s.Start, s.End)
}

// PlanSegments splits [0, total) into workers contiguous segments of total/workers
// bytes each. The last segment also takes the total%workers remainder.
func PlanSegments(total int64, workers int, path string) ([]Segment, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: total size %d", utils.ErrInvalidPlan, total)
	}
	if workers < 1 || int64(workers) > total {
		return nil, fmt.Errorf("%w: %d workers for %d bytes", utils.ErrInvalidPlan, workers, total)
	}
	span := total / int64(workers)
	segments := make([]Segment, workers)
	for i := range workers {
		start := int64(i) * span
		end := start + span - 1
		if i == workers-1 {
			end = total - 1
		}
		segments[i] = Segment{
			Index: i,
			Start: start,
			End:   end,
			Path:  path,
		}
	}
	return segments, nil
}
