package business

import (
	"strconv"
	"strings"

	"github.com/soundvault/service-catalog/service/types"
)

// StreamChunkSize caps how many bytes a single read of a stream body moves.
const StreamChunkSize = 8192

// ParseByteRange maps an HTTP Range header onto a serving window for a blob
// of total bytes.
//
// The recognised form is "bytes=<start>-<end>" where either bound may be
// omitted. A missing, empty or unparseable header falls back to the whole
// file and reports partial=false, so the response is a plain 200.
//
// An empty start token defaults to zero: "bytes=-500" means [0,500], NOT
// the last 500 bytes of the standard suffix form. Existing clients depend
// on this reading, so it is kept deliberately.
//
// The end bound is clamped to total-1. A window that starts beyond the end
// of the blob, or behind its own end, yields UnsatisfiableRangeError.
func ParseByteRange(rangeHeader string, total int64) (types.ByteRange, bool, error) {
	full := types.ByteRange{Start: 0, End: total - 1, Total: total}

	header := strings.TrimSpace(rangeHeader)
	if !strings.HasPrefix(header, "bytes=") {
		return full, false, nil
	}

	spec := strings.TrimPrefix(header, "bytes=")
	if !strings.Contains(spec, "-") {
		return full, false, nil
	}

	startToken, endToken, _ := strings.Cut(spec, "-")

	start := int64(0)
	if startToken != "" {
		parsed, err := strconv.ParseInt(startToken, 10, 64)
		if err != nil {
			return full, false, nil
		}
		start = parsed
	}

	end := total - 1
	if endToken != "" {
		parsed, err := strconv.ParseInt(endToken, 10, 64)
		if err != nil {
			return full, false, nil
		}
		end = parsed
	}

	if end > total-1 {
		end = total - 1
	}

	if start < 0 || start > end || start >= total {
		return types.ByteRange{}, false, &UnsatisfiableRangeError{Total: total}
	}

	return types.ByteRange{Start: start, End: end, Total: total}, true, nil
}
