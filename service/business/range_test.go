package business

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundvault/service-catalog/service/types"
)

func TestParseByteRange(t *testing.T) {
	testCases := []struct {
		name          string
		header        string
		total         int64
		expectedStart int64
		expectedEnd   int64
		expectPartial bool
		expectErr     bool
	}{
		{
			name:          "no_header_serves_whole_file",
			header:        "",
			total:         1000,
			expectedStart: 0,
			expectedEnd:   999,
			expectPartial: false,
		},
		{
			name:          "open_ended_range",
			header:        "bytes=100-",
			total:         1000,
			expectedStart: 100,
			expectedEnd:   999,
			expectPartial: true,
		},
		{
			name:          "bounded_range",
			header:        "bytes=0-99",
			total:         1000,
			expectedStart: 0,
			expectedEnd:   99,
			expectPartial: true,
		},
		{
			name:          "end_clamped_to_file_size",
			header:        "bytes=500-5000",
			total:         1000,
			expectedStart: 500,
			expectedEnd:   999,
			expectPartial: true,
		},
		{
			name: "empty_start_token_means_zero_not_suffix",
			// Clients in the wild send bytes=-500 expecting [0,500].
			header:        "bytes=-500",
			total:         1000,
			expectedStart: 0,
			expectedEnd:   500,
			expectPartial: true,
		},
		{
			name:          "missing_bytes_prefix_serves_whole_file",
			header:        "items=0-99",
			total:         1000,
			expectedStart: 0,
			expectedEnd:   999,
			expectPartial: false,
		},
		{
			name:          "no_dash_serves_whole_file",
			header:        "bytes=100",
			total:         1000,
			expectedStart: 0,
			expectedEnd:   999,
			expectPartial: false,
		},
		{
			name:          "garbage_start_serves_whole_file",
			header:        "bytes=abc-99",
			total:         1000,
			expectedStart: 0,
			expectedEnd:   999,
			expectPartial: false,
		},
		{
			name:          "garbage_end_serves_whole_file",
			header:        "bytes=0-xyz",
			total:         1000,
			expectedStart: 0,
			expectedEnd:   999,
			expectPartial: false,
		},
		{
			name:      "start_beyond_file_is_unsatisfiable",
			header:    "bytes=1000-",
			total:     1000,
			expectErr: true,
		},
		{
			name:      "start_behind_end_is_unsatisfiable",
			header:    "bytes=500-100",
			total:     1000,
			expectErr: true,
		},
		{
			name:      "any_range_on_empty_file_is_unsatisfiable",
			header:    "bytes=0-",
			total:     0,
			expectErr: true,
		},
		{
			name:          "single_byte_range",
			header:        "bytes=999-999",
			total:         1000,
			expectedStart: 999,
			expectedEnd:   999,
			expectPartial: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			window, partial, err := ParseByteRange(tc.header, tc.total)

			if tc.expectErr {
				require.Error(t, err)
				assert.True(t, IsUnsatisfiableRange(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedStart, window.Start)
			assert.Equal(t, tc.expectedEnd, window.End)
			assert.Equal(t, tc.total, window.Total)
			assert.Equal(t, tc.expectPartial, partial)
		})
	}
}

func TestByteRangeHeaders(t *testing.T) {
	window := types.ByteRange{Start: 100, End: 999, Total: 1000}

	assert.Equal(t, int64(900), window.Length())
	assert.Equal(t, "bytes 100-999/1000", window.ContentRange())
}
