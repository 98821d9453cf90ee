package wire

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeqBefore(t *testing.T) {
	tests := []struct {
		a, b uint32
		want bool
	}{
		{1, 2, true},
		{2, 1, false},
		{5, 5, false},
		{math.MaxUint32, 0, true},
		{0, math.MaxUint32, false},
		{math.MaxUint32 - 10, 5, true},
		{5, math.MaxUint32 - 10, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SeqBefore(tt.a, tt.b), "SeqBefore(%d, %d)", tt.a, tt.b)
		if tt.a != tt.b {
			assert.Equal(t, !tt.want, SeqAfter(tt.a, tt.b), "SeqAfter(%d, %d)", tt.a, tt.b)
		}
	}
}
