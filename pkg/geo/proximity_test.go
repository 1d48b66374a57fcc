package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress(t *testing.T) {
	assert.Equal(t, 100.0, Progress(0, 10))
	assert.InDelta(t, 50.0, Progress(5, 10), 1e-9)
	assert.Equal(t, 0.0, Progress(10, 10))
	assert.Equal(t, 0.0, Progress(12, 10))
	assert.Equal(t, 0.0, Progress(1, 0))
}

func TestLabel(t *testing.T) {
	tests := []struct {
		distance float64
		want     string
	}{
		{distance: 0.5, want: LabelVeryClose},
		{distance: 4, want: LabelNearby},
		{distance: 7, want: LabelWithinArea},
		{distance: 9.9, want: LabelFar},
		{distance: 10, want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Label(tt.distance, 10), "distance %v", tt.distance)
	}
}
