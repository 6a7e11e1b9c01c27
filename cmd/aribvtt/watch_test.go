package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSegment(t *testing.T) {
	assert.True(t, isSegment("clip.ts"))
	assert.True(t, isSegment("clip.M2TS"))
	assert.False(t, isSegment("clip.mp4"))
	assert.False(t, isSegment("clip.vtt"))
}
