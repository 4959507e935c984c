package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty slice",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "trims whitespace",
			input:    []string{"  1  ", "2  ", "  3"},
			expected: []string{"1", "2", "3"},
		},
		{
			name:     "removes duplicates preserving order",
			input:    []string{"3", "1", "3", "2", "1"},
			expected: []string{"3", "1", "2"},
		},
		{
			name:     "drops blanks",
			input:    []string{"", "  ", "1"},
			expected: []string{"1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList(""))
	assert.Nil(t, SplitList("   "))
	assert.Equal(t, []string{"1", "2"}, SplitList(" 1, 2,,1 "))
	assert.Equal(t, []string{"7"}, SplitList("7"))
}
