package raster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageSelection(t *testing.T) {
	tests := []struct {
		in   string
		want []int
	}{
		{"", nil},
		{"  ", nil},
		{"1", []int{0}},
		{"1-3", []int{0, 1, 2}},
		{"5,1-2", []int{0, 1, 4}},
		{"2, 2, 1-2", []int{0, 1}},
		{"3-3", []int{2}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePageSelection(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePageSelection_Invalid(t *testing.T) {
	for _, in := range []string{"0", "a", "3-1", "1-", "-2", "1,,2", "0-4"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParsePageSelection(in)
			assert.Error(t, err)
		})
	}
}
