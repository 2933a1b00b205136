package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanCourseName(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"term year suffix", "MSBA-265 Special Analytics Topics (Spring 2025)", "MSBA-265 Special Analytics Topics"},
		{"season suffix without year", "Marketing Fundamentals (Fall)", "Marketing Fundamentals"},
		{"section and sis tail", "MSBA-265-01-30797 Special Analytics Topics", "MSBA-265 Special Analytics Topics"},
		{"online section tail", "BUS-220-ON1-128867 Digital Strategy", "BUS-220 Digital Strategy"},
		{"whitespace runs", "Data   Mining    Basics", "Data Mining Basics"},
		{"already clean", "Operations Research", "Operations Research"},
		{"empty", "", "Untitled"},
		{"whitespace only", "   ", "Untitled"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, CleanCourseName(tc.input))
		})
	}
}
