package frontclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"", "https://api2.frontapp.com"},
		{"https://api2.frontapp.com/", "https://api2.frontapp.com"},
		{"api2.frontapp.com", "https://api2.frontapp.com"},
		{"http://localhost:8080", "http://localhost:8080"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, normalizeEndpoint(tt.input), tt.input)
	}
}
