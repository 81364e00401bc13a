package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDev(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	tests := []struct {
		version  string
		expected bool
	}{
		{"dev", true},
		{"1.0.0", false},
		{"0.4.2", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			Version = tt.version
			assert.Equal(t, tt.expected, IsDev())
		})
	}
}

func TestFull(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	defer func() { Version, Commit, Date = origVersion, origCommit, origDate }()

	Version = "dev"
	assert.Equal(t, "plates dev (built from source)", Full())

	Version, Commit, Date = "1.2.3", "abc1234", "2026-01-02T03:04:05Z"
	assert.Equal(t, "plates 1.2.3 (abc1234, 2026-01-02T03:04:05Z)", Full())
}

func TestUserAgent(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	Version = "0.3.0"
	assert.Equal(t, "plates-cli/0.3.0 (+https://github.com/mzansiplatess/plates-cli)", UserAgent())
}
