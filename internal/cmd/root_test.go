package cmd

import (
	"errors"
	"testing"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetVersionInfo(t *testing.T) {
	// Save original values
	origVersion := versionInfo.Version
	origCommit := versionInfo.Commit
	origBuildDate := versionInfo.BuildDate
	defer func() {
		versionInfo.Version = origVersion
		versionInfo.Commit = origCommit
		versionInfo.BuildDate = origBuildDate
	}()

	tests := []struct {
		name      string
		version   string
		commit    string
		buildDate string
	}{
		{
			name:      "set all values",
			version:   "1.0.0",
			commit:    "abc123",
			buildDate: "2024-01-15",
		},
		{
			name:      "set dev version",
			version:   "dev",
			commit:    "HEAD",
			buildDate: "unknown",
		},
		{
			name:      "set empty values",
			version:   "",
			commit:    "",
			buildDate: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetVersionInfo(tt.version, tt.commit, tt.buildDate)

			assert.Equal(t, tt.version, versionInfo.Version)
			assert.Equal(t, tt.commit, versionInfo.Commit)
			assert.Equal(t, tt.buildDate, versionInfo.BuildDate)
		})
	}
}

func TestExitError(t *testing.T) {
	t.Run("carries exit code and wraps cause", func(t *testing.T) {
		cause := errors.New("bad field")
		err := exitError(foundry.ExitInvalidArgument, "Invalid manifest", cause)

		var ce *cliError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, foundry.ExitInvalidArgument, ce.code)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "Invalid manifest: bad field", err.Error())
	})

	t.Run("nil cause renders message only", func(t *testing.T) {
		err := exitError(foundry.ExitInvalidArgument, "Batch outputs incomplete", nil)
		assert.Equal(t, "Batch outputs incomplete", err.Error())
	})
}
