package volume

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPathForVolume(t *testing.T) {
	require.Equal(t, "archive.fsa", PathForVolume("archive.fsa", 0))
	require.Equal(t, "archive.f1", PathForVolume("archive.fsa", 1))
	require.Equal(t, "archive.f12", PathForVolume("archive.fsa", 12))
}
