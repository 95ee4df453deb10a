package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClampBoundsValue(t *testing.T) {
	require.Equal(t, 0, Clamp(-15, 0, 100))
	require.Equal(t, 100, Clamp(250, 0, 100))
	require.Equal(t, 42, Clamp(42, 0, 100))
	require.Equal(t, 0, Clamp(0, 0, 100))
	require.Equal(t, 100, Clamp(100, 0, 100))
}

func TestClampFloat(t *testing.T) {
	require.Equal(t, 36.0, Clamp(35.2, 36.0, 37.5))
	require.Equal(t, 37.5, Clamp(40.1, 36.0, 37.5))
	require.Equal(t, 36.8, Clamp(36.8, 36.0, 37.5))
}
