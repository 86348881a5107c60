package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpec(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		expected Volume
		wantErr  string
	}{
		{
			name:     "bare path binds to itself",
			spec:     "/data",
			expected: Volume{HostPath: "/data", ContainerPath: "/data"},
		},
		{
			name:     "host and container paths",
			spec:     "/host/data:/data",
			expected: Volume{HostPath: "/host/data", ContainerPath: "/data"},
		},
		{
			name:     "full spec with mode",
			spec:     "/host/data:/data:ro",
			expected: Volume{HostPath: "/host/data", ContainerPath: "/data", Mode: "ro"},
		},
		{
			name:    "too many parts",
			spec:    "/a:/b:ro:extra",
			wantErr: "invalid volume specification",
		},
		{
			name:    "invalid mode",
			spec:    "/a:/b:rx",
			wantErr: "invalid volume mode",
		},
		{
			name:    "empty host path",
			spec:    ":/data",
			wantErr: "missing a path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseSpec(tt.spec)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestVolumeString(t *testing.T) {
	assert.Equal(t, "/h:/c", Volume{HostPath: "/h", ContainerPath: "/c"}.String())
	assert.Equal(t, "/h:/c:ro", Volume{HostPath: "/h", ContainerPath: "/c", Mode: "ro"}.String())
}

func TestParseVolumesEquivalentShapes(t *testing.T) {
	// The three accepted input shapes for the same binding must normalize
	// to the same canonical volume.
	expected := []Volume{{HostPath: "/host/data", ContainerPath: "/data", Mode: "ro"}}

	shapes := []struct {
		name  string
		value any
	}{
		{
			name:  "list of specs",
			value: []string{"/host/data:/data:ro"},
		},
		{
			name: "mapping with bind options",
			value: map[string]any{
				"/host/data": map[string]any{"bind": "/data", "mode": "ro"},
			},
		},
		{
			name:  "already normalized",
			value: []Volume{{HostPath: "/host/data", ContainerPath: "/data", Mode: "ro"}},
		},
	}

	for _, tt := range shapes {
		t.Run(tt.name, func(t *testing.T) {
			vols, err := ParseVolumes(tt.value)
			require.NoError(t, err)
			assert.Equal(t, expected, vols)
		})
	}
}

func TestParseVolumesMappingShapes(t *testing.T) {
	t.Run("host to container path mapping is sorted by host path", func(t *testing.T) {
		vols, err := ParseVolumes(map[string]string{
			"/zeta":  "/z",
			"/alpha": "/a",
		})
		require.NoError(t, err)
		require.Len(t, vols, 2)
		assert.Equal(t, "/alpha", vols[0].HostPath)
		assert.Equal(t, "/zeta", vols[1].HostPath)
	})

	t.Run("bind options without a bind path fail", func(t *testing.T) {
		_, err := ParseVolumes(map[string]any{
			"/host": map[string]any{"mode": "ro"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "has no bind path")
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("unsupported shape fails", func(t *testing.T) {
		_, err := ParseVolumes(42)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("list entry of wrong type fails", func(t *testing.T) {
		_, err := ParseVolumes([]any{"/ok:/ok", 7})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid volume list entry")
	})
}

func TestVolumeToNative(t *testing.T) {
	path, bind := Volume{HostPath: "/h", ContainerPath: "/c", Mode: "rw"}.ToNative()
	assert.Equal(t, "/c", path)
	assert.Equal(t, "/h:/c:rw", bind)
}
