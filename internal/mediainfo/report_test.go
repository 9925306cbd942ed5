package mediainfo

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	raw, err := os.ReadFile("testdata/sample.json")
	require.NoError(t, err)
	return raw
}

func TestParseReport(t *testing.T) {
	raw := loadFixture(t)

	r, err := ParseReport(raw)
	require.NoError(t, err)

	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com/videos/clip.mp4", r.Ref)
	require.Len(t, r.Tracks, 3)
	assert.Equal(t, "General", r.Tracks[0].Type())
	assert.Equal(t, "Video", r.Tracks[1].Type())
	assert.Equal(t, "1920", r.Tracks[1].Field("Width"))
	assert.Equal(t, raw, r.JSON())
}

func TestParseReport_Invalid(t *testing.T) {
	_, err := ParseReport([]byte("not json"))
	assert.ErrorIs(t, err, ErrInvalidOutput)

	_, err = ParseReport(nil)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestReport_Summary(t *testing.T) {
	r, err := ParseReport(loadFixture(t))
	require.NoError(t, err)

	s, err := r.Summary()
	require.NoError(t, err)
	assert.Equal(t, Summary{
		CompleteName:      "https://media.s3.eu-west-1.amazonaws.com/videos/clip.mp4",
		FileExtension:     "mp4",
		InternetMediaType: "video/mp4",
	}, s)
}

func TestReport_Summary_CompleteNamePreferred(t *testing.T) {
	r, err := ParseReport([]byte(`{"media":{"@ref":"ref","track":[{"@type":"General","CompleteName":"/data/a.wav"}]}}`))
	require.NoError(t, err)

	s, err := r.Summary()
	require.NoError(t, err)
	assert.Equal(t, "/data/a.wav", s.CompleteName)
	assert.Empty(t, s.FileExtension)
	assert.Empty(t, s.InternetMediaType)
}

func TestReport_Summary_RedactsSignedURL(t *testing.T) {
	signed := "https://b.s3.eu-west-1.amazonaws.com/videos/a.mp4?X-Amz-Security-Token=SESSION&X-Amz-Signature=deadbeef"

	tests := []struct {
		name string
		raw  string
	}{
		{"complete name", `{"media":{"@ref":"x","track":[{"@type":"General","CompleteName":"` + signed + `"}]}}`},
		{"media reference", `{"media":{"@ref":"` + signed + `","track":[{"@type":"General"}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseReport([]byte(tt.raw))
			require.NoError(t, err)

			s, err := r.Summary()
			require.NoError(t, err)
			assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com/videos/a.mp4", s.CompleteName)
		})
	}
}

func TestReport_NoTracks(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"null media", `{"media":null}`},
		{"missing media", `{}`},
		{"empty track list", `{"media":{"@ref":"x","track":[]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseReport([]byte(tt.raw))
			require.NoError(t, err)

			_, err = r.FirstTrack()
			assert.ErrorIs(t, err, ErrNoTracks)
			_, err = r.Summary()
			assert.ErrorIs(t, err, ErrNoTracks)
		})
	}
}

func TestTrack_Field_NonString(t *testing.T) {
	track := Track{"extra": map[string]any{"a": "b"}, "n": 3.0}
	assert.Empty(t, track.Field("extra"))
	assert.Empty(t, track.Field("n"))
	assert.Empty(t, track.Field("missing"))
}
