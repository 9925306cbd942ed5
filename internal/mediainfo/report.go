// Package mediainfo extracts technical metadata from media files by running
// the MediaInfo command line tool.
package mediainfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Static errors for report handling.
var (
	// ErrNoTracks is returned when a report has no tracks to read from.
	ErrNoTracks = errors.New("mediainfo: report has no tracks")
	// ErrInvalidOutput is returned when MediaInfo output is not a JSON report.
	ErrInvalidOutput = errors.New("mediainfo: invalid output")
)

// Analyzer inspects a media resource and returns its report.
type Analyzer interface {
	// Analyze runs the analysis against input, which may be a URL or a
	// local path. The call blocks until the analysis completes.
	Analyze(ctx context.Context, input string) (*Report, error)
}

// Track is a single stream description (General, Video, Audio, Text...).
// MediaInfo reports values as strings; nested objects hold extra fields.
type Track map[string]any

// Type returns the track kind, e.g. "General" or "Video".
func (t Track) Type() string {
	return t.Field("@type")
}

// Field returns a string field, or "" when absent or not a string.
func (t Track) Field(name string) string {
	s, _ := t[name].(string)
	return s
}

// Summary holds the display fields of the first track.
type Summary struct {
	CompleteName      string
	FileExtension     string
	InternetMediaType string
}

// Report is a MediaInfo analysis result. The raw output is kept verbatim
// and is what gets persisted.
type Report struct {
	raw []byte

	// Ref is the analyzed resource as reported by MediaInfo.
	Ref string
	// Tracks lists the detected tracks; the first is the General track.
	Tracks []Track
}

// ParseReport parses the JSON output of `mediainfo --Output=JSON`.
func ParseReport(raw []byte) (*Report, error) {
	var doc struct {
		Media *struct {
			Ref   string  `json:"@ref"`
			Track []Track `json:"track"`
		} `json:"media"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOutput, err)
	}

	r := &Report{raw: raw}
	if doc.Media != nil {
		r.Ref = doc.Media.Ref
		r.Tracks = doc.Media.Track
	}
	return r, nil
}

// JSON returns the report exactly as MediaInfo produced it.
func (r *Report) JSON() []byte {
	return r.raw
}

// FirstTrack returns the first detected track.
func (r *Report) FirstTrack() (Track, error) {
	if len(r.Tracks) == 0 {
		return nil, ErrNoTracks
	}
	return r.Tracks[0], nil
}

// Summary reads the display fields from the first track. Missing fields
// are empty; CompleteName falls back to the media reference. Any URL
// query string is removed from CompleteName.
func (r *Report) Summary() (Summary, error) {
	t, err := r.FirstTrack()
	if err != nil {
		return Summary{}, err
	}

	s := Summary{
		CompleteName:      t.Field("CompleteName"),
		FileExtension:     t.Field("FileExtension"),
		InternetMediaType: t.Field("InternetMediaType"),
	}
	if s.CompleteName == "" {
		s.CompleteName = r.Ref
	}
	s.CompleteName = Redact(s.CompleteName)
	return s, nil
}
