package ccd

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
)

// fileRecord is the temporary, per-file record the Parse phase produces
// before the Fix phase aggregates it into the Artist/Album arena. It
// mirrors the {artist, album, title, runtime, sample_rate,
// track?, disc?, art?, release?, genre?, compilation?} tuple.
type fileRecord struct {
	path     string
	mimeType string
	ext      string

	artist  string
	album   string
	title   string
	genre   string
	release *releaseDate

	track *int
	disc  *int

	art []byte

	compilation bool

	// runtime/sampleRate are not available from tags alone; they come
	// from probing the audio stream itself (decodeAudioParams).
	runtime    float64
	sampleRate int
}

// releaseDate is a coarse, possibly partial date extracted from tags.
type releaseDate struct {
	year, month, day int
}

func (r releaseDate) String() string {
	if r.month == 0 {
		return fmt.Sprintf("%04d", r.year)
	}
	if r.day == 0 {
		return fmt.Sprintf("%04d-%02d", r.year, r.month)
	}
	return fmt.Sprintf("%04d-%02d-%02d", r.year, r.month, r.day)
}

// skipError marks a file as deliberately skipped (not a pipeline failure):
// unreadable, undecodable, missing a required tag, or a compilation.
// The CCD Parse phase logs these at Debug and continues; they never
// abort the rebuild
type skipError struct {
	path   string
	reason string
}

func (e *skipError) Error() string { return fmt.Sprintf("skipping %s: %s", e.path, e.reason) }

func skip(path, reason string) error { return &skipError{path: path, reason: reason} }

func isSkip(err error) bool {
	_, ok := err.(*skipError)
	return ok
}

// extractMetadata reads tags and probes audio parameters for one file,
// applying the authoritative tag lookup order and coercion rules. It is
// called with no lock held.
func extractMetadata(path string) (*fileRecord, error) {
	ext := strings.ToLower(filepath.Ext(path))
	mimeType := mime.TypeByExtension(ext)
	if !supportedMimeType(mimeType) {
		return nil, skip(path, "unsupported format "+mimeType)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, skip(path, "cannot open: "+err.Error())
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nil, skip(path, "cannot read tags: "+err.Error())
	}

	if compilationFlag(m) {
		return nil, skip(path, "compilation (unsupported)")
	}

	rec := &fileRecord{path: path, mimeType: mimeType, ext: ext}

	rec.artist = firstNonEmpty(m.AlbumArtist(), m.Artist(), m.Composer(), rawString(m, "performer", "Performer", "TXXX:Performer"), rawString(m, "originalartist", "OriginalArtist", "TOPE"))
	if rec.artist == "" {
		return nil, skip(path, "no artist tag")
	}

	rec.album = firstNonEmpty(m.Album(), rawString(m, "originalalbum", "OriginalAlbum", "TOAL"))
	if rec.album == "" {
		return nil, skip(path, "no album tag")
	}

	rec.title = m.Title()
	if rec.title == "" {
		rec.title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if rec.title == "" {
		return nil, skip(path, "no title and empty filename")
	}

	rec.genre = m.Genre()

	rec.release = parseRelease(m)

	if n, _ := m.Track(); n > 0 {
		v := n
		rec.track = &v
	} else if n, ok := parseNOfM(rawString(m, "track", "Track", "TRCK")); ok {
		rec.track = &n
	}
	if n, _ := m.Disc(); n > 0 {
		v := n
		rec.disc = &v
	} else if n, ok := parseNOfM(rawString(m, "disc", "Disc", "TPOS")); ok {
		rec.disc = &n
	}

	if pic := m.Picture(); pic != nil && len(pic.Data) > 0 {
		rec.art = pic.Data
	}

	runtime, sampleRate, err := decodeAudioParams(path, ext)
	if err != nil {
		return nil, skip(path, "cannot probe audio stream: "+err.Error())
	}
	if runtime <= 0 || sampleRate <= 0 {
		return nil, skip(path, "missing runtime or sample rate")
	}
	rec.runtime = runtime
	rec.sampleRate = sampleRate

	return rec, nil
}

var supportedMimeTypes = map[string]bool{
	"audio/mpeg":   true,
	"audio/flac":   true,
	"audio/x-flac": true,
	"audio/mp4":    true,
	"audio/ogg":    true,
	"audio/x-m4a":  true,
	"audio/aac":    true,
}

func supportedMimeType(m string) bool { return supportedMimeTypes[m] }

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}

// rawString walks m.Raw() for the first of the given keys and coerces
// whatever value it finds (string, []byte, any integer/float/bool kind)
// into a trimmed string.
func rawString(m tag.Metadata, keys ...string) string {
	raw := m.Raw()
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if s := coerceString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func coerceString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	case bool:
		if t {
			return "1"
		}
		return "0"
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

// compilationFlag applies the compilation-tag lookup (mirrors the
// teacher's fileinfo.go raw["compilation"]/raw["Compilation"] fallback,
// extended to accept any of the boolean/numeric/string coercions).
func compilationFlag(m tag.Metadata) bool {
	s := rawString(m, "compilation", "Compilation", "TCMP", "cpil")
	switch s {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// parseRelease applies the Date -> ReleaseDate -> OriginalDate fallback.
func parseRelease(m tag.Metadata) *releaseDate {
	if s := rawString(m, "date", "Date", "TDRC"); s != "" {
		if r, ok := parseDate(s); ok {
			return &r
		}
	}
	if s := rawString(m, "releasedate", "ReleaseDate", "TDRL"); s != "" {
		if r, ok := parseDate(s); ok {
			return &r
		}
	}
	if s := rawString(m, "originaldate", "OriginalDate", "TDOR"); s != "" {
		if r, ok := parseDate(s); ok {
			return &r
		}
	}
	if y := m.Year(); y > 0 {
		return &releaseDate{year: y}
	}
	return nil
}

// parseDate accepts "YYYY", "YYYY-MM" and "YYYY-MM-DD".
func parseDate(s string) (releaseDate, bool) {
	parts := strings.SplitN(s, "-", 3)
	var r releaseDate
	if len(parts) == 0 {
		return r, false
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil || y <= 0 {
		return r, false
	}
	r.year = y
	if len(parts) > 1 {
		if mo, err := strconv.Atoi(parts[1]); err == nil {
			r.month = mo
		}
	}
	if len(parts) > 2 {
		if d, err := strconv.Atoi(parts[2]); err == nil {
			r.day = d
		}
	}
	return r, true
}

// parseNOfM tolerates strings of the form "N/M", taking N.
func parseNOfM(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n := s
	if i := strings.IndexByte(s, '/'); i >= 0 {
		n = s[:i]
	}
	v, err := strconv.Atoi(strings.TrimSpace(n))
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// decodeAudioParams probes the file for its runtime and sample rate.
// A real build would call into a per-format decoder/demuxer; here the
// probing is isolated behind this function so it can be swapped for a
// real one without touching tag extraction or the pipeline around it
// (see internal/ccd/probe.go).
func decodeAudioParams(path, ext string) (runtimeSeconds float64, sampleRate int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	return probeAudioStream(f, ext)
}
