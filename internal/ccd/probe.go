package ccd

import (
	"bufio"
	"encoding/binary"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// probeAudioStream determines a file's runtime and sample rate by reading
// its container/frame headers directly, without decoding any audio samples.
// Each supported container gets its own narrow parser; an unrecognized
// extension is reported as an error.
func probeAudioStream(r io.Reader, ext string) (float64, int, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	switch strings.TrimPrefix(ext, ".") {
	case "flac":
		return probeFLAC(br)
	case "m4a", "mp4", "aac":
		return probeMP4(br)
	case "ogg":
		return probeOgg(br)
	case "mp3":
		return probeMP3(br)
	default:
		return 0, 0, errors.Errorf("unsupported extension %q", ext)
	}
}

// --- FLAC ---------------------------------------------------------------

// probeFLAC reads the STREAMINFO metadata block, which carries the exact
// sample rate and total sample count, and so gives an exact runtime.
func probeFLAC(r *bufio.Reader) (float64, int, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return 0, 0, err
	}
	if string(magic[:]) != "fLaC" {
		return 0, 0, errors.New("flac: bad magic")
	}

	for {
		var hdr [4]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return 0, 0, errors.Wrap(err, "flac: truncated metadata block header")
		}
		last := hdr[0]&0x80 != 0
		blockType := hdr[0] & 0x7f
		length := int(hdr[1])<<16 | int(hdr[2])<<8 | int(hdr[3])

		if blockType == 0 { // STREAMINFO
			body := make([]byte, length)
			if _, err := io.ReadFull(r, body); err != nil {
				return 0, 0, errors.Wrap(err, "flac: truncated STREAMINFO")
			}
			if len(body) < 18 {
				return 0, 0, errors.New("flac: STREAMINFO too short")
			}
			sampleRate := int(body[10])<<12 | int(body[11])<<4 | int(body[12])>>4
			totalSamples := uint64(body[13]&0x0f)<<32 | uint64(body[14])<<24 | uint64(body[15])<<16 | uint64(body[16])<<8 | uint64(body[17])
			if sampleRate == 0 {
				return 0, 0, errors.New("flac: zero sample rate")
			}
			runtime := float64(totalSamples) / float64(sampleRate)
			return runtime, sampleRate, nil
		}

		if _, err := io.CopyN(io.Discard, r, int64(length)); err != nil {
			return 0, 0, errors.Wrap(err, "flac: truncated metadata block body")
		}
		if last {
			break
		}
	}

	return 0, 0, errors.New("flac: no STREAMINFO block found")
}

// --- MP4 / M4A / AAC (ISO BMFF) ------------------------------------------

// probeMP4 walks top-level boxes looking for moov/mvhd (overall duration and
// timescale) and moov/trak (whose stsd audio sample entry carries the
// sample rate). When no stsd sample rate is found, the mvhd timescale is
// reported as the sample rate instead.
func probeMP4(r io.Reader) (float64, int, error) {
	var (
		duration  uint64
		timescale uint32
		sampleHz  int
	)

	err := walkMP4Boxes(r, func(boxType string, body io.Reader, size int64) error {
		switch boxType {
		case "moov":
			return walkMP4Boxes(body, func(inner string, innerBody io.Reader, innerSize int64) error {
				switch inner {
				case "mvhd":
					d, ts, err := parseMvhd(innerBody)
					if err != nil {
						return nil // tolerate a malformed mvhd, other boxes may still help
					}
					duration, timescale = d, ts
					return nil
				case "trak":
					if hz := findAudioSampleRate(innerBody); hz > 0 {
						sampleHz = hz
					}
					return nil
				default:
					return nil
				}
			})
		default:
			return nil
		}
	})
	if err != nil {
		return 0, 0, err
	}
	if timescale == 0 {
		return 0, 0, errors.New("mp4: no mvhd box found")
	}
	if sampleHz == 0 {
		sampleHz = int(timescale)
	}
	return float64(duration) / float64(timescale), sampleHz, nil
}

// walkMP4Boxes iterates the box sequence in r, invoking fn with each box's
// type, a reader bounded to its body, and the body's size. fn may recurse
// into walkMP4Boxes on the body reader for container boxes.
func walkMP4Boxes(r io.Reader, fn func(boxType string, body io.Reader, size int64) error) error {
	for {
		var hdr [8]byte
		n, err := io.ReadFull(r, hdr[:])
		if err == io.EOF || (err == io.ErrUnexpectedEOF && n == 0) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "mp4: truncated box header")
		}
		size := int64(binary.BigEndian.Uint32(hdr[0:4]))
		boxType := string(hdr[4:8])
		if size < 8 {
			return nil // malformed or 64-bit size extension, neither worth chasing here
		}
		bodySize := size - 8
		body := io.LimitReader(r, bodySize)
		if err := fn(boxType, body, bodySize); err != nil {
			return err
		}
		if _, err := io.Copy(io.Discard, body); err != nil {
			return errors.Wrap(err, "mp4: truncated box body")
		}
	}
}

func parseMvhd(r io.Reader) (duration uint64, timescale uint32, err error) {
	var verFlags [4]byte
	if _, err = io.ReadFull(r, verFlags[:]); err != nil {
		return 0, 0, err
	}
	version := verFlags[0]
	if version == 1 {
		var buf [28]byte
		if _, err = io.ReadFull(r, buf[:]); err != nil {
			return 0, 0, err
		}
		timescale = binary.BigEndian.Uint32(buf[16:20])
		duration = binary.BigEndian.Uint64(buf[20:28])
	} else {
		var buf [16]byte
		if _, err = io.ReadFull(r, buf[:]); err != nil {
			return 0, 0, err
		}
		timescale = binary.BigEndian.Uint32(buf[8:12])
		duration = uint64(binary.BigEndian.Uint32(buf[12:16]))
	}
	return duration, timescale, nil
}

// findAudioSampleRate descends trak/mdia/minf/stbl/stsd looking for an
// audio sample entry and reads its fixed sample-rate field. It returns 0
// (not an error) whenever the expected shape is not found, since the
// caller treats the mvhd timescale as an acceptable fallback.
func findAudioSampleRate(trak io.Reader) int {
	var hz int
	_ = walkMP4Boxes(trak, func(t string, body io.Reader, _ int64) error {
		switch t {
		case "mdia", "minf", "stbl":
			return walkMP4Boxes(body, func(t2 string, body2 io.Reader, sz2 int64) error {
				if t2 == "stsd" {
					hz = parseStsdSampleRate(body2)
					return nil
				}
				if t2 == "mdia" || t2 == "minf" || t2 == "stbl" {
					if inner := findAudioSampleRate(body2); inner > 0 {
						hz = inner
					}
					return nil
				}
				return nil
			})
		}
		return nil
	})
	return hz
}

func parseStsdSampleRate(r io.Reader) int {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0
	}
	// version/flags (4) + entry count (4), skip to first sample entry.
	var skip [4]byte
	_, _ = io.ReadFull(r, skip[:])

	var entry [8]byte
	if _, err := io.ReadFull(r, entry[:]); err != nil {
		return 0
	}
	// AudioSampleEntry: 6 bytes reserved, 2 bytes data_reference_index,
	// then 8 bytes reserved, channelcount(2), samplesize(2), pre_defined(2),
	// reserved(2), then samplerate as 16.16 fixed point (4 bytes).
	var body [24]byte
	if _, err := io.ReadFull(r, body[:]); err != nil {
		return 0
	}
	fixed := binary.BigEndian.Uint32(body[20:24])
	return int(fixed >> 16)
}

// --- Ogg (Vorbis/Opus) ----------------------------------------------------

// probeOgg reads the first page for the codec identification header's
// sample rate, then scans to the final page for its granule position,
// which counts output samples from the start of the stream.
func probeOgg(r io.Reader) (float64, int, error) {
	data, err := io.ReadAll(io.LimitReader(r, 64<<20))
	if err != nil {
		return 0, 0, errors.Wrap(err, "ogg: read")
	}

	var (
		sampleRate     int
		lastGranule    uint64
		outputSampleHz = 48000 // Opus always decodes to this rate
		isOpus         bool
	)

	for off := 0; off+27 <= len(data); {
		if string(data[off:off+4]) != "OggS" {
			break
		}
		segCount := int(data[off+26])
		if off+27+segCount > len(data) {
			break
		}
		segTable := data[off+27 : off+27+segCount]
		pageLen := 0
		for _, s := range segTable {
			pageLen += int(s)
		}
		granule := binary.LittleEndian.Uint64(data[off+6 : off+14])
		payloadStart := off + 27 + segCount
		payloadEnd := payloadStart + pageLen
		if payloadEnd > len(data) {
			payloadEnd = len(data)
		}
		payload := data[payloadStart:payloadEnd]

		if sampleRate == 0 {
			if len(payload) > 28 && string(payload[0:7]) == "\x01vorbis" {
				sampleRate = int(binary.LittleEndian.Uint32(payload[12:16]))
			} else if len(payload) > 12 && string(payload[0:8]) == "OpusHead" {
				isOpus = true
				sampleRate = outputSampleHz
			}
		}
		if granule != 0 && granule != ^uint64(0) {
			lastGranule = granule
		}

		off = payloadEnd
	}

	if sampleRate == 0 {
		return 0, 0, errors.New("ogg: no recognized identification header")
	}
	_ = isOpus
	return float64(lastGranule) / float64(sampleRate), sampleRate, nil
}

// --- MP3 (MPEG audio frames) ----------------------------------------------

var mp3BitratesV1L3 = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}
var mp3SampleRatesV1 = [4]int{44100, 48000, 32000, 0}

// probeMP3 finds the first valid frame header for the sample rate, checks
// for a Xing/Info VBR header (exact frame count) in that same frame, and
// otherwise estimates runtime from the file size and the first frame's
// bitrate under a constant-bitrate assumption.
func probeMP3(r io.Reader) (float64, int, error) {
	data, err := io.ReadAll(io.LimitReader(r, 256<<20))
	if err != nil {
		return 0, 0, errors.Wrap(err, "mp3: read")
	}
	data = skipID3v2(data)

	for i := 0; i+4 <= len(data); i++ {
		if data[i] != 0xff || data[i+1]&0xe0 != 0xe0 {
			continue
		}
		versionBits := (data[i+1] >> 3) & 0x3
		layerBits := (data[i+1] >> 1) & 0x3
		if versionBits == 1 || layerBits != 1 { // reserved version, or not Layer III
			continue
		}
		bitrateIdx := (data[i+2] >> 4) & 0xf
		sampleIdx := (data[i+2] >> 2) & 0x3
		if bitrateIdx == 0 || bitrateIdx == 15 || sampleIdx == 3 {
			continue
		}
		sampleRate := mp3SampleRatesV1[sampleIdx]
		if versionBits == 2 { // MPEG2
			sampleRate /= 2
		} else if versionBits == 0 { // MPEG2.5
			sampleRate /= 4
		}
		bitrateKbps := mp3BitratesV1L3[bitrateIdx]
		if sampleRate == 0 || bitrateKbps == 0 {
			continue
		}

		if frames, ok := findXingFrameCount(data[i:]); ok {
			samplesPerFrame := 1152.0
			return float64(frames) * samplesPerFrame / float64(sampleRate), sampleRate, nil
		}

		bitsPerSecond := bitrateKbps * 1000
		runtime := float64(len(data)-i) * 8 / float64(bitsPerSecond)
		return runtime, sampleRate, nil
	}

	return 0, 0, errors.New("mp3: no valid frame header found")
}

func skipID3v2(data []byte) []byte {
	if len(data) < 10 || string(data[0:3]) != "ID3" {
		return data
	}
	size := int(data[6]&0x7f)<<21 | int(data[7]&0x7f)<<14 | int(data[8]&0x7f)<<7 | int(data[9]&0x7f)
	end := 10 + size
	if end > len(data) {
		return data
	}
	return data[end:]
}

// findXingFrameCount looks for a "Xing"/"Info" header immediately after a
// Layer III frame's side-information field, returning the stream's total
// frame count when the header's frame-count flag is set.
func findXingFrameCount(frame []byte) (int, bool) {
	const sideInfoOffset = 36 // generous bound covering mono/stereo, MPEG1/2 side info sizes
	// The 4-byte tag itself may start at sideInfoOffset.
	limit := sideInfoOffset + 4
	if limit > len(frame) {
		limit = len(frame)
	}
	for _, tag := range []string{"Xing", "Info"} {
		idx := indexOf(frame[:limit], tag)
		if idx < 0 {
			continue
		}
		pos := idx + 4
		if pos+8 > len(frame) {
			return 0, false
		}
		flags := binary.BigEndian.Uint32(frame[pos : pos+4])
		if flags&0x1 == 0 { // frames field not present
			return 0, false
		}
		frames := binary.BigEndian.Uint32(frame[pos+4 : pos+8])
		return int(frames), true
	}
	return 0, false
}

func indexOf(haystack []byte, needle string) int {
	return strings.Index(string(haystack), needle)
}
