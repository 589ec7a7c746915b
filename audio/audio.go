// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"bytes"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (e.g., 1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples in [-1,1].
	// Returns number of float32 values written (not frames), always a
	// multiple of Channels(). When n == 0 with err == io.EOF, the stream is finished.
	ReadSamples(dst []float32) (n int, err error)

	BufSize() int

	// Close releases any resources.
	Close() error
}

// Decoder constructs a Source from an input reader.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// Registry for decoders by format key (e.g., "wav", "mp3", "ogg").
// Keys can be reached through aliases such as MIME types.
type Registry struct {
	codecs  map[string]Decoder
	aliases map[string]string

	mtx sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs:  make(map[string]Decoder),
		aliases: make(map[string]string),
	}
}

// Register adds d under format. Every alias (file extension or MIME type)
// resolves to the same decoder.
func (r *Registry) Register(format string, d Decoder, aliases ...string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	key := normalizeKey(format)
	r.codecs[key] = d
	for _, a := range aliases {
		r.aliases[normalizeKey(a)] = key
	}
}

func (r *Registry) Get(format string) (Decoder, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	d, ok := r.codecs[normalizeKey(format)]
	return d, ok
}

// Lookup resolves a format key, alias, file name or MIME type
// ("audio/ogg; codecs=vorbis") to a registered decoder.
func (r *Registry) Lookup(name string) (Decoder, string, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	candidates := []string{normalizeKey(name)}
	if ext := filepath.Ext(name); ext != "" && !strings.Contains(name, "/") {
		candidates = append(candidates, normalizeKey(ext))
	}

	for _, c := range candidates {
		if d, ok := r.codecs[c]; ok {
			return d, c, true
		}
		if key, ok := r.aliases[c]; ok {
			return r.codecs[key], key, true
		}
	}

	return nil, "", false
}

// Formats returns the registered format keys in sorted order.
func (r *Registry) Formats() []string {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	out := make([]string, 0, len(r.codecs))
	for k := range r.codecs {
		out = append(out, k)
	}
	slices.Sort(out)

	return out
}

func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}

	return strings.TrimPrefix(s, ".")
}

// SniffLen is the number of leading bytes Sniff needs.
const SniffLen = 12

// Sniff guesses a format key from the first bytes of a stream.
// It returns "" when nothing matches.
func Sniff(header []byte) string {
	switch {
	case len(header) >= 12 && bytes.Equal(header[0:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WAVE")):
		return "wav"
	case len(header) >= 12 && bytes.Equal(header[0:4], []byte("FORM")) &&
		(bytes.Equal(header[8:12], []byte("AIFF")) || bytes.Equal(header[8:12], []byte("AIFC"))):
		return "aiff"
	case len(header) >= 4 && bytes.Equal(header[0:4], []byte("OggS")):
		return "ogg"
	case len(header) >= 3 && bytes.Equal(header[0:3], []byte("ID3")):
		return "mp3"
	case len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		// MPEG audio frame sync
		return "mp3"
	}

	return ""
}
