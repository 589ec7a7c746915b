// SPDX-License-Identifier: EPL-2.0

package emotalk

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/ik5/emotalk/audio"
	"github.com/ik5/emotalk/formats/aiff"
	"github.com/ik5/emotalk/formats/mp3"
	"github.com/ik5/emotalk/formats/vorbis"
	"github.com/ik5/emotalk/formats/wav"
)

// NewRegistry returns a registry holding every bundled decoder, reachable by
// format key, file extension and the MIME types browsers send.
func NewRegistry() *audio.Registry {
	reg := audio.NewRegistry()

	reg.Register("wav", wav.Decoder{}, ".wave", "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave")
	reg.Register("mp3", mp3.Decoder{}, "audio/mpeg", "audio/mp3", "audio/mpeg3")
	reg.Register("ogg", vorbis.Decoder{}, ".oga", "vorbis", "audio/ogg", "audio/vorbis", "application/ogg")
	reg.Register("aiff", aiff.Decoder{}, ".aif", ".aifc", "audio/aiff", "audio/x-aiff")

	return reg
}

// Decode opens r with the decoder named by hint. When the hint is empty or
// unknown the format is sniffed from the leading bytes. A seekable r that
// the hinted decoder rejects is rewound and sniffed as well, so a
// mislabeled upload still decodes.
func Decode(reg *audio.Registry, r io.Reader, hint string) (audio.Source, error) {
	if hint != "" {
		if dec, key, ok := reg.Lookup(hint); ok {
			rs, seekable := r.(io.ReadSeeker)
			if !seekable {
				return dec.Decode(r)
			}

			return decodeHinted(reg, rs, dec, key)
		}
	}

	return sniffDecode(reg, r, hint)
}

func decodeHinted(reg *audio.Registry, rs io.ReadSeeker, dec audio.Decoder, key string) (audio.Source, error) {
	start, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return dec.Decode(rs)
	}

	src, hintErr := dec.Decode(rs)
	if hintErr == nil {
		return src, nil
	}

	if _, err := rs.Seek(start, io.SeekStart); err != nil {
		return nil, hintErr
	}

	header, _, err := peekHeader(rs)
	if err != nil {
		return nil, hintErr
	}

	format := audio.Sniff(header)
	if format == "" || format == key {
		return nil, hintErr
	}

	sniffed, ok := reg.Get(format)
	if !ok {
		return nil, hintErr
	}

	return sniffed.Decode(rs)
}

func sniffDecode(reg *audio.Registry, r io.Reader, hint string) (audio.Source, error) {
	header, r, err := peekHeader(r)
	if err != nil {
		return nil, err
	}

	format := audio.Sniff(header)
	if format == "" {
		return nil, fmt.Errorf("%w: hint %q", audio.ErrUnknownFormat, hint)
	}

	dec, ok := reg.Get(format)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not registered", audio.ErrUnknownFormat, format)
	}

	return dec.Decode(r)
}

// peekHeader reads the sniffing window without consuming it. Seekable
// readers are rewound so decoders that need seeking keep that ability.
func peekHeader(r io.Reader) ([]byte, io.Reader, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		header := make([]byte, audio.SniffLen)
		n, err := io.ReadFull(rs, header)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("reading header: %w", err)
		}
		if _, err := rs.Seek(-int64(n), io.SeekCurrent); err != nil {
			return nil, nil, fmt.Errorf("rewinding: %w", err)
		}

		return header[:n], rs, nil
	}

	br := bufio.NewReader(r)
	header, err := br.Peek(audio.SniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}

	return header, br, nil
}

// ConvertToWAV drains src into memory and encodes it as a canonical 16-bit
// PCM WAV file at the source's own rate and channel count. src is closed.
func ConvertToWAV(src audio.Source) ([]byte, error) {
	defer src.Close()

	data, err := wav.EncodeSource(src)
	if err != nil {
		return nil, fmt.Errorf("converting to wav: %w", err)
	}

	return data, nil
}
