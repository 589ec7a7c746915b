// SPDX-License-Identifier: EPL-2.0

// Package audio provides the low-level building blocks shared by the
// decoders, the WAV encoder and the backend:
//   - Source, a pull interface over interleaved float32 samples in [-1, 1]
//   - Buffer, a fully decoded clip stored channel by channel
//   - Resampler and MonoMixer, Sources that wrap other Sources
//   - Registry, which maps format keys, file extensions and MIME types to
//     Decoders, and Sniff, which guesses a format from magic bytes
//
// # Streams and buffers
//
// Decoders hand back a Source. Anything that needs the whole clip at once,
// such as the WAV encoder which must know the data size up front, drains it
// with ReadAll:
//
//	src, _ := wav.Decoder{}.Decode(r)
//	buf, err := audio.ReadAll(src)
//
// A Buffer can be streamed again through Buffer.Source.
//
// # End of stream
//
// ReadSamples returns io.EOF once nothing is left. A Source may return
// samples together with io.EOF on its last read, so callers consume n
// before looking at err:
//
//	for {
//	    n, err := src.ReadSamples(buf)
//	    process(buf[:n])
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	}
package audio
