// SPDX-License-Identifier: EPL-2.0

// Package emotalk ties the audio toolkit together for the emotion-detector
// and voice-chat backend.
//
// Uploaded clips are decoded with the bundled decoders, then either encoded
// back as canonical 16-bit PCM WAV (ConvertToWAV) or normalized to mono
// 16 kHz for the speech recognizer (ToSpeechWAV):
//
//	reg := emotalk.NewRegistry()
//	src, err := emotalk.Decode(reg, file, header.Filename)
//	if err != nil {
//	    return err
//	}
//	data, err := emotalk.ConvertToWAV(src)
//
// Decoding picks a format from the hint (format key, file name or MIME
// type) first and falls back to sniffing the leading bytes.
//
// # Subpackages
//
//   - audio: Source, Buffer, Registry, Resampler and MonoMixer
//   - formats/wav: the WAV encoder plus a go-audio based decoder
//   - formats/mp3, formats/vorbis, formats/aiff: decoders
//   - emotion, transcribe, chat, capture, server: the backend services
package emotalk
