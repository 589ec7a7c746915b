// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MP3 uploads into an audio.Source using
// github.com/hajimehoshi/go-mp3.
//
// go-mp3 upmixes every stream to stereo, so the source always reports two
// channels whatever the file holds. Pipe it through audio.NewMonoMixer when
// the consumer wants speech input:
//
//	src, err := mp3.Decoder{}.Decode(f)
//	if err != nil {
//	    return err
//	}
//	mono := audio.NewMonoMixer(audio.NewResampler(src, 16000))
//
// Only decoding is provided.
package mp3
