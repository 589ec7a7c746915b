// SPDX-License-Identifier: EPL-2.0

// towav converts an audio file (wav, mp3, ogg, aiff) to 16-bit PCM WAV.
// By default the source rate and channels are kept; -speech produces the
// mono 16 kHz clip the transcription service expects.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"

	"github.com/ik5/emotalk"
	"github.com/rs/zerolog"
)

func main() {
	speech := flag.Bool("speech", false, "resample to mono for speech recognition")
	rate := flag.Int("rate", emotalk.SpeechRate, "output sample rate with -speech")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: towav [-speech] [-rate hz] <input> <output.wav>")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), flag.Arg(1), *speech, *rate); err != nil {
		logger.Fatal().Err(err).Str("input", flag.Arg(0)).Msg("conversion failed")
	}

	logger.Info().Str("output", flag.Arg(1)).Bool("speech", *speech).Msg("wrote")
}

func run(inPath, outPath string, speech bool, rate int) error {
	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	src, err := emotalk.Decode(emotalk.NewRegistry(), in, inPath)
	if err != nil {
		return err
	}
	defer src.Close()

	var data []byte
	if speech {
		var buf bytes.Buffer
		if err := emotalk.ToSpeechWAV(&buf, src, rate); err != nil {
			return err
		}
		data = buf.Bytes()
	} else {
		if data, err = emotalk.ConvertToWAV(src); err != nil {
			return err
		}
	}

	return os.WriteFile(outPath, data, 0o644)
}
