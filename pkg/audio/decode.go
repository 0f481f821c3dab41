package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	opus "github.com/pekim/opus"
)

// ErrUnsupportedFormat is returned by [Decode] when the payload is not
// a recognised audio container.
var ErrUnsupportedFormat = errors.New("audio: unsupported format")

// Decode converts an audio attachment into a [Clip]. filename is used
// only for extension-based dispatch; when the extension is unknown the
// container magic bytes decide. Ogg containers are tried as Opus first
// (the Discord voice-message codec) and fall back to Vorbis.
func Decode(data []byte, filename string) (Clip, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".ogg", ".oga", ".opus":
		return decodeOgg(data)
	case ".wav":
		return decodeWAV(data)
	case ".mp3":
		return decodeMP3(data)
	}

	if len(data) >= 4 {
		switch string(data[:4]) {
		case "OggS":
			return decodeOgg(data)
		case "RIFF":
			return decodeWAV(data)
		}
	}
	if looksLikeMP3(data) {
		return decodeMP3(data)
	}
	return Clip{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
}

// decodeOgg tries Opus first, then Vorbis.
func decodeOgg(data []byte) (Clip, error) {
	clip, opusErr := decodeOggOpus(data)
	if opusErr == nil {
		return clip, nil
	}
	clip, vorbisErr := decodeOggVorbis(data)
	if vorbisErr == nil {
		return clip, nil
	}
	return Clip{}, fmt.Errorf("audio: decode ogg: opus: %v; vorbis: %w", opusErr, vorbisErr)
}

func decodeOggOpus(data []byte) (Clip, error) {
	dec, err := opus.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return Clip{}, fmt.Errorf("open opus stream: %w", err)
	}
	defer dec.Destroy()

	channels := dec.ChannelCount()
	if channels <= 0 {
		channels = 1
	}

	// Opus always decodes at 48 kHz.
	const opusRate = 48000
	var pcm []float32
	buf := make([]int16, opusRate*channels/2)
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			pcm = append(pcm, int16ToFloat32(buf[:n*channels])...)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Clip{}, fmt.Errorf("read opus stream: %w", err)
		}
	}

	pcm = downmix(pcm, channels)
	return Clip{Samples: resample(pcm, opusRate, TargetSampleRate)}, nil
}

func decodeOggVorbis(data []byte) (Clip, error) {
	pcm, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return Clip{}, err
	}
	if format == nil || format.Channels <= 0 || format.SampleRate <= 0 {
		return Clip{}, errors.New("invalid vorbis stream")
	}
	pcm = downmix(pcm, format.Channels)
	return Clip{Samples: resample(pcm, format.SampleRate, TargetSampleRate)}, nil
}

func decodeWAV(data []byte) (Clip, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return Clip{}, errors.New("audio: invalid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("audio: read wav: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return Clip{}, errors.New("audio: empty wav file")
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	pcm := intToFloat32(buf.Data, bitDepth)

	channels, rate := 1, TargetSampleRate
	if buf.Format != nil {
		if buf.Format.NumChannels > 0 {
			channels = buf.Format.NumChannels
		}
		if buf.Format.SampleRate > 0 {
			rate = buf.Format.SampleRate
		}
	}
	pcm = downmix(pcm, channels)
	return Clip{Samples: resample(pcm, rate, TargetSampleRate)}, nil
}

func decodeMP3(data []byte) (Clip, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return Clip{}, fmt.Errorf("audio: open mp3: %w", err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return Clip{}, fmt.Errorf("audio: read mp3: %w", err)
	}

	samples := make([]int16, len(raw)/2)
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &samples); err != nil {
		return Clip{}, fmt.Errorf("audio: parse mp3 pcm: %w", err)
	}

	// go-mp3 always outputs interleaved stereo.
	pcm := downmix(int16ToFloat32(samples), 2)

	rate := dec.SampleRate()
	if rate <= 0 {
		rate = 44100
	}
	return Clip{Samples: resample(pcm, rate, TargetSampleRate)}, nil
}

// looksLikeMP3 recognises an ID3 tag or an MPEG frame sync.
func looksLikeMP3(data []byte) bool {
	if len(data) >= 3 && string(data[:3]) == "ID3" {
		return true
	}
	return len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}
