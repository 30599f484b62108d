package audio

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

var wavSeq atomic.Uint64

// EncodeWAV wraps mono 16-bit samples in a WAV container. The encoder needs a
// seekable file, so it writes through fs (an in-memory afero filesystem in
// production) and returns the finished bytes.
func EncodeWAV(fs afero.Fs, samples []int16, sampleRate int) ([]byte, error) {
	name := fmt.Sprintf("/utterance-%d.wav", wavSeq.Add(1))
	f, err := fs.Create(name)
	if err != nil {
		return nil, fmt.Errorf("creating wav file: %w", err)
	}
	defer fs.Remove(name)

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("encoding wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return nil, fmt.Errorf("finalizing wav: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing wav file: %w", err)
	}

	out, err := afero.ReadFile(fs, name)
	if err != nil {
		return nil, fmt.Errorf("reading wav file: %w", err)
	}
	return out, nil
}

// PCMToSamples converts little-endian 16-bit PCM bytes to samples.
// A trailing odd byte is dropped.
func PCMToSamples(pcm []byte) []int16 {
	out := make([]int16, len(pcm)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return out
}
