// Package google implements stt.Recognizer on Cloud Speech-to-Text
// streaming recognition fed from the local microphone.
package google

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	"github.com/nadzzz/mira/internal/audio"
	"github.com/nadzzz/mira/internal/config"
	"github.com/nadzzz/mira/internal/stt"
)

// Recognizer streams microphone audio to Google and relays results.
type Recognizer struct {
	client     *speech.Client
	source     audio.Source
	sampleRate int
}

// New dials the Speech API. An empty credentials file falls back to
// application default credentials.
func New(ctx context.Context, cfg config.GoogleConfig, source audio.Source, sampleRate int) (*Recognizer, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating speech client: %w", err)
	}
	return &Recognizer{client: client, source: source, sampleRate: sampleRate}, nil
}

// Name returns the backend identifier.
func (r *Recognizer) Name() string { return "google" }

// Recognize opens a StreamingRecognize call and pumps microphone frames into
// it until the server closes the stream or ctx is done.
func (r *Recognizer) Recognize(ctx context.Context, opts stt.Options, sink func(stt.Result)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := r.client.StreamingRecognize(ctx)
	if err != nil {
		return fmt.Errorf("opening recognize stream: %w", err)
	}

	maxAlt := int32(opts.MaxAlternatives)
	if maxAlt <= 0 {
		maxAlt = 1
	}
	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        speechpb.RecognitionConfig_LINEAR16,
					SampleRateHertz: int32(r.sampleRate),
					LanguageCode:    opts.Language,
					MaxAlternatives: maxAlt,
				},
				InterimResults:  opts.Interim,
				SingleUtterance: !opts.Continuous,
			},
		},
	}); err != nil {
		return fmt.Errorf("sending recognize config: %w", err)
	}

	sendErr := make(chan error, 1)
	go func() {
		buf := make([]byte, 0, 2048)
		err := r.source.Stream(ctx, func(frame []int16) error {
			buf = buf[:0]
			for _, s := range frame {
				buf = binary.LittleEndian.AppendUint16(buf, uint16(s))
			}
			return stream.Send(&speechpb.StreamingRecognizeRequest{
				StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
					AudioContent: append([]byte(nil), buf...),
				},
			})
		})
		if cerr := stream.CloseSend(); cerr != nil {
			slog.Debug("closing recognize stream", "error", cerr)
		}
		sendErr <- err
	}()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			select {
			case serr := <-sendErr:
				if serr != nil && !errors.Is(serr, io.EOF) {
					return fmt.Errorf("streaming microphone audio: %w", serr)
				}
			default:
			}
			return fmt.Errorf("receiving recognition results: %w", err)
		}
		if st := resp.GetError(); st != nil {
			return fmt.Errorf("recognition error %d: %s", st.GetCode(), st.GetMessage())
		}
		for _, result := range resp.GetResults() {
			alts := result.GetAlternatives()
			if len(alts) == 0 {
				continue
			}
			sink(stt.Result{Text: alts[0].GetTranscript(), Final: result.GetIsFinal()})
		}
	}
}

// Close releases the gRPC connection.
func (r *Recognizer) Close() error { return r.client.Close() }
