package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/HarshaliWani/ConceptPilot2.0/internal/logger"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/pipeline"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/types"
)

// SpeechService extracts word-level timestamps from synthesized narration.
// One call is one logical transcription attempt: retries inside cover only
// transient transport failures, and a returned TranscriptionError is final
// for that invocation. Re-running later against the same stored audio is
// safe; extraction is idempotent.
type SpeechService interface {
	ExtractWordTimestamps(ctx context.Context, audio []byte) (types.WordTimestampList, error)
	ExtractWordTimestampsGCS(ctx context.Context, gcsURI string) (types.WordTimestampList, error)
	Close() error
}

type speechService struct {
	log    *logger.Logger
	client *speech.Client

	maxRetries int
}

func NewSpeechService(log *logger.Logger) (SpeechService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	slog := log.With("service", "SpeechService")

	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	ctx := context.Background()
	var c *speech.Client
	var err error
	if creds != "" {
		c, err = speech.NewClient(ctx, option.WithCredentialsFile(creds))
	} else {
		c, err = speech.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}

	return &speechService{
		log:        slog,
		client:     c,
		maxRetries: 4,
	}, nil
}

func (s *speechService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *speechService) ExtractWordTimestamps(ctx context.Context, audio []byte) (types.WordTimestampList, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	if len(audio) == 0 {
		return nil, &pipeline.TranscriptionError{Err: fmt.Errorf("empty audio")}
	}

	req := &speechpb.LongRunningRecognizeRequest{
		Config: recognitionConfig(),
		Audio:  &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Content{Content: audio}},
	}
	resp, err := s.recognize(ctx, req)
	if err != nil {
		return nil, &pipeline.TranscriptionError{Err: err}
	}
	return wordsFromResponse(resp), nil
}

func (s *speechService) ExtractWordTimestampsGCS(ctx context.Context, gcsURI string) (types.WordTimestampList, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()

	if !strings.HasPrefix(gcsURI, "gs://") {
		return nil, &pipeline.TranscriptionError{Err: fmt.Errorf("gcsURI must be gs://... got %q", gcsURI)}
	}

	req := &speechpb.LongRunningRecognizeRequest{
		Config: recognitionConfig(),
		Audio:  &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Uri{Uri: gcsURI}},
	}
	resp, err := s.recognize(ctx, req)
	if err != nil {
		return nil, &pipeline.TranscriptionError{Err: err}
	}
	return wordsFromResponse(resp), nil
}

func recognitionConfig() *speechpb.RecognitionConfig {
	return &speechpb.RecognitionConfig{
		LanguageCode:               "en-US",
		Encoding:                   speechpb.RecognitionConfig_MP3,
		SampleRateHertz:            24000,
		EnableWordTimeOffsets:      true,
		EnableAutomaticPunctuation: true,
	}
}

// recognize runs the long-running operation, retrying only on transient gRPC
// codes: Unavailable, ResourceExhausted, DeadlineExceeded.
func (s *speechService) recognize(ctx context.Context, req *speechpb.LongRunningRecognizeRequest) (*speechpb.LongRunningRecognizeResponse, error) {
	backoff := 750 * time.Millisecond
	var last error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		op, err := s.client.LongRunningRecognize(ctx, req)
		var resp *speechpb.LongRunningRecognizeResponse
		if err == nil {
			resp, err = op.Wait(ctx)
		}
		if err == nil {
			return resp, nil
		}
		last = err

		code := status.Code(err)
		if code != codes.Unavailable && code != codes.ResourceExhausted && code != codes.DeadlineExceeded {
			return nil, err
		}
		if attempt == s.maxRetries {
			break
		}
		s.log.Warn("Speech recognize retrying", "attempt", attempt+1, "code", code.String(), "backoff", backoff.String())
		time.Sleep(backoff)
		backoff *= 2
		if backoff > 10*time.Second {
			backoff = 10 * time.Second
		}
	}
	return nil, last
}

func wordsFromResponse(resp *speechpb.LongRunningRecognizeResponse) types.WordTimestampList {
	out := types.WordTimestampList{}
	if resp == nil {
		return out
	}
	for _, r := range resp.Results {
		if r == nil || len(r.Alternatives) == 0 || r.Alternatives[0] == nil {
			continue
		}
		for _, w := range r.Alternatives[0].Words {
			if w == nil || strings.TrimSpace(w.Word) == "" {
				continue
			}
			out = append(out, types.WordTimestamp{
				Word:  w.Word,
				Start: durToSec(w.StartTime),
				End:   durToSec(w.EndTime),
			})
		}
	}
	return out
}

func durToSec(d *durationpb.Duration) float64 {
	if d == nil {
		return 0
	}
	return float64(d.Seconds) + float64(d.Nanos)/1e9
}
