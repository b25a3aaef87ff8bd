package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/HarshaliWani/ConceptPilot2.0/internal/logger"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/pipeline"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/utils"
)

// MaxSynthesisChars is the largest narration slice sent in one synthesis
// request. The upstream API rejects bodies near 2000 characters, so scripts
// are split on sentence boundaries below this.
const MaxSynthesisChars = 1950

// TTSService turns narration text into mp3 audio. Synthesize blocks until the
// full asset is ready; SynthesizeStream forwards audio bytes as the upstream
// body is read, first chunk as soon as it arrives.
type TTSService interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	SynthesizeStream(ctx context.Context, text string) (<-chan []byte, <-chan error)
}

type ttsService struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	voice      string
	httpClient *http.Client
}

func NewTTSService(log *logger.Logger) (TTSService, error) {
	apiKey := utils.GetEnv("DEEPGRAM_API_KEY", "", log)
	if apiKey == "" {
		return nil, fmt.Errorf("missing DEEPGRAM_API_KEY")
	}
	return &ttsService{
		log:        log.With("service", "TTSService"),
		baseURL:    utils.GetEnv("DEEPGRAM_BASE_URL", "https://api.deepgram.com", log),
		apiKey:     apiKey,
		voice:      utils.GetEnv("DEEPGRAM_VOICE", "aura-2-odysseus-en", log),
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

type speakRequest struct {
	Text string `json:"text"`
}

func (s *ttsService) speak(ctx context.Context, text string) (*http.Response, error) {
	body, err := json.Marshal(speakRequest{Text: text})
	if err != nil {
		return nil, err
	}
	endpoint := s.baseURL + "/v1/speak?" + url.Values{"model": {s.voice}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("speak http %d: %s", resp.StatusCode, string(raw))
	}
	return resp, nil
}

func (s *ttsService) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &pipeline.SynthesisError{Err: fmt.Errorf("empty narration text")}
	}

	var out bytes.Buffer
	for i, slice := range ChunkText(text, MaxSynthesisChars) {
		resp, err := s.speak(ctx, slice)
		if err != nil {
			return nil, &pipeline.SynthesisError{Err: fmt.Errorf("slice %d: %w", i, err)}
		}
		if _, err := io.Copy(&out, resp.Body); err != nil {
			_ = resp.Body.Close()
			return nil, &pipeline.SynthesisError{Err: fmt.Errorf("slice %d read: %w", i, err)}
		}
		_ = resp.Body.Close()
	}
	s.log.Info("Synthesized narration", "bytes", out.Len())
	return out.Bytes(), nil
}

// SynthesizeStream emits audio as it is read from upstream. Both channels are
// closed when synthesis finishes; at most one error is sent. Slices beyond the
// failing one are not attempted.
func (s *ttsService) SynthesizeStream(ctx context.Context, text string) (<-chan []byte, <-chan error) {
	audio := make(chan []byte, 8)
	errc := make(chan error, 1)

	go func() {
		defer close(audio)
		defer close(errc)

		if strings.TrimSpace(text) == "" {
			errc <- &pipeline.SynthesisError{Err: fmt.Errorf("empty narration text")}
			return
		}

		for i, slice := range ChunkText(text, MaxSynthesisChars) {
			resp, err := s.speak(ctx, slice)
			if err != nil {
				errc <- &pipeline.SynthesisError{Err: fmt.Errorf("slice %d: %w", i, err)}
				return
			}
			buf := make([]byte, 32*1024)
			for {
				n, readErr := resp.Body.Read(buf)
				if n > 0 {
					chunk := make([]byte, n)
					copy(chunk, buf[:n])
					select {
					case audio <- chunk:
					case <-ctx.Done():
						_ = resp.Body.Close()
						errc <- ctx.Err()
						return
					}
				}
				if readErr == io.EOF {
					break
				}
				if readErr != nil {
					_ = resp.Body.Close()
					errc <- &pipeline.SynthesisError{Err: fmt.Errorf("slice %d read: %w", i, readErr)}
					return
				}
			}
			_ = resp.Body.Close()
		}
	}()

	return audio, errc
}

// ChunkText splits text into slices of at most maxLen characters, breaking on
// sentence ends where possible and falling back to word boundaries for a
// single over-long sentence. Slices are trimmed and never empty.
func ChunkText(text string, maxLen int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxLen <= 0 || len(text) <= maxLen {
		return []string{text}
	}

	var out []string
	var cur strings.Builder
	for _, sentence := range splitSentences(text) {
		if len(sentence) > maxLen {
			if cur.Len() > 0 {
				out = append(out, strings.TrimSpace(cur.String()))
				cur.Reset()
			}
			out = append(out, splitWords(sentence, maxLen)...)
			continue
		}
		// +1 for the joining space
		if cur.Len() > 0 && cur.Len()+1+len(sentence) > maxLen {
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(sentence)
	}
	if cur.Len() > 0 {
		out = append(out, strings.TrimSpace(cur.String()))
	}
	return out
}

// splitSentences cuts after ., ! or ? followed by whitespace.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if (c == '.' || c == '!' || c == '?') && (i+1 == len(text) || text[i+1] == ' ' || text[i+1] == '\n') {
			s := strings.TrimSpace(text[start : i+1])
			if s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func splitWords(sentence string, maxLen int) []string {
	var out []string
	var cur strings.Builder
	for _, w := range strings.Fields(sentence) {
		if cur.Len() > 0 && cur.Len()+1+len(w) > maxLen {
			out = append(out, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(w)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}
