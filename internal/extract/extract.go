package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"mediarr/internal/llm"
)

// systemPrompt pins the model to bare-title answers. Cleanup below
// still defends against replies that ignore it.
const systemPrompt = "You extract movie/TV show titles from torrent filenames. " +
	"Respond with ONLY the title as plain text. No markdown, no code blocks, " +
	"no quotes, no year, no extra text."

const userPromptFormat = "Extract the movie or TV show title from this torrent filename. " +
	"Return ONLY the clean title as plain text, no formatting, no markdown, no year, no quotes.\n\n" +
	"Input: %s\n\nTitle:"

// Low temperature biases the model toward literal extraction instead of
// rephrasing.
const extractionTemperature = 0.1

var (
	codeFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	// Both year patterns are anchored at the end of the string on
	// purpose: titles with embedded years ("2001: A Space Odyssey")
	// must survive cleanup untouched.
	parenYearRe = regexp.MustCompile(`\s*\(\d{4}\)\s*$`)
	bareYearRe  = regexp.MustCompile(`\s*\d{4}\s*$`)
)

// InferenceError wraps any failure while talking to the inference
// backend (network, timeout, malformed reply) so the HTTP layer can map
// the whole class to one status code.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("error communicating with ollama: %v", e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// Result is the outcome of a single extraction. Year and MediaType are
// reserved for future extraction logic and currently always empty.
type Result struct {
	Name      string
	Year      string
	MediaType string
}

// Service turns raw torrent filenames into cleaned media titles using a
// chat-capable inference client.
type Service struct {
	client llm.Client
}

func NewService(client llm.Client) *Service {
	return &Service{client: client}
}

// Extract asks the model for the title embedded in input and cleans its
// reply. There is no retry: one failed inference call fails the whole
// extraction.
func (s *Service) Extract(ctx context.Context, input string) (Result, error) {
	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf(userPromptFormat, input)},
	}

	reply, err := s.client.Chat(ctx, messages, extractionTemperature)
	if err != nil {
		return Result{}, &InferenceError{Err: err}
	}

	return Result{Name: cleanReply(reply)}, nil
}

// cleanReply normalizes a free-text model reply into a bare title:
// unwrap the first fenced code block if one is present, strip
// surrounding quotes and newlines, then drop a trailing parenthesized
// or bare 4-digit year.
func cleanReply(reply string) string {
	text := strings.TrimSpace(reply)

	if strings.Contains(text, "```") {
		if m := codeFenceRe.FindStringSubmatch(text); m != nil {
			text = strings.TrimSpace(m[1])
		}
	}

	text = strings.Trim(text, "\"'\n")
	text = parenYearRe.ReplaceAllString(text, "")
	text = bareYearRe.ReplaceAllString(text, "")

	return strings.TrimSpace(text)
}
