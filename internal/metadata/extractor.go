// Package metadata extracts structured candidate metadata from CV text
// using an OpenAI-compatible chat completion endpoint.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"golang.org/x/time/rate"
)

// ErrExtraction indicates the completion call failed or its response
// could not be decoded as a metadata object.
var ErrExtraction = errors.New("metadata extraction failed")

// DefaultMaxTokens is the maximum CV length before truncation (in tokens).
const DefaultMaxTokens = 16000

// callInterval paces completion calls to stay under provider rate limits.
// Callers must not parallelize extraction tighter than this.
const callInterval = 500 * time.Millisecond

const systemPrompt = "You are a precise CV parser that extracts structured metadata."

const extractionPrompt = `Extract the following information from the CV text in JSON format:
- name: Full name of the candidate
- age: Age if mentioned, otherwise null
- years_of_experience: Total years of professional experience
- skills: List of technical skills and tools
- languages: List of programming languages
- education: List of education details with degree, institution, and year
- current_role: Current or most recent job title
- location: Location if mentioned, otherwise null

Return ONLY the JSON object, no additional text.
If a field cannot be determined, use null.
For lists, return empty arrays if no items found.`

// Extractor issues one paced, JSON-mode completion per CV and decodes the
// answer into a Record.
type Extractor struct {
	client    *openai.Client
	model     string
	limiter   *rate.Limiter
	maxTokens int
	logger    *slog.Logger
}

// NewExtractor creates a metadata extractor using the given OpenAI client
// and completion model. Optional maxTokens sets the truncation limit
// (defaults to DefaultMaxTokens).
func NewExtractor(client *openai.Client, model string, maxTokens ...int) *Extractor {
	max := DefaultMaxTokens
	if len(maxTokens) > 0 && maxTokens[0] > 0 {
		max = maxTokens[0]
	}
	return &Extractor{
		client:    client,
		model:     model,
		limiter:   rate.NewLimiter(rate.Every(callInterval), 1),
		maxTokens: max,
		logger:    slog.Default(),
	}
}

// Extract analyzes CV text and returns the structured metadata record.
// Fields the model omits stay at their template defaults; only a failed
// call or an undecodable response is an error.
func (e *Extractor) Extract(ctx context.Context, text string) (Record, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	truncated := e.truncate(text)

	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(fmt.Sprintf("%s\n\nCV Text:\n%s", extractionPrompt, truncated)),
		},
		Model: openai.ChatModel(e.model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: "json_object",
			},
		},
	})
	if err != nil {
		return Record{}, fmt.Errorf("%w: completion: %v", ErrExtraction, err)
	}
	if len(resp.Choices) == 0 {
		return Record{}, fmt.Errorf("%w: completion returned no choices", ErrExtraction)
	}

	return decodeRecord(resp.Choices[0].Message.Content)
}

// truncate bounds CV text to fit within token limits, using the rough
// estimate of 4 characters per token.
func (e *Extractor) truncate(text string) string {
	maxChars := e.maxTokens * 4
	if len(text) <= maxChars {
		return text
	}
	e.logger.Warn("truncating CV text", "from", len(text), "to", maxChars)
	return text[:maxChars]
}
