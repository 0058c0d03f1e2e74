// Package tokenizer estimates how many model tokens a rendered tree occupies.
package tokenizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

// Estimate is a token count attributed to the encoding that produced it.
type Estimate struct {
	Tokens int
	Model  string
}

const (
	defaultModel        = "gpt-4o"
	defaultEncodingName = "cl100k_base"

	fallbackEncodingErrorFormat = "initialize %s tokenizer: %w"
	countTokensErrorFormat      = "count tokens with %s: %w"
)

var (
	errNilCounter  = errors.New("nil tokenizer counter")
	errNilEncoding = errors.New("tokenizer encoding is not initialized")
)

// encodingSource resolves tiktoken encodings by model or by encoding name.
type encodingSource struct {
	forModel func(model string) (*tiktoken.Tiktoken, error)
	byName   func(encodingName string) (*tiktoken.Tiktoken, error)
}

var tiktokenSource = encodingSource{
	forModel: tiktoken.EncodingForModel,
	byName:   tiktoken.GetEncoding,
}

// encodingCounter counts tokens with a tiktoken encoding.
type encodingCounter struct {
	encoding *tiktoken.Tiktoken
	name     string
}

func (counter encodingCounter) Name() string {
	return counter.name
}

func (counter encodingCounter) CountString(input string) (int, error) {
	if counter.encoding == nil {
		return 0, errNilEncoding
	}
	return len(counter.encoding.Encode(input, nil, nil)), nil
}

var openAIModelPrefixes = []string{
	"gpt-",
	"text-embedding",
	"davinci",
	"curie",
	"babbage",
	"ada",
	"code-",
}

// NewCounter returns a Counter for model and the name it resolved to. Models
// without a known tiktoken encoding fall back to cl100k_base.
func NewCounter(model string) (Counter, string, error) {
	return newCounter(model, tiktokenSource)
}

func newCounter(model string, source encodingSource) (Counter, string, error) {
	trimmedModel := strings.TrimSpace(model)
	if trimmedModel == "" {
		trimmedModel = defaultModel
	}
	lowerModel := strings.ToLower(trimmedModel)

	if isOpenAIModel(lowerModel) {
		encoding, modelError := source.forModel(lowerModel)
		if modelError == nil && encoding != nil {
			return encodingCounter{encoding: encoding, name: lowerModel}, trimmedModel, nil
		}
	}
	fallback, fallbackError := source.byName(defaultEncodingName)
	if fallbackError != nil {
		return nil, "", fmt.Errorf(fallbackEncodingErrorFormat, defaultEncodingName, fallbackError)
	}
	return encodingCounter{encoding: fallback, name: defaultEncodingName}, defaultEncodingName, nil
}

// EstimateText counts the tokens of text with counter.
func EstimateText(counter Counter, text string) (Estimate, error) {
	if counter == nil {
		return Estimate{}, errNilCounter
	}
	tokens, err := counter.CountString(text)
	if err != nil {
		return Estimate{}, fmt.Errorf(countTokensErrorFormat, counter.Name(), err)
	}
	return Estimate{Tokens: tokens, Model: counter.Name()}, nil
}

func isOpenAIModel(model string) bool {
	for _, prefix := range openAIModelPrefixes {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}
