// Package tokens counts tokens the way a model's tokenizer would.
//
// Vocabularies are embedded through the tiktoken offline loader, so counting
// never touches the network.
package tokens

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"labelbench/internal/services"
)

var loaderOnce sync.Once

func useOfflineLoader() {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
}

// Options selects the tokenizer. Exactly one field must be set.
type Options struct {
	Model    string
	Encoding string
}

// Counter counts tokens under one encoding. It is safe for concurrent use.
type Counter struct {
	encoding string
	enc      *tiktoken.Tiktoken
}

// New resolves the tokenizer for a model identifier or an encoding name.
func New(opts Options) (*Counter, error) {
	model := strings.TrimSpace(opts.Model)
	encoding := strings.TrimSpace(opts.Encoding)
	switch {
	case model != "" && encoding != "":
		return nil, services.Wrap(services.ErrConfiguration, "tokens", "new", "set either a model or an encoding, not both", nil)
	case model == "" && encoding == "":
		return nil, services.Wrap(services.ErrConfiguration, "tokens", "new", "a model or an encoding is required", nil)
	}

	useOfflineLoader()
	if model != "" {
		enc, err := tiktoken.EncodingForModel(model)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "tokens", "new", fmt.Sprintf("no tokenizer for model %q", model), err)
		}
		name, _ := encodingNameForModel(model)
		return &Counter{encoding: name, enc: enc}, nil
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "tokens", "new", fmt.Sprintf("unknown encoding %q", encoding), err)
	}
	return &Counter{encoding: encoding, enc: enc}, nil
}

// Encoding returns the encoding name the counter resolved to. It may be empty
// when a model maps to an encoding the local table does not name.
func (c *Counter) Encoding() string {
	return c.encoding
}

// Count returns the number of tokens in s. Special-token text is counted as
// ordinary text.
func (c *Counter) Count(s string) int {
	if s == "" {
		return 0
	}
	return len(c.enc.Encode(s, nil, nil))
}

// CountAll counts every string independently, preserving order.
func (c *Counter) CountAll(values []string) []int {
	out := make([]int, len(values))
	for i, s := range values {
		out[i] = c.Count(s)
	}
	return out
}

func encodingNameForModel(model string) (string, bool) {
	if name, ok := tiktoken.MODEL_TO_ENCODING[model]; ok {
		return name, true
	}
	for prefix, name := range tiktoken.MODEL_PREFIX_TO_ENCODING {
		if strings.HasPrefix(model, prefix) {
			return name, true
		}
	}
	return "", false
}
