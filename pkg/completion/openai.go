package completion

import (
	"context"
	"encoding/json"

	"github.com/go-go-golems/arbor/pkg/tree"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"
)

const DefaultModel = "gpt-4.1-mini"

// systemPrompt instructs the model to answer with the strict JSON protocol
// the reply parser expects.
const systemPrompt = "You are Tree GPT. Always respond with strict JSON containing `header` and `message` keys. " +
	"The `message` field must be valid markdown. Use the provided history array to stay consistent."

// OpenAICompleter calls the OpenAI chat completion API. The history and
// prompt are serialized as one JSON document into the user message so the
// model sees branch markers exactly as the history builder emitted them.
type OpenAICompleter struct {
	client *go_openai.Client
	model  string
}

type OpenAIOption func(*OpenAICompleter)

func WithModel(model string) OpenAIOption {
	return func(c *OpenAICompleter) {
		if model != "" {
			c.model = model
		}
	}
}

func NewOpenAICompleter(apiKey string, options ...OpenAIOption) *OpenAICompleter {
	ret := &OpenAICompleter{
		client: go_openai.NewClient(apiKey),
		model:  DefaultModel,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (c *OpenAICompleter) Complete(ctx context.Context, history []tree.HistoryMessage, prompt string) (*Reply, error) {
	payload, err := json.Marshal(struct {
		History []tree.HistoryMessage `json:"history"`
		Prompt  string                `json:"prompt"`
	}{History: history, Prompt: prompt})
	if err != nil {
		return nil, errors.Wrap(err, "marshaling completion payload")
	}

	log.Debug().Str("model", c.model).Int("history_length", len(history)).Msg("requesting chat completion")

	resp, err := c.client.CreateChatCompletion(ctx, go_openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []go_openai.ChatCompletionMessage{
			{Role: go_openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: go_openai.ChatMessageRoleUser, Content: string(payload)},
		},
	})
	if err != nil {
		return nil, errors.Wrapf(ErrCompletionFailed, "openai chat completion: %v", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.Wrap(ErrCompletionFailed, "openai chat completion returned no choices")
	}

	return ParseReply(resp.Choices[0].Message.Content), nil
}

// ParseReply interprets the model output under the header/message JSON
// protocol. Output that is not valid JSON is passed through as the message
// with a generic header rather than rejected, matching how the assistant
// endpoint has always degraded.
func ParseReply(text string) *Reply {
	var parsed struct {
		Header  string `json:"header"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		log.Debug().Err(err).Msg("model reply was not strict JSON, passing through")
		if text == "" {
			text = "Unable to parse model response."
		}
		return &Reply{SuggestedHeader: "Tree GPT", Message: text}
	}
	if parsed.Header == "" {
		parsed.Header = "Untitled branch"
	}
	if parsed.Message == "" {
		parsed.Message = "No message returned."
	}
	return &Reply{SuggestedHeader: parsed.Header, Message: parsed.Message}
}

var _ Completer = (*OpenAICompleter)(nil)
