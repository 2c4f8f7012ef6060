package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"storyloom/api/internal/proposal"
)

// proposalPayload mirrors proposal.Proposal for the structured-output schema.
// Strict structured outputs require every field present, so full-mode
// responses carry an empty edits array and patch-mode responses an empty
// text.
type proposalPayload struct {
	Mode  string        `json:"mode" jsonschema:"enum=full,enum=patch"`
	Text  string        `json:"text"`
	Edits []editPayload `json:"edits"`
}

type editPayload struct {
	ParagraphIndex int    `json:"paragraphIndex"`
	OldText        string `json:"oldText"`
	NewText        string `json:"newText"`
}

var proposalSchema = generateSchema[proposalPayload]()

// OpenAIGenerator implements Generator against the OpenAI responses API with
// a strict JSON schema for the proposal shape.
type OpenAIGenerator struct {
	client openai.Client
	model  string
}

// NewOpenAIGenerator builds a generator for the given model. baseURL is
// optional and supports OpenAI-compatible endpoints.
func NewOpenAIGenerator(apiKey, model, baseURL string) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key missing")
	}
	if model == "" {
		return nil, errors.New("openai model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIGenerator{client: openai.NewClient(opts...), model: model}, nil
}

func (g *OpenAIGenerator) Propose(ctx context.Context, req Request) (proposal.Proposal, error) {
	params := responses.ResponseNewParams{
		Model:        g.model,
		Instructions: openai.String(systemInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: buildInputItems(req),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "EditProposal",
					Schema:      proposalSchema,
					Strict:      openai.Bool(true),
					Description: openai.String("Edit proposal JSON"),
					Type:        "json_schema",
				},
			},
		},
	}

	resp, err := g.callWithRetry(ctx, params)
	if err != nil {
		return proposal.Proposal{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var payload proposalPayload
	if err := json.Unmarshal([]byte(resp.OutputText()), &payload); err != nil {
		return proposal.Proposal{}, fmt.Errorf("decode proposal: %w", err)
	}
	return payload.toProposal(), nil
}

func (p proposalPayload) toProposal() proposal.Proposal {
	out := proposal.Proposal{Mode: proposal.Mode(p.Mode)}
	if out.Mode == proposal.ModeFull {
		out.Text = p.Text
		return out
	}
	for _, e := range p.Edits {
		out.Edits = append(out.Edits, proposal.Edit{
			ParagraphIndex: e.ParagraphIndex,
			OldText:        e.OldText,
			NewText:        e.NewText,
		})
	}
	return out
}

func buildInputItems(req Request) []responses.ResponseInputItemUnionParam {
	items := make([]responses.ResponseInputItemUnionParam, 0, len(req.PriorHistory)+1)
	for _, turn := range req.PriorHistory {
		role := responses.EasyInputMessageRoleUser
		if turn.Role == "assistant" {
			role = responses.EasyInputMessageRoleAssistant
		}
		items = append(items, responses.ResponseInputItemParamOfMessage(turn.Content, role))
	}
	items = append(items, responses.ResponseInputItemParamOfMessage(BuildPrompt(req), responses.EasyInputMessageRoleUser))
	return items
}

func (g *OpenAIGenerator) callWithRetry(ctx context.Context, params responses.ResponseNewParams) (*responses.Response, error) {
	const maxRetries = 3
	waits := []time.Duration{2 * time.Second, 10 * time.Second, 30 * time.Second}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err := g.client.Responses.New(ctx, params)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isRetryable(err) || attempt == maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(waits[attempt]):
		}
	}
	return nil, lastErr
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "500") ||
		strings.Contains(msg, "server_error") ||
		strings.Contains(msg, "internal server error")
}
