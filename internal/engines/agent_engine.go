package engines

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/models"
)

const mappingSystemPrompt = `You map support request data onto web form fields.
Given the detected form fields and the request, reply with a single JSON object
whose keys are field names and values are the text to enter. Only include
fields that exist in the detected list. Reply with JSON only, no prose.`

// AgentEngine fills forms by asking a language model to map request values
// onto the detected fields. Without an API key it degrades to the same
// keyword matching the direct engine uses.
type AgentEngine struct {
	config Config
	client anthropic.Client
	hasKey bool
	logger arbor.ILogger
}

// NewAgentEngine creates the AI-assisted engine
func NewAgentEngine(config Config, logger arbor.ILogger) *AgentEngine {
	engine := &AgentEngine{
		config: config,
		hasKey: config.AgentAPIKey != "",
		logger: logger,
	}
	if engine.hasKey {
		engine.client = anthropic.NewClient(option.WithAPIKey(config.AgentAPIKey))
	} else {
		logger.Warn().Msg("No Anthropic API key configured, agent engine will use heuristic field matching")
	}
	return engine
}

// Name returns the engine identifier
func (e *AgentEngine) Name() string {
	return string(models.EngineAgent)
}

// Run drives the browser through fill, approval and submit
func (e *AgentEngine) Run(ctx context.Context, job *models.Job, callbacks interfaces.Callbacks) (*models.JobResult, error) {
	return runSession(ctx, job, callbacks, e.config, e.mapFields, e.logger)
}

// mapFields asks the model for a field mapping, falling back to heuristics
func (e *AgentEngine) mapFields(ctx context.Context, request *models.FormRequest, fields map[string]string, digest string) (map[string]string, error) {
	if !e.hasKey || len(fields) == 0 {
		return heuristicMapping(request, fields), nil
	}

	prompt, err := buildMappingPrompt(request, fields, digest)
	if err != nil {
		return nil, err
	}

	model := e.config.AgentModel
	if model == "" {
		model = "claude-sonnet-4-5"
	}

	resp, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: mappingSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("field mapping request failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	mapping, err := parseMappingResponse(text.String(), fields)
	if err != nil {
		return nil, err
	}

	e.logger.Debug().
		Int("detected_fields", len(fields)).
		Int("mapped_fields", len(mapping)).
		Msg("Model produced field mapping")

	return mapping, nil
}

// buildMappingPrompt assembles the model input from request and page data
func buildMappingPrompt(request *models.FormRequest, fields map[string]string, digest string) (string, error) {
	requestJSON, err := json.MarshalIndent(request, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize request: %w", err)
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to serialize fields: %w", err)
	}

	var b strings.Builder
	b.WriteString("Detected form fields (name: type):\n")
	b.Write(fieldsJSON)
	b.WriteString("\n\nRequest data:\n")
	b.Write(requestJSON)
	if digest != "" {
		b.WriteString("\n\nPage content:\n")
		b.WriteString(digest)
	}
	return b.String(), nil
}

// parseMappingResponse extracts the JSON object from the model reply and
// drops any keys that do not match a detected field.
func parseMappingResponse(reply string, fields map[string]string) (map[string]string, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in model reply")
	}

	var raw map[string]string
	if err := json.Unmarshal([]byte(reply[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse model reply: %w", err)
	}

	mapping := make(map[string]string, len(raw))
	for field, value := range raw {
		if _, ok := fields[field]; ok && value != "" {
			mapping[field] = value
		}
	}
	return mapping, nil
}
