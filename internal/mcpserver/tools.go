package mcpserver

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Tributary-ai-services/gamma-operator/pkg/gamma"
)

// Tool names.
const (
	ToolGenerate   = "gamma_generate"
	ToolGetStatus  = "gamma_get_status"
	ToolWaitForURL = "gamma_wait_for_url"
	ToolGetThemes  = "gamma_get_themes"
	ToolGetOptions = "gamma_get_options"
)

// TextOptionsInput tunes the generated text.
type TextOptionsInput struct {
	Amount   string `json:"amount,omitempty" jsonschema:"text volume per card"`
	Tone     string `json:"tone,omitempty" jsonschema:"content mood or voice"`
	Audience string `json:"audience,omitempty" jsonschema:"target readers"`
	Language string `json:"language,omitempty" jsonschema:"output language (default: English)"`
}

// ImageOptionsInput tunes card imagery.
type ImageOptionsInput struct {
	Source string `json:"source,omitempty" jsonschema:"image origin"`
	Model  string `json:"model,omitempty" jsonschema:"AI image generation model"`
	Style  string `json:"style,omitempty" jsonschema:"visual image style"`
}

// CardOptionsInput selects card dimensions.
type CardOptionsInput struct {
	Dimensions string `json:"dimensions,omitempty" jsonschema:"card dimensions; values the format does not support are ignored"`
}

// SharingOptionsInput sets access levels on the result.
type SharingOptionsInput struct {
	WorkspaceAccess string `json:"workspaceAccess,omitempty" jsonschema:"internal workspace sharing permissions"`
	ExternalAccess  string `json:"externalAccess,omitempty" jsonschema:"external sharing permissions"`
}

// GenerateInput is the gamma_generate tool input.
type GenerateInput struct {
	InputText              string               `json:"inputText" jsonschema:"text used to generate content"`
	TextMode               string               `json:"textMode,omitempty" jsonschema:"controls text generation mode (default: generate)"`
	Format                 string               `json:"format,omitempty" jsonschema:"output format type (default: presentation)"`
	ThemeName              string               `json:"themeName,omitempty" jsonschema:"visual theme for the content"`
	NumCards               *int                 `json:"numCards,omitempty" jsonschema:"number of cards, clamped to 1-75 (default: 10)"`
	CardSplit              string               `json:"cardSplit,omitempty" jsonschema:"how the input is split into cards (default: auto)"`
	AdditionalInstructions string               `json:"additionalInstructions,omitempty" jsonschema:"extra guidance for the generator"`
	ExportAs               []string             `json:"exportAs,omitempty" jsonschema:"additional file formats to export"`
	TextOptions            *TextOptionsInput    `json:"textOptions,omitempty" jsonschema:"text generation options"`
	ImageOptions           *ImageOptionsInput   `json:"imageOptions,omitempty" jsonschema:"image options"`
	CardOptions            *CardOptionsInput    `json:"cardOptions,omitempty" jsonschema:"card layout options"`
	SharingOptions         *SharingOptionsInput `json:"sharingOptions,omitempty" jsonschema:"sharing permissions"`
}

func (in GenerateInput) params() gamma.GenerateParams {
	p := gamma.GenerateParams{
		InputText:              in.InputText,
		TextMode:               gamma.TextMode(in.TextMode),
		Format:                 gamma.Format(in.Format),
		ThemeName:              in.ThemeName,
		NumCards:               in.NumCards,
		CardSplit:              gamma.CardSplit(in.CardSplit),
		AdditionalInstructions: in.AdditionalInstructions,
	}
	for _, e := range in.ExportAs {
		p.ExportAs = append(p.ExportAs, gamma.ExportType(e))
	}
	if o := in.TextOptions; o != nil {
		p.TextOptions = &gamma.TextOptions{Amount: gamma.TextAmount(o.Amount), Tone: o.Tone, Audience: o.Audience, Language: o.Language}
	}
	if o := in.ImageOptions; o != nil {
		p.ImageOptions = &gamma.ImageOptions{Source: gamma.ImageSource(o.Source), Model: o.Model, Style: o.Style}
	}
	if o := in.CardOptions; o != nil {
		p.CardOptions = &gamma.CardOptions{Dimensions: gamma.CardDimension(o.Dimensions)}
	}
	if o := in.SharingOptions; o != nil {
		p.SharingOptions = &gamma.SharingOptions{
			WorkspaceAccess: gamma.WorkspaceAccess(o.WorkspaceAccess),
			ExternalAccess:  gamma.ExternalAccess(o.ExternalAccess),
		}
	}
	return p
}

// StatusInput is the gamma_get_status tool input.
type StatusInput struct {
	GenerationID string `json:"generationId" jsonschema:"the ID of the generation to check"`
}

// WaitInput is the gamma_wait_for_url tool input.
type WaitInput struct {
	GenerationID string `json:"generationId" jsonschema:"the ID of the generation to wait for"`
	MaxAttempts  int    `json:"maxAttempts,omitempty" jsonschema:"status checks before giving up (default: 20)"`
}

// ThemesInput is the gamma_get_themes tool input.
type ThemesInput struct{}

// ThemesResult lists themes.
type ThemesResult struct {
	Themes []gamma.Theme `json:"themes"`
}

// OptionsInput is the gamma_get_options tool input.
type OptionsInput struct{}

// GenerateTool defines the gamma_generate tool.
func GenerateTool() (*mcp.Tool, error) {
	schema, err := jsonschema.For[GenerateInput](nil)
	if err != nil {
		return nil, fmt.Errorf("infer %s input schema: %w", ToolGenerate, err)
	}
	setEnum(schema, gamma.TextModes, "textMode")
	setEnum(schema, gamma.Formats, "format")
	setEnum(schema, gamma.CardSplits, "cardSplit")
	setEnum(schema, gamma.TextAmounts, "textOptions", "amount")
	setEnum(schema, gamma.ImageSources, "imageOptions", "source")
	setEnum(schema, gamma.CardDimensions, "cardOptions", "dimensions")
	setEnum(schema, gamma.WorkspaceAccesses, "sharingOptions", "workspaceAccess")
	setEnum(schema, gamma.ExternalAccesses, "sharingOptions", "externalAccess")
	if exports := property(schema, "exportAs"); exports != nil && exports.Items != nil {
		exports.Items.Enum = enumValues(gamma.ExportTypes)
	}

	return &mcp.Tool{
		Name:        ToolGenerate,
		Description: "Generate a presentation, document, or social content using Gamma AI",
		InputSchema: schema,
	}, nil
}

// GetStatusTool defines the gamma_get_status tool.
func GetStatusTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolGetStatus,
		Description: "Check the status of a generation request",
	}
}

// WaitForURLTool defines the gamma_wait_for_url tool.
func WaitForURLTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolWaitForURL,
		Description: "Poll a generation with backoff until its shareable URL is ready, it fails, or the attempt budget runs out",
	}
}

// GetThemesTool defines the gamma_get_themes tool.
func GetThemesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolGetThemes,
		Description: "Get available themes for Gamma presentations",
	}
}

// GetOptionsTool defines the gamma_get_options tool.
func GetOptionsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolGetOptions,
		Description: "List every accepted value for the enumerated generation options, including card dimensions per format",
	}
}

// GenerateHandler submits a generation.
func GenerateHandler(client Gamma, log logr.Logger) mcp.ToolHandlerFor[GenerateInput, gamma.Result] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GenerateInput) (*mcp.CallToolResult, gamma.Result, error) {
		res, err := client.Generate(ctx, input.params())
		if err != nil {
			log.Error(err, "Generation request rejected")
			return nil, gamma.Result{}, err
		}
		log.Info("Generation submitted", "generationId", res.GenerationID, "status", res.Status)
		return nil, res, nil
	}
}

// GetStatusHandler makes one status check.
func GetStatusHandler(client Gamma) mcp.ToolHandlerFor[StatusInput, gamma.Result] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input StatusInput) (*mcp.CallToolResult, gamma.Result, error) {
		res, err := client.Status(ctx, input.GenerationID)
		if err != nil {
			return nil, gamma.Result{}, err
		}
		return nil, res, nil
	}
}

// WaitForURLHandler runs the Status Poller.
func WaitForURLHandler(client Gamma, log logr.Logger) mcp.ToolHandlerFor[WaitInput, gamma.Result] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input WaitInput) (*mcp.CallToolResult, gamma.Result, error) {
		res, err := client.WaitForURL(ctx, input.GenerationID, input.MaxAttempts)
		if err != nil {
			return nil, gamma.Result{}, err
		}
		log.Info("Finished waiting for generation", "generationId", input.GenerationID, "status", res.Status, "attempts", res.Attempts)
		return nil, res, nil
	}
}

// GetThemesHandler lists themes.
func GetThemesHandler(client Gamma) mcp.ToolHandlerFor[ThemesInput, ThemesResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ ThemesInput) (*mcp.CallToolResult, ThemesResult, error) {
		return nil, ThemesResult{Themes: client.Themes(ctx)}, nil
	}
}

// GetOptionsHandler returns the static option reference.
func GetOptionsHandler() mcp.ToolHandlerFor[OptionsInput, gamma.OptionReference] {
	return func(context.Context, *mcp.CallToolRequest, OptionsInput) (*mcp.CallToolResult, gamma.OptionReference, error) {
		return nil, gamma.Reference(), nil
	}
}

func property(s *jsonschema.Schema, path ...string) *jsonschema.Schema {
	for _, name := range path {
		if s == nil {
			return nil
		}
		s = s.Properties[name]
	}
	return s
}

func setEnum[T ~string](s *jsonschema.Schema, values []T, path ...string) {
	if p := property(s, path...); p != nil {
		p.Enum = enumValues(values)
	}
}

func enumValues[T ~string](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
