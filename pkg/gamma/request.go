package gamma

import (
	"fmt"
	"slices"
	"strings"
)

// BuildRequest merges params with defaults and validates the result. Every
// optional field falls back to its default independently. Card dimensions
// that the chosen format does not accept are dropped, not rejected.
func BuildRequest(params GenerateParams, defaults Defaults) (GenerationRequest, error) {
	d := defaults.Resolved()
	verr := &ValidationError{}

	if strings.TrimSpace(params.InputText) == "" {
		verr.add("inputText", "is required")
	}

	req := GenerationRequest{
		InputText:              params.InputText,
		TextMode:               pick(params.TextMode, d.TextMode),
		Format:                 pick(params.Format, d.Format),
		CardSplit:              pick(params.CardSplit, d.CardSplit),
		ThemeName:              strings.TrimSpace(params.ThemeName),
		AdditionalInstructions: params.AdditionalInstructions,
	}

	checkEnum(verr, "textMode", req.TextMode, TextModes)
	checkEnum(verr, "format", req.Format, Formats)
	checkEnum(verr, "cardSplit", req.CardSplit, CardSplits)

	req.NumCards = resolveNumCards(params.NumCards, req.CardSplit, d.NumCards)

	exports := params.ExportAs
	if len(exports) == 0 {
		exports = d.ExportAs
	}
	for i, e := range exports {
		checkEnum(verr, fmt.Sprintf("exportAs[%d]", i), e, ExportTypes)
	}
	if len(exports) > 0 {
		req.ExportAs = slices.Clone(ExportList(exports))
	}

	text := TextOptions{Amount: d.TextAmount}
	if o := params.TextOptions; o != nil {
		text = TextOptions{
			Amount:   pick(o.Amount, d.TextAmount),
			Tone:     strings.TrimSpace(o.Tone),
			Audience: strings.TrimSpace(o.Audience),
			Language: strings.TrimSpace(o.Language),
		}
	}
	checkEnum(verr, "textOptions.amount", text.Amount, TextAmounts)
	if !text.empty() {
		req.TextOptions = &text
	}

	image := ImageOptions{Source: d.ImageSource}
	if o := params.ImageOptions; o != nil {
		image = ImageOptions{
			Source: pick(o.Source, d.ImageSource),
			Model:  strings.TrimSpace(o.Model),
			Style:  strings.TrimSpace(o.Style),
		}
	}
	checkEnum(verr, "imageOptions.source", image.Source, ImageSources)
	if !image.empty() {
		req.ImageOptions = &image
	}

	dim := d.CardDimension
	if params.CardOptions != nil && params.CardOptions.Dimensions != "" {
		dim = params.CardOptions.Dimensions
	}
	if dim != "" && DimensionAllowed(req.Format, dim) {
		req.CardOptions = &CardOptions{Dimensions: dim}
	}

	if o := params.SharingOptions; o != nil && !o.empty() {
		if o.WorkspaceAccess != "" {
			checkEnum(verr, "sharingOptions.workspaceAccess", o.WorkspaceAccess, WorkspaceAccesses)
		}
		if o.ExternalAccess != "" {
			checkEnum(verr, "sharingOptions.externalAccess", o.ExternalAccess, ExternalAccesses)
		}
		sharing := *o
		req.SharingOptions = &sharing
	}

	if err := verr.orNil(); err != nil {
		return GenerationRequest{}, err
	}
	return req, nil
}

// resolveNumCards clamps an explicit count; without one, the default applies
// only to automatic card splitting.
func resolveNumCards(requested *int, split CardSplit, fallback int) int {
	if requested != nil {
		return ClampNumCards(*requested)
	}
	if split == CardSplitAuto {
		return ClampNumCards(fallback)
	}
	return 0
}

// ClampNumCards bounds n to [MinNumCards, MaxNumCards].
func ClampNumCards(n int) int {
	return max(MinNumCards, min(MaxNumCards, n))
}

func pick[T ~string](v, fallback T) T {
	if v != "" {
		return v
	}
	return fallback
}

func checkEnum[T ~string](verr *ValidationError, field string, v T, allowed []T) {
	if slices.Contains(allowed, v) {
		return
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	verr.add(field, fmt.Sprintf("unsupported value %q, expected one of %s", v, strings.Join(names, ", ")))
}
