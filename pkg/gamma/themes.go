package gamma

// DefaultThemes is the built-in theme list returned when the themes endpoint
// is unavailable.
func DefaultThemes() []Theme {
	return []Theme{
		{ID: "minimal", Name: "Minimal", Description: "Clean and simple design"},
		{ID: "modern", Name: "Modern", Description: "Contemporary and sleek"},
		{ID: "professional", Name: "Professional", Description: "Business-oriented design"},
		{ID: "creative", Name: "Creative", Description: "Artistic and colorful"},
		{ID: "dark", Name: "Dark", Description: "Dark mode theme"},
		{ID: "nature", Name: "Nature", Description: "Natural and organic feel"},
		{ID: "tech", Name: "Tech", Description: "Technology-focused design"},
		{ID: "vintage", Name: "Vintage", Description: "Classic and retro style"},
	}
}

// OptionReference lists every accepted value for the enumerated request
// fields.
type OptionReference struct {
	TextModes              []TextMode                 `json:"textModes"`
	Formats                []Format                   `json:"formats"`
	CardSplits             []CardSplit                `json:"cardSplits"`
	TextAmounts            []TextAmount               `json:"textAmounts"`
	ImageSources           []ImageSource              `json:"imageSources"`
	CardDimensionsByFormat map[Format][]CardDimension `json:"cardDimensionsByFormat"`
	ExportTypes            []ExportType               `json:"exportTypes"`
	WorkspaceAccess        []WorkspaceAccess          `json:"workspaceAccess"`
	ExternalAccess         []ExternalAccess           `json:"externalAccess"`
	Limits                 map[string]int             `json:"limits"`
}

// Reference returns the static option reference.
func Reference() OptionReference {
	dims := make(map[Format][]CardDimension, len(CardDimensionsByFormat))
	for f, d := range CardDimensionsByFormat {
		dims[f] = append([]CardDimension(nil), d...)
	}
	return OptionReference{
		TextModes:              append([]TextMode(nil), TextModes...),
		Formats:                append([]Format(nil), Formats...),
		CardSplits:             append([]CardSplit(nil), CardSplits...),
		TextAmounts:            append([]TextAmount(nil), TextAmounts...),
		ImageSources:           append([]ImageSource(nil), ImageSources...),
		CardDimensionsByFormat: dims,
		ExportTypes:            append([]ExportType(nil), ExportTypes...),
		WorkspaceAccess:        append([]WorkspaceAccess(nil), WorkspaceAccesses...),
		ExternalAccess:         append([]ExternalAccess(nil), ExternalAccesses...),
		Limits: map[string]int{
			"minNumCards": MinNumCards,
			"maxNumCards": MaxNumCards,
		},
	}
}
