package gamma

import (
	"encoding/json"
	"slices"
)

// TextMode controls how the service treats the input text.
type TextMode string

const (
	TextModeGenerate TextMode = "generate"
	TextModeCondense TextMode = "condense"
	TextModePreserve TextMode = "preserve"
)

// Format is the kind of artifact to produce.
type Format string

const (
	FormatPresentation Format = "presentation"
	FormatDocument     Format = "document"
	FormatSocial       Format = "social"
)

// CardSplit controls how the input is divided into cards.
type CardSplit string

const (
	CardSplitAuto            CardSplit = "auto"
	CardSplitInputTextBreaks CardSplit = "inputTextBreaks"
)

// TextAmount is the volume of text per card.
type TextAmount string

const (
	TextAmountBrief     TextAmount = "brief"
	TextAmountMedium    TextAmount = "medium"
	TextAmountDetailed  TextAmount = "detailed"
	TextAmountExtensive TextAmount = "extensive"
)

// ImageSource selects where card images come from.
type ImageSource string

const (
	ImageSourceAIGenerated              ImageSource = "aiGenerated"
	ImageSourcePictographic             ImageSource = "pictographic"
	ImageSourceUnsplash                 ImageSource = "unsplash"
	ImageSourceGiphy                    ImageSource = "giphy"
	ImageSourceWebAllImages             ImageSource = "webAllImages"
	ImageSourceWebFreeToUse             ImageSource = "webFreeToUse"
	ImageSourceWebFreeToUseCommercially ImageSource = "webFreeToUseCommercially"
	ImageSourcePlaceholder              ImageSource = "placeholder"
	ImageSourceNoImages                 ImageSource = "noImages"
)

// CardDimension is the aspect ratio or page size of each card.
type CardDimension string

const (
	CardDimensionFluid    CardDimension = "fluid"
	CardDimension16x9     CardDimension = "16x9"
	CardDimension4x3      CardDimension = "4x3"
	CardDimensionPageless CardDimension = "pageless"
	CardDimensionLetter   CardDimension = "letter"
	CardDimensionA4       CardDimension = "a4"
	CardDimension1x1      CardDimension = "1x1"
	CardDimension4x5      CardDimension = "4x5"
	CardDimension9x16     CardDimension = "9x16"
)

// ExportType is an additional file format produced alongside the gamma.
type ExportType string

const (
	ExportPDF  ExportType = "pdf"
	ExportPPTX ExportType = "pptx"
)

// WorkspaceAccess is the sharing level inside the owner's workspace.
type WorkspaceAccess string

const (
	WorkspaceAccessNone    WorkspaceAccess = "noAccess"
	WorkspaceAccessView    WorkspaceAccess = "view"
	WorkspaceAccessComment WorkspaceAccess = "comment"
	WorkspaceAccessEdit    WorkspaceAccess = "edit"
	WorkspaceAccessFull    WorkspaceAccess = "fullAccess"
)

// ExternalAccess is the sharing level for people outside the workspace.
type ExternalAccess string

const (
	ExternalAccessNone    ExternalAccess = "noAccess"
	ExternalAccessView    ExternalAccess = "view"
	ExternalAccessComment ExternalAccess = "comment"
	ExternalAccessEdit    ExternalAccess = "edit"
)

var (
	TextModes   = []TextMode{TextModeGenerate, TextModeCondense, TextModePreserve}
	Formats     = []Format{FormatPresentation, FormatDocument, FormatSocial}
	CardSplits  = []CardSplit{CardSplitAuto, CardSplitInputTextBreaks}
	TextAmounts = []TextAmount{TextAmountBrief, TextAmountMedium, TextAmountDetailed, TextAmountExtensive}
	ExportTypes = []ExportType{ExportPDF, ExportPPTX}
)

var ImageSources = []ImageSource{
	ImageSourceAIGenerated, ImageSourcePictographic, ImageSourceUnsplash, ImageSourceGiphy,
	ImageSourceWebAllImages, ImageSourceWebFreeToUse, ImageSourceWebFreeToUseCommercially,
	ImageSourcePlaceholder, ImageSourceNoImages,
}

var CardDimensions = []CardDimension{
	CardDimensionFluid, CardDimension16x9, CardDimension4x3,
	CardDimensionPageless, CardDimensionLetter, CardDimensionA4,
	CardDimension1x1, CardDimension4x5, CardDimension9x16,
}

var (
	WorkspaceAccesses = []WorkspaceAccess{WorkspaceAccessNone, WorkspaceAccessView, WorkspaceAccessComment, WorkspaceAccessEdit, WorkspaceAccessFull}
	ExternalAccesses  = []ExternalAccess{ExternalAccessNone, ExternalAccessView, ExternalAccessComment, ExternalAccessEdit}
)

// CardDimensionsByFormat lists the card dimensions each format accepts.
var CardDimensionsByFormat = map[Format][]CardDimension{
	FormatPresentation: {CardDimensionFluid, CardDimension16x9, CardDimension4x3},
	FormatDocument:     {CardDimensionFluid, CardDimensionPageless, CardDimensionLetter, CardDimensionA4},
	FormatSocial:       {CardDimension1x1, CardDimension4x5, CardDimension9x16},
}

// DimensionAllowed reports whether the dimension may be used with the format.
func DimensionAllowed(format Format, dim CardDimension) bool {
	allowed, ok := CardDimensionsByFormat[format]
	if !ok {
		return true
	}
	return slices.Contains(allowed, dim)
}

// TextOptions tunes the generated text.
type TextOptions struct {
	Amount   TextAmount `json:"amount,omitempty"`
	Tone     string     `json:"tone,omitempty"`
	Audience string     `json:"audience,omitempty"`
	Language string     `json:"language,omitempty"`
}

func (o TextOptions) empty() bool {
	return o == TextOptions{}
}

// ImageOptions tunes the generated images.
type ImageOptions struct {
	Source ImageSource `json:"source,omitempty"`
	Model  string      `json:"model,omitempty"`
	Style  string      `json:"style,omitempty"`
}

func (o ImageOptions) empty() bool {
	return o == ImageOptions{}
}

// CardOptions tunes card layout.
type CardOptions struct {
	Dimensions CardDimension `json:"dimensions,omitempty"`
}

// SharingOptions sets the access levels of the produced gamma.
type SharingOptions struct {
	WorkspaceAccess WorkspaceAccess `json:"workspaceAccess,omitempty"`
	ExternalAccess  ExternalAccess  `json:"externalAccess,omitempty"`
}

func (o SharingOptions) empty() bool {
	return o == SharingOptions{}
}

// GenerateParams is what a caller asks for. Zero values mean "use the
// configured default".
type GenerateParams struct {
	InputText              string
	TextMode               TextMode
	Format                 Format
	ThemeName              string
	NumCards               *int
	CardSplit              CardSplit
	AdditionalInstructions string
	ExportAs               []ExportType
	TextOptions            *TextOptions
	ImageOptions           *ImageOptions
	CardOptions            *CardOptions
	SharingOptions         *SharingOptions
}

// GenerationRequest is the merged, validated body sent to the generations
// endpoint.
type GenerationRequest struct {
	InputText              string          `json:"inputText"`
	TextMode               TextMode        `json:"textMode"`
	Format                 Format          `json:"format"`
	CardSplit              CardSplit       `json:"cardSplit"`
	ThemeName              string          `json:"themeName,omitempty"`
	NumCards               int             `json:"numCards,omitempty"`
	AdditionalInstructions string          `json:"additionalInstructions,omitempty"`
	ExportAs               ExportList      `json:"exportAs,omitempty"`
	TextOptions            *TextOptions    `json:"textOptions,omitempty"`
	ImageOptions           *ImageOptions   `json:"imageOptions,omitempty"`
	CardOptions            *CardOptions    `json:"cardOptions,omitempty"`
	SharingOptions         *SharingOptions `json:"sharingOptions,omitempty"`
}

// ExportList marshals as a bare string when it holds one entry, matching the
// shape the generations endpoint documents.
type ExportList []ExportType

func (l ExportList) MarshalJSON() ([]byte, error) {
	if len(l) == 1 {
		return json.Marshal(string(l[0]))
	}
	return json.Marshal([]ExportType(l))
}

func (l *ExportList) UnmarshalJSON(data []byte) error {
	var single ExportType
	if err := json.Unmarshal(data, &single); err == nil {
		*l = ExportList{single}
		return nil
	}
	var many []ExportType
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// Credits reports credit usage for a generation.
type Credits struct {
	Deducted  *int `json:"deducted,omitempty"`
	Remaining *int `json:"remaining,omitempty"`
}

// GenerationHandle is the normalized submission response.
type GenerationHandle struct {
	ID      string
	Status  string
	URL     string
	Message string
	Credits *Credits
}

// StatusSnapshot is one observation of a generation's progress.
type StatusSnapshot struct {
	ID        string
	Status    string
	URL       string
	GammaURL  string
	ExportURL string
	Message   string
	Error     string
	Credits   *Credits
}

// Complete reports whether a shareable URL is present. The status label is
// deliberately ignored.
func (s StatusSnapshot) Complete() bool {
	return s.URL != ""
}

// TerminalFailed reports whether the snapshot is a terminal failure.
func (s StatusSnapshot) TerminalFailed() bool {
	if s.Complete() {
		return false
	}
	switch s.Status {
	case StatusFailed, StatusError, StatusNotFound:
		return true
	default:
		return false
	}
}

// Status labels produced or recognized by this package.
const (
	StatusSubmitted = "submitted"
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusError     = "error"
	StatusTimeout   = "timeout"
	StatusNotFound  = "not_found"
)

// Theme is a visual theme available for generations.
type Theme struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Preview     string `json:"preview,omitempty"`
}

// rawGeneration is the wire shape of both the submit and status responses.
type rawGeneration struct {
	GenerationID string   `json:"generationId"`
	ID           string   `json:"id"`
	Status       string   `json:"status"`
	URL          string   `json:"url"`
	GammaURL     string   `json:"gammaUrl"`
	ExportURL    string   `json:"exportUrl"`
	Message      string   `json:"message"`
	Error        any      `json:"error"`
	Credits      *Credits `json:"credits"`
}

func (r rawGeneration) id() string {
	if r.GenerationID != "" {
		return r.GenerationID
	}
	return r.ID
}

func (r rawGeneration) url() string {
	if r.URL != "" {
		return r.URL
	}
	return r.GammaURL
}

func (r rawGeneration) errorText() string {
	switch v := r.Error.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any:
		if msg, ok := v["message"].(string); ok {
			return msg
		}
	}
	data, _ := json.Marshal(r.Error)
	return string(data)
}
