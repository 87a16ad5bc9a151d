package v1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Phases of the GammaGeneration lifecycle
const (
	PhasePending    = "Pending"
	PhaseSubmitted  = "Submitted"
	PhaseProcessing = "Processing"
	PhaseArchiving  = "Archiving"
	PhaseCompleted  = "Completed"
	PhaseFailed     = "Failed"
)

// Condition types
const (
	ConditionReady     = "Ready"
	ConditionSubmitted = "Submitted"
	ConditionArchived  = "Archived"
)

// Defaults applied when the spec leaves a reference empty
const (
	DefaultSecretName = "gamma-api-secret"
	DefaultSecretKey  = "GAMMA_API_KEY"
	DefaultBucket     = "gamma-exports"
	DefaultTenantId   = "default"
)

// GammaGenerationSpec defines the desired state of GammaGeneration
type GammaGenerationSpec struct {
	// InputText is the content to turn into a gamma
	// +kubebuilder:validation:MinLength=1
	InputText string `json:"inputText"`

	// TextMode controls how the input text is treated
	// +kubebuilder:validation:Enum=generate;condense;preserve
	TextMode string `json:"textMode,omitempty"`

	// Format is the kind of artifact to produce
	// +kubebuilder:validation:Enum=presentation;document;social
	Format string `json:"format,omitempty"`

	// ThemeName selects a Gamma theme
	ThemeName string `json:"themeName,omitempty"`

	// NumCards is the requested number of cards, clamped to 1..75
	NumCards *int `json:"numCards,omitempty"`

	// CardSplit controls how the input is divided into cards
	// +kubebuilder:validation:Enum=auto;inputTextBreaks
	CardSplit string `json:"cardSplit,omitempty"`

	// AdditionalInstructions are free-form hints for the generator
	AdditionalInstructions string `json:"additionalInstructions,omitempty"`

	// ExportAs lists extra file formats to produce
	ExportAs []string `json:"exportAs,omitempty"`

	TextOptions    *TextOptions    `json:"textOptions,omitempty"`
	ImageOptions   *ImageOptions   `json:"imageOptions,omitempty"`
	CardOptions    *CardOptions    `json:"cardOptions,omitempty"`
	SharingOptions *SharingOptions `json:"sharingOptions,omitempty"`

	// TenantId for multi-tenant isolation
	TenantId string `json:"tenantId,omitempty"`

	// ApiKeySecretRef references a Secret containing the Gamma API key
	ApiKeySecretRef SecretKeyRef `json:"apiKeySecretRef,omitempty"`

	// Storage configures archiving of exported files
	Storage GammaStorageSpec `json:"storage,omitempty"`

	// MaxPollAttempts bounds the number of status checks
	// +kubebuilder:validation:Minimum=1
	MaxPollAttempts int `json:"maxPollAttempts,omitempty"`
}

// TextOptions tunes the generated text
type TextOptions struct {
	// +kubebuilder:validation:Enum=brief;medium;detailed;extensive
	Amount   string `json:"amount,omitempty"`
	Tone     string `json:"tone,omitempty"`
	Audience string `json:"audience,omitempty"`
	Language string `json:"language,omitempty"`
}

// ImageOptions tunes the generated images
type ImageOptions struct {
	Source string `json:"source,omitempty"`
	Model  string `json:"model,omitempty"`
	Style  string `json:"style,omitempty"`
}

// CardOptions tunes card layout
type CardOptions struct {
	Dimensions string `json:"dimensions,omitempty"`
}

// SharingOptions sets access levels on the produced gamma
type SharingOptions struct {
	WorkspaceAccess string `json:"workspaceAccess,omitempty"`
	ExternalAccess  string `json:"externalAccess,omitempty"`
}

// SecretKeyRef references a key in a Secret
type SecretKeyRef struct {
	// Name is the Secret name
	// +kubebuilder:default=gamma-api-secret
	Name string `json:"name,omitempty"`

	// Key is the key within the Secret
	// +kubebuilder:default=GAMMA_API_KEY
	Key string `json:"key,omitempty"`
}

// GammaStorageSpec configures MinIO archiving of exports
type GammaStorageSpec struct {
	// Enabled turns on archiving of the exported file
	Enabled bool `json:"enabled,omitempty"`

	// Bucket is the MinIO bucket name
	// +kubebuilder:default=gamma-exports
	Bucket string `json:"bucket,omitempty"`

	// Prefix is the object key prefix
	Prefix string `json:"prefix,omitempty"`
}

// GammaGenerationStatus defines the observed state of GammaGeneration
type GammaGenerationStatus struct {
	// Phase is the current phase of the generation lifecycle
	// +kubebuilder:validation:Enum=Pending;Submitted;Processing;Archiving;Completed;Failed
	Phase string `json:"phase,omitempty"`

	// Conditions represent the latest available observations
	Conditions []metav1.Condition `json:"conditions,omitempty"`

	// GenerationId is the id assigned by the Gamma API
	GenerationId string `json:"generationId,omitempty"`

	// URL is the shareable gamma URL
	URL string `json:"url,omitempty"`

	GammaURL  string `json:"gammaUrl,omitempty"`
	ExportURL string `json:"exportUrl,omitempty"`

	Credits *Credits `json:"credits,omitempty"`

	// PollAttempts is the number of status checks made so far
	PollAttempts int `json:"pollAttempts,omitempty"`

	// ArchiveAttempts is the number of failed archive attempts
	ArchiveAttempts int `json:"archiveAttempts,omitempty"`

	// ArchivedExport is where the export was stored
	ArchivedExport *ArchivedExport `json:"archivedExport,omitempty"`

	// StartTime is when processing started
	StartTime *metav1.Time `json:"startTime,omitempty"`

	// CompletionTime is when processing completed
	CompletionTime *metav1.Time `json:"completionTime,omitempty"`

	// RetryCount is the number of times the generation entered Failed
	RetryCount int `json:"retryCount,omitempty"`

	// LastError is the last error message
	LastError string `json:"lastError,omitempty"`

	// ErrorKind classifies LastError
	ErrorKind string `json:"errorKind,omitempty"`

	// ObservedGeneration is the generation of the spec that was last processed
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`
}

// Credits reports credit usage
type Credits struct {
	Deducted  *int `json:"deducted,omitempty"`
	Remaining *int `json:"remaining,omitempty"`
}

// ArchivedExport describes an export stored in MinIO
type ArchivedExport struct {
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	URL       string `json:"url,omitempty"`
	SizeBytes int64  `json:"sizeBytes,omitempty"`
}

//+kubebuilder:object:root=true
//+kubebuilder:subresource:status
//+kubebuilder:printcolumn:name="Format",type="string",JSONPath=".spec.format",description="Output format"
//+kubebuilder:printcolumn:name="Phase",type="string",JSONPath=".status.phase",description="Current phase"
//+kubebuilder:printcolumn:name="URL",type="string",JSONPath=".status.url",description="Shareable URL"
//+kubebuilder:printcolumn:name="Age",type="date",JSONPath=".metadata.creationTimestamp"
//+kubebuilder:resource:shortName=gg

// GammaGeneration is the Schema for the gammagenerations API
type GammaGeneration struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   GammaGenerationSpec   `json:"spec,omitempty"`
	Status GammaGenerationStatus `json:"status,omitempty"`
}

//+kubebuilder:object:root=true

// GammaGenerationList contains a list of GammaGeneration
type GammaGenerationList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []GammaGeneration `json:"items"`
}

func init() {
	SchemeBuilder.Register(&GammaGeneration{}, &GammaGenerationList{})
}
