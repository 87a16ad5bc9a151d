package v1

import (
	"github.com/Tributary-ai-services/gamma-operator/pkg/gamma"
)

// Params converts the spec into Gamma client parameters.
func (s *GammaGenerationSpec) Params() gamma.GenerateParams {
	p := gamma.GenerateParams{
		InputText:              s.InputText,
		TextMode:               gamma.TextMode(s.TextMode),
		Format:                 gamma.Format(s.Format),
		ThemeName:              s.ThemeName,
		CardSplit:              gamma.CardSplit(s.CardSplit),
		AdditionalInstructions: s.AdditionalInstructions,
	}
	if s.NumCards != nil {
		n := *s.NumCards
		p.NumCards = &n
	}
	for _, e := range s.ExportAs {
		p.ExportAs = append(p.ExportAs, gamma.ExportType(e))
	}
	if o := s.TextOptions; o != nil {
		p.TextOptions = &gamma.TextOptions{
			Amount:   gamma.TextAmount(o.Amount),
			Tone:     o.Tone,
			Audience: o.Audience,
			Language: o.Language,
		}
	}
	if o := s.ImageOptions; o != nil {
		p.ImageOptions = &gamma.ImageOptions{
			Source: gamma.ImageSource(o.Source),
			Model:  o.Model,
			Style:  o.Style,
		}
	}
	if o := s.CardOptions; o != nil {
		p.CardOptions = &gamma.CardOptions{Dimensions: gamma.CardDimension(o.Dimensions)}
	}
	if o := s.SharingOptions; o != nil {
		p.SharingOptions = &gamma.SharingOptions{
			WorkspaceAccess: gamma.WorkspaceAccess(o.WorkspaceAccess),
			ExternalAccess:  gamma.ExternalAccess(o.ExternalAccess),
		}
	}
	return p
}

// SecretName returns the referenced Secret, or the default one.
func (r SecretKeyRef) SecretName() string {
	if r.Name == "" {
		return DefaultSecretName
	}
	return r.Name
}

// SecretKey returns the referenced key, or the default one.
func (r SecretKeyRef) SecretKey() string {
	if r.Key == "" {
		return DefaultSecretKey
	}
	return r.Key
}

// BucketName returns the configured bucket, or the default one.
func (s GammaStorageSpec) BucketName() string {
	if s.Bucket == "" {
		return DefaultBucket
	}
	return s.Bucket
}

// Tenant returns the tenant id, or the default tenant.
func (s *GammaGenerationSpec) Tenant() string {
	if s.TenantId == "" {
		return DefaultTenantId
	}
	return s.TenantId
}

// FromCredits copies credit usage reported by the API.
func FromCredits(c *gamma.Credits) *Credits {
	if c == nil {
		return nil
	}
	out := &Credits{}
	if c.Deducted != nil {
		v := *c.Deducted
		out.Deducted = &v
	}
	if c.Remaining != nil {
		v := *c.Remaining
		out.Remaining = &v
	}
	return out
}
