/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package v1

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/validation/field"
	ctrl "sigs.k8s.io/controller-runtime"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/webhook/admission"

	gammav1 "github.com/Tributary-ai-services/gamma-operator/api/v1"
	"github.com/Tributary-ai-services/gamma-operator/pkg/gamma"
)

// nolint:unused
// log is for logging in this package.
var gammagenerationlog = logf.Log.WithName("gammageneration-resource")

// SetupGammaGenerationWebhookWithManager registers the webhook for GammaGeneration in the manager.
func SetupGammaGenerationWebhookWithManager(mgr ctrl.Manager, defaults gamma.Defaults) error {
	return ctrl.NewWebhookManagedBy(mgr, &gammav1.GammaGeneration{}).
		WithValidator(&GammaGenerationCustomValidator{Defaults: defaults}).
		WithDefaulter(&GammaGenerationCustomDefaulter{Defaults: defaults}).
		Complete()
}

// +kubebuilder:webhook:path=/mutate-gamma-tas-ai-v1-gammageneration,mutating=true,failurePolicy=fail,sideEffects=None,groups=gamma.tas.ai,resources=gammagenerations,verbs=create;update,versions=v1,name=mgammageneration-v1.kb.io,admissionReviewVersions=v1

// GammaGenerationCustomDefaulter fills the request fields the operator would
// otherwise default at submit time, so the stored object shows what is sent.
//
// +kubebuilder:object:generate=false
type GammaGenerationCustomDefaulter struct {
	Defaults gamma.Defaults
}

// Default implements webhook.CustomDefaulter so a webhook will be registered for the Kind GammaGeneration.
func (d *GammaGenerationCustomDefaulter) Default(_ context.Context, obj *gammav1.GammaGeneration) error {
	gammagenerationlog.Info("Defaulting for GammaGeneration", "name", obj.GetName())

	defaults := d.Defaults.Resolved()
	spec := &obj.Spec

	if spec.TextMode == "" {
		spec.TextMode = string(defaults.TextMode)
	}
	if spec.Format == "" {
		spec.Format = string(defaults.Format)
	}
	if spec.CardSplit == "" {
		spec.CardSplit = string(defaults.CardSplit)
	}

	// Only automatic splitting gets a default card count
	if spec.NumCards == nil && spec.CardSplit == string(gamma.CardSplitAuto) {
		n := gamma.ClampNumCards(defaults.NumCards)
		spec.NumCards = &n
	}

	if spec.TenantId == "" {
		spec.TenantId = gammav1.DefaultTenantId
	}
	if spec.ApiKeySecretRef.Name == "" {
		spec.ApiKeySecretRef.Name = gammav1.DefaultSecretName
	}
	if spec.ApiKeySecretRef.Key == "" {
		spec.ApiKeySecretRef.Key = gammav1.DefaultSecretKey
	}
	if spec.Storage.Enabled && spec.Storage.Bucket == "" {
		spec.Storage.Bucket = gammav1.DefaultBucket
	}

	return nil
}

// +kubebuilder:webhook:path=/validate-gamma-tas-ai-v1-gammageneration,mutating=false,failurePolicy=fail,sideEffects=None,groups=gamma.tas.ai,resources=gammagenerations,verbs=create;update,versions=v1,name=vgammageneration-v1.kb.io,admissionReviewVersions=v1

// GammaGenerationCustomValidator rejects requests the Gamma client would
// refuse and warns about values it would silently adjust.
//
// +kubebuilder:object:generate=false
type GammaGenerationCustomValidator struct {
	Defaults gamma.Defaults
}

// ValidateCreate implements webhook.CustomValidator so a webhook will be registered for the type GammaGeneration.
func (v *GammaGenerationCustomValidator) ValidateCreate(_ context.Context, obj *gammav1.GammaGeneration) (admission.Warnings, error) {
	gammagenerationlog.Info("Validation for GammaGeneration upon creation", "name", obj.GetName())
	return v.validateGammaGeneration(obj)
}

// ValidateUpdate implements webhook.CustomValidator so a webhook will be registered for the type GammaGeneration.
func (v *GammaGenerationCustomValidator) ValidateUpdate(_ context.Context, oldObj, newObj *gammav1.GammaGeneration) (admission.Warnings, error) {
	gammagenerationlog.Info("Validation for GammaGeneration upon update", "name", newObj.GetName())

	var warnings admission.Warnings

	// The request is sent once; later edits never reach Gamma
	if oldObj.Status.GenerationId != "" && !reflect.DeepEqual(oldObj.Spec.Params(), newObj.Spec.Params()) {
		warnings = append(warnings, fmt.Sprintf("Generation %s was already submitted; request changes will not be resubmitted", oldObj.Status.GenerationId))
	}

	validationWarnings, err := v.validateGammaGeneration(newObj)
	warnings = append(warnings, validationWarnings...)

	return warnings, err
}

// ValidateDelete implements webhook.CustomValidator so a webhook will be registered for the type GammaGeneration.
func (v *GammaGenerationCustomValidator) ValidateDelete(_ context.Context, obj *gammav1.GammaGeneration) (admission.Warnings, error) {
	gammagenerationlog.Info("Validation for GammaGeneration upon deletion", "name", obj.GetName())
	return nil, nil
}

// validateGammaGeneration performs validation on the GammaGeneration spec
func (v *GammaGenerationCustomValidator) validateGammaGeneration(gen *gammav1.GammaGeneration) (admission.Warnings, error) {
	var allErrs field.ErrorList
	var warnings admission.Warnings

	specPath := field.NewPath("spec")

	req, err := gamma.BuildRequest(gen.Spec.Params(), v.Defaults)
	if err != nil {
		var verr *gamma.ValidationError
		if !errors.As(err, &verr) {
			return nil, err
		}
		for _, f := range verr.Fields {
			path := specPath.Child(f.Field)
			if f.Reason == "is required" {
				allErrs = append(allErrs, field.Required(path, f.Reason))
				continue
			}
			allErrs = append(allErrs, &field.Error{
				Type:     field.ErrorTypeNotSupported,
				Field:    path.String(),
				BadValue: field.OmitValueType{},
				Detail:   f.Reason,
			})
		}
	}

	if gen.Spec.MaxPollAttempts < 0 {
		allErrs = append(allErrs, field.Invalid(
			specPath.Child("maxPollAttempts"),
			gen.Spec.MaxPollAttempts,
			"must be positive",
		))
	}

	if strings.HasPrefix(gen.Spec.Storage.Prefix, "/") {
		allErrs = append(allErrs, field.Invalid(
			specPath.Child("storage", "prefix"),
			gen.Spec.Storage.Prefix,
			"object key prefix must not start with /",
		))
	}

	if len(allErrs) > 0 {
		return warnings, apierrors.NewInvalid(
			schema.GroupKind{Group: "gamma.tas.ai", Kind: "GammaGeneration"},
			gen.Name,
			allErrs,
		)
	}

	if n := gen.Spec.NumCards; n != nil && gamma.ClampNumCards(*n) != *n {
		warnings = append(warnings, fmt.Sprintf("numCards %d is outside %d-%d and will be sent as %d",
			*n, gamma.MinNumCards, gamma.MaxNumCards, req.NumCards))
	}

	if o := gen.Spec.CardOptions; o != nil && o.Dimensions != "" && req.CardOptions == nil {
		warnings = append(warnings, fmt.Sprintf("cardOptions.dimensions %q does not apply to format %q and will be dropped",
			o.Dimensions, req.Format))
	}

	if gen.Spec.Storage.Enabled && len(req.ExportAs) == 0 {
		warnings = append(warnings, "storage is enabled but exportAs is empty; there will be nothing to archive")
	}

	return warnings, nil
}
