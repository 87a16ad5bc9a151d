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

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	gammav1 "github.com/Tributary-ai-services/gamma-operator/api/v1"
	"github.com/Tributary-ai-services/gamma-operator/pkg/gamma"
)

var _ = Describe("GammaGeneration Webhook", func() {
	var (
		ctx       context.Context
		obj       *gammav1.GammaGeneration
		oldObj    *gammav1.GammaGeneration
		validator GammaGenerationCustomValidator
		defaulter GammaGenerationCustomDefaulter
	)

	BeforeEach(func() {
		ctx = context.Background()
		obj = &gammav1.GammaGeneration{
			ObjectMeta: metav1.ObjectMeta{Name: "launch-deck", Namespace: "default"},
			Spec:       gammav1.GammaGenerationSpec{InputText: "Quarterly launch plan"},
		}
		oldObj = obj.DeepCopy()
		validator = GammaGenerationCustomValidator{}
		defaulter = GammaGenerationCustomDefaulter{}
	})

	Context("When creating GammaGeneration under Defaulting Webhook", func() {
		It("Should apply the built-in defaults", func() {
			By("calling the Default method to apply defaults")
			Expect(defaulter.Default(ctx, obj)).To(Succeed())

			By("checking that the default values are set")
			Expect(obj.Spec.TextMode).To(Equal("generate"))
			Expect(obj.Spec.Format).To(Equal("presentation"))
			Expect(obj.Spec.CardSplit).To(Equal("auto"))
			Expect(obj.Spec.NumCards).NotTo(BeNil())
			Expect(*obj.Spec.NumCards).To(Equal(gamma.DefaultNumCards))
			Expect(obj.Spec.TenantId).To(Equal("default"))
			Expect(obj.Spec.ApiKeySecretRef).To(Equal(gammav1.SecretKeyRef{Name: "gamma-api-secret", Key: "GAMMA_API_KEY"}))
			Expect(obj.Spec.Storage.Bucket).To(BeEmpty())
		})

		It("Should prefer configured defaults and keep explicit values", func() {
			defaulter.Defaults = gamma.Defaults{Format: gamma.FormatSocial, NumCards: 4}
			obj.Spec.TextMode = "preserve"
			obj.Spec.Storage.Enabled = true

			Expect(defaulter.Default(ctx, obj)).To(Succeed())
			Expect(obj.Spec.TextMode).To(Equal("preserve"))
			Expect(obj.Spec.Format).To(Equal("social"))
			Expect(*obj.Spec.NumCards).To(Equal(4))
			Expect(obj.Spec.Storage.Bucket).To(Equal("gamma-exports"))
		})

		It("Should leave numCards unset when splitting on text breaks", func() {
			obj.Spec.CardSplit = "inputTextBreaks"
			Expect(defaulter.Default(ctx, obj)).To(Succeed())
			Expect(obj.Spec.NumCards).To(BeNil())
		})
	})

	Context("When creating or updating GammaGeneration under Validating Webhook", func() {
		It("Should admit a minimal request", func() {
			warnings, err := validator.ValidateCreate(ctx, obj)
			Expect(err).NotTo(HaveOccurred())
			Expect(warnings).To(BeEmpty())
		})

		It("Should deny creation without input text", func() {
			obj.Spec.InputText = "  "
			_, err := validator.ValidateCreate(ctx, obj)
			Expect(apierrors.IsInvalid(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("spec.inputText"))
		})

		It("Should deny unknown enum values", func() {
			obj.Spec.Format = "poster"
			obj.Spec.ExportAs = []string{"pdf", "docx"}
			_, err := validator.ValidateCreate(ctx, obj)
			Expect(apierrors.IsInvalid(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("spec.format"))
			Expect(err.Error()).To(ContainSubstring("spec.exportAs[1]"))
		})

		It("Should deny a negative poll budget and an absolute prefix", func() {
			obj.Spec.MaxPollAttempts = -1
			obj.Spec.Storage.Prefix = "/exports/"
			_, err := validator.ValidateCreate(ctx, obj)
			Expect(apierrors.IsInvalid(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("spec.maxPollAttempts"))
			Expect(err.Error()).To(ContainSubstring("spec.storage.prefix"))
		})

		It("Should warn when numCards will be clamped", func() {
			n := 120
			obj.Spec.NumCards = &n
			warnings, err := validator.ValidateCreate(ctx, obj)
			Expect(err).NotTo(HaveOccurred())
			Expect(warnings).To(ConsistOf("numCards 120 is outside 1-75 and will be sent as 75"))
		})

		It("Should warn when card dimensions do not fit the format", func() {
			obj.Spec.Format = "document"
			obj.Spec.CardOptions = &gammav1.CardOptions{Dimensions: "16x9"}
			warnings, err := validator.ValidateCreate(ctx, obj)
			Expect(err).NotTo(HaveOccurred())
			Expect(warnings).To(ConsistOf(`cardOptions.dimensions "16x9" does not apply to format "document" and will be dropped`))
		})

		It("Should warn when archiving has nothing to archive", func() {
			obj.Spec.Storage.Enabled = true
			warnings, err := validator.ValidateCreate(ctx, obj)
			Expect(err).NotTo(HaveOccurred())
			Expect(warnings).To(ConsistOf(ContainSubstring("nothing to archive")))
		})

		It("Should warn when a submitted request is edited", func() {
			oldObj.Status.GenerationId = "gen-1"
			obj.Spec.InputText = "Revised launch plan"
			warnings, err := validator.ValidateUpdate(ctx, oldObj, obj)
			Expect(err).NotTo(HaveOccurred())
			Expect(warnings).To(ConsistOf("Generation gen-1 was already submitted; request changes will not be resubmitted"))
		})

		It("Should not warn on unrelated updates", func() {
			oldObj.Status.GenerationId = "gen-1"
			obj.Spec.MaxPollAttempts = 30
			warnings, err := validator.ValidateUpdate(ctx, oldObj, obj)
			Expect(err).NotTo(HaveOccurred())
			Expect(warnings).To(BeEmpty())
		})
	})
})
