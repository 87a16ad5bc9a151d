package controllers

import (
	"context"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
	"sigs.k8s.io/controller-runtime/pkg/reconcile"

	gammav1 "github.com/Tributary-ai-services/gamma-operator/api/v1"
	"github.com/Tributary-ai-services/gamma-operator/pkg/gamma"
)

var _ = Describe("GammaGeneration Controller", func() {
	const (
		resourceName = "launch-deck"
		namespace    = "default"
	)

	var (
		ctx          context.Context
		k8sClient    client.Client
		api          *fakeGamma
		store        *fakeStore
		reconciler   *GammaGenerationReconciler
		resourceKey  types.NamespacedName
		numCards     int
		storageSpec  gammav1.GammaStorageSpec
		pollAttempts int
		inputText    string
		withSecret   bool
	)

	build := func() {
		resource := &gammav1.GammaGeneration{
			ObjectMeta: metav1.ObjectMeta{Name: resourceName, Namespace: namespace},
			Spec: gammav1.GammaGenerationSpec{
				InputText:       inputText,
				Format:          string(gamma.FormatDocument),
				NumCards:        &numCards,
				ExportAs:        []string{"pdf"},
				TenantId:        "acme",
				Storage:         storageSpec,
				MaxPollAttempts: pollAttempts,
			},
		}
		objs := []client.Object{resource}
		if withSecret {
			objs = append(objs, &corev1.Secret{
				ObjectMeta: metav1.ObjectMeta{Name: gammav1.DefaultSecretName, Namespace: namespace},
				Data:       map[string][]byte{gammav1.DefaultSecretKey: []byte("sk-gamma-test\n")},
			})
		}
		k8sClient = fake.NewClientBuilder().
			WithScheme(testScheme).
			WithStatusSubresource(&gammav1.GammaGeneration{}).
			WithObjects(objs...).
			Build()

		reconciler = &GammaGenerationReconciler{
			Client:         k8sClient,
			Scheme:         testScheme,
			NewGammaClient: api.factory,
			Storage:        store,
			Jitter:         func(time.Duration) time.Duration { return 0 },
		}
	}

	reconcileOnce := func() ctrl.Result {
		GinkgoHelper()
		res, err := reconciler.Reconcile(ctx, reconcile.Request{NamespacedName: resourceKey})
		Expect(err).NotTo(HaveOccurred())
		return res
	}

	fetch := func() *gammav1.GammaGeneration {
		GinkgoHelper()
		gen := &gammav1.GammaGeneration{}
		Expect(k8sClient.Get(ctx, resourceKey, gen)).To(Succeed())
		return gen
	}

	// submit runs the finalizer and submission reconciles.
	submit := func() {
		GinkgoHelper()
		build()
		Expect(reconcileOnce()).To(Equal(ctrl.Result{}))
		Expect(reconcileOnce()).To(Equal(ctrl.Result{RequeueAfter: 2 * time.Second}))
	}

	BeforeEach(func() {
		ctx = context.Background()
		api = &fakeGamma{}
		store = newFakeStore()
		resourceKey = types.NamespacedName{Name: resourceName, Namespace: namespace}
		numCards = 8
		storageSpec = gammav1.GammaStorageSpec{}
		pollAttempts = 0
		inputText = "Quarterly launch plan"
		withSecret = true
	})

	Context("When submitting a generation", func() {
		It("should add the finalizer before doing anything else", func() {
			build()
			Expect(reconcileOnce()).To(Equal(ctrl.Result{}))

			gen := fetch()
			Expect(gen.Finalizers).To(ContainElement(finalizerName))
			Expect(gen.Status.Phase).To(BeEmpty())
			Expect(api.submits).To(BeZero())
		})

		It("should submit with the key from the Secret and record the generation id", func() {
			submit()

			gen := fetch()
			Expect(gen.Status.Phase).To(Equal(gammav1.PhaseSubmitted))
			Expect(gen.Status.GenerationId).To(Equal("gen-1"))
			Expect(gen.Status.StartTime).NotTo(BeNil())
			Expect(meta.IsStatusConditionTrue(gen.Status.Conditions, gammav1.ConditionSubmitted)).To(BeTrue())

			Expect(api.apiKey).To(Equal("sk-gamma-test"))
			Expect(api.params.InputText).To(Equal("Quarterly launch plan"))
			Expect(api.params.Format).To(Equal(gamma.FormatDocument))
			Expect(*api.params.NumCards).To(Equal(8))
			Expect(api.params.ExportAs).To(Equal([]gamma.ExportType{gamma.ExportPDF}))
		})

		It("should wait for credentials when the Secret is missing", func() {
			withSecret = false
			build()
			reconcileOnce()
			Expect(reconcileOnce()).To(Equal(ctrl.Result{RequeueAfter: secretRetryInterval}))

			gen := fetch()
			Expect(gen.Status.Phase).To(Equal(gammav1.PhasePending))
			cond := meta.FindStatusCondition(gen.Status.Conditions, gammav1.ConditionReady)
			Expect(cond).NotTo(BeNil())
			Expect(cond.Reason).To(Equal("CredentialsUnavailable"))
			Expect(api.submits).To(BeZero())
		})

		It("should fail without retrying on invalid input", func() {
			inputText = "   "
			build()
			reconcileOnce()
			Expect(reconcileOnce()).To(Equal(ctrl.Result{}))

			gen := fetch()
			Expect(gen.Status.Phase).To(Equal(gammav1.PhaseFailed))
			Expect(gen.Status.ErrorKind).To(Equal(string(gamma.KindValidation)))
			Expect(gen.Status.LastError).To(ContainSubstring("inputText"))

			By("staying failed on later reconciles")
			Expect(reconcileOnce()).To(Equal(ctrl.Result{}))
			Expect(api.submits).To(Equal(1))
		})

		It("should schedule a resubmission after a transient failure", func() {
			api.submitErr = &gamma.TransportError{Op: "submit", StatusCode: http.StatusServiceUnavailable}
			build()
			reconcileOnce()
			Expect(reconcileOnce()).To(Equal(ctrl.Result{RequeueAfter: failedRetryInterval}))

			gen := fetch()
			Expect(gen.Status.Phase).To(Equal(gammav1.PhaseFailed))
			Expect(gen.Status.ErrorKind).To(Equal(string(gamma.KindServerError)))
			Expect(gen.Status.LastError).To(Equal("API Error: 503 - Unknown error"))
			Expect(gen.Status.RetryCount).To(Equal(1))

			By("waiting out the retry interval")
			res := reconcileOnce()
			Expect(res.RequeueAfter).To(BeNumerically(">", time.Minute))
			Expect(api.submits).To(Equal(1))

			By("resubmitting once the interval has passed")
			gen = fetch()
			for i := range gen.Status.Conditions {
				if gen.Status.Conditions[i].Type == gammav1.ConditionReady {
					gen.Status.Conditions[i].LastTransitionTime = metav1.NewTime(time.Now().Add(-2 * failedRetryInterval))
				}
			}
			Expect(k8sClient.Status().Update(ctx, gen)).To(Succeed())
			api.submitErr = nil
			reconcileOnce()

			gen = fetch()
			Expect(gen.Status.Phase).To(Equal(gammav1.PhaseSubmitted))
			Expect(gen.Status.GenerationId).To(Equal("gen-1"))
			Expect(api.submits).To(Equal(2))
		})
	})

	Context("When polling a submitted generation", func() {
		It("should keep polling with the backoff schedule while pending", func() {
			submit()

			Expect(reconcileOnce()).To(Equal(ctrl.Result{RequeueAfter: 2 * time.Second}))
			Expect(reconcileOnce()).To(Equal(ctrl.Result{RequeueAfter: 3 * time.Second}))

			gen := fetch()
			Expect(gen.Status.Phase).To(Equal(gammav1.PhaseProcessing))
			Expect(gen.Status.PollAttempts).To(Equal(2))
			Expect(api.checkedID).To(Equal("gen-1"))
		})

		It("should complete once a URL is reported, ignoring the label", func() {
			api.checks = []statusCheck{
				{snap: gamma.StatusSnapshot{ID: "gen-1", Status: gamma.StatusPending}},
				{snap: gamma.StatusSnapshot{ID: "gen-1", Status: "processing", URL: "https://gamma.app/docs/gen-1"}},
			}
			submit()
			reconcileOnce()
			Expect(reconcileOnce()).To(Equal(ctrl.Result{}))

			gen := fetch()
			Expect(gen.Status.Phase).To(Equal(gammav1.PhaseCompleted))
			Expect(gen.Status.URL).To(Equal("https://gamma.app/docs/gen-1"))
			Expect(gen.Status.CompletionTime).NotTo(BeNil())
			Expect(meta.IsStatusConditionTrue(gen.Status.Conditions, gammav1.ConditionReady)).To(BeTrue())
			Expect(api.downloads).To(BeZero())
		})

		It("should fail on a terminal label without a URL", func() {
			api.checks = []statusCheck{
				{snap: gamma.StatusSnapshot{ID: "gen-1", Status: gamma.StatusFailed, Error: "content policy"}},
			}
			submit()
			Expect(reconcileOnce()).To(Equal(ctrl.Result{}))

			gen := fetch()
			Expect(gen.Status.Phase).To(Equal(gammav1.PhaseFailed))
			Expect(gen.Status.LastError).To(Equal("content policy"))

			By("not resubmitting a generation that already has an id")
			Expect(reconcileOnce()).To(Equal(ctrl.Result{}))
			Expect(api.submits).To(Equal(1))
		})

		It("should report not_found as a failure kind", func() {
			api.checks = []statusCheck{
				{snap: gamma.StatusSnapshot{ID: "gen-1", Status: gamma.StatusNotFound}},
			}
			submit()
			reconcileOnce()

			gen := fetch()
			Expect(gen.Status.ErrorKind).To(Equal(string(gamma.KindNotFound)))
			Expect(gen.Status.LastError).To(Equal("Generation failed with status: not_found"))
		})

		It("should honor Retry-After on a rate-limited check", func() {
			api.checks = []statusCheck{
				{err: &gamma.TransportError{Op: "status", StatusCode: http.StatusTooManyRequests, Header: http.Header{"Retry-After": {"9"}}}},
			}
			submit()
			Expect(reconcileOnce()).To(Equal(ctrl.Result{RequeueAfter: 9 * time.Second}))

			gen := fetch()
			Expect(gen.Status.Phase).To(Equal(gammav1.PhaseSubmitted))
			Expect(gen.Status.LastError).NotTo(BeEmpty())
		})

		It("should fail on a non-retryable check error", func() {
			api.checks = []statusCheck{
				{err: &gamma.TransportError{Op: "status", StatusCode: http.StatusUnauthorized}},
			}
			submit()
			Expect(reconcileOnce()).To(Equal(ctrl.Result{}))

			gen := fetch()
			Expect(gen.Status.Phase).To(Equal(gammav1.PhaseFailed))
			Expect(gen.Status.ErrorKind).To(Equal(string(gamma.KindClientError)))
		})

		It("should time out after the attempt budget", func() {
			pollAttempts = 2
			submit()
			Expect(reconcileOnce()).To(Equal(ctrl.Result{RequeueAfter: 2 * time.Second}))
			Expect(reconcileOnce()).To(Equal(ctrl.Result{}))

			gen := fetch()
			Expect(gen.Status.Phase).To(Equal(gammav1.PhaseFailed))
			Expect(gen.Status.ErrorKind).To(Equal(string(gamma.KindTimeout)))
			Expect(gen.Status.LastError).To(Equal(gamma.ErrPollTimeout.Error()))
			Expect(gen.Status.PollAttempts).To(Equal(2))
		})
	})

	Context("When archiving exports", func() {
		BeforeEach(func() {
			storageSpec = gammav1.GammaStorageSpec{Enabled: true, Prefix: "exports/"}
			api.export = []byte("%PDF-1.7")
			api.checks = []statusCheck{{snap: gamma.StatusSnapshot{
				ID:        "gen-1",
				Status:    gamma.StatusCompleted,
				URL:       "https://gamma.app/docs/gen-1",
				ExportURL: "https://exports.gamma.app/gen-1/deck.pdf?sig=abc",
			}}}
		})

		It("should store the export under the tenant key", func() {
			submit()
			Expect(reconcileOnce()).To(Equal(ctrl.Result{}))

			gen := fetch()
			Expect(gen.Status.Phase).To(Equal(gammav1.PhaseCompleted))
			Expect(gen.Status.ArchivedExport).NotTo(BeNil())
			Expect(gen.Status.ArchivedExport.Bucket).To(Equal(gammav1.DefaultBucket))
			Expect(gen.Status.ArchivedExport.Key).To(Equal("exports/acme/launch-deck/gen-1.pdf"))
			Expect(gen.Status.ArchivedExport.SizeBytes).To(Equal(int64(8)))
			Expect(meta.IsStatusConditionTrue(gen.Status.Conditions, gammav1.ConditionArchived)).To(BeTrue())

			obj, ok := store.objects["gamma-exports/exports/acme/launch-deck/gen-1.pdf"]
			Expect(ok).To(BeTrue())
			Expect(obj.contentType).To(Equal("application/pdf"))
		})

		It("should complete without the archive after repeated failures", func() {
			api.downloadErr = &gamma.TransportError{Op: "download", StatusCode: http.StatusForbidden}
			submit()
			Expect(reconcileOnce()).To(Equal(ctrl.Result{RequeueAfter: archiveRetryInterval}))
			Expect(fetch().Status.Phase).To(Equal(gammav1.PhaseArchiving))
			Expect(reconcileOnce()).To(Equal(ctrl.Result{RequeueAfter: archiveRetryInterval}))
			Expect(reconcileOnce()).To(Equal(ctrl.Result{}))

			gen := fetch()
			Expect(gen.Status.Phase).To(Equal(gammav1.PhaseCompleted))
			Expect(gen.Status.URL).To(Equal("https://gamma.app/docs/gen-1"))
			Expect(gen.Status.ArchivedExport).To(BeNil())
			Expect(meta.IsStatusConditionFalse(gen.Status.Conditions, gammav1.ConditionArchived)).To(BeTrue())
			Expect(api.downloads).To(Equal(maxArchiveAttempts))
		})

		It("should skip archiving when storage is disabled", func() {
			storageSpec.Enabled = false
			submit()
			reconcileOnce()

			Expect(fetch().Status.Phase).To(Equal(gammav1.PhaseCompleted))
			Expect(store.objects).To(BeEmpty())
		})

		It("should delete the archived export when the resource is deleted", func() {
			submit()
			reconcileOnce()
			Expect(store.objects).To(HaveLen(1))

			Expect(k8sClient.Delete(ctx, fetch())).To(Succeed())
			Expect(reconcileOnce()).To(Equal(ctrl.Result{}))

			Expect(store.deleted).To(ConsistOf("gamma-exports/exports/acme/launch-deck/gen-1.pdf"))
			err := k8sClient.Get(ctx, resourceKey, &gammav1.GammaGeneration{})
			Expect(apierrors.IsNotFound(err)).To(BeTrue())
		})
	})

	It("should ignore resources that no longer exist", func() {
		build()
		res, err := reconciler.Reconcile(ctx, reconcile.Request{NamespacedName: types.NamespacedName{Name: "missing", Namespace: namespace}})
		Expect(err).NotTo(HaveOccurred())
		Expect(res).To(Equal(ctrl.Result{}))
	})
})

var _ = Describe("exportExtension", func() {
	DescribeTable("picks the extension",
		func(exportURL, contentType string, exportAs []string, want string) {
			Expect(exportExtension(exportURL, contentType, exportAs)).To(Equal(want))
		},
		Entry("from the URL path", "https://x/a/deck.PPTX?sig=1", "", nil, "pptx"),
		Entry("from the content type", "https://x/a/download", "application/pdf", nil, "pdf"),
		Entry("from the requested format", "https://x/a/download", "", []string{"pptx"}, "pptx"),
		Entry("as a fallback", "https://x/a/download", "", nil, "bin"),
	)
})
