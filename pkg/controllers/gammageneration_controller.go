package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller/controllerutil"
	"sigs.k8s.io/controller-runtime/pkg/log"

	gammav1 "github.com/Tributary-ai-services/gamma-operator/api/v1"
	"github.com/Tributary-ai-services/gamma-operator/pkg/gamma"
	minioclient "github.com/Tributary-ai-services/gamma-operator/pkg/minio"
)

var tracer = otel.Tracer("gammageneration-controller")

const (
	finalizerName = "gammageneration.gamma.tas.ai/finalizer"

	// secretRetryInterval spaces attempts while the API key is unavailable.
	secretRetryInterval = 30 * time.Second
	// failedRetryInterval is how long a recoverable failure waits before
	// the submission is attempted again.
	failedRetryInterval = 5 * time.Minute
	maxFailedRetries    = 3

	archiveRetryInterval = 30 * time.Second
	maxArchiveAttempts   = 3
)

// GammaAPI is the part of the Gamma client the reconciler drives.
type GammaAPI interface {
	Submit(ctx context.Context, params gamma.GenerateParams) (gamma.GenerationHandle, error)
	CheckStatus(ctx context.Context, generationID string) (gamma.StatusSnapshot, error)
	DownloadExport(ctx context.Context, exportURL string) ([]byte, string, error)
}

// ExportStore archives exported files.
type ExportStore interface {
	Upload(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, bucket, key string) error
}

// NewGammaAPI builds a Gamma client from options.
func NewGammaAPI(opts gamma.Options) (GammaAPI, error) {
	c, err := gamma.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GammaGenerationReconciler reconciles a GammaGeneration object
type GammaGenerationReconciler struct {
	client.Client
	Scheme *runtime.Scheme

	// ClientOptions are shared by every Gamma client. The API key comes
	// from the resource's Secret.
	ClientOptions gamma.Options
	// NewGammaClient defaults to NewGammaAPI.
	NewGammaClient func(opts gamma.Options) (GammaAPI, error)
	// Storage is optional; without it exports are never archived.
	Storage ExportStore
	// Jitter defaults to gamma.UniformJitter.
	Jitter gamma.JitterFunc
}

//+kubebuilder:rbac:groups=gamma.tas.ai,resources=gammagenerations,verbs=get;list;watch;create;update;patch;delete
//+kubebuilder:rbac:groups=gamma.tas.ai,resources=gammagenerations/status,verbs=get;update;patch
//+kubebuilder:rbac:groups=gamma.tas.ai,resources=gammagenerations/finalizers,verbs=update
//+kubebuilder:rbac:groups="",resources=secrets,verbs=get;list;watch

// Reconcile drives a GammaGeneration through submit, poll and archive. Each
// call makes at most one status check; the next one is scheduled with the
// poll backoff.
func (r *GammaGenerationReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	ctx, span := tracer.Start(ctx, "gammageneration_reconcile")
	defer span.End()

	logger := log.FromContext(ctx)
	span.SetAttributes(
		attribute.String("gammageneration.name", req.Name),
		attribute.String("gammageneration.namespace", req.Namespace),
	)

	var gen gammav1.GammaGeneration
	if err := r.Get(ctx, req.NamespacedName, &gen); err != nil {
		if apierrors.IsNotFound(err) {
			logger.Info("GammaGeneration resource not found, ignoring since object must be deleted")
			return ctrl.Result{}, nil
		}
		span.RecordError(err)
		logger.Error(err, "Failed to get GammaGeneration")
		return ctrl.Result{}, err
	}

	if gen.DeletionTimestamp.IsZero() {
		if !controllerutil.ContainsFinalizer(&gen, finalizerName) {
			controllerutil.AddFinalizer(&gen, finalizerName)
			return ctrl.Result{}, r.Update(ctx, &gen)
		}
	} else {
		if controllerutil.ContainsFinalizer(&gen, finalizerName) {
			r.cleanupExport(ctx, &gen)
			controllerutil.RemoveFinalizer(&gen, finalizerName)
			return ctrl.Result{}, r.Update(ctx, &gen)
		}
		return ctrl.Result{}, nil
	}

	if gen.Status.Phase == "" {
		now := metav1.Now()
		gen.Status.Phase = gammav1.PhasePending
		gen.Status.StartTime = &now
		meta.SetStatusCondition(&gen.Status.Conditions, metav1.Condition{
			Type:               gammav1.ConditionReady,
			Status:             metav1.ConditionFalse,
			Reason:             "Initializing",
			Message:            "GammaGeneration is being initialized",
			ObservedGeneration: gen.Generation,
		})
	}

	span.SetAttributes(attribute.String("gammageneration.phase", gen.Status.Phase))
	switch gen.Status.Phase {
	case gammav1.PhasePending:
		return r.reconcilePending(ctx, &gen)
	case gammav1.PhaseSubmitted, gammav1.PhaseProcessing:
		return r.reconcilePolling(ctx, &gen)
	case gammav1.PhaseArchiving:
		return r.reconcileArchiving(ctx, &gen, nil)
	case gammav1.PhaseCompleted:
		return ctrl.Result{}, nil
	case gammav1.PhaseFailed:
		return r.reconcileFailed(ctx, &gen)
	default:
		logger.Info("Unknown phase, resetting to Pending", "phase", gen.Status.Phase)
		gen.Status.Phase = gammav1.PhasePending
		return ctrl.Result{}, r.Status().Update(ctx, &gen)
	}
}

// reconcilePending submits the generation request.
func (r *GammaGenerationReconciler) reconcilePending(ctx context.Context, gen *gammav1.GammaGeneration) (ctrl.Result, error) {
	ctx, span := tracer.Start(ctx, "reconcile_pending")
	defer span.End()
	logger := log.FromContext(ctx)

	api, err := r.gammaClient(ctx, gen)
	if err != nil {
		return r.waitForCredentials(ctx, gen, err)
	}

	handle, err := api.Submit(ctx, gen.Spec.Params())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var verr *gamma.ValidationError
		if errors.As(err, &verr) {
			return ctrl.Result{}, r.setFailedStatus(ctx, gen, gamma.KindValidation, verr.Error())
		}
		res, ok := gamma.FailureResult("", err)
		if !ok {
			return ctrl.Result{}, fmt.Errorf("failed to submit generation: %w", err)
		}
		logger.Error(err, "Failed to submit generation", "kind", res.ErrorKind)
		if err := r.setFailedStatus(ctx, gen, res.ErrorKind, res.Error); err != nil {
			return ctrl.Result{}, err
		}
		return r.failedRequeue(gen), nil
	}

	logger.Info("Generation submitted", "generationId", handle.ID)
	span.SetAttributes(attribute.String("gamma.generation_id", handle.ID))

	gen.Status.Phase = gammav1.PhaseSubmitted
	gen.Status.GenerationId = handle.ID
	gen.Status.URL = ""
	gen.Status.PollAttempts = 0
	gen.Status.LastError = ""
	gen.Status.ErrorKind = ""
	gen.Status.Credits = gammav1.FromCredits(handle.Credits)
	meta.SetStatusCondition(&gen.Status.Conditions, metav1.Condition{
		Type:               gammav1.ConditionSubmitted,
		Status:             metav1.ConditionTrue,
		Reason:             "Submitted",
		Message:            handle.Message,
		ObservedGeneration: gen.Generation,
	})
	if err := r.Status().Update(ctx, gen); err != nil {
		return ctrl.Result{}, err
	}

	return ctrl.Result{RequeueAfter: r.poller(api, gen).NextDelay(1, nil)}, nil
}

// reconcilePolling makes one status check and decides the next phase with
// the same rules the blocking poller uses.
func (r *GammaGenerationReconciler) reconcilePolling(ctx context.Context, gen *gammav1.GammaGeneration) (ctrl.Result, error) {
	ctx, span := tracer.Start(ctx, "reconcile_polling")
	defer span.End()
	logger := log.FromContext(ctx).WithValues("generationId", gen.Status.GenerationId)

	if gen.Status.GenerationId == "" {
		gen.Status.Phase = gammav1.PhasePending
		return ctrl.Result{}, r.Status().Update(ctx, gen)
	}

	api, err := r.gammaClient(ctx, gen)
	if err != nil {
		return r.waitForCredentials(ctx, gen, err)
	}

	poller := r.poller(api, gen)
	if gen.Status.PollAttempts >= poller.MaxAttempts {
		return ctrl.Result{}, r.setFailedStatus(ctx, gen, gamma.KindTimeout, gamma.ErrPollTimeout.Error())
	}

	snap, err := api.CheckStatus(ctx, gen.Status.GenerationId)
	gen.Status.PollAttempts++
	attempt := gen.Status.PollAttempts
	span.SetAttributes(attribute.Int("gamma.poll_attempt", attempt))

	if err != nil {
		span.RecordError(err)
		class := gamma.Classify(err)
		if !class.Retryable() {
			logger.Error(err, "Status check failed", "class", class.Kind)
			return ctrl.Result{}, r.setFailedStatus(ctx, gen, class.Kind, fmt.Sprintf("failed to check status: %v", err))
		}
		if attempt >= poller.MaxAttempts {
			return ctrl.Result{}, r.setFailedStatus(ctx, gen, gamma.KindTimeout, gamma.ErrPollTimeout.Error())
		}
		delay := poller.NextDelay(attempt, err)
		logger.Info("Status check failed, will retry", "attempt", attempt, "class", class.Kind, "delay", delay.String())
		gen.Status.LastError = err.Error()
		if err := r.Status().Update(ctx, gen); err != nil {
			return ctrl.Result{}, err
		}
		return ctrl.Result{RequeueAfter: delay}, nil
	}

	switch gamma.Evaluate(snap) {
	case gamma.PollComplete:
		gen.Status.URL = snap.URL
		gen.Status.GammaURL = snap.GammaURL
		gen.Status.ExportURL = snap.ExportURL
		if snap.Credits != nil {
			gen.Status.Credits = gammav1.FromCredits(snap.Credits)
		}
		logger.Info("Generation completed", "url", snap.URL, "attempts", attempt)
		if r.shouldArchive(gen) {
			gen.Status.Phase = gammav1.PhaseArchiving
			return r.reconcileArchiving(ctx, gen, api)
		}
		return ctrl.Result{}, r.setCompletedStatus(ctx, gen, "Generation completed")

	case gamma.PollFailed:
		kind := gamma.Kind("")
		if snap.Status == gamma.StatusNotFound {
			kind = gamma.KindNotFound
		}
		message := snap.Error
		if message == "" {
			message = "Generation failed with status: " + snap.Status
		}
		return ctrl.Result{}, r.setFailedStatus(ctx, gen, kind, message)
	}

	if attempt >= poller.MaxAttempts {
		return ctrl.Result{}, r.setFailedStatus(ctx, gen, gamma.KindTimeout, gamma.ErrPollTimeout.Error())
	}

	delay := poller.NextDelay(attempt, nil)
	logger.Info("Generation pending, waiting before next check",
		"attempt", attempt,
		"maxAttempts", poller.MaxAttempts,
		"status", snap.Status,
		"delay", delay.String(),
	)
	gen.Status.Phase = gammav1.PhaseProcessing
	gen.Status.LastError = ""
	if err := r.Status().Update(ctx, gen); err != nil {
		return ctrl.Result{}, err
	}
	return ctrl.Result{RequeueAfter: delay}, nil
}

// reconcileArchiving copies the export into MinIO. Archive failures never
// fail the generation: after maxArchiveAttempts it completes without the
// archived copy.
func (r *GammaGenerationReconciler) reconcileArchiving(ctx context.Context, gen *gammav1.GammaGeneration, api GammaAPI) (ctrl.Result, error) {
	ctx, span := tracer.Start(ctx, "reconcile_archiving")
	defer span.End()
	logger := log.FromContext(ctx).WithValues("generationId", gen.Status.GenerationId)

	if !r.shouldArchive(gen) {
		return ctrl.Result{}, r.setCompletedStatus(ctx, gen, "Generation completed")
	}

	if api == nil {
		var err error
		if api, err = r.gammaClient(ctx, gen); err != nil {
			return r.waitForCredentials(ctx, gen, err)
		}
	}

	stored, err := r.archive(ctx, api, gen)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		gen.Status.ArchiveAttempts++
		logger.Error(err, "Failed to archive export", "attempt", gen.Status.ArchiveAttempts)

		if gen.Status.ArchiveAttempts < maxArchiveAttempts {
			gen.Status.Phase = gammav1.PhaseArchiving
			gen.Status.LastError = err.Error()
			if err := r.Status().Update(ctx, gen); err != nil {
				return ctrl.Result{}, err
			}
			return ctrl.Result{RequeueAfter: archiveRetryInterval}, nil
		}

		meta.SetStatusCondition(&gen.Status.Conditions, metav1.Condition{
			Type:               gammav1.ConditionArchived,
			Status:             metav1.ConditionFalse,
			Reason:             "ArchiveFailed",
			Message:            err.Error(),
			ObservedGeneration: gen.Generation,
		})
		gen.Status.LastError = err.Error()
		return ctrl.Result{}, r.setCompletedStatus(ctx, gen, "Generation completed, export was not archived")
	}

	gen.Status.ArchivedExport = stored
	gen.Status.LastError = ""
	meta.SetStatusCondition(&gen.Status.Conditions, metav1.Condition{
		Type:               gammav1.ConditionArchived,
		Status:             metav1.ConditionTrue,
		Reason:             "Archived",
		Message:            "Export stored at " + stored.Key,
		ObservedGeneration: gen.Generation,
	})
	return ctrl.Result{}, r.setCompletedStatus(ctx, gen, "Generation completed and export archived")
}

func (r *GammaGenerationReconciler) archive(ctx context.Context, api GammaAPI, gen *gammav1.GammaGeneration) (*gammav1.ArchivedExport, error) {
	data, contentType, err := api.DownloadExport(ctx, gen.Status.ExportURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download export: %w", err)
	}

	ext := exportExtension(gen.Status.ExportURL, contentType, gen.Spec.ExportAs)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = minioclient.ContentType(ext)
	}
	bucket := gen.Spec.Storage.BucketName()
	key := exportKey(gen, ext)

	objectURL, err := r.Storage.Upload(ctx, bucket, key, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload export: %w", err)
	}
	return &gammav1.ArchivedExport{
		Bucket:    bucket,
		Key:       key,
		URL:       objectURL,
		SizeBytes: int64(len(data)),
	}, nil
}

// reconcileFailed resubmits after failedRetryInterval when the failure
// happened before a generation id was assigned and its kind is transient.
func (r *GammaGenerationReconciler) reconcileFailed(ctx context.Context, gen *gammav1.GammaGeneration) (ctrl.Result, error) {
	if !recoverable(gen) {
		return ctrl.Result{}, nil
	}

	if cond := meta.FindStatusCondition(gen.Status.Conditions, gammav1.ConditionReady); cond != nil {
		if wait := failedRetryInterval - time.Since(cond.LastTransitionTime.Time); wait > 0 {
			return ctrl.Result{RequeueAfter: wait}, nil
		}
	}

	log.FromContext(ctx).Info("Retrying failed generation", "retryCount", gen.Status.RetryCount)
	gen.Status.Phase = gammav1.PhasePending
	meta.SetStatusCondition(&gen.Status.Conditions, metav1.Condition{
		Type:               gammav1.ConditionReady,
		Status:             metav1.ConditionUnknown,
		Reason:             "Retrying",
		Message:            "Resubmitting after: " + gen.Status.LastError,
		ObservedGeneration: gen.Generation,
	})
	return r.reconcilePending(ctx, gen)
}

func recoverable(gen *gammav1.GammaGeneration) bool {
	if gen.Status.GenerationId != "" || gen.Status.RetryCount >= maxFailedRetries {
		return false
	}
	return gamma.Classification{Kind: gamma.Kind(gen.Status.ErrorKind)}.Retryable()
}

func (r *GammaGenerationReconciler) failedRequeue(gen *gammav1.GammaGeneration) ctrl.Result {
	if recoverable(gen) {
		return ctrl.Result{RequeueAfter: failedRetryInterval}
	}
	return ctrl.Result{}
}

func (r *GammaGenerationReconciler) shouldArchive(gen *gammav1.GammaGeneration) bool {
	return r.Storage != nil && gen.Spec.Storage.Enabled && gen.Status.ExportURL != "" && gen.Status.ArchivedExport == nil
}

func (r *GammaGenerationReconciler) poller(api GammaAPI, gen *gammav1.GammaGeneration) *gamma.Poller {
	maxAttempts := gen.Spec.MaxPollAttempts
	if maxAttempts <= 0 {
		maxAttempts = r.ClientOptions.PollAttempts
	}
	p := gamma.NewPoller(api, maxAttempts)
	p.Jitter = r.Jitter
	return p
}

// gammaClient builds a client with the API key from the resource's Secret.
func (r *GammaGenerationReconciler) gammaClient(ctx context.Context, gen *gammav1.GammaGeneration) (GammaAPI, error) {
	apiKey, err := r.getAPIKey(ctx, gen)
	if err != nil {
		return nil, err
	}
	opts := r.ClientOptions
	opts.APIKey = apiKey
	logger := log.FromContext(ctx)
	opts.Logger = &logger

	newClient := r.NewGammaClient
	if newClient == nil {
		newClient = NewGammaAPI
	}
	return newClient(opts)
}

// getAPIKey reads the Gamma API key from a referenced Kubernetes Secret
func (r *GammaGenerationReconciler) getAPIKey(ctx context.Context, gen *gammav1.GammaGeneration) (string, error) {
	secretName := gen.Spec.ApiKeySecretRef.SecretName()
	secretKey := gen.Spec.ApiKeySecretRef.SecretKey()

	var secret corev1.Secret
	if err := r.Get(ctx, types.NamespacedName{
		Name:      secretName,
		Namespace: gen.Namespace,
	}, &secret); err != nil {
		return "", fmt.Errorf("failed to get secret %s: %w", secretName, err)
	}

	value, ok := secret.Data[secretKey]
	if !ok {
		return "", fmt.Errorf("key %s not found in secret %s", secretKey, secretName)
	}

	return strings.TrimSpace(string(value)), nil
}

// waitForCredentials keeps the current phase while the API key cannot be
// read or is malformed, and checks again later.
func (r *GammaGenerationReconciler) waitForCredentials(ctx context.Context, gen *gammav1.GammaGeneration, cause error) (ctrl.Result, error) {
	log.FromContext(ctx).Error(cause, "Gamma credentials unavailable")
	gen.Status.LastError = cause.Error()
	meta.SetStatusCondition(&gen.Status.Conditions, metav1.Condition{
		Type:               gammav1.ConditionReady,
		Status:             metav1.ConditionFalse,
		Reason:             "CredentialsUnavailable",
		Message:            cause.Error(),
		ObservedGeneration: gen.Generation,
	})
	if err := r.Status().Update(ctx, gen); err != nil {
		return ctrl.Result{}, err
	}
	return ctrl.Result{RequeueAfter: secretRetryInterval}, nil
}

// setFailedStatus sets the generation status to Failed with an error message
func (r *GammaGenerationReconciler) setFailedStatus(ctx context.Context, gen *gammav1.GammaGeneration, kind gamma.Kind, message string) error {
	gen.Status.Phase = gammav1.PhaseFailed
	gen.Status.LastError = message
	gen.Status.ErrorKind = string(kind)
	gen.Status.RetryCount++
	meta.SetStatusCondition(&gen.Status.Conditions, metav1.Condition{
		Type:               gammav1.ConditionReady,
		Status:             metav1.ConditionFalse,
		Reason:             "Failed",
		Message:            message,
		ObservedGeneration: gen.Generation,
	})
	return r.Status().Update(ctx, gen)
}

func (r *GammaGenerationReconciler) setCompletedStatus(ctx context.Context, gen *gammav1.GammaGeneration, message string) error {
	now := metav1.Now()
	gen.Status.Phase = gammav1.PhaseCompleted
	gen.Status.CompletionTime = &now
	gen.Status.ErrorKind = ""
	gen.Status.ObservedGeneration = gen.Generation
	meta.SetStatusCondition(&gen.Status.Conditions, metav1.Condition{
		Type:               gammav1.ConditionReady,
		Status:             metav1.ConditionTrue,
		Reason:             "Completed",
		Message:            message,
		ObservedGeneration: gen.Generation,
	})
	return r.Status().Update(ctx, gen)
}

// cleanupExport deletes the archived export when the CR is deleted
func (r *GammaGenerationReconciler) cleanupExport(ctx context.Context, gen *gammav1.GammaGeneration) {
	ctx, span := tracer.Start(ctx, "cleanup_export")
	defer span.End()

	stored := gen.Status.ArchivedExport
	if stored == nil || r.Storage == nil {
		return
	}
	if err := r.Storage.Delete(ctx, stored.Bucket, stored.Key); err != nil {
		span.RecordError(err)
		log.FromContext(ctx).Error(err, "Failed to delete archived export during cleanup", "key", stored.Key)
	}
}

// exportKey is {prefix}{tenant}/{name}/{generationId}.{ext}
func exportKey(gen *gammav1.GammaGeneration, ext string) string {
	return fmt.Sprintf("%s%s/%s/%s.%s", gen.Spec.Storage.Prefix, gen.Spec.Tenant(), gen.Name, gen.Status.GenerationId, ext)
}

// exportExtension picks the file extension from the export URL path, then
// the content type, then the first requested export format.
func exportExtension(exportURL, contentType string, exportAs []string) string {
	if u, err := url.Parse(exportURL); err == nil {
		switch ext := strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), ".")); ext {
		case string(gamma.ExportPDF), string(gamma.ExportPPTX):
			return ext
		}
	}
	switch {
	case strings.Contains(contentType, "pdf"):
		return string(gamma.ExportPDF)
	case strings.Contains(contentType, "presentation"):
		return string(gamma.ExportPPTX)
	}
	if len(exportAs) > 0 {
		return strings.ToLower(exportAs[0])
	}
	return "bin"
}

// SetupWithManager sets up the controller with the Manager
func (r *GammaGenerationReconciler) SetupWithManager(mgr ctrl.Manager) error {
	return ctrl.NewControllerManagedBy(mgr).
		For(&gammav1.GammaGeneration{}).
		Named("gammageneration").
		Complete(r)
}
