package main

import (
	"context"
	"flag"
	"os"
	"strconv"

	_ "k8s.io/client-go/plugin/pkg/client/auth"

	"github.com/joho/godotenv"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	ctrlmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"
	"sigs.k8s.io/controller-runtime/pkg/metrics/server"

	gammav1 "github.com/Tributary-ai-services/gamma-operator/api/v1"
	"github.com/Tributary-ai-services/gamma-operator/internal/config"
	"github.com/Tributary-ai-services/gamma-operator/internal/otel"
	webhookv1 "github.com/Tributary-ai-services/gamma-operator/internal/webhook/v1"
	"github.com/Tributary-ai-services/gamma-operator/pkg/controllers"
	"github.com/Tributary-ai-services/gamma-operator/pkg/gamma"
	minioclient "github.com/Tributary-ai-services/gamma-operator/pkg/minio"
)

var (
	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(gammav1.AddToScheme(scheme))
}

func main() {
	_ = godotenv.Load()

	var metricsAddr string
	var enableLeaderElection bool
	var probeAddr string
	var enableWebhooks bool
	var enableArchive bool
	var minioEndpoint string
	var minioAccessKey string
	var minioSecretKey string
	var minioUseSSL bool

	flag.StringVar(&metricsAddr, "metrics-bind-address", ":8088", "The address the metric endpoint binds to.")
	flag.StringVar(&probeAddr, "health-probe-bind-address", ":8089", "The address the probe endpoint binds to.")
	flag.BoolVar(&enableLeaderElection, "leader-elect", false, "Enable leader election for controller manager.")
	flag.BoolVar(&enableWebhooks, "enable-webhooks", getEnvBool("ENABLE_WEBHOOKS", true), "Serve the GammaGeneration admission webhooks")
	flag.BoolVar(&enableArchive, "enable-archive", getEnvBool("ENABLE_ARCHIVE", true), "Archive exported files to MinIO")
	flag.StringVar(&minioEndpoint, "minio-endpoint", getEnv("MINIO_ENDPOINT", "minio-shared.tas-shared.svc.cluster.local:9000"), "MinIO endpoint")
	flag.StringVar(&minioAccessKey, "minio-access-key", getEnv("MINIO_ACCESS_KEY", "minioadmin"), "MinIO access key")
	flag.StringVar(&minioSecretKey, "minio-secret-key", getEnv("MINIO_SECRET_KEY", "minioadmin123"), "MinIO secret key")
	flag.BoolVar(&minioUseSSL, "minio-use-ssl", getEnvBool("MINIO_USE_SSL", false), "Use TLS for MinIO")

	opts := zap.Options{Development: true}
	opts.BindFlags(flag.CommandLine)
	flag.Parse()

	ctrl.SetLogger(zap.New(zap.UseFlagOptions(&opts)))

	cfg, err := config.LoadShared(nil)
	if err != nil {
		setupLog.Error(err, "Failed to load configuration")
		os.Exit(1)
	}
	for _, w := range cfg.Warnings {
		setupLog.Info("Configuration warning", "warning", w)
	}

	setupLog.Info("Starting Gamma Generation Operator",
		"version", gamma.Version,
		"metrics-addr", metricsAddr,
		"probe-addr", probeAddr,
		"leader-election", enableLeaderElection,
		"gamma-url", cfg.Gamma.BaseURL,
		"minio-endpoint", minioEndpoint,
	)

	cfg.OTel.ServiceName = "gamma-operator"
	shutdownTracing, err := otel.Setup(context.Background(), cfg.OTel)
	if err != nil {
		setupLog.Error(err, "Failed to set up tracing")
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			setupLog.Error(err, "Failed to flush traces")
		}
	}()

	metrics, err := gamma.NewMetrics(ctrlmetrics.Registry)
	if err != nil {
		setupLog.Error(err, "Failed to register Gamma metrics")
		os.Exit(1)
	}
	cfg.Gamma.Metrics = metrics

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{
		Scheme: scheme,
		Metrics: server.Options{
			BindAddress: metricsAddr,
		},
		HealthProbeBindAddress:        probeAddr,
		LeaderElection:                enableLeaderElection,
		LeaderElectionID:              "gamma-operator-leader-election",
		LeaderElectionReleaseOnCancel: true,
	})
	if err != nil {
		setupLog.Error(err, "Unable to start manager")
		os.Exit(1)
	}

	reconciler := &controllers.GammaGenerationReconciler{
		Client:        mgr.GetClient(),
		Scheme:        mgr.GetScheme(),
		ClientOptions: cfg.Gamma,
	}

	if enableArchive {
		mc, err := minioclient.NewClient(minioEndpoint, minioAccessKey, minioSecretKey, minioUseSSL)
		if err != nil {
			setupLog.Error(err, "Failed to create MinIO client")
			os.Exit(1)
		}
		// Set public URL for external-facing download links
		if publicURL := getEnv("MINIO_PUBLIC_URL", ""); publicURL != "" {
			mc.SetPublicURL(publicURL)
			setupLog.Info("MinIO public URL configured", "url", publicURL)
		}
		reconciler.Storage = mc
	}

	if err = reconciler.SetupWithManager(mgr); err != nil {
		setupLog.Error(err, "Unable to create controller", "controller", "GammaGeneration")
		os.Exit(1)
	}

	if enableWebhooks {
		if err := webhookv1.SetupGammaGenerationWebhookWithManager(mgr, cfg.Gamma.Defaults); err != nil {
			setupLog.Error(err, "Unable to create webhook", "webhook", "GammaGeneration")
			os.Exit(1)
		}
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		setupLog.Error(err, "Unable to set up health check")
		os.Exit(1)
	}

	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		setupLog.Error(err, "Unable to set up ready check")
		os.Exit(1)
	}

	setupLog.Info("Starting manager")
	if err := mgr.Start(ctrl.SetupSignalHandler()); err != nil {
		setupLog.Error(err, "Problem running manager")
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}
