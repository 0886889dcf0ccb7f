package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/appenv"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/cfg"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/cryptoutil"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/health"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/httpmw"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/httpserver"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/limitkey"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/log"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/metrics"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/opshttp"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/otelx"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/pepper"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/prof"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/ratelimit"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/reporthttp"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/secpolicy"
	"github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/sitehandler"
	v "github.com/Shawn-Jones-7/tucsenberg-web-frontier-sub003/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Get build/version info
	vi := v.Get()

	var conf cfg.App
	var showVersion bool

	// Parse config from flags and env
	cfg.Register(flag.CommandLine, &conf)
	flag.BoolVar(&showVersion, "V", false, "Print version+build information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf(
			"%s %s (commit=%s, commit_date=%s, build_id=%s, build_date=%s, go=%s, dirty=%v)\n",
			v.AppName, vi.Version, vi.Commit, vi.CommitDate, vi.BuildId, vi.BuildDate, vi.GoVersion,
			vi.VCSDirty != nil && *vi.VCSDirty,
		)
		os.Exit(0)
	}

	// Fill in config from environment variables with prefix TWF_ and validate
	cfg.FillFromEnv(flag.CommandLine, "TWF_", func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	})

	// validate config
	if err := cfg.Validate(conf); err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	// Setup logging
	lvl, err := log.ParseLevel(conf.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %s: %v\n", conf.LogLevel, err)
		os.Exit(1)
	}
	stLvl, err := log.ParseLevel(conf.StacktraceLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid stacktrace level %s: %v\n", conf.StacktraceLevel, err)
		os.Exit(1)
	}
	lg, err := log.New(log.Options{
		App:               v.AppName,
		Version:           v.Version,
		Commit:            v.Commit,
		BuildId:           v.BuildId,
		Level:             lvl,
		StacktraceLevel:   stLvl,
		JsonFormat:        conf.LogJSON,
		MaxErrorLinks:     conf.MaxErrorLinks,
		IncludeErrorLinks: conf.IncludeErrorLinks,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init error:", err)
		os.Exit(1)
	}
	// no-op for slog/stderr, but here if we swap backends in the future to ensure any buffered logs are flushed on shutdown
	defer lg.Sync()
	L := lg.With("component", "server")
	ctx = log.WithContext(ctx, L)

	env := appenv.Parse(conf.Environment)
	mode := secpolicy.ResolveMode(conf.SecurityMode)
	strategy := limitkey.ParseStrategy(conf.RateLimitStrategy)

	L.Info(ctx, "initializing application",
		"version", vi.Version,
		"commit", vi.Commit,
		"commit_date", vi.CommitDate,
		"build_id", vi.BuildId,
		"build_date", vi.BuildDate,
		"go_version", vi.GoVersion,
		"vcs_dirty", vi.VCSDirty,
		"http_port", conf.HTTPPort,
		"admin_port", conf.AdminPort,
		"environment", env.String(),
		"security_headers_enabled", conf.SecurityHeadersEnabled,
		"security_mode", mode.String(),
		"rate_limit_strategy", strategy.String(),
		"rate_limit_per_second", conf.RateLimitPerSecond,
		"rate_limit_burst", conf.RateLimitBurst,
		"trusted_hops", conf.TrustedHops,
		"session_cookie", conf.SessionCookieName,
		"pepper_ssm_param", conf.PepperSSMParam,
		"enable_pprof", conf.EnablePprof,
		"enable_pyroscope", conf.EnablePyroscope,
		"enable_tracing", conf.EnableTracing,
		"otlp_endpoint", conf.OTLPEndpoint,
		"pyro_server", conf.PyroServer,
		"pyro_tenant", conf.PyroTenantID,
		"trace_sample", conf.TraceSample,
		"include_error_links", conf.IncludeErrorLinks,
		"max_error_links", conf.MaxErrorLinks,
	)

	// Setup pyroscope profiling
	stopProf, err := prof.Start(ctx, prof.Options{
		Enabled:       conf.EnablePyroscope,
		AppName:       v.AppName,
		AuthToken:     "",
		ServerAddress: conf.PyroServer,
		TenantID:      conf.PyroTenantID,
		Tags: map[string]string{
			"app":       v.AppName,
			"component": "server",
			"version":   vi.Version,
			"commit":    vi.Commit,
			"build_id":  vi.BuildId,
			"source":    "go-agent",
		},
	})
	if err != nil {
		L.Error(ctx, err, "pyroscope start failed", "pyro_server", conf.PyroServer)
	}
	defer func() { stopProf() }()

	// Setup otel for tracing
	// Insecure is true because we are only writing to a collector on localhost
	shutdownOTEL, err := otelx.Init(ctx, otelx.Options{
		Enabled:   conf.EnableTracing,
		Endpoint:  conf.OTLPEndpoint,
		Insecure:  true,
		Sample:    conf.TraceSample,
		Service:   v.AppName,
		Component: "server",
		Version:   vi.Version,
	})
	if err != nil {
		L.Error(ctx, err, "otel init failed")
	}
	defer func() { _ = shutdownOTEL(context.Background()) }()

	// Setup metrics / admin listener
	var m *metrics.ServerMetrics = metrics.New()
	m.SetBuildInfoFromVersion(v.AppName, "server", vi)
	m.SetSecurityMode(mode.String(), conf.SecurityHeadersEnabled)
	m.SetProfilingActive(conf.EnablePyroscope)

	// Resolve the rate-limit pepper once at startup. In production a
	// missing or weak pepper is fatal: serving with degraded keying
	// would silently merge distinct clients into shared buckets.
	popts := pepper.Options{
		Value:    conf.RateLimitPepper,
		Previous: conf.RateLimitPepperPrevious,
		Env:      env,
		Logger:   L,
	}
	// AWS clients are only needed when the pepper comes from SSM or KMS.
	// A plain config pepper (or the dev fallback) keeps startup offline.
	if conf.PepperSSMParam != "" || conf.PepperKMSCiphertext != "" {
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			L.Error(ctx, err, "failed to load AWS config")
			os.Exit(1)
		}
		if conf.PepperSSMParam != "" {
			popts.SSMParam = conf.PepperSSMParam
			popts.SSMClient = ssm.NewFromConfig(awsCfg)
		}
		if conf.PepperKMSCiphertext != "" {
			popts.KMSCiphertext = conf.PepperKMSCiphertext
			popts.Decrypter = cryptoutil.NewKMSDecrypter(kms.NewFromConfig(awsCfg))
		}
	}
	pepperStore := pepper.NewStore(popts)
	pep, err := pepperStore.Get(ctx)
	if err != nil {
		L.Error(ctx, err, "failed to resolve rate-limit pepper")
		os.Exit(1)
	}
	m.SetPepperSource(pep.Source)
	L.Info(ctx, "rate-limit pepper resolved", "source", pep.Source, "rotation_open", pep.Previous != "")

	// Derive rate-limit keys from request identity (API key > session > IP)
	deriver := limitkey.NewDeriver(limitkey.NewHasher(pep), conf.SessionCookieName)

	// setup site handler that serves the landing page
	siteHandler, err := sitehandler.New(&sitehandler.Options{
		Logger:  L,
		AppName: v.AppName,
	})
	if err != nil {
		L.Error(ctx, err, "failed to create site handler")
		os.Exit(1)
	}

	// CSP violation report receiver, counted by outcome
	reportAPI := reporthttp.NewAPI(L, reporthttp.Hooks{
		Accepted: m.IncCSPReportAccepted,
		Rejected: m.IncCSPReportRejected,
	})

	// setup toggle for server shutdown
	var gate health.ShutdownGate
	readiness := gate.Probe()

	// Setup rate limiter middleware keyed by derived identity
	limiter := ratelimit.New(ctx,
		ratelimit.WithKeyFunc(func(r *http.Request) string {
			return deriver.Key(r, strategy)
		}),
		ratelimit.WithRate(conf.RateLimitPerSecond, conf.RateLimitBurst),
		// increment prometheus counter on each denied request
		ratelimit.WithOnDenied(func(key string) {
			m.IncRateLimitDenied()
		}),
		// only log the first time a key is denied each time it is cleaned from the bucket
		ratelimit.WithOnFirstDenied(func(key string) {
			L.Warn(ctx, "rate limit triggered", "key", key)
		}),
		ratelimit.WithOnCapacity(func() {
			m.IncRateLimitCapacity()
			L.Warn(ctx, "rate limit capacity reached, rejecting new visitors until some are evicted")
		}),
	)

	// start site http server
	siteHTTPStop, err := httpserver.Start(
		ctx,
		httpserver.Options{
			Port:         conf.HTTPPort,
			Health:       health.Fixed(true, ""),
			Readiness:    readiness,
			APIRoutes:    reportAPI.RegisterRoutes,
			SiteHandler:  siteHandler,
			UseRecoverMW: true,
			OnPanic:      m.IncHttpPanic,
			MetricsMW:    m.Middleware,
			RateLimitMW:  limiter.Middleware,
			Logger:       L,
			ClientIPOpts: httpmw.ClientIPOptions{TrustedHops: conf.TrustedHops},
			SecurityHeaders: httpmw.SecurityHeadersOptions{
				Enabled: conf.SecurityHeadersEnabled,
				Mode:    mode,
				Env:     env,
			},
		},
	)

	if err != nil {
		L.Error(ctx, err, "failed to start site http listener port")
		os.Exit(1)
	}
	defer func() { _ = siteHTTPStop(context.Background()) }()

	// start admin/ops listener to serve metrics, health checks, pprof and any future admin APIs
	// sg restricts inbound to internal monitoring infrastructure
	// we reject connections from public ips in middleware to prevent accidental
	// exposure if sg is misconfigured or load balancer ever sends traffic there
	opsHTTPStop, err := opshttp.Start(ctx, L, &opshttp.Options{
		Port:         conf.AdminPort,
		Metrics:      m.Handler(),
		EnablePprof:  conf.EnablePprof,
		Health:       health.Fixed(true, ""),
		Readiness:    readiness,
		UseRecoverMW: true,
		OnPanic:      m.IncHttpPanic,
	})
	if err != nil {
		L.Error(ctx, err, "failed to start ops http listener")
		os.Exit(1)
	}
	defer func() { _ = opsHTTPStop(context.Background()) }()

	// notify systemd that we started successfully if started under systemd
	if err := notifySystemd(); err != nil {
		// log and dont exit, worst case systemd will kill the process after timeout
		L.Warn(ctx, "failed to notify systemd of readiness", "error", err)
	}

	// block until signal so we dont exit
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// wait for ctrl+c / sigterm
	<-sigCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	L.Info(context.Background(), "shutdown signal received")

	// fail health checks to drain connections
	gate.Set("draining")
	L.Info(context.Background(), "shutdown gate closed")

	// will make sleep time tunable in the future
	L.Info(context.Background(), "sleeping 60s for in-flight and load balancer health checks to drain")
	forceCh := make(chan os.Signal, 1)
	signal.Notify(forceCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-time.After(60 * time.Second):
		L.Info(context.Background(), "drain period complete")
	case <-forceCh:
		L.Warn(context.Background(), "second signal received, skipping drain")
	}
	signal.Stop(forceCh)

	if err := siteHTTPStop(shutdownCtx); err != nil {
		L.Error(context.Background(), err, "app http server shutdown")
	}

	if err := opsHTTPStop(shutdownCtx); err != nil {
		L.Error(context.Background(), err, "ops http server shutdown")
	}

	if err := shutdownOTEL(shutdownCtx); err != nil {
		L.Error(context.Background(), err, "otel shutdown")
	}

	stopProf()

	L.Info(context.Background(), "shutdown complete")
	os.Exit(0)
}

func notifySystemd() error {
	// systemd will set NOTIFY_SOCKET to a unix socket path if we were started under systemd with type=notify
	addr := os.Getenv("NOTIFY_SOCKET")
	if addr == "" {
		return fmt.Errorf("NOTIFY_SOCKET not set, skipping systemd notify")
	}
	conn, err := net.Dial("unixgram", addr)
	if err != nil {
		return fmt.Errorf("systemd notify failed: dial failed: %w", err)
	}
	conn.Write([]byte("READY=1"))
	if err := conn.Close(); err != nil {
		return fmt.Errorf("systemd notify failed: close failed: %w", err)
	}
	return nil
}
