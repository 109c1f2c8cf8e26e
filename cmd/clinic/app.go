package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/config"
	v1 "github.com/dmehra2102/prod-golang-projects/clinicportal/internal/handler/v1"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/notify"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/repository/postgres"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/seed"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/service"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/pkg/logger"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/pkg/metrics"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/pkg/secrets"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/pkg/tlsconfig"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/pkg/tracer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const metricsNamespace = "clinicportal"

// app holds the dependencies shared by every subcommand.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	db       *gorm.DB
	registry *prometheus.Registry
	metrics  *metrics.Collector
	tp       *sdktrace.TracerProvider
}

func bootstrap(ctx context.Context, component string) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := secrets.Load(ctx, cfg); err != nil {
		return nil, fmt.Errorf("loading secrets: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if version != "dev" {
		cfg.App.Version = version
	}

	log, err := logger.New(cfg.Log, cfg.App)
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("component", component))

	tp, err := tracer.Init(ctx, cfg.Tracing, cfg.App)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewCollector(metricsNamespace, reg)

	db, err := database.Connect(cfg.Database, log, m)
	if err != nil {
		return nil, err
	}

	log.Info("bootstrapped",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)
	return &app{cfg: cfg, log: log, db: db, registry: reg, metrics: m, tp: tp}, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.tp.Shutdown(ctx); err != nil {
		a.log.Warn("tracer shutdown", zap.Error(err))
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.log.Sync()
}

func (a *app) migrate() error {
	return database.Migrate(a.db, a.log)
}

// deliverer sends notices straight to the configured email provider.
func (a *app) deliverer() (*notify.Deliverer, error) {
	mailer, err := notify.NewMailer(a.cfg.Email, a.log)
	if err != nil {
		return nil, err
	}
	composer := notify.NewComposer(a.cfg.Email.ClinicName)
	return notify.NewDeliverer(composer, mailer, a.log, a.metrics, a.cfg.Email.SendTimeout), nil
}

// dispatcher picks the notice transport. The returned stop func drains or
// flushes it and must be called on shutdown.
func (a *app) dispatcher() (notify.Dispatcher, func(context.Context), error) {
	if a.cfg.Notify.Transport == "kafka" {
		pub, err := notify.NewKafkaPublisher(a.cfg.Kafka, a.log)
		if err != nil {
			return nil, nil, err
		}
		return pub, func(context.Context) {
			if err := pub.Close(); err != nil {
				a.log.Warn("closing kafka publisher", zap.Error(err))
			}
		}, nil
	}

	d, err := a.deliverer()
	if err != nil {
		return nil, nil, err
	}
	q := notify.NewQueue(d, a.cfg.Notify.Workers, a.cfg.Notify.QueueSize, a.log, a.metrics)
	return q, q.Shutdown, nil
}

func runServer(ctx context.Context) error {
	a, err := bootstrap(ctx, "api")
	if err != nil {
		return err
	}
	defer a.close()

	dispatcher, stopDispatcher, err := a.dispatcher()
	if err != nil {
		return err
	}

	users := postgres.NewUserRepository(a.db)
	appointments := postgres.NewAppointmentRepository(a.db)
	records := postgres.NewMedicalRecordRepository(a.db)
	patients := postgres.NewPatientRepository(a.db)
	doctors := postgres.NewDoctorRepository(a.db)
	contents := postgres.NewContentRepository(a.db)
	payments := postgres.NewPaymentRepository(a.db)

	audit := service.NewAuditService(postgres.NewAuditRepository(a.db), a.log, a.metrics)
	jwtManager := auth.NewJWTManager(a.cfg.JWT)

	authSvc := service.NewAuthService(users, jwtManager, audit, a.log, a.cfg.App.Name)
	apptSvc := service.NewAppointmentService(appointments, users, doctors, payments, dispatcher, audit, a.metrics, a.log)
	recordSvc := service.NewMedicalRecordService(records, appointments, users, audit, a.metrics, a.log)
	patientSvc := service.NewPatientProfileService(patients, users, audit, a.log)
	doctorSvc := service.NewDoctorProfileService(doctors, users, audit, a.log)
	contentSvc := service.NewContentService(contents, audit, a.metrics, a.log)
	paymentSvc := service.NewPaymentService(payments, audit, a.metrics, a.log)

	handlers := v1.Handlers{
		Auth:           v1.NewAuthHandler(authSvc),
		Appointments:   v1.NewAppointmentHandler(apptSvc),
		MedicalRecords: v1.NewMedicalRecordHandler(recordSvc),
		Doctors:        v1.NewDoctorHandler(doctorSvc),
		Patients:       v1.NewPatientHandler(patientSvc),
		Content:        v1.NewContentHandler(contentSvc),
		Payments:       v1.NewPaymentHandler(paymentSvc),
		Health: v1.NewHealthHandler(a.cfg.App.Version, map[string]v1.ReadinessCheck{
			"database": func(context.Context) error { return database.Ping(a.db) },
		}),
	}
	router := v1.NewRouter(v1.RouterConfig{
		JWT:         jwtManager,
		Log:         a.log,
		Metrics:     a.metrics,
		Gatherer:    a.registry,
		CORS:        a.cfg.CORS,
		RateLimit:   a.cfg.RateLimit,
		TracerName:  a.cfg.Tracing.ServiceName,
		Environment: a.cfg.App.Environment,
	}, handlers)

	srv := &http.Server{
		Addr:         a.cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}
	if a.cfg.TLS.Enabled {
		tlsCfg, err := tlsconfig.Server(a.cfg.TLS.CertFile, a.cfg.TLS.KeyFile, a.cfg.TLS.ClientCAFile)
		if err != nil {
			return err
		}
		srv.TLSConfig = tlsCfg
	}

	if a.cfg.Reminder.Enabled {
		reminders := service.NewReminderService(appointments, users, dispatcher, a.cfg.Reminder.Window, a.log)
		go reminders.Start(ctx, a.cfg.Reminder.Interval)
	}

	serveErr := make(chan error, 1)
	go func() {
		a.log.Info("server starting", zap.String("addr", srv.Addr), zap.Bool("tls", srv.TLSConfig != nil))
		var err error
		if srv.TLSConfig != nil {
			// Certificates are already loaded into TLSConfig.
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	a.log.Info("shutting down", zap.Duration("timeout", a.cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server shutdown", zap.Error(err))
	}
	stopDispatcher(shutdownCtx)
	audit.Shutdown()

	a.log.Info("server stopped")
	return nil
}

func runSeed(ctx context.Context, file string) error {
	a, err := bootstrap(ctx, "seed")
	if err != nil {
		return err
	}
	defer a.close()

	var fixtures *seed.Fixtures
	if file == "" {
		fixtures, err = seed.Demo()
	} else {
		fixtures, err = seed.LoadFile(file)
	}
	if err != nil {
		return err
	}

	s := seed.NewSeeder(
		postgres.NewUserRepository(a.db),
		postgres.NewDoctorRepository(a.db),
		postgres.NewContentRepository(a.db),
		a.log,
	)
	_, err = s.Apply(ctx, fixtures)
	return err
}

func runNotifyWorker(ctx context.Context) error {
	a, err := bootstrap(ctx, "notify-worker")
	if err != nil {
		return err
	}
	defer a.close()

	d, err := a.deliverer()
	if err != nil {
		return err
	}
	consumer, err := notify.NewConsumer(a.cfg.Kafka, d, a.log)
	if err != nil {
		return err
	}
	defer consumer.Close()

	a.log.Info("consuming notices", zap.Strings("brokers", a.cfg.Kafka.Brokers), zap.String("topic", a.cfg.Kafka.Topic))
	return consumer.Run(ctx)
}

func runReminders(ctx context.Context, loop bool) error {
	a, err := bootstrap(ctx, "reminders")
	if err != nil {
		return err
	}
	defer a.close()

	dispatcher, stop, err := a.dispatcher()
	if err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		stop(stopCtx)
	}()

	reminders := service.NewReminderService(
		postgres.NewAppointmentRepository(a.db),
		postgres.NewUserRepository(a.db),
		dispatcher,
		a.cfg.Reminder.Window,
		a.log,
	)
	if loop {
		reminders.Start(ctx, a.cfg.Reminder.Interval)
		return nil
	}
	_, err = reminders.Run(ctx)
	return err
}
