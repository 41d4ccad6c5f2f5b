package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/iliyamo/qnova-vr-booking/internal/calendar"
	"github.com/iliyamo/qnova-vr-booking/internal/config"
	"github.com/iliyamo/qnova-vr-booking/internal/database"
	"github.com/iliyamo/qnova-vr-booking/internal/handler"
	"github.com/iliyamo/qnova-vr-booking/internal/notify"
	"github.com/iliyamo/qnova-vr-booking/internal/observability"
	"github.com/iliyamo/qnova-vr-booking/internal/payment"
	"github.com/iliyamo/qnova-vr-booking/internal/queue"
	"github.com/iliyamo/qnova-vr-booking/internal/repository"
	"github.com/iliyamo/qnova-vr-booking/internal/repository/memory"
	"github.com/iliyamo/qnova-vr-booking/internal/router"
	"github.com/iliyamo/qnova-vr-booking/internal/service"
)

// stores is the backend chosen by STORE_DRIVER.
type stores struct {
	slots    repository.SlotStore
	bookings repository.BookingStore
	booker   repository.SlotBooker
	contacts repository.ContactStore
	payments repository.PaymentStore
	ping     func(context.Context) error
	close    func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	log := observability.NewLogger(cfg.Tracing.ServiceName, cfg.Env)
	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	} else {
		log.Info("redis disabled or unreachable, rate limit and cache off")
	}

	sink, err := newSink(cfg, log)
	if err != nil {
		return err
	}
	notifier := notify.NewNotifier(sink, cfg.Notify.OwnerEmail, log)

	var dispatcher calendar.Dispatcher
	checks := map[string]handler.Check{"store": st.ping}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	switch cfg.Notify.Driver {
	case config.NotifyAMQP:
		pub := queue.NewPublisher(cfg.RabbitURL, cfg.Notify.Queue, cfg.Notify.Buffer, log)
		defer func() { _ = pub.Close() }()
		consumer := queue.NewConsumer(cfg.RabbitURL, cfg.Notify.Queue, notifier, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("notification consumer stopped", "err", err)
			}
		}()
		checks["rabbitmq"] = pub.Ping
		dispatcher = pub
	default:
		async := notify.NewAsyncDispatcher(notifier, cfg.Notify.Workers, cfg.Notify.Buffer, log)
		defer async.Close()
		dispatcher = async
	}

	policy := calendar.DefaultPolicy()
	cal := calendar.NewService(calendar.Deps{
		Slots:      st.slots,
		Bookings:   st.bookings,
		Booker:     st.booker,
		Dispatcher: dispatcher,
		Policy:     policy,
		Logger:     log,
	})
	bookings := service.NewBookingService(st.bookings, dispatcher, cfg.Location, log)
	contacts := service.NewContactService(st.contacts, log)
	testMode := service.NewTestModeService(cal, st.slots, st.bookings, cfg.Location, log)

	h := router.Handlers{
		Calendar: handler.NewCalendarHandler(cal, log),
		Bookings: handler.NewBookingHandler(bookings, log),
		Contact:  handler.NewContactHandler(contacts, log),
		Admin:    handler.NewAdminHandler(cfg, bookings, testMode, log),
		Checks:   checks,
	}
	if cfg.Stripe.SecretKey != "" {
		provider := payment.NewStripeProvider(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.Stripe.WebhookTolerance)
		payments := service.NewPaymentService(st.bookings, st.payments, provider, policy, cfg.Stripe.Currency, log)
		h.Payments = handler.NewPaymentHandler(payments, log)
	} else {
		log.Info("STRIPE_SECRET_KEY not set, payment routes disabled")
	}
	if cfg.AdminPasswordHash == "" {
		log.Warn("ADMIN_PASSWORD_HASH not set, admin login disabled")
	}

	e := router.New(cfg, h, rdb, log)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(e, "qnova-booking"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", srv.Addr, "env", cfg.Env, "store", cfg.StoreDriver, "notify", cfg.Notify.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

func openStores(ctx context.Context, cfg config.Config, log *slog.Logger) (stores, error) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn("using in-memory store, data is lost on restart")
		m := memory.New()
		return stores{
			slots:    m.Slots(),
			bookings: m.Bookings(),
			booker:   m.Bookings(),
			contacts: m.Contacts(),
			payments: m.Payments(),
			ping:     m.Ping,
			close:    func() error { return nil },
		}, nil
	}

	db, err := database.Open(cfg.DB)
	if err != nil {
		return stores{}, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return stores{}, err
	}
	br := repository.NewBookingRepo(db)
	return stores{
		slots:    repository.NewSlotRepo(db),
		bookings: br,
		booker:   br,
		contacts: repository.NewContactRepo(db),
		payments: repository.NewPaymentRepo(db),
		ping:     db.PingContext,
		close:    db.Close,
	}, nil
}

func newSink(cfg config.Config, log *slog.Logger) (notify.Sink, error) {
	if cfg.SMTP.Host == "" {
		log.Info("SMTP_HOST not set, booking emails are logged only")
		return notify.NewLogSink(log), nil
	}
	sink, err := notify.NewSMTPSink(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	if err != nil {
		return nil, err
	}
	return sink, nil
}
