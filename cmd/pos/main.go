package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/middleware"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/warungclub/warung/internal/attendance"
	"github.com/warungclub/warung/internal/auth"
	"github.com/warungclub/warung/internal/localcache"
	"github.com/warungclub/warung/internal/mongo"
	"github.com/warungclub/warung/internal/order"
	"github.com/warungclub/warung/internal/printer"
	"github.com/warungclub/warung/internal/shift"
	"github.com/warungclub/warung/internal/stock"
	possync "github.com/warungclub/warung/internal/sync"
	"github.com/warungclub/warung/internal/ws"
	"github.com/warungclub/warung/pkg"
	"github.com/warungclub/warung/pkg/event"
)

const (
	appNamespace = "POS"
	appName      = "pos"
	appVersion   = "0.1.0"
)

func main() {
	_ = godotenv.Load()

	config, err := apt.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("%s(%s) cannot setup: %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := apt.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	branchStr, _ := config.GetString("branch.id")
	branchID, err := uuid.Parse(branchStr)
	if err != nil {
		log.Fatalf("%s(%s) invalid branch.id %q: %v", appName, appVersion, branchStr, err)
	}

	hostname, _ := os.Hostname()
	terminalID := config.GetStringOrDef("terminal.id", hostname)
	if terminalID == "" {
		terminalID = uuid.New().String()
	}

	baseRepo := mongo.NewBaseRepo(config, logger)
	err = baseRepo.Start(ctx)
	if err != nil {
		log.Fatalf("%s(%s) cannot start base repository: %v", appName, appVersion, err)
	}

	db := baseRepo.GetDatabase()
	if db == nil {
		log.Fatalf("%s(%s) cannot initialize repository database: %v", appName, appVersion, errors.New("repository database is nil"))
	}

	orderRepo := mongo.NewOrderRepo(db)
	shiftRepo := mongo.NewShiftRepo(db)
	summaryRepo := mongo.NewSummaryRepo(db)
	expenseRepo := mongo.NewExpenseRepo(db)
	menuItemRepo := mongo.NewMenuItemRepo(db)
	ingredientRepo := mongo.NewIngredientRepo(db)
	categoryRepo := mongo.NewCategoryRepo(db)
	profileRepo := mongo.NewProfileRepo(db)
	staffRepo := mongo.NewStaffRepo(db)
	attendanceRepo := mongo.NewAttendanceRepo(db)

	natsURL := config.GetStringOrDef("nats.url", "nats://localhost:4222")

	pub, err := pkg.NewNATSPublisher(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS publisher: %v", appName, appVersion, err)
	}

	sub, err := pkg.NewNATSSubscriber(natsURL)
	if err != nil {
		log.Fatalf("%s(%s) cannot connect to NATS subscriber: %v", appName, appVersion, err)
	}
	sub.OnHandlerError(func(topic string, err error) {
		logger.Error("event handler failed", "topic", topic, "error", err)
	})

	cacheDir := config.GetStringOrDef("cache.dir", "./data/cache")
	cache, err := localcache.New(cacheDir, logger)
	if err != nil {
		log.Fatalf("%s(%s) cannot create local cache at %s: %v", appName, appVersion, cacheDir, err)
	}

	orderView := possync.NewOrderView(branchID, orderRepo, cache, logger)
	if err := orderView.Warm(ctx); err != nil {
		logger.Error("cannot warm branch order view", "error", err)
	}

	// Order events flow through a durable JetStream consumer when enabled,
	// so a terminal that was offline replays what it missed before going
	// live. Plain NATS otherwise.
	var orderEventSource events.Subscriber = sub
	var orderStream *pkg.NATSStream
	if config.GetStringOrDef("nats.stream", "false") == "true" {
		orderStream, err = pkg.NewNATSStream(pkg.NATSStreamConfig{
			URL:          natsURL,
			StreamName:   "POS_ORDERS",
			Topic:        event.OrdersTopic,
			ConsumerName: "terminal-" + terminalID,
			MaxAge:       7 * 24 * time.Hour,
		})
		if err != nil {
			log.Fatalf("%s(%s) cannot connect to NATS order stream: %v", appName, appVersion, err)
		}
		orderEventSource = orderStream
	}

	hub := ws.NewHub(logger)

	orderSub := possync.NewOrderSubscriber(orderEventSource, orderView, branchID, logger)
	orderSub.SetBroadcaster(hub)

	masterData := possync.NewMasterDataSyncer(branchID, terminalID, pub, cache, logger)
	masterDataSub := possync.NewMasterDataSubscriber(sub, masterData, logger)

	superPINHash, _ := config.GetString("auth.super_pin_hash")
	gate := auth.NewGate(staffRepo, superPINHash, logger)

	stockLedger := stock.NewLedger(ingredientRepo, menuItemRepo, logger)
	shiftLedger := shift.NewLedger(shiftRepo, summaryRepo, expenseRepo, orderRepo, pub, logger)

	orderService := order.NewService(order.ServiceDeps{
		Orders:    orderRepo,
		Shifts:    shiftLedger,
		Stock:     stockLedger,
		Gate:      gate,
		Profiles:  profileRepo,
		Publisher: pub,
		Pending:   orderView,
	}, logger)

	attendanceService := attendance.NewService(attendanceRepo, gate, pub, logger)

	spoolPath := config.GetStringOrDef("printer.spool", "./data/spool/jobs.txt")
	if err := os.MkdirAll(filepath.Dir(spoolPath), 0o755); err != nil {
		log.Fatalf("%s(%s) cannot create print spool directory: %v", appName, appVersion, err)
	}
	spool, err := os.OpenFile(spoolPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Fatalf("%s(%s) cannot open print spool at %s: %v", appName, appVersion, spoolPath, err)
	}
	receiptPrinter := printer.NewPrinter(spool)

	orderHandler := order.NewHandler(orderService, orderRepo, logger)
	shiftHandler := shift.NewHandler(shiftLedger, logger)
	attendanceHandler := attendance.NewHandler(attendanceService, logger)
	printHandler := printer.NewHandler(receiptPrinter, orderRepo, summaryRepo, profileRepo, logger)

	warmup := apt.LifecycleHooks{
		OnStart: possync.MasterDataWarmupFunc(branchID, masterData, possync.CatalogSources{
			MenuItems:   menuItemRepo,
			Categories:  categoryRepo,
			Ingredients: ingredientRepo,
			Profiles:    profileRepo,
		}, logger),
	}

	publisherLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return pub.Close()
		},
	}

	subLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return sub.Close()
		},
	}

	hubLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			hub.Close()
			return nil
		},
	}

	spoolLifecycle := apt.LifecycleHooks{
		OnStop: func(context.Context) error {
			return spool.Close()
		},
	}

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger: logger,
	})

	lifecycles := []interface{}{
		apt.LifecycleHooks{OnStop: baseRepo.Stop},
		warmup,
		orderSub,
		masterDataSub,
		publisherLifecycle,
		subLifecycle,
		hubLifecycle,
		spoolLifecycle,
	}
	if orderStream != nil {
		lifecycles = append(lifecycles, apt.LifecycleHooks{
			OnStop: func(context.Context) error {
				return orderStream.Close()
			},
		})
	}

	options := []apt.Option{
		apt.WithConfig(config),
		apt.WithLogger(logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", orderHandler, shiftHandler, attendanceHandler, printHandler, hub),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(appName),
	}

	ms := apt.NewMicro(options...)
	logger.Infof("Starting %s(%s) terminal %s branch %s", appName, appVersion, terminalID, branchID)

	err = ms.Run(ctx)
	if err != nil {
		_ = baseRepo.Stop(context.Background())
		log.Fatalf("%s(%s) stopped: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
