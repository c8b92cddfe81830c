package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"

	"loandesk.org/internal/auth"
	"loandesk.org/internal/contract"
	"loandesk.org/internal/httpapi"
	"loandesk.org/internal/migrate"
	"loandesk.org/internal/notify"
	"loandesk.org/internal/obs"
	"loandesk.org/internal/results"
	"loandesk.org/internal/scorer"
)

var version = "0.3.1"

func main() {
	obs.Init()

	secret := os.Getenv("LOANDESK_AUTH_SECRET")
	if secret == "" {
		log.Fatal("missing LOANDESK_AUTH_SECRET")
	}

	addr := os.Getenv("LOANDESK_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	modelPath := os.Getenv("LOANDESK_MODEL_PATH")
	if modelPath == "" {
		modelPath = "ops/models/risk_model.json"
	}

	// Persistent stores when a DSN is configured, in-memory otherwise.
	var (
		db            *sql.DB
		authStore     auth.Store
		contractStore contract.Store
		notifyStore   notify.Store
		resultsStore  results.Store
	)
	if dsn := os.Getenv("LOANDESK_PG_DSN"); dsn != "" {
		var err error
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		mgr := migrate.NewManager(db, "ops/migrations/sql", "ops/migrations/seeds")
		if err := mgr.Up(ctx); err != nil {
			cancel()
			log.Fatalf("migrate: %v", err)
		}
		cancel()

		authStore = auth.NewPGStore(db)
		contractStore = contract.NewPGStore(db)
		notifyStore = notify.NewPGStore(db)
		resultsStore = results.NewPGStore(db)
	} else {
		log.Print("LOANDESK_PG_DSN not set, using in-memory stores")
		authMem := auth.NewMemoryStore()
		contractMem := contract.NewMemoryStore()
		notifyMem := notify.NewMemoryStore()
		// Mirror the SQL store's cascading user delete across the
		// separate in-memory stores.
		authMem.SetDeleteCascade(func(ctx context.Context, username string) {
			if _, err := contractMem.DeleteByOwner(ctx, username); err != nil {
				log.Printf("cascade contracts for %s: %v", username, err)
			}
			if _, err := notifyMem.DeleteByRecipient(ctx, username); err != nil {
				log.Printf("cascade notifications for %s: %v", username, err)
			}
		})
		authStore = authMem
		contractStore = contractMem
		notifyStore = notifyMem
		resultsStore = results.NewMemoryStore()
	}

	issuer, err := auth.NewIssuer(secret)
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}
	authSvc, err := auth.NewService(authStore, issuer)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	notifySvc := notify.NewService(notifyStore)
	contractSvc := contract.NewService(contractStore,
		contract.WithNotifier(notifySvc),
		contract.WithUserDirectory(authSvc),
	)
	resultsSvc := results.NewService(resultsStore)
	models := scorer.NewCache(modelPath)
	if err := models.Load(); err != nil {
		log.Printf("model load deferred: %v", err)
	}

	readyProbe := httpapi.ReadyProbe{DB: db}
	api := httpapi.New(httpapi.Config{
		Auth:          authSvc,
		Contracts:     contractSvc,
		Notifications: notifySvc,
		Results:       resultsSvc,
		Models:        models,
		ReadyProbe:    readyProbe,
		Version:       version,
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var grpcSrv *grpc.Server
	if grpcAddr := os.Getenv("LOANDESK_GRPC_ADDR"); grpcAddr != "" {
		lis, err := net.Listen("tcp", grpcAddr)
		if err != nil {
			log.Fatalf("grpc listen: %v", err)
		}
		grpcSrv = grpc.NewServer()
		grpc_health_v1.RegisterHealthServer(grpcSrv, httpapi.NewHealthServer(readyProbe))
		go func() {
			if err := grpcSrv.Serve(lis); err != nil {
				log.Fatalf("grpc serve: %v", err)
			}
		}()
		log.Printf("gRPC health on %s", grpcAddr)
	}

	// Hourly ledger cleanup: drops revocation entries past their expiry.
	purgeCtx, purgeCancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-purgeCtx.Done():
				return
			case <-ticker.C:
				if n, err := authSvc.PurgeExpiredRevocations(purgeCtx); err != nil {
					log.Printf("purge revocations: %v", err)
				} else if n > 0 {
					log.Printf("purged %d expired revocations", n)
				}
			}
		}
	}()

	log.Printf("Starting loandesk-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	obs.SetReady(true)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	obs.SetReady(false)
	purgeCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
