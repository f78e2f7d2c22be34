package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"podmatch/internal/config"
	"podmatch/internal/matcher"
	"podmatch/internal/metrics"
	"podmatch/internal/notify"
	"podmatch/internal/pods"
	"podmatch/internal/queue"
	"podmatch/internal/refdata"
	"podmatch/internal/roster"
	"podmatch/internal/store"
)

// Worker consumes match-run jobs, executes the matcher over a roster
// snapshot, stores the resulting pods, and notifies the webhook.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	catalog, err := refdata.LoadCatalog(cfg.RefDataDir)
	if err != nil {
		log.Fatalf("refdata load failed: %v", err)
	}
	badges, err := refdata.LoadBadges(cfg.RefDataDir)
	if err != nil {
		log.Fatalf("refdata load failed: %v", err)
	}

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatalf("schema bootstrap failed: %v", err)
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "podmatch:runs")
	}

	rosterRepo := roster.NewRepository(db.Client)
	podSvc := pods.NewService(pods.NewRepository(db.Client), badges)
	podRepo := pods.NewRepository(db.Client)
	hook := notify.New(cfg.NotifyWebhookURL, cfg.NotifySkip)

	if !cfg.NotifySkip {
		if err := hook.Health(ctx); err != nil {
			log.Printf("WARNING: notify webhook not available: %v", err)
		} else {
			log.Println("notify webhook connected")
		}
	}

	opts := matcher.Options{
		MinSize:          cfg.PodMinSize,
		MaxSize:          cfg.PodMaxSize,
		SizeBuffer:       cfg.PodSizeBuffer,
		MaxBalancePasses: cfg.BalanceMaxPasses,
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for match-run jobs...")
	for msg := range messages {
		if msg.Type != queue.TypeMatchRun {
			continue
		}
		runID := string(msg.Body)
		if err := executeRun(ctx, cfg, runID, rosterRepo, podSvc, podRepo, hook, catalog, opts, redisClient); err != nil {
			if errors.Is(err, store.ErrRunInProgress) {
				log.Printf("run %s skipped: %v", runID, err)
			} else {
				log.Printf("run %s failed: %v", runID, err)
			}
			metrics.MatchRuns.WithLabelValues("failed").Inc()
			continue
		}
		metrics.MatchRuns.WithLabelValues("ok").Inc()
	}

	log.Println("worker stopped")
}

func executeRun(
	ctx context.Context,
	cfg config.App,
	runID string,
	rosterRepo *roster.Repository,
	podSvc *pods.Service,
	podRepo *pods.Repository,
	hook *notify.Client,
	catalog *refdata.Catalog,
	opts matcher.Options,
	redisClient *store.Redis,
) error {
	lock := store.NewRunLock(redisClient.Client, cfg.MatchLockTTL)
	if err := lock.Acquire(ctx); err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(context.Background()); err != nil {
			log.Printf("run lock release failed: %v", err)
		}
	}()

	startedAt := time.Now().UTC()
	log.Printf("run %s: snapshotting roster", runID)

	snapshot, err := rosterRepo.Snapshot(ctx)
	if err != nil {
		return err
	}

	valid, rejected := roster.Normalize(snapshot, catalog)
	res := matcher.Run(valid, catalog, opts)

	// Validation exclusions belong in the same report as matcher
	// exclusions; nobody disappears from a run silently.
	pre := make([]matcher.Exclusion, 0, len(rejected))
	for _, ve := range rejected {
		pre = append(pre, matcher.Exclusion{
			ParticipantID: ve.ParticipantID,
			Reason:        ve.Field + ": " + ve.Reason,
		})
	}
	res.Report.Excluded = append(pre, res.Report.Excluded...)

	if err := podSvc.StoreResult(ctx, runID, startedAt, res); err != nil {
		return err
	}

	metrics.PodsBuilt.Set(float64(len(res.Pods)))
	metrics.RunWarnings.Set(float64(len(res.Report.Warnings)))
	metrics.RunExclusions.Set(float64(len(res.Report.Excluded)))

	for _, mp := range res.Pods {
		stored, err := podRepo.Get(ctx, mp.ID)
		if err != nil || stored == nil {
			continue
		}
		if err := hook.PodAssigned(ctx, *stored); err != nil {
			log.Printf("run %s: notify for pod %s failed: %v", runID, mp.ID, err)
		}
	}

	log.Printf("run %s: %d participants, %d pods, %d excluded, %d warnings",
		runID, len(snapshot), len(res.Pods), len(res.Report.Excluded), len(res.Report.Warnings))
	return nil
}
