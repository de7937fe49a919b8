package main

import (
	"context"
	"log"
	"os"

	"vestiapi/dbhelper"
	"vestiapi/services"
	"vestiapi/tasks"
	"vestiapi/telegram"

	firebase "firebase.google.com/go/v4"
	"github.com/hibiken/asynq"
)

func runScheduler() {

	scheduler := asynq.NewScheduler(asynq.RedisClientOpt{Addr: os.Getenv("ASYNC_BROKER_ADDRESS")}, &asynq.SchedulerOpts{

		LogLevel: asynq.InfoLevel,
	})

	sweepTask, err := tasks.NewRetentionSweepTask()
	if err != nil {
		log.Fatalf("Failed to build retention sweep task: %v", err)
	}

	scheduled := []struct {
		cron string
		task *asynq.Task
		desc string
	}{
		{
			cron: "0 4 * * *", // 4:00 AM daily
			task: sweepTask,
			desc: "Retention sweep",
		},
	}

	for _, t := range scheduled {
		entryID, err := scheduler.Register(t.cron, t.task)
		if err != nil {
			log.Fatalf("Failed to register task '%s': %v", t.desc, err)
		}
		log.Printf("Registered task '%s' with ID: %s, cron: %s", t.desc, entryID, t.cron)
	}

	log.Println("Starting scheduler...")
	if err := scheduler.Run(); err != nil {
		log.Fatalf("Scheduler failed: %v", err)
	}
}

func main() {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: os.Getenv("ASYNC_BROKER_ADDRESS")},
		asynq.Config{Concurrency: 10, Queues: map[string]int{
			"analyze": 7,
			"default": 3,
		}},
	)
	awsService := &services.AWSService{}
	err := awsService.InitPresignClient(context.Background())
	if err != nil {
		log.Fatal("[Queue] Failed to initialize AWS provider: S3")
	}
	app, err := firebase.NewApp(context.Background(), nil)
	if err != nil {
		log.Fatalf("error initializing firebase app: %v\n", err)
		return
	}
	analyzer := services.NewItemAnalyzer(&services.GeminiStylist{Model: services.Flash25})

	mux := asynq.NewServeMux()
	db := dbhelper.SetupDB()
	mux.HandleFunc("analyze:item", func(ctx context.Context, t *asynq.Task) error {
		return tasks.HandleItemAnalysisTask(ctx, t, db, analyzer, awsService, app)
	})
	mux.HandleFunc("maintenance:retention_sweep", func(ctx context.Context, t *asynq.Task) error {
		return tasks.HandleRetentionSweepTask(ctx, t, db)
	})

	if os.Getenv("TELEGRAM_BOT") == "true" {
		go telegram.RunAdminBot(db)
	}

	go runScheduler()
	if err := srv.Run(mux); err != nil {
		log.Fatal(err)
	}
}
