package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/triage-agent/internal/agentconfig"
	"github.com/lisanmuaddib/triage-agent/pkg/actions"
	"github.com/lisanmuaddib/triage-agent/pkg/agent"
	"github.com/lisanmuaddib/triage-agent/pkg/db"
	"github.com/lisanmuaddib/triage-agent/pkg/interfaces/twitter"
	"github.com/lisanmuaddib/triage-agent/pkg/llm/openai"
	"github.com/lisanmuaddib/triage-agent/pkg/lock"
	"github.com/lisanmuaddib/triage-agent/pkg/logging"
	"github.com/lisanmuaddib/triage-agent/pkg/masa/masatwitter"
	"github.com/lisanmuaddib/triage-agent/pkg/memory"
	"github.com/lisanmuaddib/triage-agent/pkg/metrics"
	"github.com/lisanmuaddib/triage-agent/pkg/notify"
	"github.com/lisanmuaddib/triage-agent/pkg/pipeline"
	"github.com/lisanmuaddib/triage-agent/pkg/thoughts"
)

func main() {
	configPath := flag.String("config", os.Getenv("AGENT_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := agentconfig.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}

	log := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := db.SetupDatabase(log, cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to set up database")
	}

	accounts := memory.NewAccountStore(log, database)
	items := memory.NewItemStore(log, database)
	drafts := memory.NewDraftStore(database)

	// Initialize OpenAI client
	openaiConfig, err := openai.NewOpenAIConfig(log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create OpenAI config")
	}
	llmClient, err := openai.NewClient(openaiConfig)
	if err != nil {
		log.WithError(err).Fatal("Failed to create OpenAI client")
	}

	feed, resolve, err := newFeed(cfg.FeedProvider, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create feed client")
	}

	seeded, err := agentconfig.SeedAccounts(ctx, accounts, resolve, cfg.Accounts, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to seed watched accounts")
	}

	var locker pipeline.Locker = lock.NewLocalLocker()
	if cfg.RedisURL != "" {
		redisLocker, err := lock.NewRedisLockerFromURL(ctx, cfg.RedisURL, "triage-agent:", cfg.Poll.LockTTL, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect lock store")
		}
		defer redisLocker.Close()
		locker = redisLocker
	}

	llm := llmClient.GetLLM()
	notifier := notify.NewLogNotifier(log, notify.DefaultMaxMessages)
	drafter := thoughts.NewDraftGenerator(llm, drafts, accounts, thoughts.DraftGeneratorConfig{
		Temperature: openaiConfig.DraftTemperature,
		Logger:      log,
	})

	poller, err := pipeline.NewPoller(pipeline.Config{
		Logger:   log,
		Accounts: accounts,
		Items:    items,
		Feed:     feed,
		Scorer: thoughts.NewRelevanceScorer(llm, thoughts.RelevanceScorerConfig{
			Criteria:    cfg.Scoring.Criteria,
			Temperature: openaiConfig.ScoringTemperature,
			MaxTokens:   openaiConfig.MaxTokens,
			Logger:      log,
		}),
		Drafts:         drafter,
		Notifier:       notifier,
		Locker:         locker,
		ChunkSize:      cfg.Poll.ChunkSize,
		Window:         cfg.Poll.Window,
		AccountTimeout: cfg.Poll.AccountTimeout,
		Concurrency:    cfg.Poll.Concurrency,
		MaxScoreBatch:  cfg.Poll.MaxScoreBatch,
		Threads:        cfg.Poll.ThreadConfig(),
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to create poller")
	}

	triageAgent, err := agent.New(agent.Config{
		Runner: poller,
		Logger: log,
		Tasks:  cfg.Poll.TaskConfigs(),
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to create agent")
	}

	// Operator button presses arrive from the chat front end
	dispatcher := actions.NewDispatcher(log,
		actions.NewApproveAction(pipeline.NewApprover(items, accounts, drafter, log)),
		actions.NewPageAction(pipeline.NewNavigator(items, accounts, notifier, log)),
	)
	metrics.StartServer(ctx, cfg.MetricsAddr, log, metrics.Route{
		Pattern: "/actions",
		Handler: actions.NewHTTPHandler(dispatcher),
	})

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Info("Received shutdown signal")
		cancel()
	}()

	log.WithFields(logrus.Fields{
		"seeded":   seeded,
		"feed":     cfg.FeedProvider,
		"schedule": cfg.Poll.Schedule,
		"chunk":    cfg.Poll.ChunkSize,
		"window":   cfg.Poll.Window.String(),
	}).Info("Starting triage agent")

	if err := triageAgent.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("Agent stopped with error")
	}

	log.Info("Agent shutdown complete")
}

// newFeed builds the configured feed backend and the handle resolver used for seeding.
func newFeed(provider string, log *logrus.Logger) (pipeline.FeedClient, agentconfig.UserResolver, error) {
	if provider == agentconfig.FeedMasa {
		masaConfig, err := masatwitter.NewConfig(log)
		if err != nil {
			return nil, nil, err
		}
		reader := masatwitter.NewFeedReader(masatwitter.NewClient(masaConfig))
		return reader, reader.ResolveUserID, nil
	}

	twitterConfig, err := twitter.NewTwitterConfig(log)
	if err != nil {
		return nil, nil, err
	}
	client, err := twitter.NewTwitterClient(twitterConfig)
	if err != nil {
		return nil, nil, err
	}
	resolve := func(ctx context.Context, handle string) (string, error) {
		user, err := client.GetUserByUsername(ctx, handle)
		if err != nil {
			return "", err
		}
		return user.ID, nil
	}
	return twitter.NewFeedReader(client), resolve, nil
}
