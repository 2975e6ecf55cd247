package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lessonforge/lesson-plan-agent/pkg/config"
	"github.com/lessonforge/lesson-plan-agent/pkg/domain"
	"github.com/lessonforge/lesson-plan-agent/pkg/graphstore"
	"github.com/lessonforge/lesson-plan-agent/pkg/llm"
	"github.com/lessonforge/lesson-plan-agent/pkg/observability"
	"github.com/lessonforge/lesson-plan-agent/pkg/retrieval"
	"github.com/lessonforge/lesson-plan-agent/pkg/skills"
	"github.com/lessonforge/lesson-plan-agent/pkg/workflow"
)

// Version information (set by build flags)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	var (
		configPath   = flag.String("config", "configs/default.yaml", "Path to configuration file")
		version      = flag.Bool("version", false, "Show version information")
		subject      = flag.String("subject", "", "Lesson subject")
		grade        = flag.String("grade", "", "Grade level")
		topic        = flag.String("topic", "", "Lesson topic")
		duration     = flag.Int("duration", 45, "Lesson duration in minutes")
		style        = flag.String("style", "", "Teaching style (optional)")
		requirements = flag.String("requirements", "", "Additional requirements (optional)")
		stream       = flag.Bool("stream", false, "Stream progress events as SSE to stdout")
	)
	flag.Parse()

	if *version {
		fmt.Printf("Lesson Plan Agent\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	cfg := config.LoadOrDefault(*configPath)
	observability.SetLogLevel(observability.ParseLevel(cfg.Observability.Logging.Level))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetry, err := initTelemetry(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize observability: %v", err)
	}
	defer func() {
		if err := telemetry.Shutdown(context.Background()); err != nil {
			log.Printf("Telemetry shutdown: %v", err)
		}
	}()

	orchestrator, err := buildOrchestrator(cfg, telemetry)
	if err != nil {
		log.Fatalf("Failed to initialize pipeline: %v", err)
	}

	req := domain.GenerationRequest{
		Subject:      *subject,
		Grade:        *grade,
		Topic:        *topic,
		Duration:     *duration,
		Style:        *style,
		Requirements: *requirements,
	}

	if *stream {
		progress := orchestrator.Stream(ctx, req)
		if err := workflow.WriteSSE(os.Stdout, progress.Events()); err != nil {
			log.Fatalf("Failed to write event stream: %v", err)
		}
		return
	}

	final := orchestrator.Run(ctx, req)
	if final.Error != "" {
		fmt.Fprintf(os.Stderr, "generation failed: %s\n", final.Error)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(final.Output, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode lesson plan: %v", err)
	}
	fmt.Println(string(out))
	fmt.Fprintf(os.Stderr, "tokens used: %d (prompt %d, completion %d)\n",
		final.Usage.TotalTokens, final.Usage.PromptTokens, final.Usage.CompletionTokens)
}

func initTelemetry(cfg *config.Config) (*observability.Telemetry, error) {
	telConfig := observability.DefaultConfig()
	telConfig.ServiceVersion = Version
	telConfig.OTLPEndpoint = cfg.Observability.Tracing.Endpoint
	telConfig.PrometheusPort = cfg.Observability.Metrics.Port
	telConfig.SamplingRate = cfg.Observability.Tracing.SamplingRate
	telConfig.EnableTracing = cfg.Observability.Tracing.Enabled
	telConfig.EnableMetrics = cfg.Observability.Metrics.Enabled
	return observability.NewTelemetry(telConfig)
}

func buildOrchestrator(cfg *config.Config, telemetry *observability.Telemetry) (*workflow.Orchestrator, error) {
	chat, embedder, err := buildLLM(cfg, telemetry)
	if err != nil {
		return nil, err
	}

	store := graphstore.NewMemoryStore()
	if cfg.Knowledge.Path != "" {
		if err := store.LoadFromFile(cfg.Knowledge.Path); err != nil {
			return nil, fmt.Errorf("failed to load knowledge graph: %w", err)
		}
	}

	engine, err := retrieval.NewEngine(cfg.Retrieval, store, embedder, telemetry)
	if err != nil {
		return nil, fmt.Errorf("failed to create retrieval engine: %w", err)
	}

	orchestrator, err := workflow.New(
		&workflow.Config{
			MinDuration: cfg.Workflow.MinDuration,
			MaxDuration: cfg.Workflow.MaxDuration,
			QueueSize:   cfg.Workflow.QueueSize,
		},
		engine,
		skills.NewObjectiveGenerator(chat, cfg.LLM.Model),
		skills.NewContentGenerator(chat, cfg.LLM.Model),
		skills.NewActivityGenerator(chat, cfg.LLM.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}
	if err := orchestrator.WithTelemetry(telemetry); err != nil {
		return nil, err
	}
	return orchestrator, nil
}

func buildLLM(cfg *config.Config, telemetry *observability.Telemetry) (domain.ChatClient, domain.Embedder, error) {
	switch cfg.LLM.Provider {
	case "ollama":
		client := llm.NewOllamaClient(cfg.LLM.BaseURL, cfg.LLM.Model, &llm.OllamaOptions{
			EmbeddingModel: cfg.LLM.EmbeddingModel,
			Timeout:        cfg.LLMTimeout(),
		})
		chat, err := llm.NewInstrumentedChatClient(client, telemetry, cfg.LLM.Model, "ollama")
		if err != nil {
			return nil, nil, err
		}
		return chat, client, nil
	case "openai":
		client, err := llm.NewOpenAIClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.EmbeddingModel)
		if err != nil {
			return nil, nil, err
		}
		chat, err := llm.NewInstrumentedChatClient(client, telemetry, cfg.LLM.Model, "openai")
		if err != nil {
			return nil, nil, err
		}
		var embedder domain.Embedder
		if cfg.LLM.EmbeddingModel != "" {
			embedder = client
		}
		return chat, embedder, nil
	default:
		return nil, nil, fmt.Errorf("unknown llm provider: %s", cfg.LLM.Provider)
	}
}
