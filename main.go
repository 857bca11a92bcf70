package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fabfab/rail-assist/answer"
	"github.com/fabfab/rail-assist/api"
	"github.com/fabfab/rail-assist/config"
	"github.com/fabfab/rail-assist/database"
	"github.com/fabfab/rail-assist/embeddings"
	"github.com/fabfab/rail-assist/ingestion"
	"github.com/fabfab/rail-assist/knowledge"
	"github.com/fabfab/rail-assist/level"
	"github.com/fabfab/rail-assist/llm"
	"github.com/fabfab/rail-assist/retrieval"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("load .env: %v", err)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()

	switch os.Args[1] {
	case "ingest":
		ingestCmd(cfg, logger, os.Args[2:])
	case "ask":
		askCmd(cfg, logger, os.Args[2:])
	case "serve":
		serveCmd(cfg, logger, os.Args[2:])
	case "clear":
		clearCmd(cfg, logger, os.Args[2:])
	default:
		logger.Printf("unknown command: %s", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func ingestCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("ingest", flag.ExitOnError)
	dataDir := flags.String("dir", cfg.DataDir, "path to directory containing maintenance documents")
	docType := flags.String("type", retrieval.TypeDoorControl, "document type to ingest as (railway or door_control)")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse ingest flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pgPool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pgPool.Close()

	neo4jDriver, err := database.NewNeo4jDriver(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPass)
	if err != nil {
		logger.Fatalf("neo4j connection: %v", err)
	}
	defer neo4jDriver.Close(ctx)

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}

	selector := retrieval.NewSelector(cfg.Retrieval)
	svc := ingestion.NewService(pgPool, neo4jDriver, embedder, selector, logger, cfg.Embeddings.Dimension)
	logger.Printf("ingesting documents from %s as %s using %s/%s embeddings", *dataDir, retrieval.Normalize(*docType), strings.ToUpper(cfg.Embeddings.Provider), cfg.Embeddings.Model)

	if err := svc.IngestDirectory(ctx, *dataDir, *docType); err != nil {
		logger.Fatalf("ingestion failed: %v", err)
	}
}

func askCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("ask", flag.ExitOnError)
	question := flags.String("question", "", "question to ask")
	docType := flags.String("type", retrieval.TypeDoorControl, "document type to search (railway, door_control or combined)")
	userLevel := flags.String("level", "", "user level (beginner or expert); empty auto-detects")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse ask flags: %v", err)
	}

	if strings.TrimSpace(*question) == "" {
		fmt.Print("Enter your question: ")
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			*question = scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			logger.Fatalf("read question: %v", err)
		}
	}

	var lvl level.Level
	if *userLevel != "" {
		parsed, err := level.Parse(*userLevel)
		if err != nil {
			logger.Fatalf("parse level: %v", err)
		}
		lvl = parsed
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, cleanup, err := buildAnswerService(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("service setup: %v", err)
	}
	defer cleanup()

	result, err := svc.Answer(ctx, *question, *docType, lvl)
	if err != nil {
		logger.Fatalf("answer failed: %v", err)
	}

	fmt.Println(result.Answer)
	fmt.Println()
	detected := ""
	if result.AutoDetected {
		detected = fmt.Sprintf(" (auto-detected, %s confidence)", result.Confidence)
	}
	fmt.Printf("Level: %s%s | %d chars\n", result.Level, detected, result.LengthChars)
	if len(result.Sources) > 0 {
		fmt.Println("Sources:")
		for idx, source := range result.Sources {
			fmt.Printf("%d. %s (%s)\n", idx+1, source.Title, source.Path)
			if source.ChunkCount > 0 {
				fmt.Printf("   Indexed chunks: %d\n", source.ChunkCount)
			}
			if source.LastPage > 0 {
				fmt.Printf("   Pages: %d-%d\n", source.FirstPage, source.LastPage)
			}
		}
	}
}

func serveCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := flags.String("addr", ":8080", "listen address")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse serve flags: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pgPool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pgPool.Close()

	neo4jDriver, err := database.NewNeo4jDriver(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPass)
	if err != nil {
		logger.Fatalf("neo4j connection: %v", err)
	}
	defer neo4jDriver.Close(ctx)

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		logger.Fatalf("embedder setup: %v", err)
	}

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		logger.Fatalf("llm setup: %v", err)
	}

	selector := retrieval.NewSelector(cfg.Retrieval)
	retriever := retrieval.NewRetriever(retrieval.NewPostgresVectorStore(pgPool), embedder, selector, logger)
	classifier := level.NewClassifier(level.DefaultTaxonomy())
	catalog := knowledge.NewCatalog(neo4jDriver)
	budget := answer.Budget{MaxChars: cfg.Answer.MaxChars, MaxWords: cfg.Answer.MaxWords, MaxRetries: cfg.Answer.MaxRetries}

	answerSvc := answer.NewService(classifier, retriever, catalog, llmClient, budget, cfg.Retrieval.K, logger)
	ingestSvc := ingestion.NewService(pgPool, neo4jDriver, embedder, selector, logger, cfg.Embeddings.Dimension)

	server := &http.Server{
		Addr:         *addr,
		Handler:      api.New(answerSvc, ingestSvc, cfg.DataDir, logger),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("server shutdown: %v", err)
		}
	}()

	logger.Printf("listening on %s", *addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("serve: %v", err)
	}
}

func clearCmd(cfg config.Config, logger *log.Logger, args []string) {
	flags := flag.NewFlagSet("clear", flag.ExitOnError)
	confirmed := flags.Bool("confirm", false, "skip confirmation prompt")
	if err := flags.Parse(args); err != nil {
		logger.Fatalf("parse clear flags: %v", err)
	}

	if !*confirmed {
		fmt.Print("This will permanently delete ingested documentation from Postgres and Neo4j. Continue? [y/N]: ")
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				logger.Fatalf("read confirmation: %v", err)
			}
			logger.Println("clear aborted")
			return
		}
		reply := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if reply != "y" && reply != "yes" {
			logger.Println("clear aborted")
			return
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pgPool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatalf("postgres connection: %v", err)
	}
	defer pgPool.Close()

	if _, err := pgPool.Exec(ctx, "TRUNCATE rag_chunks, rag_documents"); err != nil {
		logger.Fatalf("truncate postgres tables: %v", err)
	}
	logger.Println("cleared Postgres rag_documents and rag_chunks")

	neo4jDriver, err := database.NewNeo4jDriver(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPass)
	if err != nil {
		logger.Fatalf("neo4j connection: %v", err)
	}
	defer neo4jDriver.Close(ctx)

	if err := knowledge.Purge(ctx, neo4jDriver); err != nil {
		logger.Fatalf("clear neo4j: %v", err)
	}

	logger.Println("document catalog cleared")
}

// buildAnswerService wires the one-shot pipeline for the ask command. The
// returned cleanup closes the shared connections.
func buildAnswerService(ctx context.Context, cfg config.Config, logger *log.Logger) (*answer.Service, func(), error) {
	pgPool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres connection: %w", err)
	}

	neo4jDriver, err := database.NewNeo4jDriver(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPass)
	if err != nil {
		pgPool.Close()
		return nil, nil, fmt.Errorf("neo4j connection: %w", err)
	}

	cleanup := func() {
		pgPool.Close()
		if err := neo4jDriver.Close(context.Background()); err != nil {
			logger.Printf("close neo4j driver: %v", err)
		}
	}

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("embedder setup: %w", err)
	}

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("llm setup: %w", err)
	}

	selector := retrieval.NewSelector(cfg.Retrieval)
	retriever := retrieval.NewRetriever(retrieval.NewPostgresVectorStore(pgPool), embedder, selector, logger)
	classifier := level.NewClassifier(level.DefaultTaxonomy())
	catalog := knowledge.NewCatalog(neo4jDriver)
	budget := answer.Budget{MaxChars: cfg.Answer.MaxChars, MaxWords: cfg.Answer.MaxWords, MaxRetries: cfg.Answer.MaxRetries}

	return answer.NewService(classifier, retriever, catalog, llmClient, budget, cfg.Retrieval.K, logger), cleanup, nil
}

func printUsage() {
	fmt.Println("Usage: rail-assist <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  ingest   Ingest maintenance documents into Postgres/Neo4j (use --dir and --type)")
	fmt.Println("  ask      Answer a question from the ingested documentation")
	fmt.Println("  serve    Run the HTTP API")
	fmt.Println("  clear    Remove ingested data from Postgres/Neo4j")
}
