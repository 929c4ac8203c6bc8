package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/readloom/readloom/internal/queue"
	"github.com/readloom/readloom/internal/util"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"

	"github.com/readloom/readloom/pkg/ai"
	gem "github.com/readloom/readloom/pkg/ai/gemini"
	oll "github.com/readloom/readloom/pkg/ai/ollama"
	oai "github.com/readloom/readloom/pkg/ai/openai"
	"github.com/readloom/readloom/pkg/logger"
	"github.com/readloom/readloom/pkg/logger/console"

	"github.com/jackc/pgx/v5/pgxpool"
)

func newAnalyzer(ctx context.Context) ai.GraphAnalyzer {
	adapter := util.GetEnv("AI_ADAPTER")

	switch adapter {
	case "ollama":
		client, err := oll.NewGraphOllamaAnalyzer(oll.NewGraphOllamaAnalyzerParams{
			ExtractionModel: util.GetEnv("AI_EXTRACT_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 4)),
		})
		if err != nil {
			logger.Fatal("Could not create Ollama client", "err", err)
		}
		return client
	case "gemini":
		client, err := gem.NewGraphGeminiAnalyzer(ctx, gem.NewGraphGeminiAnalyzerParams{
			ExtractionModel: util.GetEnv("AI_EXTRACT_MODEL"),
			ApiKey:          util.GetEnv("AI_CHAT_KEY"),
		})
		if err != nil {
			logger.Fatal("Could not create Gemini client", "err", err)
		}
		return client
	default:
		return oai.NewGraphOpenAIAnalyzer(oai.NewGraphOpenAIAnalyzerParams{
			ExtractionModel: util.GetEnv("AI_EXTRACT_MODEL"),

			ChatURL: util.GetEnv("AI_CHAT_URL"),
			ChatKey: util.GetEnv("AI_CHAT_KEY"),
		})
	}
}

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	aiClient := newAnalyzer(ctx)

	// Init pgx client
	pgConn, err := util.RetryWithContext(ctx, 5, func(ctx context.Context) (*pgxpool.Pool, error) {
		pool, err := pgxpool.New(ctx, util.GetEnv("DATABASE_URL"))
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return pool, nil
	})
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pgConn.Close()

	// Init rabbitmq
	conn := queue.Init()
	defer conn.Close()

	// Init rabbitmq queues if not exist
	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	queues := []string{queue.ExtractQueue}
	if err := queue.SetupQueues(ch, queues); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	logger.Info("Listening for messages")

	concurrency := int(util.GetEnvNumeric("WORKER_CONCURRENCY", 1))
	if concurrency < 1 {
		concurrency = 1
	}

	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	// Prefetch matches concurrency so the broker never hands us more
	// messages than we are willing to process at once.
	err = consumerCh.Qos(concurrency, 0, false)
	if err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := consumerCh.Consume(
		queue.ExtractQueue,
		fmt.Sprintf("%s_consumer", queue.ExtractQueue),
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.ExtractQueue, "err", err)
	}

	group := new(errgroup.Group)
	group.SetLimit(concurrency)

loop:
	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping consumer", "queue", queue.ExtractQueue)
			break loop
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("Message channel closed", "queue", queue.ExtractQueue)
				break loop
			}

			group.Go(func() error {
				startTime := time.Now()
				logger.Info("Received message", "queue", queue.ExtractQueue)

				processingErr := queue.ProcessExtractMessage(ctx, aiClient, pgConn, string(msg.Body))

				// If there was an error send to retry or dead-letter, otherwise ack the message
				if processingErr != nil {
					logger.Error("Error processing message", "queue", queue.ExtractQueue, "err", processingErr)
					handleProcessingError(consumerCh, msg, queue.ExtractQueue)
				} else {
					if err := msg.Ack(false); err != nil {
						logger.Error("Failed to ack message", "err", err)
					}
					logger.Info("Message processed successfully", "queue", queue.ExtractQueue)
				}

				metrics := aiClient.GetMetrics()
				processingDuration := time.Since(startTime)
				logger.Info(
					"AI Metrics",
					"input_tokens", metrics.InputTokens,
					"output_tokens", metrics.OutputTokens,
					"total_tokens", metrics.TotalTokens,
					"duration", fmt.Sprintf("%.1fs", processingDuration.Seconds()),
				)
				aiClient.ResetMetrics()
				return nil
			})
		}
	}

	if err := group.Wait(); err != nil {
		logger.Error("Worker group error", "err", err)
	}
	logger.Info("Shutdown signal received, exiting...")
}

func handleProcessingError(ch *amqp.Channel, msg amqp.Delivery, queueName string) {
	retries := 0
	if val, ok := msg.Headers["x-retries"]; ok {
		if v, ok := val.(int32); ok {
			retries = int(v)
		}
	}

	// If message has been retried 10 times, send to dead-letter
	if retries >= 10 {
		dlqName := queueName + "_dlq"
		logger.Info("Sending message to DLQ", "dlq", dlqName)
		pubErr := ch.Publish(
			"",
			dlqName,
			false,
			false,
			amqp.Publishing{
				ContentType: "application/json",
				Body:        msg.Body,
				Headers:     msg.Headers,
			},
		)
		if pubErr != nil {
			logger.Error("Failed to publish to DLQ", "dlq", dlqName, "err", pubErr)
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
		return
	}

	retryName := queueName + "_retry"
	headers := msg.Headers
	if headers == nil {
		headers = amqp.Table{}
	}
	headers["x-retries"] = retries + 1

	pubErr := ch.Publish(
		"",
		retryName,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        msg.Body,
			Headers:     headers,
		},
	)
	if pubErr != nil {
		logger.Error("Failed to publish to retry queue", "retry_queue", retryName, "err", pubErr)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}
