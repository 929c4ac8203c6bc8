package queue

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/readloom/readloom/internal/util"
	"github.com/readloom/readloom/pkg/ai"
	"github.com/readloom/readloom/pkg/common"
	"github.com/readloom/readloom/pkg/graph"
	"github.com/readloom/readloom/pkg/logger"
	graphstorage "github.com/readloom/readloom/pkg/store/pgx"

	"github.com/jackc/pgx/v5/pgxpool"
)

// generateOptions builds analyzer overrides from the environment. Unset
// variables leave the adapter defaults in place.
func generateOptions() []ai.GenerateOption {
	var opts []ai.GenerateOption
	if model := util.GetEnv("AI_EXTRACT_MODEL_OVERRIDE"); model != "" {
		opts = append(opts, ai.WithModel(model))
	}
	if temp := util.GetEnvNumeric("AI_TEMPERATURE", -1); temp >= 0 {
		opts = append(opts, ai.WithTemperature(temp))
	}
	return opts
}

// ProcessExtractMessage handles one message from the extract queue: a JSON
// encoded record to be folded into the owning user's graph. A returned error
// sends the message into the retry/dead-letter cycle; the pipeline itself
// never retries.
func ProcessExtractMessage(
	ctx context.Context,
	aiClient ai.GraphAnalyzer,
	conn *pgxpool.Pool,
	msg string,
) error {
	record := new(common.RecordInput)
	if err := json.Unmarshal([]byte(msg), record); err != nil {
		return err
	}

	if record.RecordID == "" || record.UserID == "" || record.BookTitle == "" {
		return errors.New("record message missing record_id, user_id or book_title")
	}

	record.Content = util.SanitizePostgresText(record.Content)
	record.BookTitle = util.SanitizePostgresText(record.BookTitle)
	for i, keyword := range record.UserKeywords {
		record.UserKeywords[i] = util.SanitizePostgresText(keyword)
	}

	storage := graphstorage.NewGraphDBStorage(conn)
	extractor := graph.NewExtractor(aiClient, storage, generateOptions()...)

	outcome := extractor.ProcessRecord(ctx, *record)
	if !outcome.Success {
		return outcome.Err
	}

	logger.Info(
		"[Queue] Record extracted",
		"record_id", record.RecordID,
		"user_id", record.UserID,
		"nodes", outcome.NodesInserted,
		"edges", outcome.EdgesInserted,
	)

	return nil
}
