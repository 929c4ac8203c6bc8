package graph

import (
	"context"
	"errors"
	"strings"

	"github.com/readloom/readloom/pkg/ai"
	"github.com/readloom/readloom/pkg/common"
	"github.com/readloom/readloom/pkg/logger"
	"github.com/readloom/readloom/pkg/store"
)

// ErrNoNodePayloads signals that canonicalization produced an empty batch.
// The book node is always included for a record with a non-blank title, so
// seeing this error means the record itself was malformed, not that the
// analyzer came back empty.
var ErrNoNodePayloads = errors.New("no nodes to create")

// ErrBookNodeMissing signals that the book node could not be located among
// the rows returned by its own upsert. The rest of the pipeline hangs off
// that row, so this is a hard failure.
var ErrBookNodeMissing = errors.New("book node not found")

// Outcome reports one extraction run. Err is carried as data rather than
// raised so the caller decides on user-facing messaging and retry scheduling;
// the pipeline itself never retries.
type Outcome struct {
	Success       bool
	NodesInserted int
	EdgesInserted int
	Analysis      *common.AnalysisResult
	Err           error
}

// Extractor sequences one record through analysis, canonicalization and the
// two idempotent upserts. Safe for concurrent use: distinct records may be
// processed in parallel, serialization for same-label writes happens at the
// storage layer's conflict keys.
type Extractor struct {
	analyzer ai.GraphAnalyzer
	storage  store.GraphStorage
	opts     []ai.GenerateOption
}

// NewExtractor creates an Extractor bound to an analyzer and a graph store.
// Generate options are forwarded to every analyzer call, overriding the
// adapter's defaults (model, temperature).
func NewExtractor(analyzer ai.GraphAnalyzer, storage store.GraphStorage, opts ...ai.GenerateOption) *Extractor {
	return &Extractor{
		analyzer: analyzer,
		storage:  storage,
		opts:     opts,
	}
}

func failure(err error) Outcome {
	return Outcome{Success: false, Err: err}
}

// ProcessRecord runs the full extraction pipeline for one record. Analyzer
// failures abort before any write; a storage failure aborts the remaining
// steps and is surfaced verbatim. Zero edges is a valid success (the analyzer
// found nothing beyond the book); zero nodes is an invariant violation.
// Re-running the same record is safe and heals a crash between the node and
// edge upserts.
func (e *Extractor) ProcessRecord(ctx context.Context, record common.RecordInput) Outcome {
	analysis, err := e.analyzer.Analyze(ctx, ai.AnalyzerInput{
		Content:      record.Content,
		BookTitle:    record.BookTitle,
		UserKeywords: record.UserKeywords,
	}, e.opts...)
	if err != nil {
		return failure(err)
	}

	normalized := analysis.Normalize()
	nodePayloads := BuildNodePayloads(record, normalized)
	if len(nodePayloads) == 0 {
		return failure(ErrNoNodePayloads)
	}

	nodeRows, err := e.storage.UpsertNodes(ctx, nodePayloads)
	if err != nil {
		return failure(err)
	}

	bookNode, ok := findBookNode(record.UserID, record.BookTitle, nodeRows)
	if !ok {
		return failure(ErrBookNodeMissing)
	}

	edgePayloads := BuildEdgePayloads(record.UserID, bookNode, nodeRows, normalized, record)
	if len(edgePayloads) == 0 {
		return Outcome{
			Success:       true,
			NodesInserted: len(nodeRows),
			EdgesInserted: 0,
			Analysis:      &normalized,
		}
	}

	edgeRows, err := e.storage.UpsertEdges(ctx, edgePayloads)
	if err != nil {
		return failure(err)
	}

	logger.Debug("[Graph] Record extracted",
		"record_id", record.RecordID,
		"nodes", len(nodeRows),
		"edges", len(edgeRows),
	)

	return Outcome{
		Success:       true,
		NodesInserted: len(nodeRows),
		EdgesInserted: len(edgeRows),
		Analysis:      &normalized,
	}
}

func findBookNode(userID, bookTitle string, rows []common.NodeRow) (common.NodeRow, bool) {
	normalized := strings.TrimSpace(bookTitle)
	for _, row := range rows {
		if row.UserID == userID &&
			row.NodeType == common.NodeTypeBook &&
			strings.EqualFold(row.Label, normalized) {
			return row, true
		}
	}
	return common.NodeRow{}, false
}
