package common

import "time"

// NodeType classifies a graph node. Every node belongs to exactly one type;
// the (user, type, label) triple identifies a node uniquely.
type NodeType string

const (
	NodeTypeBook    NodeType = "book"
	NodeTypeTopic   NodeType = "topic"
	NodeTypeEmotion NodeType = "emotion"
	NodeTypeAuthor  NodeType = "author"
	NodeTypeGenre   NodeType = "genre"
	NodeTypeKeyword NodeType = "keyword"
)

// NodeTypes lists all valid node types, used for filter parsing.
var NodeTypes = []NodeType{
	NodeTypeBook,
	NodeTypeTopic,
	NodeTypeEmotion,
	NodeTypeAuthor,
	NodeTypeGenre,
	NodeTypeKeyword,
}

// EdgeType classifies a graph edge. All edges run from a book node to one of
// its associated entity nodes.
type EdgeType string

const (
	EdgeTypeBookTopic   EdgeType = "book_topic"
	EdgeTypeBookEmotion EdgeType = "book_emotion"
	EdgeTypeBookAuthor  EdgeType = "book_author"
	EdgeTypeBookGenre   EdgeType = "book_genre"
	EdgeTypeBookKeyword EdgeType = "book_keyword"
)

// EdgeTypes lists all valid edge types, used for filter parsing.
var EdgeTypes = []EdgeType{
	EdgeTypeBookTopic,
	EdgeTypeBookEmotion,
	EdgeTypeBookAuthor,
	EdgeTypeBookGenre,
	EdgeTypeBookKeyword,
}

// Metadata is the open key/value map attached to a node. Known keys include
// "relevance", "intensity", "recordId", "aiSummary" and "sources" (a string
// array of provenance tags such as "user", "ai", "record").
type Metadata map[string]any

// MetadataKeySources is the provenance key that is union-merged instead of
// overwritten when two metadata maps are combined.
const MetadataKeySources = "sources"

// RecordInput is the unit of work for one extraction run: a single reading
// record whose free-text content should be folded into the user's graph.
// It is ephemeral and never persisted by the pipeline itself.
type RecordInput struct {
	RecordID     string   `json:"record_id"`
	UserID       string   `json:"user_id"`
	BookTitle    string   `json:"book_title"`
	Content      string   `json:"content"`
	UserKeywords []string `json:"user_keywords"`
}

// TopicInsight is one topic identified by the analyzer. Relevance, when
// present, is expected in [0,1] but is never trusted: edge weights clamp it.
type TopicInsight struct {
	Label     string   `json:"label"`
	Relevance *float64 `json:"relevance,omitempty"`
}

// EmotionInsight is one emotion identified by the analyzer.
type EmotionInsight struct {
	Label     string   `json:"label"`
	Intensity *float64 `json:"intensity,omitempty"`
}

// AnalysisResult is the structured output of the analyzer for one record.
// After Normalize all slice fields are non-nil.
type AnalysisResult struct {
	AISummary string           `json:"ai_summary,omitempty"`
	Topics    []TopicInsight   `json:"topics"`
	Emotions  []EmotionInsight `json:"emotions"`
	Authors   []string         `json:"authors"`
	Genres    []string         `json:"genres"`
	Keywords  []string         `json:"keywords"`
}

// Normalize returns a copy with every nil slice replaced by an empty one,
// guarding the pipeline against malformed upstream payloads.
func (a AnalysisResult) Normalize() AnalysisResult {
	if a.Topics == nil {
		a.Topics = []TopicInsight{}
	}
	if a.Emotions == nil {
		a.Emotions = []EmotionInsight{}
	}
	if a.Authors == nil {
		a.Authors = []string{}
	}
	if a.Genres == nil {
		a.Genres = []string{}
	}
	if a.Keywords == nil {
		a.Keywords = []string{}
	}
	return a
}

// NodePayload is a node upsert request. The store resolves it against the
// (user_id, node_type, lowercased label) conflict key, merging Metadata into
// any existing row.
type NodePayload struct {
	UserID   string   `json:"user_id"`
	NodeType NodeType `json:"node_type"`
	Label    string   `json:"label"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// NodeRow is a persisted node, including the id generated by the store on
// first insert.
type NodeRow struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	NodeType  NodeType  `json:"node_type"`
	Label     string    `json:"label"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EdgePayload is an edge upsert request keyed by
// (user_id, source, target, edge_type). Re-upserting refreshes the weight.
type EdgePayload struct {
	UserID   string   `json:"user_id"`
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	EdgeType EdgeType `json:"edge_type"`
	Weight   float64  `json:"weight"`
}

// EdgeRow is a persisted edge.
type EdgeRow struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	EdgeType  EdgeType  `json:"edge_type"`
	Weight    float64   `json:"weight"`
	CreatedAt time.Time `json:"created_at"`
}
