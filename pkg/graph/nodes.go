package graph

import (
	"fmt"
	"strings"

	"github.com/readloom/readloom/pkg/common"
)

// NodeKey builds the canonical identity key for a node: user id, node type
// and the trimmed label compared case-insensitively. The same key is used for
// in-batch deduplication and for resolving persisted rows back to labels, so
// the two sides can never disagree on identity.
func NodeKey(userID string, nodeType common.NodeType, label string) string {
	return fmt.Sprintf("%s:%s:%s", userID, nodeType, strings.ToLower(strings.TrimSpace(label)))
}

func sourceList(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// MergeMetadata shallow-merges incoming over existing: incoming keys win on
// scalar collision, except "sources", which becomes the deduplicated union of
// both sides so provenance is additive and never overwritten. The union is
// commutative and associative, which keeps concurrent upserts of the same
// node safe under any interleaving.
func MergeMetadata(existing, incoming common.Metadata) common.Metadata {
	if existing == nil {
		return incoming
	}
	if incoming == nil {
		return existing
	}

	merged := make(common.Metadata, len(existing)+len(incoming))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range incoming {
		merged[k] = v
	}

	existingSources := sourceList(existing[common.MetadataKeySources])
	incomingSources := sourceList(incoming[common.MetadataKeySources])
	if len(existingSources) > 0 || len(incomingSources) > 0 {
		seen := make(map[string]struct{}, len(existingSources)+len(incomingSources))
		union := make([]string, 0, len(existingSources)+len(incomingSources))
		for _, s := range existingSources {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			union = append(union, s)
		}
		for _, s := range incomingSources {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			union = append(union, s)
		}
		merged[common.MetadataKeySources] = union
	}

	return merged
}

// BuildNodePayloads canonicalizes one record's analysis plus the user-supplied
// keywords into a deduplicated set of node upsert payloads. Labels are
// trimmed; empty labels are discarded; duplicates within the batch merge
// their metadata per MergeMetadata. Every record yields at least its book
// node; a record whose title is blank after trimming cannot, so it yields
// nothing at all rather than entity nodes orphaned from their book. Order of
// the returned slice is not guaranteed.
func BuildNodePayloads(record common.RecordInput, analysis common.AnalysisResult) []common.NodePayload {
	if strings.TrimSpace(record.BookTitle) == "" {
		return nil
	}

	byKey := make(map[string]int)
	payloads := make([]common.NodePayload, 0, 8)

	addNode := func(nodeType common.NodeType, label string, metadata common.Metadata) {
		normalized := strings.TrimSpace(label)
		if normalized == "" {
			return
		}

		key := NodeKey(record.UserID, nodeType, normalized)
		if idx, ok := byKey[key]; ok {
			payloads[idx].Metadata = MergeMetadata(payloads[idx].Metadata, metadata)
			return
		}

		byKey[key] = len(payloads)
		payloads = append(payloads, common.NodePayload{
			UserID:   record.UserID,
			NodeType: nodeType,
			Label:    normalized,
			Metadata: metadata,
		})
	}

	bookMeta := common.Metadata{
		"recordId":                record.RecordID,
		"aiSummary":               nil,
		common.MetadataKeySources: []string{"record"},
	}
	if analysis.AISummary != "" {
		bookMeta["aiSummary"] = analysis.AISummary
	}
	addNode(common.NodeTypeBook, record.BookTitle, bookMeta)

	for _, topic := range analysis.Topics {
		meta := common.Metadata{common.MetadataKeySources: []string{"ai"}}
		if topic.Relevance != nil {
			meta["relevance"] = *topic.Relevance
		}
		addNode(common.NodeTypeTopic, topic.Label, meta)
	}

	for _, emotion := range analysis.Emotions {
		meta := common.Metadata{common.MetadataKeySources: []string{"ai"}}
		if emotion.Intensity != nil {
			meta["intensity"] = *emotion.Intensity
		}
		addNode(common.NodeTypeEmotion, emotion.Label, meta)
	}

	for _, author := range analysis.Authors {
		addNode(common.NodeTypeAuthor, author, common.Metadata{common.MetadataKeySources: []string{"ai"}})
	}

	for _, genre := range analysis.Genres {
		addNode(common.NodeTypeGenre, genre, common.Metadata{common.MetadataKeySources: []string{"ai"}})
	}

	// A keyword may arrive from the user, the analyzer, or both; its sources
	// reflect every stream that produced it.
	for _, keyword := range record.UserKeywords {
		addNode(common.NodeTypeKeyword, keyword, common.Metadata{common.MetadataKeySources: []string{"user"}})
	}
	for _, keyword := range analysis.Keywords {
		addNode(common.NodeTypeKeyword, keyword, common.Metadata{common.MetadataKeySources: []string{"ai"}})
	}

	return payloads
}
