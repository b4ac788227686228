package ingest

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// topicKeywords is the rule fallback used when no classifier is configured
// or the model call fails.
var topicKeywords = map[string][]string{
	"pricing":  {"price", "pricing", "cost", "quote", "eur"},
	"manuals":  {"manual", "guide", "instructions", "install", "datasheet"},
	"support":  {"error", "problem", "issue", "troubleshoot", "warranty"},
	"software": {"software", "update", "firmware", "license", "driver"},
}

// DefaultTopics returns the topic catalog used when none is configured.
func DefaultTopics() []string {
	topics := make([]string, 0, len(topicKeywords))
	for topic := range topicKeywords {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// classifyByKeywords scores each topic by keyword hits and returns the best
// one. Ties go to the lexically first topic so runs are reproducible.
func classifyByKeywords(text string) (string, float64) {
	lower := strings.ToLower(text)

	topics := make([]string, 0, len(topicKeywords))
	for topic := range topicKeywords {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	best, bestHits := "", 0
	for _, topic := range topics {
		hits := 0
		for _, kw := range topicKeywords[topic] {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = topic, hits
		}
	}
	if bestHits == 0 {
		return "", 0
	}
	return best, 0.6
}

// classification is one resolved topic judgment.
type classification struct {
	topic      string
	confidence float64
	source     string // model, cross_check or keywords
}

// classify resolves the document topic. A non-empty second return is a
// quarantine reason: the file must not enter the knowledge base.
func (p *Pipeline) classify(ctx context.Context, filename, text string) (classification, string) {
	sample := text
	if runes := []rune(sample); len(runes) > p.sampleLimit {
		sample = string(runes[:p.sampleLimit])
	}

	if p.classifier == nil {
		return p.keywordFallback(sample)
	}

	primary, err := p.classifier.Classify(ctx, filename, sample, p.topics)
	if err != nil {
		p.logger.Warn("classifier unavailable, falling back to keywords", "file", filename, "error", err)
		return p.keywordFallback(sample)
	}

	topic := strings.TrimSpace(strings.ToLower(primary.Category))
	if topic == "" || topic == "unclassified" {
		return classification{}, fmt.Sprintf("classifier returned %q (confidence %.2f)", topic, primary.Confidence)
	}
	if !p.knownTopic(topic) {
		return classification{}, fmt.Sprintf("topic %q is not in the catalog", topic)
	}

	result := classification{topic: topic, confidence: primary.Confidence, source: "model"}
	if primary.Confidence >= p.crossCheckThreshold || p.crossCheck == nil {
		return result, ""
	}

	second, err := p.crossCheck.Classify(ctx, filename, sample, p.topics)
	if err != nil {
		return classification{}, fmt.Sprintf("cross-check unavailable: %v", err)
	}
	secondTopic := strings.TrimSpace(strings.ToLower(second.Category))
	if secondTopic != topic {
		return classification{}, fmt.Sprintf(
			"classification disagreement: primary %q (%.2f), secondary %q (%.2f)",
			topic, primary.Confidence, secondTopic, second.Confidence)
	}
	result.source = "cross_check"
	return result, ""
}

func (p *Pipeline) keywordFallback(sample string) (classification, string) {
	topic, confidence := classifyByKeywords(sample)
	if topic == "" {
		return classification{}, "no keyword rule matched the document"
	}
	if !p.knownTopic(topic) {
		return classification{}, fmt.Sprintf("topic %q is not in the catalog", topic)
	}
	return classification{topic: topic, confidence: confidence, source: "keywords"}, ""
}

func (p *Pipeline) knownTopic(topic string) bool {
	for _, t := range p.topics {
		if t == topic {
			return true
		}
	}
	return false
}
