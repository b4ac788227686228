// Package ingest builds the knowledge base: it scans a directory of source
// documents, extracts and cleans their text, classifies each file into a
// topic with an optional second-model cross-check, chunks the text and
// writes the chunks to a knowledge store and an optional JSONL export.
// Files the pipeline cannot trust are quarantined instead of stored.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sweetpotato0/convodesk/knowledge"
	"github.com/sweetpotato0/convodesk/llm"
	"github.com/sweetpotato0/convodesk/pkg/logging"
)

// sourceExtensions are the file types the scanner picks up.
var sourceExtensions = map[string]bool{
	".html": true,
	".htm":  true,
	".txt":  true,
	".md":   true,
}

// Classifier resolves a document sample to a topic from the catalog.
type Classifier interface {
	Classify(ctx context.Context, filename, text string, topics []string) (*llm.DocClassification, error)
}

// Enricher generates retrieval aids for one chunk.
type Enricher interface {
	Enrich(ctx context.Context, text string) (*llm.Enrichment, error)
}

// Config wires the pipeline's collaborators and bounds.
type Config struct {
	Topics              []string         // topic catalog, nil selects DefaultTopics
	Classifier          Classifier       // primary topic model, nil uses the keyword rules
	CrossCheck          Classifier       // second opinion below the threshold, nil skips it
	CrossCheckThreshold float64          // confidence requiring no second opinion, zero selects 0.95
	Enricher            Enricher         // optional chunk summaries
	Chunker             Chunker          // nil selects the paragraph chunker
	Writer              knowledge.Writer // destination store, nil skips storing
	OutputPath          string           // JSONL export, empty skips the export
	QuarantineDir       string           // where rejected files are copied, empty disables copies
	Workers             int              // concurrent files, non-positive selects 4
	MinTextSize         int              // bytes below which a file is quarantined, zero selects 50
	SampleLimit         int              // classification sample size in runes, zero selects 8000
	Logger              *slog.Logger
}

// FileResult is the outcome for one scanned file.
type FileResult struct {
	Path        string
	Topic       string
	Chunks      int
	Quarantined bool
	Reason      string
	Err         error
}

// Report aggregates one pipeline run.
type Report struct {
	Processed   int
	Chunks      int
	Quarantined int
	Failed      int
	Results     []FileResult
}

// Pipeline ingests source documents into the knowledge base.
type Pipeline struct {
	topics              []string
	classifier          Classifier
	crossCheck          Classifier
	crossCheckThreshold float64
	enricher            Enricher
	chunker             Chunker
	writer              knowledge.Writer
	outputPath          string
	quarantineDir       string
	workers             int
	minTextSize         int
	sampleLimit         int
	logger              *slog.Logger

	exportMu sync.Mutex
	export   *json.Encoder
}

// NewPipeline builds a pipeline, substituting defaults for anything the
// config leaves unset.
func NewPipeline(cfg Config) *Pipeline {
	p := &Pipeline{
		topics:              cfg.Topics,
		classifier:          cfg.Classifier,
		crossCheck:          cfg.CrossCheck,
		crossCheckThreshold: cfg.CrossCheckThreshold,
		enricher:            cfg.Enricher,
		chunker:             cfg.Chunker,
		writer:              cfg.Writer,
		outputPath:          cfg.OutputPath,
		quarantineDir:       cfg.QuarantineDir,
		workers:             cfg.Workers,
		minTextSize:         cfg.MinTextSize,
		sampleLimit:         cfg.SampleLimit,
		logger:              cfg.Logger,
	}
	if len(p.topics) == 0 {
		p.topics = DefaultTopics()
	}
	if p.crossCheckThreshold <= 0 {
		p.crossCheckThreshold = 0.95
	}
	if p.chunker == nil {
		p.chunker = NewParagraphChunker(0, -1)
	}
	if p.workers <= 0 {
		p.workers = 4
	}
	if p.minTextSize <= 0 {
		p.minTextSize = 50
	}
	if p.sampleLimit <= 0 {
		p.sampleLimit = 8000
	}
	if p.logger == nil {
		p.logger = logging.WithComponent("ingest")
	}
	return p
}

// Scan walks root and returns the supported source files in walk order.
func Scan(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if sourceExtensions[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return paths, nil
}

// Run scans root and ingests every supported file with the configured
// worker count. Per-file failures are reported, not fatal.
func (p *Pipeline) Run(ctx context.Context, root string) (*Report, error) {
	paths, err := Scan(root)
	if err != nil {
		return nil, err
	}

	if p.outputPath != "" {
		f, err := os.Create(p.outputPath)
		if err != nil {
			return nil, fmt.Errorf("create export: %w", err)
		}
		defer f.Close()
		p.export = json.NewEncoder(f)
		defer func() { p.export = nil }()
	}

	p.logger.Info("ingestion started", "root", root, "files", len(paths), "workers", p.workers)
	report := p.runFiles(ctx, paths)
	p.logger.Info("ingestion finished",
		"processed", report.Processed,
		"chunks", report.Chunks,
		"quarantined", report.Quarantined,
		"failed", report.Failed,
	)
	return report, nil
}

// runFiles fans the paths out to workers. Each worker slot is guarded by a
// semaphore and a panic in one file is contained to that file's result.
func (p *Pipeline) runFiles(ctx context.Context, paths []string) *Report {
	results := make([]FileResult, len(paths))
	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		go func(index int, path string) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[index] = FileResult{
						Path: path,
						Err:  fmt.Errorf("panic processing %s: %v", path, r),
					}
				}
			}()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[index] = FileResult{Path: path, Err: ctx.Err()}
				return
			}

			results[index] = p.processFile(ctx, path)
		}(i, path)
	}
	wg.Wait()

	report := &Report{Results: results}
	for _, res := range results {
		switch {
		case res.Err != nil:
			report.Failed++
			p.logger.Warn("file failed", "file", res.Path, "error", res.Err)
		case res.Quarantined:
			report.Quarantined++
		default:
			report.Processed++
			report.Chunks += res.Chunks
		}
	}
	return report
}

// processFile runs one file through extract, classify, chunk, enrich and
// store.
func (p *Pipeline) processFile(ctx context.Context, path string) FileResult {
	text, err := ExtractFile(path)
	if err != nil {
		return FileResult{Path: path, Err: err}
	}
	if len(text) < p.minTextSize {
		reason := fmt.Sprintf("extracted text too short (%d bytes)", len(text))
		p.quarantineFile(path, reason)
		return FileResult{Path: path, Quarantined: true, Reason: reason}
	}

	cls, reason := p.classify(ctx, filepath.Base(path), text)
	if reason != "" {
		p.quarantineFile(path, reason)
		return FileResult{Path: path, Quarantined: true, Reason: reason}
	}

	chunks := p.chunker.Chunk(text)
	if len(chunks) == 0 {
		reason := "no content left after chunking"
		p.quarantineFile(path, reason)
		return FileResult{Path: path, Quarantined: true, Reason: reason}
	}

	docs := make([]knowledge.Document, 0, len(chunks))
	processedAt := time.Now().UTC().Format(time.RFC3339)
	for i, chunk := range chunks {
		record := chunkRecord{
			Source:      filepath.Base(path),
			Topic:       cls.topic,
			Ordinal:     i + 1,
			Content:     chunk,
			Confidence:  cls.confidence,
			Classifier:  cls.source,
			ProcessedAt: processedAt,
		}
		if p.enricher != nil {
			if enr, err := p.enricher.Enrich(ctx, chunk); err != nil {
				p.logger.Warn("chunk enrichment failed", "file", path, "chunk", i+1, "error", err)
			} else {
				record.Summary = enr.Summary
				record.Questions = enr.Questions
			}
		}
		p.exportRecord(record)

		docs = append(docs, knowledge.Document{
			Title:   fmt.Sprintf("%s#%d", record.Source, record.Ordinal),
			Content: chunk,
			Score:   cls.confidence,
			Type:    "chunk",
		})
	}

	if p.writer != nil {
		if err := p.writer.Write(ctx, cls.topic, docs...); err != nil {
			return FileResult{Path: path, Err: fmt.Errorf("store chunks: %w", err)}
		}
	}

	p.logger.Info("file ingested", "file", path, "topic", cls.topic, "chunks", len(chunks), "classifier", cls.source)
	return FileResult{Path: path, Topic: cls.topic, Chunks: len(chunks)}
}

// chunkRecord is one JSONL line of the exported knowledge base.
type chunkRecord struct {
	Source      string   `json:"source"`
	Topic       string   `json:"topic"`
	Ordinal     int      `json:"ordinal"`
	Content     string   `json:"content"`
	Summary     string   `json:"summary,omitempty"`
	Questions   []string `json:"questions,omitempty"`
	Confidence  float64  `json:"confidence"`
	Classifier  string   `json:"classifier"`
	ProcessedAt string   `json:"processed_at"`
}

func (p *Pipeline) exportRecord(record chunkRecord) {
	if p.export == nil {
		return
	}
	p.exportMu.Lock()
	defer p.exportMu.Unlock()
	if err := p.export.Encode(record); err != nil {
		p.logger.Warn("export write failed", "source", record.Source, "error", err)
	}
}

// quarantineFile copies a rejected file and its reason next to each other
// under the quarantine directory so a human can review it.
func (p *Pipeline) quarantineFile(path, reason string) {
	p.logger.Warn("file quarantined", "file", path, "reason", reason)
	if p.quarantineDir == "" {
		return
	}
	if err := os.MkdirAll(p.quarantineDir, 0o755); err != nil {
		p.logger.Error("quarantine dir unavailable", "dir", p.quarantineDir, "error", err)
		return
	}

	name := time.Now().UTC().Format("20060102150405") + "_" + filepath.Base(path)
	target := filepath.Join(p.quarantineDir, name)

	data, err := os.ReadFile(path)
	if err != nil {
		p.logger.Error("quarantine copy failed", "file", path, "error", err)
		return
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		p.logger.Error("quarantine copy failed", "file", path, "error", err)
		return
	}
	if err := os.WriteFile(target+".reason.log", []byte(reason+"\n"), 0o644); err != nil {
		p.logger.Error("quarantine reason write failed", "file", path, "error", err)
	}
}
