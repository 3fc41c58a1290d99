// Package pipeline extracts text from uploaded objects and commits one
// document per object to a search index.
//
// The flow per record is Resolve, Extract (plain text, document conversion or
// asynchronous layout analysis, with conversion falling back to layout
// analysis), Assemble and Commit. Collaborators are injected through the
// ObjectStore, Converter, LayoutAnalyzer and Index interfaces.
package pipeline

import (
	"log/slog"
	"time"
)

// Config tunes the pipeline.
type Config struct {
	IndexName    string
	PollInterval time.Duration
	MaxWait      time.Duration
	MaxPolls     int
	TempDir      string
	Features     []Feature
}

// Deps are the external collaborators. Analyzer may be nil, in which case
// documents needing layout analysis fail with ErrLayoutUnavailable.
type Deps struct {
	Store     ObjectStore
	Converter Converter
	Analyzer  LayoutAnalyzer
	Index     Index
	Logger    *slog.Logger
}

// NewController wires the strategies, dispatcher, assembler and indexer.
func NewController(deps Deps, cfg Config) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	layout := &LayoutStrategy{
		Analyzer:     deps.Analyzer,
		Features:     cfg.Features,
		PollInterval: cfg.PollInterval,
		MaxWait:      cfg.MaxWait,
		MaxPolls:     cfg.MaxPolls,
		Logger:       logger,
	}
	dispatcher := &Dispatcher{
		PlainText:  &PlainTextStrategy{Store: deps.Store},
		Conversion: &ConversionStrategy{Store: deps.Store, Converter: deps.Converter, TempDir: cfg.TempDir},
		Layout:     layout,
		Logger:     logger,
	}
	return &Controller{
		Store:     deps.Store,
		Extractor: dispatcher,
		Assembler: &Assembler{Logger: logger},
		Indexer:   &Indexer{Index: deps.Index, IndexName: cfg.IndexName},
		Logger:    logger,
	}
}
