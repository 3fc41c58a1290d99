package pipeline

import (
	"context"
	"log/slog"
)

// Strategy is one way of turning a stored object into text.
type Strategy interface {
	Extract(ctx context.Context, ref StorageReference) ExtractionResult
}

// Dispatcher picks strategies by file category and applies the fallback order.
type Dispatcher struct {
	PlainText  Strategy
	Conversion Strategy
	Layout     Strategy
	Logger     *slog.Logger
}

// plan returns the strategies tried for a category, in order.
func (d *Dispatcher) plan(c Category) []Strategy {
	switch c {
	case PlainText:
		return []Strategy{d.PlainText}
	case OfficeDocument:
		return []Strategy{d.Conversion, d.Layout}
	case ScannedOrImage:
		return []Strategy{d.Layout}
	case Unsupported:
		return nil
	}
	return nil
}

// Extract returns the first Success, or the last Empty/Failure when every
// strategy in the plan came up short. Nothing is retried here.
func (d *Dispatcher) Extract(ctx context.Context, ref StorageReference) ExtractionResult {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	category := Classify(ref.DecodedKey)
	logCtx := logger.With("key", ref.DecodedKey, "category", category.String())

	strategies := d.plan(category)
	if len(strategies) == 0 {
		logCtx.Warn("Unsupported file type.", "extension", ref.Extension())
		return Failure(FailureUnsupported, ErrUnsupportedType.Error(), ErrUnsupportedType)
	}

	var result ExtractionResult
	for i, s := range strategies {
		if s == nil {
			result = Failure(FailureUnavailable, "strategy not configured", nil)
			continue
		}
		result = s.Extract(ctx, ref)
		if result.OK() {
			return result
		}
		if i < len(strategies)-1 {
			logCtx.Warn("Extraction strategy came up short, falling back.", "result", result.String())
		}
	}
	return result
}
