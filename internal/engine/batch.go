package engine

import (
	"context"
	"time"
)

// ProgressFunc is invoked after every batch item, success or failure.
type ProgressFunc func(BatchProgress)

// LearnBatch runs Learn sequentially over items, in order, so later items
// see the effects of earlier ones. Failures are recorded and do not abort
// the run.
func (e *Engine) LearnBatch(ctx context.Context, items []BatchItem, onProgress ProgressFunc) (*BatchResult, error) {
	result := &BatchResult{}
	total := len(items)
	var elapsed time.Duration
	completed := 0

	for i, item := range items {
		itemStarted := time.Now()

		if err := ctx.Err(); err != nil {
			result.Failures = append(result.Failures, BatchFailure{Index: i, Text: item.Text, Message: err.Error()})
			e.metrics.RecordBatchItem(ctx, e.scopeID, true)
			reportProgress(onProgress, i, total, completed, len(result.Failures), item.Text, elapsed)
			continue
		}

		learnResult, err := e.Learn(ctx, item.Text, LearnOptions{
			ContextID:   item.ContextID,
			ContextName: item.ContextName,
			ValidFrom:   item.ValidFrom,
			ValidTo:     item.ValidTo,
		})
		if err != nil {
			result.Failures = append(result.Failures, BatchFailure{Index: i, Text: truncateForProgress(item.Text), Message: err.Error()})
			e.metrics.RecordBatchItem(ctx, e.scopeID, true)
			reportProgress(onProgress, i, total, completed, len(result.Failures), item.Text, elapsed)
			continue
		}

		result.Results = append(result.Results, learnResult)
		result.DocumentsCreated += learnResult.Created.Document
		if learnResult.Created.Document == 0 {
			result.DocumentsReused++
		}
		result.EntitiesCreated += learnResult.Created.Entities
		result.RelationshipsCreated += learnResult.Created.Relationships
		e.metrics.RecordBatchItem(ctx, e.scopeID, false)

		completed++
		elapsed += time.Since(itemStarted)
		reportProgress(onProgress, i, total, completed, len(result.Failures), item.Text, elapsed)
	}

	return result, nil
}

func reportProgress(onProgress ProgressFunc, index, total, completed, failed int, currentText string, elapsed time.Duration) {
	if onProgress == nil {
		return
	}

	remaining := total - (index + 1)
	var etaMs int64
	if completed > 0 && remaining > 0 {
		avg := elapsed / time.Duration(completed)
		etaMs = (avg * time.Duration(remaining)).Milliseconds()
	}

	onProgress(BatchProgress{
		Current:                  index + 1,
		Total:                    total,
		Completed:                completed,
		Failed:                   failed,
		CurrentText:              truncateForProgress(currentText),
		EstimatedTimeRemainingMs: etaMs,
	})
}

func truncateForProgress(text string) string {
	const maxLen = 200
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen]
}
