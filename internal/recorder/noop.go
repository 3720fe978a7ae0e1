package recorder

import "NinetyDays/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) Publish(_ []model.Event, _ model.Summary) error { return nil }
func (n *NoopRecorder) RecordAudit(_ *AuditRecord) error              { return nil }
func (n *NoopRecorder) RecentEvents(_ int) ([]EventRecord, error)     { return nil, nil }
func (n *NoopRecorder) Close() error                                  { return nil }
