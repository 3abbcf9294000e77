// Package activity records admin mutations in audit_log and mirrors them
// into a search index.
package activity

import (
	"context"
	"encoding/json"

	"estate-admin/internal/common/database"
	"estate-admin/internal/common/logger"
	"estate-admin/internal/models"
	"estate-admin/internal/services"
	"estate-admin/internal/store"
)

// Index is the subset of the Elasticsearch client the log needs.
type Index interface {
	IndexDocument(ctx context.Context, index, id string, doc interface{}) error
	Search(ctx context.Context, index string, query map[string]interface{}) ([]database.SearchHit, int, error)
}

type Log struct {
	store     *store.Store
	index     Index
	indexName string
	logger    logger.Logger
}

// New returns an activity log. index may be nil, in which case searches are
// served from Postgres.
func New(st *store.Store, index Index, indexName string, log logger.Logger) *Log {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Log{store: st, index: index, indexName: indexName, logger: log}
}

// Write inserts ev through st, which may be bound to a transaction.
func (l *Log) Write(ctx context.Context, st *store.Store, ev *models.AuditEvent) error {
	if err := st.InsertAudit(ctx, ev); err != nil {
		return services.WriteError(err, "audit_log", ev.ResourceID, "insert_audit")
	}
	return nil
}

// Index mirrors ev into the search index. Failures are logged only.
func (l *Log) Index(ctx context.Context, ev models.AuditEvent) {
	if l.index == nil || ev.ID == "" {
		return
	}
	if err := l.index.IndexDocument(ctx, l.indexName, ev.ID, ev); err != nil {
		l.logger.Warn("activity index failed", map[string]interface{}{
			"event_id":   ev.ID,
			"event_type": ev.EventType,
			"error":      err.Error(),
		})
	}
}

// Record writes ev outside any transaction and indexes it.
func (l *Log) Record(ctx context.Context, ev *models.AuditEvent) error {
	if err := l.Write(ctx, l.store, ev); err != nil {
		return err
	}
	l.Index(ctx, *ev)
	return nil
}

// Search returns recent activity matching q, newest first.
func (l *Log) Search(ctx context.Context, actor models.Actor, q models.ActivityQuery) ([]models.AuditEvent, error) {
	if err := services.RequireAdmin(actor); err != nil {
		return nil, err
	}
	q.Page = q.Page.Normalize()

	if l.index != nil {
		events, err := l.searchIndex(ctx, q)
		if err == nil {
			return events, nil
		}
		l.logger.Warn("activity search fell back to postgres", map[string]interface{}{
			"query": q.Query,
			"error": err.Error(),
		})
	}

	events, err := l.store.SearchAudit(ctx, q)
	if err != nil {
		return nil, services.ReadError(err, "audit_log", "", "search_audit")
	}
	return events, nil
}

func (l *Log) searchIndex(ctx context.Context, q models.ActivityQuery) ([]models.AuditEvent, error) {
	query := map[string]interface{}{
		"size": q.Limit,
		"from": q.Offset,
		"sort": []interface{}{
			map[string]interface{}{"created_at": map[string]interface{}{"order": "desc"}},
		},
	}
	if q.Query == "" {
		query["query"] = map[string]interface{}{"match_all": map[string]interface{}{}}
	} else {
		query["query"] = map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Query,
				"fields": []string{"event_type", "resource_type", "resource_id", "actor_id"},
			},
		}
	}

	hits, _, err := l.index.Search(ctx, l.indexName, query)
	if err != nil {
		return nil, err
	}

	out := make([]models.AuditEvent, 0, len(hits))
	for _, h := range hits {
		var ev models.AuditEvent
		if err := json.Unmarshal(h.Source, &ev); err != nil {
			return nil, err
		}
		if ev.ID == "" {
			ev.ID = h.ID
		}
		out = append(out, ev)
	}
	return out, nil
}
