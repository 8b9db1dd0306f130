package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/scribekeys/internal/auditctx"
	"github.com/charlesng35/scribekeys/internal/models"
	"github.com/charlesng35/scribekeys/pkg/logger"
	"github.com/charlesng35/scribekeys/pkg/metrics"
)

// Audit actions recorded by the services.
const (
	AuditActionKeyBindingCreate      = "key_binding.create"
	AuditActionKeyBindingUpdate      = "key_binding.update"
	AuditActionKeyBindingDelete      = "key_binding.delete"
	AuditActionGroupCreate           = "key_binding_group.create"
	AuditActionGroupUpdate           = "key_binding_group.update"
	AuditActionGroupDelete           = "key_binding_group.delete"
	AuditActionGroupProvision        = "key_binding_group.provision"
	AuditActionExtensionSettingsSave = "extension_settings.update"
	AuditActionExtensionSync         = "extension.sync"
	AuditActionUserCreate            = "user.create"
	AuditActionUserUpdate            = "user.update"
	AuditActionUserDelete            = "user.delete"
	AuditActionAccessDenied          = "access.denied"
)

// Audit resources.
const (
	AuditResourceKeyBinding        = "key_binding"
	AuditResourceKeyBindingGroup   = "key_binding_group"
	AuditResourceExtensionSettings = "extension_settings"
	AuditResourceUser              = "user"
)

// AuditEntry captures a single audit event to persist. Actor fields left empty
// are filled from the request actor stored in the context.
type AuditEntry struct {
	UserID       *string
	ActorEmail   string
	Action       string
	Resource     string
	ResourceID   string
	Result       string
	ErrorMessage string
	IPAddress    string
	UserAgent    string
	Metadata     map[string]any
}

// AuditFilters encapsulates optional filters when querying audit logs.
type AuditFilters struct {
	UserID   string
	Action   string
	Result   string
	Resource string
	Since    *time.Time
	Until    *time.Time
}

// AuditListOptions controls pagination and filtering for audit queries.
type AuditListOptions struct {
	Page     int
	PageSize int
	Filters  AuditFilters
}

// AuditService persists and retrieves audit log entries.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService constructs an AuditService using the provided database handle.
func NewAuditService(db *gorm.DB) (*AuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &AuditService{db: db}, nil
}

// Log persists entry. Action and result are required; actor fields left blank are
// taken from the request actor in ctx.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	ctx = ensureContext(ctx)
	row, err := withActor(ctx, entry).row()
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("audit service: create log: %w", err)
	}
	return nil
}

func (e AuditEntry) row() (*models.AuditLog, error) {
	row := &models.AuditLog{
		ActorEmail:   strings.TrimSpace(e.ActorEmail),
		Action:       strings.TrimSpace(e.Action),
		Resource:     strings.TrimSpace(e.Resource),
		ResourceID:   strings.TrimSpace(e.ResourceID),
		Result:       strings.TrimSpace(e.Result),
		ErrorMessage: strings.TrimSpace(e.ErrorMessage),
		IPAddress:    strings.TrimSpace(e.IPAddress),
		UserAgent:    strings.TrimSpace(e.UserAgent),
	}
	switch {
	case row.Action == "":
		return nil, errors.New("audit service: action is required")
	case row.Result == "":
		return nil, errors.New("audit service: result is required")
	}
	if e.UserID != nil {
		if id := strings.TrimSpace(*e.UserID); id != "" {
			row.UserID = &id
		}
	}
	if e.Metadata != nil {
		encoded, err := json.Marshal(e.Metadata)
		if err != nil {
			return nil, fmt.Errorf("audit service: marshal metadata: %w", err)
		}
		row.Metadata = datatypes.JSON(encoded)
	}
	return row, nil
}

// Record audits the outcome of an attempted mutation; a non-nil err marks a failure.
// A nil receiver records nothing. Write failures are counted and logged, never returned,
// so auditing cannot fail the mutation it describes.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry, err error) {
	if s == nil {
		return
	}
	entry.Result = models.AuditResultSuccess
	if err != nil {
		entry.Result = models.AuditResultFailure
		entry.ErrorMessage = err.Error()
	}
	if logErr := s.Log(ctx, entry); logErr != nil {
		metrics.AuditWriteFailures.Inc()
		logger.WithModule("audit").Warn("failed to record audit entry",
			zap.String("action", entry.Action),
			zap.String("result", entry.Result),
			zap.Error(logErr),
		)
	}
}

// RecordDenial audits a request rejected by an entitlement gate.
func (s *AuditService) RecordDenial(ctx context.Context, gate, method, path string, err error) {
	if err == nil {
		return
	}
	s.Record(ctx, AuditEntry{
		Action:   AuditActionAccessDenied,
		Resource: gate,
		Metadata: map[string]any{"method": method, "path": path},
	}, err)
}

// List returns paginated audit logs ordered by creation time descending.
func (s *AuditService) List(ctx context.Context, opts AuditListOptions) ([]models.AuditLog, int64, error) {
	ctx = ensureContext(ctx)

	page, perPage := normalisePage(opts.Page, opts.PageSize)

	var (
		results []models.AuditLog
		total   int64
	)

	query := s.db.WithContext(ctx).Model(&models.AuditLog{})
	query = applyAuditFilters(query, opts.Filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: count logs: %w", err)
	}

	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: list logs: %w", err)
	}

	return results, total, nil
}

// CleanupOlderThan removes audit logs older than the supplied retention window (in days).
func (s *AuditService) CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	ctx = ensureContext(ctx)

	if retentionDays <= 0 {
		return 0, errors.New("audit service: retentionDays must be positive")
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("audit service: cleanup logs: %w", result.Error)
	}

	return result.RowsAffected, nil
}

func withActor(ctx context.Context, entry AuditEntry) AuditEntry {
	actor, ok := auditctx.FromContext(ctx)
	if !ok {
		return entry
	}
	if entry.UserID == nil && actor.UserID != "" {
		id := actor.UserID
		entry.UserID = &id
	}
	if entry.ActorEmail == "" {
		entry.ActorEmail = actor.Email
	}
	if entry.IPAddress == "" {
		entry.IPAddress = actor.IPAddress
	}
	if entry.UserAgent == "" {
		entry.UserAgent = actor.UserAgent
	}
	return entry
}

func applyAuditFilters(query *gorm.DB, filters AuditFilters) *gorm.DB {
	if filters.UserID != "" {
		query = query.Where("user_id = ?", filters.UserID)
	}
	if filters.Action != "" {
		query = query.Where("action = ?", filters.Action)
	}
	if filters.Result != "" {
		query = query.Where("result = ?", filters.Result)
	}
	if filters.Resource != "" {
		query = query.Where("resource = ?", filters.Resource)
	}
	if filters.Since != nil {
		query = query.Where("created_at >= ?", *filters.Since)
	}
	if filters.Until != nil {
		query = query.Where("created_at <= ?", *filters.Until)
	}
	return query
}
