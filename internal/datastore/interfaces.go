// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/openstudio/director-go/internal/conf"
	"github.com/openstudio/director-go/internal/errors"
	"github.com/openstudio/director-go/internal/logging"
	"github.com/openstudio/director-go/internal/observability/metrics"
)

// Interface abstracts the underlying database implementation and defines the
// operations the director needs for durability. None of these calls sit on
// the decision hot path; callers invoke them asynchronously.
type Interface interface {
	Open() error
	Close() error

	SaveSession(session *SessionRecord) error
	UpdateSessionStatus(sessionID, status string, stoppedAt time.Time) error
	ReplaceCameras(sessionID string, cameras []CameraRecord) error
	SaveRuleVersion(rule *RuleRecord) error
	SaveSwitchEvent(event *SwitchEventRecord) error
	GetSwitchEvents(sessionID, triggerReason string, limit, offset int) ([]SwitchEventRecord, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB      *gorm.DB
	metrics *metrics.DatastoreMetrics
	logger  *slog.Logger
}

// New creates a store instance based on the output configuration. It returns
// nil when no database output is enabled.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			DataStore: DataStore{logger: storeLogger()},
			Settings:  settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			DataStore: DataStore{logger: storeLogger()},
			Settings:  settings,
		}
	default:
		return nil
	}
}

func storeLogger() *slog.Logger {
	if l := logging.ForService("datastore"); l != nil {
		return l
	}
	return slog.Default().With("service", "datastore")
}

// SetMetrics attaches datastore metrics. Safe to leave unset.
func (ds *DataStore) SetMetrics(m *metrics.DatastoreMetrics) {
	ds.metrics = m
}

func (ds *DataStore) observe(operation string, start time.Time, err error) {
	if ds.metrics != nil {
		ds.metrics.RecordOperation(operation, time.Since(start), err)
	}
}

// performAutoMigration creates or updates the database schema.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(
		&SessionRecord{},
		&CameraRecord{},
		&RuleRecord{},
		&SwitchEventRecord{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}
	if debug {
		storeLogger().Debug("database schema migrated", "type", dbType, "connection", connectionInfo)
	}
	return nil
}

// SaveSession inserts a new session record.
func (ds *DataStore) SaveSession(session *SessionRecord) error {
	start := time.Now()
	err := ds.DB.Create(session).Error
	ds.observe("save_session", start, err)
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			SessionID(session.SessionID).
			Build()
	}
	return nil
}

// UpdateSessionStatus marks a session's lifecycle transition.
func (ds *DataStore) UpdateSessionStatus(sessionID, status string, stoppedAt time.Time) error {
	start := time.Now()
	updates := map[string]any{"status": status}
	if !stoppedAt.IsZero() {
		updates["stopped_at"] = stoppedAt
	}
	err := ds.DB.Model(&SessionRecord{}).Where("session_id = ?", sessionID).Updates(updates).Error
	ds.observe("update_session_status", start, err)
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			SessionID(sessionID).
			Build()
	}
	return nil
}

// ReplaceCameras atomically replaces the stored camera set for a session.
func (ds *DataStore) ReplaceCameras(sessionID string, cameras []CameraRecord) error {
	start := time.Now()
	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&CameraRecord{}).Error; err != nil {
			return err
		}
		for i := range cameras {
			cameras[i].SessionID = sessionID
			if err := tx.Create(&cameras[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	ds.observe("replace_cameras", start, err)
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			SessionID(sessionID).
			Build()
	}
	return nil
}

// SaveRuleVersion appends a new rule version record.
func (ds *DataStore) SaveRuleVersion(rule *RuleRecord) error {
	start := time.Now()
	err := ds.DB.Create(rule).Error
	ds.observe("save_rule_version", start, err)
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("rule_id", rule.RuleID).
			Build()
	}
	return nil
}

// SaveSwitchEvent appends a switch event record.
func (ds *DataStore) SaveSwitchEvent(event *SwitchEventRecord) error {
	start := time.Now()
	err := ds.DB.Create(event).Error
	ds.observe("save_switch_event", start, err)
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			SessionID(event.SessionID).
			Context("event_id", event.EventID).
			Build()
	}
	return nil
}

// GetSwitchEvents returns stored events for a session in chronological
// order, optionally filtered by trigger reason and paginated.
func (ds *DataStore) GetSwitchEvents(sessionID, triggerReason string, limit, offset int) ([]SwitchEventRecord, error) {
	start := time.Now()
	query := ds.DB.Where("session_id = ?", sessionID)
	if triggerReason != "" {
		query = query.Where("trigger_reason = ?", triggerReason)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var records []SwitchEventRecord
	err := query.Order("timestamp asc").Find(&records).Error
	ds.observe("get_switch_events", start, err)
	if err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			SessionID(sessionID).
			Build()
	}
	return records, nil
}
