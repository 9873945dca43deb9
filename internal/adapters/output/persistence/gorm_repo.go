package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"alexa-smarthome-bridge/internal/domain/model"
	"alexa-smarthome-bridge/internal/ports"
)

// deviceRow keeps the lookup columns apart from the record document so the
// state can be replaced without touching the rest.
type deviceRow struct {
	EndpointID string         `gorm:"primaryKey;type:varchar(64)"`
	ItemName   string         `gorm:"index;type:varchar(255)"`
	Enabled    bool           `gorm:"index"`
	Doc        datatypes.JSON `gorm:"type:jsonb"`
	State      datatypes.JSON `gorm:"type:jsonb"`
	Version    int64          `gorm:"not null;default:1"`
	UpdatedAt  time.Time
}

func (deviceRow) TableName() string { return "devices" }

// GormRepository stores device records in Postgres or SQLite.
type GormRepository struct {
	db *gorm.DB
}

// Open connects to the configured database. driver is "postgres" or
// "sqlite"; dsn is passed through.
func Open(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case "postgres":
		return gorm.Open(postgres.New(postgres.Config{DSN: dsn, PreferSimpleProtocol: true}), &gorm.Config{})
	case "sqlite":
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	}
	return nil, fmt.Errorf("unsupported storage driver %q", driver)
}

func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if err := db.AutoMigrate(&deviceRow{}); err != nil {
		return nil, err
	}
	return &GormRepository{db: db}, nil
}

func toRow(rec model.Record) (deviceRow, error) {
	state, err := json.Marshal(rec.State)
	if err != nil {
		return deviceRow{}, err
	}
	rec.State = model.State{}
	doc, err := json.Marshal(rec)
	if err != nil {
		return deviceRow{}, err
	}
	return deviceRow{
		EndpointID: rec.EndpointID,
		ItemName:   rec.ItemName,
		Enabled:    rec.Enabled,
		Doc:        doc,
		State:      state,
		Version:    rec.Version,
	}, nil
}

func (r deviceRow) record() (model.Record, error) {
	var rec model.Record
	if err := json.Unmarshal(r.Doc, &rec); err != nil {
		return model.Record{}, fmt.Errorf("decode device %s: %w", r.EndpointID, err)
	}
	if len(r.State) > 0 {
		if err := json.Unmarshal(r.State, &rec.State); err != nil {
			return model.Record{}, fmt.Errorf("decode state of %s: %w", r.EndpointID, err)
		}
	}
	rec.EndpointID = r.EndpointID
	rec.Version = r.Version
	return rec, nil
}

func (g *GormRepository) first(ctx context.Context, query string, arg any) (*model.Record, error) {
	var row deviceRow
	err := g.db.WithContext(ctx).Where(query, arg).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec, err := row.record()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (g *GormRepository) Get(ctx context.Context, endpointID string) (*model.Record, error) {
	return g.first(ctx, "endpoint_id = ?", endpointID)
}

func (g *GormRepository) FindByItemName(ctx context.Context, itemName string) (*model.Record, error) {
	return g.first(ctx, "item_name = ?", itemName)
}

func (g *GormRepository) find(ctx context.Context, scopes ...func(*gorm.DB) *gorm.DB) ([]model.Record, error) {
	var rows []deviceRow
	if err := g.db.WithContext(ctx).Scopes(scopes...).Order("endpoint_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (g *GormRepository) ScanEnabled(ctx context.Context) ([]model.Record, error) {
	return g.find(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("enabled = ?", true) })
}

func (g *GormRepository) List(ctx context.Context) ([]model.Record, error) {
	return g.find(ctx)
}

func (g *GormRepository) Put(ctx context.Context, rec model.Record) (model.Record, error) {
	row, err := toRow(rec)
	if err != nil {
		return model.Record{}, err
	}
	row.UpdatedAt = time.Now().UTC()

	err = g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current deviceRow
		err := tx.Where("endpoint_id = ?", rec.EndpointID).First(&current).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if rec.Version != 0 {
				return ports.ErrNotFound
			}
			row.Version = 1
			return tx.Create(&row).Error
		case err != nil:
			return err
		}
		if rec.Version != 0 && current.Version != rec.Version {
			return ports.ErrVersionConflict
		}
		res := tx.Model(&deviceRow{}).
			Where("endpoint_id = ? AND version = ?", rec.EndpointID, current.Version).
			Updates(map[string]any{
				"item_name":  row.ItemName,
				"enabled":    row.Enabled,
				"doc":        row.Doc,
				"state":      row.State,
				"version":    current.Version + 1,
				"updated_at": row.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ports.ErrVersionConflict
		}
		row.Version = current.Version + 1
		return nil
	})
	if err != nil {
		return model.Record{}, err
	}
	rec.Version = row.Version
	return rec, nil
}

func (g *GormRepository) UpdateState(ctx context.Context, endpointID string, state model.State, version int64) (int64, error) {
	buf, err := json.Marshal(state)
	if err != nil {
		return 0, err
	}
	res := g.db.WithContext(ctx).
		Model(&deviceRow{}).
		Where("endpoint_id = ? AND version = ?", endpointID, version).
		Updates(map[string]any{
			"state":      datatypes.JSON(buf),
			"version":    version + 1,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := g.Get(ctx, endpointID); err != nil {
			return 0, err
		}
		return 0, ports.ErrVersionConflict
	}
	return version + 1, nil
}

func (g *GormRepository) Delete(ctx context.Context, endpointID string) error {
	res := g.db.WithContext(ctx).Where("endpoint_id = ?", endpointID).Delete(&deviceRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}
