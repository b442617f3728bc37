package tactic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tacticboard/internal/pitch"
)

// DB drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DBConfig selects and addresses the tactic database.
type DBConfig struct {
	Driver string
	// DSN is the postgres connection string.
	DSN string
	// SQLitePath is a database file; empty keeps the data in memory.
	SQLitePath string
}

// Open connects to postgres when configured, falling back to SQLite if
// postgres is unreachable.
func Open(cfg DBConfig, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Driver == DriverPostgres {
		db, err := openPostgres(cfg.DSN)
		if err == nil {
			log.Info("connected to postgres")
			return db, nil
		}
		log.Error("failed to connect to postgres, trying sqlite", zap.Error(err))
	}
	db, err := openSQLite(cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if cfg.SQLitePath == "" {
		log.Info("using in-memory sqlite for tactics")
	} else {
		log.Info("using sqlite for tactics", zap.String("path", cfg.SQLitePath))
	}
	return db, nil
}

func openPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	return db, nil
}

func openSQLite(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = "file:tactics?mode=memory&cache=shared"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.Exec("PRAGMA foreign_keys = ON;").Error; err != nil {
		return nil, err
	}
	return db, nil
}

// record is the stored row.
type record struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	Title       string `gorm:"size:120;not null"`
	Formation   string `gorm:"size:32;not null"`
	Description string
	Tags        datatypes.JSONSlice[string]
	Players     datatypes.JSON
	CreatedAt   time.Time
}

func (record) TableName() string { return "tactics" }

// Repository stores published tactics.
type Repository struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewRepository migrates the schema and returns a repository on db.
func NewRepository(db *gorm.DB, log *zap.Logger) (*Repository, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("migrate tactics: %w", err)
	}
	return &Repository{db: db, log: log.Named("tactic")}, nil
}

// Save validates t and stores it under a new id.
func (r *Repository) Save(ctx context.Context, t Tactic) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	players, err := json.Marshal(t.Players)
	if err != nil {
		return "", fmt.Errorf("encode players: %w", err)
	}
	rec := record{
		ID:          uuid.NewString(),
		Title:       t.Title,
		Formation:   t.Formation,
		Description: t.Description,
		Tags:        datatypes.NewJSONSlice(t.Tags),
		Players:     datatypes.JSON(players),
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", fmt.Errorf("save tactic: %w", err)
	}
	r.log.Info("tactic published", zap.String("id", rec.ID), zap.String("formation", rec.Formation))
	return rec.ID, nil
}

// Get loads a tactic by id.
func (r *Repository) Get(ctx context.Context, id string) (Tactic, error) {
	var rec record
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Tactic{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Tactic{}, fmt.Errorf("load tactic: %w", err)
	}
	var players []pitch.Player
	if err := json.Unmarshal(rec.Players, &players); err != nil {
		return Tactic{}, fmt.Errorf("decode players: %w", err)
	}
	return Tactic{
		ID:          rec.ID,
		Title:       rec.Title,
		Formation:   rec.Formation,
		Description: rec.Description,
		Tags:        []string(rec.Tags),
		Players:     players,
		CreatedAt:   rec.CreatedAt,
	}, nil
}
