package kobo

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/blake2b"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mrlokans/kobohighlights/internal/logging"
)

// SQLite header offsets of the file format write/read versions.
// Version 2 means WAL journaling, which in-memory images cannot use.
const (
	sqliteHeaderSize     = 100
	writeVersionOffset   = 18
	readVersionOffset    = 19
	journalVersionWAL    = 2
	journalVersionLegacy = 1
)

// Database is an opened, read-only Kobo database image held entirely in memory.
// It must be closed when it is replaced.
type Database struct {
	sqlDB       *sql.DB
	connector   *imageConnector
	orm         *gorm.DB
	fingerprint string
	size        int
}

// Load opens a Kobo database from its raw file bytes. Nothing is written to disk.
//
// It fails with ErrInitialization when the engine cannot be started and with
// ErrMalformedFile when the bytes are not a SQLite image with the expected tables.
// Every call returns a fresh, independent handle.
func Load(ctx context.Context, data []byte) (*Database, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrMalformedFile)
	}

	connector := newImageConnector(prepareImage(data))
	sqlDB := sql.OpenDB(connector)
	// The single connection is kept for the life of the handle; it owns the
	// only copy of the image once the caller's bytes are released.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, classifyOpenError(err, ErrInitialization)
	}
	connector.release()

	orm, err := gorm.Open(sqlite.New(sqlite.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logging.GormLogger(),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, classifyOpenError(err, ErrInitialization)
	}

	db := &Database{
		sqlDB:       sqlDB,
		connector:   connector,
		orm:         orm,
		fingerprint: Fingerprint(data),
		size:        len(data),
	}

	if err := db.validateSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Debug().
		Str("fingerprint", db.fingerprint).
		Int("bytes", db.size).
		Msg("kobo database loaded")

	return db, nil
}

// Close releases the in-memory image.
func (d *Database) Close() error {
	if d == nil || d.sqlDB == nil {
		return nil
	}
	return d.sqlDB.Close()
}

// Fingerprint returns the hex BLAKE2b-256 digest of the uploaded bytes.
func (d *Database) Fingerprint() string {
	return d.fingerprint
}

// Size returns the size of the uploaded image in bytes.
func (d *Database) Size() int {
	return d.size
}

// Fingerprint returns the hex BLAKE2b-256 digest of a database image.
func Fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// prepareImage returns the bytes handed to the engine. WAL images are copied
// and their header switched to the rollback journal so they can be opened in memory.
func prepareImage(data []byte) []byte {
	if len(data) < sqliteHeaderSize ||
		data[writeVersionOffset] != journalVersionWAL ||
		data[readVersionOffset] != journalVersionWAL {
		return data
	}

	image := make([]byte, len(data))
	copy(image, data)
	image[writeVersionOffset] = journalVersionLegacy
	image[readVersionOffset] = journalVersionLegacy
	return image
}

// errImageReleased is returned when the pool tries to open a second connection
// after the image bytes were handed over to the first one.
var errImageReleased = errors.New("database image already released")

// imageConnector opens an in-memory connection populated from an image.
// Deserialize copies the bytes into engine memory, so the image is dropped
// after the first connection succeeds.
type imageConnector struct {
	mu     sync.Mutex
	image  []byte
	driver *sqlite3.SQLiteDriver
}

func newImageConnector(image []byte) *imageConnector {
	c := &imageConnector{image: image}
	c.driver = &sqlite3.SQLiteDriver{ConnectHook: c.populate}
	return c
}

func (c *imageConnector) populate(conn *sqlite3.SQLiteConn) error {
	c.mu.Lock()
	image := c.image
	c.mu.Unlock()

	if image == nil {
		return errImageReleased
	}
	if err := conn.Deserialize(image, "main"); err != nil {
		return fmt.Errorf("failed to deserialize image: %w", err)
	}
	if _, err := conn.Exec("PRAGMA query_only = ON", nil); err != nil {
		return fmt.Errorf("failed to enable read-only mode: %w", err)
	}
	return nil
}

func (c *imageConnector) release() {
	c.mu.Lock()
	c.image = nil
	c.mu.Unlock()
}

func (c *imageConnector) released() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.image == nil
}

func (c *imageConnector) Connect(context.Context) (driver.Conn, error) {
	return c.driver.Open(":memory:")
}

func (c *imageConnector) Driver() driver.Driver {
	return c.driver
}

// classifyOpenError maps engine errors caused by the file contents to
// ErrMalformedFile and everything else to fallback.
func classifyOpenError(err error, fallback error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrNotADB, sqlite3.ErrCorrupt, sqlite3.ErrFormat:
			return fmt.Errorf("%w: %v", ErrMalformedFile, err)
		}
	}
	return fmt.Errorf("%w: %v", fallback, err)
}
