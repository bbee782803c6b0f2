// internal/storage/storage.go
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrNotFound is returned when no drill is stored under a name.
var ErrNotFound = errors.New("drill not found")

// ErrInvalidName is returned for names that cannot be used as a storage key.
var ErrInvalidName = errors.New("invalid drill name")

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,126}$`)

// Backend is the interface all storage implementations must satisfy.
// Drills are opaque encoded snapshots keyed by name; saving under an
// existing name replaces it.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	Save(ctx context.Context, name string, snapshot []byte) error
	Load(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]Info, error)
	Delete(ctx context.Context, name string) error
}

// Info describes a stored drill.
type Info struct {
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	Size      int       `json:"size"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ValidateName rejects names that are empty, too long or could escape a
// directory.
func ValidateName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// TitleOf reads the title of an encoded snapshot, empty if it has none.
func TitleOf(snapshot []byte) string {
	var probe struct {
		Title string `json:"title"`
	}
	_ = json.Unmarshal(snapshot, &probe)
	return probe.Title
}
