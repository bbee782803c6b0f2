package model

import (
	"time"

	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Drill{},
}

// Drill is one saved drill. Snapshot holds the encoded document; the other
// columns are copied out of it for listing.
type Drill struct {
	ID          uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Name        string    `json:"name" gorm:"size:127;uniqueIndex;not null"`
	Title       string    `json:"title" gorm:"size:255"`
	Description string    `json:"description"`
	Entities    int       `json:"entities"`
	Relations   int       `json:"relations"`
	Size        int       `json:"size"`
	// encoded snapshot, see internal/export/snapshot
	Snapshot datatypes.JSON `json:"snapshot"`
}

func (*Drill) TableName() string {
	return "drills"
}
