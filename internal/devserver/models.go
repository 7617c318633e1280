package devserver

import (
	"time"

	"gorm.io/gorm"
)

// User is an account of the book platform
type User struct {
	ID           int64    `gorm:"primaryKey"`
	DisplayName  string   `gorm:"not null"`
	Email        string   `gorm:"uniqueIndex;not null"`
	PasswordHash string   `gorm:"not null"`
	Roles        []string `gorm:"serializer:json"`
	ImageURL     string
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
	LastLoginAt  *time.Time
}

// Tag labels books (genres, themes)
type Tag struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;not null"`
}

// Author wrote one or more books
type Author struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"uniqueIndex;not null"`
}

// Book is a catalogue entry, usually a series of volumes
type Book struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"index;not null"`
	Synopsis  string
	DateStart string
	DateEnd   string
	NbVolume  int
	NbVisit   int64
	ImgURL    string
	Tags      []Tag    `gorm:"many2many:book_tags"`
	Authors   []Author `gorm:"many2many:book_authors"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Reading tracks one user's progress through one book
type Reading struct {
	ID            int64 `gorm:"primaryKey"`
	UserID        int64 `gorm:"uniqueIndex:idx_reading_user_book;not null"`
	BookID        int64 `gorm:"uniqueIndex:idx_reading_user_book;not null"`
	CurrentVolume int
	Rating        *float64
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// Comment is a reader's comment on a book
type Comment struct {
	ID        int64  `gorm:"primaryKey"`
	UserID    int64  `gorm:"index;not null"`
	BookID    int64  `gorm:"index;not null"`
	Content   string `gorm:"not null"`
	Book      Book
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// AutoMigrate runs all database migrations
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Tag{},
		&Author{},
		&Book{},
		&Reading{},
		&Comment{},
	)
}
