package devserver

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/bookadmin-dev/bookadmin/internal/session"
)

// ReaderEmail is the seeded account without the admin role. It shares the
// admin password.
const ReaderEmail = "reader@bookadmin.local"

// Seed fills an empty database with an admin, a reader and a small
// catalogue. A database that already has users is left alone.
func Seed(db *gorm.DB, adminEmail, adminPassword string) error {
	var count int64
	if err := db.Model(&User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	passwordHash, err := HashPassword(adminPassword)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		admin := &User{
			DisplayName:  "Admin",
			Email:        strings.ToLower(adminEmail),
			PasswordHash: passwordHash,
			Roles:        []string{session.AdminRole},
		}
		reader := &User{
			DisplayName:  "Reader",
			Email:        ReaderEmail,
			PasswordHash: passwordHash,
			Roles:        []string{"USER"},
		}
		if err := tx.Create([]*User{admin, reader}).Error; err != nil {
			return fmt.Errorf("failed to create users: %w", err)
		}

		tags := map[string]*Tag{}
		for _, name := range []string{"fantasy", "science-fiction", "classic", "manga"} {
			tags[name] = &Tag{Name: name}
			if err := tx.Create(tags[name]).Error; err != nil {
				return fmt.Errorf("failed to create tag %s: %w", name, err)
			}
		}

		authors := map[string]*Author{}
		for _, name := range []string{"Frank Herbert", "Antoine de Saint-Exupéry", "Eiichiro Oda", "J.R.R. Tolkien"} {
			authors[name] = &Author{Name: name}
			if err := tx.Create(authors[name]).Error; err != nil {
				return fmt.Errorf("failed to create author %s: %w", name, err)
			}
		}

		books := []*Book{
			{
				Name:      "Dune",
				Synopsis:  "Paul Atreides and the desert planet Arrakis.",
				DateStart: "1965-08-01",
				DateEnd:   "1985-04-01",
				NbVolume:  6,
				NbVisit:   120,
				Tags:      []Tag{*tags["science-fiction"], *tags["classic"]},
				Authors:   []Author{*authors["Frank Herbert"]},
			},
			{
				Name:      "Le Petit Prince",
				Synopsis:  "Un aviateur rencontre un petit prince venu d'un astéroïde.",
				DateStart: "1943-04-06",
				DateEnd:   "1943-04-06",
				NbVolume:  1,
				NbVisit:   80,
				Tags:      []Tag{*tags["classic"]},
				Authors:   []Author{*authors["Antoine de Saint-Exupéry"]},
			},
			{
				Name:      "One Piece",
				Synopsis:  "Monkey D. Luffy sets out to find the One Piece.",
				DateStart: "1997-07-22",
				NbVolume:  107,
				NbVisit:   300,
				Tags:      []Tag{*tags["manga"], *tags["fantasy"]},
				Authors:   []Author{*authors["Eiichiro Oda"]},
			},
			{
				Name:      "The Lord of the Rings",
				Synopsis:  "The quest to destroy the One Ring.",
				DateStart: "1954-07-29",
				DateEnd:   "1955-10-20",
				NbVolume:  3,
				NbVisit:   95,
				Tags:      []Tag{*tags["fantasy"], *tags["classic"]},
				Authors:   []Author{*authors["J.R.R. Tolkien"]},
			},
		}
		if err := tx.Create(books).Error; err != nil {
			return fmt.Errorf("failed to create books: %w", err)
		}

		readings := []*Reading{
			{UserID: reader.ID, BookID: books[0].ID, CurrentVolume: 6, Rating: rating(9)},
			{UserID: reader.ID, BookID: books[2].ID, CurrentVolume: 50, Rating: rating(8.5)},
			{UserID: admin.ID, BookID: books[1].ID, CurrentVolume: 1, Rating: rating(10)},
			{UserID: admin.ID, BookID: books[3].ID, CurrentVolume: 1},
		}
		if err := tx.Create(readings).Error; err != nil {
			return fmt.Errorf("failed to create readings: %w", err)
		}

		comments := []*Comment{
			{UserID: reader.ID, BookID: books[0].ID, Content: "Un classique absolu."},
			{UserID: reader.ID, BookID: books[2].ID, Content: "Toujours aussi bon après 50 tomes."},
			{UserID: admin.ID, BookID: books[1].ID, Content: "On ne voit bien qu'avec le cœur."},
		}
		if err := tx.Omit("Book").Create(comments).Error; err != nil {
			return fmt.Errorf("failed to create comments: %w", err)
		}

		return nil
	})
}

func rating(v float64) *float64 {
	return &v
}
