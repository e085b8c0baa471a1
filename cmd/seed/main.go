// Command seed creates a database with a small public domain catalog, a few
// accounts and sample reviews, useful for local development.
// Usage: go run cmd/seed/main.go [-db path/to/bookclub.db]
package main

import (
	"flag"
	"log"
	"os"

	"github.com/SmoothCdoer9981/bookclub/internal/auth"
	"github.com/SmoothCdoer9981/bookclub/internal/config"
	"github.com/SmoothCdoer9981/bookclub/internal/database"
	"github.com/SmoothCdoer9981/bookclub/internal/database/books"
	"github.com/SmoothCdoer9981/bookclub/internal/database/progress"
	"github.com/SmoothCdoer9981/bookclub/internal/database/reviews"
	"github.com/SmoothCdoer9981/bookclub/internal/entities"
)

const defaultSeedDatabasePath = "./bookclub.db"

type chapterSeed struct {
	title   string
	content string
}

type bookSeed struct {
	title       string
	subtitle    string
	description string
	chapters    []chapterSeed
}

func main() {
	dbPath := flag.String("db", defaultSeedDatabasePath, "path to the database file")
	flag.Parse()

	log.Printf("Seeding database at %s...", *dbPath)

	// Start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove existing database: %v", err)
	}

	db, err := database.NewDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	service := auth.NewService(db.DB, config.Auth{BcryptCost: 10})
	catalogRepo := books.NewRepository(db.DB)
	reviewRepo := reviews.NewRepository(db.DB)
	progressRepo := progress.NewRepository(db.DB)

	head, err := service.CreateUser("admin", strPtr("admin@example.com"), "adminadmin", entities.UserRoleHead)
	if err != nil {
		log.Fatalf("Failed to create head account: %v", err)
	}
	reader, err := service.Register("reader", "reader@example.com", "readerreader")
	if err != nil {
		log.Fatalf("Failed to create reader account: %v", err)
	}
	log.Printf("Created accounts: %s (head), %s (user); passwords match the usernames doubled", head.Username, reader.Username)

	for _, seed := range publicDomainBooks() {
		book, err := catalogRepo.CreateBook(seed.title, seed.subtitle, seed.description, "")
		if err != nil {
			log.Printf("Failed to save book %s: %v", seed.title, err)
			continue
		}

		var lastChapter *entities.Chapter
		for i, chapter := range seed.chapters {
			created, err := catalogRepo.AddChapter(book.ID, i+1, chapter.title, chapter.content)
			if err != nil {
				log.Printf("Failed to add chapter %q to %s: %v", chapter.title, seed.title, err)
				continue
			}
			lastChapter = created
		}
		log.Printf("Saved: %s (%d chapters)", book.Title, len(seed.chapters))

		review, err := reviewRepo.Submit(book.ID, &reader.ID, reader.Username, "A fine read, recommended.")
		if err != nil {
			log.Printf("Failed to seed review for %s: %v", seed.title, err)
		} else if err := reviewRepo.Approve(review.ID); err != nil {
			log.Printf("Failed to approve seeded review: %v", err)
		}

		if lastChapter != nil {
			if err := progressRepo.RecordView(reader.ID, book.ID, lastChapter.ID); err != nil {
				log.Printf("Failed to seed progress for %s: %v", seed.title, err)
			}
		}
	}

	// One pending review from a since-deleted account so the moderation
	// queue is not empty
	all, err := catalogRepo.ListBooks()
	if err == nil && len(all) > 0 {
		if _, err := reviewRepo.Submit(all[0].ID, nil, "Former Member", "Not sure this one holds up."); err != nil {
			log.Printf("Failed to seed pending review: %v", err)
		}
	}

	log.Println("Database seeded successfully!")
}

func strPtr(s string) *string { return &s }

func publicDomainBooks() []bookSeed {
	return []bookSeed{
		{
			title:       "Flatland",
			subtitle:    "A Romance of Many Dimensions",
			description: "Edwin A. Abbott's satirical novella about a two-dimensional world, narrated by A Square.",
			chapters: []chapterSeed{
				{
					title:   "Of the Nature of Flatland",
					content: "I call our world Flatland, not because we call it so, but to make its nature clearer to you, my happy readers, who are privileged to live in Space.",
				},
				{
					title:   "Of the Climate and Houses in Flatland",
					content: "As with you, so also with us, there are four points of the compass North, South, East, and West.",
				},
				{
					title:   "Concerning the Inhabitants of Flatland",
					content: "The greatest length or breadth of a full grown inhabitant of Flatland may be estimated at about eleven of your inches.",
				},
			},
		},
		{
			title:       "The Time Machine",
			subtitle:    "",
			description: "H. G. Wells' pioneering scientific romance: a Victorian inventor travels to the year 802,701.",
			chapters: []chapterSeed{
				{
					title:   "Introduction",
					content: "The Time Traveller (for so it will be convenient to speak of him) was expounding a recondite matter to us.",
				},
				{
					title:   "The Machine",
					content: "The thing the Time Traveller held in his hand was a glittering metallic framework, scarcely larger than a small clock, and very delicately made.",
				},
			},
		},
		{
			title:       "Meditations",
			subtitle:    "",
			description: "The private reflections of Marcus Aurelius, Roman Emperor and Stoic philosopher.",
			chapters: []chapterSeed{
				{
					title:   "Book One",
					content: "From my grandfather Verus I learned good morals and the government of my temper.",
				},
				{
					title:   "Book Two",
					content: "Begin the morning by saying to thyself, I shall meet with the busy-body, the ungrateful, arrogant, deceitful, envious, unsocial.",
				},
			},
		},
	}
}
