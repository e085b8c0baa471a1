package http

import (
	"errors"
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"github.com/SmoothCdoer9981/bookclub/internal/auth"
	"github.com/SmoothCdoer9981/bookclub/internal/database/books"
	"github.com/SmoothCdoer9981/bookclub/internal/database/reviews"
	"github.com/SmoothCdoer9981/bookclub/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var errDatabase = errors.New("database gone away")

// asUser injects an authenticated user into the request context, standing in
// for the session middleware.
func asUser(id uint, username string, role entities.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(auth.ContextKeyUserID, id)
		c.Set(auth.ContextKeyUsername, username)
		c.Set(auth.ContextKeyRole, role)
		c.Next()
	}
}

// mockCatalog is an in-memory CatalogStore.
type mockCatalog struct {
	books    map[uint]*entities.Book
	chapters map[uint]*entities.Chapter
	nextID   uint

	deletedBooks    []uint
	deletedChapters []uint
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		books:    make(map[uint]*entities.Book),
		chapters: make(map[uint]*entities.Chapter),
		nextID:   1,
	}
}

func (m *mockCatalog) addBook(book entities.Book) *entities.Book {
	book.ID = m.nextID
	m.nextID++
	m.books[book.ID] = &book
	return m.books[book.ID]
}

func (m *mockCatalog) addChapter(bookID uint, number int, title string) *entities.Chapter {
	chapter := &entities.Chapter{
		ID:            m.nextID,
		BookID:        bookID,
		ChapterNumber: number,
		Title:         title,
		Content:       "content of " + title,
	}
	m.nextID++
	m.chapters[chapter.ID] = chapter
	if book, ok := m.books[bookID]; ok {
		book.Chapters = append(book.Chapters, *chapter)
	}
	return chapter
}

func (m *mockCatalog) CreateBook(title, subtitle, description, imageURL string) (*entities.Book, error) {
	if title == "" {
		return nil, books.ErrTitleRequired
	}
	if description == "" {
		return nil, books.ErrDescriptionRequired
	}
	return m.addBook(entities.Book{Title: title, Subtitle: subtitle, Description: description, ImageURL: imageURL}), nil
}

func (m *mockCatalog) UpdateBook(id uint, title, subtitle, description, imageURL string) (*entities.Book, error) {
	book, ok := m.books[id]
	if !ok {
		return nil, books.ErrBookNotFound
	}
	if title == "" {
		return nil, books.ErrTitleRequired
	}
	book.Title = title
	book.Subtitle = subtitle
	book.Description = description
	if imageURL != "" {
		book.ImageURL = imageURL
	}
	return book, nil
}

func (m *mockCatalog) DeleteBook(id uint) error {
	if _, ok := m.books[id]; !ok {
		return books.ErrBookNotFound
	}
	delete(m.books, id)
	m.deletedBooks = append(m.deletedBooks, id)
	return nil
}

func (m *mockCatalog) GetBook(id uint) (*entities.Book, error) {
	book, ok := m.books[id]
	if !ok {
		return nil, books.ErrBookNotFound
	}
	return book, nil
}

func (m *mockCatalog) ListBooks() ([]entities.Book, error) {
	all := make([]entities.Book, 0, len(m.books))
	for _, book := range m.books {
		all = append(all, *book)
	}
	return all, nil
}

func (m *mockCatalog) AddChapter(bookID uint, number int, title, content string) (*entities.Chapter, error) {
	if _, ok := m.books[bookID]; !ok {
		return nil, books.ErrBookNotFound
	}
	for _, chapter := range m.chapters {
		if chapter.BookID == bookID && chapter.ChapterNumber == number {
			return nil, books.ErrChapterNumberTaken
		}
	}
	if title == "" {
		return nil, books.ErrChapterTitleRequired
	}
	if content == "" {
		return nil, books.ErrChapterContentRequired
	}
	chapter := m.addChapter(bookID, number, title)
	chapter.Content = content
	return chapter, nil
}

func (m *mockCatalog) UpdateChapter(chapterID uint, number int, title, content string) (*entities.Chapter, error) {
	chapter, ok := m.chapters[chapterID]
	if !ok {
		return nil, books.ErrChapterNotFound
	}
	for _, other := range m.chapters {
		if other.ID != chapterID && other.BookID == chapter.BookID && other.ChapterNumber == number {
			return nil, books.ErrChapterNumberTaken
		}
	}
	chapter.ChapterNumber = number
	chapter.Title = title
	chapter.Content = content
	return chapter, nil
}

func (m *mockCatalog) GetChapter(bookID, chapterID uint) (*entities.Chapter, error) {
	if _, ok := m.books[bookID]; !ok {
		return nil, books.ErrBookNotFound
	}
	chapter, ok := m.chapters[chapterID]
	if !ok || chapter.BookID != bookID {
		return nil, books.ErrChapterNotFound
	}
	return chapter, nil
}

func (m *mockCatalog) DeleteChapter(bookID, chapterID uint) error {
	chapter, ok := m.chapters[chapterID]
	if !ok || chapter.BookID != bookID {
		return books.ErrChapterNotFound
	}
	delete(m.chapters, chapterID)
	m.deletedChapters = append(m.deletedChapters, chapterID)
	return nil
}

func (m *mockCatalog) Navigate(bookID uint, chapterNumber int) (prev, next *entities.Chapter, err error) {
	for _, chapter := range m.chapters {
		if chapter.BookID != bookID {
			continue
		}
		if chapter.ChapterNumber < chapterNumber {
			if prev == nil || chapter.ChapterNumber > prev.ChapterNumber {
				prev = chapter
			}
		}
		if chapter.ChapterNumber > chapterNumber {
			if next == nil || chapter.ChapterNumber < next.ChapterNumber {
				next = chapter
			}
		}
	}
	return prev, next, nil
}

// mockReviews is an in-memory ReviewStore.
type mockReviews struct {
	byID   map[uint]*entities.Review
	nextID uint

	bookExists func(bookID uint) bool
}

func newMockReviews() *mockReviews {
	return &mockReviews{
		byID:       make(map[uint]*entities.Review),
		nextID:     1,
		bookExists: func(uint) bool { return true },
	}
}

func (m *mockReviews) Submit(bookID uint, userID *uint, reviewerName, content string) (*entities.Review, error) {
	if !m.bookExists(bookID) {
		return nil, reviews.ErrBookNotFound
	}
	if content == "" {
		return nil, reviews.ErrContentRequired
	}
	if reviewerName == "" {
		return nil, reviews.ErrNameRequired
	}
	review := &entities.Review{
		ID:           m.nextID,
		BookID:       bookID,
		UserID:       userID,
		ReviewerName: reviewerName,
		Content:      content,
	}
	m.nextID++
	m.byID[review.ID] = review
	return review, nil
}

func (m *mockReviews) Approve(id uint) error {
	review, ok := m.byID[id]
	if !ok {
		return reviews.ErrReviewNotFound
	}
	review.Approved = true
	return nil
}

func (m *mockReviews) Reject(id uint) error {
	if _, ok := m.byID[id]; !ok {
		return reviews.ErrReviewNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *mockReviews) ListForBook(bookID uint, approvedOnly bool) ([]entities.Review, error) {
	var out []entities.Review
	for _, review := range m.byID {
		if review.BookID != bookID {
			continue
		}
		if approvedOnly && !review.Approved {
			continue
		}
		out = append(out, *review)
	}
	return out, nil
}

func (m *mockReviews) ListAll() ([]entities.Review, error) {
	out := make([]entities.Review, 0, len(m.byID))
	for _, review := range m.byID {
		out = append(out, *review)
	}
	return out, nil
}

func (m *mockReviews) ListForUser(userID uint) ([]entities.Review, error) {
	var out []entities.Review
	for _, review := range m.byID {
		if review.UserID != nil && *review.UserID == userID {
			out = append(out, *review)
		}
	}
	return out, nil
}

// mockProgress records RecordView calls.
type mockProgress struct {
	records map[[2]uint]*entities.ReadingProgress
	views   [][3]uint
	err     error
}

func newMockProgress() *mockProgress {
	return &mockProgress{records: make(map[[2]uint]*entities.ReadingProgress)}
}

func (m *mockProgress) RecordView(userID, bookID, chapterID uint) error {
	if m.err != nil {
		return m.err
	}
	m.views = append(m.views, [3]uint{userID, bookID, chapterID})
	m.records[[2]uint{userID, bookID}] = &entities.ReadingProgress{
		UserID:    userID,
		BookID:    bookID,
		ChapterID: chapterID,
	}
	return nil
}

func (m *mockProgress) Get(userID, bookID uint) (*entities.ReadingProgress, error) {
	return m.records[[2]uint{userID, bookID}], nil
}

func (m *mockProgress) ListForUser(userID uint) ([]entities.ReadingProgress, error) {
	var out []entities.ReadingProgress
	for key, record := range m.records {
		if key[0] == userID {
			out = append(out, *record)
		}
	}
	return out, nil
}

// mockCovers fakes cover storage.
type mockCovers struct {
	saved   []string
	removed []string
	err     error
}

func (m *mockCovers) SaveCover(header *multipart.FileHeader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	url := "/static/images/covers/" + header.Filename
	m.saved = append(m.saved, url)
	return url, nil
}

func (m *mockCovers) Remove(imageURL string) error {
	m.removed = append(m.removed, imageURL)
	return nil
}

// mockAnnouncer records announcement requests.
type mockAnnouncer struct {
	announced []uint
}

func (m *mockAnnouncer) AnnounceBook(bookID uint) error {
	m.announced = append(m.announced, bookID)
	return nil
}
