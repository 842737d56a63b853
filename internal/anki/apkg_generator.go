package anki

import (
	"archive/zip"
	"crypto/sha1"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"codeberg.org/snonux/qb2anki/internal"
)

// APKGGenerator creates Anki package files (.apkg)
type APKGGenerator struct {
	deckName string
	deckID   int64
	modelID  int64
	cards    []Card
}

// NewAPKGGenerator creates a new APKG generator
func NewAPKGGenerator(deckName string) *APKGGenerator {
	// Generate IDs based on timestamp to ensure uniqueness
	now := time.Now().UnixMilli()
	return &APKGGenerator{
		deckName: deckName,
		deckID:   now,
		modelID:  now + 1,
		cards:    make([]Card, 0),
	}
}

// AddCard adds a card to the generator
func (g *APKGGenerator) AddCard(card Card) {
	g.cards = append(g.cards, card)
}

// GenerateAPKG writes the package to outputPath: the SQLite collection
// plus a media map. Images are embedded in the card HTML as data URIs, so
// the media map is always empty.
func (g *APKGGenerator) GenerateAPKG(outputPath string) error {
	tempDir, err := os.MkdirTemp("", "qb2anki_export_*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "collection.anki2")
	if err := g.createDatabase(dbPath); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := writePackage(outputPath, dbPath); err != nil {
		return fmt.Errorf("failed to create zip package: %w", err)
	}
	return nil
}

// createDatabase writes the collection in a single transaction
func (g *APKGGenerator) createDatabase(dbPath string) error {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range collectionSchema {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	now := time.Now()
	if err := g.insertCollection(tx, now); err != nil {
		return fmt.Errorf("failed to insert collection: %w", err)
	}
	if err := g.insertNotesAndCards(tx, now); err != nil {
		return fmt.Errorf("failed to insert notes and cards: %w", err)
	}

	return tx.Commit()
}

// insertCollection writes the single col row holding the deck, deck
// options and note type definitions
func (g *APKGGenerator) insertCollection(tx *sql.Tx, now time.Time) error {
	decks := map[string]deck{
		"1":                             newDeck(1, "Default", "", now),
		strconv.FormatInt(g.deckID, 10): newDeck(g.deckID, g.deckName, "QB questions created by qb2anki", now),
	}
	models := map[string]noteType{
		strconv.FormatInt(g.modelID, 10): newNoteType(g.modelID, g.deckID, now),
	}
	conf := collectionConf{
		NextPos:      1,
		EstTimes:     true,
		ActiveDecks:  []int64{1},
		SortType:     "noteFld",
		AddToCur:     true,
		CurDeck:      1,
		DueCounts:    true,
		CollapseTime: 1200,
		SchedVer:     1,
		CurModel:     strconv.FormatInt(g.modelID, 10),
	}
	dconf := map[string]deckOptions{"1": defaultDeckOptions(now)}

	var encoded [4]string
	for i, v := range []interface{}{conf, models, decks, dconf} {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		encoded[i] = string(data)
	}

	_, err := tx.Exec(`INSERT INTO col (id, crt, mod, scm, ver, dty, usn, ls, conf, models, decks, dconf, tags)
		VALUES (1, ?, ?, ?, ?, 0, 0, 0, ?, ?, ?, ?, '{}')`,
		now.Unix(), now.UnixMilli(), now.UnixMilli(), schemaVersion,
		encoded[0], encoded[1], encoded[2], encoded[3])
	return err
}

// insertNotesAndCards writes one new note and one new card per collected
// card, in collection order
func (g *APKGGenerator) insertNotesAndCards(tx *sql.Tx, now time.Time) error {
	noteStmt, err := tx.Prepare(`INSERT INTO notes (id, guid, mid, mod, usn, tags, flds, sfld, csum, flags, data)
		VALUES (?, ?, ?, ?, -1, ?, ?, ?, ?, 0, '')`)
	if err != nil {
		return err
	}
	defer noteStmt.Close()

	// type 0 and queue 0 mark a new card; due is its position in the queue
	cardStmt, err := tx.Prepare(`INSERT INTO cards (id, nid, did, ord, mod, usn, type, queue, due,
		ivl, factor, reps, lapses, left, odue, odid, flags, data)
		VALUES (?, ?, ?, 0, ?, -1, 0, 0, ?, 0, 0, 0, 0, 0, 0, 0, 0, '')`)
	if err != nil {
		return err
	}
	defer cardStmt.Close()

	base := now.UnixMilli()
	for i, c := range g.cards {
		// Leave room for the card ID after each note ID
		noteID := base + int64(i*2)
		cardID := noteID + 1

		sortField := stripHTML(c.Front)
		tags := ""
		if formatted := formatTags(c.Tags); formatted != "" {
			// Anki stores tags with surrounding spaces
			tags = " " + formatted + " "
		}

		if _, err := noteStmt.Exec(noteID, internal.GenerateNoteGUID(c.Front), g.modelID, now.Unix(),
			tags, c.Front+"\x1f"+c.Back, sortField, checksum(sortField)); err != nil {
			return fmt.Errorf("failed to insert note: %w", err)
		}
		if _, err := cardStmt.Exec(cardID, noteID, g.deckID, now.Unix(), i+1); err != nil {
			return fmt.Errorf("failed to insert card: %w", err)
		}
	}
	return nil
}

// writePackage zips the collection and an empty media map into outputPath
func writePackage(outputPath, dbPath string) error {
	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	archive := zip.NewWriter(out)

	db, err := os.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	w, err := archive.Create("collection.anki2")
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, db); err != nil {
		return err
	}

	w, err = archive.Create("media")
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, "{}"); err != nil {
		return err
	}

	if err := archive.Close(); err != nil {
		return err
	}
	return out.Close()
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// stripHTML reduces a field to the plain text Anki sorts and checksums by
func stripHTML(s string) string {
	return strings.TrimSpace(htmlTagRe.ReplaceAllString(s, " "))
}

// checksum is Anki's field checksum: the first 32 bits of the SHA1 of the
// stripped sort field
func checksum(s string) int64 {
	sum := sha1.Sum([]byte(s))
	return int64(binary.BigEndian.Uint32(sum[:4]))
}
