package anki

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Card is a rendered note ready for export
type Card struct {
	Front string   // Front HTML (question and choices)
	Back  string   // Back HTML (correct answer and explanation)
	Tags  []string // Anki tags
}

// GeneratorOptions configures the Anki export
type GeneratorOptions struct {
	OutputPath     string // Output CSV file path
	IncludeHeaders bool   // Include CSV headers
}

// DefaultGeneratorOptions returns sensible defaults
func DefaultGeneratorOptions() *GeneratorOptions {
	return &GeneratorOptions{
		OutputPath:     "qb_import.csv",
		IncludeHeaders: true,
	}
}

// Generator collects cards and writes Anki import files
type Generator struct {
	options *GeneratorOptions
	cards   []Card
}

// NewGenerator creates a new Anki generator
func NewGenerator(options *GeneratorOptions) *Generator {
	if options == nil {
		options = DefaultGeneratorOptions()
	}
	return &Generator{
		options: options,
		cards:   make([]Card, 0),
	}
}

// AddCard adds a card to the collection
func (g *Generator) AddCard(card Card) {
	g.cards = append(g.cards, card)
}

// GetCards returns the collected cards
func (g *Generator) GetCards() []Card {
	return g.cards
}

// GenerateCSV writes the cards as a CSV file Anki can import with
// "Allow HTML in fields" enabled. Tags are space separated, as Anki
// expects in a tags column.
func (g *Generator) GenerateCSV() error {
	if dir := filepath.Dir(g.options.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(g.options.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if g.options.IncludeHeaders {
		if err := writer.Write([]string{"Front", "Back", "Tags"}); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for _, card := range g.cards {
		record := []string{card.Front, card.Back, formatTags(card.Tags)}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write card: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// GenerateAPKG creates a .apkg package containing all cards
func (g *Generator) GenerateAPKG(outputPath, deckName string) error {
	apkgGen := NewAPKGGenerator(deckName)
	for _, card := range g.cards {
		apkgGen.AddCard(card)
	}
	return apkgGen.GenerateAPKG(outputPath)
}

// Stats returns statistics about the card collection
func (g *Generator) Stats() (totalCards, withImages int) {
	totalCards = len(g.cards)
	for _, card := range g.cards {
		if strings.Contains(card.Front, "<img") || strings.Contains(card.Back, "<img") {
			withImages++
		}
	}
	return
}

// formatTags joins tags the way Anki stores them: space separated, with
// spaces inside a tag replaced by underscores.
func formatTags(tags []string) string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.Join(strings.Fields(tag), "_")
		if tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return strings.Join(cleaned, " ")
}
