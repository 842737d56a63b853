package ankiconnect

import (
	"context"
	"errors"
	"fmt"
)

// basicModelNames are the localized names of Anki's stock "Basic" note
// type, in order of preference.
var basicModelNames = []string{"Basic", "基本", "Básico", "Basique", "Basis"}

// Note is the payload of the addNote action.
type Note struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Tags      []string          `json:"tags"`
	Options   *NoteOptions      `json:"options,omitempty"`
}

// NoteOptions controls duplicate handling for addNote.
type NoteOptions struct {
	AllowDuplicate bool   `json:"allowDuplicate"`
	DuplicateScope string `json:"duplicateScope"`
}

// Version returns the AnkiConnect API version.
func (c *Client) Version(ctx context.Context) (int, error) {
	var v int
	err := c.Invoke(ctx, "version", nil, &v)
	return v, err
}

// DeckNames lists all decks.
func (c *Client) DeckNames(ctx context.Context) ([]string, error) {
	var names []string
	err := c.Invoke(ctx, "deckNames", nil, &names)
	return names, err
}

// ModelNames lists all note types.
func (c *Client) ModelNames(ctx context.Context) ([]string, error) {
	var names []string
	err := c.Invoke(ctx, "modelNames", nil, &names)
	return names, err
}

// ModelFieldNames lists the fields of a note type in order.
func (c *Client) ModelFieldNames(ctx context.Context, model string) ([]string, error) {
	var names []string
	err := c.Invoke(ctx, "modelFieldNames", map[string]string{"modelName": model}, &names)
	return names, err
}

// CreateDeck creates deck if it does not exist and returns its ID.
func (c *Client) CreateDeck(ctx context.Context, deck string) (int64, error) {
	var id int64
	err := c.Invoke(ctx, "createDeck", map[string]string{"deck": deck}, &id)
	return id, err
}

// AddNote adds a note and returns its ID.
func (c *Client) AddNote(ctx context.Context, note Note) (int64, error) {
	var id int64
	err := c.Invoke(ctx, "addNote", map[string]Note{"note": note}, &id)
	return id, err
}

// BasicModelName picks the note type to add cards with: a stock Basic
// model if present, otherwise the first model with at least two fields,
// otherwise the first model. Any failure yields "Basic".
func (c *Client) BasicModelName(ctx context.Context) string {
	models, err := c.ModelNames(ctx)
	if err != nil {
		return "Basic"
	}

	for _, candidate := range basicModelNames {
		for _, m := range models {
			if m == candidate {
				return m
			}
		}
	}

	for _, m := range models {
		fields, err := c.ModelFieldNames(ctx, m)
		if err != nil {
			return "Basic"
		}
		if len(fields) >= 2 {
			return m
		}
	}

	if len(models) > 0 {
		return models[0]
	}
	return "Basic"
}

// NoteRequest is a rendered card ready to be added.
type NoteRequest struct {
	Deck  string
	Front string
	Back  string
	Tags  []string
}

// AddCard creates the deck if needed, resolves the note type and its
// front/back fields, and adds the card. Duplicates within the deck are
// rejected by Anki.
func (c *Client) AddCard(ctx context.Context, req NoteRequest) (int64, error) {
	if req.Deck == "" {
		return 0, errors.New("deck name is required")
	}

	if _, err := c.CreateDeck(ctx, req.Deck); err != nil {
		return 0, fmt.Errorf("failed to create deck: %w", err)
	}

	model := c.BasicModelName(ctx)
	fields, err := c.ModelFieldNames(ctx, model)
	if err != nil {
		return 0, fmt.Errorf("failed to read fields of %s: %w", model, err)
	}

	frontField, backField := "Front", "Back"
	if len(fields) > 0 {
		frontField = fields[0]
	}
	if len(fields) > 1 {
		backField = fields[1]
	}

	id, err := c.AddNote(ctx, Note{
		DeckName:  req.Deck,
		ModelName: model,
		Fields:    map[string]string{frontField: req.Front, backField: req.Back},
		Tags:      req.Tags,
		Options:   &NoteOptions{AllowDuplicate: false, DuplicateScope: "deck"},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add note: %w", err)
	}
	return id, nil
}
