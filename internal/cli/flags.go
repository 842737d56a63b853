package cli

import (
	"time"

	"codeberg.org/snonux/qb2anki/internal/ankiconnect"
	"codeberg.org/snonux/qb2anki/internal/card"
)

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile      string
	BatchFile    string
	Clipboard    bool
	DryRun       bool
	Format       string
	Check        bool
	ListSubjects bool
	GUIMode      bool

	// Card flags
	Deck       string
	Subject    string
	Tags       string
	FrontImage string
	BackImage  string

	// AnkiConnect flags
	AnkiURL string
	Timeout time.Duration

	// Offline export flags
	APKGFile string
	CSVFile  string

	// Explanation flags
	GenerateExplanation bool
	ExplainProvider     string
	ExplainModel        string
	ListModels          bool
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		Format:          "text",
		Deck:            card.DefaultDeck,
		AnkiURL:         ankiconnect.DefaultURL,
		Timeout:         ankiconnect.DefaultOptions().Timeout,
		ExplainProvider: "openai",
	}
}

// Exporting reports whether cards go to an offline file instead of Anki
func (f *Flags) Exporting() bool {
	return f.APKGFile != "" || f.CSVFile != ""
}
