package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"gopkg.in/yaml.v3"

	"codeberg.org/snonux/qb2anki/internal"
	"codeberg.org/snonux/qb2anki/internal/anki"
	"codeberg.org/snonux/qb2anki/internal/ankiconnect"
	"codeberg.org/snonux/qb2anki/internal/batch"
	"codeberg.org/snonux/qb2anki/internal/card"
	"codeberg.org/snonux/qb2anki/internal/cli"
	"codeberg.org/snonux/qb2anki/internal/explain"
	"codeberg.org/snonux/qb2anki/internal/gui"
	"codeberg.org/snonux/qb2anki/internal/qbparse"
)

// ErrEmptyInput is returned when the paste contains nothing but whitespace
var ErrEmptyInput = errors.New("input is empty")

// ErrNoQuestion is returned when neither a question nor choices were found
var ErrNoQuestion = errors.New("no question or choices recognised in input")

// Result is what a processed question turns into
type Result struct {
	qbparse.ParsedQuestion `yaml:",inline"`

	Deck    string   `json:"deck" yaml:"deck"`
	Subject string   `json:"subject,omitempty" yaml:"subject,omitempty"`
	Tags    []string `json:"tags" yaml:"tags"`
	NoteID  int64    `json:"note_id,omitempty" yaml:"note_id,omitempty"`
}

// Processor handles the main question processing logic
type Processor struct {
	flags     *cli.Flags
	parser    *qbparse.Parser
	client    *ankiconnect.Client
	explainer explain.Explainer
	exporter  *anki.Generator

	// Images are loaded once and reused for every card of a run
	frontImage imageSource
	backImage  imageSource

	stdin  io.Reader
	stdout io.Writer
}

// NewProcessor creates a new question processor
func NewProcessor(flags *cli.Flags) (*Processor, error) {
	parser, err := qbparse.NewParser(cli.GetExtraNoisePatterns()...)
	if err != nil {
		return nil, fmt.Errorf("invalid parser.extra_noise: %w", err)
	}

	opts := ankiconnect.DefaultOptions()
	opts.URL = flags.AnkiURL
	if flags.Timeout > 0 {
		opts.Timeout = flags.Timeout
	}

	p := &Processor{
		flags:      flags,
		parser:     parser,
		client:     ankiconnect.NewClient(opts),
		frontImage: imageSource{src: flags.FrontImage},
		backImage:  imageSource{src: flags.BackImage},
		stdin:      os.Stdin,
		stdout:     os.Stdout,
	}

	if flags.GenerateExplanation {
		explainer, err := explain.New(p.explainOptions())
		if err != nil {
			// Cards are still useful without a drafted explanation
			fmt.Fprintf(os.Stderr, "Warning: Explanations disabled: %v\n", err)
		} else {
			p.explainer = explain.NewCachedExplainer(explainer)
		}
	}

	if flags.Exporting() {
		p.exporter = anki.NewGenerator(&anki.GeneratorOptions{
			OutputPath:     flags.CSVFile,
			IncludeHeaders: true,
		})
	}

	return p, nil
}

func (p *Processor) explainOptions() *explain.Options {
	return &explain.Options{
		Provider:  p.flags.ExplainProvider,
		OpenAIKey: cli.GetOpenAIKey(),
		GeminiKey: cli.GetGeminiKey(),
		Model:     p.flags.ExplainModel,
	}
}

// ReadInput returns the pasted text: the clipboard when --clipboard is
// set, the file named by args[0], or stdin when args is empty or "-"
func (p *Processor) ReadInput(args []string) (string, error) {
	if p.flags.Clipboard {
		text, err := clipboard.ReadAll()
		if err != nil {
			return "", fmt.Errorf("failed to read clipboard: %w", err)
		}
		return text, nil
	}

	if len(args) > 0 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(p.stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

// ProcessText classifies one pasted question and delivers it. subject
// overrides the --subject flag when non-empty.
func (p *Processor) ProcessText(ctx context.Context, text, subject string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	if subject == "" {
		subject = p.flags.Subject
	}
	resolved, ok := card.LookupSubject(subject)
	if !ok {
		return nil, fmt.Errorf("unknown subject %q (see --list-subjects)", subject)
	}

	q := p.parser.Parse(text)
	if !q.HasFront() {
		return nil, ErrNoQuestion
	}
	if len(q.Choices) == 0 {
		fmt.Fprintf(os.Stderr, "Warning: No choices found\n")
	}
	if q.Correct == "" {
		fmt.Fprintf(os.Stderr, "Warning: No correct answer found\n")
	}

	if q.Explanation == "" && p.explainer != nil {
		fmt.Fprintf(p.stdout, "  Drafting explanation...\n")
		explanation, err := p.explainer.Explain(ctx, q)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Explanation failed: %v\n", err)
		} else {
			q.Explanation = explanation
		}
	}

	result := &Result{
		ParsedQuestion: q,
		Deck:           p.flags.Deck,
		Subject:        resolved,
		Tags:           card.BuildTags(resolved, p.flags.Tags),
	}

	if p.flags.DryRun {
		return result, p.printResult(result)
	}

	front, back, err := p.render(ctx, result)
	if err != nil {
		return nil, err
	}

	if p.exporter != nil {
		p.exporter.AddCard(anki.Card{Front: front, Back: back, Tags: result.Tags})
		fmt.Fprintf(p.stdout, "  Queued for export: %s\n", firstLine(q.Question))
		return result, nil
	}

	id, err := p.client.AddCard(ctx, ankiconnect.NoteRequest{
		Deck:  result.Deck,
		Front: front,
		Back:  back,
		Tags:  result.Tags,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add card: %w", err)
	}
	result.NoteID = id
	fmt.Fprintf(p.stdout, "  Added note %d to %s\n", id, result.Deck)

	return result, nil
}

// ProcessBatch processes every question block from the batch file
func (p *Processor) ProcessBatch(ctx context.Context) error {
	entries, err := batch.ReadBatchFile(p.flags.BatchFile)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no questions found in %s", p.flags.BatchFile)
	}

	processedCount := 0
	errorCount := 0

	for i, entry := range entries {
		fmt.Fprintf(p.stdout, "\nProcessing %d/%d (line %d)\n", i+1, len(entries), entry.Line)

		if _, err := p.ProcessText(ctx, entry.Text, entry.Subject); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing question at line %d: %v\n", entry.Line, err)
			errorCount++
			if errors.Is(err, ankiconnect.ErrUnavailable) {
				// No point in hammering a stopped Anki
				break
			}
			continue
		}
		processedCount++
	}

	// Print summary
	fmt.Fprintf(p.stdout, "\n=== Batch Processing Summary ===\n")
	fmt.Fprintf(p.stdout, "Total questions: %d\n", len(entries))
	fmt.Fprintf(p.stdout, "Processed: %d\n", processedCount)
	if errorCount > 0 {
		fmt.Fprintf(p.stdout, "Errors: %d\n", errorCount)
	}
	fmt.Fprintf(p.stdout, "================================\n")

	if processedCount == 0 {
		return fmt.Errorf("no question could be processed")
	}
	return nil
}

// WriteExport writes the collected cards to the requested files and
// returns their paths
func (p *Processor) WriteExport() ([]string, error) {
	if p.exporter == nil {
		return nil, nil
	}

	total, withImages := p.exporter.Stats()
	if total == 0 {
		return nil, fmt.Errorf("no cards to export")
	}

	var paths []string
	if p.flags.CSVFile != "" {
		if err := p.exporter.GenerateCSV(); err != nil {
			return nil, fmt.Errorf("failed to generate CSV: %w", err)
		}
		paths = append(paths, p.flags.CSVFile)
	}

	if p.flags.APKGFile != "" {
		outputPath := p.flags.APKGFile
		if info, err := os.Stat(outputPath); err == nil && info.IsDir() {
			outputPath = filepath.Join(outputPath, fmt.Sprintf("%s.apkg", internal.SanitizeFilename(p.flags.Deck)))
		}
		if err := p.exporter.GenerateAPKG(outputPath, p.flags.Deck); err != nil {
			return nil, fmt.Errorf("failed to generate APKG: %w", err)
		}
		paths = append(paths, outputPath)
	}

	fmt.Fprintf(p.stdout, "  Exported %d cards (%d with images)\n", total, withImages)
	return paths, nil
}

// CheckConnection reports the AnkiConnect version and decks
func (p *Processor) CheckConnection(ctx context.Context) error {
	version, err := p.client.Version(ctx)
	if err != nil {
		return fmt.Errorf("cannot reach AnkiConnect at %s: %w", p.client.URL(), err)
	}
	fmt.Fprintf(p.stdout, "Connected to AnkiConnect at %s (version %d)\n", p.client.URL(), version)

	decks, err := p.client.DeckNames(ctx)
	if err != nil {
		return fmt.Errorf("failed to list decks: %w", err)
	}
	fmt.Fprintf(p.stdout, "Decks: %s\n", strings.Join(decks, ", "))
	fmt.Fprintf(p.stdout, "Note type: %s\n", p.client.BasicModelName(ctx))
	return nil
}

// ListSubjects prints the subjects accepted by --subject
func (p *Processor) ListSubjects() {
	fmt.Fprintln(p.stdout, "Subjects (name or letter):")
	for _, subject := range card.Subjects[1:] {
		fmt.Fprintf(p.stdout, "  %s\n", subject)
	}
}

// ListModels prints the OpenAI chat models usable for explanations
func (p *Processor) ListModels(ctx context.Context) error {
	lister := explain.NewLister(cli.GetOpenAIKey(), "")
	return lister.PrintModels(ctx, p.stdout)
}

// RunGUIMode launches the GUI application
func (p *Processor) RunGUIMode() error {
	opts := ankiconnect.DefaultOptions()
	opts.URL = p.flags.AnkiURL
	opts.Timeout = p.flags.Timeout

	guiConfig := &gui.Config{
		AnkiOptions: opts,
		Parser:      p.parser,
		Deck:        p.flags.Deck,
		Subject:     p.flags.Subject,
		Tags:        p.flags.Tags,
	}

	// The GUI offers the explain button only when a provider is usable
	if explainer, err := explain.New(p.explainOptions()); err == nil {
		guiConfig.Explainer = explainer
	}

	app := gui.New(guiConfig)
	app.Run()

	return nil
}

// render builds the card HTML, embedding the configured images
func (p *Processor) render(ctx context.Context, result *Result) (front, back string, err error) {
	frontImg, err := p.frontImage.load(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to load front image: %w", err)
	}
	backImg, err := p.backImage.load(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to load back image: %w", err)
	}

	front, err = card.BuildFront(result.ParsedQuestion, result.Subject, frontImg)
	if err != nil {
		return "", "", err
	}
	back, err = card.BuildBack(result.ParsedQuestion, backImg)
	if err != nil {
		return "", "", err
	}
	return front, back, nil
}

func (p *Processor) printResult(result *Result) error {
	switch strings.ToLower(p.flags.Format) {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		fmt.Fprintln(p.stdout, string(data))
	case "yaml":
		data, err := yaml.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		fmt.Fprint(p.stdout, string(data))
	case "text", "":
		fmt.Fprintf(p.stdout, "=== Front (%s) ===\n%s\n\n", result.Deck, result.FrontText())
		fmt.Fprintf(p.stdout, "=== Back ===\n%s\n\n", result.BackText())
		fmt.Fprintf(p.stdout, "Tags: %s\n", strings.Join(result.Tags, " "))
	default:
		return fmt.Errorf("unknown format %q (text, json or yaml)", p.flags.Format)
	}
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
