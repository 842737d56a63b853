package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	stdimage "image"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"codeberg.org/snonux/qb2anki/internal/ankiconnect"
	"codeberg.org/snonux/qb2anki/internal/cli"
	"codeberg.org/snonux/qb2anki/internal/image"
	"codeberg.org/snonux/qb2anki/internal/qbparse"
	"codeberg.org/snonux/qb2anki/internal/testutil"
)

type stubExplainer struct {
	calls int
}

func (s *stubExplainer) Explain(ctx context.Context, q qbparse.ParsedQuestion) (string, error) {
	s.calls++
	return "自動生成された解説", nil
}

func newTestProcessor(t *testing.T, flags *cli.Flags) (*Processor, *bytes.Buffer) {
	t.Helper()

	p, err := NewProcessor(flags)
	if err != nil {
		t.Fatalf("NewProcessor() error = %v", err)
	}
	var out bytes.Buffer
	p.stdout = &out
	return p, &out
}

func TestNewProcessor(t *testing.T) {
	flags := cli.NewFlags()
	p, err := NewProcessor(flags)
	if err != nil {
		t.Fatalf("NewProcessor() error = %v", err)
	}

	if p.flags != flags {
		t.Error("Processor flags not set correctly")
	}
	if p.parser == nil {
		t.Error("Parser not initialized")
	}
	if p.client == nil {
		t.Error("AnkiConnect client not initialized")
	}
	if p.explainer != nil {
		t.Error("Explainer should be disabled by default")
	}
	if p.exporter != nil {
		t.Error("Exporter should be nil without --apkg/--csv")
	}
}

func TestNewProcessorInvalidExtraNoise(t *testing.T) {
	originalConfig := viper.New()
	*originalConfig = *viper.GetViper()
	defer func() {
		*viper.GetViper() = *originalConfig
	}()

	viper.Reset()
	viper.Set("parser.extra_noise", []string{"(unclosed"})

	if _, err := NewProcessor(cli.NewFlags()); err == nil {
		t.Error("Expected error for invalid extra noise pattern")
	}
}

func TestReadInput(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "q.txt")
	testutil.CreateTestFile(t, path, []byte("from file"))

	p, _ := newTestProcessor(t, cli.NewFlags())
	p.stdin = strings.NewReader("from stdin")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"file argument", []string{path}, "from file"},
		{"no argument reads stdin", nil, "from stdin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ReadInput(tt.args)
			if err != nil {
				t.Fatalf("ReadInput() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadInput() = %q, want %q", got, tt.want)
			}
		})
	}

	p.stdin = strings.NewReader("dash")
	if got, _ := p.ReadInput([]string{"-"}); got != "dash" {
		t.Errorf("ReadInput(-) = %q, want stdin", got)
	}

	if _, err := p.ReadInput([]string{filepath.Join(tempDir, "missing.txt")}); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestProcessTextEmptyInput(t *testing.T) {
	p, _ := newTestProcessor(t, cli.NewFlags())

	for _, input := range []string{"", "   ", "\n\t\u3000\n"} {
		_, err := p.ProcessText(context.Background(), input, "")
		if !errors.Is(err, ErrEmptyInput) {
			t.Errorf("ProcessText(%q) error = %v, want ErrEmptyInput", input, err)
		}
	}
}

func TestProcessTextNoiseOnly(t *testing.T) {
	p, _ := newTestProcessor(t, cli.NewFlags())

	if _, err := p.ProcessText(context.Background(), "リトライ\n基準値\n", ""); !errors.Is(err, ErrNoQuestion) {
		t.Errorf("ProcessText() error = %v, want ErrNoQuestion", err)
	}
}

func TestProcessTextRejectsEmptyFront(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"explanation only", "解説\n心電図でST上昇を認める。"},
		{"answer and explanation only", "正解：b\n解説\n急性心筋梗塞である。"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := cli.NewFlags()
			flags.CSVFile = filepath.Join(t.TempDir(), "out.csv")
			p, _ := newTestProcessor(t, flags)

			if _, err := p.ProcessText(context.Background(), tt.input, ""); !errors.Is(err, ErrNoQuestion) {
				t.Errorf("ProcessText() error = %v, want ErrNoQuestion", err)
			}
			if total, _ := p.exporter.Stats(); total != 0 {
				t.Errorf("exporter holds %d cards, want 0", total)
			}
		})
	}
}

func TestProcessTextUnknownSubject(t *testing.T) {
	flags := cli.NewFlags()
	flags.Subject = "眼球"
	p, _ := newTestProcessor(t, flags)

	if _, err := p.ProcessText(context.Background(), testutil.SampleQuestion, ""); err == nil {
		t.Error("Expected error for unknown subject")
	}
}

func TestProcessTextSendsToAnki(t *testing.T) {
	mock := testutil.NewMockAnkiConnect(t)

	flags := cli.NewFlags()
	flags.AnkiURL = mock.URL()
	flags.Subject = "c"
	flags.Tags = "要復習"
	p, out := newTestProcessor(t, flags)

	result, err := p.ProcessText(context.Background(), testutil.SampleQuestion, "")
	if err != nil {
		t.Fatalf("ProcessText() error = %v", err)
	}

	if result.NoteID != 1001 {
		t.Errorf("NoteID = %d, want 1001", result.NoteID)
	}
	if result.Correct != "B" {
		t.Errorf("Correct = %q, want B", result.Correct)
	}
	wantTags := []string{"科目::C 循環器", "QB", "要復習"}
	if !reflect.DeepEqual(result.Tags, wantTags) {
		t.Errorf("Tags = %v, want %v", result.Tags, wantTags)
	}

	call, ok := mock.LastCall("addNote")
	if !ok {
		t.Fatal("addNote was not called")
	}
	var params struct {
		Note struct {
			DeckName string            `json:"deckName"`
			Fields   map[string]string `json:"fields"`
			Tags     []string          `json:"tags"`
		} `json:"note"`
	}
	if err := json.Unmarshal(call.Params, &params); err != nil {
		t.Fatalf("Failed to decode addNote params: %v", err)
	}
	if params.Note.DeckName != "国試" {
		t.Errorf("deckName = %q, want 国試", params.Note.DeckName)
	}
	if !strings.Contains(params.Note.Fields["Front"], "急性心筋梗塞") {
		t.Errorf("Front field missing choice text: %s", params.Note.Fields["Front"])
	}
	if !strings.Contains(params.Note.Fields["Back"], "正解：B") {
		t.Errorf("Back field missing answer banner: %s", params.Note.Fields["Back"])
	}
	if !reflect.DeepEqual(params.Note.Tags, wantTags) {
		t.Errorf("note tags = %v, want %v", params.Note.Tags, wantTags)
	}

	if !strings.Contains(out.String(), "Added note 1001") {
		t.Errorf("Expected progress output, got %q", out.String())
	}
}

func TestProcessTextAnkiError(t *testing.T) {
	mock := testutil.NewMockAnkiConnect(t)
	mock.Handlers["addNote"] = func(json.RawMessage) (any, string) {
		return nil, "cannot create note because it is a duplicate"
	}

	flags := cli.NewFlags()
	flags.AnkiURL = mock.URL()
	p, _ := newTestProcessor(t, flags)

	_, err := p.ProcessText(context.Background(), testutil.SampleQuestion, "")
	var apiErr *ankiconnect.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("ProcessText() error = %v, want *ankiconnect.APIError", err)
	}
	if !strings.Contains(apiErr.Message, "duplicate") {
		t.Errorf("APIError.Message = %q", apiErr.Message)
	}
}

func TestProcessTextDryRunFormats(t *testing.T) {
	mock := testutil.NewMockAnkiConnect(t)

	tests := []struct {
		format string
		check  func(t *testing.T, out string)
	}{
		{
			format: "text",
			check: func(t *testing.T, out string) {
				for _, want := range []string{"=== Front (国試) ===", "b 急性心筋梗塞", "正解：B", "Tags: QB"} {
					if !strings.Contains(out, want) {
						t.Errorf("text output missing %q:\n%s", want, out)
					}
				}
			},
		},
		{
			format: "json",
			check: func(t *testing.T, out string) {
				var got map[string]interface{}
				if err := json.Unmarshal([]byte(out), &got); err != nil {
					t.Fatalf("invalid JSON: %v\n%s", err, out)
				}
				if got["correct"] != "B" || got["deck"] != "国試" {
					t.Errorf("unexpected JSON: %v", got)
				}
				if _, ok := got["note_id"]; ok {
					t.Error("dry run should not report a note ID")
				}
			},
		},
		{
			format: "yaml",
			check: func(t *testing.T, out string) {
				var got struct {
					Question string   `yaml:"question"`
					Choices  []string `yaml:"choices"`
					Correct  string   `yaml:"correct"`
					Tags     []string `yaml:"tags"`
				}
				if err := yaml.Unmarshal([]byte(out), &got); err != nil {
					t.Fatalf("invalid YAML: %v\n%s", err, out)
				}
				if got.Correct != "B" || len(got.Choices) != 3 {
					t.Errorf("unexpected YAML: %+v", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			flags := cli.NewFlags()
			flags.AnkiURL = mock.URL()
			flags.DryRun = true
			flags.Format = tt.format
			p, out := newTestProcessor(t, flags)

			if _, err := p.ProcessText(context.Background(), testutil.SampleQuestion, ""); err != nil {
				t.Fatalf("ProcessText() error = %v", err)
			}
			tt.check(t, out.String())
		})
	}

	if actions := mock.Actions(); len(actions) != 0 {
		t.Errorf("dry run should not talk to AnkiConnect, got %v", actions)
	}
}

func TestProcessTextUnknownFormat(t *testing.T) {
	flags := cli.NewFlags()
	flags.DryRun = true
	flags.Format = "xml"
	p, _ := newTestProcessor(t, flags)

	if _, err := p.ProcessText(context.Background(), testutil.SampleQuestion, ""); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestProcessTextExplainsMissingExplanation(t *testing.T) {
	flags := cli.NewFlags()
	flags.DryRun = true
	p, _ := newTestProcessor(t, flags)

	stub := &stubExplainer{}
	p.explainer = stub

	noExplanation := "診断はどれか。\n* a 狭心症\n* b 急性心筋梗塞\n正解：B"
	result, err := p.ProcessText(context.Background(), noExplanation, "")
	if err != nil {
		t.Fatalf("ProcessText() error = %v", err)
	}
	if result.Explanation != "自動生成された解説" {
		t.Errorf("Explanation = %q", result.Explanation)
	}

	// A pasted explanation is never replaced
	result, err = p.ProcessText(context.Background(), testutil.SampleQuestion, "")
	if err != nil {
		t.Fatalf("ProcessText() error = %v", err)
	}
	if result.Explanation == "自動生成された解説" {
		t.Error("Pasted explanation should be kept")
	}
	if stub.calls != 1 {
		t.Errorf("explainer called %d times, want 1", stub.calls)
	}
}

func TestProcessBatchExport(t *testing.T) {
	tempDir := t.TempDir()
	batchFile := filepath.Join(tempDir, "batch.txt")
	content := testutil.SampleQuestion + "\n---\nsubject = A\n胃癌の危険因子はどれか。\n* a ピロリ菌感染\n* b 運動\n正解：a\n---\n\n---\nリトライ\n"
	testutil.CreateTestFile(t, batchFile, []byte(content))

	flags := cli.NewFlags()
	flags.BatchFile = batchFile
	flags.CSVFile = filepath.Join(tempDir, "out.csv")
	flags.APKGFile = filepath.Join(tempDir, "out.apkg")
	p, out := newTestProcessor(t, flags)

	if err := p.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}

	summary := out.String()
	if !strings.Contains(summary, "Total questions: 3") || !strings.Contains(summary, "Processed: 2") || !strings.Contains(summary, "Errors: 1") {
		t.Errorf("unexpected summary:\n%s", summary)
	}

	paths, err := p.WriteExport()
	if err != nil {
		t.Fatalf("WriteExport() error = %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("WriteExport() paths = %v, want 2", paths)
	}

	testutil.AssertFileExists(t, flags.APKGFile)
	testutil.AssertFileContains(t, flags.CSVFile, "科目::A_消化管")
	testutil.AssertFileContains(t, flags.CSVFile, "ピロリ菌感染")
}

func TestProcessBatchStopsWhenAnkiUnavailable(t *testing.T) {
	tempDir := t.TempDir()
	batchFile := filepath.Join(tempDir, "batch.txt")
	testutil.CreateTestFile(t, batchFile, []byte("問題1\n---\n問題2\n---\n問題3"))

	flags := cli.NewFlags()
	flags.BatchFile = batchFile
	flags.AnkiURL = "http://127.0.0.1:1"
	p, out := newTestProcessor(t, flags)

	if err := p.ProcessBatch(context.Background()); err == nil {
		t.Error("Expected error when no question could be sent")
	}
	if !strings.Contains(out.String(), "Errors: 1") {
		t.Errorf("batch should stop after the first unavailable error:\n%s", out.String())
	}
}

func TestWriteExportWithoutCards(t *testing.T) {
	flags := cli.NewFlags()
	flags.CSVFile = filepath.Join(t.TempDir(), "out.csv")
	p, _ := newTestProcessor(t, flags)

	if _, err := p.WriteExport(); err == nil {
		t.Error("Expected error when exporting no cards")
	}
}

func TestWriteExportIntoDirectory(t *testing.T) {
	tempDir := t.TempDir()

	flags := cli.NewFlags()
	flags.APKGFile = tempDir
	p, _ := newTestProcessor(t, flags)

	if _, err := p.ProcessText(context.Background(), testutil.SampleQuestion, ""); err != nil {
		t.Fatalf("ProcessText() error = %v", err)
	}

	paths, err := p.WriteExport()
	if err != nil {
		t.Fatalf("WriteExport() error = %v", err)
	}
	want := filepath.Join(tempDir, "国試.apkg")
	if len(paths) != 1 || paths[0] != want {
		t.Errorf("WriteExport() = %v, want [%s]", paths, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("export file missing: %v", err)
	}
}

func TestCheckConnection(t *testing.T) {
	mock := testutil.NewMockAnkiConnect(t)

	flags := cli.NewFlags()
	flags.AnkiURL = mock.URL()
	p, out := newTestProcessor(t, flags)

	if err := p.CheckConnection(context.Background()); err != nil {
		t.Fatalf("CheckConnection() error = %v", err)
	}
	for _, want := range []string{"version 6", "Decks: Default", "Note type: Basic"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestCheckConnectionUnavailable(t *testing.T) {
	flags := cli.NewFlags()
	flags.AnkiURL = "http://127.0.0.1:1"
	p, _ := newTestProcessor(t, flags)

	err := p.CheckConnection(context.Background())
	if !errors.Is(err, ankiconnect.ErrUnavailable) {
		t.Errorf("CheckConnection() error = %v, want ErrUnavailable", err)
	}
}

func TestListSubjects(t *testing.T) {
	p, out := newTestProcessor(t, cli.NewFlags())
	p.ListSubjects()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 27 {
		t.Errorf("Expected header plus 26 subjects, got %d lines", len(lines))
	}
	if !strings.Contains(out.String(), "  Z 必修問題") {
		t.Error("Expected Z 必修問題 in subject list")
	}
}

func TestProcessTextWarnsOnMissingParts(t *testing.T) {
	flags := cli.NewFlags()
	flags.DryRun = true
	p, _ := newTestProcessor(t, flags)

	_, stderr := testutil.CaptureOutput(t, func() {
		if _, err := p.ProcessText(context.Background(), "問題文だけが貼り付けられた。", ""); err != nil {
			t.Errorf("ProcessText() error = %v", err)
		}
	})

	for _, want := range []string{"Warning: No choices found", "Warning: No correct answer found"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}
}

func TestExportWrittenOnlyOnWriteExport(t *testing.T) {
	flags := cli.NewFlags()
	flags.CSVFile = filepath.Join(t.TempDir(), "out.csv")
	p, _ := newTestProcessor(t, flags)

	if _, err := p.ProcessText(context.Background(), testutil.SampleQuestion, ""); err != nil {
		t.Fatalf("ProcessText() error = %v", err)
	}
	testutil.AssertFileNotExists(t, flags.CSVFile)

	if _, err := p.WriteExport(); err != nil {
		t.Fatalf("WriteExport() error = %v", err)
	}
	testutil.AssertFileContains(t, flags.CSVFile, "急性心筋梗塞")
}

func TestRenderClipboardImage(t *testing.T) {
	flags := cli.NewFlags()
	flags.FrontImage = image.ClipboardSource
	p, _ := newTestProcessor(t, flags)

	opened := 0
	p.frontImage.open = func(ctx context.Context, src string, opts *image.FetchOptions) (stdimage.Image, error) {
		opened++
		if src != image.ClipboardSource {
			t.Errorf("src = %q, want %q", src, image.ClipboardSource)
		}
		return stdimage.NewRGBA(stdimage.Rect(0, 0, 8, 8)), nil
	}

	result := &Result{ParsedQuestion: qbparse.Parse(testutil.SampleQuestion), Deck: flags.Deck}
	for i := 0; i < 2; i++ {
		front, back, err := p.render(context.Background(), result)
		if err != nil {
			t.Fatalf("render() error = %v", err)
		}
		if !strings.Contains(front, "data:image/png;base64,") {
			t.Error("front should embed the clipboard image")
		}
		if strings.Contains(back, "data:image/png") {
			t.Error("back should have no image")
		}
	}
	if opened != 1 {
		t.Errorf("clipboard read %d times, want 1", opened)
	}
}
