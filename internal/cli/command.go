package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/snonux/qb2anki/internal"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "qb2anki [file]",
		Short: "QB question to Anki card converter",
		Long: `qb2anki turns questions copied from the QB question bank into Anki
cards. The pasted page is classified into question, choices, correct
answer and explanation, rendered as HTML and sent to a running Anki
through AnkiConnect, or exported to .apkg/.csv.

Examples:
  qb2anki                          # Launch interactive GUI (default)
  qb2anki question.txt             # Send one pasted question to Anki
  pbpaste | qb2anki -s C           # Read the question from stdin
  qb2anki --clipboard --dry-run    # Preview the clipboard contents
  qb2anki --batch qb.txt --apkg qb.apkg   # Export questions separated by ---`,
		Args:    cobra.MaximumNArgs(1),
		Version: internal.Version,
	}

	// Set up flags
	setupFlags(rootCmd, flags)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.qb2anki.yaml)")

	// Input flags
	cmd.Flags().BoolVar(&flags.Clipboard, "clipboard", false, "Read the pasted question from the clipboard")
	cmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Process questions from file (separated by --- lines)")
	cmd.Flags().BoolVar(&flags.GUIMode, "gui", false, "Launch the GUI even when input is available")

	// Card flags
	cmd.Flags().StringVarP(&flags.Deck, "deck", "d", flags.Deck, "Target deck (国試 or CBT, any deck name is accepted)")
	cmd.Flags().StringVarP(&flags.Subject, "subject", "s", "", "Subject name or letter, e.g. 'C 循環器' or 'C'")
	cmd.Flags().StringVarP(&flags.Tags, "tags", "t", "", "Extra tags, comma separated")
	cmd.Flags().StringVar(&flags.FrontImage, "front-image", "", "Image file, URL or 'clipboard' to embed on the front")
	cmd.Flags().StringVar(&flags.BackImage, "back-image", "", "Image file, URL or 'clipboard' to embed on the back")

	// Output flags
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Print the parsed question instead of sending it")
	cmd.Flags().StringVarP(&flags.Format, "format", "f", flags.Format, "Dry-run output format: text, json or yaml")
	cmd.Flags().StringVar(&flags.APKGFile, "apkg", "", "Export cards to this .apkg file instead of sending them")
	cmd.Flags().StringVar(&flags.CSVFile, "csv", "", "Export cards to this .csv file instead of sending them")

	// AnkiConnect flags
	cmd.Flags().StringVar(&flags.AnkiURL, "anki-url", flags.AnkiURL, "AnkiConnect endpoint")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", flags.Timeout, "AnkiConnect request timeout")
	cmd.Flags().BoolVar(&flags.Check, "check", false, "Check the AnkiConnect connection and exit")
	cmd.Flags().BoolVar(&flags.ListSubjects, "list-subjects", false, "List the QB subjects and exit")

	// Explanation flags
	cmd.Flags().BoolVar(&flags.GenerateExplanation, "generate-explanation", false, "Draft an explanation with an LLM when the paste has none")
	cmd.Flags().StringVar(&flags.ExplainProvider, "explain-provider", flags.ExplainProvider, "Explanation provider: openai or gemini")
	cmd.Flags().StringVar(&flags.ExplainModel, "explain-model", "", "Explanation model (default depends on the provider)")
	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "List available OpenAI chat models for the current API key")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

// configKeys maps flag names to their config file keys
var configKeys = map[string]string{
	"deck":             "card.deck",
	"tags":             "card.tags",
	"format":           "output.format",
	"anki-url":         "anki.url",
	"timeout":          "anki.timeout",
	"explain-provider": "explain.provider",
	"explain-model":    "explain.model",
}

func bindFlagsToViper(cmd *cobra.Command) {
	for flagName, key := range configKeys {
		if flag := cmd.Flags().Lookup(flagName); flag != nil {
			viper.BindPFlag(key, flag)
		}
	}
}

// ApplyConfig copies config file and environment values into flags the
// user did not set on the command line
func ApplyConfig(cmd *cobra.Command, flags *Flags) {
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		key, ok := configKeys[flag.Name]
		if !ok || flag.Changed || !viper.IsSet(key) {
			return
		}
		if err := flag.Value.Set(viper.GetString(key)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Ignoring invalid %s in config: %v\n", key, err)
		}
	})
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".qb2anki" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".qb2anki")
	}

	// Environment variables, e.g. QB2ANKI_ANKI_URL for anki.url
	viper.SetEnvPrefix("QB2ANKI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("explain.openai_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("explain.gemini_key")
}

// GetExtraNoisePatterns returns the user's additional noise patterns
func GetExtraNoisePatterns() []string {
	return viper.GetStringSlice("parser.extra_noise")
}
