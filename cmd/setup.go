package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"slidecraft/internal/storage"
	"slidecraft/pkg/config"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Long:  `Configure API keys, create directories, and optionally pull the placeholder catalog.`,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("📊 Slidecraft Setup"))

	steps := []struct {
		name string
		fn   func(*cobra.Command) error
	}{
		{"Creating directories", createDirectories},
		{"Configuring environment", configureEnv},
		{"Syncing placeholder catalog", syncPlaceholders},
	}

	for _, step := range steps {
		if err := step.fn(cmd); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	return nil
}

func createDirectories(_ *cobra.Command) error {
	dirs := []string{"assets/placeholders", "output", ".cache/images"}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	fmt.Println(successStyle.Render("✓ Created directories"))
	return nil
}

func configureEnv(_ *cobra.Command) error {
	if _, err := os.Stat(".env"); err == nil {
		var overwrite bool
		if err := huh.NewConfirm().
			Title("Found existing .env file").
			Description("Overwrite?").
			Value(&overwrite).
			Run(); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println(infoStyle.Render("Kept existing .env"))
			return nil
		}
	}

	env := make(map[string]string)

	if err := configureRequiredKeys(env); err != nil {
		return err
	}
	if err := configureImageKeys(env); err != nil {
		return err
	}
	if err := configureOptionalKeys(env); err != nil {
		return err
	}

	return writeEnvFile(env)
}

func configureRequiredKeys(env map[string]string) error {
	var groqKey string

	if err := huh.NewInput().
		Title("GROQ API Key").
		Description("https://console.groq.com/keys").
		Value(&groqKey).
		Validate(required("GROQ API Key")).
		Run(); err != nil {
		return err
	}

	env["GROQ_API_KEY"] = strings.TrimSpace(groqKey)
	return nil
}

// configureImageKeys collects the stock photo credentials. All of them are
// optional: keyless sources and the placeholder catalog cover the gaps.
func configureImageKeys(env map[string]string) error {
	var unsplashKey, pexelsKey, pixabayKey string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Unsplash Access Key (optional)").
				Description("https://unsplash.com/developers").
				Value(&unsplashKey),
			huh.NewInput().
				Title("Pexels API Key (optional)").
				Description("https://www.pexels.com/api/").
				Value(&pexelsKey),
			huh.NewInput().
				Title("Pixabay API Key (optional)").
				Description("https://pixabay.com/api/docs/").
				Value(&pixabayKey),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	env["UNSPLASH_ACCESS_KEY"] = strings.TrimSpace(unsplashKey)
	env["PEXELS_API_KEY"] = strings.TrimSpace(pexelsKey)
	env["PIXABAY_API_KEY"] = strings.TrimSpace(pixabayKey)
	return nil
}

func configureOptionalKeys(env map[string]string) error {
	var botToken, gcsBucket, secretProject string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Telegram Bot Token (optional)").
				Description("From @BotFather, needed for `slidecraft bot`").
				Value(&botToken),
			huh.NewInput().
				Title("GCS Bucket (optional)").
				Description("Bucket holding a shared placeholder catalog").
				Value(&gcsBucket),
			huh.NewInput().
				Title("Secret Manager project (optional)").
				Description("GCP project to pull missing credentials from").
				Value(&secretProject),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	env["TELEGRAM_BOT_TOKEN"] = strings.TrimSpace(botToken)
	env["GCS_BUCKET"] = strings.TrimSpace(gcsBucket)
	env["SECRET_PROJECT"] = strings.TrimSpace(secretProject)
	return nil
}

func writeEnvFile(env map[string]string) error {
	f, err := os.Create(".env")
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	order := []string{
		"GROQ_API_KEY",
		"UNSPLASH_ACCESS_KEY",
		"PEXELS_API_KEY",
		"PIXABAY_API_KEY",
		"TELEGRAM_BOT_TOKEN",
		"GCS_BUCKET",
		"SECRET_PROJECT",
	}

	for _, key := range order {
		if val, ok := env[key]; ok && val != "" {
			_, _ = fmt.Fprintf(f, "%s=%s\n", key, val)
		}
	}

	fmt.Println(successStyle.Render("✓ Created .env file"))
	printNextSteps()
	return nil
}

func syncPlaceholders(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	if cfg.GCSBucket == "" {
		fmt.Println(infoStyle.Render("No GCS bucket configured, skipping catalog sync"))
		return nil
	}

	local := storage.NewLocalCatalog(cfg.Placeholders.Dir)
	catalog, err := storage.NewGCSCatalog(cmd.Context(), cfg.GCSBucket, cfg.Placeholders.GCSCatalogDir, local)
	if err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("Catalog sync skipped: %v", err)))
		return nil
	}
	defer func() { _ = catalog.Close() }()

	return runWithSpinner("Downloading placeholder images", func() error {
		_, err := catalog.Sync(cmd.Context())
		return err
	})
}

func printNextSteps() {
	fmt.Println(infoStyle.Render(`
Next steps:
  slidecraft generate -t "your topic"   Generate a deck
  slidecraft bot                        Run the Telegram bot`))
}

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func runWithSpinner(title string, fn func() error) error {
	var err error
	_ = spinner.New().
		Title(title).
		Action(func() { err = fn() }).
		Run()
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}
