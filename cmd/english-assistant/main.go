package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hoaithanhsp/english-assistant-pro/internal/generator"
	"github.com/hoaithanhsp/english-assistant-pro/internal/generator/prompts"
	"github.com/hoaithanhsp/english-assistant-pro/internal/handler"
	appI18n "github.com/hoaithanhsp/english-assistant-pro/internal/i18n"
	"github.com/hoaithanhsp/english-assistant-pro/internal/llm"
	"github.com/hoaithanhsp/english-assistant-pro/internal/model"
	"github.com/hoaithanhsp/english-assistant-pro/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "english-assistant",
		Short: "AI-assisted English exam generator for Vietnamese schools",
	}

	serve := serveCmd()
	root.AddCommand(serve, generateCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

// commonFlags registers the flags shared by serve and generate.
func commonFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("db", "english-assistant.db", "SQLite settings database path")
	f.String("api-key", "", "Default Gemini API key (or set ENGLISH_ASSISTANT_API_KEY)")
	f.String("llm-backend", "gemini", "Generation backend (gemini, openai)")
	f.String("llm-url", "", "Base URL for the openai backend (e.g. http://localhost:11434/v1)")
	f.String("llm-model", "", "Single candidate model for the openai backend")
	f.String("rule-profile", string(prompts.ProfileStandard), "Difficulty rule profile (standard, highschool)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the exam generation HTTP server",
		RunE:  runServe,
	}
	commonFlags(cmd)
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringP("lang", "l", "en", "Default message language (en, vi)")
	return cmd
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one exam from the command line and print it as JSON",
		RunE:  runGenerate,
	}
	commonFlags(cmd)
	f := cmd.Flags()
	f.String("level", string(model.LevelMiddleSchool), "School level (Primary, Middle School, High School)")
	f.String("grade", "", "Grade label (e.g. 'Grade 10')")
	f.String("exam-type", "45-minute test", "Exam type and time allotment")
	f.String("structure", "", "Path to a target-structure text file")
	f.String("matrix", "", "Path to an exam-matrix text file")
	f.String("specification", "", "Path to an exam-specification text file")
	f.String("reference", "", "Path to a reference-material text file")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	return cmd
}

func setupLogging(v *viper.Viper) {
	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("ENGLISH_ASSISTANT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("english-assistant")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/english-assistant")
	v.AddConfigPath("/etc/english-assistant")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// buildPipeline wires the backend, invoker and generator from configuration.
func buildPipeline(v *viper.Viper, settings llm.Settings) (*generator.Generator, *llm.Invoker, error) {
	var backend llm.Backend
	var candidates []string

	switch v.GetString("llm-backend") {
	case "gemini", "":
		backend = llm.NewGeminiBackend()
	case "openai":
		backend = llm.NewOpenAIBackend(v.GetString("llm-url"))
		if m := v.GetString("llm-model"); m != "" {
			candidates = []string{m}
		}
	default:
		return nil, nil, fmt.Errorf("unknown llm-backend: %q", v.GetString("llm-backend"))
	}

	inv := llm.NewInvoker(backend, llm.Options{
		Candidates: candidates,
		DefaultKey: v.GetString("api-key"),
		Settings:   settings,
	})

	rules, err := prompts.TableForProfile(prompts.RuleProfile(v.GetString("rule-profile")))
	if err != nil {
		return nil, nil, err
	}

	return generator.New(inv, rules), inv, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	gen, inv, err := buildPipeline(v, db)
	if err != nil {
		return err
	}

	h := handler.New(db, gen, inv.Candidates())

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"backend", v.GetString("llm-backend"),
		"candidates", inv.Candidates(),
		"rule_profile", v.GetString("rule-profile"),
		"lang", lang,
	)
	return http.ListenAndServe(addr, r)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	gen, _, err := buildPipeline(v, db)
	if err != nil {
		return err
	}

	cfg := model.ExamConfig{
		Level:      model.Level(v.GetString("level")),
		GradeLevel: v.GetString("grade"),
		ExamType:   v.GetString("exam-type"),
	}
	if cfg.StructureContent, err = readOptionalFile(v.GetString("structure")); err != nil {
		return err
	}
	if cfg.MatrixContent, err = readOptionalFile(v.GetString("matrix")); err != nil {
		return err
	}
	if cfg.SpecificationContent, err = readOptionalFile(v.GetString("specification")); err != nil {
		return err
	}
	if cfg.ReferenceContent, err = readOptionalFile(v.GetString("reference")); err != nil {
		return err
	}

	obs := generator.ObserverFunc(func(p generator.Phase) {
		switch p {
		case generator.PhaseAnalyzing:
			fmt.Fprintln(os.Stderr, "Step 1/2: analyzing exam requirements...")
		case generator.PhaseSynthesizing:
			fmt.Fprintln(os.Stderr, "Step 2/2: generating exam content, this can take a while...")
		}
	})

	data, err := gen.Generate(context.Background(), cfg, "", obs)
	if err != nil {
		return fmt.Errorf("generate exam: %w", err)
	}

	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)

	return nil
}

func readOptionalFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
