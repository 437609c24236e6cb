package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"devplanet/internal/analysis"
	"devplanet/internal/client"
	"devplanet/internal/complexity"
	"devplanet/internal/metrics"
)

var (
	analyzeFormat   string
	analyzeLanguage string
	analyzeRemote   bool
	analyzeDeep     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a source file",
	Long: `Analyze a source file and print its evolution score.

By default the local analyzer runs: deterministic, offline, the same
scoring rules the backend applies. With --remote the snapshot is sent
to the backend over REST instead. With --deep a tree-sitter pass adds
per-function cyclomatic and cognitive complexity (requires a CGO
build).

Examples:
  devplanet analyze src/app.ts
  devplanet analyze --remote src/app.ts
  devplanet analyze --deep --format=json internal/server.go`,
	Args: cobra.ExactArgs(1),
	Run:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "human", "Output format (human, json)")
	analyzeCmd.Flags().StringVar(&analyzeLanguage, "language", "", "Override the language inferred from the extension")
	analyzeCmd.Flags().BoolVar(&analyzeRemote, "remote", false, "Analyze via the backend REST API")
	analyzeCmd.Flags().BoolVar(&analyzeDeep, "deep", false, "Add per-function complexity via tree-sitter")
	rootCmd.AddCommand(analyzeCmd)
}

type analyzeOutput struct {
	File    string              `json:"file"`
	Result  *analysis.Result    `json:"result"`
	Metrics metrics.CodeMetrics `json:"metrics"`
	Deep    *complexity.Report  `json:"deep,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) {
	logger := newLogger()
	cfg := mustLoadConfig()
	path := args[0]

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	code := string(data)

	language := analyzeLanguage
	if language == "" {
		language = client.LanguageForPath(path)
	}

	m := metrics.ComputeScaled(code, language, cfg.Analysis.ComplexityScaling)
	out := analyzeOutput{File: path, Metrics: m}

	if analyzeRemote {
		api, manager := newAPIClient(cfg, logger)
		userID := requireUser(manager)

		c := client.New(client.Options{
			Config: cfg,
			UserID: userID,
			API:    api,
			Logger: logger,
		})
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
		defer cancel()

		result, err := c.AnalyzeRemote(ctx, code, language)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		out.Result = result
	} else {
		out.Result = analysis.Fallback(code, m)
	}

	if analyzeDeep {
		if !complexity.IsAvailable() {
			fmt.Fprintln(os.Stderr, "Error: --deep requires a CGO build (tree-sitter)")
			os.Exit(1)
		}
		report, err := complexity.NewAnalyzer().AnalyzeFile(context.Background(), path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		out.Deep = report
	}

	if analyzeFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return
	}

	printAnalyzeHuman(out)
}

func printAnalyzeHuman(out analyzeOutput) {
	r := out.Result
	fmt.Printf("%s (%s)\n", out.File, out.Metrics.Language)
	fmt.Printf("  Evolution points:  %d\n", r.EvolutionPoints)
	fmt.Printf("  Complexity:        %d/10\n", r.ComplexityScore)
	fmt.Printf("  Style:             %s\n", r.StyleFeedback)
	fmt.Printf("  Lines: %d  Functions: %d  Comments: %d\n",
		out.Metrics.Lines, out.Metrics.Functions, out.Metrics.Comments)

	if len(r.Suggestions) > 0 {
		fmt.Println("  Suggestions:")
		for _, s := range r.Suggestions {
			fmt.Printf("    - %s\n", s)
		}
	}

	if out.Deep != nil {
		fmt.Printf("  Deep analysis (%d functions):\n", out.Deep.FunctionCount)
		for _, f := range out.Deep.Hotspots(5) {
			fmt.Printf("    %-24s line %-5d cyclomatic %-3d cognitive %d\n",
				f.Name, f.StartLine, f.Cyclomatic, f.Cognitive)
		}
		for _, s := range out.Deep.Suggestions() {
			fmt.Printf("    - %s\n", s)
		}
	}
}
