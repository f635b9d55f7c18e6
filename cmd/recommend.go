package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/relief-match/internal/model"
	"github.com/sells-group/relief-match/internal/recommend"
)

var (
	recArticle string
	recTop     int
	recDebug   bool
	recNoCache bool
	recSignals string
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend nonprofits for a classified article",
	Long:  "Reads a classified article as JSON (from a file, or stdin with --article -) and prints ranked, enriched nonprofit recommendations.",
	RunE: func(cmd *cobra.Command, args []string) error {
		article, err := readArticle(recArticle, cmd.InOrStdin())
		if err != nil {
			return err
		}

		env, err := initPipeline(cfg, "recommend", recSignals)
		if err != nil {
			return err
		}

		top := recTop
		if top == 0 {
			top = cfg.Pipeline.TopN
		}
		opts := []recommend.RequestOption{recommend.WithTopN(top), recommend.WithDebug(recDebug)}
		if recNoCache {
			opts = append(opts, recommend.WithoutCache())
		}

		res, err := env.Orchestrator.Recommend(cmd.Context(), article, opts...)
		if err != nil {
			return err
		}

		zap.L().Info("recommendations ready",
			zap.String("title", article.Title),
			zap.Int("count", len(res.Nonprofits)),
			zap.Int("total_found", res.TotalFound),
		)
		return writeJSON(cmd.OutOrStdout(), res)
	},
}

func readArticle(path string, stdin io.Reader) (model.ArticleContext, error) {
	var a model.ArticleContext
	if path == "" {
		return a, eris.New("recommend: --article is required")
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return a, eris.Wrapf(err, "recommend: read article %s", path)
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return a, eris.Wrap(err, "recommend: parse article")
	}
	return a, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func init() {
	recommendCmd.Flags().StringVar(&recArticle, "article", "", "path to the article JSON, or - for stdin")
	recommendCmd.Flags().IntVar(&recTop, "top", 0, "number of recommendations (default from config)")
	recommendCmd.Flags().BoolVar(&recDebug, "debug", false, "include the debug block")
	recommendCmd.Flags().BoolVar(&recNoCache, "no-cache", false, "bypass the result cache")
	recommendCmd.Flags().StringVar(&recSignals, "signals", "", "trust and vetting signals YAML (default from config)")
	rootCmd.AddCommand(recommendCmd)
}
