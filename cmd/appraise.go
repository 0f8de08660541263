package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/flipscan/appraise/internal/model"
)

var (
	appraiseImages  []string
	appraiseHint    string
	appraiseCat     string
	appraiseContext string
	appraiseJSON    bool
)

var appraiseCmd = &cobra.Command{
	Use:   "run",
	Short: "Appraise a single item from photos",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		images, err := loadImages(appraiseImages)
		if err != nil {
			return err
		}

		result, err := env.Pipeline.Analyze(ctx, model.AnalysisRequest{
			Images:            images,
			Hint:              appraiseHint,
			CategoryHint:      appraiseCat,
			AdditionalContext: appraiseContext,
		})
		if err != nil {
			return eris.Wrap(err, "appraise")
		}

		if appraiseJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		printResult(result)
		return nil
	},
}

var imageMediaTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// loadImages turns file paths and URLs into image references. Local
// files are inlined as base64.
func loadImages(specs []string) ([]model.ImageRef, error) {
	var images []model.ImageRef
	for _, spec := range specs {
		if strings.HasPrefix(spec, "http://") || strings.HasPrefix(spec, "https://") {
			images = append(images, model.ImageRef{URL: spec})
			continue
		}

		mediaType, ok := imageMediaTypes[strings.ToLower(filepath.Ext(spec))]
		if !ok {
			return nil, eris.Errorf("unsupported image type: %s", spec)
		}
		data, err := os.ReadFile(spec)
		if err != nil {
			return nil, eris.Wrapf(err, "read image %s", spec)
		}
		images = append(images, model.ImageRef{
			Base64:    base64.StdEncoding.EncodeToString(data),
			MediaType: mediaType,
		})
	}
	return images, nil
}

func printResult(result *model.AnalysisResult) {
	fmt.Printf("Item:       %s\n", result.ItemName)
	if result.Category != "" {
		fmt.Printf("Category:   %s\n", result.Category)
	}
	if result.Condition != "" {
		fmt.Printf("Condition:  %s\n", result.Condition)
	}
	fmt.Printf("Decision:   %s\n", result.Consensus.Decision)
	fmt.Printf("Value:      $%.2f\n", result.Consensus.EstimatedValue)
	fmt.Printf("Confidence: %.0f%%", result.Consensus.Confidence)
	if result.Consensus.AnalysisQuality == model.QualityDegraded {
		fmt.Printf(" (degraded)")
	}
	fmt.Println()
	if result.BlendedPrice != nil {
		fmt.Printf("Market:     $%.2f (%s)\n", result.BlendedPrice.Value, result.BlendedPrice.Method)
	}
	if result.Consensus.Reasoning != "" {
		fmt.Printf("Reasoning:  %s\n", result.Consensus.Reasoning)
	}
	fmt.Printf("Stages:     identify %dms, evidence %dms, reason %dms (total %dms)\n",
		result.StageTimings.IdentifyMs, result.StageTimings.EvidenceMs,
		result.StageTimings.ReasonMs, result.StageTimings.TotalMs)
}

func init() {
	appraiseCmd.Flags().StringSliceVar(&appraiseImages, "image", nil, "item photo path or URL (repeatable)")
	appraiseCmd.Flags().StringVar(&appraiseHint, "hint", "", "item name hint when no photos are available")
	appraiseCmd.Flags().StringVar(&appraiseCat, "category", "", "category hint")
	appraiseCmd.Flags().StringVar(&appraiseContext, "context", "", "additional context (barcode, provenance, notes)")
	appraiseCmd.Flags().BoolVar(&appraiseJSON, "json", false, "emit raw JSON result")
	rootCmd.AddCommand(appraiseCmd)
}
