package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adii83/steam-metadata-archive/internal/classify"
	"github.com/adii83/steam-metadata-archive/internal/extract"
	"github.com/adii83/steam-metadata-archive/internal/model"
	"github.com/adii83/steam-metadata-archive/internal/steam"
)

var inspectJSON bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <appid>",
	Short: "Probe one item end to end without writing stores",
	Long:  "Fetches, parses, and classifies a single appid, then prints the record and the evidence behind its verdict. Nothing is persisted.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := strconv.Atoi(args[0])
		if err != nil || id <= 0 {
			return eris.Errorf("invalid appid %q", args[0])
		}

		client := newSteamClient()
		classifier, err := newClassifier()
		if err != nil {
			return err
		}

		payload, err := client.FetchDetail(ctx, id)
		if err != nil {
			return eris.Wrap(err, "fetch detail")
		}
		rec, err := steam.ParseRecord(id, payload)
		if err != nil {
			return eris.Wrap(err, "parse detail")
		}
		if rec == nil {
			return eris.Errorf("no data for appid %d", id)
		}

		html, err := client.FetchPage(ctx, id)
		if err != nil {
			zap.L().Warn("page unavailable, classifying without markup", zap.Error(err))
			html = ""
		}

		steam.SupplementMedia(rec, html)
		res := classifier.Classify(classify.Input{
			Record: rec,
			HTML:   html,
			Text:   extract.PlainText(html),
		})
		rec.Protection = res.Verdict

		if inspectJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				*model.Record
				Strategy string            `json:"strategy"`
				Evidence classify.Evidence `json:"evidence"`
			}{rec, res.Strategy, res.Evidence})
		}

		formatInspect(os.Stdout, rec, res)
		return nil
	},
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "print the record and evidence as JSON")
	rootCmd.AddCommand(inspectCmd)
}

// formatInspect writes a human-readable record summary to w.
func formatInspect(out io.Writer, rec *model.Record, res classify.Result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "AppID:\t%d\n", rec.AppID)
	_, _ = fmt.Fprintf(w, "Title:\t%s\n", rec.Title)
	if rec.Genre != nil {
		_, _ = fmt.Fprintf(w, "Genre:\t%s\n", *rec.Genre)
	}
	if rec.ReleaseDate != "" {
		_, _ = fmt.Fprintf(w, "Release:\t%s\n", rec.ReleaseDate)
	}
	_, _ = fmt.Fprintf(w, "Price:\t%s\n", rec.PriceDisplay)
	_, _ = fmt.Fprintf(w, "Developers:\t%s\n", strings.Join(rec.Developers, ", "))
	_, _ = fmt.Fprintf(w, "Publishers:\t%s\n", strings.Join(rec.Publishers, ", "))
	_, _ = fmt.Fprintf(w, "Media:\t%d candidates\n", len(rec.Media))
	_, _ = fmt.Fprintf(w, "Protection:\t%s\n", rec.Protection)
	_, _ = fmt.Fprintf(w, "Strategy:\t%s\n", res.Strategy)

	ev := res.Evidence
	if ev.DirectMarker {
		_, _ = fmt.Fprintln(w, "Marker:\tfound in notice block")
	} else if ev.TextMarker {
		_, _ = fmt.Fprintln(w, "Marker:\tfound in page text")
	}
	if len(ev.BlockPhrases) > 0 {
		_, _ = fmt.Fprintf(w, "Phrases:\t%s\n", strings.Join(ev.BlockPhrases, ", "))
	}
	if len(ev.AntiCheat) > 0 {
		_, _ = fmt.Fprintf(w, "Anti-cheat:\t%s\n", strings.Join(ev.AntiCheat, ", "))
	}
	if len(ev.MetadataPhrases) > 0 {
		_, _ = fmt.Fprintf(w, "Metadata:\t%s\n", strings.Join(ev.MetadataPhrases, ", "))
	}
	_ = w.Flush()
}
