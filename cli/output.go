package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/petal-labs/factorcount/config"
	"github.com/petal-labs/factorcount/core"
)

const csvHeader = "Factor Count,Numbers With Factor Count"

// writeBanner prints the run header shown before workers start.
func writeBanner(w io.Writer, hardware, workers int, bound uint64) {
	var sb strings.Builder
	sb.WriteString("Factor Counter\n")
	sb.WriteString("==============\n")
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Total CPU Cores/Threads %d\n", hardware))
	sb.WriteString(fmt.Sprintf("Number of workers %d\n", workers))
	sb.WriteString(fmt.Sprintf("Max Search Number %d\n", bound))
	sb.WriteString("\n")
	fmt.Fprint(w, sb.String())
}

// writeHistogram renders h in the requested format, sorted by factor count.
func writeHistogram(w io.Writer, format string, h core.Histogram) error {
	pairs := h.Pairs()

	switch strings.ToLower(strings.TrimSpace(format)) {
	case config.FormatCSV, "":
		fmt.Fprintln(w, csvHeader)
		for _, p := range pairs {
			fmt.Fprintf(w, "%d,%d\n", p.FactorCount, p.Numbers)
		}
		return nil
	case config.FormatJSON:
		data, err := json.MarshalIndent(pairs, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling histogram: %w", err)
		}
		fmt.Fprintln(w, string(data))
		return nil
	case config.FormatYAML:
		data, err := yaml.Marshal(pairs)
		if err != nil {
			return fmt.Errorf("marshaling histogram: %w", err)
		}
		fmt.Fprint(w, string(data))
		return nil
	default:
		return config.ValidateFormat(format)
	}
}
