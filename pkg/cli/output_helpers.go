package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/populationgenomics/seqr/internal/domain"
)

// getOutputFormat returns the effective output format from the root command's persistent flags.
func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

func validateOutputFormat(output string) error {
	if output != "" && output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTable(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(header, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// errorObject is the JSON form of a failed command. Domain errors carry
// their class so scripts can branch on it.
func errorObject(err error) map[string]interface{} {
	obj := map[string]interface{}{"error": err.Error()}
	var (
		validation    *domain.ValidationError
		configuration *domain.ConfigurationError
		capability    *domain.CapabilityError
		notFound      *domain.NotFoundError
		unsupported   *domain.UnsupportedError
	)
	switch {
	case errors.As(err, &validation):
		obj["kind"] = "validation"
	case errors.As(err, &configuration):
		obj["kind"] = "configuration"
	case errors.As(err, &capability):
		obj["kind"] = "capability"
	case errors.As(err, &notFound):
		obj["kind"] = "not_found"
	case errors.As(err, &unsupported):
		obj["kind"] = "unsupported"
	}
	return obj
}
