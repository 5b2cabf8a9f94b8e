package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/populationgenomics/seqr/internal/domain"
)

// readRequest decodes a search request from a YAML or JSON file, or from
// stdin when path is "-".
func readRequest(cmd *cobra.Command, path string) (*domain.SearchRequest, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // path is caller-controlled
	}
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	var req domain.SearchRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, domain.ErrValidation("Invalid search request: %v", err)
	}
	return &req, nil
}

// readSamples decodes a YAML or JSON list of roster samples.
func readSamples(cmd *cobra.Command, path string) ([]domain.Sample, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path) //nolint:gosec // path is caller-controlled
	}
	if err != nil {
		return nil, fmt.Errorf("read samples: %w", err)
	}
	var samples []domain.Sample
	if err := yaml.Unmarshal(data, &samples); err != nil {
		return nil, domain.ErrValidation("Invalid sample list: %v", err)
	}
	return samples, nil
}

func parseDataType(s string) (domain.DataType, error) {
	switch dt := domain.DataType(s); dt {
	case domain.DataTypeSNVIndel, domain.DataTypeSV:
		return dt, nil
	}
	return "", domain.ErrValidation("Invalid data type %q: must be %s or %s", s, domain.DataTypeSNVIndel, domain.DataTypeSV)
}
