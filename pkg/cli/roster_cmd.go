package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/populationgenomics/seqr/internal/domain"
)

func newRosterCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Manage the sample roster",
	}
	cmd.AddCommand(newRosterImportCmd(rt))
	cmd.AddCommand(newRosterListCmd(rt))
	cmd.AddCommand(newRosterDeactivateCmd(rt))
	return cmd
}

func newRosterImportCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "import SAMPLES_FILE",
		Short: "Insert or update roster samples from a YAML or JSON list",
		Example: `  seqr roster import samples.yaml
  cat samples.json | seqr roster import -`,
		Args: cobra.ExactArgs(1),
		RunE: withRuntime(rt, func(cmd *cobra.Command, args []string) error {
			samples, err := readSamples(cmd, args[0])
			if err != nil {
				return err
			}
			roster, err := rt.roster()
			if err != nil {
				return err
			}
			for i, s := range samples {
				if err := roster.UpsertSample(cmd.Context(), s); err != nil {
					return fmt.Errorf("sample %d (%s): %w", i+1, s.SampleID, err)
				}
			}
			rt.logger.Info("imported samples", "samples", len(samples))
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]int{"imported": len(samples)})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d samples\n", len(samples))
			return err
		}),
	}
}

func newRosterListCmd(rt *runtime) *cobra.Command {
	var (
		families []string
		dataType string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the active samples of families",
		Args:  cobra.NoArgs,
		RunE: withRuntime(rt, func(cmd *cobra.Command, _ []string) error {
			var dt domain.DataType
			if dataType != "" {
				var err error
				if dt, err = parseDataType(dataType); err != nil {
					return err
				}
			}
			roster, err := rt.roster()
			if err != nil {
				return err
			}
			samples, err := roster.ListSamples(cmd.Context(), families, dt)
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), samples)
			}
			rows := make([][]string, 0, len(samples))
			for _, s := range samples {
				rows = append(rows, []string{
					s.SampleID, string(s.DataType), s.IndividualGUID, s.FamilyGUID, s.ProjectGUID,
					string(s.Affected), string(s.Sex),
				})
			}
			return printTable(cmd.OutOrStdout(),
				[]string{"SAMPLE", "DATA TYPE", "INDIVIDUAL", "FAMILY", "PROJECT", "AFFECTED", "SEX"}, rows)
		}),
	}
	cmd.Flags().StringSliceVar(&families, "family", nil, "Family GUIDs (required)")
	cmd.Flags().StringVar(&dataType, "data-type", "", "Only list samples of this data type")
	_ = cmd.MarkFlagRequired("family")
	return cmd
}

func newRosterDeactivateCmd(rt *runtime) *cobra.Command {
	var (
		family   string
		dataType string
		activate bool
	)
	cmd := &cobra.Command{
		Use:   "deactivate SAMPLE_ID",
		Short: "Hide a sample from searches",
		Long:  "Mark a roster sample inactive so searches by family skip it. --activate reverses it.",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(rt, func(cmd *cobra.Command, args []string) error {
			dt, err := parseDataType(dataType)
			if err != nil {
				return err
			}
			roster, err := rt.roster()
			if err != nil {
				return err
			}
			if err := roster.SetActive(cmd.Context(), args[0], dt, family, activate); err != nil {
				return err
			}
			state := "inactive"
			if activate {
				state = "active"
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{"sample_id": args[0], "state": state})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Sample %s is %s\n", args[0], state)
			return err
		}),
	}
	cmd.Flags().StringVar(&family, "family", "", "Family GUID of the sample (required)")
	cmd.Flags().StringVar(&dataType, "data-type", string(domain.DataTypeSNVIndel), "Data type of the sample")
	cmd.Flags().BoolVar(&activate, "activate", false, "Mark the sample active again")
	_ = cmd.MarkFlagRequired("family")
	return cmd
}

func newEnumsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enums",
		Short: "Manage dataset enum dictionaries",
		Long: `Enum dictionaries map the integer codes stored in annotation tables to
their values. A field's values are listed in id order.`,
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "set DATASET FIELD VALUE...",
		Short:   "Replace the values of one enum field",
		Example: "  seqr enums set snv_indel transcripts.major_consequence missense_variant frameshift_variant",
		Args:    cobra.MinimumNArgs(3),
		RunE: withRuntime(rt, func(cmd *cobra.Command, args []string) error {
			enums, err := rt.enums()
			if err != nil {
				return err
			}
			if err := enums.SetEnum(cmd.Context(), args[0], args[1], args[2:]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Set %d values for %s.%s\n", len(args)-2, args[0], args[1])
			return err
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list DATASET",
		Short: "List the enum dictionaries of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(rt, func(cmd *cobra.Command, args []string) error {
			enums, err := rt.enums()
			if err != nil {
				return err
			}
			dict, err := enums.LoadEnums(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), dict)
			}
			fields := make([]string, 0, len(dict))
			for f := range dict {
				fields = append(fields, f)
			}
			sort.Strings(fields)
			rows := make([][]string, 0, len(fields))
			for _, f := range fields {
				rows = append(rows, []string{f, strconv.Itoa(len(dict[f])), strings.Join(dict[f], ",")})
			}
			return printTable(cmd.OutOrStdout(), []string{"FIELD", "COUNT", "VALUES"}, rows)
		}),
	})
	return cmd
}
