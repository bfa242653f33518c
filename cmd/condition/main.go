package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ukydev/vehicle-health/internal/condition"
	"github.com/ukydev/vehicle-health/internal/models"
)

var (
	nowFlag     string
	explainFlag bool
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "condition",
	Short: "Compute vehicle health scores",
	Long: `condition computes the health score of a vehicle document.

The document is the JSON form of a stored vehicle: mileage, drivingStyle and
a partCondition list with each part's last service mileage and date and its
default service interval.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verboseFlag {
			log.SetLevel(log.DebugLevel)
		}
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score [file]",
	Short: "Score a vehicle JSON document",
	Long: `Score reads a vehicle JSON document from file, or from stdin when no file
or "-" is given, and prints the score breakdown as JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "-"
		if len(args) == 1 {
			path = args[0]
		}
		return runScore(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), path)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
	scoreCmd.Flags().StringVar(&nowFlag, "now", "", "Reference date (RFC3339 or YYYY-MM-DD), defaults to the current time")
	scoreCmd.Flags().BoolVar(&explainFlag, "explain", false, "Report skipped parts on stderr")
	rootCmd.AddCommand(scoreCmd)
}

func parseNow(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --now %q: want RFC3339 or YYYY-MM-DD", s)
}

func readVehicle(stdin io.Reader, path string) (models.Vehicle, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return models.Vehicle{}, fmt.Errorf("open vehicle document: %w", err)
		}
		defer f.Close()
		r = f
	}

	var v models.Vehicle
	dec := json.NewDecoder(r)
	if err := dec.Decode(&v); err != nil {
		return models.Vehicle{}, fmt.Errorf("decode vehicle document: %w", err)
	}
	return v, nil
}

func runScore(stdin io.Reader, stdout, stderr io.Writer, path string) error {
	now, err := parseNow(nowFlag)
	if err != nil {
		return err
	}
	vehicle, err := readVehicle(stdin, path)
	if err != nil {
		return err
	}

	scorer := condition.NewScorer(func() time.Time { return now }, log.StandardLogger())
	result := scorer.Score(vehicle)

	if explainFlag {
		for _, skip := range condition.Explain(vehicle, now) {
			label := skip.Name
			if skip.PartID != "" {
				label = skip.PartID
			}
			fmt.Fprintf(stderr, "skipped part %d (%s): %s\n", skip.Index, label, skip.Reason)
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func main() {
	log.SetOutput(os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", strings.TrimSpace(err.Error()))
		os.Exit(1)
	}
}
