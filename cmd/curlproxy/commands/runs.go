package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/loykin/curlproxy/internal/constants"
	"github.com/loykin/curlproxy/internal/store"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var runsLimit int

var RunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded proxy runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRuns(cmd.Context(), cmd.OutOrStdout(), runsLimit)
	},
}

func init() {
	RunsCmd.Flags().IntVar(&runsLimit, "limit", constants.DefaultListLimit, "show up to N latest runs")
}

func runRuns(ctx context.Context, out io.Writer, limit int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	doc, logger, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := doc.OpenStore(ctx, logger)
	if err != nil {
		return err
	}
	if st == nil {
		_, err = fmt.Fprintln(out, "Store is disabled - no run history available")
		return err
	}
	defer func() { _ = st.Close() }()

	runs, err := st.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		_, err = fmt.Fprintln(out, "No runs recorded")
		return err
	}
	renderRuns(out, runs)
	return nil
}

func renderRuns(out io.Writer, runs []store.Run) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Run ID", "Ran At", "Outcome", "Exit", "HTTP", "Ms", "Target"})
	table.SetBorder(true)
	table.SetAutoWrapText(false)
	for _, r := range runs {
		table.Append([]string{
			r.ID,
			r.RanAt,
			r.Outcome,
			strconv.Itoa(r.ExitCode),
			optional(r.HTTPStatus),
			optional(r.ElapsedMs),
			r.TargetURL,
		})
	}
	table.Render()
}

func optional[T int | int64](v *T) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}
