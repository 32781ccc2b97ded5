package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/loykin/curlproxy/internal/command"
	"github.com/loykin/curlproxy/internal/proxy"
	"github.com/loykin/curlproxy/internal/store"
	"github.com/spf13/cobra"
)

var (
	execURL    string
	execParams string
)

var ExecCmd = &cobra.Command{
	Use:   "exec",
	Short: "Run one proxied command locally and print the response as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExec(cmd.Context(), cmd.OutOrStdout(), command.Spec{TargetURL: execURL, RawParameters: execParams})
	},
}

func init() {
	ExecCmd.Flags().StringVar(&execURL, "url", "", "target URL handed to the client last")
	ExecCmd.Flags().StringVar(&execParams, "params", "", "client parameters, tokenized like a shell would")
}

func runExec(ctx context.Context, out io.Writer, spec command.Spec) error {
	if ctx == nil {
		ctx = context.Background()
	}
	doc, logger, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := doc.ProxyOptions(logger)
	if err != nil {
		return err
	}
	st, err := doc.OpenStore(ctx, logger)
	if err != nil {
		return err
	}
	if st != nil {
		defer func() { _ = st.Close() }()
		opts.Recorder = store.NewRecorder(st, logger.Masker())
	}

	resp, err := proxy.New(opts).Execute(ctx, spec)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("command %s: exit code %d", resp.Outcome, resp.ExitCode)
	}
	return nil
}
