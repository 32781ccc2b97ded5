package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/loykin/curlproxy/internal/auth"
	"github.com/loykin/curlproxy/internal/server"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var (
	callURL    string
	callParams string
	callSelect string
)

var CallCmd = &cobra.Command{
	Use:   "call",
	Short: "Send a request to a running proxy server's /execute-raw endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCall(cmd.Context(), cmd.OutOrStdout(), callURL, callParams, callSelect)
	},
}

func init() {
	CallCmd.Flags().StringVar(&callURL, "url", "", "target URL the server hands to its client")
	CallCmd.Flags().StringVar(&callParams, "params", "", "client parameters")
	CallCmd.Flags().StringVar(&callSelect, "select", "", "print only this gjson path of the response (e.g. output, httpStatusCode)")
}

func runCall(ctx context.Context, out io.Writer, url, params, selectPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	doc, logger, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := doc.HTTPClient(logger)
	if err != nil {
		return err
	}

	req := client.R().SetContext(ctx).SetBody(server.RawRequest{URL: url, Parameters: &params})
	if doc.Client.Auth.Enabled() {
		header, value, err := doc.Client.Auth.Acquire(auth.WithHTTPClient(ctx, client.GetClient()))
		if err != nil {
			return err
		}
		req.SetHeader(header, value)
	}

	endpoint := "/" + strings.Trim(doc.Server.BasePath, "/") + "/execute-raw"
	resp, err := req.Post(endpoint)
	if err != nil {
		return fmt.Errorf("call %s: %w", endpoint, err)
	}
	body := resp.Body()
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusBadRequest {
		return fmt.Errorf("call %s: unexpected status %d: %s", endpoint, resp.StatusCode(), strings.TrimSpace(string(body)))
	}
	if !gjson.ValidBytes(body) {
		return fmt.Errorf("call %s: response is not JSON", endpoint)
	}

	if selectPath != "" {
		_, err = fmt.Fprintln(out, gjson.GetBytes(body, selectPath).String())
	} else {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, body, "", "  "); err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, pretty.String())
	}
	if err != nil {
		return err
	}

	if resp.StatusCode() == http.StatusBadRequest {
		if !gjson.GetBytes(body, "exitCode").Exists() {
			return fmt.Errorf("call %s: %s", endpoint, gjson.GetBytes(body, "error").String())
		}
		return fmt.Errorf("remote command %s: exit code %d", gjson.GetBytes(body, "outcome").String(), gjson.GetBytes(body, "exitCode").Int())
	}
	return nil
}
