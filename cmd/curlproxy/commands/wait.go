package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/loykin/curlproxy/cmd/curlproxy/config"
	"github.com/loykin/curlproxy/internal/constants"
	"github.com/loykin/curlproxy/internal/util"
	"github.com/spf13/cobra"
)

var WaitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Poll the proxy server (or wait.url) until it answers with the expected status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWait(cmd.Context(), cmd.OutOrStdout())
	},
}

// waitParams holds the parsed and normalized parameters for waiting
type waitParams struct {
	url      string
	method   string
	expected int
	timeout  time.Duration
	interval time.Duration
}

// parseWaitConfig fills in defaults; the URL defaults to the server health route.
func parseWaitConfig(doc *config.ConfigDoc) waitParams {
	url, ok := util.TrimEmptyCheck(doc.Wait.URL)
	if !ok {
		base := strings.TrimRight(util.TrimWithDefault(doc.Client.ServerURL, constants.DefaultServerURL), "/")
		path := "/" + strings.Trim(util.TrimWithDefault(doc.Server.BasePath, constants.DefaultBasePath), "/")
		url = base + path + "/health"
	}
	p := waitParams{
		url:      url,
		method:   strings.ToUpper(util.TrimWithDefault(doc.Wait.Method, constants.DefaultWaitMethod)),
		expected: doc.Wait.Status,
		timeout:  doc.Wait.Timeout,
		interval: doc.Wait.Interval,
	}
	if p.expected == 0 {
		p.expected = constants.DefaultWaitStatus
	}
	if p.timeout <= 0 {
		p.timeout = constants.DefaultWaitTimeout
	}
	if p.interval <= 0 {
		p.interval = constants.DefaultWaitInterval
	}
	return p
}

// probe issues one request; HEAD is honored, anything else is sent as GET.
func probe(ctx context.Context, client *resty.Client, method, url string) (int, error) {
	req := client.R().SetContext(ctx)
	var (
		resp *resty.Response
		err  error
	)
	if method == http.MethodHead {
		resp, err = req.Head(url)
	} else {
		resp, err = req.Get(url)
	}
	if resp != nil {
		return resp.StatusCode(), err
	}
	return 0, err
}

// poll repeatedly probes the endpoint until success or timeout
func poll(ctx context.Context, client *resty.Client, p waitParams) error {
	deadline := time.Now().Add(p.timeout)
	var lastStatus int
	for {
		status, err := probe(ctx, client, p.method, p.url)
		if err == nil && status == p.expected {
			return nil
		}
		lastStatus = status
		if time.Now().After(deadline) {
			return fmt.Errorf("wait: timeout waiting for %s to return %d (last=%d)", p.url, p.expected, lastStatus)
		}

		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func runWait(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	doc, logger, err := loadConfig()
	if err != nil {
		return err
	}
	p := parseWaitConfig(doc)
	client, err := doc.HTTPClient(logger)
	if err != nil {
		return err
	}
	// Each probe is bounded by the poll interval, not the client timeout.
	client.SetTimeout(p.interval)

	logger.Info("waiting for endpoint", "url", p.url, "status", p.expected, "timeout", p.timeout)
	if err := poll(ctx, client, p); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s is up\n", p.url)
	return err
}
