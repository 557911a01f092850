// Package analyzer talks to the remote analysis service.
package analyzer

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/vsecure-io/vsecure/internal/findings"
	"github.com/vsecure-io/vsecure/pkg/shared/config"
	"github.com/vsecure-io/vsecure/pkg/shared/errors"
	"github.com/vsecure-io/vsecure/pkg/shared/httpclient"
)

const maxErrorBody = 512

// Flags selects the analyzers the service runs.
type Flags struct {
	Semgrep bool
	CodeQL  bool
}

// Any reports whether at least one analyzer is selected.
func (f Flags) Any() bool {
	return f.Semgrep || f.CodeQL
}

type analyzeResponse struct {
	Message string                          `json:"message"`
	Results map[string][]findings.RawRecord `json:"results"`
}

type fixResponse struct {
	FixedCode string `json:"fixedCode"`
}

// Client submits workspace archives for analysis and asks for single fixes.
type Client struct {
	upload    *resty.Client
	rest      *resty.Client
	serverURL string
	fixURL    string
	logger    hclog.Logger
}

// NewClient builds a Client from cfg. Uploads are sent without retries since
// the multipart body is streamed from a reader that cannot be replayed.
func NewClient(cfg *config.Config, logger hclog.Logger) *Client {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Client{
		upload:    httpclient.InitializeRestyClient(logger, cfg).SetRetryCount(0),
		rest:      httpclient.InitializeRestyClient(logger, cfg),
		serverURL: config.GetServerURL(cfg),
		fixURL:    config.GetFixURL(cfg),
		logger:    logger,
	}
}

// ServerURL returns the analysis endpoint in use.
func (c *Client) ServerURL() string {
	return c.serverURL
}

// Submit uploads archive and returns the findings of each requested tool.
// Every failure is reported as errors.ErrAnalysisUnavailable.
func (c *Client) Submit(ctx context.Context, archive []byte, flags Flags, credential string) (findings.ToolResults, error) {
	if !flags.Any() {
		return nil, errors.NewAnalysisUnavailableError("no analyzer selected")
	}

	c.logger.Debug("submitting archive", "url", c.serverURL, "bytes", len(archive), "semgrep", flags.Semgrep, "codeql", flags.CodeQL)

	var out analyzeResponse
	resp, err := c.upload.R().
		SetContext(ctx).
		SetMultipartField("code_zip", "code.zip", "application/zip", bytes.NewReader(archive)).
		SetMultipartFormData(map[string]string{
			"run_semgrep_flag": strconv.FormatBool(flags.Semgrep),
			"run_codeql_flag":  strconv.FormatBool(flags.CodeQL),
			"openai_api_key":   credential,
		}).
		SetResult(&out).
		Post(c.serverURL)
	if err != nil {
		return nil, errors.NewAnalysisUnavailableError("request to %s failed: %v", c.serverURL, err)
	}
	if resp.IsError() {
		return nil, errors.NewAnalysisUnavailableError("server returned %s: %s", resp.Status(), truncate(resp.String()))
	}

	results := findings.ToolResults{}
	for tool, records := range out.Results {
		results[tool] = records
	}
	c.logger.Debug("analysis response received", "message", out.Message, "records", results.Len())
	return results, nil
}

// RequestFix asks the service for a corrected version of code.
func (c *Client) RequestFix(ctx context.Context, message, code, credential string) (string, error) {
	var out fixResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{
			"message":        message,
			"code":           code,
			"openai_api_key": credential,
		}).
		SetResult(&out).
		Post(c.fixURL)
	if err != nil {
		return "", errors.NewAnalysisUnavailableError("request to %s failed: %v", c.fixURL, err)
	}
	if resp.IsError() {
		return "", errors.NewAnalysisUnavailableError("server returned %s: %s", resp.Status(), truncate(resp.String()))
	}
	if strings.TrimSpace(out.FixedCode) == "" {
		return "", fmt.Errorf("service returned no fix: %w", errors.ErrNoFixAvailable)
	}
	return out.FixedCode, nil
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
