// Package cloud submits FRED run requests to the Epistemix cloud runner
// and classifies its responses.
package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/epistemix-com/epx-go/internal/epxconfig"
	"github.com/epistemix-com/epx-go/pkg/fredver"
	"github.com/epistemix-com/epx-go/pkg/runparams"
)

// RunsURL is the fixed endpoint every run request is submitted to.
const RunsURL = "https://studio.epistemix.cloud/v1/runs"

// Strategy submits a single prepared run and returns the remote run ID on
// success.
type Strategy interface {
	Execute(ctx context.Context) (runID int, err error)
}

// FREDArg is a single command-line flag/value pair passed to the FRED
// engine.
type FREDArg struct {
	Flag  string `json:"flag"`
	Value string `json:"value"`
}

// RunRequest is the wire shape of one run within a submission payload.
type RunRequest struct {
	WorkingDir  string       `json:"workingDir"`
	Size        string       `json:"size"`
	FREDVersion string       `json:"fredVersion"`
	Population  synthPopWire `json:"population"`
	FREDArgs    []FREDArg    `json:"fredArgs"`
}

type synthPopWire struct {
	Version   string   `json:"version"`
	Locations []string `json:"locations"`
}

// RunRequestPayload is the full POST body for a submission.
type RunRequestPayload struct {
	RunRequests []RunRequest `json:"runRequests"`
}

// RunError describes one field-level submission failure.
type RunError struct {
	Key   string `json:"key"`
	Error string `json:"error"`
}

// RunResponse is the wire shape of one run's outcome within a response
// body.
type RunResponse struct {
	RunID      int        `json:"runId"`
	Status     string     `json:"status"`
	Errors     []RunError `json:"errors,omitempty"`
	RunRequest RunRequest `json:"runRequest"`
}

// RunResponseBody is the full response body for a submission.
type RunResponseBody struct {
	RunResponses []RunResponse `json:"runResponses"`
}

// RunConfigError indicates the platform rejected a run's configuration.
type RunConfigError struct {
	Key     string
	Message string
}

func (e *RunConfigError) Error() string {
	return fmt.Sprintf("%s error: %s", e.Key, e.Message)
}

// UnauthorizedUserError indicates the caller is not authorized to submit
// runs.
type UnauthorizedUserError struct {
	Description string
}

func (e *UnauthorizedUserError) Error() string {
	return "Authorization error: " + e.Description
}

// RemoteServerError wraps an unclassifiable non-2xx response.
type RemoteServerError struct {
	StatusCode int
}

func (e *RemoteServerError) Error() string {
	return fmt.Sprintf("remote server error: status %d", e.StatusCode)
}

// RemoteUnavailableError indicates the request never reached the server.
type RemoteUnavailableError struct {
	Cause error
}

func (e *RemoteUnavailableError) Error() string {
	return fmt.Sprintf("remote unavailable: %v", e.Cause)
}

func (e *RemoteUnavailableError) Unwrap() error { return e.Cause }

// CloudStrategy submits a single run's parameters to the Epistemix cloud
// runner.
type CloudStrategy struct {
	Params      runparams.RunParameters
	OutputDir   string
	Size        string
	FREDVersion string
	Config      epxconfig.Config

	// httpPost and getwd are indirected for tests.
	httpPost func(url, contentType string, body []byte, headers http.Header) (*http.Response, error)
	getwd    func() (string, error)
}

// NewCloudStrategy constructs a CloudStrategy with production HTTP and
// working-directory behavior.
func NewCloudStrategy(params runparams.RunParameters, outputDir, size, fredVersion string, cfg epxconfig.Config) *CloudStrategy {
	return &CloudStrategy{
		Params:      params,
		OutputDir:   outputDir,
		Size:        size,
		FREDVersion: fredVersion,
		Config:      cfg,
		httpPost:    defaultHTTPPost,
		getwd:       os.Getwd,
	}
}

func defaultHTTPPost(url, contentType string, body []byte, headers http.Header) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header = headers
	req.Header.Set("Content-Length", fmt.Sprintf("%d", len(body)))
	_ = contentType
	return http.DefaultClient.Do(req)
}

// Execute submits the run and returns its assigned remote run ID.
func (s *CloudStrategy) Execute(ctx context.Context) (_ int, err error) {
	start := time.Now()
	defer func() { observeSubmission(start, err) }()

	workingDir, err := s.getwd()
	if err != nil {
		return 0, errors.Wrap(err, "determine working directory")
	}

	args, err := buildFREDArgs(s.FREDVersion, s.Params, s.OutputDir)
	if err != nil {
		return 0, err
	}

	payload := RunRequestPayload{
		RunRequests: []RunRequest{{
			WorkingDir:  workingDir,
			Size:        s.Size,
			FREDVersion: s.FREDVersion,
			Population: synthPopWire{
				Version:   s.Params.SynthPop.Version,
				Locations: s.Params.SynthPop.Locations,
			},
			FREDArgs: args,
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, errors.Wrap(err, "marshal run request payload")
	}

	headers, err := PlatformAPIHeaders(s.Config)
	if err != nil {
		return 0, err
	}

	res, err := s.httpPost(RunsURL, "application/json", body, headers)
	if err != nil {
		return 0, &RemoteUnavailableError{Cause: err}
	}
	defer res.Body.Close()

	return classifyResponse(res)
}

func classifyResponse(res *http.Response) (int, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(res.Body); err != nil {
		return 0, errors.Wrap(err, "read response body")
	}

	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		var body struct {
			Description string `json:"description"`
		}
		_ = json.Unmarshal(buf.Bytes(), &body)
		return 0, &UnauthorizedUserError{Description: body.Description}
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return 0, &RemoteServerError{StatusCode: res.StatusCode}
	}

	var respBody RunResponseBody
	if err := json.Unmarshal(buf.Bytes(), &respBody); err != nil {
		return 0, errors.Wrap(err, "decode run response body")
	}
	if len(respBody.RunResponses) == 0 {
		return 0, errors.New("run response contained no runs")
	}

	run := respBody.RunResponses[0]
	if run.Status == "Failed" {
		if len(run.Errors) == 0 {
			return 0, &RunConfigError{Key: "unknown", Message: "run failed with no error detail"}
		}
		first := run.Errors[0]
		return 0, &RunConfigError{Key: first.Key, Message: first.Error}
	}
	return run.RunID, nil
}

// buildFREDArgs constructs the FRED command-line arguments for params,
// adapting flags to the target engine's major version.
func buildFREDArgs(fredVersion string, params runparams.RunParameters, outputDir string) ([]FREDArg, error) {
	major, err := fredver.MajorVersion(fredVersion)
	if err != nil {
		return nil, err
	}

	b := newFREDArgsBuilder(major).
		program(params.Program).
		outputDir(outputDir).
		overrides(params.ModelParams).
		seed(params.Seed)

	if params.StartDate != "" {
		b = b.startDate(params.StartDate)
	}
	if params.EndDate != "" {
		b = b.endDate(params.EndDate)
	}
	if major >= fredver.LatestMajor {
		b = b.locations(params.SynthPop.Locations)
	}
	return b.build(), nil
}

type fredArgsBuilder struct {
	major int
	args  []FREDArg
}

func newFREDArgsBuilder(major int) *fredArgsBuilder {
	return &fredArgsBuilder{major: major}
}

func (b *fredArgsBuilder) program(p string) *fredArgsBuilder {
	b.args = append(b.args, FREDArg{Flag: "-p", Value: p})
	return b
}

func (b *fredArgsBuilder) outputDir(d string) *fredArgsBuilder {
	b.args = append(b.args, FREDArg{Flag: "-d", Value: d})
	return b
}

// overrides appends one "-o key=value" argument per entry, preserving the
// caller's iteration order per §6.2 of the wire protocol.
func (b *fredArgsBuilder) overrides(params []runparams.ModelParam) *fredArgsBuilder {
	for _, p := range params {
		b.args = append(b.args, FREDArg{Flag: "-o", Value: fmt.Sprintf("%s=%v", p.Key, p.Value)})
	}
	return b
}

func (b *fredArgsBuilder) seed(seed *uint64) *fredArgsBuilder {
	if seed == nil {
		return b
	}
	flag := "-s"
	if b.major < fredver.LatestMajor {
		flag = "-r"
	}
	b.args = append(b.args, FREDArg{Flag: flag, Value: fmt.Sprintf("%d", *seed)})
	return b
}

func (b *fredArgsBuilder) startDate(d string) *fredArgsBuilder {
	b.args = append(b.args, FREDArg{Flag: "--start-date", Value: d})
	return b
}

func (b *fredArgsBuilder) endDate(d string) *fredArgsBuilder {
	b.args = append(b.args, FREDArg{Flag: "--end-date", Value: d})
	return b
}

func (b *fredArgsBuilder) locations(locs []string) *fredArgsBuilder {
	for _, l := range locs {
		b.args = append(b.args, FREDArg{Flag: "-l", Value: l})
	}
	return b
}

func (b *fredArgsBuilder) build() []FREDArg {
	return b.args
}
