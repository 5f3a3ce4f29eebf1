package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/epistemix-com/epx-go/internal/epxconfig"
	"github.com/epistemix-com/epx-go/pkg/runparams"
	"github.com/epistemix-com/epx-go/pkg/synthpop"
)

func sampleRunParams() runparams.RunParameters {
	seed := uint64(42)
	return runparams.RunParameters{
		Program:   "/home/epx/my-model/main.fred",
		SynthPop:  synthpop.New("US_2010.v5", []string{"Location1", "Location2"}),
		StartDate: "2024-01-01",
		EndDate:   "2024-02-29",
		ModelParams: []runparams.ModelParam{
			{Key: "var1", Value: 10.1},
			{Key: "var2", Value: 40},
		},
		Seed: &seed,
	}
}

func TestBuildFREDArgsFRED11(t *testing.T) {
	args, err := buildFREDArgs("11.0.1", sampleRunParams(), "/home/epx/results")
	if err != nil {
		t.Fatal(err)
	}
	want := []FREDArg{
		{Flag: "-p", Value: "/home/epx/my-model/main.fred"},
		{Flag: "-d", Value: "/home/epx/results"},
		{Flag: "-o", Value: "var1=10.1"},
		{Flag: "-o", Value: "var2=40"},
		{Flag: "-s", Value: "42"},
		{Flag: "--start-date", Value: "2024-01-01"},
		{Flag: "--end-date", Value: "2024-02-29"},
		{Flag: "-l", Value: "Location1"},
		{Flag: "-l", Value: "Location2"},
	}
	if diff := cmp.Diff(want, args); diff != "" {
		t.Errorf("unexpected FRED args (-want +got):\n%s", diff)
	}
}

func TestBuildFREDArgsFRED10(t *testing.T) {
	args, err := buildFREDArgs("10.1.1", sampleRunParams(), "/home/epx/results")
	if err != nil {
		t.Fatal(err)
	}
	want := []FREDArg{
		{Flag: "-p", Value: "/home/epx/my-model/main.fred"},
		{Flag: "-d", Value: "/home/epx/results"},
		{Flag: "-o", Value: "var1=10.1"},
		{Flag: "-o", Value: "var2=40"},
		{Flag: "-r", Value: "42"},
		{Flag: "--start-date", Value: "2024-01-01"},
		{Flag: "--end-date", Value: "2024-02-29"},
	}
	if diff := cmp.Diff(want, args); diff != "" {
		t.Errorf("unexpected FRED args (-want +got):\n%s", diff)
	}
}

func TestBuildFREDArgsPreservesModelParamOrder(t *testing.T) {
	params := sampleRunParams()
	params.ModelParams = []runparams.ModelParam{
		{Key: "var2", Value: 40},
		{Key: "var1", Value: 10.1},
	}
	args, err := buildFREDArgs("11.0.1", params, "/home/epx/results")
	if err != nil {
		t.Fatal(err)
	}
	want := []FREDArg{
		{Flag: "-o", Value: "var2=40"},
		{Flag: "-o", Value: "var1=10.1"},
	}
	got := args[2:4]
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected -o arg order (-want +got):\n%s", diff)
	}
}

func TestCloudStrategyExecuteSuccess(t *testing.T) {
	s := NewCloudStrategy(sampleRunParams(), "/home/epx/results", "small2", "11.0.1",
		epxconfig.Config{OfflineToken: "XYZ"})
	s.getwd = func() (string, error) { return "/home/epx/my-model", nil }

	var capturedURL string
	var capturedBody []byte
	var capturedHeaders http.Header
	s.httpPost = func(url, contentType string, body []byte, headers http.Header) (*http.Response, error) {
		capturedURL, capturedBody, capturedHeaders = url, body, headers
		resp := RunResponseBody{RunResponses: []RunResponse{{RunID: 42, Status: "Submitted"}}}
		b, _ := json.Marshal(resp)
		return &http.Response{StatusCode: 201, Body: io.NopCloser(bytes.NewReader(b))}, nil
	}

	runID, err := s.Execute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if runID != 42 {
		t.Errorf("runID = %d, want 42", runID)
	}
	if capturedURL != RunsURL {
		t.Errorf("URL = %q, want %q", capturedURL, RunsURL)
	}
	if capturedHeaders.Get("Offline-Token") != "Bearer XYZ" {
		t.Errorf("missing offline token header: %v", capturedHeaders)
	}

	var sent RunRequestPayload
	if err := json.Unmarshal(capturedBody, &sent); err != nil {
		t.Fatal(err)
	}
	if sent.RunRequests[0].WorkingDir != "/home/epx/my-model" {
		t.Errorf("workingDir = %q, want cwd not output dir", sent.RunRequests[0].WorkingDir)
	}
}

func TestCloudStrategyExecuteRunConfigError(t *testing.T) {
	s := NewCloudStrategy(sampleRunParams(), "/home/epx/results", "small2", "11.0.1",
		epxconfig.Config{OfflineToken: "XYZ"})
	s.getwd = func() (string, error) { return "/home/epx/my-model", nil }
	s.httpPost = func(url, contentType string, body []byte, headers http.Header) (*http.Response, error) {
		resp := RunResponseBody{RunResponses: []RunResponse{{
			RunID:  42,
			Status: "Failed",
			Errors: []RunError{{Key: "size", Error: "The compute size provided is invalid"}},
		}}}
		b, _ := json.Marshal(resp)
		return &http.Response{StatusCode: 201, Body: io.NopCloser(bytes.NewReader(b))}, nil
	}

	_, err := s.Execute(context.Background())
	rce, ok := err.(*RunConfigError)
	if !ok {
		t.Fatalf("expected *RunConfigError, got %T (%v)", err, err)
	}
	if rce.Error() != "size error: The compute size provided is invalid" {
		t.Errorf("unexpected message: %s", rce.Error())
	}
}

func TestCloudStrategyExecuteUnauthorized(t *testing.T) {
	s := NewCloudStrategy(sampleRunParams(), "/home/epx/results", "small2", "11.0.1",
		epxconfig.Config{OfflineToken: "XYZ"})
	s.getwd = func() (string, error) { return "/home/epx/my-model", nil }
	s.httpPost = func(url, contentType string, body []byte, headers http.Header) (*http.Response, error) {
		return &http.Response{StatusCode: 403, Body: io.NopCloser(jsonReader([]byte(`{"description": "Unauthorized error detail."}`)))}, nil
	}

	_, err := s.Execute(context.Background())
	uae, ok := err.(*UnauthorizedUserError)
	if !ok {
		t.Fatalf("expected *UnauthorizedUserError, got %T (%v)", err, err)
	}
	if uae.Error() != "Authorization error: Unauthorized error detail." {
		t.Errorf("unexpected message: %s", uae.Error())
	}
}

func TestCloudStrategyExecuteServerError(t *testing.T) {
	s := NewCloudStrategy(sampleRunParams(), "/home/epx/results", "small2", "11.0.1",
		epxconfig.Config{OfflineToken: "XYZ"})
	s.getwd = func() (string, error) { return "/home/epx/my-model", nil }
	s.httpPost = func(url, contentType string, body []byte, headers http.Header) (*http.Response, error) {
		return &http.Response{StatusCode: 500, Body: io.NopCloser(bytes.NewReader(nil))}, nil
	}

	_, err := s.Execute(context.Background())
	if _, ok := err.(*RemoteServerError); !ok {
		t.Fatalf("expected *RemoteServerError, got %T (%v)", err, err)
	}
}

func TestCloudStrategyExecuteNetworkFailure(t *testing.T) {
	s := NewCloudStrategy(sampleRunParams(), "/home/epx/results", "small2", "11.0.1",
		epxconfig.Config{OfflineToken: "XYZ"})
	s.getwd = func() (string, error) { return "/home/epx/my-model", nil }
	s.httpPost = func(url, contentType string, body []byte, headers http.Header) (*http.Response, error) {
		return nil, io.ErrClosedPipe
	}

	_, err := s.Execute(context.Background())
	if _, ok := err.(*RemoteUnavailableError); !ok {
		t.Fatalf("expected *RemoteUnavailableError, got %T (%v)", err, err)
	}
}
