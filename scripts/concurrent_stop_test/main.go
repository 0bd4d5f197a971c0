// Tool to reproduce Stop concurrency behavior: start a capture, trigger concurrent stops,
// then download the single resulting recording and validate it with ffprobe.
// Usage: go run main.go -url http://localhost:10001 -duration 3 -concurrency 4
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"os/exec"
	"sync"
	"time"

	retry "github.com/avast/retry-go/v5"
	"github.com/samber/lo"

	oapi "github.com/onkernel/screencap/lib/oapi"
)

func main() {
	baseURL := flag.String("url", "http://localhost:10001", "Base URL of the screencap API")
	duration := flag.Int("duration", 3, "Recording duration in seconds before stopping")
	concurrency := flag.Int("concurrency", 4, "Number of concurrent stop calls")
	iterations := flag.Int("iterations", 5, "Number of test iterations")
	flag.Parse()

	fmt.Printf("Testing concurrent stop behavior\n")
	fmt.Printf("  URL: %s\n", *baseURL)
	fmt.Printf("  Duration: %ds\n", *duration)
	fmt.Printf("  Concurrency: %d\n", *concurrency)
	fmt.Printf("  Iterations: %d\n", *iterations)

	passed := 0
	failed := 0

	for i := 0; i < *iterations; i++ {
		fmt.Printf("=== Iteration %d/%d ===\n", i+1, *iterations)

		err := runTest(*baseURL, *duration, *concurrency)
		if err != nil {
			fmt.Printf("FAILED: %v\n\n", err)
			failed++
		} else {
			fmt.Printf("PASSED\n\n")
			passed++
		}
	}

	fmt.Printf("=== RESULTS: %d passed, %d failed ===\n", passed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

type client struct {
	baseURL string
	http    *http.Client
}

func (c *client) do(ctx context.Context, method, path string, body any) (int, []byte, http.Header, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, nil, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	return resp.StatusCode, data, resp.Header, err
}

func runTest(baseURL string, duration, concurrency int) error {
	ctx := context.Background()
	c := &client{baseURL: baseURL, http: &http.Client{Timeout: time.Minute}}

	before, err := listRecordings(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to list recordings: %w", err)
	}

	fmt.Printf("  Starting capture...\n")
	sessionID, err := startCapture(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}

	fmt.Printf("  Recording for %d seconds...\n", duration)
	time.Sleep(time.Duration(duration) * time.Second)

	fmt.Printf("  Calling stop %d times concurrently...\n", concurrency)
	stopResults := make(chan error, concurrency)
	var wg sync.WaitGroup

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(goroutineID int) {
			defer wg.Done()
			if err := stopCapture(ctx, c); err != nil {
				stopResults <- fmt.Errorf("goroutine %d: %w", goroutineID, err)
			} else {
				stopResults <- nil
			}
		}(i)
	}

	wg.Wait()
	close(stopResults)

	var stopErrors []error
	for err := range stopResults {
		if err != nil {
			stopErrors = append(stopErrors, err)
		}
	}
	if len(stopErrors) > 0 {
		return fmt.Errorf("stop is not idempotent: %v", stopErrors)
	}

	fmt.Printf("  Downloading recording...\n")
	data, filename, err := downloadRecording(ctx, c, sessionID)
	if err != nil {
		return fmt.Errorf("failed to download recording: %w", err)
	}
	fmt.Printf("  Downloaded %d bytes as %s\n", len(data), filename)

	after, err := listRecordings(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to list recordings: %w", err)
	}
	if len(after)-len(before) != 1 {
		return fmt.Errorf("expected exactly one new recording, got %d", len(after)-len(before))
	}

	tmpFile, err := os.CreateTemp("", "stop-test-*-"+filename)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	tmpFile.Close()

	fmt.Printf("  Validating with ffprobe...\n")
	if err := validateRecording(tmpFile.Name()); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}

func startCapture(ctx context.Context, c *client) (string, error) {
	status, body, _, err := c.do(ctx, http.MethodPost, "/capture/start", oapi.StartCaptureRequest{})
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", fmt.Errorf("unexpected status %d: %s", status, string(body))
	}
	var st oapi.CaptureStatus
	if err := json.Unmarshal(body, &st); err != nil {
		return "", err
	}
	if st.Session == nil {
		return "", fmt.Errorf("capture started without a session")
	}
	return st.Session.Id, nil
}

func stopCapture(ctx context.Context, c *client) error {
	status, body, _, err := c.do(ctx, http.MethodPost, "/capture/stop", oapi.StopCaptureRequest{})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", status, string(body))
	}
	return nil
}

func listRecordings(ctx context.Context, c *client) ([]oapi.RecordingInfo, error) {
	status, body, _, err := c.do(ctx, http.MethodGet, "/recordings", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", status, string(body))
	}
	var out []oapi.RecordingInfo
	return out, json.Unmarshal(body, &out)
}

func downloadRecording(ctx context.Context, c *client, id string) ([]byte, string, error) {
	var (
		data     []byte
		filename string
	)
	err := retry.New(
		retry.Attempts(10),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	).Do(func() error {
		status, body, header, err := c.do(ctx, http.MethodGet, "/recordings/"+id, nil)
		if err != nil {
			return err
		}

		if status == http.StatusAccepted {
			return fmt.Errorf("recording not ready yet")
		}

		if status != http.StatusOK {
			return fmt.Errorf("unexpected status %d: %s", status, string(body))
		}

		data = body
		filename = "recording"
		if _, params, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
			filename = params["filename"]
		}
		return nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed after retries: %w", err)
	}
	return data, filename, nil
}

type streamInfo struct {
	CodecType string `json:"codec_type"`
}

func validateRecording(filePath string) error {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-show_format",
		"-show_streams",
		"-output_format", "json",
		filePath)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffprobe failed: %w\nOutput: %s", err, string(output))
	}

	var result struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
		Streams []streamInfo `json:"streams"`
	}
	if err := json.Unmarshal(output, &result); err != nil {
		return fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	video := lo.CountBy(result.Streams, func(s streamInfo) bool { return s.CodecType == "video" })
	audio := lo.CountBy(result.Streams, func(s streamInfo) bool { return s.CodecType == "audio" })
	if video != 1 || audio > 1 {
		return fmt.Errorf("expected 1 video and at most 1 audio stream, got %d video and %d audio", video, audio)
	}

	fmt.Printf("  Duration: %s seconds, audio streams: %d\n", result.Format.Duration, audio)
	return nil
}
