package framework

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Atractapp/legito-api-testing-sub002/apiclient"
)

const statusPath = "/workspace/info"

// TargetAPIInfo is the metadata returned by the target API's status resource.
// ResourceFamilies lists the resource families the workspace exposes; suites
// use them as capabilities and skip themselves when one is missing.
type TargetAPIInfo struct {
	Description      string   `json:"description"`
	Version          string   `json:"version,omitempty"`
	ResourceFamilies []string `json:"resourceFamilies"`
}

// TestHarness owns everything the suites share for one run against one target
// environment: the probed API metadata and the single client session through
// which all requests flow. Sharing one session is what makes the rate-limit
// buckets enforce aggregate throughput across parallel tests and virtual
// users.
type TestHarness struct {
	baseURL    string
	targetInfo TargetAPIInfo
	session    *apiclient.Client
	logger     Logger
}

// NewTestHarness verifies that the target API is reachable by polling its
// status resource until it responds or the timeout elapses, then creates the
// shared client session from the resolved configuration.
func NewTestHarness(
	cfg apiclient.Config,
	statusQueryTimeout time.Duration,
	debugLogger Logger,
	startupOutput io.Writer,
) (*TestHarness, error) {
	if debugLogger == nil {
		debugLogger = NullLogger()
	}

	info, err := queryTargetAPIInfo(cfg.BaseURL, statusQueryTimeout, startupOutput)
	if err != nil {
		return nil, err
	}

	if cfg.Logger == nil {
		cfg.Logger = HCLogAdapter(debugLogger, "session")
	}

	return &TestHarness{
		baseURL:    cfg.BaseURL,
		targetInfo: info,
		session:    apiclient.NewClient(cfg),
		logger:     debugLogger,
	}, nil
}

// TargetInfo returns the metadata probed from the target API at startup.
func (h *TestHarness) TargetInfo() TargetAPIInfo {
	return h.targetInfo
}

// Session returns the shared client session for this run.
func (h *TestHarness) Session() *apiclient.Client {
	return h.session
}

// HasCapability reports whether the target workspace exposes the named
// resource family.
func (h *TestHarness) HasCapability(desired string) bool {
	for _, c := range h.targetInfo.ResourceFamilies {
		if c == desired {
			return true
		}
	}
	return false
}

func queryTargetAPIInfo(baseURL string, timeout time.Duration, output io.Writer) (TargetAPIInfo, error) {
	url := baseURL + statusPath
	fmt.Fprintf(output, "Connecting to target API at %s", url)

	deadline := time.Now().Add(timeout)
	for {
		fmt.Fprintf(output, ".")
		resp, err := http.DefaultClient.Get(url)
		if err == nil {
			fmt.Fprintln(output)
			if resp.StatusCode != 200 {
				return TargetAPIInfo{}, fmt.Errorf("target API returned status code %d from status resource", resp.StatusCode)
			}
			respData, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return TargetAPIInfo{}, err
			}
			fmt.Fprintf(output, "Status query returned metadata: %s\n", string(respData))
			var info TargetAPIInfo
			if err := json.Unmarshal(respData, &info); err != nil {
				return TargetAPIInfo{}, fmt.Errorf("malformed status response from target API: %s", string(respData))
			}
			return info, nil
		}
		if !time.Now().Before(deadline) {
			return TargetAPIInfo{}, fmt.Errorf("timed out, result of last query was: %w", err)
		}
		time.Sleep(time.Millisecond * 100)
	}
}
