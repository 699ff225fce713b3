package common

import (
	"barhop/pkg/client"
	"barhop/pkg/model"
	"context"
	"net/http"
	"os"
	"testing"
	"time"
)

const DefaultServerURL = "http://localhost:8080"

type IntegrationTestSuite struct {
	Client    *client.BarClient
	ServerURL string
}

// NewIntegrationTestSuite points a client at TEST_SERVER_URL and waits for the
// service to report healthy, skipping the test when it never does.
func NewIntegrationTestSuite(t *testing.T) *IntegrationTestSuite {
	t.Helper()

	serverURL := os.Getenv("TEST_SERVER_URL")
	if serverURL == "" {
		serverURL = DefaultServerURL
	}

	c := client.NewBarClient(serverURL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.WaitForHealthy(ctx); err != nil {
		t.Skipf("bars service not reachable at %s: %v", serverURL, err)
	}

	return &IntegrationTestSuite{Client: c, ServerURL: serverURL}
}

// ClearBars deletes every stored bar through the public API.
func (s *IntegrationTestSuite) ClearBars(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	resp, err := s.Client.List(ctx)
	if err != nil {
		t.Fatalf("failed to list bars: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("failed to list bars: %d %s", resp.StatusCode, client.GetErrorMessage(resp))
	}

	var bars []model.Bar
	if err := resp.DecodeJSON(&bars); err != nil {
		t.Fatalf("failed to decode bars: %v", err)
	}
	for _, bar := range bars {
		del, err := s.Client.Delete(ctx, bar.ID)
		if err != nil {
			t.Fatalf("failed to delete bar %s: %v", bar.ID, err)
		}
		if del.StatusCode != http.StatusNoContent && del.StatusCode != http.StatusNotFound {
			t.Fatalf("failed to delete bar %s: %d", bar.ID, del.StatusCode)
		}
	}
}

func DecodeBar(t *testing.T, resp *client.Response) model.Bar {
	t.Helper()
	var bar model.Bar
	if err := resp.DecodeJSON(&bar); err != nil {
		t.Fatalf("failed to decode bar: %v (body: %s)", err, resp.Body)
	}
	return bar
}
