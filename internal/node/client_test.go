package node

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/public", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"gpu":            map[string]interface{}{"enabled": true, "type": "a100", "available": 4},
			"schemaVersions": []string{"2.0"},
		})
	}))
	defer srv.Close()

	caps, err := Probe(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.True(t, caps.GPU.Enabled)
	assert.Equal(t, "a100", caps.GPU.Type)
	assert.Equal(t, 4, caps.GPU.Available)
	assert.True(t, caps.SupportsSchema("2.0"))
	assert.False(t, caps.SupportsSchema("3.0"))
	assert.Equal(t, srv.URL, caps.URL, "probe should fill in the URL when the node omits it")
}

func TestProbeDefaultsMissingFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	caps, err := Probe(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.False(t, caps.GPU.Enabled)
	assert.True(t, caps.SupportsSchema("2.0"), "no declared versions means no gating")
	assert.True(t, caps.SupportsRuntime("node"))
}

func TestProbeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := Probe(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestCreateProject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/project/create", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req struct {
			Name    string `json:"name"`
			Network string `json:"network"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "myproj", req.Name)
		assert.Equal(t, "testnet", req.Network)

		json.NewEncoder(w).Encode(map[string]string{"projectId": "proj-1"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	id, err := c.CreateProject(context.Background(), "myproj", "testnet")
	require.NoError(t, err)
	assert.Equal(t, "proj-1", id)
}

func TestCreateProjectEmptyID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").CreateProject(context.Background(), "p", "mainnet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no project ID")
}

func TestRequestDeploy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/project/proj-1/deploy", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{
			"url":          "https://upload.example.com/slot",
			"deploymentId": "dep-9",
		})
	}))
	defer srv.Close()

	slot, err := NewClient(srv.URL, "").RequestDeploy(context.Background(), "proj-1")
	require.NoError(t, err)
	assert.Equal(t, "dep-9", slot.DeploymentID)
	assert.Equal(t, "https://upload.example.com/slot", slot.UploadURL)
}

func TestRequestDeployIncompleteSlot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"url": "https://upload"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").RequestDeploy(context.Background(), "proj-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete")
}

func TestUpload(t *testing.T) {
	var gotService string
	var gotBody []byte
	upload := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotService = r.URL.Query().Get("serviceName")
		assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer upload.Close()

	archive := filepath.Join(t.TempDir(), "agent.tgz")
	require.NoError(t, os.WriteFile(archive, []byte("archive-bytes"), 0644))

	c := NewClient("https://node.example.com", "")
	err := c.Upload(context.Background(), upload.URL, "api", archive)
	require.NoError(t, err)
	assert.Equal(t, "api", gotService)
	assert.Equal(t, "archive-bytes", string(gotBody))
}

func TestWaitOnlineTerminatesWhenNeverReady(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		json.NewEncoder(w).Encode(map[string]interface{}{"status": map[string]bool{"online": false}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	c.PollInterval = 10 * time.Millisecond
	c.ReadyTimeout = 80 * time.Millisecond

	start := time.Now()
	online, err := c.WaitOnline(context.Background(), "proj-1")
	require.NoError(t, err)
	assert.False(t, online, "timeout must return not-ready, not an error")
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.GreaterOrEqual(t, polls.Load(), int32(2))
}

func TestWaitOnlineBecomesReady(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		online := polls.Add(1) >= 3
		json.NewEncoder(w).Encode(map[string]interface{}{"status": map[string]bool{"online": online}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	c.PollInterval = 5 * time.Millisecond
	c.ReadyTimeout = time.Second

	online, err := c.WaitOnline(context.Background(), "proj-1")
	require.NoError(t, err)
	assert.True(t, online)
}

func TestStoreServiceLinksAndRestart(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/api/v1/project/p/service-links" {
			var req struct {
				Links []ServiceLinkRecord `json:"links"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Links, 1)
			assert.Equal(t, "API_URL", req.Links[0].EnvVar)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	ctx := context.Background()
	require.NoError(t, c.StoreServiceLinks(ctx, "p", []ServiceLinkRecord{{EnvVar: "API_URL", URL: "https://a"}}))
	require.NoError(t, c.Restart(ctx, "p"))
	assert.Equal(t, []string{"/api/v1/project/p/service-links", "/api/v1/project/p/admin/restart"}, paths)
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "node.example.com", NewClient("https://node.example.com", "").Domain())
	assert.Equal(t, "node.example.com:8443", NewClient("https://node.example.com:8443/", "").Domain())
}
