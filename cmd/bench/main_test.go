package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/IvanBrykalov/searchlist/internal/workload"
	pmet "github.com/IvanBrykalov/searchlist/metrics/prom"
	"github.com/IvanBrykalov/searchlist/searchlist"
)

// Flags given on the command line win over the file, which wins over the
// preset.
func TestResolve_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "w.yaml")
	require.NoError(t, os.WriteFile(path, []byte("searchers: 7\nremovers: 3\n"), 0o600))

	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--preset", "scenario", "-c", path, "--removers", "1"}))

	opt := options{
		preset: cmd.Flag("preset").Value.String(),
		config: cmd.Flag("config").Value.String(),
	}
	fl := workload.Defaults()
	fl.Removers = 1

	cfg, err := resolve(cmd.Flags(), opt, fl)
	require.NoError(t, err)

	want := workload.Scenario()
	want.Searchers = 7
	want.Removers = 1
	require.Equal(t, want, cfg)
}

func TestResolve_Invalid(t *testing.T) {
	cmd := newRootCmd()
	_, err := resolve(cmd.Flags(), options{preset: "zipf"}, workload.Defaults())
	require.Error(t, err)

	require.NoError(t, cmd.ParseFlags([]string{"--policy", "fifo"}))
	fl := workload.Defaults()
	fl.Policy = "fifo"
	_, err = resolve(cmd.Flags(), options{}, fl)
	require.ErrorContains(t, err, "unknown policy")
}

func TestRootCmd_Scenario(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--preset", "scenario", "--log-level", "error", "--check-invariant"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	require.Contains(t, out.String(), "preset=scenario policy=strict inserters=20 searchers=40 removers=10")
	require.Contains(t, out.String(), "Len()=")
}

func TestRootCmd_BadLogLevel(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--preset", "scenario", "--log-level", "chatty"})
	require.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := pmet.New(reg, "searchlist", "bench", nil)
	l := searchlist.New[int](searchlist.Options[int]{Metrics: m})
	require.NoError(t, l.Insert(context.Background(), 42))

	srv := httptest.NewServer(newRouter(reg, l, zaptest.NewLogger(t)))
	defer srv.Close()
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(srv.URL + "/stats")
	require.NoError(t, err)
	var st searchlist.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	_ = resp.Body.Close()
	require.Equal(t, 1, st.Len)
	require.EqualValues(t, 1, st.Inserts)

	resp, err = client.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	var body bytes.Buffer
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Contains(t, body.String(), `searchlist_bench_admissions_total{role="insert"} 1`)
	require.Contains(t, body.String(), "searchlist_bench_size_items 1")

	resp, err = client.Get(srv.URL + "/debug/pprof/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
