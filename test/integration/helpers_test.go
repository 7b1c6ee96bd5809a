package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/lemonberrylabs/dicebot/pkg/api"
	grpcapi "github.com/lemonberrylabs/dicebot/pkg/api/grpc"
	"github.com/lemonberrylabs/dicebot/pkg/command"
	"github.com/lemonberrylabs/dicebot/pkg/dice"
	"github.com/lemonberrylabs/dicebot/pkg/logging"
	"github.com/lemonberrylabs/dicebot/pkg/store"
	"github.com/lemonberrylabs/dicebot/web"
)

// testEnv points at a running dicebot: an external one named by
// DICEBOT_URL and DICEBOT_GRPC_ADDR, or an in-process one.
type testEnv struct {
	baseURL  string
	grpcAddr string
}

func startServer(t *testing.T) testEnv {
	t.Helper()
	if url := os.Getenv("DICEBOT_URL"); url != "" {
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			url = "http://" + url
		}
		return testEnv{baseURL: strings.TrimRight(url, "/"), grpcAddr: os.Getenv("DICEBOT_GRPC_ADDR")}
	}

	reports := store.New(store.DefaultCapacity)
	svc := command.New(dice.NewSeededSource(1), command.WithStore(reports))
	log := logging.Discard()

	server := api.New(svc, reports, log)
	web.New(svc, reports).Register(server.App())
	httpLis, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	go server.App().Listener(httpLis)
	t.Cleanup(func() { server.Shutdown() })

	grpcServer := grpcapi.New(svc, log)
	grpcLis, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	go grpcServer.ServeListener(grpcLis)
	t.Cleanup(grpcServer.Stop)

	return testEnv{
		baseURL:  "http://" + httpLis.Addr().String(),
		grpcAddr: grpcLis.Addr().String(),
	}
}

// postJSON sends body to path and decodes the JSON response.
func (e testEnv) postJSON(t *testing.T, path string, body map[string]any) (int, map[string]any) {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := http.Post(e.baseURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return decode(t, resp)
}

func (e testEnv) getJSON(t *testing.T, path string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(e.baseURL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return decode(t, resp)
}

func (e testEnv) grpcClient(t *testing.T) *grpcapi.Client {
	t.Helper()
	if e.grpcAddr == "" {
		t.Skip("DICEBOT_GRPC_ADDR not set for external server")
	}
	conn, err := grpc.NewClient(e.grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return grpcapi.NewClient(conn)
}

func decode(t *testing.T, resp *http.Response) (int, map[string]any) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var out map[string]any
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("decode %s: %v", data, err)
		}
	}
	return resp.StatusCode, out
}
