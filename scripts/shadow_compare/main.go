// Command shadow_compare replays read endpoints against the legacy back
// office and this API and reports response drift during the migration.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"
)

type endpoint struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type targetsFile struct {
	Targets []endpoint `json:"targets"`
}

type result struct {
	Endpoint      endpoint
	LegacyStatus  int
	NewStatus     int
	StatusMatch   bool
	BodyMatch     bool
	Err           error
	NewLatency    time.Duration
	LegacyLatency time.Duration
}

// volatileFields never match across deployments and are stripped before
// comparing payloads.
var volatileFields = map[string]bool{
	"updated_at":  true,
	"created_at":  true,
	"resolved_at": true,
	"started_at":  true,
	"finished_at": true,
	"expires_at":  true,
	"at":          true,
	"token":       true,
	"request_id":  true,
}

func main() {
	var (
		newBase     string
		legacyBase  string
		token       string
		targetsPath string
		timeout     time.Duration
	)
	flag.StringVar(&newBase, "new-base", "http://localhost:8080", "new API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:3000", "legacy back office base URL")
	flag.StringVar(&token, "token", os.Getenv("SHADOW_COMPARE_TOKEN"), "bearer token for authenticated routes")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "shadow_compare", "targets.json"), "targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "per-request timeout")
	flag.Parse()

	endpoints, err := loadEndpoints(targetsPath)
	if err != nil {
		log.Fatalf("load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	breaking := 0
	for _, ep := range endpoints {
		res := compare(client, newBase, legacyBase, token, ep)
		report(res)
		if ep.Critical && (res.Err != nil || !res.StatusMatch || !res.BodyMatch) {
			breaking++
		}
	}

	fmt.Printf("breaking diffs: %d\n", breaking)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadEndpoints(path string) ([]endpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file targetsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("no targets in %s", path)
	}
	return file.Targets, nil
}

func compare(client *http.Client, newBase, legacyBase, token string, ep endpoint) result {
	res := result{Endpoint: ep}

	newStatus, newBody, newLatency, err := fetch(client, newBase, token, ep)
	if err != nil {
		res.Err = fmt.Errorf("new api: %w", err)
		return res
	}
	legacyStatus, legacyBody, legacyLatency, err := fetch(client, legacyBase, token, ep)
	if err != nil {
		res.Err = fmt.Errorf("legacy: %w", err)
		return res
	}

	res.NewStatus, res.LegacyStatus = newStatus, legacyStatus
	res.NewLatency, res.LegacyLatency = newLatency, legacyLatency
	res.StatusMatch = newStatus == legacyStatus
	res.BodyMatch = payloadsEqual(newBody, legacyBody)
	return res
}

func fetch(client *http.Client, base, token string, ep endpoint) (int, []byte, time.Duration, error) {
	method := strings.ToUpper(strings.TrimSpace(ep.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := ep.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return 0, nil, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, 0, err
	}
	return resp.StatusCode, body, time.Since(start), nil
}

// payloadsEqual compares the data portion of the response envelopes after
// stripping volatile fields and collapsing 5 vs 5.0 numeric encodings.
func payloadsEqual(a, b []byte) bool {
	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	aj = dataOf(aj)
	bj = dataOf(bj)
	normalize(&aj)
	normalize(&bj)
	return reflect.DeepEqual(aj, bj)
}

func dataOf(v interface{}) interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		if data, ok := m["data"]; ok {
			return data
		}
	}
	return v
}

func normalize(v *interface{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for k := range val {
			if volatileFields[k] {
				delete(val, k)
			}
		}
		for k, child := range val {
			normalize(&child)
			val[k] = child
		}
	case []interface{}:
		for i, child := range val {
			normalize(&child)
			val[i] = child
		}
	case float64:
		if val == float64(int64(val)) {
			*v = int64(val)
		}
	}
}

func report(res result) {
	status := "OK"
	switch {
	case res.Err != nil:
		status = "ERROR"
	case !res.StatusMatch || !res.BodyMatch:
		status = "DIFF"
	}
	fmt.Printf("[%s] %s %s\n", status, res.Endpoint.Method, res.Endpoint.Path)
	if res.Err != nil {
		fmt.Printf("  error: %v\n", res.Err)
		return
	}
	fmt.Printf("  new: %d (%s) legacy: %d (%s) status=%t body=%t critical=%t\n",
		res.NewStatus, res.NewLatency, res.LegacyStatus, res.LegacyLatency,
		res.StatusMatch, res.BodyMatch, res.Endpoint.Critical)
}
