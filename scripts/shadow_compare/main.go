// Command shadow_compare replays a fixed set of admissions endpoints
// against both this API and the legacy backend during cutover and
// reports status and body differences. Run it with the legacy service
// and the Go service pointed at the same database snapshot.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"reflect"
	"strings"
	"time"
)

type target struct {
	Name     string          `json:"name"`
	Method   string          `json:"method"`
	Path     string          `json:"path"`
	Body     json.RawMessage `json:"body,omitempty"`
	Auth     bool            `json:"auth,omitempty"`
	Critical bool            `json:"critical"`
}

// defaultTargets covers the public admissions surface plus the
// authenticated console reads. Used when no targets file is given.
var defaultTargets = []target{
	{Name: "health", Method: http.MethodGet, Path: "/health", Critical: true},
	{Name: "departments", Method: http.MethodGet, Path: "/api/departments", Critical: true},
	{Name: "status lookup unknown id", Method: http.MethodPost, Path: "/api/students/status",
		Body: json.RawMessage(`{"studentId":"STU00000000"}`), Critical: true},
	{Name: "verify-token unauthenticated", Method: http.MethodGet, Path: "/api/admin/verify-token", Critical: true},
	{Name: "roster", Method: http.MethodGet, Path: "/api/students", Auth: true, Critical: true},
	{Name: "pending verification", Method: http.MethodGet,
		Path: "/api/students/department/computer_science/pending-verification", Auth: true},
	{Name: "department stats", Method: http.MethodGet, Path: "/api/admin/department-stats/all", Auth: true},
}

// volatileKeys are stripped from both bodies before comparison; the
// two backends legitimately disagree on them.
var volatileKeys = map[string]struct{}{
	"generatedAt": {},
	"createdAt":   {},
	"updatedAt":   {},
	"token":       {},
	"expiresIn":   {},
}

type result struct {
	Target         target
	LegacyStatus   int
	GoStatus       int
	StatusMatch    bool
	BodyMatch      bool
	Err            error
	DurationGo     time.Duration
	DurationLegacy time.Duration
}

func main() {
	var (
		goBase      string
		legacyBase  string
		targetsPath string
		token       string
		timeout     time.Duration
	)

	flag.StringVar(&goBase, "go-base", "http://localhost:8080", "Go admissions API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:5000", "legacy backend base URL")
	flag.StringVar(&targetsPath, "targets", "", "optional JSON targets file; built-in admissions set when empty")
	flag.StringVar(&token, "token", "", "admin bearer token, shared by both backends for auth targets")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "per-request timeout")
	flag.Parse()

	targets := defaultTargets
	if targetsPath != "" {
		loaded, err := loadTargets(targetsPath)
		if err != nil {
			log.Fatalf("failed to load targets: %v", err)
		}
		targets = loaded
	}

	client := &http.Client{Timeout: timeout}
	var (
		results      []result
		breaking     int
		optionalDiff int
	)

	for _, tgt := range targets {
		if tgt.Auth && token == "" {
			log.Printf("skipping %q: needs -token", tgt.Name)
			continue
		}
		res := compare(client, goBase, legacyBase, token, tgt)
		switch {
		case res.Err != nil && tgt.Critical:
			breaking++
		case res.Err == nil && (!res.StatusMatch || !res.BodyMatch):
			if tgt.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		results = append(results, res)
	}

	report(results)
	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg struct {
		Targets []target `json:"targets"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func compare(client *http.Client, goBase, legacyBase, token string, tgt target) result {
	res := result{Target: tgt}

	goStatus, goBody, goDur, err := call(client, goBase, token, tgt)
	res.DurationGo = goDur
	if err != nil {
		res.Err = fmt.Errorf("go request: %w", err)
		return res
	}
	legacyStatus, legacyBody, legacyDur, err := call(client, legacyBase, token, tgt)
	res.DurationLegacy = legacyDur
	if err != nil {
		res.Err = fmt.Errorf("legacy request: %w", err)
		return res
	}

	res.GoStatus = goStatus
	res.LegacyStatus = legacyStatus
	res.StatusMatch = goStatus == legacyStatus
	res.BodyMatch = bodiesEqual(goBody, legacyBody)
	return res
}

func call(client *http.Client, base, token string, tgt target) (int, []byte, time.Duration, error) {
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var body io.Reader
	if len(tgt.Body) > 0 {
		body = bytes.NewReader(tgt.Body)
	}
	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, body)
	if err != nil {
		return 0, nil, 0, err
	}
	if len(tgt.Body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if tgt.Auth {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, 0, err
	}
	return resp.StatusCode, data, time.Since(start), nil
}

// bodiesEqual compares responses as JSON where possible, ignoring key
// order, volatile keys and int/float representation differences.
func bodiesEqual(a, b []byte) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	normalize(&aj)
	normalize(&bj)
	return reflect.DeepEqual(aj, bj)
}

func normalize(v *interface{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for k, v2 := range val {
			if _, volatile := volatileKeys[k]; volatile {
				delete(val, k)
				continue
			}
			normalize(&v2)
			val[k] = v2
		}
	case []interface{}:
		for i, v2 := range val {
			normalize(&v2)
			val[i] = v2
		}
	case float64:
		if val == float64(int64(val)) {
			*v = int64(val)
		}
	}
}

func report(results []result) {
	fmt.Println("Admissions Cutover Shadow Report")
	fmt.Println("================================")
	for _, res := range results {
		status := "OK"
		if res.Err != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.BodyMatch {
			status = "DIFF"
		}
		fmt.Printf("[%s] %s: %s %s\n", status, res.Target.Name, res.Target.Method, res.Target.Path)
		if res.Err != nil {
			fmt.Printf("  Error: %v\n", res.Err)
			continue
		}
		fmt.Printf("  Go: %d (%s) | Legacy: %d (%s)\n", res.GoStatus, res.DurationGo, res.LegacyStatus, res.DurationLegacy)
		fmt.Printf("  Status match: %t | Body match: %t | Critical: %t\n", res.StatusMatch, res.BodyMatch, res.Target.Critical)
	}
}
