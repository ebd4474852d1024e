// Command shadow_compare replays opening hours resolutions against both this
// API and the legacy API it replaces, and reports response differences.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"
)

type target struct {
	Resource  string `json:"resource"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Critical  bool   `json:"critical"`
}

type config struct {
	Targets []target `json:"targets"`
}

type comparison struct {
	Target         target
	LegacyStatus   int
	GoStatus       int
	StatusMatch    bool
	BodyMatch      bool
	Error          error
	DurationGo     time.Duration
	DurationLegacy time.Duration
}

func main() {
	var (
		goBase      string
		legacyBase  string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&goBase, "go-base", "http://localhost:8080/api/v1", "Go API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:8000/v1", "Legacy API base URL")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "shadow_compare", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		comparisons  []comparison
		breaking     int
		optionalDiff int
	)

	for _, t := range targets {
		comp := compareTarget(client, goBase, legacyBase, t)
		if comp.Error != nil || !comp.StatusMatch || !comp.BodyMatch {
			if t.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		comparisons = append(comparisons, comp)
	}

	printReport(comparisons)

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
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func compareTarget(client *http.Client, goBase, legacyBase string, tgt target) comparison {
	comp := comparison{Target: tgt}

	goPath := fmt.Sprintf("/resources/%s/opening-hours?%s", url.PathEscape(tgt.Resource), rangeQuery(tgt))
	legacyPath := fmt.Sprintf("/resource/%s/opening_hours/?%s", url.PathEscape(tgt.Resource), rangeQuery(tgt))

	goResp, goDur, goErr := performRequest(client, goBase, goPath)
	legacyResp, legacyDur, legacyErr := performRequest(client, legacyBase, legacyPath)
	comp.DurationGo = goDur
	comp.DurationLegacy = legacyDur

	if goErr != nil {
		comp.Error = fmt.Errorf("go request failed: %w", goErr)
		return comp
	}
	if legacyErr != nil {
		comp.Error = fmt.Errorf("legacy request failed: %w", legacyErr)
		return comp
	}

	comp.GoStatus = goResp.StatusCode
	comp.LegacyStatus = legacyResp.StatusCode
	comp.StatusMatch = comp.GoStatus == comp.LegacyStatus

	defer goResp.Body.Close()
	defer legacyResp.Body.Close()

	goBody, err := io.ReadAll(goResp.Body)
	if err != nil {
		comp.Error = fmt.Errorf("read go body: %w", err)
		return comp
	}
	legacyBody, err := io.ReadAll(legacyResp.Body)
	if err != nil {
		comp.Error = fmt.Errorf("read legacy body: %w", err)
		return comp
	}

	comp.BodyMatch = bodiesEqual(goBody, legacyBody)

	return comp
}

func rangeQuery(tgt target) string {
	values := url.Values{}
	values.Set("start_date", tgt.StartDate)
	end := tgt.EndDate
	if end == "" {
		end = tgt.StartDate
	}
	values.Set("end_date", end)
	return values.Encode()
}

func performRequest(client *http.Client, base, path string) (*http.Response, time.Duration, error) {
	req, err := http.NewRequest(http.MethodGet, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return nil, 0, err
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	return resp, time.Since(start), nil
}

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

// normalize sorts element lists so ordering differences between the two APIs
// do not register as diffs. Elements within one date carry no semantic order
// beyond the full-day-first convention, which the legacy API does not share.
func normalize(v *interface{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for k, v2 := range val {
			normalize(&v2)
			val[k] = v2
		}
		if elements, ok := val["elements"].([]interface{}); ok {
			sortElements(elements)
		}
	case []interface{}:
		for i, v2 := range val {
			normalize(&v2)
			val[i] = v2
		}
	}
}

func sortElements(elements []interface{}) {
	sort.SliceStable(elements, func(i, j int) bool {
		return elementKey(elements[i]) < elementKey(elements[j])
	})
}

func elementKey(v interface{}) string {
	m, ok := v.(map[string]interface{})
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	return fmt.Sprintf("%v|%v|%v", m["start_time"], m["end_time"], m["resource_state"])
}

func printReport(comparisons []comparison) {
	for _, comp := range comparisons {
		label := fmt.Sprintf("%s %s..%s", comp.Target.Resource, comp.Target.StartDate, comp.Target.EndDate)
		switch {
		case comp.Error != nil:
			fmt.Printf("ERROR  %-50s %v\n", label, comp.Error)
		case !comp.StatusMatch:
			fmt.Printf("STATUS %-50s go=%d legacy=%d\n", label, comp.GoStatus, comp.LegacyStatus)
		case !comp.BodyMatch:
			fmt.Printf("BODY   %-50s go=%s legacy=%s\n", label, comp.DurationGo, comp.DurationLegacy)
		default:
			fmt.Printf("OK     %-50s go=%s legacy=%s\n", label, comp.DurationGo, comp.DurationLegacy)
		}
	}
}
