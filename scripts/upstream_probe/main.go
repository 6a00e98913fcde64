// Command upstream_probe exercises the legacy expedientes API endpoints the
// gateway depends on and reports status, latency and which envelope shape
// each one answers with. Useful before pointing a gateway at a new
// environment.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"
)

type probe struct {
	Name   string
	Method string
	Path   string
	Query  url.Values
}

type result struct {
	Probe    probe
	Status   int
	Shape    string
	Rows     int
	Duration time.Duration
	Err      error
}

func main() {
	var (
		base    string
		token   string
		code    string
		timeout time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:3000", "Legacy API base URL")
	flag.StringVar(&token, "token", "", "Bearer token forwarded on every request")
	flag.StringVar(&code, "code", "", "Case code for the evidence probe (skipped when empty)")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	listQuery := url.Values{}
	listQuery.Set("page", "1")
	listQuery.Set("pageSize", "50")

	probes := []probe{
		{Name: "list cases", Method: http.MethodGet, Path: "/Expedientes", Query: listQuery},
	}
	if code != "" {
		evidenceQuery := url.Values{}
		evidenceQuery.Set("q", "")
		evidenceQuery.Set("page", "1")
		evidenceQuery.Set("pageSize", "50")
		probes = append(probes, probe{
			Name:   "list evidence",
			Method: http.MethodGet,
			Path:   "/Expedientes/" + url.PathEscape(code) + "/Indicios",
			Query:  evidenceQuery,
		})
	}

	client := &http.Client{Timeout: timeout}
	failures := 0
	for _, p := range probes {
		res := run(client, base, token, p)
		report(res)
		if res.Err != nil || res.Status < 200 || res.Status >= 300 {
			failures++
		}
	}

	if failures > 0 {
		os.Exit(1)
	}
}

func run(client *http.Client, base, token string, p probe) result {
	target := base + p.Path
	if len(p.Query) > 0 {
		target += "?" + p.Query.Encode()
	}

	req, err := http.NewRequest(p.Method, target, nil)
	if err != nil {
		return result{Probe: p, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)
	if err != nil {
		return result{Probe: p, Duration: duration, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return result{Probe: p, Status: resp.StatusCode, Duration: duration, Err: err}
	}

	shape, rows := classify(body)
	return result{Probe: p, Status: resp.StatusCode, Shape: shape, Rows: rows, Duration: duration}
}

// classify mirrors the gateway's envelope normalization priority: a bare
// array wins, then a data field, then rows.
func classify(body []byte) (string, int) {
	var list []json.RawMessage
	if err := json.Unmarshal(body, &list); err == nil {
		return "array", len(list)
	}

	var wrapped struct {
		Data []json.RawMessage `json:"data"`
		Rows []json.RawMessage `json:"rows"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return "unrecognized", 0
	}
	if wrapped.Data != nil {
		return "data", len(wrapped.Data)
	}
	if wrapped.Rows != nil {
		return "rows", len(wrapped.Rows)
	}
	return "unrecognized", 0
}

func report(res result) {
	if res.Err != nil {
		log.Printf("FAIL %-14s %s %s: %v", res.Probe.Name, res.Probe.Method, res.Probe.Path, res.Err)
		return
	}
	fmt.Printf("%-14s %s %s -> %d shape=%s rows=%d in %s\n",
		res.Probe.Name, res.Probe.Method, res.Probe.Path, res.Status, res.Shape, res.Rows, res.Duration.Round(time.Millisecond))
}
