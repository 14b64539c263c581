package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/realitycheck/internal/model"
)

// Checker runs one topic/country check
type Checker interface {
	Check(ctx context.Context, topic, country string) (*model.Report, error)
}

// Query is one line of a batch file
type Query struct {
	Topic   string `json:"topic"`
	Country string `json:"country"`
}

func (q Query) String() string {
	return q.Topic + " | " + q.Country
}

// CheckJob checks a single query
type CheckJob struct {
	Index   int
	Query   Query
	Checker Checker
}

// Execute executes the check job
func (j *CheckJob) Execute(ctx context.Context) Result {
	report, err := j.Checker.Check(ctx, j.Query.Topic, j.Query.Country)
	return &CheckResult{
		Index:  j.Index,
		Query:  j.Query,
		Report: report,
		Error:  err,
	}
}

// CheckResult is the outcome of one batch check
type CheckResult struct {
	Index  int
	Query  Query
	Report *model.Report
	Error  error
}

// GetError returns the error from the check
func (r *CheckResult) GetError() error {
	return r.Error
}

// BatchProcessor checks many queries concurrently
type BatchProcessor struct {
	checker     Checker
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(checker Checker, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
	}
}

// ProcessQueries checks every query and returns results in input order.
// Queries not reached before ctx ends are reported with ctx's error.
func (b *BatchProcessor) ProcessQueries(ctx context.Context, queries []Query) []*CheckResult {
	if len(queries) == 0 {
		return []*CheckResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	// Feed from a goroutine so a full result buffer cannot stall submission
	go func() {
		defer pool.Close()
		for i, q := range queries {
			if !pool.Submit(&CheckJob{Index: i, Query: q, Checker: b.checker}) {
				return
			}
		}
	}()

	results := make([]*CheckResult, len(queries))
	for r := range pool.Results() {
		cr := r.(*CheckResult)
		results[cr.Index] = cr
	}

	for i, r := range results {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("check not run")
			}
			results[i] = &CheckResult{Index: i, Query: queries[i], Error: err}
		}
	}

	return results
}

// ProcessFile reads queries from a file and checks them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*CheckResult, error) {
	queries, err := ReadQueriesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}

	return b.ProcessQueries(ctx, queries), nil
}

// ReadQueriesFromFile reads `topic | country` lines from a file
func ReadQueriesFromFile(filePath string) ([]Query, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadQueries(file)
}

// ReadQueries parses `topic | country` lines. Blank lines and lines
// starting with # are skipped; duplicates (case-insensitive) are dropped.
func ReadQueries(r io.Reader) ([]Query, error) {
	var queries []Query
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		q, err := ParseQuery(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		key := strings.ToLower(q.String())
		if !seen[key] {
			seen[key] = true
			queries = append(queries, q)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return queries, nil
}

// ParseQuery splits a `topic | country` line on its last pipe
func ParseQuery(line string) (Query, error) {
	idx := strings.LastIndex(line, "|")
	if idx < 0 {
		return Query{}, fmt.Errorf("expected \"topic | country\", got %q", line)
	}

	q := Query{
		Topic:   strings.TrimSpace(line[:idx]),
		Country: strings.TrimSpace(line[idx+1:]),
	}
	if q.Topic == "" || q.Country == "" {
		return Query{}, fmt.Errorf("topic and country must both be set in %q", line)
	}
	return q, nil
}
