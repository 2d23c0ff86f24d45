// Package trivia fetches and normalizes questions from an Open Trivia DB
// compatible question bank.
package trivia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/ashureev/quizzical/internal/config"
	"github.com/ashureev/quizzical/internal/domain"
	"golang.org/x/time/rate"
)

// Open Trivia DB response codes.
const (
	responseCodeSuccess   = 0
	responseCodeRateLimit = 5
)

// maxBodyBytes caps how much of an upstream body is read.
const maxBodyBytes = 1 << 20

// Multiple-choice records carry one correct and three incorrect answers.
const incorrectAnswerCount = 3

// Source provides a fresh batch of normalized questions.
type Source interface {
	Fetch(ctx context.Context) ([]domain.Question, error)
}

// Record is one raw question as returned by the question bank.
type Record struct {
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

type apiResponse struct {
	ResponseCode *int      `json:"response_code"`
	Results      *[]Record `json:"results"`
}

// Client fetches questions over HTTP.
type Client struct {
	httpClient *http.Client
	endpoint   string
	params     url.Values
	limiter    *rate.Limiter
	logger     *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Ensure Client implements Source.
var _ Source = (*Client)(nil)

// NewClient creates a question bank client from configuration.
func NewClient(cfg config.QuestionBankConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	params := url.Values{}
	params.Set("amount", strconv.Itoa(cfg.Amount))
	if cfg.Category > 0 {
		params.Set("category", strconv.Itoa(cfg.Category))
	}
	if cfg.Type != "" {
		params.Set("type", cfg.Type)
	}

	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}

	seed := uint64(time.Now().UnixNano())
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   cfg.URL,
		params:     params,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
		rng:        rand.New(rand.NewPCG(seed, seed>>1)),
	}
}

// Fetch requests one batch of questions and normalizes it.
func (c *Client) Fetch(ctx context.Context) ([]domain.Question, error) {
	records, err := c.FetchRecords(ctx)
	if err != nil {
		return nil, err
	}

	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return Normalize(records, c.rng), nil
}

// FetchRecords requests one batch of raw records.
func (c *Client) FetchRecords(ctx context.Context) ([]Record, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for question bank rate limit: %w", err)
	}

	reqURL := c.endpoint + "?" + c.params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build question bank request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &NetworkError{Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close question bank body", "error", closeErr)
		}
	}()

	c.logger.Debug("Question bank responded",
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &NetworkError{StatusCode: resp.StatusCode, Err: err}
	}

	return decodeRecords(body)
}

func decodeRecords(body []byte) ([]Record, error) {
	var payload apiResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &ParseError{Reason: "invalid JSON", Err: err}
	}

	if payload.ResponseCode != nil && *payload.ResponseCode != responseCodeSuccess {
		if *payload.ResponseCode == responseCodeRateLimit {
			return nil, &NetworkError{
				StatusCode: http.StatusTooManyRequests,
				Err:        errors.New("question bank rate limit exceeded"),
			}
		}
		return nil, &ParseError{Reason: fmt.Sprintf("response_code %d", *payload.ResponseCode)}
	}

	if payload.Results == nil {
		return nil, &ParseError{Reason: "missing results"}
	}
	records := *payload.Results
	if len(records) == 0 {
		return nil, &ParseError{Reason: "empty results"}
	}

	for i, r := range records {
		if err := r.validate(); err != nil {
			return nil, &ParseError{Reason: fmt.Sprintf("result %d", i), Err: err}
		}
	}
	return records, nil
}

func (r Record) validate() error {
	if r.Question == "" {
		return errors.New("question is empty")
	}
	if r.CorrectAnswer == "" {
		return errors.New("correct_answer is empty")
	}
	if len(r.IncorrectAnswers) != incorrectAnswerCount {
		return fmt.Errorf("incorrect_answers has %d entries, want %d", len(r.IncorrectAnswers), incorrectAnswerCount)
	}
	return nil
}
