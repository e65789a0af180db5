package loki

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"github.com/go-playground/validator/v10"
	"io"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

//thanks to https://github.com/paul-milne/zap-loki

type Logger interface {
	Error(msg string, args ...any)
}

type Config struct {
	// Url of the push endpoint, e.g. https://example-prod.grafana.net/loki/api/v1/push
	Url string `validate:"required,url"`

	// TenantKey and TenantValue form an optional tenant header.
	TenantKey   string
	TenantValue string `validate:"required_with=TenantKey"`

	// Username and Password enable basic auth when both are set.
	Username string
	Password string `validate:"required_with=Username"`

	BatchMaxSize int           `validate:"gte=1"`
	BatchMaxWait time.Duration `validate:"gte=1"`

	// QueueSize entries are buffered between Push and the sender, the rest is dropped.
	QueueSize int `validate:"gte=1"`

	// Labels are attached to every stream.
	Labels map[string]string
}

func (cfg *Config) setDefaults() {
	if cfg.BatchMaxSize == 0 {
		cfg.BatchMaxSize = 1000
	}
	if cfg.BatchMaxWait == 0 {
		cfg.BatchMaxWait = 5 * time.Second
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 4096
	}
	if cfg.Labels == nil {
		cfg.Labels = map[string]string{}
	}
}

// LogEntry is one line. Level and ErrorType become stream labels so that
// errors of one kind can be selected without parsing the line.
type LogEntry struct {
	Level     string    `json:"-"`
	ErrorType string    `json:"-"`
	Message   string    `json:"msg"`
	Caller    string    `json:"caller,omitempty"`
	Owner     string    `json:"owner,omitempty"`
	Time      time.Time `json:"-"`
}

type Pusher struct {
	config    *Config
	ctx       context.Context
	cancel    context.CancelFunc
	client    *http.Client
	quit      chan struct{}
	stopOnce  sync.Once
	entries   chan LogEntry
	dropped   atomic.Int64
	waitGroup sync.WaitGroup
	batch     []LogEntry
	logger    Logger
}

type pushRequest struct {
	Streams []stream `json:"streams"`
}

type stream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

func New(ctx context.Context, cfg Config, logger Logger) (*Pusher, error) {

	cfg.setDefaults()
	if err := validator.New().Struct(cfg); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Pusher{
		config:  &cfg,
		ctx:     ctx,
		cancel:  cancel,
		client:  &http.Client{Timeout: 10 * time.Second},
		quit:    make(chan struct{}),
		entries: make(chan LogEntry, cfg.QueueSize),
		batch:   make([]LogEntry, 0, cfg.BatchMaxSize),
		logger:  logger,
	}

	p.waitGroup.Add(1)
	go p.run()
	return p, nil
}

// Push queues the entry without blocking the caller.
func (p *Pusher) Push(e LogEntry) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	select {
	case p.entries <- e:
	default:
		p.dropped.Add(1)
	}
}

// Dropped returns how many entries were discarded because the queue was full.
func (p *Pusher) Dropped() int64 {
	return p.dropped.Load()
}

// Stop flushes pending entries and stops the pusher. Safe to call more than once.
func (p *Pusher) Stop() {
	p.stopOnce.Do(func() {
		close(p.quit)
		p.waitGroup.Wait()
		p.cancel()
	})
}

func (p *Pusher) run() {
	defer p.waitGroup.Done()

	ticker := time.NewTicker(p.config.BatchMaxWait)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			p.flush(true)
			return
		case <-p.quit:
			p.flush(true)
			return
		case entry := <-p.entries:
			p.batch = append(p.batch, entry)
			if len(p.batch) >= p.config.BatchMaxSize {
				p.flush(false)
			}
		case <-ticker.C:
			p.flush(false)
		}
	}
}

func (p *Pusher) flush(drain bool) {
	for drain {
		select {
		case entry := <-p.entries:
			p.batch = append(p.batch, entry)
		default:
			drain = false
		}
	}

	if len(p.batch) == 0 {
		return
	}
	if err := p.send(p.batch); err != nil {
		p.logger.Error("failed to send logs", "error", err, "lines", len(p.batch))
	}
	p.batch = p.batch[:0]
}

// streams groups entries by their label set, ordered by label key for stable output.
func (p *Pusher) streams(entries []LogEntry) []stream {

	grouped := make(map[string]*stream)
	var keys []string

	for _, entry := range entries {
		line, err := json.Marshal(entry)
		if err != nil {
			continue
		}

		key := entry.Level + "|" + entry.ErrorType
		s, ok := grouped[key]
		if !ok {
			s = &stream{Stream: p.labels(entry)}
			grouped[key] = s
			keys = append(keys, key)
		}
		s.Values = append(s.Values, [2]string{strconv.FormatInt(entry.Time.UnixNano(), 10), string(line)})
	}

	sort.Strings(keys)
	result := make([]stream, 0, len(keys))
	for _, key := range keys {
		result = append(result, *grouped[key])
	}
	return result
}

func (p *Pusher) labels(entry LogEntry) map[string]string {
	labels := make(map[string]string, len(p.config.Labels)+2)
	for k, v := range p.config.Labels {
		labels[k] = v
	}
	if entry.Level != "" {
		labels["level"] = entry.Level
	}
	if entry.ErrorType != "" {
		labels["error_type"] = entry.ErrorType
	}
	return labels
}

func (p *Pusher) send(entries []LogEntry) error {
	buf := &bytes.Buffer{}
	gz := gzip.NewWriter(buf)

	if err := json.NewEncoder(gz).Encode(pushRequest{Streams: p.streams(entries)}); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}

	// the run context may already be cancelled during the final flush
	ctx, cancel := context.WithTimeout(context.WithoutCancel(p.ctx), p.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.Url, buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	if p.config.TenantKey != "" {
		req.Header.Set(p.config.TenantKey, p.config.TenantValue)
	}
	if p.config.Username != "" {
		req.SetBasicAuth(p.config.Username, p.config.Password)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected response code from Loki: %s, body: %s", resp.Status, string(body))
	}
	return nil
}
