// Package answer composes retrieval, prompt construction and model
// dispatch into question answering, plus a fan-out variant that runs the
// same grounded prompt against several backends for comparison.
package answer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"edurag/internal/domain"
	"edurag/internal/prompt"
)

// Defaults applied when an option is left unset on a request.
type Defaults struct {
	TopK      int
	Mode      domain.Mode
	BackendID string
	Backends  []string
	Generate  domain.GenerateOptions
}

// Options select retrieval and generation parameters for one question.
// Zero values fall back to the orchestrator defaults.
type Options struct {
	TopK      int
	Mode      domain.Mode
	BackendID string
	Generate  domain.GenerateOptions
}

// Orchestrator answers questions over the indexed corpus.
type Orchestrator struct {
	retriever domain.Retriever
	gateway   domain.ModelGateway
	defaults  Defaults
}

// New creates an orchestrator with the given collaborators and defaults.
func New(retriever domain.Retriever, gateway domain.ModelGateway, defaults Defaults) *Orchestrator {
	if defaults.TopK <= 0 {
		defaults.TopK = 4
	}
	if defaults.Generate.MaxTokens <= 0 {
		defaults.Generate.MaxTokens = 500
	}
	if defaults.Generate.Temperature == 0 {
		defaults.Generate.Temperature = 0.7
	}
	return &Orchestrator{retriever: retriever, gateway: gateway, defaults: defaults}
}

// Answer retrieves context for the question and generates an answer on a
// single backend. Zero retrieved chunks yields ErrNoContext. A gateway
// failure is returned as a GenerationError together with the chunks that
// were retrieved, so callers can still inspect them.
func (o *Orchestrator) Answer(ctx context.Context, question string, opts Options) (domain.Answer, error) {
	topK, mode, backendID, gen := o.resolve(opts)

	chunks, err := o.retriever.Query(ctx, question, topK, mode)
	if err != nil {
		return domain.Answer{}, err
	}
	if len(chunks) == 0 {
		return domain.Answer{}, fmt.Errorf("%w for question %q", domain.ErrNoContext, question)
	}

	p := prompt.Build(question, chunks)
	start := time.Now()
	text, err := o.gateway.Generate(ctx, backendID, p, gen)
	latency := time.Since(start)
	if err != nil {
		return domain.Answer{BackendID: backendID, UsedChunks: chunks, Latency: latency}, err
	}

	return domain.Answer{
		Text:          text,
		BackendID:     backendID,
		TokenEstimate: estimateTokens(text),
		UsedChunks:    chunks,
		Latency:       latency,
	}, nil
}

// CompareAll answers the question once per backend, concurrently, over a
// single shared retrieval context so the comparison is fair. Backend
// failures are isolated: the result always holds one entry per requested
// backend, each tagged with its outcome.
func (o *Orchestrator) CompareAll(ctx context.Context, question string, opts Options, backendIDs []string) (domain.Comparison, error) {
	topK, mode, _, gen := o.resolve(opts)
	if len(backendIDs) == 0 {
		backendIDs = o.defaultBackends()
	}

	chunks, err := o.retriever.Query(ctx, question, topK, mode)
	if err != nil {
		return domain.Comparison{}, err
	}
	if len(chunks) == 0 {
		return domain.Comparison{}, fmt.Errorf("%w for question %q", domain.ErrNoContext, question)
	}
	p := prompt.Build(question, chunks)

	results := make([]domain.ModelResult, len(backendIDs))
	var wg sync.WaitGroup
	for i, id := range backendIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			results[i] = o.invoke(ctx, id, p, gen)
		}(i, id)
	}
	wg.Wait()

	perBackend := make(map[string]domain.ModelResult, len(results))
	for _, r := range results {
		perBackend[r.BackendID] = r
	}
	return domain.Comparison{
		PerBackend: perBackend,
		UsedChunks: chunks,
		Aggregate:  aggregate(results),
	}, nil
}

// Summarize asks the default backend for a high-level summary of the
// knowledge base, reusing the retrieval and prompt machinery with a
// fixed pseudo-query.
func (o *Orchestrator) Summarize(ctx context.Context, maxChunks int) (domain.Answer, error) {
	if maxChunks <= 0 {
		maxChunks = 20
	}
	const pseudoQuery = "Give a high-level summary of the key ideas in this knowledge base."
	chunks, err := o.retriever.Query(ctx, pseudoQuery, maxChunks, domain.ModeSemantic)
	if err != nil {
		return domain.Answer{}, err
	}
	if len(chunks) == 0 {
		return domain.Answer{}, fmt.Errorf("%w: knowledge base is empty", domain.ErrNoContext)
	}

	_, _, backendID, gen := o.resolve(Options{})
	p := prompt.Build("Summarize the above context.", chunks)
	start := time.Now()
	text, err := o.gateway.Generate(ctx, backendID, p, gen)
	latency := time.Since(start)
	if err != nil {
		return domain.Answer{BackendID: backendID, UsedChunks: chunks, Latency: latency}, err
	}
	return domain.Answer{
		Text:          text,
		BackendID:     backendID,
		TokenEstimate: estimateTokens(text),
		UsedChunks:    chunks,
		Latency:       latency,
	}, nil
}

// QuizOptions configure quiz generation. Zero values fall back to a
// five-question medium quiz on the default backend over the whole
// knowledge base.
type QuizOptions struct {
	Topic        string
	NumQuestions int
	Difficulty   string
	BackendID    string
}

// GenerateQuiz retrieves content for the topic (or a generic probe when
// no topic is given), asks a backend for multiple-choice questions in a
// fixed JSON shape, and parses the reply. Malformed model output is a
// GenerationError, since the backend broke the contract, not the caller.
func (o *Orchestrator) GenerateQuiz(ctx context.Context, opts QuizOptions) (domain.Quiz, error) {
	n := opts.NumQuestions
	if n == 0 {
		n = 5
	}
	if n < 3 {
		n = 3
	}
	if n > 10 {
		n = 10
	}
	difficulty := opts.Difficulty
	if difficulty == "" {
		difficulty = "medium"
	}
	topic := strings.TrimSpace(opts.Topic)
	query := topic
	if query == "" {
		query = "key concepts important information"
		topic = "General"
	}
	_, _, backendID, _ := o.resolve(Options{BackendID: opts.BackendID})

	topK := n * 2
	if topK > 8 {
		topK = 8
	}
	chunks, err := o.retriever.Query(ctx, query, topK, domain.ModeSemantic)
	if err != nil {
		return domain.Quiz{}, err
	}
	if len(chunks) == 0 {
		return domain.Quiz{}, fmt.Errorf("%w for quiz topic %q", domain.ErrNoContext, topic)
	}

	p := prompt.Quiz(n, chunks)
	start := time.Now()
	text, err := o.gateway.Generate(ctx, backendID, p, domain.GenerateOptions{MaxTokens: 1000, Temperature: 0.6})
	latency := time.Since(start)
	if err != nil {
		return domain.Quiz{Topic: topic, BackendID: backendID, Latency: latency}, err
	}

	questions, err := parseQuizReply(text)
	if err != nil {
		genErr := &domain.GenerationError{Backend: backendID, Reason: "malformed quiz reply: " + err.Error()}
		return domain.Quiz{Topic: topic, BackendID: backendID, Latency: latency}, genErr
	}
	for i := range questions {
		questions[i].Difficulty = difficulty
	}
	return domain.Quiz{
		Topic:     topic,
		Questions: questions,
		BackendID: backendID,
		Latency:   latency,
	}, nil
}

// parseQuizReply extracts the questions array from a model reply.
// Replies often wrap the JSON in code fences or surrounding prose, so
// the outermost object is carved out before decoding.
func parseQuizReply(text string) ([]domain.QuizQuestion, error) {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first < 0 || last <= first {
		return nil, errors.New("no JSON object in reply")
	}
	var payload struct {
		Questions []domain.QuizQuestion `json:"questions"`
	}
	if err := json.Unmarshal([]byte(text[first:last+1]), &payload); err != nil {
		return nil, err
	}
	if len(payload.Questions) == 0 {
		return nil, errors.New("reply contains no questions")
	}
	return payload.Questions, nil
}

func (o *Orchestrator) invoke(ctx context.Context, backendID, p string, gen domain.GenerateOptions) domain.ModelResult {
	start := time.Now()
	text, err := o.gateway.Generate(ctx, backendID, p, gen)
	result := domain.ModelResult{
		BackendID: backendID,
		Latency:   time.Since(start),
	}
	if err != nil {
		result.Err = err
		return result
	}
	result.Text = text
	result.TokenEstimate = estimateTokens(text)
	return result
}

func (o *Orchestrator) resolve(opts Options) (topK int, mode domain.Mode, backendID string, gen domain.GenerateOptions) {
	topK = opts.TopK
	if topK <= 0 {
		topK = o.defaults.TopK
	}
	mode = opts.Mode
	if mode == domain.ModeUnspecified {
		mode = o.defaults.Mode
	}
	if mode == domain.ModeUnspecified {
		mode = domain.ModeSemantic
	}
	backendID = opts.BackendID
	if backendID == "" {
		backendID = o.defaults.BackendID
	}
	if backendID == "" {
		if backends := o.defaultBackends(); len(backends) > 0 {
			backendID = backends[0]
		}
	}
	gen = opts.Generate
	if gen.MaxTokens <= 0 {
		gen.MaxTokens = o.defaults.Generate.MaxTokens
	}
	if gen.Temperature == 0 {
		gen.Temperature = o.defaults.Generate.Temperature
	}
	return topK, mode, backendID, gen
}

func (o *Orchestrator) defaultBackends() []string {
	if len(o.defaults.Backends) > 0 {
		return o.defaults.Backends
	}
	return o.gateway.Backends()
}

func aggregate(results []domain.ModelResult) domain.AggregateStats {
	stats := domain.AggregateStats{
		Latency: make(map[string]time.Duration, len(results)),
		Tokens:  make(map[string]int, len(results)),
	}
	for _, r := range results {
		stats.Latency[r.BackendID] = r.Latency
		if r.OK() {
			stats.Succeeded++
			stats.Tokens[r.BackendID] = r.TokenEstimate
		} else {
			stats.Failed++
		}
	}
	return stats
}

// estimateTokens approximates a token count as the whitespace-delimited
// word count.
func estimateTokens(text string) int {
	return len(strings.Fields(text))
}
