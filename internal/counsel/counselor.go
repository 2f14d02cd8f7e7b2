package counsel

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/gradfund/counselor/internal/cache"
	"github.com/gradfund/counselor/internal/chatlog"
	"github.com/gradfund/counselor/internal/model"
	"github.com/gradfund/counselor/internal/observability"
	"github.com/gradfund/counselor/internal/prompt"
	"github.com/gradfund/counselor/internal/recstore"
)

// persistTimeout bounds the asynchronous side effects of one request. They
// run on their own context so an abandoned request cannot cancel a queued
// history write.
const persistTimeout = 10 * time.Second

// Result is the successful outcome of one chat turn.
type Result struct {
	Response            string `json:"response"`
	QueryRecommendation string `json:"query_recommendation"`
}

// PipelineError marks which stage of the recommendation pipeline failed, so
// callers cannot mistake a degraded response for a successful one.
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *PipelineError) Unwrap() error { return e.Err }

// Deps wires the counselor's collaborators.
type Deps struct {
	Model           model.Client
	Recommendations recstore.Store
	Aggregator      *Aggregator
	ChatLog         *chatlog.Log
	Cache           cache.Cache
	Metrics         *observability.Metrics
	Workers         *semaphore.Weighted
}

// Counselor is the coordination core: it owns the per-user conversation
// memory, drives the two model calls for each chat turn, and persists the
// outcome.
type Counselor struct {
	memory  *Memory
	agg     *Aggregator
	model   model.Client
	recs    recstore.Store
	chatLog *chatlog.Log
	cache   cache.Cache
	metrics *observability.Metrics
	workers *semaphore.Weighted

	persistWG       sync.WaitGroup
	persistFailures atomic.Int64
}

func New(deps Deps) *Counselor {
	return &Counselor{
		memory:  NewMemory(),
		agg:     deps.Aggregator,
		model:   deps.Model,
		recs:    deps.Recommendations,
		chatLog: deps.ChatLog,
		cache:   deps.Cache,
		metrics: deps.Metrics,
		workers: deps.Workers,
	}
}

// Memory exposes the conversation memory for read paths (history endpoint,
// tests). Mutation stays inside the counselor.
func (c *Counselor) Memory() *Memory { return c.memory }

// GetRecommendation runs one chat turn: gather context, render the
// recommendation prompt, call the model, and persist the exchange. The
// follow-up question pipeline runs concurrently so total latency is bounded
// by the slower of the two model calls, not their sum.
//
// Persistence side effects (memory append, recommendation record, archive,
// cache fill) do not block the return; their failures are counted and logged.
func (c *Counselor) GetRecommendation(ctx context.Context, details StudentDetails, message, userID string) (Result, error) {
	key := cache.Key(userID, message, details)
	if cached, ok := c.cachedResult(ctx, key); ok {
		// A hit skips the model calls and the store write, but the exchange
		// still happened: the conversation log grows exactly as it would have
		// without the cache.
		c.memory.Append(userID, message, cached.Response)
		c.metrics.ActiveConversations.Set(float64(c.memory.Count()))
		c.metrics.ChatRequests.WithLabelValues("cached").Inc()
		return cached, nil
	}

	history := c.memory.GetOrCreate(userID).Turns()

	// Independent pipeline: reload history, render the follow-up prompt, call
	// the model. Its failure degrades to an inline message and never aborts
	// the recommendation.
	followupCh := make(chan followupReply, 1)
	go func() {
		text, err := c.followup(ctx, message, userID)
		if err != nil {
			followupCh <- followupReply{text: followupErrorMessage(err), degraded: true}
			return
		}
		followupCh <- followupReply{text: text}
	}()

	bundle, err := c.agg.Build(ctx, details, history)
	if err != nil {
		c.metrics.ChatRequests.WithLabelValues("error").Inc()
		return Result{}, &PipelineError{Stage: "aggregate context", Err: err}
	}

	response, err := c.generate(ctx, "recommendation", prompt.Recommendation(prompt.Inputs{
		LendersData:         bundle.LendersData,
		StudentDetails:      bundle.StudentDetails,
		SimilarCases:        bundle.SimilarCases,
		MatchingLenders:     bundle.MatchingLenders,
		ConversationHistory: bundle.ConversationHistory,
		StudentMessage:      message,
	}))
	if err != nil {
		c.metrics.ChatRequests.WithLabelValues("error").Inc()
		return Result{}, &PipelineError{Stage: "generate recommendation", Err: err}
	}

	// The memory append is a local, non-blocking write; doing it before
	// returning keeps same-user turn order matching request order. The store
	// and archive writes go to collaborators and stay off the hot path.
	c.memory.Append(userID, message, response)
	c.metrics.ActiveConversations.Set(float64(c.memory.Count()))
	c.persistExchange(userID, message, response, details)

	followup := <-followupCh
	result := Result{
		Response:            response,
		QueryRecommendation: followup.text,
	}
	// A degraded follow-up is a transient condition; caching it would replay
	// the inline error message for the full TTL.
	if !followup.degraded {
		c.fillCache(key, result)
	}
	c.metrics.ChatRequests.WithLabelValues("ok").Inc()
	return result, nil
}

// followupReply carries the follow-up text plus whether it degraded to the
// inline error message.
type followupReply struct {
	text     string
	degraded bool
}

func followupErrorMessage(err error) string {
	return fmt.Sprintf("An error occurred while generating question recommendations: %v", err)
}

// QueryRecommendation generates follow-up question suggestions from the
// current conversation. On failure it returns an inline error message instead
// of an error, so a follow-up problem never aborts a recommendation.
func (c *Counselor) QueryRecommendation(ctx context.Context, query, userID string) string {
	out, err := c.followup(ctx, query, userID)
	if err != nil {
		return followupErrorMessage(err)
	}
	return out
}

func (c *Counselor) followup(ctx context.Context, query, userID string) (string, error) {
	history := c.memory.History(userID)
	return c.generate(ctx, "followup", prompt.Followup(JoinHistory(history), query))
}

// ResetConversation clears the user's conversation memory and drops their
// cached responses. It always succeeds; cache invalidation problems are
// logged and counted, not surfaced.
func (c *Counselor) ResetConversation(ctx context.Context, userID string) {
	c.memory.Reset(userID)
	c.metrics.ActiveConversations.Set(float64(c.memory.Count()))

	if err := c.cache.DeletePrefix(ctx, cache.UserPrefix(userID)); err != nil {
		c.metrics.CacheEvents.WithLabelValues("invalidate_error").Inc()
		log.Printf("cache invalidation failed for user %s: %v", userID, err)
	}
}

// Drain waits for queued persistence side effects; used at shutdown and in
// tests.
func (c *Counselor) Drain() {
	c.persistWG.Wait()
}

// PersistFailures reports how many asynchronous side effects have failed
// since startup; exposed as a health signal.
func (c *Counselor) PersistFailures() int64 {
	return c.persistFailures.Load()
}

func (c *Counselor) generate(ctx context.Context, kind, text string) (string, error) {
	if err := c.workers.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.workers.Release(1)

	start := time.Now()
	out, err := c.model.Generate(ctx, text)
	c.metrics.ObserveModelCall(kind, time.Since(start))
	if err != nil {
		c.metrics.ModelErrors.WithLabelValues(kind).Inc()
		return "", fmt.Errorf("model call: %w", err)
	}
	return out, nil
}

func (c *Counselor) persistExchange(userID, message, response string, details StudentDetails) {
	c.persistWG.Add(1)
	go func() {
		defer c.persistWG.Done()

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		c.chatLog.Add(userID, message, response)

		err := c.recs.Store(ctx, details, response, map[string]string{"user_id": userID})
		if err != nil {
			c.persistFailures.Add(1)
			c.metrics.PersistFailures.Inc()
			c.metrics.StoreErrors.WithLabelValues("recommendations").Inc()
			log.Printf("recommendation store write failed for user %s: %v", userID, err)
		}
	}()
}

func (c *Counselor) cachedResult(ctx context.Context, key string) (Result, bool) {
	val, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.metrics.CacheEvents.WithLabelValues("get_error").Inc()
		log.Printf("cache read failed: %v", err)
		return Result{}, false
	}
	if !ok {
		c.metrics.CacheEvents.WithLabelValues("miss").Inc()
		return Result{}, false
	}

	var result Result
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		c.metrics.CacheEvents.WithLabelValues("decode_error").Inc()
		return Result{}, false
	}
	c.metrics.CacheEvents.WithLabelValues("hit").Inc()
	return result, true
}

func (c *Counselor) fillCache(key string, result Result) {
	c.persistWG.Add(1)
	go func() {
		defer c.persistWG.Done()

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		encoded, err := json.Marshal(result)
		if err != nil {
			return
		}
		if err := c.cache.Set(ctx, key, string(encoded)); err != nil {
			c.persistFailures.Add(1)
			c.metrics.PersistFailures.Inc()
			c.metrics.CacheEvents.WithLabelValues("set_error").Inc()
			log.Printf("cache write failed: %v", err)
		}
	}()
}
