package intent

import (
	"context"
	"errors"
	"math"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/routecore/routecore/completion"
	"github.com/routecore/routecore/logging"
	"github.com/routecore/routecore/preprocess"
)

const classificationSystemPrompt = `You are an intent classifier for a task orchestration platform.
Classify the user request into a single JSON object with exactly these fields:
{"action":"...","target":"...","confidence":0.0,"reasoning":"..."}
action must be one of: create, read, update, delete, search, analyze, summarize, schedule, notify, unknown.
target is the primary object the request acts on, lowercase, one word where possible.
confidence is your certainty in the classification, between 0 and 1.
Respond with the JSON object only, no prose.`

// Options configures a Detector.
type Options struct {
	// Client performs the hosted completion fallback. Nil disables the
	// fallback; the detector then degrades to the unknown intent whenever
	// pattern confidence stays below FallbackThreshold.
	Client completion.Client

	// Model and MaxTokens are forwarded to the completion client.
	Model     string
	MaxTokens int64

	// Timeout bounds one completion call. The call is raced against it and
	// loses to the degraded default on expiry.
	Timeout time.Duration

	// FallbackThreshold is the pattern confidence below which the detector
	// escalates to the completion service.
	FallbackThreshold float64

	// CacheTTL bounds completion-response cache entries.
	CacheTTL time.Duration

	Logger logging.Logger
}

// Detector classifies requests. Safe for concurrent use; the only shared
// state is the completion-response cache.
type Detector struct {
	opts   Options
	cache  *responseCache
	logger logging.Logger
}

// NewDetector constructs a Detector with defaults suitable for production:
// 0.7 fallback threshold, 10s completion timeout, 5 minute response cache.
func NewDetector(optFns ...func(o *Options)) *Detector {
	opts := Options{
		Timeout:           10 * time.Second,
		FallbackThreshold: 0.7,
		CacheTTL:          5 * time.Minute,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	return &Detector{
		opts:   opts,
		cache:  newResponseCache(opts.CacheTTL),
		logger: logger,
	}
}

// Detect classifies text into an Intent. It never returns an error: any
// fallback failure (no client, timeout, malformed model output) yields the
// degraded unknown intent instead.
func (d *Detector) Detect(ctx context.Context, text string) Intent {
	i, _ := d.DetectDetailed(ctx, text)
	return i
}

// DetectDetailed classifies text and reports which stage produced the
// result, MethodPattern or MethodFallback. A degraded unknown counts as
// MethodPattern since classification never left the process.
func (d *Detector) DetectDetailed(ctx context.Context, text string) (Intent, string) {
	patternIntent := d.classifyByPatterns(text)
	if patternIntent.Confidence >= d.opts.FallbackThreshold {
		return patternIntent, MethodPattern
	}

	cacheKey := strings.ToLower(strings.TrimSpace(text))
	if cached, ok := d.cache.get(cacheKey); ok {
		return cached, MethodFallback
	}

	llmIntent, err := d.classifyByCompletion(ctx, text)
	if err != nil {
		if errors.Is(err, completion.ErrNotConfigured) {
			d.logger.Debug("completion client not configured, returning degraded intent")
		} else {
			d.logger.Warn("intent fallback failed", "error", err)
		}
		return Unknown(), MethodPattern
	}

	d.cache.set(cacheKey, llmIntent)
	return llmIntent, MethodFallback
}

// AnalyzeRequest classifies text and extracts entities in one pass.
func (d *Detector) AnalyzeRequest(ctx context.Context, text string) Analysis {
	return Analysis{
		Intent:   d.Detect(ctx, text),
		Entities: ExtractEntities(text),
	}
}

// classifyByPatterns runs the keyword stage. The highest-scoring matched
// keyword decides the action; target resolution then adjusts confidence.
func (d *Detector) classifyByPatterns(text string) Intent {
	normalized := preprocess.Normalize(text)
	if normalized == "" {
		return Unknown()
	}

	var (
		bestAction  = ActionUnknown
		bestKeyword string
		bestScore   float64
	)
	for _, pattern := range actionPatterns {
		for _, keyword := range pattern.keywords {
			if !strings.Contains(normalized, keyword) {
				continue
			}
			score := pattern.base + math.Min(0.01*float64(utf8.RuneCountInString(keyword)), 0.1)
			if score > bestScore {
				bestScore = score
				bestAction = pattern.action
				bestKeyword = keyword
			}
		}
	}

	if bestAction == ActionUnknown {
		return Unknown()
	}

	target, found := resolveTarget(normalized, bestKeyword)
	confidence := bestScore
	if !found {
		confidence = math.Max(confidence-0.15, 0.1)
	}
	confidence = math.Min(confidence, 0.95)
	confidence = math.Round(confidence*100) / 100

	return Intent{Action: bestAction, Target: target, Confidence: confidence}
}

// resolveTarget finds a canonical target keyword in the text, falling back to
// the token immediately following the matched action keyword. The second
// return reports whether any target was found.
func resolveTarget(normalized, actionKeyword string) (string, bool) {
	for _, tk := range targetKeywords {
		if strings.Contains(normalized, tk.keyword) {
			return tk.target, true
		}
	}

	tokens := strings.Fields(normalized)
	for i, token := range tokens {
		if !strings.Contains(token, actionKeyword) {
			continue
		}
		if i+1 < len(tokens) {
			if guess := cleanTargetToken(tokens[i+1]); guess != "" {
				return guess, true
			}
		}
		break
	}

	return "unknown", false
}

// cleanTargetToken strips punctuation and trailing Korean particles from a
// follower-token target guess.
func cleanTargetToken(token string) string {
	token = strings.Trim(token, ".,!?:;\"'()[]{}")
	for _, particle := range koreanParticles {
		token = strings.TrimSuffix(token, particle)
	}
	return token
}

// classifyByCompletion escalates to the hosted completion service. A missing
// client is reported as completion.ErrNotConfigured so callers can branch on
// it explicitly.
func (d *Detector) classifyByCompletion(ctx context.Context, text string) (Intent, error) {
	if d.opts.Client == nil {
		return Intent{}, completion.ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	start := time.Now()
	raw, err := d.opts.Client.Complete(ctx, completion.Request{
		Model:        d.opts.Model,
		MaxTokens:    d.opts.MaxTokens,
		SystemPrompt: classificationSystemPrompt,
		UserMessage:  text,
	})
	if err != nil {
		return Intent{}, err
	}

	parsed, err := parseClassification(raw)
	d.logger.Debug("completion fallback", "duration", time.Since(start), "parsed", err == nil)
	if err != nil {
		return Intent{}, err
	}
	return parsed, nil
}

var (
	codeFencePattern           = regexp.MustCompile("```(?:json)?")
	errMalformedClassification = errors.New("malformed classification output")
)

// parseClassification extracts the strict {action,target,confidence,reasoning}
// contract from free-text model output. Surrounding code fences and prose are
// tolerated; a missing or invalid action is not.
func parseClassification(raw string) (Intent, error) {
	cleaned := codeFencePattern.ReplaceAllString(raw, "")
	open := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if open < 0 || end <= open {
		return Intent{}, errMalformedClassification
	}
	body := cleaned[open : end+1]
	if !gjson.Valid(body) {
		return Intent{}, errMalformedClassification
	}

	action := gjson.Get(body, "action").String()
	if !ValidAction(action) {
		action = string(ActionUnknown)
	}

	target := strings.TrimSpace(gjson.Get(body, "target").String())
	if target == "" {
		target = "unknown"
	}

	confidence := gjson.Get(body, "confidence").Float()
	confidence = math.Max(0, math.Min(1, confidence))

	return Intent{Action: Action(action), Target: target, Confidence: confidence}, nil
}

type responseCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]responseCacheEntry
	now     func() time.Time
}

type responseCacheEntry struct {
	intent    Intent
	expiresAt time.Time
}

func newResponseCache(ttl time.Duration) *responseCache {
	return &responseCache{
		ttl:     ttl,
		entries: make(map[string]responseCacheEntry),
		now:     time.Now,
	}
}

func (c *responseCache) get(key string) (Intent, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return Intent{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return Intent{}, false
	}
	return entry.intent, true
}

func (c *responseCache) set(key string, in Intent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = responseCacheEntry{intent: in, expiresAt: c.now().Add(c.ttl)}
}
