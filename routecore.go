// Package routecore provides a high-level façade over the request-routing
// decision pipeline (preprocessing, intent detection, ambiguity scoring,
// skill resolution, route caching and A/B experimentation) enabling the
// surrounding orchestrator to turn free-text requests into routing decisions.
// Most applications interact with this package by:
//  1. Creating a Router via New() (optionally injecting a completion client,
//     skill registry and shared cache) or NewFromConfig()
//  2. Calling Route() on the request-handling path
//  3. Recording execution outcomes via RecordResult() when experimenting
//
// The façade delegates each stage to its component package while keeping
// setup and usage ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a hosted
// completion client, a Redis-backed shared cache and a structured logger.
package routecore

import (
	"context"
	"fmt"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/routecore/routecore/abtest"
	"github.com/routecore/routecore/ambiguity"
	"github.com/routecore/routecore/completion"
	"github.com/routecore/routecore/completion/anthropic"
	"github.com/routecore/routecore/completion/openai"
	"github.com/routecore/routecore/config"
	"github.com/routecore/routecore/intent"
	"github.com/routecore/routecore/logging"
	"github.com/routecore/routecore/merge"
	"github.com/routecore/routecore/preprocess"
	"github.com/routecore/routecore/routecache"
	"github.com/routecore/routecore/skill"
)

// Routing decision methods.
const (
	MethodPattern  = intent.MethodPattern
	MethodFallback = intent.MethodFallback
	MethodCache    = "cache"
)

// Options configures the Router instance.
type Options struct {
	// Completion performs the intent detector's low-confidence fallback.
	// Nil disables the fallback; detection then degrades to the unknown
	// intent below the threshold.
	Completion completion.Client

	// CompletionModel and CompletionMaxTokens are forwarded per call.
	CompletionModel     string
	CompletionMaxTokens int64

	// CompletionTimeout bounds one fallback call.
	CompletionTimeout time.Duration

	// CompletionCacheTTL bounds the fallback response cache.
	CompletionCacheTTL time.Duration

	// FallbackThreshold is the pattern confidence below which the detector
	// escalates to the completion service.
	FallbackThreshold float64

	// AmbiguityThreshold is the score at or above which a request is flagged
	// as needing clarification.
	AmbiguityThreshold float64

	// SkillRegistry is the external capability lookup. Nil yields empty
	// resolutions.
	SkillRegistry skill.Registry

	// SharedCache is the external route-cache tier, typically
	// routecache.RedisCache. Nil runs the route cache process-local only.
	SharedCache routecache.SharedCache

	// LocalCacheCapacity bounds the process-local route-cache tier.
	LocalCacheCapacity int

	// MinConfidenceToCache gates route-cache writes.
	MinConfidenceToCache float64

	// SharedCacheTTL bounds shared-tier route entries.
	SharedCacheTTL time.Duration

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Router is the high-level façade aggregating the pipeline components.
type Router struct {
	opts        Options
	detector    *intent.Detector
	resolver    *skill.Resolver
	cache       *routecache.Cache
	experiments *abtest.Manager
	logger      logging.Logger
}

// New creates a new Router with optional overrides. Any unset dependency is
// initialized with its in-process default.
func New(optFns ...func(o *Options)) *Router {
	opts := Options{
		CompletionTimeout:    10 * time.Second,
		CompletionCacheTTL:   5 * time.Minute,
		FallbackThreshold:    0.7,
		AmbiguityThreshold:   ambiguity.Threshold,
		LocalCacheCapacity:   1000,
		MinConfidenceToCache: 0.6,
		SharedCacheTTL:       300 * time.Second,
		Logger:               logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	detector := intent.NewDetector(func(o *intent.Options) {
		o.Client = opts.Completion
		o.Model = opts.CompletionModel
		o.MaxTokens = opts.CompletionMaxTokens
		o.Timeout = opts.CompletionTimeout
		o.FallbackThreshold = opts.FallbackThreshold
		o.CacheTTL = opts.CompletionCacheTTL
		o.Logger = opts.Logger
	})

	cache := routecache.New(func(o *routecache.Options) {
		o.Shared = opts.SharedCache
		o.LocalCapacity = opts.LocalCacheCapacity
		o.MinConfidenceToCache = opts.MinConfidenceToCache
		o.SharedTTL = opts.SharedCacheTTL
		o.Logger = opts.Logger
	})

	return &Router{
		opts:        opts,
		detector:    detector,
		resolver:    skill.NewResolver(opts.SkillRegistry, opts.Logger),
		cache:       cache,
		experiments: abtest.NewManager(opts.Logger),
		logger:      opts.Logger,
	}
}

// NewFromConfig creates a Router from environment-driven configuration. The
// completion client and shared cache are constructed according to cfg;
// optFns apply on top and win.
func NewFromConfig(cfg *config.Config, optFns ...func(o *Options)) (*Router, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var client completion.Client
	switch cfg.Completion.Provider {
	case "anthropic":
		client = anthropic.NewClient(func(o *anthropic.Options) {
			o.APIKey = cfg.Completion.APIKey
			o.MaxTokens = int64(cfg.Completion.MaxTokens)
			if cfg.Completion.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Completion.Model)
			}
		})
	case "openai":
		client = openai.NewClient(func(o *openai.Options) {
			o.MaxCompletionTokens = int64(cfg.Completion.MaxTokens)
			if cfg.Completion.Model != "" {
				o.Model = cfg.Completion.Model
			}
		})
	}

	var shared routecache.SharedCache
	if cfg.Cache.RedisAddr != "" {
		rc, err := routecache.NewRedisCache(routecache.RedisConfig{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("routecore: connect shared cache: %w", err)
		}
		shared = rc
	}

	fns := append([]func(o *Options){func(o *Options) {
		o.Completion = client
		o.CompletionModel = cfg.Completion.Model
		o.CompletionMaxTokens = int64(cfg.Completion.MaxTokens)
		o.CompletionTimeout = cfg.Completion.Timeout
		o.FallbackThreshold = cfg.FallbackThreshold
		o.AmbiguityThreshold = cfg.AmbiguityThreshold
		o.SharedCache = shared
		o.LocalCacheCapacity = cfg.Cache.LocalCapacity
		o.MinConfidenceToCache = cfg.Cache.MinConfidenceToCache
		o.SharedCacheTTL = cfg.Cache.SharedTTL
	}}, optFns...)

	return New(fns...), nil
}

// RouteRequest is one request entering the decision pipeline.
type RouteRequest struct {
	OrganizationID string
	UserID         string
	Text           string

	// LegacySkillSlugs are already-attached skills excluded from resolution.
	LegacySkillSlugs []string

	// ExperimentID opts the request into an A/B experiment. Empty skips
	// assignment.
	ExperimentID string
}

// Decision is the outcome of one pipeline run. Category, Skills, Confidence
// and Method are always populated; the analysis fields are zero when the
// decision was served from cache.
type Decision struct {
	Category   string   `json:"category"`
	Skills     []string `json:"skills"`
	Confidence float64  `json:"confidence"`
	Method     string   `json:"method"`
	FromCache  bool     `json:"fromCache"`

	Intent        intent.Intent            `json:"intent"`
	Entities      intent.ExtractedEntities `json:"entities"`
	Ambiguity     ambiguity.Result         `json:"ambiguity"`
	Clarification *ambiguity.Clarification `json:"clarification,omitempty"`
	Resolution    skill.Resolution         `json:"resolution"`

	Variant  *abtest.Variant `json:"variant,omitempty"`
	Duration time.Duration   `json:"duration"`
}

// Route runs the full decision pipeline: variant assignment, cache lookup,
// intent and entity analysis, ambiguity scoring, skill resolution and cache
// write-through. It never returns an error; every failure inside a stage
// degrades that stage's contribution instead of aborting the request.
func (r *Router) Route(ctx context.Context, req RouteRequest) Decision {
	start := time.Now()

	var variant *abtest.Variant
	if req.ExperimentID != "" && req.UserID != "" {
		variant = r.experiments.AssignScoped(req.UserID, req.ExperimentID, req.OrganizationID, "")
	}

	if !variantBool(variant, "skipCache") {
		if route := r.cache.Get(ctx, req.OrganizationID, req.Text); route != nil {
			return Decision{
				Category:   route.Category,
				Skills:     route.Skills,
				Confidence: route.Confidence,
				Method:     MethodCache,
				FromCache:  true,
				Variant:    variant,
				Duration:   time.Since(start),
			}
		}
	}

	detected, method := r.detector.DetectDetailed(ctx, req.Text)
	entities := intent.ExtractEntities(req.Text)

	amb := ambiguity.DetectWithThreshold(req.Text, r.opts.AmbiguityThreshold)
	var clarification *ambiguity.Clarification
	if amb.IsAmbiguous {
		c := ambiguity.GenerateClarificationQuestion(req.Text, amb, entities)
		clarification = &c
	}

	resolution := r.resolver.Resolve(ctx, req.OrganizationID, req.Text, req.LegacySkillSlugs)

	decision := Decision{
		Category:      string(detected.Action),
		Skills:        skillSlugs(resolution.ResolvedSkills),
		Confidence:    detected.Confidence,
		Method:        method,
		Intent:        detected,
		Entities:      entities,
		Ambiguity:     amb,
		Clarification: clarification,
		Resolution:    resolution,
		Variant:       variant,
		Duration:      time.Since(start),
	}

	// An ambiguous request is not a final route; the orchestrator is
	// expected to clarify first, so nothing is memoized.
	if !amb.IsAmbiguous {
		r.cache.Put(ctx, req.OrganizationID, req.Text, decision.Category, decision.Skills, decision.Confidence, decision.Method)
	}

	r.logger.Debug("route decided",
		"organization_id", req.OrganizationID,
		"category", decision.Category,
		"method", decision.Method,
		"confidence", decision.Confidence,
		"ambiguous", amb.IsAmbiguous,
		"skills", len(decision.Skills),
	)

	return decision
}

// Preprocess normalizes text and derives language and surface signals.
func (r *Router) Preprocess(text string) preprocess.Result {
	return preprocess.Preprocess(text)
}

// DetectIntent classifies text into an (action, target, confidence) intent.
func (r *Router) DetectIntent(ctx context.Context, text string) intent.Intent {
	return r.detector.Detect(ctx, text)
}

// ExtractEntities finds structured references in text.
func (r *Router) ExtractEntities(text string) intent.ExtractedEntities {
	return intent.ExtractEntities(text)
}

// AnalyzeRequest classifies text and extracts entities in one pass.
func (r *Router) AnalyzeRequest(ctx context.Context, text string) intent.Analysis {
	return r.detector.AnalyzeRequest(ctx, text)
}

// DetectAmbiguity scores how under-specified text is.
func (r *Router) DetectAmbiguity(text string) ambiguity.Result {
	return ambiguity.DetectWithThreshold(text, r.opts.AmbiguityThreshold)
}

// GenerateClarificationQuestion builds the question to surface when a
// request was flagged ambiguous.
func (r *Router) GenerateClarificationQuestion(text string, result ambiguity.Result, entities intent.ExtractedEntities) ambiguity.Clarification {
	return ambiguity.GenerateClarificationQuestion(text, result, entities)
}

// ResolveSkills matches registered capabilities against a request.
func (r *Router) ResolveSkills(ctx context.Context, organizationID, text string, legacySkillSlugs []string) skill.Resolution {
	return r.resolver.Resolve(ctx, organizationID, text, legacySkillSlugs)
}

// CachedRoute looks a prior decision up. Nil means miss.
func (r *Router) CachedRoute(ctx context.Context, organizationID, text string) *routecache.Route {
	return r.cache.Get(ctx, organizationID, text)
}

// CacheRoute memoizes a decision for identical and near-identical requests.
func (r *Router) CacheRoute(ctx context.Context, organizationID, text, category string, skills []string, confidence float64, method string) {
	r.cache.Put(ctx, organizationID, text, category, skills, confidence, method)
}

// InvalidateOrgRoutes drops one organization's cached routes from both tiers
// and returns the number of local entries removed.
func (r *Router) InvalidateOrgRoutes(ctx context.Context, organizationID string) int {
	return r.cache.InvalidateOrg(ctx, organizationID)
}

// Experiments exposes the A/B manager for registration and lifecycle calls.
func (r *Router) Experiments() *abtest.Manager { return r.experiments }

// AssignVariant deterministically buckets a user into an experiment arm.
// Nil means the experiment is not running or the user is not eligible.
func (r *Router) AssignVariant(userID, experimentID string) *abtest.Variant {
	return r.experiments.Assign(userID, experimentID)
}

// RecordResult appends one execution outcome to an experiment's exposure log.
func (r *Router) RecordResult(res abtest.Result) error {
	return r.experiments.RecordResult(res)
}

// ExperimentStats recomputes per-variant aggregates and significance for an
// experiment.
func (r *Router) ExperimentStats(experimentID string) (abtest.ExperimentStats, error) {
	return r.experiments.Stats(experimentID)
}

// MergeResults combines execution results from multiple backends.
func (r *Router) MergeResults(results []merge.TaskResult, opts merge.Options) (merge.MergedResult, error) {
	return merge.Merge(results, opts)
}

// skillSlugs projects resolved skills onto their registry slugs.
func skillSlugs(resolved []skill.ResolvedSkill) []string {
	slugs := make([]string, 0, len(resolved))
	for _, rs := range resolved {
		slugs = append(slugs, rs.Skill.Slug)
	}
	return slugs
}

// variantBool reads a boolean flag from a variant's configuration.
func variantBool(v *abtest.Variant, key string) bool {
	if v == nil || v.Config == nil {
		return false
	}
	flag, _ := v.Config[key].(bool)
	return flag
}
