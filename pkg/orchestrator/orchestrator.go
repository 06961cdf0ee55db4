// Package orchestrator assembles agent contexts from shared assets and skill
// packages. It is the composition root of the skill subsystem: it owns the
// registry, lazily builds the router, resolves per-agent configuration, and
// invalidates every dependent cache together on reload.
package orchestrator

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/jingkaihe/skillet/pkg/logger"
	"github.com/jingkaihe/skillet/pkg/skills"
	"github.com/jingkaihe/skillet/pkg/tools"
)

// AgentContext is the merged instructions, tools, and references handed to
// an agent runtime for one invocation. It is a transient aggregate and is
// never persisted.
type AgentContext struct {
	Instructions string
	Tools        []tools.Tool
	References   []string
	Skills       []skills.Metadata
}

// Orchestrator aggregates shared prompts, shared tools, and skill packages
// on demand.
type Orchestrator struct {
	registry     *skills.Registry
	toolRegistry *tools.Registry

	sharedPromptPath string
	sharedToolsPath  string
	configPath       string

	mu           sync.Mutex
	sharedPrompt *string
	sharedTools  []tools.Tool
	config       *Config
	router       *skills.Router
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSharedPrompt sets the path of the shared prompt file prepended to
// every context that includes shared assets.
func WithSharedPrompt(path string) Option {
	return func(o *Orchestrator) {
		o.sharedPromptPath = path
	}
}

// WithSharedTools sets the directory whose tool manifest supplies the
// shared tool set.
func WithSharedTools(path string) Option {
	return func(o *Orchestrator) {
		o.sharedToolsPath = path
	}
}

// WithConfigPath sets the agent configuration document.
func WithConfigPath(path string) Option {
	return func(o *Orchestrator) {
		o.configPath = path
	}
}

// WithToolRegistry overrides the tool registry used for both shared tools
// and skill tools.
func WithToolRegistry(tr *tools.Registry) Option {
	return func(o *Orchestrator) {
		o.toolRegistry = tr
	}
}

// New creates an orchestrator over the skills root. Discovery runs
// immediately; configuration and shared assets load lazily.
func New(skillsPath string, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{toolRegistry: tools.Builtin()}
	for _, opt := range opts {
		opt(o)
	}

	registry, err := skills.NewRegistry(skillsPath, skills.WithToolRegistry(o.toolRegistry))
	if err != nil {
		return nil, err
	}
	o.registry = registry
	return o, nil
}

// Registry exposes the underlying skill registry.
func (o *Orchestrator) Registry() *skills.Registry {
	return o.registry
}

// Catalog lists all discovered skill metadata, sorted by id.
func (o *Orchestrator) Catalog() []skills.Metadata {
	return o.registry.ListMetadata()
}

// AgentRequest carries the per-call inputs of BuildForAgent.
type AgentRequest struct {
	// Message drives automatic routing; without it "auto" blocks never
	// trigger.
	Message string
	// FallbackSkillIDs are used when configuration resolves to no skills.
	FallbackSkillIDs  []string
	ExtraInstructions string
	ExtraTools        []tools.Tool
	// IncludeShared overrides the agent config flag when non-nil.
	IncludeShared *bool
}

// BuildForAgent builds a context from the declarative configuration of
// agentID, resolving static skill lists, auto-routing blocks, and
// inherited defaults.
func (o *Orchestrator) BuildForAgent(ctx context.Context, agentID string, req AgentRequest) (*AgentContext, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	agentCfg := cfg.Agents[agentID]

	skillIDs, err := o.resolveSkillIDs(agentCfg.Skills, req.Message, req.FallbackSkillIDs)
	if err != nil {
		return nil, err
	}

	includeShared := true
	switch {
	case req.IncludeShared != nil:
		includeShared = *req.IncludeShared
	case agentCfg.IncludeShared != nil:
		includeShared = *agentCfg.IncludeShared
	}

	var extraSections []string
	if trimmedExtra := strings.TrimSpace(agentCfg.ExtraInstructions); trimmedExtra != "" {
		extraSections = append(extraSections, trimmedExtra)
	}
	if trimmedExtra := strings.TrimSpace(req.ExtraInstructions); trimmedExtra != "" {
		extraSections = append(extraSections, trimmedExtra)
	}

	return o.BuildContext(ctx, ContextRequest{
		SkillIDs:          skillIDs,
		ExtraInstructions: strings.Join(extraSections, "\n\n"),
		ExtraTools:        req.ExtraTools,
		IncludeShared:     &includeShared,
	})
}

// ContextRequest carries the inputs of BuildContext.
type ContextRequest struct {
	SkillIDs          []string
	ExtraInstructions string
	ExtraTools        []tools.Tool
	// IncludeShared defaults to true when nil.
	IncludeShared *bool
}

// BuildContext merges shared assets, the given skills in caller order, and
// extra assets into one AgentContext. Tool, reference, and skill ordering is
// deterministic: shared first, then each skill in order, then extras. No
// deduplication is performed; overlapping skills yield duplicate entries.
func (o *Orchestrator) BuildContext(ctx context.Context, req ContextRequest) (*AgentContext, error) {
	includeShared := req.IncludeShared == nil || *req.IncludeShared

	var sections []string
	var collectedTools []tools.Tool
	var collectedRefs []string
	var loadedSkills []skills.Metadata

	if includeShared {
		if prompt := o.loadSharedPrompt(ctx); prompt != "" {
			sections = append(sections, prompt)
		}
		collectedTools = append(collectedTools, o.loadSharedTools(ctx)...)
	}

	for _, id := range req.SkillIDs {
		pkg, err := o.registry.LoadSkill(ctx, id)
		if err != nil {
			return nil, err
		}
		loadedSkills = append(loadedSkills, pkg.Metadata)
		if pkg.Instructions != "" {
			sections = append(sections, pkg.Instructions)
		}
		collectedTools = append(collectedTools, pkg.Tools...)
		collectedRefs = append(collectedRefs, pkg.References...)
	}

	if trimmedExtra := strings.TrimSpace(req.ExtraInstructions); trimmedExtra != "" {
		sections = append(sections, trimmedExtra)
	}
	collectedTools = append(collectedTools, req.ExtraTools...)

	// Reference binding happens once, after every reference is known, so the
	// search tool always sees the complete list.
	bindReferences(collectedTools, collectedRefs)

	return &AgentContext{
		Instructions: strings.TrimSpace(strings.Join(sections, "\n\n")),
		Tools:        collectedTools,
		References:   collectedRefs,
		Skills:       loadedSkills,
	}, nil
}

// RouteSkills ranks cataloged skills against a message using a router that
// is built lazily and reused until the next ReloadConfig.
func (o *Orchestrator) RouteSkills(message string, opts skills.RouteOptions) []skills.Metadata {
	return o.ensureRouter().Route(message, opts)
}

// ReloadConfig invalidates every cache in the subsystem together: shared
// assets, the configuration document, the router, and the registry's catalog
// and package caches. A stale router over a reloaded registry would route to
// skills that no longer exist, so they reload as a unit.
func (o *Orchestrator) ReloadConfig() error {
	o.mu.Lock()
	o.sharedPrompt = nil
	o.sharedTools = nil
	o.config = nil
	o.router = nil
	o.mu.Unlock()
	return o.registry.Reload()
}

// ReloadSharedAssets invalidates only the shared prompt and shared tool
// caches, leaving the registry and router untouched.
func (o *Orchestrator) ReloadSharedAssets() {
	o.mu.Lock()
	o.sharedPrompt = nil
	o.sharedTools = nil
	o.mu.Unlock()
}

// resolveSkillIDs interprets an agent's skills config. Returns the resolved
// ids in first-seen order, or the fallback when nothing was produced.
func (o *Orchestrator) resolveSkillIDs(skillsConfig any, message string, fallback []string) ([]string, error) {
	var ids []string
	appendID := func(id string) {
		if id == "" {
			return
		}
		for _, existing := range ids {
			if existing == id {
				return
			}
		}
		ids = append(ids, id)
	}

	switch cfg := skillsConfig.(type) {
	case nil:
	case []string:
		ids = append(ids, cfg...)
	case []any:
		for _, item := range cfg {
			if id, ok := item.(string); ok {
				ids = append(ids, id)
			}
		}
	case string:
		if strings.EqualFold(cfg, "auto") && message != "" {
			for _, md := range o.RouteSkills(message, skills.RouteOptions{}) {
				ids = append(ids, md.ID)
			}
		}
	case map[string]any:
		spec, err := decodeSkillsSpec(cfg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, spec.Default...)
		if spec.Auto != nil {
			if spec.Auto.enabled() && message != "" {
				routed := o.RouteSkills(message, skills.RouteOptions{
					Limit:    spec.Auto.Limit,
					Tags:     spec.Auto.Tags,
					MinScore: spec.Auto.MinScore,
				})
				for _, md := range routed {
					appendID(md.ID)
				}
			}
			for _, id := range spec.Auto.Additional {
				appendID(id)
			}
		}
	}

	if len(ids) == 0 {
		ids = append(ids, fallback...)
	}
	return ids, nil
}

func (o *Orchestrator) ensureRouter() *skills.Router {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.router == nil {
		o.router = skills.NewRouter(o.registry)
	}
	return o.router
}

func (o *Orchestrator) loadConfig() (*Config, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.config != nil {
		return o.config, nil
	}
	if o.configPath == "" {
		o.config = &Config{}
		return o.config, nil
	}
	cfg, err := loadConfigFile(o.configPath)
	if err != nil {
		return nil, err
	}
	o.config = cfg
	return cfg, nil
}

func (o *Orchestrator) loadSharedPrompt(ctx context.Context) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sharedPrompt != nil {
		return *o.sharedPrompt
	}

	prompt := ""
	if o.sharedPromptPath != "" {
		raw, err := os.ReadFile(o.sharedPromptPath)
		if err == nil {
			prompt = strings.TrimSpace(string(raw))
		} else if !os.IsNotExist(err) {
			logger.G(ctx).WithError(err).WithField("path", o.sharedPromptPath).Warn("failed to read shared prompt")
		}
	}
	o.sharedPrompt = &prompt
	return prompt
}

func (o *Orchestrator) loadSharedTools(ctx context.Context) []tools.Tool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sharedTools == nil {
		if o.sharedToolsPath == "" {
			o.sharedTools = []tools.Tool{}
		} else {
			o.sharedTools = o.toolRegistry.LoadFromDir(ctx, o.sharedToolsPath)
		}
	}
	return append([]tools.Tool(nil), o.sharedTools...)
}

// bindReferences hands the complete reference list to the first tool that
// carries the reference-search sentinel name and accepts bindings.
func bindReferences(toolSet []tools.Tool, refs []string) {
	for _, t := range toolSet {
		if t.Name() != tools.ReferenceSearchToolName {
			continue
		}
		if binder, ok := t.(tools.ReferenceBinder); ok {
			binder.BindReferences(refs)
		}
		return
	}
}
