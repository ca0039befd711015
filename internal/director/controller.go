package director

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/openstudio/director-go/internal/conf"
	"github.com/openstudio/director-go/internal/datastore"
	"github.com/openstudio/director-go/internal/errors"
	"github.com/openstudio/director-go/internal/events"
	"github.com/openstudio/director-go/internal/observability/metrics"
)

// Controller is the engine's public surface. It owns the session registry,
// the rule store and the switch executor, and serializes all per-session work
// through each session's loop goroutine so samples are processed in strict
// arrival order.
type Controller struct {
	settings  *conf.Settings
	ruleStore *RuleStore
	executor  *switchExecutor
	bus       *events.Bus
	metrics   *metrics.DirectorMetrics
	ds        datastore.Interface
	now       func() time.Time

	// summaries retains stopped-session summaries and event logs for late
	// readers until the configured TTL expires.
	summaries *gocache.Cache

	mu       sync.RWMutex
	sessions map[string]*session
	wg       sync.WaitGroup
}

// stoppedSession is what the summary cache holds per stopped session.
type stoppedSession struct {
	summary SessionSummary
	stats   *sessionStats
}

// Option customizes controller construction.
type Option func(*Controller)

// WithSwitchSink installs the downstream switch sink. Defaults to the
// loopback sink.
func WithSwitchSink(sink SwitchSink) Option {
	return func(c *Controller) {
		c.executor = newSwitchExecutor(sink, c.settings.Director.ManualCooldownExempt, c.now)
	}
}

// WithDataStore attaches durable storage. All writes happen off the hot path.
func WithDataStore(ds datastore.Interface) Option {
	return func(c *Controller) { c.ds = ds }
}

// WithMetrics attaches engine metrics.
func WithMetrics(m *metrics.DirectorMetrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithEventBus attaches the event bus switch events are published to.
func WithEventBus(bus *events.Bus) Option {
	return func(c *Controller) { c.bus = bus }
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
		c.executor.now = now
	}
}

// New creates a controller with the default rule set.
func New(settings *conf.Settings, opts ...Option) *Controller {
	ttl := time.Duration(settings.Director.SummaryTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = time.Hour
	}

	c := &Controller{
		settings:  settings,
		ruleStore: NewRuleStore(DefaultRules()),
		now:       time.Now,
		summaries: gocache.New(ttl, 2*ttl),
		sessions:  make(map[string]*session),
	}
	c.executor = newSwitchExecutor(LoopbackSink{}, settings.Director.ManualCooldownExempt, c.now)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartSession creates a new switching session for an interview. Options left
// unset fall back to the configured session defaults.
func (c *Controller) StartSession(interviewID string, opts *SessionOptions) (*SessionInfo, error) {
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	s := newSession(uuid.NewString(), interviewID, opts,
		&c.settings.Director.SessionDefaults,
		&c.settings.Director.Confidence,
		c.queueSize(), c.now())

	c.mu.Lock()
	c.sessions[s.id] = s
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run(s)

	if c.metrics != nil {
		c.metrics.ActiveSessions.Inc()
	}
	getLogger().Info("session started",
		"session_id", s.id,
		"interview_id", interviewID,
		"mode", string(s.mode),
		"sensitivity", s.sensitivity)

	if c.ds != nil {
		record := &datastore.SessionRecord{
			SessionID:   s.id,
			InterviewID: s.interviewID,
			Mode:        string(s.mode),
			Status:      string(StatusActive),
			Sensitivity: s.sensitivity,
			SwitchDelay: s.switchDelay,
			CreatedAt:   s.createdAt,
		}
		go func() {
			if err := c.ds.SaveSession(record); err != nil {
				getLogger().Error("failed to persist session", "session_id", record.SessionID, "error", err)
			}
		}()
	}

	info := s.info()
	return &info, nil
}

// ConfigureCameras installs the session's camera set, replacing any previous
// set atomically. The set must not be empty; a set where no camera has auto
// switching enabled is accepted and simply yields no-op evaluations.
func (c *Controller) ConfigureCameras(sessionID string, cameras []CameraConfig) error {
	s, err := c.activeSession(sessionID)
	if err != nil {
		return err
	}

	if len(cameras) == 0 {
		return errors.New(ErrEmptyCameraSet).
			Component("director").
			Category(errors.CategoryValidation).
			SessionID(sessionID).
			Build()
	}
	seen := make(map[string]struct{}, len(cameras))
	for i := range cameras {
		if cameras[i].CameraID == "" {
			return errors.Newf("camera at index %d has no camera id", i).
				Component("director").
				Category(errors.CategoryValidation).
				SessionID(sessionID).
				Build()
		}
		if _, dup := seen[cameras[i].CameraID]; dup {
			return errors.Newf("duplicate camera id %q", cameras[i].CameraID).
				Component("director").
				Category(errors.CategoryValidation).
				SessionID(sessionID).
				Build()
		}
		seen[cameras[i].CameraID] = struct{}{}
	}

	s.cameras.Store(newCameraSet(cameras))
	getLogger().Info("cameras configured", "session_id", sessionID, "count", len(cameras))

	if c.ds != nil {
		records := make([]datastore.CameraRecord, 0, len(cameras))
		for _, cam := range cameras {
			records = append(records, datastore.CameraRecord{
				CameraID:          cam.CameraID,
				DeviceID:          cam.DeviceID,
				Name:              cam.Name,
				Position:          cam.Position,
				Priority:          cam.Priority,
				AutoSwitchEnabled: cam.AutoSwitchEnabled,
			})
		}
		go func() {
			if err := c.ds.ReplaceCameras(sessionID, records); err != nil {
				getLogger().Error("failed to persist camera set", "session_id", sessionID, "error", err)
			}
		}()
	}
	return nil
}

// IngestAudio feeds one audio sample into the session's evaluation loop and
// returns the analysis outcome. Samples are rejected before evaluation when
// their values are out of range or the session has no cameras configured.
func (c *Controller) IngestAudio(sessionID string, sample *AudioSample) (*SignalAnalysis, error) {
	s, err := c.activeSession(sessionID)
	if err != nil {
		return nil, err
	}
	if err := validateAudioSample(sample, c.now()); err != nil {
		return nil, err
	}
	if s.cameras.Load() == nil {
		return nil, errors.New(ErrInvalidSessionState).
			Component("director").
			Category(errors.CategorySessionState).
			SessionID(sessionID).
			Build()
	}
	return c.submitSample(s, request{kind: requestAudio, audio: sample, reply: make(chan response, 1)})
}

// IngestEngagement feeds one engagement sample into the session's evaluation
// loop and returns the analysis outcome.
func (c *Controller) IngestEngagement(sessionID string, sample *EngagementSample) (*SignalAnalysis, error) {
	s, err := c.activeSession(sessionID)
	if err != nil {
		return nil, err
	}
	if err := validateEngagementSample(sample, c.now()); err != nil {
		return nil, err
	}
	if s.cameras.Load() == nil {
		return nil, errors.New(ErrInvalidSessionState).
			Component("director").
			Category(errors.CategorySessionState).
			SessionID(sessionID).
			Build()
	}
	return c.submitSample(s, request{kind: requestEngagement, engagement: sample, reply: make(chan response, 1)})
}

func (c *Controller) submitSample(s *session, req request) (*SignalAnalysis, error) {
	resp, accepted := s.trySubmit(req)
	if !accepted {
		if c.metrics != nil {
			c.metrics.QueueDrops.Inc()
		}
		return nil, errors.Newf("session queue full, sample dropped").
			Component("director").
			Category(errors.CategorySignalIngest).
			SessionID(s.id).
			Build()
	}
	if resp.err != nil {
		return nil, resp.err
	}
	return resp.analysis, nil
}

// ExecuteManualSwitch applies an operator override. The override bypasses the
// cooldown gate when the exemption is configured, and switching to the
// already-live camera is a successful no-op.
func (c *Controller) ExecuteManualSwitch(sessionID string, req *ManualSwitchRequest) (*SwitchResult, error) {
	s, err := c.activeSession(sessionID)
	if err != nil {
		return nil, err
	}
	if req == nil || req.TargetCamera == "" {
		return nil, errors.New(ErrInvalidOptions).
			Component("director").
			Category(errors.CategoryValidation).
			SessionID(sessionID).
			Context("field", "target_camera").
			Build()
	}
	if s.cameras.Load() == nil {
		return nil, errors.New(ErrInvalidSessionState).
			Component("director").
			Category(errors.CategorySessionState).
			SessionID(sessionID).
			Build()
	}

	resp := s.submit(request{kind: requestManual, manual: req, reply: make(chan response, 1)})
	if resp.err != nil {
		return nil, resp.err
	}
	return resp.result, nil
}

// GetSession returns the session's current description.
func (c *Controller) GetSession(sessionID string) (*SessionInfo, error) {
	c.mu.RLock()
	s, ok := c.sessions[sessionID]
	c.mu.RUnlock()
	if ok {
		info := s.info()
		return &info, nil
	}

	if cached, found := c.summaries.Get(sessionID); found {
		stopped := cached.(*stoppedSession)
		return &SessionInfo{
			SessionID:   stopped.summary.SessionID,
			InterviewID: stopped.summary.InterviewID,
			Status:      StatusStopped,
			LiveCamera:  stopped.summary.FinalLiveCamera,
			CreatedAt:   stopped.summary.StartedAt,
		}, nil
	}
	return nil, c.notFound(sessionID)
}

// GetSessionAnalytics returns the running aggregates for an active session,
// or the final aggregates for a recently stopped one.
func (c *Controller) GetSessionAnalytics(sessionID string) (*SessionAnalytics, error) {
	c.mu.RLock()
	s, ok := c.sessions[sessionID]
	c.mu.RUnlock()
	if ok {
		analytics := s.stats.analytics(c.now())
		return &analytics, nil
	}

	if cached, found := c.summaries.Get(sessionID); found {
		analytics := cached.(*stoppedSession).summary.Analytics
		return &analytics, nil
	}
	return nil, c.notFound(sessionID)
}

// GetSessionEvents returns the session's switch events in chronological
// order, filtered and paginated. Events of stopped sessions stay queryable
// until the summary TTL expires.
func (c *Controller) GetSessionEvents(sessionID string, filter EventFilter) ([]SwitchEvent, error) {
	c.mu.RLock()
	s, ok := c.sessions[sessionID]
	c.mu.RUnlock()
	if ok {
		return s.stats.filteredEvents(filter), nil
	}

	if cached, found := c.summaries.Get(sessionID); found {
		return cached.(*stoppedSession).stats.filteredEvents(filter), nil
	}
	return nil, c.notFound(sessionID)
}

// StopSession stops the session's evaluation loop, drains in-flight work and
// returns the final summary. The summary and event log stay cached for late
// readers; stopping an already stopped session returns the cached summary.
func (c *Controller) StopSession(sessionID string) (*SessionSummary, error) {
	c.mu.Lock()
	s, ok := c.sessions[sessionID]
	if ok {
		delete(c.sessions, sessionID)
	}
	c.mu.Unlock()

	if !ok {
		if cached, found := c.summaries.Get(sessionID); found {
			summary := cached.(*stoppedSession).summary
			return &summary, nil
		}
		return nil, c.notFound(sessionID)
	}

	s.stop()
	now := c.now()
	s.stats.finalize(now)

	summary := SessionSummary{
		SessionID:       s.id,
		InterviewID:     s.interviewID,
		StartedAt:       s.createdAt,
		StoppedAt:       now,
		Duration:        now.Sub(s.createdAt),
		FinalLiveCamera: s.stats.currentLiveCamera(),
		Analytics:       s.stats.analytics(now),
	}
	c.summaries.SetDefault(sessionID, &stoppedSession{summary: summary, stats: s.stats})

	if c.metrics != nil {
		c.metrics.ActiveSessions.Dec()
	}
	getLogger().Info("session stopped",
		"session_id", sessionID,
		"duration", summary.Duration,
		"total_switches", summary.Analytics.TotalSwitches)

	if c.ds != nil {
		go func() {
			if err := c.ds.UpdateSessionStatus(sessionID, string(StatusStopped), now); err != nil {
				getLogger().Error("failed to persist session stop", "session_id", sessionID, "error", err)
			}
		}()
	}

	return &summary, nil
}

// GetSwitchingRules returns every stored rule in priority order, together
// with the current rule set version.
func (c *Controller) GetSwitchingRules() ([]SwitchingRule, int64) {
	return c.ruleStore.AllRules()
}

// UpdateSwitchingRule applies a partial rule update. The new rule set version
// takes effect for evaluations that start after the update; in-flight
// evaluations keep their snapshot.
func (c *Controller) UpdateSwitchingRule(ruleID string, update RuleUpdate) (SwitchingRule, error) {
	rule, err := c.ruleStore.UpdateRule(ruleID, update)
	if err != nil {
		return SwitchingRule{}, err
	}

	version := c.ruleStore.Snapshot().Version
	getLogger().Info("switching rule updated", "rule_id", ruleID, "version", version)

	if c.ds != nil {
		record := &datastore.RuleRecord{
			RuleID:          rule.RuleID,
			Version:         version,
			Priority:        rule.Priority,
			Enabled:         rule.Enabled,
			MinConfidence:   rule.MinConfidence,
			CooldownSeconds: rule.CooldownSeconds,
			ConditionKind:   string(rule.Condition.Kind),
			ConditionParam:  rule.Condition.Threshold,
			ActionKind:      string(rule.Action.Kind),
			ActionTarget:    rule.Action.TargetCamera,
			CreatedAt:       c.now(),
		}
		go func() {
			if err := c.ds.SaveRuleVersion(record); err != nil {
				getLogger().Error("failed to persist rule version", "rule_id", record.RuleID, "error", err)
			}
		}()
	}
	return rule, nil
}

// ActiveSessions returns descriptions of all currently active sessions.
func (c *Controller) ActiveSessions() []SessionInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(c.sessions))
	for _, s := range c.sessions {
		infos = append(infos, s.info())
	}
	return infos
}

// Shutdown stops every active session and waits for the loops to exit.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	sessions := make([]*session, 0, len(c.sessions))
	for _, s := range c.sessions {
		sessions = append(sessions, s)
	}
	c.sessions = make(map[string]*session)
	c.mu.Unlock()

	for _, s := range sessions {
		s.stop()
		if c.metrics != nil {
			c.metrics.ActiveSessions.Dec()
		}
	}
	c.wg.Wait()
	getLogger().Info("controller stopped", "sessions_closed", len(sessions))
}

// run is the per-session loop goroutine. It is the only goroutine that
// mutates session state, which gives strict FIFO semantics per session.
func (c *Controller) run(s *session) {
	defer c.wg.Done()
	defer close(s.done)

	for {
		select {
		case <-s.stopCh:
			return
		case req := <-s.inbox:
			req.reply <- c.handle(s, req)
		}
	}
}

func (c *Controller) handle(s *session, req request) response {
	switch req.kind {
	case requestAudio:
		s.snapshot.mergeAudio(req.audio)
		return response{analysis: c.evaluateTick(s)}

	case requestEngagement:
		s.snapshot.mergeEngagement(req.engagement)
		return response{analysis: c.evaluateTick(s)}

	case requestManual:
		return c.applyManual(s, req.manual)

	default:
		return response{err: errors.Newf("unknown request kind %d", req.kind).
			Component("director").
			Category(errors.CategoryGeneric).
			Build()}
	}
}

// evaluateTick runs one evaluation against the current rule snapshot and
// applies the outcome. Sessions in manual mode merge samples into the
// snapshot but never evaluate.
func (c *Controller) evaluateTick(s *session) *SignalAnalysis {
	start := c.now()

	decision := NoDecision()
	if s.mode != ModeManual {
		decision = s.evaluate(c.ruleStore.Snapshot())
	}

	event := c.executor.apply(s, decision, SwitchTypeAuto)
	c.finishTick(s, start, event)

	return &SignalAnalysis{
		Decision:   decision,
		LiveCamera: s.liveCamera,
		Event:      event,
	}
}

func (c *Controller) applyManual(s *session, manual *ManualSwitchRequest) response {
	start := c.now()

	decision := Decision{
		Switch:       true,
		TargetCamera: manual.TargetCamera,
		Confidence:   1.0,
		Reason:       ReasonManual,
		Transition:   manual.TransitionType,
	}

	event := c.executor.apply(s, decision, SwitchTypeManual)
	c.finishTick(s, start, event)

	result := &SwitchResult{
		// An eventless apply means the target was already live.
		Success:    event == nil || event.Success,
		LiveCamera: s.liveCamera,
		Event:      event,
	}
	return response{result: result}
}

// finishTick records metrics for the tick and publishes its event, if any.
func (c *Controller) finishTick(s *session, start time.Time, event *SwitchEvent) {
	if c.metrics != nil {
		c.metrics.RecordEvaluation(c.now().Sub(start), event != nil && event.Success)
		if event != nil {
			c.metrics.RecordSwitch(string(event.TriggerReason), event.FailureReason, event.Success)
		}
	}
	if event != nil && c.bus != nil {
		c.bus.Publish(event)
	}
	if event != nil && c.settings.Director.Debug {
		getLogger().Debug("switch event recorded",
			"session_id", s.id,
			"event_id", event.EventID,
			"target_camera", event.TargetCamera,
			"trigger_reason", string(event.TriggerReason),
			"success", event.Success)
	}
}

// activeSession resolves a session id to a running session.
func (c *Controller) activeSession(sessionID string) (*session, error) {
	c.mu.RLock()
	s, ok := c.sessions[sessionID]
	c.mu.RUnlock()
	if !ok {
		if _, found := c.summaries.Get(sessionID); found {
			return nil, errors.New(ErrSessionInactive).
				Component("director").
				Category(errors.CategorySessionState).
				SessionID(sessionID).
				Build()
		}
		return nil, c.notFound(sessionID)
	}
	return s, nil
}

func (c *Controller) notFound(sessionID string) error {
	return errors.New(ErrSessionNotFound).
		Component("director").
		Category(errors.CategoryNotFound).
		SessionID(sessionID).
		Build()
}

func (c *Controller) queueSize() int {
	if c.settings.Director.QueueSize > 0 {
		return c.settings.Director.QueueSize
	}
	return 64
}

// validateOptions rejects out-of-range session options before a session is
// created.
func validateOptions(opts *SessionOptions) error {
	if opts == nil {
		return nil
	}

	invalid := func(format string, args ...any) error {
		return errors.New(fmt.Errorf("%w: %s", ErrInvalidOptions, fmt.Sprintf(format, args...))).
			Component("director").
			Category(errors.CategoryValidation).
			Build()
	}

	if opts.Mode != "" {
		switch string(opts.Mode) {
		case conf.ModeAuto, conf.ModeManual, conf.ModeHybrid:
		default:
			return invalid("unknown mode %q", opts.Mode)
		}
	}
	if opts.Sensitivity != "" {
		switch opts.Sensitivity {
		case conf.SensitivityLow, conf.SensitivityMedium, conf.SensitivityHigh:
		default:
			return invalid("unknown sensitivity %q", opts.Sensitivity)
		}
	}
	if opts.SwitchDelay != nil && *opts.SwitchDelay < 0 {
		return invalid("switch delay must not be negative: %f", *opts.SwitchDelay)
	}
	if opts.AudioThreshold != nil && (*opts.AudioThreshold < 0 || *opts.AudioThreshold > 1) {
		return invalid("audio threshold must be within [0, 1]: %f", *opts.AudioThreshold)
	}
	if opts.EngagementThreshold != nil && (*opts.EngagementThreshold < 0 || *opts.EngagementThreshold > 1) {
		return invalid("engagement threshold must be within [0, 1]: %f", *opts.EngagementThreshold)
	}
	return nil
}
