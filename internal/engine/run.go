// Package engine drives one respondent through a quiz definition.
//
// A Run is a finite state machine:
//
//	loading -> session (xN, ad after any session with showAd) -> processing
//	        -> [final ad] -> result -> [redirecting]
//
// with error as the terminal failure state of loading. All events and timer
// callbacks of a run are serialized on a single loop goroutine, so a run
// never needs locking internally; observers read published snapshots.
package engine

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/interstitial"
	"quiz-funnel/internal/util"

	"go.uber.org/zap"
	"k8s.io/utils/clock"
)

type timerKind int

const (
	timerSettle timerKind = iota
	timerProcessing
	timerRedirect
	timerTick
)

type commandKind int

const (
	cmdSelect commandKind = iota
	cmdSubmit
	cmdContinue
	cmdViewResult
)

type command struct {
	kind   commandKind
	option string
	values map[string]string
	reply  chan error
}

type loaded struct {
	def *domain.QuizDefinition
	err error
}

type fired struct {
	gen  uint64
	kind timerKind
}

type adUnlocked struct {
	gen uint64
}

type submitted struct {
	ack *submissionAck
	err error
}

type submissionAck struct {
	responseID string
}

// Run is one end-to-end traversal of a quiz by one respondent. Runs share
// nothing but the immutable definition they read.
type Run struct {
	id    string
	opts  Options
	clock clock.WithDelayedExecution
	log   *zap.Logger
	out   *outbox

	inbox  chan interface{}
	timers *mailbox
	stop   chan struct{}
	done  chan struct{}

	lifecycle sync.Mutex
	started   bool
	closed    bool

	// Owned by the loop goroutine.
	slug        string
	def         *domain.QuizDefinition
	state       State
	index       int
	selected    string
	settling    bool
	ad          *interstitial.Controller
	adFinal     bool
	processed   bool
	gen         uint64
	armed       []clock.Timer
	deadline    time.Time
	redirectURL string
	submission  Submission
	failure     *ErrorView
	seq         int

	// Guarded by mu; read by observers.
	mu      sync.Mutex
	view    Snapshot
	path    []State
	answers domain.AnswerSet
}

// New creates an idle run. Call Start to begin loading and Close to release it.
func New(opts Options) *Run {
	opts.applyDefaults()
	id := opts.RunID
	if id == "" {
		id = util.NewULID()
	}
	r := &Run{
		id:      id,
		opts:    opts,
		clock:   opts.Clock,
		log:     opts.Logger.With(zap.String("run_id", id)),
		out:     newOutbox(),
		inbox:   make(chan interface{}),
		timers:  newMailbox(),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		answers: make(domain.AnswerSet),
	}
	r.view = Snapshot{RunID: id}
	return r
}

// ID returns the run session id submitted with the answers.
func (r *Run) ID() string {
	return r.id
}

// Updates streams every published snapshot in order. Subscribe before Start
// to see the loading state, and drain the channel until it is closed.
func (r *Run) Updates() <-chan Snapshot {
	return r.out.subscribe()
}

// Snapshot returns the most recently published render state.
func (r *Run) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view
}

// Path returns the states entered so far, in order. Re-entering the session
// state for the next session appends another entry.
func (r *Run) Path() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.path...)
}

// Answers returns a copy of the answers collected so far.
func (r *Run) Answers() domain.AnswerSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.answers.Clone()
}

// Start enters the loading state and fetches the definition for slug.
// It returns immediately; progress is reported through snapshots.
func (r *Run) Start(ctx context.Context, slug string) error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()
	if r.closed {
		return ErrClosed
	}
	if r.started {
		return ErrAlreadyStarted
	}
	if r.opts.Loader == nil {
		return ErrNoLoader
	}
	r.started = true
	r.slug = slug
	r.log = r.log.With(zap.String("slug", slug))

	r.transition(StateLoading)
	r.publish()

	go r.loop()
	go func() {
		def, err := r.opts.Loader.Load(ctx, slug)
		r.post(loaded{def: def, err: err})
	}()
	return nil
}

// SelectOption answers the current question session.
func (r *Run) SelectOption(option string) error {
	return r.do(command{kind: cmdSelect, option: option})
}

// SubmitForm answers the current form session. Every provided value is
// merged into the answers; required-field validation is the caller's job.
func (r *Run) SubmitForm(values map[string]string) error {
	return r.do(command{kind: cmdSubmit, values: values})
}

// Continue leaves an unlocked ad interstitial.
func (r *Run) Continue() error {
	return r.do(command{kind: cmdContinue})
}

// ViewResult short-circuits a pending redirect countdown.
func (r *Run) ViewResult() error {
	return r.do(command{kind: cmdViewResult})
}

// Close cancels every timer, detaches injected ad content and stops the run.
// A submission already in flight is allowed to finish. Close is idempotent.
func (r *Run) Close() {
	r.lifecycle.Lock()
	if r.closed {
		r.lifecycle.Unlock()
		return
	}
	r.closed = true
	started := r.started
	close(r.stop)
	r.lifecycle.Unlock()

	if started {
		<-r.done
		return
	}
	r.teardown()
}

func (r *Run) do(c command) error {
	r.lifecycle.Lock()
	started, closed := r.started, r.closed
	r.lifecycle.Unlock()
	if closed {
		return ErrClosed
	}
	if !started {
		return ErrNotStarted
	}

	c.reply = make(chan error, 1)
	select {
	case r.inbox <- c:
	case <-r.done:
		return ErrClosed
	}
	select {
	case err := <-c.reply:
		return err
	case <-r.done:
		return ErrClosed
	}
}

// post hands a message to the loop; it reports false once the run has stopped.
func (r *Run) post(m interface{}) bool {
	select {
	case r.inbox <- m:
		return true
	case <-r.done:
		return false
	}
}

func (r *Run) loop() {
	defer close(r.done)
	defer r.teardown()
	for {
		select {
		case <-r.stop:
			return
		case <-r.timers.wake:
			r.drainTimers()
		case m := <-r.inbox:
			// timers that fired before m was sent are applied first
			r.drainTimers()
			r.handle(m)
		}
	}
}

func (r *Run) drainTimers() {
	for _, m := range r.timers.take() {
		r.handle(m)
	}
}

func (r *Run) teardown() {
	r.cancelTimers()
	r.closeAd()
	r.out.close()
}

func (r *Run) handle(m interface{}) {
	switch msg := m.(type) {
	case command:
		msg.reply <- r.handleCommand(msg)
	case loaded:
		r.onLoaded(msg)
	case fired:
		if msg.gen != r.gen {
			return
		}
		r.onTimer(msg.kind)
	case adUnlocked:
		if msg.gen != r.gen || r.state != StateAd {
			return
		}
		r.publish()
	case submitted:
		r.onSubmitted(msg)
	}
}

func (r *Run) handleCommand(c command) error {
	var err error
	switch c.kind {
	case cmdSelect:
		err = r.onSelect(c.option)
	case cmdSubmit:
		err = r.onSubmitForm(c.values)
	case cmdContinue:
		err = r.onContinue()
	case cmdViewResult:
		err = r.onViewResult()
	}
	if err != nil {
		r.log.Debug("event rejected", zap.String("state", string(r.state)), zap.Error(err))
	}
	return err
}

func (r *Run) onLoaded(msg loaded) {
	if r.state != StateLoading {
		return
	}
	def, err := msg.def, msg.err
	if err == nil && def == nil {
		err = domain.NewDefinitionNotFoundError(r.slug)
	}
	if err == nil && !def.IsPublished() {
		err = domain.NewDefinitionUnpublishedError(r.slug)
	}
	if err == nil {
		err = def.Validate()
	}
	if err != nil {
		r.fail(err)
		return
	}

	r.def = def
	if len(def.Sessions) == 0 {
		r.enterProcessing()
		return
	}
	r.enterSession(0)
}

func (r *Run) currentSession() *domain.Session {
	if r.def == nil || r.index < 0 || r.index >= len(r.def.Sessions) {
		return nil
	}
	return &r.def.Sessions[r.index]
}

func (r *Run) onSelect(option string) error {
	s := r.currentSession()
	if r.state != StateSession || s == nil || s.Type != domain.SessionQuestion {
		return ErrUnexpectedEvent
	}
	if r.settling {
		return ErrAnswerPending
	}
	if !s.HasOption(option) {
		return ErrInvalidOption
	}

	r.mu.Lock()
	r.answers[s.ID] = option
	r.mu.Unlock()
	r.selected = option

	if r.opts.SettleDelay == 0 {
		r.advance()
		return nil
	}
	r.settling = true
	r.arm(r.opts.SettleDelay, timerSettle)
	r.publish()
	return nil
}

func (r *Run) onSubmitForm(values map[string]string) error {
	s := r.currentSession()
	if r.state != StateSession || s == nil || s.Type != domain.SessionForm || r.settling {
		return ErrUnexpectedEvent
	}
	r.mu.Lock()
	for k, v := range values {
		r.answers[k] = v
	}
	r.mu.Unlock()
	r.advance()
	return nil
}

func (r *Run) onContinue() error {
	if r.state != StateAd || r.ad == nil {
		return ErrUnexpectedEvent
	}
	if !r.ad.Unlocked() {
		return ErrAdLocked
	}
	if r.adFinal {
		r.enterResult()
		return nil
	}
	r.nextOrComplete()
	return nil
}

func (r *Run) onViewResult() error {
	if r.state != StateResult {
		return ErrUnexpectedEvent
	}
	if r.redirectURL != "" {
		r.enterRedirecting()
	}
	return nil
}

func (r *Run) onTimer(kind timerKind) {
	switch kind {
	case timerSettle:
		r.settling = false
		r.advance()
	case timerProcessing:
		r.afterProcessing()
	case timerRedirect:
		r.enterRedirecting()
	case timerTick:
		r.publish()
	}
}

func (r *Run) onSubmitted(msg submitted) {
	if msg.err != nil {
		r.submission = Submission{Status: SubmissionFailed, Error: msg.err.Error()}
	} else {
		r.submission = Submission{Status: SubmissionSucceeded, ResponseID: msg.ack.responseID}
	}
	r.publish()
}

// advance applies the post-answer rule: ad if requested, else next session
// or completion.
func (r *Run) advance() {
	s := r.currentSession()
	if s != nil && s.ShowAd {
		r.enterAd(false, interstitial.Params{
			TestMode:    r.def.Settings.TestAdEnabled,
			Markup:      s.AdCode,
			DisplayTime: seconds(s.AdDisplayTime, r.opts.AdDisplayTime),
			Message:     r.def.Settings.CustomTexts.AdMessage,
		})
		return
	}
	r.nextOrComplete()
}

func (r *Run) nextOrComplete() {
	if r.index >= len(r.def.Sessions)-1 {
		r.enterProcessing()
		return
	}
	r.enterSession(r.index + 1)
}

func (r *Run) enterSession(index int) {
	r.transition(StateSession)
	r.index = index
	r.selected = ""
	r.settling = false
	r.publish()
}

func (r *Run) enterAd(final bool, params interstitial.Params) {
	r.transition(StateAd)
	r.adFinal = final
	gen := r.gen
	r.ad = interstitial.Open(r.clock, r.opts.ContentHost, params, func() {
		r.timers.put(adUnlocked{gen: gen})
	})
	if err := r.ad.MountErr(); err != nil {
		r.log.Warn("ad content failed to mount; unlock timer continues", zap.Error(err))
	}
	r.armTicks(params.DisplayTime)
	r.publish()
}

func (r *Run) enterProcessing() {
	if r.processed {
		return
	}
	r.processed = true
	r.transition(StateProcessing)
	r.submit()

	delay := seconds(r.def.Settings.ProcessingTime, r.opts.ProcessingTime)
	if delay <= 0 {
		r.publish()
		r.afterProcessing()
		return
	}
	r.arm(delay, timerProcessing)
	r.publish()
}

func (r *Run) afterProcessing() {
	settings := &r.def.Settings
	if settings.ShowFinalAd {
		r.enterAd(true, interstitial.Params{
			TestMode:    settings.TestAdEnabled,
			Markup:      settings.FinalAdCode,
			DisplayTime: seconds(settings.AdDisplayTime, r.opts.AdDisplayTime),
			Message:     settings.CustomTexts.AdMessage,
		})
		return
	}
	r.enterResult()
}

func (r *Run) enterResult() {
	r.transition(StateResult)
	target, ok := r.def.Settings.RedirectTarget()
	if !ok {
		r.publish()
		return
	}
	r.redirectURL = target
	delay := seconds(r.def.Settings.Redirect.Delay, r.opts.RedirectDelay)
	if delay <= 0 {
		r.publish()
		r.enterRedirecting()
		return
	}
	r.deadline = r.clock.Now().Add(delay)
	r.arm(delay, timerRedirect)
	r.armTicks(delay)
	r.publish()
}

func (r *Run) enterRedirecting() {
	r.transition(StateRedirecting)
	r.log.Info("redirecting", zap.String("url", r.redirectURL))
	r.publish()
}

func (r *Run) fail(err error) {
	view := &ErrorView{Code: domain.CodeInternal, Message: "This quiz is currently unavailable."}
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		view.Code = domainErr.Code
	}
	r.failure = view
	r.log.Warn("run failed to load", zap.Error(err))
	r.transition(StateError)
	r.publish()
}

// submit fires the gateway without waiting for it. The submission runs on a
// detached context so it survives Close.
func (r *Run) submit() {
	if !r.def.Settings.SaveResponses {
		r.log.Warn("saveResponses is disabled but responses are always submitted")
	}
	r.submission = Submission{Status: SubmissionPending}

	gw := r.opts.Gateway
	quizID, runID, ua := r.def.ID, r.id, r.opts.UserAgent
	r.mu.Lock()
	answers := r.answers.Clone()
	r.mu.Unlock()
	timeout := r.opts.SubmitTimeout
	log := r.log

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		ack, err := gw.Submit(ctx, quizID, runID, ua, answers)
		if err != nil {
			log.Warn("response submission failed", zap.Error(err))
			r.post(submitted{err: err})
			return
		}
		var responseID string
		if ack != nil {
			responseID = ack.ResponseID
		}
		log.Info("response submitted", zap.String("response_id", responseID))
		r.post(submitted{ack: &submissionAck{responseID: responseID}})
	}()
}

// transition leaves the current state: every timer armed for it is cancelled
// and an open interstitial is closed before the new state is recorded.
func (r *Run) transition(next State) {
	r.cancelTimers()
	r.closeAd()
	r.state = next
	r.mu.Lock()
	r.path = append(r.path, next)
	r.mu.Unlock()
}

func (r *Run) arm(d time.Duration, kind timerKind) {
	gen := r.gen
	t := r.clock.AfterFunc(d, func() {
		r.timers.put(fired{gen: gen, kind: kind})
	})
	r.armed = append(r.armed, t)
}

// armTicks schedules a refresh at every whole second before total elapses.
func (r *Run) armTicks(total time.Duration) {
	for at := time.Second; at < total; at += time.Second {
		r.arm(at, timerTick)
	}
}

func (r *Run) cancelTimers() {
	for _, t := range r.armed {
		t.Stop()
	}
	r.armed = nil
	r.gen++
}

func (r *Run) closeAd() {
	if r.ad == nil {
		return
	}
	if err := r.ad.Close(); err != nil {
		r.log.Warn("failed to unmount ad content", zap.Error(err))
	}
	r.ad = nil
}

func (r *Run) remaining() int {
	left := r.deadline.Sub(r.clock.Now())
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Seconds()))
}

func (r *Run) publish() {
	r.seq++
	snap := Snapshot{
		RunID:      r.id,
		Seq:        r.seq,
		State:      r.state,
		Slug:       r.slug,
		Submission: r.submission,
	}
	if def := r.def; def != nil {
		snap.QuizID = def.ID
		snap.Title = def.Title
		snap.Design = def.Design
		snap.Total = len(def.Sessions)
		snap.Index = r.index
	}

	switch r.state {
	case StateSession:
		snap.Session = r.currentSession()
		snap.Selected = r.selected
	case StateAd:
		if r.ad != nil {
			snap.Ad = &AdView{Final: r.adFinal, Payload: r.ad.Payload()}
		}
	case StateProcessing:
		snap.ProcessingText = r.def.Settings.CustomTexts.Processing
	case StateResult:
		snap.ResultText = r.def.Settings.CustomTexts.Result
		if r.redirectURL != "" {
			snap.Redirect = &RedirectView{URL: r.redirectURL, Remaining: r.remaining()}
		}
	case StateRedirecting:
		snap.ResultText = r.def.Settings.CustomTexts.Result
		snap.Redirect = &RedirectView{URL: r.redirectURL}
	case StateError:
		snap.Error = r.failure
	}

	r.mu.Lock()
	r.view = snap
	r.mu.Unlock()
	r.out.push(snap)
}
