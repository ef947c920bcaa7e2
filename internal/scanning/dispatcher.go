package scanning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// RemoteRecognizer is a network recognizer with an optional configured
// credential.
type RemoteRecognizer interface {
	Recognizer
	HasCredential() bool
}

type state int

const (
	stateNotStarted state = iota
	stateTryingRemote
	stateTryingLocal
	stateDone
	stateFailed
)

var stateNames = [...]string{"not-started", "trying-remote", "trying-local", "done", "failed"}

func (s state) String() string { return stateNames[s] }

type event int

const (
	eventRemote event = iota
	eventLocal
	eventSucceeded
	eventFallback
	eventAbort
)

var eventNames = [...]string{"remote", "local", "succeeded", "fallback", "abort"}

func (e event) String() string { return eventNames[e] }

type transition struct {
	from state
	on   event
}

// transitions is the complete engine selection graph. Policy decides which
// event fires; the graph decides where it leads.
var transitions = map[transition]state{
	{stateNotStarted, eventRemote}:      stateTryingRemote,
	{stateNotStarted, eventLocal}:       stateTryingLocal,
	{stateTryingRemote, eventSucceeded}: stateDone,
	{stateTryingRemote, eventFallback}:  stateTryingLocal,
	{stateTryingRemote, eventAbort}:     stateFailed,
	{stateTryingLocal, eventSucceeded}:  stateDone,
	{stateTryingLocal, eventAbort}:      stateFailed,
}

func next(s state, e event) (state, error) {
	to, ok := transitions[transition{s, e}]
	if !ok {
		return stateFailed, fmt.Errorf("no transition from %s on %s", s, e)
	}
	return to, nil
}

// Policy declares how a mode chooses between the remote and local engines.
type Policy struct {
	// ForceRemote tries the remote engine without checking credential or
	// connectivity.
	ForceRemote bool
	// AllowRemote tries the remote engine when a credential is configured and
	// the host is online.
	AllowRemote bool
	// Fallback runs the local engine after a remote failure.
	Fallback bool
}

var policies = map[Mode]Policy{
	ModeAuto:    {AllowRemote: true, Fallback: true},
	ModeOffline: {},
	ModeOnline:  {ForceRemote: true},
}

// PolicyFor returns the policy of mode. Unknown modes behave like auto.
func PolicyFor(mode Mode) Policy {
	if p, ok := policies[mode]; ok {
		return p
	}
	return policies[ModeAuto]
}

func (p Policy) start(hasCredential bool, online func() bool) event {
	if p.ForceRemote {
		return eventRemote
	}
	if p.AllowRemote && hasCredential && online() {
		return eventRemote
	}
	return eventLocal
}

func (p Policy) remoteFailed() event {
	if p.Fallback {
		return eventFallback
	}
	return eventAbort
}

// Dispatcher rasterizes a receipt and runs it through the remote and local
// recognizers according to the request's mode.
type Dispatcher struct {
	remote RemoteRecognizer
	local  Recognizer
	probe  Connectivity
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher. remote may be nil, in which case only
// forced-online requests try it and fail. A nil probe counts as online.
func NewDispatcher(remote RemoteRecognizer, local Recognizer, probe Connectivity, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		remote: remote,
		local:  local,
		probe:  probe,
		logger: logger,
	}
}

// Recognize produces the receipt text and the engine that read it. Errors are
// *Error values tagged with the failing stage.
func (d *Dispatcher) Recognize(ctx context.Context, req Request) (*Outcome, error) {
	logger := d.logger
	if req.ScanID != "" {
		logger = logger.With("scan_id", req.ScanID)
	}

	img, err := Rasterize(req.Source)
	if err != nil {
		logger.Error("Failed to rasterize receipt", "error", err, "content_type", req.Source.ContentType)
		return nil, stageError(StageRasterize, err)
	}

	lang := req.UILanguage
	if lang != "it" {
		lang = "de"
	}

	policy := PolicyFor(req.Mode)
	hasCredential := req.Credential != "" || (d.remote != nil && d.remote.HasCredential())
	online := func() bool {
		if d.probe == nil {
			return true
		}
		return d.probe.Online(ctx)
	}

	st, err := next(stateNotStarted, policy.start(hasCredential, online))
	if err != nil {
		return nil, stageError(StageLocal, err)
	}

	var (
		outcome *Outcome
		failure *Error
	)
	for {
		var ev event
		switch st {
		case stateDone:
			logger.Info("Recognized receipt", "engine", outcome.Engine, "chars", len(outcome.Text))
			return outcome, nil
		case stateFailed:
			return nil, failure

		case stateTryingRemote:
			logger.Debug("Trying remote recognition", "mode", req.Mode)
			text, err := d.recognizeRemote(ctx, img, lang, req)
			if err == nil {
				outcome = &Outcome{Text: text, Engine: EngineRemote}
				ev = eventSucceeded
				break
			}
			failure = stageError(StageRemote, err)
			ev = policy.remoteFailed()
			if ev == eventFallback {
				logger.Warn("Remote recognition failed, falling back to local", "error", err)
			} else {
				logger.Error("Remote recognition failed", "error", err)
			}

		case stateTryingLocal:
			logger.Debug("Trying local recognition", "mode", req.Mode)
			text, err := d.local.Recognize(ctx, img, lang, "", req.OnProgress)
			if err == nil {
				outcome = &Outcome{Text: text, Engine: EngineLocal}
				ev = eventSucceeded
				break
			}
			failure = stageError(StageLocal, err)
			ev = eventAbort
			logger.Error("Local recognition failed", "error", err)
		}

		if st, err = next(st, ev); err != nil {
			return nil, stageError(StageLocal, err)
		}
	}
}

func (d *Dispatcher) recognizeRemote(ctx context.Context, img *Image, lang string, req Request) (string, error) {
	if d.remote == nil {
		return "", errors.New("no remote recognizer configured")
	}
	return d.remote.Recognize(ctx, img, lang, req.Credential, req.OnProgress)
}

// Close releases both recognizers.
func (d *Dispatcher) Close() error {
	var errs []error
	if d.remote != nil {
		errs = append(errs, d.remote.Close())
	}
	errs = append(errs, d.local.Close())
	return errors.Join(errs...)
}
