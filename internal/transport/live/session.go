package live

import (
	"encoding/json"
	"errors"
	"time"

	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/engine"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// session owns one connection. Only writeLoop writes to conn.
type session struct {
	handles uint64

	conn *websocket.Conn
	log  *zap.Logger

	out        chan outboundMessage
	quit       chan struct{}
	writerDone chan struct{}
}

func newSession(conn *websocket.Conn, log *zap.Logger) *session {
	return &session{
		conn:       conn,
		log:        log,
		out:        make(chan outboundMessage, sendBuffer),
		quit:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}
}

// send queues msg for the writer. It reports false once the connection is
// going away.
func (s *session) send(msg outboundMessage) bool {
	select {
	case <-s.quit:
		return false
	case <-s.writerDone:
		return false
	default:
	}
	select {
	case s.out <- msg:
		return true
	case <-s.quit:
		return false
	case <-s.writerDone:
		return false
	}
}

func (s *session) sendError(err error) {
	p := errorPayload{Code: string(domain.CodeInternal), Message: err.Error()}
	var domainErr *domain.DomainError
	var validationErrs domain.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		p.Code = string(domain.CodeValidation)
		p.Details = validationErrs
	case errors.As(err, &domainErr):
		p.Code = string(domainErr.Code)
		p.Message = domainErr.Message
	}
	s.send(outboundMessage{Type: TypeError, Payload: p})
}

func (s *session) writeLoop() {
	defer close(s.writerDone)
	for {
		select {
		case msg := <-s.out:
			if err := s.write(msg); err != nil {
				s.log.Debug("ws write error", zap.Error(err))
				return
			}
		case <-s.quit:
			for {
				select {
				case msg := <-s.out:
					if err := s.write(msg); err != nil {
						return
					}
				default:
					_ = s.conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
						time.Now().Add(writeWait))
					return
				}
			}
		}
	}
}

func (s *session) write(msg outboundMessage) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(msg)
}

// readLoop dispatches inbound events to run until the client goes away.
func (s *session) readLoop(run *engine.Run) {
	for {
		var in inboundMessage
		if err := s.conn.ReadJSON(&in); err != nil {
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				s.sendError(domain.NewInvalidInputError("message is not valid JSON"))
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("ws read error", zap.Error(err))
			}
			return
		}
		if err := s.dispatch(run, in); err != nil {
			s.sendError(err)
		}
	}
}

func (s *session) dispatch(run *engine.Run, in inboundMessage) error {
	switch in.Type {
	case TypeSelect:
		var p selectPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return domain.NewInvalidInputError("invalid select payload")
		}
		return run.SelectOption(p.Option)
	case TypeSubmit:
		var p submitPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return domain.NewInvalidInputError("invalid submit payload")
		}
		if snap := run.Snapshot(); snap.Session != nil {
			var errs domain.ValidationErrors
			for _, f := range snap.Session.MissingFields(p.Values) {
				errs = append(errs, domain.NewMissingFieldError(f))
			}
			if len(errs) > 0 {
				return errs
			}
		}
		return run.SubmitForm(p.Values)
	case TypeContinue:
		return run.Continue()
	case TypeViewResult:
		return run.ViewResult()
	default:
		return domain.NewInvalidInputError("unsupported message type").WithContext("type", in.Type)
	}
}

// shutdown flushes queued messages, closes the socket and waits for the writer.
func (s *session) shutdown() {
	close(s.quit)
	<-s.writerDone
	_ = s.conn.Close()
}
