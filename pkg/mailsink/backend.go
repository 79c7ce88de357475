package mailsink

import (
	"errors"
	"io"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/mailcanvas/mailcanvas/pkg/logger"
)

// Credentials gate the sink behind AUTH PLAIN. The zero value accepts
// anonymous senders.
type Credentials struct {
	Username string
	Password string
}

func (c Credentials) required() bool {
	return c.Username != "" || c.Password != ""
}

// Backend implements smtp.Backend, storing every accepted message in an Inbox
type Backend struct {
	inbox       *Inbox
	credentials Credentials
	logger      logger.Logger
}

func NewBackend(inbox *Inbox, credentials Credentials, logger logger.Logger) *Backend {
	return &Backend{
		inbox:       inbox,
		credentials: credentials,
		logger:      logger,
	}
}

// NewSession is called when a client connects
func (b *Backend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &Session{backend: b, authenticated: !b.credentials.required()}, nil
}

// Session handles a single SMTP connection
type Session struct {
	backend       *Backend
	authenticated bool
	from          string
	to            []string
}

var errNotAuthenticated = &smtp.SMTPError{
	Code:         530,
	EnhancedCode: smtp.EnhancedCode{5, 7, 0},
	Message:      "Authentication required",
}

var errUnknownMechanism = &smtp.SMTPError{
	Code:         504,
	EnhancedCode: smtp.EnhancedCode{5, 7, 4},
	Message:      "Unsupported authentication mechanism",
}

func (s *Session) AuthMechanisms() []string {
	return []string{sasl.Plain}
}

func (s *Session) Auth(mech string) (sasl.Server, error) {
	if mech != sasl.Plain {
		return nil, errUnknownMechanism
	}
	return sasl.NewPlainServer(func(identity, username, password string) error {
		return s.login(username, password)
	}), nil
}

func (s *Session) login(username, password string) error {
	creds := s.backend.credentials
	if username != creds.Username || password != creds.Password {
		s.backend.logger.WithField("username", username).Warn("Dev inbox: authentication failed")
		return errors.New("invalid credentials")
	}
	s.authenticated = true
	return nil
}

func (s *Session) Mail(from string, _ *smtp.MailOptions) error {
	if !s.authenticated {
		return errNotAuthenticated
	}
	s.from = from
	return nil
}

func (s *Session) Rcpt(to string, _ *smtp.RcptOptions) error {
	if !s.authenticated {
		return errNotAuthenticated
	}
	s.to = append(s.to, to)
	return nil
}

func (s *Session) Data(r io.Reader) error {
	if !s.authenticated {
		return errNotAuthenticated
	}

	data, err := io.ReadAll(r)
	if err != nil {
		s.backend.logger.WithField("error", err.Error()).Error("Dev inbox: failed to read message data")
		return errors.New("failed to read message")
	}

	msg := s.backend.inbox.Add(s.from, s.to, data)
	s.backend.logger.WithFields(map[string]interface{}{
		"message_id": msg.ID,
		"from":       msg.From,
		"to":         msg.To,
		"size":       msg.Size,
	}).Info("Dev inbox: message captured")

	return nil
}

func (s *Session) Reset() {
	s.from = ""
	s.to = nil
}

func (s *Session) Logout() error {
	return nil
}
