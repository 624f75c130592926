package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"yyss-assistant/internal/assistant"
	"yyss-assistant/internal/cache"
	"yyss-assistant/internal/model"
	"yyss-assistant/internal/platform/logger"
	"yyss-assistant/internal/repository"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrNoDocument       = errors.New("no document uploaded")
	ErrDocumentTooLarge = errors.New("document exceeds upload limit")
	ErrRateLimited      = errors.New("too many messages, slow down")
)

const defaultSessionTitle = "New Session"

// TurnArchive receives completed exchanges for the transcript archive.
type TurnArchive interface {
	Publish(ctx context.Context, turns ...model.ArchivedTurn) error
}

// TurnLimiter decides whether a user may send another message.
type TurnLimiter interface {
	Allow(ctx context.Context, userID uint) (cache.Decision, error)
}

type AssistantService struct {
	sessionRepo *repository.AssistantSessionRepository
	registry    *SessionRegistry
	archive     TurnArchive
	limiter     TurnLimiter
	maxUpload   int64
	log         *logger.Logger
}

type CreateSessionInput struct {
	UserID uint
	Title  string
}

type UploadDocumentInput struct {
	UserID    uint
	SessionID string
	Name      string
	MIMEType  string
	Data      []byte
}

type SendMessageInput struct {
	UserID    uint
	SessionID string
	Content   string
}

type SessionView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Phase       string    `json:"phase"`
	HasDocument bool      `json:"has_document"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type DocumentView struct {
	Name       string    `json:"name"`
	UploadedAt time.Time `json:"uploaded_at"`
	Characters int       `json:"characters"`
	Preview    string    `json:"preview"`
}

type SendMessageResult struct {
	User      TurnView              `json:"user"`
	Assistant TurnView              `json:"assistant"`
	Source    assistant.ReplySource `json:"source"`
}

type TurnView struct {
	Role      assistant.Role `json:"role"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewAssistantService wires the live session registry to its database
// record. archive and limiter are optional.
func NewAssistantService(
	sessionRepo *repository.AssistantSessionRepository,
	registry *SessionRegistry,
	archive TurnArchive,
	limiter TurnLimiter,
	maxUpload int64,
	log *logger.Logger,
) *AssistantService {
	if log == nil {
		log = logger.Nop()
	}
	return &AssistantService{
		sessionRepo: sessionRepo,
		registry:    registry,
		archive:     archive,
		limiter:     limiter,
		maxUpload:   maxUpload,
		log:         log,
	}
}

func (s *AssistantService) CreateSession(ctx context.Context, input CreateSessionInput) (*SessionView, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = defaultSessionTitle
	}

	id, session := s.registry.Open(input.UserID)
	record := &model.AssistantSession{ID: id, UserID: input.UserID, Title: title}
	if err := s.sessionRepo.Create(ctx, record); err != nil {
		s.registry.Remove(input.UserID, id)
		return nil, err
	}

	s.log.Info("assistant session opened", "session_id", id, "user_id", input.UserID)
	view := s.view(*record, session)
	return &view, nil
}

func (s *AssistantService) ListSessions(ctx context.Context, userID uint) ([]SessionView, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	records, err := s.sessionRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]SessionView, 0, len(records))
	for _, record := range records {
		session, _ := s.registry.Peek(userID, record.ID)
		views = append(views, s.view(record, session))
	}
	return views, nil
}

// DeleteSession ends the session. Its document and history are discarded.
func (s *AssistantService) DeleteSession(ctx context.Context, userID uint, sessionID string) error {
	if userID == 0 || strings.TrimSpace(sessionID) == "" {
		return ErrInvalidInput
	}
	if err := s.sessionRepo.DeleteByIDAndUserID(ctx, sessionID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	s.registry.Remove(userID, sessionID)
	s.log.Info("assistant session ended", "session_id", sessionID, "user_id", userID)
	return nil
}

func (s *AssistantService) UploadDocument(ctx context.Context, input UploadDocumentInput) (*DocumentView, error) {
	if s.maxUpload > 0 && int64(len(input.Data)) > s.maxUpload {
		return nil, ErrDocumentTooLarge
	}
	session, err := s.session(ctx, input.UserID, input.SessionID)
	if err != nil {
		return nil, err
	}

	record, err := session.HandleUpload(input.Name, input.Data, input.MIMEType)
	if err != nil {
		s.log.Warn("document upload rejected", "session_id", input.SessionID, "file", input.Name, "error", err)
		return nil, err
	}
	s.touch(ctx, input.SessionID)

	s.log.Info("document uploaded", "session_id", input.SessionID, "file", record.Name, "chars", len([]rune(record.Body)))
	view := documentView(record)
	return &view, nil
}

func (s *AssistantService) GetDocument(ctx context.Context, userID uint, sessionID string) (*DocumentView, error) {
	session, err := s.session(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	record, ok := session.Document()
	if !ok {
		return nil, ErrNoDocument
	}
	view := documentView(record)
	return &view, nil
}

// SendMessage runs one turn. A failed generation still produces a reply;
// the failure is only logged.
func (s *AssistantService) SendMessage(ctx context.Context, input SendMessageInput) (*SendMessageResult, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, assistant.ErrEmptyMessage
	}
	session, err := s.session(ctx, input.UserID, input.SessionID)
	if err != nil {
		return nil, err
	}
	if err := s.checkRate(ctx, input.UserID); err != nil {
		return nil, err
	}

	exchange, err := session.HandleMessage(ctx, input.Content)
	if err != nil {
		return nil, err
	}
	if exchange.GenerationErr != nil {
		s.log.Warn("generation failed, replied with apology",
			"session_id", input.SessionID,
			"error", exchange.GenerationErr,
		)
	}
	s.log.Debug("assistant turn", "session_id", input.SessionID, "source", exchange.Source)

	s.touch(ctx, input.SessionID)
	s.archiveExchange(ctx, input.UserID, input.SessionID, exchange)

	return &SendMessageResult{
		User:      turnView(exchange.User),
		Assistant: turnView(exchange.Assistant),
		Source:    exchange.Source,
	}, nil
}

func (s *AssistantService) GetHistory(ctx context.Context, userID uint, sessionID string) ([]TurnView, error) {
	session, err := s.session(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	turns := session.History()
	views := make([]TurnView, 0, len(turns))
	for _, turn := range turns {
		views = append(views, turnView(turn))
	}
	return views, nil
}

// ResetSession clears the conversation and keeps the document.
func (s *AssistantService) ResetSession(ctx context.Context, userID uint, sessionID string) error {
	session, err := s.session(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	session.Reset()
	s.touch(ctx, sessionID)
	s.log.Info("assistant session reset", "session_id", sessionID)
	return nil
}

// RunJanitor expires idle sessions until ctx is done.
func (s *AssistantService) RunJanitor(ctx context.Context, interval time.Duration) {
	s.registry.Run(ctx, interval, func(expired ExpiredSession) {
		deleteCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.sessionRepo.DeleteByID(deleteCtx, expired.ID); err != nil {
			s.log.Warn("delete expired session failed", "session_id", expired.ID, "error", err)
			return
		}
		s.log.Info("assistant session expired", "session_id", expired.ID, "user_id", expired.UserID)
	})
}

// session resolves a live session owned by userID. A session that is
// recorded but not live, for example after a restart, starts over empty.
func (s *AssistantService) session(ctx context.Context, userID uint, sessionID string) (*assistant.Session, error) {
	if userID == 0 || strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidInput
	}
	if session, ok := s.registry.Get(userID, sessionID); ok {
		return session, nil
	}

	record, err := s.sessionRepo.GetByIDAndUserID(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrSessionNotFound
	}
	session, ok := s.registry.Attach(userID, sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *AssistantService) checkRate(ctx context.Context, userID uint) error {
	if s.limiter == nil {
		return nil
	}
	decision, err := s.limiter.Allow(ctx, userID)
	if err != nil {
		s.log.Warn("rate limiter unavailable, allowing turn", "user_id", userID, "error", err)
		return nil
	}
	if !decision.Allowed {
		return fmt.Errorf("%w: retry in %s", ErrRateLimited, decision.ResetIn.Round(time.Second))
	}
	return nil
}

func (s *AssistantService) touch(ctx context.Context, sessionID string) {
	if err := s.sessionRepo.Touch(ctx, sessionID); err != nil {
		s.log.Warn("touch session failed", "session_id", sessionID, "error", err)
	}
}

func (s *AssistantService) archiveExchange(ctx context.Context, userID uint, sessionID string, exchange assistant.Exchange) {
	if s.archive == nil {
		return
	}
	turns := []model.ArchivedTurn{
		{
			SessionID: sessionID,
			UserID:    userID,
			Role:      string(exchange.User.Role),
			Content:   exchange.User.Text,
			CreatedAt: exchange.User.CreatedAt,
		},
		{
			SessionID: sessionID,
			UserID:    userID,
			Role:      string(exchange.Assistant.Role),
			Content:   exchange.Assistant.Text,
			Source:    string(exchange.Source),
			CreatedAt: exchange.Assistant.CreatedAt,
		},
	}
	if err := s.archive.Publish(ctx, turns...); err != nil {
		s.log.Warn("archive exchange failed", "session_id", sessionID, "error", err)
	}
}

func (s *AssistantService) view(record model.AssistantSession, session *assistant.Session) SessionView {
	view := SessionView{
		ID:        record.ID,
		Title:     record.Title,
		Phase:     assistant.WaitingForInput.String(),
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
	if session != nil {
		view.Phase = session.Phase().String()
		_, view.HasDocument = session.Document()
	}
	return view
}

func documentView(record assistant.DocumentRecord) DocumentView {
	return DocumentView{
		Name:       record.Name,
		UploadedAt: record.UploadedAt,
		Characters: len([]rune(record.Body)),
		Preview:    record.Preview(assistant.DefaultPreviewChars),
	}
}

func turnView(turn assistant.Turn) TurnView {
	return TurnView{Role: turn.Role, Content: turn.Text, CreatedAt: turn.CreatedAt}
}
