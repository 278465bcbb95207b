package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/partstock/internal/config"
	"github.com/mamadbah2/partstock/internal/domain/models"
	"github.com/mamadbah2/partstock/internal/service/commands"
	client "github.com/mamadbah2/partstock/pkg/clients/whatsapp"
	pkgerrors "github.com/mamadbah2/partstock/pkg/errors"
)

// ErrNoAlertRecipient is returned by Notify when WHATSAPP_ALERT_RECIPIENT is unset.
var ErrNoAlertRecipient = errors.New("no whatsapp alert recipient configured")

const (
	sendTimeout = 10 * time.Second
	// WhatsApp redelivers webhooks it considers unacknowledged; remembering
	// recent message ids keeps a redelivered /out from moving stock twice.
	seenCapacity = 512
)

// MessagingService describes the operations the HTTP layer can perform.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg        config.WhatsAppConfig
	client     client.Client
	dispatcher commands.Dispatcher
	logger     *zap.Logger

	mu       sync.Mutex
	seen     map[string]struct{}
	seenRing []string
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, dispatcher commands.Dispatcher, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:        cfg,
		client:     client,
		dispatcher: dispatcher,
		logger:     logger,
		seen:       make(map[string]struct{}),
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

var unknownCommandReply = models.AutomationReply{
	Title:   "Command Help",
	Message: "Unknown command. Send /help for the list of inventory commands.",
}

// VerifyWebhookToken validates the callback verification token.
func (s *MetaWhatsAppService) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if mode == "" || verifyToken == "" {
		return "", errors.New("missing mode or verify token")
	}

	if !strings.EqualFold(mode, "subscribe") {
		return "", fmt.Errorf("unsupported hub.mode %s", mode)
	}

	if verifyToken != s.cfg.VerifyToken {
		return "", errors.New("invalid verify token")
	}

	return challenge, nil
}

// HandleWebhook runs every operator command in payload and replies to each sender.
func (s *MetaWhatsAppService) HandleWebhook(ctx context.Context, payload models.WebhookPayload) error {
	var firstErr error

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				sender := change.Value.SenderName(msg.From)
				if sender == "" {
					sender = msg.From
				}
				if err := s.handleInboundMessage(ctx, msg, sender); err != nil {
					s.logger.Error("failed to handle inbound message", zap.Error(err), zap.String("message_id", msg.ID))
					if firstErr == nil {
						firstErr = err
					}
				}
			}
		}
	}

	return firstErr
}

func (s *MetaWhatsAppService) handleInboundMessage(ctx context.Context, msg models.InboundMessage, sender string) error {
	if !s.markSeen(msg.ID) {
		s.logger.Debug("skipping redelivered message", zap.String("message_id", msg.ID))
		return nil
	}

	text := extractMessageText(msg)
	if text == "" {
		s.logger.Debug("ignoring message without text", zap.String("type", msg.Type), zap.String("from", msg.From))
		return nil
	}

	cmd := models.ParseCommand(text)
	s.logger.Info("parsed inbound command",
		zap.String("from", msg.From),
		zap.String("command", string(cmd.Type)),
		zap.Any("args", cmd.Args))

	reply, handleErr := s.reply(ctx, cmd, sender)

	if err := s.send(ctx, msg.From, reply, false); err != nil {
		return err
	}
	return handleErr
}

// reply runs cmd and turns its outcome into the text sent back. Only
// unexpected failures are returned as errors; operator mistakes become replies.
func (s *MetaWhatsAppService) reply(ctx context.Context, cmd models.Command, sender string) (string, error) {
	if cmd.Type == models.CommandUnknown || s.dispatcher == nil {
		return unknownCommandReply.String(), nil
	}

	out, err := s.dispatcher.HandleCommand(ctx, cmd, sender)
	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, commands.ErrInvalidArguments):
		return "Usage: " + commands.UsageFor(cmd.Type), nil
	case errors.Is(err, commands.ErrUnsupportedCommand):
		return unknownCommandReply.String(), nil
	}

	if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() != pkgerrors.CodeInternal {
		return describe(appErr), nil
	}
	return "Something went wrong while running that command. Please try again.", err
}

// SendOutbound lets internal operators push quick notifications via HTTP.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	return s.send(ctx, req.To, req.Message, req.PreviewURL)
}

// Notify sends message to the configured alert recipient.
func (s *MetaWhatsAppService) Notify(ctx context.Context, message string) error {
	if s.cfg.AlertRecipient == "" {
		return ErrNoAlertRecipient
	}
	return s.send(ctx, s.cfg.AlertRecipient, message, false)
}

func (s *MetaWhatsAppService) send(ctx context.Context, to, body string, previewURL bool) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	resp, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         to,
		Body:       body,
		PreviewURL: previewURL,
	})
	if err != nil {
		return err
	}
	s.logger.Debug("whatsapp message sent", zap.String("to", to), zap.String("message_id", resp.MessageID()))
	return nil
}

// markSeen records id and reports whether it was new. Messages without an id
// are always processed.
func (s *MetaWhatsAppService) markSeen(id string) bool {
	if id == "" {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.seen[id]; dup {
		return false
	}
	if len(s.seenRing) >= seenCapacity {
		delete(s.seen, s.seenRing[0])
		s.seenRing = s.seenRing[1:]
	}
	s.seen[id] = struct{}{}
	s.seenRing = append(s.seenRing, id)
	return true
}

func describe(err *pkgerrors.Error) string {
	details, ok := err.Details().(map[string]string)
	if !ok || len(details) == 0 {
		return err.Message()
	}

	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+details[k])
	}
	return err.Message() + ": " + strings.Join(parts, ", ")
}

func extractMessageText(msg models.InboundMessage) string {
	if msg.Text != nil {
		return strings.TrimSpace(msg.Text.Body)
	}

	if msg.Interactive != nil {
		if msg.Interactive.ButtonReply != nil {
			return msg.Interactive.ButtonReply.ID
		}
		if msg.Interactive.ListReply != nil {
			return msg.Interactive.ListReply.ID
		}
	}

	return ""
}
