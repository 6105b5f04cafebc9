package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/chatassist/internal/common"
	"github.com/dmitrijs2005/chatassist/internal/logging"
	"github.com/dmitrijs2005/chatassist/internal/server/completion"
	"github.com/dmitrijs2005/chatassist/internal/server/models"
	"github.com/dmitrijs2005/chatassist/internal/server/repositories/repomanager"
)

// titleLimit is how many characters of the first message become the title.
const titleLimit = 50

// Completer produces an assistant reply for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (*completion.Result, error)
}

// MessageInput is a new user message, optionally with an uploaded file.
type MessageInput struct {
	Content  string
	FileURL  string
	FileName string
	FileType string
}

// Reply is a persisted assistant message and the model that wrote it.
type Reply struct {
	Message *models.Message
	Model   string
}

// ChatService owns chats and their messages. Every operation checks that the
// chat belongs to the caller; foreign chats look exactly like missing ones.
type ChatService struct {
	repos     repomanager.RepositoryManager
	completer Completer
	logger    logging.Logger
}

// NewChatService wires the service. A nil completer means no API key is
// configured and Complete fails with ErrorAPIKeyMissing.
func NewChatService(repos repomanager.RepositoryManager, completer Completer, logger logging.Logger) *ChatService {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &ChatService{repos: repos, completer: completer, logger: logger}
}

func (s *ChatService) ownedChat(ctx context.Context, r repomanager.Repositories, userID, chatID string) (*models.Chat, error) {
	chat, err := r.Chats().FindByID(ctx, chatID)
	if errors.Is(err, common.ErrorNotFound) || (err == nil && chat.UserID != userID) {
		return nil, common.NewNotFoundError(MsgChatNotFound)
	}
	if err != nil {
		return nil, err
	}
	return chat, nil
}

func (s *ChatService) chatMessage(ctx context.Context, r repomanager.Repositories, chatID, messageID string) (*models.Message, error) {
	msg, err := r.Messages().FindByID(ctx, messageID)
	if errors.Is(err, common.ErrorNotFound) || (err == nil && msg.ChatID != chatID) {
		return nil, common.NewNotFoundError(MsgMessageNotFound)
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *ChatService) ListChats(ctx context.Context, userID string) ([]*models.Chat, error) {
	chats, err := s.repos.Chats().FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if chats == nil {
		chats = []*models.Chat{}
	}
	return chats, nil
}

func (s *ChatService) CreateChat(ctx context.Context, userID, title string) (*models.Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = models.DefaultChatTitle
	}
	return s.repos.Chats().Create(ctx, &models.Chat{UserID: userID, Title: title})
}

func (s *ChatService) RenameChat(ctx context.Context, userID, chatID, title string) (*models.Chat, error) {
	if _, err := s.ownedChat(ctx, s.repos, userID, chatID); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = models.DefaultChatTitle
	}
	return s.repos.Chats().Update(ctx, chatID, models.ChatPatch{Title: &title})
}

func (s *ChatService) DeleteChat(ctx context.Context, userID, chatID string) error {
	if _, err := s.ownedChat(ctx, s.repos, userID, chatID); err != nil {
		return err
	}
	return s.repos.Chats().Delete(ctx, chatID)
}

func (s *ChatService) ListMessages(ctx context.Context, userID, chatID string) ([]*models.Message, error) {
	if _, err := s.ownedChat(ctx, s.repos, userID, chatID); err != nil {
		return nil, err
	}
	msgs, err := s.repos.Messages().FindByChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []*models.Message{}
	}
	return msgs, nil
}

// AddMessage stores a user message. The first message of a chat also
// becomes its title.
func (s *ChatService) AddMessage(ctx context.Context, userID, chatID string, in MessageInput) (*models.Message, error) {
	var created *models.Message

	err := s.repos.Atomic(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		if _, err := s.ownedChat(ctx, r, userID, chatID); err != nil {
			return err
		}

		msg, err := r.Messages().Create(ctx, &models.Message{
			ChatID:   chatID,
			Role:     models.RoleUser,
			Content:  in.Content,
			FileURL:  in.FileURL,
			FileName: in.FileName,
			FileType: in.FileType,
		})
		if err != nil {
			return err
		}
		created = msg

		msgs, err := r.Messages().FindByChatID(ctx, chatID)
		if err != nil {
			return err
		}
		if len(msgs) == 1 && strings.TrimSpace(in.Content) != "" {
			title := TitleFromContent(in.Content)
			if _, err := r.Chats().Update(ctx, chatID, models.ChatPatch{Title: &title}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *ChatService) EditMessage(ctx context.Context, userID, chatID, messageID, content string) (*models.Message, error) {
	if _, err := s.ownedChat(ctx, s.repos, userID, chatID); err != nil {
		return nil, err
	}
	if _, err := s.chatMessage(ctx, s.repos, chatID, messageID); err != nil {
		return nil, err
	}
	return s.repos.Messages().Update(ctx, messageID, models.MessagePatch{Content: &content})
}

func (s *ChatService) DeleteMessage(ctx context.Context, userID, chatID, messageID string) error {
	if _, err := s.ownedChat(ctx, s.repos, userID, chatID); err != nil {
		return err
	}
	if _, err := s.chatMessage(ctx, s.repos, chatID, messageID); err != nil {
		return err
	}
	return s.repos.Messages().Delete(ctx, messageID)
}

// Complete asks the completion gateway to answer content and stores the
// answer as an assistant message, bumping the chat's UpdatedAt in the same
// unit of work.
func (s *ChatService) Complete(ctx context.Context, userID, chatID, content string) (*Reply, error) {
	if s.completer == nil {
		s.logger.Error(ctx, "completion requested but no API key is configured")
		return nil, common.ErrorAPIKeyMissing
	}
	if _, err := s.ownedChat(ctx, s.repos, userID, chatID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, common.NewValidationError(MsgContentRequired)
	}

	res, err := s.completer.Complete(ctx, content)
	if err != nil {
		return nil, err
	}

	var msg *models.Message
	err = s.repos.Atomic(ctx, func(ctx context.Context, r repomanager.Repositories) error {
		m, err := r.Messages().Create(ctx, &models.Message{
			ChatID:  chatID,
			Role:    models.RoleAssistant,
			Content: res.Text,
		})
		if err != nil {
			return err
		}
		msg = m

		_, err = r.Chats().Update(ctx, chatID, models.ChatPatch{})
		return err
	})
	if err != nil {
		return nil, err
	}

	return &Reply{Message: msg, Model: res.Model}, nil
}

// TitleFromContent is the first 50 characters of content, with "..." when
// it was cut.
func TitleFromContent(content string) string {
	if utf8.RuneCountInString(content) <= titleLimit {
		return content
	}
	return string([]rune(content)[:titleLimit]) + "..."
}
