package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/chatassist/internal/server/models"
	"github.com/dmitrijs2005/chatassist/internal/server/services"
	"github.com/gorilla/mux"
)

type chatRequest struct {
	Title string `json:"title"`
}

type messageRequest struct {
	Content  string `json:"content"`
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
}

type completeRequest struct {
	ChatID  string `json:"chatId"`
	Content string `json:"content"`
}

type chatResponse struct {
	Chat *models.Chat `json:"chat"`
}

type chatsResponse struct {
	Chats []*models.Chat `json:"chats"`
}

type messageResponse struct {
	Message *models.Message `json:"message"`
}

type messagesResponse struct {
	Messages []*models.Message `json:"messages"`
}

type completeResponse struct {
	Message *models.Message `json:"message"`
	Model   string          `json:"model"`
}

func (s *HTTPServer) listChats(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	chats, err := s.chats.ListChats(r.Context(), u.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatsResponse{Chats: chats})
}

func (s *HTTPServer) createChat(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req chatRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	chat, err := s.chats.CreateChat(r.Context(), u.ID, req.Title)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Chat: chat})
}

func (s *HTTPServer) renameChat(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	chat, err := s.chats.RenameChat(r.Context(), u.ID, mux.Vars(r)["chatId"], req.Title)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Chat: chat})
}

func (s *HTTPServer) deleteChat(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	if err := s.chats.DeleteChat(r.Context(), u.ID, mux.Vars(r)["chatId"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successBody{Success: true})
}

func (s *HTTPServer) listMessages(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	msgs, err := s.chats.ListMessages(r.Context(), u.ID, mux.Vars(r)["chatId"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messagesResponse{Messages: msgs})
}

func (s *HTTPServer) createMessage(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req messageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := s.chats.AddMessage(r.Context(), u.ID, mux.Vars(r)["chatId"], services.MessageInput{
		Content:  req.Content,
		FileURL:  req.FileURL,
		FileName: req.FileName,
		FileType: req.FileType,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

func (s *HTTPServer) editMessage(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req messageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	vars := mux.Vars(r)
	msg, err := s.chats.EditMessage(r.Context(), u.ID, vars["chatId"], vars["messageId"], req.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

func (s *HTTPServer) deleteMessage(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	vars := mux.Vars(r)
	if err := s.chats.DeleteMessage(r.Context(), u.ID, vars["chatId"], vars["messageId"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successBody{Success: true})
}

func (s *HTTPServer) complete(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req completeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := s.chats.Complete(r.Context(), u.ID, req.ChatID, req.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, completeResponse{Message: reply.Message, Model: reply.Model})
}
