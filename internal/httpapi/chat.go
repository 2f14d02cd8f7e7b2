package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gradfund/counselor/internal/counsel"
)

// resetResponse mirrors the reset short-circuit reply of the chat endpoint.
const resetResponse = "Conversation reset successfully"

var requiredStudentFields = []string{
	"name",
	"origin_country",
	"destination_country",
	"loan_amount_needed",
	"course_of_study",
}

type chatRequest struct {
	Message        *string        `json:"message"`
	StudentDetails map[string]any `json:"student_details"`
	UserID         *string        `json:"userId"`
}

// validate checks field presence only; the core never validates content.
func (req *chatRequest) validate() string {
	var missing []string
	if req.Message == nil {
		missing = append(missing, "message")
	}
	if req.StudentDetails == nil {
		missing = append(missing, "student_details")
	}
	if req.UserID == nil {
		missing = append(missing, "userId")
	}
	if len(missing) > 0 {
		return "Missing required fields: " + strings.Join(missing, ", ")
	}

	var missingStudent []string
	for _, field := range requiredStudentFields {
		if _, ok := req.StudentDetails[field]; !ok {
			missingStudent = append(missingStudent, field)
		}
	}
	if len(missingStudent) > 0 {
		return "Missing required student details: " + strings.Join(missingStudent, ", ")
	}
	return ""
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		if errors.Is(err, errEmptyBody) {
			respondError(w, http.StatusBadRequest, "Request body is empty")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	status, payload := s.processChat(r.Context(), &req)
	respondJSON(w, status, payload)
}

// processChat runs one chat request to completion. It is shared by the REST
// endpoint and the websocket loop, and owns the request timeout: the
// orchestrator itself never enforces one.
func (s *Server) processChat(ctx context.Context, req *chatRequest) (int, any) {
	if msg := req.validate(); msg != "" {
		return http.StatusBadRequest, map[string]string{"error": msg}
	}

	message := *req.Message
	userID := *req.UserID
	details := counsel.StudentDetails(req.StudentDetails)
	details["userId"] = userID

	if strings.EqualFold(strings.TrimSpace(message), "reset") {
		s.counselor.ResetConversation(ctx, userID)
		return http.StatusOK, map[string]string{"response": resetResponse}
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	result, err := s.counselor.GetRecommendation(ctx, details, message, userID)
	if err != nil {
		return http.StatusBadGateway, map[string]string{
			"error": "An error occurred while generating a recommendation: " + err.Error(),
		}
	}
	return http.StatusOK, map[string]any{"response": result}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID *string `json:"userId"`
	}
	if err := decodeJSON(r, &req); err != nil || req.UserID == nil {
		respondError(w, http.StatusBadRequest, "Missing userId in request")
		return
	}

	s.counselor.ResetConversation(r.Context(), *req.UserID)
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Conversation history cleared successfully",
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if strings.TrimSpace(userID) == "" {
		respondError(w, http.StatusBadRequest, "missing userID")
		return
	}

	exchanges := s.chatLog.ByUser(userID)
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":   userID,
		"exchanges": exchanges,
	})
}

// handleChatWS serves the same chat contract over one websocket connection:
// each text frame is a chat request, each reply frame a chat response.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(1 << 20)

	for {
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		_, payload := s.processChat(r.Context(), &req)
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(payload); err != nil {
			return
		}
	}
}
