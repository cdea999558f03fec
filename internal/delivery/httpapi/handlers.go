package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/aliskhannn/spanish-trainer/internal/domain/entities"
	"github.com/aliskhannn/spanish-trainer/internal/service"
)

type progressResponse struct {
	Progress *entities.ProgressRecord `json:"progress"`
	Summary  service.Summary          `json:"summary"`
}

type answerRequest struct {
	Correct bool `json:"correct"`
	XP      int  `json:"xp"`
}

type xpRequest struct {
	Amount int `json:"amount"`
}

type lessonRequest struct {
	XP int `json:"xp"`
}

type lessonResponse struct {
	First bool `json:"first"`
	progressResponse
}

// settingsRequest patches settings; absent fields keep their value.
type settingsRequest struct {
	VoiceURI    *string `json:"voiceURI"`
	AutoSpeak   *bool   `json:"autoSpeak"`
	DailyGoalXP *int    `json:"dailyGoalXp"`
}

type vocabRequest struct {
	Words   []string `json:"words"`
	Correct bool     `json:"correct"`
}

// GET /api/progress
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	s.withLedger(w, r, func(l *service.Ledger) (any, error) {
		return s.progress(r, l), nil
	})
}

// POST /api/progress/answer
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.withLedger(w, r, func(l *service.Ledger) (any, error) {
		l.SubmitAnswer(r.Context(), req.Correct, req.XP)
		return s.progress(r, l), nil
	})
}

// POST /api/progress/xp
func (s *Server) handleAwardXP(w http.ResponseWriter, r *http.Request) {
	var req xpRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.withLedger(w, r, func(l *service.Ledger) (any, error) {
		l.AwardXP(r.Context(), req.Amount)
		return s.progress(r, l), nil
	})
}

// POST /api/progress/lessons/{id}/complete
func (s *Server) handleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	lessonID := r.PathValue("id")
	if lessonID == "" {
		writeError(w, http.StatusBadRequest, "missing lesson id")
		return
	}

	var req lessonRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.withLedger(w, r, func(l *service.Ledger) (any, error) {
		first := l.CompleteLesson(r.Context(), lessonID, req.XP)
		return lessonResponse{First: first, progressResponse: s.progress(r, l)}, nil
	})
}

// POST /api/progress/vocab
func (s *Server) handleVocab(w http.ResponseWriter, r *http.Request) {
	var req vocabRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.withLedger(w, r, func(l *service.Ledger) (any, error) {
		l.RecordVocab(r.Context(), req.Words, req.Correct)
		return s.progress(r, l), nil
	})
}

// POST /api/progress/reset
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.withLedger(w, r, func(l *service.Ledger) (any, error) {
		l.ResetProgress(r.Context())
		return s.progress(r, l), nil
	})
}

// POST /api/progress/import
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	s.withLedger(w, r, func(l *service.Ledger) (any, error) {
		if err := l.Import(r.Context(), data); err != nil {
			return nil, err
		}
		return s.progress(r, l), nil
	})
}

// GET /api/progress/export
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.withLedger(w, r, func(l *service.Ledger) (any, error) {
		payload := l.Export(r.Context())
		w.Header().Set("Content-Disposition", `attachment; filename="spanish-trainer-export.json"`)
		return payload, nil
	})
}

// GET /api/settings
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.withLedger(w, r, func(l *service.Ledger) (any, error) {
		return l.Settings(r.Context()), nil
	})
}

// PUT /api/settings
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.withLedger(w, r, func(l *service.Ledger) (any, error) {
		l.UpdateSettings(r.Context(), func(st *entities.Settings) {
			if req.VoiceURI != nil {
				st.VoiceURI = *req.VoiceURI
			}
			if req.AutoSpeak != nil {
				st.AutoSpeak = *req.AutoSpeak
			}
			if req.DailyGoalXP != nil {
				st.DailyGoalXP = *req.DailyGoalXP
			}
		})
		return l.Settings(r.Context()), nil
	})
}

// withLedger runs fn in the authenticated user's ledger session and writes its result.
func (s *Server) withLedger(w http.ResponseWriter, r *http.Request, fn func(l *service.Ledger) (any, error)) {
	user := initDataFrom(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "missing init data")
		return
	}

	var opts []service.LedgerOption
	if tz := r.Header.Get("X-Timezone"); tz != "" {
		loc, err := entities.ParseTimezoneLocation(tz)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid X-Timezone")
			return
		}
		opts = append(opts, service.WithLocation(loc))
	}

	if s.users != nil {
		// Private chats share the user's id.
		if err := s.users.EnsureUser(r.Context(), user.UserID, user.UserID); err != nil {
			s.logger.Error("failed to ensure user", zap.Int64("user_id", user.UserID), zap.Error(err))
		}
	}

	ledger, release := s.ledgers.Open(r.Context(), user.UserID, opts...)
	result, err := fn(ledger)
	release()

	if err != nil {
		if errors.Is(err, entities.ErrInvalidImport) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("request failed", zap.Int64("user_id", user.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) progress(r *http.Request, l *service.Ledger) progressResponse {
	return progressResponse{
		Progress: l.Progress(r.Context()),
		Summary:  l.Summary(r.Context()),
	}
}

// decodeBody decodes a JSON request body. An empty body leaves dst unchanged.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	return false
}
