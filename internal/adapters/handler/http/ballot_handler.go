package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unionhall/ballotproof/internal/core/domain"
	"github.com/unionhall/ballotproof/internal/core/ports"
)

type BallotHandler struct {
	service ports.BallotService
}

func NewBallotHandler(service ports.BallotService) *BallotHandler {
	return &BallotHandler{
		service: service,
	}
}

type castVoteRequest struct {
	OptionID  string `json:"option_id"`
	MemberID  string `json:"member_id"`
	Anonymous bool   `json:"anonymous"`
}

type castVoteResponse struct {
	Receipt domain.VoteReceipt `json:"receipt"`
	Audited bool               `json:"audited"`
}

func (h *BallotHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}

	var req castVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.OptionID == "" {
		http.Error(w, "option_id is required", http.StatusBadRequest)
		return
	}
	if req.MemberID == "" && !req.Anonymous {
		http.Error(w, "member_id is required for non-anonymous votes", http.StatusBadRequest)
		return
	}

	input := ports.CastVoteInput{
		SessionID: sessionID,
		OptionID:  req.OptionID,
		MemberID:  req.MemberID,
		Anonymous: req.Anonymous,
	}

	out, err := h.service.CastVote(r.Context(), input)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(castVoteResponse{Receipt: out.Receipt, Audited: out.Audited})
}

type verifyReceiptRequest struct {
	Receipt          domain.VoteReceipt `json:"receipt"`
	VerificationCode string             `json:"verification_code"`
	VoteData         domain.VoteData    `json:"vote_data"`
}

func (h *BallotHandler) VerifyReceipt(w http.ResponseWriter, r *http.Request) {
	var req verifyReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.VoteData.SessionID == "" {
		http.Error(w, "vote_data.session_id is required", http.StatusBadRequest)
		return
	}

	check, err := h.service.CheckReceipt(r.Context(), ports.CheckReceiptInput{
		Receipt:          req.Receipt,
		VerificationCode: req.VerificationCode,
		VoteData:         req.VoteData,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(check)
}

type verifySignatureRequest struct {
	VoteData  domain.VoteData      `json:"vote_data"`
	Signature domain.VoteSignature `json:"signature"`
}

type verifySignatureResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

func (h *BallotHandler) VerifySignature(w http.ResponseWriter, r *http.Request) {
	var req verifySignatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	err := h.service.VerifySignature(r.Context(), req.VoteData, req.Signature)
	resp := verifySignatureResponse{Valid: err == nil}
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrSignatureExpired),
		errors.Is(err, domain.ErrVoteHashMismatch),
		errors.Is(err, domain.ErrSignatureMismatch):
		resp.Reason = err.Error()
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
