package viewServer

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/claimstake/console/pkg/actionErrors"
	"github.com/claimstake/console/pkg/orchestrator"
	"github.com/claimstake/console/pkg/paginator"
	"github.com/claimstake/console/pkg/presentation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type AmountRequest struct {
	Amount string `json:"amount"`
}

type StakeRequest struct {
	Amount string `json:"amount"`
	Months uint64 `json:"months"`
}

type ClaimStartRequest struct {
	ClaimStart string `json:"claimStart"`
}

type SetClaimRequest struct {
	User   string `json:"user"`
	Amount string `json:"amount"`
}

type OutcomeResponse struct {
	ActionId string   `json:"actionId"`
	Kind     string   `json:"kind"`
	State    string   `json:"state"`
	TxHashes []string `json:"txHashes"`
	Message  string   `json:"message"`
}

func (vs *ViewServer) view() *presentation.View {
	return presentation.BuildView(vs.session.Snapshot(), vs.now(), vs.config.Location)
}

func (vs *ViewServer) getState(w http.ResponseWriter, r *http.Request) {
	vs.writeJSON(w, http.StatusOK, vs.view())
}

func parseUintParam(r *http.Request, name string, fallback uint64) (uint64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}

func (vs *ViewServer) getStakes(w http.ResponseWriter, r *http.Request) {
	current := vs.session.Snapshot().Window

	page, err := parseUintParam(r, "page", current.Page)
	if err != nil {
		vs.writeError(w, "page must be a positive integer", http.StatusBadRequest)
		return
	}
	limit, err := parseUintParam(r, "limit", current.Limit)
	if err != nil {
		vs.writeError(w, "limit must be a positive integer", http.StatusBadRequest)
		return
	}
	window := paginator.PageWindow{Page: page, Limit: limit}
	if err := window.Validate(); err != nil {
		vs.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if window != current {
		if err := vs.session.OnPageChanged(r.Context(), window); err != nil {
			vs.logger.Sugar().Errorw("Failed to change page", zap.Error(err))
			vs.writeError(w, "Failed to load stakes", http.StatusBadGateway)
			return
		}
	}
	vs.writeJSON(w, http.StatusOK, vs.view().Staking)
}

func (vs *ViewServer) getRecords(w http.ResponseWriter, r *http.Request) {
	s := vs.session.Snapshot()
	if !s.Connection.Connected {
		vs.writeError(w, actionErrors.ErrNotConnected.Error(), http.StatusUnauthorized)
		return
	}
	if vs.records == nil || !vs.records.Enabled() {
		vs.writeError(w, "Record keeper is not configured", http.StatusServiceUnavailable)
		return
	}
	records, err := vs.records.ListStakes(r.Context(), s.Connection.Address.Hex())
	if err != nil {
		vs.logger.Sugar().Errorw("Failed to list recorded stakes", zap.Error(err))
		vs.writeError(w, "Failed to list recorded stakes", http.StatusBadGateway)
		return
	}
	vs.writeJSON(w, http.StatusOK, records)
}

func (vs *ViewServer) getActivity(w http.ResponseWriter, r *http.Request) {
	if vs.activity == nil {
		vs.writeJSON(w, http.StatusOK, []*ActivityItem{})
		return
	}
	vs.writeJSON(w, http.StatusOK, vs.activity.List())
}

func (vs *ViewServer) getHistory(w http.ResponseWriter, r *http.Request) {
	s := vs.session.Snapshot()
	if !s.Connection.Connected {
		vs.writeError(w, actionErrors.ErrNotConnected.Error(), http.StatusUnauthorized)
		return
	}
	limit, err := parseUintParam(r, "limit", 0)
	if err != nil {
		vs.writeError(w, "limit must be a positive integer", http.StatusBadRequest)
		return
	}
	entries, err := vs.journal.ListEntriesForAccount(s.Connection.Address.Hex(), int(limit))
	if err != nil {
		vs.logger.Sugar().Errorw("Failed to list journal entries", zap.Error(err))
		vs.writeError(w, "Failed to list history", http.StatusInternalServerError)
		return
	}
	vs.writeJSON(w, http.StatusOK, entries)
}

func (vs *ViewServer) decode(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		vs.writeError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func outcomeStatus(outcome *orchestrator.Outcome) int {
	if outcome.Succeeded() {
		return http.StatusOK
	}
	var invalid *actionErrors.InvalidInputError
	switch {
	case errors.Is(outcome.Err, actionErrors.ErrNotConnected):
		return http.StatusUnauthorized
	case errors.As(outcome.Err, &invalid):
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}

func (vs *ViewServer) writeOutcome(w http.ResponseWriter, outcome *orchestrator.Outcome) {
	hashes := make([]string, 0, len(outcome.TxHashes))
	for _, h := range outcome.TxHashes {
		hashes = append(hashes, h.Hex())
	}
	vs.writeJSON(w, outcomeStatus(outcome), &OutcomeResponse{
		ActionId: outcome.ActionId,
		Kind:     string(outcome.Kind),
		State:    string(outcome.State),
		TxHashes: hashes,
		Message:  outcome.Message,
	})
}

func (vs *ViewServer) postClaim(w http.ResponseWriter, r *http.Request) {
	req := &AmountRequest{}
	if !vs.decode(w, r, req) {
		return
	}
	vs.writeOutcome(w, vs.actions.Claim(r.Context(), req.Amount))
}

func (vs *ViewServer) postStakeFromClaim(w http.ResponseWriter, r *http.Request) {
	req := &StakeRequest{}
	if !vs.decode(w, r, req) {
		return
	}
	vs.writeOutcome(w, vs.actions.StakeFromClaim(r.Context(), req.Amount, req.Months))
}

func (vs *ViewServer) postStake(w http.ResponseWriter, r *http.Request) {
	req := &StakeRequest{}
	if !vs.decode(w, r, req) {
		return
	}
	vs.writeOutcome(w, vs.actions.Stake(r.Context(), req.Amount, req.Months))
}

func stakeIndex(r *http.Request) (uint64, error) {
	return strconv.ParseUint(mux.Vars(r)["index"], 10, 64)
}

func (vs *ViewServer) postWithdraw(w http.ResponseWriter, r *http.Request) {
	index, err := stakeIndex(r)
	if err != nil {
		vs.writeError(w, "Invalid stake index", http.StatusBadRequest)
		return
	}
	vs.writeOutcome(w, vs.actions.Withdraw(r.Context(), index))
}

func (vs *ViewServer) postClaimRewards(w http.ResponseWriter, r *http.Request) {
	index, err := stakeIndex(r)
	if err != nil {
		vs.writeError(w, "Invalid stake index", http.StatusBadRequest)
		return
	}
	vs.writeOutcome(w, vs.actions.ClaimRewards(r.Context(), index))
}

func (vs *ViewServer) postSetClaimStart(w http.ResponseWriter, r *http.Request) {
	req := &ClaimStartRequest{}
	if !vs.decode(w, r, req) {
		return
	}
	vs.writeOutcome(w, vs.actions.SetClaimStart(r.Context(), req.ClaimStart))
}

func (vs *ViewServer) postSetClaim(w http.ResponseWriter, r *http.Request) {
	req := &SetClaimRequest{}
	if !vs.decode(w, r, req) {
		return
	}
	vs.writeOutcome(w, vs.actions.SetClaim(r.Context(), req.User, req.Amount))
}
