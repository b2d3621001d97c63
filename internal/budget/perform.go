package budget

import (
	"context"

	"github.com/theirongolddev/hbudget/internal/api"
	"github.com/theirongolddev/hbudget/internal/auth"
	"github.com/theirongolddev/hbudget/internal/model"
	"github.com/theirongolddev/hbudget/internal/notify"
)

// MsgMissingCredential is shown when an authenticated operation runs
// without a token.
const MsgMissingCredential = "No token found. Please log in."

// operation describes one remote call's notification lifecycle.
type operation[T any] struct {
	name string
	// auth operations fail fast without a credential.
	auth bool
	// loading is shown while the call is in flight; empty means none.
	loading string
	// success is shown on completion; empty means the operation is silent.
	success string
	// failure is the generic message shown on any error.
	failure string
	// serverMessage prefers the server-reported error text over failure.
	serverMessage bool
	// inPlace settles the loading notification instead of dismissing it
	// and raising a new one.
	inPlace bool
	// describe may extend the success message with details from the result.
	describe func(T) string
}

var (
	opList = operation[[]model.Budget]{
		name:    "list",
		auth:    true,
		failure: "Failed to fetch budgets.",
	}
	opGet = operation[*model.Budget]{
		name:    "get",
		failure: "Error fetching budget.",
	}
	opCreate = operation[*model.Budget]{
		name:    "create",
		auth:    true,
		loading: "Adding budget...",
		success: "Budget added successfully!",
		failure: "Error adding budget.",
	}
	opUpdate = operation[*model.Budget]{
		name:    "update",
		auth:    true,
		loading: "Updating budget...",
		success: "Budget updated successfully!",
		failure: "Error updating budget.",
	}
	opRemove = operation[struct{}]{
		name:    "remove",
		auth:    true,
		loading: "Deleting budget...",
		success: "Budget deleted successfully!",
		failure: "Error deleting budget.",
	}
	opUpload = operation[*api.UploadResult]{
		name:          "upload",
		auth:          true,
		loading:       "Uploading image...",
		success:       "Image uploaded successfully",
		failure:       "Image upload failed",
		serverMessage: true,
		inPlace:       true,
		describe: func(r *api.UploadResult) string {
			if r == nil || r.ImageURL == "" {
				return ""
			}
			return r.ImageURL
		},
	}
)

// perform runs call with the standard lifecycle: credential precondition,
// loading notification, diagnostic log on failure, exactly one settled
// notification, and reduce applied under the write lock only on success.
// A reducer returning false marks the completion as stale.
func perform[T any](
	ctx context.Context,
	s *Store,
	op operation[T],
	call func(ctx context.Context, token string) (T, error),
	reduce func(st *state, seq uint64, v T) bool,
) (T, error) {
	var zero T
	seq := s.seq.Add(1)

	var token string
	if op.auth {
		tok, ok := s.creds.Token()
		if !ok {
			s.logger.Warn().Str("op", op.name).Msg("no credential, skipping request")
			s.notifier.Error(MsgMissingCredential)
			return zero, auth.ErrMissingCredential
		}
		token = tok
	}

	var id notify.ID
	if op.loading != "" {
		id = s.notifier.Loading(op.loading)
	}

	v, err := call(ctx, token)
	if err != nil {
		s.logger.Error().Err(err).Str("op", op.name).Uint64("seq", seq).Msg("remote operation failed")
		s.settleError(op.failure, op.serverMessage, op.inPlace, id, err)
		return zero, err
	}

	if reduce != nil {
		s.mu.Lock()
		applied := reduce(&s.st, seq, v)
		s.mu.Unlock()
		if !applied {
			s.logger.Warn().Str("op", op.name).Uint64("seq", seq).Msg("stale completion, local state unchanged")
		}
	}

	if op.success != "" {
		msg := op.success
		if op.describe != nil {
			if extra := op.describe(v); extra != "" {
				msg += ": " + extra
			}
		}
		if op.inPlace && id != "" {
			s.notifier.Update(id, notify.KindSuccess, msg)
		} else {
			if id != "" {
				s.notifier.Dismiss(id)
			}
			s.notifier.Success(msg)
		}
	} else if id != "" {
		s.notifier.Dismiss(id)
	}
	return v, nil
}

func (s *Store) settleError(generic string, preferServer, inPlace bool, id notify.ID, err error) {
	msg := generic
	if preferServer {
		if m := api.ServerMessage(err); m != "" {
			msg = m
		}
	}
	if inPlace && id != "" {
		s.notifier.Update(id, notify.KindError, msg)
		return
	}
	if id != "" {
		s.notifier.Dismiss(id)
	}
	s.notifier.Error(msg)
}
