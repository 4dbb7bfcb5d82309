/*
Package handler provides the operator HTTP handlers for announcements and kicks.

Both routes sit behind jwt.RequireAdmin; the operator name from the token is logged for audit.
*/
package handler

import (
	"net/http"
	"strings"

	"roomchat/internal/app/chat"
	"roomchat/internal/pkg/auth/jwt"
	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/logx"
	"roomchat/internal/pkg/req"
	"roomchat/internal/pkg/resp"
)

type AnnounceInput struct {
	// Room receives the announcement; empty means every room.
	Room string `json:"room"`
	Text string `json:"text"`
}

type KickInput struct {
	Name   string `json:"name"`
	Reason string `json:"reason,omitempty"`
}

func operator(r *http.Request) string {
	if payload := jwt.GetPayloadFromContext(r); payload != nil {
		return payload.Subject
	}
	return ""
}

// HandleAnnounce publishes a System message to one room or to all rooms.
func HandleAnnounce(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input AnnounceInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		input.Room = strings.TrimSpace(input.Room)
		input.Text = strings.TrimSpace(input.Text)
		if input.Text == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		if len(input.Text) > chat.MaxContentBytes {
			resp.RespondError(w, r, errs.NewError(errs.ErrMessageContentTooLong, chat.MaxContentBytes))
			return
		}

		if customErr := deps.Manager.Announce(input.Room, input.Text); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		logx.Info("Operator announcement sent", "operator", operator(r), "room", input.Room)
		resp.RespondSuccess(w, r, map[string]string{"room": input.Room})
	}
}

// HandleKick disconnects a user by display name.
func HandleKick(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input KickInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		input.Name = strings.TrimSpace(input.Name)
		if input.Name == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if !deps.Manager.Kick(input.Name, strings.TrimSpace(input.Reason)) {
			resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound, input.Name))
			return
		}

		logx.Info("Operator kicked user", "operator", operator(r), "name", input.Name)
		resp.RespondSuccess(w, r, map[string]string{"name": input.Name})
	}
}
