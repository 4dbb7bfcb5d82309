/*
Package handler provides read-only HTTP handlers exposing rooms and connected users.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"roomchat/internal/app/chat"
	"roomchat/internal/pkg/resp"
)

// RoomDetail is the response of GET /api/rooms/{name}.
type RoomDetail struct {
	Name    string         `json:"name"`
	Members []string       `json:"members"`
	History []chat.Message `json:"history"`
}

// HandleListRooms returns every room with its member count.
func HandleListRooms(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]any{
			"rooms": deps.Manager.ListRooms(),
		})
	}
}

// HandleGetRoom returns the members and retained history of one room.
func HandleGetRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		members, err := deps.Manager.RoomMembers(name)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		history, err := deps.Manager.History(name)
		if err != nil {
			resp.RespondError(w, r, err)
			return
		}

		resp.RespondSuccess(w, r, RoomDetail{
			Name:    name,
			Members: members,
			History: history,
		})
	}
}

// HandleListUsers returns every registered session and its room.
func HandleListUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]any{
			"users": deps.Manager.Users(),
		})
	}
}
