package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/expensekeeper/internal/common"
	"github.com/dmitrijs2005/expensekeeper/internal/server/auth"
	"github.com/dmitrijs2005/expensekeeper/internal/server/models"
)

type profileResponse struct {
	*models.User
	Role       auth.Role `json:"role"`
	PictureURL string    `json:"picture_url,omitempty"`
}

type profileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type pictureResponse struct {
	Picture   string `json:"picture"`
	UploadURL string `json:"upload_url"`
}

func (s *HTTPServer) handleGetProfile(w http.ResponseWriter, r *http.Request) error {
	userID, err := currentUserID(r)
	if err != nil {
		return err
	}

	user, err := s.profiles.GetProfile(r.Context(), userID)
	if err != nil {
		return err
	}

	resp := profileResponse{User: user, Role: auth.RoleUser}
	if user.Picture != nil && *user.Picture != "" {
		url, err := s.profiles.PictureURL(r.Context(), *user.Picture)
		if err != nil {
			// the profile is still useful without a download link
			s.logger.Warn(r.Context(), "presign picture failed", "user_id", userID, "error", err)
		} else {
			resp.PictureURL = url
		}
	}

	respondJSON(w, http.StatusOK, resp)
	return nil
}

func (s *HTTPServer) handleUpdateProfile(w http.ResponseWriter, r *http.Request) error {
	userID, err := currentUserID(r)
	if err != nil {
		return err
	}

	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	if req.Name == "" || req.Email == "" {
		return errBadRequest("Name and email are required", nil)
	}

	user, err := s.profiles.UpdateProfile(r.Context(), userID, req.Name, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return errBadRequest("Email is already in use", err)
		}
		return err
	}

	respondJSON(w, http.StatusOK, user)
	return nil
}

func (s *HTTPServer) handleUpdatePassword(w http.ResponseWriter, r *http.Request) error {
	userID, err := currentUserID(r)
	if err != nil {
		return err
	}

	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		return errBadRequest("Current and new password required", nil)
	}

	if err := s.profiles.UpdatePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, common.ErrorUnauthorized) || errors.Is(err, common.ErrorNotFound) {
			return errBadRequest("Current password is incorrect", err)
		}
		return err
	}

	respondMsg(w, http.StatusOK, "Password updated successfully")
	return nil
}

func (s *HTTPServer) handleRequestPicture(w http.ResponseWriter, r *http.Request) error {
	userID, err := currentUserID(r)
	if err != nil {
		return err
	}

	up, err := s.profiles.RequestPictureUpload(r.Context(), userID)
	if err != nil {
		return err
	}

	respondJSON(w, http.StatusOK, pictureResponse{Picture: up.Key, UploadURL: up.UploadURL})
	return nil
}
