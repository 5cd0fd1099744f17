package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/expensekeeper/internal/common"
	"github.com/dmitrijs2005/expensekeeper/internal/server/auth"
	"github.com/go-chi/chi/v5"
)

const helloMessage = "Hello! I'm a message that came from the backend, check the network tab on the google inspector and you will see the GET request"

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	User        tokenUser `json:"user"`
	Role        auth.Role `json:"role"`
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *HTTPServer) handleHello(w http.ResponseWriter, r *http.Request) error {
	respondJSON(w, http.StatusOK, map[string]string{"message": helloMessage})
	return nil
}

func (s *HTTPServer) handleToken(w http.ResponseWriter, r *http.Request) error {
	var req credentials
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	if req.Email == "" || req.Password == "" {
		return errBadRequest("Missing email or password", nil)
	}

	res, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return errUnauthorized("Bad credentials")
		}
		return err
	}

	respondJSON(w, http.StatusOK, tokenResponse{
		AccessToken: res.AccessToken,
		User:        tokenUser{ID: res.User.ID, Email: res.User.Email, Name: res.User.Name},
		Role:        res.Role,
	})
	return nil
}

func (s *HTTPServer) handleSignup(w http.ResponseWriter, r *http.Request) error {
	return withMessageKey(s.signup(w, r))
}

func (s *HTTPServer) signup(w http.ResponseWriter, r *http.Request) error {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		return errBadRequest("Name, email and password required", nil)
	}

	if _, err := s.users.Register(r.Context(), req.Name, req.Email, req.Password); err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return newHTTPError(http.StatusConflict, "User already exists", err)
		}
		return err
	}

	respondJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully, You may Login."})
	return nil
}

func (s *HTTPServer) handleDeleteUser(w http.ResponseWriter, r *http.Request) error {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return errBadRequest("Invalid user id", err)
	}

	caller, ok := auth.FromContext(r.Context())
	if !ok {
		return errUnauthorized(msgUnauthorized)
	}

	if err := s.users.DeleteAccount(r.Context(), caller, userID); err != nil {
		return err
	}

	respondJSON(w, http.StatusOK, "user has been deleted")
	return nil
}
