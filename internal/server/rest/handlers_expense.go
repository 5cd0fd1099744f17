package rest

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/expensekeeper/internal/server/models"
	"github.com/go-chi/chi/v5"
)

func (s *HTTPServer) handleListExpenses(w http.ResponseWriter, r *http.Request) error {
	userID, err := currentUserID(r)
	if err != nil {
		return err
	}

	list, err := s.expenses.List(r.Context(), userID)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*models.Expense{}
	}

	respondJSON(w, http.StatusOK, list)
	return nil
}

func (s *HTTPServer) handleCreateExpense(w http.ResponseWriter, r *http.Request) error {
	userID, err := currentUserID(r)
	if err != nil {
		return err
	}

	var e models.Expense
	if err := decodeJSON(r, &e); err != nil {
		return err
	}

	created, err := s.expenses.Create(r.Context(), userID, &e)
	if err != nil {
		return err
	}

	respondJSON(w, http.StatusCreated, created)
	return nil
}

func (s *HTTPServer) handleDeleteExpense(w http.ResponseWriter, r *http.Request) error {
	userID, err := currentUserID(r)
	if err != nil {
		return err
	}

	expenseID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return errBadRequest("Invalid expense id", err)
	}

	if err := s.expenses.Delete(r.Context(), userID, expenseID); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
