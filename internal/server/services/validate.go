// Package services contains server-side business logic: account lifecycle,
// profile mutation and expense bookkeeping. Services own transaction
// boundaries and talk to storage only through the repository manager.
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/expensekeeper/internal/common"
	validation "github.com/go-ozzo/ozzo-validation"
)

// Input limits. The backing columns are unbounded TEXT, so these are the
// only length caps.
const (
	maxNameLen        = 200
	maxEmailLen       = 254
	maxCategoryLen    = 100
	maxDescriptionLen = 500

	// bcrypt ignores everything past 72 bytes and x/crypto rejects it.
	maxPasswordBytes = 72
)

// maxBytes limits a string by its encoded length rather than its rune count.
func maxBytes(n int) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if len(s) > n {
			return fmt.Errorf("must be at most %d bytes", n)
		}
		return nil
	}
}

// validationErr turns an ozzo-validation result into a common.ErrorValidation.
func validationErr(err error) error {
	if err == nil {
		return nil
	}
	var internal validation.InternalError
	if errors.As(err, &internal) {
		return err
	}
	return common.ValidationError(err)
}

func normalizeEmail(s string) string {
	return strings.TrimSpace(s)
}
