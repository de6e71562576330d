// Package middleware holds the thin HTTP-edge concerns spec.md §1 calls
// "standard and uninteresting": error mapping, the authorize() stub spec.md
// §9 asks for, and rate limiting. None of it is engine behavior.
package middleware

import (
	ierr "github.com/sugu-inc/modern-billing/internal/errors"
	"github.com/gin-gonic/gin"
)

// ErrorHandler converts the last error attached to the gin context into the
// ierr.ErrorResponse envelope, status-mapped per spec.md §7's taxonomy.
// Grounded on the teacher's rest/middleware/errhandler.go split between
// display-hint extraction and safe-detail extraction; simplified here since
// this package's ierr doesn't layer cockroachdb's hint/detail decorators as
// deeply as the teacher's does.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		display := "an unexpected error occurred"
		var details map[string]any
		if de, ok := ierr.AsDomainError(err); ok {
			if de.Hint() != "" {
				display = de.Hint()
			}
			details = de.Details()
		}

		status := ierr.HTTPStatusFromErr(err)
		c.JSON(status, ierr.ErrorResponse{
			Success: false,
			Error:   ierr.ErrorDetail{Display: display, Details: details},
		})
	}
}
