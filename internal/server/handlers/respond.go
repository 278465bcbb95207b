package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	pkgerrors "github.com/mamadbah2/partstock/pkg/errors"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

// writeError maps err onto its HTTP status. Internal errors are logged and
// replaced with a generic message; everything else is the caller's to fix.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())
	msg := meta.PublicMessage
	switch typed.Code() {
	case pkgerrors.CodeValidation, pkgerrors.CodeNotFound, pkgerrors.CodeConflict, pkgerrors.CodeDependency:
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	payload := errorEnvelope{Error: apiError{Code: string(typed.Code()), Message: msg}}
	if meta.DetailsAllowed {
		payload.Error.Details = typed.Details()
	}

	fields := []zap.Field{
		zap.String("code", string(typed.Code())),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	}
	if meta.HTTPStatus >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
	} else {
		logger.Debug("request rejected", fields...)
	}

	c.AbortWithStatusJSON(meta.HTTPStatus, payload)
}

// badRequest reports a body or query that could not be decoded at all.
func badRequest(c *gin.Context, logger *zap.Logger, err error, message string) {
	writeError(c, logger, pkgerrors.Wrap(pkgerrors.CodeValidation, err, message))
}
