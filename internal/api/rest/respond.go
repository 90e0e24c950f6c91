package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gesoten/nft-game-gateway/internal/domain"
	"github.com/gesoten/nft-game-gateway/internal/logger"
)

// Message codes carried in failure envelopes. Clients switch on these,
// not on HTTP status, so the values are frozen. Success bodies carry no
// code at all.
const (
	// codePrecondition marks input that failed before anything was
	// signed: a bad private key, a bad address, a failed upload.
	codePrecondition = 1001
	// codeChainFailure marks a transaction the network rejected.
	codeChainFailure = 1000
	// codeNotFound marks a missing record or bad request reported
	// inside a 200 body.
	codeNotFound = 400
	// codeUnexpected marks everything else.
	codeUnexpected = -1
)

// respondOK sends a success body. Payload fields merge into the top
// level; no message_code is attached.
func respondOK(c *gin.Context, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// respondBadRequest rejects malformed input with HTTP 400
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success":      false,
		"message":      message,
		"message_code": codeNotFound,
	})
}

// respondFailure reports an operation failure inside a 200 body, the
// envelope deployed clients parse. Extra fields merge into the top
// level.
func respondFailure(c *gin.Context, code int, message string, extra gin.H) {
	body := gin.H{
		"success":      false,
		"message":      message,
		"message_code": code,
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// respondInternal reports an unexpected error and logs the cause
func respondInternal(c *gin.Context, err error, fields ...zap.Field) {
	logger.Error(err, fields...)
	respondFailure(c, codeUnexpected, "Unexpected error", nil)
}

// respondOperationError maps executor errors onto the failure envelope.
// A partial result carries the hash of a submission that failed after
// signing; it is surfaced so the caller can reconcile manually.
func respondOperationError(c *gin.Context, err error, result *domain.OperationResult) {
	extra := gin.H{}
	if result != nil && result.TxHash != "" {
		extra["txHash"] = result.TxHash
	}

	switch {
	case errors.Is(err, domain.ErrInvalidSigningKey),
		errors.Is(err, domain.ErrInvalidAddress),
		errors.Is(err, domain.ErrContentUploadFailed):
		respondFailure(c, codePrecondition, err.Error(), nil)
	case errors.Is(err, domain.ErrChainSubmissionFailed):
		respondFailure(c, codeChainFailure, err.Error(), extra)
	case errors.Is(err, domain.ErrRecordNotFound):
		respondFailure(c, codeNotFound, "NFT record is not found", nil)
	default:
		respondInternal(c, err)
	}
}
