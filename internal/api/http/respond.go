package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/assets"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/batches"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/generation"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/imaging"
	nftdomain "github.com/GoSim-25-26J-441/nft-studio-backend/internal/nfts/domain"
	projdomain "github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/storage/objectstore"
	"github.com/GoSim-25-26J-441/nft-studio-backend/pkg/logger"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorRule struct {
	target error
	status int
	kind   string
}

var errorRules = []errorRule{
	{projdomain.ErrProjectNotFound, http.StatusNotFound, "NotFound"},
	{projdomain.ErrLayerNotFound, http.StatusNotFound, "NotFound"},
	{projdomain.ErrTraitNotFound, http.StatusNotFound, "NotFound"},
	{nftdomain.ErrNFTNotFound, http.StatusNotFound, "NotFound"},
	{batches.ErrRunNotFound, http.StatusNotFound, "NotFound"},
	{objectstore.ErrObjectNotFound, http.StatusNotFound, "NotFound"},

	{projdomain.ErrProjectPublished, http.StatusConflict, "Conflict"},
	{projdomain.ErrInvalidStatusTransition, http.StatusConflict, "Conflict"},
	{projdomain.ErrTraitExists, http.StatusConflict, "Conflict"},
	{nftdomain.ErrMintStatusTransition, http.StatusConflict, "Conflict"},
	{nftdomain.ErrVariantIndexTaken, http.StatusConflict, "Conflict"},

	{imaging.ErrInvalidImage, http.StatusUnprocessableEntity, "InvalidImage"},
	{imaging.ErrDimensionMismatch, http.StatusUnprocessableEntity, "DimensionMismatch"},
	{nftdomain.ErrTraitResolution, http.StatusUnprocessableEntity, "TraitResolutionFailure"},
	{assets.ErrUnavailable, http.StatusUnprocessableEntity, "TraitResolutionFailure"},

	{generation.ErrQuotaExceeded, http.StatusTooManyRequests, "QuotaExceeded"},
	{generation.ErrGenerationFailed, http.StatusBadGateway, "GenerationServiceFailure"},

	{projdomain.ErrPromptRequired, http.StatusBadRequest, "InvalidRequest"},
	{projdomain.ErrNameRequired, http.StatusBadRequest, "InvalidRequest"},
	{projdomain.ErrInvalidCount, http.StatusBadRequest, "InvalidRequest"},
	{projdomain.ErrInvalidTrait, http.StatusBadRequest, "InvalidRequest"},
	{projdomain.ErrInvalidRarity, http.StatusBadRequest, "InvalidRequest"},
	{projdomain.ErrInvalidPosition, http.StatusBadRequest, "InvalidRequest"},
	{nftdomain.ErrInvalidMintStatus, http.StatusBadRequest, "InvalidRequest"},
	{nftdomain.ErrInvalidCount, http.StatusBadRequest, "InvalidRequest"},
	{nftdomain.ErrUnknownAttribute, http.StatusBadRequest, "InvalidRequest"},
	{nftdomain.ErrNothingToAssemble, http.StatusBadRequest, "InvalidRequest"},

	{context.DeadlineExceeded, http.StatusGatewayTimeout, "Timeout"},
	{context.Canceled, 499, "Cancelled"},
}

// ErrorStatus maps an error onto its HTTP status and taxonomy kind.
func ErrorStatus(err error) (int, string) {
	var he *projdomain.HierarchyError
	if errors.As(err, &he) {
		return http.StatusUnprocessableEntity, string(he.Kind)
	}
	for _, r := range errorRules {
		if errors.Is(err, r.target) {
			return r.status, r.kind
		}
	}
	return http.StatusInternalServerError, "Internal"
}

// WriteError writes {"ok": false, "error": {kind, message}}. Internal
// errors are logged and reported without detail.
func WriteError(c *gin.Context, err error) {
	status, kind := ErrorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error().Err(err).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "error": errorBody{Kind: kind, Message: msg}})
}

// BadRequest reports a malformed request body or parameter.
func BadRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"ok": false, "error": errorBody{Kind: "InvalidRequest", Message: msg}})
}
