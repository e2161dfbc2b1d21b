package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/riskengine/internal/application/dto"
	"github.com/turtacn/riskengine/pkg/constants"
	"github.com/turtacn/riskengine/pkg/errors"
	"github.com/turtacn/riskengine/pkg/logger"
	"github.com/turtacn/riskengine/pkg/utils"
)

func requestID(c *gin.Context) string {
	return c.GetString(string(constants.ContextKeyRequestID))
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, dto.SuccessResponse(data, requestID(c)))
}

// respondError 统一处理错误响应
func respondError(c *gin.Context, log logger.Logger, err error, operation string) {
	ctx := c.Request.Context()
	if errors.ShouldLogError(err) {
		log.Error(ctx, "Request failed", err, logger.String("operation", operation))
	} else {
		log.Warn(ctx, "Request rejected",
			logger.String("operation", operation),
			logger.Error(err),
		)
	}
	status, body := dto.ErrorResponse(err, requestID(c))
	c.AbortWithStatusJSON(status, body)
}

// bindJSON decodes and validates the request body. An empty body is accepted
// when allowEmpty is set.
func bindJSON(c *gin.Context, req interface{}, allowEmpty bool) error {
	if !allowEmpty || c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(req); err != nil {
			return errors.ErrValidation("malformed request body").WithCause(err)
		}
	}
	return validate(req)
}

func bindQuery(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindQuery(req); err != nil {
		return errors.ErrValidation("malformed query parameters").WithCause(err)
	}
	return validate(req)
}

func bindURI(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindUri(req); err != nil {
		return errors.ErrValidation("malformed path parameters").WithCause(err)
	}
	return validate(req)
}

func validate(req interface{}) error {
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}
	return nil
}
