package logger

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const ginLoggerKey = "logger"

// Logger bound to the request, falls back to a generic gateway logger
func LOG(c *gin.Context) *logrus.Entry {
	v, ok := c.Get(ginLoggerKey)
	if ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return NewSublogger("gateway")
}

// Aborts the request with the status and returns a logger carrying the error
func LOGE(c *gin.Context, err error, status int) *logrus.Entry {
	body := gin.H{"status": status}
	if err != nil {
		body["error"] = err.Error()
	}
	c.AbortWithStatusJSON(status, body)
	return LOG(c).WithError(err).WithField("status", status)
}

// Middleware attaching a per request logger
func Middleware(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ginLoggerKey, log.WithField("path", c.FullPath()).WithField("method", c.Request.Method))
		c.Next()
	}
}
