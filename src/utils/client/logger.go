package client

import (
	"github.com/warp-contracts/vault/src/utils/logger"

	"github.com/sirupsen/logrus"
)

// Resty logs go to trace, errors are returned to the caller anyway
type Logger struct {
	log *logrus.Entry
}

func NewLogger() (self *Logger) {
	self = new(Logger)
	self.log = logger.NewSublogger("client-resty")
	return
}

func (self *Logger) Errorf(format string, v ...interface{}) {
	self.log.Tracef(format, v...)
}

func (self *Logger) Warnf(format string, v ...interface{}) {
	self.log.Tracef(format, v...)
}

func (self *Logger) Debugf(format string, v ...interface{}) {
	self.log.Tracef(format, v...)
}
