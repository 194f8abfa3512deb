// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

package gojlink

import (
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var logger = logrus.WithField("prefix", "gojlink")

func init() {
	logrus.SetFormatter(&prefixed.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
}

// SetLogLevel adjusts the verbosity of the module-wide logger. Transports
// log their wire traffic at debug level.
func SetLogLevel(level logrus.Level) {
	logrus.SetLevel(level)
}
