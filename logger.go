// Copyright 2026 The dmmap Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package dmmap

import (
	"fmt"
	"log"
	"os"
)

// Logger receives the multimap's build and load event messages. Fatalf is
// used for conditions the process cannot continue past.
type Logger interface {
	Infof(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

// DefaultLogger writes through the standard library's log package.
type DefaultLogger struct{}

// Infof implements Logger.
func (l DefaultLogger) Infof(format string, args ...interface{}) {
	_ = log.Output(2, fmt.Sprintf(format, args...))
}

// Fatalf implements Logger.
func (l DefaultLogger) Fatalf(format string, args ...interface{}) {
	l.Infof(format, args...)
	os.Exit(1)
}
