/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logutil

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) record(level, msg string, args ...interface{}) {
	l.lines = append(l.lines, level+" "+fmt.Sprintf(msg, args...))
}

func (l *recordingLogger) Fatalf(msg string, args ...interface{}) { l.record("FATAL", msg, args...) }
func (l *recordingLogger) Panicf(msg string, args ...interface{}) { l.record("PANIC", msg, args...) }
func (l *recordingLogger) Debugf(msg string, args ...interface{}) { l.record("DEBUG", msg, args...) }
func (l *recordingLogger) Infof(msg string, args ...interface{})  { l.record("INFO", msg, args...) }
func (l *recordingLogger) Warnf(msg string, args ...interface{})  { l.record("WARN", msg, args...) }
func (l *recordingLogger) Errorf(msg string, args ...interface{}) { l.record("ERROR", msg, args...) }

func TestLog(t *testing.T) {
	l := &recordingLogger{}

	LogError(l, "vczkp", "IssueCredential", "registry full", CreateKeyValueString("registry", "r1"))
	LogDebug(l, "vczkp", "RequestProof", "success")
	LogInfo(l, "vczkp", "Revoke", "success", CreateKeyValueString("registry", "r1"), CreateKeyValueString("id", "0"))

	require.Equal(t, []string{
		"ERROR command=[vczkp] action=[IssueCredential] registry=[r1] errMsg=[registry full]",
		"DEBUG command=[vczkp] action=[RequestProof]  msg=[success]",
		"INFO command=[vczkp] action=[Revoke] registry=[r1] id=[0] msg=[success]",
	}, l.lines)
}
