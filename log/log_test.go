package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestInitLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	testWriter = &buf
	Init(LevelWarn, testWriterName)

	Debugf("this debug line should not appear")
	Infof("this info line should not appear")
	Warnf("plan %s rejected: %v", "abc123", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Fatalf("expected debug/info to be filtered out, got: %s", out)
	}
	if !strings.Contains(out, "plan abc123 rejected") {
		t.Fatalf("expected warn line to be logged, got: %s", out)
	}
}

func TestStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	testWriter = &buf
	Init(LevelDebug, testWriterName)

	Errorw(errors.New("below threshold"), "finalize rejected")
	Debugw("applied vote", "plan", "p1", "account", "acc1")

	out := buf.String()
	if !strings.Contains(out, "below threshold") || !strings.Contains(out, "finalize rejected") {
		t.Fatalf("expected error fields in output, got: %s", out)
	}
	if !strings.Contains(out, "plan") || !strings.Contains(out, "p1") {
		t.Fatalf("expected structured field in output, got: %s", out)
	}
}
