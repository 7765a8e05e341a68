package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLoggerFromContext(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	l := New(&buf, logrus.DebugLevel)
	ctx := WithLogger(context.Background(), l)

	Logger(ctx).WithField("task", 1).Debug("ran")
	assert.Contains(buf.String(), "task=1")
	assert.Contains(buf.String(), "ran")

	assert.Equal(logrus.StandardLogger(), Logger(context.Background()))
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))
	l := logrus.New()
	assert.Same(t, l, OrDiscard(l))
}
