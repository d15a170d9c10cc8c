package alerts

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, in)
	return &sns.PublishOutput{}, f.err
}

func TestNotifyPublishes(t *testing.T) {
	f := &fakeSNS{}
	n := NewNotifier(f, "arn:aws:sns:us-east-1:1:alerts", zap.NewNop())
	require.True(t, n.Enabled())

	n.Notify(context.Background(), "Order #1001 degraded\n"+strings.Repeat("x", 200), []string{"LCK-1010: sheet write failed", "LCK-1011: ok"})

	require.Len(t, f.inputs, 1)
	in := f.inputs[0]
	assert.Equal(t, "arn:aws:sns:us-east-1:1:alerts", aws.ToString(in.TopicArn))
	assert.Len(t, aws.ToString(in.Subject), maxSubject)
	assert.NotContains(t, aws.ToString(in.Subject), "\n")
	assert.Equal(t, "LCK-1010: sheet write failed\nLCK-1011: ok", aws.ToString(in.Message))
}

func TestNotifySubjectKeepsRunesWhole(t *testing.T) {
	f := &fakeSNS{}
	n := NewNotifier(f, "arn:aws:sns:us-east-1:1:alerts", nil)

	// "Order #" is 7 bytes; each "é" is 2, so byte 100 falls inside a rune.
	n.Notify(context.Background(), "Order #"+strings.Repeat("é", 60), []string{"x"})

	require.Len(t, f.inputs, 1)
	subject := aws.ToString(f.inputs[0].Subject)
	assert.True(t, utf8.ValidString(subject), subject)
	assert.Len(t, subject, 99)
	assert.Equal(t, "Order #"+strings.Repeat("é", 46), subject)
}

func TestNotifyWithoutTopicOrOnError(t *testing.T) {
	f := &fakeSNS{}
	NewNotifier(f, "", nil).Notify(context.Background(), "s", nil)
	assert.Empty(t, f.inputs)

	var nilNotifier *Notifier
	nilNotifier.Notify(context.Background(), "s", nil)

	f.err = errors.New("denied")
	NewNotifier(f, "arn", nil).Notify(context.Background(), "s", []string{"a"})
	assert.Len(t, f.inputs, 1)
}
