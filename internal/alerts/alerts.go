package alerts

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"
)

type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNS subjects are limited to 100 characters.
const maxSubject = 100

// Notifier sends operator alerts to one SNS topic (usually with an email
// subscription). A Notifier without a topic only logs.
type Notifier struct {
	sns      Publisher
	topicArn string
	log      *zap.Logger
}

func NewNotifier(p Publisher, topicArn string, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{sns: p, topicArn: strings.TrimSpace(topicArn), log: log}
}

func (n *Notifier) Enabled() bool {
	return n != nil && n.sns != nil && n.topicArn != ""
}

// Notify never fails the caller; publish errors are logged.
func (n *Notifier) Notify(ctx context.Context, subject string, lines []string) {
	if n == nil {
		return
	}
	n.log.Warn("alert", zap.String("subject", subject), zap.Strings("lines", lines))
	if !n.Enabled() {
		return
	}

	subject = truncateSubject(strings.Join(strings.Fields(subject), " "))

	_, err := n.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicArn),
		Subject:  aws.String(subject),
		Message:  aws.String(strings.Join(lines, "\n")),
	})
	if err != nil {
		n.log.Error("alert publish failed", zap.Error(fmt.Errorf("sns publish: %w", err)))
	}
}

// truncateSubject cuts s to at most maxSubject bytes without splitting a rune.
func truncateSubject(s string) string {
	if len(s) <= maxSubject {
		return s
	}
	n := maxSubject
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
