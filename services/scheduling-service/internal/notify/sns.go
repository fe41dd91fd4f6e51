package notify

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSPublisher is the SNS call the sender makes. *sns.Client satisfies it.
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSSender publishes transactional SMS directly to a phone number.
type SNSSender struct {
	client   SNSPublisher
	senderID string
}

func NewSNSSender(client SNSPublisher, senderID string) *SNSSender {
	return &SNSSender{client: client, senderID: strings.TrimSpace(senderID)}
}

// NewSNSSenderFromRegion loads the default AWS credential chain.
func NewSNSSenderFromRegion(ctx context.Context, region, senderID string) (*SNSSender, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return NewSNSSender(sns.NewFromConfig(cfg), senderID), nil
}

func (s *SNSSender) ProviderID() string { return "sms-sns" }

func (s *SNSSender) Send(ctx context.Context, to string, body string) error {
	phone := E164(to)
	if phone == "" {
		return ErrNoRecipient
	}
	attrs := map[string]snstypes.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
	}
	if s.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = snstypes.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(s.senderID)}
	}
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(phone),
		Message:           aws.String(body),
		MessageAttributes: attrs,
	})
	return err
}

// E164 keeps the digits of a phone number and prefixes "+". Stored phones
// already carry the country code ("5511987654321").
func E164(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "+" + b.String()
}
