// internal/workers/communication/send-merchant-message/handler.go
package sendmerchantmessage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"uwizard-workers/internal/common/logger"
	"uwizard-workers/internal/common/metrics"
	"uwizard-workers/internal/store"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-merchant-message"
)

var (
	ErrMessageSendFailed = errors.New("MESSAGE_SEND_FAILED")
	ErrMerchantNotFound  = errors.New("MERCHANT_NOT_FOUND")
	ErrInvalidChannel    = errors.New("INVALID_CHANNEL")
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config    *Config
	store     *store.Store
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
}

func NewHandler(config *Config, st *store.Store, log logger.Logger) (*Handler, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(config.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &Handler{
		config:    config,
		store:     st,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
		sesClient: ses.NewFromConfig(awsCfg),
		snsClient: sns.NewFromConfig(awsCfg),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "MESSAGE_SEND_FAILED"
		switch {
		case errors.Is(err, ErrMerchantNotFound):
			errorCode = "MERCHANT_NOT_FOUND"
		case errors.Is(err, ErrInvalidChannel):
			errorCode = "INVALID_CHANNEL"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Channel != ChannelEmail && input.Channel != ChannelSMS {
		return nil, fmt.Errorf("%w: %q", ErrInvalidChannel, input.Channel)
	}

	to := input.To
	if to == "" {
		resolved, err := h.resolveContact(ctx, input.MerchantID, input.Channel)
		if err != nil {
			return nil, err
		}
		to = resolved
	}

	messageID := uuid.New().String()
	sentAt := time.Now().UTC().Format(time.RFC3339)

	// A disabled channel completes without sending so workflows can branch
	// on the status instead of retrying.
	if (input.Channel == ChannelEmail && !h.config.EmailEnabled) ||
		(input.Channel == ChannelSMS && !h.config.SMSEnabled) {
		return &Output{MessageID: messageID, Status: StatusDisabled, Channel: input.Channel, SentAt: sentAt}, nil
	}

	var err error
	switch input.Channel {
	case ChannelEmail:
		err = h.sendEmail(ctx, to, input.Subject, input.Text)
	case ChannelSMS:
		err = h.sendSMS(ctx, to, input.Text)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMessageSendFailed, err)
	}

	h.logger.Info("message sent", map[string]interface{}{
		"merchantId": input.MerchantID,
		"channel":    input.Channel,
		"messageId":  messageID,
	})

	return &Output{MessageID: messageID, Status: StatusSent, Channel: input.Channel, SentAt: sentAt}, nil
}

func (h *Handler) resolveContact(ctx context.Context, merchantID, channel string) (string, error) {
	if merchantID == "" {
		return "", fmt.Errorf("%w: merchantId is required when no recipient is supplied", ErrMerchantNotFound)
	}
	merchant, err := h.store.GetMerchant(ctx, merchantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrMerchantNotFound, merchantID)
		}
		return "", err
	}

	var to string
	if channel == ChannelEmail {
		to = merchant.Email
	} else {
		to = merchant.Phone
	}
	if to == "" {
		return "", fmt.Errorf("%w: merchant %s has no %s contact on file", ErrMessageSendFailed, merchantID, channel)
	}
	return to, nil
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
				Html: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	in := &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	}
	if h.config.SMSSenderID != "" {
		in.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(h.config.SMSSenderID),
			},
		}
	}
	_, err := h.snsClient.Publish(ctx, in)
	return err
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}
