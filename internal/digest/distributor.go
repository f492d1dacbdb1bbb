package digest

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/selivandex/market-digest/pkg/logger"
)

// Messenger is the messaging collaborator.
type Messenger interface {
	SendText(ctx context.Context, text string) error
	SendAttachment(ctx context.Context, path string) error
}

// Delivery reports what reached the channel.
type Delivery struct {
	Sent              bool
	Attachments       int
	FailedAttachments []string
	Err               error
}

// Summary renders the delivery as a one-line status.
func (d Delivery) Summary() string {
	if !d.Sent {
		return fmt.Sprintf("failed: %v", d.Err)
	}
	if len(d.FailedAttachments) > 0 {
		return fmt.Sprintf("sent (%d of %d attachments failed)", len(d.FailedAttachments), d.Attachments+len(d.FailedAttachments))
	}
	if d.Attachments > 0 {
		return fmt.Sprintf("sent with %d attachments", d.Attachments)
	}
	return "sent"
}

// Distributor publishes the final report.
type Distributor struct {
	messenger Messenger
}

func NewDistributor(messenger Messenger) *Distributor {
	return &Distributor{messenger: messenger}
}

// Distribute sends message first; only that send decides Sent. Attachments
// go one by one afterwards and are skipped entirely when the message failed.
func (d *Distributor) Distribute(ctx context.Context, message string, attachments []string) Delivery {
	if err := d.messenger.SendText(ctx, message); err != nil {
		err = fmt.Errorf("send message: %w", err)
		logger.Error("message delivery failed",
			zap.String("stage", "distributor"),
			zap.Int("length", len(message)),
			zap.Error(err),
		)
		return Delivery{Err: err}
	}

	delivery := Delivery{Sent: true}
	for _, path := range attachments {
		if err := d.messenger.SendAttachment(ctx, path); err != nil {
			logger.Warn("attachment delivery failed",
				zap.String("stage", "distributor"),
				zap.String("file", filepath.Base(path)),
				zap.Error(err),
			)
			delivery.FailedAttachments = append(delivery.FailedAttachments, path)
			continue
		}
		delivery.Attachments++
	}

	logger.Info("report distributed",
		zap.String("stage", "distributor"),
		zap.Int("attachments", delivery.Attachments),
		zap.Int("failed_attachments", len(delivery.FailedAttachments)),
	)
	return delivery
}
