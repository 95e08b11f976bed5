package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/minkang-clinic-dev/duty-roster/backend/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// enqueueMail 把邮件推入消息队列，由 notify 进程异步发送
func (h *Handler) enqueueMail(msg domain.MailMessage) error {
	mailData, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return h.mailChannel.PublishWithContext(
		ctx,
		"",
		"email_queue",
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        mailData,
		},
	)
}
